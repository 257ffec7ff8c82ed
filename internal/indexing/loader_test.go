package indexing_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docindex/mcp-server/internal/indexing"
)

const samplePayload = `{"docs":[
{"location":"man/guide/#Package-Guide","page":"Guide","title":"Package Guide","text":"TODO","category":"section"},
{"location":"man/contributing/","page":"Contributing","title":"Contributing","text":"This page serves as the contribution guide for the SFAR package.","category":"page"},
{"location":"man/dev-index/#CFAR.get_gaussian_data-Tuple{}","page":"Developer Index","title":"CFAR.get_gaussian_data","text":"Generates Gaussian distributed samples.","category":"method"},
{"location":"#Documentation-Build","page":"Home","title":"Documentation Build","text":"","category":"section"}
]}`

func sampleEntries() []indexing.PageEntry {
	return []indexing.PageEntry{
		{Location: "man/guide/#Package-Guide", Page: "Guide", Title: "Package Guide", Text: "TODO", Category: indexing.CategorySection},
		{Location: "man/contributing/", Page: "Contributing", Title: "Contributing", Text: "This page serves as the contribution guide for the SFAR package.", Category: indexing.CategoryPage},
		{Location: "man/dev-index/#CFAR.get_gaussian_data-Tuple{}", Page: "Developer Index", Title: "CFAR.get_gaussian_data", Text: "Generates Gaussian distributed samples.", Category: indexing.CategoryMethod},
		{Location: "#Documentation-Build", Page: "Home", Title: "Documentation Build", Text: "", Category: indexing.CategorySection},
	}
}

func TestLoadBytes_PreservesOrderAndFields(t *testing.T) {
	result, err := indexing.LoadBytes([]byte(samplePayload))
	require.NoError(t, err)

	assert.Equal(t, sampleEntries(), result.Entries)
	assert.Empty(t, result.Warnings)
}

func TestLoadBytes_ScriptWrapped(t *testing.T) {
	script := "var documenterSearchIndex = " + samplePayload + ";\n"

	result, err := indexing.LoadBytes([]byte(script))
	require.NoError(t, err)

	assert.Equal(t, sampleEntries(), result.Entries)
}

func TestLoadBytes_ConcatenatedPayloads(t *testing.T) {
	script := "var documenterSearchIndex = " + samplePayload + "\n" +
		"var documenterSearchIndex = " + samplePayload + ";" +
		"var documenterSearchIndex = " + samplePayload + "\n"

	result, err := indexing.LoadBytes([]byte(script))
	require.NoError(t, err)

	require.Len(t, result.Entries, 3*len(sampleEntries()))
	assert.Equal(t, sampleEntries(), result.Entries[len(sampleEntries()):2*len(sampleEntries())])
	assert.Len(t, indexing.Dedupe(result.Entries), len(sampleEntries()))
}

func TestLoadBytes_ScriptTextInsideStrings(t *testing.T) {
	entry := indexing.PageEntry{
		Location: "man/guide/#Deploying",
		Page:     "Guide",
		Title:    "var documenterSearchIndex = x;",
		Text:     "write var documenterSearchIndex = {\"docs\": []}; to the page;\nthen reload",
		Category: indexing.CategorySection,
	}
	encoded, err := json.Marshal(indexing.LoadResult{Entries: []indexing.PageEntry{entry}})
	require.NoError(t, err)
	payload := strings.Replace(string(encoded), `"entries"`, `"docs"`, 1)

	for name, input := range map[string]string{
		"bare":         payload,
		"wrapped":      "var documenterSearchIndex = " + payload + ";\n",
		"concatenated": "var documenterSearchIndex = " + payload + ";var documenterSearchIndex = " + payload,
	} {
		t.Run(name, func(t *testing.T) {
			result, err := indexing.LoadBytes([]byte(input))
			require.NoError(t, err)
			require.NotEmpty(t, result.Entries)
			for _, got := range result.Entries {
				assert.Equal(t, entry, got)
			}
		})
	}
}

func TestLoadBytes_MalformedEntrySkipped(t *testing.T) {
	tests := []struct {
		name string
		bad  string
	}{
		{
			name: "missing field",
			bad:  `{"location":"x/","page":"X","title":"X","category":"page"}`,
		},
		{
			name: "wrong type",
			bad:  `{"location":"x/","page":"X","title":42,"text":"","category":"page"}`,
		},
		{
			name: "unknown category",
			bad:  `{"location":"x/","page":"X","title":"X","text":"","category":"widget"}`,
		},
		{
			name: "not an object",
			bad:  `"just a string"`,
		},
		{
			name: "null entry",
			bad:  `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := sampleEntries()
			payload := strings.Replace(samplePayload, "\n{\"location\":\"man/contributing/\"", "\n"+tt.bad+",\n{\"location\":\"man/contributing/\"", 1)

			result, err := indexing.LoadBytes([]byte(payload))
			require.NoError(t, err)

			assert.Equal(t, entries, result.Entries)
			require.Len(t, result.Warnings, 1)
			assert.Equal(t, 1, result.Warnings[0].Position)
			assert.NotEmpty(t, result.Warnings[0].Reason)
		})
	}
}

func TestLoadBytes_Idempotent(t *testing.T) {
	first, err := indexing.LoadBytes([]byte(samplePayload))
	require.NoError(t, err)
	second, err := indexing.LoadBytes([]byte(samplePayload))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoadBytes_InvalidPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty input", payload: ""},
		{name: "not json", payload: "<html></html>"},
		{name: "missing docs", payload: `{"pages":[]}`},
		{name: "docs not an array", payload: `{"docs":"nope"}`},
		{name: "truncated", payload: `{"docs":[{"location":"a"`},
		{name: "trailing script", payload: `{"docs":[]} console.log(1)`},
		{name: "other variable", payload: `var searchIndex = {"docs":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := indexing.LoadBytes([]byte(tt.payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, indexing.ErrInvalidPayload)
		})
	}
}

func TestLoadBytes_EmptyDocs(t *testing.T) {
	result, err := indexing.LoadBytes([]byte(`{"docs":[]}`))
	require.NoError(t, err)

	assert.NotNil(t, result.Entries)
	assert.Empty(t, result.Entries)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search_index.js")
	require.NoError(t, os.WriteFile(path, []byte("var documenterSearchIndex = "+samplePayload), 0644))

	result, err := indexing.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleEntries(), result.Entries)

	_, err = indexing.LoadFile(filepath.Join(t.TempDir(), "missing.js"))
	assert.Error(t, err)
}

func TestLoad_Reader(t *testing.T) {
	result, err := indexing.Load(strings.NewReader(samplePayload))
	require.NoError(t, err)
	assert.Len(t, result.Entries, len(sampleEntries()))
}
