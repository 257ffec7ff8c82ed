package indexing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docindex/mcp-server/internal/indexing"
)

func TestSearch_PackageGuideExample(t *testing.T) {
	entries := []indexing.PageEntry{{
		Location: "man/guide/#Package-Guide",
		Page:     "Guide",
		Title:    "Package Guide",
		Text:     "TODO",
		Category: indexing.CategorySection,
	}}

	matches := indexing.Search(entries, "TODO", indexing.SearchOptions{})
	require.Len(t, matches, 1)
	assert.Equal(t, entries[0], matches[0].Entry)
	assert.Equal(t, indexing.FieldText, matches[0].Field)

	none := indexing.Search(entries, "nonexistent-term-xyz", indexing.SearchOptions{})
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSearch_UniqueTextMatch(t *testing.T) {
	entries := sampleEntries()

	matches := indexing.Search(entries, "distributed samples", indexing.SearchOptions{})
	require.Len(t, matches, 1)
	assert.Equal(t, entries[2], matches[0].Entry)
	assert.Equal(t, 2, matches[0].Position)
}

func TestSearch_CaseInsensitive(t *testing.T) {
	entries := sampleEntries()

	for _, query := range []string{"gaussian", "GAUSSIAN", "GaUsSiAn"} {
		matches := indexing.Search(entries, query, indexing.SearchOptions{})
		require.Len(t, matches, 1, "query %q", query)
		assert.Equal(t, entries[2], matches[0].Entry)
	}
}

func TestSearch_UnicodeCaseFolding(t *testing.T) {
	entries := []indexing.PageEntry{
		{Location: "a/", Page: "Streets", Title: "Hauptstraße", Text: "", Category: indexing.CategorySection},
		{Location: "b/", Page: "Units", Title: "Temperature", Text: "Measured in \u212a (kelvin).", Category: indexing.CategorySection},
	}

	tests := []struct {
		query string
		want  string
	}{
		{query: "STRASSE", want: "a/"},
		{query: "hauptstrasse", want: "a/"},
		{query: "in k (", want: "b/"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			matches := indexing.Search(entries, tt.query, indexing.SearchOptions{})
			require.Len(t, matches, 1)
			assert.Equal(t, tt.want, matches[0].Entry.Location)
		})
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	entries := sampleEntries()

	assert.Empty(t, indexing.Search(entries, "", indexing.SearchOptions{}))
	assert.Empty(t, indexing.Search(entries, "   ", indexing.SearchOptions{}))
}

func TestSearch_Ranking(t *testing.T) {
	entries := []indexing.PageEntry{
		{Location: "a/", Page: "A", Title: "", Text: "mentions the art network late", Category: indexing.CategoryPage},
		{Location: "b/", Page: "ART Basics", Title: "", Text: "", Category: indexing.CategoryPage},
		{Location: "c/#x", Page: "C", Title: "Fuzzy ART", Text: "", Category: indexing.CategorySection},
		{Location: "d/", Page: "D", Title: "", Text: "art first", Category: indexing.CategoryPage},
		{Location: "e/#y", Page: "E", Title: "ART", Text: "", Category: indexing.CategorySection},
	}

	matches := indexing.Search(entries, "art", indexing.SearchOptions{})
	require.Len(t, matches, 5)

	var positions []int
	for _, m := range matches {
		positions = append(positions, m.Position)
	}
	// Title tier (earliest offset first), then page tier, then text tier
	assert.Equal(t, []int{4, 2, 1, 3, 0}, positions)
	assert.Equal(t, indexing.FieldTitle, matches[0].Field)
	assert.Equal(t, indexing.FieldPage, matches[2].Field)
	assert.Equal(t, indexing.FieldText, matches[4].Field)
}

func TestSearch_TiesKeepDocumentOrder(t *testing.T) {
	entries := []indexing.PageEntry{
		{Location: "x/", Page: "P", Title: "", Text: "same text", Category: indexing.CategoryPage},
		{Location: "x/", Page: "P", Title: "", Text: "same text", Category: indexing.CategoryPage},
		{Location: "x/", Page: "P", Title: "", Text: "same text", Category: indexing.CategoryPage},
	}

	matches := indexing.Search(entries, "same", indexing.SearchOptions{})
	require.Len(t, matches, 3)
	for i, m := range matches {
		assert.Equal(t, i, m.Position)
	}
}

func TestSearch_Options(t *testing.T) {
	entries := sampleEntries()

	t.Run("category filter", func(t *testing.T) {
		matches := indexing.Search(entries, "e", indexing.SearchOptions{
			Categories: []indexing.Category{indexing.CategorySection},
		})
		require.NotEmpty(t, matches)
		for _, m := range matches {
			assert.Equal(t, indexing.CategorySection, m.Entry.Category)
		}
	})

	t.Run("page filter", func(t *testing.T) {
		matches := indexing.Search(entries, "e", indexing.SearchOptions{Page: "contributing"})
		require.Len(t, matches, 1)
		assert.Equal(t, "Contributing", matches[0].Entry.Page)
	})

	t.Run("limit", func(t *testing.T) {
		matches := indexing.Search(entries, "e", indexing.SearchOptions{Limit: 2})
		assert.Len(t, matches, 2)
	})
}
