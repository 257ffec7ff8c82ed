package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docindex/mcp-server/internal/config"
	"github.com/docindex/mcp-server/internal/indexing"
)

const payload = `var documenterSearchIndex = {"docs":[
{"location":"man/guide/#Package-Guide","page":"Guide","title":"Package Guide","text":"TODO","category":"section"},
{"location":"man/guide/#Package-Guide","page":"Guide","title":"Package Guide","text":"TODO","category":"section"},
{"location":"man/contributing/","page":"Contributing","title":"Contributing","text":"Contribution guide.","category":"page"},
{"location":"broken","page":"Guide"}
]};
`

func TestRun(t *testing.T) {
	dataDir := t.TempDir()
	payloadFile := filepath.Join(dataDir, "docs", "search_index.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(payloadFile), 0755))
	require.NoError(t, os.WriteFile(payloadFile, []byte(payload), 0644))
	indexDir := filepath.Join(dataDir, "search", "index")

	cfg := config.DefaultConfig()
	cfg.DataDir = dataDir
	cfg.BaseURL = "https://docs.example.org/"

	// A stale index is replaced
	require.NoError(t, os.MkdirAll(filepath.Join(indexDir, "stale"), 0755))

	require.NoError(t, run(payloadFile, indexDir, cfg))

	meta := indexing.ReadIndexMeta(filepath.Dir(indexDir))
	assert.Equal(t, indexing.IndexSchemaVersion, meta.Version)
	assert.Equal(t, indexing.Fingerprint([]byte(payload), indexing.CatalogOptions{Dedupe: true, BaseURL: cfg.BaseURL}), meta.Fingerprint)
	assert.NoDirExists(t, filepath.Join(indexDir, "stale"))

	index, err := bleve.Open(indexDir)
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count) // duplicate dropped, malformed skipped
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()

	err := run(filepath.Join(dir, "missing.js"), filepath.Join(dir, "search", "index"), cfg)
	assert.ErrorContains(t, err, "failed to read payload")

	bad := filepath.Join(dir, "bad.js")
	require.NoError(t, os.WriteFile(bad, []byte("<html>"), 0644))
	err = run(bad, filepath.Join(dir, "search", "index"), cfg)
	assert.ErrorIs(t, err, indexing.ErrInvalidPayload)
}
