package tools

import "embed"

// embeddedPayloadPath is the search index payload built into the binary.
// It lets the server answer queries before any refresh has run.
const embeddedPayloadPath = "data/search_index.js"

//go:embed data/search_index.js
var embeddedFS embed.FS

// embeddedDataProvider reads from the files compiled into the binary
type embeddedDataProvider struct {
	fs embed.FS
}

// NewEmbeddedDataProvider creates the production DataProvider
func NewEmbeddedDataProvider() DataProvider {
	return &embeddedDataProvider{fs: embeddedFS}
}

func (p *embeddedDataProvider) ReadFile(name string) ([]byte, error) {
	return p.fs.ReadFile(name)
}

var defaultDataProvider DataProvider = NewEmbeddedDataProvider()
