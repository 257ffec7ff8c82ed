package indexing

const (
	// ScriptVariable is the global the documentation generator assigns the payload to
	ScriptVariable = "documenterSearchIndex"

	// DefaultMaxResults caps lookup results when no limit is given
	DefaultMaxResults = 10

	// MaxKeywords is the number of keywords kept per entry
	MaxKeywords = 10

	// IndexSchemaVersion increments when the full-text document mapping changes
	// v1: entries indexed with derived metadata
	IndexSchemaVersion = 1
)
