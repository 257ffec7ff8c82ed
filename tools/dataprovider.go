package tools

// DataProvider gives access to the payload shipped inside the binary.
// Tests swap in MockDataProvider so no embedded files are required.
type DataProvider interface {
	// ReadFile reads the named file, relative to the data root
	// (e.g., "data/search_index.js").
	ReadFile(name string) ([]byte, error)
}
