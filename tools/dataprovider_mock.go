package tools

import "io/fs"

// MockDataProvider is an in-memory DataProvider for tests
type MockDataProvider struct {
	files map[string][]byte
}

// NewMockDataProvider creates an empty mock provider
func NewMockDataProvider() *MockDataProvider {
	return &MockDataProvider{
		files: make(map[string][]byte),
	}
}

// AddFile stores content under name
func (m *MockDataProvider) AddFile(name string, content []byte) {
	m.files[name] = content
}

// ReadFile returns the stored content or fs.ErrNotExist
func (m *MockDataProvider) ReadFile(name string) ([]byte, error) {
	content, exists := m.files[name]
	if !exists {
		return nil, fs.ErrNotExist
	}
	return content, nil
}

// SetDefaultDataProvider replaces the provider used for the embedded payload
func SetDefaultDataProvider(provider DataProvider) {
	defaultDataProvider = provider
}

// ResetDefaultDataProvider restores the embedded provider
func ResetDefaultDataProvider() {
	defaultDataProvider = NewEmbeddedDataProvider()
}
