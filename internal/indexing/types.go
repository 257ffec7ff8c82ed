package indexing

// Category is the kind of documentation node a PageEntry represents
type Category string

const (
	CategorySection  Category = "section"
	CategoryPage     Category = "page"
	CategoryModule   Category = "module"
	CategoryFunction Category = "function"
	CategoryMethod   Category = "method"
	CategoryType     Category = "type"
	CategoryConstant Category = "constant"
)

// KnownCategories lists every category accepted by the loader, in display order
var KnownCategories = []Category{
	CategorySection,
	CategoryPage,
	CategoryModule,
	CategoryFunction,
	CategoryMethod,
	CategoryType,
	CategoryConstant,
}

// IsKnown reports whether c is one of KnownCategories
func (c Category) IsKnown() bool {
	for _, known := range KnownCategories {
		if c == known {
			return true
		}
	}
	return false
}

// PageEntry is one documentation-node record of the search index
type PageEntry struct {
	Location string   `json:"location"` // URL fragment: "man/guide/#Package-Guide"
	Page     string   `json:"page"`     // Page title
	Title    string   `json:"title"`    // Section title, may be empty
	Text     string   `json:"text"`     // Rendered prose or docstring, may be empty
	Category Category `json:"category"`
}

// Warning records an entry that was skipped during load
type Warning struct {
	Position int    `json:"position"` // Zero-based index among all raw entries of the input, across concatenated payloads
	Reason   string `json:"reason"`
}

// LoadResult holds the valid entries of a payload and the warnings for the rest
type LoadResult struct {
	Entries  []PageEntry `json:"entries"`
	Warnings []Warning   `json:"warnings,omitempty"`
}

// IndexDocument is the metadata-enriched form of a PageEntry stored in the full-text index
type IndexDocument struct {
	ID         string   `json:"id"`       // "entry_<position>"
	Position   int      `json:"position"` // Index in the catalog, after malformed entries and duplicates are dropped
	Location   string   `json:"location"`
	Page       string   `json:"page"`
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Category   string   `json:"category"`
	URL        string   `json:"url,omitempty"`
	Breadcrumb string   `json:"breadcrumb,omitempty"` // "Page > Title"
	Keywords   []string `json:"keywords,omitempty"`
}

// PageSummary describes one documentation page of the catalog
type PageSummary struct {
	Page       string     `json:"page"`
	Location   string     `json:"location"` // Location of the first entry on the page
	Entries    int        `json:"entries"`
	Categories []Category `json:"categories"`
}
