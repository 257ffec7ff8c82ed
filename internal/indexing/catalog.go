package indexing

import "strings"

// CatalogOptions controls how a Catalog is built from loaded entries
type CatalogOptions struct {
	// Dedupe drops entries whose five fields equal an earlier entry
	Dedupe bool

	// BaseURL is prefixed to entry locations to build absolute URLs
	BaseURL string
}

// Catalog is the immutable, queryable form of a loaded search index.
// It is never mutated after NewCatalog returns, so concurrent readers need no locking.
type Catalog struct {
	entries   []PageEntry
	baseURL   string
	pages     []PageSummary
	pageIndex map[string]int // lowercased page title -> index into pages
}

// NewCatalog builds a catalog over a copy of entries
func NewCatalog(entries []PageEntry, opts CatalogOptions) *Catalog {
	var owned []PageEntry
	if opts.Dedupe {
		owned = Dedupe(entries)
	} else {
		owned = make([]PageEntry, len(entries))
		copy(owned, entries)
	}

	c := &Catalog{
		entries:   owned,
		baseURL:   opts.BaseURL,
		pageIndex: make(map[string]int),
	}
	c.buildPages()
	return c
}

// Dedupe returns entries without exact duplicates, keeping the first occurrence
func Dedupe(entries []PageEntry) []PageEntry {
	seen := make(map[PageEntry]bool, len(entries))
	unique := make([]PageEntry, 0, len(entries))
	for _, entry := range entries {
		if seen[entry] {
			continue
		}
		seen[entry] = true
		unique = append(unique, entry)
	}
	return unique
}

func (c *Catalog) buildPages() {
	for _, entry := range c.entries {
		key := strings.ToLower(entry.Page)
		i, ok := c.pageIndex[key]
		if !ok {
			i = len(c.pages)
			c.pageIndex[key] = i
			c.pages = append(c.pages, PageSummary{
				Page:     entry.Page,
				Location: entry.Location,
			})
		}

		summary := &c.pages[i]
		summary.Entries++
		if !containsCategory(summary.Categories, entry.Category) {
			summary.Categories = append(summary.Categories, entry.Category)
		}
	}
}

func containsCategory(categories []Category, c Category) bool {
	for _, existing := range categories {
		if existing == c {
			return true
		}
	}
	return false
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entry returns the entry at position
func (c *Catalog) Entry(position int) (PageEntry, bool) {
	if position < 0 || position >= len(c.entries) {
		return PageEntry{}, false
	}
	return c.entries[position], true
}

// Document returns the metadata-enriched form of the entry at position
func (c *Catalog) Document(position int) (IndexDocument, bool) {
	entry, ok := c.Entry(position)
	if !ok {
		return IndexDocument{}, false
	}
	return NewIndexDocument(entry, position, c.baseURL), true
}

// Search runs a case-insensitive substring lookup over the catalog
func (c *Catalog) Search(query string, opts SearchOptions) []Match {
	return Search(c.entries, query, opts)
}

// Pages returns one summary per page title, in order of first appearance
func (c *Catalog) Pages() []PageSummary {
	out := make([]PageSummary, len(c.pages))
	for i, p := range c.pages {
		p.Categories = append([]Category(nil), p.Categories...)
		out[i] = p
	}
	return out
}

// Page returns the summary of one page, matching the title case-insensitively
func (c *Catalog) Page(page string) (PageSummary, bool) {
	i, ok := c.pageIndex[strings.ToLower(page)]
	if !ok {
		return PageSummary{}, false
	}
	summary := c.pages[i]
	summary.Categories = append([]Category(nil), summary.Categories...)
	return summary, true
}

// PagePositions returns the positions of one page's entries (case-insensitive title) in document order
func (c *Catalog) PagePositions(page string) []int {
	positions := []int{}
	key := strings.ToLower(page)
	if _, ok := c.pageIndex[key]; !ok {
		return positions
	}
	for i, entry := range c.entries {
		if strings.ToLower(entry.Page) == key {
			positions = append(positions, i)
		}
	}
	return positions
}

// CategoryCounts returns the number of entries per category
func (c *Catalog) CategoryCounts() map[Category]int {
	counts := make(map[Category]int)
	for _, entry := range c.entries {
		counts[entry.Category]++
	}
	return counts
}
