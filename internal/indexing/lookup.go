package indexing

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// MatchField names the entry field a query matched in
type MatchField string

const (
	FieldTitle MatchField = "title"
	FieldPage  MatchField = "page"
	FieldText  MatchField = "text"
)

// fieldOrder is the ranking tier of each field, best first
var fieldOrder = []MatchField{FieldTitle, FieldPage, FieldText}

// Match is one lookup hit
type Match struct {
	Entry    PageEntry  `json:"entry"`
	Position int        `json:"position"` // Index of the entry in the searched sequence (catalog position for Catalog.Search)
	Field    MatchField `json:"field"`    // Best-ranked field containing the query
	Offset   int        `json:"offset"`   // Byte offset of the first match in the case-folded field
}

// SearchOptions narrows a lookup
type SearchOptions struct {
	Categories []Category // Only entries of these categories; empty means all
	Page       string     // Only entries of this page (case-insensitive); empty means all
	Limit      int        // Maximum matches; <= 0 means unlimited
}

// Search returns the entries whose page, title or text contains query under full
// Unicode case folding, so "STRASSE" finds "Straße" and the Kelvin sign finds "k".
// Title matches rank before page matches, page before text; within a tier the
// earlier first match wins and ties keep document order. An empty query matches nothing.
func Search(entries []PageEntry, query string, opts SearchOptions) []Match {
	matches := []Match{}

	// Casers carry state; one per call keeps Search safe for concurrent use
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))
	if needle == "" {
		return matches
	}

	var allowed map[Category]bool
	if len(opts.Categories) > 0 {
		allowed = make(map[Category]bool, len(opts.Categories))
		for _, c := range opts.Categories {
			allowed[c] = true
		}
	}

	for position, entry := range entries {
		if allowed != nil && !allowed[entry.Category] {
			continue
		}
		if opts.Page != "" && !strings.EqualFold(entry.Page, opts.Page) {
			continue
		}

		for _, field := range fieldOrder {
			offset := strings.Index(fold.String(fieldValue(entry, field)), needle)
			if offset < 0 {
				continue
			}
			matches = append(matches, Match{
				Entry:    entry,
				Position: position,
				Field:    field,
				Offset:   offset,
			})
			break
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		ri, rj := fieldRank(matches[i].Field), fieldRank(matches[j].Field)
		if ri != rj {
			return ri < rj
		}
		return matches[i].Offset < matches[j].Offset
	})

	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}

	return matches
}

func fieldValue(entry PageEntry, field MatchField) string {
	switch field {
	case FieldTitle:
		return entry.Title
	case FieldPage:
		return entry.Page
	default:
		return entry.Text
	}
}

func fieldRank(field MatchField) int {
	for i, f := range fieldOrder {
		if f == field {
			return i
		}
	}
	return len(fieldOrder)
}
