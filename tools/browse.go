package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docindex/mcp-server/internal/indexing"
)

// CategoryCount is the number of loaded entries of one category
type CategoryCount struct {
	Category indexing.Category `json:"category"`
	Count    int               `json:"count"`
}

// ListPagesInput defines input for list_pages tool
type ListPagesInput struct {
	// No input needed - returns all pages
}

// ListPagesOutput defines output for list_pages tool
type ListPagesOutput struct {
	Pages      []indexing.PageSummary `json:"pages"`
	Categories []CategoryCount        `json:"categories"`
	Entries    int                    `json:"entries"`
	Skipped    int                    `json:"skipped"` // Malformed entries dropped at load time
	Source     string                 `json:"source"`
}

// GetPageInput defines input for get_page tool
type GetPageInput struct {
	Page string `json:"page" jsonschema:"Page title as listed by list_pages (case-insensitive)"`
}

// GetPageOutput defines output for get_page tool
type GetPageOutput struct {
	Page    string                   `json:"page"`
	Entries []indexing.IndexDocument `json:"entries"`
	Count   int                      `json:"count"`
}

// ListPages returns every documentation page with its entry counts
func ListPages(ctx context.Context, req *mcp.CallToolRequest, input ListPagesInput) (*mcp.CallToolResult, ListPagesOutput, error) {
	state, err := acquireState()
	if err != nil {
		return nil, ListPagesOutput{}, err
	}
	defer state.release()

	return nil, ListPagesOutput{
		Pages:      state.catalog.Pages(),
		Categories: sortedCategoryCounts(state.catalog.CategoryCounts()),
		Entries:    state.catalog.Len(),
		Skipped:    len(state.warnings),
		Source:     state.source,
	}, nil
}

// sortedCategoryCounts orders counts by the known category order, unknown ones last by name
func sortedCategoryCounts(counts map[indexing.Category]int) []CategoryCount {
	result := make([]CategoryCount, 0, len(counts))
	for _, c := range indexing.KnownCategories {
		if n, ok := counts[c]; ok {
			result = append(result, CategoryCount{Category: c, Count: n})
		}
	}

	var rest []CategoryCount
	for c, n := range counts {
		if !c.IsKnown() {
			rest = append(rest, CategoryCount{Category: c, Count: n})
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Category < rest[j].Category })

	return append(result, rest...)
}

// GetPage returns all entries of one page in document order
func GetPage(ctx context.Context, req *mcp.CallToolRequest, input GetPageInput) (*mcp.CallToolResult, GetPageOutput, error) {
	page := strings.TrimSpace(input.Page)
	if page == "" {
		return nil, GetPageOutput{}, fmt.Errorf("page is required")
	}

	state, err := acquireState()
	if err != nil {
		return nil, GetPageOutput{}, err
	}
	defer state.release()

	summary, ok := state.catalog.Page(page)
	if !ok {
		return nil, GetPageOutput{}, fmt.Errorf("page %q not found (use list_pages to see available pages)", input.Page)
	}

	// Initialize as empty slice (not nil) to ensure JSON marshals as [] instead of null
	output := GetPageOutput{
		Page:    summary.Page,
		Entries: []indexing.IndexDocument{},
	}
	for _, pos := range state.catalog.PagePositions(summary.Page) {
		if doc, ok := state.catalog.Document(pos); ok {
			output.Entries = append(output.Entries, doc)
		}
	}
	output.Count = len(output.Entries)

	return nil, output, nil
}

// RegisterBrowseTools registers page browsing tools
func RegisterBrowseTools(server *mcp.Server) error {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_pages",
			Description: "List documentation pages in document order with entry and category counts",
		},
		ListPages,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_page",
			Description: "Get every indexed entry (sections, docstrings) of one documentation page in document order",
		},
		GetPage,
	)

	return nil
}
