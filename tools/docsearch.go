package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docindex/mcp-server/internal/config"
	"github.com/docindex/mcp-server/internal/indexing"
)

const (
	payloadFile      = "docs/search_index.js"
	cacheMetaFile    = "docs/cache.meta"
	searchDir        = "search"
	indexDir         = "search/index"
	maxResultsCap    = 50
	maxDownloadBytes = 64 << 20
	modeSubstring    = "substring"
	modeFullText     = "fulltext"
	sourceLocal      = "local"
	sourceEmbedded   = "embedded"
	sourceDownload   = "download"
)

var (
	// settings holds the server configuration; Configure replaces it at startup
	settings = config.DefaultConfig()

	indexMgr = &indexHolder{}
)

// Configure sets the configuration used by the documentation tools
func Configure(cfg config.Config) {
	settings = cfg
}

// indexHolder manages concurrent access to the loaded documentation
type indexHolder struct {
	// current is swapped atomically on refresh; searches read it lock-free
	current atomic.Pointer[docState]

	// refreshMu serializes initialization and refresh; searches never take it
	refreshMu sync.Mutex
}

// SearchResult is one search hit
type SearchResult struct {
	Entry  indexing.IndexDocument `json:"entry"`
	Score  float64                `json:"score,omitempty"`  // Full-text relevance score
	Field  string                 `json:"field,omitempty"`  // Substring mode: field the query matched in
	Offset int                    `json:"offset,omitempty"` // Substring mode: offset of the first match
}

// SearchDocumentationInput defines input for search_documentation tool
type SearchDocumentationInput struct {
	Query      string   `json:"query" jsonschema:"Text to look for in page titles, section titles and docstrings"`
	MaxResults int      `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to the configured limit)"`
	Mode       string   `json:"mode,omitempty" jsonschema:"substring (default): case-insensitive substring match; fulltext: ranked word search"`
	Categories []string `json:"categories,omitempty" jsonschema:"Only return entries of these categories: section, page, module, function, method, type, constant"`
	Page       string   `json:"page,omitempty" jsonschema:"Only return entries of this page title (substring mode only)"`
}

// SearchDocumentationOutput defines output for search_documentation tool
type SearchDocumentationOutput struct {
	Results   []SearchResult `json:"results"`
	Query     string         `json:"query"`
	Mode      string         `json:"mode"`
	TotalHits int            `json:"total_hits"`
}

// RefreshDocumentationIndexInput defines input for refresh_documentation_index tool
type RefreshDocumentationIndexInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Reload even if the cached payload is younger than the cache TTL"`
}

// RefreshDocumentationIndexOutput defines output for refresh_documentation_index tool
type RefreshDocumentationIndexOutput struct {
	Updated       bool               `json:"updated"`
	LastUpdate    time.Time          `json:"last_update"`
	Source        string             `json:"source,omitempty"`
	EntriesLoaded int                `json:"entries_loaded"`
	Warnings      []indexing.Warning `json:"warnings,omitempty"`
	Message       string             `json:"message"`
}

// InitializeDocSearch loads the payload and opens the search index.
// Priority: local payload in the data directory > embedded payload.
func InitializeDocSearch() error {
	indexMgr.refreshMu.Lock()
	defer indexMgr.refreshMu.Unlock()

	if indexMgr.current.Load() != nil {
		return nil
	}

	startTime := time.Now()
	log.Printf("Initializing documentation search...")

	if err := acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire index lock: %w", err)
	}

	payload, source, err := readLocalOrEmbeddedPayload()
	if err != nil {
		return err
	}

	state, err := buildState(payload, source, true)
	if err != nil {
		return err
	}
	indexMgr.current.Store(state)

	log.Printf("✓ Documentation search initialized (%d entries, %s payload, %d skipped) in %v",
		state.catalog.Len(), source, len(state.warnings), time.Since(startTime).Round(time.Millisecond))

	if source == sourceEmbedded {
		log.Printf("ℹ️  Using embedded documentation (build-time). Use refresh_documentation_index to get latest docs.")
	} else if needsRefresh() {
		log.Printf("ℹ️  Local documentation is older than %v. Consider using refresh_documentation_index to update.",
			time.Duration(settings.CacheTTL))
	}

	return nil
}

// readLocalOrEmbeddedPayload returns the payload in the data directory, extracting
// the embedded one there first when none exists yet
func readLocalOrEmbeddedPayload() ([]byte, string, error) {
	localPath := filepath.Join(settings.DataDir, payloadFile)

	data, err := os.ReadFile(localPath)
	if err == nil {
		return data, sourceLocal, nil
	}
	if !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("failed to read local payload: %w", err)
	}

	log.Printf("No local payload found, extracting embedded documentation...")
	data, err = defaultDataProvider.ReadFile(embeddedPayloadPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read embedded payload: %w", err)
	}

	if err := writePayload(data); err != nil {
		log.Printf("Warning: Failed to extract embedded payload: %v", err)
	}

	return data, sourceEmbedded, nil
}

// buildState loads a payload into a catalog and attaches a full-text index.
// With reuse, a matching on-disk index from an earlier run is opened instead of rebuilt.
func buildState(payload []byte, source string, reuse bool) (*docState, error) {
	loadStart := time.Now()
	result, err := indexing.LoadBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to load payload: %w", err)
	}

	opts := catalogOptions()
	catalog := indexing.NewCatalog(result.Entries, opts)
	log.Printf("Loaded %d entries (%d after dedupe, %d skipped) in %v",
		len(result.Entries), catalog.Len(), len(result.Warnings), time.Since(loadStart).Round(time.Millisecond))

	fingerprint := indexing.Fingerprint(payload, opts)

	var fulltext Index
	if reuse {
		fulltext, err = openExistingIndex(fingerprint)
		if err != nil {
			log.Printf("Existing index not reusable: %v", err)
		}
	}
	if fulltext == nil {
		fulltext, err = rebuildIndex(catalog, fingerprint)
	}
	if err != nil && fulltext == nil {
		log.Printf("Warning: On-disk index unavailable (%v), building in-memory index", err)
		mem, memErr := indexing.BuildMemIndex(catalog)
		if memErr != nil {
			log.Printf("Warning: Full-text search disabled: %v", memErr)
		} else {
			fulltext = NewBleveIndexWrapper(mem)
		}
	}
	return newDocState(catalog, fulltext, result.Warnings, source), nil
}

// catalogOptions returns the catalog settings that shape indexed documents
func catalogOptions() indexing.CatalogOptions {
	return indexing.CatalogOptions{
		Dedupe:  settings.Dedupe,
		BaseURL: settings.BaseURL,
	}
}

// openExistingIndex opens the on-disk index if its schema version and fingerprint match
func openExistingIndex(fingerprint string) (Index, error) {
	indexPath := filepath.Join(settings.DataDir, indexDir)
	if _, err := os.Stat(indexPath); err != nil {
		return nil, fmt.Errorf("no index at %s", indexPath)
	}

	meta := indexing.ReadIndexMeta(filepath.Join(settings.DataDir, searchDir))
	if meta.Version != indexing.IndexSchemaVersion {
		return nil, fmt.Errorf("index schema version mismatch (have: v%d, want: v%d)", meta.Version, indexing.IndexSchemaVersion)
	}
	if meta.Fingerprint != fingerprint {
		return nil, errors.New("index was built from a different payload")
	}

	openStart := time.Now()
	index, err := bleve.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("index corrupted (open failed in %v): %w", time.Since(openStart).Round(time.Millisecond), err)
	}
	log.Printf("✓ Reusing local index v%d", indexing.IndexSchemaVersion)
	return NewBleveIndexWrapper(index), nil
}

// rebuildIndex builds a fresh index in a temp directory and renames it into place
func rebuildIndex(catalog *indexing.Catalog, fingerprint string) (Index, error) {
	startTime := time.Now()
	indexPath := filepath.Join(settings.DataDir, indexDir)
	tempIndexPath := indexPath + ".tmp"

	// Leftover from a crashed build
	os.RemoveAll(tempIndexPath)

	if err := os.MkdirAll(filepath.Dir(tempIndexPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	log.Printf("Building index with %d entries in temp location...", catalog.Len())
	newIndex, err := indexing.BuildIndex(tempIndexPath, catalog)
	if err != nil {
		os.RemoveAll(tempIndexPath)
		return nil, err
	}
	if err := newIndex.Close(); err != nil {
		os.RemoveAll(tempIndexPath)
		return nil, fmt.Errorf("failed to close temp index: %w", err)
	}

	if err := os.RemoveAll(indexPath); err != nil && !os.IsNotExist(err) {
		os.RemoveAll(tempIndexPath)
		return nil, fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.Rename(tempIndexPath, indexPath); err != nil {
		os.RemoveAll(tempIndexPath)
		return nil, fmt.Errorf("failed to rename temp index: %w", err)
	}

	finalIndex, err := bleve.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open new index: %w", err)
	}

	if err := indexing.WriteIndexMeta(filepath.Join(settings.DataDir, searchDir), fingerprint); err != nil {
		log.Printf("Warning: %v", err)
	}

	log.Printf("✓ Index built in %v", time.Since(startTime).Round(time.Millisecond))
	return NewBleveIndexWrapper(finalIndex), nil
}

// writePayload stores payload bytes as the local payload file
func writePayload(data []byte) error {
	fullPath := filepath.Join(settings.DataDir, payloadFile)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create docs directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// writeCacheMeta records when the payload was last refreshed
func writeCacheMeta() error {
	metaPath := filepath.Join(settings.DataDir, cacheMetaFile)
	if err := os.MkdirAll(filepath.Dir(metaPath), 0755); err != nil {
		return err
	}
	content := fmt.Sprintf("last_update: %s\n", time.Now().Format(time.RFC3339))
	return os.WriteFile(metaPath, []byte(content), 0644)
}

// needsRefresh reports whether the cached payload is older than the cache TTL
func needsRefresh() bool {
	info, err := os.Stat(filepath.Join(settings.DataDir, cacheMetaFile))
	if err != nil {
		return true
	}
	return time.Since(info.ModTime()) > time.Duration(settings.CacheTTL)
}

// downloadPayload fetches the payload from the configured URL
func downloadPayload(ctx context.Context) ([]byte, error) {
	log.Printf("Downloading search index payload from %s", settings.PayloadURL)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(settings.HTTPTimeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, settings.PayloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

// fetchPayload returns fresh payload bytes: downloaded when a URL is configured,
// otherwise re-read from the data directory
func fetchPayload(ctx context.Context) ([]byte, string, error) {
	if settings.PayloadURL != "" {
		data, err := downloadPayload(ctx)
		if err != nil {
			return nil, "", err
		}
		return data, sourceDownload, nil
	}
	return readLocalOrEmbeddedPayload()
}

// refreshDocumentationIndex reloads the payload and swaps in a new state.
// It returns nil state when the cache was fresh and nothing was done.
func refreshDocumentationIndex(ctx context.Context, force bool) (*docState, error) {
	startTime := time.Now()

	if !force && !needsRefresh() {
		log.Printf("Documentation cache is fresh, skipping refresh")
		return nil, nil
	}

	indexMgr.refreshMu.Lock()
	defer indexMgr.refreshMu.Unlock()

	// Another refresh may have completed while we waited
	if !force && !needsRefresh() {
		log.Printf("Documentation was refreshed by another goroutine, skipping")
		return nil, nil
	}

	log.Printf("Starting documentation refresh (force=%v)...", force)

	if err := acquireLock(); err != nil {
		return nil, fmt.Errorf("failed to acquire lock for refresh: %w", err)
	}

	payload, source, err := fetchPayload(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	// A payload that does not load leaves the current state untouched
	state, err := buildState(payload, source, false)
	if err != nil {
		return nil, err
	}

	if source == sourceDownload {
		if err := writePayload(payload); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	if err := writeCacheMeta(); err != nil {
		log.Printf("Warning: Failed to write cache metadata: %v", err)
	}

	if old := indexMgr.current.Swap(state); old != nil {
		old.retire()
	}

	log.Printf("✓ Documentation refresh completed in %v, searches now using new index",
		time.Since(startTime).Round(time.Millisecond))
	return state, nil
}

// acquireState pins the current state for one request, initializing on first use.
// Callers must release the returned state.
func acquireState() (*docState, error) {
	for {
		state := indexMgr.current.Load()
		if state == nil {
			log.Printf("Doc index not initialized, initializing now...")
			if err := InitializeDocSearch(); err != nil {
				return nil, fmt.Errorf("failed to initialize documentation index: %w", err)
			}

			state = indexMgr.current.Load()
			if state == nil {
				return nil, errors.New("index still nil after initialization")
			}
		}

		if state.acquire() {
			return state, nil
		}
		// Retired between Load and acquire; the replacement is already published
	}
}

// parseCategories validates category names from tool input
func parseCategories(names []string) ([]indexing.Category, error) {
	categories := make([]indexing.Category, 0, len(names))
	for _, name := range names {
		c := indexing.Category(strings.ToLower(strings.TrimSpace(name)))
		if !c.IsKnown() {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

// resultLimit applies the configured default and the hard cap to a requested size
func resultLimit(requested int) int {
	if requested <= 0 {
		requested = settings.MaxResults
	}
	if requested > maxResultsCap {
		requested = maxResultsCap
	}
	return requested
}

// SearchDocumentation searches the loaded documentation index
func SearchDocumentation(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentationInput) (*mcp.CallToolResult, SearchDocumentationOutput, error) {
	state, err := acquireState()
	if err != nil {
		return nil, SearchDocumentationOutput{}, err
	}
	defer state.release()

	categories, err := parseCategories(input.Categories)
	if err != nil {
		return nil, SearchDocumentationOutput{}, err
	}

	mode := strings.ToLower(strings.TrimSpace(input.Mode))
	if mode == "" {
		mode = modeSubstring
	}
	limit := resultLimit(input.MaxResults)

	output := SearchDocumentationOutput{
		Results: []SearchResult{},
		Query:   input.Query,
		Mode:    mode,
	}

	switch mode {
	case modeSubstring:
		matches := state.catalog.Search(input.Query, indexing.SearchOptions{
			Categories: categories,
			Page:       input.Page,
		})
		output.TotalHits = len(matches)
		if len(matches) > limit {
			matches = matches[:limit]
		}
		for _, m := range matches {
			doc, _ := state.catalog.Document(m.Position)
			output.Results = append(output.Results, SearchResult{
				Entry:  doc,
				Field:  string(m.Field),
				Offset: m.Offset,
			})
		}

	case modeFullText:
		if state.fulltext == nil {
			return nil, output, errors.New("full-text search is unavailable, use substring mode")
		}
		if input.Page != "" {
			return nil, output, errors.New("page filter is only supported in substring mode")
		}
		if strings.TrimSpace(input.Query) == "" {
			return nil, output, nil
		}

		searchResults, err := state.fulltext.Search(indexing.NewFullTextRequest(input.Query, limit, categories))
		if err != nil {
			return nil, output, fmt.Errorf("search failed: %w", err)
		}
		output.TotalHits = int(searchResults.Total)
		for _, hit := range searchResults.Hits {
			output.Results = append(output.Results, SearchResult{
				Entry: indexing.DocumentFromHit(hit),
				Score: hit.Score,
			})
		}

	default:
		return nil, output, fmt.Errorf("unknown search mode %q (want %q or %q)", input.Mode, modeSubstring, modeFullText)
	}

	return nil, output, nil
}

// RefreshDocumentationIndex reloads the documentation payload
func RefreshDocumentationIndex(ctx context.Context, req *mcp.CallToolRequest, input RefreshDocumentationIndexInput) (*mcp.CallToolResult, RefreshDocumentationIndexOutput, error) {
	output := RefreshDocumentationIndexOutput{}

	state, err := refreshDocumentationIndex(ctx, input.Force)
	if err != nil {
		return nil, output, fmt.Errorf("refresh failed: %w", err)
	}

	if state == nil {
		if info, err := os.Stat(filepath.Join(settings.DataDir, cacheMetaFile)); err == nil {
			output.LastUpdate = info.ModTime()
		}
		if current := indexMgr.current.Load(); current != nil {
			output.EntriesLoaded = current.catalog.Len()
			output.Source = current.source
		}
		output.Message = fmt.Sprintf("Cache is fresh (last updated: %s)", output.LastUpdate.Format(time.RFC3339))
		return nil, output, nil
	}

	output.Updated = true
	output.LastUpdate = state.loadedAt
	output.Source = state.source
	output.EntriesLoaded = state.catalog.Len()
	output.Warnings = state.warnings
	output.Message = fmt.Sprintf("Documentation refreshed successfully, %d entries loaded (%d skipped)",
		output.EntriesLoaded, len(state.warnings))

	return nil, output, nil
}

// RegisterDocSearchTools registers documentation search tools
func RegisterDocSearchTools(server *mcp.Server) error {
	if err := InitializeDocSearch(); err != nil {
		log.Printf("Warning: Documentation search initialization failed: %v", err)
		log.Printf("Documentation search will attempt to initialize on first use")
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documentation",
			Description: "Search the documentation index. Default mode is a case-insensitive substring match over page titles, section titles and docstring text (title matches first); mode=fulltext runs a ranked word search.",
		},
		SearchDocumentation,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_documentation_index",
			Description: "Reload the documentation search index payload and rebuild the search index (skipped while the cache is younger than its TTL unless force is set)",
		},
		RefreshDocumentationIndex,
	)

	return nil
}

// CloseDocSearch closes the search index and releases the lock
func CloseDocSearch() error {
	var closeErr error

	// Swap to nil first so no new search picks up the index
	if state := indexMgr.current.Swap(nil); state != nil {
		log.Printf("Waiting for in-flight searches to complete before closing...")
		state.retire()
		closeErr = state.wait()
	}

	// Always attempt to release the inter-process lock, even if close failed
	if err := releaseLock(); err != nil {
		log.Printf("Error releasing lock: %v", err)
		if closeErr == nil {
			closeErr = err
		}
	}

	return closeErr
}
