package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/docindex/mcp-server/internal/config"
	"github.com/docindex/mcp-server/internal/indexing"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <payload-file> <index-dir>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nThe server reuses the index when <index-dir> is <data-dir>/search/index\n")
		fmt.Fprintf(os.Stderr, "and <payload-file> is the payload it serves (<data-dir>/docs/search_index.js).\n")
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s docs/search_index.js search/index\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Using default settings: %v", err)
		cfg = config.DefaultConfig()
	}

	if err := run(os.Args[1], os.Args[2], cfg); err != nil {
		log.Fatalf("Indexing failed: %v", err)
	}
}

// run builds the on-disk index for payloadFile at indexDir and records its
// schema version and fingerprint in the parent directory
func run(payloadFile, indexDir string, cfg config.Config) error {
	log.Printf("Documentation Indexer v%d", indexing.IndexSchemaVersion)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	// Step 1: Load payload
	startTime := time.Now()
	log.Printf("Loading search index payload: %s", payloadFile)
	payload, err := os.ReadFile(payloadFile)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	result, err := indexing.LoadBytes(payload)
	if err != nil {
		return fmt.Errorf("failed to load payload: %w", err)
	}

	opts := indexing.CatalogOptions{
		Dedupe:  cfg.Dedupe,
		BaseURL: cfg.BaseURL,
	}
	catalog := indexing.NewCatalog(result.Entries, opts)
	log.Printf("✓ Loaded %d entries (%d after dedupe, %d skipped) in %v",
		len(result.Entries), catalog.Len(), len(result.Warnings), time.Since(startTime).Round(time.Millisecond))

	// Step 2: Remove existing index
	if err := os.RemoveAll(indexDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(indexDir), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	// Step 3: Build index
	log.Printf("Indexing %d entries into %s...", catalog.Len(), indexDir)
	index, err := indexing.BuildIndex(indexDir, catalog)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	docCount, err := index.DocCount()
	if err != nil {
		log.Printf("Warning: Failed to count documents: %v", err)
	}
	if err := index.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}

	log.Printf("✓ Indexed %d entries successfully", docCount)

	// Step 4: Record version and fingerprint
	if err := indexing.WriteIndexMeta(filepath.Dir(indexDir), indexing.Fingerprint(payload, opts)); err != nil {
		return err
	}
	log.Printf("✓ Index schema version: v%d", indexing.IndexSchemaVersion)

	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("✓ Indexing complete!")
	log.Printf("")
	log.Printf("Index details:")
	log.Printf("  Location:  %s", indexDir)
	log.Printf("  Entries:   %d", catalog.Len())
	log.Printf("  Pages:     %d", len(catalog.Pages()))
	log.Printf("  Skipped:   %d", len(result.Warnings))
	for _, w := range result.Warnings {
		log.Printf("    entry %d: %s", w.Position, w.Reason)
	}
	log.Printf("  Schema:    v%d", indexing.IndexSchemaVersion)

	return nil
}
