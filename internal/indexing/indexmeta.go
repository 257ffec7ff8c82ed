package indexing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Files recorded next to an on-disk index directory
const (
	VersionFileName     = ".index_version"
	FingerprintFileName = ".fingerprint"
)

// IndexMeta describes how an on-disk index was built
type IndexMeta struct {
	Version     int
	Fingerprint string
}

// Fingerprint identifies an index's contents: the payload bytes plus the
// catalog options that shape its documents
func Fingerprint(payload []byte, opts CatalogOptions) string {
	h := sha256.New()
	h.Write(payload)
	fmt.Fprintf(h, "\x00%s\x00%t", opts.BaseURL, opts.Dedupe)
	return hex.EncodeToString(h.Sum(nil))
}

// ReadIndexMeta reads the metadata stored in dir; missing or unreadable files give zero values
func ReadIndexMeta(dir string) IndexMeta {
	var meta IndexMeta

	if data, err := os.ReadFile(filepath.Join(dir, VersionFileName)); err == nil {
		meta.Version, _ = strconv.Atoi(strings.TrimSpace(string(data)))
	}
	if data, err := os.ReadFile(filepath.Join(dir, FingerprintFileName)); err == nil {
		meta.Fingerprint = strings.TrimSpace(string(data))
	}

	return meta
}

// WriteIndexMeta records the current schema version and fingerprint in dir
func WriteIndexMeta(dir, fingerprint string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, VersionFileName), []byte(strconv.Itoa(IndexSchemaVersion)), 0644); err != nil {
		return fmt.Errorf("failed to write index version: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FingerprintFileName), []byte(fingerprint), 0644); err != nil {
		return fmt.Errorf("failed to write index fingerprint: %w", err)
	}
	return nil
}
