package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the optional config file looked up inside the data directory
	FileName = "config.yaml"

	// userDirName is the per-user data directory under $HOME
	userDirName = ".docindex-mcp"
)

// Duration is a time.Duration that reads from YAML/JSON as "168h" or as seconds
type Duration time.Duration

// UnmarshalYAML accepts a Go duration string or an integer number of seconds
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.parse(raw)
}

// UnmarshalJSON accepts a Go duration string or an integer number of seconds
func (d *Duration) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	return d.parse(raw)
}

func (d *Duration) parse(raw string) error {
	if secs, err := strconv.Atoi(raw); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the server settings
type Config struct {
	// DataDir holds docs/search_index.js, the search index and the lock file
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// PayloadURL is downloaded on refresh; empty means refresh re-reads the local payload
	PayloadURL string `yaml:"payload_url" json:"payload_url"`

	// BaseURL is prefixed to entry locations in search results
	BaseURL string `yaml:"base_url" json:"base_url"`

	// CacheTTL is the payload age after which a non-forced refresh runs
	CacheTTL Duration `yaml:"cache_ttl" json:"cache_ttl"`

	// MaxResults is the default and upper bound for search results
	MaxResults int `yaml:"max_results" json:"max_results"`

	// Dedupe drops repeated entries when the payload carries several copies
	Dedupe bool `yaml:"dedupe" json:"dedupe"`

	// HTTPTimeout bounds a payload download
	HTTPTimeout Duration `yaml:"http_timeout" json:"http_timeout"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() Config {
	return Config{
		CacheTTL:    Duration(7 * 24 * time.Hour),
		MaxResults:  10,
		Dedupe:      true,
		HTTPTimeout: Duration(30 * time.Second),
	}
}

// Load resolves the data directory, then applies the config file found there
// and DOCINDEX_* environment overrides on top of the defaults.
func Load() (Config, error) {
	cfg := DefaultConfig()

	dataDir := os.Getenv("DOCINDEX_DATA_DIR")
	if dataDir == "" {
		dataDir = ResolveDataDir()
	}
	cfg.DataDir = dataDir

	if err := LoadFile(filepath.Join(dataDir, FileName), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load config file: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFile merges the file at path into cfg. A missing file is not an error.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}

	log.Printf("✓ Config loaded from %s", path)
	return nil
}

// applyEnv overrides cfg from DOCINDEX_* variables; malformed values are logged and ignored
func applyEnv(cfg *Config) {
	if v := os.Getenv("DOCINDEX_PAYLOAD_URL"); v != "" {
		cfg.PayloadURL = v
	}
	if v := os.Getenv("DOCINDEX_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("DOCINDEX_CACHE_TTL"); v != "" {
		var d Duration
		if err := d.parse(v); err != nil {
			log.Printf("Warning: Ignoring DOCINDEX_CACHE_TTL: %v", err)
		} else {
			cfg.CacheTTL = d
		}
	}
	if v := os.Getenv("DOCINDEX_HTTP_TIMEOUT"); v != "" {
		var d Duration
		if err := d.parse(v); err != nil {
			log.Printf("Warning: Ignoring DOCINDEX_HTTP_TIMEOUT: %v", err)
		} else {
			cfg.HTTPTimeout = d
		}
	}
	if v := os.Getenv("DOCINDEX_MAX_RESULTS"); v != "" {
		if i, err := strconv.Atoi(v); err != nil {
			log.Printf("Warning: Ignoring DOCINDEX_MAX_RESULTS=%q: %v", v, err)
		} else {
			cfg.MaxResults = i
		}
	}
	if v := os.Getenv("DOCINDEX_DEDUPE"); v != "" {
		if b, err := strconv.ParseBool(v); err != nil {
			log.Printf("Warning: Ignoring DOCINDEX_DEDUPE=%q: %v", v, err)
		} else {
			cfg.Dedupe = b
		}
	}
}

// Validate checks that the settings are usable
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", c.MaxResults)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive")
	}
	if c.PayloadURL != "" && !strings.HasPrefix(c.PayloadURL, "http://") && !strings.HasPrefix(c.PayloadURL, "https://") {
		return fmt.Errorf("payload_url must be an http(s) URL, got %q", c.PayloadURL)
	}
	return nil
}

// ResolveDataDir picks the data directory: ~/.docindex-mcp, then ../data next to
// the binary, then ./data. The chosen directory and its subdirectories are created.
func ResolveDataDir() string {
	// Strategy 1: user home directory (standalone installation)
	homeDir, err := os.UserHomeDir()
	if err == nil {
		userDataDir := filepath.Join(homeDir, userDirName)

		if info, err := os.Stat(userDataDir); err == nil && info.IsDir() {
			log.Printf("✓ Data directory: %s (user home)", userDataDir)
			return userDataDir
		}

		if err := ensureLayout(userDataDir); err == nil {
			log.Printf("✓ Data directory created: %s", userDataDir)
			return userDataDir
		}

		log.Printf("Warning: Could not create user data directory at %s: %v", userDataDir, err)
	} else {
		log.Printf("Warning: Could not determine user home directory: %v", err)
	}

	// Strategy 2: relative to executable (bin/docindex-mcp -> data/)
	execPath, err := os.Executable()
	if err == nil {
		relativeDataDir := filepath.Join(filepath.Dir(execPath), "..", "data")
		if info, err := os.Stat(relativeDataDir); err == nil && info.IsDir() {
			dataDir, _ := filepath.Abs(relativeDataDir)
			log.Printf("✓ Data directory: %s (relative to binary)", dataDir)
			return dataDir
		}
	}

	// Strategy 3: current working directory
	dataDir := filepath.Join(".", "data")
	log.Printf("⚠️  Data directory (fallback): %s", dataDir)
	if err := ensureLayout(dataDir); err != nil {
		log.Printf("Warning: Could not create data directory %s: %v", dataDir, err)
	}
	return dataDir
}

// ensureLayout creates the data directory with its docs/ and search/ subdirectories
func ensureLayout(dataDir string) error {
	for _, sub := range []string{"docs", "search"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0755); err != nil {
			return err
		}
	}
	return nil
}

// EnsureLayout creates the docs/ and search/ subdirectories of an explicit data directory
func (c Config) EnsureLayout() error {
	return ensureLayout(c.DataDir)
}
