package indexing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"unicode"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalidPayload is returned when the input cannot be read as a search index payload at all
var ErrInvalidPayload = errors.New("invalid search index payload")

// Matches the script assignment the generator wraps a payload in
var scriptAssignRegex = regexp.MustCompile(`\A(?:var|let|const)\s+` + ScriptVariable + `\s*=`)

// rawPayload defers entry decoding so one bad entry does not fail the whole payload
type rawPayload struct {
	Docs *[]json.RawMessage `json:"docs"`
}

// LoadFile reads and loads a payload file
func LoadFile(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return LoadBytes(data)
}

// Load reads a payload from r
func Load(r io.Reader) (*LoadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses one or more payloads, bare JSON or script-wrapped.
// Malformed entries are skipped and reported as warnings; entry positions
// continue across concatenated payloads.
func LoadBytes(data []byte) (*LoadResult, error) {
	schema, err := entrySchema()
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Entries: []PageEntry{}}
	position := 0
	payloads := 0

	rest := data
	for {
		rest = skipStatementSeparators(rest)
		if len(rest) == 0 {
			break
		}
		if loc := scriptAssignRegex.FindIndex(rest); loc != nil {
			rest = rest[loc[1]:]
		}

		// The decoder stops after one value, so script text is never read from inside a JSON string
		decoder := json.NewDecoder(bytes.NewReader(rest))
		var raw rawPayload
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: payload %d: %v", ErrInvalidPayload, payloads, err)
		}
		if raw.Docs == nil {
			return nil, fmt.Errorf("%w: payload %d has no docs array", ErrInvalidPayload, payloads)
		}
		rest = rest[decoder.InputOffset():]

		for _, item := range *raw.Docs {
			entry, err := decodeEntry(schema, item)
			if err != nil {
				warning := Warning{Position: position, Reason: err.Error()}
				result.Warnings = append(result.Warnings, warning)
				log.Printf("Warning: skipping search index entry %d: %s", warning.Position, warning.Reason)
			} else {
				result.Entries = append(result.Entries, entry)
			}
			position++
		}
		payloads++
	}

	if payloads == 0 {
		return nil, fmt.Errorf("%w: no payload found", ErrInvalidPayload)
	}

	return result, nil
}

// decodeEntry validates one raw entry against the entry schema and decodes it
func decodeEntry(schema *jsonschema.Schema, item json.RawMessage) (PageEntry, error) {
	var doc interface{}
	if err := json.Unmarshal(item, &doc); err != nil {
		return PageEntry{}, fmt.Errorf("undecodable entry: %v", err)
	}

	if err := schema.Validate(doc); err != nil {
		return PageEntry{}, errors.New(describeValidationError(err))
	}

	var entry PageEntry
	if err := json.Unmarshal(item, &entry); err != nil {
		return PageEntry{}, fmt.Errorf("undecodable entry: %v", err)
	}
	return entry, nil
}

// skipStatementSeparators drops whitespace and ';' between payloads
func skipStatementSeparators(data []byte) []byte {
	return bytes.TrimLeftFunc(data, func(r rune) bool {
		return r == ';' || unicode.IsSpace(r)
	})
}
