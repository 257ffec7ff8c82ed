package indexing

import (
	"fmt"
	"strings"
)

// EntryID returns the stable document ID for the entry at position
func EntryID(position int) string {
	return fmt.Sprintf("entry_%d", position)
}

// EntryURL joins the documentation base URL and an entry location
// Example: "https://example.org/docs/", "man/guide/#Package-Guide" -> "https://example.org/docs/man/guide/#Package-Guide"
func EntryURL(baseURL, location string) string {
	if baseURL == "" {
		return ""
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + strings.TrimPrefix(location, "/")
}

// Breadcrumb builds "Page > Title" for an entry, omitting empty or repeated parts
func Breadcrumb(entry PageEntry) string {
	var parts []string
	if entry.Page != "" {
		parts = append(parts, entry.Page)
	}
	if entry.Title != "" && entry.Title != entry.Page {
		parts = append(parts, entry.Title)
	}
	return strings.Join(parts, " > ")
}

// ExtractKeywords extracts key terms from title and content
func ExtractKeywords(title, content string) []string {
	// Significant words from the title, then from the first 200 chars of content
	words := strings.Fields(strings.ToLower(title))

	contentPreview := content
	if len(content) > 200 {
		contentPreview = content[:200]
	}
	words = append(words, strings.Fields(strings.ToLower(contentPreview))...)

	stopWords := map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true,
		"but": true, "in": true, "on": true, "at": true, "to": true,
		"for": true, "of": true, "as": true, "by": true, "is": true,
		"it": true, "be": true, "with": true, "from": true, "that": true,
		"this": true, "are": true, "you": true, "can": true,
	}

	// First-seen order keeps the result deterministic
	seen := make(map[string]bool)
	keywords := make([]string, 0, MaxKeywords)
	for _, word := range words {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
		})
		if len(word) <= 2 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == MaxKeywords {
			break
		}
	}

	return keywords
}

// NewIndexDocument enriches an entry with ID, URL, breadcrumb and keywords
func NewIndexDocument(entry PageEntry, position int, baseURL string) IndexDocument {
	return IndexDocument{
		ID:         EntryID(position),
		Position:   position,
		Location:   entry.Location,
		Page:       entry.Page,
		Title:      entry.Title,
		Text:       entry.Text,
		Category:   string(entry.Category),
		URL:        EntryURL(baseURL, entry.Location),
		Breadcrumb: Breadcrumb(entry),
		Keywords:   ExtractKeywords(entry.Title, entry.Text),
	}
}
