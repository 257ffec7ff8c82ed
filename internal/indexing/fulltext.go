package indexing

import (
	"fmt"
	"log"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
)

// indexBatchSize is the number of documents submitted per bleve batch
const indexBatchSize = 100

// NewIndexMapping returns the bleve mapping for IndexDocument.
// Prose fields are analyzed; category, location and URL are exact-match keywords.
func NewIndexMapping() *mapping.IndexMappingImpl {
	textField := bleve.NewTextFieldMapping()
	keywordField := bleve.NewKeywordFieldMapping()
	numericField := bleve.NewNumericFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("page", textField)
	doc.AddFieldMappingsAt("title", textField)
	doc.AddFieldMappingsAt("text", textField)
	doc.AddFieldMappingsAt("breadcrumb", textField)
	doc.AddFieldMappingsAt("keywords", textField)
	doc.AddFieldMappingsAt("id", keywordField)
	doc.AddFieldMappingsAt("category", keywordField)
	doc.AddFieldMappingsAt("location", keywordField)
	doc.AddFieldMappingsAt("url", keywordField)
	doc.AddFieldMappingsAt("position", numericField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = doc
	return indexMapping
}

// BuildIndex creates a new on-disk index at path holding every catalog entry.
// The caller owns the returned index and must close it.
func BuildIndex(path string, catalog *Catalog) (bleve.Index, error) {
	index, err := bleve.New(path, NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	if err := indexCatalog(index, catalog); err != nil {
		index.Close()
		return nil, err
	}
	return index, nil
}

// BuildMemIndex creates an in-memory index holding every catalog entry
func BuildMemIndex(catalog *Catalog) (bleve.Index, error) {
	index, err := bleve.NewMemOnly(NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory index: %w", err)
	}
	if err := indexCatalog(index, catalog); err != nil {
		index.Close()
		return nil, err
	}
	return index, nil
}

func indexCatalog(index bleve.Index, catalog *Catalog) error {
	batch := index.NewBatch()
	for position := 0; position < catalog.Len(); position++ {
		doc, _ := catalog.Document(position)
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to add entry %s to batch: %w", doc.ID, err)
		}

		if batch.Size() >= indexBatchSize {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = index.NewBatch()
			log.Printf("  Indexed %d/%d entries...", position+1, catalog.Len())
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to index final batch: %w", err)
		}
	}
	return nil
}

// NewFullTextRequest builds a ranked match query, optionally restricted to categories
func NewFullTextRequest(query string, size int, categories []Category) *bleve.SearchRequest {
	match := bleve.NewMatchQuery(query)

	var req *bleve.SearchRequest
	if len(categories) > 0 {
		disjunction := bleve.NewDisjunctionQuery()
		for _, c := range categories {
			term := bleve.NewTermQuery(string(c))
			term.SetField("category")
			disjunction.AddQuery(term)
		}
		req = bleve.NewSearchRequest(bleve.NewConjunctionQuery(match, disjunction))
	} else {
		req = bleve.NewSearchRequest(match)
	}

	req.Size = size
	req.Fields = []string{"*"}
	return req
}

// DocumentFromHit rebuilds an IndexDocument from the stored fields of a hit
func DocumentFromHit(hit *search.DocumentMatch) IndexDocument {
	doc := IndexDocument{ID: hit.ID}

	doc.Location = stringField(hit.Fields["location"])
	doc.Page = stringField(hit.Fields["page"])
	doc.Title = stringField(hit.Fields["title"])
	doc.Text = stringField(hit.Fields["text"])
	doc.Category = stringField(hit.Fields["category"])
	doc.URL = stringField(hit.Fields["url"])
	doc.Breadcrumb = stringField(hit.Fields["breadcrumb"])
	if position, ok := hit.Fields["position"].(float64); ok {
		doc.Position = int(position)
	}

	// Stored arrays come back as a bare string when they hold one value
	switch keywords := hit.Fields["keywords"].(type) {
	case []interface{}:
		doc.Keywords = make([]string, 0, len(keywords))
		for _, kw := range keywords {
			if s, ok := kw.(string); ok {
				doc.Keywords = append(doc.Keywords, s)
			}
		}
	case string:
		doc.Keywords = []string{keywords}
	}

	return doc
}

func stringField(v interface{}) string {
	s, _ := v.(string)
	return s
}
