package indexing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const entrySchemaURL = "https://docindex.local/schema/page-entry.json"

// entrySchemaDoc builds the JSON Schema every payload entry must satisfy
func entrySchemaDoc() map[string]interface{} {
	categories := make([]interface{}, 0, len(KnownCategories))
	for _, c := range KnownCategories {
		categories = append(categories, string(c))
	}

	str := func() map[string]interface{} {
		return map[string]interface{}{"type": "string"}
	}

	return map[string]interface{}{
		"$schema":  "https://json-schema.org/draft/2020-12/schema",
		"type":     "object",
		"required": []interface{}{"location", "page", "title", "text", "category"},
		"properties": map[string]interface{}{
			"location": str(),
			"page":     str(),
			"title":    str(),
			"text":     str(),
			"category": map[string]interface{}{
				"type": "string",
				"enum": categories,
			},
		},
	}
}

var entrySchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(entrySchemaURL, entrySchemaDoc()); err != nil {
		return nil, fmt.Errorf("failed to add entry schema: %w", err)
	}
	schema, err := compiler.Compile(entrySchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile entry schema: %w", err)
	}
	return schema, nil
})

// describeValidationError flattens a schema error into a single line
func describeValidationError(err error) string {
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return strings.Join(strings.Fields(err.Error()), " ")
	}

	var leaves []string
	collectLeaves(validationErr, &leaves)
	if len(leaves) == 0 {
		return strings.Join(strings.Fields(validationErr.Error()), " ")
	}
	return strings.Join(leaves, "; ")
}

func collectLeaves(validationErr *jsonschema.ValidationError, leaves *[]string) {
	if len(validationErr.Causes) == 0 {
		path := "$"
		if len(validationErr.InstanceLocation) > 0 {
			path = "$." + strings.Join(validationErr.InstanceLocation, ".")
		}
		msg := strings.Join(strings.Fields(validationErr.Error()), " ")
		*leaves = append(*leaves, fmt.Sprintf("%s: %s", path, msg))
		return
	}
	for _, cause := range validationErr.Causes {
		collectLeaves(cause, leaves)
	}
}
