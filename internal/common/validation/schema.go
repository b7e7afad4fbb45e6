// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationResult carries the outcome of a schema validation.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// VerifyRequestSchema validates the POST /verify payload.
var VerifyRequestSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"responseText": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"queryContext": map[string]interface{}{
			"type": "string",
		},
	},
	"required":             []interface{}{"responseText"},
	"additionalProperties": false,
}

// Validate checks a decoded JSON document against a schema map.
func Validate(document map[string]interface{}, schema map[string]interface{}) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}, nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, strings.TrimSpace(desc.String()))
	}
	return &ValidationResult{Valid: false, Errors: errs}, nil
}
