package classify

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildClassificationSchema returns the JSON schema a coerced classifier reply
// must satisfy. Every field is optional; missing fields get defaults later.
func BuildClassificationSchema() map[string]any {
	str := map[string]any{"type": "string"}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"document_type":   str,
			"date":            str,
			"company":         str,
			"content_summary": str,
			"labels": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": "number", "minimum": 0.0, "maximum": 1.0,
				},
			},
		},
	}
}

// CompileSchema compiles a schema map once for repeated validation.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("classification.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("classification.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// validateDoc checks a decoded JSON document against schema.
func validateDoc(schema *jsonschema.Schema, doc map[string]any) error {
	// jsonschema expects the generic shapes encoding/json produces.
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
