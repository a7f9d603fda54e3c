package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// generateInputSchema reflects inputType into an inline JSON schema suitable for a tool.
func generateInputSchema(inputType any) (json.RawMessage, error) {
	// Inline everything; MCP clients do not resolve $ref/$defs.
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(inputType)

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaBytes, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	delete(schemaMap, "$schema")
	delete(schemaMap, "$id")

	// An argument-less tool still needs an object with properties.
	if _, ok := schemaMap["properties"]; !ok {
		schemaMap["properties"] = map[string]any{}
	}

	out, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}
