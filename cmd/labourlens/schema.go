package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/labourlens/labourlens/pkg/config"
)

// SchemaCmd generates JSON Schema from the config structs. Output goes
// to stdout so it can be redirected.
type SchemaCmd struct {
	Compact bool `short:"c" help:"Compact JSON output (no indentation)."`
}

func (c *SchemaCmd) Run() error {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})

	schema.ID = "https://labourlens.dev/schemas/config.json"
	schema.Title = "LabourLens Configuration Schema"
	schema.Description = "Configuration schema for the labourlens answer pipeline"
	schema.Version = "http://json-schema.org/draft-07/schema#"
	schema.Examples = []interface{}{
		map[string]interface{}{
			"llms": map[string]interface{}{
				"main": map[string]interface{}{
					"type":    "openai",
					"model":   "gpt-4o",
					"api_key": "${OPENAI_API_KEY}",
				},
			},
			"embedders": map[string]interface{}{
				"main": map[string]interface{}{
					"type":  "openai",
					"model": "text-embedding-3-small",
				},
			},
			"vector_stores": map[string]interface{}{
				"main": map[string]interface{}{
					"type":       "qdrant",
					"host":       "localhost",
					"collection": "policy_documents",
				},
			},
			"escalation": map[string]interface{}{
				"threshold": 0.95,
			},
		},
	}

	encoder := json.NewEncoder(os.Stdout)
	if !c.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(schema); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return nil
}
