package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaVersion is the JSON Schema dialect of GenerateSchema.
const SchemaVersion = "https://json-schema.org/draft/2020-12/schema"

// GenerateSchema returns the JSON schema of the configuration file, for
// editor completion and offline validation.
func GenerateSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		FieldNameTag:              "yaml",
	}

	schema := reflector.Reflect(&Config{})
	schema.Version = SchemaVersion
	schema.Title = "dittosmb configuration"
	schema.Description = "Configuration schema for the dittosmb SMB1 attribute server"

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}
	return out, nil
}
