// Package schema provides JSON schema generation for the bridge configuration.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/reglet-dev/hostbridge/domain/entities"
)

// ConfigSchemaID identifies the configuration schema document.
const ConfigSchemaID = "https://reglet.dev/schemas/hostbridge/config.json"

// ConfigSchema returns the JSON schema (Draft 2020-12) of the hostbridge config file.
func ConfigSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		FieldNameTag:   "yaml",
	}
	s := reflector.Reflect(entities.BridgeConfig{})
	s.ID = jsonschema.ID(ConfigSchemaID)
	s.Title = "hostbridge configuration"
	if timeout, ok := s.Properties.Get("timeout"); ok {
		// Durations are written as strings such as "30s" in the file.
		timeout.Type = "string"
		timeout.Description = "Bound on module import plus invocation, as a Go duration (e.g. 30s)"
	}
	return marshal(s)
}

func marshal(s *jsonschema.Schema) ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return jsonBytes, nil
}
