// Package schema provides JSON schema generation for the metadata a
// guest submits when registering routes, resolvers and tools. Hosts
// publish these schemas so registration payloads can be validated
// before they ever reach the authorization pipeline.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// RouteMetadata describes an HTTP route registration.
type RouteMetadata struct {
	Path        string `json:"path" jsonschema:"required"`
	Method      string `json:"method" jsonschema:"required,enum=GET,enum=POST,enum=PUT,enum=DELETE,enum=PATCH"`
	Description string `json:"description,omitempty"`
}

// ResolverMetadata describes a GraphQL resolver registration.
type ResolverMetadata struct {
	TypeName    string `json:"type_name" jsonschema:"required"`
	FieldName   string `json:"field_name" jsonschema:"required"`
	Description string `json:"description,omitempty"`
}

// ToolMetadata describes a tool registration.
type ToolMetadata struct {
	Description string         `json:"description" jsonschema:"required"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// GenerateSchema creates a JSON schema (Draft 2020-12) from a Go
// struct by reflection.
func GenerateSchema(v any) ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	s := reflector.Reflect(v)

	jsonBytes, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return jsonBytes, nil
}

// RegistrationSchemas returns the published metadata schemas keyed by
// registration kind.
func RegistrationSchemas() (map[string][]byte, error) {
	out := make(map[string][]byte, 3)
	for kind, v := range map[string]any{
		"route":    RouteMetadata{},
		"resolver": ResolverMetadata{},
		"tool":     ToolMetadata{},
	} {
		s, err := GenerateSchema(v)
		if err != nil {
			return nil, fmt.Errorf("generating %s schema: %w", kind, err)
		}
		out[kind] = s
	}
	return out, nil
}
