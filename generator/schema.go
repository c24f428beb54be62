package generator

import (
	"encoding/json"
	"slices"
)

type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Schema is the provider neutral subset of OpenAPI/JSON schema the backends share.
type Schema struct {
	Type        Type
	Description string
	Nullable    bool
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
}

// JSONSchema renders the schema as a JSON Schema document. Nullable fields
// become a union with "null".
func (s *Schema) JSONSchema() map[string]any {
	if s == nil {
		return nil
	}

	out := map[string]any{}

	if s.Nullable {
		out["type"] = []string{string(s.Type), "null"}
	} else {
		out["type"] = string(s.Type)
	}

	if len(s.Description) > 0 {
		out["description"] = s.Description
	}

	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = prop.JSONSchema()
		}
		out["properties"] = props
	}

	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}

	if len(s.Required) > 0 {
		out["required"] = slices.Clone(s.Required)
	}

	return out
}

func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.JSONSchema())
}
