package capability

import "github.com/invopop/jsonschema"

// InputSchema renders a parameter contract as a JSON Schema object, with
// properties in declaration order. Additional properties are left open
// because Bind ignores unknown keys.
func InputSchema(specs []ParameterSpec) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	for _, p := range specs {
		prop := &jsonschema.Schema{
			Type:        p.Type.jsonSchemaType(),
			Description: p.Description,
		}
		if p.Required {
			s.Required = append(s.Required, p.Name)
		} else {
			prop.Default = p.Default
		}
		s.Properties.Set(p.Name, prop)
	}
	return s
}
