package mcpservice

import (
	"github.com/ggoodman/ez-mcp/capability"
	"github.com/ggoodman/ez-mcp/mcp"
	"github.com/invopop/jsonschema"
)

func toolDescriptor(r *capability.Registered) mcp.Tool {
	return mcp.Tool{
		Name:        r.Identity(),
		Title:       r.Title(),
		Description: r.Description(),
		InputSchema: toMCPInputSchema(capability.InputSchema(r.Parameters())),
	}
}

func promptDescriptor(r *capability.Registered) mcp.Prompt {
	p := mcp.Prompt{
		Name:        r.Identity(),
		Title:       r.Title(),
		Description: r.Description(),
	}
	for _, spec := range r.Parameters() {
		p.Arguments = append(p.Arguments, mcp.PromptArgument{
			Name:        spec.Name,
			Description: spec.Description,
			Required:    spec.Required,
		})
	}
	return p
}

// toMCPInputSchema down-converts an object schema to MCP's simplified
// ToolInputSchema.
func toMCPInputSchema(s *jsonschema.Schema) mcp.ToolInputSchema {
	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toMCPProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}
	return mcp.ToolInputSchema{Type: "object", Properties: props, Required: required}
}

// toMCPProperty maps a jsonschema.Schema to the simplified MCP SchemaProperty.
func toMCPProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	return mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
		Default:     s.Default,
	}
}
