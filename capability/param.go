package capability

import (
	"errors"
	"fmt"
)

// ParamType is the declared type of a parameter.
type ParamType int

const (
	String ParamType = iota
	Integer
	Float
	Boolean
)

func (t ParamType) String() string {
	switch t {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// MarshalText renders the type by name.
func (t ParamType) MarshalText() ([]byte, error) {
	if t < String || t > Boolean {
		return nil, fmt.Errorf("invalid parameter type %d", int(t))
	}
	return []byte(t.String()), nil
}

// jsonSchemaType is the JSON Schema "type" keyword for t.
func (t ParamType) jsonSchemaType() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "number"
	case Boolean:
		return "boolean"
	default:
		return "string"
	}
}

// ErrInvalidParameter is wrapped by every parameter contract violation found
// at registration time.
var ErrInvalidParameter = errors.New("invalid parameter spec")

// ParameterSpec declares one named parameter of a capability. An optional
// parameter must carry a default of its declared type; the registry stores
// the default in canonical form (string, int64, float64 or bool).
type ParameterSpec struct {
	Name        string    `json:"name" yaml:"name"`
	Type        ParamType `json:"type" yaml:"type"`
	Required    bool      `json:"required" yaml:"required"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// Required declares a parameter the caller must supply.
func Required(name string, t ParamType, description string) ParameterSpec {
	return ParameterSpec{Name: name, Type: t, Required: true, Description: description}
}

// Optional declares a parameter that falls back to def when absent.
func Optional(name string, t ParamType, def any, description string) ParameterSpec {
	return ParameterSpec{Name: name, Type: t, Default: def, Description: description}
}

// normalizeSpecs validates a parameter list and returns a copy with defaults
// in canonical form.
func normalizeSpecs(specs []ParameterSpec) ([]ParameterSpec, error) {
	out := make([]ParameterSpec, len(specs))
	seen := make(map[string]struct{}, len(specs))
	for i, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: parameter %d has no name", ErrInvalidParameter, i)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%w: parameter %q declared twice", ErrInvalidParameter, s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Type < String || s.Type > Boolean {
			return nil, fmt.Errorf("%w: parameter %q has unknown type %d", ErrInvalidParameter, s.Name, int(s.Type))
		}
		if s.Required {
			s.Default = nil
		} else {
			if s.Default == nil {
				return nil, fmt.Errorf("%w: optional parameter %q has no default", ErrInvalidParameter, s.Name)
			}
			v, ok := coerce(s.Type, s.Default)
			if !ok {
				return nil, fmt.Errorf("%w: default %v of parameter %q is not a %s", ErrInvalidParameter, s.Default, s.Name, s.Type)
			}
			s.Default = v
		}
		out[i] = s
	}
	return out, nil
}
