package capability

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// BindingReason classifies a BindingError.
type BindingReason int

const (
	MissingRequired BindingReason = iota + 1
	TypeMismatch
)

func (r BindingReason) String() string {
	switch r {
	case MissingRequired:
		return "missing_required"
	case TypeMismatch:
		return "type_mismatch"
	default:
		return "unknown"
	}
}

// BindingError reports why raw arguments could not be bound to a parameter
// list. Only the first offending parameter, in declaration order, is
// reported.
type BindingError struct {
	Reason    BindingReason
	Parameter string
	Expected  ParamType
	Value     any
}

func (e *BindingError) Error() string {
	switch e.Reason {
	case MissingRequired:
		return fmt.Sprintf("missing required parameter '%s'", e.Parameter)
	case TypeMismatch:
		return fmt.Sprintf("parameter '%s' expects %s, got %s", e.Parameter, e.Expected, describeValue(e.Value))
	default:
		return fmt.Sprintf("parameter '%s' could not be bound", e.Parameter)
	}
}

func describeValue(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case json.Number:
		return x.String()
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v (%T)", x, x)
	}
}

// Bind coerces raw against specs. For every spec, in declaration order, a
// supplied value is converted to the declared type and an absent one is
// replaced by the default, or rejected when the parameter is required. Keys
// in raw that no spec names are ignored. A nil value counts as absent.
//
// Bind has no side effects; identical inputs always produce identical
// results.
func Bind(specs []ParameterSpec, raw map[string]any) (Args, error) {
	args := Args{
		specs:  specs,
		values: make([]any, len(specs)),
	}
	for i, s := range specs {
		v, present := raw[s.Name]
		if !present || v == nil {
			if s.Required {
				return Args{}, &BindingError{Reason: MissingRequired, Parameter: s.Name, Expected: s.Type}
			}
			args.values[i] = s.Default
			continue
		}
		cv, ok := coerce(s.Type, v)
		if !ok {
			return Args{}, &BindingError{Reason: TypeMismatch, Parameter: s.Name, Expected: s.Type, Value: v}
		}
		args.values[i] = cv
	}
	return args, nil
}

// coerce converts v to the canonical Go representation of t.
func coerce(t ParamType, v any) (any, bool) {
	switch t {
	case String:
		return coerceString(v)
	case Integer:
		return coerceInteger(v)
	case Float:
		return coerceFloat(v)
	case Boolean:
		return coerceBoolean(v)
	}
	return nil, false
}

func coerceString(v any) (any, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	}
	if !isNumber(v) {
		return nil, false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, false
	}
	return s, true
}

func coerceInteger(v any) (any, bool) {
	switch x := v.(type) {
	case string:
		return parseIntText(x)
	case json.Number:
		return parseIntText(x.String())
	case float32:
		return integralFloat(float64(x))
	case float64:
		return integralFloat(x)
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, false
		}
	case uint64:
		if x > math.MaxInt64 {
			return nil, false
		}
	}
	if !isNumber(v) {
		return nil, false
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return nil, false
	}
	return n, true
}

func parseIntText(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	// "70.0" is an integer written as a float.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return integralFloat(f)
}

func integralFloat(f float64) (any, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, false
	}
	return int64(f), true
}

func coerceFloat(v any) (any, bool) {
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case string:
		f, err = cast.ToFloat64E(strings.TrimSpace(x))
	case json.Number:
		f, err = strconv.ParseFloat(x.String(), 64)
	default:
		if !isNumber(v) {
			return nil, false
		}
		f, err = cast.ToFloat64E(v)
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return f, true
}

func coerceBoolean(v any) (any, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch {
		case strings.EqualFold(x, "true"):
			return true, true
		case strings.EqualFold(x, "false"):
			return false, true
		}
	}
	return nil, false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// Args is the ordered, typed result of Bind. Accessors return the zero value
// for names that were not declared.
type Args struct {
	specs  []ParameterSpec
	values []any
}

// Values returns the bound values in declaration order.
func (a Args) Values() []any {
	out := make([]any, len(a.values))
	copy(out, a.values)
	return out
}

// Get returns the bound value of name.
func (a Args) Get(name string) (any, bool) {
	for i, s := range a.specs {
		if s.Name == name {
			return a.values[i], true
		}
	}
	return nil, false
}

func (a Args) String(name string) string {
	v, _ := a.Get(name)
	s, _ := v.(string)
	return s
}

func (a Args) Int(name string) int64 {
	v, _ := a.Get(name)
	n, _ := v.(int64)
	return n
}

func (a Args) Float(name string) float64 {
	v, _ := a.Get(name)
	f, _ := v.(float64)
	return f
}

func (a Args) Bool(name string) bool {
	v, _ := a.Get(name)
	b, _ := v.(bool)
	return b
}
