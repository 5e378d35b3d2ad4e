package capability

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind_Coercion(t *testing.T) {
	tests := []struct {
		name  string
		typ   ParamType
		in    any
		want  any
		wants bool
	}{
		{name: "string as is", typ: String, in: "hello", want: "hello", wants: true},
		{name: "number to string", typ: String, in: 42, want: "42", wants: true},
		{name: "float to string", typ: String, in: 1.5, want: "1.5", wants: true},
		{name: "bool to string", typ: String, in: true, want: "true", wants: true},
		{name: "json number to string", typ: String, in: json.Number("7"), want: "7", wants: true},
		{name: "map is not a string", typ: String, in: map[string]any{"a": 1}},

		{name: "numeric string to integer", typ: Integer, in: "70", want: int64(70), wants: true},
		{name: "padded string to integer", typ: Integer, in: " 12 ", want: int64(12), wants: true},
		{name: "integral float string to integer", typ: Integer, in: "70.0", want: int64(70), wants: true},
		{name: "int to integer", typ: Integer, in: 3, want: int64(3), wants: true},
		{name: "integral float to integer", typ: Integer, in: 8.0, want: int64(8), wants: true},
		{name: "json number to integer", typ: Integer, in: json.Number("9007199254740993"), want: int64(9007199254740993), wants: true},
		{name: "fraction is not an integer", typ: Integer, in: 2.5},
		{name: "fraction string is not an integer", typ: Integer, in: "2.5"},
		{name: "word is not an integer", typ: Integer, in: "seventy"},
		{name: "bool is not an integer", typ: Integer, in: true},

		{name: "numeric string to float", typ: Float, in: "0", want: float64(0), wants: true},
		{name: "decimal string to float", typ: Float, in: "1.75", want: 1.75, wants: true},
		{name: "int to float", typ: Float, in: 70, want: float64(70), wants: true},
		{name: "json number to float", typ: Float, in: json.Number("2.5"), want: 2.5, wants: true},
		{name: "nan is not a float", typ: Float, in: "NaN"},
		{name: "inf is not a float", typ: Float, in: "+Inf"},
		{name: "word is not a float", typ: Float, in: "abc"},
		{name: "bool is not a float", typ: Float, in: false},

		{name: "bool as is", typ: Boolean, in: true, want: true, wants: true},
		{name: "lower true", typ: Boolean, in: "true", want: true, wants: true},
		{name: "mixed case false", typ: Boolean, in: "FaLsE", want: false, wants: true},
		{name: "one is not a boolean", typ: Boolean, in: 1},
		{name: "yes is not a boolean", typ: Boolean, in: "yes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs := []ParameterSpec{Required("p", tt.typ, "")}
			args, err := Bind(specs, map[string]any{"p": tt.in})
			if !tt.wants {
				var be *BindingError
				require.ErrorAs(t, err, &be)
				assert.Equal(t, TypeMismatch, be.Reason)
				assert.Equal(t, "p", be.Parameter)
				return
			}
			require.NoError(t, err)
			got, ok := args.Get("p")
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBind_MissingRequired(t *testing.T) {
	specs := []ParameterSpec{
		Required("weight_kg", Float, ""),
		Required("height_m", Float, ""),
		Optional("units", String, "metric", ""),
	}
	for _, raw := range []map[string]any{
		nil,
		{"weight_kg": "70"},
		{"weight_kg": "70", "units": "imperial", "other": 1},
		{"weight_kg": "70", "height_m": nil},
	} {
		_, err := Bind(specs, raw)
		var be *BindingError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, MissingRequired, be.Reason)
		assert.NotEmpty(t, be.Parameter)
		if _, ok := raw["weight_kg"]; ok {
			assert.Equal(t, "height_m", be.Parameter)
		}
	}
}

func TestBind_DefaultsAndUnknownKeys(t *testing.T) {
	specs, err := normalizeSpecs([]ParameterSpec{
		Optional("length", Integer, 16, ""),
		Optional("include_symbols", Boolean, true, ""),
	})
	require.NoError(t, err)

	args, err := Bind(specs, map[string]any{"unexpected": "ignored"})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(16), true}, args.Values())
	assert.Equal(t, int64(16), args.Int("length"))
	assert.True(t, args.Bool("include_symbols"))

	args, err = Bind(specs, map[string]any{"length": "24", "include_symbols": "False"})
	require.NoError(t, err)
	assert.Equal(t, int64(24), args.Int("length"))
	assert.False(t, args.Bool("include_symbols"))
}

func TestBind_Idempotent(t *testing.T) {
	specs := []ParameterSpec{
		Required("a", Float, ""),
		Required("b", String, ""),
		Optional("c", Boolean, false, ""),
	}
	raw := map[string]any{"a": "1.5", "b": 7}
	first, err1 := Bind(specs, raw)
	second, err2 := Bind(specs, raw)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first.Values(), second.Values())
	assert.Equal(t, map[string]any{"a": "1.5", "b": 7}, raw)

	bad := map[string]any{"a": "x"}
	_, err1 = Bind(specs, bad)
	_, err2 = Bind(specs, bad)
	assert.Equal(t, err1, err2)
}

func TestBindingError_Message(t *testing.T) {
	err := &BindingError{Reason: MissingRequired, Parameter: "name"}
	assert.Equal(t, "missing required parameter 'name'", err.Error())

	err = &BindingError{Reason: TypeMismatch, Parameter: "height_m", Expected: Float, Value: "tall"}
	assert.Equal(t, `parameter 'height_m' expects float, got "tall"`, err.Error())
}

func TestNormalizeSpecs(t *testing.T) {
	_, err := normalizeSpecs([]ParameterSpec{{Name: "x", Type: Integer}})
	assert.ErrorIs(t, err, ErrInvalidParameter, "optional without default")

	_, err = normalizeSpecs([]ParameterSpec{Optional("x", Integer, "many", "")})
	assert.ErrorIs(t, err, ErrInvalidParameter, "default of the wrong type")

	_, err = normalizeSpecs([]ParameterSpec{Required("x", String, ""), Required("x", Float, "")})
	assert.ErrorIs(t, err, ErrInvalidParameter, "duplicate name")

	_, err = normalizeSpecs([]ParameterSpec{Required("", String, "")})
	assert.ErrorIs(t, err, ErrInvalidParameter, "empty name")

	specs, err := normalizeSpecs([]ParameterSpec{Optional("x", Float, 3, "")})
	require.NoError(t, err)
	assert.Equal(t, float64(3), specs[0].Default)
}
