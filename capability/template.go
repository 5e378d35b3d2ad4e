package capability

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yosida95/uritemplate/v3"
)

// ErrInvalidTemplate is wrapped by every pattern rejected by ParseTemplate.
var ErrInvalidTemplate = errors.New("invalid address pattern")

const segmentDelimiter = "/"

// segment is one delimiter-separated piece of a pattern. Exactly one of
// literal or placeholder is meaningful, selected by isPlaceholder.
type segment struct {
	literal       string
	placeholder   string
	isPlaceholder bool
}

// Template is a parsed resource address pattern. Each "/"-separated segment
// is either a literal or a placeholder written as {name}. Matching is
// positional: no optional segments, no wildcards and no backtracking.
type Template struct {
	raw          string
	segments     []segment
	placeholders []string
	uri          *uritemplate.Template
}

// ParseTemplate parses pattern. Placeholders must fill a whole segment, use
// only letters, digits and underscores, and be unique within the pattern.
// RFC 6570 operators and modifiers are rejected.
func ParseTemplate(pattern string) (*Template, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidTemplate)
	}
	parts := strings.Split(pattern, segmentDelimiter)
	t := &Template{raw: pattern, segments: make([]segment, len(parts))}
	seen := make(map[string]struct{})
	for i, p := range parts {
		if !strings.ContainsAny(p, "{}") {
			t.segments[i] = segment{literal: p}
			continue
		}
		name, ok := placeholderName(p)
		if !ok {
			return nil, fmt.Errorf("%w: segment %q of %q is not a literal or a {name} placeholder", ErrInvalidTemplate, p, pattern)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: placeholder %q repeated in %q", ErrInvalidTemplate, name, pattern)
		}
		seen[name] = struct{}{}
		t.segments[i] = segment{placeholder: name, isPlaceholder: true}
		t.placeholders = append(t.placeholders, name)
	}
	u, err := uritemplate.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	t.uri = u
	return t, nil
}

func placeholderName(seg string) (string, bool) {
	if len(seg) < 3 || seg[0] != '{' || seg[len(seg)-1] != '}' {
		return "", false
	}
	name := seg[1 : len(seg)-1]
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return "", false
		}
	}
	return name, true
}

// String returns the pattern as written.
func (t *Template) String() string { return t.raw }

// Placeholders returns the placeholder names in pattern order.
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.placeholders))
	copy(out, t.placeholders)
	return out
}

// IsLiteral reports whether the pattern has no placeholders and therefore
// addresses exactly one resource.
func (t *Template) IsLiteral() bool { return len(t.placeholders) == 0 }

// Match matches candidate against the pattern and returns the placeholder
// bindings. Segment counts must be equal, literal segments must be equal
// byte for byte and placeholder segments must be non-empty.
func (t *Template) Match(candidate string) (map[string]string, bool) {
	parts := strings.Split(candidate, segmentDelimiter)
	if len(parts) != len(t.segments) {
		return nil, false
	}
	values := make(map[string]string, len(t.placeholders))
	for i, seg := range t.segments {
		if !seg.isPlaceholder {
			if parts[i] != seg.literal {
				return nil, false
			}
			continue
		}
		if parts[i] == "" {
			return nil, false
		}
		values[seg.placeholder] = parts[i]
	}
	return values, true
}

// Expand substitutes values into the pattern. Every placeholder needs a
// value; reserved characters are percent-encoded.
func (t *Template) Expand(values map[string]string) (string, error) {
	vals := uritemplate.Values{}
	for _, name := range t.placeholders {
		v, ok := values[name]
		if !ok || v == "" {
			return "", fmt.Errorf("missing value for placeholder %q in %q", name, t.raw)
		}
		vals.Set(name, uritemplate.String(v))
	}
	return t.uri.Expand(vals)
}

// overlaps reports whether some address could match both t and o.
func (t *Template) overlaps(o *Template) bool {
	if len(t.segments) != len(o.segments) {
		return false
	}
	for i := range t.segments {
		a, b := t.segments[i], o.segments[i]
		if a.isPlaceholder || b.isPlaceholder {
			// Placeholders never match an empty segment.
			if (!a.isPlaceholder && a.literal == "") || (!b.isPlaceholder && b.literal == "") {
				return false
			}
			continue
		}
		if a.literal != b.literal {
			return false
		}
	}
	return true
}
