package capability

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDuplicateIdentity is returned when a tool or prompt name, or a
	// byte-identical resource pattern, is registered twice.
	ErrDuplicateIdentity = errors.New("duplicate capability identity")
	// ErrNotFound is returned by Lookup when nothing matches.
	ErrNotFound = errors.New("capability not found")
)

// Handler computes the result of one invocation. A *RuleError return is a
// business-rule failure reported verbatim to the caller; any other error,
// and any panic, is treated as an internal fault.
type Handler func(ctx context.Context, args Args) (any, error)

// Entry is a capability as supplied to Builder.Register. For resources,
// Identity is the address pattern; for tools and prompts it is the exact
// name.
type Entry struct {
	Kind        Kind
	Identity    string
	Title       string
	Description string
	// MimeType describes resource payloads. Ignored for other kinds.
	MimeType   string
	Parameters []ParameterSpec
	Handler    Handler
}

// Registered is an immutable entry held by a Registry.
type Registered struct {
	entry    Entry
	template *Template
}

func (r *Registered) Kind() Kind             { return r.entry.Kind }
func (r *Registered) Identity() string       { return r.entry.Identity }
func (r *Registered) Title() string          { return r.entry.Title }
func (r *Registered) Description() string    { return r.entry.Description }
func (r *Registered) MimeType() string       { return r.entry.MimeType }
func (r *Registered) Handler() Handler       { return r.entry.Handler }
func (r *Registered) Template() *Template    { return r.template }
func (r *Registered) Descriptor() Descriptor { return newDescriptor(r) }

// Parameters returns a copy of the parameter contract.
func (r *Registered) Parameters() []ParameterSpec {
	out := make([]ParameterSpec, len(r.entry.Parameters))
	copy(out, r.entry.Parameters)
	return out
}

// Descriptor is the discovery view of a registered capability.
type Descriptor struct {
	Kind         Kind            `json:"kind" yaml:"kind"`
	Identity     string          `json:"identity" yaml:"identity"`
	Title        string          `json:"title,omitempty" yaml:"title,omitempty"`
	Description  string          `json:"description,omitempty" yaml:"description,omitempty"`
	MimeType     string          `json:"mimeType,omitempty" yaml:"mimeType,omitempty"`
	Placeholders []string        `json:"placeholders,omitempty" yaml:"placeholders,omitempty"`
	Parameters   []ParameterSpec `json:"parameters" yaml:"parameters"`
}

func newDescriptor(r *Registered) Descriptor {
	d := Descriptor{
		Kind:        r.entry.Kind,
		Identity:    r.entry.Identity,
		Title:       r.entry.Title,
		Description: r.entry.Description,
		MimeType:    r.entry.MimeType,
		Parameters:  r.Parameters(),
	}
	if r.template != nil {
		d.Placeholders = r.template.Placeholders()
	}
	return d
}

// Builder collects registrations during startup. It is not safe for
// concurrent use.
type Builder struct {
	entries []*Registered
	names   [3]map[string]struct{}
	err     error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	b := &Builder{}
	for i := range b.names {
		b.names[i] = make(map[string]struct{})
	}
	return b
}

// Register validates and records e. It never overwrites an existing entry:
// a repeated identity yields an error wrapping ErrDuplicateIdentity.
func (b *Builder) Register(e Entry) error {
	if !e.Kind.valid() {
		return fmt.Errorf("register: invalid kind %d", int(e.Kind))
	}
	if e.Identity == "" {
		return fmt.Errorf("register %s: empty identity", e.Kind)
	}
	if e.Handler == nil {
		return fmt.Errorf("register %s '%s': nil handler", e.Kind, e.Identity)
	}
	if _, dup := b.names[e.Kind][e.Identity]; dup {
		return fmt.Errorf("register %s '%s': %w", e.Kind, e.Identity, ErrDuplicateIdentity)
	}

	reg := &Registered{entry: e}
	if e.Kind == KindResource {
		t, err := ParseTemplate(e.Identity)
		if err != nil {
			return fmt.Errorf("register resource '%s': %w", e.Identity, err)
		}
		reg.template = t
		if len(e.Parameters) == 0 {
			for _, name := range t.Placeholders() {
				reg.entry.Parameters = append(reg.entry.Parameters, Required(name, String, ""))
			}
		}
	}
	specs, err := normalizeSpecs(reg.entry.Parameters)
	if err != nil {
		return fmt.Errorf("register %s '%s': %w", e.Kind, e.Identity, err)
	}
	reg.entry.Parameters = specs
	if reg.template != nil {
		if err := checkPlaceholderSpecs(reg.template, specs); err != nil {
			return fmt.Errorf("register resource '%s': %w", e.Identity, err)
		}
	}

	b.names[e.Kind][e.Identity] = struct{}{}
	b.entries = append(b.entries, reg)
	return nil
}

func checkPlaceholderSpecs(t *Template, specs []ParameterSpec) error {
	for _, name := range t.Placeholders() {
		found := false
		for _, s := range specs {
			if s.Name != name {
				continue
			}
			if s.Type != String {
				return fmt.Errorf("%w: placeholder %q must be declared as a string, not %s", ErrInvalidParameter, name, s.Type)
			}
			found = true
			break
		}
		if !found {
			return fmt.Errorf("%w: placeholder %q has no parameter spec", ErrInvalidParameter, name)
		}
	}
	return nil
}

// Resource registers a resource handler under an address pattern. The first
// failure across the fluent helpers is kept and returned by Build.
func (b *Builder) Resource(pattern, description, mimeType string, params []ParameterSpec, h Handler) *Builder {
	return b.record(b.Register(Entry{Kind: KindResource, Identity: pattern, Description: description, MimeType: mimeType, Parameters: params, Handler: h}))
}

// Tool registers a named tool.
func (b *Builder) Tool(name, description string, params []ParameterSpec, h Handler) *Builder {
	return b.record(b.Register(Entry{Kind: KindTool, Identity: name, Description: description, Parameters: params, Handler: h}))
}

// Prompt registers a named prompt template.
func (b *Builder) Prompt(name, description string, params []ParameterSpec, h Handler) *Builder {
	return b.record(b.Register(Entry{Kind: KindPrompt, Identity: name, Description: description, Parameters: params, Handler: h}))
}

func (b *Builder) record(err error) *Builder {
	if err != nil && b.err == nil {
		b.err = err
	}
	return b
}

// Build freezes the registrations into a Registry. It fails with the first
// error recorded by Resource, Tool or Prompt.
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := &Registry{
		entries: make([]*Registered, len(b.entries)),
	}
	copy(r.entries, b.entries)
	for i := range r.byName {
		r.byName[i] = make(map[string]*Registered)
	}
	for _, e := range r.entries {
		switch e.Kind() {
		case KindResource:
			r.resources = append(r.resources, e)
		default:
			r.byName[e.Kind()][e.Identity()] = e
		}
	}
	return r, nil
}

// Registry is the immutable set of registered capabilities. It is safe for
// concurrent use.
type Registry struct {
	entries   []*Registered
	resources []*Registered
	byName    [3]map[string]*Registered
}

// Lookup resolves identity for kind. Tools and prompts match by exact name.
// Resources are matched against each pattern in registration order and the
// first match wins; the placeholder bindings are returned alongside.
func (r *Registry) Lookup(kind Kind, identity string) (*Registered, map[string]string, error) {
	switch kind {
	case KindResource:
		for _, e := range r.resources {
			if vals, ok := e.template.Match(identity); ok {
				return e, vals, nil
			}
		}
	case KindTool, KindPrompt:
		if e, ok := r.byName[kind][identity]; ok {
			return e, nil, nil
		}
	}
	return nil, nil, fmt.Errorf("%s '%s': %w", kind, identity, ErrNotFound)
}

// Entries returns every registered capability in registration order.
func (r *Registry) Entries() []Descriptor {
	out := make([]Descriptor, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Descriptor())
	}
	return out
}

// EntriesOf returns the registered capabilities of one kind in registration
// order.
func (r *Registry) EntriesOf(kind Kind) []*Registered {
	var out []*Registered
	for _, e := range r.entries {
		if e.Kind() == kind {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of registered capabilities of kind.
func (r *Registry) Count(kind Kind) int {
	if kind == KindResource {
		return len(r.resources)
	}
	if !kind.valid() {
		return 0
	}
	return len(r.byName[kind])
}

// Overlap names two resource patterns that can match the same address.
type Overlap struct {
	First, Second string
}

// Overlaps lists pairs of resource patterns, in registration order, that
// some address could match. Lookup resolves such ambiguity in favour of
// First.
func (r *Registry) Overlaps() []Overlap {
	var out []Overlap
	for i, a := range r.resources {
		for _, b := range r.resources[i+1:] {
			if a.template.overlaps(b.template) {
				out = append(out, Overlap{First: a.Identity(), Second: b.Identity()})
			}
		}
	}
	return out
}
