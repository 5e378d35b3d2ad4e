package capability

import "fmt"

// Kind discriminates the three capability kinds served by a Registry.
type Kind int

const (
	KindResource Kind = iota
	KindTool
	KindPrompt
)

// Kinds lists every capability kind in a stable order.
var Kinds = []Kind{KindResource, KindTool, KindPrompt}

func (k Kind) String() string {
	switch k {
	case KindResource:
		return "resource"
	case KindTool:
		return "tool"
	case KindPrompt:
		return "prompt"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) valid() bool {
	return k >= KindResource && k <= KindPrompt
}

// MarshalText renders the kind by name so descriptors serialize readably.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("invalid capability kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown capability kind %q", s)
}
