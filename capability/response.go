package capability

import "fmt"

// Category classifies a failed dispatch.
type Category int

const (
	NotFound Category = iota + 1
	InvalidArguments
	DomainError
	InternalError
)

func (c Category) String() string {
	switch c {
	case NotFound:
		return "not_found"
	case InvalidArguments:
		return "invalid_arguments"
	case DomainError:
		return "domain_error"
	case InternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// MarshalText renders the category by name.
func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Failure is the error half of a Response.
type Failure struct {
	Reason   string
	Category Category
}

func (f *Failure) Error() string { return f.Reason }

// Response is the outcome of one dispatch: either a textual Payload, or a
// Failure. Entry is the capability the request resolved to; it is nil for
// NotFound.
type Response struct {
	Payload string
	Failure *Failure
	Entry   *Registered
}

// OK reports whether the dispatch succeeded.
func (r Response) OK() bool { return r.Failure == nil }

// Success builds a successful Response.
func Success(payload string) Response { return Response{Payload: payload} }

// Fail builds a failed Response.
func Fail(category Category, reason string) Response {
	return Response{Failure: &Failure{Reason: reason, Category: category}}
}

// internalErrorReason is the only reason an InternalError failure carries;
// the underlying cause is logged, not returned.
const internalErrorReason = "internal error"

// RuleError is returned by a handler to report a business-rule violation
// such as an out-of-range input. Its message reaches the caller verbatim.
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string { return e.Message }

// NewDomainError returns a *RuleError with msg.
func NewDomainError(msg string) error { return &RuleError{Message: msg} }

// DomainErrorf formats a *RuleError.
func DomainErrorf(format string, a ...any) error {
	return &RuleError{Message: fmt.Sprintf(format, a...)}
}
