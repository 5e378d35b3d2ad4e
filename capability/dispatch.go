package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/ggoodman/ez-mcp/internal/logctx"
	"github.com/google/uuid"
)

// Request is one inbound invocation. Identity is a tool or prompt name, or a
// concrete resource address. Arguments hold untyped caller values (strings,
// numbers, booleans as decoded from the wire).
type Request struct {
	Kind      Kind
	Identity  string
	Arguments map[string]any
}

// Encoder renders a handler result as the textual payload of a Response.
type Encoder func(v any) (string, error)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger used for dispatch events.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithEncoder overrides EncodeJSON as the payload encoder.
func WithEncoder(enc Encoder) DispatcherOption {
	return func(d *Dispatcher) {
		if enc != nil {
			d.encode = enc
		}
	}
}

// Dispatcher resolves, binds and invokes capabilities. Dispatches share no
// mutable state and may run concurrently.
type Dispatcher struct {
	reg    *Registry
	log    *slog.Logger
	encode Encoder
}

// NewDispatcher returns a Dispatcher serving reg.
func NewDispatcher(reg *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{reg: reg, log: slog.Default(), encode: EncodeJSON}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry served by d.
func (d *Dispatcher) Registry() *Registry { return d.reg }

// Dispatch runs req to completion in a single pass: lookup, bind, invoke,
// package. It always returns a Response; handler faults, including panics,
// become InternalError failures.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	start := time.Now()
	ctx = logctx.WithDispatchData(ctx, &logctx.DispatchData{
		ID:       uuid.NewString(),
		Kind:     req.Kind.String(),
		Identity: req.Identity,
	})

	entry, placeholders, err := d.reg.Lookup(req.Kind, req.Identity)
	if err != nil {
		d.log.InfoContext(ctx, "dispatch.not_found", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return Fail(NotFound, fmt.Sprintf("%s '%s' not found", req.Kind, req.Identity))
	}

	args, err := Bind(entry.entry.Parameters, mergeArguments(req.Arguments, placeholders))
	if err != nil {
		d.log.InfoContext(ctx, "dispatch.invalid_arguments", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return failFor(entry, InvalidArguments, err.Error())
	}

	out, err := invoke(ctx, entry.entry.Handler, args)
	if err != nil {
		var de *RuleError
		if errors.As(err, &de) {
			d.log.InfoContext(ctx, "dispatch.domain_error", slog.String("err", de.Message), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
			return failFor(entry, DomainError, de.Message)
		}
		d.log.ErrorContext(ctx, "dispatch.fail", faultAttrs(err, start)...)
		return failFor(entry, InternalError, internalErrorReason)
	}

	payload, err := encodeSafely(d.encode, out)
	if err != nil {
		d.log.ErrorContext(ctx, "dispatch.encode.fail", faultAttrs(err, start)...)
		return failFor(entry, InternalError, internalErrorReason)
	}
	d.log.DebugContext(ctx, "dispatch.ok", slog.Int("payload_bytes", len(payload)), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	res := Success(payload)
	res.Entry = entry
	return res
}

// faultAttrs describes an internal fault for the log, with the stack when the
// fault was a panic.
func faultAttrs(err error, start time.Time) []any {
	attrs := []any{slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds())}
	var pe *panicError
	if errors.As(err, &pe) {
		attrs = append(attrs, slog.String("stack", string(pe.stack)))
	}
	return attrs
}

func failFor(entry *Registered, category Category, reason string) Response {
	res := Fail(category, reason)
	res.Entry = entry
	return res
}

// mergeArguments overlays placeholder bindings on the caller's arguments.
// Placeholders win over caller values of the same name. The inputs are not
// modified.
func mergeArguments(raw map[string]any, placeholders map[string]string) map[string]any {
	if len(placeholders) == 0 {
		return raw
	}
	merged := make(map[string]any, len(raw)+len(placeholders))
	for k, v := range raw {
		merged[k] = v
	}
	for k, v := range placeholders {
		merged[k] = v
	}
	return merged
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }

func invoke(ctx context.Context, h Handler, args Args) (out any, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, &panicError{value: p, stack: debug.Stack()}
		}
	}()
	return h(ctx, args)
}

// encodeSafely runs enc with the same panic containment as invoke. Results
// such as a nil pointer with a value-receiver String method panic here.
func encodeSafely(enc Encoder, v any) (payload string, err error) {
	defer func() {
		if p := recover(); p != nil {
			payload, err = "", &panicError{value: p, stack: debug.Stack()}
		}
	}()
	return enc(v)
}

// EncodeJSON is the default Encoder. Strings and byte slices are used as is,
// fmt.Stringer values are rendered with String, nil becomes the empty
// payload and anything else is encoded as indented JSON.
func EncodeJSON(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(b), nil
}
