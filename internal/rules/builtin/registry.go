package builtin

import (
	"context"

	"github.com/holomush/ruleforge/internal/rules/value"
)

// Fn is the signature every builtin implements. ctx carries the
// per-evaluation cancellation/timeout for the HTTP group; every other
// group ignores it.
type Fn func(ctx context.Context, args []value.Value) (value.Value, error)

// Builtin pairs a function with its arity contract, per §4.7's "each
// carries a fixed arity (minimum and maximum)."
type Builtin struct {
	Name    string
	MinArity int
	MaxArity int // -1 means unbounded
	Fn       Fn
}

var registry = map[string]Builtin{}

// Register adds b to the registry, keyed by its lowercase name. Called
// from each group file's init().
func Register(b Builtin) {
	registry[b.Name] = b
}

// Lookup returns the registered builtin for name, if any.
func Lookup(name string) (Builtin, bool) {
	b, ok := registry[name]
	return b, ok
}

// Call dispatches name with args, checking arity before invoking Fn, per
// §4.7's "violations are EvaluationError(ARITY/TYPE)."
func Call(ctx context.Context, name string, args []value.Value) (value.Value, error) {
	b, ok := registry[name]
	if !ok {
		return value.Null(), newError("UNKNOWN_FUNCTION", "no such builtin: %s", name)
	}
	if len(args) < b.MinArity || (b.MaxArity >= 0 && len(args) > b.MaxArity) {
		return value.Null(), arityError(name, b.MinArity, b.MaxArity, len(args))
	}
	return b.Fn(ctx, args)
}
