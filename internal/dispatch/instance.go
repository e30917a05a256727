// Package dispatch turns a resolved concrete type into a callable instance.
// Define refuses any type the resolver reports diagnostics for, so an
// Instance always has exactly one implementation per operation.
package dispatch

import (
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/traits/internal/resolver"
	"github.com/mesh-intelligence/traits/pkg/types"
)

// Instance dispatches operations of one concrete type.
type Instance struct {
	table    types.DispatchTable
	maxDepth int
}

// Option configures an Instance.
type Option func(*Instance)

// WithMaxCallDepth bounds nested calls. Values below one keep the default.
func WithMaxCallDepth(depth int) Option {
	return func(i *Instance) {
		if depth > 0 {
			i.maxDepth = depth
		}
	}
}

// Define validates decls, resolves the named type and returns an instance
// of it. It fails with a *types.DefinitionError if any operation of the
// type is in conflict or unimplemented, and with types.ErrUnknownType if
// the type is not declared.
func Define(decls types.Declarations, typeName string, opts ...Option) (*Instance, error) {
	if err := decls.Validate(); err != nil {
		return nil, fmt.Errorf("validate declarations: %w", err)
	}
	table, diags, err := resolver.ResolveType(decls, typeName)
	if err != nil {
		return nil, fmt.Errorf("define %q: %w", typeName, err)
	}
	if len(diags) > 0 {
		return nil, &types.DefinitionError{Diagnostics: diags}
	}
	return New(table, opts...), nil
}

// New wraps an already resolved dispatch table.
func New(table types.DispatchTable, opts ...Option) *Instance {
	i := &Instance{table: table, maxDepth: types.DefaultMaxCallDepth}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Type returns the name of the concrete type.
func (i *Instance) Type() string {
	return i.table.Type
}

// Table returns the dispatch table the instance was built from.
func (i *Instance) Table() types.DispatchTable {
	return i.table
}

// Lookup returns the implementation selected for op. op is an operation key;
// a bare name also matches when exactly one operation has that name.
func (i *Instance) Lookup(op string) (types.Implementation, error) {
	if impl, ok := i.table.Entries[op]; ok {
		return impl, nil
	}

	var (
		found types.Implementation
		n     int
	)
	for key, impl := range i.table.Entries {
		if nameOf(key) == op {
			found = impl
			n++
		}
	}
	switch n {
	case 1:
		return found, nil
	case 0:
		return types.Implementation{}, fmt.Errorf("%s.%s: %w", i.table.Type, op, types.ErrUnknownOperation)
	default:
		return types.Implementation{}, fmt.Errorf("%s.%s is overloaded; use the full key: %w", i.table.Type, op, types.ErrUnknownOperation)
	}
}

// Call runs the implementation of op, writing the output of its steps to w.
// Calls made by the body dispatch through this instance again, so a default
// that calls an abstract operation reaches the type's own method.
func (i *Instance) Call(w io.Writer, op string) error {
	return i.call(w, op, 1)
}

func (i *Instance) call(w io.Writer, op string, depth int) error {
	if depth > i.maxDepth {
		return fmt.Errorf("%s.%s at depth %d: %w", i.table.Type, op, depth, types.ErrCallDepthExceeded)
	}
	impl, err := i.Lookup(op)
	if err != nil {
		return err
	}
	for _, step := range impl.Body {
		if step.Call != "" {
			if err := i.call(w, step.Call, depth+1); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, step.Say); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}

// nameOf strips a parenthesised signature from an operation key.
func nameOf(key string) string {
	name, _, _ := strings.Cut(key, "(")
	return name
}
