package types

import (
	"fmt"
	"sort"
	"strings"
)

// Source tells where a selected implementation comes from.
type Source string

// Implementation sources.
const (
	SourceOverride Source = "override"
	SourceDefault  Source = "default"
)

// Implementation is the body an operation dispatches to. Owner is the
// concrete type for an override, or the contract that supplied the default.
type Implementation struct {
	Operation string `json:"operation" yaml:"operation"`
	Source    Source `json:"source" yaml:"source"`
	Owner     string `json:"owner" yaml:"owner"`
	Body      Body   `json:"body,omitempty" yaml:"body,omitempty"`
}

// DispatchTable maps operation keys of a concrete type to the selected
// implementations.
type DispatchTable struct {
	Type      string                    `json:"type" yaml:"type"`
	Contracts []string                  `json:"contracts,omitempty" yaml:"contracts,omitempty"`
	Entries   map[string]Implementation `json:"entries" yaml:"entries"`
}

// Operations returns the operation keys in the table, sorted.
func (t DispatchTable) Operations() []string {
	keys := make([]string, 0, len(t.Entries))
	for k := range t.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DiagnosticKind classifies a resolution failure.
type DiagnosticKind string

// Diagnostic kinds.
const (
	KindConflict      DiagnosticKind = "conflict"
	KindUnimplemented DiagnosticKind = "unimplemented"
)

// Diagnostic reports why an operation of a type could not be resolved.
// For a conflict Contracts lists the contracts supplying competing
// defaults; for an unimplemented operation it lists the declaring contracts.
type Diagnostic struct {
	Kind      DiagnosticKind `json:"kind" yaml:"kind"`
	Type      string         `json:"type" yaml:"type"`
	Operation string         `json:"operation" yaml:"operation"`
	Contracts []string       `json:"contracts,omitempty" yaml:"contracts,omitempty"`
}

func (d Diagnostic) Error() string {
	switch d.Kind {
	case KindConflict:
		return fmt.Sprintf("type %q: operation %q: defaults from %s conflict; override it", d.Type, d.Operation, strings.Join(d.Contracts, ", "))
	default:
		return fmt.Sprintf("type %q: operation %q declared by %s has no implementation", d.Type, d.Operation, strings.Join(d.Contracts, ", "))
	}
}

// Unwrap returns ErrConflict or ErrUnimplemented.
func (d Diagnostic) Unwrap() error {
	if d.Kind == KindConflict {
		return ErrConflict
	}
	return ErrUnimplemented
}

// DefinitionError rejects a declaration set whose types cannot all be
// resolved. errors.Is matches ErrConflict and ErrUnimplemented through it.
type DefinitionError struct {
	Diagnostics []Diagnostic
}

func (e *DefinitionError) Error() string {
	if len(e.Diagnostics) == 1 {
		return e.Diagnostics[0].Error()
	}
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = d.Error()
	}
	return fmt.Sprintf("%d definition errors:\n\t%s", len(e.Diagnostics), strings.Join(msgs, "\n\t"))
}

func (e *DefinitionError) Unwrap() []error {
	errs := make([]error, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		errs[i] = d
	}
	return errs
}
