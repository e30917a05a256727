// Package resolver selects the implementation each operation of a concrete
// type dispatches to. Resolution is a pure function of the declarations:
// the type's own method wins, otherwise the single default supplied across
// its contract closure is used. Competing defaults and missing
// implementations are reported as diagnostics, never settled by order.
package resolver

import (
	"sort"

	"github.com/mesh-intelligence/traits/pkg/types"
)

// Plan is the outcome of resolving a declaration set. Tables holds a
// dispatch table for every type that resolved cleanly; types with
// diagnostics have no table.
type Plan struct {
	Tables      map[string]types.DispatchTable
	Diagnostics []types.Diagnostic
}

// Err returns a *types.DefinitionError when the plan has diagnostics.
func (p Plan) Err() error {
	if len(p.Diagnostics) == 0 {
		return nil
	}
	return &types.DefinitionError{Diagnostics: p.Diagnostics}
}

// Resolve resolves every concrete type in decls. Structural problems are the
// caller's concern; run decls.Validate first. Unknown contract references
// are skipped.
func Resolve(decls types.Declarations) Plan {
	idx := newIndex(decls)
	plan := Plan{Tables: make(map[string]types.DispatchTable)}

	for _, t := range decls.Types {
		table, diags := idx.resolve(t)
		if len(diags) > 0 {
			plan.Diagnostics = append(plan.Diagnostics, diags...)
			continue
		}
		plan.Tables[t.Name] = table
	}

	sortDiagnostics(plan.Diagnostics)
	return plan
}

// ResolveType resolves a single type. It returns types.ErrUnknownType when
// decls does not declare the type.
func ResolveType(decls types.Declarations, name string) (types.DispatchTable, []types.Diagnostic, error) {
	t, ok := decls.Type(name)
	if !ok {
		return types.DispatchTable{}, nil, types.ErrUnknownType
	}
	table, diags := newIndex(decls).resolve(t)
	sortDiagnostics(diags)
	return table, diags, nil
}

// Closure returns the contracts reachable from the named contracts through
// Extends, each once, sorted by name.
func Closure(decls types.Declarations, contracts []string) []string {
	return newIndex(decls).closure(contracts)
}

// Implementers returns the names of the types whose contract closure
// contains the named contract, sorted.
func Implementers(decls types.Declarations, contract string) []string {
	idx := newIndex(decls)
	var names []string
	for _, t := range decls.Types {
		for _, c := range idx.closure(t.Implements) {
			if c == contract {
				names = append(names, t.Name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

type index struct {
	contracts map[string]types.Contract
}

func newIndex(decls types.Declarations) *index {
	idx := &index{contracts: make(map[string]types.Contract, len(decls.Contracts))}
	for _, c := range decls.Contracts {
		if _, dup := idx.contracts[c.Name]; !dup {
			idx.contracts[c.Name] = c
		}
	}
	return idx
}

// closure walks Extends breadth-first. A contract reached through several
// paths is visited once, which also stops on cycles.
func (idx *index) closure(roots []string) []string {
	seen := make(map[string]bool)
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		c, ok := idx.contracts[name]
		if !ok {
			continue
		}
		seen[name] = true
		queue = append(queue, c.Extends...)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolve computes the dispatch table of t and the diagnostics for every
// operation that cannot be resolved.
func (idx *index) resolve(t types.ConcreteType) (types.DispatchTable, []types.Diagnostic) {
	closure := idx.closure(t.Implements)
	table := types.DispatchTable{
		Type:      t.Name,
		Contracts: closure,
		Entries:   make(map[string]types.Implementation),
	}

	// declarers and providers are filled in closure order, so both come out
	// sorted by contract name.
	declarers := make(map[string][]string)
	providers := make(map[string][]string)
	defaults := make(map[[2]string]types.Body)
	var keys []string
	for _, name := range closure {
		for _, op := range idx.contracts[name].Operations {
			key := op.Key()
			if _, ok := declarers[key]; !ok {
				keys = append(keys, key)
			}
			declarers[key] = append(declarers[key], name)
			if op.HasDefault() {
				providers[key] = append(providers[key], name)
				defaults[[2]string{key, name}] = *op.Default
			}
		}
	}

	for _, m := range t.Methods {
		table.Entries[m.Key()] = types.Implementation{
			Operation: m.Key(),
			Source:    types.SourceOverride,
			Owner:     t.Name,
			Body:      m.Body,
		}
	}

	sort.Strings(keys)
	var diags []types.Diagnostic
	for _, key := range keys {
		if _, ok := table.Entries[key]; ok {
			continue
		}
		switch p := providers[key]; len(p) {
		case 0:
			diags = append(diags, types.Diagnostic{
				Kind:      types.KindUnimplemented,
				Type:      t.Name,
				Operation: key,
				Contracts: declarers[key],
			})
		case 1:
			table.Entries[key] = types.Implementation{
				Operation: key,
				Source:    types.SourceDefault,
				Owner:     p[0],
				Body:      defaults[[2]string{key, p[0]}],
			}
		default:
			diags = append(diags, types.Diagnostic{
				Kind:      types.KindConflict,
				Type:      t.Name,
				Operation: key,
				Contracts: p,
			})
		}
	}
	return table, diags
}

func sortDiagnostics(diags []types.Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Type != diags[j].Type {
			return diags[i].Type < diags[j].Type
		}
		return diags[i].Operation < diags[j].Operation
	})
}
