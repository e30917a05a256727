package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultVersion is assumed for declaration documents that omit a version.
const DefaultVersion = "1.0.0"

// Declarations is a complete declaration set: the contracts and the concrete
// types that implement them.
type Declarations struct {
	Version   string         `json:"version,omitempty" yaml:"version,omitempty"`
	Contracts []Contract     `json:"contracts,omitempty" yaml:"contracts,omitempty"`
	Types     []ConcreteType `json:"types,omitempty" yaml:"types,omitempty"`
}

// Contract returns the contract with the given name.
func (d Declarations) Contract(name string) (Contract, bool) {
	for _, c := range d.Contracts {
		if c.Name == name {
			return c, true
		}
	}
	return Contract{}, false
}

// Type returns the concrete type with the given name.
func (d Declarations) Type(name string) (ConcreteType, bool) {
	for _, t := range d.Types {
		if t.Name == name {
			return t, true
		}
	}
	return ConcreteType{}, false
}

// Merge returns a copy of d with the contracts and types of other added.
// Entries in other replace entries of d with the same name.
func (d Declarations) Merge(other Declarations) Declarations {
	out := Declarations{Version: d.Version}
	if other.Version != "" {
		out.Version = other.Version
	}

	contracts := make(map[string]int)
	for _, c := range d.Contracts {
		contracts[c.Name] = len(out.Contracts)
		out.Contracts = append(out.Contracts, c)
	}
	for _, c := range other.Contracts {
		if i, ok := contracts[c.Name]; ok {
			out.Contracts[i] = c
			continue
		}
		contracts[c.Name] = len(out.Contracts)
		out.Contracts = append(out.Contracts, c)
	}

	typeIdx := make(map[string]int)
	for _, t := range d.Types {
		typeIdx[t.Name] = len(out.Types)
		out.Types = append(out.Types, t)
	}
	for _, t := range other.Types {
		if i, ok := typeIdx[t.Name]; ok {
			out.Types[i] = t
			continue
		}
		typeIdx[t.Name] = len(out.Types)
		out.Types = append(out.Types, t)
	}
	return out
}

// Validate checks the structure of the whole declaration set: names,
// duplicates, references between contracts and types, and inheritance
// cycles. All problems are reported, joined into one error. Validate does
// not resolve operations; Conflict and Unimplemented are reported by the
// resolver.
func (d Declarations) Validate() error {
	var errs []error

	contracts := make(map[string]Contract, len(d.Contracts))
	for _, c := range d.Contracts {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := contracts[c.Name]; dup {
			errs = append(errs, fmt.Errorf("contract %q: %w", c.Name, ErrDuplicateContract))
			continue
		}
		contracts[c.Name] = c
	}

	for _, c := range d.Contracts {
		for _, parent := range c.Extends {
			if parent == "" {
				continue
			}
			if _, ok := contracts[parent]; !ok {
				errs = append(errs, fmt.Errorf("contract %q extends %q: %w", c.Name, parent, ErrUnknownContract))
			}
		}
	}

	errs = append(errs, findCycles(contracts)...)

	typeNames := make(map[string]bool, len(d.Types))
	for _, t := range d.Types {
		if err := t.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if typeNames[t.Name] {
			errs = append(errs, fmt.Errorf("type %q: %w", t.Name, ErrDuplicateType))
			continue
		}
		typeNames[t.Name] = true
		for _, c := range t.Implements {
			if _, ok := contracts[c]; !ok && c != "" {
				errs = append(errs, fmt.Errorf("type %q implements %q: %w", t.Name, c, ErrUnknownContract))
			}
		}
	}

	return errors.Join(errs...)
}

// findCycles reports each inheritance cycle once, starting from the
// alphabetically first contract on the cycle.
func findCycles(contracts map[string]Contract) []error {
	const (
		white = iota
		grey
		black
	)

	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	sort.Strings(names)

	color := make(map[string]int, len(contracts))
	var (
		errs  []error
		stack []string
		visit func(name string)
	)
	visit = func(name string) {
		color[name] = grey
		stack = append(stack, name)
		parents := append([]string(nil), contracts[name].Extends...)
		sort.Strings(parents)
		for _, p := range parents {
			if _, ok := contracts[p]; !ok {
				continue
			}
			switch color[p] {
			case white:
				visit(p)
			case grey:
				start := 0
				for i, s := range stack {
					if s == p {
						start = i
						break
					}
				}
				path := append(append([]string(nil), stack[start:]...), p)
				errs = append(errs, fmt.Errorf("%s: %w", strings.Join(path, " -> "), ErrContractCycle))
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
	}

	for _, name := range names {
		if color[name] == white {
			visit(name)
		}
	}
	return errs
}
