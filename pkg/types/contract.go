package types

import (
	"fmt"
	"strings"
)

// Step is a single instruction in an implementation body. Exactly one of
// Say or Call is set: Say writes a line of output, Call invokes another
// operation on the same receiver.
type Step struct {
	Say  string `json:"say,omitempty" yaml:"say,omitempty"`
	Call string `json:"call,omitempty" yaml:"call,omitempty"`
}

// Validate returns ErrInvalidStep unless exactly one field is set.
func (s Step) Validate() error {
	if (s.Say == "") == (s.Call == "") {
		return ErrInvalidStep
	}
	return nil
}

// Body is an ordered list of steps.
type Body []Step

// Validate checks every step.
func (b Body) Validate() error {
	for i, s := range b {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

// Operation is declared by a contract. A nil Default means the contract only
// declares the operation; a non-nil Default (even an empty one) supplies a
// default implementation.
type Operation struct {
	Name      string `json:"name" yaml:"name"`
	Signature string `json:"signature,omitempty" yaml:"signature,omitempty"`
	Default   *Body  `json:"default,omitempty" yaml:"default,omitempty"`
}

// Key identifies the operation by name and signature.
func (o Operation) Key() string {
	return OperationKey(o.Name, o.Signature)
}

// HasDefault reports whether the operation carries a default body.
func (o Operation) HasDefault() bool {
	return o.Default != nil
}

// OperationKey joins an operation name and signature into its key. A
// signature without parentheses is wrapped in them, so the key always reads
// name or name(...) and "m" with signature "x" never matches a method "mx".
func OperationKey(name, signature string) string {
	if signature == "" {
		return name
	}
	if !strings.HasPrefix(signature, "(") {
		signature = "(" + signature + ")"
	}
	return name + signature
}

// validateKey rejects names containing parentheses and signatures that are
// not of the form (...).
func validateKey(name, signature string) error {
	if name == "" || strings.ContainsAny(name, "()") {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if signature == "" {
		return nil
	}
	inner, ok := strings.CutPrefix(signature, "(")
	if ok {
		inner, ok = strings.CutSuffix(inner, ")")
	}
	if !ok || strings.ContainsAny(inner, "()") {
		return fmt.Errorf("%q: %w", signature, ErrInvalidSignature)
	}
	return nil
}

// Contract is a capability contract (an interface). It may extend other
// contracts and may supply default bodies for its operations.
type Contract struct {
	Name       string      `json:"name" yaml:"name"`
	Extends    []string    `json:"extends,omitempty" yaml:"extends,omitempty"`
	Operations []Operation `json:"operations,omitempty" yaml:"operations,omitempty"`
}

// Operation returns the operation with the given key.
func (c Contract) Operation(key string) (Operation, bool) {
	for _, op := range c.Operations {
		if op.Key() == key {
			return op, true
		}
	}
	return Operation{}, false
}

// Validate checks the contract in isolation: its name, the uniqueness of its
// operation keys, and its default bodies.
func (c Contract) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("contract: %w", ErrInvalidName)
	}
	seen := make(map[string]bool, len(c.Operations))
	for _, op := range c.Operations {
		if err := validateKey(op.Name, op.Signature); err != nil {
			return fmt.Errorf("contract %q: operation %w", c.Name, err)
		}
		if seen[op.Key()] {
			return fmt.Errorf("contract %q: %q: %w", c.Name, op.Key(), ErrDuplicateOperation)
		}
		seen[op.Key()] = true
		if op.Default != nil {
			if err := op.Default.Validate(); err != nil {
				return fmt.Errorf("contract %q: default %q: %w", c.Name, op.Key(), err)
			}
		}
	}
	for _, parent := range c.Extends {
		if parent == "" {
			return fmt.Errorf("contract %q: extends: %w", c.Name, ErrInvalidName)
		}
	}
	return nil
}
