package types

import "fmt"

// Method is an implementation a concrete type supplies itself.
type Method struct {
	Name      string `json:"name" yaml:"name"`
	Signature string `json:"signature,omitempty" yaml:"signature,omitempty"`
	Body      Body   `json:"body,omitempty" yaml:"body,omitempty"`
}

// Key identifies the method by name and signature.
func (m Method) Key() string {
	return OperationKey(m.Name, m.Signature)
}

// ConcreteType implements a set of contracts. Its own methods take
// precedence over every inherited default.
type ConcreteType struct {
	Name       string   `json:"name" yaml:"name"`
	Implements []string `json:"implements,omitempty" yaml:"implements,omitempty"`
	Methods    []Method `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// Method returns the type's own method with the given key.
func (t ConcreteType) Method(key string) (Method, bool) {
	for _, m := range t.Methods {
		if m.Key() == key {
			return m, true
		}
	}
	return Method{}, false
}

// Validate checks the type in isolation.
func (t ConcreteType) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("type: %w", ErrInvalidName)
	}
	seen := make(map[string]bool, len(t.Methods))
	for _, m := range t.Methods {
		if err := validateKey(m.Name, m.Signature); err != nil {
			return fmt.Errorf("type %q: method %w", t.Name, err)
		}
		if seen[m.Key()] {
			return fmt.Errorf("type %q: %q: %w", t.Name, m.Key(), ErrDuplicateOperation)
		}
		seen[m.Key()] = true
		if err := m.Body.Validate(); err != nil {
			return fmt.Errorf("type %q: method %q: %w", t.Name, m.Key(), err)
		}
	}
	for _, c := range t.Implements {
		if c == "" {
			return fmt.Errorf("type %q: implements: %w", t.Name, ErrInvalidName)
		}
	}
	return nil
}
