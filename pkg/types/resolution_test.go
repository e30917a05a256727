package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnosticUnwrap(t *testing.T) {
	conflict := Diagnostic{Kind: KindConflict, Type: "D", Operation: "m", Contracts: []string{"B", "C"}}
	missing := Diagnostic{Kind: KindUnimplemented, Type: "D", Operation: "fly", Contracts: []string{"Flyable"}}

	assert.ErrorIs(t, conflict, ErrConflict)
	assert.ErrorIs(t, missing, ErrUnimplemented)
	assert.Contains(t, conflict.Error(), "B, C")
	assert.Contains(t, missing.Error(), `"fly"`)
}

func TestDefinitionErrorIs(t *testing.T) {
	var err error = &DefinitionError{Diagnostics: []Diagnostic{
		{Kind: KindConflict, Type: "D", Operation: "m", Contracts: []string{"B", "C"}},
		{Kind: KindUnimplemented, Type: "E", Operation: "n", Contracts: []string{"A"}},
	}}

	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, errors.Is(err, ErrUnimplemented))
	assert.Contains(t, err.Error(), "2 definition errors")

	var defErr *DefinitionError
	assert.True(t, errors.As(err, &defErr))
	assert.Len(t, defErr.Diagnostics, 2)
}

func TestDispatchTableOperationsSorted(t *testing.T) {
	table := DispatchTable{Entries: map[string]Implementation{
		"quack": {}, "fly": {}, "push": {},
	}}
	assert.Equal(t, []string{"fly", "push", "quack"}, table.Operations())
}
