package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/traits/pkg/types"
)

func say(text string) *types.Body {
	b := types.Body{{Say: text}}
	return &b
}

func declared(name string) types.Operation {
	return types.Operation{Name: name}
}

func withDefault(name, text string) types.Operation {
	return types.Operation{Name: name, Default: say(text)}
}

func TestResolve_SingleDefaultIsInherited(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{
			{Name: "A", Operations: []types.Operation{withDefault("m", "A")}},
			{Name: "B", Operations: []types.Operation{declared("m")}},
		},
		Types: []types.ConcreteType{{Name: "T", Implements: []string{"A", "B"}}},
	}

	plan := Resolve(decls)
	require.NoError(t, plan.Err())

	impl := plan.Tables["T"].Entries["m"]
	assert.Equal(t, types.SourceDefault, impl.Source)
	assert.Equal(t, "A", impl.Owner)
	assert.Equal(t, types.Body{{Say: "A"}}, impl.Body)
}

func TestResolve_CompetingDefaultsConflict(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{
			{Name: "A", Operations: []types.Operation{withDefault("m", "A")}},
			{Name: "B", Operations: []types.Operation{withDefault("m", "B")}},
		},
		Types: []types.ConcreteType{{Name: "T", Implements: []string{"A", "B"}}},
	}

	plan := Resolve(decls)

	err := plan.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConflict))
	_, ok := plan.Tables["T"]
	assert.False(t, ok, "a type with diagnostics has no table")
	require.Len(t, plan.Diagnostics, 1)
	assert.Equal(t, types.Diagnostic{
		Kind:      types.KindConflict,
		Type:      "T",
		Operation: "m",
		Contracts: []string{"A", "B"},
	}, plan.Diagnostics[0])
}

func TestResolve_OverrideSettlesConflict(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{
			{Name: "A", Operations: []types.Operation{withDefault("m", "A")}},
			{Name: "B", Operations: []types.Operation{withDefault("m", "B")}},
		},
		Types: []types.ConcreteType{{
			Name:       "T",
			Implements: []string{"A", "B"},
			Methods:    []types.Method{{Name: "m", Body: types.Body{{Say: "T"}}}},
		}},
	}

	plan := Resolve(decls)
	require.NoError(t, plan.Err())

	impl := plan.Tables["T"].Entries["m"]
	assert.Equal(t, types.SourceOverride, impl.Source)
	assert.Equal(t, "T", impl.Owner)
	assert.Equal(t, types.Body{{Say: "T"}}, impl.Body)
}

func TestResolve_MissingImplementation(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{{Name: "Flyable", Operations: []types.Operation{declared("fly")}}},
		Types:     []types.ConcreteType{{Name: "Rock", Implements: []string{"Flyable"}}},
	}

	plan := Resolve(decls)

	err := plan.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnimplemented))
	assert.False(t, errors.Is(err, types.ErrConflict))
	require.Len(t, plan.Diagnostics, 1)
	assert.Equal(t, types.KindUnimplemented, plan.Diagnostics[0].Kind)
	assert.Equal(t, []string{"Flyable"}, plan.Diagnostics[0].Contracts)
}

func TestResolve_OrderIndependent(t *testing.T) {
	contracts := []types.Contract{
		{Name: "A", Operations: []types.Operation{withDefault("m", "A"), withDefault("n", "A")}},
		{Name: "B", Operations: []types.Operation{withDefault("m", "B"), declared("n")}},
		{Name: "C", Operations: []types.Operation{declared("n")}},
	}
	orders := [][]string{
		{"A", "B", "C"},
		{"C", "B", "A"},
		{"B", "A", "C"},
		{"C", "A", "B"},
	}

	var first Plan
	for i, order := range orders {
		plan := Resolve(types.Declarations{
			Contracts: contracts,
			Types:     []types.ConcreteType{{Name: "T", Implements: order}},
		})
		if i == 0 {
			first = plan
			continue
		}
		assert.Equal(t, first, plan, "order %v", order)
	}

	require.Len(t, first.Diagnostics, 1)
	assert.Equal(t, "m", first.Diagnostics[0].Operation)
	assert.Equal(t, []string{"A", "B"}, first.Diagnostics[0].Contracts)
}

func TestResolve_UniqueDefaultOrderIndependent(t *testing.T) {
	contracts := []types.Contract{
		{Name: "A", Operations: []types.Operation{declared("m")}},
		{Name: "B", Operations: []types.Operation{withDefault("m", "B")}},
	}
	for _, order := range [][]string{{"A", "B"}, {"B", "A"}} {
		plan := Resolve(types.Declarations{
			Contracts: contracts,
			Types:     []types.ConcreteType{{Name: "T", Implements: order}},
		})
		require.NoError(t, plan.Err(), "order %v", order)
		assert.Equal(t, "B", plan.Tables["T"].Entries["m"].Owner, "order %v", order)
	}
}

func TestResolve_SharedAncestorCountedOnce(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{
			{Name: "Base", Operations: []types.Operation{withDefault("m", "Base")}},
			{Name: "Left", Extends: []string{"Base"}},
			{Name: "Right", Extends: []string{"Base"}},
		},
		Types: []types.ConcreteType{{Name: "T", Implements: []string{"Left", "Right"}}},
	}

	plan := Resolve(decls)
	require.NoError(t, plan.Err())

	table := plan.Tables["T"]
	assert.Equal(t, []string{"Base", "Left", "Right"}, table.Contracts)
	assert.Equal(t, "Base", table.Entries["m"].Owner)
}

func TestResolve_ListingSameContractTwice(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{{Name: "A", Operations: []types.Operation{withDefault("m", "A")}}},
		Types:     []types.ConcreteType{{Name: "T", Implements: []string{"A", "A"}}},
	}

	plan := Resolve(decls)
	require.NoError(t, plan.Err())
	assert.Equal(t, "A", plan.Tables["T"].Entries["m"].Owner)
}

func TestResolve_InheritedDeclarationWithOneDefault(t *testing.T) {
	// I declares m; I1 extends I and supplies the default; I2 extends I
	// without one. The type inherits I1's default.
	decls := types.Declarations{
		Contracts: []types.Contract{
			{Name: "I", Operations: []types.Operation{declared("m")}},
			{Name: "I1", Extends: []string{"I"}, Operations: []types.Operation{withDefault("m", "I1")}},
			{Name: "I2", Extends: []string{"I"}},
		},
		Types: []types.ConcreteType{{Name: "InterfaceIssue", Implements: []string{"I1", "I2"}}},
	}

	plan := Resolve(decls)
	require.NoError(t, plan.Err())
	assert.Equal(t, "I1", plan.Tables["InterfaceIssue"].Entries["m"].Owner)
}

func TestResolve_AncestorAndDescendantDefaultsConflict(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{
			{Name: "A", Operations: []types.Operation{withDefault("m", "A")}},
			{Name: "B", Extends: []string{"A"}, Operations: []types.Operation{withDefault("m", "B")}},
		},
		Types: []types.ConcreteType{{Name: "T", Implements: []string{"B"}}},
	}

	plan := Resolve(decls)
	require.Len(t, plan.Diagnostics, 1)
	assert.Equal(t, types.KindConflict, plan.Diagnostics[0].Kind)
	assert.Equal(t, []string{"A", "B"}, plan.Diagnostics[0].Contracts)
}

func TestResolve_Diamond(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{
			{Name: "A", Operations: []types.Operation{declared("m")}},
			{Name: "B", Extends: []string{"A"}, Operations: []types.Operation{withDefault("m", "B")}},
			{Name: "C", Extends: []string{"A"}, Operations: []types.Operation{withDefault("m", "C")}},
		},
		Types: []types.ConcreteType{
			{Name: "D", Implements: []string{"B", "C"}},
			{Name: "E", Implements: []string{"B", "C"}, Methods: []types.Method{{Name: "m", Body: types.Body{{Call: "n"}}}}},
		},
	}

	plan := Resolve(decls)

	require.Len(t, plan.Diagnostics, 1)
	assert.Equal(t, "D", plan.Diagnostics[0].Type)
	assert.Equal(t, []string{"B", "C"}, plan.Diagnostics[0].Contracts)
	assert.Equal(t, types.SourceOverride, plan.Tables["E"].Entries["m"].Source)
}

func TestResolve_Ducks(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{
			{Name: "Duck", Operations: []types.Operation{
				declared("quack"),
				{Name: "push", Default: &types.Body{{Call: "quack"}}},
			}},
			{Name: "Flyable", Operations: []types.Operation{declared("fly")}},
		},
		Types: []types.ConcreteType{
			{Name: "Mallard", Implements: []string{"Duck", "Flyable"}, Methods: []types.Method{
				{Name: "quack", Body: types.Body{{Say: "Quack!"}}},
				{Name: "fly", Body: types.Body{{Say: "Heading south!"}}},
				{Name: "push", Body: types.Body{{Call: "quack"}, {Call: "fly"}}},
			}},
			{Name: "RubberDuck", Implements: []string{"Duck"}, Methods: []types.Method{
				{Name: "quack", Body: types.Body{{Say: "Squeak!"}}},
			}},
		},
	}

	plan := Resolve(decls)
	require.NoError(t, plan.Err())

	mallard := plan.Tables["Mallard"]
	assert.Equal(t, []string{"fly", "push", "quack"}, mallard.Operations())
	assert.Equal(t, types.SourceOverride, mallard.Entries["push"].Source)

	rubber := plan.Tables["RubberDuck"]
	assert.Equal(t, []string{"push", "quack"}, rubber.Operations())
	assert.Equal(t, types.SourceDefault, rubber.Entries["push"].Source)
	assert.Equal(t, "Duck", rubber.Entries["push"].Owner)
}

func TestResolve_SignaturesAreDistinctOperations(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{
			{Name: "A", Operations: []types.Operation{{Name: "m", Signature: "()", Default: say("A")}}},
			{Name: "B", Operations: []types.Operation{{Name: "m", Signature: "(int)", Default: say("B")}}},
		},
		Types: []types.ConcreteType{{Name: "T", Implements: []string{"A", "B"}}},
	}

	plan := Resolve(decls)
	require.NoError(t, plan.Err())
	assert.Equal(t, []string{"m()", "m(int)"}, plan.Tables["T"].Operations())
}

func TestResolve_OwnMethodsOutsideContracts(t *testing.T) {
	decls := types.Declarations{
		Types: []types.ConcreteType{{Name: "T", Methods: []types.Method{{Name: "extra"}}}},
	}

	plan := Resolve(decls)
	require.NoError(t, plan.Err())
	assert.Equal(t, []string{"extra"}, plan.Tables["T"].Operations())
}

func TestResolve_DiagnosticsSorted(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{{Name: "A", Operations: []types.Operation{declared("z"), declared("a")}}},
		Types: []types.ConcreteType{
			{Name: "Y", Implements: []string{"A"}},
			{Name: "X", Implements: []string{"A"}},
		},
	}

	plan := Resolve(decls)

	var got [][2]string
	for _, d := range plan.Diagnostics {
		got = append(got, [2]string{d.Type, d.Operation})
	}
	assert.Equal(t, [][2]string{{"X", "a"}, {"X", "z"}, {"Y", "a"}, {"Y", "z"}}, got)
}

func TestResolveType(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{{Name: "A", Operations: []types.Operation{withDefault("m", "A")}}},
		Types:     []types.ConcreteType{{Name: "T", Implements: []string{"A"}}},
	}

	table, diags, err := ResolveType(decls, "T")
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, "A", table.Entries["m"].Owner)

	_, _, err = ResolveType(decls, "Missing")
	assert.ErrorIs(t, err, types.ErrUnknownType)
}

func TestResolve_CycleDoesNotLoop(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{
			{Name: "A", Extends: []string{"B"}, Operations: []types.Operation{withDefault("m", "A")}},
			{Name: "B", Extends: []string{"A"}},
		},
		Types: []types.ConcreteType{{Name: "T", Implements: []string{"A"}}},
	}

	plan := Resolve(decls)
	require.NoError(t, plan.Err())
	assert.Equal(t, []string{"A", "B"}, plan.Tables["T"].Contracts)
}

func TestImplementers(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{
			{Name: "Duck"},
			{Name: "Flyable"},
			{Name: "Bird", Extends: []string{"Flyable"}},
		},
		Types: []types.ConcreteType{
			{Name: "Mallard", Implements: []string{"Duck", "Bird"}},
			{Name: "RubberDuck", Implements: []string{"Duck"}},
			{Name: "Plane", Implements: []string{"Flyable"}},
		},
	}

	assert.Equal(t, []string{"Mallard", "RubberDuck"}, Implementers(decls, "Duck"))
	assert.Equal(t, []string{"Mallard", "Plane"}, Implementers(decls, "Flyable"))
	assert.Empty(t, Implementers(decls, "Missing"))
}

func TestClosure(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{
			{Name: "A"},
			{Name: "B", Extends: []string{"A"}},
			{Name: "C", Extends: []string{"B", "A"}},
		},
	}
	assert.Equal(t, []string{"A", "B", "C"}, Closure(decls, []string{"C"}))
	assert.Empty(t, Closure(decls, []string{"Unknown"}))
}

func TestResolve_MethodNameDoesNotAbsorbSignature(t *testing.T) {
	decls := types.Declarations{
		Contracts: []types.Contract{
			{Name: "A", Operations: []types.Operation{{Name: "m", Signature: "x"}}},
		},
		Types: []types.ConcreteType{{
			Name:       "T",
			Implements: []string{"A"},
			Methods:    []types.Method{{Name: "mx", Body: types.Body{{Say: "mx"}}}},
		}},
	}

	plan := Resolve(decls)

	require.Len(t, plan.Diagnostics, 1)
	assert.Equal(t, types.KindUnimplemented, plan.Diagnostics[0].Kind)
	assert.Equal(t, "m(x)", plan.Diagnostics[0].Operation)
	assert.ErrorIs(t, decls.Validate(), types.ErrInvalidSignature)

	table, diags, err := ResolveType(decls, "T")
	require.NoError(t, err)
	assert.Len(t, diags, 1)
	assert.Contains(t, table.Entries, "mx")
	assert.NotContains(t, table.Entries, "m(x)")
}
