package recompute

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diamond(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph().
		Input("a", "b").
		Derive("left", "a").
		Derive("right", "a", "b").
		Derive("top", "left", "right")
	require.NoError(t, g.Build())
	return g
}

func TestBuild_OrderDependenciesFirst(t *testing.T) {
	g := diamond(t)
	assert.Equal(t, []Key{"left", "right", "top"}, g.Order())
}

func TestBuild_DeclarationOrderIndependentOfDeps(t *testing.T) {
	g := NewGraph().
		Derive("total", "material", "labor").
		Derive("material", "boq").
		Derive("labor", "dpr").
		Input("boq", "dpr")
	require.NoError(t, g.Build())

	order := g.Order()
	require.Len(t, order, 3)
	assert.Equal(t, Key("total"), order[2])
}

func TestBuild_UndeclaredDependency(t *testing.T) {
	err := NewGraph().Derive("x", "missing").Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidGraph))
}

func TestBuild_DuplicateKey(t *testing.T) {
	err := NewGraph().Input("a").Input("a").Build()
	assert.ErrorIs(t, err, ErrInvalidGraph)
}

func TestBuild_SelfLoop(t *testing.T) {
	err := NewGraph().Derive("x", "x").Build()
	assert.ErrorIs(t, err, ErrCycleFound)
}

func TestBuild_CycleWitness(t *testing.T) {
	err := NewGraph().
		Derive("a", "c").
		Derive("b", "a").
		Derive("c", "b").
		Build()
	require.Error(t, err)

	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.ErrorIs(t, err, ErrCycleFound)
	assert.Contains(t, ge.Error(), "->")
}

func TestMustBuild_Panics(t *testing.T) {
	assert.Panics(t, func() { NewGraph().Derive("x", "nope").MustBuild() })
}

func TestPlan_OnlyAffectedKeys(t *testing.T) {
	g := diamond(t)

	assert.Equal(t, []Key{"right", "top"}, g.Plan("b"))
	assert.Equal(t, []Key{"left", "right", "top"}, g.Plan("a"))
	assert.Equal(t, []Key{"left", "right", "top"}, g.Plan("b", "a"))
	assert.Empty(t, g.Plan("unknown"))
	assert.Empty(t, g.Plan())
}

func TestPlan_DerivedKeyIncludesItself(t *testing.T) {
	g := diamond(t)
	assert.Equal(t, []Key{"left", "top"}, g.Plan("left"))
}

func TestPlan_UnbuiltGraphIsEmpty(t *testing.T) {
	g := NewGraph().Input("a").Derive("b", "a")
	assert.Empty(t, g.Plan("a"))
}
