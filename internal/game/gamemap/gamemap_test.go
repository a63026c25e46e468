package gamemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
)

// buildMap creates land territories with the given names and connects the
// listed pairs.
func buildMap(t *testing.T, names []string, edges [][2]string) *GameMap {
	t.Helper()
	m := New()
	for _, n := range names {
		require.NoError(t, m.AddTerritory(core.NewTerritory(n, false)))
	}
	for _, e := range edges {
		require.NoError(t, m.AddConnection(m.MustTerritory(e[0]), m.MustTerritory(e[1])))
	}
	return m
}

func names(ts []*core.Territory) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name()
	}
	return out
}

func TestAddTerritory_Duplicate_ReturnsError(t *testing.T) {
	m := New()
	a := core.NewTerritory("A", false)
	require.NoError(t, m.AddTerritory(a))

	assert.ErrorIs(t, m.AddTerritory(a), core.ErrDuplicateTerritory)
	assert.ErrorIs(t, m.AddTerritory(core.NewTerritory("A", true)), core.ErrDuplicateTerritory)
	assert.Equal(t, 1, m.Len())
}

func TestAddConnection_Preconditions(t *testing.T) {
	m := New()
	a := core.NewTerritory("A", false)
	b := core.NewTerritory("B", false)
	require.NoError(t, m.AddTerritory(a))

	assert.ErrorIs(t, m.AddConnection(a, a), core.ErrSelfConnection)
	assert.ErrorIs(t, m.AddConnection(a, b), core.ErrUnknownTerritory)
	assert.ErrorIs(t, m.AddConnection(b, a), core.ErrUnknownTerritory)

	require.NoError(t, m.AddTerritory(b))
	assert.NoError(t, m.AddConnection(a, b))
}

func TestAdjacency_Symmetric_AfterUnrelatedConnections(t *testing.T) {
	m := buildMap(t, []string{"A", "B", "C", "D", "E"}, [][2]string{{"A", "B"}})
	a, b := m.MustTerritory("A"), m.MustTerritory("B")

	check := func() {
		na, err := m.Neighbors(a)
		require.NoError(t, err)
		nb, err := m.Neighbors(b)
		require.NoError(t, err)
		assert.Contains(t, na, b)
		assert.Contains(t, nb, a)
	}
	check()

	require.NoError(t, m.AddConnection(m.MustTerritory("C"), m.MustTerritory("D")))
	require.NoError(t, m.AddConnection(m.MustTerritory("D"), m.MustTerritory("E")))
	require.NoError(t, m.AddConnection(a, m.MustTerritory("E")))
	check()

	for _, e := range m.Edges() {
		from, to := m.MustTerritory(e.From), m.MustTerritory(e.To)
		assert.True(t, m.IsAdjacent(from, to))
		assert.True(t, m.IsAdjacent(to, from))
	}
}

func TestNeighbors_UnknownVersusIsolated(t *testing.T) {
	m := buildMap(t, []string{"Island"}, nil)

	got, err := m.Neighbors(m.MustTerritory("Island"))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = m.Neighbors(core.NewTerritory("Nowhere", false))
	assert.ErrorIs(t, err, core.ErrUnknownTerritory)
}

func TestNeighbors_ReturnsCopy(t *testing.T) {
	m := buildMap(t, []string{"A", "B"}, [][2]string{{"A", "B"}})
	a := m.MustTerritory("A")

	got, err := m.Neighbors(a)
	require.NoError(t, err)
	got[0] = nil

	again, err := m.Neighbors(a)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, names(again))
}

func TestNeighbors_DeclarationOrder(t *testing.T) {
	m := buildMap(t, []string{"Hub", "A", "B", "C"}, [][2]string{{"Hub", "C"}, {"Hub", "A"}, {"Hub", "B"}})
	got, err := m.Neighbors(m.MustTerritory("Hub"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, names(got))
}

func TestNeighborsMatching_FiltersByPredicate(t *testing.T) {
	m := New()
	land := core.NewTerritory("Land", false)
	sea := core.NewTerritory("Sea", true)
	other := core.NewTerritory("Other", false)
	for _, tt := range []*core.Territory{land, sea, other} {
		require.NoError(t, m.AddTerritory(tt))
	}
	require.NoError(t, m.AddConnection(land, sea))
	require.NoError(t, m.AddConnection(land, other))

	got, err := m.NeighborsMatching(land, core.IsWater)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sea"}, names(got))

	got, err = m.NeighborsAlongEdges(land, func(from, to *core.Territory) bool { return from.IsWater() == to.IsWater() })
	require.NoError(t, err)
	assert.Equal(t, []string{"Other"}, names(got))
}

func TestNeighborsWithin_Distances(t *testing.T) {
	// A - B - C - D - E
	m := buildMap(t, []string{"A", "B", "C", "D", "E"}, [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}, {"D", "E"}})
	a := m.MustTerritory("A")

	tests := []struct {
		distance int
		expected []string
	}{
		{0, []string{}},
		{1, []string{"B"}},
		{2, []string{"B", "C"}},
		{3, []string{"B", "C", "D"}},
		{10, []string{"B", "C", "D", "E"}},
	}
	for _, tt := range tests {
		got, err := m.NeighborsWithin(a, tt.distance, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, names(got), "distance %d", tt.distance)
	}

	_, err := m.NeighborsWithin(a, -1, nil)
	assert.ErrorIs(t, err, core.ErrNegativeDistance)
}

func TestNeighborsWithinIgnoreEnd_LandsOnAnything(t *testing.T) {
	// A(ours) - B(ours) - C(enemy) - D(enemy)
	m := buildMap(t, []string{"A", "B", "C", "D"}, [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}})
	for _, n := range []string{"A", "B"} {
		m.MustTerritory(n).SetOwner("Germans")
	}
	for _, n := range []string{"C", "D"} {
		m.MustTerritory(n).SetOwner("Russians")
	}
	friendly := core.OwnedBy("Germans")
	a := m.MustTerritory("A")

	strict, err := m.NeighborsWithin(a, 3, friendly)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, names(strict))

	loose, err := m.NeighborsWithinIgnoreEnd(a, 3, friendly)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, names(loose), "C ends a path but does not carry it to D")
}

func TestDistance_LinearWithShortcut(t *testing.T) {
	m := buildMap(t, []string{"A", "B", "C", "D", "Isolated"},
		[][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}, {"A", "D"}})
	a, d := m.MustTerritory("A"), m.MustTerritory("D")

	assert.Equal(t, 1, m.Distance(a, d, nil))
	assert.Equal(t, 0, m.Distance(a, a, nil))
	assert.Equal(t, -1, m.Distance(a, m.MustTerritory("Isolated"), nil))

	linear := buildMap(t, []string{"A", "B", "C", "D"}, [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}})
	assert.Equal(t, 3, linear.Distance(linear.MustTerritory("A"), linear.MustTerritory("D"), nil))
}

func TestDistance_PredicateGatesEnd(t *testing.T) {
	m := buildMap(t, []string{"A", "B", "C"}, [][2]string{{"A", "B"}, {"B", "C"}})
	notC := core.Not(core.NameIs("C"))
	a, c := m.MustTerritory("A"), m.MustTerritory("C")

	assert.Equal(t, -1, m.Distance(a, c, notC))
	assert.Equal(t, 2, m.DistanceIgnoreEnd(a, c, notC))
	assert.Equal(t, -1, m.Distance(a, c, core.Not(core.NameIs("B"))))
}

func TestIsValidRoute(t *testing.T) {
	m := buildMap(t, []string{"A", "B", "C"}, [][2]string{{"A", "B"}, {"B", "C"}})
	a, b, c := m.MustTerritory("A"), m.MustTerritory("B"), m.MustTerritory("C")

	assert.True(t, m.IsValidRoute(MustRoute(a, b, c)))
	assert.True(t, m.IsValidRoute(MustRoute(a)))
	assert.False(t, m.IsValidRoute(MustRoute(a, c)))
	assert.False(t, m.IsValidRoute(nil))
}

func TestGameMap_Route_Delegates(t *testing.T) {
	m := buildMap(t, []string{"A", "B", "C", "D"}, [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}})
	a, d := m.MustTerritory("A"), m.MustTerritory("D")

	r, ok := m.Route(a, d, nil)
	require.True(t, ok)
	assert.Equal(t, "A -> B -> C -> D", r.String())

	_, ok = m.Route(a, d, core.Not(core.NameIs("D")))
	assert.False(t, ok)

	r, ok = m.RouteIgnoreEnd(a, d, core.Not(core.NameIs("D")))
	require.True(t, ok)
	assert.Equal(t, 3, r.NumberOfSteps())
}
