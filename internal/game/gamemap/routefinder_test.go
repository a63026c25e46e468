package gamemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
)

// Two ways from Start to Goal:
//
//	Start - Swamp - Goal             (2 steps, cost 5 + 1 = 6)
//	Start - Road1 - Road2 - Goal     (3 steps, cost 1 + 1 + 1 = 3)
func costDivergenceMap(t *testing.T) *GameMap {
	t.Helper()
	m := buildMap(t, []string{"Start", "Swamp", "Road1", "Road2", "Goal"}, [][2]string{
		{"Start", "Swamp"}, {"Swamp", "Goal"},
		{"Start", "Road1"}, {"Road1", "Road2"}, {"Road2", "Goal"},
	})
	m.MustTerritory("Swamp").SetMovementCost(5)
	return m
}

func TestRouteFinder_CostAndDistanceDiverge(t *testing.T) {
	m := costDivergenceMap(t)
	start, goal := m.MustTerritory("Start"), m.MustTerritory("Goal")
	rf := NewRouteFinder(m, nil)

	byDistance, ok := rf.FindRouteByDistance(start, goal)
	require.True(t, ok)
	assert.Equal(t, "Start -> Swamp -> Goal", byDistance.String())

	byCost, ok := rf.FindRouteByCost(start, goal)
	require.True(t, ok)
	assert.Equal(t, "Start -> Road1 -> Road2 -> Goal", byCost.String())
	assert.Equal(t, 3, byCost.MovementCost(TerritoryCost))
	assert.Less(t, byCost.MovementCost(TerritoryCost), byDistance.MovementCost(TerritoryCost))
}

func TestRouteFinder_StartEqualsEnd_ZeroSteps(t *testing.T) {
	m := costDivergenceMap(t)
	start := m.MustTerritory("Start")

	r, ok := NewRouteFinder(m, nil).FindRouteByCost(start, start)
	require.True(t, ok)
	assert.Equal(t, 0, r.NumberOfSteps())
	assert.Equal(t, start, r.End())
}

func TestRouteFinder_Unreachable(t *testing.T) {
	m := buildMap(t, []string{"A", "B", "Island"}, [][2]string{{"A", "B"}})
	rf := NewRouteFinder(m, nil)

	_, ok := rf.FindRouteByDistance(m.MustTerritory("A"), m.MustTerritory("Island"))
	assert.False(t, ok)

	_, ok = rf.FindRouteByDistance(m.MustTerritory("A"), core.NewTerritory("Elsewhere", false))
	assert.False(t, ok)
}

func TestRouteFinder_RespectsMatch(t *testing.T) {
	m := costDivergenceMap(t)
	start, goal := m.MustTerritory("Start"), m.MustTerritory("Goal")

	r, ok := NewRouteFinder(m, core.Not(core.NameIs("Swamp"))).FindRouteByDistance(start, goal)
	require.True(t, ok)
	assert.Equal(t, "Start -> Road1 -> Road2 -> Goal", r.String())
	assert.True(t, m.IsValidRoute(r))
}

func TestRouteFinder_ResultIsMinimalOnGrid(t *testing.T) {
	// 4x4 grid named a0..d3 (column letter, row digit).
	var ns []string
	var edges [][2]string
	name := func(x, y int) string { return string(rune('a'+x)) + string(rune('0'+y)) }
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			ns = append(ns, name(x, y))
			if x > 0 {
				edges = append(edges, [2]string{name(x-1, y), name(x, y)})
			}
			if y > 0 {
				edges = append(edges, [2]string{name(x, y-1), name(x, y)})
			}
		}
	}
	m := buildMap(t, ns, edges)
	from, to := m.MustTerritory("a0"), m.MustTerritory("d3")

	r, ok := m.Route(from, to, nil)
	require.True(t, ok)
	assert.Equal(t, 6, r.NumberOfSteps())
	assert.Equal(t, m.Distance(from, to, nil), r.NumberOfSteps())
	assert.True(t, m.IsValidRoute(r))
}

func TestUnitsCost_AirIgnoresTerrain(t *testing.T) {
	m := costDivergenceMap(t)
	start, goal := m.MustTerritory("Start"), m.MustTerritory("Goal")
	fighter := core.NewUnit(&core.UnitType{TypeName: "fighter", Movement: 4, IsAir: true}, "Germans")
	infantry := core.NewUnit(&core.UnitType{TypeName: "infantry", Movement: 1}, "Germans")

	air, ok := m.RouteByCost(start, goal, nil, []*core.Unit{fighter}, "Germans")
	require.True(t, ok)
	assert.Equal(t, 2, air.NumberOfSteps())

	ground, ok := m.RouteByCost(start, goal, nil, []*core.Unit{infantry, fighter}, "Germans")
	require.True(t, ok)
	assert.Equal(t, 3, ground.NumberOfSteps())
}
