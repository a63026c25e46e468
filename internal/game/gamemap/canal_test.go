package gamemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
)

type staticAlliances map[[2]string]bool

func (s staticAlliances) IsAllied(p1, p2 string) bool {
	return s[[2]string{p1, p2}] || s[[2]string{p2, p1}]
}

// Med and Red are joined directly through the Suez canal (controlled by
// Egypt) and the long way round through Atlantic and Indian.
func canalMap(t *testing.T) (*GameMap, *CanalValidator) {
	t.Helper()
	m := New()
	for _, n := range []string{"Med", "Red", "Atlantic", "Indian"} {
		require.NoError(t, m.AddTerritory(core.NewTerritory(n, true)))
	}
	egypt := core.NewTerritory("Egypt", false)
	require.NoError(t, m.AddTerritory(egypt))
	for _, e := range [][2]string{{"Med", "Red"}, {"Med", "Atlantic"}, {"Atlantic", "Indian"}, {"Indian", "Red"}, {"Egypt", "Med"}, {"Egypt", "Red"}} {
		require.NoError(t, m.AddConnection(m.MustTerritory(e[0]), m.MustTerritory(e[1])))
	}
	v := NewCanalValidator(m, staticAlliances{{"British", "Americans"}: true}, Canal{
		Name:              "Suez",
		Between:           [2]string{"Med", "Red"},
		LandTerritories:   []string{"Egypt"},
		ExcludedUnitTypes: []string{"fighter"},
	})
	m.SetMoveValidator(v)
	return m, v
}

func TestCanalValidator_CanCross(t *testing.T) {
	m, v := canalMap(t)
	med, red, atlantic := m.MustTerritory("Med"), m.MustTerritory("Red"), m.MustTerritory("Atlantic")
	egypt := m.MustTerritory("Egypt")
	ship := []*core.Unit{core.NewUnit(&core.UnitType{TypeName: "destroyer", IsSea: true, Movement: 2}, "British")}
	plane := []*core.Unit{core.NewUnit(&core.UnitType{TypeName: "fighter", IsAir: true, Movement: 4}, "Germans")}

	egypt.SetOwner("British")
	assert.True(t, v.CanCross(med, red, ship, "British"), "owner passes")
	assert.True(t, v.CanCross(red, med, ship, "Americans"), "ally passes in either direction")
	assert.False(t, v.CanCross(med, red, ship, "Germans"), "enemy is blocked")
	assert.True(t, v.CanCross(med, red, plane, "Germans"), "excluded unit types ignore the canal")
	assert.True(t, v.CanCross(med, atlantic, ship, "Germans"), "other edges are unaffected")

	egypt.SetOwner(core.NeutralOwner)
	assert.False(t, v.CanCross(med, red, ship, "British"), "neutral control closes the canal")
}

func TestRouteForUnits_DetoursAroundClosedCanal(t *testing.T) {
	m, _ := canalMap(t)
	m.MustTerritory("Egypt").SetOwner("British")
	med, red := m.MustTerritory("Med"), m.MustTerritory("Red")
	ship := []*core.Unit{core.NewUnit(&core.UnitType{TypeName: "destroyer", IsSea: true, Movement: 2}, "Germans")}

	plain, ok := m.Route(med, red, core.IsWater)
	require.True(t, ok)
	assert.Equal(t, 1, plain.NumberOfSteps(), "plain distance queries ignore canals")

	detour, ok := m.RouteForUnits(med, red, core.IsWater, ship, "Germans")
	require.True(t, ok)
	assert.Equal(t, "Med -> Atlantic -> Indian -> Red", detour.String())

	neighbors, err := m.NeighborsValidatingCanals(med, core.IsWater, ship, "Germans")
	require.NoError(t, err)
	assert.Equal(t, []string{"Atlantic"}, names(neighbors))
}
