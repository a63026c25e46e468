package gamemap

import (
	"github.com/mitchelldurbincs/wargame/internal/game/core"
)

// MoveValidator decides whether a specific group of units may cross a
// directed edge.
type MoveValidator interface {
	CanCross(from, to *core.Territory, units []*core.Unit, player string) bool
}

// Alliances answers whether two players count as allied for passage.
type Alliances interface {
	IsAllied(p1, p2 string) bool
}

// Canal restricts the edge between two territories. Passage requires the
// moving player, or an ally, to own every controlling land territory.
type Canal struct {
	Name            string
	Between         [2]string
	LandTerritories []string
	// ExcludedUnitTypes ignore the canal entirely (aircraft, typically).
	ExcludedUnitTypes []string
}

func (c Canal) connects(a, b string) bool {
	return (c.Between[0] == a && c.Between[1] == b) || (c.Between[0] == b && c.Between[1] == a)
}

func (c Canal) excludes(units []*core.Unit) bool {
	if len(units) == 0 || len(c.ExcludedUnitTypes) == 0 {
		return false
	}
	excluded := make(map[string]struct{}, len(c.ExcludedUnitTypes))
	for _, n := range c.ExcludedUnitTypes {
		excluded[n] = struct{}{}
	}
	for _, u := range units {
		if _, ok := excluded[u.Type().Name()]; !ok {
			return false
		}
	}
	return true
}

// CanalValidator checks canals against live territory ownership.
type CanalValidator struct {
	m         *GameMap
	alliances Alliances
	canals    []Canal
}

// NewCanalValidator creates a validator over m. alliances may be nil, in
// which case only the player's own territories open a canal.
func NewCanalValidator(m *GameMap, alliances Alliances, canals ...Canal) *CanalValidator {
	return &CanalValidator{m: m, alliances: alliances, canals: append([]Canal(nil), canals...)}
}

// AddCanal registers another canal.
func (v *CanalValidator) AddCanal(c Canal) { v.canals = append(v.canals, c) }

// Canals returns the registered canals.
func (v *CanalValidator) Canals() []Canal { return append([]Canal(nil), v.canals...) }

// CanCross implements MoveValidator.
func (v *CanalValidator) CanCross(from, to *core.Territory, units []*core.Unit, player string) bool {
	for _, c := range v.canals {
		if !c.connects(from.Name(), to.Name()) {
			continue
		}
		if c.excludes(units) {
			continue
		}
		if !v.controls(player, c) {
			return false
		}
	}
	return true
}

func (v *CanalValidator) controls(player string, c Canal) bool {
	for _, name := range c.LandTerritories {
		t, ok := v.m.Territory(name)
		if !ok {
			return false
		}
		owner := t.Owner()
		if owner == player {
			continue
		}
		if owner == core.NeutralOwner || v.alliances == nil || !v.alliances.IsAllied(player, owner) {
			return false
		}
	}
	return true
}
