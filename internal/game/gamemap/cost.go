package gamemap

import "github.com/mitchelldurbincs/wargame/internal/game/core"

// CostModel prices one step between adjacent territories. Costs are charged
// for entering the destination and must be non-negative.
type CostModel interface {
	Cost(from, to *core.Territory) int
}

// CostFunc adapts a function to CostModel.
type CostFunc func(from, to *core.Territory) int

func (f CostFunc) Cost(from, to *core.Territory) int { return f(from, to) }

// HopCost charges 1 per step.
var HopCost CostModel = CostFunc(func(_, _ *core.Territory) int { return 1 })

// TerritoryCost charges the destination's movement cost.
var TerritoryCost CostModel = CostFunc(func(_, to *core.Territory) int { return to.MovementCost() })

// UnitsCost prices a step for a group moving together. Air units ignore
// terrain, so a group made only of air units pays one per step; anything
// else pays the destination's movement cost.
func UnitsCost(units []*core.Unit) CostModel {
	allAir := len(units) > 0
	for _, u := range units {
		if !u.Type().IsAir {
			allAir = false
			break
		}
	}
	if allAir {
		return HopCost
	}
	return TerritoryCost
}
