package state

import (
	"fmt"
	"sort"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
	"github.com/mitchelldurbincs/wargame/internal/game/gamemap"
)

// MoveUnits builds the change that moves units along route: the units and
// whatever they carry change territory, and each moving unit is charged the
// route's movement cost. The route must be valid on d's map, every unit must
// start in the route's first territory and, if the map enforces canals, every
// step must be passable for the group.
func MoveUnits(d *GameData, route *gamemap.Route, units []*core.Unit) (*CompositeChange, error) {
	if !d.gameMap.IsValidRoute(route) {
		return nil, fmt.Errorf("move along %s: %w", route, ErrInvalidRoute)
	}
	start, end := route.Start(), route.End()
	if !route.HasSteps() || len(units) == 0 {
		return NewCompositeChange(), nil
	}

	moving := make([]*core.Unit, 0, len(units))
	seen := make(map[*core.Unit]bool, len(units))
	for _, u := range units {
		if !start.HasUnit(u.ID()) {
			return nil, fmt.Errorf("move %s from %s: %w", u.ID(), start.Name(), core.ErrUnitNotInHolder)
		}
		if !seen[u] {
			seen[u] = true
			moving = append(moving, u)
		}
	}

	if v := d.gameMap.MoveValidator(); v != nil {
		player := units[0].Owner()
		all := route.AllTerritories()
		for i := 1; i < len(all); i++ {
			if !v.CanCross(all[i-1], all[i], units, player) {
				return nil, fmt.Errorf("move %s -> %s blocked: %w", all[i-1].Name(), all[i].Name(), ErrInvalidRoute)
			}
		}
	}

	var passengers []*core.Unit
	for _, u := range moving {
		for _, cargo := range d.units.Cargo(u.ID()) {
			if !seen[cargo] && start.HasUnit(cargo.ID()) {
				seen[cargo] = true
				passengers = append(passengers, cargo)
			}
		}
	}

	change := NewCompositeChange(TransferUnits(start, end, append(append([]*core.Unit(nil), moving...), passengers...)))
	for _, u := range moving {
		cost := route.MovementCost(gamemap.UnitsCost([]*core.Unit{u}))
		change.Add(UnitProperty(u, core.PropertyAlreadyMoved, u.AlreadyMoved()+cost))
	}
	return change, nil
}

// Purchase builds the change for player buying quantity of a production
// rule: costs are paid and the results land with the player, unit results as
// unplaced units in the player's own holder.
func Purchase(d *GameData, player *core.Player, rule string, quantity int) (*CompositeChange, error) {
	r, ok := d.productionRules.Get(rule)
	if !ok {
		return nil, fmt.Errorf("purchase %q: %w", rule, ErrUnknownName)
	}
	if !d.productionFrontiers.Allows(player.Name(), rule) {
		return nil, fmt.Errorf("purchase %q by %q: %w", rule, player.Name(), ErrNotInFrontier)
	}
	if quantity <= 0 {
		return NewCompositeChange(), nil
	}

	costs := r.Costs()
	total := make(map[string]int, len(costs))
	for res, qty := range costs {
		total[res] = qty * quantity
	}
	if !player.Resources().Has(total) {
		return nil, fmt.Errorf("purchase %d x %q by %q: %w", quantity, rule, player.Name(), core.ErrInsufficientResources)
	}

	change := NewCompositeChange()
	for _, res := range sortedKeys(total) {
		change.Add(ChangeResources(player, res, -total[res]))
	}
	for _, result := range r.Results() {
		n := result.Quantity * quantity
		switch result.Kind {
		case core.ResultUnitType:
			ut, ok := d.unitTypes.Get(result.Name)
			if !ok {
				return nil, fmt.Errorf("purchase %q result %q: %w", rule, result.Name, core.ErrUnknownUnitType)
			}
			units := make([]*core.Unit, n)
			for i := range units {
				units[i] = core.NewUnit(ut, player.Name())
			}
			change.Add(AddUnits(player, units))
		case core.ResultResource:
			change.Add(ChangeResources(player, result.Name, n))
		}
	}
	return change, nil
}

// Conquer builds the change for player taking t: ownership moves and every
// enemy unit left in t is removed.
func Conquer(d *GameData, t *core.Territory, player *core.Player) *CompositeChange {
	var enemies []*core.Unit
	for _, u := range d.UnitsOf(t) {
		if u.Owner() != player.Name() && !d.relationships.IsAllied(u.Owner(), player.Name()) {
			enemies = append(enemies, u)
		}
	}
	change := NewCompositeChange()
	if len(enemies) > 0 {
		change.Add(RemoveUnits(t, enemies))
	}
	change.Add(ChangeOwner(t, player.Name()))
	return change
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
