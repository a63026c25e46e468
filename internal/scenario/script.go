package scenario

import (
	"context"
	"fmt"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
	"github.com/mitchelldurbincs/wargame/internal/game/gamemap"
	"github.com/mitchelldurbincs/wargame/internal/game/state"
)

// Move is one scripted action. Build reads the current game state and
// returns the change to perform.
type Move struct {
	Name  string
	Build func(d *state.GameData) (state.Change, error)
}

// Play builds and performs the move under the write lock, so the state it
// reads cannot shift before the change lands.
func (m Move) Play(ctx context.Context, d *state.GameData) error {
	wctx, release := d.AcquireWriteLock(ctx)
	defer release()

	c, err := m.Build(d)
	if err != nil {
		return fmt.Errorf("%s: %w", m.Name, err)
	}
	if err := d.PerformChange(wctx, c); err != nil {
		return fmt.Errorf("%s: %w", m.Name, err)
	}
	return nil
}

// Opening is the German first turn: buy armour, drive into the Baltic
// States, take it, then hand over to the Finns. Routes are priced with cost;
// nil prices each group by its own units.
func Opening(cost gamemap.CostModel) []Move {
	return []Move{
		{Name: "german purchase", Build: purchase(Germans, BuyArmour, 2)},
		{Name: "advance to combat move", Build: advance},
		{Name: "armour to Baltic States", Build: moveByCost(Germans, "armour", "East Prussia", "Baltic States", cost)},
		{Name: "fighter to Gulf of Finland", Build: moveByCost(Germans, "fighter", "Germany", "Gulf of Finland", cost)},
		{Name: "conquer Baltic States", Build: conquer(Germans, "Baltic States")},
		{Name: "advance to place", Build: advance},
		{Name: "advance to finnish purchase", Build: advance},
		{Name: "finnish purchase", Build: purchase(Finns, BuyInfantry, 4)},
	}
}

func player(d *state.GameData, name string) (*core.Player, error) {
	p, ok := d.Players().Get(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, core.ErrUnknownPlayer)
	}
	return p, nil
}

func territory(d *state.GameData, name string) (*core.Territory, error) {
	t, ok := d.Map().Territory(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, core.ErrUnknownTerritory)
	}
	return t, nil
}

func purchase(playerName, rule string, quantity int) func(*state.GameData) (state.Change, error) {
	return func(d *state.GameData) (state.Change, error) {
		p, err := player(d, playerName)
		if err != nil {
			return nil, err
		}
		return state.Purchase(d, p, rule, quantity)
	}
}

func advance(d *state.GameData) (state.Change, error) {
	return state.AdvanceStep(d.Sequence()), nil
}

// moveByCost moves every unit of unitType that owner has in from along the
// cheapest route to to.
func moveByCost(owner, unitType, from, to string, cost gamemap.CostModel) func(*state.GameData) (state.Change, error) {
	return func(d *state.GameData) (state.Change, error) {
		start, err := territory(d, from)
		if err != nil {
			return nil, err
		}
		end, err := territory(d, to)
		if err != nil {
			return nil, err
		}
		var units []*core.Unit
		for _, u := range d.UnitsOf(start) {
			if u.Owner() == owner && u.Type().TypeName == unitType {
				units = append(units, u)
			}
		}
		if len(units) == 0 {
			return nil, fmt.Errorf("no %s %s in %s: %w", owner, unitType, from, core.ErrUnitNotInHolder)
		}

		match := core.TerritoryMatch(core.IsLand)
		if units[0].Type().IsAir {
			match = core.AnyTerritory
		} else if units[0].Type().IsSea {
			match = core.IsWater
		}
		pricing := cost
		if pricing == nil {
			pricing = gamemap.UnitsCost(units)
		}
		rf := gamemap.NewRouteFinder(d.Map(), core.Any(match, core.NameIs(to)),
			gamemap.WithUnits(units, owner),
			gamemap.WithCost(pricing))
		route, ok := rf.FindRouteByCost(start, end)
		if !ok {
			return nil, fmt.Errorf("%s to %s: %w", from, to, state.ErrInvalidRoute)
		}
		return state.MoveUnits(d, route, units)
	}
}

func conquer(playerName, territoryName string) func(*state.GameData) (state.Change, error) {
	return func(d *state.GameData) (state.Change, error) {
		p, err := player(d, playerName)
		if err != nil {
			return nil, err
		}
		t, err := territory(d, territoryName)
		if err != nil {
			return nil, err
		}
		return state.Conquer(d, t, p), nil
	}
}
