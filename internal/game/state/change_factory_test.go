package state_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
	"github.com/mitchelldurbincs/wargame/internal/game/gamemap"
	"github.com/mitchelldurbincs/wargame/internal/game/state"
	"github.com/mitchelldurbincs/wargame/internal/testutil"
)

func TestMoveUnits_ValidRoute_MovesAndChargesMovement(t *testing.T) {
	w := testutil.NewWorld(t)
	d := w.Data
	w.Poland.SetMovementCost(2)
	armour := w.UnitsOfType(w.Germany, w.Armour)
	fighter := w.UnitsOfType(w.Germany, w.Fighter)

	move, err := state.MoveUnits(d, gamemap.MustRoute(w.Germany, w.Poland), append(armour, fighter...))
	require.NoError(t, err)
	require.NoError(t, d.PerformChange(context.Background(), move))

	assert.True(t, w.Poland.HasUnit(armour[0].ID()))
	assert.True(t, w.Poland.HasUnit(fighter[0].ID()))
	assert.False(t, w.Germany.HasUnit(armour[0].ID()))
	assert.Equal(t, 2, armour[0].AlreadyMoved(), "land units pay the territory's cost")
	assert.Equal(t, 1, fighter[0].AlreadyMoved(), "air units pay one per step")
}

func TestMoveUnits_CarriesCargo(t *testing.T) {
	w := testutil.NewWorld(t)
	d := w.Data
	ctx := context.Background()
	transport := w.UnitsIn(w.Baltic)[0]
	inf := w.UnitsOfType(w.Germany, w.Infantry)[0]

	require.NoError(t, d.PerformChange(ctx, state.NewCompositeChange(
		state.TransferUnits(w.Germany, w.Baltic, []*core.Unit{inf}),
		state.TransportUnit(inf, transport),
	)))

	move, err := state.MoveUnits(d, gamemap.MustRoute(w.Baltic, w.NorthSea), []*core.Unit{transport})
	require.NoError(t, err)
	require.NoError(t, d.PerformChange(ctx, move))

	assert.True(t, w.NorthSea.HasUnit(transport.ID()))
	assert.True(t, w.NorthSea.HasUnit(inf.ID()), "cargo travels with its transport")
	assert.Equal(t, 0, w.Baltic.UnitCount())
	assert.Equal(t, 1, transport.AlreadyMoved())
	assert.Equal(t, 0, inf.AlreadyMoved(), "cargo is not charged")
}

func TestMoveUnits_Errors(t *testing.T) {
	w := testutil.NewWorld(t)
	d := w.Data
	germanInf := w.UnitsOfType(w.Germany, w.Infantry)
	russianInf := w.UnitsIn(w.Russia)

	tests := []struct {
		name  string
		route *gamemap.Route
		units []*core.Unit
		want  error
	}{
		{"not adjacent", gamemap.MustRoute(w.Germany, w.Russia), germanInf, state.ErrInvalidRoute},
		{"nil route", nil, germanInf, state.ErrInvalidRoute},
		{"unit elsewhere", gamemap.MustRoute(w.Germany, w.Poland), russianInf, core.ErrUnitNotInHolder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := state.MoveUnits(d, tt.route, tt.units)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMoveUnits_ZeroStepRoute_IsEmpty(t *testing.T) {
	w := testutil.NewWorld(t)
	move, err := state.MoveUnits(w.Data, gamemap.MustRoute(w.Germany), w.UnitsIn(w.Germany))
	require.NoError(t, err)
	assert.True(t, move.IsEmpty())
}

func TestPurchase_PaysCostsAndAddsUnplacedUnits(t *testing.T) {
	w := testutil.NewWorld(t)
	d := w.Data

	buy, err := state.Purchase(d, w.Germans, testutil.BuyArmour, 3)
	require.NoError(t, err)
	require.NoError(t, d.PerformChange(context.Background(), buy))

	assert.Equal(t, 15, w.Germans.Resources().Quantity(testutil.PUs))
	bought := w.UnitsOfType(w.Germans, w.Armour)
	require.Len(t, bought, 3)
	for _, u := range bought {
		assert.Equal(t, w.Germans.Name(), u.Owner())
	}

	tokens, err := state.Purchase(d, w.Germans, testutil.BuyTokens, 2)
	require.NoError(t, err)
	require.NoError(t, d.PerformChange(context.Background(), tokens))
	assert.Equal(t, 5, w.Germans.Resources().Quantity(testutil.PUs))
	assert.Equal(t, 2, w.Germans.Resources().Quantity("techTokens"))
}

func TestPurchase_Errors(t *testing.T) {
	w := testutil.NewWorld(t)
	d := w.Data

	_, err := state.Purchase(d, w.Germans, testutil.BuyInfantry, 11)
	assert.ErrorIs(t, err, core.ErrInsufficientResources)

	_, err = state.Purchase(d, w.Italians, testutil.BuyInfantry, 1)
	assert.ErrorIs(t, err, state.ErrNotInFrontier)

	_, err = state.Purchase(d, w.Germans, "buyBattleship", 1)
	assert.ErrorIs(t, err, state.ErrUnknownName)

	empty, err := state.Purchase(d, w.Germans, testutil.BuyInfantry, 0)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestConquer_RemovesEnemiesKeepsAllies(t *testing.T) {
	w := testutil.NewWorld(t)
	d := w.Data
	ctx := context.Background()
	italian := core.NewUnit(w.Infantry, w.Italians.Name())
	require.NoError(t, d.PerformChange(ctx, state.AddUnits(w.Russia, []*core.Unit{italian})))

	c := state.Conquer(d, w.Russia, w.Germans)
	require.NoError(t, d.PerformChange(ctx, c))

	assert.Equal(t, w.Germans.Name(), w.Russia.Owner())
	assert.Equal(t, 1, w.Russia.UnitCount())
	assert.True(t, w.Russia.HasUnit(italian.ID()))
	_, stillThere := d.Units().Get(testutil.StartingUnitID(5))
	assert.False(t, stillThere)
}

func TestAddUnits_SameUnitTwice_Fails(t *testing.T) {
	w := testutil.NewWorld(t, state.WithLogger(testutil.NopLogger()))
	d := w.Data
	before := w.Poland.UnitCount()
	u := core.NewUnit(w.Infantry, w.Germans.Name())

	err := d.PerformChange(context.Background(), state.AddUnits(w.Poland, []*core.Unit{u, u}))

	require.ErrorIs(t, err, core.ErrDuplicateUnit)
	assert.Equal(t, before, w.Poland.UnitCount())
	assert.False(t, w.Poland.HasUnit(u.ID()))
	_, inArena := d.Units().Get(u.ID())
	assert.False(t, inArena)
	assert.Zero(t, d.History().Len())
}
