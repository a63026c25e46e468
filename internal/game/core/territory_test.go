package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTerritory_Defaults(t *testing.T) {
	terr := NewTerritory("Karelia", false)

	assert.Equal(t, "Karelia", terr.Name())
	assert.False(t, terr.IsWater())
	assert.True(t, terr.IsNeutral())
	assert.Equal(t, 1, terr.MovementCost())
	assert.Equal(t, HolderRef{Kind: HolderTerritory, Name: "Karelia"}, terr.HolderRef())
	assert.Equal(t, "territory:Karelia", terr.HolderRef().String())
}

func TestTerritory_SetMovementCostClampsToOne(t *testing.T) {
	terr := NewTerritory("Alps", false)
	terr.SetMovementCost(3)
	assert.Equal(t, 3, terr.MovementCost())
	terr.SetMovementCost(0)
	assert.Equal(t, 1, terr.MovementCost())
}

func TestTerritory_UnitIDsKeepInsertionOrder(t *testing.T) {
	terr := NewTerritory("Karelia", false)
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, terr.AddUnitIDs(a, b, c))
	assert.Equal(t, []uuid.UUID{a, b, c}, terr.UnitIDs())

	require.NoError(t, terr.RemoveUnitIDs(b))
	assert.Equal(t, []uuid.UUID{a, c}, terr.UnitIDs())
	assert.False(t, terr.HasUnit(b))
	assert.Equal(t, 2, terr.UnitCount())
}

func TestTerritory_UnitIDErrorsLeaveHolderUnchanged(t *testing.T) {
	terr := NewTerritory("Karelia", false)
	a, b := uuid.New(), uuid.New()
	require.NoError(t, terr.AddUnitIDs(a))

	err := terr.AddUnitIDs(b, a)
	assert.ErrorIs(t, err, ErrDuplicateUnit)
	assert.Equal(t, []uuid.UUID{a}, terr.UnitIDs())

	err = terr.RemoveUnitIDs(a, b)
	assert.ErrorIs(t, err, ErrUnitNotInHolder)
	assert.Equal(t, []uuid.UUID{a}, terr.UnitIDs())
}

func TestTerritory_RepeatedIDsInOneCallAreRejected(t *testing.T) {
	terr := NewTerritory("Karelia", false)
	a, b := uuid.New(), uuid.New()

	err := terr.AddUnitIDs(a, b, a)
	assert.ErrorIs(t, err, ErrDuplicateUnit)
	assert.Empty(t, terr.UnitIDs())
	assert.False(t, terr.HasUnit(a))

	require.NoError(t, terr.AddUnitIDs(a, b))
	err = terr.RemoveUnitIDs(b, b)
	assert.ErrorIs(t, err, ErrDuplicateUnit)
	assert.Equal(t, []uuid.UUID{a, b}, terr.UnitIDs())
	assert.Equal(t, 2, terr.UnitCount())
}

func TestTerritory_ListenersFireOnMutation(t *testing.T) {
	terr := NewTerritory("Karelia", false)
	calls := 0
	terr.AddListener(func(got *Territory) {
		assert.Same(t, terr, got)
		calls++
	})

	terr.SetOwner("Russians")
	require.NoError(t, terr.AddUnitIDs(uuid.New()))
	_ = terr.RemoveUnitIDs(uuid.New())

	assert.Equal(t, 2, calls, "failed mutations do not notify")
	assert.Equal(t, "Russians", terr.Owner())
}

func TestAttachments(t *testing.T) {
	terr := NewTerritory("Egypt", false)
	terr.AddAttachment(NewAttachment("territoryAttachment", map[string]string{"production": "2"}))
	terr.AddAttachment(NewAttachment("canalAttachment", nil))

	assert.Equal(t, []string{"territoryAttachment", "canalAttachment"}, terr.AttachmentNames())

	a, ok := terr.Attachment("territoryAttachment")
	require.True(t, ok)
	v, ok := a.Property("production")
	require.True(t, ok)
	assert.Equal(t, "2", v)

	a.SetProperty("production", "")
	_, ok = a.Property("production")
	assert.False(t, ok)

	props := a.Properties()
	props["victoryCity"] = "true"
	_, ok = a.Property("victoryCity")
	assert.False(t, ok, "Properties returns a copy")
}
