package core

import (
	"github.com/google/uuid"
)

// NeutralOwner is the owner name of unowned territories.
const NeutralOwner = ""

// TerritoryListener is notified after a territory mutator runs.
type TerritoryListener func(t *Territory)

// Territory is a node of the map graph.
//
// The setters exist for Change implementations. Anything else must go through
// GameData.PerformChange so that the mutation is locked, logged and
// propagated.
type Territory struct {
	Attachments

	name         string
	water        bool
	owner        string
	movementCost int
	units        unitSet
	listeners    []TerritoryListener
}

// NewTerritory creates a land or water territory.
func NewTerritory(name string, water bool) *Territory {
	return &Territory{name: name, water: water, movementCost: 1}
}

func (t *Territory) Name() string    { return t.name }
func (t *Territory) IsWater() bool   { return t.water }
func (t *Territory) Owner() string   { return t.owner }
func (t *Territory) IsNeutral() bool { return t.owner == NeutralOwner }

// MovementCost is the cost of entering this territory, at least 1.
func (t *Territory) MovementCost() int { return t.movementCost }

// SetMovementCost is used by map loaders for territory effects.
func (t *Territory) SetMovementCost(cost int) {
	if cost < 1 {
		cost = 1
	}
	t.movementCost = cost
}

// SetOwner changes the owner. Change-only.
func (t *Territory) SetOwner(owner string) {
	t.owner = owner
	t.notify()
}

func (t *Territory) HolderRef() HolderRef {
	return HolderRef{Kind: HolderTerritory, Name: t.name}
}

func (t *Territory) UnitIDs() []uuid.UUID      { return t.units.list() }
func (t *Territory) HasUnit(id uuid.UUID) bool { return t.units.has(id) }
func (t *Territory) UnitCount() int            { return len(t.units.ids) }

// AddUnitIDs places units in the territory. Change-only.
func (t *Territory) AddUnitIDs(ids ...uuid.UUID) error {
	if err := t.units.add(ids...); err != nil {
		return err
	}
	t.notify()
	return nil
}

// RemoveUnitIDs takes units out of the territory. Change-only.
func (t *Territory) RemoveUnitIDs(ids ...uuid.UUID) error {
	if err := t.units.remove(ids...); err != nil {
		return err
	}
	t.notify()
	return nil
}

// AddListener registers an entity-level change observer.
func (t *Territory) AddListener(l TerritoryListener) {
	t.listeners = append(t.listeners, l)
}

func (t *Territory) notify() {
	for _, l := range t.listeners {
		l(t)
	}
}

func (t *Territory) String() string { return t.name }
