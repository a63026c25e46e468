package core

import (
	"fmt"

	"github.com/google/uuid"
)

// Unit property names understood by Unit.Property / Unit.SetProperty.
const (
	PropertyHits          = "hits"
	PropertyAlreadyMoved  = "alreadyMoved"
	PropertyBombingDamage = "bombingDamage"
	PropertyWasInCombat   = "wasInCombat"
)

// Unit is a single piece on the board. Units are owned by the GameData arena
// and referenced everywhere else by ID.
type Unit struct {
	id            uuid.UUID
	unitType      *UnitType
	owner         string
	hits          int
	alreadyMoved  int
	bombingDamage int
	wasInCombat   int
	transportedBy uuid.UUID
}

// NewUnit creates a unit with a fresh ID.
func NewUnit(ut *UnitType, owner string) *Unit {
	return NewUnitWithID(uuid.New(), ut, owner)
}

// NewUnitWithID creates a unit with a known ID, used when decoding changes.
func NewUnitWithID(id uuid.UUID, ut *UnitType, owner string) *Unit {
	return &Unit{id: id, unitType: ut, owner: owner}
}

func (u *Unit) ID() uuid.UUID            { return u.id }
func (u *Unit) Type() *UnitType          { return u.unitType }
func (u *Unit) Owner() string            { return u.owner }
func (u *Unit) Hits() int                { return u.hits }
func (u *Unit) AlreadyMoved() int        { return u.alreadyMoved }
func (u *Unit) BombingDamage() int       { return u.bombingDamage }
func (u *Unit) TransportedBy() uuid.UUID { return u.transportedBy }

// IsTransported reports whether the unit currently rides another unit.
func (u *Unit) IsTransported() bool { return u.transportedBy != uuid.Nil }

// MovementLeft is the type's movement minus what was already used this turn.
func (u *Unit) MovementLeft() int {
	left := u.unitType.Movement - u.alreadyMoved
	if left < 0 {
		return 0
	}
	return left
}

// Property reads an integer property by name.
func (u *Unit) Property(name string) (int, error) {
	switch name {
	case PropertyHits:
		return u.hits, nil
	case PropertyAlreadyMoved:
		return u.alreadyMoved, nil
	case PropertyBombingDamage:
		return u.bombingDamage, nil
	case PropertyWasInCombat:
		return u.wasInCombat, nil
	default:
		return 0, fmt.Errorf("unit property %q: %w", name, ErrUnknownAttachment)
	}
}

// SetProperty writes an integer property by name. Change-only.
func (u *Unit) SetProperty(name string, value int) error {
	switch name {
	case PropertyHits:
		u.hits = value
	case PropertyAlreadyMoved:
		u.alreadyMoved = value
	case PropertyBombingDamage:
		u.bombingDamage = value
	case PropertyWasInCombat:
		u.wasInCombat = value
	default:
		return fmt.Errorf("unit property %q: %w", name, ErrUnknownAttachment)
	}
	return nil
}

// SetTransportedBy loads the unit onto a transport, or unloads it with uuid.Nil.
// Change-only.
func (u *Unit) SetTransportedBy(transport uuid.UUID) { u.transportedBy = transport }

// Snapshot captures everything needed to recreate the unit elsewhere.
func (u *Unit) Snapshot() UnitSnapshot {
	return UnitSnapshot{
		ID:            u.id,
		Type:          u.unitType.Name(),
		Owner:         u.owner,
		Hits:          u.hits,
		AlreadyMoved:  u.alreadyMoved,
		BombingDamage: u.bombingDamage,
		WasInCombat:   u.wasInCombat,
		TransportedBy: u.transportedBy,
	}
}

func (u *Unit) String() string {
	return fmt.Sprintf("%s(%s) owned by %s", u.unitType.Name(), u.id, u.owner)
}

// UnitSnapshot is the wire form of a unit. Type is resolved by name on the
// receiving side.
type UnitSnapshot struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Owner         string    `json:"owner"`
	Hits          int       `json:"hits,omitempty"`
	AlreadyMoved  int       `json:"already_moved,omitempty"`
	BombingDamage int       `json:"bombing_damage,omitempty"`
	WasInCombat   int       `json:"was_in_combat,omitempty"`
	TransportedBy uuid.UUID `json:"transported_by"`
}

// Restore rebuilds a unit from a snapshot using the given type lookup.
func (s UnitSnapshot) Restore(lookup func(name string) (*UnitType, bool)) (*Unit, error) {
	ut, ok := lookup(s.Type)
	if !ok {
		return nil, fmt.Errorf("restore unit %s: %q: %w", s.ID, s.Type, ErrUnknownUnitType)
	}
	return &Unit{
		id:            s.ID,
		unitType:      ut,
		owner:         s.Owner,
		hits:          s.Hits,
		alreadyMoved:  s.AlreadyMoved,
		bombingDamage: s.BombingDamage,
		wasInCombat:   s.WasInCombat,
		transportedBy: s.TransportedBy,
	}, nil
}
