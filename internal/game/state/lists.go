package state

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
)

// NamedList is an ordered registry of named records. Lists are populated
// while a game is being set up and are read-only afterwards.
type NamedList[T core.Named] struct {
	items []T
	index map[string]T
}

// Add registers item under its name.
func (l *NamedList[T]) Add(item T) error {
	if l.index == nil {
		l.index = make(map[string]T)
	}
	if _, exists := l.index[item.Name()]; exists {
		return fmt.Errorf("%q: %w", item.Name(), ErrDuplicateName)
	}
	l.index[item.Name()] = item
	l.items = append(l.items, item)
	return nil
}

// Get looks an item up by name.
func (l *NamedList[T]) Get(name string) (T, bool) {
	item, ok := l.index[name]
	return item, ok
}

// All returns the items in registration order.
func (l *NamedList[T]) All() []T { return append([]T(nil), l.items...) }

func (l *NamedList[T]) Len() int { return len(l.items) }

// Names returns item names in registration order.
func (l *NamedList[T]) Names() []string {
	names := make([]string, len(l.items))
	for i, item := range l.items {
		names[i] = item.Name()
	}
	return names
}

type (
	PlayerList           = NamedList[*core.Player]
	UnitTypeList         = NamedList[*core.UnitType]
	ResourceList         = NamedList[*core.Resource]
	RelationshipTypeList = NamedList[*core.RelationshipType]
	RuleList             = NamedList[*core.Rule]
)

// UnitsList is the arena that owns every unit in play. Territories and
// players hold unit IDs that resolve here.
type UnitsList struct {
	units map[uuid.UUID]*core.Unit
	order []uuid.UUID
}

func newUnitsList() *UnitsList {
	return &UnitsList{units: make(map[uuid.UUID]*core.Unit)}
}

// Get returns the unit with id.
func (ul *UnitsList) Get(id uuid.UUID) (*core.Unit, bool) {
	u, ok := ul.units[id]
	return u, ok
}

// Resolve maps IDs to units, failing on the first unknown ID.
func (ul *UnitsList) Resolve(ids []uuid.UUID) ([]*core.Unit, error) {
	out := make([]*core.Unit, 0, len(ids))
	for _, id := range ids {
		u, ok := ul.units[id]
		if !ok {
			return nil, fmt.Errorf("unit %s: %w", id, core.ErrUnknownUnit)
		}
		out = append(out, u)
	}
	return out, nil
}

// Units returns every unit in insertion order.
func (ul *UnitsList) Units() []*core.Unit {
	out := make([]*core.Unit, len(ul.order))
	for i, id := range ul.order {
		out[i] = ul.units[id]
	}
	return out
}

func (ul *UnitsList) Len() int { return len(ul.order) }

// Cargo returns the units currently transported by transport.
func (ul *UnitsList) Cargo(transport uuid.UUID) []*core.Unit {
	var cargo []*core.Unit
	for _, id := range ul.order {
		if u := ul.units[id]; u.TransportedBy() == transport {
			cargo = append(cargo, u)
		}
	}
	return cargo
}

func (ul *UnitsList) put(u *core.Unit) {
	ul.units[u.ID()] = u
	ul.order = append(ul.order, u.ID())
}

func (ul *UnitsList) remove(id uuid.UUID) {
	delete(ul.units, id)
	for i, v := range ul.order {
		if v == id {
			ul.order = append(ul.order[:i], ul.order[i+1:]...)
			return
		}
	}
}
