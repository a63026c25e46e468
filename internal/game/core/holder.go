package core

import (
	"fmt"

	"github.com/google/uuid"
)

// HolderKind identifies what kind of entity holds a set of units.
type HolderKind string

const (
	HolderTerritory HolderKind = "territory"
	HolderPlayer    HolderKind = "player"
)

// HolderRef is a stable, serializable reference to a UnitHolder.
type HolderRef struct {
	Kind HolderKind `json:"kind"`
	Name string     `json:"name"`
}

func (r HolderRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.Name)
}

// UnitHolder is anything that owns an ordered collection of unit IDs.
type UnitHolder interface {
	Named
	HolderRef() HolderRef
	UnitIDs() []uuid.UUID
	HasUnit(id uuid.UUID) bool
	UnitCount() int
	AddUnitIDs(ids ...uuid.UUID) error
	RemoveUnitIDs(ids ...uuid.UUID) error
}

// unitSet keeps insertion order so iteration is deterministic across peers.
type unitSet struct {
	ids   []uuid.UUID
	index map[uuid.UUID]struct{}
}

func (s *unitSet) has(id uuid.UUID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *unitSet) list() []uuid.UUID {
	return append([]uuid.UUID(nil), s.ids...)
}

func (s *unitSet) add(ids ...uuid.UUID) error {
	if s.index == nil {
		s.index = make(map[uuid.UUID]struct{})
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || s.has(id) {
			return fmt.Errorf("add unit %s: %w", id, ErrDuplicateUnit)
		}
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return nil
}

func (s *unitSet) remove(ids ...uuid.UUID) error {
	drop := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if !s.has(id) {
			return fmt.Errorf("remove unit %s: %w", id, ErrUnitNotInHolder)
		}
		if _, dup := drop[id]; dup {
			return fmt.Errorf("remove unit %s: %w", id, ErrDuplicateUnit)
		}
		drop[id] = struct{}{}
	}
	for id := range drop {
		delete(s.index, id)
	}
	kept := s.ids[:0]
	for _, id := range s.ids {
		if _, gone := drop[id]; !gone {
			kept = append(kept, id)
		}
	}
	s.ids = kept
	return nil
}
