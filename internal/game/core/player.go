package core

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Resource is a named currency (PUs, techTokens, ...).
type Resource struct {
	Attachments
	ResourceName string
}

func (r *Resource) Name() string { return r.ResourceName }

// ResourceCollection holds per-resource quantities.
type ResourceCollection struct {
	amounts map[string]int
}

// Quantity returns the amount held of resource.
func (rc *ResourceCollection) Quantity(resource string) int {
	return rc.amounts[resource]
}

// Add applies a delta. A result below zero is rejected and nothing changes.
func (rc *ResourceCollection) Add(resource string, delta int) error {
	if rc.amounts == nil {
		rc.amounts = make(map[string]int)
	}
	next := rc.amounts[resource] + delta
	if next < 0 {
		return fmt.Errorf("%s: have %d, need %d: %w", resource, rc.amounts[resource], -delta, ErrInsufficientResources)
	}
	if next == 0 {
		delete(rc.amounts, resource)
		return nil
	}
	rc.amounts[resource] = next
	return nil
}

// Has reports whether every cost is covered.
func (rc *ResourceCollection) Has(costs map[string]int) bool {
	for res, qty := range costs {
		if rc.amounts[res] < qty {
			return false
		}
	}
	return true
}

// Names returns held resource names in sorted order.
func (rc *ResourceCollection) Names() []string {
	names := make([]string, 0, len(rc.amounts))
	for n := range rc.amounts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Player is a participant. Unplaced units (just purchased, awaiting
// placement) live in the player's own unit holder.
type Player struct {
	Attachments

	name      string
	optional  bool
	resources ResourceCollection
	units     unitSet
}

// NewPlayer creates a player.
func NewPlayer(name string, optional bool) *Player {
	return &Player{name: name, optional: optional}
}

func (p *Player) Name() string     { return p.name }
func (p *Player) IsOptional() bool { return p.optional }

// Resources exposes the player's resource collection. Mutate via changes only.
func (p *Player) Resources() *ResourceCollection { return &p.resources }

func (p *Player) HolderRef() HolderRef {
	return HolderRef{Kind: HolderPlayer, Name: p.name}
}

func (p *Player) UnitIDs() []uuid.UUID      { return p.units.list() }
func (p *Player) HasUnit(id uuid.UUID) bool { return p.units.has(id) }
func (p *Player) UnitCount() int            { return len(p.units.ids) }

func (p *Player) AddUnitIDs(ids ...uuid.UUID) error    { return p.units.add(ids...) }
func (p *Player) RemoveUnitIDs(ids ...uuid.UUID) error { return p.units.remove(ids...) }
