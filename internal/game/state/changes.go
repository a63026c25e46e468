package state

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
)

// ownerChange sets a territory's owner.
type ownerChange struct {
	Territory string `json:"territory"`
	Old       string `json:"old"`
	New       string `json:"new"`
}

// ChangeOwner makes newOwner (core.NeutralOwner for nobody) own t.
func ChangeOwner(t *core.Territory, newOwner string) Change {
	return &ownerChange{Territory: t.Name(), Old: t.Owner(), New: newOwner}
}

func (c *ownerChange) Perform(ctx context.Context, d *GameData) error {
	t, ok := d.gameMap.Territory(c.Territory)
	if !ok {
		return fmt.Errorf("change owner of %q: %w", c.Territory, core.ErrUnknownTerritory)
	}
	if c.New != core.NeutralOwner {
		if _, ok := d.players.Get(c.New); !ok {
			return fmt.Errorf("change owner of %q to %q: %w", c.Territory, c.New, core.ErrUnknownPlayer)
		}
	}
	t.SetOwner(c.New)
	return nil
}

func (c *ownerChange) Invert() Change {
	return &ownerChange{Territory: c.Territory, Old: c.New, New: c.Old}
}

func (c *ownerChange) IsEmpty() bool      { return c.Old == c.New }
func (c *ownerChange) ChangeType() string { return "owner" }

// addUnitsChange creates units in the arena and places them in a holder.
type addUnitsChange struct {
	Holder core.HolderRef      `json:"holder"`
	Units  []core.UnitSnapshot `json:"units"`
}

// AddUnits puts units into holder and the game's unit arena.
func AddUnits(holder core.UnitHolder, units []*core.Unit) Change {
	return &addUnitsChange{Holder: holder.HolderRef(), Units: snapshots(units)}
}

func (c *addUnitsChange) Perform(ctx context.Context, d *GameData) error {
	h, err := d.Holder(c.Holder)
	if err != nil {
		return fmt.Errorf("add units: %w", err)
	}
	restored := make([]*core.Unit, 0, len(c.Units))
	for _, s := range c.Units {
		if _, exists := d.units.Get(s.ID); exists {
			return fmt.Errorf("add unit %s: %w", s.ID, core.ErrDuplicateUnit)
		}
		u, err := s.Restore(d.unitType)
		if err != nil {
			return fmt.Errorf("add units to %s: %w", c.Holder, err)
		}
		restored = append(restored, u)
	}
	if err := h.AddUnitIDs(unitIDs(restored)...); err != nil {
		return fmt.Errorf("add units to %s: %w", c.Holder, err)
	}
	for _, u := range restored {
		d.units.put(u)
	}
	return nil
}

func (c *addUnitsChange) Invert() Change {
	return &removeUnitsChange{Holder: c.Holder, Units: c.Units}
}

func (c *addUnitsChange) IsEmpty() bool      { return len(c.Units) == 0 }
func (c *addUnitsChange) ChangeType() string { return "add_units" }

// removeUnitsChange takes units out of a holder and the arena. The snapshots
// are what the inverse restores.
type removeUnitsChange struct {
	Holder core.HolderRef      `json:"holder"`
	Units  []core.UnitSnapshot `json:"units"`
}

// RemoveUnits takes units out of holder and the game's unit arena.
func RemoveUnits(holder core.UnitHolder, units []*core.Unit) Change {
	return &removeUnitsChange{Holder: holder.HolderRef(), Units: snapshots(units)}
}

func (c *removeUnitsChange) Perform(ctx context.Context, d *GameData) error {
	h, err := d.Holder(c.Holder)
	if err != nil {
		return fmt.Errorf("remove units: %w", err)
	}
	ids := make([]uuid.UUID, len(c.Units))
	for i, s := range c.Units {
		if _, ok := d.units.Get(s.ID); !ok {
			return fmt.Errorf("remove unit %s: %w", s.ID, core.ErrUnknownUnit)
		}
		ids[i] = s.ID
	}
	if err := h.RemoveUnitIDs(ids...); err != nil {
		return fmt.Errorf("remove units from %s: %w", c.Holder, err)
	}
	for _, id := range ids {
		d.units.remove(id)
	}
	return nil
}

func (c *removeUnitsChange) Invert() Change {
	return &addUnitsChange{Holder: c.Holder, Units: c.Units}
}

func (c *removeUnitsChange) IsEmpty() bool      { return len(c.Units) == 0 }
func (c *removeUnitsChange) ChangeType() string { return "remove_units" }

// transferChange moves existing units between holders. The arena is untouched.
type transferChange struct {
	From  core.HolderRef `json:"from"`
	To    core.HolderRef `json:"to"`
	Units []uuid.UUID    `json:"units"`
}

// TransferUnits moves units from one holder to another, e.g. placing
// purchased units from a player into a territory.
func TransferUnits(from, to core.UnitHolder, units []*core.Unit) Change {
	return &transferChange{From: from.HolderRef(), To: to.HolderRef(), Units: unitIDs(units)}
}

func (c *transferChange) Perform(ctx context.Context, d *GameData) error {
	from, err := d.Holder(c.From)
	if err != nil {
		return fmt.Errorf("transfer units: %w", err)
	}
	to, err := d.Holder(c.To)
	if err != nil {
		return fmt.Errorf("transfer units: %w", err)
	}
	if err := from.RemoveUnitIDs(c.Units...); err != nil {
		return fmt.Errorf("transfer units from %s: %w", c.From, err)
	}
	if err := to.AddUnitIDs(c.Units...); err != nil {
		// Put them back so a failed transfer leaves both holders as they were.
		_ = from.AddUnitIDs(c.Units...)
		return fmt.Errorf("transfer units to %s: %w", c.To, err)
	}
	return nil
}

func (c *transferChange) Invert() Change {
	return &transferChange{From: c.To, To: c.From, Units: c.Units}
}

func (c *transferChange) IsEmpty() bool      { return len(c.Units) == 0 || c.From == c.To }
func (c *transferChange) ChangeType() string { return "transfer" }

// unitPropertyChange sets one integer property of a unit.
type unitPropertyChange struct {
	Unit     uuid.UUID `json:"unit"`
	Property string    `json:"property"`
	Old      int       `json:"old"`
	New      int       `json:"new"`
}

// UnitProperty sets a named integer property (see core.Property*) on u.
func UnitProperty(u *core.Unit, property string, value int) Change {
	old, _ := u.Property(property)
	return &unitPropertyChange{Unit: u.ID(), Property: property, Old: old, New: value}
}

func (c *unitPropertyChange) Perform(ctx context.Context, d *GameData) error {
	u, ok := d.units.Get(c.Unit)
	if !ok {
		return fmt.Errorf("set %s on unit %s: %w", c.Property, c.Unit, core.ErrUnknownUnit)
	}
	return u.SetProperty(c.Property, c.New)
}

func (c *unitPropertyChange) Invert() Change {
	return &unitPropertyChange{Unit: c.Unit, Property: c.Property, Old: c.New, New: c.Old}
}

func (c *unitPropertyChange) IsEmpty() bool      { return c.Old == c.New }
func (c *unitPropertyChange) ChangeType() string { return "unit_property" }

// UnitsHit sets the hits of each unit in the map. Units are ordered by ID so
// the composite is the same on every peer.
func UnitsHit(hits map[*core.Unit]int) *CompositeChange {
	units := make([]*core.Unit, 0, len(hits))
	for u := range hits {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID().String() < units[j].ID().String() })

	c := NewCompositeChange()
	for _, u := range units {
		c.Add(UnitProperty(u, core.PropertyHits, hits[u]))
	}
	return c
}

// transportChange loads a unit onto a transport, or unloads it.
type transportChange struct {
	Unit uuid.UUID `json:"unit"`
	Old  uuid.UUID `json:"old"`
	New  uuid.UUID `json:"new"`
}

// TransportUnit loads u onto transport. A nil transport unloads u.
func TransportUnit(u, transport *core.Unit) Change {
	next := uuid.Nil
	if transport != nil {
		next = transport.ID()
	}
	return &transportChange{Unit: u.ID(), Old: u.TransportedBy(), New: next}
}

func (c *transportChange) Perform(ctx context.Context, d *GameData) error {
	u, ok := d.units.Get(c.Unit)
	if !ok {
		return fmt.Errorf("transport unit %s: %w", c.Unit, core.ErrUnknownUnit)
	}
	if c.New != uuid.Nil {
		t, ok := d.units.Get(c.New)
		if !ok {
			return fmt.Errorf("transport %s: %w", c.New, core.ErrUnknownUnit)
		}
		if !t.Type().CanTransport(u.Type()) {
			return fmt.Errorf("%s onto %s: %w", u.Type().Name(), t.Type().Name(), ErrCannotTransport)
		}
		load := u.Type().TransportCost
		for _, cargo := range d.units.Cargo(t.ID()) {
			if cargo.ID() != u.ID() {
				load += cargo.Type().TransportCost
			}
		}
		if load > t.Type().TransportCapacity {
			return fmt.Errorf("%s carrying %d of %d: %w", t.ID(), load, t.Type().TransportCapacity, ErrTransportCapacity)
		}
	}
	u.SetTransportedBy(c.New)
	return nil
}

func (c *transportChange) Invert() Change {
	return &transportChange{Unit: c.Unit, Old: c.New, New: c.Old}
}

func (c *transportChange) IsEmpty() bool      { return c.Old == c.New }
func (c *transportChange) ChangeType() string { return "transport" }

// resourceChange adds a (possibly negative) quantity of a resource.
type resourceChange struct {
	Player   string `json:"player"`
	Resource string `json:"resource"`
	Delta    int    `json:"delta"`
}

// ChangeResources adds delta of resource to player. The change fails rather
// than take a player below zero.
func ChangeResources(player *core.Player, resource string, delta int) Change {
	return &resourceChange{Player: player.Name(), Resource: resource, Delta: delta}
}

func (c *resourceChange) Perform(ctx context.Context, d *GameData) error {
	p, ok := d.players.Get(c.Player)
	if !ok {
		return fmt.Errorf("change resources of %q: %w", c.Player, core.ErrUnknownPlayer)
	}
	if _, ok := d.resources.Get(c.Resource); !ok {
		return fmt.Errorf("change resources of %q: %q: %w", c.Player, c.Resource, core.ErrUnknownResource)
	}
	if err := p.Resources().Add(c.Resource, c.Delta); err != nil {
		return fmt.Errorf("change resources of %q: %w", c.Player, err)
	}
	return nil
}

func (c *resourceChange) Invert() Change {
	return &resourceChange{Player: c.Player, Resource: c.Resource, Delta: -c.Delta}
}

func (c *resourceChange) IsEmpty() bool      { return c.Delta == 0 }
func (c *resourceChange) ChangeType() string { return "resources" }

// AttachmentOwnerKind names the collection an attachment owner lives in.
type AttachmentOwnerKind string

const (
	OwnerTerritory        AttachmentOwnerKind = "territory"
	OwnerPlayer           AttachmentOwnerKind = "player"
	OwnerUnitType         AttachmentOwnerKind = "unit_type"
	OwnerResource         AttachmentOwnerKind = "resource"
	OwnerRelationshipType AttachmentOwnerKind = "relationship_type"
)

// AttachmentOwner is a stable reference to an entity carrying attachments.
type AttachmentOwner struct {
	Kind AttachmentOwnerKind `json:"kind"`
	Name string              `json:"name"`
}

// OwnerOf builds the reference for a known entity type.
func OwnerOf(e core.HasAttachments) (AttachmentOwner, error) {
	switch e.(type) {
	case *core.Territory:
		return AttachmentOwner{OwnerTerritory, e.Name()}, nil
	case *core.Player:
		return AttachmentOwner{OwnerPlayer, e.Name()}, nil
	case *core.UnitType:
		return AttachmentOwner{OwnerUnitType, e.Name()}, nil
	case *core.Resource:
		return AttachmentOwner{OwnerResource, e.Name()}, nil
	case *core.RelationshipType:
		return AttachmentOwner{OwnerRelationshipType, e.Name()}, nil
	default:
		return AttachmentOwner{}, fmt.Errorf("attachment owner %T: %w", e, ErrUnknownName)
	}
}

func (d *GameData) attachmentOwner(ref AttachmentOwner) (core.HasAttachments, bool) {
	switch ref.Kind {
	case OwnerTerritory:
		return d.gameMap.Territory(ref.Name)
	case OwnerPlayer:
		return d.players.Get(ref.Name)
	case OwnerUnitType:
		return d.unitTypes.Get(ref.Name)
	case OwnerResource:
		return d.resources.Get(ref.Name)
	case OwnerRelationshipType:
		return d.relationshipTypes.Get(ref.Name)
	default:
		return nil, false
	}
}

// TechAttachment is the attachment whose edits are reported as
// events.TypeTechAttachmentChanged.
const TechAttachment = "techAttachment"

// attachmentPropertyChange sets one property of a named attachment.
type attachmentPropertyChange struct {
	Owner      AttachmentOwner `json:"owner"`
	Attachment string          `json:"attachment"`
	Property   string          `json:"property"`
	Old        string          `json:"old"`
	New        string          `json:"new"`
}

// AttachmentProperty sets property on owner's attachment. An empty value
// clears the property.
func AttachmentProperty(owner core.HasAttachments, attachment, property, value string) (Change, error) {
	ref, err := OwnerOf(owner)
	if err != nil {
		return nil, err
	}
	a, ok := owner.Attachment(attachment)
	if !ok {
		return nil, fmt.Errorf("%s %q attachment %q: %w", ref.Kind, ref.Name, attachment, core.ErrUnknownAttachment)
	}
	old, _ := a.Property(property)
	return &attachmentPropertyChange{Owner: ref, Attachment: attachment, Property: property, Old: old, New: value}, nil
}

func (c *attachmentPropertyChange) Perform(ctx context.Context, d *GameData) error {
	owner, ok := d.attachmentOwner(c.Owner)
	if !ok {
		return fmt.Errorf("attachment owner %s %q: %w", c.Owner.Kind, c.Owner.Name, ErrUnknownName)
	}
	a, ok := owner.Attachment(c.Attachment)
	if !ok {
		return fmt.Errorf("%s %q attachment %q: %w", c.Owner.Kind, c.Owner.Name, c.Attachment, core.ErrUnknownAttachment)
	}
	a.SetProperty(c.Property, c.New)
	return nil
}

func (c *attachmentPropertyChange) Invert() Change {
	inv := *c
	inv.Old, inv.New = c.New, c.Old
	return &inv
}

func (c *attachmentPropertyChange) IsEmpty() bool      { return c.Old == c.New }
func (c *attachmentPropertyChange) ChangeType() string { return "attachment_property" }

// relationshipChange replaces the relationship between two players.
type relationshipChange struct {
	Player1 string       `json:"player1"`
	Player2 string       `json:"player2"`
	Old     Relationship `json:"old"`
	New     Relationship `json:"new"`
}

// RelationshipChange sets the relationship between p1 and p2 to newType,
// created in the given round.
func RelationshipChange(tracker *RelationshipTracker, p1, p2 *core.Player, newType *core.RelationshipType, round int) Change {
	return &relationshipChange{
		Player1: p1.Name(),
		Player2: p2.Name(),
		Old:     tracker.Relationship(p1.Name(), p2.Name()),
		New:     Relationship{Type: newType.Name(), RoundCreated: round},
	}
}

func (c *relationshipChange) Perform(ctx context.Context, d *GameData) error {
	for _, p := range []string{c.Player1, c.Player2} {
		if _, ok := d.players.Get(p); !ok {
			return fmt.Errorf("relationship %q/%q: %w", c.Player1, c.Player2, core.ErrUnknownPlayer)
		}
	}
	if c.New.Type != "" {
		if _, ok := d.relationshipTypes.Get(c.New.Type); !ok {
			return fmt.Errorf("relationship type %q: %w", c.New.Type, ErrUnknownName)
		}
	}
	d.relationships.set(c.Player1, c.Player2, c.New)
	return nil
}

func (c *relationshipChange) Invert() Change {
	return &relationshipChange{Player1: c.Player1, Player2: c.Player2, Old: c.New, New: c.Old}
}

func (c *relationshipChange) IsEmpty() bool      { return c.Old == c.New }
func (c *relationshipChange) ChangeType() string { return "relationship" }

// stepChange moves the game sequence.
type stepChange struct {
	OldIndex int `json:"old_index"`
	OldRound int `json:"old_round"`
	NewIndex int `json:"new_index"`
	NewRound int `json:"new_round"`
}

// StepChange moves seq to the step at index in round.
func StepChange(seq *GameSequence, index, round int) Change {
	return &stepChange{OldIndex: seq.StepIndex(), OldRound: seq.Round(), NewIndex: index, NewRound: round}
}

// AdvanceStep moves seq to the step after the current one.
func AdvanceStep(seq *GameSequence) Change {
	index, round := seq.Next()
	return StepChange(seq, index, round)
}

func (c *stepChange) Perform(ctx context.Context, d *GameData) error {
	return d.sequence.set(c.NewIndex, c.NewRound)
}

func (c *stepChange) Invert() Change {
	return &stepChange{OldIndex: c.NewIndex, OldRound: c.NewRound, NewIndex: c.OldIndex, NewRound: c.OldRound}
}

func (c *stepChange) IsEmpty() bool      { return c.OldIndex == c.NewIndex && c.OldRound == c.NewRound }
func (c *stepChange) ChangeType() string { return "step" }

// battleRecordChange adds or removes a battle record.
type battleRecordChange struct {
	Record BattleRecord `json:"record"`
	Remove bool         `json:"remove"`
}

// AddBattleRecord records rec.
func AddBattleRecord(rec BattleRecord) Change {
	return &battleRecordChange{Record: rec}
}

// RemoveBattleRecord deletes rec.
func RemoveBattleRecord(rec BattleRecord) Change {
	return &battleRecordChange{Record: rec, Remove: true}
}

func (c *battleRecordChange) Perform(ctx context.Context, d *GameData) error {
	if c.Remove {
		return d.battles.remove(c.Record)
	}
	return d.battles.add(c.Record)
}

func (c *battleRecordChange) Invert() Change {
	return &battleRecordChange{Record: c.Record, Remove: !c.Remove}
}

func (c *battleRecordChange) IsEmpty() bool      { return false }
func (c *battleRecordChange) ChangeType() string { return "battle_record" }

// frontierChange reassigns a player's production or repair frontier.
type frontierChange struct {
	Player string        `json:"player"`
	Kind   core.RuleKind `json:"kind"`
	Old    string        `json:"old"`
	New    string        `json:"new"`
}

// ChangeFrontier assigns frontier (from list) to player.
func ChangeFrontier(list *FrontierList, player *core.Player, frontier string) Change {
	return &frontierChange{Player: player.Name(), Kind: list.Kind(), Old: list.FrontierOf(player.Name()), New: frontier}
}

func (c *frontierChange) Perform(ctx context.Context, d *GameData) error {
	if _, ok := d.players.Get(c.Player); !ok {
		return fmt.Errorf("frontier of %q: %w", c.Player, core.ErrUnknownPlayer)
	}
	list := d.productionFrontiers
	if c.Kind == core.RuleRepair {
		list = d.repairFrontiers
	}
	if c.New != "" {
		if _, ok := list.Frontier(c.New); !ok {
			return fmt.Errorf("frontier %q: %w", c.New, ErrUnknownName)
		}
	}
	list.assign(c.Player, c.New)
	return nil
}

func (c *frontierChange) Invert() Change {
	return &frontierChange{Player: c.Player, Kind: c.Kind, Old: c.New, New: c.Old}
}

func (c *frontierChange) IsEmpty() bool      { return c.Old == c.New }
func (c *frontierChange) ChangeType() string { return "frontier" }

func snapshots(units []*core.Unit) []core.UnitSnapshot {
	out := make([]core.UnitSnapshot, len(units))
	for i, u := range units {
		out[i] = u.Snapshot()
	}
	return out
}

func unitIDs(units []*core.Unit) []uuid.UUID {
	out := make([]uuid.UUID, len(units))
	for i, u := range units {
		out[i] = u.ID()
	}
	return out
}
