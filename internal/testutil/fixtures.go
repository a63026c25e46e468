package testutil

import (
	"fmt"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
	"github.com/mitchelldurbincs/wargame/internal/game/gamemap"
	"github.com/mitchelldurbincs/wargame/internal/game/state"
)

// Resource and rule names used by World.
const (
	PUs         = "PUs"
	BuyInfantry = "buyInfantry"
	BuyArmour   = "buyArmour"
	BuyTokens   = "buyTechTokens"
)

// World is a small two-front scenario:
//
//	North Sea - Baltic Sea - Finland
//	    |          |            |
//	  Germany --- Poland ---- Russia
//
// Germany and Baltic Sea are also connected. Germans and Italians are allied
// and at war with Russians. Poland and Finland are neutral.
type World struct {
	Data *state.GameData

	Germany, Poland, Russia, Finland *core.Territory
	NorthSea, Baltic                 *core.Territory

	Germans, Russians, Italians *core.Player

	Infantry, Armour, Fighter, Transport *core.UnitType

	War, Allied, Neutral *core.RelationshipType
}

// NewWorld builds the World scenario with starting units:
// Germany 2 infantry + 1 armour + 1 fighter, Russia 3 infantry, and one
// German transport in the Baltic Sea. Germans and Russians hold 30 PUs.
// Starting unit IDs are the same in every World, so changes made in one can
// be replayed into another.
func NewWorld(t testing.TB, opts ...state.Option) *World {
	t.Helper()

	w := &World{
		Germany:  core.NewTerritory("Germany", false),
		Poland:   core.NewTerritory("Poland", false),
		Russia:   core.NewTerritory("Russia", false),
		Finland:  core.NewTerritory("Finland", false),
		NorthSea: core.NewTerritory("North Sea", true),
		Baltic:   core.NewTerritory("Baltic Sea", true),

		Germans:  core.NewPlayer("Germans", false),
		Russians: core.NewPlayer("Russians", false),
		Italians: core.NewPlayer("Italians", true),

		Infantry:  &core.UnitType{TypeName: "infantry", Movement: 1, TransportCost: 2, HitPoints: 1},
		Armour:    &core.UnitType{TypeName: "armour", Movement: 2, TransportCost: 3, HitPoints: 1},
		Fighter:   &core.UnitType{TypeName: "fighter", Movement: 4, IsAir: true, HitPoints: 1},
		Transport: &core.UnitType{TypeName: "transport", Movement: 2, IsSea: true, TransportCapacity: 5, HitPoints: 1},

		War:     &core.RelationshipType{TypeName: "War", Archetype: core.ArchetypeWar},
		Allied:  &core.RelationshipType{TypeName: "Allied", Archetype: core.ArchetypeAllied},
		Neutral: &core.RelationshipType{TypeName: "Neutral", Archetype: core.ArchetypeNeutral},
	}

	m := gamemap.New()
	for _, terr := range []*core.Territory{w.Germany, w.Poland, w.Russia, w.Finland, w.NorthSea, w.Baltic} {
		require.NoError(t, m.AddTerritory(terr))
	}
	for _, pair := range [][2]*core.Territory{
		{w.Germany, w.Poland},
		{w.Poland, w.Russia},
		{w.Germany, w.NorthSea},
		{w.Germany, w.Baltic},
		{w.NorthSea, w.Baltic},
		{w.Baltic, w.Finland},
		{w.Finland, w.Russia},
		{w.Poland, w.Baltic},
	} {
		require.NoError(t, m.AddConnection(pair[0], pair[1]))
	}
	w.Germany.SetOwner(w.Germans.Name())
	w.Russia.SetOwner(w.Russians.Name())

	w.Data = state.New(append([]state.Option{state.WithMap(m), state.WithGameID("world")}, opts...)...)
	d := w.Data

	for _, p := range []*core.Player{w.Germans, w.Russians, w.Italians} {
		require.NoError(t, d.Players().Add(p))
	}
	for _, ut := range []*core.UnitType{w.Infantry, w.Armour, w.Fighter, w.Transport} {
		require.NoError(t, d.UnitTypes().Add(ut))
	}
	require.NoError(t, d.Resources().Add(&core.Resource{ResourceName: PUs}))
	require.NoError(t, d.Resources().Add(&core.Resource{ResourceName: "techTokens"}))
	for _, rt := range []*core.RelationshipType{w.War, w.Allied, w.Neutral} {
		require.NoError(t, d.RelationshipTypes().Add(rt))
	}
	d.Relationships().SetDefaultType(w.Neutral.Name())
	d.Relationships().Set(w.Germans.Name(), w.Russians.Name(), w.War.Name(), 0)
	d.Relationships().Set(w.Italians.Name(), w.Russians.Name(), w.War.Name(), 0)
	d.Relationships().Set(w.Germans.Name(), w.Italians.Name(), w.Allied.Name(), 0)
	d.Alliances().AddToAlliance(w.Germans.Name(), "Axis")
	d.Alliances().AddToAlliance(w.Italians.Name(), "Axis")
	d.Alliances().AddToAlliance(w.Russians.Name(), "Allies")

	rules := []*core.Rule{
		core.NewRule(BuyInfantry, core.RuleProduction, map[string]int{PUs: 3},
			core.RuleResult{Kind: core.ResultUnitType, Name: "infantry", Quantity: 1}),
		core.NewRule(BuyArmour, core.RuleProduction, map[string]int{PUs: 5},
			core.RuleResult{Kind: core.ResultUnitType, Name: "armour", Quantity: 1}),
		core.NewRule(BuyTokens, core.RuleProduction, map[string]int{PUs: 5},
			core.RuleResult{Kind: core.ResultResource, Name: "techTokens", Quantity: 1}),
	}
	for _, r := range rules {
		require.NoError(t, d.ProductionRules().Add(r))
	}
	require.NoError(t, d.ProductionFrontiers().AddFrontier(&state.Frontier{
		FrontierName: "production",
		RuleNames:    []string{BuyTokens, BuyArmour, BuyInfantry},
	}))
	require.NoError(t, d.ProductionFrontiers().Assign(w.Germans.Name(), "production"))
	require.NoError(t, d.ProductionFrontiers().Assign(w.Russians.Name(), "production"))

	for _, del := range []state.Delegate{
		state.BasicDelegate{DelegateName: "move", Display: "Combat Move"},
		state.BasicDelegate{DelegateName: "purchase", Display: "Purchase Units"},
	} {
		require.NoError(t, d.Delegates().Add(del))
	}
	for _, step := range []*state.GameStep{
		{StepName: "germanPurchase", DisplayName: "German Purchase", Player: w.Germans.Name(), Delegate: "purchase"},
		{StepName: "germanCombatMove", DisplayName: "German Combat Move", Player: w.Germans.Name(), Delegate: "move"},
		{StepName: "russianPurchase", DisplayName: "Russian Purchase", Player: w.Russians.Name(), Delegate: "purchase"},
		{StepName: "russianCombatMove", DisplayName: "Russian Combat Move", Player: w.Russians.Name(), Delegate: "move"},
	} {
		require.NoError(t, d.Sequence().AddStep(step))
	}
	d.Properties().Set("Rounds", "10", true)
	d.Properties().Set("Low Luck", "false", true)

	require.NoError(t, w.Germans.Resources().Add(PUs, 30))
	require.NoError(t, w.Russians.Resources().Add(PUs, 30))

	tech := core.NewAttachment(state.TechAttachment, map[string]string{"jetPower": "false"})
	w.Germans.AddAttachment(tech)

	n := 0
	unit := func(ut *core.UnitType, owner *core.Player) *core.Unit {
		n++
		return core.NewUnitWithID(StartingUnitID(n), ut, owner.Name())
	}
	require.NoError(t, d.PlaceInitialUnits(w.Germany,
		unit(w.Infantry, w.Germans),
		unit(w.Infantry, w.Germans),
		unit(w.Armour, w.Germans),
		unit(w.Fighter, w.Germans),
	))
	require.NoError(t, d.PlaceInitialUnits(w.Russia,
		unit(w.Infantry, w.Russians),
		unit(w.Infantry, w.Russians),
		unit(w.Infantry, w.Russians),
	))
	require.NoError(t, d.PlaceInitialUnits(w.Baltic, unit(w.Transport, w.Germans)))

	return w
}

// StartingUnitID is the deterministic ID of the n-th starting unit.
func StartingUnitID(n int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("world-unit-%d", n)))
}

// UnitsIn resolves the units held by h.
func (w *World) UnitsIn(h core.UnitHolder) []*core.Unit {
	return w.Data.UnitsOf(h)
}

// UnitsOfType returns the units of type ut held by h.
func (w *World) UnitsOfType(h core.UnitHolder, ut *core.UnitType) []*core.Unit {
	var out []*core.Unit
	for _, u := range w.Data.UnitsOf(h) {
		if u.Type() == ut {
			out = append(out, u)
		}
	}
	return out
}

// Snapshot is a comparable summary of the parts of a game that changes touch.
type Snapshot struct {
	Owners        map[string]string
	Holdings      map[string][]string
	Units         map[string]core.UnitSnapshot
	Resources     map[string]map[string]int
	Relationships map[string]state.Relationship
	Step          int
	Round         int
	Battles       int
	Tech          string
}

// TakeSnapshot summarizes w's current state. Unit IDs are kept, so two
// snapshots are only equal for the same game or an exact replay of it.
func (w *World) TakeSnapshot() Snapshot {
	d := w.Data
	s := Snapshot{
		Owners:        map[string]string{},
		Holdings:      map[string][]string{},
		Units:         map[string]core.UnitSnapshot{},
		Resources:     map[string]map[string]int{},
		Relationships: map[string]state.Relationship{},
		Step:          d.Sequence().StepIndex(),
		Round:         d.Sequence().Round(),
		Battles:       d.BattleRecords().Len(),
	}
	for _, terr := range d.Map().Territories() {
		s.Owners[terr.Name()] = terr.Owner()
		s.Holdings[terr.Name()] = idStrings(terr)
	}
	for _, p := range d.Players().All() {
		s.Holdings["player:"+p.Name()] = idStrings(p)
		res := map[string]int{}
		for _, name := range p.Resources().Names() {
			res[name] = p.Resources().Quantity(name)
		}
		s.Resources[p.Name()] = res
		for _, other := range d.Players().All() {
			if p.Name() < other.Name() {
				s.Relationships[p.Name()+"/"+other.Name()] = d.Relationships().Relationship(p.Name(), other.Name())
			}
		}
	}
	for _, u := range d.Units().Units() {
		s.Units[u.ID().String()] = u.Snapshot()
	}
	if a, ok := w.Germans.Attachment(state.TechAttachment); ok {
		s.Tech, _ = a.Property("jetPower")
	}
	return s
}

// idStrings returns the holder's unit IDs sorted. Holder order is not
// compared.
func idStrings(h core.UnitHolder) []string {
	ids := h.UnitIDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	sort.Strings(out)
	return out
}
