// Package scenario builds the playable demo setup shared by the server and
// the replay tool. Starting unit IDs are derived from the scenario name so
// that a persisted history always replays onto an identical start.
package scenario

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
	"github.com/mitchelldurbincs/wargame/internal/game/gamemap"
	"github.com/mitchelldurbincs/wargame/internal/game/state"
)

// Name identifies the scenario in logs and stored games.
const Name = "baltic-1941"

// Player, resource and rule names used by the scenario.
const (
	Germans = "Germans"
	Soviets = "Soviets"
	Finns   = "Finns"

	PUs        = "PUs"
	TechTokens = "techTokens"

	BuyInfantry  = "buyInfantry"
	BuyArmour    = "buyArmour"
	BuyFighter   = "buyFighter"
	BuyTransport = "buyTransport"
	BuyTokens    = "buyTechTokens"
)

// Options tunes the build.
type Options struct {
	// EnforceCanals installs the Kiel Canal and Danish Straits.
	EnforceCanals bool
	// State options passed through to state.New.
	State []state.Option
}

type edge struct{ a, b string }

var (
	landTerritories = []string{
		"Germany", "Denmark", "Norway", "Sweden", "Finland",
		"Karelia", "Baltic States", "Poland", "East Prussia", "Leningrad",
	}
	seaZones = []string{"North Sea", "Skagerrak", "Baltic Sea", "Gulf of Finland"}

	edges = []edge{
		{"Germany", "Denmark"}, {"Germany", "Poland"}, {"Germany", "North Sea"}, {"Germany", "Baltic Sea"},
		{"Denmark", "North Sea"}, {"Denmark", "Skagerrak"}, {"Denmark", "Baltic Sea"},
		{"Norway", "Sweden"}, {"Norway", "Finland"}, {"Norway", "North Sea"}, {"Norway", "Skagerrak"},
		{"Sweden", "Finland"}, {"Sweden", "Skagerrak"}, {"Sweden", "Baltic Sea"},
		{"Finland", "Karelia"}, {"Finland", "Baltic Sea"}, {"Finland", "Gulf of Finland"},
		{"Karelia", "Leningrad"},
		{"Leningrad", "Baltic States"}, {"Leningrad", "Gulf of Finland"},
		{"Baltic States", "East Prussia"}, {"Baltic States", "Baltic Sea"}, {"Baltic States", "Gulf of Finland"},
		{"East Prussia", "Poland"}, {"East Prussia", "Baltic Sea"},
		{"Poland", "Baltic States"},
		{"North Sea", "Skagerrak"}, {"North Sea", "Baltic Sea"}, {"Skagerrak", "Baltic Sea"},
		{"Baltic Sea", "Gulf of Finland"},
	}

	owners = map[string]string{
		"Germany":       Germans,
		"Denmark":       Germans,
		"Norway":        Germans,
		"East Prussia":  Germans,
		"Poland":        Germans,
		"Finland":       Finns,
		"Karelia":       Soviets,
		"Leningrad":     Soviets,
		"Baltic States": Soviets,
	}

	// Rough terrain costs more to cross.
	movementCosts = map[string]int{"Norway": 2, "Karelia": 2}

	startingIncome = map[string]int{Germans: 40, Soviets: 30, Finns: 12}
)

// UnitID is the deterministic ID of the n-th starting unit.
func UnitID(n int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s-unit-%d", Name, n)))
}

// Build creates the scenario's game data.
func Build(opts Options) (*state.GameData, error) {
	m := gamemap.New()
	for _, name := range landTerritories {
		t := core.NewTerritory(name, false)
		if cost, ok := movementCosts[name]; ok {
			t.SetMovementCost(cost)
		}
		t.SetOwner(owners[name])
		if err := m.AddTerritory(t); err != nil {
			return nil, err
		}
	}
	for _, name := range seaZones {
		if err := m.AddTerritory(core.NewTerritory(name, true)); err != nil {
			return nil, err
		}
	}
	for _, e := range edges {
		if err := m.AddConnection(m.MustTerritory(e.a), m.MustTerritory(e.b)); err != nil {
			return nil, fmt.Errorf("connect %s-%s: %w", e.a, e.b, err)
		}
	}

	d := state.New(append([]state.Option{state.WithMap(m)}, opts.State...)...)
	if err := populate(d); err != nil {
		return nil, err
	}
	if opts.EnforceCanals {
		d.AddCanal(gamemap.Canal{
			Name:              "Kiel Canal",
			Between:           [2]string{"North Sea", "Baltic Sea"},
			LandTerritories:   []string{"Germany"},
			ExcludedUnitTypes: []string{"fighter"},
		})
		d.AddCanal(gamemap.Canal{
			Name:              "Danish Straits",
			Between:           [2]string{"Skagerrak", "Baltic Sea"},
			LandTerritories:   []string{"Denmark"},
			ExcludedUnitTypes: []string{"fighter"},
		})
	}
	return d, nil
}

func populate(d *state.GameData) error {
	players := []*core.Player{
		core.NewPlayer(Germans, false),
		core.NewPlayer(Soviets, false),
		core.NewPlayer(Finns, true),
	}
	for _, p := range players {
		if err := d.Players().Add(p); err != nil {
			return err
		}
		if err := p.Resources().Add(PUs, startingIncome[p.Name()]); err != nil {
			return err
		}
		p.AddAttachment(core.NewAttachment(state.TechAttachment, map[string]string{"jetPower": "false", "heavyBombers": "false"}))
	}

	unitTypes := []*core.UnitType{
		{TypeName: "infantry", Movement: 1, TransportCost: 2, HitPoints: 1},
		{TypeName: "armour", Movement: 2, TransportCost: 3, HitPoints: 1},
		{TypeName: "fighter", Movement: 4, IsAir: true, HitPoints: 1},
		{TypeName: "transport", Movement: 2, IsSea: true, TransportCapacity: 5, HitPoints: 1},
		{TypeName: "destroyer", Movement: 2, IsSea: true, HitPoints: 1},
	}
	for _, ut := range unitTypes {
		if err := d.UnitTypes().Add(ut); err != nil {
			return err
		}
	}
	for _, r := range []string{PUs, TechTokens} {
		if err := d.Resources().Add(&core.Resource{ResourceName: r}); err != nil {
			return err
		}
	}

	relTypes := []*core.RelationshipType{
		{TypeName: "War", Archetype: core.ArchetypeWar},
		{TypeName: "Allied", Archetype: core.ArchetypeAllied},
		{TypeName: "Neutral", Archetype: core.ArchetypeNeutral},
	}
	for _, rt := range relTypes {
		if err := d.RelationshipTypes().Add(rt); err != nil {
			return err
		}
	}
	rel := d.Relationships()
	rel.SetDefaultType("Neutral")
	rel.Set(Germans, Soviets, "War", 0)
	rel.Set(Finns, Soviets, "War", 0)
	rel.Set(Germans, Finns, "Allied", 0)
	d.Alliances().AddToAlliance(Germans, "Axis")
	d.Alliances().AddToAlliance(Finns, "Axis")
	d.Alliances().AddToAlliance(Soviets, "Allies")

	rules := []*core.Rule{
		core.NewRule(BuyInfantry, core.RuleProduction, map[string]int{PUs: 3},
			core.RuleResult{Kind: core.ResultUnitType, Name: "infantry", Quantity: 1}),
		core.NewRule(BuyArmour, core.RuleProduction, map[string]int{PUs: 5},
			core.RuleResult{Kind: core.ResultUnitType, Name: "armour", Quantity: 1}),
		core.NewRule(BuyFighter, core.RuleProduction, map[string]int{PUs: 10},
			core.RuleResult{Kind: core.ResultUnitType, Name: "fighter", Quantity: 1}),
		core.NewRule(BuyTransport, core.RuleProduction, map[string]int{PUs: 7},
			core.RuleResult{Kind: core.ResultUnitType, Name: "transport", Quantity: 1}),
		core.NewRule(BuyTokens, core.RuleProduction, map[string]int{PUs: 5},
			core.RuleResult{Kind: core.ResultResource, Name: TechTokens, Quantity: 1}),
	}
	for _, r := range rules {
		if err := d.ProductionRules().Add(r); err != nil {
			return err
		}
	}
	frontiers := []*state.Frontier{
		{FrontierName: "germanProduction", RuleNames: []string{BuyInfantry, BuyArmour, BuyFighter, BuyTransport, BuyTokens}},
		{FrontierName: "sovietProduction", RuleNames: []string{BuyInfantry, BuyArmour, BuyFighter}},
		{FrontierName: "minorProduction", RuleNames: []string{BuyInfantry}},
	}
	for _, f := range frontiers {
		if err := d.ProductionFrontiers().AddFrontier(f); err != nil {
			return err
		}
	}
	for player, frontier := range map[string]string{Germans: "germanProduction", Soviets: "sovietProduction", Finns: "minorProduction"} {
		if err := d.ProductionFrontiers().Assign(player, frontier); err != nil {
			return err
		}
	}

	for _, del := range []state.Delegate{
		state.BasicDelegate{DelegateName: "purchase", Display: "Purchase Units"},
		state.BasicDelegate{DelegateName: "move", Display: "Combat Move"},
		state.BasicDelegate{DelegateName: "place", Display: "Place Units"},
	} {
		if err := d.Delegates().Add(del); err != nil {
			return err
		}
	}
	for _, p := range []string{Germans, Finns, Soviets} {
		for _, step := range []struct{ name, display, delegate string }{
			{"Purchase", "Purchase", "purchase"},
			{"CombatMove", "Combat Move", "move"},
			{"Place", "Place Units", "place"},
		} {
			if err := d.Sequence().AddStep(&state.GameStep{
				StepName:    stepName(p, step.name),
				DisplayName: p + " " + step.display,
				Player:      p,
				Delegate:    step.delegate,
			}); err != nil {
				return err
			}
		}
	}

	d.Properties().Set("Rounds", "12", true)
	d.Properties().Set("Low Luck", "false", true)
	d.Properties().Set("Victory City", "Leningrad", false)

	return placeStartingUnits(d)
}

func stepName(player, step string) string {
	return fmt.Sprintf("%s%s", player, step)
}

type placement struct {
	territory string
	owner     string
	unitType  string
	count     int
}

var startingUnits = []placement{
	{"Germany", Germans, "infantry", 3},
	{"Germany", Germans, "armour", 2},
	{"Germany", Germans, "fighter", 1},
	{"East Prussia", Germans, "infantry", 2},
	{"East Prussia", Germans, "armour", 1},
	{"Poland", Germans, "infantry", 2},
	{"Norway", Germans, "infantry", 1},
	{"Baltic Sea", Germans, "transport", 1},
	{"North Sea", Germans, "destroyer", 1},
	{"Finland", Finns, "infantry", 3},
	{"Karelia", Soviets, "infantry", 3},
	{"Leningrad", Soviets, "infantry", 2},
	{"Leningrad", Soviets, "armour", 1},
	{"Baltic States", Soviets, "infantry", 2},
	{"Gulf of Finland", Soviets, "destroyer", 1},
}

func placeStartingUnits(d *state.GameData) error {
	n := 0
	for _, p := range startingUnits {
		ut, ok := d.UnitTypes().Get(p.unitType)
		if !ok {
			return fmt.Errorf("starting unit %q: %w", p.unitType, core.ErrUnknownUnitType)
		}
		units := make([]*core.Unit, p.count)
		for i := range units {
			n++
			units[i] = core.NewUnitWithID(UnitID(n), ut, p.owner)
		}
		t := d.Map().MustTerritory(p.territory)
		if err := d.PlaceInitialUnits(t, units...); err != nil {
			return fmt.Errorf("place units in %s: %w", p.territory, err)
		}
	}
	return nil
}
