package state

import (
	"fmt"
	"sync"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
)

// Frontier is a named subset of rules a player may use.
type Frontier struct {
	FrontierName string
	RuleNames    []string
}

func (f *Frontier) Name() string { return f.FrontierName }

// FrontierList holds the frontiers of one rule kind, the assignment of
// frontiers to players, and a cache of each player's resolved, sorted rules.
// The cache fills lazily under the game's read lock, so it has its own mutex.
type FrontierList struct {
	kind      core.RuleKind
	rules     *RuleList
	frontiers NamedList[*Frontier]
	assigned  map[string]string

	cacheMu sync.Mutex
	cache   map[string][]*core.Rule
}

func newFrontierList(kind core.RuleKind, rules *RuleList) *FrontierList {
	return &FrontierList{
		kind:     kind,
		rules:    rules,
		assigned: make(map[string]string),
		cache:    make(map[string][]*core.Rule),
	}
}

// Kind is the rule kind the frontiers in this list draw from.
func (fl *FrontierList) Kind() core.RuleKind { return fl.kind }

// AddFrontier registers a frontier. Every rule it names must exist.
func (fl *FrontierList) AddFrontier(f *Frontier) error {
	for _, rn := range f.RuleNames {
		r, ok := fl.rules.Get(rn)
		if !ok {
			return fmt.Errorf("frontier %q rule %q: %w", f.Name(), rn, ErrUnknownName)
		}
		if r.Kind != fl.kind {
			return fmt.Errorf("frontier %q rule %q has the wrong kind: %w", f.Name(), rn, ErrNotInFrontier)
		}
	}
	if err := fl.frontiers.Add(f); err != nil {
		return err
	}
	fl.invalidate()
	return nil
}

// Frontier looks a frontier up by name.
func (fl *FrontierList) Frontier(name string) (*Frontier, bool) { return fl.frontiers.Get(name) }

// Frontiers returns every frontier in registration order.
func (fl *FrontierList) Frontiers() []*Frontier { return fl.frontiers.All() }

// FrontierOf returns the frontier name assigned to player, or "".
func (fl *FrontierList) FrontierOf(player string) string { return fl.assigned[player] }

// RulesFor returns the rules available to player, sorted for display.
func (fl *FrontierList) RulesFor(player string) []*core.Rule {
	fl.cacheMu.Lock()
	defer fl.cacheMu.Unlock()
	if cached, ok := fl.cache[player]; ok {
		return append([]*core.Rule(nil), cached...)
	}
	f, ok := fl.frontiers.Get(fl.assigned[player])
	if !ok {
		return nil
	}
	rules := make([]*core.Rule, 0, len(f.RuleNames))
	for _, rn := range f.RuleNames {
		if r, ok := fl.rules.Get(rn); ok {
			rules = append(rules, r)
		}
	}
	core.SortRules(rules)
	fl.cache[player] = rules
	return append([]*core.Rule(nil), rules...)
}

// Allows reports whether rule is in player's frontier.
func (fl *FrontierList) Allows(player, rule string) bool {
	for _, r := range fl.RulesFor(player) {
		if r.Name() == rule {
			return true
		}
	}
	return false
}

// Assign gives player a frontier during setup. In play, use ChangeFrontier.
func (fl *FrontierList) Assign(player, frontier string) error {
	if _, ok := fl.frontiers.Get(frontier); !ok {
		return fmt.Errorf("frontier %q: %w", frontier, ErrUnknownName)
	}
	fl.assign(player, frontier)
	return nil
}

func (fl *FrontierList) assign(player, frontier string) {
	if frontier == "" {
		delete(fl.assigned, player)
	} else {
		fl.assigned[player] = frontier
	}
	fl.cacheMu.Lock()
	delete(fl.cache, player)
	fl.cacheMu.Unlock()
}

func (fl *FrontierList) invalidate() {
	fl.cacheMu.Lock()
	fl.cache = make(map[string][]*core.Rule)
	fl.cacheMu.Unlock()
}
