package gamemap

import (
	"fmt"
	"strings"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
)

// Route is an ordered path: a start territory followed by steps, never
// visiting a territory twice.
//
// A Route does not check adjacency. GameMap.IsValidRoute does, and the
// movement change factory refuses routes that fail it.
type Route struct {
	start *core.Territory
	steps []*core.Territory
	seen  map[*core.Territory]struct{}
}

// NewRoute builds a route, failing on the first repeated territory.
func NewRoute(start *core.Territory, steps ...*core.Territory) (*Route, error) {
	if start == nil {
		return nil, fmt.Errorf("new route: nil start: %w", core.ErrUnknownTerritory)
	}
	r := &Route{start: start, seen: map[*core.Territory]struct{}{start: {}}}
	for _, s := range steps {
		if err := r.add(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustRoute is NewRoute for fixtures.
func MustRoute(start *core.Territory, steps ...*core.Territory) *Route {
	r, err := NewRoute(start, steps...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Route) add(t *core.Territory) error {
	if t == nil {
		return fmt.Errorf("route from %s: nil step: %w", r.start, core.ErrUnknownTerritory)
	}
	if _, dup := r.seen[t]; dup {
		return fmt.Errorf("route from %s: %s: %w", r.start, t, core.ErrRouteRevisit)
	}
	r.seen[t] = struct{}{}
	r.steps = append(r.steps, t)
	return nil
}

// Extend returns a copy of the route with t appended.
func (r *Route) Extend(t *core.Territory) (*Route, error) {
	return NewRoute(r.start, append(r.Steps(), t)...)
}

func (r *Route) Start() *core.Territory { return r.start }

// End is the last step, or the start for an empty route.
func (r *Route) End() *core.Territory {
	if len(r.steps) == 0 {
		return r.start
	}
	return r.steps[len(r.steps)-1]
}

// Steps returns a copy of the steps, excluding the start.
func (r *Route) Steps() []*core.Territory {
	return append([]*core.Territory(nil), r.steps...)
}

// NumberOfSteps excludes the start.
func (r *Route) NumberOfSteps() int { return len(r.steps) }

// HasSteps reports whether the route goes anywhere.
func (r *Route) HasSteps() bool { return len(r.steps) > 0 }

// At returns the i'th step (0 is the first territory after the start).
func (r *Route) At(i int) *core.Territory { return r.steps[i] }

// AllTerritories is the start followed by every step.
func (r *Route) AllTerritories() []*core.Territory {
	out := make([]*core.Territory, 0, len(r.steps)+1)
	out = append(out, r.start)
	return append(out, r.steps...)
}

// Middle returns the steps strictly between start and end.
func (r *Route) Middle() []*core.Territory {
	if len(r.steps) <= 1 {
		return nil
	}
	return append([]*core.Territory(nil), r.steps[:len(r.steps)-1]...)
}

// Contains reports whether t is the start or one of the steps.
func (r *Route) Contains(t *core.Territory) bool {
	_, ok := r.seen[t]
	return ok
}

// beforeEnd is the territory the final step departs from.
func (r *Route) beforeEnd() *core.Territory {
	if len(r.steps) <= 1 {
		return r.start
	}
	return r.steps[len(r.steps)-2]
}

// JoinRoutes concatenates r1 and r2. r2 must start where r1 ends, and the
// result must not revisit anything; otherwise ok is false.
func JoinRoutes(r1, r2 *Route) (*Route, bool) {
	if r1 == nil || r2 == nil {
		return nil, false
	}
	if r1.End() != r2.Start() {
		return nil, false
	}
	for _, s := range r2.steps {
		if r1.Contains(s) {
			return nil, false
		}
	}
	joined, err := NewRoute(r1.start, append(r1.Steps(), r2.steps...)...)
	if err != nil {
		return nil, false
	}
	return joined, true
}

// HasWater reports whether any territory of the route is water.
func (r *Route) HasWater() bool {
	for _, t := range r.AllTerritories() {
		if t.IsWater() {
			return true
		}
	}
	return false
}

// HasLand reports whether any territory of the route is land.
func (r *Route) HasLand() bool {
	for _, t := range r.AllTerritories() {
		if !t.IsWater() {
			return true
		}
	}
	return false
}

// AllWater reports whether every territory of the route is water.
func (r *Route) AllWater() bool { return !r.HasLand() }

// AllLand reports whether every territory of the route is land.
func (r *Route) AllLand() bool { return !r.HasWater() }

// CrossesWater reports land, then water, then land again: an amphibious
// crossing.
func (r *Route) CrossesWater() bool {
	if r.start.IsWater() {
		return false
	}
	overWater := false
	for _, t := range r.steps {
		switch {
		case t.IsWater():
			overWater = true
		case overWater:
			return true
		}
	}
	return false
}

// IsLoad is a move from land onto water.
func (r *Route) IsLoad() bool {
	return r.HasSteps() && !r.start.IsWater() && r.End().IsWater()
}

// IsUnload is a move whose final step goes from water onto land.
func (r *Route) IsUnload() bool {
	return r.HasSteps() && r.beforeEnd().IsWater() && !r.End().IsWater()
}

// HasNeutralBeforeEnd reports an unowned land territory among the middle
// steps.
func (r *Route) HasNeutralBeforeEnd() bool {
	for _, t := range r.Middle() {
		if t.IsNeutral() && !t.IsWater() {
			return true
		}
	}
	return false
}

// AnyMatch reports whether any step (start excluded) is accepted by match.
func (r *Route) AnyMatch(match core.TerritoryMatch) bool {
	for _, t := range r.steps {
		if match.Matches(t) {
			return true
		}
	}
	return false
}

// MovementCost sums the cost model over each step.
func (r *Route) MovementCost(cost CostModel) int {
	total := 0
	prev := r.start
	for _, t := range r.steps {
		total += cost.Cost(prev, t)
		prev = t
	}
	return total
}

// Names lists every territory name, start first.
func (r *Route) Names() []string {
	all := r.AllTerritories()
	out := make([]string, len(all))
	for i, t := range all {
		out[i] = t.Name()
	}
	return out
}

// Equal compares routes territory by territory.
func (r *Route) Equal(other *Route) bool {
	if other == nil || r.start != other.start || len(r.steps) != len(other.steps) {
		return false
	}
	for i := range r.steps {
		if r.steps[i] != other.steps[i] {
			return false
		}
	}
	return true
}

func (r *Route) String() string {
	return strings.Join(r.Names(), " -> ")
}
