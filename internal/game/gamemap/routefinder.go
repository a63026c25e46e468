package gamemap

import (
	"container/heap"
	"math"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
)

// RouteFinder searches the cheapest route between two territories.
type RouteFinder struct {
	m         *GameMap
	match     core.TerritoryMatch
	units     []*core.Unit
	player    string
	withUnits bool
	validator MoveValidator
	cost      CostModel
}

// Option configures a RouteFinder.
type Option func(*RouteFinder)

// WithUnits turns on the canal check for these units moved by player.
func WithUnits(units []*core.Unit, player string) Option {
	return func(rf *RouteFinder) {
		rf.units = units
		rf.player = player
		rf.withUnits = true
	}
}

// WithMoveValidator overrides the map's validator.
func WithMoveValidator(v MoveValidator) Option {
	return func(rf *RouteFinder) { rf.validator = v }
}

// WithCost sets the model used by FindRouteByCost.
func WithCost(c CostModel) Option {
	return func(rf *RouteFinder) { rf.cost = c }
}

// NewRouteFinder creates a finder over m that only steps onto territories
// accepted by match.
func NewRouteFinder(m *GameMap, match core.TerritoryMatch, opts ...Option) *RouteFinder {
	rf := &RouteFinder{m: m, match: match, validator: m.validator, cost: TerritoryCost}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// FindRouteByDistance returns the route with the fewest steps.
func (rf *RouteFinder) FindRouteByDistance(start, end *core.Territory) (*Route, bool) {
	return rf.find(start, end, HopCost)
}

// FindRouteByCost returns the route with the lowest total movement cost.
func (rf *RouteFinder) FindRouteByCost(start, end *core.Territory) (*Route, bool) {
	return rf.find(start, end, rf.cost)
}

func (rf *RouteFinder) validNeighbors(t *core.Territory) []*core.Territory {
	list := rf.m.connections[t]
	out := make([]*core.Territory, 0, len(list))
	for _, n := range list {
		if !rf.match.Matches(n) {
			continue
		}
		if rf.withUnits && rf.validator != nil && !rf.validator.CanCross(t, n, rf.units, rf.player) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (rf *RouteFinder) find(start, end *core.Territory, cost CostModel) (*Route, bool) {
	if !rf.m.Contains(start) || !rf.m.Contains(end) {
		return nil, false
	}
	if start == end {
		return &Route{start: start, seen: map[*core.Territory]struct{}{start: {}}}, true
	}

	previous := make(map[*core.Territory]*core.Territory)
	routeCosts := map[*core.Territory]int{start: 0}
	minCost := math.MaxInt

	queue := &workQueue{}
	heap.Push(queue, &queued{t: start, cost: 0})

	for queue.Len() > 0 {
		item := heap.Pop(queue).(*queued)
		current := item.t
		currentCost := routeCosts[current]
		if item.cost > currentCost {
			// Superseded by a cheaper entry pushed later.
			continue
		}
		if currentCost >= minCost {
			continue
		}
		for _, n := range rf.validNeighbors(current) {
			step := cost.Cost(current, n)
			if step < 0 {
				step = 0
			}
			tentative := currentCost + step
			if known, seen := routeCosts[n]; seen && tentative >= known {
				continue
			}
			routeCosts[n] = tentative
			previous[n] = current
			if n == end {
				if tentative < minCost {
					minCost = tentative
				}
				// Costs are charged on entry, so going through any other
				// neighbor of current cannot reach end more cheaply.
				break
			}
			heap.Push(queue, &queued{t: n, cost: tentative, seq: queue.next()})
		}
	}

	if minCost == math.MaxInt {
		return nil, false
	}

	var reversed []*core.Territory
	for t := end; t != start; t = previous[t] {
		reversed = append(reversed, t)
	}
	steps := make([]*core.Territory, len(reversed))
	for i, t := range reversed {
		steps[len(reversed)-1-i] = t
	}
	r, err := NewRoute(start, steps...)
	if err != nil {
		return nil, false
	}
	return r, true
}

type queued struct {
	t    *core.Territory
	cost int
	seq  int
}

// workQueue orders by cost, then by push order for determinism.
type workQueue struct {
	items  []*queued
	pushed int
}

func (q *workQueue) next() int {
	q.pushed++
	return q.pushed
}

func (q *workQueue) Len() int { return len(q.items) }

func (q *workQueue) Less(i, j int) bool {
	if q.items[i].cost != q.items[j].cost {
		return q.items[i].cost < q.items[j].cost
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *workQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *workQueue) Push(x any) { q.items = append(q.items, x.(*queued)) }

func (q *workQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return item
}
