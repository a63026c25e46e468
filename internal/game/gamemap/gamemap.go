// Package gamemap holds the territory graph and the queries that run over it:
// neighbors, bounded expansion, hop distance and shortest routes.
//
// Nothing here takes a lock. Callers bracket reads with the GameData read
// lock; the graph itself is only mutated while a map is being built.
package gamemap

import (
	"fmt"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
)

// GameMap owns the territories and the symmetric adjacency relation.
type GameMap struct {
	territories []*core.Territory
	lookup      map[string]*core.Territory
	order       map[*core.Territory]int
	connections map[*core.Territory][]*core.Territory
	adjacent    map[*core.Territory]map[*core.Territory]struct{}
	validator   MoveValidator
}

// New creates an empty map.
func New() *GameMap {
	return &GameMap{
		lookup:      make(map[string]*core.Territory),
		order:       make(map[*core.Territory]int),
		connections: make(map[*core.Territory][]*core.Territory),
		adjacent:    make(map[*core.Territory]map[*core.Territory]struct{}),
	}
}

// AddTerritory registers t. Each territory, by identity or by name, may be
// added only once.
func (m *GameMap) AddTerritory(t *core.Territory) error {
	if t == nil {
		return fmt.Errorf("add territory: nil: %w", core.ErrUnknownTerritory)
	}
	if _, exists := m.order[t]; exists {
		return fmt.Errorf("add territory %s: %w", t.Name(), core.ErrDuplicateTerritory)
	}
	if _, exists := m.lookup[t.Name()]; exists {
		return fmt.Errorf("add territory %s: %w", t.Name(), core.ErrDuplicateTerritory)
	}
	m.order[t] = len(m.territories)
	m.territories = append(m.territories, t)
	m.lookup[t.Name()] = t
	m.connections[t] = nil
	m.adjacent[t] = make(map[*core.Territory]struct{})
	return nil
}

// AddConnection connects a and b in both directions.
func (m *GameMap) AddConnection(a, b *core.Territory) error {
	if a == b {
		return fmt.Errorf("connect %s: %w", a, core.ErrSelfConnection)
	}
	if !m.Contains(a) {
		return fmt.Errorf("connect %s to %s: %s: %w", a, b, a, core.ErrUnknownTerritory)
	}
	if !m.Contains(b) {
		return fmt.Errorf("connect %s to %s: %s: %w", a, b, b, core.ErrUnknownTerritory)
	}
	m.link(a, b)
	m.link(b, a)
	return nil
}

func (m *GameMap) link(from, to *core.Territory) {
	if _, ok := m.adjacent[from][to]; ok {
		return
	}
	m.adjacent[from][to] = struct{}{}

	// Keep each neighbor list in declaration order so iteration is identical
	// on every peer.
	list := m.connections[from]
	pos := len(list)
	for i, n := range list {
		if m.order[n] > m.order[to] {
			pos = i
			break
		}
	}
	next := make([]*core.Territory, 0, len(list)+1)
	next = append(next, list[:pos]...)
	next = append(next, to)
	next = append(next, list[pos:]...)
	m.connections[from] = next
}

// SetMoveValidator installs the canal passability check used by the
// unit-aware queries.
func (m *GameMap) SetMoveValidator(v MoveValidator) { m.validator = v }

// MoveValidator returns the installed validator, possibly nil.
func (m *GameMap) MoveValidator() MoveValidator { return m.validator }

// Contains reports whether t was added to this map.
func (m *GameMap) Contains(t *core.Territory) bool {
	if t == nil {
		return false
	}
	_, ok := m.order[t]
	return ok
}

// Territory looks a territory up by its case-sensitive name.
func (m *GameMap) Territory(name string) (*core.Territory, bool) {
	t, ok := m.lookup[name]
	return t, ok
}

// MustTerritory is Territory for callers that treat a miss as a bug.
func (m *GameMap) MustTerritory(name string) *core.Territory {
	t, ok := m.lookup[name]
	if !ok {
		panic(fmt.Sprintf("gamemap: no territory named %q", name))
	}
	return t
}

// Territories returns all territories in declaration order.
func (m *GameMap) Territories() []*core.Territory {
	return append([]*core.Territory(nil), m.territories...)
}

// Len is the number of territories.
func (m *GameMap) Len() int { return len(m.territories) }

// TerritoriesMatching returns the territories accepted by match, in
// declaration order.
func (m *GameMap) TerritoriesMatching(match core.TerritoryMatch) []*core.Territory {
	var out []*core.Territory
	for _, t := range m.territories {
		if match.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// TerritoriesOwnedBy returns territories owned by player.
func (m *GameMap) TerritoriesOwnedBy(player string) []*core.Territory {
	return m.TerritoriesMatching(core.OwnedBy(player))
}

// IsAdjacent reports whether a and b share an edge.
func (m *GameMap) IsAdjacent(a, b *core.Territory) bool {
	set, ok := m.adjacent[a]
	if !ok {
		return false
	}
	_, ok = set[b]
	return ok
}

// Neighbors returns a fresh copy of t's neighbors. An unregistered territory
// is an error, unlike a registered territory with no neighbors.
func (m *GameMap) Neighbors(t *core.Territory) ([]*core.Territory, error) {
	list, ok := m.connections[t]
	if !ok {
		return nil, fmt.Errorf("neighbors of %s: %w", t, core.ErrUnknownTerritory)
	}
	return append([]*core.Territory{}, list...), nil
}

// NeighborsMatching filters t's neighbors with match.
func (m *GameMap) NeighborsMatching(t *core.Territory, match core.TerritoryMatch) ([]*core.Territory, error) {
	list, ok := m.connections[t]
	if !ok {
		return nil, fmt.Errorf("neighbors of %s: %w", t, core.ErrUnknownTerritory)
	}
	out := make([]*core.Territory, 0, len(list))
	for _, n := range list {
		if match.Matches(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// NeighborsAlongEdges filters t's neighbors with an edge-level predicate that
// sees both the source and the neighbor.
func (m *GameMap) NeighborsAlongEdges(t *core.Territory, match core.EdgeMatch) ([]*core.Territory, error) {
	list, ok := m.connections[t]
	if !ok {
		return nil, fmt.Errorf("neighbors of %s: %w", t, core.ErrUnknownTerritory)
	}
	out := make([]*core.Territory, 0, len(list))
	for _, n := range list {
		if match == nil || match(t, n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// NeighborsValidatingCanals returns neighbors accepted by match that units
// owned by player can also legally cross into.
func (m *GameMap) NeighborsValidatingCanals(t *core.Territory, match core.TerritoryMatch, units []*core.Unit, player string) ([]*core.Territory, error) {
	return m.NeighborsAlongEdges(t, func(from, to *core.Territory) bool {
		if !match.Matches(to) {
			return false
		}
		return m.validator == nil || m.validator.CanCross(from, to, units, player)
	})
}

// NeighborsWithin returns every territory reachable from t in at most
// distance steps using only territories accepted by match. t itself is never
// part of the result.
func (m *GameMap) NeighborsWithin(t *core.Territory, distance int, match core.TerritoryMatch) ([]*core.Territory, error) {
	return m.expand(t, distance, match, false)
}

// NeighborsWithinIgnoreEnd is NeighborsWithin where match only gates the
// intermediate territories; the final step may land anywhere.
func (m *GameMap) NeighborsWithinIgnoreEnd(t *core.Territory, distance int, match core.TerritoryMatch) ([]*core.Territory, error) {
	return m.expand(t, distance, match, true)
}

func (m *GameMap) expand(origin *core.Territory, distance int, match core.TerritoryMatch, ignoreEnd bool) ([]*core.Territory, error) {
	if distance < 0 {
		return nil, fmt.Errorf("neighbors of %s within %d: %w", origin, distance, core.ErrNegativeDistance)
	}
	if _, ok := m.connections[origin]; !ok {
		return nil, fmt.Errorf("neighbors of %s: %w", origin, core.ErrUnknownTerritory)
	}
	if distance == 0 {
		return []*core.Territory{}, nil
	}

	visited := map[*core.Territory]struct{}{origin: {}}
	var found []*core.Territory
	frontier := []*core.Territory{origin}

	for step := 1; step <= distance && len(frontier) > 0; step++ {
		last := step == distance
		var next []*core.Territory
		for _, cur := range frontier {
			for _, n := range m.connections[cur] {
				if _, seen := visited[n]; seen {
					continue
				}
				ok := match.Matches(n)
				if !ok && !ignoreEnd {
					continue
				}
				visited[n] = struct{}{}
				found = append(found, n)
				// Territories failing match may still end a path but never
				// carry the search further.
				if ok && !last {
					next = append(next, n)
				}
			}
		}
		frontier = next
	}
	return found, nil
}

// Distance is the hop count of the shortest path from a to b crossing only
// territories accepted by match (b included). It is 0 when a == b and -1 when
// no such path exists.
func (m *GameMap) Distance(a, b *core.Territory, match core.TerritoryMatch) int {
	return m.distance(a, b, match, false)
}

// DistanceIgnoreEnd is Distance where b itself need not match.
func (m *GameMap) DistanceIgnoreEnd(a, b *core.Territory, match core.TerritoryMatch) int {
	return m.distance(a, b, match, true)
}

func (m *GameMap) distance(a, b *core.Territory, match core.TerritoryMatch, ignoreEnd bool) int {
	if a == b {
		return 0
	}
	if !m.Contains(a) || !m.Contains(b) {
		return -1
	}
	visited := map[*core.Territory]struct{}{a: {}}
	frontier := []*core.Territory{a}
	for dist := 1; len(frontier) > 0; dist++ {
		var next []*core.Territory
		for _, cur := range frontier {
			for _, n := range m.connections[cur] {
				if _, seen := visited[n]; seen {
					continue
				}
				if n == b && (ignoreEnd || match.Matches(n)) {
					return dist
				}
				if !match.Matches(n) {
					continue
				}
				visited[n] = struct{}{}
				next = append(next, n)
			}
		}
		frontier = next
	}
	return -1
}

// Route returns the fewest-hop route from start to end through territories
// accepted by match.
func (m *GameMap) Route(start, end *core.Territory, match core.TerritoryMatch) (*Route, bool) {
	return NewRouteFinder(m, match).FindRouteByDistance(start, end)
}

// RouteIgnoreEnd is Route where end need not match.
func (m *GameMap) RouteIgnoreEnd(start, end *core.Territory, match core.TerritoryMatch) (*Route, bool) {
	if end == nil {
		return nil, false
	}
	return NewRouteFinder(m, core.Any(match, core.NameIs(end.Name()))).FindRouteByDistance(start, end)
}

// RouteForUnits is Route with canal passability checked for units moved by
// player.
func (m *GameMap) RouteForUnits(start, end *core.Territory, match core.TerritoryMatch, units []*core.Unit, player string) (*Route, bool) {
	return NewRouteFinder(m, match, WithUnits(units, player)).FindRouteByDistance(start, end)
}

// RouteByCost returns the route with the lowest movement cost for units.
func (m *GameMap) RouteByCost(start, end *core.Territory, match core.TerritoryMatch, units []*core.Unit, player string) (*Route, bool) {
	return NewRouteFinder(m, match, WithUnits(units, player), WithCost(UnitsCost(units))).FindRouteByCost(start, end)
}

// IsValidRoute reports whether every consecutive pair of the route's
// territories is adjacent on this map.
func (m *GameMap) IsValidRoute(r *Route) bool {
	if r == nil || !m.Contains(r.Start()) {
		return false
	}
	all := r.AllTerritories()
	for i := 1; i < len(all); i++ {
		if !m.IsAdjacent(all[i-1], all[i]) {
			return false
		}
	}
	return true
}

// Edge is one undirected connection, named by its endpoints.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Edges lists every connection once, with From declared before To.
func (m *GameMap) Edges() []Edge {
	var out []Edge
	for _, t := range m.territories {
		for _, n := range m.connections[t] {
			if m.order[n] > m.order[t] {
				out = append(out, Edge{From: t.Name(), To: n.Name()})
			}
		}
	}
	return out
}
