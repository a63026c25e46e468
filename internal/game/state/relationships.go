package state

import (
	"sort"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
)

// Relationship is the state between two players.
type Relationship struct {
	Type         string `json:"type"`
	RoundCreated int    `json:"round_created"`
}

type playerPair struct{ a, b string }

func pairOf(p1, p2 string) playerPair {
	if p1 > p2 {
		p1, p2 = p2, p1
	}
	return playerPair{p1, p2}
}

// RelationshipTracker records the symmetric relationship between every pair
// of players. Pairs with no entry fall back to the default type.
type RelationshipTracker struct {
	types       *RelationshipTypeList
	defaultType string
	pairs       map[playerPair]Relationship
}

func newRelationshipTracker(types *RelationshipTypeList) *RelationshipTracker {
	return &RelationshipTracker{types: types, pairs: make(map[playerPair]Relationship)}
}

// SetDefaultType names the relationship type used for unrecorded pairs.
func (rt *RelationshipTracker) SetDefaultType(name string) { rt.defaultType = name }

// Relationship returns the relationship between p1 and p2.
func (rt *RelationshipTracker) Relationship(p1, p2 string) Relationship {
	if r, ok := rt.pairs[pairOf(p1, p2)]; ok {
		return r
	}
	return Relationship{Type: rt.defaultType}
}

// Type resolves the relationship type between p1 and p2.
func (rt *RelationshipTracker) Type(p1, p2 string) (*core.RelationshipType, bool) {
	return rt.types.Get(rt.Relationship(p1, p2).Type)
}

// IsAllied reports whether p1 and p2 are the same player or allied.
func (rt *RelationshipTracker) IsAllied(p1, p2 string) bool {
	if p1 == p2 {
		return true
	}
	t, ok := rt.Type(p1, p2)
	return ok && t.IsAllied()
}

// IsAtWar reports whether p1 and p2 are at war.
func (rt *RelationshipTracker) IsAtWar(p1, p2 string) bool {
	if p1 == p2 {
		return false
	}
	t, ok := rt.Type(p1, p2)
	return ok && t.IsWar()
}

// Allies returns every recorded ally of player, sorted.
func (rt *RelationshipTracker) Allies(player string) []string {
	var allies []string
	for pair := range rt.pairs {
		other := ""
		switch player {
		case pair.a:
			other = pair.b
		case pair.b:
			other = pair.a
		default:
			continue
		}
		if rt.IsAllied(player, other) {
			allies = append(allies, other)
		}
	}
	sort.Strings(allies)
	return allies
}

// Set records a relationship during game setup. In play, use RelationshipChange.
func (rt *RelationshipTracker) Set(p1, p2, typeName string, round int) {
	rt.set(p1, p2, Relationship{Type: typeName, RoundCreated: round})
}

func (rt *RelationshipTracker) set(p1, p2 string, r Relationship) {
	if r.Type == "" {
		delete(rt.pairs, pairOf(p1, p2))
		return
	}
	rt.pairs[pairOf(p1, p2)] = r
}

// AllianceTracker maps named alliances to their member players. It describes
// the scenario's teams and is fixed after setup.
type AllianceTracker struct {
	members map[string][]string
}

func newAllianceTracker() *AllianceTracker {
	return &AllianceTracker{members: make(map[string][]string)}
}

// AddToAlliance puts player into alliance. Adding twice is a no-op.
func (at *AllianceTracker) AddToAlliance(player, alliance string) {
	for _, p := range at.members[alliance] {
		if p == player {
			return
		}
	}
	at.members[alliance] = append(at.members[alliance], player)
}

// Members returns the players of alliance in the order they joined.
func (at *AllianceTracker) Members(alliance string) []string {
	return append([]string(nil), at.members[alliance]...)
}

// AlliancesOf returns every alliance player belongs to, sorted.
func (at *AllianceTracker) AlliancesOf(player string) []string {
	var out []string
	for name, members := range at.members {
		for _, p := range members {
			if p == player {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Alliances returns every alliance name, sorted.
func (at *AllianceTracker) Alliances() []string {
	out := make([]string, 0, len(at.members))
	for name := range at.members {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
