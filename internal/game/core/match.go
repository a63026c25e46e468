package core

// TerritoryMatch filters territories.
type TerritoryMatch func(t *Territory) bool

// EdgeMatch filters a directed step between two adjacent territories.
type EdgeMatch func(from, to *Territory) bool

// Matches reports whether m accepts t. A nil match accepts everything.
func (m TerritoryMatch) Matches(t *Territory) bool {
	return m == nil || m(t)
}

// AnyTerritory accepts every territory.
func AnyTerritory(*Territory) bool { return true }

// IsLand accepts land territories.
func IsLand(t *Territory) bool { return !t.IsWater() }

// IsWater accepts sea zones.
func IsWater(t *Territory) bool { return t.IsWater() }

// OwnedBy accepts territories owned by player.
func OwnedBy(player string) TerritoryMatch {
	return func(t *Territory) bool { return t.Owner() == player }
}

// NameIs accepts exactly the listed territory names.
func NameIs(names ...string) TerritoryMatch {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(t *Territory) bool {
		_, ok := set[t.Name()]
		return ok
	}
}

// Not negates a match.
func Not(m TerritoryMatch) TerritoryMatch {
	return func(t *Territory) bool { return !m.Matches(t) }
}

// All accepts a territory only if every match does.
func All(ms ...TerritoryMatch) TerritoryMatch {
	return func(t *Territory) bool {
		for _, m := range ms {
			if !m.Matches(t) {
				return false
			}
		}
		return true
	}
}

// Any accepts a territory if at least one match does.
func Any(ms ...TerritoryMatch) TerritoryMatch {
	return func(t *Territory) bool {
		for _, m := range ms {
			if m.Matches(t) {
				return true
			}
		}
		return false
	}
}
