package state

import (
	"sort"
	"strconv"
)

// GameProperties is the scenario's option bag ("Low Luck", "Rounds", ...).
// Values are stored as strings and parsed on read.
type GameProperties struct {
	values   map[string]string
	editable map[string]bool
}

func newGameProperties() *GameProperties {
	return &GameProperties{values: make(map[string]string), editable: make(map[string]bool)}
}

// Set stores a property during setup. Editable properties may be changed by
// players before the game starts.
func (gp *GameProperties) Set(key, value string, editable bool) {
	gp.values[key] = value
	gp.editable[key] = editable
}

// Get returns the raw value.
func (gp *GameProperties) Get(key string) (string, bool) {
	v, ok := gp.values[key]
	return v, ok
}

func (gp *GameProperties) String(key, fallback string) string {
	if v, ok := gp.values[key]; ok {
		return v
	}
	return fallback
}

func (gp *GameProperties) Bool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(gp.values[key]); err == nil {
		return b
	}
	return fallback
}

func (gp *GameProperties) Int(key string, fallback int) int {
	if n, err := strconv.Atoi(gp.values[key]); err == nil {
		return n
	}
	return fallback
}

// IsEditable reports whether key was registered as editable.
func (gp *GameProperties) IsEditable(key string) bool { return gp.editable[key] }

// Keys returns every property name, sorted.
func (gp *GameProperties) Keys() []string {
	keys := make([]string, 0, len(gp.values))
	for k := range gp.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
