// Package mapgen generates grid-shaped game maps with a deterministic RNG.
package mapgen

import (
	"fmt"
	"math/rand"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
	"github.com/mitchelldurbincs/wargame/internal/game/gamemap"
)

// MapConfig holds configuration for map generation
type MapConfig struct {
	Width             int
	Height            int
	PlayerCount       int
	WaterRatio        int // 1 sea zone per N tiles, 0 for none
	RoughRatio        int // 1 rough land territory per N tiles, 0 for none
	RoughCost         int
	MinCapitalSpacing int
}

// DefaultMapConfig returns a sensible default configuration
func DefaultMapConfig(w, h, players int) MapConfig {
	return MapConfig{
		Width:             w,
		Height:            h,
		PlayerCount:       players,
		WaterRatio:        6,
		RoughRatio:        8,
		RoughCost:         2,
		MinCapitalSpacing: 3,
	}
}

// Generator handles map generation with deterministic RNG
type Generator struct {
	config MapConfig
	rng    *rand.Rand
}

// NewGenerator creates a new map generator
func NewGenerator(config MapConfig, rng *rand.Rand) *Generator {
	return &Generator{
		config: config,
		rng:    rng,
	}
}

// TerritoryName is the name of the grid cell at x, y.
func TerritoryName(x, y int) string {
	return fmt.Sprintf("%d,%d", x, y)
}

// PlayerName is the owner name given to the n-th player's capital.
func PlayerName(n int) string {
	return fmt.Sprintf("Player %d", n+1)
}

// GenerateMap creates a grid map where every cell is connected to its
// orthogonal neighbors, then places rough terrain and one capital per player.
func (g *Generator) GenerateMap() (*gamemap.GameMap, []CapitalPlacement) {
	w, h := g.config.Width, g.config.Height
	water := g.placeWater(w * h)

	m := gamemap.New()
	cells := make([]*core.Territory, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			cells[idx] = core.NewTerritory(TerritoryName(x, y), water[idx])
			if err := m.AddTerritory(cells[idx]); err != nil {
				panic(err)
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if x+1 < w {
				g.connect(m, cells[idx], cells[idx+1])
			}
			if y+1 < h {
				g.connect(m, cells[idx], cells[idx+w])
			}
		}
	}

	g.placeRough(cells)
	return m, g.placeCapitals(m, cells)
}

func (g *Generator) connect(m *gamemap.GameMap, a, b *core.Territory) {
	if err := m.AddConnection(a, b); err != nil {
		panic(err)
	}
}

func (g *Generator) placeWater(n int) []bool {
	water := make([]bool, n)
	if g.config.WaterRatio <= 0 {
		return water
	}
	want := n / g.config.WaterRatio
	placed := 0

	// Use a maximum attempt counter to avoid infinite loops
	maxAttempts := want * 10
	for attempts := 0; placed < want && attempts < maxAttempts; attempts++ {
		idx := g.rng.Intn(n)
		if !water[idx] {
			water[idx] = true
			placed++
		}
	}
	return water
}

func (g *Generator) placeRough(cells []*core.Territory) {
	if g.config.RoughRatio <= 0 {
		return
	}
	want := len(cells) / g.config.RoughRatio
	placed := 0

	maxAttempts := want * 10
	for attempts := 0; placed < want && attempts < maxAttempts; attempts++ {
		t := cells[g.rng.Intn(len(cells))]
		if !t.IsWater() && t.MovementCost() == 1 {
			t.SetMovementCost(g.config.RoughCost)
			placed++
		}
	}
}

func (g *Generator) placeCapitals(m *gamemap.GameMap, cells []*core.Territory) []CapitalPlacement {
	placements := make([]CapitalPlacement, 0, g.config.PlayerCount)

	for pid := 0; pid < g.config.PlayerCount; pid++ {
		placement := g.findCapitalLocation(m, cells, placements)
		placement.Territory.SetOwner(placement.Player)
		placements = append(placements, placement)
	}

	return placements
}

func (g *Generator) findCapitalLocation(m *gamemap.GameMap, cells []*core.Territory, existing []CapitalPlacement) CapitalPlacement {
	w := g.config.Width
	player := PlayerName(len(existing))
	maxAttempts := len(cells) // Fallback to prevent infinite loops

	for attempts := 0; attempts < maxAttempts; attempts++ {
		idx := g.rng.Intn(len(cells))
		t := cells[idx]
		if t.IsWater() || !t.IsNeutral() {
			continue
		}

		// Check minimum distance from existing capitals
		validLocation := true
		for _, other := range existing {
			if d := m.Distance(t, other.Territory, core.AnyTerritory); d >= 0 && d < g.config.MinCapitalSpacing {
				validLocation = false
				break
			}
		}

		if validLocation {
			return CapitalPlacement{Player: player, Territory: t, X: idx % w, Y: idx / w}
		}
	}

	// Fallback: place anywhere valid (shouldn't happen with reasonable configs)
	for idx, t := range cells {
		if !t.IsWater() && t.IsNeutral() {
			return CapitalPlacement{Player: player, Territory: t, X: idx % w, Y: idx / w}
		}
	}

	panic("Unable to place capital - no free land territory")
}

// CapitalPlacement tracks where a player's capital was placed
type CapitalPlacement struct {
	Player    string
	Territory *core.Territory
	X, Y      int
}
