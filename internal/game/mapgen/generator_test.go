package mapgen

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/wargame/internal/game/core"
	"github.com/mitchelldurbincs/wargame/internal/testutil"
)

// newTestRNG provides a random number generator with a fixed seed for deterministic tests.
func newTestRNG() *rand.Rand {
	return rand.New(rand.NewSource(12345))
}

func countWater(cells []bool) int {
	n := 0
	for _, w := range cells {
		if w {
			n++
		}
	}
	return n
}

func TestDefaultMapConfig(t *testing.T) {
	w, h, players := 20, 15, 2
	config := DefaultMapConfig(w, h, players)

	assert.Equal(t, w, config.Width, "Width should be set correctly")
	assert.Equal(t, h, config.Height, "Height should be set correctly")
	assert.Equal(t, players, config.PlayerCount, "PlayerCount should be set correctly")
	assert.Equal(t, 6, config.WaterRatio, "Default WaterRatio is unexpected")
	assert.Equal(t, 8, config.RoughRatio, "Default RoughRatio is unexpected")
	assert.Equal(t, 2, config.RoughCost, "Default RoughCost is unexpected")
	assert.Equal(t, 3, config.MinCapitalSpacing, "Default MinCapitalSpacing is unexpected")
}

func TestNewGenerator(t *testing.T) {
	config := DefaultMapConfig(10, 10, 1)
	rng := newTestRNG()
	generator := NewGenerator(config, rng)

	require.NotNil(t, generator)
	assert.Equal(t, config, generator.config)
	assert.Same(t, rng, generator.rng)
}

func TestPlaceWater(t *testing.T) {
	t.Run("BasicWaterPlacement", func(t *testing.T) {
		config := DefaultMapConfig(10, 10, 0)
		config.WaterRatio = 5
		generator := NewGenerator(config, newTestRNG())

		assert.Equal(t, 20, countWater(generator.placeWater(100)))
	})

	t.Run("NoWaterWhenRatioIsZero", func(t *testing.T) {
		config := DefaultMapConfig(10, 10, 0)
		config.WaterRatio = 0
		generator := NewGenerator(config, newTestRNG())

		assert.Zero(t, countWater(generator.placeWater(100)))
	})
}

func TestPlaceRough(t *testing.T) {
	t.Run("RoughOnlyOnLand", func(t *testing.T) {
		config := DefaultMapConfig(12, 12, 0)
		config.RoughCost = 3
		m, _ := NewGenerator(config, newTestRNG()).GenerateMap()

		rough := 0
		for _, terr := range m.Territories() {
			if terr.MovementCost() > 1 {
				assert.False(t, terr.IsWater(), "%s is rough water", terr.Name())
				assert.Equal(t, 3, terr.MovementCost())
				rough++
			}
		}
		assert.Positive(t, rough)
	})

	t.Run("ExactCountWithoutWater", func(t *testing.T) {
		config := DefaultMapConfig(10, 10, 0)
		config.WaterRatio = 0
		config.RoughRatio = 10
		m, _ := NewGenerator(config, newTestRNG()).GenerateMap()

		rough := m.TerritoriesMatching(func(terr *core.Territory) bool { return terr.MovementCost() > 1 })
		assert.Len(t, rough, 10)
	})
}

func TestPlaceCapitals(t *testing.T) {
	t.Run("BasicCapitalPlacementAndSpacing", func(t *testing.T) {
		config := DefaultMapConfig(12, 12, 3)
		m, capitals := NewGenerator(config, newTestRNG()).GenerateMap()
		require.Len(t, capitals, 3)

		for i, c := range capitals {
			assert.Equal(t, PlayerName(i), c.Player)
			assert.Equal(t, c.Player, c.Territory.Owner())
			assert.False(t, c.Territory.IsWater())
			assert.Equal(t, TerritoryName(c.X, c.Y), c.Territory.Name())
			for _, other := range capitals[:i] {
				d := m.Distance(c.Territory, other.Territory, core.AnyTerritory)
				assert.GreaterOrEqual(t, d, config.MinCapitalSpacing, "%s too close to %s", c.Player, other.Player)
			}
		}
		assert.Len(t, m.TerritoriesOwnedBy(PlayerName(0)), 1)
	})

	t.Run("NoPlayers", func(t *testing.T) {
		_, capitals := NewGenerator(DefaultMapConfig(5, 5, 0), newTestRNG()).GenerateMap()
		assert.Empty(t, capitals)
	})

	t.Run("PanicOnNoLand", func(t *testing.T) {
		config := DefaultMapConfig(1, 1, 1)
		config.WaterRatio = 1
		generator := NewGenerator(config, newTestRNG())

		testutil.AssertPanicContains(t, "no free land territory", func() { generator.GenerateMap() })
	})

	t.Run("FallbackWhenSpacingIsImpossible", func(t *testing.T) {
		config := DefaultMapConfig(2, 1, 2)
		config.WaterRatio = 0
		config.MinCapitalSpacing = 10
		_, capitals := NewGenerator(config, newTestRNG()).GenerateMap()

		require.Len(t, capitals, 2)
		assert.NotEqual(t, capitals[0].Territory, capitals[1].Territory)
	})
}

func TestGenerateMap_FullIntegration(t *testing.T) {
	config := DefaultMapConfig(8, 6, 2)
	m, capitals := NewGenerator(config, newTestRNG()).GenerateMap()

	assert.Equal(t, 48, m.Len())

	corner := m.MustTerritory(TerritoryName(0, 0))
	n, err := m.Neighbors(corner)
	require.NoError(t, err)
	assert.Len(t, n, 2)

	inner := m.MustTerritory(TerritoryName(3, 3))
	n, err = m.Neighbors(inner)
	require.NoError(t, err)
	assert.Len(t, n, 4)
	assert.True(t, m.IsAdjacent(inner, m.MustTerritory(TerritoryName(3, 2))))
	assert.False(t, m.IsAdjacent(inner, m.MustTerritory(TerritoryName(4, 4))))

	// Same seed, same map.
	again, againCapitals := NewGenerator(config, newTestRNG()).GenerateMap()
	for _, terr := range m.Territories() {
		other := again.MustTerritory(terr.Name())
		assert.Equal(t, terr.IsWater(), other.IsWater(), terr.Name())
		assert.Equal(t, terr.MovementCost(), other.MovementCost(), terr.Name())
	}
	for i := range capitals {
		assert.Equal(t, capitals[i].Territory.Name(), againCapitals[i].Territory.Name())
	}
}
