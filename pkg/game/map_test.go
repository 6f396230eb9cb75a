package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMapName(t *testing.T) {
	assert.Equal(t, "icebox", NormalizeMapName("Ice Box"))
	assert.Equal(t, "abyss", NormalizeMapName("The Abyss"))
	assert.Equal(t, "fracture", NormalizeMapName("fracc"))
	assert.Equal(t, "split", NormalizeMapName(" Split "))
	assert.True(t, SameMap("Bind", "bind"))
	assert.False(t, SameMap("Bind", "Split"))
	assert.Equal(t, "Icebox", DisplayMapName("ice box"))
}

func TestRandomMaps(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		maps := RandomMaps(rng, Competitive, MapsPerVote)
		assert.Len(t, maps, MapsPerVote)
		seen := map[string]bool{}
		for _, m := range maps {
			assert.Contains(t, OfficialPool, m)
			assert.False(t, seen[m], "duplicate map %s", m)
			seen[m] = true
		}
	}
	assert.Len(t, RandomMaps(rng, TDMMaps, 20), len(TDMPool))
	// the pool itself must not be reordered
	assert.Equal(t, "haven", OfficialPool[0])
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("TDM")
	assert.NoError(t, err)
	assert.Equal(t, TDM, m)
	assert.Equal(t, TDMCapacity, m.Capacity())

	m, err = ParseMode("")
	assert.NoError(t, err)
	assert.Equal(t, StandardCapacity, m.Capacity())

	_, err = ParseMode("spikerush")
	assert.Error(t, err)
}

func TestParseRegion(t *testing.T) {
	r, err := ParseRegion(" EU ")
	require.NoError(t, err)
	assert.Equal(t, EU, r)
	assert.Equal(t, "Europe", r.ToString())

	r, err = ParseRegion("")
	require.NoError(t, err)
	assert.Equal(t, NA, r)

	_, err = ParseRegion("mars")
	assert.Error(t, err)
}
