package game

import (
	"math/rand"
	"strings"

	"golang.org/x/exp/slices"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type MapType string

const (
	Competitive MapType = "Competitive"
	AllMaps     MapType = "All"
	TDMMaps     MapType = "TDM"
)

// MapsPerVote is how many candidate maps a map vote offers
const MapsPerVote = 3

var OfficialPool = []string{"haven", "sunset", "ascent", "abyss", "pearl", "bind", "split"}

var AllPool = []string{"bind", "haven", "split", "ascent", "icebox", "breeze", "fracture", "pearl", "lotus", "sunset", "abyss"}

var TDMPool = []string{"district", "drift", "glitch", "kasbah", "piazza"}

var mapAliases = map[string]string{
	"ice box":   "icebox",
	"the abyss": "abyss",
	"fracc":     "fracture",
}

var titler = cases.Title(language.English)

func Pool(t MapType) []string {
	switch t {
	case Competitive:
		return OfficialPool
	case TDMMaps:
		return TDMPool
	default:
		return AllPool
	}
}

// NormalizeMapName lowercases a map name and resolves the aliases the match API or players use.
func NormalizeMapName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := mapAliases[n]; ok {
		return alias
	}
	return n
}

func SameMap(a, b string) bool {
	return NormalizeMapName(a) == NormalizeMapName(b)
}

func DisplayMapName(name string) string {
	return titler.String(NormalizeMapName(name))
}

// RandomMaps samples n distinct maps from the pool.
func RandomMaps(rng *rand.Rand, t MapType, n int) []string {
	pool := slices.Clone(Pool(t))
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n]
}
