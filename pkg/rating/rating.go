package rating

import (
	"fmt"
	"math"
	"strings"
)

type Outcome int

const (
	Loss Outcome = iota
	Win
)

func (o Outcome) String() string {
	if o == Win {
		return "win"
	}
	return "loss"
}

const (
	DefaultMMR = 1000
	KFactor    = 32

	// extended form scale
	baseScale  = 16
	baseOffset = 2

	// TDM clamps on the magnitude of a single change
	TDMMinChange = 25
	TDMMaxChange = 35

	MaxRoundDifferential = 13
)

type Formula string

const (
	Extended Formula = "extended"
	Simple   Formula = "simple"
)

func ParseFormula(str string) (Formula, error) {
	switch Formula(strings.ToLower(strings.TrimSpace(str))) {
	case Extended, "":
		return Extended, nil
	case Simple:
		return Simple, nil
	}
	return "", fmt.Errorf("unknown rating formula \"%s\"; expected extended or simple", str)
}

// Expected is the logistic win expectation of a team against an opponent.
func Expected(teamAvg, oppAvg float64) float64 {
	return 1 / (1 + math.Pow(10, (oppAvg-teamAvg)/400))
}

// RoundBonusTier maps an absolute round differential onto its bonus multiplier.
func RoundBonusTier(roundDiff int) int {
	if roundDiff < 0 {
		roundDiff = -roundDiff
	}
	switch {
	case roundDiff < 4:
		return 0
	case roundDiff < 7:
		return 1
	case roundDiff < 10:
		return 2
	case roundDiff < 13:
		return 3
	default:
		return 4
	}
}

func usable(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ComputeDelta is the extended standard-mode formula. Non-positive or non-finite team averages yield 0.
func ComputeDelta(outcome Outcome, teamAvg, oppAvg, performance float64, roundDiff int) int {
	if !usable(teamAvg, oppAvg, performance) || teamAvg <= 0 || oppAvg <= 0 {
		return 0
	}
	if performance < 0 {
		performance = 0
	}
	tier := float64(RoundBonusTier(roundDiff))

	if outcome == Win {
		ratio := oppAvg / teamAvg
		base := ratio*baseScale + math.Floor(ratio*performance/100) - baseOffset
		return int(math.Floor(base + tier*ratio))
	}
	ratio := teamAvg / oppAvg
	base := -(ratio*baseScale + math.Floor(ratio*performance/100) - baseOffset)
	return int(math.Floor(base - tier*ratio))
}

// SimpleDelta is the legacy symmetric K=32 Elo change.
func SimpleDelta(outcome Outcome, teamAvg, oppAvg float64) int {
	if !usable(teamAvg, oppAvg) || teamAvg <= 0 || oppAvg <= 0 {
		return 0
	}
	e := Expected(teamAvg, oppAvg)
	if outcome == Win {
		return int(math.Round(KFactor * (1 - e)))
	}
	return int(math.Round(KFactor * (0 - e)))
}

// PerformanceModifier scales a TDM change by the average of recent K/D values.
func PerformanceModifier(history []float64) float64 {
	if len(history) == 0 {
		return 1.0
	}
	sum := 0.0
	for _, v := range history {
		sum += v
	}
	avg := sum / float64(len(history))
	return clamp(1.0+(avg-1.0)*0.2, 0.8, 1.2)
}

// UncertaintyModifier decays as a player accumulates matches.
func UncertaintyModifier(matchesPlayed int) float64 {
	switch {
	case matchesPlayed < 10:
		return 1.5
	case matchesPlayed < 20:
		return 1.25
	case matchesPlayed < 30:
		return 1.1
	default:
		return 1.0
	}
}

// TDMDelta is the team-deathmatch change; its magnitude always lands in [TDMMinChange, TDMMaxChange].
func TDMDelta(outcome Outcome, teamAvg, oppAvg float64, kdHistory []float64, matchesPlayed int) int {
	if !usable(teamAvg, oppAvg) || teamAvg <= 0 || oppAvg <= 0 {
		return 0
	}
	e := Expected(teamAvg, oppAvg)
	mod := PerformanceModifier(kdHistory) * UncertaintyModifier(matchesPlayed)

	if outcome == Win {
		raw := KFactor * (1 - e) * mod
		return int(math.Round(clamp(raw, TDMMinChange, TDMMaxChange)))
	}
	raw := KFactor * (0 - e) * mod
	return int(math.Round(clamp(raw, -TDMMaxChange, -TDMMinChange)))
}

// Apply adds delta to mmr; mmr never drops below 0.
func Apply(mmr, delta int) int {
	if mmr+delta < 0 {
		return 0
	}
	return mmr + delta
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
