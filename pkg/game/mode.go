package game

import (
	"fmt"
	"strings"
)

type Mode string

const (
	Standard Mode = "standard"
	TDM      Mode = "tdm"
)

const (
	StandardCapacity = 10
	TDMCapacity      = 6
)

func ParseMode(str string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "", "standard", "10mans", "10-mans":
		return Standard, nil
	case "tdm", "deathmatch":
		return TDM, nil
	}
	return "", fmt.Errorf("unknown mode \"%s\"", str)
}

func (m Mode) Capacity() int {
	if m == TDM {
		return TDMCapacity
	}
	return StandardCapacity
}

func (m Mode) Label() string {
	if m == TDM {
		return "TDM"
	}
	return "10-Mans"
}

// Strategy is the team formation method picked by the mode vote
type Strategy string

const (
	Balanced Strategy = "Balanced"
	Captains Strategy = "Captains"
)

var StrategyOptions = []string{string(Balanced), string(Captains)}

var MapTypeOptions = []string{string(Competitive), string(AllMaps)}
