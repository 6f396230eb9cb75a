package team

import (
	"errors"
	"sort"

	"golang.org/x/exp/slices"
)

var ErrNotEnoughPlayers = errors.New("need at least two players to form teams")

type Player struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	MMR    int    `json:"mmr"`
}

type Teams struct {
	Team1 []Player `json:"team1"`
	Team2 []Player `json:"team2"`
}

func Sum(players []Player) int {
	total := 0
	for _, p := range players {
		total += p.MMR
	}
	return total
}

func IDs(players []Player) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.UserID
	}
	return ids
}

// Strategy partitions a queue into two teams in one shot.
type Strategy interface {
	Form(players []Player) (Teams, error)
}

type Balanced struct{}

// Form sorts by rating and hands each player to whichever team has the lower sum; ties go to team 1.
func (Balanced) Form(players []Player) (Teams, error) {
	if len(players) < 2 {
		return Teams{}, ErrNotEnoughPlayers
	}
	sorted := ByRating(players)

	var teams Teams
	sum1, sum2 := 0, 0
	for _, p := range sorted {
		if sum1 <= sum2 {
			teams.Team1 = append(teams.Team1, p)
			sum1 += p.MMR
		} else {
			teams.Team2 = append(teams.Team2, p)
			sum2 += p.MMR
		}
	}
	return teams, nil
}

// ByRating returns a copy sorted by rating, highest first. Equal ratings keep queue order.
func ByRating(players []Player) []Player {
	sorted := slices.Clone(players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MMR > sorted[j].MMR
	})
	return sorted
}
