package team

import (
	"errors"
	"math/rand"

	"golang.org/x/exp/slices"
)

const (
	DefaultTeamCap = 5
	captainPool    = 5
)

var captainWeights = []int{5, 4, 3, 2, 1}

var ErrSameCaptain = errors.New("captains must be two different players")

type PickStatus int

const (
	PickAccepted PickStatus = iota
	PickNotYourTurn
	PickUnavailable
	PickStyleNotChosen
	PickDraftOver
)

type StyleStatus int

const (
	StyleAccepted StyleStatus = iota
	StyleNotSecondCaptain
	StyleAlreadyChosen
)

// PickCaptains draws two distinct captains from the five highest rated players, weighted 5,4,3,2,1.
func PickCaptains(players []Player, rng *rand.Rand) (Player, Player, error) {
	if len(players) < 2 {
		return Player{}, Player{}, ErrNotEnoughPlayers
	}
	top := ByRating(players)
	if len(top) > captainPool {
		top = top[:captainPool]
	}
	weights := slices.Clone(captainWeights[:len(top)])

	i := weightedIndex(rng, weights)
	c1 := top[i]
	top = slices.Delete(top, i, i+1)
	weights = slices.Delete(weights, i, i+1)

	c2 := top[weightedIndex(rng, weights)]
	return c1, c2, nil
}

func weightedIndex(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	r := rng.Intn(total)
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}

// PickOrder is the sequence of captain turns; single pick opens with the second captain, double pick is its mirror.
func PickOrder(c1, c2 string, double bool) []string {
	if double {
		return []string{c1, c2, c2, c1, c1, c2, c2, c1}
	}
	return []string{c2, c1, c1, c2, c2, c1, c1, c2}
}

type Draft struct {
	Captain1 Player
	Captain2 Player

	team1 []Player
	team2 []Player
	pool  []Player
	order []string
	step  int
	cap   int
}

func NewDraft(players []Player, c1, c2 Player, teamCap int) (*Draft, error) {
	if c1.UserID == c2.UserID {
		return nil, ErrSameCaptain
	}
	if teamCap <= 0 {
		teamCap = DefaultTeamCap
	}
	d := Draft{
		Captain1: c1,
		Captain2: c2,
		team1:    []Player{c1},
		team2:    []Player{c2},
		cap:      teamCap,
	}
	for _, p := range players {
		if p.UserID != c1.UserID && p.UserID != c2.UserID {
			d.pool = append(d.pool, p)
		}
	}
	return &d, nil
}

func (d *Draft) StyleChosen() bool {
	return d.order != nil
}

// SetStyle is only open to the second captain, once.
func (d *Draft) SetStyle(chooserID string, double bool) StyleStatus {
	if chooserID != d.Captain2.UserID {
		return StyleNotSecondCaptain
	}
	if d.StyleChosen() {
		return StyleAlreadyChosen
	}
	d.order = PickOrder(d.Captain1.UserID, d.Captain2.UserID, double)
	d.skipFull()
	return StyleAccepted
}

// Current is the captain whose turn it is, or "" when no pick is pending.
func (d *Draft) Current() string {
	if !d.StyleChosen() || d.Done() {
		return ""
	}
	return d.order[d.step]
}

func (d *Draft) full(captainID string) bool {
	if captainID == d.Captain1.UserID {
		return len(d.team1) >= d.cap
	}
	return len(d.team2) >= d.cap
}

func (d *Draft) skipFull() {
	for d.step < len(d.order) && d.full(d.order[d.step]) {
		d.step++
	}
}

func (d *Draft) Done() bool {
	if len(d.pool) == 0 {
		return true
	}
	if d.StyleChosen() && d.step >= len(d.order) {
		return true
	}
	return len(d.team1) >= d.cap && len(d.team2) >= d.cap
}

func (d *Draft) Pick(captainID, playerID string) PickStatus {
	if d.Done() {
		return PickDraftOver
	}
	if !d.StyleChosen() {
		return PickStyleNotChosen
	}
	if d.order[d.step] != captainID {
		return PickNotYourTurn
	}
	idx := slices.IndexFunc(d.pool, func(p Player) bool {
		return p.UserID == playerID
	})
	if idx < 0 {
		return PickUnavailable
	}

	picked := d.pool[idx]
	d.pool = slices.Delete(d.pool, idx, idx+1)
	if captainID == d.Captain1.UserID {
		d.team1 = append(d.team1, picked)
	} else {
		d.team2 = append(d.team2, picked)
	}
	d.step++
	d.skipFull()
	return PickAccepted
}

// Finish hands any undrafted players to the smaller team, team 1 on ties.
func (d *Draft) Finish() Teams {
	for _, p := range d.pool {
		if len(d.team1) <= len(d.team2) {
			d.team1 = append(d.team1, p)
		} else {
			d.team2 = append(d.team2, p)
		}
	}
	d.pool = nil
	return d.Teams()
}

func (d *Draft) Teams() Teams {
	return Teams{
		Team1: slices.Clone(d.team1),
		Team2: slices.Clone(d.team2),
	}
}

func (d *Draft) Pool() []Player {
	return slices.Clone(d.pool)
}

func (d *Draft) IsCaptain(userID string) bool {
	return userID == d.Captain1.UserID || userID == d.Captain2.UserID
}
