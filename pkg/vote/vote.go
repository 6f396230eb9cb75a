package vote

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const DefaultWindow = 25 * time.Second

type Outcome int

const (
	Accepted Outcome = iota
	NotEligible
	AlreadyVoted
	InvalidOption
	Closed
)

var OutcomeStrings = map[Outcome]string{
	Accepted:      "accepted",
	NotEligible:   "not_eligible",
	AlreadyVoted:  "already_voted",
	InvalidOption: "invalid_option",
	Closed:        "closed",
}

func (o Outcome) String() string {
	return OutcomeStrings[o]
}

// Quorum is the vote count that closes a phase before its window runs out: a strict majority of expected voters.
func Quorum(expected int) int {
	return expected/2 + 1
}

type Tally map[string]int

type Result struct {
	Phase     string
	Winner    string
	Tally     Tally
	ByQuorum  bool
	Random    bool
	VoteCount int
}

type Config struct {
	Name     string
	Options  []string
	Eligible []string
	Quorum   int
	Window   time.Duration
	Rand     *rand.Rand

	// OnChange runs on the consumer goroutine after every accepted vote
	OnChange func(Tally)
}

type ballot struct {
	voterID string
	option  string
	reply   chan Outcome
}

// Phase is one vote. All tally mutation happens on the goroutine running Run; Cast only enqueues.
type Phase struct {
	cfg      Config
	eligible map[string]struct{}
	ballots  chan ballot
	done     chan struct{}

	mu       sync.Mutex
	tally    Tally
	voted    map[string]struct{}
	resolved bool
	result   *Result
}

func New(cfg Config) *Phase {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Quorum <= 0 {
		cfg.Quorum = Quorum(len(cfg.Eligible))
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	p := Phase{
		cfg:      cfg,
		eligible: make(map[string]struct{}, len(cfg.Eligible)),
		ballots:  make(chan ballot),
		done:     make(chan struct{}),
		tally:    make(Tally, len(cfg.Options)),
		voted:    map[string]struct{}{},
	}
	for _, id := range cfg.Eligible {
		p.eligible[id] = struct{}{}
	}
	for _, o := range cfg.Options {
		p.tally[o] = 0
	}
	return &p
}

func (p *Phase) Name() string {
	return p.cfg.Name
}

func (p *Phase) Options() []string {
	return slices.Clone(p.cfg.Options)
}

// Cast blocks until the consumer has applied or rejected the ballot.
func (p *Phase) Cast(voterID, option string) Outcome {
	b := ballot{voterID: voterID, option: option, reply: make(chan Outcome, 1)}
	select {
	case p.ballots <- b:
	case <-p.done:
		return Closed
	}
	select {
	case o := <-b.reply:
		return o
	case <-p.done:
		return Closed
	}
}

func (p *Phase) Snapshot() Tally {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.tally)
}

func (p *Phase) Resolved() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolved
}

// Done is closed once the phase has resolved.
func (p *Phase) Done() <-chan struct{} {
	return p.done
}

// Run consumes ballots until quorum, the window elapses, or ctx ends. Cancelling ctx resolves like a timeout.
func (p *Phase) Run(ctx context.Context) Result {
	timer := time.NewTimer(p.cfg.Window)
	defer timer.Stop()

	for {
		select {
		case b := <-p.ballots:
			out, winner := p.apply(b)
			b.reply <- out
			if out == Accepted && p.cfg.OnChange != nil {
				p.cfg.OnChange(p.Snapshot())
			}
			if winner != "" {
				return p.resolve(winner, true, false)
			}
		case <-timer.C:
			winner, random := p.pickWinner()
			return p.resolve(winner, false, random)
		case <-ctx.Done():
			winner, random := p.pickWinner()
			return p.resolve(winner, false, random)
		}
	}
}

func (p *Phase) apply(b ballot) (Outcome, string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.resolved {
		return Closed, ""
	}
	if _, ok := p.eligible[b.voterID]; !ok {
		return NotEligible, ""
	}
	if _, ok := p.voted[b.voterID]; ok {
		return AlreadyVoted, ""
	}
	if _, ok := p.tally[b.option]; !ok {
		return InvalidOption, ""
	}
	p.voted[b.voterID] = struct{}{}
	p.tally[b.option]++
	if p.tally[b.option] >= p.cfg.Quorum {
		return Accepted, b.option
	}
	return Accepted, ""
}

// pickWinner takes the most voted option with a uniform tiebreak; with no votes at all any option may win.
func (p *Phase) pickWinner() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	best := -1
	var leaders []string
	for _, o := range p.cfg.Options {
		c := p.tally[o]
		if c > best {
			best = c
			leaders = []string{o}
		} else if c == best {
			leaders = append(leaders, o)
		}
	}
	if len(leaders) == 0 {
		return "", true
	}
	return leaders[p.cfg.Rand.Intn(len(leaders))], best == 0
}

func (p *Phase) resolve(winner string, byQuorum, random bool) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resolved = true
	p.result = &Result{
		Phase:     p.cfg.Name,
		Winner:    winner,
		Tally:     maps.Clone(p.tally),
		ByQuorum:  byQuorum,
		Random:    random,
		VoteCount: len(p.voted),
	}
	close(p.done)
	return *p.result
}

// Result is nil until the phase resolves.
func (p *Phase) Result() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.result == nil {
		return nil
	}
	r := *p.result
	return &r
}
