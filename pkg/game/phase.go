package game

// Phase of a match session
type Phase int

const (
	Idle Phase = iota
	SigningUp
	Voting
	FormingTeams
	InProgress
	Reporting
)

var PhaseNames = map[Phase]string{
	Idle:         "IDLE",
	SigningUp:    "SIGNING_UP",
	Voting:       "VOTING",
	FormingTeams: "FORMING_TEAMS",
	InProgress:   "IN_PROGRESS",
	Reporting:    "REPORTING",
}

func (phase Phase) String() string {
	if s, ok := PhaseNames[phase]; ok {
		return s
	}
	return "UNKNOWN"
}

// Cancellable reports whether a session in this phase may be torn down by cancel.
func (phase Phase) Cancellable() bool {
	return phase != Idle && phase != Reporting
}
