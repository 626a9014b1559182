package match

import (
	"time"
)

// Phase defines where a match is in its lifecycle. Transitions are
// one-directional except GameOver -> Setup (new match) and the mid-Play
// jump to GameOver on round cap or concession.
type Phase string

const (
	PhaseSetup          Phase = "SETUP"
	PhaseNameEntry      Phase = "NAME_ENTRY"
	PhaseDeploymentRoll Phase = "DEPLOYMENT_ROLL"
	PhaseFirstTurnRoll  Phase = "FIRST_TURN_ROLL"
	PhasePlay           Phase = "PLAY"
	PhaseGameOver       Phase = "GAME_OVER"
)

// TimerStatus defines the state of the match clock.
type TimerStatus string

const (
	TimerRunning TimerStatus = "RUNNING"
	TimerStopped TimerStatus = "STOPPED"
)

// Side identifies one of the two contestants. SideNone is only valid
// outside the Play phase.
type Side string

const (
	SideA    Side = "A"
	SideB    Side = "B"
	SideNone Side = ""
)

// Other returns the opposing side.
func (s Side) Other() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return SideNone
	}
}

// Valid reports whether s names a real contestant.
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// ScoreKind selects which score column an update targets.
type ScoreKind string

const (
	ScorePrimary   ScoreKind = "primary"
	ScoreSecondary ScoreKind = "secondary"
)

// Contestant holds one side's scoring and time account. TotalScore is
// derived; use SetScore so it can never drift from its inputs.
type Contestant struct {
	Side           Side
	Name           string
	PrimaryScore   int
	SecondaryScore int
	TotalScore     int
	CommandPoints  int
	DeploymentRoll int
	FirstTurnRoll  int

	// ElapsedSeconds is the committed time account; it only grows, and
	// only at a turn boundary.
	ElapsedSeconds int64

	// TurnSegmentStartedAt is set when this contestant becomes active
	// while the match timer runs. Zero when not accruing.
	TurnSegmentStartedAt time.Time
}

// SetScore writes one score column and recomputes the derived total.
func (c *Contestant) SetScore(kind ScoreKind, value int) {
	switch kind {
	case ScorePrimary:
		c.PrimaryScore = value
	case ScoreSecondary:
		c.SecondaryScore = value
	}
	c.TotalScore = c.PrimaryScore + c.SecondaryScore
}

// AddCommandPoints applies a CP delta, clamped at a zero floor.
func (c *Contestant) AddCommandPoints(delta int) {
	c.CommandPoints += delta
	if c.CommandPoints < 0 {
		c.CommandPoints = 0
	}
}

// Match is the canonical state of one scored session. It is owned by the
// Store and must only be mutated inside Store.Apply.
type Match struct {
	Phase            Phase
	Round            int
	MaxRounds        int
	ActiveSide       Side
	FirstSideOfMatch Side
	AttackerSide     Side
	DefenderSide     Side
	LastRoundPlayed  int
	StatusMessage    string

	// PendingWinner holds a resolved roll-off winner between the roll and
	// their role choice. SideNone outside that window.
	PendingWinner Side

	TimerStatus         TimerStatus
	TimerStartedAt      time.Time
	MatchElapsedSeconds int64

	Contestants map[Side]*Contestant
}

// NewMatch returns a match reset to Setup defaults.
func NewMatch(maxRounds int) *Match {
	return &Match{
		Phase:       PhaseSetup,
		Round:       0,
		MaxRounds:   maxRounds,
		ActiveSide:  SideNone,
		TimerStatus: TimerStopped,
		Contestants: map[Side]*Contestant{
			SideA: {Side: SideA},
			SideB: {Side: SideB},
		},
	}
}

// Contestant returns the contestant for a side, or nil for SideNone.
func (m *Match) Contestant(s Side) *Contestant {
	return m.Contestants[s]
}

// InPlay reports whether scoring mutations are currently legal.
func (m *Match) InPlay() bool {
	return m.Phase == PhasePlay
}

// UpdateScore writes one score column for a contestant. Legal only during
// Play; the value must be non-negative. TotalScore is recomputed on every
// write.
func (m *Match) UpdateScore(side Side, kind ScoreKind, value int) error {
	if m.Phase != PhasePlay {
		return stateErr("update_score", m.Phase)
	}
	if !side.Valid() {
		return validationErrf("update_score", "unknown contestant %q", side)
	}
	if kind != ScorePrimary && kind != ScoreSecondary {
		return validationErrf("update_score", "unknown score kind %q", kind)
	}
	if value < 0 {
		return validationErrf("update_score", "score must be non-negative, got %d", value)
	}
	m.Contestant(side).SetScore(kind, value)
	return nil
}

// IncrementCP applies a command point delta for a contestant, floored at
// zero. Legal only during Play.
func (m *Match) IncrementCP(side Side, delta int) error {
	if m.Phase != PhasePlay {
		return stateErr("increment_cp", m.Phase)
	}
	if !side.Valid() {
		return validationErrf("increment_cp", "unknown contestant %q", side)
	}
	m.Contestant(side).AddCommandPoints(delta)
	return nil
}

// clone deep-copies the match so Apply can work on a throwaway copy and
// commit only on success.
func (m *Match) clone() *Match {
	cp := *m
	cp.Contestants = make(map[Side]*Contestant, len(m.Contestants))
	for side, c := range m.Contestants {
		cc := *c
		cp.Contestants[side] = &cc
	}
	return &cp
}
