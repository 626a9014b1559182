package match

import (
	"time"
)

// Snapshot is the full serialized representation of a match. It is the one
// document shared by the durability layer and the client push channel, and
// it is the only place the typed enums cross into strings.
type Snapshot struct {
	Version                uint64                        `json:"version"`
	Phase                  string                        `json:"phase"`
	Round                  int                           `json:"round"`
	MaxRounds              int                           `json:"max_rounds"`
	ActiveContestantID     string                        `json:"active_contestant_id"`
	FirstContestantOfMatch string                        `json:"first_contestant_of_match_id"`
	AttackerID             string                        `json:"attacker_id"`
	DefenderID             string                        `json:"defender_id"`
	LastRoundPlayed        int                           `json:"last_round_played"`
	StatusMessage          string                        `json:"status_message"`
	PendingWinnerID        string                        `json:"pending_winner_id,omitempty"`
	MatchTimer             TimerSnapshot                 `json:"match_timer"`
	Contestants            map[string]ContestantSnapshot `json:"contestants"`
}

// TimerSnapshot is the match clock block of a snapshot.
type TimerSnapshot struct {
	Status         string     `json:"status"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	ElapsedSeconds int64      `json:"elapsed_seconds"`
	ElapsedDisplay string     `json:"elapsed_display"`
}

// ContestantSnapshot is one side's block of a snapshot.
type ContestantSnapshot struct {
	Name           string `json:"name"`
	PrimaryScore   int    `json:"primary_score"`
	SecondaryScore int    `json:"secondary_score"`
	TotalScore     int    `json:"total_score"`
	CommandPoints  int    `json:"command_points"`
	DeploymentRoll int    `json:"deployment_roll"`
	FirstTurnRoll  int    `json:"first_turn_roll"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	ElapsedDisplay string `json:"elapsed_display"`
}

// BuildSnapshot projects the match into its wire document at the given
// instant. The elapsed display strings are live projections over committed
// seconds plus any open segment; committed state is never touched.
func BuildSnapshot(m *Match, version uint64, now time.Time) Snapshot {
	snap := Snapshot{
		Version:                version,
		Phase:                  string(m.Phase),
		Round:                  m.Round,
		MaxRounds:              m.MaxRounds,
		ActiveContestantID:     string(m.ActiveSide),
		FirstContestantOfMatch: string(m.FirstSideOfMatch),
		AttackerID:             string(m.AttackerSide),
		DefenderID:             string(m.DefenderSide),
		LastRoundPlayed:        m.LastRoundPlayed,
		StatusMessage:          m.StatusMessage,
		PendingWinnerID:        string(m.PendingWinner),
		Contestants:            make(map[string]ContestantSnapshot, len(m.Contestants)),
	}

	snap.MatchTimer = TimerSnapshot{
		Status:         string(m.TimerStatus),
		ElapsedSeconds: m.MatchElapsedSeconds,
		ElapsedDisplay: FormatElapsed(m.MatchElapsed(now)),
	}
	if !m.TimerStartedAt.IsZero() {
		t := m.TimerStartedAt
		snap.MatchTimer.StartedAt = &t
	}

	for side, c := range m.Contestants {
		snap.Contestants[string(side)] = ContestantSnapshot{
			Name:           c.Name,
			PrimaryScore:   c.PrimaryScore,
			SecondaryScore: c.SecondaryScore,
			TotalScore:     c.TotalScore,
			CommandPoints:  c.CommandPoints,
			DeploymentRoll: c.DeploymentRoll,
			FirstTurnRoll:  c.FirstTurnRoll,
			ElapsedSeconds: c.ElapsedSeconds,
			ElapsedDisplay: FormatElapsed(m.ContestantElapsed(side, now)),
		}
	}
	return snap
}

// RestoreMatch rebuilds a match from a durable snapshot. Unknown phase or
// timer strings fall back to defaults rather than failing; a contestant
// whose turn segment was open when the snapshot was taken resumes accruing
// from now.
func RestoreMatch(snap Snapshot, maxRounds int, now time.Time) *Match {
	m := NewMatch(maxRounds)
	if snap.MaxRounds > 0 {
		m.MaxRounds = snap.MaxRounds
	}
	if p := Phase(snap.Phase); validPhase(p) {
		m.Phase = p
	}
	m.Round = snap.Round
	m.ActiveSide = Side(snap.ActiveContestantID)
	m.FirstSideOfMatch = Side(snap.FirstContestantOfMatch)
	m.AttackerSide = Side(snap.AttackerID)
	m.DefenderSide = Side(snap.DefenderID)
	m.LastRoundPlayed = snap.LastRoundPlayed
	m.StatusMessage = snap.StatusMessage
	m.PendingWinner = Side(snap.PendingWinnerID)

	if TimerStatus(snap.MatchTimer.Status) == TimerRunning {
		m.TimerStatus = TimerRunning
		m.TimerStartedAt = now
		if snap.MatchTimer.StartedAt != nil {
			m.TimerStartedAt = *snap.MatchTimer.StartedAt
		}
	}
	m.MatchElapsedSeconds = snap.MatchTimer.ElapsedSeconds

	for key, cs := range snap.Contestants {
		side := Side(key)
		c := m.Contestant(side)
		if c == nil {
			continue
		}
		c.Name = cs.Name
		c.SetScore(ScorePrimary, cs.PrimaryScore)
		c.SetScore(ScoreSecondary, cs.SecondaryScore)
		c.CommandPoints = cs.CommandPoints
		if c.CommandPoints < 0 {
			c.CommandPoints = 0
		}
		c.DeploymentRoll = cs.DeploymentRoll
		c.FirstTurnRoll = cs.FirstTurnRoll
		c.ElapsedSeconds = cs.ElapsedSeconds
	}

	if m.TimerStatus == TimerRunning {
		if c := m.Contestant(m.ActiveSide); c != nil {
			c.TurnSegmentStartedAt = now
		}
	}
	return m
}

func validPhase(p Phase) bool {
	switch p {
	case PhaseSetup, PhaseNameEntry, PhaseDeploymentRoll, PhaseFirstTurnRoll, PhasePlay, PhaseGameOver:
		return true
	}
	return false
}
