package match

import (
	"fmt"
	"time"
)

// TurnResult reports what an EndTurn call did.
type TurnResult struct {
	Advanced  bool
	GameOver  bool
	NewActive Side
}

// EndTurn hands play to the other contestant. The round counter increments
// only when the outgoing contestant is not the one who started the match,
// i.e. when the second half of a round completes. The match ends exactly
// once, when the second contestant of round MaxRounds ends their turn; any
// EndTurn after that is rejected.
func (m *Match) EndTurn(outgoing Side, now time.Time) (TurnResult, error) {
	if m.Phase != PhasePlay {
		return TurnResult{}, stateErr("end_turn", m.Phase)
	}
	if !outgoing.Valid() {
		return TurnResult{}, validationErrf("end_turn", "unknown contestant %q", outgoing)
	}
	if outgoing != m.ActiveSide {
		return TurnResult{}, validationErrf("end_turn", "contestant %s is not the active contestant", outgoing)
	}

	secondHalf := outgoing != m.FirstSideOfMatch
	if secondHalf && m.Round >= m.MaxRounds {
		m.finishMatch(now, fmt.Sprintf("Game over: round %d complete", m.MaxRounds))
		return TurnResult{GameOver: true, NewActive: SideNone}, nil
	}

	incoming := outgoing.Other()
	m.CommitTurnSegment(outgoing, incoming, now)
	m.ActiveSide = incoming
	if secondHalf {
		m.Round++
	}
	m.StatusMessage = fmt.Sprintf("Round %d: %s to play", m.Round, m.Contestant(incoming).Name)
	return TurnResult{Advanced: true, NewActive: incoming}, nil
}

// Concede ends the match immediately, awarding it to the other contestant
// regardless of score.
func (m *Match) Concede(side Side, now time.Time) error {
	if m.Phase != PhasePlay {
		return stateErr("concede_game", m.Phase)
	}
	if !side.Valid() {
		return validationErrf("concede_game", "unknown contestant %q", side)
	}
	winner := m.Contestant(side.Other())
	round := m.Round
	m.finishMatch(now, fmt.Sprintf("%s concedes. %s wins", m.Contestant(side).Name, winner.Name))
	m.LastRoundPlayed = round
	return nil
}

// finishMatch is the single game-over path: stop the clock (committing the
// open segments), clear the active contestant, and record the last round.
func (m *Match) finishMatch(now time.Time, message string) {
	m.StopTimer(now)
	m.Phase = PhaseGameOver
	m.ActiveSide = SideNone
	m.LastRoundPlayed = m.MaxRounds
	m.StatusMessage = message
}
