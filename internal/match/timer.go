package match

import (
	"fmt"
	"time"
)

// Timer accounting. The match clock and the per-contestant turn segments
// share one rule: live display is a read-side projection over committed
// seconds plus the open segment, and committed seconds only move at a
// segment boundary.

// StartTimer starts the match clock. No-op if already running. The active
// contestant, if any, begins accruing a turn segment from now.
func (m *Match) StartTimer(now time.Time) {
	if m.TimerStatus == TimerRunning {
		return
	}
	m.TimerStatus = TimerRunning
	m.TimerStartedAt = now
	if c := m.Contestant(m.ActiveSide); c != nil {
		c.TurnSegmentStartedAt = now
	}
}

// StopTimer stops the match clock, folding the open segment into the
// committed match total. The active contestant's open segment is committed
// as well; stopping the clock is a segment boundary.
func (m *Match) StopTimer(now time.Time) {
	if m.TimerStatus != TimerRunning {
		return
	}
	m.MatchElapsedSeconds += segmentSeconds(m.TimerStartedAt, now)
	m.TimerStatus = TimerStopped
	m.TimerStartedAt = time.Time{}
	if c := m.Contestant(m.ActiveSide); c != nil && !c.TurnSegmentStartedAt.IsZero() {
		c.ElapsedSeconds += segmentSeconds(c.TurnSegmentStartedAt, now)
		c.TurnSegmentStartedAt = time.Time{}
	}
}

// CommitTurnSegment closes the outgoing contestant's turn segment,
// permanently adding it to ElapsedSeconds, and opens a segment for the
// incoming contestant. This is the only place a contestant's committed
// seconds change during play.
func (m *Match) CommitTurnSegment(outgoing, incoming Side, now time.Time) {
	if m.TimerStatus != TimerRunning {
		return
	}
	if c := m.Contestant(outgoing); c != nil && !c.TurnSegmentStartedAt.IsZero() {
		c.ElapsedSeconds += segmentSeconds(c.TurnSegmentStartedAt, now)
		c.TurnSegmentStartedAt = time.Time{}
	}
	if c := m.Contestant(incoming); c != nil {
		c.TurnSegmentStartedAt = now
	}
}

// MatchElapsed projects the live match clock without mutating committed
// state.
func (m *Match) MatchElapsed(now time.Time) int64 {
	total := m.MatchElapsedSeconds
	if m.TimerStatus == TimerRunning {
		total += segmentSeconds(m.TimerStartedAt, now)
	}
	return total
}

// ContestantElapsed projects a contestant's live clock: committed seconds
// plus the open segment if that side is accruing.
func (m *Match) ContestantElapsed(side Side, now time.Time) int64 {
	c := m.Contestant(side)
	if c == nil {
		return 0
	}
	total := c.ElapsedSeconds
	if m.TimerStatus == TimerRunning && !c.TurnSegmentStartedAt.IsZero() {
		total += segmentSeconds(c.TurnSegmentStartedAt, now)
	}
	return total
}

func segmentSeconds(from, to time.Time) int64 {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// FormatElapsed renders total seconds as HH:MM:SS, truncating sub-second
// precision.
func FormatElapsed(totalSeconds int64) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
