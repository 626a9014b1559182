package match

import (
	"testing"
	"time"
)

func TestCommitTurnAccumulatesSegments(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m := newPlayMatch(t, SideA, t0)

	// A plays for 30s; live projections along the way must not touch the
	// committed account.
	for i := 1; i <= 29; i++ {
		m.ContestantElapsed(SideA, t0.Add(time.Duration(i)*time.Second))
	}
	t1 := t0.Add(30 * time.Second)
	m.CommitTurnSegment(SideA, SideB, t1)

	if got := m.Contestant(SideA).ElapsedSeconds; got != 30 {
		t.Fatalf("expected 30 committed seconds for A, got %d", got)
	}

	// B plays for 20s, then A for 45s.
	t2 := t1.Add(20 * time.Second)
	m.CommitTurnSegment(SideB, SideA, t2)
	t3 := t2.Add(45 * time.Second)
	m.CommitTurnSegment(SideA, SideB, t3)

	if got := m.Contestant(SideA).ElapsedSeconds; got != 75 {
		t.Fatalf("expected 30+45=75 committed seconds for A, got %d", got)
	}
	if got := m.Contestant(SideB).ElapsedSeconds; got != 20 {
		t.Fatalf("expected 20 committed seconds for B, got %d", got)
	}
}

func TestLiveProjectionDoesNotMutate(t *testing.T) {
	t0 := time.Now()
	m := newPlayMatch(t, SideA, t0)

	live := m.ContestantElapsed(SideA, t0.Add(12*time.Second))
	if live != 12 {
		t.Fatalf("expected live projection of 12s, got %d", live)
	}
	if got := m.Contestant(SideA).ElapsedSeconds; got != 0 {
		t.Fatalf("projection must not mutate committed seconds, got %d", got)
	}
	if got := m.MatchElapsed(t0.Add(12 * time.Second)); got != 12 {
		t.Fatalf("expected match clock projection of 12s, got %d", got)
	}
	if m.MatchElapsedSeconds != 0 {
		t.Fatalf("projection must not mutate the committed match clock, got %d", m.MatchElapsedSeconds)
	}
}

func TestSegmentSecondsTruncate(t *testing.T) {
	t0 := time.Now()
	m := newPlayMatch(t, SideA, t0)

	m.CommitTurnSegment(SideA, SideB, t0.Add(30*time.Second+900*time.Millisecond))
	if got := m.Contestant(SideA).ElapsedSeconds; got != 30 {
		t.Fatalf("sub-second precision must truncate, expected 30 got %d", got)
	}
}

func TestStartTimerIdempotent(t *testing.T) {
	t0 := time.Now()
	m := newPlayMatch(t, SideA, t0)

	later := t0.Add(10 * time.Second)
	m.StartTimer(later)
	if !m.TimerStartedAt.Equal(t0) {
		t.Fatalf("start on a running timer must be a no-op")
	}
}

func TestStopTimerCommitsOpenSegments(t *testing.T) {
	t0 := time.Now()
	m := newPlayMatch(t, SideA, t0)

	t1 := t0.Add(90 * time.Second)
	m.StopTimer(t1)

	if m.TimerStatus != TimerStopped {
		t.Fatalf("expected stopped timer")
	}
	if m.MatchElapsedSeconds != 90 {
		t.Fatalf("expected 90s committed on the match clock, got %d", m.MatchElapsedSeconds)
	}
	if got := m.Contestant(SideA).ElapsedSeconds; got != 90 {
		t.Fatalf("stopping the clock is a segment boundary, expected 90s for A, got %d", got)
	}

	// Stopped clocks accrue nothing.
	if got := m.MatchElapsed(t1.Add(time.Hour)); got != 90 {
		t.Fatalf("stopped match clock must not accrue, got %d", got)
	}
	m.StopTimer(t1.Add(time.Hour))
	if m.MatchElapsedSeconds != 90 {
		t.Fatalf("stop on a stopped timer must be a no-op")
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{3661, "01:01:01"},
		{7325, "02:02:05"},
		{-5, "00:00:00"},
	}
	for _, tc := range cases {
		if got := FormatElapsed(tc.seconds); got != tc.want {
			t.Fatalf("FormatElapsed(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
