package match

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestStoreApplyBumpsVersionOnSuccessOnly(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(NewMatch(5), 0, clock)

	snap, err := store.Apply("begin_name_entry", func(m *Match, _ time.Time) error {
		return m.BeginNameEntry()
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if snap.Version != 1 {
		t.Fatalf("expected version 1, got %d", snap.Version)
	}

	_, err = store.Apply("submit_names", func(m *Match, _ time.Time) error {
		return m.SubmitNames("", "")
	})
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if store.Version() != 1 {
		t.Fatalf("rejected mutation must not bump version, got %d", store.Version())
	}
	if got := store.Snapshot().Phase; got != string(PhaseNameEntry) {
		t.Fatalf("rejected mutation must not change committed state, phase %q", got)
	}
}

func TestStoreApplyCommitsAtomically(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(NewMatch(5), 0, clock)

	// An operation that mutates and then fails must leave nothing behind.
	_, err := store.Apply("broken", func(m *Match, _ time.Time) error {
		m.Contestant(SideA).Name = "Ann"
		m.Phase = PhasePlay
		return errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	snap := store.Snapshot()
	if snap.Phase != string(PhaseSetup) || snap.Contestants["A"].Name != "" {
		t.Fatalf("partial mutation observable: %+v", snap)
	}
}

func TestStoreOnCommitFiresPerAcceptedMutation(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(NewMatch(5), 0, clock)

	var commits []uint64
	store.SetOnCommit(func(snap Snapshot) {
		commits = append(commits, snap.Version)
	})

	store.Apply("begin_name_entry", func(m *Match, _ time.Time) error { return m.BeginNameEntry() })
	store.Apply("submit_names", func(m *Match, _ time.Time) error { return m.SubmitNames("", "") })
	store.Apply("submit_names", func(m *Match, _ time.Time) error { return m.SubmitNames("Ann", "Bo") })

	if len(commits) != 2 || commits[0] != 1 || commits[1] != 2 {
		t.Fatalf("expected commit hook for versions [1 2], got %v", commits)
	}
}

func TestStoreSnapshotAtProjectsLiveClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(NewMatch(5), 0, clock)
	die := &scriptDie{rolls: []int{4, 2, 5, 1}}

	mustApply := func(op string, fn func(*Match, time.Time) error) {
		t.Helper()
		if _, err := store.Apply(op, fn); err != nil {
			t.Fatalf("%s: %v", op, err)
		}
	}
	mustApply("begin_name_entry", func(m *Match, _ time.Time) error { return m.BeginNameEntry() })
	mustApply("submit_names", func(m *Match, _ time.Time) error { return m.SubmitNames("Ann", "Bo") })
	mustApply("roll_deployment", func(m *Match, _ time.Time) error { return m.RollDeployment(die) })
	mustApply("choose_role", func(m *Match, _ time.Time) error { return m.ChooseDeploymentRole(RoleAttacker) })
	mustApply("roll_first_turn", func(m *Match, _ time.Time) error { return m.RollFirstTurn(die, TiePolicyReroll, 0) })
	mustApply("choose_first_turn", func(m *Match, now time.Time) error { return m.ChooseFirstTurn(true, now) })

	versionBefore := store.Version()
	later := clock.Now().Add(42 * time.Second)
	snap := store.SnapshotAt(later)

	if snap.MatchTimer.ElapsedDisplay != "00:00:42" {
		t.Fatalf("expected live match clock 00:00:42, got %q", snap.MatchTimer.ElapsedDisplay)
	}
	if snap.Contestants["A"].ElapsedDisplay != "00:00:42" {
		t.Fatalf("expected live display 00:00:42 for the active contestant, got %q",
			snap.Contestants["A"].ElapsedDisplay)
	}
	if snap.Contestants["A"].ElapsedSeconds != 0 {
		t.Fatalf("live projection must not move committed seconds, got %d",
			snap.Contestants["A"].ElapsedSeconds)
	}
	if store.Version() != versionBefore {
		t.Fatalf("projection must not bump the version")
	}
}
