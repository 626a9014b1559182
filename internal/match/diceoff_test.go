package match

import (
	"testing"
)

// scriptDie feeds a fixed roll sequence, cycling if exhausted.
type scriptDie struct {
	rolls []int
	i     int
}

func (d *scriptDie) D6() int {
	r := d.rolls[d.i%len(d.rolls)]
	d.i++
	return r
}

func TestResolveRollOffHigherRollWins(t *testing.T) {
	result := ResolveRollOff(&scriptDie{rolls: []int{4, 2}}, RollOffConfig{TiePolicy: TiePolicyReroll})
	if result.Winner != SideA {
		t.Fatalf("expected side A to win 4 vs 2, got %q", result.Winner)
	}
	if result.RollA != 4 || result.RollB != 2 {
		t.Fatalf("expected rolls 4/2, got %d/%d", result.RollA, result.RollB)
	}
	if result.Rerolls != 0 {
		t.Fatalf("expected no re-rolls, got %d", result.Rerolls)
	}

	result = ResolveRollOff(&scriptDie{rolls: []int{1, 6}}, RollOffConfig{TiePolicy: TiePolicyReroll})
	if result.Winner != SideB {
		t.Fatalf("expected side B to win 1 vs 6, got %q", result.Winner)
	}
}

func TestResolveRollOffRerollsTies(t *testing.T) {
	result := ResolveRollOff(&scriptDie{rolls: []int{3, 3, 5, 1}}, RollOffConfig{TiePolicy: TiePolicyReroll})
	if result.Winner != SideA {
		t.Fatalf("expected side A to win after re-roll, got %q", result.Winner)
	}
	if result.Rerolls != 1 {
		t.Fatalf("expected exactly 1 re-roll, got %d", result.Rerolls)
	}
	if result.RollA != 5 || result.RollB != 1 {
		t.Fatalf("tied attempt should not survive: expected rolls 5/1, got %d/%d", result.RollA, result.RollB)
	}
	if result.TieDecided {
		t.Fatalf("re-rolled result should not be marked tie-decided")
	}
}

func TestResolveRollOffAttackerDecidesAfterLimit(t *testing.T) {
	die := &scriptDie{rolls: []int{2, 2}} // ties forever
	result := ResolveRollOff(die, RollOffConfig{
		TiePolicy:   TiePolicyAttackerDecides,
		RerollLimit: 2,
		Attacker:    SideB,
	})
	if result.Winner != SideB {
		t.Fatalf("expected attacker B to take the decision, got %q", result.Winner)
	}
	if !result.TieDecided {
		t.Fatalf("expected result to be tie-decided")
	}
	if result.Rerolls != 2 {
		t.Fatalf("expected 2 re-rolls before attacker decides, got %d", result.Rerolls)
	}
}

func TestResolveRollOffAttackerDecidesImmediately(t *testing.T) {
	result := ResolveRollOff(&scriptDie{rolls: []int{6, 6}}, RollOffConfig{
		TiePolicy:   TiePolicyAttackerDecides,
		RerollLimit: 0,
		Attacker:    SideA,
	})
	if result.Winner != SideA || !result.TieDecided || result.Rerolls != 0 {
		t.Fatalf("expected immediate attacker decision, got %+v", result)
	}
}

func TestRollerProducesUniformRange(t *testing.T) {
	roller, err := NewRoller()
	if err != nil {
		t.Fatalf("NewRoller: %v", err)
	}
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		r := roller.D6()
		if r < 1 || r > 6 {
			t.Fatalf("roll %d out of range 1..6", r)
		}
		seen[r] = true
	}
	if len(seen) != 6 {
		t.Fatalf("expected all six faces in 1000 rolls, saw %d", len(seen))
	}
}

func TestResolveRollOffNeverReturnsUnresolved(t *testing.T) {
	roller, err := NewRoller()
	if err != nil {
		t.Fatalf("NewRoller: %v", err)
	}
	for i := 0; i < 500; i++ {
		result := ResolveRollOff(roller, RollOffConfig{TiePolicy: TiePolicyReroll})
		if !result.Winner.Valid() {
			t.Fatalf("roll-off returned without a winner: %+v", result)
		}
		if !result.TieDecided && result.RollA == result.RollB {
			t.Fatalf("roll-off returned a persisted tie: %+v", result)
		}
	}
}
