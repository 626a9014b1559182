package match

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// TiePolicy controls how a roll-off that keeps tying is settled.
type TiePolicy string

const (
	// TiePolicyReroll keeps re-rolling both dice until one side wins.
	TiePolicyReroll TiePolicy = "reroll"
	// TiePolicyAttackerDecides hands the decision to the attacker once a
	// tie survives the configured number of re-rolls.
	TiePolicyAttackerDecides TiePolicy = "attacker_decides"
)

// DieRoller produces a single d6 result. Production code uses Roller;
// tests substitute a scripted sequence.
type DieRoller interface {
	D6() int
}

// Roller rolls dice from a PRNG seeded with crypto/rand entropy.
type Roller struct {
	rng *rand.Rand
}

// NewRoller returns a Roller with a high-entropy seed.
func NewRoller() (*Roller, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read dice seed: %w", err)
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]))
	return &Roller{rng: rand.New(rand.NewSource(seed))}, nil
}

// D6 returns a uniform roll in 1..6.
func (r *Roller) D6() int {
	return r.rng.Intn(6) + 1
}

// RollOff is the outcome of one dice-off. It is ephemeral: once the role
// choice is committed into the Match the result is discarded. Winner is
// never SideNone and a returned RollOff never represents an unresolved tie.
type RollOff struct {
	RollA      int
	RollB      int
	Winner     Side
	Rerolls    int
	TieDecided bool
}

// RollOffConfig tunes tie settlement for one dice-off.
type RollOffConfig struct {
	TiePolicy TiePolicy
	// RerollLimit is how many tied attempts are re-rolled before the
	// attacker decides. Only consulted under TiePolicyAttackerDecides.
	RerollLimit int
	// Attacker is the side that wins a persistent tie under
	// TiePolicyAttackerDecides.
	Attacker Side
}

// ResolveRollOff runs the two-party roll-off protocol: both sides roll a
// d6, higher wins, equal rolls reset and re-roll. Nothing from a tied
// attempt survives. Under TiePolicyAttackerDecides the attacker takes the
// win once the tie outlasts RerollLimit re-rolls.
func ResolveRollOff(die DieRoller, cfg RollOffConfig) RollOff {
	rerolls := 0
	for {
		a, b := die.D6(), die.D6()
		if a != b {
			winner := SideA
			if b > a {
				winner = SideB
			}
			return RollOff{RollA: a, RollB: b, Winner: winner, Rerolls: rerolls}
		}
		if cfg.TiePolicy == TiePolicyAttackerDecides && rerolls >= cfg.RerollLimit && cfg.Attacker.Valid() {
			return RollOff{RollA: a, RollB: b, Winner: cfg.Attacker, Rerolls: rerolls, TieDecided: true}
		}
		rerolls++
	}
}
