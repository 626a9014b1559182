// Package rules loads the match rules file. Defaults are applied once
// here, at load time; the rest of the code never falls back field by
// field.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tabletally/internal/match"
)

// Rules are the table-level knobs for a match.
type Rules struct {
	// MaxRounds is the round cap; the match ends when the second
	// contestant of this round ends their turn.
	MaxRounds int `yaml:"max_rounds"`

	// FirstTurnTiePolicy settles a persistent tie on the first-turn
	// roll-off: "reroll" keeps rolling, "attacker_decides" hands the
	// decision to the attacker.
	FirstTurnTiePolicy string `yaml:"first_turn_tie_policy"`

	// FirstTurnRerollLimit is how many tied attempts are re-rolled before
	// attacker_decides kicks in. Ignored under the reroll policy.
	FirstTurnRerollLimit int `yaml:"first_turn_reroll_limit"`
}

// Default returns the stock rules: five rounds, re-roll ties until
// decisive.
func Default() Rules {
	return Rules{
		MaxRounds:            5,
		FirstTurnTiePolicy:   string(match.TiePolicyReroll),
		FirstTurnRerollLimit: 1,
	}
}

// Load reads a rules file, filling anything unset from defaults. A missing
// file is not an error; invalid values are.
func Load(path string) (Rules, error) {
	r := Default()
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return r, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse rules file: %w", err)
	}
	if err := r.validate(); err != nil {
		return r, err
	}
	return r, nil
}

func (r Rules) validate() error {
	if r.MaxRounds < 1 {
		return fmt.Errorf("max_rounds must be at least 1, got %d", r.MaxRounds)
	}
	switch match.TiePolicy(r.FirstTurnTiePolicy) {
	case match.TiePolicyReroll, match.TiePolicyAttackerDecides:
	default:
		return fmt.Errorf("unknown first_turn_tie_policy %q", r.FirstTurnTiePolicy)
	}
	if r.FirstTurnRerollLimit < 0 {
		return fmt.Errorf("first_turn_reroll_limit must be non-negative, got %d", r.FirstTurnRerollLimit)
	}
	return nil
}

// TiePolicy returns the typed policy.
func (r Rules) TiePolicy() match.TiePolicy {
	return match.TiePolicy(r.FirstTurnTiePolicy)
}
