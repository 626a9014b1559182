package rules

import (
	"os"
	"path/filepath"
	"testing"

	"tabletally/internal/match"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules file: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.MaxRounds != 5 {
		t.Fatalf("expected default max_rounds 5, got %d", r.MaxRounds)
	}
	if r.TiePolicy() != match.TiePolicyReroll {
		t.Fatalf("expected default reroll policy, got %q", r.FirstTurnTiePolicy)
	}
}

func TestLoadOverridesAndFillsDefaults(t *testing.T) {
	path := writeRules(t, "first_turn_tie_policy: attacker_decides\nfirst_turn_reroll_limit: 2\n")
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.TiePolicy() != match.TiePolicyAttackerDecides || r.FirstTurnRerollLimit != 2 {
		t.Fatalf("overrides not applied: %+v", r)
	}
	if r.MaxRounds != 5 {
		t.Fatalf("unset max_rounds must keep its default, got %d", r.MaxRounds)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	for _, content := range []string{
		"max_rounds: 0\n",
		"first_turn_tie_policy: coin_flip\n",
		"first_turn_reroll_limit: -1\n",
	} {
		if _, err := Load(writeRules(t, content)); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}
