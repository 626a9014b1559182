package match

import (
	"fmt"
	"strings"
	"time"
)

// Role is one of the two mutually exclusive deployment roles the dice-off
// winner chooses between.
type Role string

const (
	RoleAttacker Role = "attacker"
	RoleDefender Role = "defender"
)

// Phase machine. Each operation validates its preconditions and leaves the
// match untouched on rejection; no partial transitions are observable
// because the Store commits only on a nil error.

// BeginNameEntry moves a fresh match from Setup into name entry.
func (m *Match) BeginNameEntry() error {
	if m.Phase != PhaseSetup {
		return stateErr("begin_name_entry", m.Phase)
	}
	m.Phase = PhaseNameEntry
	m.StatusMessage = "Enter contestant names"
	return nil
}

// SubmitNames records both contestant names and advances to the deployment
// roll-off. Both names must be non-empty.
func (m *Match) SubmitNames(nameA, nameB string) error {
	if m.Phase != PhaseNameEntry {
		return stateErr("submit_names", m.Phase)
	}
	nameA = strings.TrimSpace(nameA)
	nameB = strings.TrimSpace(nameB)
	if nameA == "" || nameB == "" {
		return validationErrf("submit_names", "both contestant names are required")
	}
	m.Contestant(SideA).Name = nameA
	m.Contestant(SideB).Name = nameB
	m.Phase = PhaseDeploymentRoll
	m.StatusMessage = "Roll off for deployment"
	return nil
}

// RollDeployment runs the deployment roll-off. The decisive rolls are
// recorded on each contestant and the winner is held pending their role
// choice; a tied attempt leaves nothing behind.
func (m *Match) RollDeployment(die DieRoller) error {
	if m.Phase != PhaseDeploymentRoll {
		return stateErr("roll_deployment", m.Phase)
	}
	if m.PendingWinner.Valid() {
		return validationErrf("roll_deployment", "roll-off already resolved, awaiting role choice")
	}
	result := ResolveRollOff(die, RollOffConfig{TiePolicy: TiePolicyReroll})
	m.Contestant(SideA).DeploymentRoll = result.RollA
	m.Contestant(SideB).DeploymentRoll = result.RollB
	m.PendingWinner = result.Winner
	m.StatusMessage = fmt.Sprintf("%s wins the roll-off (%d vs %d)",
		m.Contestant(result.Winner).Name, result.RollA, result.RollB)
	return nil
}

// ChooseDeploymentRole commits the roll-off winner's role pick, assigning
// the complementary role to the loser, and advances to the first-turn
// roll-off.
func (m *Match) ChooseDeploymentRole(choice Role) error {
	if m.Phase != PhaseDeploymentRoll {
		return stateErr("choose_role", m.Phase)
	}
	if !m.PendingWinner.Valid() {
		return validationErrf("choose_role", "no roll-off winner to choose")
	}
	winner, loser := m.PendingWinner, m.PendingWinner.Other()
	switch choice {
	case RoleAttacker:
		m.AttackerSide, m.DefenderSide = winner, loser
	case RoleDefender:
		m.AttackerSide, m.DefenderSide = loser, winner
	default:
		return validationErrf("choose_role", "unknown role %q", choice)
	}
	m.PendingWinner = SideNone
	m.Phase = PhaseFirstTurnRoll
	m.StatusMessage = fmt.Sprintf("%s attacks, %s defends. Roll off for first turn",
		m.Contestant(m.AttackerSide).Name, m.Contestant(m.DefenderSide).Name)
	return nil
}

// RollFirstTurn runs the first-turn roll-off under the supplied tie
// settlement config. Under the attacker-decides policy a persistent tie
// goes to the attacker.
func (m *Match) RollFirstTurn(die DieRoller, policy TiePolicy, rerollLimit int) error {
	if m.Phase != PhaseFirstTurnRoll {
		return stateErr("roll_first_turn", m.Phase)
	}
	if m.PendingWinner.Valid() {
		return validationErrf("roll_first_turn", "roll-off already resolved, awaiting choice")
	}
	result := ResolveRollOff(die, RollOffConfig{
		TiePolicy:   policy,
		RerollLimit: rerollLimit,
		Attacker:    m.AttackerSide,
	})
	m.Contestant(SideA).FirstTurnRoll = result.RollA
	m.Contestant(SideB).FirstTurnRoll = result.RollB
	m.PendingWinner = result.Winner
	if result.TieDecided {
		m.StatusMessage = fmt.Sprintf("Tie stands. %s decides who goes first",
			m.Contestant(result.Winner).Name)
	} else {
		m.StatusMessage = fmt.Sprintf("%s wins the roll-off (%d vs %d)",
			m.Contestant(result.Winner).Name, result.RollA, result.RollB)
	}
	return nil
}

// ChooseFirstTurn commits the first-turn winner's pick and begins play:
// round 1, the chosen contestant active, match clock running.
func (m *Match) ChooseFirstTurn(winnerGoesFirst bool, now time.Time) error {
	if m.Phase != PhaseFirstTurnRoll {
		return stateErr("choose_first_turn", m.Phase)
	}
	if !m.PendingWinner.Valid() {
		return validationErrf("choose_first_turn", "no roll-off winner to choose")
	}
	first := m.PendingWinner
	if !winnerGoesFirst {
		first = first.Other()
	}
	m.PendingWinner = SideNone
	m.FirstSideOfMatch = first
	m.ActiveSide = first
	m.Round = 1
	m.Phase = PhasePlay
	m.StartTimer(now)
	m.StatusMessage = fmt.Sprintf("Round 1: %s to play", m.Contestant(first).Name)
	return nil
}

// Reset flushes the clock and reinitializes the match to Setup defaults.
// Legal from any phase; starting a new match abandons the old one.
func (m *Match) Reset(maxRounds int, now time.Time) {
	m.StopTimer(now)
	*m = *NewMatch(maxRounds)
}
