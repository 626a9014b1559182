// Package hub is the synchronization layer between the authoritative match
// store and its remote clients. Every mutation request, whether it arrives
// over the push channel or from the local screen's REST endpoints, goes
// through the hub; every accepted mutation produces one full snapshot
// broadcast to every current subscriber.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"tabletally/internal/match"
	"tabletally/internal/rules"
)

// subscriptionBuffer is the per-subscriber snapshot backlog. A subscriber
// that falls this far behind is dropped, matching how the connection layer
// treats dead sockets.
const subscriptionBuffer = 16

// Subscription is one client's view of the snapshot stream.
type Subscription struct {
	ID uuid.UUID
	C  <-chan match.Snapshot

	ch chan match.Snapshot
}

// Hub validates mutation requests, applies them through the store's single
// serialized entry point, and fans the resulting snapshots out.
type Hub struct {
	store *match.Store
	die   match.DieRoller
	rules rules.Rules
	clock clockwork.Clock

	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscription
}

// New creates a hub around a store.
func New(store *match.Store, die match.DieRoller, r rules.Rules, clock clockwork.Clock) *Hub {
	return &Hub{
		store: store,
		die:   die,
		rules: r,
		clock: clock,
		subs:  make(map[uuid.UUID]*Subscription),
	}
}

// Subscribe registers a snapshot stream. The current full snapshot is
// queued immediately, never a delta, so a late joiner is consistent without
// replay.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		ID: uuid.New(),
		ch: make(chan match.Snapshot, subscriptionBuffer),
	}
	sub.C = sub.ch

	// Register and queue the initial snapshot under the same lock, so no
	// broadcast can reach the subscription before its baseline. The channel
	// is fresh and buffered, the send cannot block here.
	h.mu.Lock()
	h.subs[sub.ID] = sub
	select {
	case sub.ch <- h.store.Snapshot():
	default:
	}
	h.mu.Unlock()

	log.Debug().Str("subscription_id", sub.ID.String()).Msg("subscriber joined")
	return sub
}

// Unsubscribe removes a subscription and closes its stream.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()
	if ok {
		close(sub.ch)
		log.Debug().Str("subscription_id", id.String()).Msg("subscriber left")
	}
}

// Broadcast queues a snapshot for every current subscriber. Subscribers
// whose backlog is full are dropped rather than allowed to block the rest.
func (h *Hub) Broadcast(snap match.Snapshot) {
	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.ch <- snap:
		default:
			log.Warn().Str("subscription_id", sub.ID.String()).Msg("subscriber backlog full, dropping subscriber")
			h.Unsubscribe(sub.ID)
		}
	}
}

// Run drives the periodic tick: while the match clock runs, the projected
// snapshot is re-broadcast so remote clocks stay live. Ticks never advance
// the store version.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	ticker := h.clock.NewTicker(interval)
	defer ticker.Stop()
	log.Info().Dur("interval", interval).Msg("hub tick loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("hub tick loop stopped")
			return
		case now := <-ticker.Chan():
			snap := h.store.SnapshotAt(now)
			if snap.MatchTimer.Status == string(match.TimerRunning) {
				h.Broadcast(snap)
			}
		}
	}
}

// HandleRequest processes one client mutation request. Rejections are
// returned to the caller and neither change the store version nor trigger
// a broadcast.
func (h *Hub) HandleRequest(typ MessageType, payload json.RawMessage) (match.Snapshot, error) {
	switch typ {
	case MessageUpdateScore:
		var req UpdateScoreRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return match.Snapshot{}, &match.ValidationError{Op: string(typ), Reason: "malformed payload"}
		}
		return h.store.Apply(string(typ), func(m *match.Match, _ time.Time) error {
			return m.UpdateScore(match.Side(req.ContestantID), match.ScoreKind(req.Kind), req.Value)
		})

	case MessageIncrementCP:
		var req IncrementCPRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return match.Snapshot{}, &match.ValidationError{Op: string(typ), Reason: "malformed payload"}
		}
		return h.store.Apply(string(typ), func(m *match.Match, _ time.Time) error {
			return m.IncrementCP(match.Side(req.ContestantID), req.Delta)
		})

	case MessageEndTurn:
		var req EndTurnRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return match.Snapshot{}, &match.ValidationError{Op: string(typ), Reason: "malformed payload"}
		}
		return h.store.Apply(string(typ), func(m *match.Match, now time.Time) error {
			_, err := m.EndTurn(match.Side(req.ContestantID), now)
			return err
		})

	case MessageConcedeGame:
		var req ConcedeGameRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return match.Snapshot{}, &match.ValidationError{Op: string(typ), Reason: "malformed payload"}
		}
		return h.store.Apply(string(typ), func(m *match.Match, now time.Time) error {
			return m.Concede(match.Side(req.ContestantID), now)
		})

	default:
		return match.Snapshot{}, &match.ValidationError{Op: string(typ), Reason: fmt.Sprintf("unknown request type %q", typ)}
	}
}

// State returns the live-projected snapshot.
func (h *Hub) State() match.Snapshot {
	return h.store.Snapshot()
}

// Phase flow, driven by the table's own screen through the REST surface.

// BeginNameEntry moves Setup to name entry.
func (h *Hub) BeginNameEntry() (match.Snapshot, error) {
	return h.store.Apply("begin_name_entry", func(m *match.Match, _ time.Time) error {
		return m.BeginNameEntry()
	})
}

// SubmitNames records both names and advances to the deployment roll-off.
func (h *Hub) SubmitNames(nameA, nameB string) (match.Snapshot, error) {
	return h.store.Apply("submit_names", func(m *match.Match, _ time.Time) error {
		return m.SubmitNames(nameA, nameB)
	})
}

// RollDeployment runs the deployment roll-off.
func (h *Hub) RollDeployment() (match.Snapshot, error) {
	return h.store.Apply("roll_deployment", func(m *match.Match, _ time.Time) error {
		return m.RollDeployment(h.die)
	})
}

// ChooseDeploymentRole commits the winner's attacker/defender pick.
func (h *Hub) ChooseDeploymentRole(role string) (match.Snapshot, error) {
	return h.store.Apply("choose_role", func(m *match.Match, _ time.Time) error {
		return m.ChooseDeploymentRole(match.Role(role))
	})
}

// RollFirstTurn runs the first-turn roll-off under the configured tie
// policy.
func (h *Hub) RollFirstTurn() (match.Snapshot, error) {
	return h.store.Apply("roll_first_turn", func(m *match.Match, _ time.Time) error {
		return m.RollFirstTurn(h.die, h.rules.TiePolicy(), h.rules.FirstTurnRerollLimit)
	})
}

// ChooseFirstTurn commits the winner's first-turn pick and begins play.
func (h *Hub) ChooseFirstTurn(winnerGoesFirst bool) (match.Snapshot, error) {
	return h.store.Apply("choose_first_turn", func(m *match.Match, now time.Time) error {
		return m.ChooseFirstTurn(winnerGoesFirst, now)
	})
}

// NewMatch abandons the current match: the clock is flushed and the match
// resets to Setup defaults. The commit hook persists the replacement
// snapshot like any other mutation.
func (h *Hub) NewMatch() (match.Snapshot, error) {
	return h.store.Apply("new_match", func(m *match.Match, now time.Time) error {
		m.Reset(h.rules.MaxRounds, now)
		return nil
	})
}
