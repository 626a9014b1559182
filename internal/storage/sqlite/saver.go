package sqlite

import (
	"context"

	"github.com/rs/zerolog/log"

	"tabletally/internal/match"
)

// Saver moves snapshot writes off the store's apply path. Enqueued
// snapshots coalesce: only the newest pending one is written. On shutdown
// the final snapshot is flushed before Run returns.
type Saver struct {
	store *Store
	ch    chan match.Snapshot
}

// NewSaver creates a background saver for a store.
func NewSaver(store *Store) *Saver {
	return &Saver{
		store: store,
		ch:    make(chan match.Snapshot, 1),
	}
}

// Enqueue schedules a snapshot for saving, replacing any still-pending
// older one.
func (sv *Saver) Enqueue(snap match.Snapshot) {
	for {
		select {
		case sv.ch <- snap:
			return
		default:
			select {
			case <-sv.ch:
			default:
			}
		}
	}
}

// Run drains the queue until the context ends, then flushes whatever is
// pending. Persistence failures are logged; the session does not stop for
// them.
func (sv *Saver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			select {
			case snap := <-sv.ch:
				if err := sv.store.Save(snap); err != nil {
					log.Error().Err(err).Uint64("version", snap.Version).Msg("final snapshot save failed")
				}
			default:
			}
			return
		case snap := <-sv.ch:
			if err := sv.store.Save(snap); err != nil {
				log.Error().Err(err).Uint64("version", snap.Version).Msg("snapshot save failed")
			}
		}
	}
}
