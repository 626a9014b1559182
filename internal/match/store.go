package match

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Store owns the canonical match. It has a single logical writer: every
// mutation funnels through Apply, which serializes writers, runs the
// operation against a working copy, and commits only on success. Readers
// never block on writers; they project from the last committed state held
// behind an atomic pointer.
type Store struct {
	mu    sync.Mutex
	clock clockwork.Clock
	cur   atomic.Pointer[committed]

	onCommit func(Snapshot)
}

type committed struct {
	match   *Match
	version uint64
}

// NewStore wraps a match at the given starting version.
func NewStore(m *Match, version uint64, clock clockwork.Clock) *Store {
	s := &Store{clock: clock}
	s.cur.Store(&committed{match: m, version: version})
	return s
}

// SetOnCommit registers a hook invoked with the snapshot of every accepted
// mutation. Set once during wiring, before any Apply.
func (s *Store) SetOnCommit(fn func(Snapshot)) {
	s.onCommit = fn
}

// Apply runs one mutation. The operation receives a working copy of the
// match and the store clock's now; if it returns an error the copy is
// discarded, the version is unchanged, and no commit hook fires. On
// success the copy becomes the committed state and the version advances.
func (s *Store) Apply(op string, fn func(m *Match, now time.Time) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	prev := s.cur.Load()
	work := prev.match.clone()
	if err := fn(work, now); err != nil {
		if IsRejection(err) {
			log.Debug().Str("op", op).Err(err).Msg("mutation rejected")
		} else {
			log.Error().Str("op", op).Err(err).Msg("mutation failed")
		}
		return Snapshot{}, err
	}

	next := &committed{match: work, version: prev.version + 1}
	s.cur.Store(next)
	snap := BuildSnapshot(work, next.version, now)
	log.Debug().Str("op", op).Uint64("version", next.version).Str("phase", snap.Phase).Msg("mutation applied")
	if s.onCommit != nil {
		s.onCommit(snap)
	}
	return snap, nil
}

// Version returns the version of the last committed mutation.
func (s *Store) Version() uint64 {
	return s.cur.Load().version
}

// Snapshot projects the committed state at the store clock's now.
func (s *Store) Snapshot() Snapshot {
	return s.SnapshotAt(s.clock.Now())
}

// SnapshotAt projects the committed state at an arbitrary instant. This is
// the read side of the live clock display: it decorates committed seconds
// with the open segment without mutating anything, and may run concurrently
// with writers.
func (s *Store) SnapshotAt(now time.Time) Snapshot {
	cur := s.cur.Load()
	return BuildSnapshot(cur.match, cur.version, now)
}
