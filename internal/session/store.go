// Package session holds the per-user dialogue state of the bot.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/WishlistBot/internal/metrics"
)

// Session is the ephemeral dialogue state of one user. It is never
// persisted; a restart returns everyone to Idle.
type Session struct {
	UserID int64
	State  State
}

// Reset discards any in-progress dialogue
func (s *Session) Reset() {
	s.State = Idle{}
}

type entry struct {
	mu      sync.Mutex
	session Session

	// guarded by Store.mu
	lastActive time.Time
	refs       int
}

// Store maps Telegram user IDs to sessions. Each user has an independent
// lock, so dialogues of different users never contend with each other
// while steps of the same user run one at a time.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
	now     func() time.Time
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewStore creates an empty session store. m may be nil.
func NewStore(logger *logrus.Logger, m *metrics.Metrics) *Store {
	return &Store{
		entries: make(map[int64]*entry),
		now:     time.Now,
		logger:  logger,
		metrics: m,
	}
}

// acquire returns the user's entry, creating an Idle one on first use, and
// pins it against eviction until release.
func (s *Store) acquire(userID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		e = &entry{session: Session{UserID: userID, State: Idle{}}}
		s.entries[userID] = e
		s.metrics.SetSessions(len(s.entries))
	}
	e.refs++
	e.lastActive = s.now()
	return e
}

func (s *Store) release(e *entry) {
	s.mu.Lock()
	e.refs--
	e.lastActive = s.now()
	s.mu.Unlock()
}

// Do runs fn with exclusive access to the user's session. Changes fn makes
// to the session are kept even when it returns an error, so fn must only
// mutate the session once a step has fully succeeded.
func (s *Store) Do(userID int64, fn func(*Session) error) error {
	e := s.acquire(userID)
	defer s.release(e)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.State == nil {
		e.session.State = Idle{}
	}
	return fn(&e.session)
}

// Get returns a copy of the user's session, creating an Idle one if the
// user has none.
func (s *Store) Get(userID int64) Session {
	var out Session
	_ = s.Do(userID, func(sess *Session) error {
		out = *sess
		return nil
	})
	return out
}

// Clear resets the user's session to Idle
func (s *Store) Clear(userID int64) {
	_ = s.Do(userID, func(sess *Session) error {
		sess.Reset()
		return nil
	})
}

// Len returns the number of sessions in memory
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Evict drops sessions that have been idle for longer than maxIdle and are
// not in use. It returns the number of sessions removed.
func (s *Store) Evict(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	removed := 0
	for id, e := range s.entries {
		if e.refs == 0 && e.lastActive.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	if removed > 0 {
		s.metrics.SetSessions(len(s.entries))
	}
	return removed
}

// StartJanitor evicts idle sessions every interval. It blocks until the
// context is cancelled, so it should be launched in a separate goroutine.
func (s *Store) StartJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.WithFields(logrus.Fields{
		"interval": interval,
		"max_idle": maxIdle,
	}).Info("Session janitor started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session janitor stopped")
			return
		case <-ticker.C:
			if n := s.Evict(maxIdle); n > 0 {
				s.logger.WithField("evicted", n).Debug("Evicted idle sessions")
			}
		}
	}
}
