package wizard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joeblew999/plat-mapwizard/internal/config"
)

// Store keeps the open sessions and expires idle ones.
type Store struct {
	cfg config.Config
	be  Backend
	log *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store. Sessions it creates share cfg and be.
func NewStore(cfg config.Config, be Backend, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{cfg: cfg, be: be, log: log, sessions: make(map[string]*Session)}
}

// Config returns the configuration sessions are created with.
func (s *Store) Config() config.Config { return s.cfg }

// Create opens a new session.
func (s *Store) Create() *Session {
	sess := NewSession(uuid.NewString(), s.cfg, s.be, s.log)
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.log.Debug("session created", "session", sess.ID)
	return sess
}

// Get returns an open session.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes sessions untouched since before now minus idle. It returns
// how many were closed.
func (s *Store) Sweep(now time.Time, idle time.Duration) int {
	var expired []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if now.Sub(sess.Touched()) > idle {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
		s.log.Debug("session expired", "session", sess.ID)
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done, then closes all sessions.
func (s *Store) Run(ctx context.Context) {
	idle := s.cfg.SessionIdle()
	if idle <= 0 {
		idle = time.Hour
	}
	tick := time.NewTicker(idle / 4)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			s.CloseAll()
			return
		case now := <-tick.C:
			if n := s.Sweep(now, idle); n > 0 {
				s.log.Info("expired idle sessions", "count", n)
			}
		}
	}
}

// CloseAll closes and forgets every session.
func (s *Store) CloseAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	for _, sess := range all {
		sess.Close()
	}
}
