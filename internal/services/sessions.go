package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session bundles one browser's page controllers. Controllers are created
// together and live until the session expires.
type Session struct {
	ID          string
	Dashboard   *Dashboard
	Scorer      *Scorer
	Generator   *Generator
	Batch       *BatchScorer
	Experiments *Experiments
	Ingestion   *Ingestion

	mu       sync.Mutex
	lastSeen time.Time
}

// NewSession wires a full set of controllers against api.
func NewSession(id string, api FraudAPI, providerID string, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		ID:          id,
		Dashboard:   NewDashboard(api, opts),
		Scorer:      NewScorer(api, opts),
		Generator:   NewGenerator(opts),
		Batch:       NewBatchScorer(api, opts),
		Experiments: NewExperiments(api, NewExperimentStore(), opts),
		Ingestion:   NewIngestion(api, providerID, opts),
		lastSeen:    opts.Now(),
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type SessionStore struct {
	api        FraudAPI
	providerID string
	ttl        time.Duration
	opts       Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore(api FraudAPI, providerID string, ttl time.Duration, opts Options) *SessionStore {
	return &SessionStore{
		api:        api,
		providerID: providerID,
		ttl:        ttl,
		opts:       opts.withDefaults(),
		sessions:   make(map[string]*Session),
	}
}

// Get returns the live session for id and marks it as used.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	sess.touch(s.opts.Now())
	return sess, true
}

// GetOrCreate returns the session for id, creating one under a fresh id if
// id is empty, malformed or unknown. The returned bool reports creation.
func (s *SessionStore) GetOrCreate(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err == nil {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}

	sess := NewSession(uuid.NewString(), s.api, s.providerID, s.opts)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.opts.Logger.Debug("session created", "session_id", sess.ID)
	return sess, true
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (s *SessionStore) Sweep() int {
	cutoff := s.opts.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.opts.Logger.Info("expired sessions removed", slog.Int("count", n), slog.Int("remaining", s.Len()))
			}
		}
	}
}

type sessionKey struct{}

func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session attached by the session middleware.
func SessionFrom(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*Session)
	return sess, ok && sess != nil
}
