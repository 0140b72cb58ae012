package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/calchat/internal/instrumentation"
)

const (
	// DefaultSessionTTL is how long an idle session is kept.
	DefaultSessionTTL = 24 * time.Hour
	// DefaultCleanupInterval is how often expired sessions are swept.
	DefaultCleanupInterval = 10 * time.Minute
)

// sessionEntry tracks a transcript and its last access for cleanup
type sessionEntry struct {
	transcript Transcript
	lastAccess time.Time
}

// MemoryStore keeps transcripts in process memory. Idle sessions are dropped
// by a background sweep; call Stop to end it.
type MemoryStore struct {
	sessions      map[string]*sessionEntry
	mu            sync.RWMutex
	ttl           time.Duration
	cleanupTicker *time.Ticker
	cleanupDone   chan struct{}
	stopOnce      sync.Once
	now           func() time.Time
	metrics       *instrumentation.Metrics
	logger        *slog.Logger
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL sets the idle timeout.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithoutExpiry keeps sessions until they are deleted or the process exits.
func WithoutExpiry() MemoryOption {
	return func(s *MemoryStore) { s.ttl = 0 }
}

// WithStoreClock sets the time source used for expiry.
func WithStoreClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// WithStoreMetrics tracks the active session gauge on m.
func WithStoreMetrics(m *instrumentation.Metrics) MemoryOption {
	return func(s *MemoryStore) { s.metrics = m }
}

// WithStoreLogger sets the logger.
func WithStoreLogger(logger *slog.Logger) MemoryOption {
	return func(s *MemoryStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewMemoryStore creates a store and starts its cleanup goroutine.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	return newMemoryStore(DefaultCleanupInterval, opts...)
}

func newMemoryStore(interval time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions:      make(map[string]*sessionEntry),
		ttl:           DefaultSessionTTL,
		cleanupTicker: time.NewTicker(interval),
		cleanupDone:   make(chan struct{}),
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

// Load returns a copy of the session's transcript.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok || s.expired(entry, s.now()) {
		return nil, ErrNotFound
	}
	entry.lastAccess = s.now()
	return entry.transcript.clone(), nil
}

// Save replaces the session's transcript.
func (s *MemoryStore) Save(ctx context.Context, sessionID string, t Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		s.metrics.IncrementActiveSessions(ctx)
	}
	s.sessions[sessionID] = &sessionEntry{
		transcript: t.clone(),
		lastAccess: s.now(),
	}
	return nil
}

// Delete removes the session. Unknown sessions are ignored.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		s.metrics.DecrementActiveSessions(ctx)
	}
	return nil
}

// Len returns the number of stored sessions, expired ones included until
// the next sweep.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) expired(entry *sessionEntry, now time.Time) bool {
	if s.ttl == 0 {
		return false
	}
	return now.Sub(entry.lastAccess) > s.ttl
}

// removeExpired drops idle sessions and returns how many were removed.
func (s *MemoryStore) removeExpired(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
			s.metrics.DecrementActiveSessions(ctx)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-s.cleanupTicker.C:
			if n := s.removeExpired(context.Background()); n > 0 {
				s.logger.Info("Cleaned up expired sessions", "count", n)
			}
		case <-s.cleanupDone:
			return
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() {
		s.cleanupTicker.Stop()
		close(s.cleanupDone)
	})
}
