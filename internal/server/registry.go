package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "venue-finder/internal/common/errors"
	"venue-finder/internal/common/logger"
	"venue-finder/internal/common/metrics"
	"venue-finder/internal/finder/session"
	"venue-finder/internal/finder/store"
)

// entry tracks one live session and its idle deadline.
type entry struct {
	session      *session.Session
	createdAt    time.Time
	lastActivity time.Time
}

func (e *entry) isExpired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(e.lastActivity) > ttl
}

// Registry owns the live finder sessions. All sessions share one
// immutable store.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry

	store       *store.Store
	cfg         session.Config
	ttl         time.Duration
	maxSessions int
	recorder    session.Recorder
	log         logger.Logger
	now         func() time.Time
}

type RegistryOption func(*Registry)

// WithSessionTTL expires sessions idle for longer than ttl. Zero disables
// expiry.
func WithSessionTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) { r.ttl = ttl }
}

// WithMaxSessions caps the number of live sessions. Zero means no cap.
func WithMaxSessions(n int) RegistryOption {
	return func(r *Registry) { r.maxSessions = n }
}

func WithSessionRecorder(rec session.Recorder) RegistryOption {
	return func(r *Registry) { r.recorder = rec }
}

func withClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(st *store.Store, cfg session.Config, log logger.Logger, opts ...RegistryOption) *Registry {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	r := &Registry{
		sessions: make(map[string]*entry),
		store:    st,
		cfg:      cfg,
		log:      log.WithFields(map[string]interface{}{"component": "session-registry"}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create starts a new session with a random id.
func (r *Registry) Create() (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)
	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		return nil, apperrors.NewSessionLimitReachedError(r.maxSessions)
	}

	id := uuid.NewString()
	var opts []session.Option
	if r.recorder != nil {
		opts = append(opts, session.WithRecorder(r.recorder))
	}
	s := session.New(id, r.store, r.cfg, r.log, opts...)
	r.sessions[id] = &entry{session: s, createdAt: now, lastActivity: now}
	metrics.SessionsActive.Set(float64(len(r.sessions)))

	r.log.Info("session created", map[string]interface{}{
		"sessionId": id,
		"active":    len(r.sessions),
	})
	return s, nil
}

// Get returns a live session and refreshes its idle deadline.
func (r *Registry) Get(id string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.NewSessionNotFoundError(id)
	}
	if e.isExpired(now, r.ttl) {
		r.removeLocked(id, e, now)
		return nil, apperrors.NewSessionNotFoundError(id)
	}
	e.lastActivity = now
	return e.session, nil
}

// Delete ends a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	metrics.SessionsActive.Set(float64(len(r.sessions)))
	r.log.Info("session deleted", map[string]interface{}{"sessionId": id})
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes every expired session and returns how many went.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

// Run sweeps expired sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) sweepLocked(now time.Time) int {
	removed := 0
	for id, e := range r.sessions {
		if e.isExpired(now, r.ttl) {
			r.removeLocked(id, e, now)
			removed++
		}
	}
	return removed
}

func (r *Registry) removeLocked(id string, e *entry, now time.Time) {
	delete(r.sessions, id)
	metrics.SessionsActive.Set(float64(len(r.sessions)))
	r.log.Info("session expired", map[string]interface{}{
		"sessionId": id,
		"idle":      now.Sub(e.lastActivity).String(),
		"age":       now.Sub(e.createdAt).String(),
	})
}
