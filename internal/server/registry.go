package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vaanisewa-core/server/internal/assistant/session"
	errx "github.com/vaanisewa-core/server/internal/core/error"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

var ErrSessionNotFound = errors.New("session not found")

const minSweepInterval = time.Second

// Factory builds a new conversation.
type Factory func(ctx context.Context) (*session.Session, error)

type entry struct {
	session  *session.Session
	lastSeen time.Time
}

// Registry holds the live conversations of the HTTP host.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	factory  Factory
	now      func() time.Time
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		factory:  factory,
		now:      time.Now,
	}
}

func (r *Registry) Create(ctx context.Context) (*session.Session, error) {
	s, err := r.factory(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID] = &entry{session: s, lastSeen: r.now()}
	r.mu.Unlock()
	logx.Info().Str("session_id", s.ID).Msg("session created")
	return s, nil
}

func (r *Registry) Get(id string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, errx.NotFound(ErrSessionNotFound, "Session not found")
	}
	e.lastSeen = r.now()
	return e.session, nil
}

func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return errx.NotFound(ErrSessionNotFound, "Session not found")
	}
	logx.Info().Str("session_id", id).Msg("session closed")
	return e.session.Close(ctx)
}

// Sweep closes sessions idle for longer than maxIdle and returns how many went.
func (r *Registry) Sweep(ctx context.Context, maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	var stale []*session.Session

	r.mu.Lock()
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		if err := s.Close(ctx); err != nil {
			logx.Warn().Err(err).Str("session_id", s.ID).Msg("failed to close idle session")
		}
	}
	return len(stale)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SweepEvery closes sessions idle longer than maxIdle until ctx is done.
func (r *Registry) SweepEvery(ctx context.Context, maxIdle time.Duration) {
	ticker := time.NewTicker(sweepInterval(maxIdle))
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(ctx, maxIdle); n > 0 {
				logx.Info().Int("closed", n).Msg("idle sessions closed")
			}
		case <-ctx.Done():
			return
		}
	}
}

func sweepInterval(maxIdle time.Duration) time.Duration {
	return max(maxIdle/2, minSweepInterval)
}
