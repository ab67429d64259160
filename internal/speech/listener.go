package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	logx "github.com/vaanisewa-core/server/pkg/logger"
)

const DefaultMaxRestarts = 5

var ErrTooManyRestarts = errors.New("recognition restarted too many times")

type ListenerOptions struct {
	// MaxRestarts bounds consecutive recoverable failures.
	MaxRestarts  int
	RestartDelay time.Duration
}

// Listener runs continuous recognition over a Source and hands final
// transcripts to a callback. It can be paused while the assistant speaks.
type Listener struct {
	src  Source
	opts ListenerOptions

	mu     sync.Mutex
	paused bool
	gate   chan struct{}
}

func NewListener(src Source, opts ListenerOptions) *Listener {
	if opts.MaxRestarts <= 0 {
		opts.MaxRestarts = DefaultMaxRestarts
	}
	if opts.RestartDelay < 0 {
		opts.RestartDelay = 0
	}
	return &Listener{src: src, opts: opts}
}

// Listen blocks until ctx is done, the source ends or onFinal fails. A clean
// end of input returns nil.
func (l *Listener) Listen(ctx context.Context, onFinal func(ctx context.Context, text string) error) error {
	restarts := 0
	for {
		if err := l.waitResumed(ctx); err != nil {
			return err
		}

		res, err := l.src.Recognize(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil && recoverable(err):
			restarts++
			if restarts > l.opts.MaxRestarts {
				return fmt.Errorf("%w: %w", ErrTooManyRestarts, err)
			}
			logx.Debug().Err(err).Int("restart", restarts).Msg("restarting recognition")
			if err := sleep(ctx, l.opts.RestartDelay); err != nil {
				return err
			}
			continue
		case err != nil:
			return err
		}

		restarts = 0
		text := strings.TrimSpace(res.Text)
		if !res.IsFinal || text == "" {
			continue
		}
		if l.Paused() {
			// heard while speaking; most likely our own voice
			continue
		}
		if err := onFinal(ctx, text); err != nil {
			return err
		}
	}
}

func (l *Listener) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.paused {
		l.paused = true
		l.gate = make(chan struct{})
	}
}

func (l *Listener) Resume() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.paused {
		l.paused = false
		close(l.gate)
	}
}

func (l *Listener) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

func (l *Listener) waitResumed(ctx context.Context) error {
	l.mu.Lock()
	paused, gate := l.paused, l.gate
	l.mu.Unlock()
	if !paused {
		return ctx.Err()
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
