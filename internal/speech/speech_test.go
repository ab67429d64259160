package speech

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	res Result
	err error
}

// scripted replays steps, then reports io.EOF.
type scripted struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func (s *scripted) Recognize(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.steps) == 0 {
		return Result{}, io.EOF
	}
	next := s.steps[0]
	s.steps = s.steps[1:]
	return next.res, next.err
}

func collect(t *testing.T, l *Listener) ([]string, error) {
	t.Helper()
	var got []string
	err := l.Listen(context.Background(), func(_ context.Context, text string) error {
		got = append(got, text)
		return nil
	})
	return got, err
}

func TestListenerDeliversFinalResults(t *testing.T) {
	src := &scripted{steps: []step{
		{res: Result{Text: "browse", IsFinal: false}},
		{res: Result{Text: " browse books ", IsFinal: true}},
		{res: Result{Text: "   ", IsFinal: true}},
		{res: Result{Text: "next", IsFinal: true}},
	}}
	got, err := collect(t, NewListener(src, ListenerOptions{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"browse books", "next"}, got)
}

func TestListenerRestartsAfterSilence(t *testing.T) {
	src := &scripted{steps: []step{
		{err: ErrNoSpeech},
		{err: ErrAudioCapture},
		{res: Result{Text: "help", IsFinal: true}},
		{err: ErrNoSpeech},
		{err: ErrNoSpeech},
		{res: Result{Text: "view cart", IsFinal: true}},
	}}
	got, err := collect(t, NewListener(src, ListenerOptions{MaxRestarts: 2}))
	require.NoError(t, err)
	assert.Equal(t, []string{"help", "view cart"}, got)
}

func TestListenerGivesUpAfterMaxRestarts(t *testing.T) {
	src := &scripted{steps: []step{{err: ErrNoSpeech}, {err: ErrNoSpeech}, {err: ErrNoSpeech}}}
	_, err := collect(t, NewListener(src, ListenerOptions{MaxRestarts: 2}))
	assert.ErrorIs(t, err, ErrTooManyRestarts)
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestListenerStopsOnFatalError(t *testing.T) {
	boom := errors.New("microphone unplugged")
	src := &scripted{steps: []step{{err: boom}, {res: Result{Text: "never", IsFinal: true}}}}
	got, err := collect(t, NewListener(src, ListenerOptions{}))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, got)
}

func TestListenerStopsWhenCallbackFails(t *testing.T) {
	src := &scripted{steps: []step{{res: Result{Text: "one", IsFinal: true}}, {res: Result{Text: "two", IsFinal: true}}}}
	stop := errors.New("stop")
	err := NewListener(src, ListenerOptions{}).Listen(context.Background(), func(context.Context, string) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, src.calls)
}

func TestListenerWaitsWhilePaused(t *testing.T) {
	src := &scripted{steps: []step{{res: Result{Text: "hello", IsFinal: true}}}}
	l := NewListener(src, ListenerOptions{})
	l.Pause()
	assert.True(t, l.Paused())

	done := make(chan []string)
	go func() {
		got, _ := collect(t, l)
		done <- got
	}()

	select {
	case <-done:
		t.Fatal("listener ran while paused")
	case <-time.After(50 * time.Millisecond):
	}

	l.Resume()
	select {
	case got := <-done:
		assert.Equal(t, []string{"hello"}, got)
	case <-time.After(time.Second):
		t.Fatal("listener did not resume")
	}
}

func TestListenerHonoursContext(t *testing.T) {
	l := NewListener(&scripted{}, ListenerOptions{})
	l.Pause()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Listen(ctx, func(context.Context, string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingSynth struct {
	listener *Listener
	said     []string
	pausedAt []bool
	err      error
}

func (r *recordingSynth) Speak(_ context.Context, text string) error {
	r.said = append(r.said, text)
	r.pausedAt = append(r.pausedAt, r.listener.Paused())
	return r.err
}

func TestSpeakerPausesListener(t *testing.T) {
	l := NewListener(&scripted{}, ListenerOptions{})
	synth := &recordingSynth{listener: l}
	sp := NewSpeaker(synth, l)

	require.NoError(t, sp.Say(context.Background(), "Welcome to Vaani Sewa."))
	require.NoError(t, sp.Say(context.Background(), "  "))
	assert.Equal(t, []string{"Welcome to Vaani Sewa."}, synth.said)
	assert.Equal(t, []bool{true}, synth.pausedAt)
	assert.False(t, l.Paused())

	synth.err = errors.New("no audio device")
	assert.Error(t, sp.Say(context.Background(), "again"))
	assert.False(t, l.Paused())
}

func TestConsoleSourceAndSynthesizer(t *testing.T) {
	src := NewConsoleSource(strings.NewReader("browse books\n\nnext\n"))
	ctx := context.Background()

	res, err := src.Recognize(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Text: "browse books", IsFinal: true}, res)

	_, err = src.Recognize(ctx)
	assert.ErrorIs(t, err, ErrNoSpeech)

	res, err = src.Recognize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "next", res.Text)

	_, err = src.Recognize(ctx)
	assert.ErrorIs(t, err, io.EOF)

	var out bytes.Buffer
	require.NoError(t, NewConsoleSynthesizer(&out, "> ").Speak(ctx, "Hello"))
	assert.Equal(t, "> Hello\n", out.String())
}

func TestConsoleSourceCloseStopsReading(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	src := NewConsoleSource(pr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Recognize(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	_, err = src.Recognize(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	_, err = pw.Write([]byte("hello\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}
