// Package speech connects a conversation to a recognizer and a synthesizer.
package speech

import (
	"context"
	"errors"
)

var (
	// ErrNoSpeech and ErrAudioCapture are recoverable: the listener restarts
	// recognition after either.
	ErrNoSpeech     = errors.New("no speech detected")
	ErrAudioCapture = errors.New("audio capture failed")
)

// Result is one recognition result. Interim results carry partial text.
type Result struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// Source produces recognition results. Recognize blocks until the next
// result and returns io.EOF when the input is exhausted.
type Source interface {
	Recognize(ctx context.Context) (Result, error)
}

type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

func recoverable(err error) bool {
	return errors.Is(err, ErrNoSpeech) || errors.Is(err, ErrAudioCapture)
}
