package speech

import (
	"context"
	"strings"

	logx "github.com/vaanisewa-core/server/pkg/logger"
)

// Pauser is the part of a Listener a Speaker needs.
type Pauser interface {
	Pause()
	Resume()
}

// Speaker synthesizes replies, keeping the listener paused for the duration
// of each utterance.
type Speaker struct {
	synth    Synthesizer
	listener Pauser
}

// NewSpeaker accepts a nil listener.
func NewSpeaker(synth Synthesizer, listener Pauser) *Speaker {
	return &Speaker{synth: synth, listener: listener}
}

func (s *Speaker) Say(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if s.listener != nil {
		s.listener.Pause()
		defer s.listener.Resume()
	}
	if err := s.synth.Speak(ctx, text); err != nil {
		logx.Warn().Err(err).Msg("speech synthesis failed")
		return err
	}
	return nil
}
