package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// ConsoleSource treats each line of r as one final utterance. A blank line
// reads as silence. Close ends recognition; the reader is closed too when it
// is an io.Closer, otherwise a pending Read returns with the next line.
type ConsoleSource struct {
	r     io.Reader
	once  sync.Once
	stop  sync.Once
	lines chan string
	done  chan struct{}
	err   error
}

func NewConsoleSource(r io.Reader) *ConsoleSource {
	return &ConsoleSource{r: r, lines: make(chan string), done: make(chan struct{})}
}

func (c *ConsoleSource) start() {
	go func() {
		defer close(c.lines)
		sc := bufio.NewScanner(c.r)
		for sc.Scan() {
			select {
			case c.lines <- sc.Text():
			case <-c.done:
				return
			}
		}
		c.err = sc.Err()
	}()
}

func (c *ConsoleSource) Recognize(ctx context.Context) (Result, error) {
	c.once.Do(c.start)
	select {
	case line, ok := <-c.lines:
		if !ok {
			if c.closed() {
				return Result{}, io.EOF
			}
			if c.err != nil {
				return Result{}, fmt.Errorf("%w: %w", ErrAudioCapture, c.err)
			}
			return Result{}, io.EOF
		}
		if line == "" {
			return Result{}, ErrNoSpeech
		}
		return Result{Text: line, IsFinal: true}, nil
	case <-c.done:
		return Result{}, io.EOF
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (c *ConsoleSource) Close() error {
	var err error
	c.stop.Do(func() {
		close(c.done)
		if rc, ok := c.r.(io.Closer); ok {
			err = rc.Close()
		}
	})
	return err
}

func (c *ConsoleSource) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// ConsoleSynthesizer writes utterances to w, one per line.
type ConsoleSynthesizer struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

func NewConsoleSynthesizer(w io.Writer, prefix string) *ConsoleSynthesizer {
	return &ConsoleSynthesizer{w: w, prefix: prefix}
}

func (c *ConsoleSynthesizer) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "%s%s\n", c.prefix, text)
	return err
}
