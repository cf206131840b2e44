// Package tuitest drives the resurch binary inside a pseudo terminal so
// end-to-end tests can script key presses and inspect rendered frames.
package tuitest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
)

const (
	defaultCols    = 100
	defaultRows    = 30
	defaultTimeout = 10 * time.Second
)

// Input is one scripted write to the terminal, sent after Wait has elapsed.
type Input struct {
	Wait  time.Duration
	Bytes []byte
}

// Type returns an input that writes text as if typed.
func Type(wait time.Duration, text string) Input {
	return Input{Wait: wait, Bytes: []byte(text)}
}

// Press returns an input that sends a single key sequence.
func Press(wait time.Duration, key []byte) Input {
	return Input{Wait: wait, Bytes: key}
}

// Session describes the program to launch and the script to replay.
type Session struct {
	Binary  string
	Args    []string
	Dir     string
	Env     []string
	Cols    int
	Rows    int
	Script  []Input
	Timeout time.Duration
	// ExitCodes lists non-zero exit codes that still count as success.
	ExitCodes []int
}

// Recording is everything the program wrote to the terminal.
type Recording struct {
	Raw     []byte
	Frames  []Frame
	Elapsed time.Duration
}

// lockedBuffer collects PTY output written by the reader goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

// Run launches the session inside a PTY, replays the script and waits for
// the program to exit.
func Run(ctx context.Context, s Session) (*Recording, error) {
	if s.Binary == "" {
		return nil, errors.New("tuitest: binary is required")
	}
	if s.Cols <= 0 {
		s.Cols = defaultCols
	}
	if s.Rows <= 0 {
		s.Rows = defaultRows
	}
	if s.Timeout <= 0 {
		s.Timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.Binary, s.Args...)
	cmd.Dir = s.Dir
	cmd.Env = environment(s.Env)

	term, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(s.Rows), Cols: uint16(s.Cols)})
	if err != nil {
		return nil, fmt.Errorf("tuitest: start %s: %w", s.Binary, err)
	}
	defer func() { _ = term.Close() }()

	var output lockedBuffer
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		replies := newResponder(term)
		chunk := make([]byte, 4096)
		for {
			n, readErr := term.Read(chunk)
			if n > 0 {
				replies.Observe(chunk[:n])
				_, _ = output.Write(chunk[:n])
			}
			if readErr != nil {
				return
			}
		}
	}()

	started := time.Now()
	if err := replay(ctx, term, s.Script); err != nil {
		return nil, err
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	select {
	case err := <-exited:
		if err != nil && !allowedExit(err, s.ExitCodes) {
			return nil, fmt.Errorf("tuitest: program failed: %w", err)
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("tuitest: program did not exit: %w", ctx.Err())
	}

	_ = term.Close()
	<-drained

	raw := output.Bytes()
	return &Recording{Raw: raw, Frames: splitFrames(raw), Elapsed: time.Since(started)}, nil
}

func replay(ctx context.Context, term *os.File, script []Input) error {
	for idx, input := range script {
		if input.Wait > 0 {
			timer := time.NewTimer(input.Wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("tuitest: script step %d: %w", idx, ctx.Err())
			case <-timer.C:
			}
		}
		if len(input.Bytes) == 0 {
			continue
		}
		if _, err := term.Write(input.Bytes); err != nil {
			return fmt.Errorf("tuitest: script step %d: %w", idx, err)
		}
	}
	return nil
}

func allowedExit(err error, codes []int) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	for _, code := range codes {
		if exitErr.ExitCode() == code {
			return true
		}
	}
	return false
}

func environment(extra []string) []string {
	env := append(os.Environ(), extra...)
	for _, entry := range env {
		if strings.HasPrefix(entry, "TERM=") {
			return env
		}
	}
	return append(env, "TERM=xterm-256color")
}

// Key sequences understood by bubbletea.
var (
	KeyEnter = []byte{'\r'}
	KeyTab   = []byte{'\t'}
	KeyEsc   = []byte{0x1b}
	KeyCtrlC = []byte{0x03}
	KeyDown  = []byte("\x1b[B")
	KeyUp    = []byte("\x1b[A")
)
