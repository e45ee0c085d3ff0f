// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
)

// ErrEmptyCommand is returned by NewCommandSink for an empty command line.
var ErrEmptyCommand = errors.New("speech command is empty")

// Sink speaks announcement text.
type Sink interface {
	Speak(ctx context.Context, text string, priority int) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(ctx context.Context, text string, priority int) error

// Speak calls f(ctx, text, priority).
func (f SinkFunc) Speak(ctx context.Context, text string, priority int) error {
	return f(ctx, text, priority)
}

// ConsoleSink writes announcements as "[priority] text" lines. Lines wider than the
// configured display width are truncated.
type ConsoleSink struct {
	mu     sync.Mutex
	output io.Writer
	width  int
}

// NewConsoleSink returns a ConsoleSink writing to w. A non-positive width disables truncation.
func NewConsoleSink(w io.Writer, width int) *ConsoleSink {
	return &ConsoleSink{output: w, width: width}
}

func (s *ConsoleSink) Speak(_ context.Context, text string, priority int) error {
	line := fmt.Sprintf("[%d] %s", priority, text)
	if s.width > 0 {
		line = runewidth.Truncate(line, s.width, "…")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.output, line); err != nil {
		return fmt.Errorf("failed to write announcement: %w", err)
	}
	return nil
}

// CommandSink speaks announcements with an external text-to-speech program. The text is
// passed as the last argument, e.g. "espeak-ng -v pt-br".
type CommandSink struct {
	name   string
	args   []string
	output io.Writer
}

// NewCommandSink parses the command line into program and arguments.
func NewCommandSink(command string) (*CommandSink, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, ErrEmptyCommand
	}
	return &CommandSink{name: fields[0], args: fields[1:], output: io.Discard}, nil
}

func (s *CommandSink) Speak(ctx context.Context, text string, _ int) error {
	args := append(append(make([]string, 0, len(s.args)+1), s.args...), text)
	cmd := exec.CommandContext(ctx, s.name, args...)
	stderr := bytes.NewBuffer(nil)
	cmd.Stdout = s.output
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("failed to run speech command %q: %w: %s", s.name, err, msg)
		}
		return fmt.Errorf("failed to run speech command %q: %w", s.name, err)
	}
	return nil
}
