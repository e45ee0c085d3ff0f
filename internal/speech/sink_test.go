// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package speech

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestSinkFunc_Speak(t *testing.T) {
	var gotText string
	var gotPriority int
	sink := SinkFunc(func(_ context.Context, text string, priority int) error {
		gotText, gotPriority = text, priority
		return nil
	})
	if err := sink.Speak(t.Context(), "Você entrou em Serro", 2); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if gotText != "Você entrou em Serro" || gotPriority != 2 {
		t.Errorf("unexpected arguments: %q, %d", gotText, gotPriority)
	}
}

func TestConsoleSink_Speak(t *testing.T) {
	t.Run("announcements are written with their priority", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		sink := NewConsoleSink(buf, 0)
		if err := sink.Speak(t.Context(), "Você entrou em Diamantina", 2); err != nil {
			t.Fatalf("failed to speak: %s", err)
		}
		if buf.String() != "[2] Você entrou em Diamantina\n" {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})
	t.Run("long announcements are truncated to the width", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		sink := NewConsoleSink(buf, 12)
		if err := sink.Speak(t.Context(), "Você entrou no bairro Milho Verde", 1); err != nil {
			t.Fatalf("failed to speak: %s", err)
		}
		line := strings.TrimSuffix(buf.String(), "\n")
		if !strings.HasSuffix(line, "…") {
			t.Errorf("expected truncated line, got %q", line)
		}
		if !strings.HasPrefix(line, "[1] Você") {
			t.Errorf("unexpected line: %q", line)
		}
	})
}

func TestNewCommandSink(t *testing.T) {
	t.Run("empty command fails", func(t *testing.T) {
		if _, err := NewCommandSink("   "); !errors.Is(err, ErrEmptyCommand) {
			t.Errorf("expected error to be %s, got %s", ErrEmptyCommand, err)
		}
	})
	t.Run("command line is split into program and arguments", func(t *testing.T) {
		sink, err := NewCommandSink("espeak-ng -v pt-br")
		if err != nil {
			t.Fatalf("failed to create command sink: %s", err)
		}
		if sink.name != "espeak-ng" {
			t.Errorf("expected program espeak-ng, got %q", sink.name)
		}
		if len(sink.args) != 2 || sink.args[0] != "-v" || sink.args[1] != "pt-br" {
			t.Errorf("unexpected arguments: %v", sink.args)
		}
	})
}

func TestCommandSink_Speak(t *testing.T) {
	t.Run("text is passed as last argument", func(t *testing.T) {
		if _, err := exec.LookPath("printf"); err != nil {
			t.Skip("printf not available")
		}
		sink, err := NewCommandSink("printf %s")
		if err != nil {
			t.Fatalf("failed to create command sink: %s", err)
		}
		buf := bytes.NewBuffer(nil)
		sink.output = buf
		if err = sink.Speak(t.Context(), "Você entrou em Serro", 2); err != nil {
			t.Fatalf("failed to speak: %s", err)
		}
		if buf.String() != "Você entrou em Serro" {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})
	t.Run("failing command returns an error", func(t *testing.T) {
		if _, err := exec.LookPath("false"); err != nil {
			t.Skip("false not available")
		}
		sink, err := NewCommandSink("false")
		if err != nil {
			t.Fatalf("failed to create command sink: %s", err)
		}
		if err = sink.Speak(t.Context(), "Centro", 1); err == nil {
			t.Error("expected error for failing command")
		}
	})
	t.Run("unknown program returns an error", func(t *testing.T) {
		sink, err := NewCommandSink("guia-turistico-does-not-exist")
		if err != nil {
			t.Fatalf("failed to create command sink: %s", err)
		}
		if err = sink.Speak(t.Context(), "Centro", 1); !errors.Is(err, exec.ErrNotFound) {
			t.Errorf("expected error to be %s, got %s", exec.ErrNotFound, err)
		}
	})
}
