// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package i18n

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestNew(t *testing.T) {
	t.Run("new i18n provider with empty locale string succeeds", func(t *testing.T) {
		provider, err := New("")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if provider == nil {
			t.Fatal("expected i18n provider to be non-nil")
		}
	})
	t.Run("the source language returns the message itself", func(t *testing.T) {
		provider, err := New("pt-BR")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if got := provider.Get("Você entrou em"); got != "Você entrou em" {
			t.Errorf("expected source message, got %q", got)
		}
	})
	t.Run("english messages are translated", func(t *testing.T) {
		provider, err := New("en")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if got := provider.Get("Você entrou em"); got != "You entered" {
			t.Errorf("expected translated message, got %q", got)
		}
	})
	t.Run("service lifecycle messages are translated", func(t *testing.T) {
		provider, err := New("en")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		messages := map[string]string{
			"iniciando o serviço guia-turistico":         "starting guia-turistico service",
			"falha ao executar o serviço guia-turistico": "failed to run guia-turistico service",
			"encerrando o serviço guia-turistico":        "shutting down guia-turistico service",
		}
		for msgid, want := range messages {
			if got := provider.Get(msgid); got != want {
				t.Errorf("expected %q to be translated to %q, got %q", msgid, want, got)
			}
		}
	})
	t.Run("an invalid locale fails", func(t *testing.T) {
		if _, err := New("not a locale!"); err == nil {
			t.Error("expected invalid locale to fail")
		}
	})
}

func TestNewHumanizer(t *testing.T) {
	tests := []struct {
		name string
		tag  language.Tag
		want string
	}{
		{"brazilian portuguese", language.BrazilianPortuguese, "atrás"},
		{"portuguese", language.Portuguese, "atrás"},
		{"english", language.English, "ago"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewHumanizer(tc.tag).NaturalTime(time.Now().Add(-3 * time.Minute))
			if !strings.Contains(got, tc.want) {
				t.Errorf("expected relative time to contain %q, got %q", tc.want, got)
			}
		})
	}
}

func TestTag(t *testing.T) {
	tag, err := Tag("pt-BR")
	if err != nil {
		t.Fatalf("failed to parse locale: %s", err)
	}
	if tag != language.BrazilianPortuguese {
		t.Errorf("expected %s, got %s", language.BrazilianPortuguese, tag)
	}
	if tag, err = Tag(""); err != nil || tag == language.Und {
		t.Errorf("expected a detected or fallback tag, got %s (%v)", tag, err)
	}
}
