// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package i18n provides the localizer for spoken announcements. Messages are written in
// Brazilian Portuguese, translations live in the embedded locale directory.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/Xuanwo/go-locale"
	"github.com/vorlif/humanize"
	"github.com/vorlif/humanize/locale/pt"
	"github.com/vorlif/humanize/locale/ptBR"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"
)

// SourceLanguage is the language the messages are written in.
var SourceLanguage = language.BrazilianPortuguese

//go:embed locale/*
var locales embed.FS

// New returns a localizer for the given locale. An empty locale is detected from the
// environment and falls back to the source language.
func New(loc string) (*spreak.Localizer, error) {
	tag, err := Tag(loc)
	if err != nil {
		return nil, err
	}

	localeFS, err := fs.Sub(locales, "locale")
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}

	bundle, err := spreak.NewBundle(
		spreak.WithSourceLanguage(SourceLanguage),
		spreak.WithFallbackLanguage(SourceLanguage),
		spreak.WithDomainFs(spreak.NoDomain, localeFS),
		spreak.WithLanguage(tag),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create i18n bundle: %w", err)
	}
	return spreak.NewLocalizer(bundle, tag), nil
}

// NewHumanizer returns a humanizer for relative times and durations in the given language.
// Languages without humanize data fall back to English.
func NewHumanizer(tag language.Tag) *humanize.Humanizer {
	collection := humanize.MustNew(humanize.WithLocale(ptBR.New(), pt.New()))
	return collection.CreateHumanizer(tag)
}

// Tag parses the locale into a language tag. An empty locale is detected from the environment.
func Tag(loc string) (language.Tag, error) {
	if loc == "" {
		tag, err := locale.Detect()
		if err != nil {
			return SourceLanguage, nil // Unable to detect locale, fall back to the source language
		}
		return tag, nil
	}
	tag, err := language.Parse(loc)
	if err != nil {
		return language.Und, fmt.Errorf("failed to parse locale %q: %w", loc, err)
	}
	return tag, nil
}
