// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package presenter renders change events into the text of spoken announcements.
package presenter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/vorlif/humanize"
	"github.com/vorlif/spreak"

	"github.com/wneessen/guia-turistico/internal/change"
	"github.com/wneessen/guia-turistico/internal/geobus"
	"github.com/wneessen/guia-turistico/internal/geocode"
)

// Default announcement templates per field.
const (
	DefaultMunicipioTemplate  = `{{loc "Você entrou em"}} {{.Current}}`
	DefaultBairroTemplate     = `{{loc "Você entrou no bairro"}} {{.Current}}`
	DefaultLogradouroTemplate = `{{loc "Você está em"}} {{.Current}}`
)

// ErrEmptyAnnouncement is returned if a template renders to an empty text.
var ErrEmptyAnnouncement = errors.New("announcement text is empty")

// TemplateContext is the data the announcement templates are executed with.
type TemplateContext struct {
	Field    string
	Previous string
	Current  string
	Address  geocode.Address
	Position geobus.Position
	At       time.Time
}

type Presenter struct {
	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
	templates map[change.Field]*template.Template
}

// New parses the announcement templates. Fields without a template use the default one.
func New(templates map[change.Field]string, loc *spreak.Localizer, hum *humanize.Humanizer) (*Presenter, error) {
	if hum == nil {
		hum = humanize.MustNew().CreateHumanizer()
	}
	p := &Presenter{
		localizer: loc,
		humanizer: hum,
		templates: make(map[change.Field]*template.Template, 3),
	}

	defaults := map[change.Field]string{
		change.FieldMunicipio:  DefaultMunicipioTemplate,
		change.FieldBairro:     DefaultBairroTemplate,
		change.FieldLogradouro: DefaultLogradouroTemplate,
	}
	for field, text := range defaults {
		if custom := templates[field]; strings.TrimSpace(custom) != "" {
			text = custom
		}
		tpl, err := template.New(field.String()).Funcs(p.templateFuncMap()).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", field, err)
		}
		p.templates[field] = tpl
	}
	return p, nil
}

// BuildContext returns the template data for the event.
func (p *Presenter) BuildContext(event change.Event) TemplateContext {
	return TemplateContext{
		Field:    event.Field.String(),
		Previous: event.Previous,
		Current:  event.Current,
		Address:  event.Address,
		Position: event.Position,
		At:       event.At,
	}
}

// Render returns the announcement text for the event. Whitespace runs in the output are
// collapsed, so templates can be written over multiple lines.
func (p *Presenter) Render(event change.Event) (string, error) {
	tpl, ok := p.templates[event.Field]
	if !ok {
		return "", fmt.Errorf("no template for field %q", event.Field)
	}
	buf := bytes.NewBuffer(nil)
	if err := tpl.Execute(buf, p.BuildContext(event)); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", event.Field, err)
	}
	text := strings.Join(strings.Fields(buf.String()), " ")
	if text == "" {
		return "", ErrEmptyAnnouncement
	}
	return text, nil
}

// Age returns a human readable description of how long ago t was.
func (p *Presenter) Age(t time.Time) string {
	return p.humanizer.NaturalTime(t)
}
