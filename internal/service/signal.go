// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/wneessen/guia-turistico/internal/change"
	"github.com/wneessen/guia-turistico/internal/logger"
)

type signalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// stdLibSignalSource is the production implementation.
type stdLibSignalSource struct{}

func (stdLibSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (stdLibSignalSource) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// HandleRepeatSignal announces the current location whenever one of the given signals is
// received, until the context is cancelled.
func (s *Service) HandleRepeatSignal(ctx context.Context, sig ...os.Signal) {
	s.handleRepeatSignal(ctx, stdLibSignalSource{}, sig...)
}

func (s *Service) handleRepeatSignal(ctx context.Context, src signalSource, sig ...os.Signal) {
	sigChan := make(chan os.Signal, 1)
	src.Notify(sigChan, sig...)
	defer src.Stop(sigChan)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigChan:
			if !s.announceCurrent() {
				s.logger.Debug("current location is not known yet")
			}
		}
	}
}

// announceCurrent queues an announcement for the most specific known address field. It
// returns false if no field is known.
func (s *Service) announceCurrent() bool {
	priority := s.coordinator.Priority()
	for _, field := range slices.Backward(priority) {
		value := s.coordinator.Last(field)
		if value == "" {
			continue
		}
		event := change.Event{Field: field, Previous: value, Current: value, At: time.Now()}
		if pos, ok := s.geobus.Last(); ok {
			event.Position = pos
		}
		if _, err := s.announcer.Announce(event); err != nil {
			s.logger.Error("failed to announce current location", logger.Err(err),
				slog.String("field", field.String()))
		}
		return true
	}
	return false
}
