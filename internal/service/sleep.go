// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/guia-turistico/internal/logger"
)

const (
	dbusInterface   = "org.freedesktop.login1.Manager"
	dbusWatchMember = "PrepareForSleep"

	debounceWindow   = 2 // seconds
	signalBufferSize = 8

	busRetryDelay = 5 * time.Second
)

// monitorSleepResume watches logind for resume events and drops pending announcements when the
// system wakes up. Lost connections to the system bus are re-established until the context is
// cancelled.
func (s *Service) monitorSleepResume(ctx context.Context) {
	var lastResumeUnix int64
	for {
		if err := s.watchPrepareForSleep(ctx, &lastResumeUnix); err != nil {
			s.logger.Debug("sleep monitoring interrupted", logger.Err(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(busRetryDelay):
		}
	}
}

// watchPrepareForSleep subscribes to the PrepareForSleep signal on a fresh system bus connection
// and handles incoming signals until the connection drops or the context is cancelled.
func (s *Service) watchPrepareForSleep(ctx context.Context, lastResumeUnix *int64) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Debug("failed to close system bus connection", logger.Err(err))
		}
	}()

	if err = conn.AddMatchSignal(dbus.WithMatchInterface(dbusInterface),
		dbus.WithMatchMember(dbusWatchMember)); err != nil {
		return err
	}
	sigCh := make(chan *dbus.Signal, signalBufferSize)
	conn.Signal(sigCh)
	defer conn.RemoveSignal(sigCh)
	s.logger.Debug("subscribed to dbus signal", slog.String("interface", dbusInterface),
		slog.String("member", dbusWatchMember))

	for {
		select {
		case <-ctx.Done():
			return nil
		case sgn, ok := <-sigCh:
			if !ok {
				return nil
			}
			if isResumeSignal(sgn) {
				s.handleResumeEvent(lastResumeUnix)
			}
		}
	}
}

// isResumeSignal reports whether the PrepareForSleep signal announces a wake-up. logind sends
// the signal with true before sleeping and with false after resuming.
func isResumeSignal(sgn *dbus.Signal) bool {
	if sgn == nil || len(sgn.Body) != 1 {
		return false
	}
	sleeping, ok := sgn.Body[0].(bool)
	return ok && !sleeping
}

// handleResumeEvent drops all pending announcements after a system wake-up, since they
// describe a location the user most likely left while the system was asleep. The change
// coordinator keeps its stored values, so the next resolved address is compared against the
// location before the sleep. Multiple consecutive resume events are debounced.
func (s *Service) handleResumeEvent(lastResumeUnix *int64) {
	now := time.Now().Unix()
	if now-atomic.LoadInt64(lastResumeUnix) < debounceWindow {
		return
	}
	atomic.StoreInt64(lastResumeUnix, now)

	pending := s.queue.Len()
	s.queue.Clear()
	s.logger.Debug("resuming from sleep, dropped pending announcements", slog.Int("count", pending))
}
