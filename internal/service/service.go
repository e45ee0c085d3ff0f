// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package service wires the position, address, change and speech components together.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vorlif/spreak"

	"github.com/wneessen/guia-turistico/internal/change"
	"github.com/wneessen/guia-turistico/internal/config"
	"github.com/wneessen/guia-turistico/internal/geobus"
	"github.com/wneessen/guia-turistico/internal/geocode"
	"github.com/wneessen/guia-turistico/internal/i18n"
	"github.com/wneessen/guia-turistico/internal/logger"
	"github.com/wneessen/guia-turistico/internal/metrics"
	"github.com/wneessen/guia-turistico/internal/presenter"
	"github.com/wneessen/guia-turistico/internal/speech"
)

const (
	positionBufferSize = 8
	shutdownTimeout    = 5 * time.Second
	readHeaderTimeout  = 5 * time.Second
)

// ErrPositionBacklog is returned to the GeoBus when positions arrive faster than they can be
// resolved.
var ErrPositionBacklog = errors.New("position backlog is full")

type Service struct {
	config       *config.Config
	logger       *logger.Logger
	localizer    *spreak.Localizer
	metrics      *metrics.Collector
	geobus       *geobus.GeoBus
	geocoder     *geocode.CachedGeocoder
	coordinator  *change.Coordinator
	presenter    *presenter.Presenter
	queue        *speech.Queue
	announcer    *speech.Announcer
	dispatcher   *speech.Dispatcher
	orchestrator *geobus.Orchestrator
	scheduler    gocron.Scheduler
	positions    chan geobus.Position

	// sleepMonitor watches for system resume events. It is nil if disabled.
	sleepMonitor func(context.Context)
}

// New builds the pipeline from the configuration.
func New(conf *config.Config, log *logger.Logger, loc *spreak.Localizer) (*Service, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	collector, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics collector: %w", err)
	}

	service := &Service{
		config:    conf,
		logger:    log,
		localizer: loc,
		metrics:   collector,
		scheduler: scheduler,
		positions: make(chan geobus.Position, positionBufferSize),
	}
	service.sleepMonitor = service.monitorSleepResume

	thresholds := geobus.Thresholds{
		MinDistance: conf.Tracking.MinDistance,
		MinInterval: conf.Tracking.MinInterval,
		MaxAccuracy: conf.Tracking.MaxAccuracy,
	}
	service.geobus, err = geobus.New(log, thresholds, geobus.WithMetrics(collector))
	if err != nil {
		return nil, fmt.Errorf("failed to create geobus: %w", err)
	}

	coder, err := service.selectGeocodeProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode provider: %w", err)
	}
	cache := geocode.NewCache(conf.Cache.Capacity, conf.Cache.Precision, geocode.WithCacheMetrics(collector))
	service.geocoder = geocode.NewCachedGeocoder(coder, cache, collector)

	priority, err := conf.ChangePriority()
	if err != nil {
		return nil, fmt.Errorf("failed to parse change priority: %w", err)
	}
	service.coordinator, err = change.New(log, priority, change.WithMetrics(collector))
	if err != nil {
		return nil, fmt.Errorf("failed to create change coordinator: %w", err)
	}

	lang, err := i18n.Tag(conf.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to parse locale: %w", err)
	}
	service.presenter, err = presenter.New(conf.FieldTemplates(), loc, i18n.NewHumanizer(lang))
	if err != nil {
		return nil, fmt.Errorf("failed to parse announcement templates: %w", err)
	}

	service.queue = speech.NewQueue(conf.Speech.Capacity, speech.WithMetrics(collector),
		speech.WithDropHandler(service.logDrop))
	service.announcer = speech.NewAnnouncer(service.presenter, service.queue, conf.Speech.TTL,
		conf.SpeechPriorities())
	service.coordinator.Subscribe(service.announcer)

	sink, err := service.selectSpeechSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create speech sink: %w", err)
	}
	service.dispatcher = speech.NewDispatcher(service.queue, sink, log, conf.Speech.Interval, collector)

	providers, err := service.selectGeobusProviders()
	if err != nil {
		return nil, err
	}
	service.orchestrator = service.geobus.NewOrchestrator(providers)

	return service, nil
}

// Run starts the pipeline and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.createScheduledJob(ctx, s.config.Intervals.Status, s.logStatus,
		"status_job"); err != nil {
		return err
	}
	s.scheduler.Start()

	server := s.startMetricsServer()

	unsub := s.geobus.Subscribe(geobus.ObserverFunc(s.enqueuePosition))
	go s.processLocationUpdates(ctx)
	go s.dispatcher.Run(ctx)
	if s.sleepMonitor != nil {
		go s.sleepMonitor(ctx)
	}
	go s.orchestrator.Track(ctx)

	// Wait for the context to cancel
	<-ctx.Done()
	unsub()

	var errs []error
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down metrics server: %w", err))
		}
	}
	if err := s.scheduler.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("failed to shut down scheduler: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

// enqueuePosition hands an accepted position to the resolver loop without blocking the GeoBus.
func (s *Service) enqueuePosition(pos geobus.Position) error {
	select {
	case s.positions <- pos:
		return nil
	default:
		return ErrPositionBacklog
	}
}

// processLocationUpdates resolves positions handed over by the GeoBus until the context is
// cancelled.
func (s *Service) processLocationUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case pos := <-s.positions:
			err := s.handlePosition(ctx, pos)
			switch {
			case err == nil:
			case errors.Is(err, geocode.ErrResolutionFailed):
				s.logger.Warn("address unavailable", logger.Err(err), slog.Float64("lat", pos.Lat),
					slog.Float64("lon", pos.Lon))
			default:
				s.logger.Error("failed to process position update", logger.Err(err),
					slog.String("source", pos.Source))
			}
		}
	}
}

// handlePosition resolves the position to an address and passes it to the change coordinator.
// Announcements are queued by the coordinator's sinks.
func (s *Service) handlePosition(ctx context.Context, pos geobus.Position) error {
	addr, err := s.geocoder.Reverse(ctx, pos)
	if err != nil {
		return err
	}
	if !addr.Found {
		s.logger.Debug("no address found for position", slog.Float64("lat", pos.Lat),
			slog.Float64("lon", pos.Lon))
		return nil
	}
	s.logger.Debug("address successfully resolved", slog.String("address", addr.DisplayName),
		slog.Bool("cache_hit", addr.CacheHit))

	if _, err = s.coordinator.Observe(pos, addr); err != nil {
		if errors.Is(err, change.ErrStaleAddress) {
			return nil
		}
		return fmt.Errorf("failed to process address change: %w", err)
	}
	return nil
}

// logStatus logs the current state of the pipeline.
func (s *Service) logStatus(context.Context) {
	hits, misses, evictions := s.geocoder.Cache().Stats()
	attrs := []any{
		slog.String("state", s.geobus.State().String()),
		slog.Int("cache_entries", s.geocoder.Cache().Len()),
		slog.Int64("cache_hits", hits),
		slog.Int64("cache_misses", misses),
		slog.Int64("cache_evictions", evictions),
		slog.Int("queue_length", s.queue.Len()),
	}
	if pos, ok := s.geobus.Last(); ok {
		attrs = append(attrs, slog.String("last_position", s.presenter.Age(pos.Timestamp)))
	}
	for _, field := range s.coordinator.Priority() {
		if value := s.coordinator.Last(field); value != "" {
			attrs = append(attrs, slog.String(field.String(), value))
		}
	}
	s.logger.Info("guia-turistico status", attrs...)
}

// logDrop logs speech items that were dropped without being spoken.
func (s *Service) logDrop(item speech.Item, reason speech.DropReason) {
	s.logger.Debug("announcement dropped", slog.String("reason", string(reason)),
		slog.String("topic", item.Topic), slog.String("text", item.Text),
		slog.String("created", s.presenter.Age(item.CreatedAt)))
}

// startMetricsServer serves the metrics endpoint if configured. It returns nil if disabled.
func (s *Service) startMetricsServer() *stdhttp.Server {
	if s.config.Metrics.Listen == "" {
		return nil
	}
	mux := stdhttp.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	server := &stdhttp.Server{
		Addr:              s.config.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		s.logger.Info("serving metrics", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			s.logger.Error("metrics server failed", logger.Err(err))
		}
	}()
	return server
}
