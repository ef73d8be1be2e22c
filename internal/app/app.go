package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderelay/internal/assist"
	"github.com/vovakirdan/coderelay/internal/config"
	"github.com/vovakirdan/coderelay/internal/core"
	"github.com/vovakirdan/coderelay/internal/metrics"
	transporthttp "github.com/vovakirdan/coderelay/internal/transport/http"
	"github.com/vovakirdan/coderelay/internal/transport/ws"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	adapter         *ws.Adapter
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	adapter := ws.NewAdapter(logger, m)
	hub := core.NewHub(core.NewRegistry(), adapter, logger, core.WithMetrics(m), core.WithCommandBuffer(cfg.CommandBuffer))

	var gen assist.Generator
	gemini, err := assist.NewGemini(ctx, cfg.Assist)
	switch {
	case errors.Is(err, assist.ErrNotConfigured):
		logger.Warn().Msg("assist api key not set, /gemini will answer with errors")
		gen = assist.Unavailable{}
	case err != nil:
		return nil, fmt.Errorf("init assist: %w", err)
	default:
		logger.Info().Str("model", cfg.Assist.Model).Msg("assist provider initialized")
		gen = gemini
	}

	wsHandler := ws.NewHandler(hub, adapter, ws.Options{
		MaxMessageBytes: cfg.MaxMessageBytes,
		SendBuffer:      cfg.SendBuffer,
		AllowedOrigins:  cfg.AllowedOrigins,
	}, logger)

	server := transporthttp.NewServer(transporthttp.Deps{
		Stats:    hub,
		WS:       wsHandler,
		Assist:   assist.NewService(gen, cfg.Assist.Timeout, logger, m),
		Metrics:  m,
		Gatherer: reg,
	}, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		adapter:         adapter,
		log:             logger,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		err := a.server.Shutdown(shutdownCtx)

		// Hijacked websocket connections are not covered by Shutdown.
		closed := a.adapter.CloseAll("server shutting down")
		a.log.Info().Int("connections", closed).Msg("closed websocket connections")

		if err != nil {
			return err
		}
		return <-serverErr
	}
}
