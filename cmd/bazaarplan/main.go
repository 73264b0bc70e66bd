// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

// Command bazaarplan serves bazaar date suggestions and inventory planning
// over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/tomtom215/bazaarplan/internal/api"
	"github.com/tomtom215/bazaarplan/internal/bazaar"
	"github.com/tomtom215/bazaarplan/internal/calendar"
	"github.com/tomtom215/bazaarplan/internal/config"
	"github.com/tomtom215/bazaarplan/internal/events"
	"github.com/tomtom215/bazaarplan/internal/logging"
	"github.com/tomtom215/bazaarplan/internal/planner"
	"github.com/tomtom215/bazaarplan/internal/store"
	"github.com/tomtom215/bazaarplan/internal/supervisor"
	"github.com/tomtom215/bazaarplan/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging.Logging())
	logger := logging.Logger()

	logger.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("store_path", cfg.Store.Path).
		Bool("store_in_memory", cfg.Store.InMemory).
		Msg("Starting bazaarplan")

	table := calendar.DefaultTable()
	if cfg.Calendar.TablePath != "" {
		if table, err = calendar.LoadTable(cfg.Calendar.TablePath); err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Calendar.TablePath).Msg("Failed to load calendar table")
		}
	}
	engine, err := bazaar.NewEngine(cfg.Scoring.Policy(), table, logging.WithComponent("scorer"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid scoring policy")
	}

	st, err := store.Open(store.Options{
		Path:             cfg.Store.Path,
		InMemory:         cfg.Store.InMemory,
		TerminalStatuses: cfg.Inventory.TerminalStatuses,
		Logger:           logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing store")
		}
	}()

	plannerOpts, err := cfg.PlannerOptions()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid planner configuration")
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	handlerOpts := api.HandlerOptions{Version: version}
	var publisher planner.Publisher
	if cfg.Events.Enabled {
		bus := events.NewBus(cfg.Events.Bus(), logger)
		defer func() {
			if err := bus.Close(); err != nil {
				logger.Error().Err(err).Msg("Error closing event bus")
			}
		}()
		journal := events.NewJournal(bus, cfg.Events.JournalSize, logger)
		tree.AddMessagingService(journal)

		publisher = bus
		handlerOpts.Journal = journal
		handlerOpts.BreakerState = bus.BreakerState
	}

	svc := planner.New(engine, st, publisher, plannerOpts, logger)

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Security.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(api.NewHandler(svc, handlerOpts), mwConfig),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout, logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Supervisor tree stopped with error")
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, u := range report {
			logger.Warn().Str("service", u.Name).Msg("Service did not stop in time")
		}
	}
	logger.Info().Msg("bazaarplan stopped")
}
