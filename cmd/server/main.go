// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

// Package main is the entry point for the StageTrace server.
//
// StageTrace is a read-only traceability dashboard for a two-stage CV
// inference pipeline. Stage 1 logs frame-level detections, stage 2 logs
// video-level classifications; StageTrace joins the two in the warehouse
// via a link key derived from object-store file paths and serves the
// linked view, catalog listings, and media artifacts over HTTP.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, optional YAML file, environment)
//  2. Logging (zerolog)
//  3. Warehouse handle (DuckDB, lazy connection)
//  4. Mapping service (tenant/farm/camera display names)
//  5. Media service (GCS; skipped when no credentials are usable)
//  6. HTTP API under suture supervision
//
// The process shuts down gracefully on SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stagetrace/stagetrace/internal/api"
	"github.com/stagetrace/stagetrace/internal/config"
	"github.com/stagetrace/stagetrace/internal/logging"
	"github.com/stagetrace/stagetrace/internal/mapping"
	"github.com/stagetrace/stagetrace/internal/media"
	"github.com/stagetrace/stagetrace/internal/supervisor"
	"github.com/stagetrace/stagetrace/internal/warehouse"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "stagetrace: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logging.Info().Str("version", version).Msg("starting stagetrace")

	w, err := warehouse.New(cfg.Warehouse, cfg.Linkage)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("warehouse close failed")
		}
	}()

	mapSvc := mapping.New(w)
	w.SetNameService(mapSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mediaSvc := buildMediaService(ctx, cfg.Media)

	handler := api.NewHandler(w, mediaSvc)
	router := api.NewRouter(cfg.Server, handler)

	tree := supervisor.NewTree(logging.NewSlogLogger())
	tree.AddWorker(mapping.NewRefresher(mapSvc, cfg.Mapping.RefreshInterval))
	tree.AddAPIService(api.NewServer(cfg.Server, router))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("shutdown complete")
	return nil
}

// buildMediaService dials GCS. A failed dial (typically missing
// credentials) disables the media endpoints rather than aborting startup;
// the linkage views work without media.
func buildMediaService(ctx context.Context, cfg config.MediaConfig) api.MediaProvider {
	store, err := media.NewGCSStore(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("object store unavailable, media endpoints disabled")
		return nil
	}

	dir, err := os.MkdirTemp("", "stagetrace-media-")
	if err != nil {
		logging.Warn().Err(err).Msg("temp dir unavailable, media endpoints disabled")
		return nil
	}
	return media.NewService(cfg, store, dir)
}
