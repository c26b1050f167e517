// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

// Package api exposes the dashboard HTTP surface: catalog listings,
// linked-events queries, and media artifacts.
package api

import (
	"context"

	"github.com/stagetrace/stagetrace/internal/models"
	"github.com/stagetrace/stagetrace/internal/warehouse"
)

// Engine is the warehouse surface the handlers depend on. Satisfied by
// *warehouse.Warehouse; stubbed in tests.
type Engine interface {
	QueryLinked(ctx context.Context, f warehouse.LinkedFilter) (models.LinkedResults, warehouse.Outcome)
	ListTenants(ctx context.Context, date string) ([]models.Option, warehouse.Outcome)
	ListFarms(ctx context.Context, date, tenantID string) ([]models.Option, warehouse.Outcome)
	ListCameras(ctx context.Context, date, farmID string) ([]models.Option, warehouse.Outcome)
}

// MediaProvider is the media surface the handlers depend on. Satisfied by
// *media.Service.
type MediaProvider interface {
	FetchFrame(ctx context.Context, uri string) ([]byte, error)
	BuildGIF(ctx context.Context, frameURIs []string, fps int) (string, error)
	FetchVideo(ctx context.Context, uri string) (string, error)
	SignedURL(uri string) (string, error)
}
