// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package mapping

import (
	"context"
	"time"
)

// Refresher periodically reloads the mapping tables. It runs as a
// supervised service; a failed reload keeps the previous maps and waits
// for the next tick rather than crashing the service.
type Refresher struct {
	service  *Service
	interval time.Duration
}

// NewRefresher wraps a mapping service in a periodic reload loop.
func NewRefresher(service *Service, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Refresher{service: service, interval: interval}
}

// Serve implements suture.Service. The initial load happens immediately
// so the dashboard has display names as soon as the warehouse is
// reachable; subsequent reloads follow the configured interval.
func (r *Refresher) Serve(ctx context.Context) error {
	_ = r.service.Reload(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = r.service.Reload(ctx)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (r *Refresher) String() string {
	return "mapping-refresher"
}
