// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package warehouse

import (
	"context"
	"testing"
)

func seedCatalogDay(t *testing.T, w *Warehouse) {
	t.Helper()
	seedStage1(t, w, "s-1", "farm-1", "cam-1", "2026-03-10 08:00:00", "down_cow", true,
		[]string{framePath("farm-1", "cam-1", "042_0000700", "2026-03-10T08:00:00")})
	seedStage1(t, w, "s-2", "farm-1", "cam-2", "2026-03-10 09:00:00", "no_event", false,
		[]string{framePath("farm-1", "cam-2", "042_0000701", "2026-03-10T09:00:00")})
	seedStage1(t, w, "s-3", "farm-2", "cam-3", "2026-03-10 10:00:00", "down_cow", true,
		[]string{framePath("farm-2", "cam-3", "042_0000702", "2026-03-10T10:00:00")})
	seedStage1(t, w, "s-4", "farm-3", "cam-4", "2026-03-11 08:00:00", "down_cow", true,
		[]string{framePath("farm-3", "cam-4", "042_0000703", "2026-03-11T08:00:00")})
}

func catalogNames() *stubNames {
	return &stubNames{
		tenantFarms: map[string][]string{"acme": {"farm-1", "farm-2"}},
		farmTenant:  map[string]string{"farm-1": "acme", "farm-2": "acme"},
		tenantNames: map[string]string{"acme": "Acme Dairy"},
		farmNames:   map[string]string{"farm-1": "North Barn", "farm-2": "South Barn"},
		cameraNames: map[string]string{"cam-1": "Pen 1"},
	}
}

func TestListTenants(t *testing.T) {
	w := newTestWarehouse(t)
	w.SetNameService(catalogNames())
	seedCatalogDay(t, w)

	opts, out := w.ListTenants(context.Background(), "2026-03-10")
	if !out.OK() {
		t.Fatalf("outcome = %+v", out)
	}
	// Sentinel first, then the single tenant owning farms with data.
	// farm-3 has no known tenant and contributes nothing.
	if len(opts) != 2 {
		t.Fatalf("got %d options, want 2: %v", len(opts), opts)
	}
	if opts[0].ID != "All" {
		t.Errorf("first option = %+v, want sentinel", opts[0])
	}
	if opts[1].ID != "acme" || opts[1].Name != "Acme Dairy" {
		t.Errorf("tenant option = %+v", opts[1])
	}
}

func TestListFarms(t *testing.T) {
	w := newTestWarehouse(t)
	w.SetNameService(catalogNames())
	seedCatalogDay(t, w)
	ctx := context.Background()

	t.Run("unscoped", func(t *testing.T) {
		opts, out := w.ListFarms(ctx, "2026-03-10", "")
		if !out.OK() || len(opts) != 3 {
			t.Fatalf("opts = %v, outcome = %+v", opts, out)
		}
		// Sorted by display name after the sentinel.
		if opts[1].Name != "North Barn" || opts[2].Name != "South Barn" {
			t.Errorf("ordering wrong: %v", opts)
		}
	})

	t.Run("tenant scoped", func(t *testing.T) {
		opts, out := w.ListFarms(ctx, "2026-03-10", "acme")
		if !out.OK() || len(opts) != 3 {
			t.Fatalf("opts = %v, outcome = %+v", opts, out)
		}
	})

	t.Run("unknown tenant gets sentinel only", func(t *testing.T) {
		opts, out := w.ListFarms(ctx, "2026-03-10", "ghost")
		if !out.OK() || len(opts) != 1 || opts[0].ID != "All" {
			t.Fatalf("opts = %v, outcome = %+v", opts, out)
		}
	})

	t.Run("day with no data", func(t *testing.T) {
		opts, out := w.ListFarms(ctx, "2026-03-12", "")
		if !out.OK() || len(opts) != 1 {
			t.Fatalf("opts = %v, outcome = %+v", opts, out)
		}
	})
}

func TestListCameras(t *testing.T) {
	w := newTestWarehouse(t)
	w.SetNameService(catalogNames())
	seedCatalogDay(t, w)
	ctx := context.Background()

	opts, out := w.ListCameras(ctx, "2026-03-10", "farm-1")
	if !out.OK() {
		t.Fatalf("outcome = %+v", out)
	}
	if len(opts) != 3 {
		t.Fatalf("got %d options, want 3: %v", len(opts), opts)
	}
	// cam-2 has no mapped name and falls back to the raw id.
	if opts[1].Name != "Pen 1" || opts[2].ID != "cam-2" || opts[2].Name != "cam-2" {
		t.Errorf("options = %v", opts)
	}
}

func TestListingsSurviveQueryFailure(t *testing.T) {
	w := newTestWarehouse(t)
	// Point the warehouse at a table that does not exist.
	w.cfg.Stage1Table = "no_such_table"

	opts, out := w.ListFarms(context.Background(), "2026-03-10", "")
	if out.OK() {
		t.Fatal("expected failure outcome")
	}
	if out.Kind != FailureQuery {
		t.Errorf("Kind = %v, want %v", out.Kind, FailureQuery)
	}
	if len(opts) != 1 || opts[0].ID != "All" {
		t.Errorf("failure must return sentinel-only list, got %v", opts)
	}
}
