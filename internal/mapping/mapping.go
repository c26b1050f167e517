// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

// Package mapping resolves tenant, farm, and camera display metadata from
// the warehouse mapping tables. The maps are cached in memory and
// refreshed in the background; every lookup falls back to the raw id, so
// a stale or empty cache degrades display names but never blocks queries.
package mapping

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/stagetrace/stagetrace/internal/logging"
	"github.com/stagetrace/stagetrace/internal/metrics"
	"github.com/stagetrace/stagetrace/internal/models"
	"github.com/stagetrace/stagetrace/internal/warehouse"
)

type farmEntry struct {
	name     string
	tenantID string
}

// Service caches the tenant/farm/camera mapping tables. It implements
// warehouse.NameService.
type Service struct {
	w *warehouse.Warehouse

	mu          sync.RWMutex
	loaded      bool
	tenantNames map[string]string
	farms       map[string]farmEntry
	tenantFarms map[string]map[string]struct{}
	cameraNames map[string]string
}

// New returns a Service with empty maps. Call Reload (or let the first
// lookup trigger a lazy load) before relying on display names.
func New(w *warehouse.Warehouse) *Service {
	return &Service{
		w:           w,
		tenantNames: map[string]string{},
		farms:       map[string]farmEntry{},
		tenantFarms: map[string]map[string]struct{}{},
		cameraNames: map[string]string{},
	}
}

// Reload fetches all three mapping tables and swaps the cache atomically.
// On failure the previous maps are kept and the error is returned; callers
// treat it as a warning, not a fault.
func (s *Service) Reload(ctx context.Context) error {
	tenants, farms, tenantFarms, cameras, err := s.load(ctx)
	if err != nil {
		metrics.MappingReloads.WithLabelValues("failure").Inc()
		logging.Warn().Err(err).Msg("mapping reload failed, keeping previous maps")
		return err
	}

	s.mu.Lock()
	s.tenantNames = tenants
	s.farms = farms
	s.tenantFarms = tenantFarms
	s.cameraNames = cameras
	s.loaded = true
	s.mu.Unlock()

	metrics.MappingReloads.WithLabelValues("success").Inc()
	logging.Info().
		Int("tenants", len(tenants)).
		Int("farms", len(farms)).
		Int("cameras", len(cameras)).
		Msg("mapping tables loaded")
	return nil
}

// load reads the mapping tables through the resilient executor. The
// `id_column != 'id_column'` predicate skips the header row the upstream
// CSV ingestion leaves as a data row in each table.
func (s *Service) load(ctx context.Context) (map[string]string, map[string]farmEntry, map[string]map[string]struct{}, map[string]string, error) {
	tenants := map[string]string{}
	rs, err := s.w.Execute(ctx, "load_tenant_map", fmt.Sprintf(
		"SELECT tenant_id, tenant_name FROM %s WHERE tenant_id != 'tenant_id'",
		s.w.MappingTable("tenant_map")))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("tenant_map: %w", err)
	}
	for _, row := range rs.Rows {
		if id := str(row[0]); id != "" {
			tenants[id] = str(row[1])
		}
	}

	farms := map[string]farmEntry{}
	tenantFarms := map[string]map[string]struct{}{}
	rs, err = s.w.Execute(ctx, "load_farm_map", fmt.Sprintf(
		"SELECT farm_id, farm_name, tenant_id FROM %s WHERE farm_id != 'farm_id'",
		s.w.MappingTable("farm_map")))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("farm_map: %w", err)
	}
	for _, row := range rs.Rows {
		id := str(row[0])
		if id == "" {
			continue
		}
		entry := farmEntry{name: str(row[1]), tenantID: str(row[2])}
		farms[id] = entry
		if entry.tenantID != "" {
			if tenantFarms[entry.tenantID] == nil {
				tenantFarms[entry.tenantID] = map[string]struct{}{}
			}
			tenantFarms[entry.tenantID][id] = struct{}{}
		}
	}

	cameras := map[string]string{}
	rs, err = s.w.Execute(ctx, "load_farm_camera_map", fmt.Sprintf(
		"SELECT camera_id, camera_name FROM %s WHERE camera_id != 'camera_id'",
		s.w.MappingTable("farm_camera_map")))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("farm_camera_map: %w", err)
	}
	for _, row := range rs.Rows {
		if id := str(row[0]); id != "" {
			cameras[id] = str(row[1])
		}
	}

	return tenants, farms, tenantFarms, cameras, nil
}

// ensureLoaded performs the lazy first load. Errors are swallowed here;
// lookups fall back to raw ids until a later reload succeeds.
func (s *Service) ensureLoaded() {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if !loaded {
		_ = s.Reload(context.Background())
	}
}

// FarmIDsForTenant returns a copy of the tenant's farm-id set. Empty for
// unknown tenants.
func (s *Service) FarmIDsForTenant(tenantID string) map[string]struct{} {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]struct{}, len(s.tenantFarms[tenantID]))
	for id := range s.tenantFarms[tenantID] {
		out[id] = struct{}{}
	}
	return out
}

// TenantForFarm returns the owning tenant of a farm, if known.
func (s *Service) TenantForFarm(farmID string) (string, bool) {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.farms[farmID]
	if !ok || entry.tenantID == "" {
		return "", false
	}
	return entry.tenantID, true
}

// TenantName returns the tenant display name, or the raw id when unknown.
func (s *Service) TenantName(tenantID string) string {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name := s.tenantNames[tenantID]; name != "" {
		return name
	}
	return tenantID
}

// FarmName returns the farm display name, or the raw id when unknown.
func (s *Service) FarmName(farmID string) string {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.farms[farmID]; ok && entry.name != "" {
		return entry.name
	}
	return farmID
}

// CameraName returns the camera display name, or the raw id when unknown.
func (s *Service) CameraName(cameraID string) string {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name := s.cameraNames[cameraID]; name != "" {
		return name
	}
	return cameraID
}

// Tenants returns all known tenants as options sorted by display name.
func (s *Service) Tenants() []models.Option {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()

	opts := make([]models.Option, 0, len(s.tenantNames))
	for id, name := range s.tenantNames {
		if name == "" {
			name = id
		}
		opts = append(opts, models.Option{Name: name, ID: id})
	}
	sort.Slice(opts, func(i, j int) bool {
		if opts[i].Name != opts[j].Name {
			return opts[i].Name < opts[j].Name
		}
		return opts[i].ID < opts[j].ID
	})
	return opts
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
