// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

// Package warehouse implements the linkage engine and the resilient query
// executor over the inference-log warehouse.
//
// The engine joins the stage 1 (frame-level detection) and stage 2
// (video-level classification) log tables on a link key derived from
// object-store file paths, entirely server-side in a single query. All
// user-supplied filter values are bound parameters; only configuration-
// validated identifiers are interpolated into SQL text.
package warehouse

import (
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/stagetrace/stagetrace/internal/config"
	"github.com/stagetrace/stagetrace/internal/logging"
)

// NameService resolves tenant, farm, and camera metadata owned by an
// external mapping collaborator. Implementations fall back to the raw id
// when a display name is unknown.
type NameService interface {
	// FarmIDsForTenant returns the farm ids owned by a tenant. An empty set
	// means the tenant is unknown or owns nothing; tenant-scoped queries
	// must then return zero rows, never the unfiltered set.
	FarmIDsForTenant(tenantID string) map[string]struct{}

	// TenantForFarm returns the owning tenant of a farm, if known.
	TenantForFarm(farmID string) (string, bool)

	TenantName(tenantID string) string
	FarmName(farmID string) string
	CameraName(cameraID string) string
}

// Warehouse owns the single shared warehouse handle and provides the
// linkage queries. The handle is created lazily on first use and recreated
// by the executor after connection-class failures.
//
// The handle is not safe for concurrent in-flight queries from one process;
// Execute serializes access for the duration of each logical call.
type Warehouse struct {
	mu    sync.Mutex
	conn  *sql.DB
	cfg   config.WarehouseConfig
	link  config.LinkageConfig
	names NameService

	// dial constructs a fresh connection. Replaceable in tests.
	dial func() (*sql.DB, error)
}

// New validates the connection parameters and returns a Warehouse. The
// actual connection is established lazily on first query. A missing
// required parameter fails here, before any query attempt.
func New(cfg config.WarehouseConfig, link config.LinkageConfig) (*Warehouse, error) {
	if cfg.Path == "" {
		return nil, &ConfigError{Reason: "warehouse path not configured; set WAREHOUSE_PATH"}
	}

	w := &Warehouse{cfg: cfg, link: link}
	w.dial = w.open

	if cfg.CreateSchema {
		if err := w.ensureSchema(); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return w, nil
}

// SetNameService attaches the mapping collaborator. Must be called before
// tenant-scoped queries; until then tenant filters resolve to zero farms
// and therefore zero rows (isolation-safe default).
func (w *Warehouse) SetNameService(names NameService) {
	w.mu.Lock()
	w.names = names
	w.mu.Unlock()
}

// open constructs a fresh warehouse connection from config.
func (w *Warehouse) open() (*sql.DB, error) {
	dsn := w.cfg.Path
	if dsn == ":memory:" {
		dsn = ""
	}
	if dsn != "" {
		threads := w.cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		dsn = fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
			dsn, threads, w.cfg.MaxMemory)
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}

	// One logical query at a time; a small pool only invites interleaving
	// the shared handle was never promised to support.
	conn.SetMaxOpenConns(2)
	conn.SetMaxIdleConns(1)

	return conn, nil
}

// Close releases the shared handle.
func (w *Warehouse) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

// stage1Table returns the qualified stage 1 table name.
func (w *Warehouse) stage1Table() string {
	return qualify(w.cfg.Catalog, w.cfg.Schema, w.cfg.Stage1Table)
}

// stage2Table returns the qualified stage 2 table name.
func (w *Warehouse) stage2Table() string {
	return qualify(w.cfg.Catalog, w.cfg.Schema, w.cfg.Stage2Table)
}

// MappingTable returns the qualified name of a table in the mapping schema.
func (w *Warehouse) MappingTable(name string) string {
	return qualify(w.cfg.Catalog, w.cfg.MappingSchema, name)
}

// qualify joins non-empty identifier parts with dots. All parts were
// validated against the identifier pattern at config load.
func qualify(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// closeQuietly closes a resource and explicitly ignores any error.
// Cleanup in error paths is best-effort; a failed close of a stale handle
// is not actionable.
func closeQuietly(conn *sql.DB) {
	if conn != nil {
		_ = conn.Close()
	}
}

// logQuery emits a debug record for an executed query.
func logQuery(operation string, args int) {
	logging.Debug().Str("operation", operation).Int("args", args).Msg("executing warehouse query")
}
