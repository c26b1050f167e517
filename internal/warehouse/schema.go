// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package warehouse

import (
	"context"
	"fmt"
)

// ensureSchema creates the inference-log and mapping tables when missing.
// Development and test convenience only; in production the upstream
// pipeline owns these tables and CreateSchema stays off.
func (w *Warehouse) ensureSchema() error {
	ctx := context.Background()

	statements := []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", qualify(w.cfg.Catalog, w.cfg.Schema)),
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", qualify(w.cfg.Catalog, w.cfg.MappingSchema)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			session_id VARCHAR,
			farm_id VARCHAR,
			camera_id VARCHAR,
			detected_at TIMESTAMP,
			category VARCHAR,
			confidence DOUBLE,
			should_forward BOOLEAN,
			frame_uris VARCHAR[],
			probability_animal_husbandry DOUBLE,
			probability_down_cow DOUBLE,
			probability_quick_movements DOUBLE,
			probability_no_event DOUBLE,
			raw_response VARCHAR
		)`, w.stage1Table()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			inference_id VARCHAR,
			camera_id VARCHAR,
			inferred_at TIMESTAMP,
			classification VARCHAR,
			confidence DOUBLE,
			should_forward BOOLEAN,
			video_path VARCHAR,
			raw_response VARCHAR
		)`, w.stage2Table()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			tenant_id VARCHAR,
			tenant_name VARCHAR
		)`, w.MappingTable("tenant_map")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			farm_id VARCHAR,
			farm_name VARCHAR,
			tenant_id VARCHAR
		)`, w.MappingTable("farm_map")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			camera_id VARCHAR,
			camera_name VARCHAR,
			farm_id VARCHAR
		)`, w.MappingTable("farm_camera_map")),
	}

	for _, stmt := range statements {
		if _, err := w.Execute(ctx, "ensure_schema", stmt); err != nil {
			return err
		}
	}
	return nil
}
