// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package warehouse

import (
	"context"
	"fmt"
	"sort"

	"github.com/stagetrace/stagetrace/internal/models"
)

// sentinelOnly is the listing returned on any failure: the dashboard
// renders an empty selector instead of crashing.
func sentinelOnly() []models.Option {
	return []models.Option{models.AllOption}
}

// distinctColumn fetches the distinct non-NULL values of one stage 1
// column for a calendar day, with optional extra predicates.
func (w *Warehouse) distinctColumn(ctx context.Context, operation, column string, date string, conds []string, condArgs []any) ([]string, error) {
	query := fmt.Sprintf(`
SELECT DISTINCT s1.%[1]s
FROM %[2]s s1
WHERE CAST(s1.detected_at AS DATE) = CAST(? AS DATE)
  AND s1.%[1]s IS NOT NULL
%[3]s`, column, w.stage1Table(), andSQL(conds))

	args := append([]any{date}, condArgs...)
	rs, err := w.Execute(ctx, operation, query, args...)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if v := asString(row[0]); v != "" {
			values = append(values, v)
		}
	}
	return values, nil
}

// ListTenants returns the tenants that have farm data on the given day,
// as display-name options sorted by name, with the "All" sentinel first.
// Farms with no known owning tenant are skipped; they still appear in
// the unscoped farm listing.
func (w *Warehouse) ListTenants(ctx context.Context, date string) ([]models.Option, Outcome) {
	farms, err := w.distinctColumn(ctx, "list_tenants", "farm_id", date, nil, nil)
	if err != nil {
		return sentinelOnly(), outcomeFor(err)
	}

	seen := make(map[string]struct{})
	var opts []models.Option
	for _, farmID := range farms {
		if w.names == nil {
			break
		}
		tenantID, ok := w.names.TenantForFarm(farmID)
		if !ok {
			continue
		}
		if _, dup := seen[tenantID]; dup {
			continue
		}
		seen[tenantID] = struct{}{}
		opts = append(opts, models.Option{Name: w.names.TenantName(tenantID), ID: tenantID})
	}

	return sortedWithSentinel(opts), Outcome{Kind: FailureNone}
}

// ListFarms returns the farms with data on the given day, optionally
// restricted to one tenant's farms. Display names come from the mapping
// service when known, otherwise the raw id.
func (w *Warehouse) ListFarms(ctx context.Context, date, tenantID string) ([]models.Option, Outcome) {
	var conds []string
	var condArgs []any
	if constrained(tenantID) {
		conds = append(conds, w.tenantCondition(tenantID, &condArgs))
	}

	farms, err := w.distinctColumn(ctx, "list_farms", "farm_id", date, conds, condArgs)
	if err != nil {
		return sentinelOnly(), outcomeFor(err)
	}

	opts := make([]models.Option, 0, len(farms))
	for _, id := range farms {
		opts = append(opts, models.Option{Name: w.displayName(id, "farm"), ID: id})
	}
	return sortedWithSentinel(opts), Outcome{Kind: FailureNone}
}

// ListCameras returns the cameras with data on the given day, optionally
// restricted to one farm.
func (w *Warehouse) ListCameras(ctx context.Context, date, farmID string) ([]models.Option, Outcome) {
	var conds []string
	var condArgs []any
	if constrained(farmID) {
		conds = append(conds, "s1.farm_id = ?")
		condArgs = append(condArgs, farmID)
	}

	cameras, err := w.distinctColumn(ctx, "list_cameras", "camera_id", date, conds, condArgs)
	if err != nil {
		return sentinelOnly(), outcomeFor(err)
	}

	opts := make([]models.Option, 0, len(cameras))
	for _, id := range cameras {
		opts = append(opts, models.Option{Name: w.displayName(id, "camera"), ID: id})
	}
	return sortedWithSentinel(opts), Outcome{Kind: FailureNone}
}

// displayName resolves a farm or camera id to its mapped name, falling
// back to the raw id.
func (w *Warehouse) displayName(id, kind string) string {
	if w.names == nil {
		return id
	}
	switch kind {
	case "farm":
		return w.names.FarmName(id)
	case "camera":
		return w.names.CameraName(id)
	}
	return id
}

// sortedWithSentinel orders options by display name and prepends the
// "All" sentinel.
func sortedWithSentinel(opts []models.Option) []models.Option {
	sort.Slice(opts, func(i, j int) bool {
		if opts[i].Name != opts[j].Name {
			return opts[i].Name < opts[j].Name
		}
		return opts[i].ID < opts[j].ID
	})
	return append(sentinelOnly(), opts...)
}
