// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package warehouse

import (
	"fmt"
	"sort"
	"strings"
)

// AllSentinel is the catalog wildcard. A filter field holding it (or
// empty) does not constrain the query.
const AllSentinel = "All"

// LinkedFilter restricts a linked-events query to one calendar day plus
// optional scope narrowing. It is constructed once at the API boundary;
// the handler validates Date before the filter reaches the warehouse.
// All values are bound as parameters, never interpolated into SQL text.
type LinkedFilter struct {
	// Date is the warehouse-local calendar day, YYYY-MM-DD. Mandatory.
	Date string

	// StartTime and EndTime bound the wall-clock time of day, inclusive,
	// as HH:MM or HH:MM:SS strings. The window does not span midnight.
	StartTime string
	EndTime   string

	// TenantID scopes the query to the farms owned by one tenant. An
	// unknown tenant (or one owning no farms) matches nothing.
	TenantID string

	FarmID   string
	CameraID string

	// ForwardedOnly keeps only detections escalated to stage 2.
	ForwardedOnly bool

	// Limit caps returned rows. The caller clamps it to the configured
	// range before the filter reaches the warehouse.
	Limit int
}

// constrained reports whether v carries a real value rather than the
// empty string or the catalog wildcard.
func constrained(v string) bool {
	return v != "" && v != AllSentinel
}

// normalizeTime widens an HH:MM bound to second precision. The lower
// bound gets :00 and the upper :59 so a [start, end] pair is inclusive
// of the whole final minute. HH:MM:SS values pass through unchanged.
func normalizeTime(v string, upper bool) string {
	if len(v) == 5 { // HH:MM
		if upper {
			return v + ":59"
		}
		return v + ":00"
	}
	return v
}

// buildConditions translates the filter into predicates on the stage 1
// alias s1. Returns the AND-combined WHERE fragments and their parameters
// in placeholder order. The date bound itself lives in the CTE, not here.
func (w *Warehouse) buildConditions(f LinkedFilter) ([]string, []any) {
	var conds []string
	var args []any

	if constrained(f.TenantID) {
		conds = append(conds, w.tenantCondition(f.TenantID, &args))
	}
	if constrained(f.FarmID) {
		conds = append(conds, "s1.farm_id = ?")
		args = append(args, f.FarmID)
	}
	if constrained(f.CameraID) {
		conds = append(conds, "s1.camera_id = ?")
		args = append(args, f.CameraID)
	}

	if f.StartTime != "" {
		conds = append(conds, "strftime(s1.detected_at, '%H:%M:%S') >= ?")
		args = append(args, normalizeTime(f.StartTime, false))
	}
	if f.EndTime != "" {
		conds = append(conds, "strftime(s1.detected_at, '%H:%M:%S') <= ?")
		args = append(args, normalizeTime(f.EndTime, true))
	}

	if f.ForwardedOnly {
		conds = append(conds, "s1.should_forward = TRUE")
	}

	return conds, args
}

// tenantCondition expands a tenant id into a farm-membership predicate.
// A tenant with no known farms (or no attached name service) yields a
// predicate that matches nothing, so isolation fails closed.
func (w *Warehouse) tenantCondition(tenantID string, args *[]any) string {
	if w.names == nil {
		return "1=0"
	}
	farmSet := w.names.FarmIDsForTenant(tenantID)
	if len(farmSet) == 0 {
		return "1=0"
	}
	farms := make([]string, 0, len(farmSet))
	for id := range farmSet {
		farms = append(farms, id)
	}
	sort.Strings(farms)
	return inClause("s1.farm_id", farms, args)
}

// inClause builds "col IN (?, ?, ...)" and appends the values to args.
func inClause(col string, values []string, args *[]any) string {
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		*args = append(*args, v)
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", "))
}

// andSQL renders additional AND-joined predicates, or "" when empty.
func andSQL(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "AND " + strings.Join(conds, " AND ")
}

// clampLimit applies the configured default and maximum to a requested
// row limit.
func (w *Warehouse) clampLimit(requested int) int {
	if requested <= 0 {
		return w.link.DefaultLimit
	}
	if requested > w.link.MaxLimit {
		return w.link.MaxLimit
	}
	return requested
}
