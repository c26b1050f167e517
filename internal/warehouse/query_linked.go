// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package warehouse

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/stagetrace/stagetrace/internal/metrics"
	"github.com/stagetrace/stagetrace/internal/models"
)

// linkedQueryTemplate is the server-side linkage query. The CTEs derive
// the link key on each side with the identical pattern; regexp_extract
// returns '' (not NULL) on no-match, so NULLIF keeps malformed paths from
// joining each other on empty strings. NULL keys never satisfy the join,
// so malformed stage 1 rows still appear, unmatched.
//
// Stage 2 rows are windowed to the requested day plus or minus two days:
// video inference can land after midnight relative to the frame capture,
// and capture timestamps near midnight can cross the boundary in either
// direction.
//
// The %s slots are config-validated identifiers and internally built
// predicate text; every user value is a bound parameter.
const linkedQueryTemplate = `
WITH stage1_events AS (
    SELECT
        s1.session_id,
        s1.farm_id,
        s1.camera_id,
        s1.detected_at,
        s1.category,
        s1.confidence,
        s1.should_forward,
        array_to_string(s1.frame_uris, '|') AS frame_uris_joined,
        len(s1.frame_uris) AS frame_count,
        s1.frame_uris[1] AS trigger_frame_uri,
        s1.probability_animal_husbandry,
        s1.probability_down_cow,
        s1.probability_quick_movements,
        s1.probability_no_event,
        s1.raw_response,
        NULLIF(regexp_extract(s1.frame_uris[1], '%[3]s', 1), '') AS block_id,
        NULLIF(regexp_extract(s1.frame_uris[1], '%[3]s', 2), '') AS ts_key
    FROM %[1]s s1
    WHERE CAST(s1.detected_at AS DATE) = CAST(? AS DATE)
    %[4]s
),
stage2_events AS (
    SELECT
        s2.inference_id,
        s2.camera_id,
        s2.inferred_at,
        s2.classification,
        s2.confidence,
        s2.should_forward,
        s2.video_path,
        s2.raw_response,
        NULLIF(regexp_extract(s2.video_path, '%[3]s', 1), '') AS block_id,
        NULLIF(regexp_extract(s2.video_path, '%[3]s', 2), '') AS ts_key
    FROM %[2]s s2
    WHERE CAST(s2.inferred_at AS DATE) >= CAST(? AS DATE) - INTERVAL 2 DAY
      AND CAST(s2.inferred_at AS DATE) <= CAST(? AS DATE) + INTERVAL 2 DAY
)
SELECT
    s1.session_id,
    s1.farm_id,
    s1.camera_id,
    s1.detected_at,
    s1.category,
    s1.confidence,
    s1.should_forward,
    s1.frame_uris_joined,
    s1.frame_count,
    s1.trigger_frame_uri,
    s1.probability_animal_husbandry,
    s1.probability_down_cow,
    s1.probability_quick_movements,
    s1.probability_no_event,
    s1.raw_response,
    s1.block_id,
    s1.ts_key,
    s2.inference_id,
    s2.camera_id,
    s2.inferred_at,
    s2.classification,
    s2.confidence,
    s2.should_forward,
    s2.video_path,
    s2.raw_response
FROM stage1_events s1
LEFT JOIN stage2_events s2
       ON s1.camera_id = s2.camera_id
      AND s1.block_id = s2.block_id
      AND s1.ts_key = s2.ts_key
ORDER BY s1.detected_at DESC
LIMIT ?`

// QueryLinked runs the linkage query for one calendar day and returns
// every stage 1 row with its stage 2 match, if any. A stage 1 event that
// matched several stage 2 rows appears once per match; callers surface
// the duplication via LinkedResults.DuplicateKeys rather than the
// warehouse picking a winner.
func (w *Warehouse) QueryLinked(ctx context.Context, f LinkedFilter) (models.LinkedResults, Outcome) {
	conds, condArgs := w.buildConditions(f)

	query := fmt.Sprintf(linkedQueryTemplate,
		w.stage1Table(), w.stage2Table(), linkKeyPattern, andSQL(conds))

	args := make([]any, 0, len(condArgs)+4)
	args = append(args, f.Date)
	args = append(args, condArgs...)
	args = append(args, f.Date, f.Date, w.clampLimit(f.Limit))

	rs, err := w.Execute(ctx, "query_linked", query, args...)
	if err != nil {
		return nil, outcomeFor(err)
	}

	results := make(models.LinkedResults, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		results = append(results, w.scanLinkedRow(row))
	}
	metrics.LinkedRows.Observe(float64(len(results)))
	return results, Outcome{Kind: FailureNone}
}

// scanLinkedRow converts one driver row, in linkedQueryTemplate column
// order, into a LinkedResult.
func (w *Warehouse) scanLinkedRow(row []any) models.LinkedResult {
	s1 := models.Stage1Event{
		SessionID:       asString(row[0]),
		FarmID:          asString(row[1]),
		CameraID:        asString(row[2]),
		DetectedAt:      asTime(row[3]),
		Category:        asString(row[4]),
		Confidence:      asFloat(row[5]),
		ShouldForward:   asBool(row[6]),
		FrameCount:      asInt(row[8]),
		TriggerFrameURI: asString(row[9]),

		ProbAnimalHusbandry: asFloatPtr(row[10]),
		ProbDownCow:         asFloatPtr(row[11]),
		ProbQuickMovements:  asFloatPtr(row[12]),
		ProbNoEvent:         asFloatPtr(row[13]),
		RawResponse:         asString(row[14]),
	}
	if joined := asString(row[7]); joined != "" {
		s1.FrameURIs = strings.Split(joined, "|")
	}

	result := models.LinkedResult{
		Stage1:       s1,
		BlockID:      asString(row[15]),
		TimestampKey: asString(row[16]),
	}

	if row[17] == nil {
		// Unmatched: stage 2 has not landed (or never will). Derive where
		// the video would live so the dashboard can probe for it.
		result.VideoPathDerived = FallbackVideoPath(
			s1.TriggerFrameURI, w.link.FrameStoreSegment, w.link.VideoStoreSegment)
		return result
	}

	s2 := &models.Stage2Event{
		InferenceID:    asString(row[17]),
		CameraID:       asString(row[18]),
		InferredAt:     asTime(row[19]),
		Classification: asString(row[20]),
		Confidence:     asFloat(row[21]),
		ShouldForward:  asBool(row[22]),
		VideoPath:      asString(row[23]),
		RawResponse:    asString(row[24]),
	}
	if s2.VideoPath != "" {
		s2.VideoFilename = path.Base(s2.VideoPath)
	}
	result.Stage2 = s2
	result.VideoPathDerived = s2.VideoPath
	return result
}

// outcomeFor wraps a query error into the typed result the presentation
// layer renders from.
func outcomeFor(err error) Outcome {
	kind := Classify(err)
	var status string
	switch kind {
	case FailureConfiguration:
		status = "warehouse is not configured"
	case FailureConnection:
		status = "warehouse connection failed"
	case FailureQuery:
		status = "warehouse query failed"
	}
	return Outcome{Kind: kind, Status: status, Err: err}
}

// Driver value coercions. database/sql hands back driver-native types;
// DuckDB surfaces DECIMAL-ish columns as float64 or float32 and list
// lengths as signed integers of varying width. NULL is nil everywhere.

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	}
	return 0
}

func asFloatPtr(v any) *float64 {
	if v == nil {
		return nil
	}
	f := asFloat(v)
	return &f
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case uint32:
		return int(n)
	case int:
		return n
	}
	return 0
}

func asBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
