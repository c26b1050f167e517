// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package warehouse

import (
	"context"
	"database/sql"
	"time"

	"github.com/stagetrace/stagetrace/internal/logging"
	"github.com/stagetrace/stagetrace/internal/metrics"
)

// maxAttempts bounds the executor: one attempt on the current handle plus
// at most one on a fresh connection. A second failure is reported, never
// retried again, so a down warehouse costs two attempts per call and the
// dashboard stays responsive.
const maxAttempts = 2

// ResultSet is a fully materialized query result: column names in
// SELECT order and rows of driver values.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Execute runs a parameterized query with automatic recovery from
// connection-class failures. Attempt one uses the current handle (dialing
// lazily if none exists). If it fails with a connection-class error the
// stale handle is discarded, a fresh connection is dialed, and the same
// query runs exactly once more. Query-class and configuration errors
// propagate immediately.
//
// Results are fully materialized before returning so no cursor outlives
// the call.
func (w *Warehouse) Execute(ctx context.Context, operation, query string, args ...any) (*ResultSet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	logQuery(operation, len(args))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if w.conn == nil {
			conn, err := w.dial()
			if err != nil {
				lastErr = err
				break
			}
			w.conn = conn
		}

		rs, err := runQuery(ctx, w.conn, query, args...)
		if err == nil {
			if attempt > 1 {
				metrics.ExecutorRecoveries.Inc()
				logging.Info().Str("operation", operation).Msg("query succeeded after reconnect")
			}
			metrics.QueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
			return rs, nil
		}

		lastErr = err
		if !isConnectionError(err) || attempt == maxAttempts {
			break
		}

		logging.Warn().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempt).
			Msg("connection failure, reconnecting")
		metrics.ExecutorReconnects.Inc()
		closeQuietly(w.conn)
		w.conn = nil
	}

	kind := Classify(lastErr)
	metrics.QueryErrors.WithLabelValues(operation, string(kind)).Inc()
	logging.Error().
		Err(lastErr).
		Str("operation", operation).
		Str("failure_kind", string(kind)).
		Msg("warehouse query failed")
	return nil, lastErr
}

// runQuery executes one attempt and materializes the full result set.
func runQuery(ctx context.Context, conn *sql.DB, query string, args ...any) (*ResultSet, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}
