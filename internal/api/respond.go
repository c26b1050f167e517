// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/stagetrace/stagetrace/internal/logging"
	"github.com/stagetrace/stagetrace/internal/models"
	"github.com/stagetrace/stagetrace/internal/warehouse"
)

// writeJSON serializes the envelope. Encoding failures at this point can
// only be logged; headers are already gone.
func writeJSON(w http.ResponseWriter, code int, resp models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// respondSuccess wraps data in the success envelope.
func respondSuccess(w http.ResponseWriter, data any, started time.Time) {
	writeJSON(w, http.StatusOK, models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(started).Milliseconds(),
		},
	})
}

// respondEngineFailure renders a warehouse failure. The status code stays
// 200 and Data carries the provided empty payload: the dashboard treats
// this as "no results" plus a warning banner, not a dead page.
func respondEngineFailure(w http.ResponseWriter, out warehouse.Outcome, emptyData any, started time.Time) {
	writeJSON(w, http.StatusOK, models.APIResponse{
		Status: "error",
		Data:   emptyData,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(started).Milliseconds(),
		},
		Error: &models.APIError{
			Code:    string(out.Kind),
			Message: out.Status,
		},
	})
}

// respondBadRequest rejects a malformed request parameter.
func respondBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
		Error: &models.APIError{
			Code:    "bad_request",
			Message: message,
		},
	})
}
