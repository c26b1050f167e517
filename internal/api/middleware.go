// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/stagetrace/stagetrace/internal/logging"
)

// requestID tags each request with a UUID, echoes it in the response
// header, and emits one access-log line per request.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		started := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		logging.Info().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(started)).
			Msg("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
