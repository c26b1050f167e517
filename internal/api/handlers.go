// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stagetrace/stagetrace/internal/models"
	"github.com/stagetrace/stagetrace/internal/warehouse"
)

// Handler serves the dashboard API.
type Handler struct {
	engine Engine
	media  MediaProvider
}

// NewHandler wires the handlers to their collaborators. media may be nil
// when no object-store credentials are configured; the media endpoints
// then report 503.
func NewHandler(engine Engine, media MediaProvider) *Handler {
	return &Handler{engine: engine, media: media}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, map[string]string{"status": "ok"}, time.Now())
}

// requireDate validates the date query parameter. The core does not
// re-validate; this boundary is the only gate.
func requireDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		respondBadRequest(w, "missing required parameter: date")
		return "", false
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		respondBadRequest(w, "invalid date, expected YYYY-MM-DD")
		return "", false
	}
	return date, true
}

// validClock accepts HH:MM and HH:MM:SS.
func validClock(v string) bool {
	if _, err := time.Parse("15:04", v); err == nil {
		return true
	}
	_, err := time.Parse("15:04:05", v)
	return err == nil
}

func (h *Handler) tenants(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	date, ok := requireDate(w, r)
	if !ok {
		return
	}

	opts, out := h.engine.ListTenants(r.Context(), date)
	if !out.OK() {
		respondEngineFailure(w, out, models.OptionsResponse{Options: opts}, started)
		return
	}
	respondSuccess(w, models.OptionsResponse{Options: opts}, started)
}

func (h *Handler) farms(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	date, ok := requireDate(w, r)
	if !ok {
		return
	}

	opts, out := h.engine.ListFarms(r.Context(), date, r.URL.Query().Get("tenant"))
	if !out.OK() {
		respondEngineFailure(w, out, models.OptionsResponse{Options: opts}, started)
		return
	}
	respondSuccess(w, models.OptionsResponse{Options: opts}, started)
}

func (h *Handler) cameras(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	date, ok := requireDate(w, r)
	if !ok {
		return
	}

	opts, out := h.engine.ListCameras(r.Context(), date, r.URL.Query().Get("farm"))
	if !out.OK() {
		respondEngineFailure(w, out, models.OptionsResponse{Options: opts}, started)
		return
	}
	respondSuccess(w, models.OptionsResponse{Options: opts}, started)
}

func (h *Handler) linkedEvents(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	date, ok := requireDate(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	filter := warehouse.LinkedFilter{
		Date:     date,
		TenantID: q.Get("tenant"),
		FarmID:   q.Get("farm"),
		CameraID: q.Get("camera"),
	}

	if v := q.Get("start_time"); v != "" {
		if !validClock(v) {
			respondBadRequest(w, "invalid start_time, expected HH:MM")
			return
		}
		filter.StartTime = v
	}
	if v := q.Get("end_time"); v != "" {
		if !validClock(v) {
			respondBadRequest(w, "invalid end_time, expected HH:MM")
			return
		}
		filter.EndTime = v
	}
	if v := q.Get("forwarded_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondBadRequest(w, "invalid forwarded_only, expected boolean")
			return
		}
		filter.ForwardedOnly = b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondBadRequest(w, "invalid limit, expected a non-negative integer")
			return
		}
		filter.Limit = n
	}

	results, out := h.engine.QueryLinked(r.Context(), filter)
	if !out.OK() {
		respondEngineFailure(w, out, models.LinkedEventsResponse{Results: models.LinkedResults{}}, started)
		return
	}
	respondSuccess(w, models.LinkedEventsResponse{
		Results:       results,
		Total:         len(results),
		DuplicateKeys: results.DuplicateKeys(),
	}, started)
}

// requireMedia gates the media endpoints on a configured provider.
func (h *Handler) requireMedia(w http.ResponseWriter) bool {
	if h.media == nil {
		writeJSON(w, http.StatusServiceUnavailable, models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now().UTC()},
			Error:    &models.APIError{Code: "media_unavailable", Message: "media service is not configured"},
		})
		return false
	}
	return true
}

func (h *Handler) mediaFrame(w http.ResponseWriter, r *http.Request) {
	if !h.requireMedia(w) {
		return
	}
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		respondBadRequest(w, "missing required parameter: uri")
		return
	}

	data, err := h.media.FetchFrame(r.Context(), uri)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(data)
}

func (h *Handler) mediaGIF(w http.ResponseWriter, r *http.Request) {
	if !h.requireMedia(w) {
		return
	}
	raw := r.URL.Query().Get("uris")
	if raw == "" {
		respondBadRequest(w, "missing required parameter: uris")
		return
	}
	uris := strings.Split(raw, "|")

	fps := 0
	if v := r.URL.Query().Get("fps"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondBadRequest(w, "invalid fps, expected a positive integer")
			return
		}
		fps = n
	}

	path, err := h.media.BuildGIF(r.Context(), uris, fps)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/gif")
	http.ServeFile(w, r, path)
}

func (h *Handler) mediaVideo(w http.ResponseWriter, r *http.Request) {
	if !h.requireMedia(w) {
		return
	}
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		respondBadRequest(w, "missing required parameter: uri")
		return
	}

	path, err := h.media.FetchVideo(r.Context(), uri)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, path)
}

func (h *Handler) mediaURL(w http.ResponseWriter, r *http.Request) {
	if !h.requireMedia(w) {
		return
	}
	started := time.Now()
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		respondBadRequest(w, "missing required parameter: uri")
		return
	}

	url, err := h.media.SignedURL(uri)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	respondSuccess(w, map[string]string{"url": url}, started)
}
