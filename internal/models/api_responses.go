// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package models

import "time"

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints. Status is "success" or "error"; Error is populated only for
// error responses. Query failures against the warehouse still produce a
// well-typed response with empty data so the dashboard can always render.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// LinkedEventsResponse is the payload of the linked-events endpoint.
type LinkedEventsResponse struct {
	Results LinkedResults `json:"results"`
	Total   int           `json:"total"`

	// DuplicateKeys flags link keys that produced more than one row; the
	// dashboard surfaces these as a data-quality warning.
	DuplicateKeys []string `json:"duplicate_keys,omitempty"`
}

// OptionsResponse is the payload of the tenant/farm/camera listing endpoints.
type OptionsResponse struct {
	Options []Option `json:"options"`
}
