// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

// Package models defines the data structures shared across StageTrace:
// inference events, linked results, and API response envelopes.
package models

import (
	"sort"
	"time"
)

// Stage1Event is one frame-triggered detection from the upstream pipeline's
// first inference pass. The warehouse owns the source of truth; StageTrace
// only reads.
//
// SessionID is an opaque identifier and is NOT unique across pipeline
// retries; the linkage key (camera + block + timestamp key) is the stable
// handle for associating stage 2 output.
type Stage1Event struct {
	SessionID     string    `json:"session_id"`
	FarmID        string    `json:"farm_id"`
	CameraID      string    `json:"camera_id"`
	DetectedAt    time.Time `json:"detected_at"`
	Category      string    `json:"category"`
	Confidence    float64   `json:"confidence"`
	ShouldForward bool      `json:"should_forward"`

	// FrameURIs is the ordered candidate frame set; element 0 is the
	// trigger frame the link key is derived from.
	FrameURIs       []string `json:"frame_uris"`
	TriggerFrameURI string   `json:"trigger_frame_uri"`
	FrameCount      int      `json:"frame_count"`

	// Per-category probabilities reported by the stage 1 model.
	ProbAnimalHusbandry *float64 `json:"probability_animal_husbandry,omitempty"`
	ProbDownCow         *float64 `json:"probability_down_cow,omitempty"`
	ProbQuickMovements  *float64 `json:"probability_quick_movements,omitempty"`
	ProbNoEvent         *float64 `json:"probability_no_event,omitempty"`

	// RawResponse is the serialized model output, passed through unmodified.
	RawResponse string `json:"raw_response,omitempty"`
}

// Stage2Event is one video-level classification, produced only for forwarded
// stage 1 events.
type Stage2Event struct {
	InferenceID   string    `json:"inference_id"`
	CameraID      string    `json:"camera_id,omitempty"`
	InferredAt    time.Time `json:"inferred_at"`
	Classification string   `json:"classification"`
	Confidence    float64   `json:"confidence"`
	ShouldForward bool      `json:"should_forward"`
	VideoPath     string    `json:"video_path"`
	VideoFilename string    `json:"video_filename,omitempty"`
	RawResponse   string    `json:"raw_response,omitempty"`
}

// LinkedResult pairs a stage 1 event with its stage 2 outcome, if any.
// Stage2 is nil when the event was never forwarded or stage 2 processing is
// still pending. Results are constructed per query and never persisted.
type LinkedResult struct {
	Stage1 Stage1Event  `json:"stage1"`
	Stage2 *Stage2Event `json:"stage2,omitempty"`

	// BlockID and TimestampKey are the derived linkage key components.
	// Empty when the trigger frame path is malformed; such events cannot
	// match but still appear as unmatched rows.
	BlockID      string `json:"block_id,omitempty"`
	TimestampKey string `json:"timestamp_key,omitempty"`

	// VideoPathDerived is the stage 2 video path when matched, otherwise the
	// textually derived fallback location. The fallback is a string
	// transform only; the object may not exist.
	VideoPathDerived string `json:"video_path_derived,omitempty"`
}

// LinkKeyString renders the composite link key for duplicate detection.
func (r *LinkedResult) LinkKeyString() string {
	if r.BlockID == "" || r.TimestampKey == "" {
		return ""
	}
	return r.Stage1.CameraID + "|" + r.BlockID + "|" + r.TimestampKey
}

// LinkedResults is an ordered result set (descending stage 1 timestamp).
type LinkedResults []LinkedResult

// DuplicateKeys returns link keys that appear on more than one row, sorted.
// A non-empty return is a data-quality signal: either a stage 1 event
// matched multiple stage 2 events, or the pipeline retried an event under a
// new session. The linkage never silently picks one row.
func (rs LinkedResults) DuplicateKeys() []string {
	seen := make(map[string]int, len(rs))
	for i := range rs {
		if key := rs[i].LinkKeyString(); key != "" {
			seen[key]++
		}
	}

	var dups []string
	for key, n := range seen {
		if n > 1 {
			dups = append(dups, key)
		}
	}
	sort.Strings(dups)
	return dups
}

// Option is a (display name, id) pair for dashboard selector lists.
type Option struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// AllOption is the sentinel prepended to every selector list.
var AllOption = Option{Name: "All", ID: "All"}
