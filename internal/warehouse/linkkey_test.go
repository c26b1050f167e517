// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package warehouse

import "testing"

func TestDeriveLinkKey(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		blockID  string
		tsKey    string
	}{
		{
			name:    "canonical frame path",
			path:    "gs://cv-pipeline/frames-to-analyze/farm-7/cam-3/042_0001337_2026-03-10T14:25:01_frame0.jpg",
			blockID: "042_0001337",
			tsKey:   "2026-03-10T14:25:01",
		},
		{
			name:    "canonical video path",
			path:    "gs://cv-pipeline/video-to-analyze/farm-7/cam-3/042_0001337_2026-03-10T14:25:01.mp4",
			blockID: "042_0001337",
			tsKey:   "2026-03-10T14:25:01",
		},
		{
			name: "missing timestamp",
			path: "gs://cv-pipeline/frames-to-analyze/042_0001337_frame0.jpg",
		},
		{
			name: "short block id",
			path: "gs://cv-pipeline/frames-to-analyze/42_0001337_2026-03-10T14:25:01.jpg",
		},
		{
			name: "empty path",
			path: "",
		},
		{
			name: "timestamp without seconds",
			path: "gs://b/frames-to-analyze/042_0001337_2026-03-10T14:25.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := DeriveLinkKey(tt.path)
			if key.BlockID != tt.blockID {
				t.Errorf("BlockID = %q, want %q", key.BlockID, tt.blockID)
			}
			if key.TimestampKey != tt.tsKey {
				t.Errorf("TimestampKey = %q, want %q", key.TimestampKey, tt.tsKey)
			}
			wantValid := tt.blockID != "" && tt.tsKey != ""
			if key.Valid() != wantValid {
				t.Errorf("Valid() = %v, want %v", key.Valid(), wantValid)
			}
		})
	}
}

func TestDeriveLinkKeyBothSidesAgree(t *testing.T) {
	// The same capture must yield the same key whether derived from the
	// frame path or the video path.
	frame := "gs://b/frames-to-analyze/farm-1/cam-2/108_0042000_2026-03-09T23:59:58_frame0.jpg"
	video := "gs://b/video-to-analyze/farm-1/cam-2/108_0042000_2026-03-09T23:59:58.mp4"

	fk := DeriveLinkKey(frame)
	vk := DeriveLinkKey(video)
	if !fk.Valid() || fk != vk {
		t.Fatalf("frame key %+v != video key %+v", fk, vk)
	}
}

func TestFallbackVideoPath(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  string
	}{
		{
			name:  "frame to video",
			frame: "gs://b/frames-to-analyze/farm-1/042_0000001_2026-03-10T08:00:00_frame0.jpg",
			want:  "gs://b/video-to-analyze/farm-1/042_0000001_2026-03-10T08:00:00_frame0.mp4",
		},
		{
			name:  "no frame segment",
			frame: "gs://b/other-bucket/042_0000001_2026-03-10T08:00:00.jpg",
			want:  "",
		},
		{
			name:  "empty path",
			frame: "",
			want:  "",
		},
		{
			name:  "no jpg suffix keeps name",
			frame: "gs://b/frames-to-analyze/042_0000001_2026-03-10T08:00:00",
			want:  "gs://b/video-to-analyze/042_0000001_2026-03-10T08:00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackVideoPath(tt.frame, "frames-to-analyze", "video-to-analyze")
			if got != tt.want {
				t.Errorf("FallbackVideoPath(%q) = %q, want %q", tt.frame, got, tt.want)
			}
		})
	}
}
