// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package models

import (
	"reflect"
	"testing"
)

func linked(camera, block, ts string) LinkedResult {
	return LinkedResult{
		Stage1:       Stage1Event{CameraID: camera},
		BlockID:      block,
		TimestampKey: ts,
	}
}

func TestDuplicateKeys_None(t *testing.T) {
	rs := LinkedResults{
		linked("cam-1", "042_0000015", "2026-01-21T08:15:30"),
		linked("cam-1", "042_0000016", "2026-01-21T08:16:02"),
		linked("cam-2", "042_0000015", "2026-01-21T08:15:30"), // same key, other camera
	}

	if dups := rs.DuplicateKeys(); len(dups) != 0 {
		t.Errorf("expected no duplicates, got %v", dups)
	}
}

func TestDuplicateKeys_RowMultiplication(t *testing.T) {
	rs := LinkedResults{
		linked("cam-1", "042_0000015", "2026-01-21T08:15:30"),
		linked("cam-1", "042_0000015", "2026-01-21T08:15:30"),
		linked("cam-1", "043_0000001", "2026-01-21T09:00:00"),
	}

	want := []string{"cam-1|042_0000015|2026-01-21T08:15:30"}
	if got := rs.DuplicateKeys(); !reflect.DeepEqual(got, want) {
		t.Errorf("DuplicateKeys() = %v, want %v", got, want)
	}
}

func TestDuplicateKeys_MalformedKeysIgnored(t *testing.T) {
	// Rows with undefined link keys cannot be duplicates of each other.
	rs := LinkedResults{
		linked("cam-1", "", ""),
		linked("cam-1", "", ""),
	}

	if dups := rs.DuplicateKeys(); len(dups) != 0 {
		t.Errorf("malformed keys reported as duplicates: %v", dups)
	}
}
