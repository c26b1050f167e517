// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package warehouse

import (
	"regexp"
	"strings"
)

// linkKeyPattern extracts the two components of the link key from an
// object-store path. Group 1 is the block id (3 digits, underscore,
// 7 digits); group 2 is the second-precision capture timestamp. The same
// pattern is applied on both sides of the join so any drift in the
// upstream path convention breaks both sides identically rather than
// silently unlinking one.
const linkKeyPattern = `(\d{3}_\d{7})_(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})`

var linkKeyRe = regexp.MustCompile(linkKeyPattern)

// LinkKey is the derived join key. Both components must be present; a
// path the pattern does not match yields a zero LinkKey and the row never
// participates in a join.
type LinkKey struct {
	BlockID      string
	TimestampKey string
}

// Valid reports whether both components were extracted.
func (k LinkKey) Valid() bool {
	return k.BlockID != "" && k.TimestampKey != ""
}

// DeriveLinkKey extracts the link key from a file path. Returns a zero
// key when the path does not follow the capture naming convention.
func DeriveLinkKey(path string) LinkKey {
	m := linkKeyRe.FindStringSubmatch(path)
	if m == nil {
		return LinkKey{}
	}
	return LinkKey{BlockID: m[1], TimestampKey: m[2]}
}

// FallbackVideoPath derives the expected stage 2 video path from a stage 1
// frame path, for linked rows where stage 2 has not landed yet. It swaps
// the frame-store path segment for the video-store segment and the image
// suffix for the video suffix. Returns "" when the frame segment is not
// present, so callers never fabricate a path from an unrelated URI.
func FallbackVideoPath(framePath, frameSegment, videoSegment string) string {
	if framePath == "" || !strings.Contains(framePath, frameSegment) {
		return ""
	}
	p := strings.Replace(framePath, frameSegment, videoSegment, 1)
	if strings.HasSuffix(p, ".jpg") {
		p = strings.TrimSuffix(p, ".jpg") + ".mp4"
	}
	return p
}
