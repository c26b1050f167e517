// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

// Package media fetches frames and videos from the pipeline's object
// store and prepares dashboard artifacts: signed URLs, animated GIFs
// assembled from frame bursts, and browser-playable H.264 videos.
package media

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ObjectStore abstracts the object-store client so the service can be
// tested against a fake.
type ObjectStore interface {
	// Read downloads one object in full.
	Read(ctx context.Context, bucket, object string) ([]byte, error)

	// SignedURL returns a time-limited GET URL for one object.
	SignedURL(bucket, object string, expiry time.Duration) (string, error)
}

// ParseGCSURI splits a gs:// URI into bucket and object. Anything else
// is rejected before a network call is made.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	const scheme = "gs://"
	if !strings.HasPrefix(uri, scheme) {
		return "", "", fmt.Errorf("not a gs:// URI: %q", uri)
	}
	rest := strings.TrimPrefix(uri, scheme)
	bucket, object, found := strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", fmt.Errorf("malformed gs:// URI: %q", uri)
	}
	return bucket, object, nil
}
