// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagetrace/stagetrace/internal/config"
)

// fakeStore serves objects from a map and counts reads.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	reads   int
	fail    error
}

func (f *fakeStore) Read(_ context.Context, bucket, object string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.fail != nil {
		return nil, f.fail
	}
	data, ok := f.objects[bucket+"/"+object]
	if !ok {
		return nil, fmt.Errorf("object not found: gs://%s/%s", bucket, object)
	}
	return data, nil
}

func (f *fakeStore) SignedURL(bucket, object string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.example/%s/%s?ttl=%ds", bucket, object, int(expiry.Seconds())), nil
}

func testConfig() config.MediaConfig {
	return config.MediaConfig{
		SignedURLExpiry: time.Hour,
		MaxCachedVideos: 2,
		MaxCachedGIFs:   2,
		GIFFrameRate:    3,
		DownloadsPerSec: 100,
	}
}

func jpegBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		object  string
		wantErr bool
	}{
		{"gs://cv-pipeline/frames-to-analyze/a.jpg", "cv-pipeline", "frames-to-analyze/a.jpg", false},
		{"gs://b/o", "b", "o", false},
		{"https://example.com/a.jpg", "", "", true},
		{"gs://bucket-only", "", "", true},
		{"gs:///no-bucket", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		bucket, object, err := ParseGCSURI(tt.uri)
		if tt.wantErr {
			assert.Error(t, err, tt.uri)
			continue
		}
		require.NoError(t, err, tt.uri)
		assert.Equal(t, tt.bucket, bucket)
		assert.Equal(t, tt.object, object)
	}
}

func TestFetchFrame(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"cv-pipeline/frames/a.jpg": []byte("jpeg-bytes"),
	}}
	s := NewService(testConfig(), store, t.TempDir())

	data, err := s.FetchFrame(context.Background(), "gs://cv-pipeline/frames/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	_, err = s.FetchFrame(context.Background(), "gs://cv-pipeline/frames/missing.jpg")
	assert.Error(t, err)
}

func TestBucketRestriction(t *testing.T) {
	cfg := testConfig()
	cfg.Bucket = "cv-pipeline"
	store := &fakeStore{objects: map[string][]byte{"other/a.jpg": []byte("x")}}
	s := NewService(cfg, store, t.TempDir())

	_, err := s.FetchFrame(context.Background(), "gs://other/a.jpg")
	assert.Error(t, err)
	assert.Zero(t, store.reads, "restricted bucket must be rejected before any read")

	_, err = s.SignedURL("gs://other/a.jpg")
	assert.Error(t, err)
}

func TestSignedURL(t *testing.T) {
	s := NewService(testConfig(), &fakeStore{}, t.TempDir())

	url, err := s.SignedURL("gs://cv-pipeline/video-to-analyze/v.mp4")
	require.NoError(t, err)
	assert.Contains(t, url, "cv-pipeline/video-to-analyze/v.mp4")

	_, err = s.SignedURL("not-a-uri")
	assert.Error(t, err)
}

func TestBuildGIF(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"b/f1.jpg": jpegBytes(t, color.RGBA{R: 255, A: 255}),
		"b/f2.jpg": jpegBytes(t, color.RGBA{G: 255, A: 255}),
	}}
	s := NewService(testConfig(), store, t.TempDir())

	uris := []string{"gs://b/f1.jpg", "gs://b/f2.jpg"}
	path, err := s.BuildGIF(context.Background(), uris, 3)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".gif"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	// Same frame set reuses the cached artifact without re-downloading.
	readsBefore := store.reads
	again, err := s.BuildGIF(context.Background(), uris, 3)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Equal(t, readsBefore, store.reads)
}

func TestBuildGIFErrors(t *testing.T) {
	s := NewService(testConfig(), &fakeStore{}, t.TempDir())

	_, err := s.BuildGIF(context.Background(), nil, 3)
	assert.Error(t, err, "empty frame set")

	_, err = s.BuildGIF(context.Background(), []string{"gs://b/missing.jpg"}, 3)
	assert.Error(t, err)
}

func TestGIFCacheEviction(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{}}
	for i := 0; i < 3; i++ {
		store.objects[fmt.Sprintf("b/f%d.jpg", i)] = jpegBytes(t, color.Gray{Y: uint8(i * 80)})
	}
	s := NewService(testConfig(), store, t.TempDir()) // cap 2

	var paths []string
	for i := 0; i < 3; i++ {
		p, err := s.BuildGIF(context.Background(), []string{fmt.Sprintf("gs://b/f%d.jpg", i)}, 3)
		require.NoError(t, err)
		paths = append(paths, p)
	}

	_, err := os.Stat(paths[0])
	assert.True(t, os.IsNotExist(err), "oldest artifact should be evicted from disk")
	_, err = os.Stat(paths[2])
	assert.NoError(t, err)
}

func TestFetchVideoServesRawOnTranscodeFailure(t *testing.T) {
	cfg := testConfig()
	cfg.FFmpegPath = "/nonexistent/ffmpeg"
	store := &fakeStore{objects: map[string][]byte{
		"b/video-to-analyze/v.mp4": []byte("hevc-bytes"),
	}}
	s := NewService(cfg, store, t.TempDir())

	path, err := s.FetchVideo(context.Background(), "gs://b/video-to-analyze/v.mp4")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("hevc-bytes"), data, "raw download served when no encoder works")
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	store := &fakeStore{fail: errors.New("storage: service unavailable")}
	s := NewService(testConfig(), store, t.TempDir())

	for i := 0; i < 5; i++ {
		_, err := s.FetchFrame(context.Background(), "gs://b/a.jpg")
		require.Error(t, err)
	}

	// Breaker is open: the store must not be hit again.
	readsBefore := store.reads
	_, err := s.FetchFrame(context.Background(), "gs://b/a.jpg")
	require.Error(t, err)
	assert.Equal(t, readsBefore, store.reads)
}
