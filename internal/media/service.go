// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/stagetrace/stagetrace/internal/cache"
	"github.com/stagetrace/stagetrace/internal/config"
	"github.com/stagetrace/stagetrace/internal/logging"
	"github.com/stagetrace/stagetrace/internal/metrics"
)

// Service prepares media artifacts for the dashboard. All object-store
// reads go through one circuit breaker and one rate limiter; generated
// artifacts land in a temp directory bounded by insertion-order caches.
type Service struct {
	cfg   config.MediaConfig
	store ObjectStore

	breaker *gobreaker.CircuitBreaker[[]byte]
	limiter *rate.Limiter

	videoCache *cache.FIFOFileCache
	gifCache   *cache.FIFOFileCache
	tempDir    string
}

// NewService wires a media service around an object store. Temp artifacts
// are written under dir, which must exist.
func NewService(cfg config.MediaConfig, store ObjectStore, dir string) *Service {
	settings := gobreaker.Settings{
		Name:    "object-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("object-store circuit breaker state change")
		},
	}

	perSec := cfg.DownloadsPerSec
	if perSec <= 0 {
		perSec = 8
	}

	s := &Service{
		cfg:        cfg,
		store:      store,
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
		limiter:    rate.NewLimiter(rate.Limit(perSec), int(perSec)+1),
		videoCache: cache.NewFIFOFileCache(cfg.MaxCachedVideos),
		gifCache:   cache.NewFIFOFileCache(cfg.MaxCachedGIFs),
		tempDir:    dir,
	}
	s.videoCache.SetEvictionHook(evictionHook("video"))
	s.gifCache.SetEvictionHook(evictionHook("gif"))
	return s
}

func evictionHook(kind string) func(path string, err error) {
	return func(path string, err error) {
		metrics.MediaEvictions.WithLabelValues(kind).Inc()
		if err != nil && !os.IsNotExist(err) {
			logging.Warn().Err(err).Str("path", path).Msg("failed to remove evicted media artifact")
		}
	}
}

// fetch downloads one object, gated by the rate limiter and the circuit
// breaker. A configured bucket restriction rejects foreign URIs before
// any network call.
func (s *Service) fetch(ctx context.Context, kind, uri string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		metrics.MediaFetches.WithLabelValues(kind, "rejected").Inc()
		return nil, err
	}
	if s.cfg.Bucket != "" && bucket != s.cfg.Bucket {
		metrics.MediaFetches.WithLabelValues(kind, "rejected").Inc()
		return nil, fmt.Errorf("bucket %q not allowed", bucket)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	data, err := s.breaker.Execute(func() ([]byte, error) {
		return s.store.Read(ctx, bucket, object)
	})
	if err != nil {
		metrics.MediaFetches.WithLabelValues(kind, "failure").Inc()
		return nil, err
	}
	metrics.MediaFetches.WithLabelValues(kind, "success").Inc()
	return data, nil
}

// FetchFrame downloads one trigger frame as JPEG bytes.
func (s *Service) FetchFrame(ctx context.Context, uri string) ([]byte, error) {
	return s.fetch(ctx, "frame", uri)
}

// SignedURL returns a time-limited GET URL for one object.
func (s *Service) SignedURL(uri string) (string, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return "", err
	}
	if s.cfg.Bucket != "" && bucket != s.cfg.Bucket {
		return "", fmt.Errorf("bucket %q not allowed", bucket)
	}
	return s.store.SignedURL(bucket, object, s.cfg.SignedURLExpiry)
}

// artifactPath derives a deterministic temp path for a cache key, so a
// repeated request for the same artifact hits the existing file.
func (s *Service) artifactPath(key, ext string) string {
	sum := sha256.Sum256([]byte(key))
	return s.tempDir + "/" + hex.EncodeToString(sum[:8]) + ext
}
