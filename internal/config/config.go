// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

// Package config defines the StageTrace configuration model and its layered
// loading (defaults, optional YAML file, environment variables).
package config

import (
	"time"
)

// Config is the root configuration for the StageTrace server.
type Config struct {
	Warehouse WarehouseConfig `koanf:"warehouse"`
	Linkage   LinkageConfig   `koanf:"linkage"`
	Media     MediaConfig     `koanf:"media"`
	Mapping   MappingConfig   `koanf:"mapping"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// WarehouseConfig holds connection parameters and table locations for the
// inference-log warehouse. Path is required; everything else has defaults
// matching the upstream pipeline's catalog layout.
type WarehouseConfig struct {
	// Path is the DuckDB database path, or ":memory:" for an in-process
	// scratch database (tests, local development against seeded data).
	Path string `koanf:"path" validate:"required"`

	// MaxMemory caps DuckDB memory usage (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`

	// Catalog optionally prefixes all table references. Leave empty when the
	// tables live in the default catalog of the attached database.
	Catalog string `koanf:"catalog"`

	// Schema holds the two inference-log tables.
	Schema string `koanf:"schema"`

	// Stage1Table is the frame-level detection log.
	Stage1Table string `koanf:"stage1_table"`

	// Stage2Table is the video-level classification log.
	Stage2Table string `koanf:"stage2_table"`

	// MappingSchema holds the tenant/farm/camera mapping tables.
	MappingSchema string `koanf:"mapping_schema"`

	// CreateSchema creates the schemas and tables on startup when they do
	// not exist. Intended for development and tests, not production, where
	// the upstream pipeline owns the tables.
	CreateSchema bool `koanf:"create_schema"`
}

// LinkageConfig tunes the stage-1/stage-2 linkage queries.
type LinkageConfig struct {
	// FrameStoreSegment is the object-store path segment holding trigger
	// frames; it is substituted when deriving fallback video paths.
	FrameStoreSegment string `koanf:"frame_store_segment"`

	// VideoStoreSegment is the object-store path segment holding source videos.
	VideoStoreSegment string `koanf:"video_store_segment"`

	// DefaultLimit applies when a query does not specify a row limit.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps requested row limits.
	MaxLimit int `koanf:"max_limit"`
}

// MediaConfig configures the object-store media collaborator.
type MediaConfig struct {
	// Bucket restricts media fetches to a single GCS bucket. Empty allows any.
	Bucket string `koanf:"bucket"`

	// SignedURLExpiry is the lifetime of generated signed URLs.
	SignedURLExpiry time.Duration `koanf:"signed_url_expiry"`

	// MaxCachedVideos bounds the transcoded-video temp cache (insertion-order eviction).
	MaxCachedVideos int `koanf:"max_cached_videos"`

	// MaxCachedGIFs bounds the assembled-GIF temp cache.
	MaxCachedGIFs int `koanf:"max_cached_gifs"`

	// GIFFrameRate is the frames-per-second used when assembling frame GIFs.
	GIFFrameRate int `koanf:"gif_frame_rate"`

	// FFmpegPath locates the ffmpeg binary used for H.264 transcoding.
	FFmpegPath string `koanf:"ffmpeg_path"`

	// EnableNVENC tries hardware (h264_nvenc) encoding before the libx264 fallback.
	EnableNVENC bool `koanf:"enable_nvenc"`

	// DownloadsPerSec rate-limits object-store reads.
	DownloadsPerSec float64 `koanf:"downloads_per_sec"`
}

// MappingConfig configures the tenant/farm/camera mapping service.
type MappingConfig struct {
	// RefreshInterval is how often mapping tables are reloaded in the background.
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed CORS origins for the dashboard frontend.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests per RateLimitWindow per client IP. 0 disables limiting.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures the zerolog global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Warehouse: WarehouseConfig{
			Path:          "",
			MaxMemory:     "2GB",
			Threads:       0, // 0 = runtime.NumCPU()
			Catalog:       "",
			Schema:        "bronze",
			Stage1Table:   "gemini_stage1_detections",
			Stage2Table:   "stage2_vlm_inferences",
			MappingSchema: "cv_logs",
			CreateSchema:  false,
		},
		Linkage: LinkageConfig{
			FrameStoreSegment: "frames-to-analyze",
			VideoStoreSegment: "video-to-analyze",
			DefaultLimit:      50,
			MaxLimit:          500,
		},
		Media: MediaConfig{
			Bucket:          "",
			SignedURLExpiry: time.Hour,
			MaxCachedVideos: 10,
			MaxCachedGIFs:   20,
			GIFFrameRate:    3,
			FFmpegPath:      "ffmpeg",
			EnableNVENC:     false,
			DownloadsPerSec: 8,
		},
		Mapping: MappingConfig{
			RefreshInterval: 15 * time.Minute,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8480,
			Timeout:           30 * time.Second,
			CORSOrigins:       []string{},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
