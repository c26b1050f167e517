// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WAREHOUSE_PATH", "/data/stagetrace.duckdb")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Warehouse.Schema != "bronze" {
		t.Errorf("expected default schema bronze, got %q", cfg.Warehouse.Schema)
	}
	if cfg.Warehouse.Stage1Table != "gemini_stage1_detections" {
		t.Errorf("unexpected stage1 table %q", cfg.Warehouse.Stage1Table)
	}
	if cfg.Linkage.FrameStoreSegment != "frames-to-analyze" {
		t.Errorf("unexpected frame store segment %q", cfg.Linkage.FrameStoreSegment)
	}
	if cfg.Linkage.DefaultLimit != 50 {
		t.Errorf("expected default limit 50, got %d", cfg.Linkage.DefaultLimit)
	}
	if cfg.Media.MaxCachedVideos != 10 || cfg.Media.MaxCachedGIFs != 20 {
		t.Errorf("unexpected media cache caps: %d videos, %d gifs",
			cfg.Media.MaxCachedVideos, cfg.Media.MaxCachedGIFs)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WAREHOUSE_PATH", ":memory:")
	t.Setenv("WAREHOUSE_STAGE1_TABLE", "stage1_detections_v2")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Warehouse.Stage1Table != "stage1_detections_v2" {
		t.Errorf("env override not applied, got %q", cfg.Warehouse.Stage1Table)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
}

func TestLoad_MissingPath(t *testing.T) {
	// No WAREHOUSE_PATH: required connection parameter is absent and must
	// fail before any query attempt.
	cfg := defaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure for missing warehouse path")
	}
}

func TestValidate_RejectsBadIdentifiers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"injection in table", func(c *Config) { c.Warehouse.Stage1Table = "x; DROP TABLE y--" }},
		{"dotted schema", func(c *Config) { c.Warehouse.Schema = "a.b" }},
		{"leading digit", func(c *Config) { c.Warehouse.MappingSchema = "1logs" }},
		{"empty table", func(c *Config) { c.Warehouse.Stage2Table = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Warehouse.Path = ":memory:"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestValidate_LimitSanity(t *testing.T) {
	cfg := defaultConfig()
	cfg.Warehouse.Path = ":memory:"
	cfg.Linkage.MaxLimit = 10
	cfg.Linkage.DefaultLimit = 50
	if err := cfg.Validate(); err == nil {
		t.Error("expected failure when max_limit < default_limit")
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"WAREHOUSE_PATH", "warehouse.path"},
		{"WAREHOUSE_STAGE1_TABLE", "warehouse.stage1_table"},
		{"LINKAGE_FRAME_STORE_SEGMENT", "linkage.frame_store_segment"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
