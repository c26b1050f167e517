// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package config

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// identifierPattern constrains catalog, schema, and table names. Identifiers
// are interpolated into SQL text (they cannot be bound as parameters), so
// anything outside this set is rejected at load time.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the configuration for missing or dangerous values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	identifiers := map[string]string{
		"warehouse.schema":         c.Warehouse.Schema,
		"warehouse.stage1_table":   c.Warehouse.Stage1Table,
		"warehouse.stage2_table":   c.Warehouse.Stage2Table,
		"warehouse.mapping_schema": c.Warehouse.MappingSchema,
	}
	if c.Warehouse.Catalog != "" {
		identifiers["warehouse.catalog"] = c.Warehouse.Catalog
	}
	for key, value := range identifiers {
		if !identifierPattern.MatchString(value) {
			return fmt.Errorf("%s: %q is not a valid SQL identifier", key, value)
		}
	}

	if c.Linkage.DefaultLimit <= 0 {
		return fmt.Errorf("linkage.default_limit must be positive, got %d", c.Linkage.DefaultLimit)
	}
	if c.Linkage.MaxLimit < c.Linkage.DefaultLimit {
		return fmt.Errorf("linkage.max_limit (%d) must be >= linkage.default_limit (%d)",
			c.Linkage.MaxLimit, c.Linkage.DefaultLimit)
	}
	if c.Linkage.FrameStoreSegment == "" || c.Linkage.VideoStoreSegment == "" {
		return fmt.Errorf("linkage store segments must not be empty")
	}

	if c.Media.MaxCachedVideos < 0 || c.Media.MaxCachedGIFs < 0 {
		return fmt.Errorf("media cache capacities must not be negative")
	}
	if c.Media.GIFFrameRate <= 0 {
		return fmt.Errorf("media.gif_frame_rate must be positive, got %d", c.Media.GIFFrameRate)
	}

	return nil
}
