// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestInit_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "warn", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Info().Msg("should be filtered")
	Warn().Msg("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Errorf("info message emitted at warn level: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn message missing: %s", out)
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	if err := Init(Config{Level: "shouting"}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestSlogAdapter_ForwardsToZerolog(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "debug", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	slogger := slog.New(&SlogHandler{logger: Logger()})
	slogger.Info("supervisor event", "service", "api-server")

	out := buf.String()
	if !strings.Contains(out, "supervisor event") {
		t.Errorf("message not forwarded: %s", out)
	}
	if !strings.Contains(out, "api-server") {
		t.Errorf("attribute not forwarded: %s", out)
	}
}
