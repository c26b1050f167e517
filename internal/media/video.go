// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/stagetrace/stagetrace/internal/logging"
)

// FetchVideo downloads a source video and transcodes it to browser-
// playable H.264, returning the temp-file path. The pipeline records
// HEVC, which most browsers refuse to play inline. When every encoder
// fails the raw download is served instead; a non-playable video beats
// a broken dashboard.
func (s *Service) FetchVideo(ctx context.Context, uri string) (string, error) {
	outPath := s.artifactPath(uri, ".mp4")
	if s.videoCache.Contains(outPath) {
		if _, err := os.Stat(outPath); err == nil {
			return outPath, nil
		}
	}

	data, err := s.fetch(ctx, "video", uri)
	if err != nil {
		return "", err
	}

	rawPath := s.artifactPath(uri, ".raw.mp4")
	if err := os.WriteFile(rawPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write raw video: %w", err)
	}

	if err := s.transcode(ctx, rawPath, outPath); err != nil {
		logging.Warn().Err(err).Str("uri", uri).Msg("transcode failed, serving raw video")
		s.videoCache.Track(rawPath)
		return rawPath, nil
	}

	_ = os.Remove(rawPath)
	s.videoCache.Track(outPath)
	return outPath, nil
}

// transcode converts in to H.264 at out, trying the hardware encoder
// first when enabled.
func (s *Service) transcode(ctx context.Context, in, out string) error {
	var encoders []string
	if s.cfg.EnableNVENC {
		encoders = append(encoders, "h264_nvenc")
	}
	encoders = append(encoders, "libx264")

	var lastErr error
	for _, encoder := range encoders {
		if err := s.runFFmpeg(ctx, in, out, encoder); err != nil {
			lastErr = err
			logging.Debug().Err(err).Str("encoder", encoder).Msg("encoder failed")
			continue
		}
		return nil
	}
	return lastErr
}

func (s *Service) runFFmpeg(ctx context.Context, in, out, encoder string) error {
	ffmpeg := s.cfg.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, ffmpeg,
		"-y",
		"-i", in,
		"-c:v", encoder,
		"-preset", "fast",
		"-movflags", "+faststart",
		"-an",
		out,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		_ = os.Remove(out)
		return fmt.Errorf("%s: %w: %s", encoder, err, tail(output, 400))
	}
	return nil
}

// tail keeps the last n bytes of command output for error messages.
func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
