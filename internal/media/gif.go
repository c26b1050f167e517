// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
)

// BuildGIF downloads the frame burst and assembles an animated GIF,
// returning the temp-file path. The path is deterministic per frame set,
// so repeated requests reuse the existing artifact; the GIF cache evicts
// the oldest file when the cap is exceeded.
func (s *Service) BuildGIF(ctx context.Context, frameURIs []string, fps int) (string, error) {
	if len(frameURIs) == 0 {
		return "", fmt.Errorf("no frames to assemble")
	}
	if fps <= 0 {
		fps = s.cfg.GIFFrameRate
	}
	if fps <= 0 {
		fps = 3
	}

	path := s.artifactPath(strings.Join(frameURIs, "|"), ".gif")
	if s.gifCache.Contains(path) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	anim := &gif.GIF{}
	delay := 100 / fps // gif delay unit is 1/100s
	for _, uri := range frameURIs {
		data, err := s.fetch(ctx, "gif", uri)
		if err != nil {
			return "", fmt.Errorf("frame %s: %w", uri, err)
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", uri, err)
		}

		paletted := image.NewPaletted(img.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, img.Bounds(), img, image.Point{})
		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, delay)
	}

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create gif: %w", err)
	}
	if err := gif.EncodeAll(out, anim); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("encode gif: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	s.gifCache.Track(path)
	return path, nil
}
