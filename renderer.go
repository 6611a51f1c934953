// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vidsink

import (
	"fmt"

	"github.com/gogpu/vidsink/backend"
	"github.com/gogpu/vidsink/pixel"
)

// ndc maps a surface pixel coordinate into normalized device coordinates.
func ndc(c, dim int) float32 {
	if dim <= 0 {
		return -1
	}
	return 2*float32(c)/float32(dim) - 1
}

// quadVertices builds the four corners of a destination rectangle in
// normalized device coordinates, ordered top-left, top-right, bottom-left,
// bottom-right, with the full texture mapped onto it. Surface Y grows
// downward, device Y grows upward.
func quadVertices(rg Region, sw, sh int) [4]backend.Vertex {
	x0 := ndc(rg.X, sw)
	x1 := ndc(rg.X+rg.W, sw)
	y0 := -ndc(rg.Y, sh)
	y1 := -ndc(rg.Y+rg.H, sh)
	return [4]backend.Vertex{
		{X: x0, Y: y0, U: 0, V: 0},
		{X: x1, Y: y0, U: 1, V: 0},
		{X: x0, Y: y1, U: 0, V: 1},
		{X: x1, Y: y1, U: 1, V: 1},
	}
}

// borderQuads builds the two border rectangles around a centered video
// region. A region touching the left edge is centered vertically, so the
// borders sit above and below; otherwise they sit left and right.
func borderQuads(rg Region, sw, sh int) [][4]backend.Vertex {
	var a, b Region
	if rg.X == 0 {
		a = Region{X: 0, Y: 0, W: sw, H: rg.Y}
		b = Region{X: 0, Y: rg.Y + rg.H, W: sw, H: sh - rg.Y - rg.H}
	} else {
		a = Region{X: 0, Y: 0, W: rg.X, H: sh}
		b = Region{X: rg.X + rg.W, Y: 0, W: sw - rg.X - rg.W, H: sh}
	}
	var out [][4]backend.Vertex
	if !a.empty() {
		out = append(out, quadVertices(a, sw, sh))
	}
	if !b.empty() {
		out = append(out, quadVertices(b, sw, sh))
	}
	return out
}

// uploadFrame copies every plane of a frame into the bound textures.
func (r *renderResources) uploadFrame(fr *pixel.Frame) error {
	if r.state != stateResourcesBuilt {
		return errNotConfigured
	}
	planes, err := fr.Planes()
	if err != nil {
		return err
	}
	if len(planes) != len(r.textures) {
		return fmt.Errorf("vidsink: %d planes for %d textures", len(planes), len(r.textures))
	}
	for i, p := range planes {
		upload := backend.PlaneUpload{
			Format: p.Format,
			Width:  p.Width,
			Height: p.Height,
			Data:   fr.PlaneData(p),
		}
		if err := r.dev.UploadTexture(r.textures[i], upload); err != nil {
			return fmt.Errorf("vidsink: upload plane %d: %w", i, err)
		}
	}
	return nil
}

// drawFrame issues the border fills (when the backend does not preserve
// the buffer across swaps) and the video quad, then presents.
func (r *renderResources) drawFrame(rg Region) error {
	if r.state != stateResourcesBuilt {
		return errNotConfigured
	}
	sw, sh := r.surface.Width, r.surface.Height

	if !r.surface.BufferPreserved && r.borderProg != nil {
		for _, q := range borderQuads(rg, sw, sh) {
			if err := r.dev.DrawQuad(r.borderProg, q, nil); err != nil {
				return fmt.Errorf("vidsink: draw border: %w", err)
			}
		}
	}

	if err := r.dev.DrawQuad(r.videoProg, quadVertices(rg, sw, sh), r.textures); err != nil {
		return fmt.Errorf("vidsink: draw video quad: %w", err)
	}

	if err := r.dev.Swap(); err != nil {
		return fmt.Errorf("vidsink: swap: %w", err)
	}
	return nil
}
