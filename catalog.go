// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vidsink

import (
	"errors"

	"github.com/gogpu/vidsink/backend"
	"github.com/gogpu/vidsink/pixel"
)

// ErrNoUsableConfig is returned by Open when the backend satisfies none of
// the probed framebuffer configurations.
var ErrNoUsableConfig = errors.New("vidsink: graphics backend offers no usable framebuffer configuration")

// TargetFormat identifies the hardware framebuffer layout of a catalog
// entry.
type TargetFormat int

const (
	// TargetRGBA8888 is a 32-bit configuration with alpha.
	TargetRGBA8888 TargetFormat = iota
	// TargetRGB888 is a 24-bit configuration.
	TargetRGB888
	// TargetRGB565 is a 16-bit configuration.
	TargetRGB565
)

// String returns the target name.
func (t TargetFormat) String() string {
	switch t {
	case TargetRGBA8888:
		return "RGBA8888"
	case TargetRGB888:
		return "RGB888"
	case TargetRGB565:
		return "RGB565"
	}
	return "unknown"
}

// SupportedFormat is one probed catalog entry: a satisfiable hardware
// target plus the pixel formats it can present.
type SupportedFormat struct {
	Target     TargetFormat
	Template   backend.ConfigTemplate
	Config     backend.Config
	Compatible []pixel.Format
}

// supports reports whether the entry can present format f.
func (s *SupportedFormat) supports(f pixel.Format) bool {
	for _, c := range s.Compatible {
		if c == f {
			return true
		}
	}
	return false
}

// Catalog is the set of hardware configurations the backend reported
// satisfiable, in probe priority order. Built once at open time and
// immutable afterwards.
type Catalog struct {
	entries []*SupportedFormat
}

// catalogProbes lists the probed targets in priority order with the pixel
// formats each one can display.
var catalogProbes = []struct {
	target     TargetFormat
	template   backend.ConfigTemplate
	compatible []pixel.Format
}{
	{
		target:   TargetRGBA8888,
		template: backend.ConfigTemplate{RedBits: 8, GreenBits: 8, BlueBits: 8, AlphaBits: 8},
		compatible: []pixel.Format{
			pixel.FormatRGBA, pixel.FormatBGRA, pixel.FormatARGB, pixel.FormatABGR,
			pixel.FormatRGBx, pixel.FormatBGRx, pixel.FormatXRGB, pixel.FormatXBGR,
			pixel.FormatAYUV, pixel.FormatY444, pixel.FormatI420, pixel.FormatYV12,
			pixel.FormatNV12, pixel.FormatNV21, pixel.FormatYUY2, pixel.FormatYVYU,
			pixel.FormatUYVY, pixel.FormatY42B, pixel.FormatY41B,
		},
	},
	{
		target:     TargetRGB888,
		template:   backend.ConfigTemplate{RedBits: 8, GreenBits: 8, BlueBits: 8},
		compatible: []pixel.Format{pixel.FormatRGB, pixel.FormatBGR},
	},
	{
		target:     TargetRGB565,
		template:   backend.ConfigTemplate{RedBits: 5, GreenBits: 6, BlueBits: 5},
		compatible: []pixel.Format{pixel.FormatRGB16},
	},
}

// probeCatalog queries the device for each hardware target in priority
// order. An empty result is a fatal initialization error.
func probeCatalog(dev backend.Device) (*Catalog, error) {
	log := Logger()
	cat := &Catalog{}
	for _, p := range catalogProbes {
		cfg, err := dev.ProbeConfig(p.template)
		if err != nil {
			log.Debug("vidsink: config not satisfiable",
				"target", p.target.String(), "err", err)
			continue
		}
		compatible := make([]pixel.Format, len(p.compatible))
		copy(compatible, p.compatible)
		cat.entries = append(cat.entries, &SupportedFormat{
			Target:     p.target,
			Template:   p.template,
			Config:     cfg,
			Compatible: compatible,
		})
		log.Info("vidsink: catalog entry added",
			"target", p.target.String(), "formats", len(compatible))
	}
	if len(cat.entries) == 0 {
		return nil, ErrNoUsableConfig
	}
	return cat, nil
}

// Entries returns the catalog entries in priority order.
func (c *Catalog) Entries() []*SupportedFormat {
	out := make([]*SupportedFormat, len(c.entries))
	copy(out, c.entries)
	return out
}

// Match returns the first catalog entry compatible with the requested
// pixel format, or nil if no entry supports it. Deterministic given the
// probe order.
func (c *Catalog) Match(f pixel.Format) *SupportedFormat {
	for _, e := range c.entries {
		if e.supports(f) {
			return e
		}
	}
	return nil
}

// Formats returns the union of all compatible formats across entries, in
// entry priority order, without duplicates.
func (c *Catalog) Formats() []pixel.Format {
	seen := make(map[pixel.Format]bool)
	var out []pixel.Format
	for _, e := range c.entries {
		for _, f := range e.Compatible {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}
