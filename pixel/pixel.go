// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package pixel describes the video pixel formats a sink can present and
// how each format maps onto texture upload planes and a fragment-stage
// color conversion program.
//
// All per-format knowledge lives in one closed dispatch table: plane count,
// per-plane texel layout at the format's chroma subsampling, and the shader
// variant (with its channel selectors) that reassembles the planes into RGB.
// Adding a format is a single table entry.
package pixel

// Format identifies a video pixel format.
type Format int

// Supported formats. The zero value is FormatUnknown.
const (
	FormatUnknown Format = iota

	// Packed RGB family, 4 bytes per pixel.
	FormatRGBA
	FormatBGRA
	FormatARGB
	FormatABGR
	FormatRGBx
	FormatBGRx
	FormatXRGB
	FormatXBGR

	// Packed RGB family, 3 and 2 bytes per pixel.
	FormatRGB
	FormatBGR
	FormatRGB16

	// Packed YUV, 4 bytes per pixel (A Y U V byte order).
	FormatAYUV

	// Packed YUV, 2 bytes per pixel (interleaved luma/chroma pairs).
	FormatYUY2
	FormatYVYU
	FormatUYVY

	// Planar YUV, three separate planes.
	FormatI420
	FormatYV12
	FormatY444
	FormatY42B
	FormatY41B

	// Semi-planar YUV, luma plane plus interleaved chroma plane.
	FormatNV12
	FormatNV21
)

// String returns the conventional short name of the format.
func (f Format) String() string {
	if info, ok := table[f]; ok {
		return info.Name
	}
	return "unknown"
}

// PlaneFormat describes the texel layout of one upload plane, in terms of
// the channel classes a presentation backend must support.
type PlaneFormat int

const (
	// PlaneRGBA is a 4-channel plane, 4 bytes per texel.
	PlaneRGBA PlaneFormat = iota
	// PlaneRGB is a 3-channel plane, 3 bytes per texel.
	PlaneRGB
	// PlaneRGB565 is a 3-channel packed 16-bit plane, 2 bytes per texel.
	PlaneRGB565
	// PlaneLuminance is a single-channel plane, 1 byte per texel.
	PlaneLuminance
	// PlaneLuminanceAlpha is a 2-channel plane, 2 bytes per texel.
	PlaneLuminanceAlpha
)

// BytesPerTexel returns the per-texel byte size of the plane layout.
func (p PlaneFormat) BytesPerTexel() int {
	switch p {
	case PlaneRGBA:
		return 4
	case PlaneRGB:
		return 3
	case PlaneRGB565, PlaneLuminanceAlpha:
		return 2
	case PlaneLuminance:
		return 1
	}
	return 0
}

// Plane is one texture upload region of a frame: its texel layout, its
// dimensions (already chroma-subsampled where the format requires it), and
// the byte offset of its first sample in the frame buffer.
type Plane struct {
	Format PlaneFormat
	Width  int
	Height int
	Offset int
}

// Variant selects the fragment-stage conversion program for a format.
type Variant int

const (
	// VariantCopy samples one texture and emits it unchanged.
	VariantCopy Variant = iota
	// VariantReorder samples one texture and reorders its channels.
	// Channels holds the three source channel selectors.
	VariantReorder
	// VariantAYUV converts a single packed A-Y-U-V texture to RGB.
	VariantAYUV
	// VariantPackedYUV converts the two-texture packed 4:2:2 layout
	// (luma-alpha plus half-width RGBA over the same bytes) to RGB.
	// Channels holds the luma, first-chroma and second-chroma selectors.
	VariantPackedYUV
	// VariantPlanarYUV converts three single-channel planes to RGB.
	VariantPlanarYUV
	// VariantSemiPlanarYUV converts a luma plane plus an interleaved
	// chroma plane to RGB. Channels holds the two chroma selectors in
	// U, V order.
	VariantSemiPlanarYUV
	// VariantFill is the solid border-fill program. It samples no
	// textures and is never referenced by a format table entry.
	VariantFill
)

// ProgramSpec names a conversion program: the variant plus the channel
// selectors the variant's shader template is parameterized with.
type ProgramSpec struct {
	Variant  Variant
	Channels string
}

// TextureCount returns how many texture planes the program samples.
func (p ProgramSpec) TextureCount() int {
	switch p.Variant {
	case VariantCopy, VariantReorder, VariantAYUV:
		return 1
	case VariantPackedYUV, VariantSemiPlanarYUV:
		return 2
	case VariantPlanarYUV:
		return 3
	}
	return 0
}

// Info aggregates everything the sink needs to know about a format.
type Info struct {
	Name string

	// Program is the conversion program the renderer binds for the format.
	Program ProgramSpec

	// Layout returns the upload planes for a frame of the given size.
	Layout func(w, h int) []Plane

	// FrameSize returns the byte size of a frame of the given size.
	FrameSize func(w, h int) int
}

// Get returns the dispatch entry for a format.
func Get(f Format) (Info, bool) {
	info, ok := table[f]
	return info, ok
}

// Formats returns all supported formats in a stable order.
func Formats() []Format {
	out := make([]Format, len(order))
	copy(out, order)
	return out
}

func halfUp(v int) int    { return (v + 1) / 2 }
func quarterUp(v int) int { return (v + 3) / 4 }

// Packed single-plane layouts.

func packedLayout(pf PlaneFormat) func(w, h int) []Plane {
	return func(w, h int) []Plane {
		return []Plane{{Format: pf, Width: w, Height: h}}
	}
}

func packedSize(bytesPerPixel int) func(w, h int) int {
	return func(w, h int) int { return w * h * bytesPerPixel }
}

// Planar three-plane layouts. The chroma subsampling divisors apply to
// width and height independently; plane order is Y, U, V with YV12 the
// one layout that stores V before U.

func planarLayout(subW, subH int, swapUV bool) func(w, h int) []Plane {
	return func(w, h int) []Plane {
		cw := (w + subW - 1) / subW
		ch := (h + subH - 1) / subH
		y := Plane{Format: PlaneLuminance, Width: w, Height: h, Offset: 0}
		u := Plane{Format: PlaneLuminance, Width: cw, Height: ch, Offset: w * h}
		v := Plane{Format: PlaneLuminance, Width: cw, Height: ch, Offset: w*h + cw*ch}
		if swapUV {
			u.Offset, v.Offset = v.Offset, u.Offset
		}
		return []Plane{y, u, v}
	}
}

func planarSize(subW, subH int) func(w, h int) int {
	return func(w, h int) int {
		cw := (w + subW - 1) / subW
		ch := (h + subH - 1) / subH
		return w*h + 2*cw*ch
	}
}

// Packed 4:2:2 layouts (YUY2 family). The same interleaved bytes are
// uploaded twice: once as a full-size luma-alpha plane and once as a
// half-width 4-channel plane so the shader can address chroma pairs.

func packed422Layout(w, h int) []Plane {
	return []Plane{
		{Format: PlaneLuminanceAlpha, Width: w, Height: h, Offset: 0},
		{Format: PlaneRGBA, Width: halfUp(w), Height: h, Offset: 0},
	}
}

func packed422Size(w, h int) int {
	// Rows are padded to an even pixel count.
	return halfUp(w) * 2 * 2 * h
}

// Semi-planar layouts (NV12/NV21). Chroma order is encoded in the program
// channel selectors, not the plane layout.

func semiPlanarLayout(w, h int) []Plane {
	return []Plane{
		{Format: PlaneLuminance, Width: w, Height: h, Offset: 0},
		{Format: PlaneLuminanceAlpha, Width: halfUp(w), Height: halfUp(h), Offset: w * h},
	}
}

func semiPlanarSize(w, h int) int {
	return w*h + 2*halfUp(w)*halfUp(h)
}

var table = map[Format]Info{
	FormatRGBA: {
		Name:      "RGBA",
		Program:   ProgramSpec{Variant: VariantCopy},
		Layout:    packedLayout(PlaneRGBA),
		FrameSize: packedSize(4),
	},
	FormatRGBx: {
		Name:      "RGBx",
		Program:   ProgramSpec{Variant: VariantCopy},
		Layout:    packedLayout(PlaneRGBA),
		FrameSize: packedSize(4),
	},
	FormatBGRA: {
		Name:      "BGRA",
		Program:   ProgramSpec{Variant: VariantReorder, Channels: "bgr"},
		Layout:    packedLayout(PlaneRGBA),
		FrameSize: packedSize(4),
	},
	FormatBGRx: {
		Name:      "BGRx",
		Program:   ProgramSpec{Variant: VariantReorder, Channels: "bgr"},
		Layout:    packedLayout(PlaneRGBA),
		FrameSize: packedSize(4),
	},
	FormatARGB: {
		Name:      "ARGB",
		Program:   ProgramSpec{Variant: VariantReorder, Channels: "gba"},
		Layout:    packedLayout(PlaneRGBA),
		FrameSize: packedSize(4),
	},
	FormatXRGB: {
		Name:      "xRGB",
		Program:   ProgramSpec{Variant: VariantReorder, Channels: "gba"},
		Layout:    packedLayout(PlaneRGBA),
		FrameSize: packedSize(4),
	},
	FormatABGR: {
		Name:      "ABGR",
		Program:   ProgramSpec{Variant: VariantReorder, Channels: "abg"},
		Layout:    packedLayout(PlaneRGBA),
		FrameSize: packedSize(4),
	},
	FormatXBGR: {
		Name:      "xBGR",
		Program:   ProgramSpec{Variant: VariantReorder, Channels: "abg"},
		Layout:    packedLayout(PlaneRGBA),
		FrameSize: packedSize(4),
	},
	FormatRGB: {
		Name:      "RGB",
		Program:   ProgramSpec{Variant: VariantCopy},
		Layout:    packedLayout(PlaneRGB),
		FrameSize: packedSize(3),
	},
	FormatBGR: {
		Name:      "BGR",
		Program:   ProgramSpec{Variant: VariantReorder, Channels: "bgr"},
		Layout:    packedLayout(PlaneRGB),
		FrameSize: packedSize(3),
	},
	FormatRGB16: {
		Name:      "RGB16",
		Program:   ProgramSpec{Variant: VariantCopy},
		Layout:    packedLayout(PlaneRGB565),
		FrameSize: packedSize(2),
	},
	FormatAYUV: {
		Name:      "AYUV",
		Program:   ProgramSpec{Variant: VariantAYUV},
		Layout:    packedLayout(PlaneRGBA),
		FrameSize: packedSize(4),
	},
	FormatYUY2: {
		Name:      "YUY2",
		Program:   ProgramSpec{Variant: VariantPackedYUV, Channels: "rga"},
		Layout:    packed422Layout,
		FrameSize: packed422Size,
	},
	FormatYVYU: {
		Name:      "YVYU",
		Program:   ProgramSpec{Variant: VariantPackedYUV, Channels: "rag"},
		Layout:    packed422Layout,
		FrameSize: packed422Size,
	},
	FormatUYVY: {
		Name:      "UYVY",
		Program:   ProgramSpec{Variant: VariantPackedYUV, Channels: "arb"},
		Layout:    packed422Layout,
		FrameSize: packed422Size,
	},
	FormatI420: {
		Name:      "I420",
		Program:   ProgramSpec{Variant: VariantPlanarYUV},
		Layout:    planarLayout(2, 2, false),
		FrameSize: planarSize(2, 2),
	},
	FormatYV12: {
		Name:      "YV12",
		Program:   ProgramSpec{Variant: VariantPlanarYUV},
		Layout:    planarLayout(2, 2, true),
		FrameSize: planarSize(2, 2),
	},
	FormatY444: {
		Name:      "Y444",
		Program:   ProgramSpec{Variant: VariantPlanarYUV},
		Layout:    planarLayout(1, 1, false),
		FrameSize: planarSize(1, 1),
	},
	FormatY42B: {
		Name:      "Y42B",
		Program:   ProgramSpec{Variant: VariantPlanarYUV},
		Layout:    planarLayout(2, 1, false),
		FrameSize: planarSize(2, 1),
	},
	FormatY41B: {
		Name:    "Y41B",
		Program: ProgramSpec{Variant: VariantPlanarYUV},
		Layout: func(w, h int) []Plane {
			qw := quarterUp(w)
			return []Plane{
				{Format: PlaneLuminance, Width: w, Height: h, Offset: 0},
				{Format: PlaneLuminance, Width: qw, Height: h, Offset: w * h},
				{Format: PlaneLuminance, Width: qw, Height: h, Offset: w*h + qw*h},
			}
		},
		FrameSize: func(w, h int) int { return w*h + 2*quarterUp(w)*h },
	},
	FormatNV12: {
		Name:      "NV12",
		Program:   ProgramSpec{Variant: VariantSemiPlanarYUV, Channels: "ra"},
		Layout:    semiPlanarLayout,
		FrameSize: semiPlanarSize,
	},
	FormatNV21: {
		Name:      "NV21",
		Program:   ProgramSpec{Variant: VariantSemiPlanarYUV, Channels: "ar"},
		Layout:    semiPlanarLayout,
		FrameSize: semiPlanarSize,
	},
}

// order lists the formats in advertisement order: 4-byte packed RGB first,
// then 3- and 2-byte RGB, then the YUV families.
var order = []Format{
	FormatRGBA, FormatBGRA, FormatARGB, FormatABGR,
	FormatRGBx, FormatBGRx, FormatXRGB, FormatXBGR,
	FormatRGB, FormatBGR, FormatRGB16,
	FormatAYUV, FormatYUY2, FormatYVYU, FormatUYVY,
	FormatI420, FormatYV12, FormatY444, FormatY42B, FormatY41B,
	FormatNV12, FormatNV21,
}
