// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pixel

import "testing"

func TestTableCoversAllFormats(t *testing.T) {
	for _, f := range Formats() {
		info, ok := Get(f)
		if !ok {
			t.Fatalf("format %d missing from table", int(f))
		}
		if info.Name == "" {
			t.Errorf("%v: empty name", f)
		}
		if info.Layout == nil || info.FrameSize == nil {
			t.Fatalf("%v: incomplete entry", f)
		}
		planes := info.Layout(640, 480)
		if got, want := len(planes), info.Program.TextureCount(); got != want {
			t.Errorf("%v: %d planes, program samples %d textures", f, got, want)
		}
	}
}

func TestPlaneLayouts(t *testing.T) {
	tests := []struct {
		format Format
		w, h   int
		planes []Plane
	}{
		{
			format: FormatRGBA, w: 640, h: 480,
			planes: []Plane{{PlaneRGBA, 640, 480, 0}},
		},
		{
			format: FormatRGB16, w: 320, h: 240,
			planes: []Plane{{PlaneRGB565, 320, 240, 0}},
		},
		{
			format: FormatI420, w: 640, h: 480,
			planes: []Plane{
				{PlaneLuminance, 640, 480, 0},
				{PlaneLuminance, 320, 240, 640 * 480},
				{PlaneLuminance, 320, 240, 640*480 + 320*240},
			},
		},
		{
			// YV12 stores the V plane before U.
			format: FormatYV12, w: 640, h: 480,
			planes: []Plane{
				{PlaneLuminance, 640, 480, 0},
				{PlaneLuminance, 320, 240, 640*480 + 320*240},
				{PlaneLuminance, 320, 240, 640 * 480},
			},
		},
		{
			// Odd dimensions round the chroma planes up.
			format: FormatI420, w: 641, h: 481,
			planes: []Plane{
				{PlaneLuminance, 641, 481, 0},
				{PlaneLuminance, 321, 241, 641 * 481},
				{PlaneLuminance, 321, 241, 641*481 + 321*241},
			},
		},
		{
			format: FormatY42B, w: 640, h: 480,
			planes: []Plane{
				{PlaneLuminance, 640, 480, 0},
				{PlaneLuminance, 320, 480, 640 * 480},
				{PlaneLuminance, 320, 480, 640*480 + 320*480},
			},
		},
		{
			format: FormatY41B, w: 640, h: 480,
			planes: []Plane{
				{PlaneLuminance, 640, 480, 0},
				{PlaneLuminance, 160, 480, 640 * 480},
				{PlaneLuminance, 160, 480, 640*480 + 160*480},
			},
		},
		{
			format: FormatNV12, w: 640, h: 480,
			planes: []Plane{
				{PlaneLuminance, 640, 480, 0},
				{PlaneLuminanceAlpha, 320, 240, 640 * 480},
			},
		},
		{
			format: FormatYUY2, w: 640, h: 480,
			planes: []Plane{
				{PlaneLuminanceAlpha, 640, 480, 0},
				{PlaneRGBA, 320, 480, 0},
			},
		},
	}

	for _, tt := range tests {
		info, ok := Get(tt.format)
		if !ok {
			t.Fatalf("%v: no table entry", tt.format)
		}
		got := info.Layout(tt.w, tt.h)
		if len(got) != len(tt.planes) {
			t.Errorf("%v %dx%d: got %d planes, want %d", tt.format, tt.w, tt.h, len(got), len(tt.planes))
			continue
		}
		for i, p := range got {
			if p != tt.planes[i] {
				t.Errorf("%v %dx%d plane %d: got %+v, want %+v", tt.format, tt.w, tt.h, i, p, tt.planes[i])
			}
		}
	}
}

func TestFrameSizeCoversPlanes(t *testing.T) {
	sizes := []struct{ w, h int }{{640, 480}, {641, 481}, {2, 2}, {1, 1}}
	for _, f := range Formats() {
		info, _ := Get(f)
		for _, s := range sizes {
			total := info.FrameSize(s.w, s.h)
			for i, p := range info.Layout(s.w, s.h) {
				end := p.Offset + p.Width*p.Height*p.Format.BytesPerTexel()
				if end > total {
					t.Errorf("%v %dx%d plane %d ends at %d, frame size %d",
						f, s.w, s.h, i, end, total)
				}
			}
		}
	}
}

func TestProgramSelection(t *testing.T) {
	tests := []struct {
		format   Format
		variant  Variant
		channels string
	}{
		{FormatRGBA, VariantCopy, ""},
		{FormatRGB16, VariantCopy, ""},
		{FormatBGRA, VariantReorder, "bgr"},
		{FormatARGB, VariantReorder, "gba"},
		{FormatXBGR, VariantReorder, "abg"},
		{FormatAYUV, VariantAYUV, ""},
		{FormatYUY2, VariantPackedYUV, "rga"},
		{FormatYVYU, VariantPackedYUV, "rag"},
		{FormatUYVY, VariantPackedYUV, "arb"},
		{FormatI420, VariantPlanarYUV, ""},
		{FormatNV12, VariantSemiPlanarYUV, "ra"},
		{FormatNV21, VariantSemiPlanarYUV, "ar"},
	}
	for _, tt := range tests {
		info, _ := Get(tt.format)
		if info.Program.Variant != tt.variant || info.Program.Channels != tt.channels {
			t.Errorf("%v: program %v %q, want %v %q",
				tt.format, info.Program.Variant, info.Program.Channels, tt.variant, tt.channels)
		}
	}
}

func TestNewFrame(t *testing.T) {
	fr, err := NewFrame(FormatI420, 640, 480)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	if want := 640*480 + 2*320*240; len(fr.Data) != want {
		t.Errorf("frame size %d, want %d", len(fr.Data), want)
	}
	d := fr.Descriptor()
	if d.PARNum != 1 || d.PARDen != 1 {
		t.Errorf("default PAR %d/%d, want 1/1", d.PARNum, d.PARDen)
	}

	if _, err := NewFrame(FormatUnknown, 640, 480); err == nil {
		t.Error("NewFrame with unknown format succeeded")
	}
	if _, err := NewFrame(FormatRGBA, 0, 480); err == nil {
		t.Error("NewFrame with zero width succeeded")
	}
}

func TestPlaneData(t *testing.T) {
	fr, err := NewFrame(FormatNV12, 4, 4)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	for i := range fr.Data {
		fr.Data[i] = byte(i)
	}
	planes, err := fr.Planes()
	if err != nil {
		t.Fatalf("Planes: %v", err)
	}
	luma := fr.PlaneData(planes[0])
	if len(luma) != 16 || luma[0] != 0 || luma[15] != 15 {
		t.Errorf("luma plane data wrong: len=%d", len(luma))
	}
	chroma := fr.PlaneData(planes[1])
	if len(chroma) != 8 || chroma[0] != 16 {
		t.Errorf("chroma plane data wrong: len=%d first=%d", len(chroma), chroma[0])
	}
}
