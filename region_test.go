// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vidsink

import "testing"

func TestComputeRegionLetterbox(t *testing.T) {
	tests := []struct {
		name                   string
		fw, fh                 int
		parN, parD             int
		dparN, dparD           int
		sw, sh                 int
		respect                bool
		override               *Region
		want                   Region
	}{
		{
			// Pillarbox: 4:3 frame on a wide surface keeps full height.
			name: "pillarbox 640x480 on 800x480",
			fw:   640, fh: 480, parN: 1, parD: 1, dparN: 1, dparD: 1,
			sw: 800, sh: 480, respect: true,
			want: Region{X: 80, Y: 0, W: 640, H: 480},
		},
		{
			name: "exact fit",
			fw:   640, fh: 480, parN: 1, parD: 1, dparN: 1, dparD: 1,
			sw: 640, sh: 480, respect: true,
			want: Region{X: 0, Y: 0, W: 640, H: 480},
		},
		{
			// Anamorphic source: 720x576 with 16/15 pixels is 4:3.
			name: "anamorphic PAL",
			fw:   720, fh: 576, parN: 16, parD: 15, dparN: 1, dparD: 1,
			sw: 768, sh: 576, respect: true,
			want: Region{X: 0, Y: 0, W: 768, H: 576},
		},
		{
			name: "aspect disabled fills surface",
			fw:   640, fh: 480, parN: 1, parD: 1, dparN: 1, dparD: 1,
			sw: 800, sh: 600, respect: false,
			want: Region{X: 0, Y: 0, W: 800, H: 600},
		},
		{
			name: "override wins",
			fw:   640, fh: 480, parN: 1, parD: 1, dparN: 1, dparD: 1,
			sw: 800, sh: 600, respect: true,
			override: &Region{X: 10, Y: 20, W: 100, H: 50},
			want:     Region{X: 10, Y: 20, W: 100, H: 50},
		},
		{
			// The clear sentinel behaves like no override at all.
			name: "clear sentinel ignored",
			fw:   640, fh: 480, parN: 1, parD: 1, dparN: 1, dparD: 1,
			sw: 800, sh: 480, respect: true,
			override: &Region{X: -1, Y: -1, W: -1, H: -1},
			want:     Region{X: 80, Y: 0, W: 640, H: 480},
		},
		{
			// An oversized override keeps the caller's scale; the backend
			// crops off-surface parts at draw time.
			name: "oversized override returned verbatim",
			fw:   640, fh: 480, parN: 1, parD: 1, dparN: 1, dparD: 1,
			sw: 320, sh: 240, respect: true,
			override: &Region{X: 300, Y: 0, W: 100, H: 300},
			want:     Region{X: 300, Y: 0, W: 100, H: 300},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRegion(tt.fw, tt.fh, tt.parN, tt.parD,
				tt.dparN, tt.dparD, tt.sw, tt.sh, tt.respect, tt.override)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeRegionIdempotentAndBounded(t *testing.T) {
	cases := []struct {
		fw, fh, sw, sh int
		parN, parD     int
	}{
		{640, 480, 800, 480, 1, 1},
		{640, 480, 1920, 1080, 1, 1},
		{720, 576, 1024, 576, 16, 15},
		{123, 77, 200, 200, 3, 2},
		{1920, 1080, 640, 480, 1, 1},
	}
	for _, c := range cases {
		a := ComputeRegion(c.fw, c.fh, c.parN, c.parD, 1, 1, c.sw, c.sh, true, nil)
		b := ComputeRegion(c.fw, c.fh, c.parN, c.parD, 1, 1, c.sw, c.sh, true, nil)
		if a != b {
			t.Errorf("%dx%d on %dx%d: not deterministic: %+v vs %+v", c.fw, c.fh, c.sw, c.sh, a, b)
		}
		if a.X < 0 || a.Y < 0 || a.X+a.W > c.sw || a.Y+a.H > c.sh {
			t.Errorf("%dx%d on %dx%d: region %+v exceeds surface", c.fw, c.fh, c.sw, c.sh, a)
		}
	}
}

func TestComputeRegionTieBreakPrefersHeight(t *testing.T) {
	// 4:3 at 640x480: height 480 divides darDen 3 evenly, so the
	// height-preserving branch must be chosen even though the
	// width-preserving branch would also be exact.
	got := ComputeRegion(640, 480, 1, 1, 1, 1, 4000, 480, true, nil)
	if got.H != 480 || got.W != 640 {
		t.Errorf("got %+v, want height-preserved 640x480", got)
	}
}

func TestSanitizeDisplayPAR(t *testing.T) {
	tests := []struct {
		n, d       int
		known      bool
		wantN, wantD int
	}{
		{1, 1, true, 1, 1},
		{16, 15, true, 16, 15},
		{0, 1, true, 1, 1},
		{1, 0, true, 1, 1},
		{1, 1, false, 1, 1},
		{100, 1, true, 1, 1},  // ratio 100 is implausible
		{1, 100, true, 1, 1},  // ratio 1/100 is implausible
		{10, 1, true, 10, 1},  // exactly at the bound is accepted
		{1, 10, true, 1, 10},
	}
	for _, tt := range tests {
		n, d := sanitizeDisplayPAR(tt.n, tt.d, tt.known)
		if n != tt.wantN || d != tt.wantD {
			t.Errorf("sanitizeDisplayPAR(%d, %d, %v) = %d/%d, want %d/%d",
				tt.n, tt.d, tt.known, n, d, tt.wantN, tt.wantD)
		}
	}
}
