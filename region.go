// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vidsink

// Region is a destination rectangle in surface pixel coordinates.
type Region struct {
	X int
	Y int
	W int
	H int
}

// clearRegion is the sentinel accepted by SetRenderRectangle and
// ComputeRegion to drop a caller override: width and height both -1.
func (r Region) isClearSentinel() bool {
	return r.W == -1 && r.H == -1
}

func (r Region) empty() bool { return r.W <= 0 || r.H <= 0 }

// intersect clips r to the surface rectangle {0,0,sw,sh}.
func (r Region) intersect(sw, sh int) Region {
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.W, r.Y+r.H
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > sw {
		x1 = sw
	}
	if y1 > sh {
		y1 = sh
	}
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return Region{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

// sanitizeDisplayPAR normalizes a backend-reported display pixel aspect
// ratio. An unknown, non-positive or implausible ratio (outside
// [1/10, 10]) falls back to square pixels.
func sanitizeDisplayPAR(num, den int, known bool) (int, int) {
	if !known || num <= 0 || den <= 0 {
		return 1, 1
	}
	if num > den*10 || den > num*10 {
		return 1, 1
	}
	return num, den
}

// ComputeRegion computes the destination rectangle for a frame on a
// surface. It is a pure function; the sink persists the result under its
// locks.
//
// Precedence:
//   - A non-nil override that is not the clear sentinel (w == h == -1) is
//     returned verbatim. The caller has taken full control: an oversized
//     rectangle keeps the caller's scale, with off-surface parts cropped
//     at draw time.
//   - With respectAspect false the full surface is used.
//   - Otherwise the frame is letterboxed: the display aspect ratio is
//     derived from the frame size, the frame pixel aspect ratio and the
//     display pixel aspect ratio, a scaled rectangle is chosen keeping
//     height when the height divides the ratio denominator evenly (then
//     width, then height again as the default), and the rectangle is
//     centered on the surface and clipped to it.
func ComputeRegion(frameW, frameH int, framePARNum, framePARDen int,
	displayPARNum, displayPARDen int, surfaceW, surfaceH int,
	respectAspect bool, override *Region) Region {

	if override != nil && !override.isClearSentinel() {
		return *override
	}

	full := Region{X: 0, Y: 0, W: surfaceW, H: surfaceH}
	if !respectAspect {
		return full
	}
	if frameW <= 0 || frameH <= 0 || surfaceW <= 0 || surfaceH <= 0 {
		return full
	}
	if framePARNum <= 0 || framePARDen <= 0 {
		framePARNum, framePARDen = 1, 1
	}
	if displayPARNum <= 0 || displayPARDen <= 0 {
		displayPARNum, displayPARDen = 1, 1
	}

	darNum := frameW * framePARNum * displayPARDen
	darDen := frameH * framePARDen * displayPARNum
	if g := gcd(darNum, darDen); g > 1 {
		darNum /= g
		darDen /= g
	}

	var w, h int
	switch {
	case frameH%darDen == 0:
		w = frameH * darNum / darDen
		h = frameH
	case frameW%darNum == 0:
		w = frameW
		h = frameW * darDen / darNum
	default:
		w = frameH * darNum / darDen
		h = frameH
	}

	r := Region{
		X: (surfaceW - w) / 2,
		Y: (surfaceH - h) / 2,
		W: w,
		H: h,
	}
	return r.intersect(surfaceW, surfaceH)
}
