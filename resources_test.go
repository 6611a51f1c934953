// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vidsink

import (
	"testing"

	"github.com/gogpu/vidsink/backend/backendtest"
	"github.com/gogpu/vidsink/pixel"
)

func buildTestResources(t *testing.T, dev *backendtest.Device, d pixel.Descriptor) *renderResources {
	t.Helper()
	cat, err := probeCatalog(dev)
	if err != nil {
		t.Fatalf("probeCatalog: %v", err)
	}
	res := newRenderResources(dev)
	res.displayReady()

	entry := cat.Match(d.Format)
	if entry == nil {
		t.Fatalf("no catalog entry for %v", d.Format)
	}
	if err := res.chooseConfig(entry); err != nil {
		t.Fatalf("chooseConfig: %v", err)
	}
	win, err := dev.CreateWindow(d.Width, d.Height)
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	if err := res.createSurface(win); err != nil {
		t.Fatalf("createSurface: %v", err)
	}
	if err := res.buildResources(d); err != nil {
		t.Fatalf("buildResources: %v", err)
	}
	return res
}

func TestResourceBuildAndTeardown(t *testing.T) {
	dev := backendtest.New()
	d := pixel.Descriptor{Format: pixel.FormatI420, Width: 640, Height: 480, PARNum: 1, PARDen: 1}
	res := buildTestResources(t, dev, d)

	if res.state != stateResourcesBuilt {
		t.Errorf("state %v, want resources-built", res.state)
	}
	if got := dev.LiveTextures(); got != 3 {
		t.Errorf("%d live textures for I420, want 3", got)
	}
	// Border program compiled because the fake does not preserve buffers.
	if got := dev.LivePrograms(); got != 2 {
		t.Errorf("%d live programs, want video + border", got)
	}
	if !dev.Attached() {
		t.Error("context not attached after createSurface")
	}

	res.teardown()
	if res.state != stateDisplayReady {
		t.Errorf("state after teardown %v, want display-ready", res.state)
	}
	if dev.LiveTextures() != 0 || dev.LivePrograms() != 0 {
		t.Errorf("leak: %d textures, %d programs", dev.LiveTextures(), dev.LivePrograms())
	}
	if dev.LiveSurfaces() != 0 || dev.LiveContexts() != 0 {
		t.Errorf("leak: %d surfaces, %d contexts", dev.LiveSurfaces(), dev.LiveContexts())
	}
	if dev.Attached() {
		t.Error("context still attached after teardown")
	}

	// Teardown is idempotent.
	res.teardown()
	if res.teardowns != 1 {
		t.Errorf("teardowns = %d after no-op repeat, want 1", res.teardowns)
	}
}

func TestBorderProgramSkippedWhenPreserved(t *testing.T) {
	dev := backendtest.New()
	dev.BufferPreserved = true
	d := pixel.Descriptor{Format: pixel.FormatRGBA, Width: 64, Height: 64, PARNum: 1, PARDen: 1}
	res := buildTestResources(t, dev, d)
	defer res.teardown()

	if res.borderProg != nil {
		t.Error("border program compiled despite preserved buffer")
	}
	if got := dev.LivePrograms(); got != 1 {
		t.Errorf("%d live programs, want 1", got)
	}
}

func TestBuildFailsOnCompileError(t *testing.T) {
	dev := backendtest.New()
	cat, err := probeCatalog(dev)
	if err != nil {
		t.Fatalf("probeCatalog: %v", err)
	}
	res := newRenderResources(dev)
	res.displayReady()
	if err := res.chooseConfig(cat.Match(pixel.FormatRGBA)); err != nil {
		t.Fatalf("chooseConfig: %v", err)
	}
	win, _ := dev.CreateWindow(64, 64)
	if err := res.createSurface(win); err != nil {
		t.Fatalf("createSurface: %v", err)
	}

	dev.CompileErr = backendtest.ErrScripted
	d := pixel.Descriptor{Format: pixel.FormatRGBA, Width: 64, Height: 64, PARNum: 1, PARDen: 1}
	if err := res.buildResources(d); err == nil {
		t.Fatal("buildResources succeeded despite compile error")
	}
	if res.builds != 0 {
		t.Errorf("builds = %d after failure, want 0", res.builds)
	}
	res.teardown()
	if dev.LivePrograms() != 0 {
		t.Errorf("program leak after failed build: %d", dev.LivePrograms())
	}
}

func TestUploadFrameMatchesPlaneLayout(t *testing.T) {
	dev := backendtest.New()
	d := pixel.Descriptor{Format: pixel.FormatNV12, Width: 640, Height: 480, PARNum: 1, PARDen: 1}
	res := buildTestResources(t, dev, d)
	defer res.teardown()

	fr, err := pixel.NewFrame(pixel.FormatNV12, 640, 480)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	if err := res.uploadFrame(fr); err != nil {
		t.Fatalf("uploadFrame: %v", err)
	}

	uploads := dev.Uploads()
	if len(uploads) != 2 {
		t.Fatalf("%d uploads, want 2", len(uploads))
	}
	if uploads[0].Format != pixel.PlaneLuminance || uploads[0].Width != 640 || uploads[0].Height != 480 {
		t.Errorf("luma upload %+v", uploads[0])
	}
	if uploads[1].Format != pixel.PlaneLuminanceAlpha || uploads[1].Width != 320 || uploads[1].Height != 240 {
		t.Errorf("chroma upload %+v", uploads[1])
	}
	if len(uploads[1].Data) != 320*240*2 {
		t.Errorf("chroma upload carries %d bytes, want %d", len(uploads[1].Data), 320*240*2)
	}
}

func TestQuadVertices(t *testing.T) {
	// Full surface maps to the full device coordinate square.
	v := quadVertices(Region{X: 0, Y: 0, W: 640, H: 480}, 640, 480)
	if v[0].X != -1 || v[0].Y != 1 || v[3].X != 1 || v[3].Y != -1 {
		t.Errorf("full-surface quad corners wrong: %+v", v)
	}
	if v[0].U != 0 || v[0].V != 0 || v[3].U != 1 || v[3].V != 1 {
		t.Errorf("texture coordinates wrong: %+v", v)
	}

	// A centered pillarbox region keeps Y at full range.
	v = quadVertices(Region{X: 80, Y: 0, W: 640, H: 480}, 800, 480)
	if v[0].Y != 1 || v[2].Y != -1 {
		t.Errorf("pillarbox quad vertical range wrong: %+v", v)
	}
	if v[0].X >= v[1].X {
		t.Errorf("pillarbox quad horizontal order wrong: %+v", v)
	}
}

func TestBorderQuadSelection(t *testing.T) {
	// Pillarbox: region centered horizontally, x > 0, borders left/right.
	quads := borderQuads(Region{X: 80, Y: 0, W: 640, H: 480}, 800, 480)
	if len(quads) != 2 {
		t.Fatalf("%d border quads, want 2", len(quads))
	}
	// Left border spans from the surface edge to the region edge.
	if quads[0][0].X != -1 {
		t.Errorf("left border does not start at surface edge: %+v", quads[0])
	}

	// Letterbox: region touches the left edge, borders top/bottom.
	quads = borderQuads(Region{X: 0, Y: 60, W: 640, H: 360}, 640, 480)
	if len(quads) != 2 {
		t.Fatalf("%d border quads, want 2", len(quads))
	}
	if quads[0][0].Y != 1 {
		t.Errorf("top border does not start at surface edge: %+v", quads[0])
	}

	// Exact fit needs no borders.
	quads = borderQuads(Region{X: 0, Y: 0, W: 640, H: 480}, 640, 480)
	if len(quads) != 0 {
		t.Errorf("%d border quads for exact fit, want 0", len(quads))
	}
}

func TestDrawFrameOrder(t *testing.T) {
	dev := backendtest.New()
	d := pixel.Descriptor{Format: pixel.FormatRGBA, Width: 640, Height: 480, PARNum: 1, PARDen: 1}
	res := buildTestResources(t, dev, d)
	defer res.teardown()

	// Surface 800x480 with a centered 640-wide region: two borders then
	// the video quad, then one swap.
	dev.Resize(800, 480)
	if _, err := res.refreshSurfaceSize(); err != nil {
		t.Fatalf("refreshSurfaceSize: %v", err)
	}
	if err := res.drawFrame(Region{X: 80, Y: 0, W: 640, H: 480}); err != nil {
		t.Fatalf("drawFrame: %v", err)
	}

	draws := dev.Draws()
	if len(draws) != 3 {
		t.Fatalf("%d draws, want 2 borders + video", len(draws))
	}
	if draws[0].Spec.Variant != pixel.VariantFill || draws[1].Spec.Variant != pixel.VariantFill {
		t.Error("borders not drawn first with the fill program")
	}
	if draws[2].Spec.Variant != pixel.VariantCopy || draws[2].Textures != 1 {
		t.Errorf("video draw wrong: %+v", draws[2])
	}
	if dev.Swaps() != 1 {
		t.Errorf("%d swaps, want 1", dev.Swaps())
	}
}
