// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package software provides a pure-CPU presentation backend. Frames are
// color-converted on the CPU and scaled into an in-memory RGBA
// framebuffer with golang.org/x/image/draw.
//
// The backend registers itself as "software" at priority 10, below GPU
// backends. It doubles as the reference implementation for the
// conversion programs: every shader variant has a CPU twin here, and
// the framebuffer can be read back for pixel-exact verification.
package software

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"

	"github.com/gogpu/vidsink/backend"
	"github.com/gogpu/vidsink/pixel"
)

func init() {
	backend.Register("software", 10, func() (backend.Device, error) {
		return NewDevice(), nil
	}, nil)
}

// Backend errors.
var (
	ErrNotOpen       = errors.New("software: device not open")
	ErrNoSurface     = errors.New("software: no surface")
	ErrBadWindowType = errors.New("software: native window is not a *software.Window")
)

// Window is the native window type of the software backend: a mutex-guarded
// RGBA framebuffer. Windows are created through the device's WindowProvider
// implementation or directly with NewWindow.
type Window struct {
	mu    sync.Mutex
	w, h  int
	front *image.RGBA
}

// NewWindow creates a window with a black framebuffer of the given size.
func NewWindow(w, h int) *Window {
	return &Window{w: w, h: h, front: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Size returns the current window dimensions.
func (w *Window) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w, w.h
}

// Resize changes the window size. The framebuffer is replaced at the next
// swap; until then Framebuffer still returns the last presented image.
func (w *Window) Resize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.w, w.h = width, height
}

// Framebuffer returns a copy of the last presented image.
func (w *Window) Framebuffer() *image.RGBA {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := image.NewRGBA(w.front.Bounds())
	copy(out.Pix, w.front.Pix)
	return out
}

func (w *Window) present(back *image.RGBA) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.front = back
}

type softConfig struct {
	tmpl backend.ConfigTemplate
}

type softProgram struct {
	spec pixel.ProgramSpec
}

type softTexture struct {
	format pixel.PlaneFormat
	w, h   int
	data   []byte
}

// Device is the software implementation of backend.Device. It also
// implements backend.WindowProvider.
type Device struct {
	mu sync.Mutex

	open     bool
	attached bool
	win      *Window
	back     *image.RGBA
}

// NewDevice creates an unopened software device.
func NewDevice() *Device {
	return &Device{}
}

var _ backend.Device = (*Device)(nil)
var _ backend.WindowProvider = (*Device)(nil)

// Name implements backend.Device.
func (d *Device) Name() string { return "software" }

// Open implements backend.Device. It cannot fail: the CPU is always there.
func (d *Device) Open() (backend.Version, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	return backend.Version{Major: 1, Minor: 4}, nil
}

// Close implements backend.Device.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	d.win = nil
	d.back = nil
}

// ProbeConfig implements backend.Device. Every channel layout is
// satisfiable in software; the template is echoed back as the token.
func (d *Device) ProbeConfig(tmpl backend.ConfigTemplate) (backend.Config, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return nil, ErrNotOpen
	}
	return &softConfig{tmpl: tmpl}, nil
}

// CreateContext implements backend.Device. The software rasterizer has no
// context state beyond the device itself.
func (d *Device) CreateContext(cfg backend.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return ErrNotOpen
	}
	return nil
}

// DestroyContext implements backend.Device.
func (d *Device) DestroyContext() {}

// CreateWindowSurface implements backend.Device. The back buffer keeps its
// contents across swaps, so the surface reports preserved buffers and the
// sink need not repaint borders every frame.
func (d *Device) CreateWindowSurface(cfg backend.Config, win backend.NativeWindow) (backend.SurfaceInfo, error) {
	sw, ok := win.(*Window)
	if !ok {
		return backend.SurfaceInfo{}, ErrBadWindowType
	}
	w, h := sw.Size()

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return backend.SurfaceInfo{}, ErrNotOpen
	}
	d.win = sw
	d.back = image.NewRGBA(image.Rect(0, 0, w, h))
	return backend.SurfaceInfo{
		Width:           w,
		Height:          h,
		BufferPreserved: true,
	}, nil
}

// DestroySurface implements backend.Device.
func (d *Device) DestroySurface() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.win = nil
	d.back = nil
}

// AttachCurrentThread implements backend.Device. There is no thread-bound
// state, only bookkeeping.
func (d *Device) AttachCurrentThread() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attached = true
	return nil
}

// DetachCurrentThread implements backend.Device.
func (d *Device) DetachCurrentThread() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attached = false
}

// SurfaceSize implements backend.Device. A window resize takes effect
// here: the back buffer is reallocated to the new size.
func (d *Device) SurfaceSize() (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.win == nil {
		return 0, 0, ErrNoSurface
	}
	w, h := d.win.Size()
	if b := d.back.Bounds(); b.Dx() != w || b.Dy() != h {
		d.back = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return w, h, nil
}

// CompileProgram implements backend.Device. Compilation only validates the
// channel selectors; the conversion itself runs at draw time.
func (d *Device) CompileProgram(spec pixel.ProgramSpec) (backend.Program, error) {
	var want int
	switch spec.Variant {
	case pixel.VariantCopy, pixel.VariantAYUV, pixel.VariantPlanarYUV, pixel.VariantFill:
		want = 0
	case pixel.VariantReorder, pixel.VariantPackedYUV:
		want = 3
	case pixel.VariantSemiPlanarYUV:
		want = 2
	default:
		return nil, fmt.Errorf("software: unknown program variant %d", spec.Variant)
	}
	if len(spec.Channels) != want {
		return nil, fmt.Errorf("software: variant %d needs %d channel selectors, got %q",
			spec.Variant, want, spec.Channels)
	}
	for _, c := range spec.Channels {
		switch c {
		case 'r', 'g', 'b', 'a':
		default:
			return nil, fmt.Errorf("software: bad channel selector %q", spec.Channels)
		}
	}
	return &softProgram{spec: spec}, nil
}

// DestroyProgram implements backend.Device.
func (d *Device) DestroyProgram(p backend.Program) {}

// CreateTexture implements backend.Device.
func (d *Device) CreateTexture(format pixel.PlaneFormat, w, h int) (backend.Texture, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("software: bad texture size %dx%d", w, h)
	}
	return &softTexture{
		format: format,
		w:      w,
		h:      h,
		data:   make([]byte, w*h*format.BytesPerTexel()),
	}, nil
}

// DestroyTexture implements backend.Device.
func (d *Device) DestroyTexture(t backend.Texture) {}

// UploadTexture implements backend.Device.
func (d *Device) UploadTexture(t backend.Texture, plane backend.PlaneUpload) error {
	tex, ok := t.(*softTexture)
	if !ok {
		return errors.New("software: foreign texture handle")
	}
	if plane.Width != tex.w || plane.Height != tex.h || plane.Format != tex.format {
		return fmt.Errorf("software: upload %dx%d/%d into texture %dx%d/%d",
			plane.Width, plane.Height, plane.Format, tex.w, tex.h, tex.format)
	}
	if len(plane.Data) < len(tex.data) {
		return fmt.Errorf("software: upload carries %d bytes, texture needs %d",
			len(plane.Data), len(tex.data))
	}
	copy(tex.data, plane.Data)
	return nil
}

// DrawQuad implements backend.Device. The quad's device coordinates are
// mapped back to a pixel rectangle; the fill program paints it black,
// texture programs convert the planes to RGB and scale-blit into it.
func (d *Device) DrawQuad(p backend.Program, verts [4]backend.Vertex, texs []backend.Texture) error {
	prog, ok := p.(*softProgram)
	if !ok {
		return errors.New("software: foreign program handle")
	}

	d.mu.Lock()
	back := d.back
	d.mu.Unlock()
	if back == nil {
		return ErrNoSurface
	}
	rect := quadRect(verts, back.Bounds().Dx(), back.Bounds().Dy())
	if rect.Empty() {
		return nil
	}

	if prog.spec.Variant == pixel.VariantFill {
		draw.Draw(back, rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
		return nil
	}

	src, err := convert(prog.spec, texs)
	if err != nil {
		return err
	}
	draw.ApproxBiLinear.Scale(back, rect, src, src.Bounds(), draw.Src, nil)
	return nil
}

// Swap implements backend.Device: the back buffer becomes the window's
// front buffer and a fresh back buffer of the same contents replaces it.
func (d *Device) Swap() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.win == nil || d.back == nil {
		return ErrNoSurface
	}
	next := image.NewRGBA(d.back.Bounds())
	copy(next.Pix, d.back.Pix)
	d.win.present(d.back)
	d.back = next
	return nil
}

// CreateWindow implements backend.WindowProvider.
func (d *Device) CreateWindow(width, height int) (backend.NativeWindow, error) {
	return NewWindow(width, height), nil
}

// DestroyWindow implements backend.WindowProvider.
func (d *Device) DestroyWindow(win backend.NativeWindow) {}

// quadRect maps device-coordinate corners back to a pixel rectangle.
// Vertices are ordered top-left, top-right, bottom-left, bottom-right;
// device Y points up while image Y points down.
func quadRect(v [4]backend.Vertex, w, h int) image.Rectangle {
	toX := func(x float32) int { return int((x+1)/2*float32(w) + 0.5) }
	toY := func(y float32) int { return int((1-y)/2*float32(h) + 0.5) }
	return image.Rect(toX(v[0].X), toY(v[0].Y), toX(v[1].X), toY(v[2].Y))
}
