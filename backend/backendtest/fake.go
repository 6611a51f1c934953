// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package backendtest provides a scriptable in-memory backend.Device for
// testing sinks without a GPU or a window system. Error injection fields
// may be set before use; recorded state is read back through accessor
// methods, which are safe to call while a render thread is driving the
// device.
package backendtest

import (
	"errors"
	"sync"

	"github.com/gogpu/vidsink/backend"
	"github.com/gogpu/vidsink/pixel"
)

// ErrScripted is the default error returned by injected failures.
var ErrScripted = errors.New("backendtest: scripted failure")

// Window is the fake native window type.
type Window struct {
	Width  int
	Height int
}

// DrawCall records one DrawQuad invocation.
type DrawCall struct {
	Spec     pixel.ProgramSpec
	Verts    [4]backend.Vertex
	Textures int
}

type fakeConfig struct {
	tmpl backend.ConfigTemplate
}

type fakeProgram struct {
	spec pixel.ProgramSpec
}

type fakeTexture struct {
	format pixel.PlaneFormat
	w, h   int
}

// Device is a scriptable backend.Device. The zero value is not usable;
// call New.
type Device struct {
	mu sync.Mutex

	// Error injection. Set before the device is used.
	OpenErr    error
	ContextErr error
	SurfaceErr error
	CompileErr error
	TextureErr error
	UploadErr  error
	DrawErr    error
	SwapErr    error

	// RejectTemplate filters ProbeConfig: return true to report the
	// template unsatisfiable. Nil accepts everything.
	RejectTemplate func(backend.ConfigTemplate) bool

	// SwapGate, when non-nil, makes Swap block until a value is received
	// from the channel. Tests use it to stall the render thread at a
	// known point.
	SwapGate chan struct{}

	// OpenVersion is reported by Open. Defaults to 1.5.
	OpenVersion backend.Version

	// Surface properties. Zero SurfaceWidth/Height adopt the native
	// window's size.
	SurfaceWidth    int
	SurfaceHeight   int
	BufferPreserved bool
	PARNum, PARDen  int
	PARKnown        bool

	opened   bool
	closed   bool
	attached bool

	contexts int
	surfaces int
	programs int
	textures int

	curW, curH int

	compiled []pixel.ProgramSpec
	uploads  []backend.PlaneUpload
	draws    []DrawCall
	windows  []*Window
	swaps    int
}

// New returns a fake device with sane defaults.
func New() *Device {
	return &Device{
		OpenVersion: backend.Version{Major: 1, Minor: 5},
	}
}

var _ backend.Device = (*Device)(nil)
var _ backend.WindowProvider = (*Device)(nil)

// Name implements backend.Device.
func (d *Device) Name() string { return "fake" }

// Open implements backend.Device.
func (d *Device) Open() (backend.Version, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.OpenErr != nil {
		return backend.Version{}, d.OpenErr
	}
	d.opened = true
	return d.OpenVersion, nil
}

// Close implements backend.Device.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

// ProbeConfig implements backend.Device.
func (d *Device) ProbeConfig(tmpl backend.ConfigTemplate) (backend.Config, error) {
	d.mu.Lock()
	reject := d.RejectTemplate
	d.mu.Unlock()
	if reject != nil && reject(tmpl) {
		return nil, errors.New("backendtest: no matching config")
	}
	return &fakeConfig{tmpl: tmpl}, nil
}

// CreateContext implements backend.Device.
func (d *Device) CreateContext(cfg backend.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ContextErr != nil {
		return d.ContextErr
	}
	d.contexts++
	return nil
}

// DestroyContext implements backend.Device.
func (d *Device) DestroyContext() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.contexts > 0 {
		d.contexts--
	}
}

// CreateWindowSurface implements backend.Device.
func (d *Device) CreateWindowSurface(cfg backend.Config, win backend.NativeWindow) (backend.SurfaceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SurfaceErr != nil {
		return backend.SurfaceInfo{}, d.SurfaceErr
	}
	w, h := d.SurfaceWidth, d.SurfaceHeight
	if w == 0 || h == 0 {
		if fw, ok := win.(*Window); ok {
			w, h = fw.Width, fw.Height
		} else {
			w, h = 640, 480
		}
	}
	d.surfaces++
	d.curW, d.curH = w, h
	return backend.SurfaceInfo{
		Width:           w,
		Height:          h,
		BufferPreserved: d.BufferPreserved,
		PARNum:          d.PARNum,
		PARDen:          d.PARDen,
		PARKnown:        d.PARKnown,
	}, nil
}

// DestroySurface implements backend.Device.
func (d *Device) DestroySurface() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.surfaces > 0 {
		d.surfaces--
	}
}

// AttachCurrentThread implements backend.Device.
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

// SurfaceSize implements backend.Device.
func (d *Device) SurfaceSize() (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.curW, d.curH, nil
}

// Resize changes the reported surface size, simulating a window resize.
func (d *Device) Resize(w, h int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.curW, d.curH = w, h
}

// CompileProgram implements backend.Device.
func (d *Device) CompileProgram(spec pixel.ProgramSpec) (backend.Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.CompileErr != nil {
		return nil, d.CompileErr
	}
	d.programs++
	d.compiled = append(d.compiled, spec)
	return &fakeProgram{spec: spec}, nil
}

// DestroyProgram implements backend.Device.
func (d *Device) DestroyProgram(p backend.Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.programs > 0 {
		d.programs--
	}
}

// CreateTexture implements backend.Device.
func (d *Device) CreateTexture(format pixel.PlaneFormat, w, h int) (backend.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.TextureErr != nil {
		return nil, d.TextureErr
	}
	d.textures++
	return &fakeTexture{format: format, w: w, h: h}, nil
}

// DestroyTexture implements backend.Device.
func (d *Device) DestroyTexture(t backend.Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.textures > 0 {
		d.textures--
	}
}

// UploadTexture implements backend.Device.
func (d *Device) UploadTexture(t backend.Texture, plane backend.PlaneUpload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.UploadErr != nil {
		return d.UploadErr
	}
	d.uploads = append(d.uploads, plane)
	return nil
}

// DrawQuad implements backend.Device.
func (d *Device) DrawQuad(p backend.Program, verts [4]backend.Vertex, texs []backend.Texture) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.DrawErr != nil {
		return d.DrawErr
	}
	call := DrawCall{Verts: verts, Textures: len(texs)}
	if fp, ok := p.(*fakeProgram); ok {
		call.Spec = fp.spec
	}
	d.draws = append(d.draws, call)
	return nil
}

// Swap implements backend.Device.
func (d *Device) Swap() error {
	d.mu.Lock()
	gate := d.SwapGate
	d.mu.Unlock()
	if gate != nil {
		<-gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SwapErr != nil {
		return d.SwapErr
	}
	d.swaps++
	return nil
}

// CreateWindow implements backend.WindowProvider.
func (d *Device) CreateWindow(width, height int) (backend.NativeWindow, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	win := &Window{Width: width, Height: height}
	d.windows = append(d.windows, win)
	return win, nil
}

// DestroyWindow implements backend.WindowProvider.
func (d *Device) DestroyWindow(win backend.NativeWindow) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, w := range d.windows {
		if w == win {
			d.windows = append(d.windows[:i], d.windows[i+1:]...)
			return
		}
	}
}

// Recorded state accessors.

// Opened reports whether Open succeeded.
func (d *Device) Opened() bool { d.mu.Lock(); defer d.mu.Unlock(); return d.opened }

// Closed reports whether Close was called.
func (d *Device) Closed() bool { d.mu.Lock(); defer d.mu.Unlock(); return d.closed }

// Attached reports whether a thread currently holds the context.
func (d *Device) Attached() bool { d.mu.Lock(); defer d.mu.Unlock(); return d.attached }

// LiveContexts returns the number of undestroyed contexts.
func (d *Device) LiveContexts() int { d.mu.Lock(); defer d.mu.Unlock(); return d.contexts }

// LiveSurfaces returns the number of undestroyed surfaces.
func (d *Device) LiveSurfaces() int { d.mu.Lock(); defer d.mu.Unlock(); return d.surfaces }

// LivePrograms returns the number of undestroyed programs.
func (d *Device) LivePrograms() int { d.mu.Lock(); defer d.mu.Unlock(); return d.programs }

// LiveTextures returns the number of undestroyed textures.
func (d *Device) LiveTextures() int { d.mu.Lock(); defer d.mu.Unlock(); return d.textures }

// Swaps returns the number of completed buffer swaps.
func (d *Device) Swaps() int { d.mu.Lock(); defer d.mu.Unlock(); return d.swaps }

// Compiled returns the program specs compiled so far, in order.
func (d *Device) Compiled() []pixel.ProgramSpec {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]pixel.ProgramSpec, len(d.compiled))
	copy(out, d.compiled)
	return out
}

// Uploads returns the recorded plane uploads, in order.
func (d *Device) Uploads() []backend.PlaneUpload {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]backend.PlaneUpload, len(d.uploads))
	copy(out, d.uploads)
	return out
}

// Draws returns the recorded draw calls, in order.
func (d *Device) Draws() []DrawCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DrawCall, len(d.draws))
	copy(out, d.draws)
	return out
}

// Windows returns the windows created through the provider and not yet
// destroyed.
func (d *Device) Windows() []*Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Window, len(d.windows))
	copy(out, d.windows)
	return out
}
