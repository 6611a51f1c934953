// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package backend defines the graphics capability a video sink presents
// through: display/context/surface lifecycle, conversion program
// compilation, plane uploads, quad draws and buffer swaps.
//
// The sink never talks to a graphics API directly; it drives a Device.
// Concrete devices register themselves with the package registry so a sink
// can auto-select the best available one (see backend/wgpu and
// backend/software).
package backend

import "github.com/gogpu/vidsink/pixel"

// NativeWindow is an opaque native window identifier. Its concrete type
// belongs to the Device (and WindowProvider) that understands it.
type NativeWindow interface{}

// Config is an opaque framebuffer configuration token returned by
// Device.ProbeConfig and accepted back by CreateContext and
// CreateWindowSurface.
type Config interface{}

// Program is an opaque handle to a compiled conversion program.
type Program interface{}

// Texture is an opaque handle to one allocated texture plane.
type Texture interface{}

// Version is the backend protocol version reported at open time.
type Version struct {
	Major int
	Minor int
}

// ConfigTemplate describes the channel depths a framebuffer configuration
// must provide. Probing happens in priority order: 8888, 888, 565.
type ConfigTemplate struct {
	RedBits   int
	GreenBits int
	BlueBits  int
	AlphaBits int
}

// SurfaceInfo describes a freshly created window surface.
type SurfaceInfo struct {
	Width  int
	Height int

	// BufferPreserved reports whether the color buffer survives a swap.
	// When false the sink redraws border regions every frame.
	BufferPreserved bool

	// Display pixel aspect ratio as reported by the backend. PARKnown is
	// false when the backend cannot report one; the sink then assumes
	// square pixels.
	PARNum   int
	PARDen   int
	PARKnown bool
}

// Vertex is one corner of a textured quad in normalized device
// coordinates, with its texture coordinate.
type Vertex struct {
	X, Y float32
	U, V float32
}

// PlaneUpload carries the pixel data of one texture plane.
type PlaneUpload struct {
	Format pixel.PlaneFormat
	Width  int
	Height int
	Data   []byte
}

// WindowProvider creates and destroys native windows. A Device may
// implement it itself; platforms that cannot create windows leave it to
// the embedding application.
type WindowProvider interface {
	CreateWindow(width, height int) (NativeWindow, error)
	DestroyWindow(win NativeWindow)
}

// Device is the graphics capability interface. All methods except Open,
// Close and ProbeConfig are called from the sink's render thread only,
// after AttachCurrentThread has bound the rendering context to it.
type Device interface {
	// Name returns the backend identifier.
	Name() string

	// Open establishes the display connection and reports the protocol
	// version. The sink rejects versions below its minimum.
	Open() (Version, error)

	// Close releases the display connection. The device must already be
	// torn down (DestroyContext, DestroySurface).
	Close()

	// ProbeConfig reports whether a framebuffer configuration satisfying
	// the template exists, returning an opaque token for it. An
	// unsatisfiable template returns an error.
	ProbeConfig(tmpl ConfigTemplate) (Config, error)

	// CreateContext creates the rendering context for a probed config.
	CreateContext(cfg Config) error
	DestroyContext()

	// CreateWindowSurface binds an on-screen surface to a native window.
	CreateWindowSurface(cfg Config, win NativeWindow) (SurfaceInfo, error)
	DestroySurface()

	// AttachCurrentThread makes the rendering context current on the
	// calling goroutine's thread. DetachCurrentThread releases it; it
	// must be called before DestroySurface or DestroyContext.
	AttachCurrentThread() error
	DetachCurrentThread()

	// SurfaceSize re-queries the current surface dimensions, which may
	// change when the window is resized.
	SurfaceSize() (w, h int, err error)

	// CompileProgram compiles and links one conversion program.
	CompileProgram(spec pixel.ProgramSpec) (Program, error)
	DestroyProgram(p Program)

	// CreateTexture allocates one texture plane of the given layout.
	CreateTexture(format pixel.PlaneFormat, w, h int) (Texture, error)
	DestroyTexture(t Texture)

	// UploadTexture replaces the full contents of a texture plane.
	UploadTexture(t Texture, plane PlaneUpload) error

	// DrawQuad draws a textured (or, for the fill program, untextured)
	// quad. Vertices are ordered top-left, top-right, bottom-left,
	// bottom-right.
	DrawQuad(p Program, verts [4]Vertex, texs []Texture) error

	// Swap presents the back buffer.
	Swap() error
}
