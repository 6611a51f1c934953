// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gpucontext"
)

// Presentation errors.
var (
	// ErrInvalidDrawContext is returned when the draw context's texture
	// creator produces something that is not a gpucontext.Texture.
	ErrInvalidDrawContext = errors.New("wgpu: draw context did not produce a gpucontext texture")

	// ErrNoTextureCreator is returned when the draw context cannot create
	// textures.
	ErrNoTextureCreator = errors.New("wgpu: draw context has no texture creator")
)

// textureDestroyer releases GPU textures that expose an explicit Destroy.
type textureDestroyer interface {
	Destroy()
}

// Window is the native window type of the wgpu backend. It presents swapped
// frames through a gpucontext.TextureDrawer, typically obtained from a
// gogpu application's draw context. Without a drawer the window is
// headless: frames accumulate in an in-memory framebuffer only.
type Window struct {
	mu     sync.Mutex
	w, h   int
	drawer gpucontext.TextureDrawer
	front  *image.RGBA

	// oldTexture is destroyed one presentation late: NewTextureFromRGBA
	// waits for the GPU, so by then the previous texture is idle.
	oldTexture any
}

// NewWindow creates a headless window of the given size.
func NewWindow(w, h int) *Window {
	return &Window{w: w, h: h, front: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// NewWindowWithDrawer creates a window that presents through dc.
func NewWindowWithDrawer(dc gpucontext.TextureDrawer, w, h int) *Window {
	win := NewWindow(w, h)
	win.drawer = dc
	return win
}

// Size returns the current window dimensions.
func (w *Window) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w, w.h
}

// Resize changes the window size, taking effect at the next surface size
// query.
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

// present stores the image and, when a drawer is attached, uploads it as a
// texture and draws it at the window origin.
func (w *Window) present(img *image.RGBA) error {
	w.mu.Lock()
	w.front = img
	dc := w.drawer
	w.mu.Unlock()
	if dc == nil {
		return nil
	}

	creator := dc.TextureCreator()
	if creator == nil {
		return ErrNoTextureCreator
	}
	b := img.Bounds()
	tex, err := creator.NewTextureFromRGBA(b.Dx(), b.Dy(), img.Pix)
	if err != nil {
		return fmt.Errorf("wgpu: create presentation texture: %w", err)
	}
	gpuTex, ok := tex.(gpucontext.Texture)
	if !ok {
		return ErrInvalidDrawContext
	}
	if err := dc.DrawTexture(gpuTex, 0, 0); err != nil {
		return fmt.Errorf("wgpu: draw presentation texture: %w", err)
	}

	// The GPU finished with the previous texture during the upload wait.
	w.mu.Lock()
	old := w.oldTexture
	w.oldTexture = tex
	w.mu.Unlock()
	if d, ok := old.(textureDestroyer); ok {
		d.Destroy()
	}
	return nil
}
