// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vidsink

import (
	"errors"
	"fmt"

	"github.com/gogpu/vidsink/backend"
	"github.com/gogpu/vidsink/pixel"
)

// Resource manager errors.
var (
	// ErrBackendVersion is returned by Open for a backend below the
	// minimum supported protocol version.
	ErrBackendVersion = errors.New("vidsink: backend protocol version too old")

	// errNotConfigured is returned by render paths used before a
	// successful buildResources.
	errNotConfigured = errors.New("vidsink: graphics resources not configured")
)

// minBackendMajor is the minimum backend protocol major version.
const minBackendMajor = 1

// resourceState tracks how far graphics resource construction has
// progressed. Teardown is valid from any state and returns to
// stateDisplayReady (the display connection itself is owned by the sink's
// Open/Close, not by reconfiguration).
type resourceState int

const (
	stateUninitialized resourceState = iota
	stateDisplayReady
	stateConfigChosen
	stateSurfaceReady
	stateResourcesBuilt
)

func (s resourceState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateDisplayReady:
		return "display-ready"
	case stateConfigChosen:
		return "config-chosen"
	case stateSurfaceReady:
		return "surface-ready"
	case stateResourcesBuilt:
		return "resources-built"
	}
	return "unknown"
}

// renderResources owns every graphics object the render thread uses:
// context, surface, the video and border programs, and the per-plane
// textures. It is created by the sink but, once the render thread starts,
// mutated exclusively from that thread.
type renderResources struct {
	dev   backend.Device
	state resourceState

	entry   *SupportedFormat
	surface backend.SurfaceInfo

	videoProg  backend.Program
	borderProg backend.Program
	textures   []backend.Texture

	attached bool

	// Rebuild observability. builds counts completed buildResources
	// calls, teardowns counts teardown calls that had anything to
	// release.
	builds    int
	teardowns int
}

func newRenderResources(dev backend.Device) *renderResources {
	return &renderResources{dev: dev}
}

// displayReady marks the display connection established. Called by the
// sink after a successful Device.Open plus version check.
func (r *renderResources) displayReady() {
	r.state = stateDisplayReady
}

// checkVersion validates the backend protocol version reported by Open.
func checkVersion(v backend.Version) error {
	if v.Major < minBackendMajor {
		return fmt.Errorf("%w: got %d.%d, need at least %d.0",
			ErrBackendVersion, v.Major, v.Minor, minBackendMajor)
	}
	return nil
}

// chooseConfig creates the rendering context for a probed catalog entry.
func (r *renderResources) chooseConfig(entry *SupportedFormat) error {
	if r.state != stateDisplayReady {
		return fmt.Errorf("vidsink: chooseConfig in state %v", r.state)
	}
	if err := r.dev.CreateContext(entry.Config); err != nil {
		return fmt.Errorf("vidsink: create context for %v: %w", entry.Target, err)
	}
	r.entry = entry
	r.state = stateConfigChosen
	return nil
}

// createSurface binds the on-screen surface to a native window, attaches
// the context to the calling thread and records the surface properties.
func (r *renderResources) createSurface(win backend.NativeWindow) error {
	if r.state != stateConfigChosen {
		return fmt.Errorf("vidsink: createSurface in state %v", r.state)
	}
	info, err := r.dev.CreateWindowSurface(r.entry.Config, win)
	if err != nil {
		return fmt.Errorf("vidsink: create window surface: %w", err)
	}
	r.surface = info
	if err := r.dev.AttachCurrentThread(); err != nil {
		r.dev.DestroySurface()
		return fmt.Errorf("vidsink: attach context: %w", err)
	}
	r.attached = true
	r.state = stateSurfaceReady

	Logger().Info("vidsink: surface ready",
		"width", info.Width, "height", info.Height,
		"buffer_preserved", info.BufferPreserved)
	return nil
}

// buildResources compiles the conversion programs and allocates the
// texture planes for a negotiated format. Any failure tears nothing down
// by itself; the caller runs teardown before retrying.
func (r *renderResources) buildResources(d pixel.Descriptor) error {
	if r.state != stateSurfaceReady {
		return fmt.Errorf("vidsink: buildResources in state %v", r.state)
	}
	info, ok := pixel.Get(d.Format)
	if !ok {
		return fmt.Errorf("%w: %v", pixel.ErrUnknownFormat, d.Format)
	}

	prog, err := r.dev.CompileProgram(info.Program)
	if err != nil {
		return fmt.Errorf("vidsink: compile %v program: %w", d.Format, err)
	}
	r.videoProg = prog

	// Border regions only need their own program when the backend does
	// not preserve the color buffer across swaps.
	if !r.surface.BufferPreserved {
		border, err := r.dev.CompileProgram(pixel.ProgramSpec{Variant: pixel.VariantFill})
		if err != nil {
			return fmt.Errorf("vidsink: compile border program: %w", err)
		}
		r.borderProg = border
	}

	for i, p := range info.Layout(d.Width, d.Height) {
		tex, err := r.dev.CreateTexture(p.Format, p.Width, p.Height)
		if err != nil {
			return fmt.Errorf("vidsink: create texture plane %d: %w", i, err)
		}
		r.textures = append(r.textures, tex)
	}

	r.builds++
	r.state = stateResourcesBuilt
	Logger().Info("vidsink: resources built",
		"format", d.Format.String(), "planes", len(r.textures))
	return nil
}

// teardown releases everything in reverse dependency order and returns to
// stateDisplayReady. Safe to call in any state, including repeatedly.
func (r *renderResources) teardown() {
	if r.state <= stateDisplayReady {
		return
	}

	for _, t := range r.textures {
		r.dev.DestroyTexture(t)
	}
	r.textures = nil
	if r.borderProg != nil {
		r.dev.DestroyProgram(r.borderProg)
		r.borderProg = nil
	}
	if r.videoProg != nil {
		r.dev.DestroyProgram(r.videoProg)
		r.videoProg = nil
	}

	// The context must leave the thread before surface and context go.
	if r.attached {
		r.dev.DetachCurrentThread()
		r.attached = false
	}
	if r.state >= stateSurfaceReady {
		r.dev.DestroySurface()
	}
	if r.state >= stateConfigChosen {
		r.dev.DestroyContext()
	}

	r.entry = nil
	r.surface = backend.SurfaceInfo{}
	r.teardowns++
	r.state = stateDisplayReady
}

// refreshSurfaceSize re-queries the surface dimensions. It reports whether
// they changed since the surface was created or last refreshed.
func (r *renderResources) refreshSurfaceSize() (changed bool, err error) {
	if r.state < stateSurfaceReady {
		return false, errNotConfigured
	}
	w, h, err := r.dev.SurfaceSize()
	if err != nil {
		return false, err
	}
	if w <= 0 || h <= 0 {
		return false, nil
	}
	if w != r.surface.Width || h != r.surface.Height {
		r.surface.Width = w
		r.surface.Height = h
		return true, nil
	}
	return false, nil
}
