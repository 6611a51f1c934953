// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/vidsink/pixel"
)

// stubDevice is a minimal Device for registry tests.
type stubDevice struct{ name string }

func (d *stubDevice) Name() string                                            { return d.name }
func (d *stubDevice) Open() (Version, error)                                  { return Version{1, 0}, nil }
func (d *stubDevice) Close()                                                  {}
func (d *stubDevice) ProbeConfig(ConfigTemplate) (Config, error)              { return nil, nil }
func (d *stubDevice) CreateContext(Config) error                              { return nil }
func (d *stubDevice) DestroyContext()                                         {}
func (d *stubDevice) CreateWindowSurface(Config, NativeWindow) (SurfaceInfo, error) {
	return SurfaceInfo{}, nil
}
func (d *stubDevice) DestroySurface()                                         {}
func (d *stubDevice) AttachCurrentThread() error                              { return nil }
func (d *stubDevice) DetachCurrentThread()                                    {}
func (d *stubDevice) SurfaceSize() (int, int, error)                          { return 0, 0, nil }
func (d *stubDevice) CompileProgram(pixel.ProgramSpec) (Program, error)       { return nil, nil }
func (d *stubDevice) DestroyProgram(Program)                                  {}
func (d *stubDevice) CreateTexture(pixel.PlaneFormat, int, int) (Texture, error) {
	return nil, nil
}
func (d *stubDevice) DestroyTexture(Texture)                                  {}
func (d *stubDevice) UploadTexture(Texture, PlaneUpload) error                { return nil }
func (d *stubDevice) DrawQuad(Program, [4]Vertex, []Texture) error            { return nil }
func (d *stubDevice) Swap() error                                             { return nil }

func factoryFor(name string) DeviceFactory {
	return func() (Device, error) { return &stubDevice{name: name}, nil }
}

func TestRegistryPriorityOrder(t *testing.T) {
	r := NewRegistry()
	r.Register("slow", 10, factoryFor("slow"), nil)
	r.Register("fast", 100, factoryFor("fast"), nil)
	r.Register("absent", 200, factoryFor("absent"), func() bool { return false })

	names := r.List()
	if len(names) != 3 || names[0] != "absent" || names[1] != "fast" || names[2] != "slow" {
		t.Errorf("List() = %v", names)
	}

	avail := r.Available()
	if len(avail) != 2 || avail[0] != "fast" {
		t.Errorf("Available() = %v", avail)
	}

	dev, err := r.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if dev.Name() != "fast" {
		t.Errorf("New selected %q, want fast", dev.Name())
	}
}

func TestRegistryByName(t *testing.T) {
	r := NewRegistry()
	r.Register("a", 10, factoryFor("a"), nil)
	r.Register("gone", 10, factoryFor("gone"), func() bool { return false })

	if _, err := r.NewByName("a"); err != nil {
		t.Errorf("NewByName(a): %v", err)
	}

	var nf *BackendNotFoundError
	if _, err := r.NewByName("missing"); !errors.As(err, &nf) {
		t.Errorf("NewByName(missing) = %v, want BackendNotFoundError", err)
	}

	var ua *BackendUnavailableError
	if _, err := r.NewByName("gone"); !errors.As(err, &ua) {
		t.Errorf("NewByName(gone) = %v, want BackendUnavailableError", err)
	}
}

func TestEmptyRegistry(t *testing.T) {
	r := NewRegistry()
	if _, err := r.New(); !errors.Is(err, ErrNoBackendAvailable) {
		t.Errorf("New on empty registry = %v, want ErrNoBackendAvailable", err)
	}
}

func TestRegistryReplaceAndUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register("x", 10, factoryFor("x"), nil)
	r.Register("x", 50, factoryFor("x"), nil)
	e, ok := r.Get("x")
	if !ok || e.Priority != 50 {
		t.Errorf("Get(x) after replace: %+v ok=%v", e, ok)
	}
	r.Unregister("x")
	if _, ok := r.Get("x"); ok {
		t.Error("Get(x) after Unregister still present")
	}
}
