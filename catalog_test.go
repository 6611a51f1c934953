// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vidsink

import (
	"errors"
	"testing"

	"github.com/gogpu/vidsink/backend"
	"github.com/gogpu/vidsink/backend/backendtest"
	"github.com/gogpu/vidsink/pixel"
)

func TestProbeCatalogPriorityOrder(t *testing.T) {
	dev := backendtest.New()
	cat, err := probeCatalog(dev)
	if err != nil {
		t.Fatalf("probeCatalog: %v", err)
	}
	entries := cat.Entries()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	want := []TargetFormat{TargetRGBA8888, TargetRGB888, TargetRGB565}
	for i, e := range entries {
		if e.Target != want[i] {
			t.Errorf("entry %d target %v, want %v", i, e.Target, want[i])
		}
	}
}

func TestProbeCatalogPartial(t *testing.T) {
	dev := backendtest.New()
	dev.RejectTemplate = func(tmpl backend.ConfigTemplate) bool {
		return tmpl.AlphaBits == 8 // no 32-bit configs
	}
	cat, err := probeCatalog(dev)
	if err != nil {
		t.Fatalf("probeCatalog: %v", err)
	}
	if len(cat.Entries()) != 2 {
		t.Fatalf("got %d entries, want 2", len(cat.Entries()))
	}
	if cat.Match(pixel.FormatI420) != nil {
		t.Error("I420 matched without an RGBA8888 entry")
	}
	if e := cat.Match(pixel.FormatRGB); e == nil || e.Target != TargetRGB888 {
		t.Errorf("RGB match = %+v, want RGB888 entry", e)
	}
}

func TestProbeCatalogEmptyIsFatal(t *testing.T) {
	dev := backendtest.New()
	dev.RejectTemplate = func(backend.ConfigTemplate) bool { return true }
	if _, err := probeCatalog(dev); !errors.Is(err, ErrNoUsableConfig) {
		t.Errorf("probeCatalog = %v, want ErrNoUsableConfig", err)
	}
}

func TestCatalogMatchAllSupportedFormats(t *testing.T) {
	dev := backendtest.New()
	cat, err := probeCatalog(dev)
	if err != nil {
		t.Fatalf("probeCatalog: %v", err)
	}
	for _, f := range pixel.Formats() {
		e := cat.Match(f)
		if e == nil {
			t.Errorf("%v: no catalog entry", f)
			continue
		}
		found := false
		for _, c := range e.Compatible {
			if c == f {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%v: matched entry %v does not list the format", f, e.Target)
		}
	}
	if cat.Match(pixel.FormatUnknown) != nil {
		t.Error("unknown format matched a catalog entry")
	}
}

func TestCatalogMatchPriority(t *testing.T) {
	dev := backendtest.New()
	cat, err := probeCatalog(dev)
	if err != nil {
		t.Fatalf("probeCatalog: %v", err)
	}
	// RGBA is only in the 8888 entry; RGB only in 888; RGB16 only in 565.
	tests := []struct {
		f    pixel.Format
		want TargetFormat
	}{
		{pixel.FormatRGBA, TargetRGBA8888},
		{pixel.FormatAYUV, TargetRGBA8888},
		{pixel.FormatNV12, TargetRGBA8888},
		{pixel.FormatRGB, TargetRGB888},
		{pixel.FormatRGB16, TargetRGB565},
	}
	for _, tt := range tests {
		if e := cat.Match(tt.f); e == nil || e.Target != tt.want {
			t.Errorf("Match(%v) entry %v, want %v", tt.f, e, tt.want)
		}
	}
}

func TestCatalogFormatsUnion(t *testing.T) {
	dev := backendtest.New()
	cat, err := probeCatalog(dev)
	if err != nil {
		t.Fatalf("probeCatalog: %v", err)
	}
	all := cat.Formats()
	if len(all) != len(pixel.Formats()) {
		t.Errorf("union has %d formats, want %d", len(all), len(pixel.Formats()))
	}
}
