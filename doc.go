// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package vidsink presents decoded video frames onto a native window
// through a pluggable hardware-accelerated graphics backend.
//
// The package decouples the goroutine delivering frames from the render
// goroutine that owns the graphics context. A single-slot handoff queue
// with an acknowledgment protocol guarantees at most one frame in flight;
// graphics resources are rebuilt lazily when the negotiated pixel format
// changes; frames are letterboxed aspect-correctly unless the caller
// overrides the destination rectangle.
//
// Basic usage:
//
//	sink := vidsink.New()
//	if err := sink.Open(); err != nil {
//	    // no backend, or no usable framebuffer configuration
//	}
//	defer sink.Close()
//
//	if err := sink.Start(); err != nil {
//	    // no window obtainable
//	}
//	defer sink.Stop()
//
//	frame, _ := pixel.NewFrame(pixel.FormatI420, 640, 480)
//	// ... fill frame.Data ...
//	if res := sink.ShowFrame(frame); res != vidsink.FlowOK {
//	    // stream is over, renegotiate or stop
//	}
//
// Backends register themselves on import:
//
//	import (
//	    _ "github.com/gogpu/vidsink/backend/software"
//	    _ "github.com/gogpu/vidsink/backend/wgpu"
//	)
package vidsink
