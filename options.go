// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vidsink

import "github.com/gogpu/vidsink/backend"

// Option configures a Sink during creation.
//
// Example:
//
//	// Auto-select the best registered backend:
//	sink := vidsink.New()
//
//	// Inject a specific device (dependency injection):
//	sink := vidsink.New(vidsink.WithDevice(dev))
type Option func(*sinkOptions)

// sinkOptions holds optional configuration for Sink creation.
type sinkOptions struct {
	device       backend.Device
	provider     backend.WindowProvider
	createWindow bool
	forceAspect  bool
}

// defaultOptions returns the default sink options.
func defaultOptions() sinkOptions {
	return sinkOptions{
		createWindow: true,
		forceAspect:  true,
	}
}

// WithDevice sets the graphics device the sink presents through. Without
// it, Open selects the best available registered backend.
func WithDevice(dev backend.Device) Option {
	return func(o *sinkOptions) {
		o.device = dev
	}
}

// WithWindowProvider sets the provider used to create a window when none
// has been supplied via SetWindowHandle. Without it, the sink uses the
// device itself if it implements backend.WindowProvider.
func WithWindowProvider(p backend.WindowProvider) Option {
	return func(o *sinkOptions) {
		o.provider = p
	}
}

// WithCreateWindow enables or disables internal window creation when no
// external window handle has been supplied. Default true. With it
// disabled, Start fails until SetWindowHandle is called.
func WithCreateWindow(enabled bool) Option {
	return func(o *sinkOptions) {
		o.createWindow = enabled
	}
}

// WithForceAspectRatio enables or disables aspect-correct letterboxing.
// Default true. When disabled frames are stretched to the full surface.
func WithForceAspectRatio(enabled bool) Option {
	return func(o *sinkOptions) {
		o.forceAspect = enabled
	}
}
