// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pixel

import (
	"errors"
	"fmt"
)

// Frame errors.
var (
	// ErrUnknownFormat is returned for a format with no dispatch entry.
	ErrUnknownFormat = errors.New("pixel: unknown format")

	// ErrBadDimensions is returned for non-positive frame dimensions.
	ErrBadDimensions = errors.New("pixel: frame dimensions must be positive")
)

// Descriptor identifies a negotiated frame format: pixel layout, size and
// pixel aspect ratio. Two frames with equal descriptors can share graphics
// resources; a descriptor change forces reconfiguration.
type Descriptor struct {
	Format Format
	Width  int
	Height int

	// Pixel aspect ratio of the source material.
	PARNum int
	PARDen int
}

// Equal reports whether two descriptors negotiate to the same resources.
func (d Descriptor) Equal(o Descriptor) bool {
	return d == o
}

// String formats the descriptor for logging.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s %dx%d par %d/%d", d.Format, d.Width, d.Height, d.PARNum, d.PARDen)
}

// Frame is one decoded video frame: a descriptor plus the owning byte
// buffer laid out per the format's dispatch entry. Pushing a frame into a
// sink transfers ownership; the producer must not touch Data afterwards.
type Frame struct {
	Format Format
	Width  int
	Height int
	PARNum int
	PARDen int

	Data []byte
}

// NewFrame allocates a zero-filled frame of the given format and size with
// a square pixel aspect ratio.
func NewFrame(f Format, w, h int) (*Frame, error) {
	info, ok := Get(f)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(f))
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadDimensions, w, h)
	}
	return &Frame{
		Format: f,
		Width:  w,
		Height: h,
		PARNum: 1,
		PARDen: 1,
		Data:   make([]byte, info.FrameSize(w, h)),
	}, nil
}

// Descriptor returns the frame's format descriptor. A zero PAR is
// normalized to square pixels.
func (fr *Frame) Descriptor() Descriptor {
	pn, pd := fr.PARNum, fr.PARDen
	if pn <= 0 || pd <= 0 {
		pn, pd = 1, 1
	}
	return Descriptor{
		Format: fr.Format,
		Width:  fr.Width,
		Height: fr.Height,
		PARNum: pn,
		PARDen: pd,
	}
}

// Planes returns the frame's upload planes, each with its data slice
// resolved against the frame buffer.
func (fr *Frame) Planes() ([]Plane, error) {
	info, ok := Get(fr.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(fr.Format))
	}
	return info.Layout(fr.Width, fr.Height), nil
}

// PlaneData returns the byte range of one plane within the frame buffer.
func (fr *Frame) PlaneData(p Plane) []byte {
	size := p.Width * p.Height * p.Format.BytesPerTexel()
	end := p.Offset + size
	if end > len(fr.Data) {
		end = len(fr.Data)
	}
	if p.Offset >= end {
		return nil
	}
	return fr.Data[p.Offset:end]
}
