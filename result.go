// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vidsink

// FlowResult is the per-frame result reported back to the producer.
type FlowResult int

const (
	// FlowOK: the frame was rendered and presented.
	FlowOK FlowResult = iota

	// FlowError: this frame failed (upload, draw or swap error). The
	// failure is per-frame from the backend's point of view, but note
	// that the render thread stops on any non-OK result; see the Sink
	// documentation.
	FlowError

	// FlowNotNegotiated: the frame's format is unsupported by every
	// catalog entry, or reconfiguration failed. Fatal to the stream.
	FlowNotNegotiated

	// FlowWrongState: the sink is flushing or stopped. Fatal to the
	// stream until the sink is restarted.
	FlowWrongState
)

// String returns the result name.
func (r FlowResult) String() string {
	switch r {
	case FlowOK:
		return "ok"
	case FlowError:
		return "error"
	case FlowNotNegotiated:
		return "not-negotiated"
	case FlowWrongState:
		return "wrong-state"
	}
	return "unknown"
}
