// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vidsink

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/vidsink/backend"
	"github.com/gogpu/vidsink/pixel"
)

// Sink lifecycle errors.
var (
	// ErrNotOpened is returned by Start before a successful Open.
	ErrNotOpened = errors.New("vidsink: sink not opened")

	// ErrAlreadyOpen is returned by Open on an open sink.
	ErrAlreadyOpen = errors.New("vidsink: sink already open")

	// ErrNoWindow is returned by Start when no window handle has been
	// supplied and internal window creation is disabled.
	ErrNoWindow = errors.New("vidsink: no window handle and window creation disabled")

	// ErrNoWindowProvider is returned when internal window creation is
	// enabled but neither the device nor the options supply a provider.
	ErrNoWindowProvider = errors.New("vidsink: no window provider")

	// ErrFormatUnsupported is reported when no catalog entry can present
	// the negotiated pixel format.
	ErrFormatUnsupported = errors.New("vidsink: pixel format unsupported by catalog")
)

// Sink presents decoded video frames onto a native window through a
// graphics backend.
//
// The producer (streaming) goroutine calls ShowFrame, Expose,
// SetWindowHandle and SetRenderRectangle. A dedicated render goroutine,
// started by Start, owns all graphics state: it pops frames from the
// handoff queue, lazily (re)builds graphics resources when the frame
// format changes, and reports a per-frame FlowResult back to the producer.
//
// ShowFrame blocks until the render thread acknowledges the frame, so at
// most one frame is ever in flight. The render thread stops on the first
// non-OK result, matching the strict upstream behavior; after that every
// submission returns FlowWrongState until the sink is stopped and started
// again.
type Sink struct {
	// mu guards window handle, render-rectangle override and lifecycle
	// flags. It may be taken by third parties (window negotiation)
	// concurrently with the render thread.
	mu sync.Mutex

	// renderMu guards the acknowledgment state: lastResult, the ack
	// sequence number and the thread liveness flag.
	renderMu     sync.Mutex
	renderCond   *sync.Cond
	lastResult   FlowResult
	ackSeq       uint64
	threadExited bool

	dev      backend.Device
	provider backend.WindowProvider

	createWindow bool
	forceAspect  bool

	catalog *Catalog
	queue   *frameQueue
	res     *renderResources

	window    backend.NativeWindow
	ownWindow bool
	override  *Region

	opened  bool
	started bool
	wg      sync.WaitGroup

	// Render-thread-owned state. Touched only by the render goroutine
	// while it runs.
	configured *pixel.Descriptor
	lastFrame  *pixel.Frame
	region     Region
}

// New creates a sink. The sink must be opened with Open and started with
// Start before it accepts frames.
func New(opts ...Option) *Sink {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &Sink{
		dev:          o.device,
		provider:     o.provider,
		createWindow: o.createWindow,
		forceAspect:  o.forceAspect,
		queue:        newFrameQueue(),
		lastResult:   FlowWrongState,
		threadExited: true,
	}
	s.renderCond = sync.NewCond(&s.renderMu)
	// Closed until Start.
	s.queue.setFlushing(true)
	return s
}

// Open establishes the backend display connection and probes the format
// catalog. It fails when no backend is available, the backend protocol
// version is below the minimum, or no framebuffer configuration is
// satisfiable.
func (s *Sink) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return ErrAlreadyOpen
	}

	if s.dev == nil {
		dev, err := backend.New()
		if err != nil {
			return err
		}
		s.dev = dev
	}

	v, err := s.dev.Open()
	if err != nil {
		return fmt.Errorf("vidsink: open backend %q: %w", s.dev.Name(), err)
	}
	if err := checkVersion(v); err != nil {
		s.dev.Close()
		return err
	}

	cat, err := probeCatalog(s.dev)
	if err != nil {
		s.dev.Close()
		return err
	}

	if s.provider == nil {
		if wp, ok := s.dev.(backend.WindowProvider); ok {
			s.provider = wp
		}
	}

	s.catalog = cat
	s.res = newRenderResources(s.dev)
	s.res.displayReady()
	s.opened = true

	Logger().Info("vidsink: opened",
		"backend", s.dev.Name(),
		"version", fmt.Sprintf("%d.%d", v.Major, v.Minor),
		"catalog_entries", len(cat.entries))
	return nil
}

// Close stops the render thread if needed and releases the display
// connection. The sink can be reopened afterwards.
func (s *Sink) Close() {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return
	}
	s.dev.Close()
	s.catalog = nil
	s.res = nil
	s.opened = false
}

// Catalog returns the probed format catalog. Nil before Open.
func (s *Sink) Catalog() *Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// Start spawns the render thread. The catalog must already be probed
// (Open) and a window must be obtainable: either one was supplied via
// SetWindowHandle or internal window creation is enabled.
func (s *Sink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return ErrNotOpened
	}
	if s.started {
		return nil
	}
	if s.window == nil && !s.createWindow {
		return ErrNoWindow
	}

	s.queue.setFlushing(false)
	s.renderMu.Lock()
	s.lastResult = FlowOK
	s.threadExited = false
	s.renderMu.Unlock()

	s.started = true
	s.wg.Add(1)
	go s.renderLoop()
	return nil
}

// Stop marks the queue flushing, wakes all waiters, joins the render
// thread and destroys an internally created window. External window
// handles are left alone.
func (s *Sink) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	// Flushing the queue wakes an idle render thread; a frame already in
	// flight finishes and is acknowledged normally before the thread
	// notices the flush and exits.
	s.queue.setFlushing(true)
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownWindow && s.window != nil && s.provider != nil {
		s.provider.DestroyWindow(s.window)
		s.window = nil
		s.ownWindow = false
	}
}

// SetWindowHandle supplies an externally created native window. It may be
// called at any time; the handle takes effect at the next (re)configuration.
func (s *Sink) SetWindowHandle(win backend.NativeWindow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownWindow && s.window != nil && s.provider != nil {
		s.provider.DestroyWindow(s.window)
	}
	s.window = win
	s.ownWindow = false
}

// SetRenderRectangle overrides the computed destination rectangle. Width
// and height both -1 clear the override, restoring letterbox computation.
func (s *Sink) SetRenderRectangle(x, y, w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := Region{X: x, Y: y, W: w, H: h}
	if r.isClearSentinel() {
		s.override = nil
		return
	}
	s.override = &r
}

// ShowFrame hands one frame to the render thread and blocks until it has
// been rendered (or refused). Ownership of the frame transfers to the
// sink: the caller must not touch fr.Data afterwards.
func (s *Sink) ShowFrame(fr *pixel.Frame) FlowResult {
	if fr == nil {
		return FlowError
	}
	if _, ok := pixel.Get(fr.Format); !ok {
		return FlowNotNegotiated
	}
	return s.submit(frameItem{frame: fr})
}

// Expose requests a redraw of the last rendered frame, typically after a
// window resize or damage event. It does not block on rendering.
func (s *Sink) Expose() FlowResult {
	return s.submit(frameItem{})
}

// LastResult returns the most recent per-frame result.
func (s *Sink) LastResult() FlowResult {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	return s.lastResult
}

// submit pushes one item into the handoff queue. For visible items it
// then waits on the acknowledgment condition and returns the shared last
// result; the render thread cannot acknowledge until the producer is
// waiting because both sides hold renderMu. A dead render thread (it
// stops on the first non-OK result) refuses the item instead of leaving
// the producer blocked forever.
func (s *Sink) submit(it frameItem) FlowResult {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	if s.threadExited {
		return FlowWrongState
	}
	if err := s.queue.push(it); err != nil {
		return FlowWrongState
	}
	if !it.visible() {
		return FlowOK
	}

	seq := s.ackSeq
	for s.ackSeq == seq && !s.threadExited {
		s.renderCond.Wait()
	}
	if s.ackSeq != seq {
		return s.lastResult
	}
	// The thread exited without acknowledging this item.
	return FlowWrongState
}

// setResult publishes a frame result and wakes the producer.
func (s *Sink) setResult(r FlowResult) {
	s.renderMu.Lock()
	s.lastResult = r
	s.ackSeq++
	s.renderCond.Broadcast()
	s.renderMu.Unlock()
}

// renderLoop is the render thread body: pop, reconfigure when the format
// changed, render, acknowledge. The loop exits on queue flush or on the
// first non-OK result.
func (s *Sink) renderLoop() {
	defer s.wg.Done()
	log := Logger()
	log.Info("vidsink: render thread started")

	for {
		it, err := s.queue.pop()
		if err != nil {
			break
		}

		if it.frame != nil {
			d := it.frame.Descriptor()
			if s.configured == nil || !s.configured.Equal(d) {
				if err := s.configure(d); err != nil {
					log.Warn("vidsink: configuration failed",
						"format", d.String(), "err", err)
				}
			}
		}

		var res FlowResult
		switch {
		case it.frame != nil && s.configured == nil:
			res = FlowNotNegotiated
		case it.frame != nil:
			s.lastFrame = it.frame
			res = s.renderFrame(it.frame)
		case s.configured != nil && s.lastFrame != nil:
			res = s.renderFrame(s.lastFrame)
		default:
			// Redraw request before the first frame; nothing to show.
			res = FlowOK
		}

		s.setResult(res)
		if res != FlowOK {
			log.Warn("vidsink: render thread stopping", "result", res.String())
			break
		}
	}

	s.renderMu.Lock()
	if s.lastResult == FlowOK {
		s.lastResult = FlowWrongState
	}
	s.threadExited = true
	s.renderCond.Broadcast()
	s.renderMu.Unlock()

	s.res.teardown()
	s.configured = nil
	s.lastFrame = nil
	log.Info("vidsink: render thread exited")
}

// configure rebuilds graphics resources for a new format descriptor.
// Called from the render thread only.
func (s *Sink) configure(d pixel.Descriptor) error {
	if s.configured != nil {
		s.res.teardown()
		s.configured = nil
	}

	entry := s.catalog.Match(d.Format)
	if entry == nil {
		return fmt.Errorf("%w: %v", ErrFormatUnsupported, d.Format)
	}

	if err := s.res.chooseConfig(entry); err != nil {
		s.res.teardown()
		return err
	}

	win, err := s.ensureWindow(d.Width, d.Height)
	if err != nil {
		s.res.teardown()
		return err
	}

	if err := s.res.createSurface(win); err != nil {
		s.res.teardown()
		return err
	}
	if err := s.res.buildResources(d); err != nil {
		s.res.teardown()
		return err
	}

	s.configured = &d
	s.updateRegion()

	Logger().Info("vidsink: configured",
		"format", d.String(), "target", entry.Target.String())
	return nil
}

// ensureWindow returns the current window handle, creating one through
// the provider when allowed.
func (s *Sink) ensureWindow(w, h int) (backend.NativeWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.window != nil {
		return s.window, nil
	}
	if !s.createWindow {
		return nil, ErrNoWindow
	}
	if s.provider == nil {
		return nil, ErrNoWindowProvider
	}
	win, err := s.provider.CreateWindow(w, h)
	if err != nil {
		return nil, fmt.Errorf("vidsink: create window: %w", err)
	}
	s.window = win
	s.ownWindow = true
	Logger().Info("vidsink: created internal window", "width", w, "height", h)
	return win, nil
}

// updateRegion recomputes the destination rectangle from the configured
// descriptor, the surface properties and the caller override.
func (s *Sink) updateRegion() {
	if s.configured == nil {
		return
	}
	d := *s.configured

	s.mu.Lock()
	var ov *Region
	if s.override != nil {
		o := *s.override
		ov = &o
	}
	fa := s.forceAspect
	s.mu.Unlock()

	dn, dd := sanitizeDisplayPAR(s.res.surface.PARNum, s.res.surface.PARDen, s.res.surface.PARKnown)
	s.region = ComputeRegion(d.Width, d.Height, d.PARNum, d.PARDen,
		dn, dd, s.res.surface.Width, s.res.surface.Height, fa, ov)
}

// renderFrame uploads and draws one frame. Per-frame backend errors are
// reported as FlowError; the strict loop policy then stops the thread.
func (s *Sink) renderFrame(fr *pixel.Frame) FlowResult {
	if _, err := s.res.refreshSurfaceSize(); err != nil {
		Logger().Warn("vidsink: surface size query failed", "err", err)
		return FlowError
	}
	// The override or surface may have changed since the last frame.
	s.updateRegion()

	if err := s.res.uploadFrame(fr); err != nil {
		Logger().Warn("vidsink: upload failed", "err", err)
		return FlowError
	}
	if err := s.res.drawFrame(s.region); err != nil {
		Logger().Warn("vidsink: draw failed", "err", err)
		return FlowError
	}
	return FlowOK
}
