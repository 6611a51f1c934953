// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vidsink

import (
	"errors"
	"sync"

	"github.com/gogpu/vidsink/pixel"
)

// errQueueFlushing is returned by push and pop while the queue is flushing.
var errQueueFlushing = errors.New("vidsink: queue is flushing")

// frameItem is one unit of producer-to-render-thread handoff. A nil frame
// is the redraw sentinel: present the retained last frame again.
type frameItem struct {
	frame *pixel.Frame
}

func (it frameItem) visible() bool { return it.frame != nil }

// frameQueue is the single-producer/single-consumer handoff between the
// streaming thread and the render thread.
//
// The queue itself never blocks a push: depth-1 backpressure for visible
// items is enforced by the acknowledgment protocol in Sink.submit, which
// keeps the single producer waiting until the render thread has finished
// the current frame. Redraw sentinels are invisible to the capacity rule
// and may queue behind a pending frame.
type frameQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond

	items    []frameItem
	visible  int
	flushing bool
}

func newFrameQueue() *frameQueue {
	q := &frameQueue{}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// push enqueues an item. It fails immediately while flushing.
func (q *frameQueue) push(it frameItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.flushing {
		return errQueueFlushing
	}
	q.items = append(q.items, it)
	if it.visible() {
		q.visible++
	}
	q.notEmpty.Signal()
	return nil
}

// pop blocks until an item is available or the queue is flushing.
func (q *frameQueue) pop() (frameItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.flushing {
		q.notEmpty.Wait()
	}
	if q.flushing {
		return frameItem{}, errQueueFlushing
	}
	it := q.items[0]
	q.items[0] = frameItem{}
	q.items = q.items[1:]
	if it.visible() {
		q.visible--
	}
	return it, nil
}

// setFlushing toggles flush mode. Entering flush mode drops all queued
// items and wakes every blocked pop with a failure; leaving it re-enables
// normal operation.
func (q *frameQueue) setFlushing(flushing bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.flushing = flushing
	if flushing {
		q.items = nil
		q.visible = 0
		q.notEmpty.Broadcast()
	}
}
