// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vidsink

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/vidsink/pixel"
)

func testFrame(t *testing.T) *pixel.Frame {
	t.Helper()
	fr, err := pixel.NewFrame(pixel.FormatRGBA, 4, 4)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	return fr
}

// visibleItems reads the queue's visible-item count. Sentinels do not
// count toward it; the acknowledgment protocol keeps it at most 1.
func visibleItems(q *frameQueue) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.visible
}

func TestQueuePushPop(t *testing.T) {
	q := newFrameQueue()
	fr := testFrame(t)

	if got := visibleItems(q); got != 0 {
		t.Errorf("fresh queue holds %d visible items", got)
	}
	if err := q.push(frameItem{frame: fr}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if got := visibleItems(q); got != 1 {
		t.Errorf("queue holds %d visible items after push, want 1", got)
	}

	it, err := q.pop()
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if it.frame != fr {
		t.Error("pop returned a different frame")
	}
	if got := visibleItems(q); got != 0 {
		t.Errorf("drained queue holds %d visible items", got)
	}
}

func TestQueueSentinelInvisible(t *testing.T) {
	q := newFrameQueue()
	if err := q.push(frameItem{}); err != nil {
		t.Fatalf("push sentinel: %v", err)
	}
	if got := visibleItems(q); got != 0 {
		t.Errorf("sentinel counted as %d visible items", got)
	}
	it, err := q.pop()
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if it.visible() {
		t.Error("sentinel popped as visible")
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := newFrameQueue()
	got := make(chan frameItem, 1)
	go func() {
		it, err := q.pop()
		if err != nil {
			return
		}
		got <- it
	}()

	select {
	case <-got:
		t.Fatal("pop returned before push")
	case <-time.After(20 * time.Millisecond):
	}

	fr := testFrame(t)
	if err := q.push(frameItem{frame: fr}); err != nil {
		t.Fatalf("push: %v", err)
	}
	select {
	case it := <-got:
		if it.frame != fr {
			t.Error("wrong frame delivered")
		}
	case <-time.After(time.Second):
		t.Fatal("pop did not wake after push")
	}
}

func TestQueueFlushUnblocksPop(t *testing.T) {
	q := newFrameQueue()
	done := make(chan error, 1)
	go func() {
		_, err := q.pop()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.setFlushing(true)

	select {
	case err := <-done:
		if !errors.Is(err, errQueueFlushing) {
			t.Errorf("pop after flush = %v, want errQueueFlushing", err)
		}
	case <-time.After(time.Second):
		t.Fatal("flush did not unblock pop")
	}

	if err := q.push(frameItem{frame: testFrame(t)}); !errors.Is(err, errQueueFlushing) {
		t.Errorf("push while flushing = %v, want errQueueFlushing", err)
	}
}

func TestQueueFlushDropsItems(t *testing.T) {
	q := newFrameQueue()
	if err := q.push(frameItem{frame: testFrame(t)}); err != nil {
		t.Fatalf("push: %v", err)
	}
	q.setFlushing(true)
	if got := visibleItems(q); got != 0 {
		t.Errorf("flushed queue still holds %d visible items", got)
	}

	// Re-enable and verify normal operation resumes.
	q.setFlushing(false)
	if err := q.push(frameItem{frame: testFrame(t)}); err != nil {
		t.Fatalf("push after unflush: %v", err)
	}
	if _, err := q.pop(); err != nil {
		t.Fatalf("pop after unflush: %v", err)
	}
}

func TestQueueFIFOOrder(t *testing.T) {
	q := newFrameQueue()
	fr := testFrame(t)
	if err := q.push(frameItem{frame: fr}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := q.push(frameItem{}); err != nil {
		t.Fatalf("push sentinel: %v", err)
	}

	first, err := q.pop()
	if err != nil || first.frame != fr {
		t.Fatalf("first pop = (%v, %v), want frame", first.frame, err)
	}
	second, err := q.pop()
	if err != nil || second.visible() {
		t.Fatalf("second pop = (%v, %v), want sentinel", second.frame, err)
	}
}
