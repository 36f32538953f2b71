package main

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/frame"
)

type stubRenderer struct {
	recreateErr error
}

func (stubRenderer) WaitFrame(context.Context, int) error { return nil }
func (stubRenderer) AcquireImage(context.Context, int) (uint32, bool, error) {
	return 0, false, nil
}
func (stubRenderer) RecordCommands(int, uint32) error          { return nil }
func (stubRenderer) Submit(int, uint32) error                  { return nil }
func (stubRenderer) Present(int, uint32) (bool, error)         { return false, nil }
func (r stubRenderer) RecreateSwapchain(context.Context) error { return r.recreateErr }

type stubWindow struct {
	frames int // ShouldClose reports true after this many polls

	polls    int
	wakes    atomic.Int32
	waiting  chan struct{}
	woken    chan struct{}
	waitOnce sync.Once
	wakeOnce sync.Once
}

func newStubWindow(frames int) *stubWindow {
	return &stubWindow{
		frames:  frames,
		waiting: make(chan struct{}),
		woken:   make(chan struct{}),
	}
}

func (w *stubWindow) ShouldClose() bool { return w.frames > 0 && w.polls >= w.frames }
func (w *stubWindow) PollEvents()       { w.polls++ }

func (w *stubWindow) WaitEvents() {
	w.waitOnce.Do(func() { close(w.waiting) })
	<-w.woken
}

func (w *stubWindow) Wake() {
	w.wakes.Add(1)
	w.wakeOnce.Do(func() { close(w.woken) })
}

func TestRunLoopClosedWindowDoesNotWake(t *testing.T) {
	loop, err := frame.NewLoop(stubRenderer{}, 2)
	require.NoError(t, err)
	win := newStubWindow(3)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, runLoop(ctx, loop, win))

	// The deferred stop in run cancels the context after the loop is gone.
	cancel()
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, win.wakes.Load())
	assert.Equal(t, uint64(3), loop.Stats().Presented)
}

func TestRunLoopSignalWakesWaitingWindow(t *testing.T) {
	loop, err := frame.NewLoop(stubRenderer{recreateErr: frame.ErrUnsupportedDimensions}, 2)
	require.NoError(t, err)
	loop.MarkResized()
	win := newStubWindow(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- runLoop(ctx, loop, win) }()

	select {
	case <-win.waiting:
	case <-time.After(time.Second):
		t.Fatal("loop never waited for events")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancel")
	}
	assert.Equal(t, int32(1), win.wakes.Load())
}
