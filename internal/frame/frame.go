// Package frame drives the per-frame present loop: wait for a free frame
// slot, acquire a swapchain image, record and submit the draw, present, and
// rebuild the swapchain when the window changes size or the swapchain goes
// out of date.
package frame

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

// State is where the loop is within a frame.
type State int

const (
	Idle State = iota
	AcquireImage
	RecordCommands
	Submit
	Present
	RecreateSwapchain
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AcquireImage:
		return "AcquireImage"
	case RecordCommands:
		return "RecordCommands"
	case Submit:
		return "Submit"
	case Present:
		return "Present"
	case RecreateSwapchain:
		return "RecreateSwapchain"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Recognized transient conditions. A Renderer reports them wrapped or as is;
// everything else it returns stops the loop.
var (
	// ErrOutOfDate means the swapchain no longer matches the surface.
	ErrOutOfDate = errors.New("swapchain out of date")
	// ErrUnsupportedDimensions means the swapchain can't be built at the
	// current window size, usually because the window is minimized.
	ErrUnsupportedDimensions = errors.New("unsupported swapchain dimensions")
	// ErrPresentFailed is a present failure the loop logs and moves past.
	ErrPresentFailed = errors.New("present failed")
)

// Renderer performs the graphics API work for each state. slot is the
// frame-in-flight index, image the acquired swapchain image.
type Renderer interface {
	WaitFrame(ctx context.Context, slot int) error
	AcquireImage(ctx context.Context, slot int) (image uint32, suboptimal bool, err error)
	RecordCommands(slot int, image uint32) error
	Submit(slot int, image uint32) error
	Present(slot int, image uint32) (suboptimal bool, err error)
	RecreateSwapchain(ctx context.Context) error
}

// EventSource is the window side of the loop.
type EventSource interface {
	ShouldClose() bool
	PollEvents()
	WaitEvents()
}

// Result says whether a Step put a frame on screen.
type Result int

const (
	Skipped Result = iota
	Presented
)

// Stats counts what the loop has done so far.
type Stats struct {
	Presented uint64
	Skipped   uint64
	Recreated uint64
}

type Loop struct {
	renderer       Renderer
	framesInFlight int
	log            *slog.Logger
	observe        func(from, to State)

	state         State
	slot          int
	recreate      bool
	waitForResize bool
	stats         Stats
}

type LoopOption func(*Loop)

// WithLogger sets the logger used for recreate and present diagnostics.
func WithLogger(l *slog.Logger) LoopOption {
	return func(loop *Loop) {
		if l != nil {
			loop.log = l
		}
	}
}

// WithObserver registers a callback invoked on every state transition.
func WithObserver(fn func(from, to State)) LoopOption {
	return func(loop *Loop) { loop.observe = fn }
}

func NewLoop(renderer Renderer, framesInFlight int, opts ...LoopOption) (*Loop, error) {
	if renderer == nil {
		return nil, errors.New("frame: nil renderer")
	}
	if framesInFlight < 1 {
		return nil, errors.Errorf("frame: frames in flight must be at least 1, got %d", framesInFlight)
	}
	loop := &Loop{
		renderer:       renderer,
		framesInFlight: framesInFlight,
		log:            slog.New(DiscardHandler{}),
	}
	for _, opt := range opts {
		opt(loop)
	}
	return loop, nil
}

// MarkResized asks for the swapchain to be rebuilt before the next frame.
// It is meant to be called from the window's resize callback.
func (l *Loop) MarkResized() { l.recreate = true }

func (l *Loop) Stats() Stats { return l.stats }

func (l *Loop) enter(s State) {
	if s == l.state {
		return
	}
	from := l.state
	l.state = s
	if l.observe != nil {
		l.observe(from, s)
	}
}

func (l *Loop) skip() (Result, error) {
	l.stats.Skipped++
	l.enter(Idle)
	return Skipped, nil
}

func (l *Loop) fail(err error, msg string) (Result, error) {
	l.enter(Idle)
	return Skipped, errors.Wrap(err, msg)
}

// Step runs one frame. Transient swapchain conditions skip the frame and
// schedule a rebuild; any other error is returned.
func (l *Loop) Step(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Skipped, err
	}

	if l.recreate {
		l.enter(RecreateSwapchain)
		err := l.renderer.RecreateSwapchain(ctx)
		if errors.Is(err, ErrUnsupportedDimensions) {
			l.log.Debug("swapchain rebuild deferred", "err", err)
			l.waitForResize = true
			return l.skip()
		} else if err != nil {
			return l.fail(err, "recreate swapchain")
		}
		l.recreate = false
		l.waitForResize = false
		l.stats.Recreated++
		l.log.Debug("swapchain rebuilt", "count", l.stats.Recreated)
	}

	l.enter(AcquireImage)
	if err := l.renderer.WaitFrame(ctx, l.slot); err != nil {
		return l.fail(err, "wait for frame")
	}
	image, suboptimal, err := l.renderer.AcquireImage(ctx, l.slot)
	if errors.Is(err, ErrOutOfDate) {
		l.recreate = true
		return l.skip()
	} else if err != nil {
		return l.fail(err, "acquire next image")
	}
	if suboptimal {
		l.recreate = true
	}

	l.enter(RecordCommands)
	if err := l.renderer.RecordCommands(l.slot, image); err != nil {
		return l.fail(err, "record commands")
	}

	l.enter(Submit)
	if err := l.renderer.Submit(l.slot, image); err != nil {
		return l.fail(err, "submit")
	}

	l.enter(Present)
	suboptimal, err = l.renderer.Present(l.slot, image)
	switch {
	case errors.Is(err, ErrOutOfDate):
		l.recreate = true
	case errors.Is(err, ErrPresentFailed):
		l.log.Warn("failed to present frame", "image", image, "err", err)
	case err != nil:
		return l.fail(err, "present")
	}
	if suboptimal {
		l.recreate = true
	}

	l.slot = (l.slot + 1) % l.framesInFlight
	l.stats.Presented++
	l.enter(Idle)
	return Presented, nil
}

// Run steps frames until the window asks to close or ctx is done. While the
// swapchain can't be built it blocks on window events instead of spinning.
func (l *Loop) Run(ctx context.Context, events EventSource) error {
	for !events.ShouldClose() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.waitForResize {
			events.WaitEvents()
		} else {
			events.PollEvents()
		}
		if _, err := l.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}
