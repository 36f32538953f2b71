// Command triangle opens a window and draws a red triangle on a blue
// background with Vulkan until the window is closed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/config"
	"github.com/ibd1279/vks-examples/vertex-triangle/internal/frame"
	"github.com/ibd1279/vks-examples/vertex-triangle/internal/gpu"
)

// glfw and the presentation engine want the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "triangle: %+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Parse("triangle", args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	} else if err != nil {
		return err
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	gpu.SetLogger(logger.With("component", "gpu"))
	if b, err := config.Encode(cfg); err == nil {
		logger.Debug("effective configuration", "toml", string(b))
	}

	gpu.Load()
	defer gpu.Unload()

	win, err := gpu.OpenWindow(cfg.Window)
	if err != nil {
		return err
	}
	defer win.Close()

	renderer, err := gpu.New(cfg, win)
	if err != nil {
		return err
	}
	defer renderer.Close()

	loop, err := frame.NewLoop(renderer, cfg.Vulkan.FramesInFlight,
		frame.WithLogger(logger.With("component", "frame")))
	if err != nil {
		return err
	}
	win.OnResize(loop.MarkResized)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = runLoop(ctx, loop, win)
	stats := loop.Stats()
	logger.Info("frame loop finished",
		"presented", stats.Presented,
		"skipped", stats.Skipped,
		"recreated", stats.Recreated)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// waker is the part of the window a signal needs to interrupt WaitEvents.
type waker interface {
	frame.EventSource
	Wake()
}

// runLoop runs the frame loop and wakes the window if ctx is cancelled while
// the loop is parked in WaitEvents. Wake is never called once the loop has
// returned, so it can't race the window teardown.
func runLoop(ctx context.Context, loop *frame.Loop, win waker) error {
	loopDone := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			win.Wake()
		case <-loopDone:
		}
	}()

	err := loop.Run(ctx, win)
	close(loopDone)
	<-watcherDone
	return err
}
