package gpu

import (
	"log/slog"
	"sync/atomic"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/frame"
)

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(frame.DiscardHandler{}))
}

// SetLogger configures the logger used by the renderer. By default nothing
// is logged; pass nil to go back to that.
//
// Levels:
//   - [slog.LevelDebug]: instance layers and extensions, queue families, swapchain details
//   - [slog.LevelInfo]: API version, selected device, swapchain rebuilds
//   - [slog.LevelWarn]: requested layers or extensions that aren't available
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(frame.DiscardHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current renderer logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
