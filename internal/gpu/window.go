package gpu

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/config"
)

// Window is the glfw window the triangle is presented to. It is also the
// event source of the frame loop.
type Window struct {
	w        *glfw.Window
	onResize func()
}

// OpenWindow initializes glfw and creates a window without a client API,
// Vulkan provides the surface.
func OpenWindow(cfg config.Window) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw init")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw: vulkan loader not found")
	}

	// Tell GLFW we aren't using OpenGL.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	w, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "create window")
	}

	win := &Window{w: w}
	w.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		Logger().Debug("framebuffer resized", "width", width, "height", height)
		if win.onResize != nil {
			win.onResize()
		}
	})
	return win, nil
}

// OnResize registers fn to run when the framebuffer size changes.
func (win *Window) OnResize(fn func()) { win.onResize = fn }

func (win *Window) ShouldClose() bool { return win.w.ShouldClose() }
func (win *Window) PollEvents()       { glfw.PollEvents() }
func (win *Window) WaitEvents()       { glfw.WaitEvents() }

// Wake unblocks a pending WaitEvents. It may be called from any goroutine.
func (win *Window) Wake() { glfw.PostEmptyEvent() }

// FramebufferSize is the drawable size in pixels.
func (win *Window) FramebufferSize() (int, int) { return win.w.GetFramebufferSize() }

// RequiredInstanceExtensions are the extensions glfw needs to create a
// surface on this platform.
func (win *Window) RequiredInstanceExtensions() []string {
	return win.w.GetRequiredInstanceExtensions()
}

func (win *Window) Close() {
	if win.w != nil {
		win.w.Destroy()
		win.w = nil
	}
	glfw.Terminate()
}
