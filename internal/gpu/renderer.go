// Package gpu draws the triangle with Vulkan through vks. Renderer
// implements frame.Renderer; the window comes from glfw.
package gpu

import (
	"context"

	"github.com/ibd1279/vks"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/config"
	"github.com/ibd1279/vks-examples/vertex-triangle/internal/frame"
	"github.com/ibd1279/vks-examples/vertex-triangle/internal/present"
)

const swapchainExtension = vks.VK_KHR_SWAPCHAIN_EXTENSION_NAME

// Load initializes the Vulkan loader and logs the API version. Unload
// releases it once every Renderer is closed.
func Load() {
	vks.Init().OrPanic()

	var version uint32
	if result := vks.EnumerateInstanceVersion(&version); result.IsSuccess() {
		Logger().Info("vulkan loaded",
			"api", vks.ApiVersion(version),
			"header", vks.VK_HEADER_VERSION_COMPLETE)
	}
}

func Unload() { vks.Destroy() }

type Renderer struct {
	cfg    config.Config
	window *Window

	instance         vks.InstanceFacade
	surface          vks.SurfaceKHR
	physicalDevice   vks.PhysicalDeviceFacade
	deviceExtensions []string
	queueIndex       uint32
	queue            vks.QueueFacade
	device           vks.DeviceFacade

	swapchain             vks.SwapchainKHR
	swapchainImgs         []vks.Image
	swapchainImgFmt       vks.Format
	swapchainExtent       vks.Extent2D
	swapchainImgViews     []vks.ImageView
	swapchainFramebuffers []vks.Framebuffer

	renderPass     vks.RenderPass
	renderPassFmt  vks.Format
	pipelineLayout vks.PipelineLayout
	pipeline       vks.Pipeline

	vertexBuffer vks.Buffer
	vertexMemory vks.DeviceMemory
	vertexCount  uint32

	commandPool    vks.CommandPoolFacade
	commandBuffers []vks.CommandBuffer

	imageAvailableSemaphores []vks.Semaphore
	renderFinishedSemaphores []vks.Semaphore
	inFlightFences           []vks.Fence
	imagesInFlight           []vks.Fence
}

var _ frame.Renderer = (*Renderer)(nil)

// New builds everything needed to draw: instance, surface, device, sync
// objects, vertex buffer, swapchain, render pass, pipeline. On error the
// partially built renderer is torn down.
func New(cfg config.Config, window *Window) (*Renderer, error) {
	r := &Renderer{cfg: cfg, window: window}
	steps := []struct {
		name string
		fn   func() error
	}{
		{"create instance", r.createInstance},
		{"create surface", r.createSurface},
		{"select physical device", r.selectPhysicalDevice},
		{"create device", r.createDevice},
		{"create command pool", r.createCommandPool},
		{"create sync objects", r.createSyncObjects},
		{"create vertex buffer", r.createVertexBuffer},
		{"create swapchain", r.buildSwapchain},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			r.Close()
			return nil, errors.Wrap(err, step.name)
		}
	}
	return r, nil
}

// check turns a failed vks result into an error naming the call.
func check(result vks.Result, call string) error {
	if result.IsError() {
		return errors.Wrap(result.AsErr(), call)
	}
	return nil
}

// RecreateSwapchain implements frame.Renderer. A zero sized framebuffer
// reports frame.ErrUnsupportedDimensions so the loop waits for a resize.
func (r *Renderer) RecreateSwapchain(_ context.Context) error {
	width, height := r.window.FramebufferSize()
	if width == 0 || height == 0 {
		return errors.Wrapf(frame.ErrUnsupportedDimensions, "framebuffer is %dx%d", width, height)
	}
	if err := check(r.device.DeviceWaitIdle(), "vkDeviceWaitIdle"); err != nil {
		return err
	}
	if err := r.buildSwapchain(); err != nil {
		return err
	}
	Logger().Info("swapchain rebuilt",
		"width", r.swapchainExtent.Width(),
		"height", r.swapchainExtent.Height(),
		"images", len(r.swapchainImgs))
	return nil
}

// buildSwapchain creates (or replaces) the swapchain and everything sized by
// it. The render pass and pipeline only get rebuilt if the surface format
// changed.
func (r *Renderer) buildSwapchain() error {
	if err := r.createSwapchain(); err != nil {
		if errors.Is(err, present.ErrZeroExtent) {
			return errors.Wrap(frame.ErrUnsupportedDimensions, err.Error())
		}
		return err
	}
	if r.pipeline == vks.NullPipeline || r.renderPassFmt != r.swapchainImgFmt {
		r.destroyPipeline()
		if err := r.createRenderPass(); err != nil {
			return err
		}
		if err := r.createPipeline(); err != nil {
			return err
		}
	}
	if err := r.createFramebuffers(); err != nil {
		return err
	}
	r.imagesInFlight = make([]vks.Fence, len(r.swapchainImgs))
	return nil
}

// Close waits for the device to go idle and destroys everything in reverse
// creation order. It is safe on a partially built renderer.
func (r *Renderer) Close() {
	if r.instance.H == vks.NullInstance {
		return
	}
	if r.device.H != vks.NullDevice {
		r.device.DeviceWaitIdle()
		r.destroySwapchain()
		r.destroyPipeline()
		r.destroyVertexBuffer()
		r.destroyCommands()
		r.device.DestroyDevice(nil)
		r.device.H = vks.NullDevice
	}
	if r.surface != vks.NullSurfaceKHR {
		r.instance.DestroySurfaceKHR(r.surface, nil)
		r.surface = vks.NullSurfaceKHR
	}
	r.instance.DestroyInstance(nil)
	r.instance.H = vks.NullInstance
}
