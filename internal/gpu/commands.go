package gpu

import (
	"context"
	"math"
	"time"

	"github.com/ibd1279/vks"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/frame"
)

// fenceTimeout bounds a single fence wait so a cancelled context is noticed.
const fenceTimeout = uint64(100 * time.Millisecond)

// createCommandPool makes a pool whose buffers can be reset one at a time
// and allocates one primary buffer per frame slot.
func (r *Renderer) createCommandPool() error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	poolCreateInfo := vks.CPtr(arp, &vks.CommandPoolCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.CommandPoolCreateInfo) {
			in.SetQueueFamilyIndex(r.queueIndex)
			in.SetFlags(vks.CommandPoolCreateFlags(vks.VK_COMMAND_POOL_CREATE_RESET_COMMAND_BUFFER_BIT))
		},
	)
	var commandPool vks.CommandPool
	if err := check(r.device.CreateCommandPool(poolCreateInfo, nil, &commandPool), "vkCreateCommandPool"); err != nil {
		return err
	}
	r.commandPool = r.device.MakeCommandPoolFacade(commandPool)

	slots := r.cfg.Vulkan.FramesInFlight
	bufferAllocInfo := vks.CPtr(arp, &vks.CommandBufferAllocateInfo{},
		vks.SetDefaultSType,
		func(in *vks.CommandBufferAllocateInfo) {
			in.SetCommandPool(r.commandPool.H)
			in.SetLevel(vks.VK_COMMAND_BUFFER_LEVEL_PRIMARY)
			in.SetCommandBufferCount(uint32(slots))
		},
	)
	cmdBuffers := make([]vks.CommandBuffer, slots)
	if err := check(r.device.AllocateCommandBuffers(bufferAllocInfo, cmdBuffers), "vkAllocateCommandBuffers"); err != nil {
		return err
	}
	r.commandBuffers = cmdBuffers
	return nil
}

// createSyncObjects makes the per slot semaphores and fences. Fences start
// signaled so the first wait on each slot returns immediately.
func (r *Renderer) createSyncObjects() error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	semaphoreCreateInfo := vks.CPtr(arp, &vks.SemaphoreCreateInfo{},
		vks.SetDefaultSType,
	)
	fenceCreateInfo := vks.CPtr(arp, &vks.FenceCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.FenceCreateInfo) {
			in.SetFlags(vks.FenceCreateFlags(vks.VK_FENCE_CREATE_SIGNALED_BIT))
		},
	)

	slots := r.cfg.Vulkan.FramesInFlight
	r.imageAvailableSemaphores = make([]vks.Semaphore, 0, slots)
	r.renderFinishedSemaphores = make([]vks.Semaphore, 0, slots)
	r.inFlightFences = make([]vks.Fence, 0, slots)
	for h := 0; h < slots; h++ {
		var imgAvail, renderDone vks.Semaphore
		if err := check(r.device.CreateSemaphore(semaphoreCreateInfo, nil, &imgAvail), "vkCreateSemaphore"); err != nil {
			return err
		}
		r.imageAvailableSemaphores = append(r.imageAvailableSemaphores, imgAvail)

		if err := check(r.device.CreateSemaphore(semaphoreCreateInfo, nil, &renderDone), "vkCreateSemaphore"); err != nil {
			return err
		}
		r.renderFinishedSemaphores = append(r.renderFinishedSemaphores, renderDone)

		var fence vks.Fence
		if err := check(r.device.CreateFence(fenceCreateInfo, nil, &fence), "vkCreateFence"); err != nil {
			return err
		}
		r.inFlightFences = append(r.inFlightFences, fence)
	}
	return nil
}

func (r *Renderer) destroyCommands() {
	for _, fence := range r.inFlightFences {
		r.device.DestroyFence(fence, nil)
	}
	r.inFlightFences = nil
	for _, semaphore := range r.renderFinishedSemaphores {
		r.device.DestroySemaphore(semaphore, nil)
	}
	r.renderFinishedSemaphores = nil
	for _, semaphore := range r.imageAvailableSemaphores {
		r.device.DestroySemaphore(semaphore, nil)
	}
	r.imageAvailableSemaphores = nil

	if r.commandPool.H != vks.NullCommandPool {
		if len(r.commandBuffers) > 0 {
			r.device.FreeCommandBuffers(r.commandPool.H,
				uint32(len(r.commandBuffers)),
				r.commandBuffers)
		}
		r.device.DestroyCommandPool(r.commandPool.H, nil)
		r.commandPool.H = vks.NullCommandPool
	}
	r.commandBuffers = nil
	r.imagesInFlight = nil
}

// waitFences blocks until the fence signals, checking ctx between bounded
// waits.
func (r *Renderer) waitFences(ctx context.Context, fences []vks.Fence) error {
	for {
		result := r.device.WaitForFences(1, fences, vks.VK_TRUE, fenceTimeout)
		switch {
		case result == vks.VK_SUCCESS:
			return nil
		case result == vks.VK_TIMEOUT:
			if err := ctx.Err(); err != nil {
				return err
			}
		default:
			return check(result, "vkWaitForFences")
		}
	}
}

// WaitFrame implements frame.Renderer.
func (r *Renderer) WaitFrame(ctx context.Context, slot int) error {
	return r.waitFences(ctx, r.inFlightFences[slot:slot+1])
}

// AcquireImage implements frame.Renderer. Once an image index is known, it
// also waits for any earlier frame still drawing into that image.
func (r *Renderer) AcquireImage(ctx context.Context, slot int) (uint32, bool, error) {
	var imageIndex uint32
	result := r.device.AcquireNextImageKHR(
		r.swapchain,
		math.MaxUint64,
		r.imageAvailableSemaphores[slot],
		vks.NullFence,
		&imageIndex,
	)
	suboptimal, err := acquireOutcome(result)
	if err != nil {
		return 0, false, err
	}

	if r.imagesInFlight[imageIndex] != vks.NullFence {
		if err := r.waitFences(ctx, r.imagesInFlight[imageIndex:imageIndex+1]); err != nil {
			return imageIndex, suboptimal, err
		}
	}
	return imageIndex, suboptimal, nil
}

// RecordCommands implements frame.Renderer. The slot's buffer is rerecorded
// every frame against the framebuffer of the acquired image.
func (r *Renderer) RecordCommands(slot int, image uint32) error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	buffer := r.commandPool.MakeCommandBufferFacade(r.commandBuffers[slot])
	if err := check(buffer.ResetCommandBuffer(0), "vkResetCommandBuffer"); err != nil {
		return err
	}

	beginInfo := vks.CPtr(arp, &vks.CommandBufferBeginInfo{},
		vks.SetDefaultSType,
		func(in *vks.CommandBufferBeginInfo) {
			in.SetFlags(vks.CommandBufferUsageFlags(vks.VK_COMMAND_BUFFER_USAGE_ONE_TIME_SUBMIT_BIT))
		},
	)
	if err := check(buffer.BeginCommandBuffer(beginInfo), "vkBeginCommandBuffer"); err != nil {
		return err
	}

	c := r.cfg.Render.ClearColor
	clearValues := []vks.ClearValue{
		vks.MakeClearColorValueFloat32(c[0], c[1], c[2], c[3]).AsClearValue(),
	}
	renderArea := vks.Rect2D{}.WithExtent(r.swapchainExtent)
	renderPassBeginInfo := vks.CPtr(arp, &vks.RenderPassBeginInfo{},
		vks.SetDefaultSType,
		func(in *vks.RenderPassBeginInfo) {
			in.SetRenderPass(r.renderPass)
			in.SetFramebuffer(r.swapchainFramebuffers[image])
			in.SetRenderArea(renderArea)
			in.SetPClearValues(clearValues)
		},
	)

	viewports := []vks.Viewport{
		vks.Viewport{}.
			WithWidth(float32(r.swapchainExtent.Width())).
			WithHeight(float32(r.swapchainExtent.Height())).
			WithMaxDepth(1.0),
	}
	scissors := []vks.Rect2D{renderArea}

	buffer.CmdBeginRenderPass(renderPassBeginInfo, vks.VK_SUBPASS_CONTENTS_INLINE)
	buffer.CmdBindPipeline(vks.VK_PIPELINE_BIND_POINT_GRAPHICS, r.pipeline)
	buffer.CmdSetViewport(0, 1, viewports)
	buffer.CmdSetScissor(0, 1, scissors)
	buffer.CmdBindVertexBuffers(0, 1, []vks.Buffer{r.vertexBuffer}, []vks.DeviceSize{0})
	buffer.CmdDraw(r.vertexCount, 1, 0, 0)
	buffer.CmdEndRenderPass()

	return check(buffer.EndCommandBuffer(), "vkEndCommandBuffer")
}

// Submit implements frame.Renderer. The slot's fence is reset only here, right
// before the work that will signal it again.
func (r *Renderer) Submit(slot int, image uint32) error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	r.imagesInFlight[image] = r.inFlightFences[slot]

	// The P setters size the count from the slice; only the slot's entry
	// is wanted, so the counts are pinned back to 1 afterwards.
	submitInfos := vks.SubmitInfoCSlice(arp,
		vks.SubmitInfo{}.
			WithDefaultSType().
			WithPWaitSemaphores(r.imageAvailableSemaphores[slot:]).
			WithWaitSemaphoreCount(1).
			WithPWaitDstStageMask([]vks.PipelineStageFlags{
				vks.PipelineStageFlags(vks.VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT),
			}).
			WithPCommandBuffers(r.commandBuffers[slot:]).
			WithCommandBufferCount(1).
			WithPSignalSemaphores(r.renderFinishedSemaphores[slot:]).
			WithSignalSemaphoreCount(1),
	)

	if err := check(r.device.ResetFences(1, r.inFlightFences[slot:]), "vkResetFences"); err != nil {
		return err
	}
	return check(r.queue.QueueSubmit(1, submitInfos, r.inFlightFences[slot]), "vkQueueSubmit")
}

// Present implements frame.Renderer.
func (r *Renderer) Present(slot int, image uint32) (bool, error) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	presentInfo := vks.CPtr(arp, &vks.PresentInfoKHR{},
		vks.SetDefaultSType,
		func(in *vks.PresentInfoKHR) {
			in.SetPWaitSemaphores(r.renderFinishedSemaphores[slot:])
			in.SetWaitSemaphoreCount(1)
			in.SetPSwapchains([]vks.SwapchainKHR{r.swapchain})
			in.SetPImageIndices([]uint32{image})
		},
	)

	return presentOutcome(r.queue.QueuePresentKHR(presentInfo))
}

// acquireOutcome maps the result of vkAcquireNextImageKHR onto the frame
// loop's terms. Only success and suboptimal hand out an image.
func acquireOutcome(result vks.Result) (suboptimal bool, err error) {
	switch {
	case result == vks.VK_SUCCESS:
		return false, nil
	case result == vks.VK_SUBOPTIMAL_KHR:
		return true, nil
	case result == vks.VK_ERROR_OUT_OF_DATE_KHR:
		return false, frame.ErrOutOfDate
	case result.IsError():
		return false, errors.Wrap(result.AsErr(), "vkAcquireNextImageKHR")
	}
	return false, errors.Errorf("vkAcquireNextImageKHR: no image, result %v", result)
}

// presentOutcome maps the result of vkQueuePresentKHR onto the frame loop's
// terms. A lost device is fatal; other failures are frame.ErrPresentFailed.
func presentOutcome(result vks.Result) (suboptimal bool, err error) {
	switch {
	case result == vks.VK_SUBOPTIMAL_KHR:
		return true, nil
	case result == vks.VK_ERROR_OUT_OF_DATE_KHR:
		return false, frame.ErrOutOfDate
	case result == vks.VK_ERROR_DEVICE_LOST:
		return false, errors.Wrap(result.AsErr(), "vkQueuePresentKHR")
	case result.IsError():
		return false, errors.Wrapf(frame.ErrPresentFailed, "vkQueuePresentKHR: %v", result.AsErr())
	}
	return false, nil
}
