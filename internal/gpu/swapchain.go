package gpu

import (
	"github.com/ibd1279/vks"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/present"
)

// surfaceSupport is what the surface reports, with the parts the policy
// reads converted into the present package's terms.
type surfaceSupport struct {
	vkCaps  vks.SurfaceCapabilitiesKHR
	caps    present.Capabilities
	formats []vks.SurfaceFormatKHR
	modes   []present.Mode
}

func (r *Renderer) querySurface() (surfaceSupport, error) {
	var support surfaceSupport
	result := r.physicalDevice.GetPhysicalDeviceSurfaceCapabilitiesKHR(r.surface, &support.vkCaps)
	if err := check(result, "vkGetPhysicalDeviceSurfaceCapabilitiesKHR"); err != nil {
		return support, err
	}

	var count uint32
	r.physicalDevice.GetPhysicalDeviceSurfaceFormatsKHR(r.surface, &count, nil)
	formats := make([]vks.SurfaceFormatKHR, count)
	result = r.physicalDevice.GetPhysicalDeviceSurfaceFormatsKHR(r.surface, &count, formats)
	if err := check(result, "vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
		return support, err
	}
	support.formats = formats[:count]

	r.physicalDevice.GetPhysicalDeviceSurfacePresentModesKHR(r.surface, &count, nil)
	vkModes := make([]vks.PresentModeKHR, count)
	result = r.physicalDevice.GetPhysicalDeviceSurfacePresentModesKHR(r.surface, &count, vkModes)
	if err := check(result, "vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
		return support, err
	}
	for _, m := range vkModes[:count] {
		support.modes = append(support.modes, present.Mode(m))
	}

	support.caps = present.Capabilities{
		MinImageCount:  support.vkCaps.MinImageCount(),
		MaxImageCount:  support.vkCaps.MaxImageCount(),
		CurrentExtent:  extentOf(support.vkCaps.CurrentExtent()),
		MinImageExtent: extentOf(support.vkCaps.MinImageExtent()),
		MaxImageExtent: extentOf(support.vkCaps.MaxImageExtent()),
		CompositeAlpha: uint32(support.vkCaps.SupportedCompositeAlpha()),
	}
	return support, nil
}

func extentOf(e vks.Extent2D) present.Extent {
	return present.Extent{Width: e.Width(), Height: e.Height()}
}

// createSwapchain builds a swapchain for the current window size, handing
// over the previous one if there is one, then recreates the image views.
func (r *Renderer) createSwapchain() error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	support, err := r.querySurface()
	if err != nil {
		return err
	}

	plain := make([]present.SurfaceFormat, len(support.formats))
	for k, f := range support.formats {
		plain[k] = present.SurfaceFormat{
			Format:     present.Format(f.Format()),
			ColorSpace: present.ColorSpace(f.ColorSpace()),
		}
	}
	selectedFormat, err := present.ChooseFormat(plain)
	if err != nil {
		return err
	}
	selectedMode := present.ChoosePresentMode(support.modes, r.cfg.PresentMode())
	width, height := r.window.FramebufferSize()
	extent, err := present.ChooseExtent(support.caps, width, height)
	if err != nil {
		return err
	}
	alpha, err := present.ChooseCompositeAlpha(support.caps.CompositeAlpha)
	if err != nil {
		return err
	}
	imageCount := present.ChooseImageCount(support.caps)

	selectedExtent := vks.Extent2D{}.
		WithWidth(extent.Width).
		WithHeight(extent.Height)

	oldSwapchain := r.swapchain
	swapchainCreateInfo := vks.CPtr(arp, &vks.SwapchainCreateInfoKHR{},
		vks.SetDefaultSType,
		func(in *vks.SwapchainCreateInfoKHR) {
			in.SetSurface(r.surface)
			in.SetMinImageCount(imageCount)
			in.SetImageFormat(vks.Format(selectedFormat.Format))
			in.SetImageColorSpace(vks.ColorSpaceKHR(selectedFormat.ColorSpace))
			in.SetImageExtent(selectedExtent)
			in.SetImageArrayLayers(1)
			in.SetImageUsage(vks.ImageUsageFlags(vks.VK_IMAGE_USAGE_COLOR_ATTACHMENT_BIT))
			in.SetImageSharingMode(vks.VK_SHARING_MODE_EXCLUSIVE)
			in.SetPreTransform(support.vkCaps.CurrentTransform())
			in.SetCompositeAlpha(vks.CompositeAlphaFlagBitsKHR(alpha))
			in.SetPresentMode(vks.PresentModeKHR(selectedMode))
			in.SetClipped(vks.VK_TRUE)
			in.SetOldSwapchain(oldSwapchain)
		},
	)

	var swapchain vks.SwapchainKHR
	if err := check(r.device.CreateSwapchainKHR(swapchainCreateInfo, nil, &swapchain), "vkCreateSwapchainKHR"); err != nil {
		return err
	}

	// The old swapchain is retired; nothing sized by it survives.
	r.destroySwapchain()

	var count uint32
	r.device.GetSwapchainImagesKHR(swapchain, &count, nil)
	images := make([]vks.Image, count)
	result := r.device.GetSwapchainImagesKHR(swapchain, &count, images)

	r.swapchain = swapchain
	r.swapchainImgs = images[:count]
	r.swapchainImgFmt = vks.Format(selectedFormat.Format)
	r.swapchainExtent = selectedExtent
	if err := check(result, "vkGetSwapchainImagesKHR"); err != nil {
		return err
	}

	Logger().Debug("swapchain created",
		"images", count,
		"width", extent.Width,
		"height", extent.Height,
		"format", selectedFormat.Format,
		"presentMode", selectedMode.String())

	imageViews := make([]vks.ImageView, 0, len(r.swapchainImgs))
	for _, img := range r.swapchainImgs {
		imgViewCreateInfo := vks.CPtr(arp, &vks.ImageViewCreateInfo{},
			vks.SetDefaultSType,
			func(in *vks.ImageViewCreateInfo) {
				in.SetImage(img)
				in.SetViewType(vks.VK_IMAGE_VIEW_TYPE_2D)
				in.SetFormat(r.swapchainImgFmt)
				in.SetSubresourceRange(vks.ImageSubresourceRange{}.
					WithAspectMask(vks.ImageAspectFlags(vks.VK_IMAGE_ASPECT_COLOR_BIT)).
					WithLevelCount(1).
					WithLayerCount(1))
			},
		)
		var view vks.ImageView
		result := r.device.CreateImageView(imgViewCreateInfo, nil, &view)
		if err := check(result, "vkCreateImageView"); err != nil {
			r.swapchainImgViews = imageViews
			return err
		}
		imageViews = append(imageViews, view)
	}
	r.swapchainImgViews = imageViews
	return nil
}

// createFramebuffers makes one framebuffer per swapchain image view.
func (r *Renderer) createFramebuffers() error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	buffers := make([]vks.Framebuffer, 0, len(r.swapchainImgViews))
	defer func() { r.swapchainFramebuffers = buffers }()

	for _, imgView := range r.swapchainImgViews {
		bufferCreateInfo := vks.CPtr(arp, &vks.FramebufferCreateInfo{},
			vks.SetDefaultSType,
			func(in *vks.FramebufferCreateInfo) {
				in.SetRenderPass(r.renderPass)
				in.SetPAttachments([]vks.ImageView{imgView})
				in.SetWidth(r.swapchainExtent.Width())
				in.SetHeight(r.swapchainExtent.Height())
				in.SetLayers(1)
			},
		)

		var fb vks.Framebuffer
		if err := check(r.device.CreateFramebuffer(bufferCreateInfo, nil, &fb), "vkCreateFramebuffer"); err != nil {
			return err
		}
		buffers = append(buffers, fb)
	}
	return nil
}

// destroySwapchain releases the framebuffers, image views and swapchain.
func (r *Renderer) destroySwapchain() {
	for _, fb := range r.swapchainFramebuffers {
		r.device.DestroyFramebuffer(fb, nil)
	}
	r.swapchainFramebuffers = nil
	for _, imgView := range r.swapchainImgViews {
		r.device.DestroyImageView(imgView, nil)
	}
	r.swapchainImgViews = nil
	if r.swapchain != vks.NullSwapchainKHR {
		r.device.DestroySwapchainKHR(r.swapchain, nil)
	}
	r.swapchain = vks.NullSwapchainKHR
	r.swapchainImgs = nil
}
