package gpu

import (
	"path/filepath"

	"github.com/ibd1279/vks"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/geometry"
	"github.com/ibd1279/vks-examples/vertex-triangle/internal/shader"
)

const (
	vertexShaderFile   = "triangle.vert.spv"
	fragmentShaderFile = "triangle.frag.spv"
)

// writeRGBA lets the fragment shader write every channel, unblended.
const writeRGBA = vks.ColorComponentFlags(vks.VK_COLOR_COMPONENT_R_BIT |
	vks.VK_COLOR_COMPONENT_G_BIT |
	vks.VK_COLOR_COMPONENT_B_BIT |
	vks.VK_COLOR_COMPONENT_A_BIT)

// colorAttachment is the swapchain image: cleared on load, kept on store and
// handed to the presentation engine at the end of the pass.
func colorAttachment(format vks.Format) vks.AttachmentDescription {
	return vks.AttachmentDescription{}.
		WithFormat(format).
		WithSamples(vks.VK_SAMPLE_COUNT_1_BIT).
		WithLoadOp(vks.VK_ATTACHMENT_LOAD_OP_CLEAR).
		WithStoreOp(vks.VK_ATTACHMENT_STORE_OP_STORE).
		WithStencilLoadOp(vks.VK_ATTACHMENT_LOAD_OP_DONT_CARE).
		WithStencilStoreOp(vks.VK_ATTACHMENT_STORE_OP_DONT_CARE).
		WithInitialLayout(vks.VK_IMAGE_LAYOUT_UNDEFINED).
		WithFinalLayout(vks.VK_IMAGE_LAYOUT_PRESENT_SRC_KHR)
}

// acquireDependency holds the color write until the acquired image is ready,
// matching the stage the submit waits on.
func acquireDependency() vks.SubpassDependency {
	colorOutput := vks.PipelineStageFlags(vks.VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT)
	return vks.SubpassDependency{}.
		WithSrcSubpass(vks.VK_SUBPASS_EXTERNAL).
		WithDstSubpass(0).
		WithSrcStageMask(colorOutput).
		WithDstStageMask(colorOutput).
		WithDstAccessMask(vks.AccessFlags(vks.VK_ACCESS_COLOR_ATTACHMENT_WRITE_BIT))
}

// createRenderPass makes a single subpass render pass over the swapchain
// image and records the format it was built for.
func (r *Renderer) createRenderPass() error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	attachments := vks.AttachmentDescriptionCSlice(arp, colorAttachment(r.swapchainImgFmt))
	colorAttachments := vks.AttachmentReferenceCSlice(arp,
		vks.AttachmentReference{}.
			WithAttachment(0).
			WithLayout(vks.VK_IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL),
	)
	subpasses := vks.SubpassDescriptionCSlice(arp,
		vks.SubpassDescription{}.
			WithPipelineBindPoint(vks.VK_PIPELINE_BIND_POINT_GRAPHICS).
			WithPColorAttachments(colorAttachments),
	)
	dependencies := vks.SubpassDependencyCSlice(arp, acquireDependency())

	renderPassCreateInfo := vks.CPtr(arp, &vks.RenderPassCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.RenderPassCreateInfo) {
			in.SetPAttachments(attachments)
			in.SetPSubpasses(subpasses)
			in.SetPDependencies(dependencies)
		},
	)

	var renderPass vks.RenderPass
	if err := check(r.device.CreateRenderPass(renderPassCreateInfo, nil, &renderPass), "vkCreateRenderPass"); err != nil {
		return err
	}
	r.renderPass = renderPass
	r.renderPassFmt = r.swapchainImgFmt
	return nil
}

func (r *Renderer) createShaderModule(name string) (vks.ShaderModule, error) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	words, err := shader.Load(filepath.Join(r.cfg.Render.ShaderDir, name))
	if err != nil {
		return vks.NullShaderModule, err
	}
	createInfo := vks.CPtr(arp, &vks.ShaderModuleCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.ShaderModuleCreateInfo) {
			in.SetCodeSize(words.Sizeof())
			in.SetPCode(words)
		},
	)

	var module vks.ShaderModule
	err = check(r.device.CreateShaderModule(createInfo, nil, &module), "vkCreateShaderModule")
	return module, err
}

// createPipeline compiles the triangle pipeline. Viewport and scissor are
// dynamic so a resize doesn't need a new pipeline.
func (r *Renderer) createPipeline() error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	layoutInfo := vks.CPtr(arp, &vks.PipelineLayoutCreateInfo{},
		vks.SetDefaultSType,
	)
	var layout vks.PipelineLayout
	if err := check(r.device.CreatePipelineLayout(layoutInfo, nil, &layout), "vkCreatePipelineLayout"); err != nil {
		return err
	}
	r.pipelineLayout = layout

	vertModule, err := r.createShaderModule(vertexShaderFile)
	if err != nil {
		return err
	}
	defer r.device.DestroyShaderModule(vertModule, nil)

	fragModule, err := r.createShaderModule(fragmentShaderFile)
	if err != nil {
		return err
	}
	defer r.device.DestroyShaderModule(fragModule, nil)

	name := vks.NewCStr(arp, "main")
	stages := vks.PipelineShaderStageCreateInfoCSlice(arp,
		vks.PipelineShaderStageCreateInfo{}.
			WithDefaultSType().
			WithStage(vks.VK_SHADER_STAGE_VERTEX_BIT).
			WithModule(vertModule).
			WithPName(name),
		vks.PipelineShaderStageCreateInfo{}.
			WithDefaultSType().
			WithStage(vks.VK_SHADER_STAGE_FRAGMENT_BIT).
			WithModule(fragModule).
			WithPName(name),
	)

	bindings := vks.VertexInputBindingDescriptionCSlice(arp,
		vks.VertexInputBindingDescription{}.
			WithBinding(geometry.Binding).
			WithStride(geometry.Stride).
			WithInputRate(vks.VK_VERTEX_INPUT_RATE_VERTEX),
	)
	attributes := vks.VertexInputAttributeDescriptionCSlice(arp,
		vks.VertexInputAttributeDescription{}.
			WithLocation(geometry.PositionLocation).
			WithBinding(geometry.Binding).
			WithFormat(vks.VK_FORMAT_R32G32_SFLOAT).
			WithOffset(geometry.PositionOffset),
	)
	vertexInputState := vks.CPtr(arp, &vks.PipelineVertexInputStateCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.PipelineVertexInputStateCreateInfo) {
			in.SetPVertexBindingDescriptions(bindings)
			in.SetPVertexAttributeDescriptions(attributes)
		},
	)

	inputAssemblyState := vks.CPtr(arp, &vks.PipelineInputAssemblyStateCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.PipelineInputAssemblyStateCreateInfo) {
			in.SetTopology(vks.VK_PRIMITIVE_TOPOLOGY_TRIANGLE_LIST)
			in.SetPrimitiveRestartEnable(vks.VK_FALSE)
		},
	)

	viewportState := vks.CPtr(arp, &vks.PipelineViewportStateCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.PipelineViewportStateCreateInfo) {
			in.SetViewportCount(1)
			in.SetScissorCount(1)
		},
	)

	dynamicState := vks.CPtr(arp, &vks.PipelineDynamicStateCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.PipelineDynamicStateCreateInfo) {
			in.SetPDynamicStates([]vks.DynamicState{
				vks.VK_DYNAMIC_STATE_VIEWPORT,
				vks.VK_DYNAMIC_STATE_SCISSOR,
			})
		},
	)

	rasterizationState := vks.CPtr(arp, &vks.PipelineRasterizationStateCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.PipelineRasterizationStateCreateInfo) {
			in.SetDepthClampEnable(vks.VK_FALSE)
			in.SetRasterizerDiscardEnable(vks.VK_FALSE)
			in.SetPolygonMode(vks.VK_POLYGON_MODE_FILL)
			in.SetLineWidth(1.0)
			in.SetCullMode(vks.CullModeFlags(vks.VK_CULL_MODE_NONE))
			in.SetFrontFace(vks.VK_FRONT_FACE_CLOCKWISE)
			in.SetDepthBiasEnable(vks.VK_FALSE)
		},
	)

	multisampleState := vks.CPtr(arp, &vks.PipelineMultisampleStateCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.PipelineMultisampleStateCreateInfo) {
			in.SetSampleShadingEnable(vks.VK_FALSE)
			in.SetRasterizationSamples(vks.VK_SAMPLE_COUNT_1_BIT)
		},
	)

	colorBlendAttachmentState := vks.PipelineColorBlendAttachmentStateCSlice(arp,
		vks.PipelineColorBlendAttachmentState{}.
			WithColorWriteMask(writeRGBA).
			WithBlendEnable(vks.VK_FALSE),
	)

	colorBlendState := vks.CPtr(arp, &vks.PipelineColorBlendStateCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.PipelineColorBlendStateCreateInfo) {
			in.SetLogicOpEnable(vks.VK_FALSE)
			in.SetLogicOp(vks.VK_LOGIC_OP_COPY)
			in.SetPAttachments(colorBlendAttachmentState)
		},
	)

	pipelineCreateInfos := vks.GraphicsPipelineCreateInfoCSlice(arp,
		vks.GraphicsPipelineCreateInfo{}.
			WithDefaultSType().
			WithPStages(stages).
			WithPVertexInputState(vertexInputState).
			WithPInputAssemblyState(inputAssemblyState).
			WithPViewportState(viewportState).
			WithPRasterizationState(rasterizationState).
			WithPMultisampleState(multisampleState).
			WithPColorBlendState(colorBlendState).
			WithPDynamicState(dynamicState).
			WithLayout(r.pipelineLayout).
			WithRenderPass(r.renderPass),
	)

	pipelines := make([]vks.Pipeline, len(pipelineCreateInfos))
	result := r.device.CreateGraphicsPipelines(
		vks.NullPipelineCache,
		uint32(len(pipelineCreateInfos)),
		pipelineCreateInfos,
		nil,
		pipelines)
	if err := check(result, "vkCreateGraphicsPipelines"); err != nil {
		return err
	}
	r.pipeline = pipelines[0]
	return nil
}

// destroyPipeline releases the pipeline, its layout and the render pass.
func (r *Renderer) destroyPipeline() {
	if r.pipeline != vks.NullPipeline {
		r.device.DestroyPipeline(r.pipeline, nil)
		r.pipeline = vks.NullPipeline
	}
	if r.pipelineLayout != vks.NullPipelineLayout {
		r.device.DestroyPipelineLayout(r.pipelineLayout, nil)
		r.pipelineLayout = vks.NullPipelineLayout
	}
	if r.renderPass != vks.NullRenderPass {
		r.device.DestroyRenderPass(r.renderPass, nil)
		r.renderPass = vks.NullRenderPass
	}
}
