package gpu

import (
	"unsafe"

	"github.com/ibd1279/vks"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/adapter"
	"github.com/ibd1279/vks-examples/vertex-triangle/internal/geometry"
)

// memoryTypeFlags lists the property flags of every memory type the
// physical device exposes, indexed by memory type.
func (r *Renderer) memoryTypeFlags() []uint32 {
	var props vks.PhysicalDeviceMemoryProperties
	r.physicalDevice.GetPhysicalDeviceMemoryProperties(&props)

	memoryTypes := props.MemoryTypes()
	flags := make([]uint32, props.MemoryTypeCount())
	for k := range flags {
		flags[k] = uint32(memoryTypes[k].PropertyFlags())
	}
	return flags
}

// createVertexBuffer uploads the triangle into host visible memory. The
// data never changes afterwards, so it is written once and unmapped.
func (r *Renderer) createVertexBuffer() error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	vertices := geometry.Triangle()
	data := geometry.Encode(vertices)
	size := vks.DeviceSize(len(data))

	bufferCreateInfo := vks.CPtr(arp, &vks.BufferCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.BufferCreateInfo) {
			in.SetSize(size)
			in.SetUsage(vks.BufferUsageFlags(vks.VK_BUFFER_USAGE_VERTEX_BUFFER_BIT))
			in.SetSharingMode(vks.VK_SHARING_MODE_EXCLUSIVE)
		},
	)
	var buffer vks.Buffer
	if err := check(r.device.CreateBuffer(bufferCreateInfo, nil, &buffer), "vkCreateBuffer"); err != nil {
		return err
	}
	r.vertexBuffer = buffer

	var requirements vks.MemoryRequirements
	r.device.GetBufferMemoryRequirements(buffer, &requirements)

	wanted := uint32(vks.VK_MEMORY_PROPERTY_HOST_VISIBLE_BIT | vks.VK_MEMORY_PROPERTY_HOST_COHERENT_BIT)
	memoryType := adapter.FindMemoryType(requirements.MemoryTypeBits(), wanted, r.memoryTypeFlags())
	if !memoryType.IsSet() {
		return errors.New("no host visible, coherent memory type for the vertex buffer")
	}

	allocInfo := vks.CPtr(arp, &vks.MemoryAllocateInfo{},
		vks.SetDefaultSType,
		func(in *vks.MemoryAllocateInfo) {
			in.SetAllocationSize(requirements.Size())
			in.SetMemoryTypeIndex(memoryType.Some())
		},
	)
	var memory vks.DeviceMemory
	if err := check(r.device.AllocateMemory(allocInfo, nil, &memory), "vkAllocateMemory"); err != nil {
		return err
	}
	r.vertexMemory = memory

	if err := check(r.device.BindBufferMemory(buffer, memory, 0), "vkBindBufferMemory"); err != nil {
		return err
	}

	var mapped unsafe.Pointer
	if err := check(r.device.MapMemory(memory, 0, size, 0, &mapped), "vkMapMemory"); err != nil {
		return err
	}
	copy(unsafe.Slice((*byte)(mapped), len(data)), data)
	r.device.UnmapMemory(memory)

	r.vertexCount = uint32(len(vertices))
	Logger().Debug("vertex buffer created",
		"vertices", r.vertexCount,
		"bytes", len(data),
		"memoryType", memoryType.Some())
	return nil
}

func (r *Renderer) destroyVertexBuffer() {
	if r.vertexBuffer != vks.NullBuffer {
		r.device.DestroyBuffer(r.vertexBuffer, nil)
		r.vertexBuffer = vks.NullBuffer
	}
	if r.vertexMemory != vks.NullDeviceMemory {
		r.device.FreeMemory(r.vertexMemory, nil)
		r.vertexMemory = vks.NullDeviceMemory
	}
}
