package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const swapchainExt = "VK_KHR_swapchain"

func TestFilterNames(t *testing.T) {
	enabled, missing := FilterNames(
		[]string{"VK_LAYER_KHRONOS_validation", "VK_KHR_surface", "", "VK_KHR_surface", "VK_KHR_portability_enumeration"},
		[]string{"VK_KHR_surface", "VK_KHR_xcb_surface", "VK_LAYER_KHRONOS_validation"},
	)
	assert.Equal(t, []string{"VK_LAYER_KHRONOS_validation", "VK_KHR_surface"}, enabled)
	assert.Equal(t, []string{"VK_KHR_portability_enumeration"}, missing)

	enabled, missing = FilterNames(nil, []string{"a"})
	assert.Empty(t, enabled)
	assert.Empty(t, missing)
}

func TestRequireNames(t *testing.T) {
	got, err := RequireNames([]string{"a", "b"}, []string{"b", "a", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = RequireNames([]string{"a", "z"}, []string{"a"})
	assert.ErrorContains(t, err, "z")
}

func TestSelectQueueFamily(t *testing.T) {
	tests := []struct {
		name     string
		families []QueueFamily
		want     Option[uint32]
	}{
		{"none", nil, None[uint32]()},
		{"graphics only", []QueueFamily{{Index: 0, Graphics: true}}, None[uint32]()},
		{"split", []QueueFamily{{Index: 0, Graphics: true}, {Index: 1, Present: true}}, None[uint32]()},
		{"second", []QueueFamily{{Index: 0, Present: true}, {Index: 1, Graphics: true, Present: true}}, Some[uint32](1)},
		{"first wins", []QueueFamily{{Index: 2, Graphics: true, Present: true}, {Index: 3, Graphics: true, Present: true}}, Some[uint32](2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectQueueFamily(tt.families))
		})
	}
}

func device(index int, name string, typ DeviceType, exts ...string) Device {
	return Device{
		Index:         index,
		Name:          name,
		Type:          typ,
		QueueFamilies: []QueueFamily{{Index: 0, Graphics: true, Present: true}},
		Extensions:    exts,
	}
}

func names(devices []Device) []string {
	var out []string
	for _, d := range devices {
		out = append(out, d.Name)
	}
	return out
}

func TestRankDevices(t *testing.T) {
	headless := device(4, "headless", DeviceTypeDiscrete, swapchainExt)
	headless.QueueFamilies[0].Present = false

	devices := []Device{
		device(0, "llvmpipe", DeviceTypeCPU, swapchainExt),
		device(1, "intel", DeviceTypeIntegrated, swapchainExt),
		device(2, "nvidia", DeviceTypeDiscrete, swapchainExt),
		device(3, "noswap", DeviceTypeDiscrete),
		headless,
		device(5, "amd", DeviceTypeDiscrete, swapchainExt),
		device(6, "mystery", DeviceTypeOther, swapchainExt),
	}
	got := RankDevices(devices, []string{swapchainExt})
	assert.Equal(t, []string{"nvidia", "amd", "intel", "llvmpipe", "mystery"}, names(got))
}

func TestPickDevice(t *testing.T) {
	devices := []Device{
		device(0, "intel", DeviceTypeIntegrated, swapchainExt),
		device(1, "nvidia", DeviceTypeDiscrete, swapchainExt),
		device(2, "noswap", DeviceTypeDiscrete),
	}
	required := []string{swapchainExt}

	d, err := PickDevice(devices, required, -1)
	require.NoError(t, err)
	assert.Equal(t, "nvidia", d.Name)

	d, err = PickDevice(devices, required, 0)
	require.NoError(t, err)
	assert.Equal(t, "intel", d.Name)

	// Unusable or unknown indexes fall back to the best ranked device.
	for _, preferred := range []int{2, 7} {
		d, err = PickDevice(devices, required, preferred)
		require.NoError(t, err, "preferred %d", preferred)
		assert.Equal(t, "nvidia", d.Name, "preferred %d", preferred)
	}

	_, err = PickDevice(devices[2:], required, 2)
	assert.Equal(t, ErrNoDevice, err)

	_, err = PickDevice(nil, required, -1)
	assert.Equal(t, ErrNoDevice, err)
}

func TestPickDeviceWithoutPresentQueue(t *testing.T) {
	headless := device(0, "headless", DeviceTypeDiscrete, swapchainExt)
	headless.QueueFamilies = []QueueFamily{
		{Index: 0, Graphics: true},
		{Index: 1, Present: true},
	}

	_, err := PickDevice([]Device{headless}, []string{swapchainExt}, 0)
	assert.Equal(t, ErrNoQueueFamily, err)
}

func TestFindMemoryType(t *testing.T) {
	const (
		deviceLocal  = 0x1
		hostVisible  = 0x2
		hostCoherent = 0x4
	)
	types := []uint32{
		deviceLocal,
		hostVisible,
		hostVisible | hostCoherent,
		deviceLocal | hostVisible | hostCoherent,
	}

	assert.Equal(t, Some[uint32](2), FindMemoryType(0xF, hostVisible|hostCoherent, types))
	assert.Equal(t, Some[uint32](3), FindMemoryType(0x9, hostVisible|hostCoherent, types))
	assert.Equal(t, Some[uint32](0), FindMemoryType(0xF, deviceLocal, types))
	assert.False(t, FindMemoryType(0x3, hostCoherent, types).IsSet())
	assert.False(t, FindMemoryType(0xF, hostVisible, nil).IsSet())
}

func TestOption(t *testing.T) {
	o := Some("x")
	assert.True(t, o.IsSet())
	assert.Equal(t, "x", o.Some())

	n := None[string]()
	assert.False(t, n.IsSet())
	assert.Equal(t, "fallback", n.SomeOr(func() string { return "fallback" }))
	assert.Panics(t, func() { n.Some() })
}

func TestDeviceTypeString(t *testing.T) {
	assert.Equal(t, "DiscreteGpu", DeviceTypeDiscrete.String())
	assert.Equal(t, "Cpu", DeviceTypeCPU.String())
	assert.Equal(t, "DeviceType(42)", DeviceType(42).String())
}
