package gpu

import (
	"github.com/ibd1279/vks"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/adapter"
)

// describeDevice collects what the selection policy needs to know about a
// physical device, logging the details along the way.
func (r *Renderer) describeDevice(index int, phyDev vks.PhysicalDeviceFacade) (adapter.Device, error) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	driverProps := vks.CPtr(arp, &vks.PhysicalDeviceDriverProperties{},
		vks.SetDefaultSType,
	)
	props := vks.CPtr(arp, &vks.PhysicalDeviceProperties2{},
		vks.SetDefaultSType,
		vks.SetPNext[*vks.PhysicalDeviceProperties2](driverProps),
	)
	phyDev.GetPhysicalDeviceProperties2(props)

	desc := adapter.Device{
		Index: index,
		Name:  vks.ToString(props.Properties().DeviceName()),
		Type:  adapter.DeviceType(props.Properties().DeviceType()),
	}
	Logger().Info("physical device",
		"index", index,
		"name", desc.Name,
		"type", desc.Type,
		"api", vks.ApiVersion(props.Properties().ApiVersion()),
		"driver", vks.ToString(driverProps.DriverName()),
		"driverInfo", vks.ToString(driverProps.DriverInfo()))

	var count uint32
	phyDev.GetPhysicalDeviceQueueFamilyProperties2(&count, nil)
	queueFamProps := make([]vks.QueueFamilyProperties2, count)
	for k, v := range queueFamProps {
		queueFamProps[k] = v.WithDefaultSType()
	}
	phyDev.GetPhysicalDeviceQueueFamilyProperties2(&count, queueFamProps)

	for k, v := range queueFamProps[:count] {
		qfp := v.QueueFamilyProperties()
		family := adapter.QueueFamily{
			Index:    uint32(k),
			Graphics: qfp.QueueFlags()&vks.QueueFlags(vks.VK_QUEUE_GRAPHICS_BIT) != 0,
		}
		var presentSupport vks.Bool32
		result := phyDev.GetPhysicalDeviceSurfaceSupportKHR(family.Index, r.surface, &presentSupport)
		if err := check(result, "vkGetPhysicalDeviceSurfaceSupportKHR"); err != nil {
			return desc, err
		}
		family.Present = presentSupport.IsTrue()
		Logger().Debug("queue family",
			"device", index, "family", k,
			"graphics", family.Graphics, "present", family.Present,
			"queues", qfp.QueueCount())
		desc.QueueFamilies = append(desc.QueueFamilies, family)
	}

	ln := vks.NewCStr(arp, "")
	result := phyDev.EnumerateDeviceExtensionProperties(ln, &count, nil)
	if err := check(result, "vkEnumerateDeviceExtensionProperties"); err != nil {
		return desc, err
	}
	extProps := make([]vks.ExtensionProperties, count)
	result = phyDev.EnumerateDeviceExtensionProperties(ln, &count, extProps)
	if err := check(result, "vkEnumerateDeviceExtensionProperties"); err != nil {
		return desc, err
	}
	for _, ext := range extProps[:count] {
		desc.Extensions = append(desc.Extensions, vks.ToString(ext.ExtensionName()))
	}
	return desc, nil
}

func (r *Renderer) selectPhysicalDevice() error {
	var count uint32
	result := r.instance.EnumeratePhysicalDevices(&count, nil)
	if err := check(result, "vkEnumeratePhysicalDevices"); err != nil {
		return err
	}
	if count == 0 {
		return adapter.ErrNoDevice
	}
	physicalDevices := make([]vks.PhysicalDevice, count)
	result = r.instance.EnumeratePhysicalDevices(&count, physicalDevices)
	if err := check(result, "vkEnumeratePhysicalDevices"); err != nil {
		return err
	}

	candidates := make([]adapter.Device, 0, count)
	for k, h := range physicalDevices[:count] {
		desc, err := r.describeDevice(k, r.instance.MakePhysicalDeviceFacade(h))
		if err != nil {
			return errors.Wrapf(err, "describe device %d", k)
		}
		candidates = append(candidates, desc)
	}

	chosen, err := adapter.PickDevice(candidates, []string{swapchainExtension}, r.cfg.Vulkan.Device)
	if err != nil {
		return err
	}
	if preferred := r.cfg.Vulkan.Device; preferred >= 0 && chosen.Index != preferred {
		Logger().Warn("requested device can't be used, falling back",
			"requested", preferred,
			"using", chosen.Index)
	}
	queueIndex := adapter.SelectQueueFamily(chosen.QueueFamilies)
	if !queueIndex.IsSet() {
		return errors.Wrapf(adapter.ErrNoQueueFamily, "device %d (%s)", chosen.Index, chosen.Name)
	}
	r.physicalDevice = r.instance.MakePhysicalDeviceFacade(physicalDevices[chosen.Index])
	r.queueIndex = queueIndex.Some()

	Logger().Info("using device",
		"name", chosen.Name,
		"type", chosen.Type,
		"queueFamily", r.queueIndex)

	enabled, _ := adapter.FilterNames(
		append([]string{swapchainExtension}, r.cfg.Vulkan.DeviceExtensions...),
		chosen.Extensions,
	)
	r.deviceExtensions = enabled
	return nil
}

// createDevice makes the logical device with a single queue used for both
// drawing and presentation.
func (r *Renderer) createDevice() error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	queueCreateInfos := vks.DeviceQueueCreateInfoCSlice(arp,
		vks.DeviceQueueCreateInfo{}.
			WithDefaultSType().
			WithQueueFamilyIndex(r.queueIndex).
			WithPQueuePriorities([]float32{1.0}),
	)

	deviceCreateInfo := vks.CPtr(arp, &vks.DeviceCreateInfo{},
		vks.SetDefaultSType,
		vks.SetDeviceExtensions(arp, r.deviceExtensions),
		func(in *vks.DeviceCreateInfo) {
			in.SetPQueueCreateInfos(queueCreateInfos)
		},
	)

	var vkDevice vks.Device
	if err := check(r.physicalDevice.CreateDevice(deviceCreateInfo, nil, &vkDevice), "vkCreateDevice"); err != nil {
		return err
	}
	r.device = r.physicalDevice.MakeDeviceFacade(vkDevice)

	var queue vks.Queue
	r.device.GetDeviceQueue(r.queueIndex, 0, &queue)
	r.queue = r.device.MakeQueueFacade(queue)

	Logger().Debug("device created", "extensions", r.deviceExtensions)
	return nil
}
