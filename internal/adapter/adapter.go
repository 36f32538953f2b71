// Package adapter decides which layers, extensions, physical device, queue
// family and memory type the renderer uses. It works on plain descriptions
// so the policy can be checked without a Vulkan driver.
package adapter

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// DeviceType mirrors VkPhysicalDeviceType.
type DeviceType int32

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegrated
	DeviceTypeDiscrete
	DeviceTypeVirtual
	DeviceTypeCPU
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeIntegrated:
		return "IntegratedGpu"
	case DeviceTypeDiscrete:
		return "DiscreteGpu"
	case DeviceTypeVirtual:
		return "VirtualGpu"
	case DeviceTypeCPU:
		return "Cpu"
	case DeviceTypeOther:
		return "Other"
	}
	return fmt.Sprintf("DeviceType(%d)", int32(t))
}

// rank orders device types, higher is better.
func (t DeviceType) rank() int {
	switch t {
	case DeviceTypeDiscrete:
		return 4
	case DeviceTypeIntegrated:
		return 3
	case DeviceTypeVirtual:
		return 2
	case DeviceTypeCPU:
		return 1
	}
	return 0
}

// QueueFamily describes what one queue family of a device can do.
type QueueFamily struct {
	Index    uint32
	Graphics bool
	Present  bool
}

// Device describes a physical device candidate.
type Device struct {
	Index         int
	Name          string
	Type          DeviceType
	QueueFamilies []QueueFamily
	Extensions    []string
}

var (
	ErrNoDevice      = errors.New("no suitable physical device")
	ErrNoQueueFamily = errors.New("no queue family supports both graphics and presentation")
)

// FilterNames keeps the requested names that are available, in request
// order and without duplicates. The names that are not available are
// returned as missing.
func FilterNames(requested, available []string) (enabled, missing []string) {
	have := make(map[string]bool, len(available))
	for _, name := range available {
		have[name] = true
	}
	seen := make(map[string]bool, len(requested))
	for _, name := range requested {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if have[name] {
			enabled = append(enabled, name)
		} else {
			missing = append(missing, name)
		}
	}
	return enabled, missing
}

// RequireNames is FilterNames for names that must all be present.
func RequireNames(required, available []string) ([]string, error) {
	enabled, missing := FilterNames(required, available)
	if len(missing) > 0 {
		return nil, errors.Errorf("missing required names: %v", missing)
	}
	return enabled, nil
}

// SelectQueueFamily returns the first family that can both draw and present.
// The sample uses a single queue for both.
func SelectQueueFamily(families []QueueFamily) Option[uint32] {
	for _, f := range families {
		if f.Graphics && f.Present {
			return Some(f.Index)
		}
	}
	return None[uint32]()
}

func (d Device) usable(required []string) bool {
	if !SelectQueueFamily(d.QueueFamilies).IsSet() {
		return false
	}
	_, missing := FilterNames(required, d.Extensions)
	return len(missing) == 0
}

// RankDevices returns the usable devices, best first. Discrete GPUs rank
// above integrated, virtual and CPU devices; ties keep enumeration order.
func RankDevices(devices []Device, required []string) []Device {
	ranked := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.usable(required) {
			ranked = append(ranked, d)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Type.rank() > ranked[j].Type.rank()
	})
	return ranked
}

// PickDevice selects the device at preferred when it is usable, otherwise
// the best ranked one. A negative preferred means no preference. Callers can
// compare the result's Index with preferred to tell a fallback happened.
// ErrNoQueueFamily means no device has a family that can both draw and
// present.
func PickDevice(devices []Device, required []string, preferred int) (Device, error) {
	if preferred >= 0 {
		for _, d := range devices {
			if d.Index == preferred && d.usable(required) {
				return d, nil
			}
		}
	}
	ranked := RankDevices(devices, required)
	if len(ranked) > 0 {
		return ranked[0], nil
	}
	for _, d := range devices {
		if SelectQueueFamily(d.QueueFamilies).IsSet() {
			return Device{}, ErrNoDevice
		}
	}
	if len(devices) > 0 {
		return Device{}, ErrNoQueueFamily
	}
	return Device{}, ErrNoDevice
}

// FindMemoryType returns the first memory type allowed by typeBits whose
// property flags include every bit of wanted.
func FindMemoryType(typeBits uint32, wanted uint32, types []uint32) Option[uint32] {
	for k, flags := range types {
		if k >= 32 {
			break
		}
		if typeBits&(1<<uint(k)) != 0 && flags&wanted == wanted {
			return Some(uint32(k))
		}
	}
	return None[uint32]()
}
