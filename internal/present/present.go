// Package present holds the swapchain configuration policy: which surface
// format, present mode, extent, image count and composite alpha to ask for,
// given what the surface reports.
package present

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Values match the Vulkan enums so the renderer can convert directly.
type (
	Format     int32
	ColorSpace int32
	Mode       int32
)

const (
	FormatB8G8R8A8SRGB Format     = 50
	ColorSpaceSRGB     ColorSpace = 0
)

const (
	ModeImmediate   Mode = 0
	ModeMailbox     Mode = 1
	ModeFIFO        Mode = 2
	ModeFIFORelaxed Mode = 3
)

// Composite alpha bits, VkCompositeAlphaFlagBitsKHR.
const (
	AlphaOpaque         uint32 = 0x1
	AlphaPreMultiplied  uint32 = 0x2
	AlphaPostMultiplied uint32 = 0x4
	AlphaInherit        uint32 = 0x8
)

// UndefinedExtent is the current extent a surface reports when the
// swapchain decides its own size.
const UndefinedExtent = math.MaxUint32

var (
	ErrNoFormats  = errors.New("surface reports no formats")
	ErrZeroExtent = errors.New("surface extent is zero")
	ErrNoAlpha    = errors.New("surface reports no composite alpha mode")
)

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type Extent struct {
	Width, Height uint32
}

func (e Extent) Empty() bool { return e.Width == 0 || e.Height == 0 }

// Capabilities is the subset of VkSurfaceCapabilitiesKHR the policy reads.
type Capabilities struct {
	MinImageCount  uint32
	MaxImageCount  uint32
	CurrentExtent  Extent
	MinImageExtent Extent
	MaxImageExtent Extent
	CompositeAlpha uint32
}

// ChooseFormat prefers 8-bit BGRA sRGB and falls back to the first format.
func ChooseFormat(formats []SurfaceFormat) (SurfaceFormat, error) {
	if len(formats) == 0 {
		return SurfaceFormat{}, ErrNoFormats
	}
	for _, f := range formats {
		if f.Format == FormatB8G8R8A8SRGB && f.ColorSpace == ColorSpaceSRGB {
			return f, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode returns preferred when the surface supports it. FIFO is
// the fallback because every surface has to support it.
func ChoosePresentMode(available []Mode, preferred Mode) Mode {
	for _, m := range available {
		if m == preferred {
			return m
		}
	}
	return ModeFIFO
}

// ChooseExtent uses the surface's current extent, or the framebuffer size
// clamped to the surface limits when the surface leaves it to us.
func ChooseExtent(caps Capabilities, fbWidth, fbHeight int) (Extent, error) {
	extent := caps.CurrentExtent
	if extent.Width == UndefinedExtent {
		extent = Extent{
			Width:  clamp(nonNegative(fbWidth), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
			Height: clamp(nonNegative(fbHeight), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
		}
	}
	if extent.Empty() {
		return extent, ErrZeroExtent
	}
	return extent, nil
}

// ChooseImageCount asks for one image more than the minimum, so the driver
// isn't waited on, within the maximum when there is one.
func ChooseImageCount(caps Capabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseCompositeAlpha picks opaque when possible, else the lowest
// supported bit.
func ChooseCompositeAlpha(supported uint32) (uint32, error) {
	if supported&AlphaOpaque != 0 {
		return AlphaOpaque, nil
	}
	for bit := uint32(1); bit != 0; bit <<= 1 {
		if supported&bit != 0 {
			return bit, nil
		}
	}
	return 0, ErrNoAlpha
}

// ParseMode maps a config name to a present mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fifo":
		return ModeFIFO, nil
	case "mailbox":
		return ModeMailbox, nil
	case "immediate":
		return ModeImmediate, nil
	case "fifo-relaxed", "fifo_relaxed":
		return ModeFIFORelaxed, nil
	}
	return ModeFIFO, errors.Errorf("unknown present mode %q", name)
}

func (m Mode) String() string {
	switch m {
	case ModeImmediate:
		return "immediate"
	case ModeMailbox:
		return "mailbox"
	case ModeFIFO:
		return "fifo"
	case ModeFIFORelaxed:
		return "fifo-relaxed"
	}
	return "unknown"
}

func nonNegative(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
