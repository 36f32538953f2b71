package gpu

import (
	"unsafe"

	"github.com/ibd1279/vks"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/adapter"
)

// instanceLayers lists the layers the loader knows about.
func instanceLayers() ([]string, error) {
	var count uint32
	if err := check(vks.EnumerateInstanceLayerProperties(&count, nil), "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	props := make([]vks.LayerProperties, count)
	if err := check(vks.EnumerateInstanceLayerProperties(&count, props), "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props[:count] {
		names = append(names, vks.ToString(p.LayerName()))
	}
	return names, nil
}

// instanceExtensions lists the extensions provided by the implementation or
// by the given layer when layer isn't empty.
func instanceExtensions(layer string) ([]string, error) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()
	ln := vks.NewCStr(arp, layer)

	var count uint32
	if err := check(vks.EnumerateInstanceExtensionProperties(ln, &count, nil), "vkEnumerateInstanceExtensionProperties"); err != nil {
		return nil, err
	}
	props := make([]vks.ExtensionProperties, count)
	if err := check(vks.EnumerateInstanceExtensionProperties(ln, &count, props), "vkEnumerateInstanceExtensionProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for h, ext := range props[:count] {
		name := vks.ToString(ext.ExtensionName())
		Logger().Debug("instance extension",
			"layer", layer, "index", h, "name", name,
			"specVersion", vks.ApiVersion(ext.SpecVersion()))
		names = append(names, name)
	}
	return names, nil
}

func (r *Renderer) createInstance() error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	availableLayers, err := instanceLayers()
	if err != nil {
		return err
	}
	layers, missing := adapter.FilterNames(r.cfg.EnabledLayers(), availableLayers)
	if len(missing) > 0 {
		Logger().Warn("instance layers not available", "layers", missing)
	}

	// Extensions can come from the implementation or from an enabled layer.
	var availableExts []string
	for _, layer := range append([]string{""}, layers...) {
		exts, err := instanceExtensions(layer)
		if err != nil {
			return err
		}
		availableExts = append(availableExts, exts...)
	}

	required, err := adapter.RequireNames(
		append([]string{vks.VK_KHR_SURFACE_EXTENSION_NAME}, r.window.RequiredInstanceExtensions()...),
		availableExts,
	)
	if err != nil {
		return errors.Wrap(err, "instance extensions")
	}
	optional, missing := adapter.FilterNames(r.cfg.Vulkan.InstanceExtensions, availableExts)
	if len(missing) > 0 {
		Logger().Debug("optional instance extensions not available", "extensions", missing)
	}
	extensions, _ := adapter.FilterNames(append(required, optional...), availableExts)

	var flags vks.InstanceCreateFlags
	for _, ext := range extensions {
		if ext == vks.VK_KHR_PORTABILITY_ENUMERATION_EXTENSION_NAME {
			flags |= vks.InstanceCreateFlags(vks.VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR)
		}
	}

	appInfo := vks.CPtr(arp, &vks.ApplicationInfo{},
		vks.SetEngine(arp, "NoEngine", vks.MakeApiVersion(0, 1, 0, 0)),
		vks.SetApplication(arp, r.cfg.Window.Title, vks.MakeApiVersion(0, 0, 1, 0)),
		vks.SetDefaultSType,
		func(in *vks.ApplicationInfo) {
			in.SetApiVersion(uint32(vks.VK_API_VERSION_1_3))
		},
	)
	createInfo := vks.CPtr(arp, &vks.InstanceCreateInfo{},
		vks.SetInstanceLayers(arp, layers),
		vks.SetInstanceExtensions(arp, extensions),
		vks.SetDefaultSType,
		func(in *vks.InstanceCreateInfo) {
			in.SetPApplicationInfo(appInfo)
			in.SetFlags(flags)
		},
	)

	var vkInstance vks.Instance
	if err := check(vks.CreateInstance(createInfo, nil, &vkInstance), "vkCreateInstance"); err != nil {
		return err
	}
	r.instance = vks.MakeInstanceFacade(vkInstance)

	Logger().Info("instance created", "layers", layers, "extensions", extensions)
	return nil
}

func (r *Renderer) createSurface() error {
	surface, err := r.window.w.CreateWindowSurface(r.instance.H, nil)
	if err != nil {
		return errors.Wrap(err, "glfwCreateWindowSurface")
	}
	// glfw hands back the handle as a uintptr.
	r.surface = *(*vks.SurfaceKHR)(unsafe.Pointer(surface))
	return nil
}
