// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// deviceResource is the root of ownership for a logical device: its
// one compute queue, the shared command pool, the timestamp query pool
// and the memory allocator. Other resource kinds reference a device by
// handle but never own it.
type deviceResource struct {
	physical    vk.PhysicalDevice
	logical     vk.Device
	queue       vk.Queue
	queueFamily uint32

	commandPool   vk.CommandPool
	timestampPool vk.QueryPool

	features  DeviceFeatures
	limits    DeviceLimits
	allocator *memoryAllocator
}

// CreateDevice opens the first physical device with a queue family
// supporting both compute and transfer, negotiates extensions and
// features, and wires up the queue, command pool, query pool and
// allocator. Fails fast when the selected device lacks subgroup basic
// and ballot operations, which the compute path assumes throughout.
func (c *Context) CreateDevice() (Handle, error) {
	physicalDevices, err := c.api.EnumeratePhysicalDevices()
	if err != nil {
		return 0, err
	}
	if len(physicalDevices) == 0 {
		return 0, fmt.Errorf("%w: no physical devices", ErrUnsupportedDevice)
	}
	if len(physicalDevices) > maxPhysicalDevices {
		return 0, fmt.Errorf("%w: %d physical devices, max %d", ErrLimitReached, len(physicalDevices), maxPhysicalDevices)
	}

	var (
		selected     vk.PhysicalDevice
		selectedInfo physicalDeviceInfo
		queueFamily  uint32
		found        bool
	)
	for _, pd := range physicalDevices {
		info, err := c.api.PhysicalDeviceInfo(pd)
		if err != nil {
			return 0, err
		}
		if len(info.QueueFamilies) > maxQueueFamilies {
			return 0, fmt.Errorf("%w: %d queue families, max %d", ErrLimitReached, len(info.QueueFamilies), maxQueueFamilies)
		}
		if len(info.Extensions) > maxDeviceExtensions {
			return 0, fmt.Errorf("%w: %d device extensions, max %d", ErrLimitReached, len(info.Extensions), maxDeviceExtensions)
		}
		family, ok := findComputeQueueFamily(info.QueueFamilies)
		if !ok {
			continue
		}
		selected, selectedInfo, queueFamily, found = pd, info, family, true
		break
	}
	if !found {
		return 0, fmt.Errorf("%w: no queue family with compute and transfer", ErrUnsupportedDevice)
	}
	if !selectedInfo.Features.SubgroupBasic || !selectedInfo.Features.SubgroupBallot {
		return 0, fmt.Errorf("%w: %s lacks subgroup basic/ballot operations", ErrUnsupportedDevice, selectedInfo.Name)
	}

	extensions, err := c.negotiateExtensions(selectedInfo)
	if err != nil {
		return 0, err
	}

	h, record := c.devices.create()
	var undo rollback
	defer undo.run()
	undo.add(func() { c.devices.release(h) })

	logical, err := c.api.CreateDevice(selected, queueFamily, extensions, selectedInfo.Features)
	if err != nil {
		return 0, err
	}
	undo.add(func() { c.api.DestroyDevice(logical) })

	commandPool, err := c.api.CreateCommandPool(logical, queueFamily)
	if err != nil {
		return 0, err
	}
	undo.add(func() { c.api.DestroyCommandPool(logical, commandPool) })

	timestampPool, err := c.api.CreateQueryPool(logical, timestampQueryCount)
	if err != nil {
		return 0, err
	}
	undo.add(func() { c.api.DestroyQueryPool(logical, timestampPool) })

	*record = deviceResource{
		physical:      selected,
		logical:       logical,
		queue:         c.api.DeviceQueue(logical, queueFamily),
		queueFamily:   queueFamily,
		commandPool:   commandPool,
		timestampPool: timestampPool,
		features:      selectedInfo.Features,
		limits:        selectedInfo.Limits,
		allocator:     newMemoryAllocator(c.api, logical, selectedInfo.MemoryTypes),
	}
	undo.cancel()
	return h, nil
}

// DestroyDevice tears down the device's sub-objects in reverse
// creation order and frees the handle. Resources created from the
// device must already be gone; destroying them afterwards is undefined
// by contract.
func (c *Context) DestroyDevice(device Handle) error {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return fmt.Errorf("destroy device: %w", err)
	}
	c.api.DestroyQueryPool(dev.logical, dev.timestampPool)
	c.api.DestroyCommandPool(dev.logical, dev.commandPool)
	c.api.DestroyDevice(dev.logical)
	return c.devices.release(device)
}

// GetPhysicalDeviceFeatures returns the feature snapshot captured at
// device creation, copied by value.
func (c *Context) GetPhysicalDeviceFeatures(device Handle) (DeviceFeatures, error) {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return DeviceFeatures{}, fmt.Errorf("device features: %w", err)
	}
	return dev.features, nil
}

// GetPhysicalDeviceLimits returns the limit snapshot captured at
// device creation, copied by value.
func (c *Context) GetPhysicalDeviceLimits(device Handle) (DeviceLimits, error) {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return DeviceLimits{}, fmt.Errorf("device limits: %w", err)
	}
	return dev.limits, nil
}

func (c *Context) negotiateExtensions(info physicalDeviceInfo) ([]string, error) {
	required := c.cfg.DeviceExtensions
	if required == nil {
		required = DefaultDeviceExtensions
	}
	extensions := make([]string, 0, len(required)+len(optionalDeviceExtensions)+len(debugDeviceExtensions))
	for _, name := range required {
		if !hasExtension(info.Extensions, name) {
			return nil, fmt.Errorf("%w: %s missing extension %s", ErrUnsupportedDevice, info.Name, name)
		}
		extensions = append(extensions, name)
	}
	for _, name := range optionalDeviceExtensions {
		if hasExtension(info.Extensions, name) {
			extensions = append(extensions, name)
		}
	}
	if c.cfg.Debug {
		for _, name := range debugDeviceExtensions {
			if hasExtension(info.Extensions, name) {
				extensions = append(extensions, name)
			}
		}
	}
	return extensions, nil
}

func findComputeQueueFamily(families []queueFamilyInfo) (uint32, bool) {
	needed := vk.QueueFlags(vk.QueueComputeBit | vk.QueueTransferBit)
	for i, family := range families {
		if family.Count > 0 && family.Flags&needed == needed {
			return uint32(i), true
		}
	}
	return 0, false
}
