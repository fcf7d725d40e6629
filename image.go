// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// imageResource carries, besides the native objects, the mutable
// GPU-visible state of the image: its current layout and access mask.
// Between recorded commands this state always reflects the image's
// actual state as of the last command recorded against it; every
// transition reads it, emits a barrier only when needed and then
// overwrites it.
type imageResource struct {
	image  vk.Image
	view   vk.ImageView
	memory vk.DeviceMemory

	width  uint32
	height uint32
	depth  uint32
	size   uint64
	format vk.Format

	layout     vk.ImageLayout
	accessMask vk.AccessFlags
}

// ImageDescription configures CreateImage. Depth is 1 for 2D images.
// Zero MemoryProperties default to device-local.
type ImageDescription struct {
	Width            uint32
	Height           uint32
	Depth            uint32
	Is3D             bool
	Format           ImageFormat
	Usage            ImageUsageFlags
	MemoryProperties MemoryPropertyFlags
}

// CreateImage creates an image, its memory and its view. Usage
// restricted to pure transfer (src or dst only) selects linear tiling,
// anything else optimal. New images start in the undefined layout with
// an empty access mask; UpdateBindings transitions them when they are
// first bound.
func (c *Context) CreateImage(device Handle, desc ImageDescription) (Handle, error) {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return 0, fmt.Errorf("create image: %w", err)
	}

	depth := desc.Depth
	if depth == 0 {
		depth = 1
	}
	properties := desc.MemoryProperties
	if properties == 0 {
		properties = MemoryPropertyDeviceLocal
	}
	tiling := vk.ImageTilingOptimal
	if desc.Usage == ImageUsageTransferSrc || desc.Usage == ImageUsageTransferDst {
		tiling = vk.ImageTilingLinear
	}

	h, record := c.images.create()
	var undo rollback
	defer undo.run()
	undo.add(func() { c.images.release(h) })

	image, err := c.api.CreateImage(dev.logical, imageCreateInfo{
		Width:  desc.Width,
		Height: desc.Height,
		Depth:  depth,
		Is3D:   desc.Is3D,
		Format: vk.Format(desc.Format),
		Usage:  toVkImageUsage(desc.Usage),
		Tiling: tiling,
	})
	if err != nil {
		return 0, err
	}
	undo.add(func() { c.api.DestroyImage(dev.logical, image) })

	requirements := c.api.ImageMemoryRequirements(dev.logical, image)
	memory, err := dev.allocator.allocate(requirements, properties)
	if err != nil {
		return 0, err
	}
	undo.add(func() { dev.allocator.free(memory) })

	if err := c.api.BindImageMemory(dev.logical, image, memory); err != nil {
		return 0, err
	}

	view, err := c.api.CreateImageView(dev.logical, image, desc.Is3D, vk.Format(desc.Format))
	if err != nil {
		return 0, err
	}

	*record = imageResource{
		image:      image,
		view:       view,
		memory:     memory,
		width:      desc.Width,
		height:     desc.Height,
		depth:      depth,
		size:       requirements.Size,
		format:     vk.Format(desc.Format),
		layout:     vk.ImageLayoutUndefined,
		accessMask: 0,
	}
	undo.cancel()
	return h, nil
}

// DestroyImage releases the image's native objects in reverse creation
// order and frees the handle.
func (c *Context) DestroyImage(device, image Handle) error {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return fmt.Errorf("destroy image: %w", err)
	}
	img, err := c.images.resolve(image)
	if err != nil {
		return fmt.Errorf("destroy image: %w", err)
	}
	c.api.DestroyImageView(dev.logical, img.view)
	c.api.DestroyImage(dev.logical, img.image)
	dev.allocator.free(img.memory)
	return c.images.release(image)
}

// MapImage maps the image's memory and returns it as a byte slice of
// the allocation size. Only host-visible, linear-tiled images map to
// anything readable.
func (c *Context) MapImage(device, image Handle) ([]byte, error) {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return nil, fmt.Errorf("map image: %w", err)
	}
	img, err := c.images.resolve(image)
	if err != nil {
		return nil, fmt.Errorf("map image: %w", err)
	}
	ptr, err := c.api.MapMemory(dev.logical, img.memory, 0, img.size)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), img.size), nil
}

// UnmapImage invalidates the slice returned by MapImage.
func (c *Context) UnmapImage(device, image Handle) error {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return fmt.Errorf("unmap image: %w", err)
	}
	img, err := c.images.resolve(image)
	if err != nil {
		return fmt.Errorf("unmap image: %w", err)
	}
	c.api.UnmapMemory(dev.logical, img.memory)
	return nil
}
