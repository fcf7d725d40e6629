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

type bufferResource struct {
	buffer vk.Buffer
	memory vk.DeviceMemory
	size   uint64
}

// BufferDescription configures CreateBuffer. Size is in bytes.
type BufferDescription struct {
	Usage            BufferUsageFlags
	MemoryProperties MemoryPropertyFlags
	Size             uint64
}

// CreateBuffer creates a buffer and binds fresh device memory to it.
func (c *Context) CreateBuffer(device Handle, desc BufferDescription) (Handle, error) {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return 0, fmt.Errorf("create buffer: %w", err)
	}

	h, record := c.buffers.create()
	var undo rollback
	defer undo.run()
	undo.add(func() { c.buffers.release(h) })

	buffer, err := c.api.CreateBuffer(dev.logical, desc.Size, toVkBufferUsage(desc.Usage))
	if err != nil {
		return 0, err
	}
	undo.add(func() { c.api.DestroyBuffer(dev.logical, buffer) })

	requirements := c.api.BufferMemoryRequirements(dev.logical, buffer)
	memory, err := dev.allocator.allocate(requirements, desc.MemoryProperties)
	if err != nil {
		return 0, err
	}
	undo.add(func() { dev.allocator.free(memory) })

	if err := c.api.BindBufferMemory(dev.logical, buffer, memory); err != nil {
		return 0, err
	}

	*record = bufferResource{
		buffer: buffer,
		memory: memory,
		size:   desc.Size,
	}
	undo.cancel()
	return h, nil
}

// DestroyBuffer releases the buffer's native objects in reverse
// creation order and frees the handle.
func (c *Context) DestroyBuffer(device, buffer Handle) error {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return fmt.Errorf("destroy buffer: %w", err)
	}
	buf, err := c.buffers.resolve(buffer)
	if err != nil {
		return fmt.Errorf("destroy buffer: %w", err)
	}
	c.api.DestroyBuffer(dev.logical, buf.buffer)
	dev.allocator.free(buf.memory)
	return c.buffers.release(buffer)
}

// MapBuffer maps the buffer's memory and returns it as a byte slice of
// the buffer's full size. The slice is valid until UnmapBuffer. Only
// host-visible buffers can be mapped; after host writes the range must
// be flushed, before host reads invalidated, unless the memory is
// host-coherent.
func (c *Context) MapBuffer(device, buffer Handle) ([]byte, error) {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return nil, fmt.Errorf("map buffer: %w", err)
	}
	buf, err := c.buffers.resolve(buffer)
	if err != nil {
		return nil, fmt.Errorf("map buffer: %w", err)
	}
	ptr, err := c.api.MapMemory(dev.logical, buf.memory, 0, buf.size)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), buf.size), nil
}

// UnmapBuffer invalidates the slice returned by MapBuffer.
func (c *Context) UnmapBuffer(device, buffer Handle) error {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return fmt.Errorf("unmap buffer: %w", err)
	}
	buf, err := c.buffers.resolve(buffer)
	if err != nil {
		return fmt.Errorf("unmap buffer: %w", err)
	}
	c.api.UnmapMemory(dev.logical, buf.memory)
	return nil
}

// FlushMappedMemory makes host writes in the given range visible to
// the device. Size may be WholeSize for the rest of the buffer.
func (c *Context) FlushMappedMemory(device, buffer Handle, offset, size uint64) error {
	dev, buf, size, err := c.mappedRange(device, buffer, offset, size)
	if err != nil {
		return fmt.Errorf("flush mapped memory: %w", err)
	}
	return c.api.FlushMappedRange(dev.logical, buf.memory, offset, size)
}

// InvalidateMappedMemory makes device writes in the given range
// visible to the host. Size may be WholeSize for the rest of the
// buffer.
func (c *Context) InvalidateMappedMemory(device, buffer Handle, offset, size uint64) error {
	dev, buf, size, err := c.mappedRange(device, buffer, offset, size)
	if err != nil {
		return fmt.Errorf("invalidate mapped memory: %w", err)
	}
	return c.api.InvalidateMappedRange(dev.logical, buf.memory, offset, size)
}

func (c *Context) mappedRange(device, buffer Handle, offset, size uint64) (*deviceResource, *bufferResource, uint64, error) {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return nil, nil, 0, err
	}
	buf, err := c.buffers.resolve(buffer)
	if err != nil {
		return nil, nil, 0, err
	}
	if offset > buf.size {
		return nil, nil, 0, fmt.Errorf("gpu: offset %d exceeds buffer size %d", offset, buf.size)
	}
	if size == WholeSize {
		size = buf.size - offset
	}
	return dev, buf, size, nil
}
