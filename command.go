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

type commandBufferResource struct {
	buffer vk.CommandBuffer
	device Handle
}

// MemoryBarrier orders access across all memory.
type MemoryBarrier struct {
	SrcAccess MemoryAccessFlags
	DstAccess MemoryAccessFlags
}

// BufferBarrier orders access to a buffer range. Size may be
// WholeSize.
type BufferBarrier struct {
	SrcAccess MemoryAccessFlags
	DstAccess MemoryAccessFlags
	Buffer    Handle
	Offset    uint64
	Size      uint64
}

// ImageBarrier orders access to an image. Only the new access mask is
// supplied; the source side comes from the image's cached state and
// the layout is left unchanged. Use UpdateBindings for layout
// transitions.
type ImageBarrier struct {
	Image     Handle
	DstAccess MemoryAccessFlags
}

// Barrier aggregates the barriers of one PipelineBarrier call.
type Barrier struct {
	Memory  []MemoryBarrier
	Buffers []BufferBarrier
	Images  []ImageBarrier
}

// CreateCommandBuffer allocates a command buffer from the device's
// shared command pool.
func (c *Context) CreateCommandBuffer(device Handle) (Handle, error) {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return 0, fmt.Errorf("create command buffer: %w", err)
	}

	h, record := c.commandBuffers.create()
	var undo rollback
	defer undo.run()
	undo.add(func() { c.commandBuffers.release(h) })

	buffer, err := c.api.AllocateCommandBuffer(dev.logical, dev.commandPool)
	if err != nil {
		return 0, err
	}

	*record = commandBufferResource{
		buffer: buffer,
		device: device,
	}
	undo.cancel()
	return h, nil
}

// DestroyCommandBuffer returns the command buffer to its pool and
// frees the handle.
func (c *Context) DestroyCommandBuffer(cmd Handle) error {
	cb, err := c.commandBuffers.resolve(cmd)
	if err != nil {
		return fmt.Errorf("destroy command buffer: %w", err)
	}
	dev, err := c.devices.resolve(cb.device)
	if err != nil {
		return fmt.Errorf("destroy command buffer: %w", err)
	}
	c.api.FreeCommandBuffer(dev.logical, dev.commandPool, cb.buffer)
	return c.commandBuffers.release(cmd)
}

// BeginCommandBuffer starts recording with simultaneous-use semantics,
// so the buffer may be resubmitted without re-recording.
func (c *Context) BeginCommandBuffer(cmd Handle) error {
	cb, err := c.commandBuffers.resolve(cmd)
	if err != nil {
		return fmt.Errorf("begin command buffer: %w", err)
	}
	return c.api.BeginCommandBuffer(cb.buffer)
}

// EndCommandBuffer finishes recording.
func (c *Context) EndCommandBuffer(cmd Handle) error {
	cb, err := c.commandBuffers.resolve(cmd)
	if err != nil {
		return fmt.Errorf("end command buffer: %w", err)
	}
	return c.api.EndCommandBuffer(cb.buffer)
}

// BindPipeline binds the pipeline and its descriptor set.
func (c *Context) BindPipeline(cmd, pipeline Handle) error {
	cb, err := c.commandBuffers.resolve(cmd)
	if err != nil {
		return fmt.Errorf("bind pipeline: %w", err)
	}
	pl, err := c.pipelines.resolve(pipeline)
	if err != nil {
		return fmt.Errorf("bind pipeline: %w", err)
	}
	c.api.CmdBindPipeline(cb.buffer, pl.pipeline, pl.layout, pl.descriptorSet)
	return nil
}

// Dispatch records a compute dispatch. No barriers are implied; call
// UpdateBindings or PipelineBarrier first.
func (c *Context) Dispatch(cmd Handle, x, y, z uint32) error {
	cb, err := c.commandBuffers.resolve(cmd)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	c.api.CmdDispatch(cb.buffer, x, y, z)
	return nil
}

// PushConstants records the pipeline's push-constant block. The data
// length must match the size the shader declared.
func (c *Context) PushConstants(cmd, pipeline Handle, data []byte) error {
	cb, err := c.commandBuffers.resolve(cmd)
	if err != nil {
		return fmt.Errorf("push constants: %w", err)
	}
	pl, err := c.pipelines.resolve(pipeline)
	if err != nil {
		return fmt.Errorf("push constants: %w", err)
	}
	if uint32(len(data)) != pl.pushConstantsSize {
		return fmt.Errorf("gpu: push constants are %d bytes, shader declares %d", len(data), pl.pushConstantsSize)
	}
	if pl.pushConstantsSize == 0 {
		return nil
	}
	c.api.CmdPushConstants(cb.buffer, pl.layout, pl.pushConstantsSize, unsafe.Pointer(&data[0]))
	return nil
}

// PipelineBarrier records explicit memory, buffer and image barriers,
// scoped to the compute and transfer stages on both sides. Image
// barriers keep the image's layout and update its cached access mask
// to the new destination access.
func (c *Context) PipelineBarrier(cmd Handle, barrier Barrier) error {
	cb, err := c.commandBuffers.resolve(cmd)
	if err != nil {
		return fmt.Errorf("pipeline barrier: %w", err)
	}
	if len(barrier.Memory) > maxMemoryBarriers {
		return fmt.Errorf("%w: memory barriers, max %d", ErrLimitReached, maxMemoryBarriers)
	}
	if len(barrier.Buffers) > maxBufferMemoryBarriers {
		return fmt.Errorf("%w: buffer barriers, max %d", ErrLimitReached, maxBufferMemoryBarriers)
	}
	if len(barrier.Images) > maxImageMemoryBarriers {
		return fmt.Errorf("%w: image barriers, max %d", ErrLimitReached, maxImageMemoryBarriers)
	}

	memory := make([]vk.MemoryBarrier, 0, len(barrier.Memory))
	for _, b := range barrier.Memory {
		memory = append(memory, vk.MemoryBarrier{
			SType:         vk.StructureTypeMemoryBarrier,
			SrcAccessMask: toVkAccessFlags(b.SrcAccess),
			DstAccessMask: toVkAccessFlags(b.DstAccess),
		})
	}

	buffers := make([]vk.BufferMemoryBarrier, 0, len(barrier.Buffers))
	for _, b := range barrier.Buffers {
		buf, err := c.buffers.resolve(b.Buffer)
		if err != nil {
			return fmt.Errorf("pipeline barrier: %w", err)
		}
		if b.Offset > buf.size {
			return fmt.Errorf("gpu: barrier offset %d exceeds buffer size %d", b.Offset, buf.size)
		}
		size := b.Size
		if size == WholeSize {
			size = buf.size - b.Offset
		}
		buffers = append(buffers, vk.BufferMemoryBarrier{
			SType:               vk.StructureTypeBufferMemoryBarrier,
			SrcAccessMask:       toVkAccessFlags(b.SrcAccess),
			DstAccessMask:       toVkAccessFlags(b.DstAccess),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Buffer:              buf.buffer,
			Offset:              vk.DeviceSize(b.Offset),
			Size:                vk.DeviceSize(size),
		})
	}

	images := make([]vk.ImageMemoryBarrier, 0, len(barrier.Images))
	for _, b := range barrier.Images {
		img, err := c.images.resolve(b.Image)
		if err != nil {
			return fmt.Errorf("pipeline barrier: %w", err)
		}
		access := toVkAccessFlags(b.DstAccess)
		images = append(images, vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       img.accessMask,
			DstAccessMask:       access,
			OldLayout:           img.layout,
			NewLayout:           img.layout,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               img.image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		})
		img.accessMask = access
	}

	stages := vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit | vk.PipelineStageTransferBit)
	c.api.CmdPipelineBarrier(cb.buffer, stages, stages, memory, buffers, images)
	return nil
}

// CopyBuffer records a buffer-to-buffer copy. A WholeSize size copies
// the source buffer's full size.
func (c *Context) CopyBuffer(cmd, src, dst Handle, srcOffset, dstOffset, size uint64) error {
	cb, err := c.commandBuffers.resolve(cmd)
	if err != nil {
		return fmt.Errorf("copy buffer: %w", err)
	}
	srcBuf, err := c.buffers.resolve(src)
	if err != nil {
		return fmt.Errorf("copy buffer: %w", err)
	}
	dstBuf, err := c.buffers.resolve(dst)
	if err != nil {
		return fmt.Errorf("copy buffer: %w", err)
	}
	if size == WholeSize {
		size = srcBuf.size
	}
	c.api.CmdCopyBuffer(cb.buffer, srcBuf.buffer, dstBuf.buffer, srcOffset, dstOffset, size)
	return nil
}

// CopyBufferToImage records a whole-image copy from a buffer. The
// destination image is force-transitioned to the general layout first
// when its cached layout differs, with memory-write added to its
// access mask.
func (c *Context) CopyBufferToImage(cmd, buffer, image Handle, bufferOffset uint64) error {
	cb, err := c.commandBuffers.resolve(cmd)
	if err != nil {
		return fmt.Errorf("copy buffer to image: %w", err)
	}
	buf, err := c.buffers.resolve(buffer)
	if err != nil {
		return fmt.Errorf("copy buffer to image: %w", err)
	}
	img, err := c.images.resolve(image)
	if err != nil {
		return fmt.Errorf("copy buffer to image: %w", err)
	}

	if img.layout != vk.ImageLayoutGeneral {
		access := img.accessMask | vk.AccessFlags(vk.AccessMemoryWriteBit)
		barrier := vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       img.accessMask,
			DstAccessMask:       access,
			OldLayout:           img.layout,
			NewLayout:           vk.ImageLayoutGeneral,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               img.image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		stages := vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit | vk.PipelineStageTransferBit)
		c.api.CmdPipelineBarrier(cb.buffer, stages, stages, nil, nil, []vk.ImageMemoryBarrier{barrier})
		img.layout = vk.ImageLayoutGeneral
		img.accessMask = access
	}

	c.api.CmdCopyBufferToImage(cb.buffer, buf.buffer, bufferOffset, img.image, img.layout,
		img.width, img.height, img.depth)
	return nil
}

// ResetTimestamps resets count queries of the device's timestamp pool
// starting at offset.
func (c *Context) ResetTimestamps(cmd Handle, offset, count uint32) error {
	cb, dev, err := c.resolveRecording(cmd)
	if err != nil {
		return fmt.Errorf("reset timestamps: %w", err)
	}
	if offset+count > timestampQueryCount {
		return fmt.Errorf("%w: timestamp queries %d..%d, pool holds %d", ErrLimitReached, offset, offset+count, timestampQueryCount)
	}
	c.api.CmdResetQueryPool(cb.buffer, dev.timestampPool, offset, count)
	return nil
}

// WriteTimestamp records a timestamp into the given query of the
// device's timestamp pool.
func (c *Context) WriteTimestamp(cmd Handle, query uint32) error {
	cb, dev, err := c.resolveRecording(cmd)
	if err != nil {
		return fmt.Errorf("write timestamp: %w", err)
	}
	if query >= timestampQueryCount {
		return fmt.Errorf("%w: timestamp query %d, pool holds %d", ErrLimitReached, query, timestampQueryCount)
	}
	c.api.CmdWriteTimestamp(cb.buffer, dev.timestampPool, query)
	return nil
}

// CopyTimestamps copies count query results starting at first into the
// buffer at offset, as 64-bit values. With wait set the copy blocks on
// availability; without it each value is followed by an availability
// word instead.
func (c *Context) CopyTimestamps(cmd, buffer Handle, offset uint64, first, count uint32, wait bool) error {
	cb, dev, err := c.resolveRecording(cmd)
	if err != nil {
		return fmt.Errorf("copy timestamps: %w", err)
	}
	buf, err := c.buffers.resolve(buffer)
	if err != nil {
		return fmt.Errorf("copy timestamps: %w", err)
	}
	if first+count > timestampQueryCount {
		return fmt.Errorf("%w: timestamp queries %d..%d, pool holds %d", ErrLimitReached, first, first+count, timestampQueryCount)
	}
	c.api.CmdCopyQueryPoolResults(cb.buffer, dev.timestampPool, first, count, buf.buffer, offset, wait)
	return nil
}

// Submit hands the command buffer to the device's queue, signaling
// fence on completion.
func (c *Context) Submit(cmd, fence Handle) error {
	cb, dev, err := c.resolveRecording(cmd)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fc, err := c.fences.resolve(fence)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return c.api.QueueSubmit(dev.queue, cb.buffer, fc.fence)
}

func (c *Context) resolveRecording(cmd Handle) (*commandBufferResource, *deviceResource, error) {
	cb, err := c.commandBuffers.resolve(cmd)
	if err != nil {
		return nil, nil, err
	}
	dev, err := c.devices.resolve(cb.device)
	if err != nil {
		return nil, nil, err
	}
	return cb, dev, nil
}
