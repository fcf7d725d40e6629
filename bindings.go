// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// BufferBinding supplies a buffer for one reflected binding slot.
// Size may be WholeSize to cover the buffer from Offset to its end.
type BufferBinding struct {
	Binding uint32
	// Index is the array slot inside the binding, 0 for scalars.
	Index  uint32
	Buffer Handle
	Offset uint64
	Size   uint64
}

// ImageBinding supplies an image for one reflected binding slot.
type ImageBinding struct {
	Binding uint32
	Index   uint32
	Image   Handle
}

// SamplerBinding supplies a sampler for one reflected binding slot.
type SamplerBinding struct {
	Binding uint32
	Index   uint32
	Sampler Handle
}

// Bindings aggregates the caller-supplied resources for one
// UpdateBindings call.
type Bindings struct {
	Buffers  []BufferBinding
	Images   []ImageBinding
	Samplers []SamplerBinding
}

// UpdateBindings matches the supplied resources against the pipeline's
// reflected binding snapshot, records the image layout transitions the
// upcoming dispatch needs, and writes the pipeline's descriptor set.
//
// Transitions run first: every image bound as sampled must be in the
// shader-read-only layout, every storage image in general. Images
// already in the required layout get no barrier; the rest get one,
// batched into a single compute-to-compute pipeline barrier, with the
// source access taken from the image's cached mask and the destination
// derived from the binding's declared read/write access. Cached image
// state is updated as transitions are queued.
//
// Descriptor writes run second and are all-or-nothing: a missing
// resource or a storage-buffer offset violating the device alignment
// fails the call before any descriptor is written. Image state already
// updated by the transition pass is not rolled back in that case.
func (c *Context) UpdateBindings(cmd, pipeline Handle, bindings Bindings) error {
	cb, err := c.commandBuffers.resolve(cmd)
	if err != nil {
		return fmt.Errorf("update bindings: %w", err)
	}
	dev, err := c.devices.resolve(cb.device)
	if err != nil {
		return fmt.Errorf("update bindings: %w", err)
	}
	pl, err := c.pipelines.resolve(pipeline)
	if err != nil {
		return fmt.Errorf("update bindings: %w", err)
	}

	if err := c.transitionImages(cb, pl, bindings.Images); err != nil {
		return err
	}
	return c.writeDescriptors(dev, pl, bindings)
}

func (c *Context) transitionImages(cb *commandBufferResource, pl *pipelineResource, images []ImageBinding) error {
	var barriers []vk.ImageMemoryBarrier
	for _, binding := range pl.bindings {
		var required vk.ImageLayout
		switch binding.DescriptorType {
		case DescriptorTypeSampledImage:
			required = vk.ImageLayoutShaderReadOnlyOptimal
		case DescriptorTypeStorageImage:
			required = vk.ImageLayoutGeneral
		default:
			continue
		}

		for slot := uint32(0); slot < binding.Count; slot++ {
			supplied, ok := findImageBinding(images, binding.Binding, slot)
			if !ok {
				return fmt.Errorf("%w: no image for binding %d slot %d", ErrBindingMismatch, binding.Binding, slot)
			}
			img, err := c.images.resolve(supplied.Image)
			if err != nil {
				return fmt.Errorf("update bindings: image %d/%d: %w", binding.Binding, slot, err)
			}
			if img.layout == required {
				continue
			}
			var access vk.AccessFlags
			if binding.ReadAccess {
				access |= vk.AccessFlags(vk.AccessShaderReadBit)
			}
			if binding.WriteAccess {
				access |= vk.AccessFlags(vk.AccessShaderWriteBit)
			}
			if len(barriers) >= maxImageMemoryBarriers {
				return fmt.Errorf("%w: image barriers, max %d", ErrLimitReached, maxImageMemoryBarriers)
			}
			barriers = append(barriers, vk.ImageMemoryBarrier{
				SType:               vk.StructureTypeImageMemoryBarrier,
				SrcAccessMask:       img.accessMask,
				DstAccessMask:       access,
				OldLayout:           img.layout,
				NewLayout:           required,
				SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
				DstQueueFamilyIndex: vk.QueueFamilyIgnored,
				Image:               img.image,
				SubresourceRange: vk.ImageSubresourceRange{
					AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
					LevelCount: 1,
					LayerCount: 1,
				},
			})
			img.layout = required
			img.accessMask = access
		}
	}

	if len(barriers) > 0 {
		stage := vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
		c.api.CmdPipelineBarrier(cb.buffer, stage, stage, nil, nil, barriers)
	}
	return nil
}

func (c *Context) writeDescriptors(dev *deviceResource, pl *pipelineResource, bindings Bindings) error {
	writes := make([]vk.WriteDescriptorSet, 0, len(pl.bindings))
	bufferInfoCount := 0
	imageInfoCount := 0

	for _, binding := range pl.bindings {
		descriptorType, ok := toVkDescriptorType(binding.DescriptorType)
		if !ok {
			return fmt.Errorf("%w: descriptor type %d on binding %d", ErrBindingMismatch, binding.DescriptorType, binding.Binding)
		}
		write := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          pl.descriptorSet,
			DstBinding:      binding.Binding,
			DescriptorCount: binding.Count,
			DescriptorType:  descriptorType,
		}

		switch binding.DescriptorType {
		case DescriptorTypeUniformBuffer, DescriptorTypeStorageBuffer:
			infos := make([]vk.DescriptorBufferInfo, 0, binding.Count)
			for slot := uint32(0); slot < binding.Count; slot++ {
				supplied, ok := findBufferBinding(bindings.Buffers, binding.Binding, slot)
				if !ok {
					return fmt.Errorf("%w: no buffer for binding %d slot %d", ErrBindingMismatch, binding.Binding, slot)
				}
				buf, err := c.buffers.resolve(supplied.Buffer)
				if err != nil {
					return fmt.Errorf("update bindings: buffer %d/%d: %w", binding.Binding, slot, err)
				}
				if binding.DescriptorType == DescriptorTypeStorageBuffer {
					if align := dev.limits.MinStorageBufferOffsetAlignment; align > 0 && supplied.Offset%align != 0 {
						return fmt.Errorf("%w: binding %d offset %d, required alignment %d",
							ErrAlignment, binding.Binding, supplied.Offset, align)
					}
				}
				if supplied.Offset > buf.size {
					return fmt.Errorf("gpu: binding %d offset %d exceeds buffer size %d", binding.Binding, supplied.Offset, buf.size)
				}
				size := supplied.Size
				if size == WholeSize {
					size = buf.size - supplied.Offset
				}
				infos = append(infos, vk.DescriptorBufferInfo{
					Buffer: buf.buffer,
					Offset: vk.DeviceSize(supplied.Offset),
					Range:  vk.DeviceSize(size),
				})
			}
			bufferInfoCount += len(infos)
			if bufferInfoCount > maxDescriptorBufferInfos {
				return fmt.Errorf("%w: buffer descriptor infos, max %d", ErrLimitReached, maxDescriptorBufferInfos)
			}
			write.PBufferInfo = infos

		case DescriptorTypeSampledImage, DescriptorTypeStorageImage:
			layout := vk.ImageLayoutShaderReadOnlyOptimal
			if binding.DescriptorType == DescriptorTypeStorageImage {
				layout = vk.ImageLayoutGeneral
			}
			infos := make([]vk.DescriptorImageInfo, 0, binding.Count)
			for slot := uint32(0); slot < binding.Count; slot++ {
				supplied, ok := findImageBinding(bindings.Images, binding.Binding, slot)
				if !ok {
					return fmt.Errorf("%w: no image for binding %d slot %d", ErrBindingMismatch, binding.Binding, slot)
				}
				img, err := c.images.resolve(supplied.Image)
				if err != nil {
					return fmt.Errorf("update bindings: image %d/%d: %w", binding.Binding, slot, err)
				}
				infos = append(infos, vk.DescriptorImageInfo{
					ImageView:   img.view,
					ImageLayout: layout,
				})
			}
			imageInfoCount += len(infos)
			if imageInfoCount > maxDescriptorImageInfos {
				return fmt.Errorf("%w: image descriptor infos, max %d", ErrLimitReached, maxDescriptorImageInfos)
			}
			write.PImageInfo = infos

		case DescriptorTypeSampler:
			infos := make([]vk.DescriptorImageInfo, 0, binding.Count)
			for slot := uint32(0); slot < binding.Count; slot++ {
				supplied, ok := findSamplerBinding(bindings.Samplers, binding.Binding, slot)
				if !ok {
					return fmt.Errorf("%w: no sampler for binding %d slot %d", ErrBindingMismatch, binding.Binding, slot)
				}
				smp, err := c.samplers.resolve(supplied.Sampler)
				if err != nil {
					return fmt.Errorf("update bindings: sampler %d/%d: %w", binding.Binding, slot, err)
				}
				infos = append(infos, vk.DescriptorImageInfo{
					Sampler: smp.sampler,
				})
			}
			imageInfoCount += len(infos)
			if imageInfoCount > maxDescriptorImageInfos {
				return fmt.Errorf("%w: image descriptor infos, max %d", ErrLimitReached, maxDescriptorImageInfos)
			}
			write.PImageInfo = infos
		}

		writes = append(writes, write)
		if len(writes) > maxWriteDescriptorSets {
			return fmt.Errorf("%w: descriptor writes, max %d", ErrLimitReached, maxWriteDescriptorSets)
		}
	}

	c.api.UpdateDescriptorSets(dev.logical, writes)
	return nil
}

func findBufferBinding(buffers []BufferBinding, binding, slot uint32) (BufferBinding, bool) {
	for _, b := range buffers {
		if b.Binding == binding && b.Index == slot {
			return b, true
		}
	}
	return BufferBinding{}, false
}

func findImageBinding(images []ImageBinding, binding, slot uint32) (ImageBinding, bool) {
	for _, b := range images {
		if b.Binding == binding && b.Index == slot {
			return b, true
		}
	}
	return ImageBinding{}, false
}

func findSamplerBinding(samplers []SamplerBinding, binding, slot uint32) (SamplerBinding, bool) {
	for _, b := range samplers {
		if b.Binding == binding && b.Index == slot {
			return b, true
		}
	}
	return SamplerBinding{}, false
}
