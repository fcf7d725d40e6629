// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import (
	vk "github.com/vulkan-go/vulkan"
)

// WholeSize is a size sentinel accepted wherever a byte size is taken.
// In a buffer binding it resolves to the buffer size minus the binding
// offset, in a copy to the full source size, in a flush or invalidate
// to the rest of the mapped range.
const WholeSize = ^uint64(0)

// BufferUsageFlags select what a buffer may be used for.
type BufferUsageFlags uint32

const (
	BufferUsageTransferSrc BufferUsageFlags = 1 << iota
	BufferUsageTransferDst
	BufferUsageUniform
	BufferUsageStorage
)

// MemoryPropertyFlags select the memory type a resource is backed by.
type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocal MemoryPropertyFlags = 1 << iota
	MemoryPropertyHostVisible
	MemoryPropertyHostCoherent
	MemoryPropertyHostCached
)

// ImageUsageFlags select what an image may be used for. A usage that is
// exactly TransferSrc or exactly TransferDst selects linear tiling;
// anything else selects optimal tiling.
type ImageUsageFlags uint32

const (
	ImageUsageTransferSrc ImageUsageFlags = 1 << iota
	ImageUsageTransferDst
	ImageUsageSampled
	ImageUsageStorage
)

// MemoryAccessFlags describe GPU memory access for explicit barriers,
// translated to native access bits when recorded.
type MemoryAccessFlags uint32

const (
	MemoryAccessUniformRead MemoryAccessFlags = 1 << iota
	MemoryAccessShaderRead
	MemoryAccessShaderWrite
	MemoryAccessTransferRead
	MemoryAccessTransferWrite
	MemoryAccessHostRead
	MemoryAccessHostWrite
	MemoryAccessMemoryRead
	MemoryAccessMemoryWrite
)

// DescriptorType is the resource kind a shader binding expects, as
// reported by reflection.
type DescriptorType int

const (
	DescriptorTypeSampler DescriptorType = iota
	DescriptorTypeSampledImage
	DescriptorTypeStorageImage
	DescriptorTypeUniformBuffer
	DescriptorTypeStorageBuffer
)

// ImageFormat is the texel format of an image. Values alias the native
// format enumeration so no translation table is needed.
type ImageFormat int32

const (
	ImageFormatUndefined     = ImageFormat(vk.FormatUndefined)
	ImageFormatR8Unorm       = ImageFormat(vk.FormatR8Unorm)
	ImageFormatR8G8B8A8Unorm = ImageFormat(vk.FormatR8g8b8a8Unorm)
	ImageFormatR8G8B8A8Srgb  = ImageFormat(vk.FormatR8g8b8a8Srgb)
	ImageFormatR16G16B16A16F = ImageFormat(vk.FormatR16g16b16a16Sfloat)
	ImageFormatR32Uint       = ImageFormat(vk.FormatR32Uint)
	ImageFormatR32F          = ImageFormat(vk.FormatR32Sfloat)
	ImageFormatR32G32F       = ImageFormat(vk.FormatR32g32Sfloat)
	ImageFormatR32G32B32A32F = ImageFormat(vk.FormatR32g32b32a32Sfloat)
	ImageFormatD16Unorm      = ImageFormat(vk.FormatD16Unorm)
	ImageFormatD32F          = ImageFormat(vk.FormatD32Sfloat)
)

// Filter and address modes for sampler creation.
type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

type SamplerAddressMode int

const (
	SamplerAddressModeRepeat SamplerAddressMode = iota
	SamplerAddressModeMirroredRepeat
	SamplerAddressModeClampToEdge
	SamplerAddressModeClampToBorder
)

func toVkBufferUsage(usage BufferUsageFlags) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlags
	if usage&BufferUsageTransferSrc != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	}
	if usage&BufferUsageTransferDst != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	}
	if usage&BufferUsageUniform != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	}
	if usage&BufferUsageStorage != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit)
	}
	return flags
}

func toVkMemoryProperties(props MemoryPropertyFlags) vk.MemoryPropertyFlags {
	var flags vk.MemoryPropertyFlags
	if props&MemoryPropertyDeviceLocal != 0 {
		flags |= vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	}
	if props&MemoryPropertyHostVisible != 0 {
		flags |= vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	}
	if props&MemoryPropertyHostCoherent != 0 {
		flags |= vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	}
	if props&MemoryPropertyHostCached != 0 {
		flags |= vk.MemoryPropertyFlags(vk.MemoryPropertyHostCachedBit)
	}
	return flags
}

func toVkImageUsage(usage ImageUsageFlags) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlags
	if usage&ImageUsageTransferSrc != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	}
	if usage&ImageUsageTransferDst != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	}
	if usage&ImageUsageSampled != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	}
	if usage&ImageUsageStorage != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageStorageBit)
	}
	return flags
}

func toVkAccessFlags(access MemoryAccessFlags) vk.AccessFlags {
	var flags vk.AccessFlags
	if access&MemoryAccessUniformRead != 0 {
		flags |= vk.AccessFlags(vk.AccessUniformReadBit)
	}
	if access&MemoryAccessShaderRead != 0 {
		flags |= vk.AccessFlags(vk.AccessShaderReadBit)
	}
	if access&MemoryAccessShaderWrite != 0 {
		flags |= vk.AccessFlags(vk.AccessShaderWriteBit)
	}
	if access&MemoryAccessTransferRead != 0 {
		flags |= vk.AccessFlags(vk.AccessTransferReadBit)
	}
	if access&MemoryAccessTransferWrite != 0 {
		flags |= vk.AccessFlags(vk.AccessTransferWriteBit)
	}
	if access&MemoryAccessHostRead != 0 {
		flags |= vk.AccessFlags(vk.AccessHostReadBit)
	}
	if access&MemoryAccessHostWrite != 0 {
		flags |= vk.AccessFlags(vk.AccessHostWriteBit)
	}
	if access&MemoryAccessMemoryRead != 0 {
		flags |= vk.AccessFlags(vk.AccessMemoryReadBit)
	}
	if access&MemoryAccessMemoryWrite != 0 {
		flags |= vk.AccessFlags(vk.AccessMemoryWriteBit)
	}
	return flags
}

func toVkDescriptorType(t DescriptorType) (vk.DescriptorType, bool) {
	switch t {
	case DescriptorTypeSampler:
		return vk.DescriptorTypeSampler, true
	case DescriptorTypeSampledImage:
		return vk.DescriptorTypeSampledImage, true
	case DescriptorTypeStorageImage:
		return vk.DescriptorTypeStorageImage, true
	case DescriptorTypeUniformBuffer:
		return vk.DescriptorTypeUniformBuffer, true
	case DescriptorTypeStorageBuffer:
		return vk.DescriptorTypeStorageBuffer, true
	}
	return 0, false
}

func toVkFilter(f Filter) vk.Filter {
	if f == FilterLinear {
		return vk.FilterLinear
	}
	return vk.FilterNearest
}

func toVkAddressMode(m SamplerAddressMode) vk.SamplerAddressMode {
	switch m {
	case SamplerAddressModeMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	case SamplerAddressModeClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case SamplerAddressModeClampToBorder:
		return vk.SamplerAddressModeClampToBorder
	}
	return vk.SamplerAddressModeRepeat
}
