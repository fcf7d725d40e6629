// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

// Fixed scratch-array ceilings. Exceeding one of these yields
// ErrLimitReached instead of an unbounded allocation.
const (
	maxPhysicalDevices             = 8
	maxQueueFamilies               = 64
	maxDeviceExtensions            = 1024
	maxDescriptorSetLayoutBindings = 128
	maxDescriptorBufferInfos       = 64
	maxDescriptorImageInfos        = 2048
	maxWriteDescriptorSets         = 128
	maxMemoryBarriers              = 128
	maxBufferMemoryBarriers        = 64
	maxImageMemoryBarriers         = 2048

	// timestampQueryCount is the size of the per-device query pool.
	timestampQueryCount = 32
)

// Initial store capacities per resource kind. Stores grow past these
// by doubling.
const (
	initialDeviceCount        = 1
	initialBufferCount        = 16
	initialImageCount         = 64
	initialSamplerCount       = 64
	initialShaderCount        = 16
	initialPipelineCount      = 8
	initialFenceCount         = 8
	initialCommandBufferCount = 16
)

// DeviceFeatures is the feature snapshot captured at device creation,
// copied by value to callers of GetPhysicalDeviceFeatures.
type DeviceFeatures struct {
	TextureCompressionBC              bool
	ShaderImageGatherExtended         bool
	ShaderStorageImageExtendedFormats bool
	ShaderInt16                       bool
	ShaderInt64                       bool
	ShaderFloat64                     bool
	SamplerAnisotropy                 bool
	SubgroupBasic                     bool
	SubgroupBallot                    bool
}

// DeviceLimits is the limit snapshot captured at device creation,
// copied by value to callers of GetPhysicalDeviceLimits.
type DeviceLimits struct {
	MaxImageDimension1D             uint32
	MaxImageDimension2D             uint32
	MaxImageDimension3D             uint32
	MaxPushConstantsSize            uint32
	MaxComputeSharedMemorySize      uint32
	MaxComputeWorkGroupCount        [3]uint32
	MaxComputeWorkGroupInvocations  uint32
	MaxComputeWorkGroupSize         [3]uint32
	MaxStorageBufferRange           uint32
	MaxSamplerAnisotropy            float32
	MinStorageBufferOffsetAlignment uint64
	MinUniformBufferOffsetAlignment uint64
	NonCoherentAtomSize             uint64
	TimestampPeriod                 float32
}
