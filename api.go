// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// physicalDeviceInfo is the snapshot taken of a physical device before
// a logical device is created from it.
type physicalDeviceInfo struct {
	Name          string
	APIVersion    uint32
	Features      DeviceFeatures
	Limits        DeviceLimits
	Extensions    []string
	MemoryTypes   []memoryType
	QueueFamilies []queueFamilyInfo
}

type memoryType struct {
	Properties vk.MemoryPropertyFlags
	HeapIndex  uint32
}

type queueFamilyInfo struct {
	Flags vk.QueueFlags
	Count uint32
}

type memoryRequirements struct {
	Size      uint64
	Alignment uint64
	TypeBits  uint32
}

type imageCreateInfo struct {
	Width  uint32
	Height uint32
	Depth  uint32
	Is3D   bool
	Format vk.Format
	Usage  vk.ImageUsageFlags
	Tiling vk.ImageTiling
}

// nativeAPI is the seam between the layer and the Vulkan entry points,
// in the shape of a per-device dispatch table. Production code uses
// vulkanAPI; tests substitute a counting fake so construction rollback
// and barrier emission are observable without a GPU.
//
// Query methods return plain snapshots instead of native info structs
// so readback stays confined to the implementation.
type nativeAPI interface {
	// Instance.
	CreateInstance(appName string, appVersion uint32, debug bool) error
	DestroyInstance()
	EnumeratePhysicalDevices() ([]vk.PhysicalDevice, error)
	PhysicalDeviceInfo(pd vk.PhysicalDevice) (physicalDeviceInfo, error)

	// Device.
	CreateDevice(pd vk.PhysicalDevice, queueFamily uint32, extensions []string, features DeviceFeatures) (vk.Device, error)
	DestroyDevice(dev vk.Device)
	DeviceQueue(dev vk.Device, queueFamily uint32) vk.Queue
	CreateCommandPool(dev vk.Device, queueFamily uint32) (vk.CommandPool, error)
	DestroyCommandPool(dev vk.Device, pool vk.CommandPool)
	CreateQueryPool(dev vk.Device, queryCount uint32) (vk.QueryPool, error)
	DestroyQueryPool(dev vk.Device, pool vk.QueryPool)

	// Memory.
	AllocateMemory(dev vk.Device, size uint64, typeIndex uint32) (vk.DeviceMemory, error)
	FreeMemory(dev vk.Device, memory vk.DeviceMemory)
	MapMemory(dev vk.Device, memory vk.DeviceMemory, offset, size uint64) (unsafe.Pointer, error)
	UnmapMemory(dev vk.Device, memory vk.DeviceMemory)
	FlushMappedRange(dev vk.Device, memory vk.DeviceMemory, offset, size uint64) error
	InvalidateMappedRange(dev vk.Device, memory vk.DeviceMemory, offset, size uint64) error

	// Buffers.
	CreateBuffer(dev vk.Device, size uint64, usage vk.BufferUsageFlags) (vk.Buffer, error)
	DestroyBuffer(dev vk.Device, buffer vk.Buffer)
	BufferMemoryRequirements(dev vk.Device, buffer vk.Buffer) memoryRequirements
	BindBufferMemory(dev vk.Device, buffer vk.Buffer, memory vk.DeviceMemory) error

	// Images.
	CreateImage(dev vk.Device, info imageCreateInfo) (vk.Image, error)
	DestroyImage(dev vk.Device, image vk.Image)
	ImageMemoryRequirements(dev vk.Device, image vk.Image) memoryRequirements
	BindImageMemory(dev vk.Device, image vk.Image, memory vk.DeviceMemory) error
	CreateImageView(dev vk.Device, image vk.Image, is3D bool, format vk.Format) (vk.ImageView, error)
	DestroyImageView(dev vk.Device, view vk.ImageView)

	// Samplers.
	CreateSampler(dev vk.Device, desc SamplerDescription) (vk.Sampler, error)
	DestroySampler(dev vk.Device, sampler vk.Sampler)

	// Shaders and pipelines.
	CreateShaderModule(dev vk.Device, code []byte) (vk.ShaderModule, error)
	DestroyShaderModule(dev vk.Device, module vk.ShaderModule)
	CreateDescriptorSetLayout(dev vk.Device, bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(dev vk.Device, layout vk.DescriptorSetLayout)
	CreateDescriptorPool(dev vk.Device, sizes []vk.DescriptorPoolSize) (vk.DescriptorPool, error)
	DestroyDescriptorPool(dev vk.Device, pool vk.DescriptorPool)
	AllocateDescriptorSet(dev vk.Device, pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error)
	CreatePipelineLayout(dev vk.Device, layout vk.DescriptorSetLayout, pushConstantsSize uint32) (vk.PipelineLayout, error)
	DestroyPipelineLayout(dev vk.Device, layout vk.PipelineLayout)
	CreateComputePipeline(dev vk.Device, layout vk.PipelineLayout, module vk.ShaderModule) (vk.Pipeline, error)
	DestroyPipeline(dev vk.Device, pipeline vk.Pipeline)
	UpdateDescriptorSets(dev vk.Device, writes []vk.WriteDescriptorSet)

	// Fences.
	CreateFence(dev vk.Device, signaled bool) (vk.Fence, error)
	DestroyFence(dev vk.Device, fence vk.Fence)
	WaitForFence(dev vk.Device, fence vk.Fence) error
	ResetFence(dev vk.Device, fence vk.Fence) error

	// Command buffers and recording.
	AllocateCommandBuffer(dev vk.Device, pool vk.CommandPool) (vk.CommandBuffer, error)
	FreeCommandBuffer(dev vk.Device, pool vk.CommandPool, cb vk.CommandBuffer)
	BeginCommandBuffer(cb vk.CommandBuffer) error
	EndCommandBuffer(cb vk.CommandBuffer) error
	CmdBindPipeline(cb vk.CommandBuffer, pipeline vk.Pipeline, layout vk.PipelineLayout, set vk.DescriptorSet)
	CmdDispatch(cb vk.CommandBuffer, x, y, z uint32)
	CmdPushConstants(cb vk.CommandBuffer, layout vk.PipelineLayout, size uint32, data unsafe.Pointer)
	CmdPipelineBarrier(cb vk.CommandBuffer, srcStages, dstStages vk.PipelineStageFlags,
		memory []vk.MemoryBarrier, buffer []vk.BufferMemoryBarrier, image []vk.ImageMemoryBarrier)
	CmdCopyBuffer(cb vk.CommandBuffer, src, dst vk.Buffer, srcOffset, dstOffset, size uint64)
	CmdCopyBufferToImage(cb vk.CommandBuffer, buffer vk.Buffer, bufferOffset uint64,
		image vk.Image, layout vk.ImageLayout, width, height, depth uint32)
	CmdResetQueryPool(cb vk.CommandBuffer, pool vk.QueryPool, first, count uint32)
	CmdWriteTimestamp(cb vk.CommandBuffer, pool vk.QueryPool, query uint32)
	CmdCopyQueryPoolResults(cb vk.CommandBuffer, pool vk.QueryPool, first, count uint32,
		buffer vk.Buffer, offset uint64, wait bool)

	// Submission.
	QueueSubmit(queue vk.Queue, cb vk.CommandBuffer, fence vk.Fence) error
}
