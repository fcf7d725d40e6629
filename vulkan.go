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

// vulkanAPI is the production nativeAPI. It is the only place raw
// Vulkan entry points are called from.
type vulkanAPI struct {
	instance vk.Instance
}

func (a *vulkanAPI) CreateInstance(appName string, appVersion uint32, debug bool) error {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return fmt.Errorf("vk.SetDefaultGetInstanceProcAddr(): %s", err)
	}
	if err := vk.Init(); err != nil {
		return fmt.Errorf("vk.Init(): %s", err)
	}

	var layers []string
	if debug {
		layers = append(layers, safeString("VK_LAYER_KHRONOS_validation"))
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(appName),
		ApplicationVersion: appVersion,
		PEngineName:        safeString("gpu"),
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.MakeVersion(1, 1, 0),
	}
	instanceInfo := vk.InstanceCreateInfo{
		SType:               vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:    &appInfo,
		EnabledLayerCount:   uint32(len(layers)),
		PpEnabledLayerNames: layers,
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return fmt.Errorf("vk.CreateInstance(): %s", err)
	}
	vk.InitInstance(instance)
	a.instance = instance
	return nil
}

func (a *vulkanAPI) DestroyInstance() {
	vk.DestroyInstance(a.instance, nil)
	a.instance = nil
}

func (a *vulkanAPI) EnumeratePhysicalDevices() ([]vk.PhysicalDevice, error) {
	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(a.instance, &count, nil)); err != nil {
		return nil, fmt.Errorf("vk.EnumeratePhysicalDevices(): %s", err)
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(a.instance, &count, devices)); err != nil {
		return nil, fmt.Errorf("vk.EnumeratePhysicalDevices(): %s", err)
	}
	return devices, nil
}

func (a *vulkanAPI) PhysicalDeviceInfo(pd vk.PhysicalDevice) (physicalDeviceInfo, error) {
	var info physicalDeviceInfo

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &props)
	props.Deref()
	props.Limits.Deref()
	info.Name = vk.ToString(props.DeviceName[:])
	info.APIVersion = props.ApiVersion
	info.Limits = DeviceLimits{
		MaxImageDimension1D:             props.Limits.MaxImageDimension1D,
		MaxImageDimension2D:             props.Limits.MaxImageDimension2D,
		MaxImageDimension3D:             props.Limits.MaxImageDimension3D,
		MaxPushConstantsSize:            props.Limits.MaxPushConstantsSize,
		MaxComputeSharedMemorySize:      props.Limits.MaxComputeSharedMemorySize,
		MaxComputeWorkGroupCount:        props.Limits.MaxComputeWorkGroupCount,
		MaxComputeWorkGroupInvocations:  props.Limits.MaxComputeWorkGroupInvocations,
		MaxComputeWorkGroupSize:         props.Limits.MaxComputeWorkGroupSize,
		MaxStorageBufferRange:           props.Limits.MaxStorageBufferRange,
		MaxSamplerAnisotropy:            props.Limits.MaxSamplerAnisotropy,
		MinStorageBufferOffsetAlignment: uint64(props.Limits.MinStorageBufferOffsetAlignment),
		MinUniformBufferOffsetAlignment: uint64(props.Limits.MinUniformBufferOffsetAlignment),
		NonCoherentAtomSize:             uint64(props.Limits.NonCoherentAtomSize),
		TimestampPeriod:                 props.Limits.TimestampPeriod,
	}

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(pd, &features)
	features.Deref()
	info.Features = DeviceFeatures{
		TextureCompressionBC:              features.TextureCompressionBC == vk.True,
		ShaderImageGatherExtended:         features.ShaderImageGatherExtended == vk.True,
		ShaderStorageImageExtendedFormats: features.ShaderStorageImageExtendedFormats == vk.True,
		ShaderInt16:                       features.ShaderInt16 == vk.True,
		ShaderInt64:                       features.ShaderInt64 == vk.True,
		ShaderFloat64:                     features.ShaderFloat64 == vk.True,
		SamplerAnisotropy:                 features.SamplerAnisotropy == vk.True,
	}

	var numExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &numExtensions, nil)); err != nil {
		return info, fmt.Errorf("vk.EnumerateDeviceExtensionProperties(): %s", err)
	}
	extensions := make([]vk.ExtensionProperties, numExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &numExtensions, extensions)); err != nil {
		return info, fmt.Errorf("vk.EnumerateDeviceExtensionProperties(): %s", err)
	}
	for _, ext := range extensions {
		ext.Deref()
		info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	// Subgroup capability is inferred from the core version the driver
	// reports: 1.1 mandates basic operations in compute, ballot is core
	// by 1.2 and available earlier through the EXT extension.
	info.Features.SubgroupBasic = info.APIVersion >= vk.MakeVersion(1, 1, 0)
	info.Features.SubgroupBallot = info.APIVersion >= vk.MakeVersion(1, 2, 0) ||
		hasExtension(info.Extensions, "VK_EXT_shader_subgroup_ballot")

	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memProperties)
	memProperties.Deref()
	for idx := uint32(0); idx < memProperties.MemoryTypeCount; idx++ {
		memProperties.MemoryTypes[idx].Deref()
		info.MemoryTypes = append(info.MemoryTypes, memoryType{
			Properties: memProperties.MemoryTypes[idx].PropertyFlags,
			HeapIndex:  memProperties.MemoryTypes[idx].HeapIndex,
		})
	}

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, families)
	for i := range families {
		families[i].Deref()
		info.QueueFamilies = append(info.QueueFamilies, queueFamilyInfo{
			Flags: families[i].QueueFlags,
			Count: families[i].QueueCount,
		})
	}
	return info, nil
}

func hasExtension(extensions []string, name string) bool {
	for _, ext := range extensions {
		if ext == name {
			return true
		}
	}
	return false
}

func (a *vulkanAPI) CreateDevice(pd vk.PhysicalDevice, queueFamily uint32, extensions []string, features DeviceFeatures) (vk.Device, error) {
	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: queueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}

	enabled := vk.PhysicalDeviceFeatures{}
	if features.SamplerAnisotropy {
		enabled.SamplerAnisotropy = vk.True
	}
	if features.ShaderImageGatherExtended {
		enabled.ShaderImageGatherExtended = vk.True
	}
	if features.ShaderStorageImageExtendedFormats {
		enabled.ShaderStorageImageExtendedFormats = vk.True
	}
	if features.ShaderInt16 {
		enabled.ShaderInt16 = vk.True
	}

	deviceInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueInfo},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{enabled},
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(pd, &deviceInfo, nil, &device)); err != nil {
		return nil, fmt.Errorf("vk.CreateDevice(): %s", err)
	}
	return device, nil
}

func (a *vulkanAPI) DestroyDevice(dev vk.Device) {
	vk.DestroyDevice(dev, nil)
}

func (a *vulkanAPI) DeviceQueue(dev vk.Device, queueFamily uint32) vk.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(dev, queueFamily, 0, &queue)
	return queue
}

func (a *vulkanAPI) CreateCommandPool(dev vk.Device, queueFamily uint32) (vk.CommandPool, error) {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: queueFamily,
	}
	var pool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(dev, &info, nil, &pool)); err != nil {
		return pool, fmt.Errorf("vk.CreateCommandPool(): %s", err)
	}
	return pool, nil
}

func (a *vulkanAPI) DestroyCommandPool(dev vk.Device, pool vk.CommandPool) {
	vk.DestroyCommandPool(dev, pool, nil)
}

func (a *vulkanAPI) CreateQueryPool(dev vk.Device, queryCount uint32) (vk.QueryPool, error) {
	info := vk.QueryPoolCreateInfo{
		SType:      vk.StructureTypeQueryPoolCreateInfo,
		QueryType:  vk.QueryTypeTimestamp,
		QueryCount: queryCount,
	}
	var pool vk.QueryPool
	if err := vk.Error(vk.CreateQueryPool(dev, &info, nil, &pool)); err != nil {
		return pool, fmt.Errorf("vk.CreateQueryPool(): %s", err)
	}
	return pool, nil
}

func (a *vulkanAPI) DestroyQueryPool(dev vk.Device, pool vk.QueryPool) {
	vk.DestroyQueryPool(dev, pool, nil)
}

func (a *vulkanAPI) AllocateMemory(dev vk.Device, size uint64, typeIndex uint32) (vk.DeviceMemory, error) {
	info := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	}
	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(dev, &info, nil, &memory)); err != nil {
		return memory, fmt.Errorf("vk.AllocateMemory(): %s", err)
	}
	return memory, nil
}

func (a *vulkanAPI) FreeMemory(dev vk.Device, memory vk.DeviceMemory) {
	vk.FreeMemory(dev, memory, nil)
}

func (a *vulkanAPI) MapMemory(dev vk.Device, memory vk.DeviceMemory, offset, size uint64) (unsafe.Pointer, error) {
	var ptr unsafe.Pointer
	if err := vk.Error(vk.MapMemory(dev, memory, vk.DeviceSize(offset), vk.DeviceSize(size), 0, &ptr)); err != nil {
		return nil, fmt.Errorf("vk.MapMemory(): %s", err)
	}
	return ptr, nil
}

func (a *vulkanAPI) UnmapMemory(dev vk.Device, memory vk.DeviceMemory) {
	vk.UnmapMemory(dev, memory)
}

func (a *vulkanAPI) FlushMappedRange(dev vk.Device, memory vk.DeviceMemory, offset, size uint64) error {
	ranges := []vk.MappedMemoryRange{{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: memory,
		Offset: vk.DeviceSize(offset),
		Size:   vk.DeviceSize(size),
	}}
	if err := vk.Error(vk.FlushMappedMemoryRanges(dev, 1, ranges)); err != nil {
		return fmt.Errorf("vk.FlushMappedMemoryRanges(): %s", err)
	}
	return nil
}

func (a *vulkanAPI) InvalidateMappedRange(dev vk.Device, memory vk.DeviceMemory, offset, size uint64) error {
	ranges := []vk.MappedMemoryRange{{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: memory,
		Offset: vk.DeviceSize(offset),
		Size:   vk.DeviceSize(size),
	}}
	if err := vk.Error(vk.InvalidateMappedMemoryRanges(dev, 1, ranges)); err != nil {
		return fmt.Errorf("vk.InvalidateMappedMemoryRanges(): %s", err)
	}
	return nil
}

func (a *vulkanAPI) CreateBuffer(dev vk.Device, size uint64, usage vk.BufferUsageFlags) (vk.Buffer, error) {
	info := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(dev, &info, nil, &buffer)); err != nil {
		return buffer, fmt.Errorf("vk.CreateBuffer(): %s", err)
	}
	return buffer, nil
}

func (a *vulkanAPI) DestroyBuffer(dev vk.Device, buffer vk.Buffer) {
	vk.DestroyBuffer(dev, buffer, nil)
}

func (a *vulkanAPI) BufferMemoryRequirements(dev vk.Device, buffer vk.Buffer) memoryRequirements {
	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev, buffer, &requirements)
	requirements.Deref()
	return memoryRequirements{
		Size:      uint64(requirements.Size),
		Alignment: uint64(requirements.Alignment),
		TypeBits:  requirements.MemoryTypeBits,
	}
}

func (a *vulkanAPI) BindBufferMemory(dev vk.Device, buffer vk.Buffer, memory vk.DeviceMemory) error {
	if err := vk.Error(vk.BindBufferMemory(dev, buffer, memory, 0)); err != nil {
		return fmt.Errorf("vk.BindBufferMemory(): %s", err)
	}
	return nil
}

func (a *vulkanAPI) CreateImage(dev vk.Device, info imageCreateInfo) (vk.Image, error) {
	imageType := vk.ImageType2d
	if info.Is3D {
		imageType = vk.ImageType3d
	}
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: imageType,
		Format:    info.Format,
		Extent: vk.Extent3D{
			Width:  info.Width,
			Height: info.Height,
			Depth:  info.Depth,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        info.Tiling,
		Usage:         info.Usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var image vk.Image
	if err := vk.Error(vk.CreateImage(dev, &createInfo, nil, &image)); err != nil {
		return image, fmt.Errorf("vk.CreateImage(): %s", err)
	}
	return image, nil
}

func (a *vulkanAPI) DestroyImage(dev vk.Device, image vk.Image) {
	vk.DestroyImage(dev, image, nil)
}

func (a *vulkanAPI) ImageMemoryRequirements(dev vk.Device, image vk.Image) memoryRequirements {
	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, image, &requirements)
	requirements.Deref()
	return memoryRequirements{
		Size:      uint64(requirements.Size),
		Alignment: uint64(requirements.Alignment),
		TypeBits:  requirements.MemoryTypeBits,
	}
}

func (a *vulkanAPI) BindImageMemory(dev vk.Device, image vk.Image, memory vk.DeviceMemory) error {
	if err := vk.Error(vk.BindImageMemory(dev, image, memory, 0)); err != nil {
		return fmt.Errorf("vk.BindImageMemory(): %s", err)
	}
	return nil
}

func (a *vulkanAPI) CreateImageView(dev vk.Device, image vk.Image, is3D bool, format vk.Format) (vk.ImageView, error) {
	viewType := vk.ImageViewType2d
	if is3D {
		viewType = vk.ImageViewType3d
	}
	info := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: viewType,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(dev, &info, nil, &view)); err != nil {
		return view, fmt.Errorf("vk.CreateImageView(): %s", err)
	}
	return view, nil
}

func (a *vulkanAPI) DestroyImageView(dev vk.Device, view vk.ImageView) {
	vk.DestroyImageView(dev, view, nil)
}

func (a *vulkanAPI) CreateSampler(dev vk.Device, desc SamplerDescription) (vk.Sampler, error) {
	anisotropyEnable := vk.Bool32(vk.False)
	if desc.MaxAnisotropy > 1 {
		anisotropyEnable = vk.True
	}
	unnormalized := vk.Bool32(vk.False)
	if desc.UnnormalizedCoordinates {
		unnormalized = vk.True
	}
	info := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               toVkFilter(desc.MagFilter),
		MinFilter:               toVkFilter(desc.MinFilter),
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            toVkAddressMode(desc.AddressModeU),
		AddressModeV:            toVkAddressMode(desc.AddressModeV),
		AddressModeW:            toVkAddressMode(desc.AddressModeW),
		AnisotropyEnable:        anisotropyEnable,
		MaxAnisotropy:           desc.MaxAnisotropy,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  desc.MinLod,
		MaxLod:                  desc.MaxLod,
		BorderColor:             vk.BorderColorFloatOpaqueBlack,
		UnnormalizedCoordinates: unnormalized,
	}
	var sampler vk.Sampler
	if err := vk.Error(vk.CreateSampler(dev, &info, nil, &sampler)); err != nil {
		return sampler, fmt.Errorf("vk.CreateSampler(): %s", err)
	}
	return sampler, nil
}

func (a *vulkanAPI) DestroySampler(dev vk.Device, sampler vk.Sampler) {
	vk.DestroySampler(dev, sampler, nil)
}

func (a *vulkanAPI) CreateShaderModule(dev vk.Device, code []byte) (vk.ShaderModule, error) {
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}
	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(dev, &info, nil, &module)); err != nil {
		return module, fmt.Errorf("vk.CreateShaderModule(): %s", err)
	}
	return module, nil
}

func (a *vulkanAPI) DestroyShaderModule(dev vk.Device, module vk.ShaderModule) {
	vk.DestroyShaderModule(dev, module, nil)
}

func (a *vulkanAPI) CreateDescriptorSetLayout(dev vk.Device, bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	info := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if err := vk.Error(vk.CreateDescriptorSetLayout(dev, &info, nil, &layout)); err != nil {
		return layout, fmt.Errorf("vk.CreateDescriptorSetLayout(): %s", err)
	}
	return layout, nil
}

func (a *vulkanAPI) DestroyDescriptorSetLayout(dev vk.Device, layout vk.DescriptorSetLayout) {
	vk.DestroyDescriptorSetLayout(dev, layout, nil)
}

func (a *vulkanAPI) CreateDescriptorPool(dev vk.Device, sizes []vk.DescriptorPoolSize) (vk.DescriptorPool, error) {
	info := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var pool vk.DescriptorPool
	if err := vk.Error(vk.CreateDescriptorPool(dev, &info, nil, &pool)); err != nil {
		return pool, fmt.Errorf("vk.CreateDescriptorPool(): %s", err)
	}
	return pool, nil
}

func (a *vulkanAPI) DestroyDescriptorPool(dev vk.Device, pool vk.DescriptorPool) {
	vk.DestroyDescriptorPool(dev, pool, nil)
}

func (a *vulkanAPI) AllocateDescriptorSet(dev vk.Device, pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	info := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	sets := make([]vk.DescriptorSet, 1)
	if err := vk.Error(vk.AllocateDescriptorSets(dev, &info, &sets[0])); err != nil {
		return sets[0], fmt.Errorf("vk.AllocateDescriptorSets(): %s", err)
	}
	return sets[0], nil
}

func (a *vulkanAPI) CreatePipelineLayout(dev vk.Device, layout vk.DescriptorSetLayout, pushConstantsSize uint32) (vk.PipelineLayout, error) {
	info := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{layout},
	}
	if pushConstantsSize > 0 {
		info.PushConstantRangeCount = 1
		info.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageComputeBit),
			Offset:     0,
			Size:       pushConstantsSize,
		}}
	}
	var pipelineLayout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(dev, &info, nil, &pipelineLayout)); err != nil {
		return pipelineLayout, fmt.Errorf("vk.CreatePipelineLayout(): %s", err)
	}
	return pipelineLayout, nil
}

func (a *vulkanAPI) DestroyPipelineLayout(dev vk.Device, layout vk.PipelineLayout) {
	vk.DestroyPipelineLayout(dev, layout, nil)
}

func (a *vulkanAPI) CreateComputePipeline(dev vk.Device, layout vk.PipelineLayout, module vk.ShaderModule) (vk.Pipeline, error) {
	info := vk.ComputePipelineCreateInfo{
		SType: vk.StructureTypeComputePipelineCreateInfo,
		Stage: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageComputeBit,
			Module: module,
			PName:  safeString("main"),
		},
		Layout: layout,
	}
	var cache vk.PipelineCache
	pipelines := make([]vk.Pipeline, 1)
	if err := vk.Error(vk.CreateComputePipelines(dev, cache, 1, []vk.ComputePipelineCreateInfo{info}, nil, pipelines)); err != nil {
		return pipelines[0], fmt.Errorf("vk.CreateComputePipelines(): %s", err)
	}
	return pipelines[0], nil
}

func (a *vulkanAPI) DestroyPipeline(dev vk.Device, pipeline vk.Pipeline) {
	vk.DestroyPipeline(dev, pipeline, nil)
}

func (a *vulkanAPI) UpdateDescriptorSets(dev vk.Device, writes []vk.WriteDescriptorSet) {
	vk.UpdateDescriptorSets(dev, uint32(len(writes)), writes, 0, nil)
}

func (a *vulkanAPI) CreateFence(dev vk.Device, signaled bool) (vk.Fence, error) {
	info := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(dev, &info, nil, &fence)); err != nil {
		return fence, fmt.Errorf("vk.CreateFence(): %s", err)
	}
	return fence, nil
}

func (a *vulkanAPI) DestroyFence(dev vk.Device, fence vk.Fence) {
	vk.DestroyFence(dev, fence, nil)
}

func (a *vulkanAPI) WaitForFence(dev vk.Device, fence vk.Fence) error {
	if err := vk.Error(vk.WaitForFences(dev, 1, []vk.Fence{fence}, vk.True, ^uint64(0))); err != nil {
		return fmt.Errorf("vk.WaitForFences(): %s", err)
	}
	return nil
}

func (a *vulkanAPI) ResetFence(dev vk.Device, fence vk.Fence) error {
	if err := vk.Error(vk.ResetFences(dev, 1, []vk.Fence{fence})); err != nil {
		return fmt.Errorf("vk.ResetFences(): %s", err)
	}
	return nil
}

func (a *vulkanAPI) AllocateCommandBuffer(dev vk.Device, pool vk.CommandPool) (vk.CommandBuffer, error) {
	info := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(dev, &info, buffers)); err != nil {
		return buffers[0], fmt.Errorf("vk.AllocateCommandBuffers(): %s", err)
	}
	return buffers[0], nil
}

func (a *vulkanAPI) FreeCommandBuffer(dev vk.Device, pool vk.CommandPool, cb vk.CommandBuffer) {
	vk.FreeCommandBuffers(dev, pool, 1, []vk.CommandBuffer{cb})
}

func (a *vulkanAPI) BeginCommandBuffer(cb vk.CommandBuffer) error {
	info := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(cb, &info)); err != nil {
		return fmt.Errorf("vk.BeginCommandBuffer(): %s", err)
	}
	return nil
}

func (a *vulkanAPI) EndCommandBuffer(cb vk.CommandBuffer) error {
	if err := vk.Error(vk.EndCommandBuffer(cb)); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer(): %s", err)
	}
	return nil
}

func (a *vulkanAPI) CmdBindPipeline(cb vk.CommandBuffer, pipeline vk.Pipeline, layout vk.PipelineLayout, set vk.DescriptorSet) {
	vk.CmdBindPipeline(cb, vk.PipelineBindPointCompute, pipeline)
	vk.CmdBindDescriptorSets(cb, vk.PipelineBindPointCompute, layout, 0, 1, []vk.DescriptorSet{set}, 0, nil)
}

func (a *vulkanAPI) CmdDispatch(cb vk.CommandBuffer, x, y, z uint32) {
	vk.CmdDispatch(cb, x, y, z)
}

func (a *vulkanAPI) CmdPushConstants(cb vk.CommandBuffer, layout vk.PipelineLayout, size uint32, data unsafe.Pointer) {
	vk.CmdPushConstants(cb, layout, vk.ShaderStageFlags(vk.ShaderStageComputeBit), 0, size, data)
}

func (a *vulkanAPI) CmdPipelineBarrier(cb vk.CommandBuffer, srcStages, dstStages vk.PipelineStageFlags,
	memory []vk.MemoryBarrier, buffer []vk.BufferMemoryBarrier, image []vk.ImageMemoryBarrier) {
	vk.CmdPipelineBarrier(cb, srcStages, dstStages, 0,
		uint32(len(memory)), memory,
		uint32(len(buffer)), buffer,
		uint32(len(image)), image)
}

func (a *vulkanAPI) CmdCopyBuffer(cb vk.CommandBuffer, src, dst vk.Buffer, srcOffset, dstOffset, size uint64) {
	region := vk.BufferCopy{
		SrcOffset: vk.DeviceSize(srcOffset),
		DstOffset: vk.DeviceSize(dstOffset),
		Size:      vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(cb, src, dst, 1, []vk.BufferCopy{region})
}

func (a *vulkanAPI) CmdCopyBufferToImage(cb vk.CommandBuffer, buffer vk.Buffer, bufferOffset uint64,
	image vk.Image, layout vk.ImageLayout, width, height, depth uint32) {
	region := vk.BufferImageCopy{
		BufferOffset: vk.DeviceSize(bufferOffset),
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  depth,
		},
	}
	vk.CmdCopyBufferToImage(cb, buffer, image, layout, 1, []vk.BufferImageCopy{region})
}

func (a *vulkanAPI) CmdResetQueryPool(cb vk.CommandBuffer, pool vk.QueryPool, first, count uint32) {
	vk.CmdResetQueryPool(cb, pool, first, count)
}

func (a *vulkanAPI) CmdWriteTimestamp(cb vk.CommandBuffer, pool vk.QueryPool, query uint32) {
	vk.CmdWriteTimestamp(cb, vk.PipelineStageComputeShaderBit, pool, query)
}

func (a *vulkanAPI) CmdCopyQueryPoolResults(cb vk.CommandBuffer, pool vk.QueryPool, first, count uint32,
	buffer vk.Buffer, offset uint64, wait bool) {
	flags := vk.QueryResultFlags(vk.QueryResult64Bit)
	stride := vk.DeviceSize(8)
	if wait {
		flags |= vk.QueryResultFlags(vk.QueryResultWaitBit)
	} else {
		// Availability doubles the stride: one value, one flag.
		flags |= vk.QueryResultFlags(vk.QueryResultWithAvailabilityBit)
		stride = 16
	}
	vk.CmdCopyQueryPoolResults(cb, pool, first, count, buffer, vk.DeviceSize(offset), stride, flags)
}

func (a *vulkanAPI) QueueSubmit(queue vk.Queue, cb vk.CommandBuffer, fence vk.Fence) error {
	info := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb},
	}
	if err := vk.Error(vk.QueueSubmit(queue, 1, []vk.SubmitInfo{info}, fence)); err != nil {
		return fmt.Errorf("vk.QueueSubmit(): %s", err)
	}
	return nil
}
