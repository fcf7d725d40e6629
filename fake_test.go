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

// fakeAPI implements nativeAPI without a GPU. It counts native object
// creation and destruction per kind, records barriers, descriptor
// writes and copies, and fails on demand so rollback paths can be
// exercised deterministically.
type fakeAPI struct {
	failOn    map[string]bool
	created   map[string]int
	destroyed map[string]int

	info               physicalDeviceInfo
	numPhysicalDevices int

	barrierCalls []fakeBarrierCall
	writeCalls   [][]vk.WriteDescriptorSet
	bufferCopies []fakeBufferCopy
	imageCopies  []fakeImageCopy
	dispatches   [][3]uint32
	pushSizes    []uint32
	queryResets  [][2]uint32
	timestamps   []uint32
	queryCopies  []fakeQueryCopy

	mapped      []byte
	begun       int
	ended       int
	binds       int
	submits     int
	fenceWaits  int
	fenceResets int
}

type fakeBarrierCall struct {
	src, dst vk.PipelineStageFlags
	memory   []vk.MemoryBarrier
	buffers  []vk.BufferMemoryBarrier
	images   []vk.ImageMemoryBarrier
}

type fakeBufferCopy struct {
	srcOffset, dstOffset, size uint64
}

type fakeImageCopy struct {
	bufferOffset         uint64
	layout               vk.ImageLayout
	width, height, depth uint32
}

type fakeQueryCopy struct {
	first, count uint32
	offset       uint64
	wait         bool
}

func newFakeAPI() *fakeAPI {
	extensions := append([]string(nil), DefaultDeviceExtensions...)
	extensions = append(extensions, optionalDeviceExtensions...)
	extensions = append(extensions, debugDeviceExtensions...)
	return &fakeAPI{
		failOn:             make(map[string]bool),
		created:            make(map[string]int),
		destroyed:          make(map[string]int),
		numPhysicalDevices: 1,
		mapped:             make([]byte, 1<<16),
		info: physicalDeviceInfo{
			Name:       "fake device",
			APIVersion: vk.MakeVersion(1, 2, 0),
			Features: DeviceFeatures{
				SamplerAnisotropy: true,
				ShaderInt16:       true,
				SubgroupBasic:     true,
				SubgroupBallot:    true,
			},
			Limits: DeviceLimits{
				MaxPushConstantsSize:            128,
				MinStorageBufferOffsetAlignment: 256,
				MinUniformBufferOffsetAlignment: 256,
				NonCoherentAtomSize:             64,
				TimestampPeriod:                 1,
			},
			Extensions: extensions,
			MemoryTypes: []memoryType{{
				Properties: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit |
					vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit |
					vk.MemoryPropertyHostCachedBit),
			}},
			QueueFamilies: []queueFamilyInfo{{
				Flags: vk.QueueFlags(vk.QueueComputeBit | vk.QueueTransferBit),
				Count: 1,
			}},
		},
	}
}

func (f *fakeAPI) check(name string) error {
	if f.failOn[name] {
		return fmt.Errorf("%s: forced failure", name)
	}
	return nil
}

// balanced reports the kinds whose create and destroy counts differ.
func (f *fakeAPI) balanced() []string {
	var leaks []string
	for kind, n := range f.created {
		if f.destroyed[kind] != n {
			leaks = append(leaks, fmt.Sprintf("%s: %d created, %d destroyed", kind, n, f.destroyed[kind]))
		}
	}
	return leaks
}

func (f *fakeAPI) CreateInstance(appName string, appVersion uint32, debug bool) error {
	if err := f.check("CreateInstance"); err != nil {
		return err
	}
	f.created["instance"]++
	return nil
}

func (f *fakeAPI) DestroyInstance() {
	f.destroyed["instance"]++
}

func (f *fakeAPI) EnumeratePhysicalDevices() ([]vk.PhysicalDevice, error) {
	if err := f.check("EnumeratePhysicalDevices"); err != nil {
		return nil, err
	}
	return make([]vk.PhysicalDevice, f.numPhysicalDevices), nil
}

func (f *fakeAPI) PhysicalDeviceInfo(pd vk.PhysicalDevice) (physicalDeviceInfo, error) {
	return f.info, f.check("PhysicalDeviceInfo")
}

func (f *fakeAPI) CreateDevice(pd vk.PhysicalDevice, queueFamily uint32, extensions []string, features DeviceFeatures) (vk.Device, error) {
	if err := f.check("CreateDevice"); err != nil {
		return nil, err
	}
	f.created["device"]++
	return nil, nil
}

func (f *fakeAPI) DestroyDevice(dev vk.Device) {
	f.destroyed["device"]++
}

func (f *fakeAPI) DeviceQueue(dev vk.Device, queueFamily uint32) vk.Queue {
	return nil
}

func (f *fakeAPI) CreateCommandPool(dev vk.Device, queueFamily uint32) (vk.CommandPool, error) {
	var pool vk.CommandPool
	if err := f.check("CreateCommandPool"); err != nil {
		return pool, err
	}
	f.created["commandPool"]++
	return pool, nil
}

func (f *fakeAPI) DestroyCommandPool(dev vk.Device, pool vk.CommandPool) {
	f.destroyed["commandPool"]++
}

func (f *fakeAPI) CreateQueryPool(dev vk.Device, queryCount uint32) (vk.QueryPool, error) {
	var pool vk.QueryPool
	if err := f.check("CreateQueryPool"); err != nil {
		return pool, err
	}
	f.created["queryPool"]++
	return pool, nil
}

func (f *fakeAPI) DestroyQueryPool(dev vk.Device, pool vk.QueryPool) {
	f.destroyed["queryPool"]++
}

func (f *fakeAPI) AllocateMemory(dev vk.Device, size uint64, typeIndex uint32) (vk.DeviceMemory, error) {
	var memory vk.DeviceMemory
	if err := f.check("AllocateMemory"); err != nil {
		return memory, err
	}
	f.created["memory"]++
	return memory, nil
}

func (f *fakeAPI) FreeMemory(dev vk.Device, memory vk.DeviceMemory) {
	f.destroyed["memory"]++
}

func (f *fakeAPI) MapMemory(dev vk.Device, memory vk.DeviceMemory, offset, size uint64) (unsafe.Pointer, error) {
	if err := f.check("MapMemory"); err != nil {
		return nil, err
	}
	return unsafe.Pointer(&f.mapped[0]), nil
}

func (f *fakeAPI) UnmapMemory(dev vk.Device, memory vk.DeviceMemory) {}

func (f *fakeAPI) FlushMappedRange(dev vk.Device, memory vk.DeviceMemory, offset, size uint64) error {
	return f.check("FlushMappedRange")
}

func (f *fakeAPI) InvalidateMappedRange(dev vk.Device, memory vk.DeviceMemory, offset, size uint64) error {
	return f.check("InvalidateMappedRange")
}

func (f *fakeAPI) CreateBuffer(dev vk.Device, size uint64, usage vk.BufferUsageFlags) (vk.Buffer, error) {
	var buffer vk.Buffer
	if err := f.check("CreateBuffer"); err != nil {
		return buffer, err
	}
	f.created["buffer"]++
	return buffer, nil
}

func (f *fakeAPI) DestroyBuffer(dev vk.Device, buffer vk.Buffer) {
	f.destroyed["buffer"]++
}

func (f *fakeAPI) BufferMemoryRequirements(dev vk.Device, buffer vk.Buffer) memoryRequirements {
	return memoryRequirements{Size: 4096, Alignment: 256, TypeBits: 1}
}

func (f *fakeAPI) BindBufferMemory(dev vk.Device, buffer vk.Buffer, memory vk.DeviceMemory) error {
	return f.check("BindBufferMemory")
}

func (f *fakeAPI) CreateImage(dev vk.Device, info imageCreateInfo) (vk.Image, error) {
	var image vk.Image
	if err := f.check("CreateImage"); err != nil {
		return image, err
	}
	f.created["image"]++
	return image, nil
}

func (f *fakeAPI) DestroyImage(dev vk.Device, image vk.Image) {
	f.destroyed["image"]++
}

func (f *fakeAPI) ImageMemoryRequirements(dev vk.Device, image vk.Image) memoryRequirements {
	return memoryRequirements{Size: 4096, Alignment: 256, TypeBits: 1}
}

func (f *fakeAPI) BindImageMemory(dev vk.Device, image vk.Image, memory vk.DeviceMemory) error {
	return f.check("BindImageMemory")
}

func (f *fakeAPI) CreateImageView(dev vk.Device, image vk.Image, is3D bool, format vk.Format) (vk.ImageView, error) {
	var view vk.ImageView
	if err := f.check("CreateImageView"); err != nil {
		return view, err
	}
	f.created["imageView"]++
	return view, nil
}

func (f *fakeAPI) DestroyImageView(dev vk.Device, view vk.ImageView) {
	f.destroyed["imageView"]++
}

func (f *fakeAPI) CreateSampler(dev vk.Device, desc SamplerDescription) (vk.Sampler, error) {
	var sampler vk.Sampler
	if err := f.check("CreateSampler"); err != nil {
		return sampler, err
	}
	f.created["sampler"]++
	return sampler, nil
}

func (f *fakeAPI) DestroySampler(dev vk.Device, sampler vk.Sampler) {
	f.destroyed["sampler"]++
}

func (f *fakeAPI) CreateShaderModule(dev vk.Device, code []byte) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	if err := f.check("CreateShaderModule"); err != nil {
		return module, err
	}
	f.created["shaderModule"]++
	return module, nil
}

func (f *fakeAPI) DestroyShaderModule(dev vk.Device, module vk.ShaderModule) {
	f.destroyed["shaderModule"]++
}

func (f *fakeAPI) CreateDescriptorSetLayout(dev vk.Device, bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	var layout vk.DescriptorSetLayout
	if err := f.check("CreateDescriptorSetLayout"); err != nil {
		return layout, err
	}
	f.created["setLayout"]++
	return layout, nil
}

func (f *fakeAPI) DestroyDescriptorSetLayout(dev vk.Device, layout vk.DescriptorSetLayout) {
	f.destroyed["setLayout"]++
}

func (f *fakeAPI) CreateDescriptorPool(dev vk.Device, sizes []vk.DescriptorPoolSize) (vk.DescriptorPool, error) {
	var pool vk.DescriptorPool
	if err := f.check("CreateDescriptorPool"); err != nil {
		return pool, err
	}
	f.created["descriptorPool"]++
	return pool, nil
}

func (f *fakeAPI) DestroyDescriptorPool(dev vk.Device, pool vk.DescriptorPool) {
	f.destroyed["descriptorPool"]++
}

func (f *fakeAPI) AllocateDescriptorSet(dev vk.Device, pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	var set vk.DescriptorSet
	return set, f.check("AllocateDescriptorSet")
}

func (f *fakeAPI) CreatePipelineLayout(dev vk.Device, layout vk.DescriptorSetLayout, pushConstantsSize uint32) (vk.PipelineLayout, error) {
	var pipelineLayout vk.PipelineLayout
	if err := f.check("CreatePipelineLayout"); err != nil {
		return pipelineLayout, err
	}
	f.created["pipelineLayout"]++
	return pipelineLayout, nil
}

func (f *fakeAPI) DestroyPipelineLayout(dev vk.Device, layout vk.PipelineLayout) {
	f.destroyed["pipelineLayout"]++
}

func (f *fakeAPI) CreateComputePipeline(dev vk.Device, layout vk.PipelineLayout, module vk.ShaderModule) (vk.Pipeline, error) {
	var pipeline vk.Pipeline
	if err := f.check("CreateComputePipeline"); err != nil {
		return pipeline, err
	}
	f.created["pipeline"]++
	return pipeline, nil
}

func (f *fakeAPI) DestroyPipeline(dev vk.Device, pipeline vk.Pipeline) {
	f.destroyed["pipeline"]++
}

func (f *fakeAPI) UpdateDescriptorSets(dev vk.Device, writes []vk.WriteDescriptorSet) {
	f.writeCalls = append(f.writeCalls, writes)
}

func (f *fakeAPI) CreateFence(dev vk.Device, signaled bool) (vk.Fence, error) {
	var fence vk.Fence
	if err := f.check("CreateFence"); err != nil {
		return fence, err
	}
	f.created["fence"]++
	return fence, nil
}

func (f *fakeAPI) DestroyFence(dev vk.Device, fence vk.Fence) {
	f.destroyed["fence"]++
}

func (f *fakeAPI) WaitForFence(dev vk.Device, fence vk.Fence) error {
	if err := f.check("WaitForFence"); err != nil {
		return err
	}
	f.fenceWaits++
	return nil
}

func (f *fakeAPI) ResetFence(dev vk.Device, fence vk.Fence) error {
	if err := f.check("ResetFence"); err != nil {
		return err
	}
	f.fenceResets++
	return nil
}

func (f *fakeAPI) AllocateCommandBuffer(dev vk.Device, pool vk.CommandPool) (vk.CommandBuffer, error) {
	if err := f.check("AllocateCommandBuffer"); err != nil {
		return nil, err
	}
	f.created["commandBuffer"]++
	return nil, nil
}

func (f *fakeAPI) FreeCommandBuffer(dev vk.Device, pool vk.CommandPool, cb vk.CommandBuffer) {
	f.destroyed["commandBuffer"]++
}

func (f *fakeAPI) BeginCommandBuffer(cb vk.CommandBuffer) error {
	if err := f.check("BeginCommandBuffer"); err != nil {
		return err
	}
	f.begun++
	return nil
}

func (f *fakeAPI) EndCommandBuffer(cb vk.CommandBuffer) error {
	if err := f.check("EndCommandBuffer"); err != nil {
		return err
	}
	f.ended++
	return nil
}

func (f *fakeAPI) CmdBindPipeline(cb vk.CommandBuffer, pipeline vk.Pipeline, layout vk.PipelineLayout, set vk.DescriptorSet) {
	f.binds++
}

func (f *fakeAPI) CmdDispatch(cb vk.CommandBuffer, x, y, z uint32) {
	f.dispatches = append(f.dispatches, [3]uint32{x, y, z})
}

func (f *fakeAPI) CmdPushConstants(cb vk.CommandBuffer, layout vk.PipelineLayout, size uint32, data unsafe.Pointer) {
	f.pushSizes = append(f.pushSizes, size)
}

func (f *fakeAPI) CmdPipelineBarrier(cb vk.CommandBuffer, srcStages, dstStages vk.PipelineStageFlags,
	memory []vk.MemoryBarrier, buffer []vk.BufferMemoryBarrier, image []vk.ImageMemoryBarrier) {
	f.barrierCalls = append(f.barrierCalls, fakeBarrierCall{
		src:     srcStages,
		dst:     dstStages,
		memory:  memory,
		buffers: buffer,
		images:  image,
	})
}

func (f *fakeAPI) CmdCopyBuffer(cb vk.CommandBuffer, src, dst vk.Buffer, srcOffset, dstOffset, size uint64) {
	f.bufferCopies = append(f.bufferCopies, fakeBufferCopy{srcOffset: srcOffset, dstOffset: dstOffset, size: size})
}

func (f *fakeAPI) CmdCopyBufferToImage(cb vk.CommandBuffer, buffer vk.Buffer, bufferOffset uint64,
	image vk.Image, layout vk.ImageLayout, width, height, depth uint32) {
	f.imageCopies = append(f.imageCopies, fakeImageCopy{
		bufferOffset: bufferOffset,
		layout:       layout,
		width:        width,
		height:       height,
		depth:        depth,
	})
}

func (f *fakeAPI) CmdResetQueryPool(cb vk.CommandBuffer, pool vk.QueryPool, first, count uint32) {
	f.queryResets = append(f.queryResets, [2]uint32{first, count})
}

func (f *fakeAPI) CmdWriteTimestamp(cb vk.CommandBuffer, pool vk.QueryPool, query uint32) {
	f.timestamps = append(f.timestamps, query)
}

func (f *fakeAPI) CmdCopyQueryPoolResults(cb vk.CommandBuffer, pool vk.QueryPool, first, count uint32,
	buffer vk.Buffer, offset uint64, wait bool) {
	f.queryCopies = append(f.queryCopies, fakeQueryCopy{first: first, count: count, offset: offset, wait: wait})
}

func (f *fakeAPI) QueueSubmit(queue vk.Queue, cb vk.CommandBuffer, fence vk.Fence) error {
	if err := f.check("QueueSubmit"); err != nil {
		return err
	}
	f.submits++
	return nil
}

// stubReflector returns a fixed reflection for any bytecode.
type stubReflector struct {
	reflection Reflection
	err        error
}

func (r stubReflector) Reflect(code []byte) (Reflection, error) {
	return r.reflection, r.err
}

// newTestContext builds a Context over a fresh fakeAPI with the given
// reflection preloaded.
func newTestContext(t interface{ Fatalf(string, ...interface{}) }, reflection Reflection) (*Context, *fakeAPI) {
	fake := newFakeAPI()
	ctx, err := initializeWithAPI(fake, Configuration{
		AppName:   "gpu-test",
		Reflector: stubReflector{reflection: reflection},
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return ctx, fake
}
