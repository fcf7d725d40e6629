// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import (
	"errors"
	"fmt"
)

// Configuration carries the options Initialize needs. The zero value
// is usable for feature queries; a Reflector is required before any
// shader can be created.
type Configuration struct {
	// AppName and AppVersion identify the application to the driver.
	AppName    string
	AppVersion uint32

	// Debug enables the validation layer and, on devices that offer
	// them, the shader clock and non-semantic-info extensions.
	Debug bool

	// Reflector produces binding metadata from shader bytecode.
	Reflector Reflector

	// DeviceExtensions overrides DefaultDeviceExtensions when non-nil.
	// Extensions listed here must be supported by the device or
	// CreateDevice fails.
	DeviceExtensions []string
}

// DefaultDeviceExtensions is the extension set negotiated when the
// Configuration does not override it. The ray tracing entries are not
// exercised by the compute path; they keep pipelines compatible with
// acceleration-structure capable callers.
var DefaultDeviceExtensions = []string{
	"VK_KHR_16bit_storage",
	"VK_EXT_descriptor_indexing",
	"VK_KHR_buffer_device_address",
	"VK_KHR_deferred_host_operations",
	"VK_KHR_acceleration_structure",
	"VK_KHR_ray_tracing_pipeline",
}

// Extensions enabled opportunistically, never required.
var optionalDeviceExtensions = []string{
	"VK_KHR_portability_subset",
}

var debugDeviceExtensions = []string{
	"VK_KHR_shader_clock",
	"VK_KHR_shader_non_semantic_info",
}

// Context owns every resource store and the native instance. All
// operations of the layer are methods on it. A Context is not safe
// for concurrent use.
type Context struct {
	api nativeAPI
	cfg Configuration

	devices        *store[deviceResource]
	buffers        *store[bufferResource]
	images         *store[imageResource]
	samplers       *store[samplerResource]
	shaders        *store[shaderResource]
	pipelines      *store[pipelineResource]
	fences         *store[fenceResource]
	commandBuffers *store[commandBufferResource]
}

// Initialize brings up the native instance and all resource stores.
// Pair every successful Initialize with a Terminate.
func Initialize(cfg Configuration) (*Context, error) {
	return initializeWithAPI(&vulkanAPI{}, cfg)
}

func initializeWithAPI(api nativeAPI, cfg Configuration) (*Context, error) {
	if err := api.CreateInstance(cfg.AppName, cfg.AppVersion, cfg.Debug); err != nil {
		return nil, fmt.Errorf("instance setup: %w", err)
	}
	return &Context{
		api:            api,
		cfg:            cfg,
		devices:        newStore[deviceResource](initialDeviceCount),
		buffers:        newStore[bufferResource](initialBufferCount),
		images:         newStore[imageResource](initialImageCount),
		samplers:       newStore[samplerResource](initialSamplerCount),
		shaders:        newStore[shaderResource](initialShaderCount),
		pipelines:      newStore[pipelineResource](initialPipelineCount),
		fences:         newStore[fenceResource](initialFenceCount),
		commandBuffers: newStore[commandBufferResource](initialCommandBufferCount),
	}, nil
}

// Terminate destroys the native instance. Resources still alive are
// not torn down individually; the caller is responsible for destroying
// them first. No handle is valid afterwards.
func (c *Context) Terminate() error {
	if c.api == nil {
		return errors.New("gpu: context already terminated")
	}
	live := c.devices.live + c.buffers.live + c.images.live + c.samplers.live +
		c.shaders.live + c.pipelines.live + c.fences.live + c.commandBuffers.live
	c.api.DestroyInstance()
	c.api = nil
	if live > 0 {
		return fmt.Errorf("gpu: terminated with %d live resources", live)
	}
	return nil
}

// rollback runs registered teardown steps in reverse order unless
// cancelled. Constructors register one step per native sub-object and
// cancel on success, so a failure at any point unwinds exactly the
// objects created before it.
type rollback struct {
	steps []func()
}

func (r *rollback) add(step func()) {
	r.steps = append(r.steps, step)
}

func (r *rollback) cancel() {
	r.steps = nil
}

func (r *rollback) run() {
	for i := len(r.steps) - 1; i >= 0; i-- {
		r.steps[i]()
	}
	r.steps = nil
}
