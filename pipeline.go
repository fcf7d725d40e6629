// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// pipelineResource holds the compute pipeline and everything derived
// for it from the shader's reflection. The bindings slice is a
// snapshot taken at creation; it, not the shader, is authoritative for
// descriptor updates afterwards.
type pipelineResource struct {
	pipeline       vk.Pipeline
	layout         vk.PipelineLayout
	setLayout      vk.DescriptorSetLayout
	descriptorPool vk.DescriptorPool
	descriptorSet  vk.DescriptorSet

	bindings          []Binding
	pushConstantsSize uint32
	shader            Handle
}

// CreatePipeline derives a descriptor-set layout, a descriptor pool
// with exactly one set and a pipeline layout from the shader's
// reflection, then builds the compute pipeline. Any sub-object failure
// unwinds the ones already created, in reverse order.
func (c *Context) CreatePipeline(device, shader Handle) (Handle, error) {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return 0, fmt.Errorf("create pipeline: %w", err)
	}
	shd, err := c.shaders.resolve(shader)
	if err != nil {
		return 0, fmt.Errorf("create pipeline: %w", err)
	}

	layoutBindings, poolSizes, err := describeDescriptors(shd.reflection.Bindings)
	if err != nil {
		return 0, err
	}

	h, record := c.pipelines.create()
	var undo rollback
	defer undo.run()
	undo.add(func() { c.pipelines.release(h) })

	setLayout, err := c.api.CreateDescriptorSetLayout(dev.logical, layoutBindings)
	if err != nil {
		return 0, err
	}
	undo.add(func() { c.api.DestroyDescriptorSetLayout(dev.logical, setLayout) })

	pool, err := c.api.CreateDescriptorPool(dev.logical, poolSizes)
	if err != nil {
		return 0, err
	}
	undo.add(func() { c.api.DestroyDescriptorPool(dev.logical, pool) })

	set, err := c.api.AllocateDescriptorSet(dev.logical, pool, setLayout)
	if err != nil {
		return 0, err
	}

	layout, err := c.api.CreatePipelineLayout(dev.logical, setLayout, shd.reflection.PushConstantsSize)
	if err != nil {
		return 0, err
	}
	undo.add(func() { c.api.DestroyPipelineLayout(dev.logical, layout) })

	pipeline, err := c.api.CreateComputePipeline(dev.logical, layout, shd.module)
	if err != nil {
		return 0, err
	}

	*record = pipelineResource{
		pipeline:          pipeline,
		layout:            layout,
		setLayout:         setLayout,
		descriptorPool:    pool,
		descriptorSet:     set,
		bindings:          append([]Binding(nil), shd.reflection.Bindings...),
		pushConstantsSize: shd.reflection.PushConstantsSize,
		shader:            shader,
	}
	undo.cancel()
	return h, nil
}

// DestroyPipeline releases the pipeline's native sub-objects in
// reverse creation order and frees the handle. The descriptor set is
// returned with its pool.
func (c *Context) DestroyPipeline(device, pipeline Handle) error {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return fmt.Errorf("destroy pipeline: %w", err)
	}
	pl, err := c.pipelines.resolve(pipeline)
	if err != nil {
		return fmt.Errorf("destroy pipeline: %w", err)
	}
	c.api.DestroyPipeline(dev.logical, pl.pipeline)
	c.api.DestroyPipelineLayout(dev.logical, pl.layout)
	c.api.DestroyDescriptorPool(dev.logical, pl.descriptorPool)
	c.api.DestroyDescriptorSetLayout(dev.logical, pl.setLayout)
	return c.pipelines.release(pipeline)
}

// describeDescriptors turns reflected bindings into layout bindings
// plus pool sizes, summing counts per descriptor kind. A descriptor
// kind outside the supported set is fatal.
func describeDescriptors(bindings []Binding) ([]vk.DescriptorSetLayoutBinding, []vk.DescriptorPoolSize, error) {
	layoutBindings := make([]vk.DescriptorSetLayoutBinding, 0, len(bindings))
	counts := make(map[vk.DescriptorType]uint32)
	order := make([]vk.DescriptorType, 0, len(bindings))

	for _, binding := range bindings {
		descriptorType, ok := toVkDescriptorType(binding.DescriptorType)
		if !ok {
			return nil, nil, fmt.Errorf("%w: descriptor type %d on binding %d", ErrBindingMismatch, binding.DescriptorType, binding.Binding)
		}
		layoutBindings = append(layoutBindings, vk.DescriptorSetLayoutBinding{
			Binding:         binding.Binding,
			DescriptorType:  descriptorType,
			DescriptorCount: binding.Count,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageComputeBit),
		})
		if _, seen := counts[descriptorType]; !seen {
			order = append(order, descriptorType)
		}
		counts[descriptorType] += binding.Count
	}

	poolSizes := make([]vk.DescriptorPoolSize, 0, len(order))
	for _, descriptorType := range order {
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{
			Type:            descriptorType,
			DescriptorCount: counts[descriptorType],
		})
	}
	return layoutBindings, poolSizes, nil
}
