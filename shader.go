// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Binding is one reflected shader binding.
type Binding struct {
	// Binding is the binding index inside the shader's single set.
	Binding uint32
	// Count is the array size of the binding, 1 for scalars.
	Count uint32
	// DescriptorType is the resource kind the shader expects here.
	DescriptorType DescriptorType
	// ReadAccess and WriteAccess declare how the shader uses the
	// resource; they drive barrier destination access masks.
	ReadAccess  bool
	WriteAccess bool
}

// Reflection is the binding metadata of a shader, produced from its
// bytecode by a Reflector.
type Reflection struct {
	PushConstantsSize uint32
	Bindings          []Binding
}

// Reflector extracts binding metadata from shader bytecode. It is an
// external collaborator; the layer consumes its output as-is.
type Reflector interface {
	Reflect(code []byte) (Reflection, error)
}

type shaderResource struct {
	module     vk.ShaderModule
	reflection Reflection
}

// CreateShader builds a shader module from bytecode and runs the
// configured Reflector over it. The module is torn down again when
// reflection fails.
func (c *Context) CreateShader(device Handle, code []byte) (Handle, error) {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return 0, fmt.Errorf("create shader: %w", err)
	}
	if c.cfg.Reflector == nil {
		return 0, errors.New("gpu: no reflector configured")
	}

	h, record := c.shaders.create()
	var undo rollback
	defer undo.run()
	undo.add(func() { c.shaders.release(h) })

	module, err := c.api.CreateShaderModule(dev.logical, code)
	if err != nil {
		return 0, err
	}
	undo.add(func() { c.api.DestroyShaderModule(dev.logical, module) })

	reflection, err := c.cfg.Reflector.Reflect(code)
	if err != nil {
		return 0, fmt.Errorf("shader reflection: %s", err)
	}
	if len(reflection.Bindings) > maxDescriptorSetLayoutBindings {
		return 0, fmt.Errorf("%w: %d reflected bindings, max %d", ErrLimitReached, len(reflection.Bindings), maxDescriptorSetLayoutBindings)
	}

	*record = shaderResource{
		module:     module,
		reflection: reflection,
	}
	undo.cancel()
	return h, nil
}

// DestroyShader releases the shader module and frees the handle.
// Pipelines created from the shader keep their own snapshot of the
// reflection and stay usable.
func (c *Context) DestroyShader(device, shader Handle) error {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return fmt.Errorf("destroy shader: %w", err)
	}
	shd, err := c.shaders.resolve(shader)
	if err != nil {
		return fmt.Errorf("destroy shader: %w", err)
	}
	c.api.DestroyShaderModule(dev.logical, shd.module)
	return c.shaders.release(shader)
}
