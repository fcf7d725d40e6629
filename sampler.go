// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type samplerResource struct {
	sampler vk.Sampler
}

// SamplerDescription configures CreateSampler. A MaxAnisotropy above 1
// enables anisotropic filtering.
type SamplerDescription struct {
	MagFilter Filter
	MinFilter Filter

	AddressModeU SamplerAddressMode
	AddressModeV SamplerAddressMode
	AddressModeW SamplerAddressMode

	MaxAnisotropy           float32
	MinLod                  float32
	MaxLod                  float32
	UnnormalizedCoordinates bool
}

// CreateSampler creates a sampler. Samplers carry no mutable state.
func (c *Context) CreateSampler(device Handle, desc SamplerDescription) (Handle, error) {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return 0, fmt.Errorf("create sampler: %w", err)
	}

	h, record := c.samplers.create()
	var undo rollback
	defer undo.run()
	undo.add(func() { c.samplers.release(h) })

	sampler, err := c.api.CreateSampler(dev.logical, desc)
	if err != nil {
		return 0, err
	}

	record.sampler = sampler
	undo.cancel()
	return h, nil
}

// DestroySampler releases the sampler and frees the handle.
func (c *Context) DestroySampler(device, sampler Handle) error {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return fmt.Errorf("destroy sampler: %w", err)
	}
	smp, err := c.samplers.resolve(sampler)
	if err != nil {
		return fmt.Errorf("destroy sampler: %w", err)
	}
	c.api.DestroySampler(dev.logical, smp.sampler)
	return c.samplers.release(sampler)
}
