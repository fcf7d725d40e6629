// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type fenceResource struct {
	fence vk.Fence
}

// CreateFence creates a fence in the signaled state, so waiting on a
// fence that was never submitted returns immediately.
func (c *Context) CreateFence(device Handle) (Handle, error) {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return 0, fmt.Errorf("create fence: %w", err)
	}

	h, record := c.fences.create()
	var undo rollback
	defer undo.run()
	undo.add(func() { c.fences.release(h) })

	fence, err := c.api.CreateFence(dev.logical, true)
	if err != nil {
		return 0, err
	}

	record.fence = fence
	undo.cancel()
	return h, nil
}

// DestroyFence releases the fence and frees the handle.
func (c *Context) DestroyFence(device, fence Handle) error {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return fmt.Errorf("destroy fence: %w", err)
	}
	fc, err := c.fences.resolve(fence)
	if err != nil {
		return fmt.Errorf("destroy fence: %w", err)
	}
	c.api.DestroyFence(dev.logical, fc.fence)
	return c.fences.release(fence)
}

// WaitFence blocks the calling thread until the fence signals. There
// is no timeout; callers needing responsiveness run this off their
// main thread.
func (c *Context) WaitFence(device, fence Handle) error {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return fmt.Errorf("wait fence: %w", err)
	}
	fc, err := c.fences.resolve(fence)
	if err != nil {
		return fmt.Errorf("wait fence: %w", err)
	}
	return c.api.WaitForFence(dev.logical, fc.fence)
}

// ResetFence returns the fence to the unsignaled state.
func (c *Context) ResetFence(device, fence Handle) error {
	dev, err := c.devices.resolve(device)
	if err != nil {
		return fmt.Errorf("reset fence: %w", err)
	}
	fc, err := c.fences.resolve(fence)
	if err != nil {
		return fmt.Errorf("reset fence: %w", err)
	}
	return c.api.ResetFence(dev.logical, fc.fence)
}
