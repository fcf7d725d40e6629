// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// memoryAllocator hands out device memory for one logical device,
// choosing a memory type from the physical-device snapshot taken at
// device creation.
type memoryAllocator struct {
	api    nativeAPI
	device vk.Device
	types  []memoryType
}

func newMemoryAllocator(api nativeAPI, device vk.Device, types []memoryType) *memoryAllocator {
	return &memoryAllocator{
		api:    api,
		device: device,
		types:  types,
	}
}

// allocate picks a compatible memory type and allocates requirements.Size
// bytes of it.
func (ma *memoryAllocator) allocate(requirements memoryRequirements, properties MemoryPropertyFlags) (vk.DeviceMemory, error) {
	index, err := ma.findMemoryType(requirements.TypeBits, toVkMemoryProperties(properties))
	if err != nil {
		var null vk.DeviceMemory
		return null, err
	}
	return ma.api.AllocateMemory(ma.device, requirements.Size, index)
}

func (ma *memoryAllocator) free(memory vk.DeviceMemory) {
	ma.api.FreeMemory(ma.device, memory)
}

func (ma *memoryAllocator) findMemoryType(filter uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	for idx := uint32(0); idx < uint32(len(ma.types)); idx++ {
		if filter&(1<<idx) != 0 && ma.types[idx].Properties&properties == properties {
			return idx, nil
		}
	}
	return 0, fmt.Errorf("gpu: no memory type matches filter %#x properties %#x", filter, properties)
}
