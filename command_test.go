// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import (
	"errors"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestCopyBufferWholeSize(t *testing.T) {
	fixture := newBindingFixture(t, computeReflection())
	src := fixture.buffer(t, 512)
	dst := fixture.buffer(t, 1024)

	if err := fixture.ctx.CopyBuffer(fixture.cmd, src, dst, 0, 0, WholeSize); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if len(fixture.fake.bufferCopies) != 1 {
		t.Fatalf("expected 1 copy, got %d", len(fixture.fake.bufferCopies))
	}
	if got := fixture.fake.bufferCopies[0].size; got != 512 {
		t.Fatalf("whole size copy should cover the source size, got %d", got)
	}
}

func TestCopyBufferToImageForcesGeneralLayout(t *testing.T) {
	fixture := newBindingFixture(t, computeReflection())
	buffer := fixture.buffer(t, 1024)
	image := fixture.image(t, ImageUsageTransferDst)

	if err := fixture.ctx.CopyBufferToImage(fixture.cmd, buffer, image, 0); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if len(fixture.fake.barrierCalls) != 1 {
		t.Fatalf("expected a transition barrier, got %d calls", len(fixture.fake.barrierCalls))
	}
	barrier := fixture.fake.barrierCalls[0].images[0]
	if barrier.NewLayout != vk.ImageLayoutGeneral {
		t.Fatalf("expected transition to general, got %d", barrier.NewLayout)
	}
	if barrier.DstAccessMask&vk.AccessFlags(vk.AccessMemoryWriteBit) == 0 {
		t.Fatal("destination access should include memory-write")
	}

	img, err := fixture.ctx.images.resolve(image)
	if err != nil {
		t.Fatalf("resolve image: %v", err)
	}
	if img.layout != vk.ImageLayoutGeneral {
		t.Fatalf("cached layout should be general, got %d", img.layout)
	}
	if len(fixture.fake.imageCopies) != 1 {
		t.Fatalf("expected 1 image copy, got %d", len(fixture.fake.imageCopies))
	}
	if got := fixture.fake.imageCopies[0].layout; got != vk.ImageLayoutGeneral {
		t.Fatalf("copy should target general layout, got %d", got)
	}

	// Already general: the second copy records no further barrier.
	if err := fixture.ctx.CopyBufferToImage(fixture.cmd, buffer, image, 0); err != nil {
		t.Fatalf("second copy: %v", err)
	}
	if len(fixture.fake.barrierCalls) != 1 {
		t.Fatalf("expected no additional barrier, got %d calls", len(fixture.fake.barrierCalls))
	}
}

func TestPipelineBarrierUpdatesAccessKeepsLayout(t *testing.T) {
	fixture := newBindingFixture(t, computeReflection())
	image := fixture.image(t, ImageUsageStorage)

	img, err := fixture.ctx.images.resolve(image)
	if err != nil {
		t.Fatalf("resolve image: %v", err)
	}
	img.layout = vk.ImageLayoutGeneral
	img.accessMask = vk.AccessFlags(vk.AccessShaderWriteBit)

	err = fixture.ctx.PipelineBarrier(fixture.cmd, Barrier{
		Images: []ImageBarrier{{Image: image, DstAccess: MemoryAccessShaderRead}},
	})
	if err != nil {
		t.Fatalf("barrier: %v", err)
	}

	call := fixture.fake.barrierCalls[len(fixture.fake.barrierCalls)-1]
	barrier := call.images[0]
	if barrier.OldLayout != barrier.NewLayout {
		t.Fatal("access barrier must not change the layout")
	}
	if barrier.SrcAccessMask != vk.AccessFlags(vk.AccessShaderWriteBit) {
		t.Fatalf("source access should come from cached state, got %#x", barrier.SrcAccessMask)
	}

	img, err = fixture.ctx.images.resolve(image)
	if err != nil {
		t.Fatalf("resolve image: %v", err)
	}
	if img.accessMask != vk.AccessFlags(vk.AccessShaderReadBit) {
		t.Fatalf("cached access not updated, got %#x", img.accessMask)
	}
	if img.layout != vk.ImageLayoutGeneral {
		t.Fatal("cached layout must be unchanged")
	}
}

func TestPipelineBarrierBufferWholeSize(t *testing.T) {
	fixture := newBindingFixture(t, computeReflection())
	buffer := fixture.buffer(t, 2048)

	err := fixture.ctx.PipelineBarrier(fixture.cmd, Barrier{
		Buffers: []BufferBarrier{{
			SrcAccess: MemoryAccessShaderWrite,
			DstAccess: MemoryAccessTransferRead,
			Buffer:    buffer,
			Offset:    512,
			Size:      WholeSize,
		}},
	})
	if err != nil {
		t.Fatalf("barrier: %v", err)
	}
	call := fixture.fake.barrierCalls[len(fixture.fake.barrierCalls)-1]
	if got := call.buffers[0].Size; got != vk.DeviceSize(1536) {
		t.Fatalf("expected range 1536, got %d", got)
	}
}

func TestTimestampBounds(t *testing.T) {
	fixture := newBindingFixture(t, computeReflection())
	buffer := fixture.buffer(t, 1024)

	if err := fixture.ctx.ResetTimestamps(fixture.cmd, 0, timestampQueryCount); err != nil {
		t.Fatalf("full reset should fit the pool: %v", err)
	}
	if err := fixture.ctx.ResetTimestamps(fixture.cmd, 1, timestampQueryCount); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}

	if err := fixture.ctx.WriteTimestamp(fixture.cmd, timestampQueryCount-1); err != nil {
		t.Fatalf("last query should be writable: %v", err)
	}
	if err := fixture.ctx.WriteTimestamp(fixture.cmd, timestampQueryCount); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}

	if err := fixture.ctx.CopyTimestamps(fixture.cmd, buffer, 0, timestampQueryCount-1, 1, true); err != nil {
		t.Fatalf("copy of the last query should fit: %v", err)
	}
	if err := fixture.ctx.CopyTimestamps(fixture.cmd, buffer, 0, timestampQueryCount-1, 2, true); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}

	if err := fixture.ctx.CopyTimestamps(fixture.cmd, buffer, 64, 0, 4, false); err != nil {
		t.Fatalf("copy: %v", err)
	}
	last := fixture.fake.queryCopies[len(fixture.fake.queryCopies)-1]
	if last.wait || last.offset != 64 || last.count != 4 {
		t.Fatalf("unexpected copy parameters: %+v", last)
	}
}

func TestPushConstantsSizeChecked(t *testing.T) {
	fixture := newBindingFixture(t, computeReflection())

	if err := fixture.ctx.PushConstants(fixture.cmd, fixture.pipeline, make([]byte, 8)); err == nil {
		t.Fatal("expected size mismatch to fail")
	}
	if err := fixture.ctx.PushConstants(fixture.cmd, fixture.pipeline, make([]byte, 16)); err != nil {
		t.Fatalf("push constants: %v", err)
	}
	if len(fixture.fake.pushSizes) != 1 || fixture.fake.pushSizes[0] != 16 {
		t.Fatalf("expected one 16 byte push, got %v", fixture.fake.pushSizes)
	}
}

func TestPushConstantsEmptyBlock(t *testing.T) {
	fixture := newBindingFixture(t, Reflection{
		Bindings: []Binding{
			{Binding: 0, Count: 1, DescriptorType: DescriptorTypeStorageBuffer, WriteAccess: true},
		},
	})

	if err := fixture.ctx.PushConstants(fixture.cmd, fixture.pipeline, nil); err != nil {
		t.Fatalf("empty push against an empty block: %v", err)
	}
	if len(fixture.fake.pushSizes) != 0 {
		t.Fatalf("empty block should record nothing, got %v", fixture.fake.pushSizes)
	}
	if err := fixture.ctx.PushConstants(fixture.cmd, fixture.pipeline, make([]byte, 4)); err == nil {
		t.Fatal("expected data against an empty block to fail")
	}
}

func TestPipelineBarrierBufferOffsetBeyondSize(t *testing.T) {
	fixture := newBindingFixture(t, computeReflection())
	buffer := fixture.buffer(t, 256)
	recorded := len(fixture.fake.barrierCalls)

	err := fixture.ctx.PipelineBarrier(fixture.cmd, Barrier{
		Buffers: []BufferBarrier{{
			SrcAccess: MemoryAccessShaderWrite,
			DstAccess: MemoryAccessTransferRead,
			Buffer:    buffer,
			Offset:    512,
			Size:      WholeSize,
		}},
	})
	if err == nil {
		t.Fatal("expected an offset past the buffer end to fail")
	}
	if len(fixture.fake.barrierCalls) != recorded {
		t.Fatal("failed barrier must not be recorded")
	}
}

func TestStaleHandleRejected(t *testing.T) {
	fixture := newBindingFixture(t, computeReflection())
	buffer := fixture.buffer(t, 256)

	if err := fixture.ctx.DestroyBuffer(fixture.device, buffer); err != nil {
		t.Fatalf("destroy buffer: %v", err)
	}
	err := fixture.ctx.CopyBuffer(fixture.cmd, buffer, buffer, 0, 0, WholeSize)
	if !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("expected ErrInvalidHandle, got %v", err)
	}
}
