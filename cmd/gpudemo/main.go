// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command gpudemo runs a small compute workload end to end: it loads a
// buffer fill kernel from the embedded shader pack, dispatches it over
// a host-visible storage buffer and reads the result back.
package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/envy"
	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/gpu"
	"github.com/devblok/gpu/utility/spak"
)

const (
	kernelPack = "demo.spak"
	kernelName = "fill.comp.spv"

	elementCount = 1024
	groupSize    = 64
)

// Kernels holds the shader pack compiled into the binary.
var Kernels = packr.NewBox("./kernels")

func init() {
	runtime.LockOSThread()
}

// fillReflector describes the fill kernel layout: one storage buffer
// at binding zero and a vec4 fill color in push constants. The kernel
// interface is fixed, so no SPIR-V introspection is needed here.
type fillReflector struct{}

func (fillReflector) Reflect(code []byte) (gpu.Reflection, error) {
	return gpu.Reflection{
		PushConstantsSize: 16,
		Bindings: []gpu.Binding{{
			Binding:        0,
			Count:          1,
			DescriptorType: gpu.DescriptorTypeStorageBuffer,
			WriteAccess:    true,
		}},
	}, nil
}

func main() {
	if level, err := log.ParseLevel(envy.Get("GPU_LOG_LEVEL", "info")); err == nil {
		log.SetLevel(level)
	}

	code, err := loadKernel()
	if err != nil {
		log.Fatal(err)
	}

	ctx, err := gpu.Initialize(gpu.Configuration{
		AppName:    "gpudemo",
		AppVersion: 1,
		Debug:      envy.Get("GPU_DEBUG", "") != "",
		Reflector:  fillReflector{},
	})
	if err != nil {
		log.Fatal(err)
	}
	defer ctx.Terminate()

	if err := run(ctx, code); err != nil {
		log.Fatal(err)
	}
}

func loadKernel() ([]byte, error) {
	pack := Kernels.Bytes(kernelPack)
	if len(pack) == 0 {
		return nil, fmt.Errorf("missing embedded pack %s", kernelPack)
	}
	archive, err := spak.Open(bytes.NewReader(pack))
	if err != nil {
		return nil, err
	}
	return archive.ReadAll(kernelName)
}

func run(ctx *gpu.Context, code []byte) error {
	device, err := ctx.CreateDevice()
	if err != nil {
		return err
	}
	defer ctx.DestroyDevice(device)

	shader, err := ctx.CreateShader(device, code)
	if err != nil {
		return err
	}
	defer ctx.DestroyShader(device, shader)

	pipeline, err := ctx.CreatePipeline(device, shader)
	if err != nil {
		return err
	}
	defer ctx.DestroyPipeline(device, pipeline)

	buffer, err := ctx.CreateBuffer(device, gpu.BufferDescription{
		Usage:            gpu.BufferUsageStorage,
		MemoryProperties: gpu.MemoryPropertyHostVisible,
		Size:             elementCount * 16,
	})
	if err != nil {
		return err
	}
	defer ctx.DestroyBuffer(device, buffer)

	mapped, err := ctx.MapBuffer(device, buffer)
	if err != nil {
		return err
	}
	for idx := range mapped {
		mapped[idx] = 0
	}
	if err := ctx.FlushMappedMemory(device, buffer, 0, gpu.WholeSize); err != nil {
		return err
	}

	cmd, err := ctx.CreateCommandBuffer(device)
	if err != nil {
		return err
	}
	defer ctx.DestroyCommandBuffer(cmd)

	fence, err := ctx.CreateFence(device)
	if err != nil {
		return err
	}
	defer ctx.DestroyFence(device, fence)

	if err := ctx.BeginCommandBuffer(cmd); err != nil {
		return err
	}
	if err := ctx.BindPipeline(cmd, pipeline); err != nil {
		return err
	}
	err = ctx.UpdateBindings(cmd, pipeline, gpu.Bindings{
		Buffers: []gpu.BufferBinding{{
			Binding: 0,
			Buffer:  buffer,
			Size:    gpu.WholeSize,
		}},
	})
	if err != nil {
		return err
	}
	if err := ctx.PushConstants(cmd, pipeline, vec4Bytes(mgl32.Vec4{1, 0.5, 0.25, 1})); err != nil {
		return err
	}
	if err := ctx.Dispatch(cmd, elementCount/groupSize, 1, 1); err != nil {
		return err
	}
	if err := ctx.EndCommandBuffer(cmd); err != nil {
		return err
	}

	if err := ctx.ResetFence(device, fence); err != nil {
		return err
	}
	if err := ctx.Submit(cmd, fence); err != nil {
		return err
	}
	if err := ctx.WaitFence(device, fence); err != nil {
		return err
	}
	if err := ctx.InvalidateMappedMemory(device, buffer, 0, gpu.WholeSize); err != nil {
		return err
	}

	first := mgl32.Vec4{
		math.Float32frombits(binary.LittleEndian.Uint32(mapped[0:])),
		math.Float32frombits(binary.LittleEndian.Uint32(mapped[4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(mapped[8:])),
		math.Float32frombits(binary.LittleEndian.Uint32(mapped[12:])),
	}
	log.WithFields(log.Fields{
		"elements": elementCount,
		"first":    first,
	}).Info("fill kernel finished")

	return ctx.UnmapBuffer(device, buffer)
}

func vec4Bytes(v mgl32.Vec4) []byte {
	out := make([]byte, 16)
	for idx, value := range v {
		binary.LittleEndian.PutUint32(out[idx*4:], math.Float32bits(value))
	}
	return out
}
