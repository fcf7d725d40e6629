// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"runtime"

	"github.com/gobuffalo/envy"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/gpu"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	if level, err := log.ParseLevel(envy.Get("GPU_LOG_LEVEL", "info")); err == nil {
		log.SetLevel(level)
	}
	debug := envy.Get("GPU_DEBUG", "") != ""

	ctx, err := gpu.Initialize(gpu.Configuration{
		AppName:    "gpuinfo",
		AppVersion: 1,
		Debug:      debug,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer ctx.Terminate()

	device, err := ctx.CreateDevice()
	if err != nil {
		log.Fatal(err)
	}
	defer ctx.DestroyDevice(device)

	features, err := ctx.GetPhysicalDeviceFeatures(device)
	if err != nil {
		log.Fatal(err)
	}
	limits, err := ctx.GetPhysicalDeviceLimits(device)
	if err != nil {
		log.Fatal(err)
	}

	log.WithFields(log.Fields{
		"samplerAnisotropy": features.SamplerAnisotropy,
		"shaderInt16":       features.ShaderInt16,
		"shaderInt64":       features.ShaderInt64,
		"shaderFloat64":     features.ShaderFloat64,
		"subgroupBasic":     features.SubgroupBasic,
		"subgroupBallot":    features.SubgroupBallot,
	}).Info("device features")

	log.WithFields(log.Fields{
		"maxImageDimension2D":       limits.MaxImageDimension2D,
		"maxImageDimension3D":       limits.MaxImageDimension3D,
		"maxPushConstantsSize":      limits.MaxPushConstantsSize,
		"maxComputeSharedMemory":    limits.MaxComputeSharedMemorySize,
		"maxComputeInvocations":     limits.MaxComputeWorkGroupInvocations,
		"maxStorageBufferRange":     limits.MaxStorageBufferRange,
		"minStorageOffsetAlignment": limits.MinStorageBufferOffsetAlignment,
		"nonCoherentAtomSize":       limits.NonCoherentAtomSize,
		"timestampPeriod":           limits.TimestampPeriod,
	}).Info("device limits")
}
