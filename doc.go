// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gpu is a handle-based compute layer on top of Vulkan.
// It owns every native object it creates and hands out opaque
// generational handles instead, so a stale reference can never
// dereference freed GPU memory. The layer tracks the layout and
// access mask of every image it owns and inserts the pipeline
// barriers a dispatch needs, derived from shader reflection
// metadata and the cached per-image state.
//
// All state lives in a Context created by Initialize. The Context
// is single-threaded by contract; callers that share one across
// goroutines must serialize access themselves.
package gpu
