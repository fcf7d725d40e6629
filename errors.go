// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import "errors"

// Sentinel errors returned by Context operations. Calls wrap them
// with context, so match with errors.Is rather than equality.
var (
	// ErrInvalidHandle is returned when a handle fails the generation
	// check, either because it was never issued or already destroyed.
	ErrInvalidHandle = errors.New("gpu: invalid handle")

	// ErrLimitReached is returned when a fixed-capacity scratch array
	// (physical devices, queue families, barriers, descriptor infos)
	// would overflow.
	ErrLimitReached = errors.New("gpu: hardcoded limit reached")

	// ErrBindingMismatch is returned when a reflected shader binding has
	// no matching caller-supplied resource, or a reflected descriptor
	// kind is not supported by the compute path.
	ErrBindingMismatch = errors.New("gpu: binding mismatch")

	// ErrAlignment is returned when a buffer binding offset violates the
	// device minimum storage buffer offset alignment.
	ErrAlignment = errors.New("gpu: offset alignment violation")

	// ErrUnsupportedDevice is returned when no physical device satisfies
	// the queue, extension or subgroup requirements.
	ErrUnsupportedDevice = errors.New("gpu: unsupported device")
)
