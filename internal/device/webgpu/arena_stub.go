//go:build !windows

// Package webgpu backs a device arena with WebGPU buffers. On platforms
// where the go-webgpu bindings are not built, New reports the backend as
// unavailable.
package webgpu

import (
	"fmt"

	"github.com/mica-ml/mica/internal/device"
)

// Arena is unavailable on this platform.
type Arena struct{}

var _ device.Arena = (*Arena)(nil)

// New reports that WebGPU support is not compiled in.
func New() (*Arena, error) {
	return nil, fmt.Errorf("webgpu: not supported on this platform")
}

// Name identifies the arena in registry logs.
func (a *Arena) Name() string { return "webgpu" }

// Alloc always fails on this platform.
func (a *Arena) Alloc(n int) (device.Buffer, error) {
	return nil, fmt.Errorf("%w: webgpu not supported on this platform", device.ErrNoMemory)
}

// Free is a no-op on this platform.
func (a *Arena) Free(device.Buffer) {}
