//go:build !nogpu

// Package gpu registers the wgpu compute engine for GPU-accelerated
// Surface Nets extraction.
//
// Import this package to run all five extraction stages (vertex
// generation, two stream compactions, face generation, and the prefix
// sums between them) as compute shaders, with a single readback of the
// compacted result.
//
// If GPU initialization fails (no Vulkan available), the registration is
// silently skipped and extraction falls back to the CPU pipeline.
//
// Usage:
//
//	import _ "github.com/gogpu/sculpt/gpu" // enable GPU extraction
package gpu

import (
	"github.com/gogpu/sculpt"
	gpuimpl "github.com/gogpu/sculpt/internal/gpu"
)

func init() {
	if err := sculpt.RegisterEngine(gpuimpl.New()); err != nil {
		sculpt.Logger().Warn("GPU extraction engine not available", "err", err)
	}
}

// SetDeviceProvider configures the extraction engine to use a shared GPU
// device from an external provider (e.g., a gogpu window), instead of
// creating its own instance. The provider should be a
// gpucontext.DeviceProvider that also exposes HAL device and queue
// accessors.
//
// Call this after the engine is registered and before submitting work.
func SetDeviceProvider(provider any) error {
	return sculpt.SetEngineDeviceProvider(provider)
}
