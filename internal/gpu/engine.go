//go:build !nogpu

// Package gpu implements the wgpu compute engine for Surface Nets
// extraction. All five pipeline stages run as compute shaders on the GPU;
// only the compacted result (counts, vertices, faces) is read back.
package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sculpt"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Engine is a GPU extraction engine using gogpu/wgpu compute shaders.
// It implements the sculpt.Engine interface.
type Engine struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	pipelines pipelineSet

	gpuReady       bool
	externalDevice bool // true when using a shared device (don't destroy on Close)
}

var _ sculpt.Engine = (*Engine)(nil)
var _ sculpt.DeviceProviderAware = (*Engine)(nil)

// New creates an uninitialized engine. Init must be called before Extract;
// sculpt.RegisterEngine does this automatically.
func New() *Engine {
	return &Engine{}
}

// Name returns the engine identifier.
func (e *Engine) Name() string { return "wgpu" }

// Init creates the GPU instance, selects an adapter, opens a device, and
// builds the five stage pipelines. Returns an error if no usable GPU is
// available; the engine is then left unregistered and extraction stays on
// the CPU.
func (e *Engine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("gpu: create instance: %w", err)
	}
	e.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		e.instance = nil
		return fmt.Errorf("gpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		e.instance = nil
		return fmt.Errorf("gpu: open device: %w", err)
	}
	e.device = openDev.Device
	e.queue = openDev.Queue

	if err := e.pipelines.create(e.device); err != nil {
		e.device.Destroy()
		e.instance.Destroy()
		e.device, e.queue, e.instance = nil, nil, nil
		return fmt.Errorf("gpu: create pipelines: %w", err)
	}

	e.gpuReady = true
	sculpt.Logger().Info("GPU extraction engine initialized", "adapter", selected.Info.Name)
	return nil
}

// Close releases all GPU resources. The engine must not be used afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pipelines.destroy(e.device)
	if !e.externalDevice {
		if e.device != nil {
			e.device.Destroy()
		}
		if e.instance != nil {
			e.instance.Destroy()
		}
	}
	e.device = nil
	e.queue = nil
	e.instance = nil
	e.gpuReady = false
	e.externalDevice = false
}

// SetDeviceProvider switches the engine to a shared GPU device from an
// external provider (e.g., a gogpu window). The provider must expose
// HalDevice() any and HalQueue() any returning hal types.
func (e *Engine) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.pipelines.destroy(e.device)
	if !e.externalDevice && e.device != nil {
		e.device.Destroy()
	}
	if e.instance != nil {
		e.instance.Destroy()
		e.instance = nil
	}

	e.device = device
	e.queue = queue
	e.externalDevice = true

	if err := e.pipelines.create(e.device); err != nil {
		e.gpuReady = false
		return fmt.Errorf("gpu: create pipelines with shared device: %w", err)
	}
	e.gpuReady = true
	sculpt.Logger().Info("GPU engine switched to shared device")
	return nil
}

// Extract runs the five-stage pipeline on the GPU and reads the compacted
// result back as one atomic snapshot. Returns sculpt.ErrFallbackToCPU when
// the engine has no usable device.
func (e *Engine) Extract(field []float32, size sculpt.GridSize, isovalue float32) (sculpt.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gpuReady {
		return sculpt.Snapshot{}, sculpt.ErrFallbackToCPU
	}

	cells := size.CellCount()
	if cells == 0 {
		// Nothing to dispatch; an empty grid has an empty, valid result.
		return sculpt.Snapshot{}, nil
	}

	run, err := newRunBuffers(e.device, len(field), cells)
	if err != nil {
		return sculpt.Snapshot{}, err
	}
	defer run.destroy(e.device)

	run.upload(e.queue, field, size, isovalue)
	if err := run.bind(e.device, &e.pipelines); err != nil {
		return sculpt.Snapshot{}, err
	}
	if err := e.dispatch(run); err != nil {
		return sculpt.Snapshot{}, err
	}
	return e.readback(run)
}
