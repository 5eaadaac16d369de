package sculpt

import (
	"errors"
	"sync"

	"github.com/gogpu/gpucontext"
)

// ErrFallbackToCPU indicates the engine cannot handle this extraction.
// The caller should transparently fall back to the CPU pipeline.
var ErrFallbackToCPU = errors.New("sculpt: falling back to CPU extraction")

// Engine is an optional extraction backend.
//
// When registered via RegisterEngine, the Extractor tries the engine first
// for every extraction. If the engine returns ErrFallbackToCPU or any other
// error, extraction transparently falls back to the CPU pipeline.
//
// Implementations are provided by backend packages (e.g., sculpt/gpu).
// Users opt in via blank import:
//
//	import _ "github.com/gogpu/sculpt/gpu" // enables GPU extraction
type Engine interface {
	// Name returns the engine name (e.g., "wgpu").
	Name() string

	// Init initializes backend resources. Called once during registration.
	Init() error

	// Close releases backend resources.
	Close()

	// Extract runs the five-stage pipeline on the backend and returns the
	// compacted result as a single atomic Snapshot.
	// Returns ErrFallbackToCPU if this extraction cannot be accelerated.
	Extract(field []float32, size GridSize, isovalue float32) (Snapshot, error)
}

// DeviceProviderAware is an optional interface for engines that can share
// GPU resources with an external provider (e.g., a gogpu window).
// When SetEngineDeviceProvider is called, the engine reuses the provided GPU
// device instead of creating its own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	engineMu sync.RWMutex
	engine   Engine
)

// RegisterEngine registers an extraction engine for optional acceleration.
//
// Only one engine can be registered. Subsequent calls replace the previous
// one. The engine's Init() method is called during registration; if it
// fails, the engine is not registered and the error is returned.
//
// Typical usage via blank import in backend packages:
//
//	func init() {
//	    sculpt.RegisterEngine(wgpuEngine())
//	}
func RegisterEngine(e Engine) error {
	if e == nil {
		return errors.New("sculpt: engine must not be nil")
	}
	if err := e.Init(); err != nil {
		return err
	}
	engineMu.Lock()
	old := engine
	engine = e
	engineMu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// RegisteredEngine returns the currently registered engine, or nil if none.
func RegisteredEngine() Engine {
	engineMu.RLock()
	e := engine
	engineMu.RUnlock()
	return e
}

// DeviceHandle provides GPU device access from a host application.
//
// The host (e.g., a gogpu window) implements DeviceHandle and passes it to
// SetEngineDevice, allowing the extraction engine to share the host's GPU
// device instead of creating its own. DeviceHandle is an alias for
// gpucontext.DeviceProvider for compatibility with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// SetEngineDevice passes a shared device handle to the registered engine.
// Equivalent to SetEngineDeviceProvider with a typed handle.
func SetEngineDevice(handle DeviceHandle) error {
	return SetEngineDeviceProvider(handle)
}

// SetEngineDeviceProvider passes a device provider to the registered engine,
// enabling GPU device sharing. If no engine is registered or it doesn't
// support device sharing, this is a no-op.
func SetEngineDeviceProvider(provider any) error {
	e := RegisteredEngine()
	if e == nil {
		return nil
	}
	if dpa, ok := e.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
