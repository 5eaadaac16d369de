package sculpt

import (
	"context"
	"errors"

	"github.com/gogpu/sculpt/internal/parallel"
)

// Extractor runs Surface Nets extractions. It owns a worker pool for the
// CPU pipeline and carries the configured isovalue and mesh size; it holds
// no state between extractions, so independent Extract calls may run
// concurrently on the same Extractor.
type Extractor struct {
	cfg  config
	pool *parallel.Pool
}

// New creates an Extractor. See the Option functions for configuration.
func New(opts ...Option) *Extractor {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Extractor{
		cfg:  cfg,
		pool: parallel.New(cfg.workers),
	}
}

// Close releases the extractor's worker pool. In-flight extractions still
// run to completion: stages that reach the pool after Close execute on the
// submitting goroutine instead of being dropped. The Extractor must not be
// used for new extractions after Close.
func (e *Extractor) Close() {
	e.pool.Close()
}

// Extract runs the full pipeline on the given density field and returns the
// assembled mesh. The field must hold exactly size.DensityCount() samples
// in z-major order and is only read for the duration of the call.
//
// Malformed input is rejected before any stage runs. If an engine is
// available it produces the compacted result; on any engine error Extract
// transparently falls back to the CPU pipeline.
func (e *Extractor) Extract(field []float32, size GridSize) (*Mesh, error) {
	return e.extract(context.Background(), field, size)
}

func (e *Extractor) extract(ctx context.Context, field []float32, size GridSize) (*Mesh, error) {
	if err := validate(field, size); err != nil {
		return nil, err
	}

	snap, err := e.snapshot(ctx, field, size)
	if err != nil {
		return nil, err
	}
	return BuildMesh(snap, size, e.cfg.meshSize)
}

// snapshot produces the compacted vertex/face result, preferring the
// configured or registered engine and falling back to the CPU pipeline.
func (e *Extractor) snapshot(ctx context.Context, field []float32, size GridSize) (Snapshot, error) {
	eng := e.cfg.engine
	if eng == nil {
		eng = RegisteredEngine()
	}
	if eng != nil {
		snap, err := eng.Extract(field, size, e.cfg.isovalue)
		switch {
		case err == nil:
			if verr := snap.Validate(); verr != nil {
				// A short readback must not be assembled; surface it so
				// the host can retry rather than silently recomputing.
				return Snapshot{}, verr
			}
			return snap, nil
		case errors.Is(err, ErrIncompleteReadback):
			return Snapshot{}, err
		case errors.Is(err, ErrFallbackToCPU):
			// Expected signal, not worth a warning.
		default:
			Logger().Warn("engine extraction failed, falling back to CPU",
				"engine", eng.Name(), "err", err)
		}
	}
	return extractCPU(ctx, e.pool, field, size, e.cfg.isovalue)
}
