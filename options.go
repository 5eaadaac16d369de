package sculpt

import "github.com/go-gl/mathgl/mgl32"

// Option configures an Extractor during creation.
// Use functional options to customize behavior.
//
// Example:
//
//	// Default extractor: isovalue 0, GOMAXPROCS workers
//	ex := sculpt.New()
//
//	// Custom isovalue and world-space mesh size
//	ex := sculpt.New(
//	    sculpt.WithIsovalue(0.5),
//	    sculpt.WithMeshSize(mgl32.Vec3{20, 20, 20}),
//	)
type Option func(*config)

// config holds optional configuration for Extractor creation.
type config struct {
	isovalue float32
	meshSize mgl32.Vec3
	workers  int
	engine   Engine
}

// defaultConfig returns the default extractor configuration.
func defaultConfig() config {
	return config{
		isovalue: 0,
		meshSize: mgl32.Vec3{10, 10, 10},
		workers:  0, // GOMAXPROCS
	}
}

// WithIsovalue sets the surface threshold. Samples below the isovalue are
// inside the surface, samples above are outside. The default is 0, the
// conventional threshold for signed-distance fields.
func WithIsovalue(iso float32) Option {
	return func(c *config) {
		c.isovalue = iso
	}
}

// WithMeshSize sets the world-space size of the extracted mesh. Grid-space
// vertex positions are scaled by meshSize divided per-axis by the grid
// dimensions. The default is (10, 10, 10).
func WithMeshSize(size mgl32.Vec3) Option {
	return func(c *config) {
		c.meshSize = size
	}
}

// WithWorkers sets the number of worker goroutines used by the CPU pipeline.
// Zero or negative selects GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithEngine sets a private extraction engine for this Extractor, overriding
// the globally registered one. Use this for dependency injection in tests or
// to drive two extractors with different backends.
//
// The engine's Init must already have been called; the Extractor does not
// manage its lifecycle.
func WithEngine(e Engine) Option {
	return func(c *config) {
		c.engine = e
	}
}
