// Package sculpt extracts triangle meshes from volumetric scalar fields
// using the Surface Nets algorithm.
//
// # Overview
//
// sculpt turns a signed-distance (or density) field sampled on a regular
// grid into a compact vertex/index mesh. The extraction runs as a five-stage
// data-parallel pipeline: per-cell vertex generation, stream compaction of
// valid vertices, per-cell face generation, stream compaction of valid
// faces, and final mesh assembly with flat-averaged normals.
//
// # Quick Start
//
//	import "github.com/gogpu/sculpt"
//
//	ex := sculpt.New()
//	defer ex.Close()
//
//	size := sculpt.GridSize{X: 32, Y: 32, Z: 32}
//	field := make([]float32, size.DensityCount())
//	// ... fill field with signed distances (negative = inside) ...
//
//	mesh, err := ex.Extract(field, size)
//
// # Conventions
//
// Density samples are laid out z-major: index = z*ny*nx + y*nx + x. A
// negative sample is inside the surface, positive is outside; the isosurface
// sits at the configured isovalue (0 by default). Output faces are wound so
// that triangle front faces (counter-clockwise) look toward the outside.
//
// # Backends
//
// By default the pipeline runs on a pure Go worker pool. Importing the gpu
// subpackage registers a wgpu compute engine that executes all five stages
// on the GPU and reads the compacted result back:
//
//	import _ "github.com/gogpu/sculpt/gpu" // enable GPU extraction
//
// If GPU initialization fails, or a particular extraction cannot run on the
// engine, sculpt transparently falls back to the CPU pipeline.
//
// # Asynchronous extraction
//
// Extract blocks until the mesh is ready. For deferred completion use
// Submit, which returns a Job that can be polled, awaited with a context,
// or canceled:
//
//	job := ex.Submit(field, size)
//	for job.Poll() == sculpt.StatusPending {
//	    // ... do other work ...
//	}
//	mesh, err := job.Result()
package sculpt

// Version is the current version of the library.
const Version = "0.2.0"
