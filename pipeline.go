package sculpt

import (
	"context"

	"github.com/gogpu/sculpt/internal/parallel"
	"github.com/gogpu/sculpt/internal/scan"
)

// extractCPU runs the five pipeline stages on the worker pool and returns
// the compacted result. Stages execute strictly in sequence; each pool
// barrier guarantees a stage's writes are visible before the next stage
// reads them, and both count scalars are known before the dense arrays they
// size are touched.
//
// ctx is checked between stages only: an abandoned run stops at the next
// stage boundary and its run state is simply dropped, never shared.
func extractCPU(ctx context.Context, pool *parallel.Pool, field []float32, size GridSize, iso float32) (Snapshot, error) {
	run := newRunState(field, size, iso)

	// Stage 1: per-cell vertex candidates.
	generateVertices(pool, run)
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	// Stage 2: compact vertices.
	run.vertexIndex, run.vertexCount = scan.Exclusive(pool, run.vertexValid)
	denseVertices := make([]float32, 3*run.vertexCount)
	scan.Compact(pool, denseVertices, run.positions, run.vertexValid, run.vertexIndex, 3)
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	// Stage 3: per-cell face candidates, referencing dense vertex ids.
	generateFaces(pool, run)
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	// Stage 4: compact faces.
	run.faceIndex, run.faceCount = scan.Exclusive(pool, run.faceValid)
	denseFaces := make([]uint32, 4*run.faceCount)
	scan.Compact(pool, denseFaces, run.faces, run.faceValid, run.faceIndex, 4)
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	Logger().Debug("cpu extraction complete",
		"grid", size.String(),
		"cells", run.cells,
		"vertices", run.vertexCount,
		"faces", run.faceCount)

	return Snapshot{
		VertexCount: run.vertexCount,
		Vertices:    denseVertices,
		FaceCount:   run.faceCount,
		Faces:       denseFaces,
	}, nil
}
