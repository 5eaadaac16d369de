package sculpt

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/sculpt/internal/parallel"
)

// cubeCorners lists the 8 corners of a cell as (dx, dy, dz) offsets from its
// base sample. Corner i uses bit 0 for x, bit 1 for y, bit 2 for z.
var cubeCorners = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
}

// cubeEdges lists the 12 edges of a cell as corner index pairs.
var cubeEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // x axis
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // y axis
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // z axis
}

// generateVertices runs the per-cell vertex kernel over the pool. For each
// cell it samples the 8 corners and, when the isosurface crosses the cell,
// writes one candidate surface vertex and sets the cell's validity flag.
//
// The surface point is the centroid of the linearly interpolated
// zero-crossings along the cell's crossed edges (the naive Surface Nets
// estimator). It depends only on the 8 corner samples, so the kernel is
// deterministic and cells are fully independent.
func generateVertices(pool *parallel.Pool, run *runState) {
	pool.ForRange(run.cells, func(lo, hi int) {
		var corners [8]float32
		for i := lo; i < hi; i++ {
			cx, cy, cz := run.size.CellCoords(i)
			for c, off := range cubeCorners {
				corners[c] = run.field[run.size.Index(cx+off[0], cy+off[1], cz+off[2])]
			}

			pos, ok := surfacePoint(corners, run.iso)
			if !ok {
				run.vertexValid[i] = 0
				continue
			}
			run.vertexValid[i] = 1
			run.positions[3*i+0] = float32(cx) + pos.X()
			run.positions[3*i+1] = float32(cy) + pos.Y()
			run.positions[3*i+2] = float32(cz) + pos.Z()
		}
	})
}

// surfacePoint returns the cell-local surface point for the given corner
// samples, or ok=false if no edge crosses the isovalue.
func surfacePoint(corners [8]float32, iso float32) (pos mgl32.Vec3, ok bool) {
	var sum mgl32.Vec3
	crossings := 0

	for _, e := range cubeEdges {
		f0, f1 := corners[e[0]], corners[e[1]]
		if (f0 < iso) == (f1 < iso) {
			continue
		}
		t := (iso - f0) / (f1 - f0)
		c0, c1 := cubeCorners[e[0]], cubeCorners[e[1]]
		p0 := mgl32.Vec3{float32(c0[0]), float32(c0[1]), float32(c0[2])}
		p1 := mgl32.Vec3{float32(c1[0]), float32(c1[1]), float32(c1[2])}
		sum = sum.Add(p0.Add(p1.Sub(p0).Mul(t)))
		crossings++
	}

	if crossings == 0 {
		return mgl32.Vec3{}, false
	}
	return sum.Mul(1 / float32(crossings)), true
}
