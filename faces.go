package sculpt

import "github.com/gogpu/sculpt/internal/parallel"

// faceAxes pairs each principal axis d with the other two axes (a, b) in
// right-handed cyclic order, so that unit(a) x unit(b) = unit(d). The
// winding rule below relies on this orientation.
var faceAxes = [3][2]int{
	{1, 2}, // d = x
	{2, 0}, // d = y
	{0, 1}, // d = z
}

// generateFaces runs the per-cell face kernel over the pool. For each cell
// and each principal axis d it considers the primal grid edge from the
// cell's base sample along d. If that edge crosses the isovalue, the dual
// quad connecting the 4 cells around the edge becomes a face candidate; it
// is valid only when all 4 referenced cells produced a vertex.
//
// Neighbor cells sit at lower coordinates along the two axes other than d.
// At the grid boundary the missing neighbors are clamped to the emitting
// cell, which yields a degenerate (zero-area) quad instead of dropping the
// face; compaction keeps it and the duplicate indices collapse to empty
// triangles downstream.
//
// Winding convention: density below the isovalue is inside. Quads are wound
// counter-clockwise when seen from the positive-density side of the crossed
// edge, so triangle front faces look outward. Concretely, when the base
// sample is inside the ring order is (c, c-ua, c-ua-ub, c-ub), viewed CCW
// from +d; otherwise the order is reversed.
func generateFaces(pool *parallel.Pool, run *runState) {
	size := run.size
	pool.ForRange(run.cells, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if run.vertexValid[i] == 0 {
				for d := range 3 {
					run.faceValid[3*i+d] = 0
				}
				continue
			}
			cell := [3]int{}
			cell[0], cell[1], cell[2] = size.CellCoords(i)

			base := size.Index(cell[0], cell[1], cell[2])
			f0 := run.field[base]

			for d := range 3 {
				slot := 3*i + d

				next := cell
				next[d]++
				f1 := run.field[size.Index(next[0], next[1], next[2])]
				if (f0 < run.iso) == (f1 < run.iso) {
					run.faceValid[slot] = 0
					continue
				}

				a, b := faceAxes[d][0], faceAxes[d][1]
				ring, ok := edgeRing(run, cell, a, b)
				if !ok {
					run.faceValid[slot] = 0
					continue
				}

				// Base sample inside: outward is +d, ring order is
				// already CCW from +d. Otherwise flip.
				if f0 < run.iso {
					copy(run.faces[4*slot:], ring[:])
				} else {
					run.faces[4*slot+0] = ring[0]
					run.faces[4*slot+1] = ring[3]
					run.faces[4*slot+2] = ring[2]
					run.faces[4*slot+3] = ring[1]
				}
				run.faceValid[slot] = 1
			}
		}
	})
}

// edgeRing returns the dense vertex indices of the 4 cells around the
// primal edge at cell's base sample, in CCW order seen from the positive
// direction of the edge axis. Out-of-range neighbors are clamped to cell.
// Returns ok=false if any referenced cell has no vertex.
func edgeRing(run *runState, cell [3]int, a, b int) (ring [4]uint32, ok bool) {
	// Ring order (0,0) -> (-ua,0) -> (-ua,-ub) -> (0,-ub).
	offsets := [4][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for k, off := range offsets {
		n := cell
		n[a] = max(n[a]-off[0], 0)
		n[b] = max(n[b]-off[1], 0)
		ci := run.size.CellIndex(n[0], n[1], n[2])
		if run.vertexValid[ci] == 0 {
			return ring, false
		}
		ring[k] = run.vertexIndex[ci]
	}
	return ring, true
}
