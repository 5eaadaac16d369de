package sculpt

import (
	"errors"
	"fmt"
)

// Input validation errors.
var (
	// ErrMalformedInput indicates the density field or grid dimensions are
	// invalid. It is returned before any pipeline stage runs; no run state
	// is created for a rejected input.
	ErrMalformedInput = errors.New("sculpt: malformed input")
)

// GridSize describes the sample grid of a density field: the number of
// scalar samples along each axis. It is immutable for the duration of an
// extraction.
//
// A grid of X*Y*Z samples contains (X-1)*(Y-1)*(Z-1) cells; each cell is the
// hexahedron bounded by 8 adjacent samples. Degenerate axes (size 0 or 1)
// yield zero cells, not an error.
type GridSize struct {
	X, Y, Z int
}

// DefaultGridSize is the grid used when none is specified (32x32x32 samples).
var DefaultGridSize = GridSize{X: 32, Y: 32, Z: 32}

// DensityCount returns the number of scalar samples the grid holds.
func (s GridSize) DensityCount() int {
	return s.X * s.Y * s.Z
}

// CellCount returns the number of cells in the grid.
// Axes with fewer than 2 samples contribute zero cells.
func (s GridSize) CellCount() int {
	return satSub(s.X) * satSub(s.Y) * satSub(s.Z)
}

// satSub returns n-1 saturating at 0.
func satSub(n int) int {
	if n < 1 {
		return 0
	}
	return n - 1
}

// Index returns the linear index of the sample at (x, y, z).
// Samples are laid out z-major: index = z*Y*X + y*X + x.
func (s GridSize) Index(x, y, z int) int {
	return z*s.Y*s.X + y*s.X + x
}

// CellIndex returns the linear index of the cell whose base corner is the
// sample at (x, y, z). Cells use the same z-major layout as samples but over
// the (X-1, Y-1, Z-1) cell grid.
func (s GridSize) CellIndex(x, y, z int) int {
	cx, cy := satSub(s.X), satSub(s.Y)
	return z*cy*cx + y*cx + x
}

// CellCoords decomposes a linear cell index into its (x, y, z) cell
// coordinates. The inverse of CellIndex.
func (s GridSize) CellCoords(i int) (x, y, z int) {
	cx, cy := satSub(s.X), satSub(s.Y)
	x = i % cx
	y = (i / cx) % cy
	z = i / (cx * cy)
	return x, y, z
}

// String returns the grid size as "XxYxZ".
func (s GridSize) String() string {
	return fmt.Sprintf("%dx%dx%d", s.X, s.Y, s.Z)
}

// validate checks a density field against its grid size.
// All errors wrap ErrMalformedInput.
func validate(field []float32, size GridSize) error {
	if size.X < 1 || size.Y < 1 || size.Z < 1 {
		return fmt.Errorf("%w: grid size %s has a non-positive axis", ErrMalformedInput, size)
	}
	if len(field) != size.DensityCount() {
		return fmt.Errorf("%w: field has %d samples, grid %s needs %d",
			ErrMalformedInput, len(field), size, size.DensityCount())
	}
	return nil
}
