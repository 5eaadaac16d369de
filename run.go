package sculpt

// runState is the mutable working set for one extraction. It is owned
// exclusively by a single extraction from creation until the compacted
// result has been copied into a Snapshot; the pipeline stages mutate it in
// strict sequence and no two runs ever share one.
type runState struct {
	size GridSize
	iso  float32

	field []float32 // one sample per grid vertex, z-major
	cells int

	// Vertex stage outputs, one slot per cell.
	positions   []float32 // 3 floats per cell; meaningful only where valid
	vertexValid []uint32  // 0 or 1

	// Vertex compaction outputs.
	vertexIndex []uint32 // exclusive prefix sum of vertexValid
	vertexCount uint32

	// Face stage outputs, three candidate quads per cell (one per axis).
	faces     []uint32 // 4 dense vertex indices per candidate
	faceValid []uint32

	// Face compaction outputs.
	faceIndex []uint32
	faceCount uint32
}

// newRunState sizes all working arrays from the grid dimensions.
// The field is referenced, not copied; the caller guarantees it stays
// untouched for the lifetime of the run.
func newRunState(field []float32, size GridSize, iso float32) *runState {
	cells := size.CellCount()
	return &runState{
		size:        size,
		iso:         iso,
		field:       field,
		cells:       cells,
		positions:   make([]float32, 3*cells),
		vertexValid: make([]uint32, cells),
		faces:       make([]uint32, 4*3*cells),
		faceValid:   make([]uint32, 3*cells),
	}
}
