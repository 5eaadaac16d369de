package sculpt

import (
	"errors"
	"fmt"
)

// Readback errors.
var (
	// ErrIncompleteReadback indicates a result snapshot is missing one of
	// its four required values, or an array is shorter than its count
	// demands. A mesh is never assembled from a partial snapshot; the host
	// may retry the readback and extract again.
	ErrIncompleteReadback = errors.New("sculpt: incomplete readback snapshot")
)

// Snapshot is the compacted result of one pipeline run, delivered as a
// single atomic unit: all four values belong to the same completed run.
//
// Vertices holds VertexCount grid-space positions, 3 floats each. Faces
// holds FaceCount quads, 4 dense vertex indices each. The arrays may be
// longer than their counts require (e.g., capacity-sized GPU readbacks);
// only the counted prefix is meaningful.
type Snapshot struct {
	VertexCount uint32
	Vertices    []float32
	FaceCount   uint32
	Faces       []uint32
}

// Validate checks that the snapshot is internally consistent: both arrays
// are present whenever their counts are non-zero and long enough for the
// reported counts. All errors wrap ErrIncompleteReadback.
func (s Snapshot) Validate() error {
	if need := int(s.VertexCount) * 3; len(s.Vertices) < need {
		return fmt.Errorf("%w: %d vertex floats for vertex count %d",
			ErrIncompleteReadback, len(s.Vertices), s.VertexCount)
	}
	if need := int(s.FaceCount) * 4; len(s.Faces) < need {
		return fmt.Errorf("%w: %d face indices for face count %d",
			ErrIncompleteReadback, len(s.Faces), s.FaceCount)
	}
	return nil
}
