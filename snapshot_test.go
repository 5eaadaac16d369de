package sculpt

import (
	"errors"
	"testing"
)

func TestSnapshotValidate(t *testing.T) {
	tests := []struct {
		name    string
		snap    Snapshot
		wantErr bool
	}{
		{"empty", Snapshot{}, false},
		{"consistent", Snapshot{
			VertexCount: 2, Vertices: make([]float32, 6),
			FaceCount: 1, Faces: make([]uint32, 4),
		}, false},
		{"capacity-sized arrays", Snapshot{
			VertexCount: 1, Vertices: make([]float32, 30),
			FaceCount: 1, Faces: make([]uint32, 12),
		}, false},
		{"missing vertices", Snapshot{VertexCount: 2, Vertices: make([]float32, 3)}, true},
		{"missing faces", Snapshot{FaceCount: 2, Faces: make([]uint32, 4)}, true},
		{"nil array with count", Snapshot{VertexCount: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snap.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrIncompleteReadback) {
				t.Errorf("Validate() error %v does not wrap ErrIncompleteReadback", err)
			}
		})
	}
}
