package sculpt

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh assembly errors.
var (
	// ErrIndexOutOfRange indicates a face references a vertex index at or
	// beyond the reported vertex count. This points at a transport
	// inconsistency between pipeline and host; assembly is aborted rather
	// than emitting a corrupt mesh.
	ErrIndexOutOfRange = errors.New("sculpt: face index out of range")
)

// Mesh is the final renderable geometry: flat arrays ready for handoff to a
// renderer. Positions and Normals hold 3 floats per vertex; Indices is a
// triangle list where every index is below the vertex count.
type Mesh struct {
	Positions []float32
	Normals   []float32
	Indices   []uint32
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int { return len(m.Positions) / 3 }

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// BuildMesh assembles a snapshot into world-space geometry. Grid-space
// positions are scaled per-axis by meshSize divided by the grid dimensions;
// each quad (v0,v1,v2,v3) is split into triangles (v0,v1,v2) and
// (v0,v2,v3); normals are flat-averaged per vertex.
//
// The snapshot must validate (all four values present and consistent) and
// every face index must be below the vertex count, otherwise no mesh is
// produced.
func BuildMesh(snap Snapshot, size GridSize, meshSize mgl32.Vec3) (*Mesh, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	scale := mgl32.Vec3{
		meshSize.X() / float32(size.X),
		meshSize.Y() / float32(size.Y),
		meshSize.Z() / float32(size.Z),
	}

	vertexCount := int(snap.VertexCount)
	positions := make([]float32, 3*vertexCount)
	for i := range vertexCount {
		positions[3*i+0] = snap.Vertices[3*i+0] * scale.X()
		positions[3*i+1] = snap.Vertices[3*i+1] * scale.Y()
		positions[3*i+2] = snap.Vertices[3*i+2] * scale.Z()
	}

	indices := make([]uint32, 0, 6*int(snap.FaceCount))
	for f := range int(snap.FaceCount) {
		q := snap.Faces[4*f : 4*f+4]
		for _, v := range q {
			if v >= snap.VertexCount {
				return nil, fmt.Errorf("%w: face %d references vertex %d of %d",
					ErrIndexOutOfRange, f, v, snap.VertexCount)
			}
		}
		indices = append(indices, q[0], q[1], q[2], q[0], q[2], q[3])
	}

	normals := flatNormals(positions, indices)

	return &Mesh{
		Positions: positions,
		Normals:   normals,
		Indices:   indices,
	}, nil
}

// flatNormals computes flat-averaged per-vertex normals: each triangle's
// unit normal is accumulated into its 3 vertices, then every vertex divides
// by its contribution count and renormalizes. Vertices touched by no
// triangle keep the zero vector.
func flatNormals(positions []float32, indices []uint32) []float32 {
	count := len(positions) / 3
	normals := make([]float32, 3*count)
	contributions := make([]uint32, count)

	at := func(i uint32) mgl32.Vec3 {
		return mgl32.Vec3{positions[3*i], positions[3*i+1], positions[3*i+2]}
	}

	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		v0 := at(i0)
		normal := normalizeOrZero(at(i1).Sub(v0).Cross(at(i2).Sub(v0)))
		for _, i := range [3]uint32{i0, i1, i2} {
			normals[3*i+0] += normal.X()
			normals[3*i+1] += normal.Y()
			normals[3*i+2] += normal.Z()
			contributions[i]++
		}
	}

	for i := range count {
		if contributions[i] == 0 {
			continue
		}
		inv := 1 / float32(contributions[i])
		avg := mgl32.Vec3{normals[3*i] * inv, normals[3*i+1] * inv, normals[3*i+2] * inv}
		avg = normalizeOrZero(avg)
		normals[3*i+0] = avg.X()
		normals[3*i+1] = avg.Y()
		normals[3*i+2] = avg.Z()
	}

	return normals
}

// normalizeOrZero returns the unit vector of v, or the zero vector when v
// has zero length (degenerate triangles, uncontributed vertices).
func normalizeOrZero(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}
