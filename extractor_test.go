package sculpt

import (
	"context"
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/sculpt/internal/parallel"
)

// testSphereField samples a signed distance to a centered sphere,
// negative inside.
func testSphereField(size GridSize, radius float32) []float32 {
	center := mgl32.Vec3{
		float32(size.X-1) / 2,
		float32(size.Y-1) / 2,
		float32(size.Z-1) / 2,
	}
	field := make([]float32, size.DensityCount())
	for z := 0; z < size.Z; z++ {
		for y := 0; y < size.Y; y++ {
			for x := 0; x < size.X; x++ {
				p := mgl32.Vec3{float32(x), float32(y), float32(z)}
				field[size.Index(x, y, z)] = p.Sub(center).Len() - radius
			}
		}
	}
	return field
}

func TestExtractSingleCell(t *testing.T) {
	// One cell whose bottom layer is inside and top layer outside. All
	// four z-edges cross at t=0.5, so the single vertex sits at the cell
	// center (0.5, 0.5, 0.5) in grid space.
	field := []float32{-1, -1, -1, -1, 1, 1, 1, 1}
	size := GridSize{2, 2, 2}

	ex := New(sizedMeshOpt(size))
	defer ex.Close()

	mesh, err := ex.Extract(field, size)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if got := mesh.VertexCount(); got != 1 {
		t.Fatalf("VertexCount() = %d, want 1", got)
	}
	want := mgl32.Vec3{0.5, 0.5, 0.5}
	got := mgl32.Vec3{mesh.Positions[0], mesh.Positions[1], mesh.Positions[2]}
	if got.Sub(want).Len() > 1e-6 {
		t.Errorf("vertex = %v, want %v", got, want)
	}

	// The crossed z-edge yields a face; its ring collapses onto the lone
	// vertex at the grid boundary, but it is still emitted.
	if got := mesh.TriangleCount(); got < 1 {
		t.Errorf("TriangleCount() = %d, want >= 1", got)
	}
}

// sizedMeshOpt makes world coordinates equal grid coordinates, so test
// expectations can be stated directly in grid space.
func sizedMeshOpt(size GridSize) Option {
	return WithMeshSize(mgl32.Vec3{float32(size.X), float32(size.Y), float32(size.Z)})
}

func TestExtractUniformField(t *testing.T) {
	size := GridSize{4, 4, 4}
	tests := []struct {
		name  string
		value float32
	}{
		{"all outside", 1},
		{"all inside", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := make([]float32, size.DensityCount())
			for i := range field {
				field[i] = tt.value
			}

			ex := New()
			defer ex.Close()

			mesh, err := ex.Extract(field, size)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if mesh.VertexCount() != 0 || mesh.TriangleCount() != 0 {
				t.Errorf("uniform field produced %d vertices, %d triangles",
					mesh.VertexCount(), mesh.TriangleCount())
			}
		})
	}
}

func TestExtractMalformedInput(t *testing.T) {
	ex := New()
	defer ex.Close()

	_, err := ex.Extract(make([]float32, 7), GridSize{2, 2, 2})
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("Extract() error = %v, want ErrMalformedInput", err)
	}
}

func TestExtractPlaneNormals(t *testing.T) {
	// f = z - 0.5: the surface is the z=0.5 plane, inside below. Every
	// emitted triangle with area must face +z.
	size := GridSize{4, 4, 4}
	field := make([]float32, size.DensityCount())
	for z := 0; z < size.Z; z++ {
		for y := 0; y < size.Y; y++ {
			for x := 0; x < size.X; x++ {
				field[size.Index(x, y, z)] = float32(z) - 0.5
			}
		}
	}

	ex := New(sizedMeshOpt(size))
	defer ex.Close()

	mesh, err := ex.Extract(field, size)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("plane field produced no triangles")
	}

	nonZero := 0
	for i := 0; i < mesh.VertexCount(); i++ {
		n := mgl32.Vec3{mesh.Normals[3*i], mesh.Normals[3*i+1], mesh.Normals[3*i+2]}
		if n.Len() == 0 {
			continue
		}
		nonZero++
		if n.Z() <= 0 {
			t.Errorf("vertex %d normal = %v, want +z facing", i, n)
		}
	}
	if nonZero == 0 {
		t.Error("no vertex received a non-zero normal")
	}
}

func TestExtractDeterministic(t *testing.T) {
	size := GridSize{16, 16, 16}
	field := testSphereField(size, 5)

	meshes := make([]*Mesh, 2)
	for i := range meshes {
		ex := New()
		mesh, err := ex.Extract(field, size)
		ex.Close()
		if err != nil {
			t.Fatalf("Extract() run %d error = %v", i, err)
		}
		meshes[i] = mesh
	}

	a, b := meshes[0], meshes[1]
	if a.VertexCount() != b.VertexCount() || a.TriangleCount() != b.TriangleCount() {
		t.Fatalf("runs differ: %d/%d vertices, %d/%d triangles",
			a.VertexCount(), b.VertexCount(), a.TriangleCount(), b.TriangleCount())
	}
	for i := range a.Positions {
		if a.Positions[i] != b.Positions[i] {
			t.Fatalf("positions differ at %d: %g vs %g", i, a.Positions[i], b.Positions[i])
		}
	}
	for i := range a.Indices {
		if a.Indices[i] != b.Indices[i] {
			t.Fatalf("indices differ at %d: %d vs %d", i, a.Indices[i], b.Indices[i])
		}
	}
}

func TestExtractWorkerCountInvariance(t *testing.T) {
	size := GridSize{12, 12, 12}
	field := testSphereField(size, 4)

	serial := New(WithWorkers(1))
	defer serial.Close()
	parallelEx := New(WithWorkers(8))
	defer parallelEx.Close()

	a, err := serial.Extract(field, size)
	if err != nil {
		t.Fatalf("serial Extract() error = %v", err)
	}
	b, err := parallelEx.Extract(field, size)
	if err != nil {
		t.Fatalf("parallel Extract() error = %v", err)
	}

	if a.VertexCount() != b.VertexCount() || a.TriangleCount() != b.TriangleCount() {
		t.Fatalf("worker counts disagree: %d/%d vertices, %d/%d triangles",
			a.VertexCount(), b.VertexCount(), a.TriangleCount(), b.TriangleCount())
	}
	for i := range a.Positions {
		if a.Positions[i] != b.Positions[i] {
			t.Fatalf("positions differ at %d", i)
		}
	}
}

func TestExtractCountBounds(t *testing.T) {
	size := GridSize{16, 16, 16}
	field := testSphereField(size, 5)

	pool := parallel.New(0)
	defer pool.Close()

	snap, err := extractCPU(context.Background(), pool, field, size, 0)
	if err != nil {
		t.Fatalf("extractCPU() error = %v", err)
	}

	cells := uint32(size.CellCount())
	if snap.VertexCount > cells {
		t.Errorf("VertexCount = %d exceeds cell count %d", snap.VertexCount, cells)
	}
	if snap.FaceCount > 3*cells {
		t.Errorf("FaceCount = %d exceeds 3*cells %d", snap.FaceCount, 3*cells)
	}
	if err := snap.Validate(); err != nil {
		t.Errorf("snapshot does not validate: %v", err)
	}

	// Every face index must be dense: below the vertex count.
	for i, v := range snap.Faces {
		if v >= snap.VertexCount {
			t.Fatalf("Faces[%d] = %d, want < %d", i, v, snap.VertexCount)
		}
	}
}

func TestExtractIsovalue(t *testing.T) {
	// A radial field crossed at two different isovalues gives two sphere
	// shells; the larger isovalue must produce the larger shell.
	size := GridSize{16, 16, 16}
	field := testSphereField(size, 0) // plain distance from center

	meshAt := func(iso float32) *Mesh {
		ex := New(WithIsovalue(iso), sizedMeshOpt(size))
		defer ex.Close()
		mesh, err := ex.Extract(field, size)
		if err != nil {
			t.Fatalf("Extract(iso=%g) error = %v", iso, err)
		}
		return mesh
	}

	small, large := meshAt(3), meshAt(6)
	if small.VertexCount() == 0 || large.VertexCount() == 0 {
		t.Fatal("expected both isovalues to produce geometry")
	}

	maxRadius := func(m *Mesh) float32 {
		center := mgl32.Vec3{7.5, 7.5, 7.5}
		var r float32
		for i := 0; i < m.VertexCount(); i++ {
			p := mgl32.Vec3{m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2]}
			r = math32.Max(r, p.Sub(center).Len())
		}
		return r
	}
	if maxRadius(large) <= maxRadius(small) {
		t.Errorf("radius at iso 6 (%g) not larger than at iso 3 (%g)",
			maxRadius(large), maxRadius(small))
	}
}

// fakeEngine is a configurable Engine for dependency-injection tests.
type fakeEngine struct {
	snap Snapshot
	err  error

	calls int
}

func (f *fakeEngine) Name() string { return "fake" }
func (f *fakeEngine) Init() error  { return nil }
func (f *fakeEngine) Close()       {}

func (f *fakeEngine) Extract(field []float32, size GridSize, isovalue float32) (Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

func TestEngineResultUsed(t *testing.T) {
	eng := &fakeEngine{snap: Snapshot{
		VertexCount: 1,
		Vertices:    []float32{1, 2, 3},
	}}
	ex := New(WithEngine(eng), sizedMeshOpt(GridSize{2, 2, 2}))
	defer ex.Close()

	mesh, err := ex.Extract(make([]float32, 8), GridSize{2, 2, 2})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if eng.calls != 1 {
		t.Errorf("engine called %d times, want 1", eng.calls)
	}
	if mesh.VertexCount() != 1 || mesh.Positions[2] != 3 {
		t.Errorf("mesh not built from engine snapshot: %v", mesh.Positions)
	}
}

func TestEngineFallbackToCPU(t *testing.T) {
	field := []float32{-1, -1, -1, -1, 1, 1, 1, 1}
	size := GridSize{2, 2, 2}

	eng := &fakeEngine{err: ErrFallbackToCPU}
	ex := New(WithEngine(eng), sizedMeshOpt(size))
	defer ex.Close()

	mesh, err := ex.Extract(field, size)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if eng.calls != 1 {
		t.Errorf("engine called %d times, want 1", eng.calls)
	}
	// The CPU pipeline must have produced the single-cell result.
	if mesh.VertexCount() != 1 {
		t.Errorf("VertexCount() = %d, want 1 from CPU fallback", mesh.VertexCount())
	}
}

func TestEngineGenericErrorFallsBack(t *testing.T) {
	field := []float32{-1, -1, -1, -1, 1, 1, 1, 1}
	size := GridSize{2, 2, 2}

	eng := &fakeEngine{err: errors.New("device lost")}
	ex := New(WithEngine(eng), sizedMeshOpt(size))
	defer ex.Close()

	mesh, err := ex.Extract(field, size)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if mesh.VertexCount() != 1 {
		t.Errorf("VertexCount() = %d, want 1 from CPU fallback", mesh.VertexCount())
	}
}

func TestEngineIncompleteReadbackSurfaced(t *testing.T) {
	size := GridSize{2, 2, 2}

	tests := []struct {
		name string
		eng  *fakeEngine
	}{
		{"error from engine", &fakeEngine{err: ErrIncompleteReadback}},
		{"short snapshot", &fakeEngine{snap: Snapshot{VertexCount: 5, Vertices: []float32{1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := New(WithEngine(tt.eng))
			defer ex.Close()

			_, err := ex.Extract(make([]float32, 8), size)
			if !errors.Is(err, ErrIncompleteReadback) {
				t.Fatalf("Extract() error = %v, want ErrIncompleteReadback", err)
			}
		})
	}
}
