// Command sculptdemo extracts an isosurface from a sphere density field
// and writes the mesh as a Wavefront OBJ file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/sculpt"
	_ "github.com/gogpu/sculpt/gpu"
)

func main() {
	var (
		res    = flag.Int("res", 32, "grid resolution per axis")
		radius = flag.Float64("radius", 0.4, "sphere radius as a fraction of the grid")
		noise  = flag.Float64("noise", 0, "surface noise amplitude")
		output = flag.String("output", "sphere.obj", "output file")
	)
	flag.Parse()

	size := sculpt.GridSize{X: *res, Y: *res, Z: *res}
	field := sphereField(size, float32(*radius), float32(*noise))

	ex := sculpt.New(sculpt.WithMeshSize(mgl32.Vec3{10, 10, 10}))
	defer ex.Close()

	mesh, err := ex.Extract(field, size)
	if err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}

	if err := writeOBJ(*output, mesh); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Mesh saved to %s (%d vertices, %d triangles)\n",
		*output, mesh.VertexCount(), mesh.TriangleCount())
}

// sphereField samples a signed distance to a sphere centered in the grid,
// negative inside. An optional ripple term roughens the surface.
func sphereField(size sculpt.GridSize, radius, noise float32) []float32 {
	center := mgl32.Vec3{
		float32(size.X-1) / 2,
		float32(size.Y-1) / 2,
		float32(size.Z-1) / 2,
	}
	r := radius * float32(size.X)

	field := make([]float32, size.DensityCount())
	for z := 0; z < size.Z; z++ {
		for y := 0; y < size.Y; y++ {
			for x := 0; x < size.X; x++ {
				p := mgl32.Vec3{float32(x), float32(y), float32(z)}
				d := p.Sub(center).Len() - r
				if noise != 0 {
					d += noise * math32.Sin(0.9*p[0]) * math32.Sin(0.8*p[1]) * math32.Sin(0.7*p[2])
				}
				field[size.Index(x, y, z)] = d
			}
		}
	}
	return field
}

func writeOBJ(path string, mesh *sculpt.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := 0; i < len(mesh.Positions); i += 3 {
		fmt.Fprintf(w, "v %g %g %g\n", mesh.Positions[i], mesh.Positions[i+1], mesh.Positions[i+2])
	}
	for i := 0; i < len(mesh.Normals); i += 3 {
		fmt.Fprintf(w, "vn %g %g %g\n", mesh.Normals[i], mesh.Normals[i+1], mesh.Normals[i+2])
	}
	// OBJ indices are 1-based.
	for i := 0; i < len(mesh.Indices); i += 3 {
		a, b, c := mesh.Indices[i]+1, mesh.Indices[i+1]+1, mesh.Indices[i+2]+1
		fmt.Fprintf(w, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
	}
	return w.Flush()
}
