//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sculpt"
)

// Workgroup sizes, matching the embedded shaders.
const (
	kernelWG = 64  // generate/compact kernels
	scanWG   = 256 // scan block size
)

// runBuffers is the GPU working set for one extraction. It is created per
// run and destroyed when the run's snapshot has been read back, so two
// concurrent extractions never alias a buffer.
type runBuffers struct {
	cells      int
	candidates int // 3 * cells face candidates
	blocksV    int // scan blocks over cells
	blocksF    int // scan blocks over candidates

	density hal.Buffer
	params  hal.Buffer

	vertices      hal.Buffer
	vertexValid   hal.Buffer
	vertexIndex   hal.Buffer
	vertexSums    hal.Buffer
	vertexCount   hal.Buffer
	denseVertices hal.Buffer
	scanParamsV   hal.Buffer

	faces       hal.Buffer
	faceValid   hal.Buffer
	faceIndex   hal.Buffer
	faceSums    hal.Buffer
	faceCount   hal.Buffer
	denseFaces  hal.Buffer
	scanParamsF hal.Buffer

	stagingCounts   hal.Buffer
	stagingVertices hal.Buffer
	stagingFaces    hal.Buffer

	bindGenerateVertices hal.BindGroup
	bindScanV            hal.BindGroup
	bindCompactV         hal.BindGroup
	bindGenerateFaces    hal.BindGroup
	bindScanF            hal.BindGroup
	bindCompactF         hal.BindGroup
}

func blocks(n int) int { return (n + scanWG - 1) / scanWG }

// newRunBuffers allocates every buffer of the pipeline, sized from the
// sample and cell counts. Output buffers are capacity-sized (cells
// vertices, 3*cells faces); the count scalars written by the scan passes
// say how much of each is real.
func newRunBuffers(device hal.Device, samples, cells int) (*runBuffers, error) {
	r := &runBuffers{
		cells:      cells,
		candidates: 3 * cells,
		blocksV:    blocks(cells),
		blocksF:    blocks(3 * cells),
	}

	storage := gputypes.BufferUsageStorage
	uniform := gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst
	mapRead := gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst

	type alloc struct {
		buf   *hal.Buffer
		label string
		size  uint64
		usage gputypes.BufferUsage
	}
	allocs := []alloc{
		{&r.density, "density_field", uint64(4 * samples), storage | gputypes.BufferUsageCopyDst},
		{&r.params, "dimensions", 32, uniform},

		{&r.vertices, "vertices", uint64(12 * cells), storage},
		{&r.vertexValid, "vertex_valid", uint64(4 * cells), storage},
		{&r.vertexIndex, "vertex_indices", uint64(4 * cells), storage},
		{&r.vertexSums, "vertex_block_sums", uint64(4 * r.blocksV), storage},
		{&r.vertexCount, "vertex_count", 4, storage | gputypes.BufferUsageCopySrc},
		{&r.denseVertices, "compacted_vertices", uint64(12 * cells), storage | gputypes.BufferUsageCopySrc},
		{&r.scanParamsV, "vertex_scan_params", 16, uniform},

		{&r.faces, "faces", uint64(16 * r.candidates), storage},
		{&r.faceValid, "face_valid", uint64(4 * r.candidates), storage},
		{&r.faceIndex, "face_indices", uint64(4 * r.candidates), storage},
		{&r.faceSums, "face_block_sums", uint64(4 * r.blocksF), storage},
		{&r.faceCount, "face_count", 4, storage | gputypes.BufferUsageCopySrc},
		{&r.denseFaces, "compacted_faces", uint64(16 * r.candidates), storage | gputypes.BufferUsageCopySrc},
		{&r.scanParamsF, "face_scan_params", 16, uniform},

		{&r.stagingCounts, "staging_counts", 8, mapRead},
		{&r.stagingVertices, "staging_vertices", uint64(12 * cells), mapRead},
		{&r.stagingFaces, "staging_faces", uint64(16 * r.candidates), mapRead},
	}

	for _, a := range allocs {
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: a.label, Size: a.size, Usage: a.usage,
		})
		if err != nil {
			r.destroy(device)
			return nil, fmt.Errorf("gpu: create %s buffer: %w", a.label, err)
		}
		*a.buf = buf
	}
	return r, nil
}

// upload writes the density field and the stage uniforms.
func (r *runBuffers) upload(queue hal.Queue, field []float32, size sculpt.GridSize, iso float32) {
	queue.WriteBuffer(r.density, 0, floatsToBytes(field))
	queue.WriteBuffer(r.params, 0, packParams(size, iso))
	queue.WriteBuffer(r.scanParamsV, 0, packScanParams(r.cells, r.blocksV))
	queue.WriteBuffer(r.scanParamsF, 0, packScanParams(r.candidates, r.blocksF))
}

// bind creates the six per-stage bind groups over the run's buffers.
func (r *runBuffers) bind(device hal.Device, p *pipelineSet) error {
	bind := func(dst *hal.BindGroup, label string, layout hal.BindGroupLayout, bufs ...hal.Buffer) error {
		entries := make([]gputypes.BindGroupEntry, len(bufs))
		for i, b := range bufs {
			entries[i] = gputypes.BindGroupEntry{
				Binding: uint32(i),
				Resource: gputypes.BufferBinding{
					Buffer: b.NativeHandle(),
					Offset: 0,
					Size:   0, // 0 = entire buffer
				},
			}
		}
		bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label: label, Layout: layout, Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("gpu: create %s bind group: %w", label, err)
		}
		*dst = bg
		return nil
	}

	steps := []error{
		bind(&r.bindGenerateVertices, "generate_vertices_bind", p.generateVerticesLayout,
			r.density, r.vertices, r.vertexValid, r.params),
		bind(&r.bindScanV, "vertex_scan_bind", p.scanLayout,
			r.vertexValid, r.vertexIndex, r.vertexSums, r.vertexCount, r.scanParamsV),
		bind(&r.bindCompactV, "compact_vertices_bind", p.compactLayout,
			r.vertices, r.vertexValid, r.vertexIndex, r.denseVertices, r.scanParamsV),
		bind(&r.bindGenerateFaces, "generate_faces_bind", p.generateFacesLayout,
			r.density, r.vertexValid, r.vertexIndex, r.faces, r.faceValid, r.params),
		bind(&r.bindScanF, "face_scan_bind", p.scanLayout,
			r.faceValid, r.faceIndex, r.faceSums, r.faceCount, r.scanParamsF),
		bind(&r.bindCompactF, "compact_faces_bind", p.compactLayout,
			r.faces, r.faceValid, r.faceIndex, r.denseFaces, r.scanParamsF),
	}
	for _, err := range steps {
		if err != nil {
			return err
		}
	}
	return nil
}

// destroy releases every buffer and bind group. Safe on partial sets.
func (r *runBuffers) destroy(device hal.Device) {
	for _, bg := range []hal.BindGroup{
		r.bindGenerateVertices, r.bindScanV, r.bindCompactV,
		r.bindGenerateFaces, r.bindScanF, r.bindCompactF,
	} {
		if bg != nil {
			device.DestroyBindGroup(bg)
		}
	}
	for _, b := range []hal.Buffer{
		r.density, r.params,
		r.vertices, r.vertexValid, r.vertexIndex, r.vertexSums,
		r.vertexCount, r.denseVertices, r.scanParamsV,
		r.faces, r.faceValid, r.faceIndex, r.faceSums,
		r.faceCount, r.denseFaces, r.scanParamsF,
		r.stagingCounts, r.stagingVertices, r.stagingFaces,
	} {
		if b != nil {
			device.DestroyBuffer(b)
		}
	}
}
