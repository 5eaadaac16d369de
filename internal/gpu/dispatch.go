//go:build !nogpu

package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sculpt"
)

// fenceTimeout is the maximum time to wait for GPU work to complete.
const fenceTimeout = 5 * time.Second

// dispatchResources tracks per-run GPU resources for cleanup.
type dispatchResources struct {
	device hal.Device
	cmdBuf hal.CommandBuffer
	fence  hal.Fence
}

func (r *dispatchResources) cleanup() {
	if r.fence != nil {
		r.device.DestroyFence(r.fence)
	}
	if r.cmdBuf != nil {
		r.device.FreeCommandBuffer(r.cmdBuf)
	}
}

// stagePass holds parameters for a single compute pass.
type stagePass struct {
	label      string
	pipeline   hal.ComputePipeline
	bindGroup  hal.BindGroup
	workgroups uint32
}

func workgroups(elements, size int) uint32 {
	return uint32((elements + size - 1) / size)
}

// dispatch records the five pipeline stages into one command buffer,
// appends the staging copies, and submits the whole batch behind a fence.
//
// The pass sequence is:
//  1. generate_vertices: density -> vertices + vertex_valid (ceil(cells/64) wg)
//  2. prefix sum over vertex_valid: scan_blocks, scan_sums, scan_apply
//  3. compact_vertices: vertices -> compacted_vertices (ceil(cells/64) wg)
//  4. generate_faces: density + vertex flags -> faces + face_valid (ceil(cells/64) wg)
//  5. prefix sum over face_valid, then compact_faces (ceil(3*cells/64) wg)
//
// The scan writes its own total into the count buffer, so no intermediate
// readback is needed; output buffers are capacity-sized and the counts are
// read once at the end.
func (e *Engine) dispatch(run *runBuffers) error {
	res := &dispatchResources{device: e.device}
	defer res.cleanup()

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "surface_nets",
	})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("surface_nets"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	passes := []stagePass{
		{"generate_vertices", e.pipelines.generateVertices, run.bindGenerateVertices, workgroups(run.cells, kernelWG)},
		{"vertex_scan_blocks", e.pipelines.scanBlocks, run.bindScanV, uint32(run.blocksV)},
		{"vertex_scan_sums", e.pipelines.scanSums, run.bindScanV, 1},
		{"vertex_scan_apply", e.pipelines.scanApply, run.bindScanV, uint32(run.blocksV)},
		{"compact_vertices", e.pipelines.compactVertices, run.bindCompactV, workgroups(run.cells, kernelWG)},
		{"generate_faces", e.pipelines.generateFaces, run.bindGenerateFaces, workgroups(run.cells, kernelWG)},
		{"face_scan_blocks", e.pipelines.scanBlocks, run.bindScanF, uint32(run.blocksF)},
		{"face_scan_sums", e.pipelines.scanSums, run.bindScanF, 1},
		{"face_scan_apply", e.pipelines.scanApply, run.bindScanF, uint32(run.blocksF)},
		{"compact_faces", e.pipelines.compactFaces, run.bindCompactF, workgroups(run.candidates, kernelWG)},
	}

	for _, p := range passes {
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: p.label})
		pass.SetPipeline(p.pipeline)
		pass.SetBindGroup(0, p.bindGroup, nil)
		pass.Dispatch(p.workgroups, 1, 1)
		pass.End()
	}

	// Stage the counts and the full-capacity output buffers for readback.
	// Only the leading vertex_count/face_count entries of the staged data
	// are meaningful; readback slices them down.
	encoder.CopyBufferToBuffer(run.vertexCount, run.stagingCounts, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: 4},
	})
	encoder.CopyBufferToBuffer(run.faceCount, run.stagingCounts, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 4, Size: 4},
	})
	encoder.CopyBufferToBuffer(run.denseVertices, run.stagingVertices, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: uint64(12 * run.cells)},
	})
	encoder.CopyBufferToBuffer(run.denseFaces, run.stagingFaces, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: uint64(16 * run.candidates)},
	})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	res.cmdBuf = cmdBuf

	fence, err := e.device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	res.fence = fence

	if err := e.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	ok, err := e.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("gpu: wait for fence: %w", err)
	}
	if !ok {
		return fmt.Errorf("gpu: timeout after %v", fenceTimeout)
	}
	return nil
}

// readback pulls the counts and the compacted streams from the staging
// buffers and assembles them into one snapshot. A count beyond the buffer
// capacity means the readback cannot be trusted.
func (e *Engine) readback(run *runBuffers) (sculpt.Snapshot, error) {
	counts := make([]byte, 8)
	if err := e.queue.ReadBuffer(run.stagingCounts, 0, counts); err != nil {
		return sculpt.Snapshot{}, fmt.Errorf("%w: counts: %v", sculpt.ErrIncompleteReadback, err)
	}
	raw := bytesToUints(counts)
	vertexCount, faceCount := raw[0], raw[1]

	if vertexCount > uint32(run.cells) {
		return sculpt.Snapshot{}, fmt.Errorf("%w: vertex count %d exceeds capacity %d",
			sculpt.ErrIncompleteReadback, vertexCount, run.cells)
	}
	if faceCount > uint32(run.candidates) {
		return sculpt.Snapshot{}, fmt.Errorf("%w: face count %d exceeds capacity %d",
			sculpt.ErrIncompleteReadback, faceCount, run.candidates)
	}

	snap := sculpt.Snapshot{VertexCount: vertexCount, FaceCount: faceCount}

	if vertexCount > 0 {
		data := make([]byte, 12*vertexCount)
		if err := e.queue.ReadBuffer(run.stagingVertices, 0, data); err != nil {
			return sculpt.Snapshot{}, fmt.Errorf("%w: vertices: %v", sculpt.ErrIncompleteReadback, err)
		}
		snap.Vertices = bytesToFloats(data)
	}
	if faceCount > 0 {
		data := make([]byte, 16*faceCount)
		if err := e.queue.ReadBuffer(run.stagingFaces, 0, data); err != nil {
			return sculpt.Snapshot{}, fmt.Errorf("%w: faces: %v", sculpt.ErrIncompleteReadback, err)
		}
		snap.Faces = bytesToUints(data)
	}

	sculpt.Logger().Debug("GPU extraction complete",
		"vertices", vertexCount, "faces", faceCount)
	return snap, nil
}
