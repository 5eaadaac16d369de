//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// The stage shaders are embedded at build time and compiled to SPIR-V
// with naga during pipeline creation.
var (
	//go:embed shaders/generate_vertices.wgsl
	generateVerticesWGSL string

	//go:embed shaders/prefix_sum.wgsl
	prefixSumWGSL string

	//go:embed shaders/compact_vertices.wgsl
	compactVerticesWGSL string

	//go:embed shaders/generate_faces.wgsl
	generateFacesWGSL string

	//go:embed shaders/compact_faces.wgsl
	compactFacesWGSL string
)

// compileShader compiles WGSL source to a SPIR-V shader module.
func compileShader(device hal.Device, label, wgsl string) (hal.ShaderModule, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", label, err)
	}
	// SPIR-V is little-endian 32-bit words.
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
}

// pipelineSet holds the five stage pipelines and their layouts. The stage
// set is closed: the pipeline sequence is statically known, so there is no
// runtime pipeline lookup.
type pipelineSet struct {
	generateVerticesLayout hal.BindGroupLayout
	scanLayout             hal.BindGroupLayout
	compactLayout          hal.BindGroupLayout
	generateFacesLayout    hal.BindGroupLayout

	generateVertices hal.ComputePipeline
	scanBlocks       hal.ComputePipeline
	scanSums         hal.ComputePipeline
	scanApply        hal.ComputePipeline
	compactVertices  hal.ComputePipeline
	generateFaces    hal.ComputePipeline
	compactFaces     hal.ComputePipeline

	pipelineLayouts []hal.PipelineLayout
	shaderModules   []hal.ShaderModule
}

func storageEntry(binding uint32, readOnly bool) gputypes.BindGroupLayoutEntry {
	t := gputypes.BufferBindingTypeStorage
	if readOnly {
		t = gputypes.BufferBindingTypeReadOnlyStorage
	}
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: t},
	}
}

func uniformEntry(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
}

// create builds all layouts and pipelines. On error, already-created
// resources are released.
func (p *pipelineSet) create(device hal.Device) (err error) {
	defer func() {
		if err != nil {
			p.destroy(device)
		}
	}()

	// Layout 1 (generate_vertices): density, vertices, vertex_valid, params.
	p.generateVerticesLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "surface_nets_generate_vertices_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			storageEntry(0, true),
			storageEntry(1, false),
			storageEntry(2, false),
			uniformEntry(3),
		},
	})
	if err != nil {
		return fmt.Errorf("generate_vertices layout: %w", err)
	}

	// Layout 2 (prefix sum): valid, index, block_sums, count, scan params.
	// Shared by the three scan entry points.
	p.scanLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "surface_nets_scan_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			storageEntry(0, true),
			storageEntry(1, false),
			storageEntry(2, false),
			storageEntry(3, false),
			uniformEntry(4),
		},
	})
	if err != nil {
		return fmt.Errorf("scan layout: %w", err)
	}

	// Layout 3 (compaction): src, valid, index, dense, scan params.
	// Shared by compact_vertices and compact_faces.
	p.compactLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "surface_nets_compact_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			storageEntry(0, true),
			storageEntry(1, true),
			storageEntry(2, true),
			storageEntry(3, false),
			uniformEntry(4),
		},
	})
	if err != nil {
		return fmt.Errorf("compact layout: %w", err)
	}

	// Layout 4 (generate_faces): density, vertex_valid, vertex_index,
	// faces, face_valid, params.
	p.generateFacesLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "surface_nets_generate_faces_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			storageEntry(0, true),
			storageEntry(1, true),
			storageEntry(2, true),
			storageEntry(3, false),
			storageEntry(4, false),
			uniformEntry(5),
		},
	})
	if err != nil {
		return fmt.Errorf("generate_faces layout: %w", err)
	}

	type stage struct {
		pipeline *hal.ComputePipeline
		layout   hal.BindGroupLayout
		wgsl     string
		label    string
		entry    string
	}
	stages := []stage{
		{&p.generateVertices, p.generateVerticesLayout, generateVerticesWGSL, "generate_vertices", "generate_vertices"},
		{&p.scanBlocks, p.scanLayout, prefixSumWGSL, "prefix_sum", "scan_blocks"},
		{&p.scanSums, p.scanLayout, prefixSumWGSL, "prefix_sum", "scan_sums"},
		{&p.scanApply, p.scanLayout, prefixSumWGSL, "prefix_sum", "scan_apply"},
		{&p.compactVertices, p.compactLayout, compactVerticesWGSL, "compact_vertices", "compact_vertices"},
		{&p.generateFaces, p.generateFacesLayout, generateFacesWGSL, "generate_faces", "generate_faces"},
		{&p.compactFaces, p.compactLayout, compactFacesWGSL, "compact_faces", "compact_faces"},
	}

	modules := map[string]hal.ShaderModule{}
	for _, s := range stages {
		module, ok := modules[s.label]
		if !ok {
			module, err = compileShader(device, s.label, s.wgsl)
			if err != nil {
				return err
			}
			modules[s.label] = module
			p.shaderModules = append(p.shaderModules, module)
		}

		layout, lerr := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label:            s.label + "_pipe_layout",
			BindGroupLayouts: []hal.BindGroupLayout{s.layout},
		})
		if lerr != nil {
			return fmt.Errorf("%s pipeline layout: %w", s.label, lerr)
		}
		p.pipelineLayouts = append(p.pipelineLayouts, layout)

		pipeline, perr := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:   s.entry + "_pipeline",
			Layout:  layout,
			Compute: hal.ComputeState{Module: module, EntryPoint: s.entry},
		})
		if perr != nil {
			return fmt.Errorf("%s pipeline: %w", s.entry, perr)
		}
		*s.pipeline = pipeline
	}

	return nil
}

// destroy releases all pipeline resources. Safe on a partially built set.
func (p *pipelineSet) destroy(device hal.Device) {
	if device == nil {
		return
	}
	for _, pl := range []hal.ComputePipeline{
		p.generateVertices, p.scanBlocks, p.scanSums, p.scanApply,
		p.compactVertices, p.generateFaces, p.compactFaces,
	} {
		if pl != nil {
			device.DestroyComputePipeline(pl)
		}
	}
	for _, l := range p.pipelineLayouts {
		device.DestroyPipelineLayout(l)
	}
	for _, l := range []hal.BindGroupLayout{
		p.generateVerticesLayout, p.scanLayout, p.compactLayout, p.generateFacesLayout,
	} {
		if l != nil {
			device.DestroyBindGroupLayout(l)
		}
	}
	for _, m := range p.shaderModules {
		device.DestroyShaderModule(m)
	}
	*p = pipelineSet{}
}
