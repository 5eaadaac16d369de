//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/sculpt"
)

// packParams encodes the grid dimensions and isovalue as the 32-byte
// uniform block shared by the generate stages: vec4<u32> dims followed
// by vec4<f32> with the isovalue in .x.
func packParams(size sculpt.GridSize, iso float32) []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:], uint32(size.X))
	binary.LittleEndian.PutUint32(buf[4:], uint32(size.Y))
	binary.LittleEndian.PutUint32(buf[8:], uint32(size.Z))
	binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(iso))
	return buf
}

// packScanParams encodes the element and block counts for one prefix-sum
// pass as a 16-byte uniform block.
func packScanParams(n, blocks int) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], uint32(n))
	binary.LittleEndian.PutUint32(buf[4:], uint32(blocks))
	return buf
}

func floatsToBytes(src []float32) []byte {
	buf := make([]byte, 4*len(src))
	for i, f := range src {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloats(src []byte) []float32 {
	out := make([]float32, len(src)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:]))
	}
	return out
}

func bytesToUints(src []byte) []uint32 {
	out := make([]uint32, len(src)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(src[4*i:])
	}
	return out
}
