package scan

import (
	"math/rand"
	"testing"

	"github.com/gogpu/sculpt/internal/parallel"
)

// sequentialExclusive is the reference implementation the parallel scan
// must match.
func sequentialExclusive(valid []uint32) ([]uint32, uint32) {
	index := make([]uint32, len(valid))
	var total uint32
	for i, v := range valid {
		index[i] = total
		total += v
	}
	return index, total
}

func TestExclusiveSmall(t *testing.T) {
	pool := parallel.New(4)
	defer pool.Close()

	tests := []struct {
		name      string
		valid     []uint32
		wantIndex []uint32
		wantCount uint32
	}{
		{"empty", nil, []uint32{}, 0},
		{"single valid", []uint32{1}, []uint32{0}, 1},
		{"single invalid", []uint32{0}, []uint32{0}, 0},
		{"mixed", []uint32{1, 0, 1, 1, 0, 1}, []uint32{0, 1, 1, 2, 3, 3}, 4},
		{"all valid", []uint32{1, 1, 1, 1}, []uint32{0, 1, 2, 3}, 4},
		{"all invalid", []uint32{0, 0, 0, 0}, []uint32{0, 0, 0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, count := Exclusive(pool, tt.valid)
			if count != tt.wantCount {
				t.Errorf("count = %d, want %d", count, tt.wantCount)
			}
			if len(index) != len(tt.wantIndex) {
				t.Fatalf("len(index) = %d, want %d", len(index), len(tt.wantIndex))
			}
			for i := range index {
				if index[i] != tt.wantIndex[i] {
					t.Fatalf("index = %v, want %v", index, tt.wantIndex)
				}
			}
		})
	}
}

func TestExclusiveMatchesSequential(t *testing.T) {
	pool := parallel.New(8)
	defer pool.Close()

	rng := rand.New(rand.NewSource(1))
	// Sizes straddling the block boundary exercise the block-sum carry.
	for _, n := range []int{1, 100, blockSize - 1, blockSize, blockSize + 1, 3*blockSize + 17} {
		valid := make([]uint32, n)
		for i := range valid {
			valid[i] = uint32(rng.Intn(2))
		}

		index, count := Exclusive(pool, valid)
		wantIndex, wantCount := sequentialExclusive(valid)

		if count != wantCount {
			t.Errorf("n=%d: count = %d, want %d", n, count, wantCount)
		}
		for i := range index {
			if index[i] != wantIndex[i] {
				t.Fatalf("n=%d: index[%d] = %d, want %d", n, i, index[i], wantIndex[i])
			}
		}
	}
}

func TestCompactPreservesOrder(t *testing.T) {
	pool := parallel.New(4)
	defer pool.Close()

	rng := rand.New(rand.NewSource(2))
	n := 10000
	valid := make([]uint32, n)
	src := make([]uint32, n)
	for i := range valid {
		valid[i] = uint32(rng.Intn(2))
		src[i] = uint32(i)
	}

	index, count := Exclusive(pool, valid)
	dst := make([]uint32, count)
	Compact(pool, dst, src, valid, index, 1)

	// Dense output must hold exactly the valid records, in source order.
	pos := 0
	for i := range src {
		if valid[i] == 0 {
			continue
		}
		if dst[pos] != src[i] {
			t.Fatalf("dst[%d] = %d, want %d", pos, dst[pos], src[i])
		}
		pos++
	}
	if pos != int(count) {
		t.Fatalf("compacted %d records, count says %d", pos, count)
	}
}

func TestCompactStride(t *testing.T) {
	pool := parallel.New(2)
	defer pool.Close()

	valid := []uint32{0, 1, 0, 1}
	src := []float32{
		0, 0, 0,
		1, 2, 3,
		9, 9, 9,
		4, 5, 6,
	}
	index, count := Exclusive(pool, valid)
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	dst := make([]float32, 3*count)
	Compact(pool, dst, src, valid, index, 3)

	want := []float32{1, 2, 3, 4, 5, 6}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = %v, want %v", dst, want)
		}
	}
}
