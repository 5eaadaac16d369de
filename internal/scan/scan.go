// Package scan implements parallel stream compaction: an exclusive prefix
// sum over a validity array, plus a scatter pass that writes only the valid
// elements, contiguously and in source order.
//
// The scan is a two-level scheme in the style of GPU scan kernels: a
// parallel per-block reduction, a sequential pass over the (small) block
// sums, and a parallel per-block exclusive scan seeded with each block's
// carried prefix. Correctness does not depend on the block size; it only
// bounds the sequential portion of the work.
package scan

import "github.com/gogpu/sculpt/internal/parallel"

// blockSize is the number of elements each block task covers.
const blockSize = 4096

// Exclusive computes the exclusive prefix sum of valid and the total number
// of set entries. Entries of valid must be 0 or 1.
//
// For every i, index[i] equals the number of valid entries strictly before
// i, and count equals index[n-1] + valid[n-1] (0 for an empty input). The
// index array is therefore monotonically non-decreasing, and index[i] is a
// unique dense slot for every valid i.
func Exclusive(pool *parallel.Pool, valid []uint32) (index []uint32, count uint32) {
	n := len(valid)
	index = make([]uint32, n)
	if n == 0 {
		return index, 0
	}

	blocks := (n + blockSize - 1) / blockSize
	sums := make([]uint32, blocks)

	// Level 1: reduce each block in parallel.
	pool.ForRange(blocks, func(lo, hi int) {
		for b := lo; b < hi; b++ {
			var s uint32
			for _, v := range valid[b*blockSize : min((b+1)*blockSize, n)] {
				s += v
			}
			sums[b] = s
		}
	})

	// Level 2: sequential exclusive scan over the block sums.
	// blocks is ~n/blockSize, so this loop is short.
	var total uint32
	for b, s := range sums {
		sums[b] = total
		total += s
	}

	// Level 3: per-block exclusive scan, seeded with the block's prefix.
	pool.ForRange(blocks, func(lo, hi int) {
		for b := lo; b < hi; b++ {
			running := sums[b]
			for i := b * blockSize; i < min((b+1)*blockSize, n); i++ {
				index[i] = running
				running += valid[i]
			}
		}
	})

	return index, total
}

// Compact scatters the valid records of src into dst. Records are stride
// elements wide and parallel to the valid/index arrays: record i occupies
// src[i*stride : (i+1)*stride] and, when valid[i] is set, lands at dense
// slot index[i]. Invalid records are skipped, so dst needs room for exactly
// count*stride elements.
//
// The scatter is race-free: the scan guarantees every valid i owns a
// distinct index[i], so no two tasks write the same dst slot.
func Compact[T any](pool *parallel.Pool, dst, src []T, valid, index []uint32, stride int) {
	pool.ForRange(len(valid), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if valid[i] == 0 {
				continue
			}
			copy(dst[int(index[i])*stride:], src[i*stride:(i+1)*stride])
		}
	})
}
