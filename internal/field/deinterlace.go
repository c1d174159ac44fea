package field

// MakeProgressivePair reconstructs two full-height progressive frames from
// one interlaced frame. A is the temporally earlier field, B the later one.
//
// Field identification is by first line number: the top field owns even
// lines, the bottom field owns odd lines. topFieldFirst selects which
// parity comes first in time.
func MakeProgressivePair(src *Buffer, topFieldFirst bool, pool Pool) (a, b *Buffer) {
	firstField := 0
	if !topFieldFirst {
		firstField = 1
	}
	secondField := 1 - firstField

	a = pool.Get()
	reconstruct(src, a, firstField)

	b = pool.Get()
	reconstruct(src, b, secondField)

	return a, b
}

// reconstruct fills dst with the owned lines of ownedField copied verbatim
// from src, then interpolates the opposite field's lines from dst's own
// spatial grid.
func reconstruct(src, dst *Buffer, ownedField int) {
	height := src.Height
	missingField := 1 - ownedField

	// Copy phase: own lines are unchanged geometry, copied straight across.
	for y := ownedField; y < height; y += 2 {
		copy(dst.Row(y), src.Row(y))
	}

	// Interpolate phase: each missing line is the truncated average of its
	// spatial neighbors in dst, except the one missing line that has no
	// neighbor on one side, which copies the adjacent owned line verbatim.
	//
	// Performance note: a production inner loop would peel this into
	// 32/16/8-byte vertical swaths processed top-to-bottom per swath so the
	// "below" vector for line L becomes the "above" vector for line L+2,
	// each line read once per swath. Correctness here does not depend on
	// visit order because every missing line only reads already-copied
	// owned lines, never another missing line.
	for y := missingField; y < height; y += 2 {
		switch {
		case y == 0:
			copy(dst.Row(0), dst.Row(1))
		case y == height-1:
			copy(dst.Row(height-1), dst.Row(height-2))
		default:
			interpolateLine(dst.Row(y), dst.Row(y-1), dst.Row(y+1))
		}
	}
}

// interpolateLine sets every byte of dst to the truncated average of the
// same-index bytes of above and below: (above>>1)+(below>>1). This equals
// floor((a+b)/2) when a and b share a low bit, and is one less otherwise;
// that ≤1 error is accepted to keep the loop branch-free and overflow-free.
// Overrunning into row padding (dst/above/below all share rowBytes) is
// permitted by the geometry invariant and affects no other line.
func interpolateLine(dst, above, below []byte) {
	for x := range dst {
		dst[x] = (above[x] >> 1) + (below[x] >> 1)
	}
}
