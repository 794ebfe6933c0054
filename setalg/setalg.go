// Package setalg implements sorted-slice set algebra over strictly
// ascending, duplicate-free []uint32 posting lists: linear and galloping
// intersection, union, and difference.
package setalg

import "sort"

// IntersectSorted returns the sorted intersection of a and b via a linear
// merge. The result is strictly ascending and duplicate-free.
func IntersectSorted(a, b []uint32) []uint32 {
	out := make([]uint32, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// IntersectAdaptive returns the same result as IntersectSorted but chooses,
// per call, between a linear merge and an exponential+binary-search
// ("galloping") strategy driven by the smaller slice. Galloping is used
// when min(len(a),len(b))*8 < max(len(a),len(b)); otherwise it falls back
// to the linear merge. Degenerate (empty) inputs return an empty slice.
func IntersectAdaptive(a, b []uint32) []uint32 {
	if len(a) == 0 || len(b) == 0 {
		return []uint32{}
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	if len(small)*8 >= len(large) {
		return IntersectSorted(a, b)
	}
	out := make([]uint32, 0, len(small))
	pos := 0
	for _, v := range small {
		if pos >= len(large) {
			break
		}
		idx, found := gallop(large, pos, v)
		pos = idx
		if found {
			out = append(out, v)
			pos++
		}
	}
	return out
}

// gallop searches for v in large[from:] using exponential probing followed
// by binary search, returning the index at which v would be found (or
// inserted) and whether it was found.
func gallop(large []uint32, from int, v uint32) (int, bool) {
	n := len(large)
	if from >= n {
		return n, false
	}
	step := 1
	lo := from
	hi := from
	for hi < n && large[hi] < v {
		lo = hi
		step *= 2
		hi = from + step
	}
	if hi > n {
		hi = n
	}
	idx := lo + sort.Search(hi-lo, func(i int) bool { return large[lo+i] >= v })
	if idx < n && large[idx] == v {
		return idx, true
	}
	return idx, false
}

// UnionSorted returns the sorted, deduplicated union of a and b via a
// linear merge.
func UnionSorted(a, b []uint32) []uint32 {
	out := make([]uint32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// DiffSorted returns the elements of base that are not present in sub, via
// a linear merge.
func DiffSorted(base, sub []uint32) []uint32 {
	out := make([]uint32, 0, len(base))
	i, j := 0, 0
	for i < len(base) {
		for j < len(sub) && sub[j] < base[i] {
			j++
		}
		if j < len(sub) && sub[j] == base[i] {
			i++
			continue
		}
		out = append(out, base[i])
		i++
	}
	return out
}
