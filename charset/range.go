package charset

import (
	"sort"
)

// Range represents a range of consecutive bytes.
//
// If Lo < Hi, this Range represents the bytes Lo, Lo+1, ..., Hi-1, Hi.
// If Lo == Hi, this Range represents the single byte Lo.
// If Lo > Hi, this Range represents the null set.
type Range struct {
	Lo byte
	Hi byte
}

// Ranges returns a Matcher that matches any byte falling in one of the
// given Range entries. This backs the Range primitive constructor
// (spec.md §4.1): Range(pairs) reads pairs as (lo,hi) and unions the
// closed byte intervals.
//
// • Match performance: moderate
//
// • ForEach performance: fast
//
// This is usually the best choice when most bytes in the set are
// consecutive and the number of ranges is small.
func Ranges(rs ...Range) Matcher {
	return makeRange(rs)
}

type mRange struct {
	Ranges []Range
}

var _ Matcher = (*mRange)(nil)

func (m *mRange) Match(b byte) bool {
	i := sort.Search(len(m.Ranges), func(i int) bool {
		return m.Ranges[i].Hi >= b
	})
	if i >= len(m.Ranges) {
		return false
	}
	r := m.Ranges[i]
	return r.Lo <= b && b <= r.Hi
}

func (m *mRange) ForEach(f func(b byte)) {
	for _, r := range m.Ranges {
		for i := uint(r.Lo); i <= uint(r.Hi); i++ {
			f(byte(i))
		}
	}
}

func (m *mRange) Optimize() Matcher {
	if len(m.Ranges) == 0 {
		return None()
	}
	return m
}

func (m *mRange) String() string {
	return genericString(m)
}

func (m *mRange) asDense() Matcher {
	mm := &Dense256{}
	for _, r := range m.Ranges {
		for x := uint(r.Lo); x <= uint(r.Hi); x++ {
			index, mask := denseIM(byte(x))
			mm.Set[index] |= mask
		}
	}
	return mm
}

func makeRange(rs []Range) *mRange {
	rs = coalesceRanges(rs)
	return &mRange{Ranges: rs}
}

// coalesceRanges guarantees:
//
//   - All Range entries have Lo <= Hi
//   - No overlapping Range entries
//   - Entries are sorted by Lo, with m.Ranges[i-1].Hi < m.Ranges[i].Lo
//
// Adjacent-but-non-overlapping ranges are merged along the way.
func coalesceRanges(a []Range) []Range {
	b := make([]Range, 0, len(a))
	for _, r := range a {
		if r.Hi >= r.Lo {
			b = append(b, r)
		}
	}
	sort.Sort(rangeSlice(b))

	if len(b) < 2 {
		return b
	}

	c := make([]Range, 0, len(b))
	var lastHi byte
	var have bool
	for _, r := range b {
		switch {
		case have && lastHi >= r.Hi:
			// Fully overlapping; discard the smaller range.
		case have && (lastHi >= r.Lo || lastHi+1 == r.Lo):
			// Adjacent or partially overlapping; merge.
			c[len(c)-1].Hi = r.Hi
			lastHi = r.Hi
		default:
			c = append(c, r)
			lastHi = r.Hi
			have = true
		}
	}
	return c
}
