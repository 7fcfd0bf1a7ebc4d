// Package charset implements the 256-bit byte-set primitive used
// throughout pego: membership tests, unions, intersections, negations,
// and range coalescing over the byte alphabet.
package charset

// Matcher is a predicate that returns true for certain bytes.
//
// Implementations of Matcher must not change their state on a call to
// Match.
type Matcher interface {
	// Match returns true iff byte b is in the set.
	Match(b byte) bool

	// ForEach calls f exactly once for each byte in the set. The
	// arguments for successive calls are guaranteed to be in
	// ascending order.
	ForEach(f func(b byte))

	// Optimize returns a Matcher that matches the same set of bytes,
	// but possibly in a more efficient representation. If no better
	// implementation can be found, returns this matcher.
	Optimize() Matcher

	// String returns a string representation of the set.
	String() string
}

type asDenser interface {
	asDense() Matcher
}

// Bytes appends each byte matched by m to out, then returns the
// updated slice.
func Bytes(m Matcher, out []byte) []byte {
	m.ForEach(func(b byte) { out = append(out, b) })
	return out
}

// AsDense forces m into the canonical 256-bit dense representation
// (spec.md §3: "256-bit vector; membership test is a bit lookup").
func AsDense(m Matcher) *Dense256 {
	if md, ok := m.(*Dense256); ok {
		return md
	}
	if mx, ok := m.(asDenser); ok {
		if md, ok := mx.asDense().(*Dense256); ok {
			return md
		}
	}
	mm := &Dense256{}
	m.ForEach(func(b byte) {
		index, mask := denseIM(b)
		mm.Set[index] |= mask
	})
	return mm
}

// Equal reports whether a and b match exactly the same bytes.
func Equal(a, b Matcher) bool {
	da, db := AsDense(a), AsDense(b)
	return *da == *db
}

// Disjoint reports whether a and b share no matched byte.
func Disjoint(a, b Matcher) bool {
	da, db := AsDense(a), AsDense(b)
	for i := range da.Set {
		if da.Set[i]&db.Set[i] != 0 {
			return false
		}
	}
	return true
}
