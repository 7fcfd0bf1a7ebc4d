package charset

// Or returns a Matcher that matches iff any of the given Matchers
// match. Used by the Choice combinator (spec.md §4.2) to build
// cs_A ∪ cs_B when both operands reduce to charsets.
//
// • Match performance: moderate (limited by inner matchers)
//
// • ForEach performance: moderate (limited by inner matchers)
func Or(ms ...Matcher) Matcher {
	l := make([]Matcher, len(ms))
	copy(l, ms)
	return &mUnion{List: l}
}

type mUnion struct {
	List []Matcher
}

var _ Matcher = (*mUnion)(nil)

func (m *mUnion) Match(b byte) bool {
	for _, sub := range m.List {
		if sub.Match(b) {
			return true
		}
	}
	return false
}

func (m *mUnion) ForEach(f func(b byte)) {
	seen := Dense256{}
	for _, sub := range m.List {
		sub.ForEach(func(b byte) {
			index, mask := denseIM(b)
			seen.Set[index] |= mask
		})
	}
	seen.ForEach(f)
}

func (m *mUnion) Optimize() Matcher {
	if len(m.List) == 0 {
		return None()
	}
	if len(m.List) == 1 {
		return m.List[0].Optimize()
	}
	return AsDense(m).Optimize()
}

func (m *mUnion) String() string {
	return genericString(m)
}
