package charset

import (
	"regexp"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type matchRow struct {
	Input    byte
	Expected bool
}

func bytesAsRunes(in []byte) []rune {
	out := make([]rune, len(in))
	for i, b := range in {
		out[i] = rune(b)
	}
	return out
}

var allBytes []byte

func init() {
	allBytes = make([]byte, 256)
	for i := 0; i < 256; i++ {
		allBytes[i] = byte(i)
	}
}

func runByteMatchTests(t *testing.T, m Matcher, data []matchRow) {
	t.Helper()
	for i, row := range data {
		actual := m.Match(row.Input)
		if row.Expected != actual {
			t.Errorf("%s/%03d: %q: expected %v, got %v", t.Name(), i, row.Input, row.Expected, actual)
		}
	}
}

func runForEachTests(t *testing.T, m Matcher, expected []byte) {
	actual := make([]byte, 0, len(expected))
	m.ForEach(func(b byte) {
		actual = append(actual, b)
	})
	if string(actual) == string(expected) {
		return
	}
	actualRunes := bytesAsRunes(actual)
	expectedRunes := bytesAsRunes(expected)
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(expectedRunes, actualRunes, false)
	pretty := dmp.DiffPrettyText(diffs)
	nl := regexp.MustCompile(`(?m)^`)
	pretty = nl.ReplaceAllLiteralString(pretty, "\t")
	t.Errorf("%s: wrong output:\n%s", t.Name(), pretty)
}

func TestAll_Match(t *testing.T) {
	m := All()
	runByteMatchTests(t, m, []matchRow{
		{'0', true},
		{'A', true},
		{'z', true},
		{' ', true},
		{0xff, true},
		{0x00, true},
	})
}

func TestAll_ForEach(t *testing.T) {
	runForEachTests(t, All(), allBytes)
}

func TestNone_Match(t *testing.T) {
	m := None()
	runByteMatchTests(t, m, []matchRow{
		{'0', false},
		{'A', false},
		{0xff, false},
		{0x00, false},
	})
}

func TestNone_ForEach(t *testing.T) {
	runForEachTests(t, None(), nil)
}

func TestNegate_Match(t *testing.T) {
	m0 := Not(All())
	runByteMatchTests(t, m0, []matchRow{{'0', false}, {0xff, false}})

	m1 := Not(None())
	runByteMatchTests(t, m1, []matchRow{{'0', true}, {0xff, true}})
}

func TestNegate_Optimize(t *testing.T) {
	m := Not(Dense('a', 'b', 'c')).Optimize()
	if m.Match('a') {
		t.Errorf("expected 'a' excluded after negation")
	}
	if !m.Match('z') {
		t.Errorf("expected 'z' included after negation")
	}
}

func TestIntersection_Match(t *testing.T) {
	m := And(All(), None())
	runByteMatchTests(t, m, []matchRow{{0x00, false}, {0x55, false}, {0xff, false}})
}

func TestUnion_Match(t *testing.T) {
	m := Or(None(), All())
	runByteMatchTests(t, m, []matchRow{{0x00, true}, {0x55, true}, {0xff, true}})
}

func makeSparseDemo() Matcher {
	return Sparse('a', 'e', 'i', 'o', 'u')
}

func TestSparse_Match(t *testing.T) {
	m := makeSparseDemo()
	runByteMatchTests(t, m, []matchRow{
		{'a', true}, {'e', true}, {'i', true}, {'o', true}, {'u', true},
		{'9', false}, {'b', false},
	})
}

func TestSparse_ForEach(t *testing.T) {
	runForEachTests(t, makeSparseDemo(), []byte{'a', 'e', 'i', 'o', 'u'})
}

func makeDenseDemo() Matcher {
	return Dense('a', 'e', 'i', 'o', 'u')
}

func TestDense_Match(t *testing.T) {
	m := makeDenseDemo()
	runByteMatchTests(t, m, []matchRow{
		{'a', true}, {'e', true}, {'9', false}, {'z', false},
	})
}

func TestDense_ForEach(t *testing.T) {
	runForEachTests(t, makeDenseDemo(), []byte{'a', 'e', 'i', 'o', 'u'})
}

func makeRangeDemo() Matcher {
	return Ranges(
		Range{'0', '9'},
		Range{'A', 'Z'},
		Range{'a', 'z'})
}

func TestRange_Match(t *testing.T) {
	m := makeRangeDemo()
	runByteMatchTests(t, m, []matchRow{
		{'0', true}, {'9', true}, {'A', true}, {'Z', true},
		{'a', true}, {'z', true}, {' ', false}, {'@', false}, {'`', false},
	})
}

func TestRange_ForEach(t *testing.T) {
	runForEachTests(t, makeRangeDemo(), []byte{
		'0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
		'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M',
		'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z',
		'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
		'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
	})
}

func TestRange_CoalescesAdjacent(t *testing.T) {
	m := Ranges(Range{'a', 'm'}, Range{'n', 'z'}).(*mRange)
	if len(m.Ranges) != 1 {
		t.Fatalf("expected adjacent ranges to coalesce into one, got %v", m.Ranges)
	}
}

func TestBytes(t *testing.T) {
	m0 := makeSparseDemo()
	if actual, expected := string(Bytes(m0, nil)), "aeiou"; actual != expected {
		t.Errorf("expected %q, actual %q", expected, actual)
	}
}

func TestDisjoint(t *testing.T) {
	if !Disjoint(Dense('a', 'b'), Dense('c', 'd')) {
		t.Errorf("expected disjoint sets to report disjoint")
	}
	if Disjoint(Dense('a', 'b'), Dense('b', 'c')) {
		t.Errorf("expected overlapping sets to report non-disjoint")
	}
}

func TestEqual(t *testing.T) {
	if !Equal(Dense('a', 'b', 'c'), Ranges(Range{'a', 'c'})) {
		t.Errorf("expected equal sets built two different ways to compare equal")
	}
}
