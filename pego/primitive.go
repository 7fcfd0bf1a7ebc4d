package pego

import "github.com/chronos-tachyon/pego/charset"

// ucharMax bounds the "at-most-n" idiom accepted by Any, mirroring the
// source material's UCHAR_MAX (spec.md §4.1).
const ucharMax = 255

// True returns the empty pattern: it matches any input, consuming
// nothing.
func True() *Pattern {
	return end()
}

// Fail returns a pattern that never matches.
func Fail() *Pattern {
	return &Pattern{Code: []Instruction{
		{Code: OpFail},
		{Code: OpEnd},
	}}
}

// Any returns a pattern that consumes exactly n bytes, or rejects the
// "at-most/at-least" idioms spec.md §4.1 assigns to negative n:
//
//   - n == 0: True, the empty pattern.
//   - n > 0: one Any(255) per full 255-byte block, plus a trailing
//     Any(n mod 255).
//   - -ucharMax <= n < 0: Any(-n) followed by Fail ("does not have at
//     least |n| more bytes").
//   - n < -ucharMax: a guarded form that still reports end-of-input
//     failure correctly instead of reading past it.
func Any(n int) *Pattern {
	switch {
	case n == 0:
		return True()
	case n > 0:
		return anyBlocks(n)
	case n >= -ucharMax:
		return anyAtLeast(-n)
	default:
		return anyGuarded(n)
	}
}

// anyAtLeast builds the "does not have at least k more bytes" form for
// 0 < k <= ucharMax: a single Any(k) check whose failure jumps past the
// trailing Fail straight to End, mirroring the source material's
// setinstaux(p, IAny, 2, -n) (spec.md §4.1). On success the Any check
// consumes k bytes and falls into Fail, so the overall pattern never
// matches when k or more bytes remain.
func anyAtLeast(k int) *Pattern {
	return &Pattern{Code: []Instruction{
		{Code: OpAny, Aux: uint8(k), Offset: 1},
		{Code: OpFail},
		{Code: OpEnd},
	}}
}

func anyBlocks(n int) *Pattern {
	code := make([]Instruction, 0, n/ucharMax+2)
	full := n / ucharMax
	rem := n % ucharMax
	for i := 0; i < full; i++ {
		code = append(code, Instruction{Code: OpAny, Aux: ucharMax})
	}
	if rem > 0 {
		code = append(code, Instruction{Code: OpAny, Aux: uint8(rem)})
	}
	code = append(code, Instruction{Code: OpEnd})
	return &Pattern{Code: code}
}

// anyGuarded builds the guarded "does not have at least |n| bytes" form
// for |n| > ucharMax. A leading Any(ucharMax) guard first rules out
// anything shorter than ucharMax bytes (which is necessarily shorter
// than |n| too, so that alone is enough to succeed). Once the guard has
// committed ucharMax bytes, a Choice records how to undo that
// consumption, and a tail of further Any checks covers the remaining
// |n|-ucharMax bytes still required.
//
// If the tail ever comes up short, the ordinary fail() path finds the
// Choice frame, rewinds S past the guard, and jumps to End: exactly
// like anyAtLeast, running out of bytes partway through is what makes
// this pattern succeed. If the tail fully succeeds instead, there truly
// were at least |n| bytes available, so execution falls through into
// FailTwice, which discards the now-stale Choice frame and fails for
// real (spec.md §4.1; cf. the source material's any()/Pattern_Any,
// whose IChoice+IFailTwice pairing this follows in spirit, adapted to
// this VM's pop-on-backtrack frame semantics).
func anyGuarded(n int) *Pattern {
	k := -n
	rest := k - ucharMax
	full := rest / ucharMax
	rem := rest % ucharMax
	var tail []Instruction
	for i := 0; i < full; i++ {
		tail = append(tail, Instruction{Code: OpAny, Aux: ucharMax})
	}
	if rem > 0 {
		tail = append(tail, Instruction{Code: OpAny, Aux: uint8(rem)})
	}

	// Layout: [0]=guard [1]=Choice [2..2+len(tail))=tail
	// [2+len(tail)]=FailTwice [3+len(tail)]=End. Both the guard's own
	// failure and the Choice's backtrack target land on End.
	end := len(tail) + 3
	code := make([]Instruction, 0, len(tail)+4)
	code = append(code, Instruction{Code: OpAny, Aux: ucharMax, Offset: int16(end - 1)})
	code = append(code, Instruction{Code: OpChoice, Offset: int16(end - 2), Aux: ucharMax})
	code = append(code, tail...)
	code = append(code, Instruction{Code: OpFailTwice})
	code = append(code, Instruction{Code: OpEnd})
	return &Pattern{Code: code}
}

// Match compiles a literal byte string to |b| consecutive Char
// instructions. Match(nil) == True.
func Match(b []byte) *Pattern {
	if len(b) == 0 {
		return True()
	}
	code := make([]Instruction, 0, len(b)+1)
	for _, c := range b {
		code = append(code, Instruction{Code: OpChar, Aux: c})
	}
	code = append(code, Instruction{Code: OpEnd})
	return &Pattern{Code: code}
}

// Set returns a pattern matching any single byte present in given. A
// singleton set compiles to a plain Char instruction; larger sets
// compile to a Set instruction plus a charset payload.
func Set(given []byte) *Pattern {
	if len(given) == 1 {
		return Match(given)
	}
	cs := charset.Dense(given...).Optimize()
	p := &Pattern{}
	idx := p.addCharset(cs)
	p.Code = []Instruction{
		{Code: OpSet, CS: int16(idx)},
		{Code: OpEnd},
	}
	return p
}

// Range returns a pattern matching any byte falling in one of the
// closed ranges named by consecutive (lo,hi) pairs in pairs. len(pairs)
// must be even.
func Range(pairs []byte) (*Pattern, error) {
	if len(pairs)%2 != 0 {
		return nil, &CompileError{Err: ErrInvalidRangeLen}
	}
	ranges := make([]charset.Range, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		ranges = append(ranges, charset.Range{Lo: pairs[i], Hi: pairs[i+1]})
	}
	cs := charset.Ranges(ranges...).Optimize()
	p := &Pattern{}
	idx := p.addCharset(cs)
	p.Code = []Instruction{
		{Code: OpSet, CS: int16(idx)},
		{Code: OpEnd},
	}
	return p, nil
}

// Var returns a pattern referencing a not-yet-resolved grammar rule by
// name. The grammar builder resolves every Var's OpenCall to a Call or
// Jmp once the full rule set is known.
func Var(name string) *Pattern {
	p := &Pattern{}
	idx := p.addEnv(EnvValue{Kind: EnvLabel, Label: name})
	p.Code = []Instruction{
		{Code: OpOpenCall, Offset: int16(idx)},
		{Code: OpEnd},
	}
	return p
}
