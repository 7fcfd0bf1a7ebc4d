package pego

import "github.com/chronos-tachyon/pego/charset"

// rebaseCode returns a copy of code with every env-offset-bearing
// instruction's non-zero Offset shifted by envBase (a zero Offset means
// "no environment value" and stays zero) and every charset-bearing
// instruction's Offset shifted by csBase. Jump offsets are left
// untouched because they are relative to their own instruction's
// position and remain correct regardless of where the slice is spliced
// (spec.md §4.2: "shifting every env-offset-bearing instruction ...").
func rebaseCode(code []Instruction, envBase, csBase int) []Instruction {
	out := make([]Instruction, len(code))
	for i, in := range code {
		meta := in.Code.Meta()
		if meta.HasCharset {
			in.CS += int16(csBase)
		}
		if meta.IsEnvOffset && in.Offset != 0 {
			in.Offset += int16(envBase)
		}
		out[i] = in
	}
	return out
}

// concatRaw splices b's program after a's, without End, rebasing b's
// environment and charset references. Neither operand is mutated.
func concatRaw(a, b *Pattern) *Pattern {
	out := &Pattern{}
	out.Env = append(append(out.Env, a.Env...), b.Env...)
	out.Charsets = append(append(out.Charsets, a.Charsets...), b.Charsets...)

	aBody := a.Code[:len(a.Code)-1] // drop trailing End
	bBody := rebaseCode(b.Code, len(a.Env), len(a.Charsets))

	out.Code = make([]Instruction, 0, len(aBody)+len(bBody))
	out.Code = append(out.Code, aBody...)
	out.Code = append(out.Code, bBody...)
	return out
}

func isTruePattern(p *Pattern) bool {
	return len(p.Code) == 1 && p.Code[0].Code == OpEnd
}

func isFailPattern(p *Pattern) bool {
	return len(p.Code) == 2 && p.Code[0].Code == OpFail && p.Code[1].Code == OpEnd
}

// asPureAny reports whether p's entire body is a sequence of Any
// instructions (the form Any() itself builds for n > 0), returning the
// total byte count if so.
func asPureAny(p *Pattern) (int, bool) {
	total := 0
	for _, in := range p.Code {
		switch in.Code {
		case OpAny:
			total += int(in.Aux)
		case OpEnd:
			continue
		default:
			return 0, false
		}
	}
	return total, true
}

// instructionCharset reports the charset in tests, if it is a Char or
// Set instruction; cs resolves Set's out-of-line charset reference.
func instructionCharset(in Instruction, cs []charset.Matcher) (charset.Matcher, bool) {
	switch in.Code {
	case OpChar:
		return charset.Exactly(in.Aux), true
	case OpSet:
		idx := in.charsetIndex()
		if idx < 0 || idx >= len(cs) {
			return nil, false
		}
		return cs[idx], true
	default:
		return nil, false
	}
}

// tocharset reports whether p reduces to a single-byte-test charset:
// either a lone Char or a lone Set instruction, with nothing else in p
// that could fail.
func tocharset(p *Pattern) (charset.Matcher, bool) {
	if len(p.Code) != 2 || p.Code[1].Code != OpEnd {
		return nil, false
	}
	return instructionCharset(p.Code[0], p.Charsets)
}

// headCharset reports the charset p's leading instruction tests, even
// when p carries further instructions of its own that could
// independently fail. Used to prove two head-fail patterns can never
// both claim the same input byte (spec.md §4.2, "disjoint first-sets").
func headCharset(p *Pattern) (charset.Matcher, bool) {
	if len(p.Code) == 0 || p.Code[0].Offset != 0 {
		return nil, false
	}
	return instructionCharset(p.Code[0], p.Charsets)
}

// isHeadFail reports whether p's very first instruction is a check
// that, on failure, dooms the whole pattern — i.e. nothing before it in
// p pushed a backtrack frame that could intercept that failure — and
// whose success leaves nothing else in p that can fail. This is the
// conservative case: p's first instruction is one of the
// match-or-conditionally-fail opcodes with no failure offset of its
// own, and the rest of p is only Span and capture bookkeeping.
func isHeadFail(p *Pattern) bool {
	if len(p.Code) == 0 || p.Code[0].Offset != 0 {
		return false
	}
	switch p.Code[0].Code {
	case OpAny, OpChar, OpSet:
	default:
		return false
	}
	for _, in := range p.Code[1:] {
		switch in.Code {
		case OpSpan, OpEnd, OpFullCapture, OpEmptyCapture, OpEmptyCaptureIdx, OpOpenCapture, OpCloseCapture:
		default:
			return false
		}
	}
	return true
}

// Concat implements PEG sequencing A·B (spec.md §4.2), applying the
// Fail/True shortcut laws and the Any(n1)+Any(n2) fold before falling
// back to raw concatenation.
func Concat(a, b *Pattern) *Pattern {
	if isFailPattern(a) {
		return Fail()
	}
	if isTruePattern(a) {
		return b
	}
	if isTruePattern(b) {
		return a
	}
	if isFailPattern(b) {
		return Fail()
	}
	if n1, ok1 := asPureAny(a); ok1 {
		if n2, ok2 := asPureAny(b); ok2 {
			return Any(n1 + n2)
		}
	}
	out := concatRaw(a, b)
	optimizeCaptures(out)
	return out
}

// choiceGeneral emits the fallback ordered-choice envelope:
// Choice L1; A; Commit L2; L1: B; L2:
func choiceGeneral(a, b *Pattern) *Pattern {
	aBody := a.Code[:len(a.Code)-1]
	bBody := rebaseCode(b.Code, len(a.Env), len(a.Charsets))

	out := &Pattern{}
	out.Env = append(append(out.Env, a.Env...), b.Env...)
	out.Charsets = append(append(out.Charsets, a.Charsets...), b.Charsets...)

	// layout: [0] Choice->L1  [1..1+len(aBody)) aBody  [commit]->L2  L1: bBody  L2: bBody's End
	code := make([]Instruction, 0, len(aBody)+len(bBody)+3)
	code = append(code, Instruction{Code: OpChoice}) // patched below
	choiceIdx := 0
	code = append(code, aBody...)
	commitIdx := len(code)
	code = append(code, Instruction{Code: OpCommit}) // patched below
	l1 := len(code)
	code = append(code, bBody...)
	l2 := len(code) - 1

	code[choiceIdx].Offset = int16(l1 - (choiceIdx + 1))
	code[commitIdx].Offset = int16(l2 - (commitIdx + 1))

	out.Code = code
	optimizeChoice(out)
	return out
}

// Choice implements ordered choice A/B (spec.md §4.2): charset union
// fast path, then check2test (head-fail test-rewrite), justified either
// because A is nothing but its own leading check (tocharset) or because
// A and B's leading checks are provably exclusive (disjoint first-sets,
// so B could never have matched here regardless of how the rest of A
// behaves), then the general Choice envelope as fallback.
func Choice(a, b *Pattern) *Pattern {
	if isFailPattern(a) {
		return b
	}
	if isFailPattern(b) {
		return a
	}
	if isTruePattern(a) {
		return a
	}

	csA, aIsCharset := tocharset(a)
	if aIsCharset {
		if csB, ok := tocharset(b); ok {
			out := &Pattern{}
			idx := out.addCharset(charset.Or(csA, csB).Optimize())
			out.Code = []Instruction{
				{Code: OpSet, CS: int16(idx)},
				{Code: OpEnd},
			}
			return out
		}
		// A is entirely its own leading check: nothing else in A can
		// fail, so check2test is unconditionally sound.
		return headFailChoice(a, b)
	}

	if csA, ok := headCharset(a); ok {
		if csB, ok := headCharset(b); ok && charset.Disjoint(csA, csB) {
			return headFailChoice(a, b)
		}
	}

	return choiceGeneral(a, b)
}

// headFailChoice rewrites A's leading check from hard-fail to a
// forward jump past A into B, avoiding the Choice/Commit envelope
// entirely (spec.md §4.2, "check2test").
func headFailChoice(a, b *Pattern) *Pattern {
	aBody := a.Code[:len(a.Code)-1]
	bBody := rebaseCode(b.Code, len(a.Env), len(a.Charsets))

	out := &Pattern{}
	out.Env = append(append(out.Env, a.Env...), b.Env...)
	out.Charsets = append(append(out.Charsets, a.Charsets...), b.Charsets...)

	// Test(check) -> on success fall through the rest of aBody, then
	// Jmp past B; on failure jump directly into B.
	code := make([]Instruction, 0, len(aBody)+len(bBody)+2)
	code = append(code, aBody...)
	jmpIdx := len(code)
	code = append(code, Instruction{Code: OpJmp})
	l1 := len(code)
	code = append(code, bBody...)
	l2 := len(code) - 1 // bBody's End
	code[jmpIdx].Offset = int16(l2 - (jmpIdx + 1))

	// The first instruction's conditional failure must land at l1
	// instead of entering the ambient fail path; Any/Char/Set encode
	// that as a forward Offset of their own (reusing the jump-style
	// Offset field as the "on check failure, skip here" target).
	code[0].Offset = int16(l1 - 1)

	out.Code = code
	optimizeJumps(out)
	return out
}

// Diff implements A-B: match A where B does not match at the current
// position (spec.md §4.2).
func Diff(a, b *Pattern) *Pattern {
	if csA, ok := tocharset(a); ok {
		if csB, ok := tocharset(b); ok {
			out := &Pattern{}
			idx := out.addCharset(charset.And(csA, charset.Not(csB)).Optimize())
			out.Code = []Instruction{
				{Code: OpSet, CS: int16(idx)},
				{Code: OpEnd},
			}
			return out
		}
	}

	if isHeadFail(b) {
		// B with its check's failure target rewritten to jump past B
		// (over a trailing Fail), followed by A.
		bBody := b.Code[:len(b.Code)-1]
		code := make([]Instruction, len(bBody))
		copy(code, bBody)
		code = append(code, Instruction{Code: OpFail})
		code[0].Offset = int16(len(code) - 1)

		bOnly := &Pattern{Code: append(code, Instruction{Code: OpEnd}), Env: append([]EnvValue{}, b.Env...), Charsets: append([]charset.Matcher{}, b.Charsets...)}
		return Concat(bOnly, a)
	}

	// General: Choice L1; B; FailTwice; L1: A;
	aBody := a.Code[:len(a.Code)-1]
	bBody := b.Code[:len(b.Code)-1]

	out := &Pattern{}
	out.Env = append(append(out.Env, b.Env...), a.Env...)
	out.Charsets = append(append(out.Charsets, b.Charsets...), a.Charsets...)
	rebasedA := rebaseCode(append(aBody, Instruction{Code: OpEnd}), len(b.Env), len(b.Charsets))

	code := make([]Instruction, 0, len(aBody)+len(bBody)+3)
	code = append(code, Instruction{Code: OpChoice})
	code = append(code, bBody...)
	code = append(code, Instruction{Code: OpFailTwice})
	l1 := len(code)
	code = append(code, rebasedA...)
	code[0].Offset = int16(l1 - 1)

	out.Code = code
	optimizeChoice(out)
	return out
}

// Negate implements ¬A ≡ True - A, with Fail/True special cases.
func Negate(a *Pattern) *Pattern {
	if isFailPattern(a) {
		return True()
	}
	if isTruePattern(a) {
		return Fail()
	}
	if cs, ok := tocharset(a); ok {
		// Set(cs) jumps past the Fail when the byte is not in cs (or
		// at end of input), so ¬A succeeds without consuming.
		out := &Pattern{}
		idx := out.addCharset(cs)
		out.Code = []Instruction{
			{Code: OpSet, CS: int16(idx), Offset: 1},
			{Code: OpFail},
			{Code: OpEnd},
		}
		return out
	}
	return Diff(True(), a)
}

// Lookahead implements &A: Choice L1; A; BackCommit L2; L1: Fail; L2:
// For charset A the shorter Set(¬cs); Fail form is emitted, with the
// Set's failure offset landing past the Fail; at end of input that Set
// also fails, so this form succeeds there.
func Lookahead(a *Pattern) *Pattern {
	if cs, ok := tocharset(a); ok {
		out := &Pattern{}
		idx := out.addCharset(charset.Not(cs).Optimize())
		out.Code = []Instruction{
			{Code: OpSet, CS: int16(idx), Offset: 1},
			{Code: OpFail},
			{Code: OpEnd},
		}
		return out
	}

	aBody := a.Code[:len(a.Code)-1]
	out := a.clone()
	code := make([]Instruction, 0, len(aBody)+4)
	code = append(code, Instruction{Code: OpChoice})
	code = append(code, aBody...)
	bcIdx := len(code)
	code = append(code, Instruction{Code: OpBackCommit})
	l1 := len(code)
	code = append(code, Instruction{Code: OpFail})
	l2 := len(code)
	code = append(code, Instruction{Code: OpEnd})

	code[0].Offset = int16(l1 - 1)
	code[bcIdx].Offset = int16(l2 - (bcIdx + 1))

	out.Code = code
	return out
}

// Pow implements repetition A^n (spec.md §4.2): n >= 0 is "at least n",
// n < 0 is "at most |n|". Returns a CompileError wrapping
// ErrEmptyLoopBody if the unbounded tail could match empty input.
func Pow(a *Pattern, n int) (*Pattern, error) {
	if n >= 0 {
		return powAtLeast(a, n)
	}
	return powAtMost(a, -n), nil
}

func powAtLeast(a *Pattern, n int) (*Pattern, error) {
	if cs, ok := tocharset(a); ok {
		out := &Pattern{}
		idx := out.addCharset(cs)
		code := make([]Instruction, 0, n+1)
		for i := 0; i < n; i++ {
			code = append(code, Instruction{Code: OpSet, CS: int16(idx)})
		}
		code = append(code, Instruction{Code: OpSpan, CS: int16(idx)})
		code = append(code, Instruction{Code: OpEnd})
		out.Code = code
		return out, nil
	}

	if err := checkNotNullable(a); err != nil {
		return nil, err
	}

	if isHeadFail(a) {
		// n concatenations, then one more A whose check jumps over a
		// Jmp back to itself — a tight inlined greedy loop.
		acc := True()
		for i := 0; i < n; i++ {
			acc = Concat(acc, a)
		}
		body := a.Code[:len(a.Code)-1]
		code := make([]Instruction, len(body))
		copy(code, body)
		jmpIdx := len(code)
		code = append(code, Instruction{Code: OpJmp, Offset: int16(-(jmpIdx + 1))})
		l1 := len(code)
		code[0].Offset = int16(l1 - 1)
		loop := &Pattern{Code: append(code, Instruction{Code: OpEnd}), Env: append([]EnvValue{}, a.Env...), Charsets: append([]charset.Matcher{}, a.Charsets...)}
		out := Concat(acc, loop)
		optimizeJumps(out)
		optimizeCaptures(out)
		return out, nil
	}

	acc := True()
	for i := 0; i < n; i++ {
		acc = Concat(acc, a)
	}

	aBody := a.Code[:len(a.Code)-1]
	out := &Pattern{}
	code := make([]Instruction, 0, len(aBody)+3)
	code = append(code, Instruction{Code: OpChoice})
	l2 := len(code)
	code = append(code, aBody...)
	pcIdx := len(code)
	code = append(code, Instruction{Code: OpPartialCommit, Offset: int16(l2 - (pcIdx + 1))})
	l1 := len(code)
	code[0].Offset = int16(l1 - 1)
	code = append(code, Instruction{Code: OpEnd})

	loop := &Pattern{Code: code, Env: append([]EnvValue{}, a.Env...), Charsets: append([]charset.Matcher{}, a.Charsets...)}
	out = Concat(acc, loop)
	optimizeJumps(out)
	optimizeCaptures(out)
	return out, nil
}

func powAtMost(a *Pattern, n int) *Pattern {
	if isHeadFail(a) {
		// n concatenations, each's check rewritten to jump past all
		// remaining copies on failure.
		body := a.Code[:len(a.Code)-1]
		out := &Pattern{}
		code := make([]Instruction, 0, n*len(body))
		starts := make([]int, n)
		env := []EnvValue{}
		charsets := []charset.Matcher{}
		for i := 0; i < n; i++ {
			starts[i] = len(code)
			envBase, csBase := len(env), len(charsets)
			code = append(code, rebaseCode(body, envBase, csBase)...)
			env = append(env, a.Env...)
			charsets = append(charsets, a.Charsets...)
		}
		// A no-op Jmp before End keeps the last copy's failure offset
		// non-zero (a zero offset on a check means "fail", not "skip").
		code = append(code, Instruction{Code: OpJmp})
		lEnd := len(code)
		for i := 0; i < n; i++ {
			code[starts[i]].Offset = int16(lEnd - (starts[i] + 1))
		}
		out.Code = append(code, Instruction{Code: OpEnd})
		out.Env = env
		out.Charsets = charsets
		return out
	}

	// Choice L_end; A; PartialCommit 1; … A; PartialCommit 1; L_end:
	// with the final PartialCommit rewritten to Commit.
	out := &Pattern{}
	code := []Instruction{{Code: OpChoice}}
	env := []EnvValue{}
	charsets := []charset.Matcher{}
	for i := 0; i < n; i++ {
		envBase, csBase := len(env), len(charsets)
		body := rebaseCode(a.Code[:len(a.Code)-1], envBase, csBase)
		code = append(code, body...)
		env = append(env, a.Env...)
		charsets = append(charsets, a.Charsets...)
		if i == n-1 {
			code = append(code, Instruction{Code: OpCommit, Offset: 0})
		} else {
			code = append(code, Instruction{Code: OpPartialCommit, Offset: 0})
		}
	}
	lEnd := len(code)
	code[0].Offset = int16(lEnd - 1)
	out.Code = append(code, Instruction{Code: OpEnd})
	out.Env = env
	out.Charsets = charsets
	optimizeChoice(out)
	return out
}

// checkNotNullable returns ErrEmptyLoopBody wrapped in a CompileError
// if a can match the empty string, per the unbounded-repetition
// guard in spec.md §4.2/§4.6.
func checkNotNullable(a *Pattern) error {
	if matchesEmpty(a) {
		return &CompileError{Err: ErrEmptyLoopBody}
	}
	return nil
}
