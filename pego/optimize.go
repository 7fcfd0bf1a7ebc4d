package pego

// isJumpLike reports whether in's Offset names a relative target this
// pass must keep in sync: either a true control-flow jump, or a
// conditional-test forward offset on a check instruction (Any/Char/Set
// encode "skip to here on failure" the same way).
func isJumpLike(in Instruction) bool {
	meta := in.Code.Meta()
	switch in.Code {
	case OpAny, OpChar, OpSet:
		return in.Offset != 0
	}
	return meta.IsJump
}

// optimizeJumps collapses any Jmp whose target is itself a Jmp into a
// single jump to the final destination, iterated to a fixed point
// (spec.md §4.2).
func optimizeJumps(p *Pattern) {
	code := p.Code
	for {
		changed := false
		for i, in := range code {
			if in.Code != OpJmp {
				continue
			}
			t := jumpTarget(i, in)
			if t < 0 || t >= len(code) || code[t].Code != OpJmp {
				continue
			}
			final := jumpTarget(t, code[t])
			if final == t {
				continue // self-jump; leave alone rather than loop forever
			}
			code[i].Offset = int16(final - (i + 1))
			changed = true
		}
		if !changed {
			break
		}
	}
}

// removeAt deletes the instruction at index i from code, retargeting
// every jump-like instruction in the result so it still names the same
// logical destination (the successor of i, if anything pointed at i
// itself).
func removeAt(code []Instruction, i int) []Instruction {
	n := len(code)
	absTarget := make([]int, n)
	for j, in := range code {
		if isJumpLike(in) {
			absTarget[j] = jumpTarget(j, in)
		}
	}
	mapIndex := func(old int) int {
		switch {
		case old < i:
			return old
		case old == i:
			return i
		default:
			return old - 1
		}
	}

	out := make([]Instruction, 0, n-1)
	for j, in := range code {
		if j == i {
			continue
		}
		out = append(out, in)
	}
	for j := range out {
		oldJ := j
		if j >= i {
			oldJ = j + 1
		}
		if isJumpLike(out[j]) {
			newTarget := mapIndex(absTarget[oldJ])
			out[j].Offset = int16(newTarget - (j + 1))
		}
	}
	return out
}

// optimizeChoice detects the idiom "Choice L; <check>; L:" — a
// backtrack frame guarding a single check whose own failure path
// already resumes exactly where the Choice's alternative would — and
// removes the now-redundant Choice (spec.md §4.2).
func optimizeChoice(p *Pattern) {
	for i := 0; i < len(p.Code); i++ {
		if p.Code[i].Code != OpChoice {
			continue
		}
		if i+1 >= len(p.Code) {
			continue
		}
		next := p.Code[i+1]
		meta := next.Code.Meta()
		if !meta.IsCheck || meta.HasCharset {
			continue
		}
		target := jumpTarget(i, p.Code[i])
		if target != i+2 {
			continue
		}
		p.Code[i+1].Offset = 0
		p.Code = removeAt(p.Code, i)
		i-- // re-examine the slot that now holds what followed
	}
}

// optimizeCaptures collapses an OpenCapture ... CloseCapture pair that
// encloses a statically-bounded span of at most MaxOff bytes of pure
// checks into a single FullCapture(kind, off, idx) (spec.md §4.2/§4.4).
func optimizeCaptures(p *Pattern) {
	for i := 0; i < len(p.Code); i++ {
		if p.Code[i].Code != OpOpenCapture {
			continue
		}
		depth := 0
		close := -1
		for j := i + 1; j < len(p.Code); j++ {
			switch p.Code[j].Code {
			case OpOpenCapture:
				depth++
			case OpCloseCapture:
				if depth == 0 {
					close = j
				} else {
					depth--
				}
			}
			if close >= 0 {
				break
			}
		}
		if close < 0 {
			continue
		}
		span := close - (i + 1)
		n, pure := skipchecksLen(p.Code[i+1 : close])
		if !pure || n > MaxOff || span != n {
			continue
		}
		kind, _ := unpackCapAux(p.Code[i].Aux)
		idx := p.Code[i].Offset
		full := Instruction{Code: OpFullCapture, Aux: packCapAux(kind, uint8(n)), Offset: idx}
		newCode := make([]Instruction, 0, len(p.Code)-2)
		newCode = append(newCode, p.Code[:i]...)
		newCode = append(newCode, p.Code[i+1:close]...)
		newCode = append(newCode, full)
		newCode = append(newCode, p.Code[close+1:]...)
		p.Code = fixupAfterCaptureFold(p.Code, newCode, i, close)
	}
}

// skipchecksLen reports whether code consists entirely of fixed-length
// check instructions with no jumps, and if so the total number of
// bytes those checks consume.
func skipchecksLen(code []Instruction) (int, bool) {
	total := 0
	for _, in := range code {
		meta := in.Code.Meta()
		if !meta.IsCheck || meta.IsJump {
			return 0, false
		}
		switch in.Code {
		case OpAny:
			total += int(in.Aux)
		case OpChar:
			total++
		case OpSet:
			total++
		default:
			return 0, false
		}
	}
	return total, true
}

// fixupAfterCaptureFold retargets jump-like instructions in the whole
// pattern after OpenCapture at i / CloseCapture at close (two slots,
// neither jump-like) collapsed into one FullCapture slot.
//
// newCode was built as oldCode[:i] ++ oldCode[i+1:close] ++ [full] ++
// oldCode[close+1:], so a newCode index maps back to an oldCode index
// by adding 1 (inside the folded span) or 2 (after it); any old target
// that pointed into the folded span now collapses to the FullCapture
// slot itself.
func fixupAfterCaptureFold(oldCode, newCode []Instruction, i, close int) []Instruction {
	n := len(oldCode)
	absTarget := make([]int, n)
	for j, in := range oldCode {
		if isJumpLike(in) {
			absTarget[j] = jumpTarget(j, in)
		}
	}
	fullIdx := close - 1 // new index of the synthesized FullCapture
	mapIndex := func(old int) int {
		switch {
		case old < i:
			return old
		case old >= i && old <= close:
			return fullIdx
		default:
			return old - 2
		}
	}
	for j := range newCode {
		var oldJ int
		switch {
		case j < i:
			oldJ = j
		case j < fullIdx:
			oldJ = j + 1
		case j == fullIdx:
			continue // synthesized instruction, never jump-like
		default:
			oldJ = j + 2
		}
		if isJumpLike(newCode[j]) {
			newTarget := mapIndex(absTarget[oldJ])
			newCode[j].Offset = int16(newTarget - (j + 1))
		}
	}
	return newCode
}
