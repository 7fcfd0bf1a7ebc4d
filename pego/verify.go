package pego

// maxVerifyDepth bounds the symbolic walk's path length, matching the
// VM's own fixed-depth stack (spec.md §4.6: "same maximum depth as the
// VM").
const maxVerifyDepth = 4096

// matchesEmpty reports whether p can succeed while consuming zero
// bytes of input. It performs the bounded symbolic walk spec.md §4.6
// describes: every check is assumed to succeed, or to take its failure
// offset when it has one (the walk explores
// reachable structural paths, not literal byte matching), and the walk
// asks whether any such path reaches End/Ret having consumed nothing.
func matchesEmpty(p *Pattern) bool {
	return matchesEmptyFrom(p.Code, 0, -1, 0, make(map[int]bool), 0)
}

// loopBodyMatchesEmpty asks the same question restricted to a rule's
// repetition back-edge: starting at the loop body (a rewound
// PartialCommit's target), can execution reach back to backEdge -
// the PartialCommit instruction itself - having consumed zero bytes?
// Used by checkrule (spec.md §4.6).
func loopBodyMatchesEmpty(code []Instruction, bodyStart, backEdge int) bool {
	return matchesEmptyFrom(code, bodyStart, backEdge, 0, make(map[int]bool), 0)
}

// matchesEmptyFrom walks code starting at pos, treating every check as
// succeeding, except that a check carrying a failure offset is followed
// along that offset instead. It reports success (an empty-consuming path exists) when
// it reaches End/Ret, or when stopAt >= 0 and it reaches that position,
// with consumed == 0.
func matchesEmptyFrom(code []Instruction, pos int, stopAt int, consumed int, seen map[int]bool, depth int) bool {
	for {
		if stopAt >= 0 && pos == stopAt {
			return consumed == 0
		}
		if depth > maxVerifyDepth || pos < 0 || pos >= len(code) {
			return false
		}
		in := code[pos]
		switch in.Code {
		case OpEnd, OpRet:
			return consumed == 0

		case OpFail, OpFailTwice, OpGiveup:
			return false

		case OpAny, OpChar, OpSet:
			if in.Code == OpAny && in.Aux == 0 {
				pos++
				depth++
				continue
			}
			if in.Offset != 0 {
				// The check's success path consumes; its failure path
				// jumps to the offset without consuming.
				pos = jumpTarget(pos, in)
				depth++
				continue
			}
			return false

		case OpSpan:
			pos++
			depth++
			continue

		case OpChoice:
			alt := jumpTarget(pos, in)
			if matchesEmptyFrom(code, alt, stopAt, consumed, seen, depth+1) {
				return true
			}
			pos++
			depth++
			continue

		case OpJmp, OpCommit, OpPartialCommit, OpBackCommit, OpCall:
			target := jumpTarget(pos, in)
			if seen[target] {
				return false
			}
			next := make(map[int]bool, len(seen)+1)
			for k := range seen {
				next[k] = true
			}
			next[target] = true
			seen = next
			pos = target
			depth++
			continue

		case OpOpenCapture, OpCloseCapture, OpEmptyCapture, OpEmptyCaptureIdx, OpFullCapture:
			pos++
			depth++
			continue

		case OpCloseRunTime, OpFunc, OpOpenCall:
			// Cannot statically classify; be conservative and assume
			// this path does not prove an empty match.
			return false

		default:
			pos++
			depth++
		}
	}
}
