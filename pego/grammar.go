package pego

import "github.com/chronos-tachyon/pego/charset"

// Rule names one grammar production. Rules are kept as an ordered
// slice rather than a map so that rule layout in the assembled program
// is deterministic (spec.md §4.3).
type Rule struct {
	Name    string
	Pattern *Pattern
}

// Grammar assembles a set of named rules into a single program with a
// Call/Jmp preamble and a per-rule Ret trailer (spec.md §4.3):
//
//	0: Call  -> S
//	1: Jmp   -> End
//	2..: rule0 body; Ret; rule1 body; Ret; ...
//	     End
//
// start names the initial rule; if omitted, the first rule is used.
func Grammar(rules []Rule, start ...string) (*Pattern, error) {
	if len(rules) == 0 {
		return nil, &CompileError{Err: ErrEmptyGrammar}
	}
	startName := rules[0].Name
	if len(start) > 0 {
		startName = start[0]
	}

	// Step 1: copy rule bodies, recording each rule's start offset.
	body := make([]Instruction, 0, 64)
	env := make([]EnvValue, 0, 8)
	charsets := make([]charset.Matcher, 0, 8)
	ruleStart := make(map[string]int, len(rules))

	for _, r := range rules {
		if r.Pattern == nil {
			return nil, &CompileError{Err: ErrNonPatternRule, Rule: r.Name}
		}
		envBase, csBase := len(env), len(charsets)
		ruleStart[r.Name] = len(body) + 2 // +2 for the preamble
		rebased := rebaseCode(r.Pattern.Code, envBase, csBase)
		body = append(body, rebased[:len(rebased)-1]...) // drop trailing End
		body = append(body, Instruction{Code: OpRet})
		env = append(env, r.Pattern.Env...)
		charsets = append(charsets, r.Pattern.Charsets...)
	}
	endPos := len(body) + 2
	body = append(body, Instruction{Code: OpEnd})

	// Step 2: resolve every OpenCall to Call or, if tail-positioned
	// (the next instruction is Ret), to Jmp.
	for i := range body {
		if body[i].Code != OpOpenCall {
			continue
		}
		envIdx := int(body[i].Offset)
		if envIdx <= 0 || envIdx > len(env) {
			continue
		}
		label := env[envIdx-1]
		target, ok := ruleStart[label.Label]
		if !ok {
			return nil, &CompileError{Err: ErrUndefinedStartRule, Rule: label.Label}
		}
		pos := i + 2 // absolute position once preamble is prepended
		if i+1 < len(body) && body[i+1].Code == OpRet {
			body[i] = Instruction{Code: OpJmp, Offset: int16(target - (pos + 1))}
		} else {
			body[i] = Instruction{Code: OpCall, Offset: int16(target - (pos + 1))}
		}
	}

	startOffset, ok := ruleStart[startName]
	if !ok {
		return nil, &CompileError{Err: ErrUndefinedStartRule, Rule: startName}
	}

	code := make([]Instruction, 0, len(body)+2)
	code = append(code, Instruction{Code: OpCall, Offset: int16(startOffset - 1)})
	code = append(code, Instruction{Code: OpJmp, Offset: int16(endPos - 2)})
	code = append(code, body...)

	g := &Pattern{Code: code, Env: env, Charsets: charsets, Rules: ruleStart}

	// Step 3: run checkrule against each rule.
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.Name)
	}
	if err := verifyGrammar(g, names); err != nil {
		return nil, err
	}

	// Step 5: peephole-optimize the assembled whole.
	optimizeJumps(g)
	return g, nil
}

// WithRule returns a pattern that invokes the named rule of an
// already-assembled grammar g, for reuse of one grammar's rules inside
// another pattern (SPEC_FULL.md §6.1).
func WithRule(g *Pattern, name string) (*Pattern, error) {
	target, ok := g.Rules[name]
	if !ok {
		return nil, &CompileError{Err: ErrUndefinedStartRule, Rule: name}
	}
	out := &Pattern{
		Env:      append([]EnvValue{}, g.Env...),
		Charsets: append([]charset.Matcher{}, g.Charsets...),
		Code:     append([]Instruction{}, g.Code...),
	}
	// Retarget the preamble's Call (slot 0) at the named rule.
	out.Code[0].Offset = int16(target - 1)
	return out, nil
}

// verifyGrammar runs the per-rule checkrule pass (empty-loop-body
// detection) and a whole-program left-recursion walk (spec.md §4.6).
func verifyGrammar(g *Pattern, names []string) error {
	for _, name := range names {
		start := g.Rules[name]
		end := ruleEnd(g.Code, start)
		for i := start; i < end; i++ {
			if g.Code[i].Code != OpPartialCommit {
				continue
			}
			target := jumpTarget(i, g.Code[i])
			if target >= i {
				continue // not a back-edge
			}
			if !rangeHasCall(g.Code[target:i]) {
				continue
			}
			if loopBodyMatchesEmpty(g.Code, target, i) {
				return &CompileError{Err: ErrEmptyLoopBody, Rule: name}
			}
		}
	}
	return detectLeftRecursion(g, names)
}

func ruleEnd(code []Instruction, start int) int {
	for i := start; i < len(code); i++ {
		if code[i].Code == OpRet {
			return i
		}
	}
	return len(code)
}

func rangeHasCall(code []Instruction) bool {
	for _, in := range code {
		if in.Code == OpCall {
			return true
		}
	}
	return false
}

// detectLeftRecursion walks every rule from its start, treating checks
// as succeeding, and follows Call targets (and tail calls assembled as
// Jmp to a rule start). If such a call is reached whose target rule is
// already active earlier in the same zero-consumption call chain, that
// is left recursion (spec.md §4.6).
func detectLeftRecursion(g *Pattern, names []string) error {
	ruleOf := make(map[int]string, len(names))
	for _, name := range names {
		ruleOf[g.Rules[name]] = name
	}
	for _, name := range names {
		if err := lrWalk(g.Code, g.Rules[name], map[int]bool{g.Rules[name]: true}, ruleOf, 0); err != nil {
			return err
		}
	}
	return nil
}

func lrWalk(code []Instruction, pos int, active map[int]bool, ruleOf map[int]string, depth int) error {
	for {
		if depth > maxVerifyDepth || pos < 0 || pos >= len(code) {
			return nil
		}
		in := code[pos]
		switch in.Code {
		case OpEnd, OpRet, OpFail, OpFailTwice, OpGiveup:
			return nil

		case OpAny:
			if in.Aux == 0 {
				pos++
				depth++
				continue
			}
			return nil

		case OpChar, OpSet:
			return nil

		case OpSpan:
			pos++
			depth++
			continue

		case OpChoice:
			alt := jumpTarget(pos, in)
			if err := lrWalk(code, alt, active, ruleOf, depth+1); err != nil {
				return err
			}
			pos++
			depth++
			continue

		case OpCall:
			target := jumpTarget(pos, in)
			if active[target] {
				return &CompileError{Err: ErrLeftRecursion, Rule: ruleOf[target]}
			}
			nextActive := make(map[int]bool, len(active)+1)
			for k := range active {
				nextActive[k] = true
			}
			nextActive[target] = true
			if err := lrWalk(code, target, nextActive, ruleOf, depth+1); err != nil {
				return err
			}
			pos++
			depth++
			continue

		case OpJmp, OpCommit, OpPartialCommit, OpBackCommit:
			target := jumpTarget(pos, in)
			if _, isRule := ruleOf[target]; isRule && in.Code == OpJmp {
				if active[target] {
					return &CompileError{Err: ErrLeftRecursion, Rule: ruleOf[target]}
				}
				nextActive := make(map[int]bool, len(active)+1)
				for k := range active {
					nextActive[k] = true
				}
				nextActive[target] = true
				active = nextActive
			}
			pos = target
			depth++
			continue

		case OpOpenCapture, OpCloseCapture, OpEmptyCapture, OpEmptyCaptureIdx, OpFullCapture:
			pos++
			depth++
			continue

		default:
			return nil
		}
	}
}
