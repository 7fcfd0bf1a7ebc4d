package pego

import "github.com/chronos-tachyon/pego/charset"

// wrapCapture implements the shared capture-constructor rule (spec.md
// §4.4): if p's body is entirely checks and statically bounded by
// MaxOff, fold into a single FullCapture; otherwise bracket p with
// OpenCapture/CloseCapture and run optimizeCaptures, which performs
// exactly that fold whenever it later becomes possible (e.g. once
// surrounding Concat calls have pruned dead jumps).
func wrapCapture(kind CapKind, idxEnv int, p *Pattern) *Pattern {
	body := p.Code[:len(p.Code)-1]
	if n, pure := skipchecksLen(body); pure && n <= MaxOff {
		out := p.clone()
		out.Code[len(out.Code)-1] = Instruction{Code: OpFullCapture, Aux: packCapAux(kind, uint8(n)), Offset: int16(idxEnv)}
		out.Code = append(out.Code, Instruction{Code: OpEnd})
		return out
	}

	out := &Pattern{
		Env:      append([]EnvValue{}, p.Env...),
		Charsets: append([]charset.Matcher{}, p.Charsets...),
	}
	code := make([]Instruction, 0, len(body)+3)
	code = append(code, Instruction{Code: OpOpenCapture, Aux: packCapAux(kind, 0), Offset: int16(idxEnv)})
	code = append(code, body...)
	code = append(code, Instruction{Code: OpCloseCapture})
	code = append(code, Instruction{Code: OpEnd})
	out.Code = code
	optimizeCaptures(out)
	return out
}

// zeroWidthCapture builds a standalone, non-wrapping capture: Position,
// Const, Arg, and Backref all append exactly one capture-list entry at
// the current position without consuming input or bracketing a
// sub-pattern.
func zeroWidthCapture(kind CapKind, idxEnv int) *Pattern {
	code := Instruction{Code: OpEmptyCapture, Aux: packCapAux(kind, 0)}
	if idxEnv != 0 {
		code.Code = OpEmptyCaptureIdx
		code.Offset = int16(idxEnv)
	}
	return &Pattern{Code: []Instruction{code, {Code: OpEnd}}}
}

// Cap wraps p with a Simple capture: the matched substring, or (if p
// contains nested captures) the whole match prepended to their values.
func Cap(p *Pattern) *Pattern {
	return wrapCapture(KindSimple, 0, p)
}

// CapTable wraps p with a Table capture: a sequence container of its
// inner values.
func CapTable(p *Pattern) *Pattern {
	return wrapCapture(KindTable, 0, p)
}

// CapSubst wraps p with a Subst capture: the matched text with every
// inner capture's text replaced by its captured string form.
func CapSubst(p *Pattern) *Pattern {
	return wrapCapture(KindSubst, 0, p)
}

// CapPosition yields the byte index at the capture point, consuming no
// input.
func CapPosition() *Pattern {
	return zeroWidthCapture(KindPosition, 0)
}

// CapConst yields the literal value v whenever the surrounding pattern
// reaches this point.
func CapConst(v any) *Pattern {
	p := zeroWidthCapture(KindConst, 0)
	idx := p.addEnv(EnvValue{Kind: EnvConst, Const: v})
	p.Code[0].Code = OpEmptyCaptureIdx
	p.Code[0].Offset = int16(idx)
	return p
}

// CapArg yields the i-th extra argument passed to the match call. i is
// 1-based; i <= 0 is rejected with ErrArgOutOfRange (spec.md §9's
// indexing-convention open question, resolved 1-based — see
// DESIGN.md).
func CapArg(i int) (*Pattern, error) {
	if i <= 0 {
		return nil, &CompileError{Err: ErrArgOutOfRange}
	}
	p := zeroWidthCapture(KindArg, 0)
	idx := p.addEnv(EnvValue{Kind: EnvConst, Const: i})
	p.Code[0].Code = OpEmptyCaptureIdx
	p.Code[0].Offset = int16(idx)
	return p, nil
}

// CapBackref yields the value(s) of the nearest enclosing Group(name)
// closed before this point in the capture list.
func CapBackref(name string) *Pattern {
	p := zeroWidthCapture(KindBackref, 0)
	idx := p.addEnv(EnvValue{Kind: EnvConst, Const: name})
	p.Code[0].Code = OpEmptyCaptureIdx
	p.Code[0].Offset = int16(idx)
	return p
}

// CapGroup wraps p with a Group capture. An unnamed group's inner
// values flow directly into the enclosing capture; a named group
// instead produces nothing directly and is consumed only by a matching
// CapBackref.
func CapGroup(p *Pattern, name ...string) *Pattern {
	clone := p.clone()
	idx := 0
	if len(name) > 0 && name[0] != "" {
		idx = clone.addEnv(EnvValue{Kind: EnvConst, Const: name[0]})
	}
	return wrapCapture(KindGroup, idx, clone)
}

// CapFunction wraps p with a Function capture: fn(inner_values...).
func CapFunction(p *Pattern, fn FuncCaptureFn) *Pattern {
	clone := p.clone()
	idx := clone.addEnv(EnvValue{Kind: EnvCallable, Const: fn})
	return wrapCapture(KindFunction, idx, clone)
}

// CapQuery wraps p with a Query capture: m[first_inner_value], or
// nothing if absent.
func CapQuery(p *Pattern, m map[string]any) *Pattern {
	clone := p.clone()
	idx := clone.addEnv(EnvValue{Kind: EnvMapping, Const: m})
	return wrapCapture(KindQuery, idx, clone)
}

// CapString wraps p with a String capture: fmt with each %k replaced by
// the k-th inner string-fragment (0 denotes the whole match).
func CapString(p *Pattern, format string) *Pattern {
	clone := p.clone()
	idx := clone.addEnv(EnvValue{Kind: EnvConst, Const: format})
	return wrapCapture(KindString, idx, clone)
}

// CapFold wraps p with a Fold capture: a left fold fn(acc, v) over
// inner values, seeded by the first inner value.
func CapFold(p *Pattern, fn FoldCaptureFn) *Pattern {
	clone := p.clone()
	idx := clone.addEnv(EnvValue{Kind: EnvCallable, Const: fn})
	return wrapCapture(KindFold, idx, clone)
}

// CapRuntime wraps p with a Runtime capture: fn is invoked during
// matching and may veto, reposition, or inject captures (spec.md
// §4.5/§9). Like the other wrapping kinds, p's body is bracketed by
// OpenCapture/CloseRunTime so the engine can gather p's own captures as
// the "inner" tuple fn receives.
func CapRuntime(p *Pattern, fn RuntimeCaptureFn) *Pattern {
	clone := p.clone()
	idx := clone.addEnv(EnvValue{Kind: EnvCallable, Const: fn})
	body := clone.Code[:len(clone.Code)-1]
	code := make([]Instruction, 0, len(body)+3)
	code = append(code, Instruction{Code: OpOpenCapture, Aux: packCapAux(KindRuntime, 0)})
	code = append(code, body...)
	code = append(code, Instruction{Code: OpCloseRunTime, Offset: int16(idx)})
	code = append(code, Instruction{Code: OpEnd})
	clone.Code = code
	return clone
}
