package pego

import (
	"fmt"
	"strings"
)

// capTag distinguishes the three capture-list record shapes the engine
// walks (spec.md §4.7).
type capTag uint8

const (
	capOpen capTag = iota
	capClose
	capFull
)

// capAssign is one entry appended to an Execution's capture list by a
// capture opcode. FullCapture records are self-contained (Off encodes
// how far Pos sits past the capture's start); Open/Close records
// bracket a subtree that the engine pairs up by nesting depth, not by
// Idx (spec.md §4.6: "the matching CloseCapture at the same nesting
// depth").
type capAssign struct {
	Tag  capTag
	Kind CapKind
	Idx  int // 1-based env index; 0 means "no env reference"
	Pos  int
	Off  int // only meaningful for capFull

	// Val carries a literal value directly, bypassing env/subject —
	// used only for Runtime-kind captures synthesized live by
	// CloseRunTime (spec.md §4.5).
	Val    any
	hasVal bool
}

// childCapture is one already-reduced sibling produced while walking
// the capture list: its source span and the value(s) it yielded.
type childCapture struct {
	Start, End int
	Values     []any
}

func flattenChildren(children []childCapture) []any {
	var out []any
	for _, c := range children {
		out = append(out, c.Values...)
	}
	return out
}

type namedGroup struct {
	Name   string
	Values []any
}

// engineState threads the inputs and backref bookkeeping a capture
// walk needs (spec.md §4.7).
type engineState struct {
	subject []byte
	env     []EnvValue
	extras  []any

	namedGroups []namedGroup
}

// runCaptureEngine walks a completed capture list top to bottom,
// producing the final flat captures slice a successful match reports.
func runCaptureEngine(ks []capAssign, env []EnvValue, subject []byte, extras []any) ([]any, error) {
	st := &engineState{subject: subject, env: env, extras: extras}
	children, next, err := st.collectSiblings(ks, 0)
	if err != nil {
		return nil, err
	}
	if next != len(ks) {
		return nil, &RuntimeError{Err: errUnbalancedCaptures}
	}
	return flattenChildren(children), nil
}

// collectSiblings walks ks starting at start, reducing each top-level
// entry (a lone FullCapture, or an OpenCapture through its matching
// CloseCapture) into one childCapture, until it meets a CloseCapture
// belonging to an enclosing frame (returned unconsumed) or runs out of
// entries.
func (st *engineState) collectSiblings(ks []capAssign, start int) ([]childCapture, int, error) {
	var children []childCapture
	idx := start
	for idx < len(ks) {
		e := ks[idx]
		switch e.Tag {
		case capClose:
			return children, idx, nil

		case capFull:
			openPos, closePos := e.Pos-e.Off, e.Pos
			if e.Kind == KindRuntime {
				openPos, closePos = e.Pos, e.Pos
			}
			var lit any
			if e.hasVal {
				lit = e.Val
			}
			vals, err := st.combine(e.Kind, e.Idx, openPos, closePos, nil, lit, e.hasVal)
			if err != nil {
				return nil, 0, err
			}
			children = append(children, childCapture{Start: openPos, End: closePos, Values: vals})
			idx++

		case capOpen:
			inner, afterClose, err := st.collectSiblings(ks, idx+1)
			if err != nil {
				return nil, 0, err
			}
			if afterClose >= len(ks) || ks[afterClose].Tag != capClose {
				return nil, 0, &RuntimeError{Err: errUnbalancedCaptures}
			}
			openPos, closePos := e.Pos, ks[afterClose].Pos
			vals, err := st.combine(e.Kind, e.Idx, openPos, closePos, inner, nil, false)
			if err != nil {
				return nil, 0, err
			}
			children = append(children, childCapture{Start: openPos, End: closePos, Values: vals})
			idx = afterClose + 1

		default:
			idx++
		}
	}
	return children, idx, nil
}

// combine reduces one capture subtree (zero-width, or spanning
// [openPos,closePos) with already-reduced children) into the value(s)
// it contributes to its parent, per the precise rules of spec.md §4.4
// and §4.7.
func (st *engineState) combine(kind CapKind, idxEnv int, openPos, closePos int, children []childCapture, lit any, hasLit bool) ([]any, error) {
	switch kind {
	case KindSimple:
		text := string(st.subject[openPos:closePos])
		inner := flattenChildren(children)
		if len(inner) > 0 {
			return append([]any{text}, inner...), nil
		}
		return []any{text}, nil

	case KindTable:
		return []any{flattenChildren(children)}, nil

	case KindGroup:
		values := flattenChildren(children)
		if idxEnv != 0 {
			if len(values) == 0 {
				values = []any{string(st.subject[openPos:closePos])}
			}
			name, _ := st.env[idxEnv-1].Const.(string)
			st.namedGroups = append(st.namedGroups, namedGroup{Name: name, Values: values})
			return nil, nil
		}
		return values, nil

	case KindFunction:
		fn, _ := st.env[idxEnv-1].Const.(FuncCaptureFn)
		v, err := fn(flattenChildren(children))
		if err != nil {
			return nil, &RuntimeError{Err: err}
		}
		return []any{v}, nil

	case KindQuery:
		m, _ := st.env[idxEnv-1].Const.(map[string]any)
		values := flattenChildren(children)
		if len(values) == 0 {
			return nil, nil
		}
		v, ok := m[fmt.Sprint(values[0])]
		if !ok {
			return nil, nil
		}
		return []any{v}, nil

	case KindString:
		format, _ := st.env[idxEnv-1].Const.(string)
		var b strings.Builder
		for i := 0; i < len(format); i++ {
			c := format[i]
			if c != '%' || i+1 >= len(format) {
				b.WriteByte(c)
				continue
			}
			d := format[i+1]
			if d == '%' {
				b.WriteByte('%')
				i++
				continue
			}
			if d < '0' || d > '9' {
				b.WriteByte(c)
				continue
			}
			i++
			k := int(d - '0')
			if k == 0 {
				b.WriteString(string(st.subject[openPos:closePos]))
				continue
			}
			if k-1 >= len(children) {
				return nil, &RuntimeError{Err: ErrInvalidCaptureIdx}
			}
			if vs := children[k-1].Values; len(vs) > 0 {
				b.WriteString(fmt.Sprint(vs[0]))
			}
		}
		return []any{b.String()}, nil

	case KindSubst:
		var b strings.Builder
		cursor := openPos
		for _, c := range children {
			b.Write(st.subject[cursor:c.Start])
			if len(c.Values) > 0 {
				b.WriteString(fmt.Sprint(c.Values[0]))
			} else {
				b.Write(st.subject[c.Start:c.End])
			}
			cursor = c.End
		}
		b.Write(st.subject[cursor:closePos])
		return []any{b.String()}, nil

	case KindFold:
		fn, _ := st.env[idxEnv-1].Const.(FoldCaptureFn)
		values := flattenChildren(children)
		if len(values) == 0 {
			return nil, &RuntimeError{Err: ErrMissingFoldSeed}
		}
		acc := values[0]
		for _, v := range values[1:] {
			nv, err := fn(acc, v)
			if err != nil {
				return nil, &RuntimeError{Err: err}
			}
			acc = nv
		}
		return []any{acc}, nil

	case KindRuntime:
		if hasLit {
			return []any{lit}, nil
		}
		return nil, nil

	case KindPosition:
		return []any{openPos}, nil

	case KindConst:
		return []any{st.env[idxEnv-1].Const}, nil

	case KindArg:
		i, _ := st.env[idxEnv-1].Const.(int)
		if i < 1 || i > len(st.extras) {
			return nil, &RuntimeError{Err: ErrArgOutOfRange}
		}
		return []any{st.extras[i-1]}, nil

	case KindBackref:
		name, _ := st.env[idxEnv-1].Const.(string)
		for i := len(st.namedGroups) - 1; i >= 0; i-- {
			if st.namedGroups[i].Name == name {
				return append([]any{}, st.namedGroups[i].Values...), nil
			}
		}
		return nil, &RuntimeError{Err: ErrBackrefNotFound}

	default:
		return nil, nil
	}
}
