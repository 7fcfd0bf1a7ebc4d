package pego

import (
	"fmt"
	"io"
	"strings"
)

// Dump returns a structured, human-readable listing of p's instruction
// vector, environment, and charset pool (spec.md §6, "a dump that
// returns a structured listing of the instruction vector"). It is not
// a stability boundary: its exact text may change between releases.
func Dump(p *Pattern) string {
	var b strings.Builder
	Disassemble(p, &b)
	return b.String()
}

// Disassemble writes p's listing to w, in the teacher's
// literal/matcher/instruction-stream layout, adapted to pego's
// fixed-size Instruction record and out-of-line Env/Charsets pools.
func Disassemble(p *Pattern, w io.Writer) (int, error) {
	var b strings.Builder

	for i, ev := range p.Env {
		fmt.Fprintf(&b, "%%env %d %s", i+1, ev.Kind)
		if ev.Label != "" {
			fmt.Fprintf(&b, " label=%q", ev.Label)
		}
		if ev.Const != nil {
			fmt.Fprintf(&b, " const=%v", ev.Const)
		}
		b.WriteByte('\n')
	}
	for i, cs := range p.Charsets {
		fmt.Fprintf(&b, "%%charset %d %s\n", i, cs.String())
	}
	if len(p.Env) > 0 || len(p.Charsets) > 0 {
		b.WriteByte('\n')
	}

	names := make(map[int]string, len(p.Rules))
	for name, pos := range p.Rules {
		names[pos] = name
	}

	for i, in := range p.Code {
		if name, ok := names[i]; ok {
			fmt.Fprintf(&b, "%s:\n", name)
		}
		fmt.Fprintf(&b, "\t%04d\t", i)
		writeInstruction(&b, i, in)
		b.WriteByte('\n')
	}

	n, err := w.Write([]byte(b.String()))
	return n, err
}

func writeInstruction(b *strings.Builder, pos int, in Instruction) {
	meta := in.Code.Meta()
	b.WriteString(meta.Name)

	switch in.Code {
	case OpAny:
		fmt.Fprintf(b, " %d", in.Aux)
	case OpChar:
		fmt.Fprintf(b, " %s", writeByteLiteral(in.Aux))
	case OpSet, OpSpan:
		fmt.Fprintf(b, " charset(%d)", in.charsetIndex())
	case OpFullCapture, OpEmptyCapture, OpEmptyCaptureIdx, OpOpenCapture:
		kind, off := unpackCapAux(in.Aux)
		fmt.Fprintf(b, " %s", kind)
		if off > 0 {
			fmt.Fprintf(b, " off=%d", off)
		}
		if in.Offset != 0 {
			fmt.Fprintf(b, " env=%d", in.Offset)
		}
	case OpCloseRunTime, OpOpenCall, OpFunc:
		fmt.Fprintf(b, " env=%d", in.Offset)
	}

	if meta.IsJump || (meta.IsCheck && !meta.HasCharset && in.Offset != 0) {
		target := jumpTarget(pos, in)
		fmt.Fprintf(b, " -> %04d", target)
	}
}

func writeByteLiteral(c byte) string {
	if c >= 0x20 && c < 0x7f && c != '\'' && c != '\\' {
		return fmt.Sprintf("'%c'", c)
	}
	return fmt.Sprintf("0x%02x", c)
}
