package pego

import "fmt"

// Opcode identifies which operation an Instruction performs. The set is
// closed: every VM and verifier dispatch is an exhaustive switch over
// these values.
type Opcode uint8

const (
	OpAny Opcode = iota
	OpChar
	OpSet
	OpSpan

	OpRet
	OpEnd
	OpChoice
	OpJmp
	OpCall
	OpOpenCall
	OpCommit
	OpPartialCommit
	OpBackCommit
	OpFailTwice
	OpFail
	OpGiveup

	OpFullCapture
	OpEmptyCapture
	OpEmptyCaptureIdx
	OpOpenCapture
	OpCloseCapture
	OpCloseRunTime

	OpFunc

	opcodeCount
)

func (c Opcode) Meta() *OpMeta {
	if int(c) < len(opMeta) {
		return &opMeta[c]
	}
	return &OpMeta{
		Code:    c,
		Illegal: true,
		Name:    fmt.Sprintf("ILLEGAL#%02x", byte(c)),
	}
}

func (c Opcode) String() string {
	return c.Meta().Name
}

// OpMeta records the closed set of opcode properties named in
// spec.md §3: is-jump, is-check, is-nofail, is-capture, is-movable,
// is-env-offset, has-charset.
type OpMeta struct {
	Code    Opcode
	Illegal bool
	Name    string

	// IsJump is true iff Offset names a relative jump target.
	IsJump bool

	// IsCheck is true iff this instruction can fail the match.
	IsCheck bool

	// IsNoFail is true iff this instruction never fails once reached
	// (e.g. Commit, PartialCommit, BackCommit).
	IsNoFail bool

	// IsCapture is true iff this instruction appends to the capture
	// list rather than moving P or popping/pushing a backtrack frame.
	IsCapture bool

	// IsMovable is true iff the instruction's position in the stream
	// may be swapped with an adjacent, non-dependent instruction
	// without changing semantics.
	IsMovable bool

	// IsEnvOffset is true iff a non-zero Offset addresses the pattern's
	// environment and must be fixed up on concatenation.
	IsEnvOffset bool

	// HasCharset is true iff this instruction's CS field indexes the
	// pattern's charset pool (see instruction.go).
	HasCharset bool
}

var opMeta = [opcodeCount]OpMeta{
	OpAny:              {Code: OpAny, Name: "Any", IsCheck: true},
	OpChar:             {Code: OpChar, Name: "Char", IsCheck: true},
	OpSet:              {Code: OpSet, Name: "Set", IsCheck: true, HasCharset: true},
	OpSpan:             {Code: OpSpan, Name: "Span", IsNoFail: true, HasCharset: true},
	OpRet:              {Code: OpRet, Name: "Ret"},
	OpEnd:              {Code: OpEnd, Name: "End", IsNoFail: true},
	OpChoice:           {Code: OpChoice, Name: "Choice", IsJump: true, IsNoFail: true},
	OpJmp:              {Code: OpJmp, Name: "Jmp", IsJump: true, IsNoFail: true},
	OpCall:             {Code: OpCall, Name: "Call", IsJump: true, IsNoFail: true},
	OpOpenCall:         {Code: OpOpenCall, Name: "OpenCall", IsNoFail: true, IsEnvOffset: true},
	OpCommit:           {Code: OpCommit, Name: "Commit", IsJump: true, IsNoFail: true},
	OpPartialCommit:    {Code: OpPartialCommit, Name: "PartialCommit", IsJump: true, IsNoFail: true},
	OpBackCommit:       {Code: OpBackCommit, Name: "BackCommit", IsJump: true, IsNoFail: true},
	OpFailTwice:        {Code: OpFailTwice, Name: "FailTwice"},
	OpFail:             {Code: OpFail, Name: "Fail"},
	OpGiveup:           {Code: OpGiveup, Name: "Giveup"},
	OpFullCapture:      {Code: OpFullCapture, Name: "FullCapture", IsCapture: true, IsNoFail: true, IsMovable: true, IsEnvOffset: true},
	OpEmptyCapture:     {Code: OpEmptyCapture, Name: "EmptyCapture", IsCapture: true, IsNoFail: true, IsMovable: true},
	OpEmptyCaptureIdx:  {Code: OpEmptyCaptureIdx, Name: "EmptyCaptureIdx", IsCapture: true, IsNoFail: true, IsMovable: true, IsEnvOffset: true},
	OpOpenCapture:      {Code: OpOpenCapture, Name: "OpenCapture", IsCapture: true, IsNoFail: true, IsMovable: true, IsEnvOffset: true},
	OpCloseCapture:     {Code: OpCloseCapture, Name: "CloseCapture", IsCapture: true, IsNoFail: true, IsMovable: true},
	OpCloseRunTime:     {Code: OpCloseRunTime, Name: "CloseRunTime", IsCapture: true, IsCheck: true, IsEnvOffset: true},
	OpFunc:             {Code: OpFunc, Name: "Func", IsCheck: true, IsEnvOffset: true},
}

// CapKind identifies which of the thirteen capture behaviors a capture
// opcode's Aux low nibble names (spec.md §4.4).
type CapKind uint8

const (
	KindSimple CapKind = iota
	KindPosition
	KindConst
	KindArg
	KindBackref
	KindGroup
	KindTable
	KindFunction
	KindQuery
	KindString
	KindSubst
	KindFold
	KindRuntime

	capKindCount
)

var capKindNames = [capKindCount]string{
	KindSimple:   "Simple",
	KindPosition: "Position",
	KindConst:    "Const",
	KindArg:      "Arg",
	KindBackref:  "Backref",
	KindGroup:    "Group",
	KindTable:    "Table",
	KindFunction: "Function",
	KindQuery:    "Query",
	KindString:   "String",
	KindSubst:    "Subst",
	KindFold:     "Fold",
	KindRuntime:  "Runtime",
}

func (k CapKind) String() string {
	if int(k) < len(capKindNames) {
		return capKindNames[k]
	}
	return fmt.Sprintf("CapKind#%02x", byte(k))
}

// packCapAux packs a CapKind and an "offset back from current position"
// nibble (0..MaxOff, used only by FullCapture) into an Aux byte: the
// kind occupies the low nibble, the offset the high nibble, matching
// spec.md §3's "capture kind in low 4 bits and byte-offset from current
// position in high 4 bits" layout.
func packCapAux(kind CapKind, off uint8) uint8 {
	return uint8(kind)&0x0f | (off&0x0f)<<4
}

func unpackCapAux(aux uint8) (kind CapKind, off uint8) {
	return CapKind(aux & 0x0f), (aux >> 4) & 0x0f
}
