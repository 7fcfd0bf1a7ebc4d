package pego

// maxVMDepth bounds the backtrack/return stack, matching the
// verifier's own bound (spec.md §4.5/§4.6: "same maximum depth as the
// VM").
const maxVMDepth = 4096

// maxCaptures is the soft cap on capture-list growth (spec.md §4.5:
// "the capture vector doubles on demand up to a soft cap; exhaustion is
// reported as too many captures").
const maxCaptures = 1 << 20

// ExecutionState records whether an Execution has terminated, and why.
type ExecutionState uint8

const (
	// RunningState means the Execution has not terminated.
	RunningState ExecutionState = iota

	// SuccessState means matching finished and the input was matched.
	SuccessState

	// FailureState means matching finished without a match.
	FailureState

	// ErrorState means matching halted abnormally (a VM bug, a
	// resource limit, or an ill-behaved runtime capture).
	ErrorState
)

// frame is one entry of the VM's backtrack/return stack (spec.md
// §4.5). A return frame (pushed by Call) only uses target, the address
// to resume at on Ret. A backtrack frame (pushed by Choice) additionally
// records the input position and capture-list height to restore.
type frame struct {
	isChoice bool
	target   int
	pos      int
	capTop   int
}

// Execution is the state of one in-progress match (spec.md §4.5).
// Two concurrent matches must use distinct Executions.
type Execution struct {
	P *Pattern

	// I is the subject bytestring.
	I []byte

	// Extras are the caller-supplied arguments CapArg indexes into.
	Extras []any

	// O and E are the subject's start and end bounds.
	O, E int

	// S is the current input position.
	S int

	// XP is the index into P.Code of the instruction to execute next.
	XP int

	KS []capAssign
	CS []frame

	R ExecutionState
}

// NewExecution prepares a fresh match of p against subject, with the
// given extra arguments available to CapArg.
func NewExecution(p *Pattern, subject []byte, extras ...any) *Execution {
	return &Execution{
		P:      p,
		I:      subject,
		Extras: extras,
		O:      0,
		E:      len(subject),
		S:      0,
		XP:     0,
		R:      RunningState,
	}
}

func (x *Execution) popCS() (frame, bool) {
	if len(x.CS) == 0 {
		return frame{}, false
	}
	i := len(x.CS) - 1
	fr := x.CS[i]
	x.CS = x.CS[:i]
	return fr, true
}

func (x *Execution) pushCS(fr frame) error {
	if len(x.CS) >= maxVMDepth {
		return x.rtErr(ErrStackOverflow)
	}
	x.CS = append(x.CS, fr)
	return nil
}

// fail pops frames until a backtrack frame is found, restoring its
// position and capture height; if the stack is exhausted first, the
// match fails globally (spec.md §4.5, "Fail/fail path").
func (x *Execution) fail() {
	for {
		fr, ok := x.popCS()
		if !ok {
			x.R = FailureState
			x.KS = nil
			return
		}
		if fr.isChoice {
			x.S = fr.pos
			x.KS = x.KS[:fr.capTop]
			x.XP = fr.target
			return
		}
	}
}

func (x *Execution) pushCap(c capAssign) error {
	if len(x.KS) >= maxCaptures {
		return x.rtErr(errTooManyCaptures)
	}
	x.KS = append(x.KS, c)
	return nil
}

func (x *Execution) rtErr(err error) error {
	x.R = ErrorState
	x.KS = nil
	if re, ok := err.(*RuntimeError); ok {
		return re
	}
	return &RuntimeError{Err: err, XP: x.XP, DP: x.S}
}

// Step executes the single instruction at XP.
func (x *Execution) Step() error {
	if x.R != RunningState {
		return &RuntimeError{Err: errOpenCallAtRuntime, XP: x.XP, DP: x.S}
	}
	if x.XP < 0 || x.XP >= len(x.P.Code) {
		return x.rtErr(errEmptyFrameStack)
	}

	pos := x.XP
	in := x.P.Code[pos]
	x.XP++

	switch in.Code {
	case OpEnd:
		x.R = SuccessState

	case OpGiveup:
		x.R = FailureState
		x.KS = nil

	case OpFail:
		x.fail()

	case OpFailTwice:
		fr, ok := x.popCS()
		if !ok {
			return x.rtErr(errEmptyFrameStack)
		}
		if !fr.isChoice {
			return x.rtErr(errBadFrameKind)
		}
		x.fail()

	case OpAny:
		n := int(in.Aux)
		if x.E-x.S >= n {
			x.S += n
		} else if in.Offset != 0 {
			x.XP = jumpTarget(pos, in)
		} else {
			x.fail()
		}

	case OpChar:
		if x.S < x.E && x.I[x.S] == in.Aux {
			x.S++
		} else if in.Offset != 0 {
			x.XP = jumpTarget(pos, in)
		} else {
			x.fail()
		}

	case OpSet:
		idx := in.charsetIndex()
		if idx < 0 || idx >= len(x.P.Charsets) {
			return x.rtErr(errEmptyFrameStack)
		}
		if x.S < x.E && x.P.Charsets[idx].Match(x.I[x.S]) {
			x.S++
		} else if in.Offset != 0 {
			x.XP = jumpTarget(pos, in)
		} else {
			x.fail()
		}

	case OpSpan:
		idx := in.charsetIndex()
		if idx < 0 || idx >= len(x.P.Charsets) {
			return x.rtErr(errEmptyFrameStack)
		}
		m := x.P.Charsets[idx]
		for x.S < x.E && m.Match(x.I[x.S]) {
			x.S++
		}

	case OpChoice:
		if err := x.pushCS(frame{
			isChoice: true,
			target:   jumpTarget(pos, in),
			pos:      x.S - int(in.Aux),
			capTop:   len(x.KS),
		}); err != nil {
			return err
		}

	case OpCommit:
		fr, ok := x.popCS()
		if !ok {
			return x.rtErr(errEmptyFrameStack)
		}
		if !fr.isChoice {
			return x.rtErr(errBadFrameKind)
		}
		x.XP = jumpTarget(pos, in)

	case OpPartialCommit:
		fr, ok := x.popCS()
		if !ok {
			return x.rtErr(errEmptyFrameStack)
		}
		if !fr.isChoice {
			return x.rtErr(errBadFrameKind)
		}
		fr.pos = x.S
		fr.capTop = len(x.KS)
		if err := x.pushCS(fr); err != nil {
			return err
		}
		x.XP = jumpTarget(pos, in)

	case OpBackCommit:
		fr, ok := x.popCS()
		if !ok {
			return x.rtErr(errEmptyFrameStack)
		}
		if !fr.isChoice {
			return x.rtErr(errBadFrameKind)
		}
		x.S = fr.pos
		x.XP = jumpTarget(pos, in)

	case OpJmp:
		x.XP = jumpTarget(pos, in)

	case OpCall:
		if err := x.pushCS(frame{isChoice: false, target: x.XP}); err != nil {
			return err
		}
		x.XP = jumpTarget(pos, in)

	case OpRet:
		fr, ok := x.popCS()
		if !ok {
			return x.rtErr(errEmptyFrameStack)
		}
		if fr.isChoice {
			return x.rtErr(errBadFrameKind)
		}
		x.XP = fr.target

	case OpOpenCall:
		return x.rtErr(errOpenCallAtRuntime)

	case OpFullCapture:
		kind, off := unpackCapAux(in.Aux)
		if err := x.pushCap(capAssign{Tag: capFull, Kind: kind, Idx: int(in.Offset), Pos: x.S, Off: int(off)}); err != nil {
			return err
		}

	case OpEmptyCapture:
		kind, _ := unpackCapAux(in.Aux)
		if err := x.pushCap(capAssign{Tag: capFull, Kind: kind, Pos: x.S}); err != nil {
			return err
		}

	case OpEmptyCaptureIdx:
		kind, _ := unpackCapAux(in.Aux)
		if err := x.pushCap(capAssign{Tag: capFull, Kind: kind, Idx: int(in.Offset), Pos: x.S}); err != nil {
			return err
		}

	case OpOpenCapture:
		kind, _ := unpackCapAux(in.Aux)
		if err := x.pushCap(capAssign{Tag: capOpen, Kind: kind, Idx: int(in.Offset), Pos: x.S}); err != nil {
			return err
		}

	case OpCloseCapture:
		if err := x.pushCap(capAssign{Tag: capClose, Pos: x.S}); err != nil {
			return err
		}

	case OpCloseRunTime:
		if err := x.stepCloseRunTime(in); err != nil {
			return err
		}

	case OpFunc:
		return x.rtErr(errOpenCallAtRuntime)

	default:
		return x.rtErr(errOpenCallAtRuntime)
	}
	return nil
}

// stepCloseRunTime finds the OpenCapture this CloseRunTime closes,
// reduces the entries between them into the inner-captures tuple, and
// invokes the callable, applying whichever of the four return shapes
// it reports (spec.md §4.5).
func (x *Execution) stepCloseRunTime(in Instruction) error {
	idx := int(in.Offset)
	if idx <= 0 || idx > len(x.P.Env) {
		return x.rtErr(errEmptyFrameStack)
	}
	fn, _ := x.P.Env[idx-1].Const.(RuntimeCaptureFn)
	if fn == nil {
		return x.rtErr(errOpenCallAtRuntime)
	}

	openIdx := -1
	depth := 0
	for i := len(x.KS) - 1; i >= 0; i-- {
		switch x.KS[i].Tag {
		case capClose:
			depth++
		case capOpen:
			if depth == 0 {
				openIdx = i
			} else {
				depth--
			}
		}
		if openIdx >= 0 {
			break
		}
	}
	if openIdx < 0 {
		return x.rtErr(errUnbalancedCaptures)
	}

	st := &engineState{subject: x.I, env: x.P.Env, extras: x.Extras}
	children, next, err := st.collectSiblings(x.KS, openIdx+1)
	if err != nil {
		return x.rtErr(err)
	}
	if next != len(x.KS) {
		return x.rtErr(errUnbalancedCaptures)
	}
	inner := flattenChildren(children)

	res, err := fn(x.I, x.S, inner)
	if err != nil {
		return x.rtErr(err)
	}

	x.KS = x.KS[:openIdx]

	if res.Veto {
		x.fail()
		return nil
	}
	if !res.Accept {
		newS := x.O + res.Pos
		if newS < x.S || newS > x.E {
			return x.rtErr(ErrBadRuntimePos)
		}
		x.S = newS
	}
	for _, extra := range res.Extra {
		if err := x.pushCap(capAssign{Tag: capFull, Kind: KindRuntime, Pos: x.S, Val: extra, hasVal: true}); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the program to completion.
func (x *Execution) Run() error {
	for x.R == RunningState {
		if err := x.Step(); err != nil {
			return err
		}
	}
	return nil
}
