package pego

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by pattern construction, grammar assembly,
// verification, and matching (spec.md §7). Callers distinguish kinds
// with errors.Is.
var (
	ErrPatternTooBig     = errors.New("pego: pattern too big: short offsets cannot address it")
	ErrInvalidRangeLen   = errors.New("pego: range() argument has odd length")
	ErrEmptyGrammar      = errors.New("pego: grammar has zero rules")
	ErrUndefinedStartRule = errors.New("pego: initial rule is not defined in the grammar")
	ErrNonPatternRule    = errors.New("pego: grammar rule value is not a pattern")
	ErrLeftRecursion     = errors.New("pego: left recursion")
	ErrEmptyLoopBody     = errors.New("pego: possible infinite loop: loop body may match the empty string")
	ErrStackOverflow     = errors.New("pego: too many pending calls/choices")
	ErrInvalidCaptureIdx = errors.New("pego: invalid capture index")
	ErrMissingFoldSeed   = errors.New("pego: no initial value for fold capture")
	ErrBackrefNotFound   = errors.New("pego: back reference not found")
	ErrBadRuntimePos     = errors.New("pego: runtime capture returned a position outside [current, end]")
	ErrArgOutOfRange     = errors.New("pego: argument index out of range")

	errOpenCallAtRuntime = errors.New("pego: unresolved OpenCall reached at match time")
	errTooManyCaptures   = errors.New("pego: too many captures")
	errEmptyFrameStack   = errors.New("pego: frame stack exhausted unexpectedly")
	errBadFrameKind      = errors.New("pego: instruction expected a different frame kind on top of stack")
	errUnbalancedCaptures = errors.New("pego: open capture has no matching close")
)

// CompileError reports a failure while building or assembling a
// Pattern: a bad argument, a malformed grammar, or a verifier
// rejection. Err identifies which of the sentinels above applies.
type CompileError struct {
	Err  error
	Rule string
}

func (e *CompileError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("pego: %v: rule %q", e.Err, e.Rule)
	}
	return e.Err.Error()
}

func (e *CompileError) Unwrap() error { return e.Err }

// RuntimeError reports a failure encountered while the parsing VM or
// capture engine is running a compiled program: a VM bug, corrupt
// bytecode, an ill-behaved runtime capture, or a resource limit.
type RuntimeError struct {
	Err error
	XP  int
	DP  int
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("pego: runtime error @ ip %d pos %d: %v", e.XP, e.DP, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }
