package pego

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushCS_OverflowsAtMaxDepth(t *testing.T) {
	x := NewExecution(True(), nil)
	for i := 0; i < maxVMDepth; i++ {
		require.NoError(t, x.pushCS(frame{isChoice: true, target: 0}))
	}
	err := x.pushCS(frame{isChoice: true, target: 0})
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, re.Err, ErrStackOverflow)
	assert.Equal(t, ErrorState, x.R)
}

func TestPushCap_OverflowsAtMaxCaptures(t *testing.T) {
	x := NewExecution(True(), nil)
	for i := 0; i < maxCaptures; i++ {
		require.NoError(t, x.pushCap(capAssign{Tag: capFull}))
	}
	err := x.pushCap(capAssign{Tag: capFull})
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, re.Err, errTooManyCaptures)
}

func TestFail_PopsToNearestChoiceFrame(t *testing.T) {
	x := NewExecution(True(), []byte("abcdef"))
	x.S = 4
	require.NoError(t, x.pushCap(capAssign{Tag: capFull}))
	require.NoError(t, x.pushCS(frame{isChoice: false, target: 99}))
	require.NoError(t, x.pushCS(frame{isChoice: true, target: 7, pos: 1, capTop: 1}))

	x.fail()

	assert.Equal(t, 1, x.S)
	assert.Equal(t, 7, x.XP)
	assert.Len(t, x.KS, 1)
	assert.Len(t, x.CS, 1) // the earlier call frame is left untouched
}

func TestFail_ExhaustsToFailureState(t *testing.T) {
	x := NewExecution(True(), []byte("abc"))
	x.fail()
	assert.Equal(t, FailureState, x.R)
	assert.Nil(t, x.KS)
}

func TestStep_RejectsUnbalancedFrameKind(t *testing.T) {
	// Commit expects a choice frame on top; a call frame there is a bug.
	x := NewExecution(Match([]byte("x")), []byte("x"))
	require.NoError(t, x.pushCS(frame{isChoice: false, target: 0}))
	x.P = &Pattern{Code: []Instruction{{Code: OpCommit, Offset: 0}, {Code: OpEnd}}}
	x.XP = 0

	err := x.Step()
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, re.Err, errBadFrameKind)
	assert.Equal(t, ErrorState, x.R)
}

// property 12: optimizeJumps/optimizeChoice/optimizeCaptures are
// idempotent — applying them twice matches applying them once.
func TestOptimizePasses_Idempotent(t *testing.T) {
	sigma := Diff(Any(1), Set([]byte("()")))
	body, err := Pow(Choice(Cap(Match([]byte("x"))), sigma), 0)
	require.NoError(t, err)
	p := Concat(Concat(Match([]byte("(")), body), Match([]byte(")")))

	a := p.clone()
	optimizeJumps(a)
	optimizeChoice(a)
	optimizeCaptures(a)

	b := a.clone()
	optimizeJumps(b)
	optimizeChoice(b)
	optimizeCaptures(b)

	assert.Equal(t, a.Code, b.Code)
}

// Grammar assembly's own final optimizeJumps pass is idempotent too.
func TestGrammarOptimize_Idempotent(t *testing.T) {
	g, err := Grammar([]Rule{
		{Name: "S", Pattern: Concat(Match([]byte("a")), Var("S"))},
	})
	// left-recursion guard should not fire: S consumes "a" before
	// recursing, so this assembles fine... but a right recursion with
	// no base case can never match a finite input, so keep this purely
	// a static idempotence check on the assembled code.
	require.NoError(t, err)

	before := append([]Instruction{}, g.Code...)
	optimizeJumps(g)
	assert.Equal(t, before, g.Code)
}
