package pego

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digits() *Pattern {
	p, err := Range([]byte("09"))
	if err != nil {
		panic(err)
	}
	return p
}

// property 6: cap_p followed by anything yields the byte index at that
// point.
func TestCapPosition_YieldsIndexAtPoint(t *testing.T) {
	p := Concat(CapPosition(), Any(3))
	r, err := p.Match([]byte("abcdef"))
	require.NoError(t, err)
	assert.True(t, r.Matched)
	assert.Equal(t, []any{0}, r.Captures)
	assert.Equal(t, 3, r.Pos)
}

// property 7: nested Simple captures prepend the whole match.
func TestCap_NestedSimplePrependsWholeMatch(t *testing.T) {
	p := Cap(Concat(Match([]byte("ab")), Cap(Match([]byte("cd")))))
	r, err := p.Match([]byte("abcd"))
	require.NoError(t, err)
	assert.True(t, r.Matched)
	assert.Equal(t, []any{"abcd", "cd"}, r.Captures)
	assert.Equal(t, 4, r.Pos)
}

func TestCap_NoInnerCapturesIsBareText(t *testing.T) {
	p := Cap(Match([]byte("xyz")))
	r, err := p.Match([]byte("xyzw"))
	require.NoError(t, err)
	assert.Equal(t, []any{"xyz"}, r.Captures)
}

// E3: cap(range("09")^1)
func TestCap_DigitRun(t *testing.T) {
	rep, err := Pow(digits(), 1)
	require.NoError(t, err)
	p := Cap(rep)
	r, err := p.Match([]byte("12345abc"))
	require.NoError(t, err)
	assert.True(t, r.Matched)
	assert.Equal(t, 5, r.Pos)
	assert.Equal(t, []any{"12345"}, r.Captures)
}

func TestCapTable_WrapsInnerValues(t *testing.T) {
	p := CapTable(Concat(CapConst("a"), CapConst("b")))
	r, err := p.Match([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{"a", "b"}}, r.Captures)
}

func TestCapConst_YieldsLiteral(t *testing.T) {
	p := CapConst(42)
	r, err := p.Match([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, []any{42}, r.Captures)
}

func TestCapArg_YieldsExtraByIndex(t *testing.T) {
	p, err := CapArg(1)
	require.NoError(t, err)
	r, err := p.Match([]byte(""), "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, []any{"hello"}, r.Captures)
}

func TestCapArg_RejectsNonPositive(t *testing.T) {
	_, err := CapArg(0)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, ce.Err, ErrArgOutOfRange)
}

func TestCapArg_OutOfRangeAtRuntime(t *testing.T) {
	p, err := CapArg(2)
	require.NoError(t, err)
	_, err = p.Match([]byte(""), "only-one")
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, re.Err, ErrArgOutOfRange)
}

// E6: cap_g(match("x"), "g") . any(1) . cap_b("g")
func TestCapGroupAndBackref(t *testing.T) {
	p := Concat(Concat(CapGroup(Match([]byte("x")), "g"), Any(1)), CapBackref("g"))
	r, err := p.Match([]byte("xyz"))
	require.NoError(t, err)
	assert.True(t, r.Matched)
	assert.Equal(t, []any{"x"}, r.Captures)
}

func TestCapGroup_UnnamedFlowsToParent(t *testing.T) {
	p := Cap(CapGroup(Concat(CapConst("a"), CapConst("b"))))
	r, err := p.Match([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, []any{"", "a", "b"}, r.Captures)
}

func TestCapBackref_NotFoundErrors(t *testing.T) {
	_, err := CapBackref("nope").Match([]byte(""))
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, re.Err, ErrBackrefNotFound)
}

func TestCapFunction_CallsWithInnerValues(t *testing.T) {
	p := CapFunction(Concat(CapConst(1), CapConst(2)), func(values []any) (any, error) {
		sum := 0
		for _, v := range values {
			sum += v.(int)
		}
		return sum, nil
	})
	r, err := p.Match([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, []any{3}, r.Captures)
}

func TestCapFunction_PropagatesCallbackError(t *testing.T) {
	boom := fmt.Errorf("boom")
	p := CapFunction(True(), func(values []any) (any, error) {
		return nil, boom
	})
	_, err := p.Match([]byte(""))
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, re.Err, boom)
}

func TestCapQuery_LooksUpFirstValue(t *testing.T) {
	m := map[string]any{"a": 1, "b": 2}
	p := CapQuery(CapConst("b"), m)
	r, err := p.Match([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, []any{2}, r.Captures)
}

func TestCapQuery_MissingYieldsNothing(t *testing.T) {
	p := CapQuery(CapConst("z"), map[string]any{"a": 1})
	r, err := p.Match([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, r.Captures)
}

func TestCapString_SubstitutesFormat(t *testing.T) {
	p := CapString(Concat(Cap(Match([]byte("ab"))), Cap(Match([]byte("cd")))), "%1-%2 (%0) %%")
	r, err := p.Match([]byte("abcd"))
	require.NoError(t, err)
	assert.Equal(t, []any{"ab-cd (abcd) %"}, r.Captures)
}

func TestCapString_InvalidIndexErrors(t *testing.T) {
	p := CapString(Cap(Match([]byte("a"))), "%9")
	_, err := p.Match([]byte("a"))
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, re.Err, ErrInvalidCaptureIdx)
}

// E4: cap_s((match("a") / cap(any(1)) / match(""))^0)
func TestCapSubst_ReproducesVerbatimWhenNoSubstitution(t *testing.T) {
	inner := Choice(Choice(Match([]byte("a")), Cap(Any(1))), True())
	rep, err := Pow(inner, 0)
	require.NoError(t, err)
	p := CapSubst(rep)
	r, err := p.Match([]byte("abc"))
	require.NoError(t, err)
	assert.True(t, r.Matched)
	assert.Equal(t, []any{"abc"}, r.Captures)
}

func TestCapFold_LeftFoldsOverInnerValues(t *testing.T) {
	seq := Concat(Concat(CapConst(1), CapConst(2)), CapConst(3))
	p := CapFold(seq, func(acc, v any) (any, error) {
		return acc.(int) + v.(int), nil
	})
	r, err := p.Match([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, []any{6}, r.Captures)
}

func TestCapFold_MissingSeedErrors(t *testing.T) {
	p := CapFold(True(), func(acc, v any) (any, error) { return v, nil })
	_, err := p.Match([]byte(""))
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, re.Err, ErrMissingFoldSeed)
}

func TestCapRuntime_AcceptPassesThroughInner(t *testing.T) {
	p := CapRuntime(Cap(Match([]byte("ab"))), func(subject []byte, pos int, inner []any) (RuntimeResult, error) {
		assert.Equal(t, []any{"ab"}, inner)
		assert.Equal(t, 2, pos)
		return RuntimeResult{Accept: true}, nil
	})
	r, err := p.Match([]byte("abc"))
	require.NoError(t, err)
	assert.True(t, r.Matched)
	assert.Equal(t, 2, r.Pos)
}

func TestCapRuntime_VetoFailsMatch(t *testing.T) {
	p := CapRuntime(Match([]byte("ab")), func(subject []byte, pos int, inner []any) (RuntimeResult, error) {
		return RuntimeResult{Veto: true}, nil
	})
	r, err := p.Match([]byte("ab"))
	require.NoError(t, err)
	assert.False(t, r.Matched)
}

func TestCapRuntime_RepositionsMatch(t *testing.T) {
	p := CapRuntime(Match([]byte("ab")), func(subject []byte, pos int, inner []any) (RuntimeResult, error) {
		return RuntimeResult{Pos: 3}, nil
	})
	r, err := p.Match([]byte("abc"))
	require.NoError(t, err)
	assert.True(t, r.Matched)
	assert.Equal(t, 3, r.Pos)
}

func TestCapRuntime_InjectsExtraCaptures(t *testing.T) {
	p := CapRuntime(Match([]byte("ab")), func(subject []byte, pos int, inner []any) (RuntimeResult, error) {
		return RuntimeResult{Accept: true, Extra: []any{"extra1", "extra2"}}, nil
	})
	r, err := p.Match([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, []any{"extra1", "extra2"}, r.Captures)
}

func TestCapRuntime_BadRepositionErrors(t *testing.T) {
	p := CapRuntime(Match([]byte("ab")), func(subject []byte, pos int, inner []any) (RuntimeResult, error) {
		return RuntimeResult{Pos: 99}, nil
	})
	_, err := p.Match([]byte("ab"))
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, re.Err, ErrBadRuntimePos)
}
