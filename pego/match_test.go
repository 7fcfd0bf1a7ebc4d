package pego

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_FindsFirstOccurrence(t *testing.T) {
	p := Cap(Match([]byte("needle")))
	r, err := Search(p, []byte("hay hay needle stack"), 0)
	require.NoError(t, err)
	assert.True(t, r.Matched)
	assert.Equal(t, []any{"needle"}, r.Captures)
	assert.Equal(t, 14, r.Pos)
}

func TestSearch_NoOccurrenceIsNoMatch(t *testing.T) {
	r, err := Search(Match([]byte("zzz")), []byte("abc"), 0)
	require.NoError(t, err)
	assert.False(t, r.Matched)
}

func TestSearch_HonorsStartOffset(t *testing.T) {
	p := CapPosition()
	r, err := Search(p, []byte("xxxxx"), 3)
	require.NoError(t, err)
	assert.True(t, r.Matched)
	assert.Equal(t, 3, r.Pos)
}

func TestMatch_PassesExtrasThroughToCapArg(t *testing.T) {
	p, err := CapArg(2)
	require.NoError(t, err)
	r, err := p.Match([]byte(""), "first", "second")
	require.NoError(t, err)
	assert.Equal(t, []any{"second"}, r.Captures)
}

func TestCompileError_FormatsRuleName(t *testing.T) {
	err := &CompileError{Err: ErrLeftRecursion, Rule: "S"}
	assert.Contains(t, err.Error(), "S")
	assert.ErrorIs(t, err, ErrLeftRecursion)
}

func TestRuntimeError_FormatsPositionAndCause(t *testing.T) {
	err := &RuntimeError{Err: ErrBackrefNotFound, XP: 5, DP: 2}
	assert.Contains(t, err.Error(), "5")
	assert.Contains(t, err.Error(), "2")
	assert.ErrorIs(t, err, ErrBackrefNotFound)
}

func TestOpcode_StringOfIllegalValue(t *testing.T) {
	assert.Contains(t, Opcode(opcodeCount).String(), "ILLEGAL")
}

func TestCapKind_StringOfKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "Simple", KindSimple.String())
	assert.Contains(t, CapKind(capKindCount).String(), "CapKind#")
}

func TestEnvKind_StringOfKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "Label", EnvLabel.String())
	assert.Contains(t, EnvKind(200).String(), "EnvKind#")
}
