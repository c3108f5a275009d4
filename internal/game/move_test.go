package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionKind(t *testing.T) {
	tests := map[string]ActionKind{
		"fold":    Fold,
		" CHECK ": Check,
		"Call":    Call,
		"raise":   Raise,
		"BET":     Raise,
	}
	for in, want := range tests {
		got, err := ParseActionKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseActionKind("shove")
	assert.Error(t, err)
}

func TestMoveString(t *testing.T) {
	assert.Equal(t, "RAISE 40", RaiseMove(40).String())
	assert.Equal(t, "CHECK", CheckMove().String())
	assert.Equal(t, "ActionKind(7)", ActionKind(7).String())
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "PREFLOP", StagePreflop.String())
	assert.Equal(t, "GAME_OVER", StageGameOver.String())
	assert.True(t, StageRiver.IsBetting())
	assert.False(t, StageShowdown.IsBetting())
}

func TestRulesValidate(t *testing.T) {
	require.NoError(t, DefaultRules().Validate())

	bad := DefaultRules()
	bad.BigBlind = 5
	assert.Error(t, bad.Validate())

	bad = DefaultRules()
	bad.RebuyAmount = 0
	assert.Error(t, bad.Validate())

	_, err := NewTable(bad, nil)
	assert.Error(t, err)
}
