package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewHidesOpponentCardsDuringHand(t *testing.T) {
	table := NewTestTable(t)
	require.NoError(t, table.StartNewHand())

	v := table.View("P0")
	assert.Equal(t, "PREFLOP", v.Stage)
	assert.Equal(t, "P3", v.Turn)
	assert.Equal(t, 30, v.Pot)
	assert.Equal(t, 40, v.MinRaiseTo)
	assert.Len(t, v.Seats[0].Cards, 2)
	for _, s := range v.Seats[1:] {
		assert.Nil(t, s.Cards, "%s cards leaked", s.Name)
	}
	assert.True(t, v.Seats[3].IsTurn)
	assert.LessOrEqual(t, len(v.Log), SnapshotLogLines)
}

func TestViewRevealsLiveHandsAfterShowdown(t *testing.T) {
	table := NewTestTable(t, WithStacks(1000, 1000, 1000), WithScore(1))
	require.NoError(t, table.StartNewHand())
	act(t, table, CallMove())
	act(t, table, FoldMove())
	act(t, table, CheckMove())
	checkDown(t, table)

	v := table.View("nobody")
	assert.False(t, v.HandActive)
	assert.Len(t, v.Seats[0].Cards, 2)
	assert.Nil(t, v.Seats[1].Cards, "folded hands stay hidden")
	assert.Len(t, v.Seats[2].Cards, 2)
	assert.True(t, v.Seats[0].IsWinner)
	assert.Equal(t, v.Seats[0].Stack-v.Seats[0].BuyInTotal, v.Seats[0].Profit)
}

func TestViewLogIsTail(t *testing.T) {
	table := NewTestTable(t)
	for i := range 20 {
		table.Note("line %d", i)
	}
	v := table.View("P0")
	require.Len(t, v.Log, SnapshotLogLines)
	assert.Equal(t, "line 19", v.Log[SnapshotLogLines-1])
	assert.Len(t, table.RecentLog(100), 20)
}
