package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkDown(t *testing.T, table *Table) {
	t.Helper()
	for table.HandActive {
		act(t, table, CheckMove())
	}
}

// Scenario C: a tied pot of 101 pays 51 to the winner first left of the
// dealer and 50 to the other.
func TestTiedPotRemainderGoesLeftOfDealer(t *testing.T) {
	table := NewTestTable(t, WithStacks(1000, 1000, 1000), WithBlinds(1, 2), WithScore(50))
	rec := &eventRecorder{}
	table.Events().Subscribe(rec)
	require.NoError(t, table.StartNewHand())

	act(t, table, RaiseMove(48)) // dealer raises to 50
	act(t, table, FoldMove())    // small blind forfeits 1
	act(t, table, CallMove())    // big blind calls to 50
	require.Equal(t, 101, table.Pot)
	require.Equal(t, StageFlop, table.Stage)

	checkDown(t, table)

	assert.Equal(t, []string{"P2", "P0"}, table.Winners)
	assert.Equal(t, 1000-50+51, table.Players[2].Stack)
	assert.Equal(t, 1000-50+50, table.Players[0].Stack)
	assert.Equal(t, 999, table.Players[1].Stack)
	requireHealthy(t, table)

	ends := rec.handEnds()
	require.Len(t, ends, 1)
	assert.True(t, ends[0].Showdown)
	assert.Equal(t, []WinnerInfo{{Name: "P2", Amount: 51}, {Name: "P0", Amount: 50}}, ends[0].Winners)
}

func TestShowdownLowestScoreWins(t *testing.T) {
	// Deal order: seat 0 gets As Ah, seat 1 Ks Kh, seat 2 Qs Qh.
	table := NewTestTable(t,
		WithStacks(1000, 1000, 1000),
		WithDeck("As Ah Ks Kh Qs Qh 2c 3c 4c 7d 9h"),
		WithScores(map[string]int{"As": 300, "Ks": 10, "Qs": 200}),
	)
	require.NoError(t, table.StartNewHand())
	act(t, table, CallMove())
	act(t, table, CallMove())
	act(t, table, CheckMove())
	checkDown(t, table)

	assert.Equal(t, []string{"P1"}, table.Winners, "lower score is stronger")
	assert.Equal(t, 1040, table.Players[1].Stack)
	assert.Equal(t, 980, table.Players[0].Stack)
	assert.Equal(t, 980, table.Players[2].Stack)
}

func TestShowdownIgnoresFoldedHands(t *testing.T) {
	table := NewTestTable(t,
		WithStacks(1000, 1000, 1000),
		WithDeck("As Ah Ks Kh Qs Qh"),
		WithScores(map[string]int{"As": 1, "Ks": 10, "Qs": 20}),
	)
	require.NoError(t, table.StartNewHand())
	act(t, table, FoldMove()) // seat 0 would have won
	act(t, table, CallMove())
	act(t, table, CheckMove())
	checkDown(t, table)

	assert.Equal(t, []string{"P1"}, table.Winners)
}

func TestEvaluatorErrorScoresWorst(t *testing.T) {
	// Seat 1's first card has no score, so evaluation fails for it.
	table := NewTestTable(t,
		WithStacks(1000, 1000),
		WithDeck("As Ah Ks Kh"),
		WithScores(map[string]int{"As": 5000}),
	)
	require.NoError(t, table.StartNewHand())
	act(t, table, CallMove())
	checkDown(t, table)
	assert.Equal(t, []string{"P0"}, table.Winners)
}

func TestRealEvaluatorShowdown(t *testing.T) {
	// Board 2c 7d 9h Js 4c: seat 0 makes trip jacks, seat 1 a pair of aces.
	table := NewTestTable(t,
		WithStacks(1000, 1000),
		WithDeck("Jh Jd As Ad 2c 7d 9h Js 4c"),
	)
	require.NoError(t, table.StartNewHand())
	act(t, table, CallMove())
	checkDown(t, table)

	require.Equal(t, []string{"P0"}, table.Winners)
	res := table.LastResult()
	require.NotNil(t, res)
	assert.Equal(t, []string{"2c", "7d", "9h", "Js", "4c"}, res.Board)
	assert.NotEmpty(t, res.Winners[0].Hand)
	assert.Equal(t, "Jh Jd", res.HumanCards)
	assert.False(t, res.HumanFoldedPreflop)
}

func TestSplitPot(t *testing.T) {
	tests := []struct {
		pot  int
		n    int
		want []int
	}{
		{101, 2, []int{51, 50}},
		{100, 2, []int{50, 50}},
		{100, 3, []int{34, 33, 33}},
		{5, 4, []int{2, 1, 1, 1}},
		{30, 1, []int{30}},
		{10, 0, nil},
	}
	for _, tt := range tests {
		got := splitPot(tt.pot, tt.n)
		assert.Equal(t, tt.want, got, "pot %d / %d", tt.pot, tt.n)
		sum := 0
		for _, s := range got {
			sum += s
		}
		if tt.n > 0 {
			assert.Equal(t, tt.pot, sum)
		}
	}
}

func TestOrderFromDealer(t *testing.T) {
	table := NewTestTable(t, WithStacks(1000, 1000, 1000, 1000, 1000))
	table.DealerPos = 2
	seats := []int{0, 1, 3, 4}
	table.orderFromDealer(seats)
	assert.Equal(t, []int{3, 4, 0, 1}, seats)
}
