package game

import (
	"fmt"
	"io"
	"math/rand/v2"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/lox/llmholdem/internal/randutil"
	"github.com/lox/llmholdem/poker"
)

type testTableConfig struct {
	rules     Rules
	stacks    []int
	humanSeat int
	seed      int64
	deck      []poker.Card
	evaluator Evaluator
}

// TestTableOption configures NewTestTable.
type TestTableOption func(*testTableConfig)

// WithSeed shuffles decks with a fixed seed.
func WithSeed(seed int64) TestTableOption {
	return func(c *testTableConfig) { c.seed = seed }
}

// WithStacks seats one player per stack, named P0, P1, ...
func WithStacks(stacks ...int) TestTableOption {
	return func(c *testTableConfig) { c.stacks = stacks }
}

// WithHumanSeat makes seat i the human; -1 for an all-bot table.
func WithHumanSeat(i int) TestTableOption {
	return func(c *testTableConfig) { c.humanSeat = i }
}

// WithBlinds overrides the blinds.
func WithBlinds(sb, bb int) TestTableOption {
	return func(c *testTableConfig) {
		c.rules.SmallBlind = sb
		c.rules.BigBlind = bb
	}
}

// WithRules edits the rules in place.
func WithRules(edit func(*Rules)) TestTableOption {
	return func(c *testTableConfig) { edit(&c.rules) }
}

// WithDeck stacks every hand's deck with the given cards on top.
func WithDeck(cards string) TestTableOption {
	return func(c *testTableConfig) { c.deck = poker.MustParseCards(cards) }
}

// WithScore makes every showdown hand score the same.
func WithScore(score int) TestTableOption {
	return func(c *testTableConfig) {
		c.evaluator = scoreFunc(func([5]poker.Card, [2]poker.Card) (int, error) { return score, nil })
	}
}

// WithScores scores a hand by its first hole card.
func WithScores(byFirstCard map[string]int) TestTableOption {
	return func(c *testTableConfig) {
		c.evaluator = scoreFunc(func(_ [5]poker.Card, hole [2]poker.Card) (int, error) {
			s, ok := byFirstCard[hole[0].String()]
			if !ok {
				return 0, fmt.Errorf("no score for %s", hole[0])
			}
			return s, nil
		})
	}
}

type scoreFunc func(board [5]poker.Card, hole [2]poker.Card) (int, error)

func (f scoreFunc) Rank(board [5]poker.Card, hole [2]poker.Card) (int, error) { return f(board, hole) }

// NewTestTable builds a table with quiet logging. Defaults: four 1000 chip
// seats, human in seat 0, 10/20 blinds, seed 1.
func NewTestTable(t *testing.T, opts ...TestTableOption) *Table {
	t.Helper()
	cfg := &testTableConfig{
		rules:  DefaultRules(),
		stacks: []int{1000, 1000, 1000, 1000},
		seed:   1,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	players := make([]*Player, len(cfg.stacks))
	for i, stack := range cfg.stacks {
		players[i] = NewPlayer(fmt.Sprintf("P%d", i), i != cfg.humanSeat, stack)
	}

	tableOpts := []Option{
		WithLogger(log.New(io.Discard)),
		WithRNG(randutil.New(cfg.seed)),
	}
	if cfg.deck != nil {
		top := cfg.deck
		tableOpts = append(tableOpts, WithDeckSource(func(*rand.Rand) *poker.Deck {
			d, err := poker.NewStackedDeck(top...)
			require.NoError(t, err)
			return d
		}))
	}
	if cfg.evaluator != nil {
		tableOpts = append(tableOpts, WithEvaluator(cfg.evaluator))
	}

	table, err := NewTable(cfg.rules, players, tableOpts...)
	require.NoError(t, err)
	return table
}

// act applies a move for whoever is to act and checks the table afterwards.
func act(t *testing.T, table *Table, move Move) Move {
	t.Helper()
	applied, err := table.ExecuteMove(table.CurrentIdx, move, "")
	require.NoError(t, err)
	requireHealthy(t, table)
	return applied
}

// requireHealthy asserts chip conservation and turn legality.
func requireHealthy(t *testing.T, table *Table) {
	t.Helper()
	require.NoError(t, table.ValidateChipConservation())
	if table.HandActive && table.CurrentIdx >= 0 {
		require.True(t, table.Players[table.CurrentIdx].CanAct(), "seat %d cannot act", table.CurrentIdx)
	}
}

// eventRecorder collects published events.
type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) OnEvent(e Event) { r.events = append(r.events, e) }

func (r *eventRecorder) handEnds() []HandEndEvent {
	var out []HandEndEvent
	for _, e := range r.events {
		if he, ok := e.(HandEndEvent); ok {
			out = append(out, he)
		}
	}
	return out
}
