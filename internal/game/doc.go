// Package game implements the no-limit Texas Hold'em betting engine used by
// the LLM table.
//
// The main type is Table, a synchronous state machine that owns the seated
// players, the deck for the current hand, the pot and the stage. A hand is
// started with StartNewHand, mutated only through ExecuteMove and
// AdvanceStage, and resolved internally once a single player remains or the
// river betting round completes.
//
// # Basic Usage
//
//	players := []*game.Player{
//	    game.NewPlayer("Human", false, 1000),
//	    game.NewBot("Jack 1", "tight aggressive", 1000),
//	}
//	t, err := game.NewTable(game.DefaultRules(), players)
//	if err != nil {
//	    return err
//	}
//	if err := t.StartNewHand(); err != nil {
//	    return err
//	}
//	_, err = t.ExecuteMove(t.CurrentIdx, game.CallMove(), "")
//
// # Deterministic Testing
//
// Inject a seeded generator or a stacked deck source:
//
//	t, _ := game.NewTable(rules, players, game.WithRNG(randutil.New(42)))
//	t, _ := game.NewTable(rules, players, game.WithDeckSource(func(*rand.Rand) *poker.Deck {
//	    d, _ := poker.NewStackedDeck(cards...)
//	    return d
//	}))
//
// Table is not safe for concurrent use; callers serialize access (see the
// session package).
package game
