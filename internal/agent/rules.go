package agent

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"strings"
	"sync"

	"github.com/lox/llmholdem/internal/game"
	"github.com/lox/llmholdem/poker"
)

// CheckFold checks when free and folds otherwise.
type CheckFold struct{}

func (CheckFold) Decide(_ context.Context, obs Observation) (Decision, error) {
	return checkOrFold(obs, "Not worth the chips."), nil
}

// CallingStation calls everything.
type CallingStation struct{}

func (CallingStation) Decide(_ context.Context, obs Observation) (Decision, error) {
	if obs.ToCall == 0 {
		return Decision{Move: game.CheckMove(), Reasoning: "Free card."}, nil
	}
	return Decision{Move: game.CallMove(), Reasoning: "Never fold."}, nil
}

// Heuristic plays by preflop hand category: it raises premium hands,
// continues with playable ones when the price is small and gives up the rest.
type Heuristic struct{}

func (Heuristic) Decide(_ context.Context, obs Observation) (Decision, error) {
	if len(obs.HoleCards) != 2 {
		return Decision{}, fmt.Errorf("heuristic: want 2 hole cards, got %d", len(obs.HoleCards))
	}
	category := poker.CategorizeHoleCards([2]poker.Card{obs.HoleCards[0], obs.HoleCards[1]})
	cheap := obs.ToCall*5 <= obs.Pot
	reason := fmt.Sprintf("%s hand, %d to call into %d.", category, obs.ToCall, obs.Pot)

	switch category {
	case poker.CategoryPremium:
		return Decision{Move: game.RaiseMove(max(obs.MinRaise, obs.Pot/2)), Reasoning: reason}, nil
	case poker.CategoryStrong, poker.CategoryMedium:
		if obs.ToCall == 0 && obs.Stage == game.StagePreflop && category == poker.CategoryStrong {
			return Decision{Move: game.RaiseMove(obs.MinRaise), Reasoning: reason}, nil
		}
		if obs.ToCall == 0 || cheap || obs.ToCall <= obs.Stack/10 {
			return Decision{Move: game.CallMove(), Reasoning: reason}, nil
		}
	case poker.CategoryWeak:
		if obs.ToCall == 0 || cheap {
			return Decision{Move: game.CallMove(), Reasoning: reason}, nil
		}
	}
	return checkOrFold(obs, reason), nil
}

// Maniac bets when it can and shoves often. Facing a bet it shoves 40% of
// the time, calls 40% and folds the rest.
type Maniac struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewManiac returns a Maniac drawing from rng.
func NewManiac(rng *rand.Rand) *Maniac {
	return &Maniac{rng: rng}
}

func (m *Maniac) Decide(_ context.Context, obs Observation) (Decision, error) {
	m.mu.Lock()
	roll, shove := m.rng.Float64(), m.rng.Float64()
	m.mu.Unlock()

	if obs.Stack <= obs.ToCall {
		return Decision{Move: game.CallMove(), Reasoning: "Pot committed."}, nil
	}
	allIn := game.RaiseMove(obs.Stack - obs.ToCall)

	if obs.ToCall == 0 {
		if roll >= 0.85 {
			return Decision{Move: game.CheckMove(), Reasoning: "Setting a trap."}, nil
		}
		if obs.Stack <= 20*obs.MinRaise || shove < 0.3 {
			return Decision{Move: allIn, Reasoning: "All in. Good luck."}, nil
		}
		bet := max(obs.MinRaise, obs.Pot*3/4)
		return Decision{Move: game.RaiseMove(bet), Reasoning: "Big bet, let's see who's brave."}, nil
	}

	switch {
	case roll < 0.4:
		return Decision{Move: allIn, Reasoning: "Shoving over the top."}, nil
	case roll < 0.8:
		return Decision{Move: game.CallMove(), Reasoning: "I'll see what you've got."}, nil
	}
	return Decision{Move: game.FoldMove(), Reasoning: "Saving it for a bigger pot."}, nil
}

// RuleProvider returns the built-in decision provider called name. rng is
// only used by the randomised styles.
func RuleProvider(name string, rng *rand.Rand) (DecisionProvider, error) {
	switch strings.ToLower(name) {
	case "heuristic", "":
		return Heuristic{}, nil
	case "checkfold":
		return CheckFold{}, nil
	case "calling":
		return CallingStation{}, nil
	case "maniac":
		return NewManiac(rng), nil
	}
	return nil, fmt.Errorf("unknown bot style %q (want one of %s)", name, strings.Join(RuleStyles(), ", "))
}

// RuleStyles lists the names RuleProvider accepts.
func RuleStyles() []string {
	return []string{"calling", "checkfold", "heuristic", "maniac"}
}

// NoAnalysis leaves memory untouched.
type NoAnalysis struct{}

func (NoAnalysis) Analyze(context.Context, HandSummary) (string, error) {
	return "", nil
}
