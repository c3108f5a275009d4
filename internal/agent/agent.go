// Package agent defines the decision and analysis capabilities the table
// consumes, with an LLM-backed implementation and offline rule bots.
package agent

import (
	"context"
	"fmt"

	"github.com/lox/llmholdem/internal/game"
	"github.com/lox/llmholdem/poker"
)

// Observation is everything a bot seat is shown when it is asked to act.
type Observation struct {
	Name      string
	Role      game.Role
	Stage     game.Stage
	HoleCards []poker.Card
	Board     []poker.Card
	Pot       int
	Stack     int
	ToCall    int
	// MinRaise is the smallest increment over the call a raise may add.
	MinRaise  int
	Strategy  string
	RecentLog []string
	Memory    string
}

// Decision is a provider's answer. Reasoning is opaque display text.
type Decision struct {
	Move      game.Move
	Reasoning string
}

// DecisionProvider chooses a move for a bot seat.
type DecisionProvider interface {
	Decide(ctx context.Context, obs Observation) (Decision, error)
}

// HandSummary is the input to post-hand analysis.
type HandSummary struct {
	HandNumber int
	Log        []string
	Winners    []string
	HumanCards string // "Mucked" when the human folded
}

// AnalysisProvider produces a one sentence read on the human's play.
type AnalysisProvider interface {
	Analyze(ctx context.Context, summary HandSummary) (string, error)
}

// Sanitize maps a decision onto the moves that make sense for obs: a check
// while owing becomes a fold, a call with nothing owed becomes a check, and a
// seat with no chips can only check.
func Sanitize(obs Observation, d Decision) Decision {
	switch {
	case obs.Stack == 0:
		d.Move = game.CheckMove()
	case d.Move.Kind == game.Check && obs.ToCall > 0:
		d.Move = game.FoldMove()
	case d.Move.Kind == game.Call && obs.ToCall == 0:
		d.Move = game.CheckMove()
	}
	if d.Move.Kind != game.Raise {
		d.Move.Amount = 0
	}
	return d
}

// Fallback is the deterministic answer used when a provider fails: check if
// free, otherwise fold.
func Fallback(obs Observation, err error) Decision {
	return checkOrFold(obs, fmt.Sprintf("Error: %v", err))
}

func checkOrFold(obs Observation, reasoning string) Decision {
	if obs.ToCall == 0 {
		return Decision{Move: game.CheckMove(), Reasoning: reasoning}
	}
	return Decision{Move: game.FoldMove(), Reasoning: reasoning}
}

// Decide asks p for a decision and always returns a sanitized one. The
// returned error reports a provider failure that was replaced by Fallback.
func Decide(ctx context.Context, p DecisionProvider, obs Observation) (Decision, error) {
	d, err := p.Decide(ctx, obs)
	if err != nil {
		return Fallback(obs, err), err
	}
	return Sanitize(obs, d), nil
}
