package poker

import (
	"fmt"
	"math"

	pheval "github.com/paulhankin/poker"
)

// WorstScore is the score assigned to a hand that could not be evaluated.
const WorstScore = math.MaxInt32

// HandEvaluator ranks seven-card hands. Lower scores are stronger.
type HandEvaluator struct{}

// NewHandEvaluator returns an evaluator backed by precomputed seven-card tables.
func NewHandEvaluator() *HandEvaluator {
	return &HandEvaluator{}
}

// Rank scores the best five-card hand from board and hole. Lower is stronger.
func (e *HandEvaluator) Rank(board [5]Card, hole [2]Card) (int, error) {
	seven, err := toSeven(board, hole)
	if err != nil {
		return WorstScore, err
	}
	// Eval7 is higher-is-better; invert so the strongest hand has the smallest score.
	return math.MaxInt16 - int(pheval.Eval7(&seven)), nil
}

// Describe names the best hand, e.g. "pair of kings".
func (e *HandEvaluator) Describe(board [5]Card, hole [2]Card) (string, error) {
	seven, err := toSeven(board, hole)
	if err != nil {
		return "", err
	}
	return pheval.Describe(seven[:])
}

func toSeven(board [5]Card, hole [2]Card) ([7]pheval.Card, error) {
	var out [7]pheval.Card
	all := [7]Card{board[0], board[1], board[2], board[3], board[4], hole[0], hole[1]}
	seen := uint64(0)
	for i, c := range all {
		if !c.Valid() {
			return out, fmt.Errorf("card %d invalid", i)
		}
		if seen&uint64(c) != 0 {
			return out, fmt.Errorf("duplicate card %s", c)
		}
		seen |= uint64(c)
		pc, err := pheval.MakeCard(pheval.Suit(c.Suit()), pheval.Rank(externalRank(c.Rank())))
		if err != nil {
			return out, fmt.Errorf("convert %s: %w", c, err)
		}
		out[i] = pc
	}
	return out, nil
}

// externalRank maps Two..Ace (0-12) to the evaluator's Ace-low numbering (Ace=1, King=13).
func externalRank(r uint8) uint8 {
	if r == Ace {
		return 1
	}
	return r + 2
}
