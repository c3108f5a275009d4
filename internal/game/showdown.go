package game

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/lox/llmholdem/poker"
)

// resolve pays the pot to the best remaining hand(s) and ends the hand.
func (t *Table) resolve() {
	t.CurrentIdx = -1
	t.awaitingRunout = false
	candidates := t.nonFolded()
	pot := t.Pot

	winners := candidates
	descriptions := make(map[int]string)
	showdown := len(candidates) > 1
	if showdown {
		winners, descriptions = t.bestHands(candidates)
	}
	t.orderFromDealer(winners)

	shares := splitPot(pot, len(winners))
	infos := make([]WinnerInfo, len(winners))
	t.Winners = make([]string, len(winners))
	for i, seat := range winners {
		p := t.Players[seat]
		p.Stack += shares[i]
		infos[i] = WinnerInfo{Name: p.Name, Amount: shares[i], Hand: descriptions[seat]}
		t.Winners[i] = p.Name
		if infos[i].Hand != "" {
			t.logf("%s wins %d with %s", p.Name, shares[i], infos[i].Hand)
		} else {
			t.logf("%s wins %d", p.Name, shares[i])
		}
	}
	t.Pot = 0
	t.HandActive = false
	t.Stage = StageShowdown

	t.DealerPos = t.seatAfter(t.DealerPos)
	t.dealerPlaced = true

	t.logger.Info("Hand complete", "hand", t.HandID, "pot", pot, "winners", strings.Join(t.Winners, ","), "showdown", showdown)

	result := HandEndEvent{
		HandID:             t.HandID,
		HandNumber:         t.HandNumber,
		Winners:            infos,
		Pot:                pot,
		Board:              cardStrings(t.Board),
		Showdown:           showdown,
		HumanCards:         t.humanCards(),
		HumanFoldedPreflop: t.humanFoldedPreflop,
		Log:                t.HandLog(),
		timestamp:          time.Now(),
	}
	t.lastResult = &result
	t.bus.Publish(result)
}

// bestHands scores each candidate and returns those with the lowest score.
// A hand the evaluator rejects scores worst.
func (t *Table) bestHands(candidates []int) ([]int, map[int]string) {
	var board [5]poker.Card
	copy(board[:], t.Board)
	describer, _ := t.evaluator.(Describer)

	best := math.MaxInt
	var winners []int
	descriptions := make(map[int]string, len(candidates))
	for _, seat := range candidates {
		p := t.Players[seat]
		hole := [2]poker.Card{}
		copy(hole[:], p.HoleCards)

		score, err := t.evaluator.Rank(board, hole)
		if err != nil {
			t.logger.Warn("Hand evaluation failed", "player", p.Name, "error", err)
			score = math.MaxInt
		}
		if describer != nil && err == nil {
			if desc, derr := describer.Describe(board, hole); derr == nil {
				descriptions[seat] = desc
			}
		}
		t.logf("%s shows %s", p.Name, poker.FormatCards(p.HoleCards))

		switch {
		case score < best:
			best = score
			winners = []int{seat}
		case score == best:
			winners = append(winners, seat)
		}
	}
	return winners, descriptions
}

// orderFromDealer sorts seats clockwise starting left of the dealer.
func (t *Table) orderFromDealer(seats []int) {
	n := len(t.Players)
	slices.SortFunc(seats, func(a, b int) int {
		return (a-t.DealerPos-1+n)%n - (b-t.DealerPos-1+n)%n
	})
}

// splitPot divides pot into n shares. Odd chips go one each to the first
// shares, which belong to the winners closest to the dealer's left.
func splitPot(pot, n int) []int {
	if n == 0 {
		return nil
	}
	shares := make([]int, n)
	base, rem := pot/n, pot%n
	for i := range shares {
		shares[i] = base
		if i < rem {
			shares[i]++
		}
	}
	return shares
}

func (t *Table) humanCards() string {
	h := t.Human()
	if h == nil {
		return ""
	}
	if h.Folded {
		return "Mucked"
	}
	return poker.FormatCards(h.HoleCards)
}
