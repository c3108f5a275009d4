package game

import (
	"fmt"
	"time"

	"github.com/lox/llmholdem/internal/gameid"
	"github.com/lox/llmholdem/poker"
)

// StartNewHand rebuys busted bots, rotates the button, deals and posts blinds.
func (t *Table) StartNewHand() error {
	if t.HandActive {
		return ErrHandInProgress
	}
	t.handLog = nil
	t.Winners = nil

	for _, p := range t.Players {
		if p.Stack > 0 || (!p.IsBot && !t.rules.AutoRebuyHuman) {
			continue
		}
		p.credit(t.rules.RebuyAmount)
		t.logf("%s rebuys for %d", p.Name, t.rules.RebuyAmount)
		t.logger.Info("Auto rebuy", "player", p.Name, "amount", t.rules.RebuyAmount)
	}
	if h := t.Human(); h != nil && h.Stack == 0 {
		t.Stage = StageGameOver
		t.logf("GAME OVER: %s is out of chips", h.Name)
		t.logger.Info("Game over", "player", h.Name)
		return ErrGameOver
	}

	t.HandNumber++
	t.HandID = gameid.New()
	t.HandActive = true
	t.Stage = StagePreflop
	t.Pot = 0
	t.HighBet = 0
	t.Board = nil
	t.CurrentIdx = -1
	t.moveSeq = 0
	t.lastFullRaise = t.rules.BigBlind
	t.awaitingRunout = false
	t.humanFoldedPreflop = false
	t.deck = t.newDeck(t.rng)

	for _, p := range t.Players {
		p.resetForHand()
		p.HoleCards = t.draw(2)
	}

	if t.dealerPlaced {
		t.dealerPlaced = false
	} else {
		t.DealerPos = t.seatAfter(t.DealerPos)
	}
	sb, bb := t.blindSeats()
	t.Players[t.DealerPos].Role = RoleDealer
	t.Players[sb].Role = RoleSmallBlind
	if sb == t.DealerPos {
		t.Players[sb].Role = RoleDealerSmallBlind
	}
	t.Players[bb].Role = RoleBigBlind

	t.logf("--- Hand #%d (dealer %s) ---", t.HandNumber, t.Players[t.DealerPos].Name)
	t.logger.Info("Hand started", "hand", t.HandID, "number", t.HandNumber, "dealer", t.Players[t.DealerPos].Name)

	names := make([]string, len(t.Players))
	for i, p := range t.Players {
		names[i] = p.Name
	}
	t.bus.Publish(HandStartEvent{
		HandID:     t.HandID,
		HandNumber: t.HandNumber,
		Dealer:     t.Players[t.DealerPos].Name,
		Players:    names,
		SmallBlind: t.rules.SmallBlind,
		BigBlind:   t.rules.BigBlind,
		timestamp:  time.Now(),
	})

	t.postBlind(sb, t.rules.SmallBlind, "SB")
	t.postBlind(bb, t.rules.BigBlind, "BB")

	t.continueRound(bb)
	return nil
}

// blindSeats returns the small and big blind seats. Heads-up the dealer
// posts the small blind.
func (t *Table) blindSeats() (sb, bb int) {
	if len(t.Players) == 2 {
		return t.DealerPos, t.seatAfter(t.DealerPos)
	}
	sb = t.seatAfter(t.DealerPos)
	return sb, t.seatAfter(sb)
}

func (t *Table) postBlind(seat, amount int, label string) {
	p := t.Players[seat]
	actual := t.postBet(seat, amount)
	p.LastAction = fmt.Sprintf("%s %d", label, actual)
	t.logf("%s posts %s %d", p.Name, label, actual)
}

// postBet moves up to amount from the seat's stack into the pot and returns
// the chips actually moved. Raising the high bet reopens action for everyone
// else still able to act.
func (t *Table) postBet(seat, amount int) int {
	p := t.Players[seat]
	actual := min(p.Stack, max(0, amount))
	p.Stack -= actual
	p.CurrentBet += actual
	p.Committed += actual
	t.Pot += actual
	if p.Stack == 0 {
		p.AllIn = true
	}
	if p.CurrentBet > t.HighBet {
		t.HighBet = p.CurrentBet
		for i, other := range t.Players {
			if i != seat && other.CanAct() {
				other.HasActed = false
			}
		}
	}
	return actual
}

// ExecuteMove applies move for seat, which must be the seat to act. Illegal
// moves are normalized; the move actually applied is returned.
func (t *Table) ExecuteMove(seat int, move Move, reasoning string) (Move, error) {
	if !t.HandActive {
		return move, ErrNoHandInProgress
	}
	if seat != t.CurrentIdx || t.Current() == nil {
		return move, fmt.Errorf("seat %d acted, waiting on seat %d: %w", seat, t.CurrentIdx, ErrNotYourTurn)
	}
	p := t.Players[seat]
	applied := t.normalize(seat, move)
	if applied != move {
		t.logger.Debug("Normalized move", "player", p.Name, "requested", move, "applied", applied)
	}
	p.Reasoning = reasoning

	switch applied.Kind {
	case Fold:
		p.Folded = true
		p.LastAction = "FOLD"
		if !p.IsBot && t.Stage == StagePreflop {
			t.humanFoldedPreflop = true
		}
		t.logf("%s folds", p.Name)
	case Check:
		p.HasActed = true
		p.LastAction = "CHECK"
		t.logf("%s checks", p.Name)
	case Call:
		paid := t.postBet(seat, t.ToCall(seat))
		p.HasActed = true
		p.LastAction = fmt.Sprintf("CALL %d", paid)
		t.logf("%s calls %d%s", p.Name, paid, allInSuffix(p))
	case Raise:
		prevHigh := t.HighBet
		t.postBet(seat, t.ToCall(seat)+applied.Amount)
		if inc := p.CurrentBet - prevHigh; inc >= t.lastFullRaise {
			t.lastFullRaise = inc
		}
		p.HasActed = true
		p.LastAction = fmt.Sprintf("RAISE to %d", p.CurrentBet)
		t.logf("%s raises to %d%s", p.Name, p.CurrentBet, allInSuffix(p))
	}
	t.moveSeq++

	t.bus.Publish(PlayerActionEvent{
		HandID:    t.HandID,
		Player:    p.Name,
		Move:      applied,
		Stage:     t.Stage,
		Reasoning: reasoning,
		PotAfter:  t.Pot,
		timestamp: time.Now(),
	})

	t.continueRound(seat)
	return applied, nil
}

func allInSuffix(p *Player) string {
	if p.AllIn {
		return " (all-in)"
	}
	return ""
}

// normalize maps any requested move to the nearest legal one.
func (t *Table) normalize(seat int, move Move) Move {
	p := t.Players[seat]
	toCall := t.ToCall(seat)
	switch move.Kind {
	case Fold:
		return FoldMove()
	case Check:
		if toCall > 0 {
			return FoldMove()
		}
		return CheckMove()
	case Call:
		if toCall == 0 {
			return CheckMove()
		}
		return CallMove()
	case Raise:
		if p.Stack <= toCall {
			return CallMove()
		}
		inc := max(move.Amount, t.MinRaiseIncrement())
		// Compared without adding, so huge amounts cannot overflow.
		if inc > p.Stack-toCall {
			inc = p.Stack - toCall
		}
		return RaiseMove(inc)
	}
	if toCall == 0 {
		return CheckMove()
	}
	return FoldMove()
}

// roundComplete reports whether every seat that can act has matched the high
// bet and acted since the last raise.
func (t *Table) roundComplete() bool {
	for _, p := range t.Players {
		if p.CanAct() && (p.CurrentBet != t.HighBet || !p.HasActed) {
			return false
		}
	}
	return true
}

// continueRound settles the table after seat acted (or posted the big blind).
func (t *Table) continueRound(seat int) {
	if len(t.nonFolded()) == 1 {
		t.resolve()
		return
	}
	if t.roundComplete() {
		t.advanceStage()
		return
	}
	t.CurrentIdx = t.nextActor(seat)
}

// AdvanceStage deals the next street of a stalled hand, which happens only
// when nobody can act (a manual all-in runout).
func (t *Table) AdvanceStage() error {
	if !t.HandActive {
		return ErrNoHandInProgress
	}
	if t.CurrentIdx >= 0 {
		return fmt.Errorf("%s to act: %w", t.Players[t.CurrentIdx].Name, ErrRoundInProgress)
	}
	t.awaitingRunout = false
	t.advanceStage()
	return nil
}

func (t *Table) advanceStage() {
	for _, p := range t.Players {
		p.resetForStage()
	}
	t.HighBet = 0
	t.lastFullRaise = t.rules.BigBlind
	t.CurrentIdx = -1

	switch t.Stage {
	case StagePreflop:
		t.dealStreet(StageFlop, 3)
	case StageFlop:
		t.dealStreet(StageTurn, 1)
	case StageTurn:
		t.dealStreet(StageRiver, 1)
	default:
		t.resolve()
		return
	}

	if t.countActors() >= 2 {
		t.CurrentIdx = t.nextActor(t.DealerPos)
		return
	}
	if t.rules.ManualRunout {
		t.awaitingRunout = true
		t.logger.Debug("Runout paused", "hand", t.HandID, "stage", t.Stage)
		return
	}
	t.advanceStage()
}

func (t *Table) dealStreet(stage Stage, n int) {
	t.Board = append(t.Board, t.draw(n)...)
	t.Stage = stage
	t.logf("--- %s: %s ---", stage, poker.FormatCards(t.Board))
	t.bus.Publish(StreetChangeEvent{
		HandID:    t.HandID,
		Stage:     stage,
		Board:     cardStrings(t.Board),
		timestamp: time.Now(),
	})
}

func cardStrings(cards []poker.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
