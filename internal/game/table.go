package game

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/llmholdem/internal/randutil"
	"github.com/lox/llmholdem/poker"
)

// Evaluator ranks a finished hand. Lower scores are stronger.
type Evaluator interface {
	Rank(board [5]poker.Card, hole [2]poker.Card) (int, error)
}

// Describer optionally names a hand for the log.
type Describer interface {
	Describe(board [5]poker.Card, hole [2]poker.Card) (string, error)
}

// DeckSource builds the deck for a new hand.
type DeckSource func(rng *rand.Rand) *poker.Deck

// TurnToken identifies a single decision point. It changes after every
// applied move and every new hand.
type TurnToken struct {
	HandID string
	Seq    int
}

// Table is the betting engine for one table.
type Table struct {
	Players    []*Player
	Board      []poker.Card
	Pot        int
	HighBet    int
	DealerPos  int
	CurrentIdx int // -1 when nobody is to act
	Stage      Stage
	HandActive bool
	Winners    []string
	HandID     string
	HandNumber int
	Memory     *Memory

	rules     Rules
	rng       *rand.Rand
	deck      *poker.Deck
	newDeck   DeckSource
	evaluator Evaluator
	bus       EventBus
	logger    *log.Logger

	handLog            []string
	lastFullRaise      int
	moveSeq            int
	dealerPlaced       bool // next StartNewHand keeps DealerPos
	awaitingRunout     bool
	humanFoldedPreflop bool
	lastResult         *HandEndEvent
	// departedNet is buy-ins minus stacks of players who left the table:
	// the chips they lost to the seats that remain.
	departedNet int
}

// Option configures a Table.
type Option func(*Table)

// WithRNG sets the generator used to shuffle each deck.
func WithRNG(rng *rand.Rand) Option {
	return func(t *Table) { t.rng = rng }
}

// WithDeckSource replaces the shuffled deck, typically with a stacked one.
func WithDeckSource(src DeckSource) Option {
	return func(t *Table) { t.newDeck = src }
}

// WithEvaluator sets the showdown evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(t *Table) { t.evaluator = e }
}

// WithEventBus sets the bus events are published on.
func WithEventBus(bus EventBus) Option {
	return func(t *Table) { t.bus = bus }
}

// WithLogger sets the operational logger.
func WithLogger(logger *log.Logger) Option {
	return func(t *Table) { t.logger = logger }
}

// NewTable seats players in the given order. The first hand's dealer is seat 0.
func NewTable(rules Rules, players []*Player, opts ...Option) (*Table, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	t := &Table{
		rules:        rules,
		CurrentIdx:   -1,
		Stage:        StageWaiting,
		Memory:       NewMemory(rules.MemoryCapacity),
		newDeck:      poker.NewDeck,
		evaluator:    poker.NewHandEvaluator(),
		bus:          NewEventBus(),
		logger:       log.New(io.Discard),
		dealerPlaced: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.rng == nil {
		seed := randutil.NewSeed()
		t.rng = randutil.New(seed)
		t.logger.Debug("Seeded table", "seed", seed)
	}
	t.logger = t.logger.WithPrefix("table")
	if err := t.SetPlayers(players); err != nil {
		return nil, err
	}
	return t, nil
}

// Rules returns the table's rules.
func (t *Table) Rules() Rules { return t.rules }

// Events returns the bus the table publishes on.
func (t *Table) Events() EventBus { return t.bus }

// SetPlayers replaces the seated players between hands and puts the dealer
// button back on seat 0.
func (t *Table) SetPlayers(players []*Player) error {
	if t.HandActive {
		return ErrHandInProgress
	}
	if len(players) < MinSeats || len(players) > MaxSeats {
		return fmt.Errorf("%d seats requested, want %d-%d: %w", len(players), MinSeats, MaxSeats, ErrSeatLimit)
	}
	names := make(map[string]bool, len(players))
	humans := 0
	for _, p := range players {
		if names[p.Name] {
			return fmt.Errorf("duplicate player name %q", p.Name)
		}
		names[p.Name] = true
		if !p.IsBot {
			humans++
		}
	}
	if humans > 1 {
		return fmt.Errorf("at most one human seat, got %d", humans)
	}
	seated := make(map[*Player]bool, len(players))
	for _, p := range players {
		seated[p] = true
	}
	for _, p := range t.Players {
		if !seated[p] {
			t.departedNet += p.BuyInTotal - p.Stack
		}
	}
	t.Players = players
	t.DealerPos = 0
	t.dealerPlaced = true
	t.CurrentIdx = -1
	return nil
}

// HumanIdx returns the human seat index, or -1 for an all-bot table.
func (t *Table) HumanIdx() int {
	for i, p := range t.Players {
		if !p.IsBot {
			return i
		}
	}
	return -1
}

// Human returns the human seat, or nil.
func (t *Table) Human() *Player {
	if i := t.HumanIdx(); i >= 0 {
		return t.Players[i]
	}
	return nil
}

// PlayerByName looks a seat up by name.
func (t *Table) PlayerByName(name string) (int, *Player) {
	for i, p := range t.Players {
		if p.Name == name {
			return i, p
		}
	}
	return -1, nil
}

// Current returns the player to act, or nil.
func (t *Table) Current() *Player {
	if t.CurrentIdx < 0 || t.CurrentIdx >= len(t.Players) {
		return nil
	}
	return t.Players[t.CurrentIdx]
}

// Turn returns the token for the current decision point.
func (t *Table) Turn() TurnToken {
	return TurnToken{HandID: t.HandID, Seq: t.moveSeq}
}

// ToCall returns what seat must add to match the high bet.
func (t *Table) ToCall(seat int) int {
	return max(0, t.HighBet-t.Players[seat].CurrentBet)
}

// MinRaiseIncrement is the smallest legal raise over the call: the big blind
// or the last full raise this stage, whichever is larger.
func (t *Table) MinRaiseIncrement() int {
	return max(t.rules.BigBlind, t.lastFullRaise)
}

// MinRaiseTo is the smallest total bet a raise can make this stage.
func (t *Table) MinRaiseTo() int {
	return t.HighBet + t.MinRaiseIncrement()
}

// AwaitingRunout reports a manual runout paused between streets.
func (t *Table) AwaitingRunout() bool {
	return t.HandActive && t.awaitingRunout
}

// LastResult returns the most recent hand result, or nil.
func (t *Table) LastResult() *HandEndEvent {
	return t.lastResult
}

// Rebuy credits a seat between hands. A game-over table becomes playable again.
func (t *Table) Rebuy(name string, amount int) error {
	if t.HandActive {
		return ErrHandInProgress
	}
	if amount <= 0 {
		return fmt.Errorf("rebuy amount must be positive, got %d", amount)
	}
	_, p := t.PlayerByName(name)
	if p == nil {
		return fmt.Errorf("no player named %q", name)
	}
	p.credit(amount)
	t.logf("%s rebuys for %d", p.Name, amount)
	t.logger.Info("Rebuy", "player", p.Name, "amount", amount, "stack", p.Stack)
	if t.Stage == StageGameOver {
		t.Stage = StageWaiting
	}
	return nil
}

// ValidateChipConservation checks that every chip bought in is either in a
// stack or in the pot. Players who left took their stacks with them.
func (t *Table) ValidateChipConservation() error {
	stacks, bought := 0, 0
	for _, p := range t.Players {
		if p.Stack < 0 {
			return fmt.Errorf("%s has negative stack %d", p.Name, p.Stack)
		}
		stacks += p.Stack
		bought += p.BuyInTotal
	}
	if stacks+t.Pot != bought+t.departedNet {
		return fmt.Errorf("chip conservation violated: stacks %d + pot %d != buy-ins %d + departed net %d",
			stacks, t.Pot, bought, t.departedNet)
	}
	return nil
}

func (t *Table) seatAfter(seat int) int {
	return (seat + 1) % len(t.Players)
}

// nextActor returns the first seat after from that can act, or -1.
func (t *Table) nextActor(from int) int {
	n := len(t.Players)
	for i := 1; i <= n; i++ {
		seat := (from + i) % n
		if t.Players[seat].CanAct() {
			return seat
		}
	}
	return -1
}

func (t *Table) countActors() int {
	n := 0
	for _, p := range t.Players {
		if p.CanAct() {
			n++
		}
	}
	return n
}

func (t *Table) nonFolded() []int {
	var seats []int
	for i, p := range t.Players {
		if !p.Folded {
			seats = append(seats, i)
		}
	}
	return seats
}

func (t *Table) draw(n int) []poker.Card {
	cards, err := t.deck.Draw(n)
	if err != nil {
		panic(fmt.Sprintf("hand %s: %v", t.HandID, err))
	}
	return cards
}
