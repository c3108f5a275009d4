package game

import "github.com/lox/llmholdem/poker"

// Role is the table position a seat holds for the current hand.
type Role string

const (
	RoleNone             Role = ""
	RoleDealer           Role = "D"
	RoleSmallBlind       Role = "SB"
	RoleBigBlind         Role = "BB"
	RoleDealerSmallBlind Role = "D/SB" // heads-up
)

// Player is a seat at the table. The Table owns and mutates it.
type Player struct {
	Name     string
	IsBot    bool
	Strategy string // passed through to the decision provider verbatim
	Avatar   string

	Stack      int
	BuyInTotal int

	HoleCards  []poker.Card
	CurrentBet int // chips put in during the current stage
	Committed  int // chips put in during the current hand
	Folded     bool
	AllIn      bool
	HasActed   bool
	LastAction string
	Reasoning  string
	Role       Role
}

// NewPlayer seats a human with an initial buy-in.
func NewPlayer(name string, isBot bool, stack int) *Player {
	return &Player{Name: name, IsBot: isBot, Stack: stack, BuyInTotal: stack}
}

// NewBot seats a bot with an opaque strategy description.
func NewBot(name, strategy string, stack int) *Player {
	p := NewPlayer(name, true, stack)
	p.Strategy = strategy
	return p
}

// CanAct reports whether the player can still take betting actions this hand.
func (p *Player) CanAct() bool {
	return !p.Folded && !p.AllIn
}

// Profit is the net result since the player first sat down.
func (p *Player) Profit() int {
	return p.Stack - p.BuyInTotal
}

func (p *Player) credit(amount int) {
	p.Stack += amount
	p.BuyInTotal += amount
}

func (p *Player) resetForHand() {
	p.HoleCards = nil
	p.CurrentBet = 0
	p.Committed = 0
	p.Folded = false
	p.AllIn = false
	p.HasActed = false
	p.LastAction = ""
	p.Reasoning = ""
	p.Role = RoleNone
}

func (p *Player) resetForStage() {
	p.CurrentBet = 0
	p.HasActed = false
	if !p.Folded {
		p.LastAction = ""
	}
}
