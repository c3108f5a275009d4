package game

import "fmt"

const (
	MinSeats = 2
	MaxSeats = 6
)

// Rules are the fixed parameters of a table.
type Rules struct {
	SmallBlind     int
	BigBlind       int
	StartingStack  int
	RebuyAmount    int
	AutoRebuyHuman bool
	// ManualRunout pauses an all-in runout after each street until the host
	// calls AdvanceStage.
	ManualRunout   bool
	MemoryCapacity int
}

// DefaultRules returns 10/20 blinds with 1000 chip stacks.
func DefaultRules() Rules {
	return Rules{
		SmallBlind:     10,
		BigBlind:       20,
		StartingStack:  1000,
		RebuyAmount:    1000,
		MemoryCapacity: 5,
	}
}

// Validate checks the rules are playable.
func (r Rules) Validate() error {
	if r.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive, got %d", r.SmallBlind)
	}
	if r.BigBlind < r.SmallBlind {
		return fmt.Errorf("big blind %d is smaller than small blind %d", r.BigBlind, r.SmallBlind)
	}
	if r.StartingStack <= 0 {
		return fmt.Errorf("starting stack must be positive, got %d", r.StartingStack)
	}
	if r.RebuyAmount <= 0 {
		return fmt.Errorf("rebuy amount must be positive, got %d", r.RebuyAmount)
	}
	if r.MemoryCapacity < 1 {
		return fmt.Errorf("memory capacity must be at least 1, got %d", r.MemoryCapacity)
	}
	return nil
}
