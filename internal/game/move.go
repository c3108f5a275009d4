package game

import (
	"fmt"
	"strings"
)

// ActionKind is one of the four no-limit betting actions.
type ActionKind int

const (
	Fold ActionKind = iota
	Check
	Call
	Raise
)

// String returns the upper-case action name.
func (a ActionKind) String() string {
	switch a {
	case Fold:
		return "FOLD"
	case Check:
		return "CHECK"
	case Call:
		return "CALL"
	case Raise:
		return "RAISE"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(a))
	}
}

// ParseActionKind accepts action names case-insensitively. "BET" is an alias
// for RAISE.
func ParseActionKind(s string) (ActionKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FOLD":
		return Fold, nil
	case "CHECK":
		return Check, nil
	case "CALL":
		return Call, nil
	case "RAISE", "BET":
		return Raise, nil
	}
	return Fold, fmt.Errorf("unknown action %q", s)
}

// Move is a betting decision. Amount is only meaningful for Raise, where it
// is the increment on top of the amount needed to call.
type Move struct {
	Kind   ActionKind
	Amount int
}

func FoldMove() Move  { return Move{Kind: Fold} }
func CheckMove() Move { return Move{Kind: Check} }
func CallMove() Move  { return Move{Kind: Call} }

// RaiseMove raises by amount over the call.
func RaiseMove(amount int) Move { return Move{Kind: Raise, Amount: amount} }

func (m Move) String() string {
	if m.Kind == Raise {
		return fmt.Sprintf("RAISE %d", m.Amount)
	}
	return m.Kind.String()
}
