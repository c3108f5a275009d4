package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lox/llmholdem/internal/game"
	"github.com/lox/llmholdem/internal/session"
)

// CommandKind is a parsed line of user input.
type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdDeal
	CmdMove
	CmdAdvance
	CmdSetBots
	CmdRebuy
	CmdEmote
	CmdHelp
	CmdQuit
)

// Command is one user request.
type Command struct {
	Kind   CommandKind
	Move   game.Move
	Bots   int
	Target string
	Item   string
}

// ParseCommand reads a line typed at the prompt. An empty line deals the
// next hand between hands and calls or checks during one.
//
//	fold | check | call | raise 40 | raise to 120 | allin
//	deal | next | bots 3 | rebuy | throw tomato Jack | help | quit
func ParseCommand(input string, snap session.Snapshot) (Command, error) {
	parts := strings.Fields(strings.ToLower(input))
	if len(parts) == 0 {
		if snap.HandActive && snap.Turn == snap.Human {
			return Command{Kind: CmdMove, Move: game.CallMove()}, nil
		}
		if snap.AwaitingRunout {
			return Command{Kind: CmdAdvance}, nil
		}
		if !snap.HandActive {
			return Command{Kind: CmdDeal}, nil
		}
		return Command{Kind: CmdNone}, nil
	}

	action, args := parts[0], parts[1:]
	switch action {
	case "f", "fold":
		return Command{Kind: CmdMove, Move: game.FoldMove()}, nil
	case "k", "check":
		return Command{Kind: CmdMove, Move: game.CheckMove()}, nil
	case "c", "call":
		return Command{Kind: CmdMove, Move: game.CallMove()}, nil
	case "r", "raise", "bet":
		return parseRaise(args, snap)
	case "allin", "all-in", "shove":
		return Command{Kind: CmdMove, Move: game.RaiseMove(math.MaxInt32)}, nil
	case "d", "deal":
		return Command{Kind: CmdDeal}, nil
	case "n", "next", "advance":
		return Command{Kind: CmdAdvance}, nil
	case "bots":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: bots <count>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("invalid bot count %q", args[0])
		}
		return Command{Kind: CmdSetBots, Bots: n}, nil
	case "rebuy":
		return Command{Kind: CmdRebuy}, nil
	case "throw", "emote":
		if len(args) < 2 {
			return Command{}, fmt.Errorf("usage: throw <item> <player>")
		}
		name := strings.Join(args[1:], " ")
		target, ok := seatName(snap, name)
		if !ok {
			return Command{}, fmt.Errorf("no player named %q", name)
		}
		return Command{Kind: CmdEmote, Item: args[0], Target: target}, nil
	case "h", "help", "?":
		return Command{Kind: CmdHelp}, nil
	case "q", "quit", "exit":
		return Command{Kind: CmdQuit}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q, type help", action)
}

// parseRaise accepts "raise N" (N over the call) and "raise to N" (total bet).
func parseRaise(args []string, snap session.Snapshot) (Command, error) {
	to := false
	if len(args) > 0 && args[0] == "to" {
		to = true
		args = args[1:]
	}
	if len(args) != 1 {
		return Command{}, fmt.Errorf("usage: raise <amount> or raise to <total>")
	}
	n, err := strconv.Atoi(strings.TrimPrefix(args[0], "$"))
	if err != nil || n <= 0 {
		return Command{}, fmt.Errorf("invalid amount %q", args[0])
	}
	if to {
		if n <= snap.HighBet {
			return Command{}, fmt.Errorf("raise to %d does not exceed the current bet of %d", n, snap.HighBet)
		}
		n -= snap.HighBet
	}
	return Command{Kind: CmdMove, Move: game.RaiseMove(n)}, nil
}

// seatName matches a player name case-insensitively.
func seatName(snap session.Snapshot, name string) (string, bool) {
	for _, seat := range snap.Seats {
		if strings.EqualFold(seat.Name, name) {
			return seat.Name, true
		}
	}
	return "", false
}

const helpText = "fold | check | call | raise N | raise to N | allin | deal | next | bots N | rebuy | throw <item> <player> | quit"
