package agent

import (
	"fmt"
	"strings"

	"github.com/lox/llmholdem/poker"
)

func decisionPrompts(obs Observation) (system, user string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a world-class poker player named %q.\n\n", obs.Name)
	sb.WriteString("### STRATEGY:\n")
	sb.WriteString(obs.Strategy)
	sb.WriteString("\n\n")
	if obs.Memory != "" {
		sb.WriteString("### OPPONENT PROFILING (IMPORTANT):\n")
		sb.WriteString("Observations about the Human player from earlier hands:\n")
		sb.WriteString(obs.Memory)
		sb.WriteString("\nExploit these patterns.\n\n")
	} else {
		sb.WriteString("### OPPONENT PROFILING:\nNo data yet. Play a balanced game.\n\n")
	}
	fmt.Fprintf(&sb, "### IDENTITY:\n\"Human\" is your opponent. Log lines starting with %q are your own moves.\n\n", obs.Name)
	sb.WriteString("### FORMAT:\nReply with a JSON object with keys \"action\" (FOLD, CHECK, CALL or RAISE), ")
	sb.WriteString("\"amount\" (for RAISE: chips to add on top of the call) and \"reasoning\".\n\n")
	sb.WriteString("### RULES:\n- If to_call > 0 you cannot CHECK.\n")
	fmt.Fprintf(&sb, "- A raise must add at least %d over the call.\n", obs.MinRaise)
	system = sb.String()

	spr := 100.0
	if obs.Pot > 0 {
		spr = float64(obs.Stack) / float64(obs.Pot)
	}
	role := string(obs.Role)
	if role == "" {
		role = "Normal"
	}
	board := poker.FormatCards(obs.Board)
	if board == "" {
		board = "(none)"
	}
	hint := ""
	if len(obs.HoleCards) == 2 {
		hint = fmt.Sprintf(" (%s)", poker.CategorizeHoleCards([2]poker.Card{obs.HoleCards[0], obs.HoleCards[1]}))
	}

	sb.Reset()
	fmt.Fprintf(&sb, "### STATE for %s:\n", obs.Name)
	fmt.Fprintf(&sb, "- Stage: %s | Role: %s\n", obs.Stage, role)
	fmt.Fprintf(&sb, "- Hand: %s%s | Board: %s\n", poker.FormatCards(obs.HoleCards), hint, board)
	fmt.Fprintf(&sb, "- Pot: %d | Stack: %d | To Call: %d | SPR: %.1f\n\n", obs.Pot, obs.Stack, obs.ToCall, spr)
	sb.WriteString("### CURRENT HAND HISTORY:\n")
	sb.WriteString(strings.Join(obs.RecentLog, "\n"))
	sb.WriteString("\n\nWhat is your move? Return JSON.")
	user = sb.String()
	return system, user
}

func analysisPrompts(s HandSummary) (system, user string) {
	system = `You are a poker strategy analyst. Analyze the "Human" player's behavior in the hand history.
Focus on betting patterns (passive or aggressive), bluffing and the hands they take to showdown.
Return one concise sentence (max 20 words) describing the Human's play in this hand.`

	winners := strings.Join(s.Winners, ", ")
	cards := s.HumanCards
	if cards == "" {
		cards = "Unknown"
	}
	user = fmt.Sprintf("### HAND LOG:\n%s\n\n### RESULT:\nWinner: %s\nHuman's Known Cards: %s\n\nSummarize the Human's playstyle in this hand:",
		strings.Join(s.Log, "\n"), winners, cards)
	return system, user
}
