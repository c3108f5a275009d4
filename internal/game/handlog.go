package game

import "fmt"

func (t *Table) logf(format string, args ...any) {
	t.handLog = append(t.handLog, fmt.Sprintf(format, args...))
}

// HandLog returns every line logged for the current or last hand.
func (t *Table) HandLog() []string {
	out := make([]string, len(t.handLog))
	copy(out, t.handLog)
	return out
}

// RecentLog returns up to the last n lines of the hand log.
func (t *Table) RecentLog(n int) []string {
	start := max(0, len(t.handLog)-n)
	out := make([]string, len(t.handLog)-start)
	copy(out, t.handLog[start:])
	return out
}

// Note appends a line to the hand log without changing any state.
func (t *Table) Note(format string, args ...any) {
	t.logf(format, args...)
}
