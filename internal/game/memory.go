package game

import (
	"fmt"
	"strings"
)

// Memory is a bounded FIFO of post-hand summaries shown to the bots.
type Memory struct {
	capacity int
	entries  []string
}

// NewMemory creates a memory holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	return &Memory{capacity: capacity}
}

// Add records a summary for a hand, evicting the oldest entry when full.
func (m *Memory) Add(handNumber int, summary string) {
	m.entries = append(m.entries, fmt.Sprintf("Hand #%d: %s", handNumber, strings.TrimSpace(summary)))
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
}

// Entries returns a copy, oldest first.
func (m *Memory) Entries() []string {
	out := make([]string, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Memory) Len() int { return len(m.entries) }

// String joins entries one per line.
func (m *Memory) String() string {
	return strings.Join(m.entries, "\n")
}
