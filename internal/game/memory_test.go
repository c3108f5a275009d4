package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryEvictsOldest(t *testing.T) {
	m := NewMemory(3)
	for i := 1; i <= 5; i++ {
		m.Add(i, " summary ")
	}
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"Hand #3: summary", "Hand #4: summary", "Hand #5: summary"}, m.Entries())
	assert.Equal(t, "Hand #3: summary\nHand #4: summary\nHand #5: summary", m.String())
}

func TestMemoryEntriesIsACopy(t *testing.T) {
	m := NewMemory(2)
	m.Add(1, "a")
	e := m.Entries()
	e[0] = "mutated"
	assert.Equal(t, "Hand #1: a", m.Entries()[0])
}

func TestMemoryMinimumCapacity(t *testing.T) {
	m := NewMemory(0)
	m.Add(1, "a")
	m.Add(2, "b")
	assert.Equal(t, []string{"Hand #2: b"}, m.Entries())
}
