package counter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoChannels() *State {
	return New([]Channel{
		{ID: 1, Name: "a", Enabled: true},
		{ID: 2, Name: "b", Enabled: true},
	})
}

func TestDrainResets(t *testing.T) {
	s := twoChannels()
	for i := 0; i < 3; i++ {
		s.Increment(1)
	}

	r := s.Drain()
	require.Len(t, r, 2)
	assert.Equal(t, Reading{ID: 1, Name: "a", Value: 3}, r[0])
	assert.Equal(t, Reading{ID: 2, Name: "b", Value: 0}, r[1])

	assert.Equal(t, uint8(0), s.Peek(1))
	assert.Equal(t, uint8(0), s.Peek(2))
}

func TestCountWraps(t *testing.T) {
	s := twoChannels()
	for _, n := range []int{0, 1, 255, 256, 300, 1000} {
		for i := 0; i < n; i++ {
			s.Increment(1)
		}
		r := s.Drain()
		assert.Equal(t, uint8(n%256), r[0].Value, "pulses %v", n)
		assert.Equal(t, n >= 256, r[0].Wrapped, "pulses %v", n)
		assert.Equal(t, uint8(0), s.Peek(1))
	}
}

func TestDisabledChannelIgnored(t *testing.T) {
	s := New([]Channel{
		{ID: 1, Name: "a", Enabled: true},
		{ID: 2, Name: "b", Enabled: false},
	})
	s.Increment(2)
	s.Increment(9)
	s.Increment(1)

	assert.Equal(t, uint8(0), s.Peek(2))
	r := s.Drain()
	require.Len(t, r, 1)
	assert.Equal(t, ChannelID(1), r[0].ID)
	assert.Equal(t, uint8(1), r[0].Value)
}

func TestDeclaredOrderKept(t *testing.T) {
	s := New([]Channel{
		{ID: 7, Name: "x", Enabled: true},
		{ID: 3, Name: "y", Enabled: true},
		{ID: 7, Name: "dup", Enabled: true},
	})
	chans := s.Channels()
	require.Len(t, chans, 2)
	assert.Equal(t, ChannelID(7), chans[0].ID)
	assert.Equal(t, ChannelID(3), chans[1].ID)
}

func TestNestedAtomic(t *testing.T) {
	s := twoChannels()
	s.Increment(1)
	s.Increment(2)
	s.Increment(2)

	var a, b Reading
	s.Atomic(func(tx *Tx) {
		a, _ = tx.Take(1)
		tx.Atomic(func(inner *Tx) {
			b, _ = inner.Take(2)
		})
		// still inside the outer section: the lock must be held
		assert.False(t, s.mu.TryLock())
	})
	assert.True(t, s.mu.TryLock())
	s.mu.Unlock()

	assert.Equal(t, uint8(1), a.Value)
	assert.Equal(t, uint8(2), b.Value)
	_, ok := (&Tx{s: s}).Take(42)
	assert.False(t, ok)
}

// Every pulse ends up in exactly one drain, whatever the interleaving.
func TestNoPulseLostAcrossDrains(t *testing.T) {
	s := New([]Channel{{ID: 1, Name: "a", Enabled: true}})
	const pulses = 200 // stays below the wrap for any single drain

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < pulses; i++ {
			s.Increment(1)
		}
	}()

	total := 0
	for i := 0; i < 50; i++ {
		total += int(s.Drain()[0].Value)
	}
	wg.Wait()
	total += int(s.Drain()[0].Value)

	assert.Equal(t, pulses, total)
}

func TestDueFlag(t *testing.T) {
	s := twoChannels()
	assert.False(t, s.Due())
	s.SetDue()
	s.SetDue()
	assert.True(t, s.Due())
	s.ClearDue()
	assert.False(t, s.Due())
}
