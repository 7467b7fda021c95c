// Package counter holds the pulse counts and the send-due flag shared between
// the edge handlers and the main cycle.
//
// Every count is a single byte. Increments past 255 wrap to zero; the next
// drain reports that the channel wrapped so the caller can log it.
package counter

import (
	"sync"
	"sync/atomic"
)

type ChannelID uint8

// Channel is the identity of one physical input.
type Channel struct {
	ID      ChannelID
	Name    string
	Enabled bool
}

// Reading is the drained value of one enabled channel.
type Reading struct {
	ID      ChannelID
	Name    string
	Value   uint8
	Wrapped bool
}

type slot struct {
	channel Channel
	count   uint8
	wrapped bool
}

// State owns the counts. The mutex stands in for masking interrupts: a
// handler increment and a drain never interleave.
type State struct {
	mu    sync.Mutex
	slots []slot
	index map[ChannelID]int
	due   atomic.Bool
}

// Tx is an open critical section. It is only valid inside the function
// passed to Atomic.
type Tx struct {
	s *State
}

func New(channels []Channel) *State {
	s := &State{
		slots: make([]slot, 0, len(channels)),
		index: make(map[ChannelID]int, len(channels)),
	}
	for _, c := range channels {
		if _, dup := s.index[c.ID]; dup {
			continue
		}
		s.index[c.ID] = len(s.slots)
		s.slots = append(s.slots, slot{channel: c})
	}
	return s
}

// Channels returns the channels in declared order.
func (s *State) Channels() []Channel {
	out := make([]Channel, len(s.slots))
	for i, sl := range s.slots {
		out[i] = sl.channel
	}
	return out
}

// Increment adds one pulse to the channel. Unknown and disabled channels
// are ignored.
func (s *State) Increment(id ChannelID) {
	s.mu.Lock()
	if i, ok := s.index[id]; ok && s.slots[i].channel.Enabled {
		s.slots[i].count++
		if s.slots[i].count == 0 {
			s.slots[i].wrapped = true
		}
	}
	s.mu.Unlock()
}

// Atomic runs fn with the counts locked against handlers.
func (s *State) Atomic(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&Tx{s: s})
}

// Atomic on an open section runs fn inside it. The section stays closed
// to handlers until the outermost Atomic returns.
func (tx *Tx) Atomic(fn func(tx *Tx)) {
	fn(tx)
}

// Take reads and resets one channel.
func (tx *Tx) Take(id ChannelID) (Reading, bool) {
	i, ok := tx.s.index[id]
	if !ok {
		return Reading{}, false
	}
	sl := &tx.s.slots[i]
	r := Reading{ID: sl.channel.ID, Name: sl.channel.Name, Value: sl.count, Wrapped: sl.wrapped}
	sl.count = 0
	sl.wrapped = false
	return r, true
}

// Drain snapshots and resets every enabled channel in one critical section.
// Readings come back in declared channel order.
func (s *State) Drain() []Reading {
	var out []Reading
	s.Atomic(func(tx *Tx) {
		out = make([]Reading, 0, len(s.slots))
		for _, sl := range s.slots {
			if !sl.channel.Enabled {
				continue
			}
			r, _ := tx.Take(sl.channel.ID)
			out = append(out, r)
		}
	})
	return out
}

// Peek returns the current count without resetting it.
func (s *State) Peek(id ChannelID) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[id]; ok {
		return s.slots[i].count
	}
	return 0
}

// SetDue marks a report as due. Safe from any handler.
func (s *State) SetDue() {
	s.due.Store(true)
}

func (s *State) Due() bool {
	return s.due.Load()
}

func (s *State) ClearDue() {
	s.due.Store(false)
}
