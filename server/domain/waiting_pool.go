package domain

import (
	"fmt"
	"strings"
	"time"
)

// MatchPolicy decides which waiter is handed to the next joiner.
type MatchPolicy int

const (
	// MatchLIFO pairs the newest waiter first.
	MatchLIFO MatchPolicy = iota
	// MatchFIFO pairs the longest waiting entry first.
	MatchFIFO
)

func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lifo":
		return MatchLIFO, nil
	case "fifo":
		return MatchFIFO, nil
	default:
		return MatchLIFO, fmt.Errorf("unknown match policy %q", s)
	}
}

func (p MatchPolicy) String() string {
	switch p {
	case MatchLIFO:
		return "lifo"
	case MatchFIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

type WaitingEntry struct {
	ID         ConnectionID
	Name       string
	EnqueuedAt time.Time
}

// WaitingPool holds connections that want a partner and do not have one yet.
// Entries are kept in insertion order; the policy only changes which end Pop
// takes from.
type WaitingPool struct {
	policy  MatchPolicy
	entries []WaitingEntry
}

func NewWaitingPool(policy MatchPolicy) *WaitingPool {
	return &WaitingPool{policy: policy}
}

func (p *WaitingPool) Policy() MatchPolicy {
	return p.policy
}

func (p *WaitingPool) Push(entry WaitingEntry) {
	p.entries = append(p.entries, entry)
}

func (p *WaitingPool) Pop() (WaitingEntry, bool) {
	if len(p.entries) == 0 {
		return WaitingEntry{}, false
	}
	var entry WaitingEntry
	if p.policy == MatchFIFO {
		entry = p.entries[0]
		p.entries = p.entries[1:]
	} else {
		last := len(p.entries) - 1
		entry = p.entries[last]
		p.entries = p.entries[:last]
	}
	return entry, true
}

func (p *WaitingPool) Remove(id ConnectionID) bool {
	for i, entry := range p.entries {
		if entry.ID == id {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (p *WaitingPool) Contains(id ConnectionID) bool {
	for _, entry := range p.entries {
		if entry.ID == id {
			return true
		}
	}
	return false
}

func (p *WaitingPool) Rename(id ConnectionID, name string) bool {
	for i := range p.entries {
		if p.entries[i].ID == id {
			p.entries[i].Name = name
			return true
		}
	}
	return false
}

func (p *WaitingPool) Len() int {
	return len(p.entries)
}
