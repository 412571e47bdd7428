package tape

import (
	"fmt"
	"strings"
)

// Mode selects the tape's matching and write policy for one session. It is
// bound at Recorder.Start and stays fixed until Stop.
type Mode string

const (
	// ModeReadOnly plays back recorded interactions and rejects anything the
	// tape cannot answer.
	ModeReadOnly Mode = "READ_ONLY"
	// ModeReadSequential plays back interactions strictly in recorded order
	// via an advancing cursor.
	ModeReadSequential Mode = "READ_SEQUENTIAL"
	// ModeReadWrite plays back matches and records anything unmatched.
	ModeReadWrite Mode = "READ_WRITE"
	// ModeWriteOnly always forwards live, replacing a matched interaction in
	// place so stale fixtures get refreshed 1:1.
	ModeWriteOnly Mode = "WRITE_ONLY"
	// ModeWriteSequential always forwards live and appends even when a match
	// exists, keeping a timeline of successive captures for the same key.
	ModeWriteSequential Mode = "WRITE_SEQUENTIAL"
)

// WriteStrategy says what a writable mode does with a live response when the
// request already has a recorded match.
type WriteStrategy int

const (
	// WriteAppend records a new interaction, leaving the old match in place.
	WriteAppend WriteStrategy = iota
	// WriteOverwrite replaces the matched interaction in place, preserving
	// the tape's length and ordering.
	WriteOverwrite
)

// MatchScope says whether matching searches the whole log or only the entry
// under the read cursor.
type MatchScope int

const (
	ScopeUnordered MatchScope = iota
	ScopeSequential
)

// Policy is the behavior table for one mode. Dispatch anywhere in the
// pipeline reduces to reading these flags rather than branching on the mode
// value itself.
type Policy struct {
	Playback bool
	Write    bool
	Strategy WriteStrategy
	Scope    MatchScope
}

var policies = map[Mode]Policy{
	ModeReadOnly:        {Playback: true, Write: false, Scope: ScopeUnordered},
	ModeReadSequential:  {Playback: true, Write: false, Scope: ScopeSequential},
	ModeReadWrite:       {Playback: true, Write: true, Strategy: WriteAppend, Scope: ScopeUnordered},
	ModeWriteOnly:       {Playback: false, Write: true, Strategy: WriteOverwrite, Scope: ScopeUnordered},
	ModeWriteSequential: {Playback: false, Write: true, Strategy: WriteAppend, Scope: ScopeUnordered},
}

// Policy returns the behavior flags for the mode.
func (m Mode) Policy() Policy {
	return policies[m]
}

// Valid reports whether m is one of the five supported modes.
func (m Mode) Valid() bool {
	_, ok := policies[m]
	return ok
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown tape mode %q", s)
	}
	return m, nil
}
