package tape

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotWritable rejects a write, or a request that would need one,
	// under a mode whose policy forbids writing. It is a deterministic
	// policy outcome, not a transient fault, and is never retried.
	ErrNotWritable = errors.New("tape is not writable in this mode")

	// ErrSequentialExhausted reports that the sequential read cursor ran
	// past the last recorded interaction. It unwraps to ErrNotWritable.
	ErrSequentialExhausted = fmt.Errorf("sequential read cursor exhausted: %w", ErrNotWritable)

	// ErrNoMatch reports that no recorded interaction matches the live
	// request under the current scope.
	ErrNoMatch = errors.New("no matching interaction on tape")
)

// Tape is the ordered log of recorded interactions for one named session.
// Index 0 is the earliest recording. The read cursor is only meaningful
// under sequential modes: it starts at 0, only advances forward, and never
// resets mid-session.
//
// All operations are serialized behind an internal mutex. The wider
// match-then-mutate sequence for a single intercepted request is guarded one
// level up by the Interceptor, so two concurrent requests for the same
// unmatched key cannot both decide to record.
type Tape struct {
	mu           sync.RWMutex
	name         string
	mode         Mode
	rule         MatchRule
	interactions []Interaction
	cursor       int
	dirty        bool
}

// New creates an empty tape bound to a mode and match rule.
func New(name string, mode Mode, rule MatchRule) *Tape {
	return &Tape{name: name, mode: mode, rule: rule}
}

// newLoaded wraps interactions parsed from a persisted document.
func newLoaded(name string, mode Mode, rule MatchRule, interactions []Interaction) *Tape {
	return &Tape{name: name, mode: mode, rule: rule, interactions: interactions}
}

// Name returns the tape's session name.
func (t *Tape) Name() string {
	return t.name
}

// Mode returns the policy mode the tape was bound with.
func (t *Tape) Mode() Mode {
	return t.mode
}

// Size returns the number of recorded interactions.
func (t *Tape) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.interactions)
}

// Dirty reports whether the tape has writes that are not yet persisted.
func (t *Tape) Dirty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dirty
}

// Interaction returns the recorded interaction at index i.
func (t *Tape) Interaction(i int) (Interaction, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.interactions) {
		return Interaction{}, fmt.Errorf("interaction index %d out of range [0,%d)", i, len(t.interactions))
	}
	return t.interactions[i], nil
}

// Interactions returns a copy of the recorded sequence in order.
func (t *Tape) Interactions() []Interaction {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Interaction, len(t.interactions))
	copy(out, t.interactions)
	return out
}

// FindMatch looks for a recorded interaction matching req under the mode's
// match scope and returns it together with its index.
//
// Under the sequential scope only the entry at the read cursor is
// considered; a successful match advances the cursor, and a cursor past the
// end yields ErrSequentialExhausted. Under the unordered scope the whole log
// is searched and the most recently recorded match wins, so a tape that
// accumulated duplicates for one key always answers with the freshest entry.
func (t *Tape) FindMatch(req Request) (Interaction, int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mode.Policy().Scope == ScopeSequential {
		if t.cursor >= len(t.interactions) {
			return Interaction{}, -1, ErrSequentialExhausted
		}
		candidate := t.interactions[t.cursor]
		if !t.rule.Matches(req, candidate.Request) {
			return Interaction{}, -1, ErrNoMatch
		}
		matched := t.cursor
		t.cursor++
		return candidate, matched, nil
	}

	for i := len(t.interactions) - 1; i >= 0; i-- {
		if t.rule.Matches(req, t.interactions[i].Request) {
			return t.interactions[i], i, nil
		}
	}
	return Interaction{}, -1, ErrNoMatch
}

// Record appends a new interaction capturing req and res at the current
// time. It fails with ErrNotWritable when the mode forbids writes.
func (t *Tape) Record(req Request, res Response) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.mode.Policy().Write {
		return fmt.Errorf("record on tape %q: %w", t.name, ErrNotWritable)
	}
	t.interactions = append(t.interactions, NewInteraction(req, res))
	t.dirty = true
	return nil
}

// Overwrite replaces the interaction at index i in place, preserving the
// sequence's length and ordering. It fails with ErrNotWritable when the mode
// forbids writes.
func (t *Tape) Overwrite(i int, req Request, res Response) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.mode.Policy().Write {
		return fmt.Errorf("overwrite on tape %q: %w", t.name, ErrNotWritable)
	}
	if i < 0 || i >= len(t.interactions) {
		return fmt.Errorf("overwrite index %d out of range [0,%d)", i, len(t.interactions))
	}
	t.interactions[i] = NewInteraction(req, res)
	t.dirty = true
	return nil
}
