package statetree

import (
	"fmt"
	"time"

	"github.com/bmartel/jotai-state-tree/debug"
)

type undoState int

const (
	undoIdle undoState = iota
	undoGrouping
	undoReplaying
	undoSuppressed
)

// undoEntry is one reversible history step. patches go backward (undo),
// inversePatches go forward again (redo).
type undoEntry struct {
	patches        []Patch
	inversePatches []Patch
	at             time.Time
}

// UndoManager records the inverse patches produced under a target and
// replays them as undo/redo, over a bounded, double-ended history list.
type UndoManager struct {
	target  *Node
	entries []*undoEntry
	idx     int
	state   undoState
	group   *undoEntry

	maxHistory  int
	groupWindow time.Duration
	now         func() time.Time

	dispose func()
}

// UndoOpt configures an UndoManager.
type UndoOpt func(*UndoManager)

// WithMaxHistory bounds the history list; the oldest entry is trimmed
// when the bound is exceeded. Zero means unbounded.
func WithMaxHistory(n int) UndoOpt {
	return func(m *UndoManager) { m.maxHistory = n }
}

// WithGroupWindow merges consecutive mutations recorded within d of the
// previous entry into that entry. Zero disables time-based grouping.
func WithGroupWindow(d time.Duration) UndoOpt {
	return func(m *UndoManager) { m.groupWindow = d }
}

// NewUndoManager subscribes to target's patches and starts recording.
func NewUndoManager(target *Node, opts ...UndoOpt) *UndoManager {
	m := &UndoManager{
		target: target,
		idx:    -1,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.dispose = target.OnPatch(m.onPatch)
	return m
}

// Dispose stops recording. Recorded history stays replayable.
func (m *UndoManager) Dispose() {
	if m.dispose != nil {
		m.dispose()
		m.dispose = nil
	}
}

func (m *UndoManager) onPatch(p, inverse Patch) {
	switch m.state {
	case undoReplaying, undoSuppressed:
		return
	case undoGrouping:
		m.group.patches = append(m.group.patches, inverse)
		m.group.inversePatches = append(m.group.inversePatches, p)
		return
	}
	now := m.now()
	if m.groupWindow > 0 && m.idx >= 0 && m.idx == len(m.entries)-1 {
		last := m.entries[m.idx]
		if now.Sub(last.at) <= m.groupWindow {
			last.patches = append(last.patches, inverse)
			last.inversePatches = append(last.inversePatches, p)
			last.at = now
			return
		}
	}
	m.push(&undoEntry{
		patches:        []Patch{inverse},
		inversePatches: []Patch{p},
		at:             now,
	})
}

// push truncates any redo entries beyond the current index, appends the
// entry, and trims the oldest entry past the history cap.
func (m *UndoManager) push(e *undoEntry) {
	m.entries = append(m.entries[:m.idx+1], e)
	m.idx++
	if m.maxHistory > 0 && len(m.entries) > m.maxHistory {
		m.entries = m.entries[1:]
		m.idx--
	}
	if debug.Undo() {
		debug.Logf("undo push: %d entries, idx %d\n", len(m.entries), m.idx)
	}
}

func (m *UndoManager) CanUndo() bool { return m.idx >= 0 }
func (m *UndoManager) CanRedo() bool { return m.idx < len(m.entries)-1 }

// UndoLevels is the number of entries currently undoable.
func (m *UndoManager) UndoLevels() int { return m.idx + 1 }

// RedoLevels is the number of entries currently redoable.
func (m *UndoManager) RedoLevels() int { return len(m.entries) - m.idx - 1 }

// Undo applies the current entry's patches in reverse order. It is a
// no-op when nothing is undoable.
func (m *UndoManager) Undo() error {
	if m.idx < 0 {
		return nil
	}
	e := m.entries[m.idx]
	if err := m.replay(reversed(e.patches)); err != nil {
		return fmt.Errorf("undo: %w", err)
	}
	m.idx--
	return nil
}

// Redo re-applies the next entry's forward patches in order. It is a
// no-op at the tail of the history.
func (m *UndoManager) Redo() error {
	if !m.CanRedo() {
		return nil
	}
	e := m.entries[m.idx+1]
	if err := m.replay(e.inversePatches); err != nil {
		return fmt.Errorf("redo: %w", err)
	}
	m.idx++
	return nil
}

// replay applies patches with recording suppressed, so replayed changes
// do not feed back into the history.
func (m *UndoManager) replay(patches []Patch) error {
	prev := m.state
	m.state = undoReplaying
	defer func() { m.state = prev }()
	if debug.Undo() {
		debug.Logf("undo replay %d patches\n", len(patches))
	}
	return ApplyPatch(m.target, patches...)
}

// StartGroup opens a transaction accumulating all following mutations
// into a single history entry.
func (m *UndoManager) StartGroup() error {
	if m.state == undoGrouping {
		return fmt.Errorf("undo group already open")
	}
	if m.state != undoIdle {
		return fmt.Errorf("cannot open undo group while %s", m.stateName())
	}
	m.group = &undoEntry{at: m.now()}
	m.state = undoGrouping
	return nil
}

// EndGroup closes the open transaction. An empty group produces no
// history entry.
func (m *UndoManager) EndGroup() error {
	if m.state != undoGrouping {
		return fmt.Errorf("no undo group open")
	}
	g := m.group
	m.group = nil
	m.state = undoIdle
	if len(g.patches) > 0 {
		g.at = m.now()
		m.push(g)
	}
	return nil
}

// WithoutUndo suppresses recording for the duration of fn, regardless of
// the current state.
func (m *UndoManager) WithoutUndo(fn func() error) error {
	prev := m.state
	m.state = undoSuppressed
	defer func() { m.state = prev }()
	return fn()
}

// Clear drops all history.
func (m *UndoManager) Clear() {
	m.entries = nil
	m.idx = -1
}

func (m *UndoManager) stateName() string {
	switch m.state {
	case undoGrouping:
		return "grouping"
	case undoReplaying:
		return "replaying"
	case undoSuppressed:
		return "suppressed"
	default:
		return "idle"
	}
}

func reversed(ps []Patch) []Patch {
	res := make([]Patch, len(ps))
	for i, p := range ps {
		res[len(ps)-1-i] = p
	}
	return res
}
