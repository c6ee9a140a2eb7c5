package statetree

import (
	"fmt"

	"github.com/bmartel/jotai-state-tree/debug"
)

// TimeTravelManager keeps an ordered, bounded list of full snapshots of
// its target plus a cursor. Unlike the undo manager it is snapshot based:
// each step costs time proportional to the tree size, in exchange for
// robustness to any mutation shape.
type TimeTravelManager struct {
	target    *Node
	snapshots []any
	cursor    int
	applying  bool
	maxStates int
	dispose   func()
}

// TimeTravelOpt configures a TimeTravelManager.
type TimeTravelOpt func(*TimeTravelManager)

// WithMaxStates bounds the snapshot list; the oldest snapshot is trimmed
// when the bound is exceeded. Zero means unbounded.
func WithMaxStates(n int) TimeTravelOpt {
	return func(m *TimeTravelManager) { m.maxStates = n }
}

// WithAutoRecord records a snapshot on every root snapshot notification.
// Applying a snapshot through GoTo does not record.
func WithAutoRecord() TimeTravelOpt {
	return func(m *TimeTravelManager) {
		m.dispose = m.target.OnSnapshot(func(snap any) {
			if m.applying {
				return
			}
			m.append(snap)
		})
	}
}

// NewTimeTravelManager creates a manager for the tree rooted at target.
// The initial state is not recorded implicitly; call Record for that.
func NewTimeTravelManager(target *Node, opts ...TimeTravelOpt) *TimeTravelManager {
	m := &TimeTravelManager{
		target: target,
		cursor: -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dispose stops auto-recording, if enabled.
func (m *TimeTravelManager) Dispose() {
	if m.dispose != nil {
		m.dispose()
		m.dispose = nil
	}
}

// Record captures the target's current snapshot at the cursor, dropping
// any states ahead of it.
func (m *TimeTravelManager) Record() {
	if m.applying {
		return
	}
	m.append(GetSnapshot(m.target))
}

func (m *TimeTravelManager) append(snap any) {
	m.snapshots = append(m.snapshots[:m.cursor+1], snap)
	m.cursor++
	if m.maxStates > 0 && len(m.snapshots) > m.maxStates {
		m.snapshots = m.snapshots[1:]
		m.cursor--
	}
	if debug.Undo() {
		debug.Logf("timetravel record: %d states, cursor %d\n", len(m.snapshots), m.cursor)
	}
}

// GoTo applies the i-th recorded snapshot to the target. The re-entrancy
// guard keeps auto-recording from firing while applying.
func (m *TimeTravelManager) GoTo(i int) error {
	if i < 0 || i >= len(m.snapshots) {
		return fmt.Errorf("time travel to %d: %d states recorded", i, len(m.snapshots))
	}
	m.applying = true
	defer func() { m.applying = false }()
	if err := ApplySnapshot(m.target, m.snapshots[i]); err != nil {
		return fmt.Errorf("time travel to %d: %w", i, err)
	}
	m.cursor = i
	return nil
}

// Back steps the cursor one state backward.
func (m *TimeTravelManager) Back() error {
	return m.GoTo(m.cursor - 1)
}

// Forward steps the cursor one state forward.
func (m *TimeTravelManager) Forward() error {
	return m.GoTo(m.cursor + 1)
}

// Len is the number of recorded states.
func (m *TimeTravelManager) Len() int { return len(m.snapshots) }

// Cursor is the index of the current state, -1 when nothing is recorded.
func (m *TimeTravelManager) Cursor() int { return m.cursor }
