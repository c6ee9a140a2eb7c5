package statetree

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func setCount(t *testing.T, rec *Node, v int) {
	t.Helper()
	if err := rec.Child("count").SetValue(v); err != nil {
		t.Fatal(err)
	}
}

func count(rec *Node) any {
	return rec.Child("count").Value()
}

func TestUndoRedo(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewUndoManager(rec)
	defer m.Dispose()

	setCount(t, rec, 1)
	setCount(t, rec, 2)

	if m.UndoLevels() != 2 || m.RedoLevels() != 0 {
		t.Fatalf("levels %d/%d", m.UndoLevels(), m.RedoLevels())
	}
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := count(rec); got != 1 {
		t.Fatalf("after undo: %v", got)
	}
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := count(rec); got != 0 {
		t.Fatalf("after second undo: %v", got)
	}
	if m.CanUndo() {
		t.Error("CanUndo at head")
	}
	if err := m.Redo(); err != nil {
		t.Fatal(err)
	}
	if got := count(rec); got != 1 {
		t.Fatalf("after redo: %v", got)
	}
	// replayed changes do not grow the history
	if m.UndoLevels() != 1 || m.RedoLevels() != 1 {
		t.Fatalf("levels %d/%d after replay", m.UndoLevels(), m.RedoLevels())
	}
}

func TestUndoNoOpAtBounds(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewUndoManager(rec)
	defer m.Dispose()

	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if err := m.Redo(); err != nil {
		t.Fatal(err)
	}
	if got := count(rec); got != 0 {
		t.Fatalf("count %v", got)
	}
}

func TestUndoGroup(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewUndoManager(rec)
	defer m.Dispose()

	if err := m.StartGroup(); err != nil {
		t.Fatal(err)
	}
	setCount(t, rec, 1)
	setCount(t, rec, 2)
	setCount(t, rec, 3)
	if err := m.EndGroup(); err != nil {
		t.Fatal(err)
	}

	if m.UndoLevels() != 1 {
		t.Fatalf("UndoLevels %d, want 1", m.UndoLevels())
	}
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := count(rec); got != 0 {
		t.Fatalf("after group undo: %v", got)
	}
	if err := m.Redo(); err != nil {
		t.Fatal(err)
	}
	if got := count(rec); got != 3 {
		t.Fatalf("after group redo: %v", got)
	}
}

func TestUndoEmptyGroup(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewUndoManager(rec)
	defer m.Dispose()

	if err := m.StartGroup(); err != nil {
		t.Fatal(err)
	}
	if err := m.StartGroup(); err == nil {
		t.Error("nested StartGroup accepted")
	}
	if err := m.EndGroup(); err != nil {
		t.Fatal(err)
	}
	if err := m.EndGroup(); err == nil {
		t.Error("EndGroup without open group accepted")
	}
	if m.UndoLevels() != 0 {
		t.Fatalf("empty group recorded: %d levels", m.UndoLevels())
	}
}

func TestUndoMaxHistory(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewUndoManager(rec, WithMaxHistory(2))
	defer m.Dispose()

	for i := 1; i <= 5; i++ {
		setCount(t, rec, i)
	}
	if m.UndoLevels() != 2 {
		t.Fatalf("UndoLevels %d, want 2", m.UndoLevels())
	}
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	// history bottoms out at the oldest retained entry, not the origin
	if got := count(rec); got != 3 {
		t.Fatalf("after exhausting capped history: %v", got)
	}
	if m.CanUndo() {
		t.Error("CanUndo past cap")
	}
}

func TestUndoRedoTruncation(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewUndoManager(rec)
	defer m.Dispose()

	setCount(t, rec, 1)
	setCount(t, rec, 2)
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	// a fresh mutation discards the redo branch
	setCount(t, rec, 7)
	if m.RedoLevels() != 0 {
		t.Fatalf("RedoLevels %d after new mutation", m.RedoLevels())
	}
	if err := m.Redo(); err != nil {
		t.Fatal(err)
	}
	if got := count(rec); got != 7 {
		t.Fatalf("count %v", got)
	}
}

func TestUndoGroupWindow(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewUndoManager(rec, WithGroupWindow(time.Second))
	defer m.Dispose()

	clock := time.Unix(1000, 0)
	m.now = func() time.Time { return clock }

	setCount(t, rec, 1)
	clock = clock.Add(500 * time.Millisecond)
	setCount(t, rec, 2)
	clock = clock.Add(5 * time.Second)
	setCount(t, rec, 3)

	if m.UndoLevels() != 2 {
		t.Fatalf("UndoLevels %d, want 2", m.UndoLevels())
	}
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := count(rec); got != 2 {
		t.Fatalf("after undo of late entry: %v", got)
	}
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := count(rec); got != 0 {
		t.Fatalf("after undo of merged entry: %v", got)
	}
}

func TestWithoutUndo(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewUndoManager(rec)
	defer m.Dispose()

	err := m.WithoutUndo(func() error {
		setCount(t, rec, 42)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.UndoLevels() != 0 {
		t.Fatalf("suppressed mutation recorded: %d levels", m.UndoLevels())
	}
	if got := count(rec); got != 42 {
		t.Fatalf("count %v", got)
	}
}

func TestUndoClearAndDispose(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewUndoManager(rec)

	setCount(t, rec, 1)
	m.Clear()
	if m.CanUndo() || m.CanRedo() {
		t.Error("history survives Clear")
	}

	m.Dispose()
	setCount(t, rec, 2)
	if m.UndoLevels() != 0 {
		t.Error("recording after Dispose")
	}
	if d := cmp.Diff(map[string]any{"count": 2}, GetSnapshot(rec)); d != "" {
		t.Errorf("snapshot (-want +got):\n%s", d)
	}
}
