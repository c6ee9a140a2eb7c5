package statetree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTimeTravel(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewTimeTravelManager(rec)

	m.Record()
	setCount(t, rec, 1)
	m.Record()
	setCount(t, rec, 2)
	m.Record()

	if m.Len() != 3 || m.Cursor() != 2 {
		t.Fatalf("len %d cursor %d", m.Len(), m.Cursor())
	}
	if err := m.GoTo(0); err != nil {
		t.Fatal(err)
	}
	if got := count(rec); got != 0 {
		t.Fatalf("after GoTo(0): %v", got)
	}
	if err := m.Forward(); err != nil {
		t.Fatal(err)
	}
	if got := count(rec); got != 1 {
		t.Fatalf("after Forward: %v", got)
	}
	if err := m.Back(); err != nil {
		t.Fatal(err)
	}
	if got := count(rec); got != 0 {
		t.Fatalf("after Back: %v", got)
	}
}

func TestTimeTravelBounds(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewTimeTravelManager(rec)

	if err := m.GoTo(0); err == nil {
		t.Error("GoTo on empty history accepted")
	}
	m.Record()
	if err := m.Back(); err == nil {
		t.Error("Back past the first state accepted")
	}
	if err := m.Forward(); err == nil {
		t.Error("Forward past the last state accepted")
	}
}

func TestTimeTravelRecordTruncatesAhead(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewTimeTravelManager(rec)

	m.Record()
	setCount(t, rec, 1)
	m.Record()
	if err := m.GoTo(0); err != nil {
		t.Fatal(err)
	}
	setCount(t, rec, 9)
	m.Record()

	if m.Len() != 2 || m.Cursor() != 1 {
		t.Fatalf("len %d cursor %d", m.Len(), m.Cursor())
	}
	if err := m.Forward(); err == nil {
		t.Error("stale forward state survived a new Record")
	}
}

func TestTimeTravelMaxStates(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewTimeTravelManager(rec, WithMaxStates(2))

	for i := 0; i < 5; i++ {
		setCount(t, rec, i)
		m.Record()
	}
	if m.Len() != 2 {
		t.Fatalf("len %d, want 2", m.Len())
	}
	if err := m.GoTo(0); err != nil {
		t.Fatal(err)
	}
	if got := count(rec); got != 3 {
		t.Fatalf("oldest retained state: %v", got)
	}
}

func TestTimeTravelAutoRecord(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	m := NewTimeTravelManager(rec, WithAutoRecord())
	defer m.Dispose()

	setCount(t, rec, 1)
	setCount(t, rec, 2)
	if m.Len() != 2 {
		t.Fatalf("len %d after two mutations", m.Len())
	}
	if d := cmp.Diff(map[string]any{"count": 1}, m.snapshots[0]); d != "" {
		t.Errorf("first recorded state (-want +got):\n%s", d)
	}

	// navigating does not record new states
	if err := m.Back(); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 2 {
		t.Fatalf("len %d after Back", m.Len())
	}
}
