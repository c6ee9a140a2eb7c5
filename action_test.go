package statetree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRunAction(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})

	var calls []ActionCall
	dispose := OnAction(func(c ActionCall) { calls = append(calls, c) })
	defer dispose()

	err := RunAction(rec, "increment", []any{2}, func() error {
		cur, ok := CurrentAction()
		if !ok {
			t.Fatal("no current action inside RunAction")
		}
		if cur.Name != "increment" || cur.Path != "" {
			t.Fatalf("current action %+v", cur)
		}
		return rec.Child("count").SetValue(2)
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := CurrentAction(); ok {
		t.Error("action still current after return")
	}
	want := []ActionCall{{Name: "increment", Path: "", Args: []any{2}}}
	if d := cmp.Diff(want, calls); d != "" {
		t.Errorf("calls (-want +got):\n%s", d)
	}
}

func TestRunActionConcurrentStacks(t *testing.T) {
	first := NewRecord(nil)
	second := NewRecord(nil)

	firstStarted := make(chan struct{})
	firstRelease := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- RunAction(first, "first", nil, func() error {
			close(firstStarted)
			<-firstRelease
			return nil
		})
	}()
	<-firstStarted

	secondStarted := make(chan struct{})
	secondRelease := make(chan struct{})
	secondDone := make(chan error, 1)
	go func() {
		secondDone <- RunAction(second, "second", nil, func() error {
			close(secondStarted)
			<-secondRelease
			// the first action finished underneath us; ours must survive
			cur, ok := CurrentAction()
			if !ok || cur.Name != "second" {
				t.Errorf("current action %+v ok=%v", cur, ok)
			}
			return nil
		})
	}()
	<-secondStarted

	close(firstRelease)
	if err := <-firstDone; err != nil {
		t.Fatal(err)
	}
	close(secondRelease)
	if err := <-secondDone; err != nil {
		t.Fatal(err)
	}
	if _, ok := CurrentAction(); ok {
		t.Error("action still current after both returned")
	}
}

func TestRunActionNested(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})

	var inner ActionCall
	err := RunAction(rec, "outer", nil, func() error {
		return RunAction(rec, "inner", nil, func() error {
			inner, _ = CurrentAction()
			return nil
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	if inner.Name != "inner" {
		t.Fatalf("innermost action %q", inner.Name)
	}
	if _, ok := CurrentAction(); ok {
		t.Error("stack not unwound")
	}
}

func TestRunActionErrorKeepsMutations(t *testing.T) {
	rec := NewRecord(map[string]any{"count": 0})
	boom := errors.New("boom")

	var notified int
	dispose := AddActionRecorder(rec, func(ActionCall) { notified++ })
	defer dispose()

	err := RunAction(rec, "partial", nil, func() error {
		if err := rec.Child("count").SetValue(5); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	// no rollback; the recorder still sees the failed action
	if got := count(rec); got != 5 {
		t.Fatalf("count %v", got)
	}
	if notified != 1 {
		t.Fatalf("recorder notified %d times", notified)
	}
	if _, ok := CurrentAction(); ok {
		t.Error("stack not unwound after error")
	}
}

func TestActionRecorderSeesDescendants(t *testing.T) {
	root := NewRecord(map[string]any{})
	child := NewRecord(map[string]any{"count": 0})
	if err := root.AddChild("child", child); err != nil {
		t.Fatal(err)
	}

	var paths []string
	dispose := AddActionRecorder(root, func(c ActionCall) { paths = append(paths, c.Path) })
	defer dispose()

	if err := RunAction(child, "poke", nil, func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"/child"}, paths); d != "" {
		t.Errorf("paths (-want +got):\n%s", d)
	}
}
