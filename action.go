package statetree

import (
	"sync"

	"github.com/bmartel/jotai-state-tree/debug"
)

// The action context attributes mutations to the action that made them.
// The core is single-threaded by contract, but the stack is still
// guarded so that independent trees driven from different goroutines do
// not corrupt it; restore-on-exit uses defer so a panicking action body
// leaves the stack balanced. A throwing action does not roll back the
// mutations it already made.
var actions = struct {
	mu        sync.Mutex
	stack     []*ActionCall
	listeners map[int]ActionListener
	next      int
}{listeners: map[int]ActionListener{}}

// RunAction invokes fn with (name, args) on owner as the current action.
// On completion the global action listeners and the action recorders of
// owner and its ancestors are notified, whether or not fn failed.
func RunAction(owner *Node, name string, args []any, fn func() error) error {
	call := ActionCall{Name: name, Path: owner.Path(), Args: args}
	actions.mu.Lock()
	actions.stack = append(actions.stack, &call)
	actions.mu.Unlock()
	if debug.Action() {
		debug.Logf("action %s at %q begin\n", name, call.Path)
	}
	defer func() {
		actions.mu.Lock()
		// remove this call's own entry; under concurrent trees the top
		// may belong to another goroutine's action
		for i := len(actions.stack) - 1; i >= 0; i-- {
			if actions.stack[i] == &call {
				actions.stack = append(actions.stack[:i], actions.stack[i+1:]...)
				break
			}
		}
		fns := make([]ActionListener, 0, len(actions.listeners))
		for _, fn := range actions.listeners {
			fns = append(fns, fn)
		}
		actions.mu.Unlock()
		for _, fn := range fns {
			fn(call)
		}
		owner.NotifyAction(call)
		if debug.Action() {
			debug.Logf("action %s at %q end\n", name, call.Path)
		}
	}()
	return fn()
}

// CurrentAction returns the innermost in-flight action, if any.
func CurrentAction() (ActionCall, bool) {
	actions.mu.Lock()
	defer actions.mu.Unlock()
	if len(actions.stack) == 0 {
		return ActionCall{}, false
	}
	return *actions.stack[len(actions.stack)-1], true
}

// OnAction subscribes a global action listener and returns a disposer.
func OnAction(fn ActionListener) func() {
	actions.mu.Lock()
	defer actions.mu.Unlock()
	id := actions.next
	actions.next++
	actions.listeners[id] = fn
	return func() {
		actions.mu.Lock()
		defer actions.mu.Unlock()
		delete(actions.listeners, id)
	}
}

// AddActionRecorder subscribes a recorder on target, notified for
// actions run on target or any of its descendants.
func AddActionRecorder(target *Node, fn ActionListener) func() {
	return target.OnAction(fn)
}
