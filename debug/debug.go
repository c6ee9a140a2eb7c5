// Package debug provides env-var-gated diagnostic logging for the state
// tree. Each area is enabled by setting the corresponding JST_DEBUG_*
// variable to a true value.
package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type debug struct {
	Patch    bool
	Snapshot bool
	Undo     bool
	Registry bool
	Action   bool
}

var d *debug

func init() {
	d = &debug{}
	d.Patch = boolEnv("JST_DEBUG_PATCH")
	d.Snapshot = boolEnv("JST_DEBUG_SNAPSHOT")
	d.Undo = boolEnv("JST_DEBUG_UNDO")
	d.Registry = boolEnv("JST_DEBUG_REGISTRY")
	d.Action = boolEnv("JST_DEBUG_ACTION")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Patch() bool {
	return d.Patch
}
func Snapshot() bool {
	return d.Snapshot
}
func Undo() bool {
	return d.Undo
}
func Registry() bool {
	return d.Registry
}
func Action() bool {
	return d.Action
}

// Logf writes a diagnostic line to stderr. Map, slice, and json.Number
// arguments are pretty-printed as JSON.
func Logf(msg string, args ...any) {
	for i := range args {
		a := args[i]
		switch a.(type) {
		case map[string]any, []any, json.Number:
			b, err := json.MarshalIndent(a, "   |", "  ")
			if err != nil {
				args[i] = fmt.Sprintf("%v", a)
				continue
			}
			args[i] = string(b)
		}
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}
