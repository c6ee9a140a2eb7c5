package encode

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/bmartel/jotai-state-tree/node"
)

// Colors styles the parts of a rendered patch line.
type Colors struct {
	Op    map[node.Op]func(string, ...any) string
	Path  func(string, ...any) string
	Value func(string, ...any) string
}

// NewColors returns the default color table.
func NewColors() *Colors {
	return &Colors{
		Op: map[node.Op]func(string, ...any) string{
			node.OpReplace: color.YellowString,
			node.OpAdd:     color.GreenString,
			node.OpRemove:  color.RedString,
		},
		Path:  color.RGB(128, 168, 196).SprintfFunc(),
		Value: color.RGB(128, 216, 236).SprintfFunc(),
	}
}

// NoColors returns a pass-through table for plain text output.
func NoColors() *Colors {
	return &Colors{
		Op:    map[node.Op]func(string, ...any) string{},
		Path:  fmt.Sprintf,
		Value: fmt.Sprintf,
	}
}

func (c *Colors) op(op node.Op) func(string, ...any) string {
	if fn, ok := c.Op[op]; ok {
		return fn
	}
	return fmt.Sprintf
}

// PatchText renders patches one per line for human consumption.
func PatchText(patches []node.Patch, colors *Colors) string {
	if colors == nil {
		colors = NoColors()
	}
	var b strings.Builder
	for _, p := range patches {
		path := p.Path
		if path == "" {
			path = "/"
		}
		b.WriteString(colors.op(p.Op)("%s", string(p.Op)))
		b.WriteByte(' ')
		b.WriteString(colors.Path("%s", path))
		if p.Op != node.OpRemove {
			v, err := JSON(p.Value)
			if err != nil {
				v = []byte(fmt.Sprintf("%v", p.Value))
			}
			b.WriteByte(' ')
			b.WriteString(colors.Value("%s", v))
		}
		if p.OldValue != nil {
			v, err := JSON(p.OldValue)
			if err != nil {
				v = []byte(fmt.Sprintf("%v", p.OldValue))
			}
			b.WriteString(" (was ")
			b.WriteString(colors.Value("%s", v))
			b.WriteByte(')')
		}
		b.WriteByte('\n')
	}
	return b.String()
}
