package node

// Cell is a single mutable value holder with change notification. It is
// the storage primitive under every scalar and reference node.
type Cell struct {
	value     any
	listeners listeners[CellListener]
}

// CellListener observes a cell write with the previous and new value.
type CellListener func(old, new any)

func (c *Cell) Get() any {
	return c.value
}

func (c *Cell) Set(v any) {
	old := c.value
	c.value = v
	c.listeners.each(func(fn CellListener) {
		fn(old, v)
	})
}

// OnChange subscribes to cell writes and returns a disposer.
func (c *Cell) OnChange(fn CellListener) func() {
	return c.listeners.add(fn)
}
