package menu

import (
	"context"
	"fmt"
)

// Command tags an item with navigation meaning. Only CommandBack changes how
// the navigator moves; other tags are free for callers to interpret.
type Command string

const (
	CommandNone       Command = ""
	CommandBack       Command = "back"
	CommandDisconnect Command = "disconnect"
)

// Action runs when an item is selected. The bool reports whether the item's
// subtree should be treated as still open; it is advisory and never changes
// navigation.
type Action func(ctx context.Context) (bool, error)

// Item is a node in the menu tree.
type Item struct {
	Label   string
	Command Command
	Action  Action

	children []*Item
	previous *Item
}

// NewItem builds an item with the given children in display order.
func NewItem(label string, children ...*Item) *Item {
	return &Item{Label: label, children: children}
}

// WithAction sets the action run on selection.
func (i *Item) WithAction(action Action) *Item {
	i.Action = action
	return i
}

// WithCommand sets the navigation tag.
func (i *Item) WithCommand(cmd Command) *Item {
	i.Command = cmd
	return i
}

// Add appends children. Call Link again afterwards.
func (i *Item) Add(children ...*Item) *Item {
	i.children = append(i.children, children...)
	return i
}

// Children returns the ordered children. Callers must not modify the slice.
func (i *Item) Children() []*Item {
	return i.children
}

// Len returns the number of children.
func (i *Item) Len() int {
	return len(i.children)
}

// Child returns the child at idx, or nil when idx is out of range.
func (i *Item) Child(idx int) *Item {
	if idx < 0 || idx >= len(i.children) {
		return nil
	}
	return i.children[idx]
}

// IndexOf returns the position of child, or -1.
func (i *Item) IndexOf(child *Item) int {
	for idx, c := range i.children {
		if c == child {
			return idx
		}
	}
	return -1
}

// Previous returns the item whose children list contains i. It is nil for
// the tree root and before Link runs.
func (i *Item) Previous() *Item {
	return i.previous
}

// Link walks the tree depth-first and points every child at its container.
// It is safe to call again after Add. An item listed under two different
// parents, or reachable from itself, panics.
func Link(root *Item) {
	if root == nil {
		return
	}
	visiting := map[*Item]bool{}
	var walk func(parent *Item)
	walk = func(parent *Item) {
		if visiting[parent] {
			panic(fmt.Sprintf("menu: item %q is its own ancestor", parent.Label))
		}
		visiting[parent] = true
		for _, child := range parent.children {
			if child == nil {
				panic(fmt.Sprintf("menu: nil child under %q", parent.Label))
			}
			if child.previous != nil && child.previous != parent {
				panic(fmt.Sprintf("menu: item %q listed under both %q and %q", child.Label, child.previous.Label, parent.Label))
			}
			child.previous = parent
			walk(child)
		}
		delete(visiting, parent)
	}
	walk(root)
}
