package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/atomicstack/kbconsole/internal/logging/events"
	"github.com/atomicstack/kbconsole/internal/markup"
)

var (
	// ErrOutOfRange is the common cause of selection attempts that have no
	// item under the cursor.
	ErrOutOfRange = errors.New("menu: selection out of range")
	// ErrEmptyMenu is returned when the current root has no children.
	ErrEmptyMenu = fmt.Errorf("%w: menu is empty", ErrOutOfRange)
	// ErrCursorOutOfRange is returned when the cursor points past the end.
	ErrCursorOutOfRange = fmt.Errorf("%w: cursor past last item", ErrOutOfRange)
	// ErrSelectionInProgress is returned while another selection is still
	// waiting on its action.
	ErrSelectionInProgress = errors.New("menu: selection already in progress")
)

// Selection describes the outcome of SelectCurrent.
type Selection struct {
	Item  *Item
	Label string
	// Open is the action's advisory result; true when no action ran.
	Open bool
	// Err is the action's error. The selection still completed unless
	// Abandoned is set.
	Err error
	// Abandoned is set when the context ended while the action ran and the
	// action gave up; the root is left unchanged.
	Abandoned bool
}

// Navigator tracks the displayed submenu and the cursor within it.
type Navigator struct {
	mu        sync.Mutex
	top       *Item
	root      *Item
	cursor    int
	selecting bool
}

// NewNavigator links the tree under top and starts at it.
func NewNavigator(top *Item) *Navigator {
	Link(top)
	return &Navigator{top: top, root: top}
}

// Top returns the tree root.
func (n *Navigator) Top() *Item {
	return n.top
}

// Root returns the submenu currently displayed.
func (n *Navigator) Root() *Item {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.root
}

// Cursor returns the highlighted index.
func (n *Navigator) Cursor() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cursor
}

// NavigateUp moves the cursor towards the first item. It never wraps and
// reports whether the cursor moved.
func (n *Navigator) NavigateUp() bool {
	return n.move(-1)
}

// NavigateDown moves the cursor towards the last item. It never wraps and
// reports whether the cursor moved.
func (n *Navigator) NavigateDown() bool {
	return n.move(1)
}

func (n *Navigator) move(delta int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := n.root.Len()
	if count == 0 {
		return false
	}
	next := clamp(n.cursor+delta, 0, count-1)
	if next == n.cursor {
		return false
	}
	n.cursor = next
	events.UI.MenuCursor(markup.Plain(n.root.Label), n.cursor)
	return true
}

// SelectCurrent runs the action of the highlighted item and then moves the
// root. Only one selection may be in flight at a time.
func (n *Navigator) SelectCurrent(ctx context.Context) (Selection, error) {
	n.mu.Lock()
	if n.selecting {
		n.mu.Unlock()
		return Selection{}, ErrSelectionInProgress
	}
	count := n.root.Len()
	if count == 0 {
		n.mu.Unlock()
		return Selection{}, ErrEmptyMenu
	}
	if n.cursor >= count {
		n.mu.Unlock()
		return Selection{}, ErrCursorOutOfRange
	}
	item := n.root.Child(n.cursor)
	n.selecting = true
	n.mu.Unlock()

	sel := Selection{Item: item, Label: item.Label}
	sel.Open, sel.Err = n.runAction(ctx, item)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.selecting = false
	if sel.Err != nil && ctx.Err() != nil && errors.Is(sel.Err, ctx.Err()) {
		sel.Abandoned = true
		return sel, nil
	}

	if item.Command == CommandBack {
		// A back item sits inside the submenu it leaves, so its parent is the
		// current root and the grandparent is the menu shown before it.
		if parent := item.Previous(); parent != nil && parent.Previous() != nil {
			n.root = parent.Previous()
		}
	} else {
		n.root = item
	}
	n.cursor = 0
	events.UI.MenuEnter(markup.Plain(n.root.Label), string(item.Command), n.depthLocked())
	return sel, nil
}

// runAction calls the item's action. A panicking action still releases the
// selection guard; on a normal return SelectCurrent releases it together with
// the root update.
func (n *Navigator) runAction(ctx context.Context, item *Item) (open bool, err error) {
	returned := false
	defer func() {
		if !returned {
			n.mu.Lock()
			n.selecting = false
			n.mu.Unlock()
		}
	}()
	if item.Action == nil {
		returned = true
		return true, nil
	}
	open, err = item.Action(ctx)
	returned = true
	return open, err
}

// SetRoot displays root with the cursor clamped into range.
func (n *Navigator) SetRoot(root *Item, cursor int) {
	if root == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.root = root
	n.cursor = clamp(cursor, 0, max(root.Len()-1, 0))
}

// Reset returns to the top of the tree.
func (n *Navigator) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.root = n.top
	n.cursor = 0
	events.UI.MenuReset(markup.Plain(n.top.Label))
}

// Path returns the chain of items from the top of the tree to the current
// root.
func (n *Navigator) Path() []*Item {
	n.mu.Lock()
	defer n.mu.Unlock()
	var path []*Item
	for item := n.root; item != nil; item = item.Previous() {
		path = append([]*Item{item}, path...)
	}
	return path
}

func (n *Navigator) depthLocked() int {
	depth := 0
	for item := n.root.Previous(); item != nil; item = item.Previous() {
		depth++
	}
	return depth
}

// RenderCurrentMenu lists the current root's children one per line, marking
// the cursor. The output is markup; the doubled brackets display as "[x]"
// and "[ ]".
func (n *Navigator) RenderCurrentMenu() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var b strings.Builder
	for idx, child := range n.root.Children() {
		if idx == n.cursor {
			b.WriteString("[[x]] ")
		} else {
			b.WriteString("[[ ]] ")
		}
		b.WriteString(child.Label)
		b.WriteByte('\n')
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
