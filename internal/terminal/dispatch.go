package terminal

import (
	"errors"

	"github.com/atomicstack/kbconsole/internal/keys"
	"github.com/atomicstack/kbconsole/internal/logging"
	"github.com/atomicstack/kbconsole/internal/logging/events"
	"github.com/atomicstack/kbconsole/internal/markup"
	"github.com/atomicstack/kbconsole/internal/menu"
)

// ErrPromptCancelled is returned by ReadLine when the user presses Escape.
var ErrPromptCancelled = errors.New("prompt cancelled")

// HandleKey interprets one key press according to the current mode.
func (t *Terminal) HandleKey(e keys.Event) {
	events.UI.Key(e.String())
	switch e.Key {
	case keys.KeyUp:
		t.nav.NavigateUp()
		t.UpdateMenu()
	case keys.KeyDown:
		t.nav.NavigateDown()
		t.UpdateMenu()
	case keys.KeyEnter:
		t.handleEnter()
	case keys.KeyBackspace:
		t.mu.Lock()
		changed := t.mode == ModeCollectingLine && t.prompt.Backspace()
		t.mu.Unlock()
		if changed {
			t.notify()
		}
	case keys.KeyEscape:
		t.mu.Lock()
		cancel := t.cancelRead
		t.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	default:
		r, ok := e.Rune()
		if !ok {
			return
		}
		t.mu.Lock()
		collecting := t.mode == ModeCollectingLine
		if collecting {
			t.prompt.Append(r)
		}
		t.mu.Unlock()
		if collecting {
			t.notify()
		}
	}
}

func (t *Terminal) handleEnter() {
	t.mu.Lock()
	if t.mode == ModeCollectingLine {
		full := t.prompt.String()
		value := t.prompt.Value()
		t.prompt.Reset()
		// The prompt is answered: Escape can no longer cancel it and further
		// keys belong to the menu until the next ReadLine.
		t.mode = ModeNavigating
		t.cancelRead = nil
		t.mu.Unlock()
		// Echo before handing the line over so the answer precedes whatever
		// the waiting action prints next.
		t.WriteLine(markup.Escape(full))
		if err := t.bridge.WriteChunk(value + "\n"); err != nil {
			logging.Error(err)
			return
		}
		events.Prompt.Submit(len(value))
		return
	}
	t.mu.Unlock()

	t.wg.Add(1)
	go t.runSelection()
}

func (t *Terminal) runSelection() {
	defer t.wg.Done()
	root := t.nav.Root()
	if item := root.Child(t.nav.Cursor()); item != nil {
		events.Command.Queue(markup.Plain(item.Label), string(item.Command))
	}

	sel, err := t.nav.SelectCurrent(t.ctx)
	if err != nil {
		if errors.Is(err, menu.ErrSelectionInProgress) {
			events.Command.Skip(markup.Plain(root.Label), "busy")
			return
		}
		logging.Error(err)
		t.WriteError(err.Error())
		t.WriteMenu()
		return
	}
	if sel.Abandoned {
		events.Command.Skip(markup.Plain(sel.Label), "abandoned")
		return
	}
	if sel.Err != nil {
		events.Action.Error(sel.Err)
		logging.Error(sel.Err)
		t.WriteError(sel.Err.Error())
	} else if sel.Item.Action != nil {
		events.Action.Success(markup.Plain(sel.Label))
	}
	events.Command.Result(markup.Plain(sel.Label), sel.Err == nil)
	t.settle(sel)
	t.WriteMenu()
}

// settle moves off a submenu that has nothing to show. Entering a leaf, or
// a submenu whose action reported it is not open, returns to the item's
// container with the cursor on the item. A leaf tagged disconnect returns to
// the top of the tree instead.
func (t *Terminal) settle(sel menu.Selection) {
	item := sel.Item
	if t.nav.Root() != item {
		return
	}
	if item.Len() > 0 && sel.Open {
		return
	}
	if item.Command == menu.CommandDisconnect && item.Len() == 0 {
		t.nav.Reset()
		return
	}
	if parent := item.Previous(); parent != nil {
		t.nav.SetRoot(parent, parent.IndexOf(item))
	}
}
