// Package terminal runs a line-oriented console session: a menu driven by
// the cursor keys, and free-text prompts answered by typing a line.
//
// A Terminal owns the console log, the prompt buffer, the menu navigator and
// the line bridge. Menu actions run on a worker goroutine and talk to the
// user through WriteLine, WriteError and ReadLine; the UI observes the log
// through Changes and feeds keys through HandleKey.
package terminal

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/atomicstack/kbconsole/internal/console"
	"github.com/atomicstack/kbconsole/internal/linebridge"
	"github.com/atomicstack/kbconsole/internal/logging/events"
	"github.com/atomicstack/kbconsole/internal/markup"
	"github.com/atomicstack/kbconsole/internal/menu"
)

// Options tune a Terminal.
type Options struct {
	// Prompt prefixes the input line; DefaultPrompt when empty.
	Prompt string
	// RootMenu is a registry path such as "connect/status" to start in.
	RootMenu string
	// Observers receive every appended console entry.
	Observers []console.Observer
}

// BuildFunc constructs the menu tree. It receives the terminal so actions
// can capture it for IO.
type BuildFunc func(*Terminal) *menu.Item

// Terminal is one interactive console session.
type Terminal struct {
	ctx    context.Context
	cancel context.CancelFunc

	log      *console.Log
	nav      *menu.Navigator
	registry *menu.Registry
	bridge   *linebridge.Bridge

	mu         sync.Mutex
	mode       Mode
	prompt     PromptBuffer
	panel      string
	cancelRead context.CancelFunc

	readMu sync.Mutex

	changes  chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// New builds the menu, starts the line bridge and writes the first menu.
func New(ctx context.Context, build BuildFunc, opts Options) *Terminal {
	ctx, cancel := context.WithCancel(ctx)
	prefix := opts.Prompt
	if prefix == "" {
		prefix = DefaultPrompt
	}
	t := &Terminal{
		ctx:     ctx,
		cancel:  cancel,
		log:     console.NewLog(),
		bridge:  linebridge.New(ctx),
		prompt:  NewPromptBuffer(prefix),
		changes: make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}
	for _, o := range opts.Observers {
		t.log.Observe(o)
	}
	root := build(t)
	t.registry = menu.BuildRegistry(root)
	t.nav = menu.NewNavigator(root)
	if path := strings.TrimSpace(opts.RootMenu); path != "" {
		if item, ok := t.registry.Find(path); ok {
			t.nav.SetRoot(item, 0)
		} else {
			t.WriteError(fmt.Sprintf("Unknown menu %q", path))
		}
	}
	t.WriteMenu()
	return t
}

// Log returns the console log.
func (t *Terminal) Log() *console.Log { return t.log }

// Navigator returns the menu navigator.
func (t *Terminal) Navigator() *menu.Navigator { return t.nav }

// Registry returns the path index of the menu tree.
func (t *Terminal) Registry() *menu.Registry { return t.registry }

// Mode returns the current input mode.
func (t *Terminal) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Prompt returns the prompt line including its prefix.
func (t *Terminal) Prompt() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prompt.String()
}

// Input returns the prompt prefix and the text typed so far.
func (t *Terminal) Input() (prefix, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prompt.Prefix(), t.prompt.Value()
}

// Panel returns the side panel text.
func (t *Terminal) Panel() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.panel
}

// SetPanel replaces the side panel text.
func (t *Terminal) SetPanel(text string) {
	t.mu.Lock()
	t.panel = text
	t.mu.Unlock()
	t.notify()
}

// Breadcrumb returns the plain labels from the top of the menu to the
// displayed submenu.
func (t *Terminal) Breadcrumb() []string {
	path := t.nav.Path()
	labels := make([]string, 0, len(path))
	for _, item := range path {
		labels = append(labels, markup.Plain(item.Label))
	}
	return labels
}

// WriteLine appends a console entry.
func (t *Terminal) WriteLine(text string) {
	t.log.Append(console.Entry{Text: text})
	t.notify()
}

// WriteError appends text in red. The text is escaped so it displays
// literally.
func (t *Terminal) WriteError(text string) {
	t.WriteLine(markup.Wrap("red", text))
}

// Write appends text to the last console entry.
func (t *Terminal) Write(text string) {
	t.log.AppendText(text)
	t.notify()
}

// Clear empties the console, the prompt and the side panel.
func (t *Terminal) Clear() {
	t.log.Clear()
	t.mu.Lock()
	t.prompt.Reset()
	t.panel = ""
	t.mu.Unlock()
	t.notify()
}

// WriteMenu appends the rendered menu as a new menu entry.
func (t *Terminal) WriteMenu() {
	t.log.Append(console.Entry{Text: t.nav.RenderCurrentMenu(), IsMenu: true})
	t.notify()
}

// UpdateMenu re-renders the most recent menu entry in place, appending one
// when the log has none.
func (t *Terminal) UpdateMenu() {
	text := t.nav.RenderCurrentMenu()
	if !t.log.ReplaceMenu(text) {
		t.log.Append(console.Entry{Text: text, IsMenu: true})
	}
	t.notify()
}

// ReadLine switches to line collection and waits for the user to submit a
// line. It returns the context error when ctx ends or the terminal closes,
// and ErrPromptCancelled when the user abandons the prompt. Only one
// ReadLine runs at a time.
func (t *Terminal) ReadLine(ctx context.Context) (string, error) {
	t.readMu.Lock()
	defer t.readMu.Unlock()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := context.AfterFunc(t.ctx, func() { cancel(context.Canceled) })
	defer stop()

	// Lines left over from an abandoned prompt answer nothing here.
	if n := t.bridge.Discard(); n > 0 {
		events.Prompt.Discard(n)
	}

	t.mu.Lock()
	t.mode = ModeCollectingLine
	t.cancelRead = func() { cancel(ErrPromptCancelled) }
	prompt := t.prompt.String()
	t.mu.Unlock()
	events.UI.Mode(ModeCollectingLine.String())
	events.Prompt.Begin(prompt)
	t.notify()

	line, err := t.bridge.ReadLine(ctx)

	t.mu.Lock()
	t.mode = ModeNavigating
	t.cancelRead = nil
	t.prompt.Reset()
	t.mu.Unlock()
	events.UI.Mode(ModeNavigating.String())

	if err != nil {
		if cause := context.Cause(ctx); cause != nil {
			err = cause
		}
		events.Prompt.Cancel(err.Error())
		t.notify()
		return "", err
	}
	t.WriteLine("")
	return line, nil
}

// Changes delivers a value whenever visible state may have changed.
// Notifications coalesce.
func (t *Terminal) Changes() <-chan struct{} {
	return t.changes
}

func (t *Terminal) notify() {
	select {
	case t.changes <- struct{}{}:
	default:
	}
}

// RequestQuit asks the host program to exit.
func (t *Terminal) RequestQuit() {
	t.quitOnce.Do(func() {
		close(t.quit)
	})
}

// QuitRequested is closed after RequestQuit.
func (t *Terminal) QuitRequested() <-chan struct{} {
	return t.quit
}

// Wait blocks until every running menu selection has finished.
func (t *Terminal) Wait() {
	t.wg.Wait()
}

// Close cancels pending prompts, stops the bridge and waits for running
// selections to finish.
func (t *Terminal) Close() {
	t.cancel()
	t.bridge.Close()
	t.wg.Wait()
}
