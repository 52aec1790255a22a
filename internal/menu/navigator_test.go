package menu

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/atomicstack/kbconsole/internal/testutil"
)

func sampleTree() (root, a, x, back *Item) {
	x = NewItem("X")
	back = NewItem("Back").WithCommand(CommandBack)
	a = NewItem("A", x, back)
	root = NewItem("Root", a)
	return root, a, x, back
}

func TestSelectAndBackReturnsToGrandparent(t *testing.T) {
	root, a, _, back := sampleTree()
	nav := NewNavigator(root)

	if _, err := nav.SelectCurrent(context.Background()); err != nil {
		t.Fatalf("select A: %v", err)
	}
	if nav.Root() != a {
		t.Fatalf("expected root A, got %q", nav.Root().Label)
	}

	if !nav.NavigateDown() {
		t.Fatal("expected cursor to move onto Back")
	}
	sel, err := nav.SelectCurrent(context.Background())
	if err != nil {
		t.Fatalf("select Back: %v", err)
	}
	if sel.Item != back {
		t.Fatalf("expected Back to be selected, got %q", sel.Label)
	}
	if nav.Root() != root {
		t.Fatalf("expected root Root, got %q", nav.Root().Label)
	}
	if nav.Cursor() != 0 {
		t.Fatalf("expected cursor reset, got %d", nav.Cursor())
	}
}

func TestBackAtTopStaysPut(t *testing.T) {
	back := NewItem("Back").WithCommand(CommandBack)
	root := NewItem("Root", NewItem("Other"), back)
	nav := NewNavigator(root)
	nav.NavigateDown()

	if _, err := nav.SelectCurrent(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.Root() != root {
		t.Fatalf("expected root to stay when there is no grandparent, got %q", nav.Root().Label)
	}
}

func TestDeepBackUsesContainerChain(t *testing.T) {
	back := NewItem("Back").WithCommand(CommandBack)
	leaf := NewItem("Leaf", back)
	mid := NewItem("Mid", leaf)
	root := NewItem("Root", mid)
	nav := NewNavigator(root)

	nav.SetRoot(leaf, 0)
	if _, err := nav.SelectCurrent(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.Root() != mid {
		t.Fatalf("expected Mid, got %q", nav.Root().Label)
	}
}

func TestNavigationClampsAndNeverWraps(t *testing.T) {
	root := NewItem("Root", NewItem("one"), NewItem("two"), NewItem("three"))
	nav := NewNavigator(root)

	if nav.NavigateUp() {
		t.Fatal("expected no movement above the first item")
	}
	for i := 0; i < 5; i++ {
		nav.NavigateDown()
	}
	if nav.Cursor() != 2 {
		t.Fatalf("expected cursor clamped to 2, got %d", nav.Cursor())
	}
	if nav.NavigateDown() {
		t.Fatal("expected no movement past the last item")
	}
}

func TestNavigationRandomWalkStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for size := 0; size < 6; size++ {
		root := NewItem("Root")
		for i := 0; i < size; i++ {
			root.Add(NewItem("item"))
		}
		nav := NewNavigator(root)
		for step := 0; step < 200; step++ {
			if rng.Intn(2) == 0 {
				nav.NavigateUp()
			} else {
				nav.NavigateDown()
			}
			cursor := nav.Cursor()
			if size == 0 && cursor != 0 {
				t.Fatalf("expected cursor 0 for empty menu, got %d", cursor)
			}
			if size > 0 && (cursor < 0 || cursor >= size) {
				t.Fatalf("cursor %d outside [0,%d)", cursor, size)
			}
		}
	}
}

func TestSelectEmptyMenu(t *testing.T) {
	nav := NewNavigator(NewItem("Root"))
	_, err := nav.SelectCurrent(context.Background())
	if !errors.Is(err, ErrEmptyMenu) || !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected empty menu error, got %v", err)
	}
	if nav.NavigateDown() || nav.NavigateUp() {
		t.Fatal("expected navigation to be a no-op on an empty menu")
	}
}

func TestSelectStaleCursor(t *testing.T) {
	root := NewItem("Root", NewItem("one"), NewItem("two"))
	nav := NewNavigator(root)
	nav.NavigateDown()
	nav.mu.Lock()
	root.children = root.children[:1]
	nav.mu.Unlock()

	_, err := nav.SelectCurrent(context.Background())
	if !errors.Is(err, ErrCursorOutOfRange) {
		t.Fatalf("expected stale cursor error, got %v", err)
	}
	if nav.Root() != root {
		t.Fatal("expected root unchanged after a navigation error")
	}
}

func TestActionResultDoesNotChangeNavigation(t *testing.T) {
	boom := errors.New("boom")
	closed := NewItem("closed").WithAction(func(context.Context) (bool, error) { return false, nil })
	failing := NewItem("failing").WithAction(func(context.Context) (bool, error) { return true, boom })
	root := NewItem("Root", closed, failing)

	nav := NewNavigator(root)
	sel, err := nav.SelectCurrent(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Open || nav.Root() != closed {
		t.Fatalf("expected root to move to the selected item regardless of result, got %q", nav.Root().Label)
	}

	nav.SetRoot(root, 1)
	sel, err = nav.SelectCurrent(context.Background())
	if err != nil {
		t.Fatalf("unexpected navigation error: %v", err)
	}
	if !errors.Is(sel.Err, boom) {
		t.Fatalf("expected action error in selection, got %v", sel.Err)
	}
	if nav.Root() != failing {
		t.Fatalf("expected root to move even when the action fails, got %q", nav.Root().Label)
	}
}

func TestCancelledActionAbandonsSelection(t *testing.T) {
	started := make(chan struct{})
	slow := NewItem("slow").WithAction(func(ctx context.Context) (bool, error) {
		close(started)
		<-ctx.Done()
		return false, ctx.Err()
	})
	root := NewItem("Root", slow)
	nav := NewNavigator(root)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	sel, err := nav.SelectCurrent(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sel.Abandoned {
		t.Fatal("expected abandoned selection")
	}
	if nav.Root() != root {
		t.Fatalf("expected root unchanged, got %q", nav.Root().Label)
	}
}

func TestSelectionsDoNotOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	blocking := NewItem("blocking").WithAction(func(context.Context) (bool, error) {
		close(started)
		<-release
		return true, nil
	})
	nav := NewNavigator(NewItem("Root", blocking))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := nav.SelectCurrent(context.Background()); err != nil {
			t.Errorf("first selection failed: %v", err)
		}
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("action never started")
	}
	if _, err := nav.SelectCurrent(context.Background()); !errors.Is(err, ErrSelectionInProgress) {
		t.Fatalf("expected selection in progress, got %v", err)
	}
	nav.NavigateUp()
	if nav.Cursor() != 0 {
		t.Fatal("cursor should stay usable while an action runs")
	}
	close(release)
	wg.Wait()
	if nav.Root() != blocking {
		t.Fatalf("expected root to move after the action, got %q", nav.Root().Label)
	}
}

func TestPanickingActionReleasesSelection(t *testing.T) {
	boom := NewItem("boom").WithAction(func(context.Context) (bool, error) {
		panic("boom")
	})
	calm := NewItem("calm")
	root := NewItem("Root", boom, calm)
	nav := NewNavigator(root)

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Fatalf("expected the action panic, got %v", r)
			}
		}()
		_, _ = nav.SelectCurrent(context.Background())
	}()
	if nav.Root() != root {
		t.Fatalf("panicking action should not move the root, got %q", nav.Root().Label)
	}

	nav.NavigateDown()
	sel, err := nav.SelectCurrent(context.Background())
	if err != nil {
		t.Fatalf("selection after panic failed: %v", err)
	}
	if sel.Item != calm || nav.Root() != calm {
		t.Fatalf("expected calm to be selected, got %q", nav.Root().Label)
	}
}

func TestRenderCurrentMenu(t *testing.T) {
	root := NewItem("Main Menu",
		NewItem("Connect"),
		NewItem("[red]Exit[/]"),
	)
	nav := NewNavigator(root)
	nav.NavigateDown()
	testutil.AssertGolden(t, "menu_render.txt", nav.RenderCurrentMenu())

	if got := NewNavigator(NewItem("empty")).RenderCurrentMenu(); got != "" {
		t.Fatalf("expected empty render, got %q", got)
	}
}

func TestPathAndReset(t *testing.T) {
	root, a, x, _ := sampleTree()
	nav := NewNavigator(root)
	nav.SetRoot(x, 3)
	if nav.Cursor() != 0 {
		t.Fatalf("expected cursor clamped to 0 for a leaf, got %d", nav.Cursor())
	}
	path := nav.Path()
	if len(path) != 3 || path[0] != root || path[1] != a || path[2] != x {
		t.Fatalf("unexpected path %v", path)
	}
	nav.Reset()
	if nav.Root() != root || nav.Cursor() != 0 {
		t.Fatal("expected reset to return to the top")
	}
}
