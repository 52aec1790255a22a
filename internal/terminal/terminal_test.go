package terminal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atomicstack/kbconsole/internal/console"
	"github.com/atomicstack/kbconsole/internal/keys"
	"github.com/atomicstack/kbconsole/internal/markup"
	"github.com/atomicstack/kbconsole/internal/menu"
)

func typeText(t *testing.T, term *Terminal, text string) {
	t.Helper()
	for _, r := range text {
		e, ok := keys.FromRune(r)
		require.True(t, ok, "rune %q not typeable", r)
		term.HandleKey(e)
	}
}

func press(term *Terminal, key keys.KeyID) {
	term.HandleKey(keys.Event{Key: key})
}

func waitForMode(t *testing.T, term *Terminal, mode Mode) {
	t.Helper()
	require.Eventually(t, func() bool { return term.Mode() == mode }, 2*time.Second, 5*time.Millisecond)
}

func texts(entries []console.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Text)
	}
	return out
}

func newTerminal(t *testing.T, build BuildFunc, opts Options) *Terminal {
	t.Helper()
	term := New(context.Background(), build, opts)
	t.Cleanup(term.Close)
	return term
}

func TestStartsWithMenuAndUpdatesInPlace(t *testing.T) {
	term := newTerminal(t, func(*Terminal) *menu.Item {
		return menu.NewItem("Main", menu.NewItem("One"), menu.NewItem("Two"))
	}, Options{})

	entries := term.Log().Entries()
	require.Len(t, entries, 1)
	require.True(t, entries[0].IsMenu)
	require.Equal(t, "[[x]] One\n[[ ]] Two\n", entries[0].Text)

	press(term, keys.KeyDown)
	press(term, keys.KeyDown)
	entries = term.Log().Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "[[ ]] One\n[[x]] Two\n", entries[0].Text)
	require.Equal(t, 1, term.Navigator().Cursor())
}

func TestCharactersIgnoredWhileNavigating(t *testing.T) {
	term := newTerminal(t, func(*Terminal) *menu.Item {
		return menu.NewItem("Main", menu.NewItem("One"))
	}, Options{})

	typeText(t, term, "abc")
	press(term, keys.KeyBackspace)
	require.Equal(t, DefaultPrompt, term.Prompt())
	require.Equal(t, ModeNavigating, term.Mode())
}

func TestPromptFlow(t *testing.T) {
	var answer string
	term := newTerminal(t, func(term *Terminal) *menu.Item {
		ask := menu.NewItem("Ask").WithAction(func(ctx context.Context) (bool, error) {
			term.WriteLine("Name?")
			line, err := term.ReadLine(ctx)
			if err != nil {
				return false, err
			}
			answer = line
			term.WriteLine("Hello " + markup.Escape(line))
			return false, nil
		})
		return menu.NewItem("Main", menu.NewItem("Other"), ask)
	}, Options{})

	press(term, keys.KeyDown)
	press(term, keys.KeyEnter)
	waitForMode(t, term, ModeCollectingLine)

	typeText(t, term, "Bx")
	press(term, keys.KeyBackspace)
	typeText(t, term, "o[b]")
	require.Equal(t, "> Bo[b]", term.Prompt())
	press(term, keys.KeyEnter)
	term.Wait()

	require.Equal(t, "Bo[b]", answer)
	require.Equal(t, ModeNavigating, term.Mode())
	require.Equal(t, DefaultPrompt, term.Prompt())
	require.Equal(t, []string{
		"[[ ]] Other\n[[x]] Ask\n",
		"Name?",
		"> Bo[[b]]",
		"",
		"Hello Bo[[b]]",
		"[[ ]] Other\n[[x]] Ask\n",
	}, texts(term.Log().Entries()))
	require.Equal(t, "Main", term.Navigator().Root().Label)
}

func TestBackspaceKeepsPrefix(t *testing.T) {
	term := newTerminal(t, func(term *Terminal) *menu.Item {
		return menu.NewItem("Main", menu.NewItem("Ask").WithAction(func(ctx context.Context) (bool, error) {
			_, err := term.ReadLine(ctx)
			return false, err
		}))
	}, Options{Prompt: "$ "})

	press(term, keys.KeyEnter)
	waitForMode(t, term, ModeCollectingLine)
	typeText(t, term, "a")
	for i := 0; i < 4; i++ {
		press(term, keys.KeyBackspace)
	}
	require.Equal(t, "$ ", term.Prompt())
	press(term, keys.KeyEnter)
	term.Wait()
}

func TestNavigationErrorIsReported(t *testing.T) {
	term := newTerminal(t, func(*Terminal) *menu.Item {
		return menu.NewItem("Empty")
	}, Options{})

	press(term, keys.KeyEnter)
	term.Wait()

	entries := term.Log().Entries()
	require.Len(t, entries, 3)
	require.Equal(t, markup.Wrap("red", menu.ErrEmptyMenu.Error()), entries[1].Text)
	require.True(t, entries[2].IsMenu)
}

func TestActionErrorWrittenInRed(t *testing.T) {
	term := newTerminal(t, func(*Terminal) *menu.Item {
		return menu.NewItem("Main", menu.NewItem("Fail").WithAction(func(context.Context) (bool, error) {
			return false, errors.New("device busy")
		}))
	}, Options{})

	press(term, keys.KeyEnter)
	term.Wait()

	got := texts(term.Log().Entries())
	require.Contains(t, got, "[red]device busy[/]")
	require.Equal(t, "Main", term.Navigator().Root().Label)
}

func TestBackThroughSubmenus(t *testing.T) {
	term := newTerminal(t, func(*Terminal) *menu.Item {
		sub := menu.NewItem("Sub", menu.NewItem("Leaf"), menu.NewItem("Back").WithCommand(menu.CommandBack))
		return menu.NewItem("Main", sub)
	}, Options{})

	press(term, keys.KeyEnter)
	term.Wait()
	require.Equal(t, []string{"Main", "Sub"}, term.Breadcrumb())

	press(term, keys.KeyDown)
	press(term, keys.KeyEnter)
	term.Wait()
	require.Equal(t, []string{"Main"}, term.Breadcrumb())
}

func TestDisconnectLeafReturnsToTop(t *testing.T) {
	cleared := false
	term := newTerminal(t, func(term *Terminal) *menu.Item {
		leave := menu.NewItem("Back").WithCommand(menu.CommandDisconnect).WithAction(func(context.Context) (bool, error) {
			term.Clear()
			cleared = true
			return true, nil
		})
		return menu.NewItem("Main", menu.NewItem("Connect", menu.NewItem("Status"), leave))
	}, Options{RootMenu: "connect"})

	require.Equal(t, []string{"Main", "Connect"}, term.Breadcrumb())
	press(term, keys.KeyDown)
	press(term, keys.KeyEnter)
	term.Wait()

	require.True(t, cleared)
	require.Equal(t, []string{"Main"}, term.Breadcrumb())
	entries := term.Log().Entries()
	require.Len(t, entries, 1)
	require.True(t, entries[0].IsMenu)
}

func TestClosedSubmenuReturnsToContainer(t *testing.T) {
	term := newTerminal(t, func(*Terminal) *menu.Item {
		connect := menu.NewItem("Connect", menu.NewItem("Status")).WithAction(func(context.Context) (bool, error) {
			return false, nil
		})
		return menu.NewItem("Main", menu.NewItem("Help"), connect)
	}, Options{})

	press(term, keys.KeyDown)
	press(term, keys.KeyEnter)
	term.Wait()
	require.Equal(t, []string{"Main"}, term.Breadcrumb())
	require.Equal(t, 1, term.Navigator().Cursor())
}

func TestUnknownRootMenuFallsBack(t *testing.T) {
	term := newTerminal(t, func(*Terminal) *menu.Item {
		return menu.NewItem("Main", menu.NewItem("One"))
	}, Options{RootMenu: "nowhere"})

	entries := term.Log().Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "[red]Unknown menu \"nowhere\"[/]", entries[0].Text)
	require.Equal(t, []string{"Main"}, term.Breadcrumb())
}

func TestEscapeCancelsPrompt(t *testing.T) {
	result := make(chan error, 1)
	term := newTerminal(t, func(term *Terminal) *menu.Item {
		return menu.NewItem("Main", menu.NewItem("Ask").WithAction(func(ctx context.Context) (bool, error) {
			_, err := term.ReadLine(ctx)
			result <- err
			return false, nil
		}))
	}, Options{})

	press(term, keys.KeyEnter)
	waitForMode(t, term, ModeCollectingLine)
	typeText(t, term, "half")
	press(term, keys.KeyEscape)
	term.Wait()

	require.ErrorIs(t, <-result, ErrPromptCancelled)
	require.Equal(t, ModeNavigating, term.Mode())
	require.Equal(t, DefaultPrompt, term.Prompt())
}

func askingTerminal(t *testing.T, answers chan<- string) *Terminal {
	t.Helper()
	return newTerminal(t, func(term *Terminal) *menu.Item {
		ask := menu.NewItem("Ask").WithAction(func(ctx context.Context) (bool, error) {
			line, err := term.ReadLine(ctx)
			if err != nil {
				answers <- "error: " + err.Error()
				return false, nil
			}
			answers <- line
			return false, nil
		})
		return menu.NewItem("Main", ask, menu.NewItem("Other"))
	}, Options{})
}

func TestEscapeAfterSubmitDoesNotLeakIntoNextPrompt(t *testing.T) {
	answers := make(chan string, 1)
	term := askingTerminal(t, answers)

	for i := 0; i < 20; i++ {
		press(term, keys.KeyEnter)
		waitForMode(t, term, ModeCollectingLine)
		typeText(t, term, "old")
		press(term, keys.KeyEnter)
		press(term, keys.KeyEscape)
		term.Wait()
		require.Equal(t, "old", <-answers, "run %d", i)
	}

	press(term, keys.KeyEnter)
	waitForMode(t, term, ModeCollectingLine)
	require.Never(t, func() bool { return len(answers) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	typeText(t, term, "new")
	press(term, keys.KeyEnter)
	term.Wait()
	require.Equal(t, "new", <-answers)
}

func TestReadLineIgnoresLeftoverLines(t *testing.T) {
	answers := make(chan string, 1)
	term := askingTerminal(t, answers)

	require.NoError(t, term.bridge.WriteLine("Y"))
	require.Eventually(t, func() bool { return term.bridge.Pending() == 1 }, 2*time.Second, 5*time.Millisecond)

	press(term, keys.KeyEnter)
	waitForMode(t, term, ModeCollectingLine)
	require.Never(t, func() bool { return len(answers) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	require.Zero(t, term.bridge.Pending())

	typeText(t, term, "n")
	press(term, keys.KeyEnter)
	term.Wait()
	require.Equal(t, "n", <-answers)
}

func TestArrowsMoveCursorWhileCollecting(t *testing.T) {
	answers := make(chan string, 1)
	term := askingTerminal(t, answers)

	press(term, keys.KeyEnter)
	waitForMode(t, term, ModeCollectingLine)
	typeText(t, term, "ab")

	press(term, keys.KeyDown)
	require.Equal(t, 1, term.Navigator().Cursor())
	require.Equal(t, ModeCollectingLine, term.Mode())
	require.Equal(t, "> ab", term.Prompt())
	require.Equal(t, "[[ ]] Ask\n[[x]] Other\n", term.Log().Entries()[0].Text)

	press(term, keys.KeyUp)
	require.Zero(t, term.Navigator().Cursor())
	require.Equal(t, "> ab", term.Prompt())

	press(term, keys.KeyEscape)
	term.Wait()
	require.Equal(t, "error: "+ErrPromptCancelled.Error(), <-answers)
}

func TestCloseAbandonsPendingPrompt(t *testing.T) {
	result := make(chan error, 1)
	term := New(context.Background(), func(term *Terminal) *menu.Item {
		return menu.NewItem("Main", menu.NewItem("Ask").WithAction(func(ctx context.Context) (bool, error) {
			_, err := term.ReadLine(ctx)
			result <- err
			return false, err
		}))
	}, Options{})

	press(term, keys.KeyEnter)
	waitForMode(t, term, ModeCollectingLine)

	done := make(chan struct{})
	go func() {
		term.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	require.ErrorIs(t, <-result, context.Canceled)
	require.Equal(t, "Main", term.Navigator().Root().Label)
}

func TestObserversAndNotifications(t *testing.T) {
	rec := &recorder{}
	term := newTerminal(t, func(*Terminal) *menu.Item {
		return menu.NewItem("Main", menu.NewItem("One"))
	}, Options{Observers: []console.Observer{rec}})

	select {
	case <-term.Changes():
	default:
		t.Fatal("expected a pending change notification")
	}
	term.SetPanel("layout")
	require.Equal(t, "layout", term.Panel())
	<-term.Changes()

	term.WriteLine("line")
	require.Len(t, rec.entries, 2)
	require.Equal(t, "line", rec.entries[1].Text)

	term.RequestQuit()
	term.RequestQuit()
	select {
	case <-term.QuitRequested():
	default:
		t.Fatal("expected quit request")
	}
}

type recorder struct{ entries []console.Entry }

func (r *recorder) EntryAppended(_ int, e console.Entry) { r.entries = append(r.entries, e) }

func (r *recorder) EntryUpdated(int, console.Entry) {}
