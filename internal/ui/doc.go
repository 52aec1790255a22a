// Package ui contains the Bubble Tea program that renders a terminal.Terminal.
// The Model owns no console state of its own: the log, the menu and the
// prompt live in the terminal, and the model only lays them out and forwards
// key presses.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages, which are routed
//     through a typed handler registry so each tea.Msg is handled by a focused
//     function.
//   - Key presses are translated by keys.FromTea and handed to
//     Terminal.HandleKey. Scrolling and quitting are the only keys the model
//     keeps for itself (see keymap.go).
//   - Menu actions run on the terminal's worker goroutines. Whenever they
//     write output the terminal signals Changes; waitForTerminalEvent turns
//     that signal into a terminalChangedMsg, and a closed QuitRequested
//     channel into terminalQuitMsg.
//
// Layout (view.go): a breadcrumb header, the scrolling console log with the
// optional device panel beside it, the prompt line, and the key help footer.
package ui
