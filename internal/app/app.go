package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/kbconsole/internal/console"
	"github.com/atomicstack/kbconsole/internal/kbmenu"
	"github.com/atomicstack/kbconsole/internal/logging"
	"github.com/atomicstack/kbconsole/internal/menu"
	"github.com/atomicstack/kbconsole/internal/terminal"
	"github.com/atomicstack/kbconsole/internal/transcript"
	"github.com/atomicstack/kbconsole/internal/ui"
)

// Config describes user-provided application options.
type Config struct {
	Prompt     string
	RootMenu   string
	Width      int
	Height     int
	ShowFooter bool
	// HistoryDB is the sqlite transcript path; empty disables history.
	HistoryDB  string
	ProfileDir string
	// Latency and WriteInterval shape simulated device writes.
	Latency       time.Duration
	WriteInterval time.Duration
}

// Session bundles the running console with the services it owns.
type Session struct {
	Terminal   *terminal.Terminal
	Controller *kbmenu.Controller
	journal    *transcript.Journal
}

// NewSession opens the optional transcript and builds the console.
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	s := &Session{}
	var observers []console.Observer
	if cfg.HistoryDB != "" {
		j, err := transcript.Open(ctx, cfg.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		s.journal = j
		observers = append(observers, j)
	}
	s.Terminal = terminal.New(ctx, func(t *terminal.Terminal) *menu.Item {
		s.Controller = kbmenu.New(t, kbmenu.Options{
			ProfileDir:    cfg.ProfileDir,
			Latency:       cfg.Latency,
			WriteInterval: cfg.WriteInterval,
		})
		return s.Controller.Root()
	}, terminal.Options{
		Prompt:    cfg.Prompt,
		RootMenu:  cfg.RootMenu,
		Observers: observers,
	})
	return s, nil
}

// Journal returns the transcript, or nil when history is disabled.
func (s *Session) Journal() *transcript.Journal {
	return s.journal
}

// Close shuts the console down before releasing the device and history.
func (s *Session) Close() error {
	s.Terminal.Close()
	var errs []error
	if err := s.Controller.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close device: %w", err))
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Run bootstraps and executes the Bubble Tea program.
func Run(cfg Config) error {
	session, err := NewSession(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logging.Error(cerr)
		}
	}()
	model := ui.NewModel(session.Terminal, ui.Options{
		Width:      cfg.Width,
		Height:     cfg.Height,
		ShowFooter: cfg.ShowFooter,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
