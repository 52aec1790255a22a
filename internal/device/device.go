// Package device provides simulated keyboards whose settings persist to a
// YAML profile. Menu actions use the Device interface and never see how a
// board stores its state.
package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/atomicstack/kbconsole/internal/logging/events"
)

// ErrClosed is returned by operations on a closed device.
var ErrClosed = errors.New("device closed")

// Info identifies a discoverable board.
type Info struct {
	Index   int
	Name    string
	Vendor  uint16
	Product uint16
}

// FriendlyName is the label shown when choosing a device.
func (i Info) FriendlyName() string {
	return fmt.Sprintf("%s (%04x:%04x)", i.Name, i.Vendor, i.Product)
}

// Device is a connected keyboard.
type Device interface {
	Info() Info
	Settings() Settings
	Apply(ctx context.Context, s Settings) error
	FactoryReset(ctx context.Context) error
	Close() error
}

// Options tune a simulated connection.
type Options struct {
	// ProfilePath is where settings are loaded from and saved to. Empty
	// keeps settings in memory only.
	ProfilePath string
	// Latency delays every write, standing in for the USB round trip.
	Latency time.Duration
	// WriteInterval is the minimum spacing between writes.
	WriteInterval time.Duration
}

var boards = []Info{
	{Name: "Aurora 75", Vendor: 0x3434, Product: 0x0311},
	{Name: "Nimbus TKL", Vendor: 0x3434, Product: 0x0452},
	{Name: "Vector 60", Vendor: 0x320f, Product: 0x5055},
}

// Discover lists the boards available for connection.
func Discover() []Info {
	out := make([]Info, len(boards))
	for i, b := range boards {
		b.Index = i
		out[i] = b
	}
	return out
}

type profile struct {
	Device   string   `yaml:"device"`
	Settings Settings `yaml:"settings"`
}

// Simulator is an in-process Device.
type Simulator struct {
	info     Info
	opts     Options
	throttle *throttle

	mu       sync.Mutex
	settings Settings
	closed   bool
}

// Open connects to the board described by info. A stored profile for the
// board is loaded when present.
func Open(ctx context.Context, info Info, opts Options) (*Simulator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &Simulator{
		info:     info,
		opts:     opts,
		throttle: newThrottle(opts.WriteInterval),
		settings: DefaultSettings(),
	}
	if opts.ProfilePath != "" {
		stored, err := loadProfile(opts.ProfilePath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("load profile %s: %w", opts.ProfilePath, err)
		case stored.Device == info.Name:
			s.settings = stored.Settings
		}
	}
	events.Device.Connect(info.Name, info.Index)
	return s, nil
}

// Info returns the board identity.
func (s *Simulator) Info() Info {
	return s.info
}

// Settings returns a copy of the current settings.
func (s *Simulator) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Apply validates and stores next.
func (s *Simulator) Apply(ctx context.Context, next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	if err := s.write(ctx, next); err != nil {
		return err
	}
	events.Device.Apply(s.info.Name, "settings", next)
	return nil
}

// FactoryReset restores DefaultSettings.
func (s *Simulator) FactoryReset(ctx context.Context) error {
	if err := s.write(ctx, DefaultSettings()); err != nil {
		return err
	}
	events.Device.Reset(s.info.Name)
	return nil
}

// Close disconnects. Further writes fail with ErrClosed.
func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	events.Device.Disconnect(s.info.Name)
	return nil
}

func (s *Simulator) write(ctx context.Context, next Settings) error {
	if err := s.throttle.wait(ctx); err != nil {
		return err
	}
	if s.opts.Latency > 0 {
		timer := time.NewTimer(s.opts.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.opts.ProfilePath != "" {
		if err := saveProfile(s.opts.ProfilePath, profile{Device: s.info.Name, Settings: next}); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
	}
	s.settings = next
	return nil
}

func loadProfile(path string) (profile, error) {
	var p profile
	data, err := os.ReadFile(path)
	if err != nil {
		return profile{}, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return profile{}, err
	}
	if err := p.Settings.Validate(); err != nil {
		return profile{}, err
	}
	return p, nil
}

func saveProfile(path string, p profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
