// Package kbmenu defines the keyboard configuration menu: connecting to a
// board, editing its lighting and general settings, factory reset and exit.
package kbmenu

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/atomicstack/kbconsole/internal/device"
	"github.com/atomicstack/kbconsole/internal/format/table"
	"github.com/atomicstack/kbconsole/internal/logging"
	"github.com/atomicstack/kbconsole/internal/markup"
	"github.com/atomicstack/kbconsole/internal/menu"
)

// Console is the IO surface actions use.
type Console interface {
	WriteLine(text string)
	WriteError(text string)
	ReadLine(ctx context.Context) (string, error)
	Clear()
	SetPanel(text string)
	RequestQuit()
}

// Options tune the controller.
type Options struct {
	// ProfileDir holds one YAML profile per board. Empty disables
	// persistence.
	ProfileDir string
	// Latency is passed to every simulated connection.
	Latency time.Duration
	// WriteInterval spaces consecutive device writes.
	WriteInterval time.Duration
}

// Controller owns the connected device and builds the menu around it.
type Controller struct {
	console Console
	opts    Options

	mu  sync.Mutex
	dev device.Device
}

// New returns a controller writing to console.
func New(console Console, opts Options) *Controller {
	return &Controller{console: console, opts: opts}
}

// Device returns the connected device, or nil.
func (c *Controller) Device() device.Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev
}

// Close disconnects any connected device.
func (c *Controller) Close() error {
	c.mu.Lock()
	dev := c.dev
	c.dev = nil
	c.mu.Unlock()
	if dev == nil {
		return nil
	}
	return dev.Close()
}

// Root builds the full menu tree.
func (c *Controller) Root() *menu.Item {
	lighting := menu.NewItem("Change lighting",
		enumMenu(c, "Mode", device.LedModes(), func(s *device.Settings, v device.LedMode) { s.Mode = v }),
		menu.NewItem("Color").WithAction(c.changeColor),
		c.ranged("Speed", device.SpeedRange, func(s *device.Settings, v int) { s.Speed = v }),
		c.ranged("Brightness", device.BrightnessRange, func(s *device.Settings, v int) { s.Brightness = v }),
		enumMenu(c, "Direction", device.LedDirections(), func(s *device.Settings, v device.LedDirection) { s.Direction = v }),
		c.toggle("Rainbow", func(s *device.Settings) *bool { return &s.Rainbow }),
		back(),
	).WithAction(c.showLighting)

	status := menu.NewItem("Status",
		enumMenu(c, "Polling rate", device.PollingRates(), func(s *device.Settings, v device.PollingRate) { s.PollingRate = v }),
		c.ranged("Sleep Timeout", device.SleepTimeoutRange, func(s *device.Settings, v int) { s.SleepTimeout = v }),
		c.toggle("Auto Calibration", func(s *device.Settings) *bool { return &s.AutoCalibration }),
		c.toggle("Stability Mode", func(s *device.Settings) *bool { return &s.StabilityMode }),
		back(),
	).WithAction(c.showStatus)

	reset := menu.NewItem("Reset",
		menu.NewItem("[red]Yes[/]").WithCommand(menu.CommandBack).WithAction(c.factoryReset),
		menu.NewItem("No").WithCommand(menu.CommandBack),
	).WithAction(c.warnReset)

	connect := menu.NewItem("Connect",
		lighting,
		status,
		reset,
		menu.NewItem("Back").WithCommand(menu.CommandDisconnect).WithAction(c.disconnect),
	).WithAction(c.connect)

	exit := menu.NewItem("Exit").WithAction(func(context.Context) (bool, error) {
		c.console.RequestQuit()
		return false, nil
	})

	return menu.NewItem("Main Menu", connect, exit)
}

func back() *menu.Item {
	return menu.NewItem("Back").WithCommand(menu.CommandBack)
}

// readLine wraps ReadLine so that shutdown propagates and a cancelled prompt
// is reported once.
func (c *Controller) readLine(ctx context.Context) (string, bool, error) {
	line, err := c.console.ReadLine(ctx)
	if err == nil {
		return strings.TrimSpace(line), true, nil
	}
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}
	c.console.WriteError("Cancelled")
	return "", false, nil
}

func (c *Controller) requireDevice() (device.Device, bool) {
	dev := c.Device()
	if dev == nil {
		c.console.WriteError("Not connected")
		return nil, false
	}
	return dev, true
}

// update applies fn to a copy of the device settings. Validation and device
// errors are written to the console; only cancellation is returned.
func (c *Controller) update(ctx context.Context, dev device.Device, fn func(*device.Settings)) (bool, error) {
	next := dev.Settings()
	fn(&next)
	if err := dev.Apply(ctx, next); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logging.Error(fmt.Errorf("apply settings: %w", err))
		c.console.WriteError(err.Error())
		return false, nil
	}
	c.console.SetPanel(panelText(dev))
	return true, nil
}

func (c *Controller) connect(ctx context.Context) (bool, error) {
	devices := device.Discover()
	c.console.WriteLine("Choose a device")
	rows := make([][]string, 0, len(devices))
	for i, info := range devices {
		rows = append(rows, []string{fmt.Sprintf("(%d)", i), markup.Escape(info.FriendlyName())})
	}
	for _, line := range table.Format(rows, []table.Alignment{table.AlignRight}) {
		c.console.WriteLine(line)
	}

	choice, ok, err := c.readLine(ctx)
	if !ok {
		return false, err
	}
	info, found := pickDevice(devices, choice)
	if !found {
		c.console.WriteError("Invalid choice")
		return false, nil
	}

	opts := device.Options{Latency: c.opts.Latency, WriteInterval: c.opts.WriteInterval}
	if c.opts.ProfileDir != "" {
		opts.ProfilePath = filepath.Join(c.opts.ProfileDir, menu.Slug(info.Name)+".yaml")
	}
	dev, err := device.Open(ctx, info, opts)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logging.Error(fmt.Errorf("connect %s: %w", info.Name, err))
		c.console.WriteError("Error connecting")
		return false, nil
	}
	if err := c.Close(); err != nil {
		logging.Error(err)
	}
	c.mu.Lock()
	c.dev = dev
	c.mu.Unlock()
	logging.Info("device connected", "device", info.Name, "profile", opts.ProfilePath)
	c.console.SetPanel(panelText(dev))
	c.console.WriteLine("Connected to [cyan]" + markup.Escape(info.Name) + "[/]")
	return true, nil
}

// pickDevice accepts an index or a fuzzy match against device names.
func pickDevice(devices []device.Info, choice string) (device.Info, bool) {
	if choice == "" {
		return device.Info{}, false
	}
	if idx, err := strconv.Atoi(choice); err == nil {
		if idx < 0 || idx >= len(devices) {
			return device.Info{}, false
		}
		return devices[idx], true
	}
	names := make([]string, len(devices))
	for i, info := range devices {
		names[i] = info.Name
	}
	ranks := fuzzy.RankFindNormalizedFold(choice, names)
	if len(ranks) == 0 {
		return device.Info{}, false
	}
	best := ranks[0]
	for _, rank := range ranks[1:] {
		if rank.Distance < best.Distance || (rank.Distance == best.Distance && rank.OriginalIndex < best.OriginalIndex) {
			best = rank
		}
	}
	return devices[best.OriginalIndex], true
}

func (c *Controller) disconnect(context.Context) (bool, error) {
	if dev := c.Device(); dev != nil {
		logging.Info("device disconnected", "device", dev.Info().Name)
		c.console.WriteLine("Disconnecting...")
		if err := c.Close(); err != nil {
			logging.Error(fmt.Errorf("disconnect: %w", err))
			c.console.WriteError("Error: " + err.Error())
		}
	}
	c.console.Clear()
	return true, nil
}

func (c *Controller) showLighting(context.Context) (bool, error) {
	dev, ok := c.requireDevice()
	if !ok {
		return false, nil
	}
	c.console.WriteLine(table.Block(colourRows(dev.Settings().LightingRows()), nil))
	return true, nil
}

func (c *Controller) showStatus(context.Context) (bool, error) {
	dev, ok := c.requireDevice()
	if !ok {
		return false, nil
	}
	c.console.WriteLine(table.Block(dev.Settings().GeneralRows(), nil))
	return true, nil
}

func (c *Controller) changeColor(ctx context.Context) (bool, error) {
	dev, ok := c.requireDevice()
	if !ok {
		return false, nil
	}
	c.console.WriteLine("Enter Hex Color")
	answer, ok, err := c.readLine(ctx)
	if !ok {
		return false, err
	}
	hex, err := device.ParseColor(answer)
	if err != nil {
		c.console.WriteError(err.Error())
		return false, nil
	}
	if ok, err := c.update(ctx, dev, func(s *device.Settings) { s.Color = hex }); !ok {
		return false, err
	}
	c.console.WriteLine(fmt.Sprintf("Color set to [%s]%s[/]", hex, hex))
	return false, nil
}

func (c *Controller) ranged(label string, r device.Range, set func(*device.Settings, int)) *menu.Item {
	return menu.NewItem(label).WithAction(func(ctx context.Context) (bool, error) {
		dev, ok := c.requireDevice()
		if !ok {
			return false, nil
		}
		c.console.WriteLine(fmt.Sprintf("Input a value between %d and %d", r.Min, r.Max))
		answer, ok, err := c.readLine(ctx)
		if !ok {
			return false, err
		}
		n, err := strconv.Atoi(answer)
		if err != nil {
			c.console.WriteError("Input is not a valid number")
			return false, nil
		}
		if ok, err := c.update(ctx, dev, func(s *device.Settings) { set(s, n) }); !ok {
			return false, err
		}
		c.console.WriteLine(fmt.Sprintf("%s set to %d", label, n))
		return false, nil
	})
}

func (c *Controller) toggle(label string, field func(*device.Settings) *bool) *menu.Item {
	return menu.NewItem(label).WithAction(func(ctx context.Context) (bool, error) {
		dev, ok := c.requireDevice()
		if !ok {
			return false, nil
		}
		var now bool
		if ok, err := c.update(ctx, dev, func(s *device.Settings) {
			p := field(s)
			*p = !*p
			now = *p
		}); !ok {
			return false, err
		}
		state := "[red]off[/]"
		if now {
			state = "[lime]on[/]"
		}
		c.console.WriteLine(label + ": " + state)
		return false, nil
	})
}

func enumMenu[T fmt.Stringer](c *Controller, label string, values []T, set func(*device.Settings, T)) *menu.Item {
	item := menu.NewItem(label)
	for _, v := range values {
		v := v
		choice := menu.NewItem(v.String()).WithCommand(menu.CommandBack).WithAction(func(ctx context.Context) (bool, error) {
			dev, ok := c.requireDevice()
			if !ok {
				return false, nil
			}
			if ok, err := c.update(ctx, dev, func(s *device.Settings) { set(s, v) }); !ok {
				return false, err
			}
			c.console.WriteLine(fmt.Sprintf("%s set to %s", label, v))
			return true, nil
		})
		item.Add(choice)
	}
	return item.Add(back())
}

func (c *Controller) warnReset(context.Context) (bool, error) {
	if _, ok := c.requireDevice(); !ok {
		return false, nil
	}
	c.console.WriteLine("[red]Are you sure you want to factory reset? This can not be undone[/]")
	return true, nil
}

func (c *Controller) factoryReset(ctx context.Context) (bool, error) {
	dev, ok := c.requireDevice()
	if !ok {
		return false, nil
	}
	c.console.WriteLine("[red]Type Y to confirm[/] [[Y/n]]")
	answer, ok, err := c.readLine(ctx)
	if !ok {
		return false, err
	}
	if answer != "Y" {
		c.console.WriteLine("Reset cancelled")
		return true, nil
	}
	if err := dev.FactoryReset(ctx); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logging.Error(fmt.Errorf("factory reset: %w", err))
		c.console.WriteError(err.Error())
		return true, nil
	}
	c.console.SetPanel(panelText(dev))
	c.console.WriteLine("Factory reset complete")
	return true, nil
}

// colourRows shows the colour value in its own colour.
func colourRows(rows [][]string) [][]string {
	for _, row := range rows {
		if len(row) == 2 && row[0] == "Color" {
			row[1] = "[" + row[1] + "]" + row[1] + "[/]"
		}
	}
	return rows
}

func panelText(dev device.Device) string {
	info := dev.Info()
	s := dev.Settings()
	rows := append(colourRows(s.LightingRows()), s.GeneralRows()...)
	return "[cyan]" + markup.Escape(info.FriendlyName()) + "[/]\n" + table.Block(rows, nil)
}
