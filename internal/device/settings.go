package device

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

var (
	// ErrOutOfRange is returned for numeric settings outside their range.
	ErrOutOfRange = errors.New("value out of range")
	// ErrInvalidValue is returned for values that cannot be parsed.
	ErrInvalidValue = errors.New("invalid value")
)

// Range is an inclusive integer bound.
type Range struct {
	Min, Max int
}

// Check returns ErrOutOfRange when v falls outside r.
func (r Range) Check(name string, v int) error {
	if v < r.Min || v > r.Max {
		return fmt.Errorf("%s must be between %d and %d: %w", name, r.Min, r.Max, ErrOutOfRange)
	}
	return nil
}

var (
	SpeedRange        = Range{Min: 1, Max: 5}
	BrightnessRange   = Range{Min: 1, Max: 5}
	SleepTimeoutRange = Range{Min: 1, Max: 30}
)

// LedMode is the lighting effect.
type LedMode int

const (
	LedStatic LedMode = iota
	LedBreathing
	LedWave
	LedReactive
	LedRipple
	LedOff
)

var ledModeNames = []string{"Static", "Breathing", "Wave", "Reactive", "Ripple", "Off"}

// LedModes lists every mode in display order.
func LedModes() []LedMode {
	return []LedMode{LedStatic, LedBreathing, LedWave, LedReactive, LedRipple, LedOff}
}

func (m LedMode) String() string { return enumName(ledModeNames, int(m)) }

func (m LedMode) MarshalYAML() (interface{}, error) { return m.String(), nil }

func (m *LedMode) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseEnumNode(ledModeNames, node)
	*m = LedMode(v)
	return err
}

// LedDirection is the travel direction of animated effects.
type LedDirection int

const (
	DirectionLeft LedDirection = iota
	DirectionRight
	DirectionUp
	DirectionDown
)

var ledDirectionNames = []string{"Left", "Right", "Up", "Down"}

// LedDirections lists every direction in display order.
func LedDirections() []LedDirection {
	return []LedDirection{DirectionLeft, DirectionRight, DirectionUp, DirectionDown}
}

func (d LedDirection) String() string { return enumName(ledDirectionNames, int(d)) }

func (d LedDirection) MarshalYAML() (interface{}, error) { return d.String(), nil }

func (d *LedDirection) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseEnumNode(ledDirectionNames, node)
	*d = LedDirection(v)
	return err
}

// PollingRate is the USB report rate.
type PollingRate int

const (
	Polling125Hz PollingRate = iota
	Polling250Hz
	Polling500Hz
	Polling1000Hz
)

var pollingRateNames = []string{"125Hz", "250Hz", "500Hz", "1000Hz"}

// PollingRates lists every rate in display order.
func PollingRates() []PollingRate {
	return []PollingRate{Polling125Hz, Polling250Hz, Polling500Hz, Polling1000Hz}
}

func (p PollingRate) String() string { return enumName(pollingRateNames, int(p)) }

func (p PollingRate) MarshalYAML() (interface{}, error) { return p.String(), nil }

func (p *PollingRate) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseEnumNode(pollingRateNames, node)
	*p = PollingRate(v)
	return err
}

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return strconv.Itoa(v)
	}
	return names[v]
}

func parseEnum(names []string, s string) (int, error) {
	for i, name := range names {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%q is not one of %s: %w", s, strings.Join(names, ", "), ErrInvalidValue)
}

func parseEnumNode(names []string, node *yaml.Node) (int, error) {
	var s string
	if err := node.Decode(&s); err != nil {
		return 0, err
	}
	return parseEnum(names, s)
}

// Settings is the full configurable state of a board.
type Settings struct {
	Mode            LedMode      `yaml:"mode"`
	Direction       LedDirection `yaml:"direction"`
	Color           string       `yaml:"color"`
	Speed           int          `yaml:"speed"`
	Brightness      int          `yaml:"brightness"`
	Rainbow         bool         `yaml:"rainbow"`
	PollingRate     PollingRate  `yaml:"polling_rate"`
	SleepTimeout    int          `yaml:"sleep_timeout_minutes"`
	AutoCalibration bool         `yaml:"auto_calibration"`
	StabilityMode   bool         `yaml:"stability_mode"`
}

// DefaultSettings is the factory state.
func DefaultSettings() Settings {
	return Settings{
		Mode:         LedStatic,
		Direction:    DirectionRight,
		Color:        "#ffffff",
		Speed:        3,
		Brightness:   5,
		PollingRate:  Polling1000Hz,
		SleepTimeout: 10,
	}
}

// Validate checks every ranged and enumerated field.
func (s Settings) Validate() error {
	var errs []error
	errs = append(errs,
		SpeedRange.Check("speed", s.Speed),
		BrightnessRange.Check("brightness", s.Brightness),
		SleepTimeoutRange.Check("sleep timeout", s.SleepTimeout),
	)
	if int(s.Mode) < 0 || int(s.Mode) >= len(ledModeNames) {
		errs = append(errs, fmt.Errorf("led mode %d: %w", s.Mode, ErrInvalidValue))
	}
	if int(s.Direction) < 0 || int(s.Direction) >= len(ledDirectionNames) {
		errs = append(errs, fmt.Errorf("led direction %d: %w", s.Direction, ErrInvalidValue))
	}
	if int(s.PollingRate) < 0 || int(s.PollingRate) >= len(pollingRateNames) {
		errs = append(errs, fmt.Errorf("polling rate %d: %w", s.PollingRate, ErrInvalidValue))
	}
	if _, err := ParseColor(s.Color); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseColor accepts "#rrggbb", "rrggbb" or the three digit short forms and
// returns the normalised "#rrggbb" value.
func ParseColor(s string) (string, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 3 && len(hex) != 6 {
		return "", fmt.Errorf("color %q must have 3 or 6 hex digits: %w", s, ErrInvalidValue)
	}
	for _, r := range hex {
		if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return "", fmt.Errorf("color %q is not hexadecimal: %w", s, ErrInvalidValue)
		}
	}
	c, err := colorful.Hex("#" + strings.ToLower(hex))
	if err != nil {
		return "", fmt.Errorf("color %q: %w", s, ErrInvalidValue)
	}
	return c.Hex(), nil
}

// LightingRows lists the lighting settings as label/value pairs.
func (s Settings) LightingRows() [][]string {
	return [][]string{
		{"Mode", s.Mode.String()},
		{"Color", s.Color},
		{"Speed", strconv.Itoa(s.Speed)},
		{"Brightness", strconv.Itoa(s.Brightness)},
		{"Direction", s.Direction.String()},
		{"Rainbow", onOff(s.Rainbow)},
	}
}

// GeneralRows lists the non-lighting settings as label/value pairs.
func (s Settings) GeneralRows() [][]string {
	return [][]string{
		{"Polling rate", s.PollingRate.String()},
		{"Sleep timeout", fmt.Sprintf("%d min", s.SleepTimeout)},
		{"Auto calibration", onOff(s.AutoCalibration)},
		{"Stability mode", onOff(s.StabilityMode)},
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
