// Package keys maps physical key identifiers to the characters they type on a
// US layout and adapts Bubble Tea key messages into that vocabulary.
package keys

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// KeyID identifies a physical key independent of modifiers.
type KeyID int

const (
	KeyUnknown KeyID = iota
	KeyUp
	KeyDown
	KeyEnter
	KeyBackspace
	KeyEscape
	KeySpace
	KeyCtrlC
	KeyMinus
	KeyEquals
	KeyComma
	KeyPeriod
	KeySlash
	KeySemicolon
	KeyQuote
	KeyOpenBracket
	KeyCloseBracket
	KeyBackslash
	KeyBacktick
)

// Letters and digits occupy contiguous ranges.
const (
	KeyA KeyID = 100 + iota
	KeyZ       = KeyA + 25
)

const (
	Key0 KeyID = 200 + iota
	Key9       = Key0 + 9
)

// Letter returns the key for an ASCII letter of either case.
func Letter(r rune) KeyID {
	switch {
	case r >= 'a' && r <= 'z':
		return KeyA + KeyID(r-'a')
	case r >= 'A' && r <= 'Z':
		return KeyA + KeyID(r-'A')
	}
	return KeyUnknown
}

// Digit returns the key for 0-9.
func Digit(n int) KeyID {
	if n < 0 || n > 9 {
		return KeyUnknown
	}
	return Key0 + KeyID(n)
}

var shiftedDigits = [10]rune{')', '!', '@', '#', '$', '%', '^', '&', '*', '('}

var punctuation = map[KeyID][2]rune{
	KeyMinus:        {'-', '_'},
	KeyEquals:       {'=', '+'},
	KeyComma:        {',', '<'},
	KeyPeriod:       {'.', '>'},
	KeySlash:        {'/', '?'},
	KeySemicolon:    {';', ':'},
	KeyQuote:        {'\'', '"'},
	KeyOpenBracket:  {'[', '{'},
	KeyCloseBracket: {']', '}'},
	KeyBackslash:    {'\\', '|'},
	KeyBacktick:     {'`', '~'},
}

var names = map[KeyID]string{
	KeyUnknown:   "unknown",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyEnter:     "enter",
	KeyBackspace: "backspace",
	KeyEscape:    "esc",
	KeySpace:     "space",
	KeyCtrlC:     "ctrl+c",
}

func (k KeyID) String() string {
	if name, ok := names[k]; ok {
		return name
	}
	if r, ok := Translate(k, false); ok {
		return string(r)
	}
	return fmt.Sprintf("key(%d)", int(k))
}

// Translate returns the character typed by key, or false for keys that do
// not produce one.
func Translate(key KeyID, shift bool) (rune, bool) {
	switch {
	case key >= KeyA && key <= KeyZ:
		if shift {
			return 'A' + rune(key-KeyA), true
		}
		return 'a' + rune(key-KeyA), true
	case key >= Key0 && key <= Key9:
		if shift {
			return shiftedDigits[key-Key0], true
		}
		return '0' + rune(key-Key0), true
	case key == KeySpace:
		return ' ', true
	}
	if pair, ok := punctuation[key]; ok {
		if shift {
			return pair[1], true
		}
		return pair[0], true
	}
	return 0, false
}

// Event is a key press with its shift state.
type Event struct {
	Key   KeyID
	Shift bool
}

// Rune returns the typed character, if any.
func (e Event) Rune() (rune, bool) {
	return Translate(e.Key, e.Shift)
}

func (e Event) String() string {
	if e.Shift {
		return "shift+" + e.Key.String()
	}
	return e.Key.String()
}

var byRune = buildReverse()

func buildReverse() map[rune]Event {
	table := make(map[rune]Event)
	add := func(key KeyID) {
		for _, shift := range []bool{false, true} {
			if r, ok := Translate(key, shift); ok {
				if _, exists := table[r]; !exists {
					table[r] = Event{Key: key, Shift: shift}
				}
			}
		}
	}
	for key := KeyA; key <= KeyZ; key++ {
		add(key)
	}
	for key := Key0; key <= Key9; key++ {
		add(key)
	}
	add(KeySpace)
	for key := range punctuation {
		add(key)
	}
	return table
}

// FromRune finds the key and shift state that type r.
func FromRune(r rune) (Event, bool) {
	e, ok := byRune[r]
	return e, ok
}

// FromTea converts a Bubble Tea key message into events. Pasted or batched
// runes yield one event per rune; characters outside the table are dropped.
func FromTea(msg tea.KeyMsg) []Event {
	switch msg.Type {
	case tea.KeyUp:
		return []Event{{Key: KeyUp}}
	case tea.KeyDown:
		return []Event{{Key: KeyDown}}
	case tea.KeyEnter:
		return []Event{{Key: KeyEnter}}
	case tea.KeyBackspace:
		return []Event{{Key: KeyBackspace}}
	case tea.KeyEsc:
		return []Event{{Key: KeyEscape}}
	case tea.KeySpace:
		return []Event{{Key: KeySpace}}
	case tea.KeyCtrlC:
		return []Event{{Key: KeyCtrlC}}
	case tea.KeyRunes:
		events := make([]Event, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			if e, ok := FromRune(r); ok {
				events = append(events, e)
			}
		}
		return events
	}
	return nil
}
