package terminal

// DefaultPrompt prefixes the input line.
const DefaultPrompt = "> "

// Mode selects how key presses are interpreted.
type Mode int

const (
	// ModeNavigating routes Enter to the menu and ignores typed characters.
	ModeNavigating Mode = iota
	// ModeCollectingLine routes typed characters to the prompt buffer and
	// Enter to the pending ReadLine.
	ModeCollectingLine
)

func (m Mode) String() string {
	switch m {
	case ModeNavigating:
		return "navigating"
	case ModeCollectingLine:
		return "collecting"
	default:
		return "unknown"
	}
}

// PromptBuffer is the editable input line. The prefix is never erased.
type PromptBuffer struct {
	prefix string
	runes  []rune
}

// NewPromptBuffer returns an empty buffer with the given prefix.
func NewPromptBuffer(prefix string) PromptBuffer {
	return PromptBuffer{prefix: prefix}
}

// String returns the prefix followed by the typed text.
func (p PromptBuffer) String() string {
	return p.prefix + string(p.runes)
}

// Value returns the typed text without the prefix.
func (p PromptBuffer) Value() string {
	return string(p.runes)
}

// Prefix returns the fixed prefix.
func (p PromptBuffer) Prefix() string {
	return p.prefix
}

// Append adds r at the end.
func (p *PromptBuffer) Append(r rune) {
	p.runes = append(p.runes, r)
}

// Backspace removes the last typed rune. It reports false when only the
// prefix remains.
func (p *PromptBuffer) Backspace() bool {
	if len(p.runes) == 0 {
		return false
	}
	p.runes = p.runes[:len(p.runes)-1]
	return true
}

// Reset drops the typed text.
func (p *PromptBuffer) Reset() {
	p.runes = nil
}
