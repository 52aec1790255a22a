// Package markup parses the bracketed colour tags used by console output.
//
// A tag wraps a run of text: "[red]Stop[/]" or "[#FF8040]warm[/]". The
// first "[/]" after an opening tag closes it, tags never nest, and a tag
// cannot span a line break. An opening bracket directly preceded by another
// "[" is never treated as a tag, so "[[" and "]]" act as escapes for literal
// brackets. Anything that does not form a complete tag is kept as text.
package markup

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lucasb-eyer/go-colorful"
)

const closeTag = "[/]"

// Segment is a run of text rendered in a single colour.
type Segment struct {
	Text  string
	Color Color
}

var unescaper = strings.NewReplacer("[[", "[", "]]", "]")

var escaper = strings.NewReplacer("[", "[[", "]", "]]")

// Parse splits s into coloured segments. Concatenating the segment texts
// yields s with tag delimiters removed and escaped brackets collapsed.
// Parse never fails; malformed tags degrade to literal text.
func Parse(s string) []Segment {
	segments := make([]Segment, 0, 4)
	emit := func(text string, color Color) {
		if text == "" {
			return
		}
		segments = append(segments, Segment{Text: unescaper.Replace(text), Color: color})
	}

	last := 0
	for i := 0; i < len(s); {
		if s[i] != '[' || (i > 0 && s[i-1] == '[') {
			i++
			continue
		}
		name, contentStart, ok := scanOpenTag(s, i)
		if !ok {
			i++
			continue
		}
		end := strings.Index(s[contentStart:], closeTag)
		if end < 0 {
			i++
			continue
		}
		content := s[contentStart : contentStart+end]
		if strings.ContainsRune(content, '\n') {
			i++
			continue
		}
		emit(s[last:i], Default)
		emit(content, Lookup(name))
		i = contentStart + end + len(closeTag)
		last = i
	}
	emit(s[last:], Default)
	return segments
}

// scanOpenTag reads "[name]" or "[#hex]" starting at the bracket at pos. It
// returns the tag name and the offset just past the closing bracket.
func scanOpenTag(s string, pos int) (string, int, bool) {
	j := pos + 1
	if j < len(s) && s[j] == '#' {
		j++
	}
	k := j
	for k < len(s) {
		r, size := utf8.DecodeRuneInString(s[k:])
		if !isWordRune(r) {
			break
		}
		k += size
	}
	if k == j || k >= len(s) || s[k] != ']' {
		return "", 0, false
	}
	return s[pos+1 : k], k + 1, true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Plain returns s with all markup removed.
func Plain(s string) string {
	var b strings.Builder
	for _, seg := range Parse(s) {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Escape doubles every bracket in s so it renders literally.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Wrap surrounds escaped text with a colour tag.
func Wrap(color, text string) string {
	return "[" + color + "]" + Escape(text) + closeTag
}

// Color is a normalised "#rrggbb" value. The zero value is the default
// colour.
type Color string

// Default marks text rendered in the console's base colour.
const Default Color = ""

// IsDefault reports whether c is the default colour.
func (c Color) IsDefault() bool {
	return c == Default
}

// Hex returns the "#rrggbb" form, or "" for the default colour.
func (c Color) Hex() string {
	return string(c)
}

func (c Color) String() string {
	if c.IsDefault() {
		return "default"
	}
	return string(c)
}

var namedColors = map[string]string{
	"red":             "#ff0000",
	"green":           "#008000",
	"blue":            "#0000ff",
	"yellow":          "#ffff00",
	"white":           "#ffffff",
	"gray":            "#808080",
	"lime":            "#00ff00",
	"fuchsia":         "#ff00ff",
	"deeppink":        "#ff1493",
	"mediumvioletred": "#c71585",
	"magenta":         "#ff00ff",
	"darkviolet":      "#9400d3",
	"purple":          "#9370db",
	"cyan":            "#00ffff",
	"orange":          "#ffa500",
}

// Lookup resolves a tag name to a colour. Unknown names and malformed hex
// values resolve to Default.
func Lookup(name string) Color {
	if strings.HasPrefix(name, "#") {
		if !isHexDigits(name[1:]) {
			return Default
		}
		c, err := colorful.Hex(strings.ToLower(name))
		if err != nil {
			return Default
		}
		return Color(c.Hex())
	}
	if hex, ok := namedColors[strings.ToLower(name)]; ok {
		return Color(hex)
	}
	return Default
}

// colorful.Hex tolerates trailing garbage, so the digits are checked first.
func isHexDigits(s string) bool {
	if len(s) != 3 && len(s) != 6 {
		return false
	}
	for _, r := range s {
		if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return false
		}
	}
	return true
}
