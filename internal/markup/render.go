package markup

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Render parses s and renders each segment with base, overriding the
// foreground for coloured segments.
func Render(s string, base lipgloss.Style) string {
	return RenderSegments(Parse(s), base)
}

// RenderSegments renders already parsed segments.
func RenderSegments(segments []Segment, base lipgloss.Style) string {
	var b strings.Builder
	for _, seg := range segments {
		style := base
		if !seg.Color.IsDefault() {
			style = style.Foreground(lipgloss.Color(seg.Color.Hex()))
		}
		b.WriteString(style.Render(seg.Text))
	}
	return b.String()
}
