package markup

import (
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func TestParseColouredRunAndEscapes(t *testing.T) {
	got := Parse("[red]Stop[/] now[[!]]")
	want := []Segment{
		{Text: "Stop", Color: "#ff0000"},
		{Text: " now[!]", Color: Default},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v, got %#v", want, got)
	}
}

func TestParseCases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Segment
	}{
		{name: "empty", input: "", want: []Segment{}},
		{name: "plain", input: "hello", want: []Segment{{Text: "hello"}}},
		{
			name:  "hex tag",
			input: "a[#FF8040]b[/]c",
			want:  []Segment{{Text: "a"}, {Text: "b", Color: "#ff8040"}, {Text: "c"}},
		},
		{
			name:  "short hex",
			input: "[#0f0]ok[/]",
			want:  []Segment{{Text: "ok", Color: "#00ff00"}},
		},
		{
			name:  "unknown name falls back",
			input: "[sparkly]x[/]",
			want:  []Segment{{Text: "x"}},
		},
		{
			name:  "malformed hex falls back",
			input: "[#12345]x[/]",
			want:  []Segment{{Text: "x"}},
		},
		{
			name:  "case insensitive name",
			input: "[DeepPink]x[/]",
			want:  []Segment{{Text: "x", Color: "#ff1493"}},
		},
		{
			name:  "first close wins",
			input: "[red]a[/]b[/]",
			want:  []Segment{{Text: "a", Color: "#ff0000"}, {Text: "b[/]"}},
		},
		{
			name:  "nested open is content",
			input: "[red]a[blue]b[/]c[/]",
			want:  []Segment{{Text: "a[blue]b", Color: "#ff0000"}, {Text: "c[/]"}},
		},
		{
			name:  "unterminated tag is literal",
			input: "[red]never closed",
			want:  []Segment{{Text: "[red]never closed"}},
		},
		{
			name:  "escaped open bracket",
			input: "[[red]]x",
			want:  []Segment{{Text: "[red]x"}},
		},
		{
			name:  "menu marker",
			input: "[[x]] [red]Yes[/]\n",
			want:  []Segment{{Text: "[x] "}, {Text: "Yes", Color: "#ff0000"}, {Text: "\n"}},
		},
		{
			name:  "tag does not cross newline",
			input: "[red]a\nb[/]",
			want:  []Segment{{Text: "[red]a\nb[/]"}},
		},
		{
			name:  "empty tag content dropped",
			input: "x[red][/]y",
			want:  []Segment{{Text: "x"}, {Text: "y"}},
		},
		{
			name:  "lone brackets",
			input: "[ ] [] ]",
			want:  []Segment{{Text: "[ ] [] ]"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseNeverPanicsAndCoversText(t *testing.T) {
	inputs := []string{
		"[", "]", "[[", "]]", "[/]", "[red]", "[red][/]", "[#]x[/]",
		"[[[red]x[/]", "[red]]x[/]", "a[b[c]d[/]e", "ünïcødé [grün]x[/]",
		strings.Repeat("[red]x", 50),
	}
	for _, input := range inputs {
		segments := Parse(input)
		var joined strings.Builder
		for _, seg := range segments {
			if seg.Text == "" {
				t.Fatalf("Parse(%q) produced an empty segment", input)
			}
			joined.WriteString(seg.Text)
		}
		if got := Plain(input); got != joined.String() {
			t.Fatalf("Plain(%q) = %q, want %q", input, got, joined.String())
		}
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{"[red]x[/]", "a[b]c", "[[", "]]", "> [#fff]hi"}
	for _, input := range inputs {
		segments := Parse(Escape(input))
		if len(segments) != 1 || !segments[0].Color.IsDefault() {
			t.Fatalf("expected one default segment for %q, got %#v", input, segments)
		}
		if segments[0].Text != input {
			t.Fatalf("expected %q to survive escaping, got %q", input, segments[0].Text)
		}
	}
}

func TestWrapEscapesContent(t *testing.T) {
	got := Parse(Wrap("red", "bad [input]"))
	want := []Segment{{Text: "bad [input]", Color: "#ff0000"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v, got %#v", want, got)
	}
}

func TestLookup(t *testing.T) {
	if got := Lookup("purple"); got != "#9370db" {
		t.Fatalf("expected purple to map to medium purple, got %q", got)
	}
	if got := Lookup("#ABCDEF"); got != "#abcdef" {
		t.Fatalf("expected normalised hex, got %q", got)
	}
	if got := Lookup("#abcdefff"); !got.IsDefault() {
		t.Fatalf("expected default for 8 digit hex, got %q", got)
	}
	if got := Lookup("#ggg"); !got.IsDefault() {
		t.Fatalf("expected default for non-hex digits, got %q", got)
	}
}

func TestRenderKeepsText(t *testing.T) {
	out := Render("[red]Stop[/] now", lipgloss.NewStyle())
	if got := ansi.Strip(out); got != "Stop now" {
		t.Fatalf("expected rendered text %q, got %q", "Stop now", got)
	}
}
