package table

import (
	"reflect"
	"testing"
)

func TestFormatAlignsColumns(t *testing.T) {
	rows := [][]string{
		{"Mode", "Static"},
		{"Brightness", "5"},
		{"Color", "[#ff0000]#ff0000[/]"},
	}
	got := Format(rows, []Alignment{AlignLeft, AlignLeft})
	want := []string{
		"Mode        Static",
		"Brightness  5",
		"Color       [#ff0000]#ff0000[/]",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatRightAlignAndRaggedRows(t *testing.T) {
	rows := [][]string{
		{"(0)", "Aurora 75"},
		{"(10)"},
	}
	got := Format(rows, []Alignment{AlignRight})
	want := []string{
		" (0)  Aurora 75",
		"(10)  ",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if Format(nil, nil) != nil {
		t.Fatal("expected nil for no rows")
	}
}

func TestBlockJoinsLines(t *testing.T) {
	got := Block([][]string{{"a", "1"}, {"bb", "2"}}, nil)
	if got != "a   1\nbb  2" {
		t.Fatalf("unexpected block %q", got)
	}
}
