package util

import (
	"reflect"
	"strings"
	"testing"
)

// TestParseValue tests the conversion of command line arguments into values
func TestParseValue(t *testing.T) {
	tests := []struct {
		arg  string
		want any
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"1.5", 1.5},
		{"true", true},
		{"null", nil},
		{`"quoted"`, "quoted"},
		{"plain", "plain"},
		{"two words", "two words"},
		{"1 2", "1 2"},
		{"", ""},
		{`{"age": 30, "tags": ["a", 2]}`, map[string]any{"age": int64(30), "tags": []any{"a", int64(2)}}},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got := ParseValue(tt.arg)
			if !reflect.DeepEqual(tt.want, got) {
				t.Errorf("ParseValue(%q): expected %#v, got %#v", tt.arg, tt.want, got)
			}
		})
	}
}

// TestFormatValue tests the terminal rendering of values
func TestFormatValue(t *testing.T) {
	if got := FormatValue(nil); got != "<nil>" {
		t.Errorf("Expected <nil>, got %s", got)
	}
	if got := FormatValue(map[string]any{"a": int64(1)}); got != `{"a":1}` {
		t.Errorf("Expected JSON, got %s", got)
	}
	if got := FormatValue(make(chan int)); !strings.HasPrefix(got, "0x") {
		t.Errorf("Expected fallback rendering, got %s", got)
	}
}

// TestWrapString tests the help text wrapping
func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("Line exceeds %d characters: %q", Wrap, line)
		}
	}
}
