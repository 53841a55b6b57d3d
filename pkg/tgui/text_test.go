package tgui

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncRunes(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"abc", 0, ""},
		{"abc", 3, "abc"},
		{"abc", 2, "a…"},
		{"abc", 1, "…"},
		{"привет мир", 6, "приве…"},
	}
	for _, c := range cases {
		got := TruncRunes(c.in, c.n)
		if got != c.want {
			t.Fatalf("TruncRunes(%q,%d)=%q want %q", c.in, c.n, got, c.want)
		}
		if c.n > 0 && utf8.RuneCountInString(got) > c.n {
			t.Fatalf("TruncRunes(%q,%d) returned %d runes", c.in, c.n, utf8.RuneCountInString(got))
		}
	}
}

func TestSplit(t *testing.T) {
	if got := Split("short", 10); !reflect.DeepEqual(got, []string{"short"}) {
		t.Fatalf("short: %q", got)
	}
	if got := Split("aaaa\nbbbb\ncccc", 6); !reflect.DeepEqual(got, []string{"aaaa", "bbbb", "cccc"}) {
		t.Fatalf("newline split: %q", got)
	}
	want := []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}
	if got := Split(strings.Repeat("x", 25), 10); !reflect.DeepEqual(got, want) {
		t.Fatalf("hard split: %q", got)
	}
}

func TestSplitDefaultLimit(t *testing.T) {
	parts := Split(strings.Repeat("é", MaxMessageRunes+1), 0)
	if len(parts) != 2 {
		t.Fatalf("parts=%d want 2", len(parts))
	}
	if n := utf8.RuneCountInString(parts[0]); n != MaxMessageRunes {
		t.Fatalf("first chunk=%d runes want %d", n, MaxMessageRunes)
	}
}
