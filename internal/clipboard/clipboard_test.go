package clipboard

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestCopyEmptyContent(t *testing.T) {
	_, err := Copy("")
	if err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestGenerateOSC52(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("hello"))

	seq := generateOSC52(encoded, false)
	if !strings.HasPrefix(seq, "\x1b]52;c;") || !strings.HasSuffix(seq, "\x07") {
		t.Errorf("bad OSC 52 sequence: %q", seq)
	}
	if !strings.Contains(seq, encoded) {
		t.Errorf("sequence missing payload: %q", seq)
	}

	wrapped := generateOSC52(encoded, true)
	if !strings.HasPrefix(wrapped, "\x1bPtmux;\x1b") || !strings.HasSuffix(wrapped, "\x1b\\") {
		t.Errorf("bad tmux passthrough: %q", wrapped)
	}
}

func TestCountLines(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"one\n", 1},
		{"one\ntwo", 2},
		{"one\ntwo\n", 2},
	}
	for _, tc := range cases {
		if got := countLines(tc.text); got != tc.want {
			t.Errorf("countLines(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}
