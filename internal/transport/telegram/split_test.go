package telegram

import (
	"strings"
	"testing"
)

func TestSplitTelegramTextShortMessage(t *testing.T) {
	t.Parallel()
	got := splitTelegramText("hello", 10, "")
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("got %q, want single chunk", got)
	}
}

func TestSplitTelegramTextPrefersNewlines(t *testing.T) {
	t.Parallel()
	s := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6)
	got := splitTelegramText(s, 10, "")
	if len(got) != 2 {
		t.Fatalf("chunks = %d, want 2 (%q)", len(got), got)
	}
	if got[0] != "aaaaaa" || got[1] != "bbbbbb" {
		t.Fatalf("unexpected chunks: %q", got)
	}
}

func TestSplitTelegramTextCountsRunes(t *testing.T) {
	t.Parallel()
	s := strings.Repeat("ж", 25)
	got := splitTelegramText(s, 10, "")
	if len(got) != 3 {
		t.Fatalf("chunks = %d, want 3", len(got))
	}
	for i, c := range got {
		if n := len([]rune(c)); n > 10 {
			t.Fatalf("chunk %d has %d runes", i, n)
		}
	}
	if strings.Join(got, "") != s {
		t.Fatal("chunks do not reassemble to input")
	}
}

func TestSplitTelegramTextAvoidsDanglingHTMLTag(t *testing.T) {
	t.Parallel()
	s := "abcdef<b>bold</b>"
	got := splitTelegramText(s, 8, "HTML")
	if len(got) < 2 {
		t.Fatalf("expected split, got %q", got)
	}
	if got[0] != "abcdef" {
		t.Fatalf("first chunk = %q, want %q", got[0], "abcdef")
	}
}
