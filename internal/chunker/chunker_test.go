package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// wordCount stands in for the tiktoken encoding in tests.
func wordCount(text string) int {
	return len(strings.Fields(text))
}

func TestChunk_EmptyInput(t *testing.T) {
	c := NewWithCounter(wordCount, 10)
	if got := c.Chunk(nil); len(got) != 0 {
		t.Errorf("expected no chunks for nil input, got %v", got)
	}
	if got := c.Chunk([]string{"", "   ", "\t\n"}); len(got) != 0 {
		t.Errorf("expected no chunks for whitespace input, got %v", got)
	}
}

func TestChunk_MergesUnderBudget(t *testing.T) {
	c := NewWithCounter(wordCount, 10)
	chunks := c.Chunk([]string{"one two three", "four five"})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 merged chunk, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "one two three\nfour five" {
		t.Errorf("unexpected chunk content: %q", chunks[0])
	}
}

func TestChunk_FlushesAtBudget(t *testing.T) {
	c := NewWithCounter(wordCount, 4)
	chunks := c.Chunk([]string{"a b c", "d e f", "g"})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "a b c" {
		t.Errorf("first chunk = %q", chunks[0])
	}
	if chunks[1] != "d e f\ng" {
		t.Errorf("second chunk = %q", chunks[1])
	}
}

func TestChunk_TokenBudgetRespected(t *testing.T) {
	c := NewWithCounter(wordCount, 5)
	paras := []string{"w1 w2 w3", "w4 w5", "w6 w7 w8 w9", "w10"}
	for _, chunk := range c.Chunk(paras) {
		if n := wordCount(chunk); n > 5 {
			t.Errorf("chunk exceeds budget: %d tokens in %q", n, chunk)
		}
	}
}

func TestChunk_OversizedParagraphSplitIntoWindows(t *testing.T) {
	c := NewWithCounter(func(s string) int { return len(s) }, 3)
	long := strings.Repeat("x", 1200)
	chunks := c.Chunk([]string{long})
	if len(chunks) != 3 {
		t.Fatalf("expected 3 windows for 1200 chars, got %d", len(chunks))
	}
	for i, ch := range chunks {
		want := 500
		if i == 2 {
			want = 200
		}
		if len(ch) != want {
			t.Errorf("window %d length = %d, want %d", i, len(ch), want)
		}
	}
}

func TestChunk_OversizedWindowsAreRuneBoundaries(t *testing.T) {
	// Windows are counted in characters, so a paragraph of multi-byte
	// runes must split into valid UTF-8 pieces with nothing lost.
	c := NewWithCounter(func(s string) int { return len(s) }, 3)
	long := strings.Repeat("€", 1200)
	chunks := c.Chunk([]string{long})
	if len(chunks) != 3 {
		t.Fatalf("expected 3 windows for 1200 runes, got %d", len(chunks))
	}
	var rejoined strings.Builder
	for i, ch := range chunks {
		if !utf8.ValidString(ch) {
			t.Errorf("window %d is not valid UTF-8", i)
		}
		want := 500
		if i == 2 {
			want = 200
		}
		if n := utf8.RuneCountInString(ch); n != want {
			t.Errorf("window %d rune count = %d, want %d", i, n, want)
		}
		rejoined.WriteString(ch)
	}
	if rejoined.String() != long {
		t.Error("windows do not reassemble to the input paragraph")
	}
}

func TestChunk_NoContentLost(t *testing.T) {
	c := NewWithCounter(wordCount, 4)
	paras := []string{"alpha beta", "  ", "gamma delta epsilon", "zeta", "eta theta iota kappa lambda"}
	chunks := c.Chunk(paras)

	joinedIn := strings.Join(strings.Fields(strings.Join(paras, " ")), " ")
	joinedOut := strings.Join(strings.Fields(strings.Join(chunks, " ")), " ")
	if joinedIn != joinedOut {
		t.Errorf("content mismatch:\n in: %q\nout: %q", joinedIn, joinedOut)
	}
}

func TestChunk_OversizedBypassesBuffer(t *testing.T) {
	// The oversized windows are emitted immediately; the running buffer
	// survives across the oversized paragraph and flushes at the end.
	c := NewWithCounter(func(s string) int { return len(s) }, 600)
	long := strings.Repeat("y", 700)
	chunks := c.Chunk([]string{"before", long, "after"})
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if len(chunks[0]) != 500 || len(chunks[1]) != 200 {
		t.Errorf("window lengths = %d, %d", len(chunks[0]), len(chunks[1]))
	}
	if chunks[2] != "before\nafter" {
		t.Errorf("buffered chunk = %q", chunks[2])
	}
}
