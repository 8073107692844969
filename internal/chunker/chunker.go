package chunker

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// oversizedWindow is the fixed character window used to hard-split a single
// paragraph that alone exceeds the token budget. The split is blind to token
// boundaries on purpose: such paragraphs are rare (tables, run-on scans) and
// re-tokenizing them is not worth the complexity.
const oversizedWindow = 500

// TokenCounter returns the token count of a text under the model's encoding.
type TokenCounter func(text string) int

// Chunker accumulates paragraphs into newline-joined chunks whose token
// count stays within a fixed budget.
type Chunker struct {
	maxTokens int
	count     TokenCounter
}

// New builds a Chunker using the tiktoken encoding for the given embedding
// model. The encoding is resolved once here, not at package init.
func New(embeddingModel string, maxTokens int) (*Chunker, error) {
	enc, err := tiktoken.EncodingForModel(embeddingModel)
	if err != nil {
		return nil, fmt.Errorf("resolve encoding for %s: %w", embeddingModel, err)
	}
	counter := func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}
	return NewWithCounter(counter, maxTokens), nil
}

// NewWithCounter builds a Chunker with a caller-supplied token counter.
func NewWithCounter(count TokenCounter, maxTokens int) *Chunker {
	return &Chunker{maxTokens: maxTokens, count: count}
}

// Chunk splits the ordered paragraphs into ordered non-empty chunks.
// Paragraphs are buffered until the next one would exceed the budget, then
// the buffer is flushed. A single paragraph over the budget is sliced into
// fixed-length character windows emitted as independent chunks, bypassing
// the buffer. Whitespace-only paragraphs are skipped.
func (c *Chunker) Chunk(paragraphs []string) []string {
	var chunks []string
	var current strings.Builder
	currentTokens := 0

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		paraTokens := c.count(para)
		if paraTokens > c.maxTokens {
			// Window over runes, not bytes: slicing a multi-byte rune in
			// half would emit invalid UTF-8.
			runes := []rune(para)
			for i := 0; i < len(runes); i += oversizedWindow {
				end := i + oversizedWindow
				if end > len(runes) {
					end = len(runes)
				}
				part := strings.TrimSpace(string(runes[i:end]))
				if part != "" {
					chunks = append(chunks, part)
				}
			}
			continue
		}

		if currentTokens+paraTokens > c.maxTokens {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimSpace(current.String()))
			}
			current.Reset()
			current.WriteString(para)
			currentTokens = paraTokens
		} else {
			current.WriteString("\n")
			current.WriteString(para)
			currentTokens += paraTokens
		}
	}

	if current.Len() > 0 {
		if tail := strings.TrimSpace(current.String()); tail != "" {
			chunks = append(chunks, tail)
		}
	}
	return chunks
}

// MaxTokens reports the configured budget.
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// CountTokens exposes the underlying token counter.
func (c *Chunker) CountTokens(text string) int {
	return c.count(text)
}
