package llmservice

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"policy-rag/internal/config"
)

// ContentGenerator is the chat-completion surface the orchestrator needs:
// a message list plus options in, an assistant turn (text and/or tool
// calls) out, or incremental deltas via llms.WithStreamingFunc.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Client wraps one OpenAI-compatible chat endpoint, constructed once at
// startup and shared read-only across requests.
type Client struct {
	llm   *openai.LLM
	model string
}

var _ ContentGenerator = (*Client)(nil)

func NewClient(cfg *config.LLMConfig) (*Client, error) {
	model := cfg.Model
	if cfg.Deployment != "" {
		model = cfg.Deployment
	}
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return &Client{llm: llm, model: model}, nil
}

func (c *Client) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	log.Debug().Str("model", c.model).Int("messages", len(messages)).Msg("Generating content")
	return c.llm.GenerateContent(ctx, messages, options...)
}

// Model reports the configured model or deployment name.
func (c *Client) Model() string {
	return c.model
}
