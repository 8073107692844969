package embedding

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"policy-rag/internal/config"
)

// NewEmbedder creates a langchaingo embedder against an OpenAI-compatible
// embedding endpoint.
func NewEmbedder(cfg *config.EmbeddingConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

// Retrier wraps an embedder with retry, exponential backoff and dimension
// validation. It never returns an error past its boundary: a chunk whose
// embedding cannot be produced yields a nil vector and is dropped upstream.
type Retrier struct {
	embedder   embeddings.Embedder
	dimension  int
	maxRetries int
	baseDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewRetrier(embedder embeddings.Embedder, cfg *config.EmbeddingConfig) *Retrier {
	return &Retrier{
		embedder:   embedder,
		dimension:  cfg.Dimension,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay.Std(),
		sleep:      sleepCtx,
	}
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Backoff returns the delay before the next attempt: baseDelay * 2^attempt.
func (r *Retrier) Backoff(attempt int) time.Duration {
	return r.baseDelay * time.Duration(1<<uint(attempt))
}

// EmbedText embeds one text, retrying on service errors. The second return
// value reports whether a valid embedding was produced.
func (r *Retrier) EmbedText(ctx context.Context, text string) ([]float32, bool) {
	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		vector, err := r.embedder.EmbedQuery(ctx, text)
		if err == nil {
			if len(vector) != r.dimension {
				log.Warn().
					Int("got", len(vector)).
					Int("want", r.dimension).
					Msg("Embedding dimension mismatch, dropping chunk")
				return nil, false
			}
			return vector, true
		}
		lastErr = err
		if attempt < r.maxRetries-1 {
			wait := r.Backoff(attempt)
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Int("max", r.maxRetries).
				Dur("wait", wait).
				Msg("Embedding attempt failed, backing off")
			if err := r.sleep(ctx, wait); err != nil {
				log.Warn().Err(err).Msg("Backoff interrupted, giving up on chunk")
				return nil, false
			}
		}
	}
	log.Error().Err(lastErr).Msg("Embedding failed after final retry")
	return nil, false
}

// Dimension reports the expected vector length.
func (r *Retrier) Dimension() int {
	return r.dimension
}
