package rag

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"policy-rag/internal/models"
)

// AnswerStream is a single-producer sequence of response deltas. Consumers
// range over Deltas and check Err once the channel closes; cancelling the
// request context stops the producer without corrupting already-sent deltas.
type AnswerStream struct {
	deltas chan models.RetrievalResponseDelta
	err    error
}

// Deltas yields the ordered deltas: one context-only delta first, then one
// delta per incremental text fragment in generation order.
func (s *AnswerStream) Deltas() <-chan models.RetrievalResponseDelta {
	return s.deltas
}

// Err reports the answer-generation failure, if any. Only valid after the
// Deltas channel has closed.
func (s *AnswerStream) Err() error {
	return s.err
}

// AnswerStream streams the answer. The context delta is emitted before the
// model call so clients can render citations immediately; text deltas
// follow in the order the model produces them, unbuffered.
func (o *Orchestrator) AnswerStream(ctx context.Context, params models.ChatParams, items []models.ItemPublic, earlierThoughts []models.ThoughtStep) *AnswerStream {
	stream := &AnswerStream{deltas: make(chan models.RetrievalResponseDelta)}
	answerMessages := o.answerMessages(params, items)
	ragContext := o.buildContext(items, earlierThoughts, answerMessages)

	go func() {
		defer close(stream.deltas)

		select {
		case stream.deltas <- models.RetrievalResponseDelta{Context: &ragContext}:
		case <-ctx.Done():
			stream.err = ctx.Err()
			return
		}

		opts := append(o.answerOptions(params), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			delta := models.RetrievalResponseDelta{
				Delta: &models.Message{Content: string(chunk), Role: models.RoleAssistant},
			}
			select {
			case stream.deltas <- delta:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}))

		if _, err := o.chat.GenerateContent(ctx, toLLMMessages(answerMessages), opts...); err != nil {
			stream.err = fmt.Errorf("answer generation: %w", err)
		}
	}()
	return stream
}
