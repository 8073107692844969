package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"policy-rag/internal/config"
	"policy-rag/internal/llmservice"
	"policy-rag/internal/models"
	"policy-rag/internal/searcher"
)

// Orchestrator drives one question through rewrite, search, grounding and
// answer generation. It holds no per-request state: everything request
// scoped travels through ChatParams and return values.
type Orchestrator struct {
	searcher         searcher.Searcher
	chat             llmservice.ContentGenerator
	cfg              *config.Config
	modelForThoughts map[string]any
}

func NewOrchestrator(s searcher.Searcher, chat llmservice.ContentGenerator, cfg *config.Config) *Orchestrator {
	thoughtsModel := map[string]any{"model": cfg.ChatLLM.Model}
	if cfg.ChatLLM.Deployment != "" {
		thoughtsModel["deployment"] = cfg.ChatLLM.Deployment
	}
	return &Orchestrator{searcher: s, chat: chat, cfg: cfg, modelForThoughts: thoughtsModel}
}

// GetChatParams snapshots the per-request configuration: client overrides
// plus fields derived from the retrieval mode and message history.
func (o *Orchestrator) GetChatParams(messages []models.Message, overrides models.ChatRequestOverrides) models.ChatParams {
	originalQuery := ""
	past := messages
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			originalQuery = messages[i].Content
			past = append(append([]models.Message{}, messages[:i]...), messages[i+1:]...)
			break
		}
	}

	promptTemplate := overrides.PromptTemplate
	if promptTemplate == "" {
		promptTemplate = models.AnswerPromptTemplate
	}
	top := overrides.Top
	if top <= 0 {
		top = o.cfg.RAG.Top
	}
	temperature := o.cfg.RAG.Temperature
	if overrides.Temperature != nil {
		temperature = *overrides.Temperature
	}

	enableVector, enableText := overrides.RetrievalMode.SearchFlags()
	return models.ChatParams{
		Top:                top,
		Temperature:        temperature,
		RetrievalMode:      overrides.RetrievalMode,
		UseAdvancedFlow:    overrides.UseAdvancedFlow,
		Seed:               overrides.Seed,
		PromptTemplate:     promptTemplate,
		ResponseTokenLimit: o.cfg.RAG.ResponseTokenLimit,
		EnableVectorSearch: enableVector,
		EnableTextSearch:   enableText,
		OriginalUserQuery:  originalQuery,
		PastMessages:       past,
	}
}

// Run produces an atomic response.
func (o *Orchestrator) Run(ctx context.Context, messages []models.Message, overrides models.ChatRequestOverrides) (*models.RetrievalResponse, error) {
	requestID := uuid.NewString()
	log.Info().Str("request_id", requestID).Msg("Handling chat request")

	params := o.GetChatParams(messages, overrides)
	items, thoughts := o.PrepareContext(ctx, params)
	return o.Answer(ctx, params, items, thoughts)
}

// RunStream produces a streamed response. The first delta carries only the
// context; later deltas carry only incremental message text.
func (o *Orchestrator) RunStream(ctx context.Context, messages []models.Message, overrides models.ChatRequestOverrides) *AnswerStream {
	requestID := uuid.NewString()
	log.Info().Str("request_id", requestID).Msg("Handling streaming chat request")

	params := o.GetChatParams(messages, overrides)
	items, thoughts := o.PrepareContext(ctx, params)
	return o.AnswerStream(ctx, params, items, thoughts)
}

// PrepareContext runs the search agent (or a direct search when the
// advanced flow is disabled) and returns the retrieved items together with
// the audit trail so far. Every failure before answering degrades to an
// empty result set; nothing here aborts the request.
func (o *Orchestrator) PrepareContext(ctx context.Context, params models.ChatParams) ([]models.ItemPublic, []models.ThoughtStep) {
	if !params.UseAdvancedFlow {
		results := o.searchDatabase(ctx, params, params.OriginalUserQuery)
		return results.Items, []models.ThoughtStep{
			searchThought(params, results),
			resultsThought(results),
		}
	}

	transcript := o.rewriteTranscript(params)
	results := o.rewriteAndSearch(ctx, params, transcript)

	// Fixed order: rewrite transcript, resolved query, raw items.
	thoughts := []models.ThoughtStep{
		{
			Title:       "Prompt to generate search arguments",
			Description: transcript,
			Props:       o.modelForThoughts,
		},
		searchThought(params, results),
		resultsThought(results),
	}
	return results.Items, thoughts
}

// rewriteTranscript assembles the search agent's input: the query prompt,
// few-shot examples, prior history and a synthetic instruction embedding
// the user's question.
func (o *Orchestrator) rewriteTranscript(params models.ChatParams) []models.Message {
	transcript := []models.Message{{Role: models.RoleSystem, Content: models.QueryPromptTemplate}}
	transcript = append(transcript, models.QueryFewshots...)
	transcript = append(transcript, params.PastMessages...)
	transcript = append(transcript, models.Message{
		Role:    models.RoleUser,
		Content: fmt.Sprintf("Find search results for user query: %s", params.OriginalUserQuery),
	})
	return transcript
}

func (o *Orchestrator) rewriteAndSearch(ctx context.Context, params models.ChatParams, transcript []models.Message) models.SearchResults {
	resp, err := o.chat.GenerateContent(ctx, toLLMMessages(transcript), llms.WithTools([]llms.Tool{BuildSearchTool()}))
	if err != nil {
		log.Error().Err(err).Str("query", params.OriginalUserQuery).Msg("Search agent failed, using empty results")
		return emptyResults(params.OriginalUserQuery)
	}

	turn := agentTurnFromResponse(resp)

	// A plain-text reply may already be a serialized results structure.
	if turn.ToolCall == nil && turn.Text != "" {
		if parsed, ok := parseSearchResults(turn.Text); ok {
			if len(parsed.Items) == 0 {
				return o.searchDatabase(ctx, params, params.OriginalUserQuery)
			}
			return parsed
		}
	}

	searchQuery, _ := ExtractSearchArguments(params.OriginalUserQuery, turn)
	results := o.searchDatabase(ctx, params, searchQuery)

	// Empty after rewriting: retry once with the unmodified user query.
	if len(results.Items) == 0 && searchQuery != params.OriginalUserQuery {
		log.Info().Str("query", params.OriginalUserQuery).Msg("Rewritten query returned nothing, falling back to direct search")
		results = o.searchDatabase(ctx, params, params.OriginalUserQuery)
	}
	return results
}

// searchDatabase is the direct search path. A vector-dimension failure is
// retried once with vector search forcibly disabled; any other failure
// yields an empty result set. Errors never propagate to the caller.
func (o *Orchestrator) searchDatabase(ctx context.Context, params models.ChatParams, searchQuery string) models.SearchResults {
	filters := []models.Filter{}
	items, err := o.searcher.SearchAndEmbed(ctx, searchQuery, params.Top, params.EnableVectorSearch, params.EnableTextSearch, filters)
	if errors.Is(err, searcher.ErrVectorDimension) {
		log.Warn().Err(err).Str("query", searchQuery).Msg("Vector dimension mismatch, retrying text-only")
		items, err = o.searcher.SearchAndEmbed(ctx, searchQuery, params.Top, false, true, filters)
	}
	if err != nil {
		log.Error().Err(err).Str("query", searchQuery).Msg("Search failed, using empty results")
		return emptyResults(searchQuery)
	}
	if items == nil {
		items = []models.ItemPublic{}
	}
	return models.SearchResults{Query: searchQuery, Items: items, Filters: filters}
}

// Answer sends the grounded prompt to the answer model and wraps the full
// completion. Generation failures are not recovered here: they surface to
// the caller rather than producing a silent empty answer.
func (o *Orchestrator) Answer(ctx context.Context, params models.ChatParams, items []models.ItemPublic, earlierThoughts []models.ThoughtStep) (*models.RetrievalResponse, error) {
	answerMessages := o.answerMessages(params, items)
	resp, err := o.chat.GenerateContent(ctx, toLLMMessages(answerMessages), o.answerOptions(params)...)
	if err != nil {
		return nil, fmt.Errorf("answer generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("answer generation: model returned no choices")
	}

	return &models.RetrievalResponse{
		Message: models.Message{Content: resp.Choices[0].Content, Role: models.RoleAssistant},
		Context: o.buildContext(items, earlierThoughts, answerMessages),
	}, nil
}

func (o *Orchestrator) answerOptions(params models.ChatParams) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithTemperature(params.Temperature),
		llms.WithMaxTokens(params.ResponseTokenLimit),
	}
	if params.Seed != nil {
		opts = append(opts, llms.WithSeed(*params.Seed))
	}
	return opts
}

// answerMessages builds the grounding turn: prompt template, history, then
// the question joined with every retrieved item serialized as one block.
func (o *Orchestrator) answerMessages(params models.ChatParams, items []models.ItemPublic) []models.Message {
	sources := make([]string, len(items))
	for i, item := range items {
		sources[i] = item.ToStrForRAG()
	}
	grounded := fmt.Sprintf("%s\n\nSources:\n%s", params.OriginalUserQuery, strings.Join(sources, "\n"))

	messages := []models.Message{{Role: models.RoleSystem, Content: params.PromptTemplate}}
	messages = append(messages, params.PastMessages...)
	return append(messages, models.Message{Role: models.RoleUser, Content: grounded})
}

// buildContext dedupes items by identifier and appends the final answer
// prompt thought to the trail.
func (o *Orchestrator) buildContext(items []models.ItemPublic, earlierThoughts []models.ThoughtStep, answerMessages []models.Message) models.RAGContext {
	dataPoints := make(map[int]models.ItemPublic, len(items))
	for _, item := range items {
		dataPoints[item.ID] = item
	}
	thoughts := append(append([]models.ThoughtStep{}, earlierThoughts...), models.ThoughtStep{
		Title:       "Prompt to generate answer",
		Description: answerMessages,
		Props:       o.modelForThoughts,
	})
	return models.RAGContext{DataPoints: dataPoints, Thoughts: thoughts}
}

func searchThought(params models.ChatParams, results models.SearchResults) models.ThoughtStep {
	return models.ThoughtStep{
		Title:       "Search using generated search arguments",
		Description: results.Query,
		Props: map[string]any{
			"top":           params.Top,
			"vector_search": params.EnableVectorSearch,
			"text_search":   params.EnableTextSearch,
			"filters":       results.Filters,
		},
	}
}

func resultsThought(results models.SearchResults) models.ThoughtStep {
	return models.ThoughtStep{Title: "Search results", Description: results.Items}
}

func emptyResults(query string) models.SearchResults {
	return models.SearchResults{Query: query, Items: []models.ItemPublic{}, Filters: []models.Filter{}}
}

func parseSearchResults(text string) (models.SearchResults, bool) {
	var parsed models.SearchResults
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return models.SearchResults{}, false
	}
	if parsed.Query == "" && parsed.Items == nil {
		return models.SearchResults{}, false
	}
	if parsed.Items == nil {
		parsed.Items = []models.ItemPublic{}
	}
	if parsed.Filters == nil {
		parsed.Filters = []models.Filter{}
	}
	return parsed, true
}

func toLLMMessages(messages []models.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case models.RoleAssistant:
			role = llms.ChatMessageTypeAI
		case models.RoleSystem:
			role = llms.ChatMessageTypeSystem
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}
