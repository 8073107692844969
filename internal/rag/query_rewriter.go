package rag

import (
	"encoding/json"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"policy-rag/internal/models"
)

const searchToolName = "search_database"

// BuildSearchTool declares the one callable the search agent is given.
func BuildSearchTool() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        searchToolName,
			Description: "Search PostgreSQL database for relevant policies based on user query",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"search_query": map[string]any{
						"type":        "string",
						"description": "Query string to use for full text search, e.g. 'entitlements for parental leave'",
					},
				},
				"required": []string{"search_query"},
			},
		},
	}
}

// ToolInvocation is the structured half of an agent turn.
type ToolInvocation struct {
	Name      string
	Arguments string
}

// AgentTurn is the tagged outcome of one tool-calling model turn: either a
// tool invocation or a plain text response, never both.
type AgentTurn struct {
	ToolCall *ToolInvocation
	Text     string
}

// agentTurnFromResponse reduces a model response to an AgentTurn. Only the
// first matching function call is used; extra tool calls are ignored.
func agentTurnFromResponse(resp *llms.ContentResponse) AgentTurn {
	if resp == nil || len(resp.Choices) == 0 {
		return AgentTurn{}
	}
	choice := resp.Choices[0]
	for _, call := range choice.ToolCalls {
		if call.FunctionCall == nil {
			continue
		}
		if call.FunctionCall.Name != searchToolName {
			continue
		}
		return AgentTurn{ToolCall: &ToolInvocation{
			Name:      call.FunctionCall.Name,
			Arguments: call.FunctionCall.Arguments,
		}}
	}
	return AgentTurn{Text: strings.TrimSpace(choice.Content)}
}

// ExtractSearchArguments resolves the search query from an agent turn. A
// tool invocation yields its search_query argument; a text response is used
// verbatim; anything else falls back to the original user query. The
// rewriter never fails a request on its own.
func ExtractSearchArguments(originalUserQuery string, turn AgentTurn) (string, []models.Filter) {
	filters := extractFilters(turn)
	if turn.ToolCall != nil {
		var args struct {
			SearchQuery string `json:"search_query"`
		}
		if err := json.Unmarshal([]byte(turn.ToolCall.Arguments), &args); err == nil && args.SearchQuery != "" {
			return args.SearchQuery, filters
		}
		return originalUserQuery, filters
	}
	if turn.Text != "" {
		return turn.Text, filters
	}
	return originalUserQuery, filters
}

// extractFilters is a reserved hook for future query-filter support. It
// deliberately returns an empty list: the tool schema carries no filter
// parameters yet, so there is nothing to extract.
func extractFilters(AgentTurn) []models.Filter {
	return []models.Filter{}
}
