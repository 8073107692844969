package models

import "fmt"

type AIChatRole string

const (
	RoleUser      AIChatRole = "user"
	RoleAssistant AIChatRole = "assistant"
	RoleSystem    AIChatRole = "system"
)

type Message struct {
	Content string     `json:"content"`
	Role    AIChatRole `json:"role"`
}

// RetrievalMode selects which search strategies the searcher runs.
type RetrievalMode string

const (
	RetrievalModeText    RetrievalMode = "text"
	RetrievalModeVectors RetrievalMode = "vectors"
	RetrievalModeHybrid  RetrievalMode = "hybrid"
)

// SearchFlags derives the two search-enable booleans from the mode.
// An unknown mode is treated as hybrid so that both can never be false.
func (m RetrievalMode) SearchFlags() (enableVector, enableText bool) {
	switch m {
	case RetrievalModeText:
		return false, true
	case RetrievalModeVectors:
		return true, false
	default:
		return true, true
	}
}

// ChatRequestOverrides are the per-request client knobs. Temperature is a
// pointer so an explicit zero is distinguishable from "use the default".
type ChatRequestOverrides struct {
	Top             int           `json:"top"`
	Temperature     *float64      `json:"temperature,omitempty"`
	RetrievalMode   RetrievalMode `json:"retrieval_mode"`
	UseAdvancedFlow bool          `json:"use_advanced_flow"`
	PromptTemplate  string        `json:"prompt_template,omitempty"`
	Seed            *int          `json:"seed,omitempty"`
}

// ChatParams is the resolved per-request configuration snapshot: client
// overrides plus fields derived from them and from the message history.
type ChatParams struct {
	Top                int
	Temperature        float64
	RetrievalMode      RetrievalMode
	UseAdvancedFlow    bool
	Seed               *int
	PromptTemplate     string
	ResponseTokenLimit int
	EnableVectorSearch bool
	EnableTextSearch   bool
	OriginalUserQuery  string
	PastMessages       []Message
}

// ItemPublic is the embedding-stripped projection of a Record returned to
// clients and serialized into answer prompts.
type ItemPublic struct {
	ID         int    `json:"id"`
	Filename   string `json:"filename"`
	FileURL    string `json:"fileurl"`
	PageNumber int    `json:"pagenumber"`
	Chunk      int    `json:"chunk"`
	Content    string `json:"content"`
	DocType    string `json:"typedoc"`
}

func (i ItemPublic) ToStrForRAG() string {
	return fmt.Sprintf(
		"Filename: %s | File URL: %s | Page Number: %d | Chunk: %d | Document Type: %s | Content: %s",
		i.Filename, i.FileURL, i.PageNumber, i.Chunk, i.DocType, i.Content,
	)
}

// Filter is a reserved extensibility hook for query filters. Extraction is
// currently a no-op and every filter list stays empty.
type Filter struct {
	Column             string `json:"column"`
	ComparisonOperator string `json:"comparison_operator"`
	Value              any    `json:"value"`
}

// SearchResults is the ephemeral outcome of one retrieval call.
type SearchResults struct {
	Query   string       `json:"query"`
	Items   []ItemPublic `json:"items"`
	Filters []Filter     `json:"filters"`
}

// ThoughtStep is one append-only audit-trail entry of the answer pipeline.
type ThoughtStep struct {
	Title       string         `json:"title"`
	Description any            `json:"description"`
	Props       map[string]any `json:"props,omitempty"`
}

// RAGContext bundles retrieved items and the audit trail for one request.
type RAGContext struct {
	DataPoints        map[int]ItemPublic `json:"data_points"`
	Thoughts          []ThoughtStep      `json:"thoughts"`
	FollowupQuestions []string           `json:"followup_questions,omitempty"`
}

type ImpactValue struct {
	Value float64 `json:"value"`
}

type Impacts struct {
	Energy *ImpactValue `json:"energy,omitempty"`
	GWP    *ImpactValue `json:"gwp,omitempty"`
}

// RetrievalResponse is the atomic response payload.
type RetrievalResponse struct {
	Message      Message    `json:"message"`
	Context      RAGContext `json:"context"`
	SessionState any        `json:"sessionState,omitempty"`
	Impacts      *Impacts   `json:"impacts,omitempty"`
}

// RetrievalResponseDelta is one element of a streamed response: the first
// delta carries only context, later ones only incremental message text.
type RetrievalResponseDelta struct {
	Delta        *Message    `json:"delta,omitempty"`
	Context      *RAGContext `json:"context,omitempty"`
	SessionState any         `json:"sessionState,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
