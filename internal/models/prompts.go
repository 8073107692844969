package models

const (
	// QueryPromptTemplate instructs the search agent to turn the
	// conversation into one full-text search query.
	QueryPromptTemplate = `Below is a history of the conversation so far, and a new question asked by the user that needs to be answered by searching database rows.
You have access to a search_database function that searches a PostgreSQL database of HR policies and administrative instructions.
Generate a search query based on the conversation and the new question.
Do not include cited source filenames and document names in the search query terms.
Do not include any text inside [] or <<>> in the search query terms.
If you cannot generate a search query, return the original user question.
`

	// AnswerPromptTemplate grounds the answer agent in the retrieved rows.
	AnswerPromptTemplate = `Assistant helps staff members with questions about HR policies and administrative instructions.
Answer ONLY with the policy details listed in the sources below.
If there isn't enough information below, say you don't know. Do not generate answers that don't use the sources below.
Each source has the format "Filename: ... | File URL: ... | Page Number: ... | Chunk: ... | Document Type: ... | Content: ...".
Always include the source filename and page number for each fact you use in the response.
`
)

// QueryFewshots are example turns teaching the search agent the expected
// tool-calling behavior.
var QueryFewshots = []Message{
	{Role: RoleUser, Content: "How many days of parental leave am I entitled to?"},
	{Role: RoleAssistant, Content: "entitlements for parental leave"},
	{Role: RoleUser, Content: "check the danger pay rates please"},
	{Role: RoleAssistant, Content: "danger pay rates"},
}
