package models

// Chunk is a token-bounded span of one page's text together with the
// metadata of the page it came from. Chunks are created during ingestion
// and handed straight to the embedder; they are never stored as-is.
type Chunk struct {
	Content    string
	Filename   string
	FileURL    string
	PageText   string
	DocType    string
	PageNumber int
	ChunkIndex int
}

// Record is the persisted unit of retrieval, one entry of the seed JSON
// array written at the end of an ingestion run. Field names match the
// items table columns.
type Record struct {
	ID         int       `json:"id"`
	Filename   string    `json:"filename"`
	FileURL    string    `json:"fileurl"`
	Page       string    `json:"page"`
	DocType    string    `json:"typedoc"`
	PageNumber int       `json:"pagenumber"`
	Chunk      int       `json:"chunk"`
	Embedding  []float32 `json:"embedding_3l"`
}

// ToPublic strips the embedding and exposes the page text as content.
func (r Record) ToPublic() ItemPublic {
	return ItemPublic{
		ID:         r.ID,
		Filename:   r.Filename,
		FileURL:    r.FileURL,
		PageNumber: r.PageNumber,
		Chunk:      r.Chunk,
		Content:    r.Page,
		DocType:    r.DocType,
	}
}
