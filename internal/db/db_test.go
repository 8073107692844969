package db

import (
	"context"
	"strings"
	"testing"

	"policy-rag/internal/models"
)

func TestItem_ToPublicStripsEmbedding(t *testing.T) {
	item := Item{
		ID:         9,
		Filename:   "leave.pdf",
		FileURL:    "https://example.org/leave.pdf",
		Page:       "full page text",
		DocType:    "HR Policy",
		PageNumber: 3,
		Chunk:      1,
		Embedding:  []float32{1, 2, 3},
	}
	public := item.ToPublic()
	if public.ID != 9 || public.Content != "full page text" || public.PageNumber != 3 {
		t.Errorf("projection mismatch: %+v", public)
	}
	str := public.ToStrForRAG()
	for _, want := range []string{"Filename: leave.pdf", "Page Number: 3", "Document Type: HR Policy"} {
		if !strings.Contains(str, want) {
			t.Errorf("serialized item missing %q: %s", want, str)
		}
	}
}

func TestItemsTableDDL_UsesConfiguredDimension(t *testing.T) {
	ddl := itemsTableDDL(1536)
	if !strings.Contains(ddl, "vector(1536)") {
		t.Errorf("DDL does not carry the configured dimension: %s", ddl)
	}
	for _, column := range []string{"filename", "fileurl", "page", "typedoc", "pagenumber", "chunk", "embedding_3l"} {
		if !strings.Contains(ddl, column) {
			t.Errorf("DDL missing column %q", column)
		}
	}
}

func TestStoreItems_EmptyIsNoOp(t *testing.T) {
	if err := StoreItems(context.Background(), nil, []models.Record{}); err != nil {
		t.Errorf("empty store should be a no-op, got %v", err)
	}
}
