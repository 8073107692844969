package chromemdb

import (
	"context"
	"errors"
	"testing"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
	"policy-rag/internal/searcher"
)

type fakeEmbedder struct {
	calls  int
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.EmbedQuery(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func memConfig() *config.LocalStoreConfig {
	return &config.LocalStoreConfig{Collection: "test_collection", InMemory: true}
}

func seedRecords() []models.Record {
	return []models.Record{
		{ID: 1, Filename: "leave.pdf", Page: "parental leave entitlements for staff members", PageNumber: 1, Embedding: []float32{1, 0, 0}},
		{ID: 2, Filename: "pay.pdf", Page: "danger pay rates by duty station", PageNumber: 1, Embedding: []float32{0, 1, 0}},
		{ID: 3, Filename: "travel.pdf", Page: "official travel authorization procedures", PageNumber: 2, Embedding: []float32{0, 0, 1}},
	}
}

func TestLocalStore_TextOnlyNeverEmbedsQuery(t *testing.T) {
	emb := &fakeEmbedder{}
	store, err := NewLocalStore(memConfig(), seedRecords(), emb, 3)
	if err != nil {
		t.Fatal(err)
	}

	results, err := store.SearchAndEmbed(context.Background(), "parental leave", 3, false, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if emb.calls != 0 {
		t.Errorf("text-only search issued %d embedding calls", emb.calls)
	}
	if len(results) == 0 || results[0].ID != 1 {
		t.Errorf("expected leave.pdf first, got %v", results)
	}
}

func TestLocalStore_VectorSearchRanksByCosine(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{0, 0.9, 0.1}}
	store, err := NewLocalStore(memConfig(), seedRecords(), emb, 3)
	if err != nil {
		t.Fatal(err)
	}

	results, err := store.SearchAndEmbed(context.Background(), "danger pay", 2, true, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if emb.calls != 1 {
		t.Errorf("expected 1 embedding call, got %d", emb.calls)
	}
	if len(results) == 0 || results[0].ID != 2 {
		t.Errorf("expected pay.pdf first, got %v", results)
	}
}

func TestLocalStore_VectorOnlyDimensionMismatch(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{1, 2}}
	store, err := NewLocalStore(memConfig(), seedRecords(), emb, 3)
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.SearchAndEmbed(context.Background(), "anything", 3, true, false, nil)
	if !errors.Is(err, searcher.ErrVectorDimension) {
		t.Errorf("expected ErrVectorDimension, got %v", err)
	}
}

func TestLocalStore_HybridDegradesToTextOnEmbedFailure(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("service down")}
	store, err := NewLocalStore(memConfig(), seedRecords(), emb, 3)
	if err != nil {
		t.Fatal(err)
	}

	results, err := store.SearchAndEmbed(context.Background(), "travel authorization", 3, true, true, nil)
	if err != nil {
		t.Fatalf("hybrid search should degrade, got error %v", err)
	}
	if len(results) == 0 || results[0].ID != 3 {
		t.Errorf("expected travel.pdf from text ranking, got %v", results)
	}
}

func TestLocalStore_EmptyCorpus(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{1, 0, 0}}
	store, err := NewLocalStore(memConfig(), nil, emb, 3)
	if err != nil {
		t.Fatal(err)
	}

	results, err := store.SearchAndEmbed(context.Background(), "anything", 3, true, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results from empty corpus, got %v", results)
	}
}

func TestLocalStore_SkipsWrongDimensionRecords(t *testing.T) {
	records := append(seedRecords(), models.Record{
		ID: 4, Filename: "bad.pdf", Page: "bad record", PageNumber: 1, Embedding: []float32{1, 2, 3, 4, 5},
	})
	emb := &fakeEmbedder{vector: []float32{1, 0, 0}}
	store, err := NewLocalStore(memConfig(), records, emb, 3)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.items[4]; ok {
		t.Error("record with wrong dimension was loaded")
	}
}

func TestLexicalRank_NoOverlapExcluded(t *testing.T) {
	items := []models.ItemPublic{
		{ID: 1, Content: "completely unrelated text"},
		{ID: 2, Content: "pension scheme contributions"},
	}
	ranked := lexicalRank("pension contributions", items, 5)
	if len(ranked) != 1 || ranked[0].ID != 2 {
		t.Errorf("expected only item 2, got %v", ranked)
	}
}
