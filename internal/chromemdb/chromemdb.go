package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
	"policy-rag/internal/searcher"
)

const compress = false

// LocalStore serves a seed-JSON corpus without Postgres: vector similarity
// runs through a chromem collection, text ranking through local lexical
// scoring over the same items.
type LocalStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	items      map[int]models.ItemPublic
	ordered    []models.ItemPublic
	embedder   embeddings.Embedder
	dimension  int
}

var _ searcher.Searcher = (*LocalStore)(nil)

// NewLocalStore loads records into a chromem collection. Records whose
// embedding length does not match the configured dimension are skipped.
func NewLocalStore(cfg *config.LocalStoreConfig, records []models.Record, embedder embeddings.Embedder, dimension int) (*LocalStore, error) {
	var cdb *chromem.DB
	var err error
	if cfg.InMemory || cfg.Path == "" {
		cdb = chromem.NewDB()
	} else {
		cdb, err = chromem.NewPersistentDB(cfg.Path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	collection, err := cdb.GetOrCreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}

	store := &LocalStore{
		db:         cdb,
		collection: collection,
		items:      make(map[int]models.ItemPublic, len(records)),
		embedder:   embedder,
		dimension:  dimension,
	}

	var docs []chromem.Document
	for _, rec := range records {
		if len(rec.Embedding) != dimension {
			log.Warn().
				Int("id", rec.ID).
				Str("filename", rec.Filename).
				Int("got", len(rec.Embedding)).
				Int("want", dimension).
				Msg("Skipping record with wrong embedding dimension")
			continue
		}
		public := rec.ToPublic()
		store.items[rec.ID] = public
		store.ordered = append(store.ordered, public)
		docs = append(docs, chromem.Document{
			ID:        strconv.Itoa(rec.ID),
			Content:   rec.Page,
			Embedding: rec.Embedding,
			Metadata: map[string]string{
				"filename":   rec.Filename,
				"pagenumber": strconv.Itoa(rec.PageNumber),
				"chunk":      strconv.Itoa(rec.Chunk),
			},
		})
	}
	if len(docs) > 0 {
		if err := collection.AddDocuments(context.Background(), docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("failed to add documents: %v", err)
		}
	}
	return store, nil
}

// SearchAndEmbed mirrors the Postgres searcher's contract over the local
// collection.
func (s *LocalStore) SearchAndEmbed(ctx context.Context, queryText string, top int, enableVectorSearch, enableTextSearch bool, filters []models.Filter) ([]models.ItemPublic, error) {
	if len(s.ordered) == 0 {
		return nil, nil
	}

	var queryEmbedding []float32
	if enableVectorSearch {
		vector, err := s.embedder.EmbedQuery(ctx, queryText)
		switch {
		case err == nil && len(vector) == s.dimension:
			queryEmbedding = vector
		case enableTextSearch:
			log.Warn().Err(err).Str("query", queryText).Msg("Query embedding unusable, degrading to text-only search")
			enableVectorSearch = false
		case err != nil:
			return nil, fmt.Errorf("%w: %v", searcher.ErrServiceUnavailable, err)
		default:
			return nil, fmt.Errorf("%w: got %d, want %d", searcher.ErrVectorDimension, len(vector), s.dimension)
		}
	}

	var rankings [][]models.ItemPublic
	if enableVectorSearch {
		ranked, err := s.vectorSearch(ctx, queryEmbedding, top)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, ranked)
	}
	if enableTextSearch {
		rankings = append(rankings, lexicalRank(queryText, s.ordered, top))
	}
	return searcher.FuseRRF(top, rankings...), nil
}

func (s *LocalStore) vectorSearch(ctx context.Context, queryEmbedding []float32, top int) ([]models.ItemPublic, error) {
	n := top
	if count := s.collection.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}
	results, err := s.collection.QueryEmbedding(ctx, queryEmbedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity query: %v", searcher.ErrServiceUnavailable, err)
	}

	ranked := make([]models.ItemPublic, 0, len(results))
	for _, res := range results {
		id, err := strconv.Atoi(res.ID)
		if err != nil {
			continue
		}
		if item, ok := s.items[id]; ok {
			ranked = append(ranked, item)
		}
	}
	return ranked, nil
}
