package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"

	"policy-rag/internal/models"
	"policy-rag/internal/searcher"
)

// PostgresSearcher runs full-text, vector and hybrid queries against the
// items table. Hybrid results are fused by reciprocal rank in Go after two
// ranked queries.
type PostgresSearcher struct {
	db        *bun.DB
	embedder  embeddings.Embedder
	dimension int
}

var _ searcher.Searcher = (*PostgresSearcher)(nil)

func NewPostgresSearcher(db *bun.DB, embedder embeddings.Embedder, dimension int) *PostgresSearcher {
	return &PostgresSearcher{db: db, embedder: embedder, dimension: dimension}
}

// SearchAndEmbed embeds the query only when vector search is enabled. A
// query-embedding failure degrades to text-only search when possible and
// surfaces a typed error otherwise.
func (s *PostgresSearcher) SearchAndEmbed(ctx context.Context, queryText string, top int, enableVectorSearch, enableTextSearch bool, filters []models.Filter) ([]models.ItemPublic, error) {
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
		ranked, err := s.textSearch(ctx, queryText, top)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, ranked)
	}
	return searcher.FuseRRF(top, rankings...), nil
}

// vectorSearch orders by cosine distance, ascending: closer is better.
func (s *PostgresSearcher) vectorSearch(ctx context.Context, queryEmbedding []float32, top int) ([]models.ItemPublic, error) {
	var rows []Item
	err := s.db.NewSelect().
		Model(&rows).
		OrderExpr("i.embedding_3l <=> ?", queryEmbedding).
		Limit(top).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: vector query: %v", searcher.ErrServiceUnavailable, err)
	}
	return toPublic(rows), nil
}

func (s *PostgresSearcher) textSearch(ctx context.Context, queryText string, top int) ([]models.ItemPublic, error) {
	var rows []Item
	err := s.db.NewSelect().
		Model(&rows).
		Where("to_tsvector('english', i.page) @@ websearch_to_tsquery('english', ?)", queryText).
		OrderExpr("ts_rank_cd(to_tsvector('english', i.page), websearch_to_tsquery('english', ?)) DESC", queryText).
		Limit(top).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: text query: %v", searcher.ErrServiceUnavailable, err)
	}
	return toPublic(rows), nil
}

func toPublic(rows []Item) []models.ItemPublic {
	out := make([]models.ItemPublic, len(rows))
	for i, row := range rows {
		out[i] = row.ToPublic()
	}
	return out
}
