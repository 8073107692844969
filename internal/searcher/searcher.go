package searcher

import (
	"context"
	"errors"
	"sort"

	"policy-rag/internal/models"
)

// Typed error kinds so fallback logic switches on errors.Is instead of
// sniffing message substrings.
var (
	// ErrVectorDimension reports a query embedding whose length does not
	// match the stored vector column.
	ErrVectorDimension = errors.New("query embedding dimension mismatch")
	// ErrServiceUnavailable reports a storage engine failure.
	ErrServiceUnavailable = errors.New("search service unavailable")
)

// Searcher executes full-text, vector or hybrid retrieval over the corpus.
// Implementations must not issue a query-embedding call when vector search
// is disabled, and must degrade to text-only ranking when the query
// embedding fails while text search is still enabled.
type Searcher interface {
	SearchAndEmbed(ctx context.Context, queryText string, top int, enableVectorSearch, enableTextSearch bool, filters []models.Filter) ([]models.ItemPublic, error)
}

// rrfK is the standard reciprocal-rank-fusion smoothing constant.
const rrfK = 60

// FuseRRF merges ranked lists by reciprocal rank fusion, deduplicating by
// item id. Ties break on ascending id to keep the ordering stable.
func FuseRRF(top int, rankings ...[]models.ItemPublic) []models.ItemPublic {
	scores := make(map[int]float64)
	byID := make(map[int]models.ItemPublic)
	for _, ranking := range rankings {
		for rank, item := range ranking {
			scores[item.ID] += 1.0 / float64(rrfK+rank+1)
			if _, seen := byID[item.ID]; !seen {
				byID[item.ID] = item
			}
		}
	}

	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})

	if top > 0 && len(ids) > top {
		ids = ids[:top]
	}
	fused := make([]models.ItemPublic, 0, len(ids))
	for _, id := range ids {
		fused = append(fused, byID[id])
	}
	return fused
}
