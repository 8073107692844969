package searcher

import (
	"testing"

	"policy-rag/internal/models"
)

func items(ids ...int) []models.ItemPublic {
	out := make([]models.ItemPublic, len(ids))
	for i, id := range ids {
		out[i] = models.ItemPublic{ID: id}
	}
	return out
}

func TestFuseRRF_AgreementWins(t *testing.T) {
	// Item 2 appears high in both rankings and must come out on top.
	fused := FuseRRF(3, items(2, 1, 3), items(2, 3, 4))
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused items, got %d", len(fused))
	}
	if fused[0].ID != 2 {
		t.Errorf("expected item 2 first, got %d", fused[0].ID)
	}
}

func TestFuseRRF_Deduplicates(t *testing.T) {
	fused := FuseRRF(0, items(1, 2), items(2, 1))
	if len(fused) != 2 {
		t.Errorf("expected 2 unique items, got %d", len(fused))
	}
}

func TestFuseRRF_TruncatesToTop(t *testing.T) {
	fused := FuseRRF(2, items(1, 2, 3, 4, 5))
	if len(fused) != 2 {
		t.Errorf("expected top 2, got %d", len(fused))
	}
	if fused[0].ID != 1 || fused[1].ID != 2 {
		t.Errorf("order not preserved: %v", fused)
	}
}

func TestFuseRRF_EmptyInput(t *testing.T) {
	if fused := FuseRRF(5); len(fused) != 0 {
		t.Errorf("expected empty fusion, got %v", fused)
	}
	if fused := FuseRRF(5, nil, nil); len(fused) != 0 {
		t.Errorf("expected empty fusion, got %v", fused)
	}
}
