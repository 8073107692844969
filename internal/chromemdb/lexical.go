package chromemdb

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"policy-rag/internal/models"
)

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// lexicalRank scores items by token-set overlap with the query (Ochiai
// coefficient) and returns the top matches, best first. Items with zero
// overlap are excluded.
func lexicalRank(query string, items []models.ItemPublic, top int) []models.ItemPublic {
	qset := tokenSet(query)
	if len(qset) == 0 {
		return nil
	}

	type scored struct {
		item  models.ItemPublic
		score float64
	}
	var matches []scored
	for _, item := range items {
		if score := ochiai(qset, item.Content); score > 0 {
			matches = append(matches, scored{item, score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	if top > 0 && len(matches) > top {
		matches = matches[:top]
	}
	ranked := make([]models.ItemPublic, len(matches))
	for i, m := range matches {
		ranked[i] = m.item
	}
	return ranked
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

func ochiai(qset map[string]struct{}, text string) float64 {
	tset := tokenSet(text)
	if len(tset) == 0 {
		return 0
	}
	inter := 0
	for tok := range tset {
		if _, ok := qset[tok]; ok {
			inter++
		}
	}
	return float64(inter) / (math.Sqrt(float64(len(qset))) * math.Sqrt(float64(len(tset))))
}
