package crisis

import (
	"fmt"
)

// persistenceThreshold is the share of messages a category must appear in
// to be reported as persistent.
const persistenceThreshold = 0.3

// HistoricalIndicators summarizes crisis signals across a message history.
type HistoricalIndicators struct {
	PatternFound         bool               `json:"pattern_found"`
	IncreasingPattern    bool               `json:"increasing_pattern"`
	PersistentCategories []string           `json:"persistent_categories"`
	CategoryPersistence  map[string]float64 `json:"category_persistence"`
	KeywordCounts        []int              `json:"keyword_counts"`
}

// HistoricalIndicators computes per-message keyword counts, whether the
// count never decreased over the last three messages, and for each category
// the share of messages containing one of its keywords.
//
// IncreasingPattern needs at least three messages and a non-zero count among
// the last three; three zero counts are flat, not increasing.
func (d *Detector) HistoricalIndicators(history []string) (ind HistoricalIndicators) {
	ind = HistoricalIndicators{
		PersistentCategories: []string{},
		CategoryPersistence:  map[string]float64{},
		KeywordCounts:        []int{},
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("historical crisis analysis failed", "panic", fmt.Sprint(r))
			ind = HistoricalIndicators{
				PersistentCategories: []string{},
				CategoryPersistence:  map[string]float64{},
				KeywordCounts:        []int{},
			}
		}
	}()

	if len(history) == 0 {
		return ind
	}

	folded := make([]string, len(history))
	for i, m := range history {
		folded[i] = foldText(m)
		ind.KeywordCounts = append(ind.KeywordCounts, d.lexical.keywordCount(folded[i]))
	}

	if n := len(ind.KeywordCounts); n >= 3 {
		last := ind.KeywordCounts[n-3:]
		ind.IncreasingPattern = last[0] <= last[1] && last[1] <= last[2] && last[2] > 0
	}

	for _, c := range d.lexical.categories {
		hits := 0
		for _, text := range folded {
			if d.lexical.matchesCategory(text, c) {
				hits++
			}
		}
		rate := float64(hits) / float64(len(folded))
		ind.CategoryPersistence[c.Name] = rate
		if rate >= persistenceThreshold {
			ind.PersistentCategories = append(ind.PersistentCategories, c.Name)
		}
	}

	ind.PatternFound = ind.IncreasingPattern || len(ind.PersistentCategories) > 0
	return ind
}
