package memory

import (
	"sort"

	"github.com/rcliao/coach-memory/internal/vectorspace"
)

const (
	// RelevanceFloor is the similarity at or below which a chunk is noise.
	RelevanceFloor = 0.1

	DefaultMaxResults = 5
)

// Result is a retrieved chunk with its similarity to the query.
type Result struct {
	Text            string        `json:"text"`
	Metadata        ChunkMetadata `json:"metadata"`
	SimilarityScore float64       `json:"similarity_score"`
}

// Rank projects query into the index's fitted space and returns up to
// maxResults chunks ordered by descending similarity, dropping any at or
// below RelevanceFloor. Equal scores keep chunk order (oldest first).
func (ix *Index) Rank(query string, maxResults int) []Result {
	if ix.Empty() {
		return []Result{}
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	q, err := ix.Space.Transform(query)
	if err != nil {
		return []Result{}
	}

	scores := make([]float64, len(ix.Vectors))
	order := make([]int, len(ix.Vectors))
	for i, v := range ix.Vectors {
		scores[i] = vectorspace.Similarity(q, v)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	results := []Result{}
	for _, i := range order[:min(maxResults, len(order))] {
		if scores[i] <= RelevanceFloor {
			break
		}
		results = append(results, Result{
			Text:            ix.Chunks[i].Text,
			Metadata:        ix.Chunks[i].Metadata,
			SimilarityScore: scores[i],
		})
	}
	return results
}
