package memory

import (
	"strings"

	"github.com/rcliao/coach-memory/internal/vectorspace"
)

const (
	themeMaxDF     = 0.7
	themeMinWeight = 0.01
	maxThemes      = 10
)

// Theme is a heavily weighted term or phrase in a user's recent messages.
type Theme struct {
	Theme           string  `json:"theme"`
	ImportanceScore float64 `json:"importance_score"`
}

// ExtractThemes joins messages into one document and returns up to ten
// terms weighing more than 0.01, heaviest first. Terms must occur at least
// minOccurrences times. Empty input, or input with nothing left after
// pruning, yields no themes.
func ExtractThemes(messages []string, minOccurrences int) []Theme {
	doc := strings.Join(messages, " ")
	if strings.TrimSpace(doc) == "" {
		return []Theme{}
	}

	space := vectorspace.New(vectorspace.Options{
		MinCount:  minOccurrences,
		MaxDF:     themeMaxDF,
		MaxN:      2,
		StopWords: vectorspace.EnglishStopWords,
	})
	vecs, err := space.FitTransform([]string{doc})
	if err != nil {
		return []Theme{}
	}

	themes := []Theme{}
	for _, tw := range space.Weights(vecs[0]) {
		if tw.Weight <= themeMinWeight {
			continue
		}
		themes = append(themes, Theme{Theme: tw.Term, ImportanceScore: tw.Weight})
		if len(themes) == maxThemes {
			break
		}
	}
	return themes
}
