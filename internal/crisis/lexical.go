package crisis

import (
	"strings"

	"github.com/samber/lo"
)

// LexicalMatcher flags categories by keyword substring containment.
type LexicalMatcher struct {
	categories []Category
}

// NewLexicalMatcher lower-cases the keyword lists of the given categories.
func NewLexicalMatcher(categories []Category) *LexicalMatcher {
	folded := make([]Category, len(categories))
	for i, c := range categories {
		kws := make([]string, len(c.Keywords))
		for j, kw := range c.Keywords {
			kws[j] = strings.ToLower(kw)
		}
		folded[i] = Category{Name: c.Name, Keywords: kws, Response: c.Response}
	}
	return &LexicalMatcher{categories: folded}
}

// Match returns the categories whose keywords occur in message, in table
// order. self_harm is also reported when the message pairs a harm word with
// a self reference, even if no listed phrase matched: a false positive there
// is acceptable, a miss is not.
func (m *LexicalMatcher) Match(message string) []string {
	text := foldText(message)
	var found []string
	for _, c := range m.categories {
		if containsAny(text, c.Keywords) {
			found = append(found, c.Name)
		}
	}

	if !lo.Contains(found, SelfHarm) && selfHarmHeuristic(text) {
		found = append(found, SelfHarm)
	}
	return found
}

// matchesCategory reports whether folded text contains any keyword of c.
func (m *LexicalMatcher) matchesCategory(text string, c Category) bool {
	return containsAny(text, c.Keywords)
}

// keywordCount counts every keyword occurrence across all categories.
func (m *LexicalMatcher) keywordCount(text string) int {
	n := 0
	for _, c := range m.categories {
		for _, kw := range c.Keywords {
			n += strings.Count(text, kw)
		}
	}
	return n
}

func selfHarmHeuristic(text string) bool {
	harm := strings.Contains(text, "hurt") || strings.Contains(text, "harm")
	self := strings.Contains(text, "myself") || strings.Contains(text, "self")
	return harm && self
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// foldText lower-cases text and normalizes typographic apostrophes so that
// "can’t" matches "can't".
func foldText(s string) string {
	return strings.ToLower(strings.NewReplacer("’", "'", "‘", "'").Replace(s))
}
