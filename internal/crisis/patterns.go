package crisis

import (
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/rcliao/coach-memory/internal/model"
)

const (
	// historyWindow is how many trailing history entries join the message
	// for trend analysis.
	historyWindow = 5

	keywordTrendMin         = 3
	keywordTrendConfidence  = 0.6
	negativeTrendMin        = 3
	negativeTrendConfidence = 0.65

	severeScore          = 8
	depressionConfidence = 0.8
	anxietyConfidence    = 0.7

	contextConfidence = 0.75
)

// Analysis is the result of pattern and trend analysis over one message.
type Analysis struct {
	ContextCategories []string  `json:"context_categories"`
	PatternMatches    []string  `json:"pattern_matches"`
	RiskLevel         RiskLevel `json:"risk_level"`
	ConfidenceScore   float64   `json:"confidence_score"`
}

type compiledPattern struct {
	category string
	source   string
	re       *regexp.Regexp
}

// PatternAnalyzer detects indirect intent, word combinations and negative
// trends across recent history, weighted by the user's risk profile.
type PatternAnalyzer struct {
	patterns     []compiledPattern
	combinations []Combination
	keywords     *LexicalMatcher
	negative     map[string]bool
	positive     map[string]bool
}

// NewPatternAnalyzer compiles the pattern rules in t. t must be valid.
func NewPatternAnalyzer(t Tables) (*PatternAnalyzer, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	a := &PatternAnalyzer{
		keywords: NewLexicalMatcher(t.Categories),
		negative: foldedSet(t.NegativeWords),
		positive: foldedSet(t.PositiveWords),
	}
	for _, p := range t.IndirectPatterns {
		a.patterns = append(a.patterns, compiledPattern{
			category: p.Category,
			source:   p.Pattern,
			re:       regexp.MustCompile("(?i)" + p.Pattern),
		})
	}
	for _, c := range t.Combinations {
		a.combinations = append(a.combinations, Combination{
			Category: c.Category,
			Words:    lo.Map(c.Words, func(w string, _ int) string { return strings.ToLower(w) }),
		})
	}
	return a, nil
}

// Analyze runs every rule against message. history and profile are
// optional. Each rule can only raise the risk level and confidence set by
// an earlier rule.
func (a *PatternAnalyzer) Analyze(message string, history []string, profile *model.RiskProfile) Analysis {
	text := foldText(message)
	res := Analysis{
		ContextCategories: []string{},
		PatternMatches:    []string{},
		RiskLevel:         RiskLow,
	}
	add := func(category string) {
		if !lo.Contains(res.ContextCategories, category) {
			res.ContextCategories = append(res.ContextCategories, category)
		}
	}

	for _, p := range a.patterns {
		if p.re.MatchString(text) {
			add(p.category)
			res.PatternMatches = append(res.PatternMatches, p.source)
		}
	}

	present := lo.SliceToMap(words(text), func(w string) (string, bool) { return w, true })
	for _, c := range a.combinations {
		if lo.EveryBy(c.Words, func(w string) bool { return present[w] }) {
			add(c.Category)
			res.PatternMatches = append(res.PatternMatches, "combination:"+strings.Join(c.Words, "+"))
		}
	}

	if len(history) > 0 {
		recent := history[max(0, len(history)-historyWindow):]
		joined := foldText(strings.Join(append(append([]string{}, recent...), message), " "))

		if a.keywords.keywordCount(joined) >= keywordTrendMin {
			res.escalate(RiskMedium, keywordTrendConfidence)
			res.PatternMatches = append(res.PatternMatches, "trend:keyword_frequency")
		}

		var neg, pos int
		for _, w := range words(joined) {
			if a.negative[w] {
				neg++
			} else if a.positive[w] {
				pos++
			}
		}
		if neg > negativeTrendMin && neg > 2*pos {
			res.escalate(RiskMedium, negativeTrendConfidence)
			res.PatternMatches = append(res.PatternMatches, "trend:negative_mood")
		}
	}

	res.weighProfile(res.ContextCategories, profile)

	if len(res.ContextCategories) > 0 {
		res.escalate(RiskMedium, contextConfidence)
	}
	return res
}

// weighProfile escalates to high when the user's baseline score for a
// severe category is 8 or more and that category is among categories.
func (res *Analysis) weighProfile(categories []string, profile *model.RiskProfile) {
	if profile == nil {
		return
	}
	if atLeast(profile.DepressionScore, severeScore) && lo.Contains(categories, SevereDepression) {
		res.escalate(RiskHigh, depressionConfidence)
		res.addMatch("profile:depression")
	}
	if atLeast(profile.AnxietyScore, severeScore) && lo.Contains(categories, SevereAnxiety) {
		res.escalate(RiskHigh, anxietyConfidence)
		res.addMatch("profile:anxiety")
	}
}

func (res *Analysis) addMatch(m string) {
	if !lo.Contains(res.PatternMatches, m) {
		res.PatternMatches = append(res.PatternMatches, m)
	}
}

func atLeast(score *int, threshold int) bool {
	return score != nil && *score >= threshold
}

var wordRe = regexp.MustCompile(`[\p{L}\p{N}']+`)

// words splits folded text into words, keeping inner apostrophes ("can't").
func words(text string) []string {
	var out []string
	for _, w := range wordRe.FindAllString(text, -1) {
		if w = strings.Trim(w, "'"); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func foldedSet(list []string) map[string]bool {
	return lo.SliceToMap(list, func(w string) (string, bool) { return foldText(w), true })
}
