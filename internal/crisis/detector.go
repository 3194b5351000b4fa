// Package crisis detects psychological crisis signals in user messages.
//
// Detection layers keyword matching, indirect-intent patterns, trends across
// recent history and the user's baseline risk profile. It never fails: on
// any internal error the message is treated as non-crisis and the failure
// is logged.
package crisis

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/rcliao/coach-memory/internal/logger"
	"github.com/rcliao/coach-memory/internal/model"
)

// lexicalConfidence is the confidence floor for a direct keyword match.
const lexicalConfidence = 0.7

// Result is the outcome of Detect.
type Result struct {
	IsCrisis   bool       `json:"is_crisis"`
	Categories []string   `json:"categories"`
	Resources  []Resource `json:"resources"`
	Analysis   Analysis   `json:"analysis"`
}

// Detector combines the lexical matcher and pattern analyzer.
type Detector struct {
	tables   Tables
	lexical  *LexicalMatcher
	patterns *PatternAnalyzer
	log      *logger.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithTables replaces all detection tables.
func WithTables(t Tables) Option {
	return func(d *Detector) { d.tables = t }
}

// WithCategories replaces only the keyword categories.
func WithCategories(c []Category) Option {
	return func(d *Detector) { d.tables.Categories = c }
}

// WithResources replaces only the resource lists.
func WithResources(r map[string][]Resource) Option {
	return func(d *Detector) { d.tables.Resources = r }
}

// WithLogger sets the logger used to report detections and recovered failures.
func WithLogger(l *logger.Logger) Option {
	return func(d *Detector) { d.log = l }
}

// New builds a detector over the built-in tables, adjusted by opts.
// Invalid tables are a configuration error.
func New(opts ...Option) (*Detector, error) {
	d := &Detector{tables: DefaultTables(), log: logger.Nop()}
	for _, o := range opts {
		o(d)
	}
	pa, err := NewPatternAnalyzer(d.tables)
	if err != nil {
		return nil, err
	}
	d.patterns = pa
	d.lexical = NewLexicalMatcher(d.tables.Categories)
	return d, nil
}

// Tables returns the tables the detector was built with.
func (d *Detector) Tables() Tables { return d.tables }

// Detect assesses message. history holds earlier user messages, oldest
// first; profile may be nil. The reported categories are exactly the union
// of lexical and pattern categories.
func (d *Detector) Detect(message string, history []string, profile *model.RiskProfile) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("crisis detection failed, treating message as non-crisis", "panic", fmt.Sprint(r))
			res = safeResult()
		}
	}()

	lexical := d.lexical.Match(message)
	analysis := d.patterns.Analyze(message, history, profile)

	categories := lo.Union(lexical, analysis.ContextCategories)
	if len(lexical) > 0 {
		analysis.escalate(RiskMedium, lexicalConfidence)
		analysis.weighProfile(categories, profile)
	}

	if len(categories) == 0 {
		return Result{Categories: []string{}, Resources: []Resource{}, Analysis: analysis}
	}

	d.log.Info("crisis detected",
		"categories", categories,
		"risk_level", analysis.RiskLevel.String(),
		"confidence", analysis.ConfidenceScore)

	return Result{
		IsCrisis:   true,
		Categories: categories,
		Resources:  d.Resources(categories),
		Analysis:   analysis,
	}
}

func safeResult() Result {
	return Result{
		Categories: []string{},
		Resources:  []Resource{},
		Analysis: Analysis{
			ContextCategories: []string{},
			PatternMatches:    []string{},
			RiskLevel:         RiskLow,
		},
	}
}

// Resources returns the general resources followed by those of each
// category, without duplicates.
func (d *Detector) Resources(categories []string) []Resource {
	out := append([]Resource{}, d.tables.Resources[GeneralResources]...)
	for _, c := range categories {
		out = append(out, d.tables.Resources[c]...)
	}
	return lo.Uniq(out)
}

// ResourcesFor returns the resources listed for a single category.
func (d *Detector) ResourcesFor(category string) ([]Resource, error) {
	if category != GeneralResources && !d.tables.known()[category] {
		return nil, fmt.Errorf("unknown crisis category %q", category)
	}
	return append([]Resource{}, d.tables.Resources[category]...), nil
}
