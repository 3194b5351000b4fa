package crisis

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rcliao/coach-memory/internal/model"
)

func newTestDetector(t *testing.T, opts ...Option) *Detector {
	t.Helper()
	d, err := New(opts...)
	if err != nil {
		t.Fatalf("new detector: %v", err)
	}
	return d
}

func intPtr(i int) *int { return &i }

func hasCategory(cats []string, c string) bool {
	for _, v := range cats {
		if v == c {
			return true
		}
	}
	return false
}

func TestDetectSuicide(t *testing.T) {
	d := newTestDetector(t)
	res := d.Detect("I want to kill myself. I don't see any reason to live anymore.", nil, nil)

	if !res.IsCrisis {
		t.Fatal("expected crisis")
	}
	if !hasCategory(res.Categories, Suicide) {
		t.Errorf("expected suicide in %v", res.Categories)
	}
	found := false
	for _, r := range res.Resources {
		if strings.Contains(r.Name, "Suicide") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a suicide-specific resource, got %v", res.Resources)
	}
	if res.Analysis.RiskLevel < RiskMedium {
		t.Errorf("expected at least medium risk, got %s", res.Analysis.RiskLevel)
	}
}

func TestDetectMultipleCategories(t *testing.T) {
	d := newTestDetector(t)
	res := d.Detect("I've been feeling so hopeless and worthless. I've been drinking too much "+
		"to cope and sometimes think about hurting myself.", nil, nil)

	for _, want := range []string{SelfHarm, SevereDepression, SubstanceAbuse} {
		if !hasCategory(res.Categories, want) {
			t.Errorf("expected %s in %v", want, res.Categories)
		}
	}
	if len(res.Resources) < 3 {
		t.Errorf("expected at least 3 resources, got %d", len(res.Resources))
	}
}

func TestDetectNoCrisis(t *testing.T) {
	d := newTestDetector(t)
	res := d.Detect("I've been feeling a bit down today, but I'm managing okay.", nil, nil)

	if res.IsCrisis {
		t.Errorf("expected no crisis, got %v", res.Categories)
	}
	if len(res.Categories) != 0 || len(res.Resources) != 0 {
		t.Errorf("expected empty categories and resources, got %v / %v", res.Categories, res.Resources)
	}
	if res.Analysis.RiskLevel != RiskLow {
		t.Errorf("expected low risk, got %s", res.Analysis.RiskLevel)
	}
}

func TestDetectDegenerateInput(t *testing.T) {
	d := newTestDetector(t)
	for _, msg := range []string{"", "   ", "\x00\xff\xfe", "!!!???"} {
		res := d.Detect(msg, []string{"", "\t"}, &model.RiskProfile{})
		if res.IsCrisis {
			t.Errorf("%q: expected no crisis", msg)
		}
		if res.Categories == nil || res.Resources == nil {
			t.Errorf("%q: expected non-nil empty slices", msg)
		}
	}
}

func TestSelfHarmHeuristic(t *testing.T) {
	// Keyword lists without the literal phrase still catch it.
	d := newTestDetector(t, WithCategories([]Category{
		{Name: Suicide, Keywords: []string{"suicide"}},
	}))
	res := d.Detect("I might hurt myself tonight", nil, nil)
	if !hasCategory(res.Categories, SelfHarm) {
		t.Errorf("expected self_harm via heuristic, got %v", res.Categories)
	}

	d = newTestDetector(t)
	res = d.Detect("Sometimes I want to harm my own self", nil, nil)
	if !hasCategory(res.Categories, SelfHarm) {
		t.Errorf("expected self_harm via heuristic, got %v", res.Categories)
	}
}

func TestCategoryUnion(t *testing.T) {
	d := newTestDetector(t)
	msgs := []string{
		"I'm so tired of living like this",
		"There is no hope for my future and I feel worthless",
		"I had a panic attack at work",
		"Nice walk in the park",
		"I have a plan, I am ready to die",
	}
	for _, msg := range msgs {
		res := d.Detect(msg, nil, nil)
		want := map[string]bool{}
		for _, c := range d.lexical.Match(msg) {
			want[c] = true
		}
		for _, c := range d.patterns.Analyze(msg, nil, nil).ContextCategories {
			want[c] = true
		}
		got := map[string]bool{}
		for _, c := range res.Categories {
			if got[c] {
				t.Errorf("%q: duplicate category %s", msg, c)
			}
			got[c] = true
		}
		if len(got) != len(want) {
			t.Errorf("%q: got %v, want %v", msg, got, want)
			continue
		}
		for c := range want {
			if !got[c] {
				t.Errorf("%q: missing %s", msg, c)
			}
		}
		if res.IsCrisis != (len(want) > 0) {
			t.Errorf("%q: is_crisis %v with %d categories", msg, res.IsCrisis, len(want))
		}
	}
}

func TestProfileEscalationThroughLexical(t *testing.T) {
	d := newTestDetector(t)
	res := d.Detect("I'm terrified all the time", nil, &model.RiskProfile{AnxietyScore: intPtr(9)})
	if !hasCategory(res.Categories, SevereAnxiety) {
		t.Fatalf("expected severe_anxiety, got %v", res.Categories)
	}
	if res.Analysis.RiskLevel != RiskHigh {
		t.Errorf("expected high risk, got %s", res.Analysis.RiskLevel)
	}
	if res.Analysis.ConfidenceScore < 0.7 {
		t.Errorf("expected confidence >= 0.7, got %f", res.Analysis.ConfidenceScore)
	}
}

func TestCustomKeywords(t *testing.T) {
	d := newTestDetector(t, WithCategories([]Category{
		{Name: "custom_category", Keywords: []string{"unique_keyword", "special_phrase"}},
	}))

	res := d.Detect("This contains a unique_keyword that should trigger detection.", nil, nil)
	if !res.IsCrisis || !hasCategory(res.Categories, "custom_category") {
		t.Errorf("expected custom_category, got %v", res.Categories)
	}

	res = d.Detect("This doesn't contain any trigger words.", nil, nil)
	if res.IsCrisis {
		t.Errorf("expected no crisis, got %v", res.Categories)
	}
}

func TestCustomResources(t *testing.T) {
	d := newTestDetector(t,
		WithCategories([]Category{{Name: "custom_category", Keywords: []string{"test_keyword"}}}),
		WithResources(map[string][]Resource{
			"custom_category": {{Name: "Custom Helpline", Contact: "999-999-9999", Description: "A custom helpline"}},
			GeneralResources:  {{Name: "General Help", Contact: "111-111-1111", Description: "General help resource"}},
		}),
	)

	res := d.Detect("This contains test_keyword that should trigger custom resources.", nil, nil)
	names := map[string]bool{}
	for _, r := range res.Resources {
		names[r.Name] = true
	}
	if !names["Custom Helpline"] || !names["General Help"] {
		t.Errorf("expected custom and general resources, got %v", res.Resources)
	}
	if res.Resources[0].Name != "General Help" {
		t.Errorf("expected general resources first, got %q", res.Resources[0].Name)
	}
}

func TestResourcesDeduplicated(t *testing.T) {
	shared := Resource{Name: "Shared", Contact: "1", Description: "d"}
	d := newTestDetector(t, WithResources(map[string][]Resource{
		GeneralResources: {shared},
		Suicide:          {shared, {Name: "Other", Contact: "2", Description: "d"}},
	}))
	got := d.Resources([]string{Suicide})
	if len(got) != 2 {
		t.Errorf("expected 2 unique resources, got %v", got)
	}
}

func TestInvalidTables(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"unknown resource key", WithResources(map[string][]Resource{"bogus": {{Name: "x"}}})},
		{"empty keywords", WithCategories([]Category{{Name: "empty"}})},
		{"reserved name", WithCategories([]Category{{Name: GeneralResources, Keywords: []string{"x"}}})},
		{"bad regex", func(d *Detector) {
			d.tables.IndirectPatterns = []PatternRule{{Category: Suicide, Pattern: "(unclosed"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opt); !errors.Is(err, ErrInvalidTables) {
				t.Errorf("expected ErrInvalidTables, got %v", err)
			}
		})
	}
}

func TestResourcesFor(t *testing.T) {
	d := newTestDetector(t)
	rs, err := d.ResourcesFor(DomesticViolence)
	if err != nil {
		t.Fatalf("resources: %v", err)
	}
	if len(rs) != 1 {
		t.Errorf("expected 1 domestic violence resource, got %d", len(rs))
	}
	if _, err := d.ResourcesFor("nope"); err == nil {
		t.Error("expected error for unknown category")
	}
	if rs, _ := d.ResourcesFor(SevereAnxiety); len(rs) != 0 {
		t.Errorf("expected no severe_anxiety resources, got %v", rs)
	}
}

func TestGetCrisisResponse(t *testing.T) {
	d := newTestDetector(t)

	resp := strings.ToLower(d.Response([]string{Suicide}, Analysis{RiskLevel: RiskHigh, ConfidenceScore: 0.9}))
	if !strings.Contains(resp, "suicide") || !strings.Contains(resp, "crisis helpline") {
		t.Errorf("suicide response missing content: %s", resp)
	}
	if !strings.Contains(resp, "immediate professional help") {
		t.Errorf("high risk response should urge immediate help: %s", resp)
	}

	resp = strings.ToLower(d.Response([]string{SelfHarm}, Analysis{RiskLevel: RiskMedium}))
	if !strings.Contains(resp, "self-harm") || !strings.Contains(resp, "coping strategies") {
		t.Errorf("self-harm response missing content: %s", resp)
	}
	if !strings.Contains(resp, "professional soon") {
		t.Errorf("medium risk response should suggest a professional soon: %s", resp)
	}

	resp = d.Response([]string{SubstanceAbuse, SevereDepression}, Analysis{RiskLevel: RiskLow})
	dep := strings.Index(resp, "Depression can be")
	sub := strings.Index(resp, "Substance use")
	if dep < 0 || sub < 0 || dep > sub {
		t.Errorf("expected depression paragraph before substance paragraph: %s", resp)
	}
	if strings.Contains(resp, "professional soon") || strings.Contains(resp, "immediate professional") {
		t.Errorf("low risk response should have no closing clause: %s", resp)
	}
	if !strings.HasPrefix(resp, responsePreamble) || !strings.HasSuffix(resp, resourcesIntro) {
		t.Error("response should start with the preamble and end with the resources intro")
	}
}

func TestFormatResources(t *testing.T) {
	if got := FormatResources(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}

	got := FormatResources([]Resource{{Name: "X", Contact: "Y", Description: "Z"}})
	want := "Emergency Resources:\n\n• X\n  Y\n  Z\n\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHistoricalIndicators(t *testing.T) {
	d := newTestDetector(t)
	ind := d.HistoricalIndicators([]string{
		"I'm okay",
		"feeling hopeless",
		"hopeless and worthless",
		"hopeless, worthless and empty",
	})

	wantCounts := []int{0, 1, 2, 3}
	for i, c := range wantCounts {
		if ind.KeywordCounts[i] != c {
			t.Errorf("count %d: got %d, want %d", i, ind.KeywordCounts[i], c)
		}
	}
	if !ind.IncreasingPattern {
		t.Error("expected increasing pattern")
	}
	if got := ind.CategoryPersistence[SevereDepression]; got != 0.75 {
		t.Errorf("expected severe_depression persistence 0.75, got %f", got)
	}
	if got := ind.CategoryPersistence[Suicide]; got != 0 {
		t.Errorf("expected suicide persistence 0, got %f", got)
	}
	if len(ind.PersistentCategories) != 1 || ind.PersistentCategories[0] != SevereDepression {
		t.Errorf("expected only severe_depression persistent, got %v", ind.PersistentCategories)
	}
	if !ind.PatternFound {
		t.Error("expected pattern found")
	}
}

func TestHistoricalIndicatorsFlat(t *testing.T) {
	d := newTestDetector(t)

	ind := d.HistoricalIndicators(nil)
	if ind.PatternFound || ind.IncreasingPattern || len(ind.KeywordCounts) != 0 {
		t.Errorf("expected empty indicators, got %+v", ind)
	}

	ind = d.HistoricalIndicators([]string{"nice day", "went for a walk", "cooked pasta"})
	if ind.IncreasingPattern {
		t.Error("all-zero counts should not be an increasing pattern")
	}
	if ind.PatternFound {
		t.Error("expected no pattern")
	}
}

func TestDefaultTablesValid(t *testing.T) {
	tb := DefaultTables()
	names := tb.Names()
	if len(names) != len(BuiltinCategories) {
		t.Fatalf("expected %d categories, got %v", len(BuiltinCategories), names)
	}
	for i, n := range BuiltinCategories {
		if names[i] != n {
			t.Errorf("category %d: got %s, want %s", i, names[i], n)
		}
	}
	if len(tb.Resources[GeneralResources]) == 0 {
		t.Error("expected general resources")
	}
}

func TestLoadTablesMergesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	doc := "categories:\n  - name: grief\n    keywords: [lost my mother]\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	tb, err := LoadTables(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := tb.Names(); len(got) != 1 || got[0] != "grief" {
		t.Errorf("expected only grief category, got %v", got)
	}
	if len(tb.IndirectPatterns) == 0 || len(tb.Resources) == 0 {
		t.Error("expected built-in patterns and resources to be kept")
	}

	d := newTestDetector(t, WithTables(tb))
	if res := d.Detect("I lost my mother last spring", nil, nil); !hasCategory(res.Categories, "grief") {
		t.Errorf("expected grief, got %v", res.Categories)
	}
}

func TestRiskLevelJSON(t *testing.T) {
	b, err := json.Marshal(Analysis{RiskLevel: RiskHigh})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"risk_level":"high"`) {
		t.Errorf("unexpected json: %s", b)
	}

	var a Analysis
	if err := json.Unmarshal([]byte(`{"risk_level":"medium"}`), &a); err != nil {
		t.Fatal(err)
	}
	if a.RiskLevel != RiskMedium {
		t.Errorf("expected medium, got %s", a.RiskLevel)
	}

	levels := []RiskLevel{RiskHigh, RiskLow, RiskMedium}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	if levels[0] != RiskLow || levels[2] != RiskHigh {
		t.Errorf("unexpected ordering %v", levels)
	}
}
