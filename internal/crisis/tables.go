package crisis

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTables is returned when crisis tables fail validation.
var ErrInvalidTables = errors.New("invalid crisis tables")

// GeneralResources is the resource key always included for a detected crisis.
const GeneralResources = "general"

// Built-in category names.
const (
	Suicide          = "suicide"
	SelfHarm         = "self_harm"
	SevereDepression = "severe_depression"
	SevereAnxiety    = "severe_anxiety"
	SubstanceAbuse   = "substance_abuse"
	DomesticViolence = "domestic_violence"
	ChildAbuse       = "child_abuse"
)

//go:embed tables.yaml
var defaultTablesYAML []byte

// Resource is a crisis service a user can contact.
type Resource struct {
	Name        string `yaml:"name" json:"name"`
	Contact     string `yaml:"contact" json:"contact"`
	Description string `yaml:"description" json:"description"`
}

// Category is a crisis category backed by a keyword list.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	// Response is the paragraph added to a crisis response for this category.
	Response string `yaml:"response"`
}

// PatternRule flags Category when Pattern matches.
type PatternRule struct {
	Category string `yaml:"category"`
	Pattern  string `yaml:"pattern"`
}

// Combination flags Category when every one of Words is present.
type Combination struct {
	Category string   `yaml:"category"`
	Words    []string `yaml:"words"`
}

// Tables is the configuration data behind detection: keywords, resources,
// indirect-intent patterns, word combinations and mood word lists.
type Tables struct {
	Categories       []Category            `yaml:"categories"`
	Resources        map[string][]Resource `yaml:"resources"`
	IndirectPatterns []PatternRule         `yaml:"indirect_patterns"`
	Combinations     []Combination         `yaml:"combinations"`
	NegativeWords    []string              `yaml:"negative_words"`
	PositiveWords    []string              `yaml:"positive_words"`
}

// DefaultTables returns a fresh copy of the built-in tables.
func DefaultTables() Tables {
	t, err := ParseTables(defaultTablesYAML)
	if err != nil {
		panic(fmt.Sprintf("crisis: built-in tables: %v", err))
	}
	return t
}

// LoadTables reads tables from a YAML file. Sections missing from the file
// keep their built-in values.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read crisis tables: %w", err)
	}
	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Tables{}, fmt.Errorf("parse crisis tables %s: %w", path, err)
	}
	t := DefaultTables().merge(override)
	if err := t.Validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// ParseTables decodes and validates a complete tables document.
func ParseTables(data []byte) (Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tables{}, fmt.Errorf("parse crisis tables: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

func (t Tables) merge(o Tables) Tables {
	if len(o.Categories) > 0 {
		t.Categories = o.Categories
	}
	if len(o.Resources) > 0 {
		t.Resources = o.Resources
	}
	if len(o.IndirectPatterns) > 0 {
		t.IndirectPatterns = o.IndirectPatterns
	}
	if len(o.Combinations) > 0 {
		t.Combinations = o.Combinations
	}
	if len(o.NegativeWords) > 0 {
		t.NegativeWords = o.NegativeWords
	}
	if len(o.PositiveWords) > 0 {
		t.PositiveWords = o.PositiveWords
	}
	return t
}

// Names returns category names in table order.
func (t Tables) Names() []string {
	names := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		names[i] = c.Name
	}
	return names
}

// BuiltinCategories lists the built-in category names in reporting order.
var BuiltinCategories = []string{
	Suicide, SelfHarm, SevereDepression, SevereAnxiety,
	SubstanceAbuse, DomesticViolence, ChildAbuse,
}

// known reports every category name resources may be keyed by: the built-in
// names plus anything reachable through keywords, patterns or combinations.
func (t Tables) known() map[string]bool {
	k := map[string]bool{}
	for _, name := range BuiltinCategories {
		k[name] = true
	}
	for _, c := range t.Categories {
		k[c.Name] = true
	}
	for _, p := range t.IndirectPatterns {
		k[p.Category] = true
	}
	for _, c := range t.Combinations {
		k[c.Category] = true
	}
	return k
}

// Validate checks the tables for programmer errors.
func (t Tables) Validate() error {
	var errs []error
	seen := map[string]bool{}
	for i, c := range t.Categories {
		switch {
		case strings.TrimSpace(c.Name) == "":
			errs = append(errs, fmt.Errorf("category %d has no name", i))
		case c.Name == GeneralResources:
			errs = append(errs, fmt.Errorf("category name %q is reserved", c.Name))
		case seen[c.Name]:
			errs = append(errs, fmt.Errorf("duplicate category %q", c.Name))
		}
		seen[c.Name] = true
		if len(c.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("category %q has no keywords", c.Name))
		}
		for _, kw := range c.Keywords {
			if strings.TrimSpace(kw) == "" {
				errs = append(errs, fmt.Errorf("category %q has a blank keyword", c.Name))
				break
			}
		}
	}

	for _, p := range t.IndirectPatterns {
		if p.Category == "" {
			errs = append(errs, fmt.Errorf("pattern %q has no category", p.Pattern))
		}
		if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, fmt.Errorf("pattern %q: %w", p.Pattern, err))
		}
	}
	for _, c := range t.Combinations {
		if c.Category == "" || len(c.Words) == 0 {
			errs = append(errs, fmt.Errorf("combination %v needs a category and words", c.Words))
		}
	}

	known := t.known()
	for key := range t.Resources {
		if key != GeneralResources && !known[key] {
			errs = append(errs, fmt.Errorf("resources for unknown category %q", key))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidTables, errors.Join(errs...))
}
