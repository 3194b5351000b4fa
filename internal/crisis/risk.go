package crisis

import (
	"fmt"
	"strings"
)

// RiskLevel is the coarse severity tier of an assessment. Levels are
// ordered, so escalation is a plain max.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "low"
	}
}

// ParseRiskLevel accepts "low", "medium" or "high" in any case.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	}
	return RiskLow, fmt.Errorf("invalid risk level %q (valid: low, medium, high)", s)
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RiskLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseRiskLevel(string(b))
	if err != nil {
		return err
	}
	*r = lvl
	return nil
}

// escalate raises the assessment to at least level and confidence. It never
// lowers either value.
func (a *Analysis) escalate(level RiskLevel, confidence float64) {
	a.RiskLevel = max(a.RiskLevel, level)
	a.ConfidenceScore = max(a.ConfidenceScore, confidence)
}
