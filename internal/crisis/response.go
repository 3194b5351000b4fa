package crisis

import (
	"fmt"
	"strings"
)

const (
	responsePreamble = "I notice you're expressing some thoughts that concern me. " +
		"Your safety and well-being are important. " +
		"Remember that there are people who can help, and " +
		"reaching out to a mental health professional is a good step. "

	highRiskClosing = "Based on what you've shared, I strongly encourage you to seek immediate " +
		"professional help. If you are in danger right now, please call emergency services. "

	mediumRiskClosing = "It would be a good idea to speak with a mental health professional soon " +
		"about what you're going through. "

	resourcesIntro = "Below I'm providing some resources that might be helpful. " +
		"Please consider reaching out to one of them for professional support:\n\n"
)

// Response composes a supportive message for the detected categories: a
// fixed preamble, one paragraph per category in table order, a closing
// that depends on the risk level, and an introduction to the resources.
func (d *Detector) Response(categories []string, analysis Analysis) string {
	var b strings.Builder
	b.WriteString(responsePreamble)

	want := map[string]bool{}
	for _, c := range categories {
		want[c] = true
	}
	for _, c := range d.tables.Categories {
		if want[c.Name] && c.Response != "" {
			b.WriteString(strings.TrimSpace(c.Response))
			b.WriteByte(' ')
		}
	}

	switch analysis.RiskLevel {
	case RiskHigh:
		b.WriteString(highRiskClosing)
	case RiskMedium:
		b.WriteString(mediumRiskClosing)
	}

	b.WriteString(resourcesIntro)
	return b.String()
}

// FormatResources renders resources as a plain-text bulleted list under an
// "Emergency Resources:" header. An empty list renders as "".
func FormatResources(resources []Resource) string {
	if len(resources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Emergency Resources:\n\n")
	for _, r := range resources {
		fmt.Fprintf(&b, "• %s\n  %s\n  %s\n\n", r.Name, r.Contact, r.Description)
	}
	return b.String()
}
