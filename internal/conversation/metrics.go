package conversation

import "strings"

// ForbiddenTerms is the fixed list of terms a reply is screened
// against. Hits are reported in this order.
var ForbiddenTerms = []string{"금지어1", "금지어2", "욕설"}

// Evaluate computes quality metrics for a reply. It is pure and never
// fails: empty input yields zero-length metrics.
func Evaluate(reply string, style StyleGuide) Metrics {
	m := Metrics{
		Length:        len(strings.Fields(reply)),
		ForbiddenHits: []string{},
	}

	for _, term := range ForbiddenTerms {
		if strings.Contains(reply, term) {
			m.ForbiddenHits = append(m.ForbiddenHits, term)
		}
	}

	if tone := strings.TrimSpace(style.Tone); tone != "" {
		match := strings.Contains(strings.ToLower(reply), strings.ToLower(tone))
		m.ToneMatch = &match
	}

	return m
}
