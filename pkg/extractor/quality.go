package extractor

import "regexp"

// Quality status labels.
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

// currencyPattern matches currency symbols and amount-like figures commonly
// found in statements, premium notices and invoices.
var currencyPattern = regexp.MustCompile(
	`(?i)(?:₹|Rs\.?\s?\d|INR|USD|EUR|\$\d)` +
		`|\d{1,3}(?:,\d{2,3})+(?:\.\d{1,2})?` +
		`|\d+\.\d{2}\b`,
)

// datePattern matches the date formats that show up in Indian bank and
// insurer documents: DD/MM/YYYY variants, ISO dates and "15 Jan" styles.
var datePattern = regexp.MustCompile(
	`(?i)(?:\d{1,2}[/\-\.]\d{1,2}[/\-\.]\d{2,4})` +
		`|(?:\d{4}[/\-]\d{2}[/\-]\d{2})` +
		`|(?:(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2})` +
		`|(?:\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?)`,
)

// ScoreQuality rates extracted text 0-100 from length, density relative to
// the source size, and the presence of financial and date markers.
// Deterministic and monotonic in text length for fixed marker content.
func ScoreQuality(text string, originalSize int) int {
	score := 50

	if len(text) > 100 {
		score += 20
	}
	if len(text) > 500 {
		score += 15
	}
	if originalSize > 0 && float64(len(text))/float64(originalSize) > 0.5 {
		score += 15
	}
	if currencyPattern.MatchString(text) {
		score += 10
	}
	if datePattern.MatchString(text) {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

// QualityStatus maps a score to its label: high (>80), medium (>60), low.
func QualityStatus(score int) string {
	switch {
	case score > 80:
		return QualityHigh
	case score > 60:
		return QualityMedium
	default:
		return QualityLow
	}
}
