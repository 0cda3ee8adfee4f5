package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreQualityTable(t *testing.T) {
	longPlain := strings.Repeat("a", 600)

	tests := []struct {
		name string
		text string
		size int
		want int
	}{
		{"empty", "", 1000, 50},
		{"short plain", "hello world", 1000, 50},
		{"over 100 chars", strings.Repeat("x", 150), 10000, 70},
		{"over 500 chars", longPlain, 10000, 85},
		{"dense text", strings.Repeat("x", 150), 200, 85},
		{"currency marker", "Total due Rs. 4,500.00", 10000, 60},
		{"date marker", "Statement period 01/04/2024", 10000, 60},
		{"everything capped", longPlain + " Rs. 4,500.00 on 01/04/2024", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreQuality(tt.text, tt.size))
		})
	}
}

func TestScoreQualityIdempotent(t *testing.T) {
	text := "EMI of Rs. 12,340.00 debited on 05/06/2024"
	assert.Equal(t, ScoreQuality(text, 512), ScoreQuality(text, 512))
}

func TestScoreQualityMonotonicInLength(t *testing.T) {
	// Longer text with the same marker content never scores lower.
	base := "Premium INR 5,000.00 due 15/07/2024 "
	short := base
	long := base + strings.Repeat("policy terms and conditions ", 30)

	sizeOfShort := len(short)
	assert.GreaterOrEqual(t, ScoreQuality(long, sizeOfShort), ScoreQuality(short, sizeOfShort))
}

func TestQualityStatus(t *testing.T) {
	assert.Equal(t, QualityHigh, QualityStatus(85))
	assert.Equal(t, QualityMedium, QualityStatus(70))
	assert.Equal(t, QualityLow, QualityStatus(60))
	assert.Equal(t, QualityLow, QualityStatus(0))
}
