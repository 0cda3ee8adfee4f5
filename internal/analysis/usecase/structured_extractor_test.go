package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMessageParsesAIResponse(t *testing.T) {
	stub := &stubAI{response: `Here is the extraction:
{"category": "liability", "type": "credit_card", "status": "active", "amount": 15230.50, "currency": "INR", "merchant": "HDFC Bank", "transaction_date": "2025-03-05", "confidence": 90, "metadata": {"bank_name": "HDFC"}, "key_points": ["total due 15230.50"], "summary": "Credit card statement."}`}
	e := NewStructuredExtractor(stub, testQueue())

	ext, degraded := e.ExtractMessage(context.Background(), msg("m1", "Credit Card Statement", ""), nil)

	require.False(t, degraded)
	assert.Equal(t, analysisdomain.CategoryLiability, ext.Category)
	assert.Equal(t, "credit_card", ext.Type)
	assert.InDelta(t, 15230.50, ext.Amount, 0.001)
	assert.Equal(t, 90, ext.Confidence)
	assert.Equal(t, "HDFC", ext.Metadata.BankName)
}

func TestExtractMessageFallsBackWhenCallFails(t *testing.T) {
	stub := &stubAI{err: errors.New("connection refused")}
	e := NewStructuredExtractor(stub, testQueue())
	e.retry = noRetry

	m := msg("m1", "Your loan EMI statement", "")
	m.Body = "Your EMI of Rs. 12,500.00 is due on 2025-04-05. Outstanding loan balance applies."
	m.From = "alerts@hdfcbank.com"

	ext, degraded := e.ExtractMessage(context.Background(), m, nil)

	require.True(t, degraded)
	assert.Equal(t, analysisdomain.CategoryLiability, ext.Category)
	assert.LessOrEqual(t, ext.Confidence, fallbackMaxConfidence)
	assert.InDelta(t, 12500.0, ext.Amount, 0.001)
	assert.Equal(t, "2025-04-05", ext.TransactionDate)
	assert.Equal(t, "hdfcbank", ext.Merchant)
}

func TestExtractMessageFallsBackOnUnusableOutput(t *testing.T) {
	stub := &stubAI{response: "I could not find any financial content here."}
	e := NewStructuredExtractor(stub, testQueue())

	ext, degraded := e.ExtractMessage(context.Background(), msg("m1", "Mutual fund folio update", ""), nil)

	require.True(t, degraded)
	assert.Equal(t, analysisdomain.CategoryAsset, ext.Category)
	assert.LessOrEqual(t, ext.Confidence, fallbackMaxConfidence)
}

func TestExtractMessageRejectsOutOfEnumCategory(t *testing.T) {
	stub := &stubAI{response: `{"category": "expense", "confidence": 95}`}
	e := NewStructuredExtractor(stub, testQueue())

	ext, degraded := e.ExtractMessage(context.Background(), msg("m1", "Insurance policy renewal premium", ""), nil)

	// Out-of-enum categories force the degraded path
	require.True(t, degraded)
	assert.Equal(t, analysisdomain.CategoryInsurance, ext.Category)
}

func TestFallbackCategoryAlwaysInEnumOrUnset(t *testing.T) {
	stub := &stubAI{err: errors.New("timeout")}
	e := NewStructuredExtractor(stub, testQueue())
	e.retry = noRetry

	subjects := []string{
		"Loan overdue notice", "Policy premium receipt", "FD maturity amount credited",
		"Hello there", "Team outing on Friday",
	}
	for _, subject := range subjects {
		ext, _ := e.ExtractMessage(context.Background(), msg("m", subject, ""), nil)
		if ext.Category != "" {
			assert.True(t, analysisdomain.ValidCategory(ext.Category), "subject %q gave category %q", subject, ext.Category)
		}
	}
}

func TestAnalyzeDocumentKeywordFallback(t *testing.T) {
	stub := &stubAI{err: errors.New("service unavailable")}
	e := NewStructuredExtractor(stub, testQueue())
	e.retry = noRetry

	analysis, degraded := e.AnalyzeDocument(context.Background(), "Premium receipt for policy 884-221. Sum assured Rs. 5,00,000.")

	require.True(t, degraded)
	assert.Equal(t, "insurance_policy", analysis.DocumentType)
	assert.NotEmpty(t, analysis.KeyFigures)
}

func TestFirstJSONObject(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, firstJSONObject(`noise {"a": {"b": 1}} trailing`))
	assert.Equal(t, `{"s": "has } brace"}`, firstJSONObject(`{"s": "has } brace"}`))
	assert.Equal(t, "", firstJSONObject("no braces at all"))
	assert.Equal(t, "", firstJSONObject("{unterminated"))
}

func TestParseAmount(t *testing.T) {
	assert.InDelta(t, 1234567.89, parseAmount("1,234,567.89"), 0.001)
	assert.InDelta(t, 500.0, parseAmount("500"), 0.001)
}

func TestTruncateTextKeepsValidUTF8(t *testing.T) {
	// A wall of rupee signs guarantees some byte cap lands mid-rune.
	text := strings.Repeat("₹", 100)

	for max := 0; max <= 12; max++ {
		got := truncateText(text, max)
		assert.True(t, utf8.ValidString(got), "max %d split a rune: %q", max, got)
		assert.LessOrEqual(t, len(got), max)
	}

	assert.Equal(t, "short", truncateText("short", 100))
}
