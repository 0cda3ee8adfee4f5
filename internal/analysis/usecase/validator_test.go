package usecase

import (
	"testing"
	"time"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"

	"github.com/stretchr/testify/assert"
)

func TestValidateRecordCleanAsset(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)

	record := &analysisdomain.FinancialRecord{
		Category:        analysisdomain.CategoryAsset,
		Amount:          50000,
		Currency:        "INR",
		Merchant:        "SBI Mutual Fund",
		Confidence:      85,
		TransactionDate: &past,
	}

	issues, quality := ValidateRecord(record, now)
	assert.Empty(t, issues)
	assert.Equal(t, 100, quality)
}

func TestValidateRecordLiabilityMissingBalance(t *testing.T) {
	record := &analysisdomain.FinancialRecord{
		Category:   analysisdomain.CategoryLiability,
		Currency:   "INR",
		Merchant:   "HDFC Bank",
		Confidence: 70,
	}

	issues, quality := ValidateRecord(record, time.Now())
	assert.Contains(t, issues, "liability record has no outstanding balance")
	assert.Equal(t, 85, quality)
}

func TestValidateRecordInsuranceMissingPolicyNumber(t *testing.T) {
	record := &analysisdomain.FinancialRecord{
		Category:   analysisdomain.CategoryInsurance,
		Amount:     12000,
		Currency:   "INR",
		Merchant:   "LIC",
		Confidence: 80,
	}

	issues, _ := ValidateRecord(record, time.Now())
	assert.Contains(t, issues, "insurance record missing policy number")
}

func TestValidateRecordAccumulatesIssues(t *testing.T) {
	now := time.Now()
	future := now.AddDate(0, 0, 7)

	record := &analysisdomain.FinancialRecord{
		Category:        analysisdomain.CategoryLiability,
		Confidence:      140,
		TransactionDate: &future,
	}

	issues, quality := ValidateRecord(record, now)
	// missing balance, confidence out of range, no merchant, no currency, future date
	assert.Len(t, issues, 5)
	assert.Equal(t, 25, quality)
}

func TestValidateRecordQualityFloor(t *testing.T) {
	record := &analysisdomain.FinancialRecord{Category: "weird", Confidence: -5}

	issues, quality := ValidateRecord(record, time.Now())
	assert.NotEmpty(t, issues)
	assert.GreaterOrEqual(t, quality, 0)
}
