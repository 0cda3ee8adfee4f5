package usecase

import (
	"fmt"
	"time"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"
)

// ValidateRecord runs required-field and consistency checks over a record.
// Issues never block persistence; they ship alongside the record together
// with the data-quality score.
func ValidateRecord(record *analysisdomain.FinancialRecord, now time.Time) ([]string, int) {
	var issues []string

	switch record.Category {
	case analysisdomain.CategoryLiability:
		if record.Amount == 0 {
			issues = append(issues, "liability record has no outstanding balance")
		}
	case analysisdomain.CategoryInsurance:
		if record.Metadata.PolicyNumber == "" {
			issues = append(issues, "insurance record missing policy number")
		}
	case analysisdomain.CategoryAsset:
		if record.Amount == 0 {
			issues = append(issues, "asset record has no amount")
		}
	default:
		issues = append(issues, fmt.Sprintf("category %q outside asset/liability/insurance", record.Category))
	}

	if record.Confidence < 0 || record.Confidence > 100 {
		issues = append(issues, fmt.Sprintf("confidence %d outside [0,100]", record.Confidence))
	}
	if record.Merchant == "" {
		issues = append(issues, "no counterparty identified")
	}
	if record.Currency == "" {
		issues = append(issues, "no currency identified")
	}
	if record.TransactionDate != nil && record.TransactionDate.After(now) {
		issues = append(issues, "transaction date is in the future")
	}

	quality := 100 - 15*len(issues)
	if quality < 0 {
		quality = 0
	}
	return issues, quality
}
