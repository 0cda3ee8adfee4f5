package passwords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSBIStatement(t *testing.T) {
	id := Identity{
		DateOfBirth:   "1990-05-14",
		AccountNumber: "1234567890",
	}

	result := Generate("sbi_statement.pdf", id)

	require.True(t, result.Success)
	assert.Equal(t, "SBI", result.BankDetected)
	assert.Contains(t, result.Passwords, "1234567890")
	assert.Contains(t, result.Passwords, "14051990")
	// No phone on record, so no 10-digit phone fallback beyond the account.
	assert.NotContains(t, result.Passwords, "9876543210")
	// Bank-specific candidates come before generic fallbacks.
	assert.Equal(t, "1234567890", result.Passwords[0])
}

func TestGenerateDeterministic(t *testing.T) {
	id := Identity{
		Name:          "Ramesh Kumar",
		Phone:         "+91 98765 43210",
		DateOfBirth:   "1985-11-02",
		AccountNumber: "000123456789",
		CustomerID:    "CRN556677",
		PANNumber:     "abcde1234f",
	}

	first := Generate("hdfc_estatement_jan.pdf", id)
	second := Generate("hdfc_estatement_jan.pdf", id)

	require.True(t, first.Success)
	assert.Equal(t, "HDFC", first.BankDetected)
	assert.Equal(t, first.Passwords, second.Passwords)
	assert.Equal(t, "rame0211", first.Passwords[0])
}

func TestGenerateNoIdentityAttributes(t *testing.T) {
	result := Generate("statement.pdf", Identity{})

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.MissingFields)
	// The constant weak-password list is still offered, plus the
	// empty-string candidate for unprotected files.
	for _, common := range commonPasswords {
		assert.Contains(t, result.Passwords, common)
	}
	assert.Equal(t, "", result.Passwords[len(result.Passwords)-1])
}

func TestGenerateBankDetectedButUnusable(t *testing.T) {
	// ICICI needs name+DOB; only a phone number is known.
	result := Generate("icici_statement.pdf", Identity{Phone: "9876543210"})

	assert.False(t, result.Success)
	assert.Equal(t, "ICICI", result.BankDetected)
	assert.ElementsMatch(t, []string{FieldName, FieldDOB}, result.MissingFields)
	// Fallbacks from the phone are still produced.
	assert.Contains(t, result.Passwords, "9876543210")
	assert.Contains(t, result.Passwords, "3210")
}

func TestGenerateNoDuplicates(t *testing.T) {
	id := Identity{
		DateOfBirth:   "1990-05-14",
		AccountNumber: "1234567890",
		Phone:         "1234567890", // same digits as the account
	}

	result := Generate("sbi_april.pdf", id)

	seen := map[string]int{}
	for _, pw := range result.Passwords {
		seen[pw]++
	}
	for pw, n := range seen {
		assert.Equalf(t, 1, n, "candidate %q appears %d times", pw, n)
	}
}

func TestGeneratePANCaseVariants(t *testing.T) {
	result := Generate("random_doc.pdf", Identity{PANNumber: "AbCdE1234f"})

	require.True(t, result.Success)
	assert.Contains(t, result.Passwords, "ABCDE1234F")
	assert.Contains(t, result.Passwords, "abcde1234f")
	assert.Empty(t, result.BankDetected)
}

func TestGenerateUnknownBankFallsBack(t *testing.T) {
	id := Identity{Name: "Priya", DateOfBirth: "1992-03-08"}

	result := Generate("invoice_march.pdf", id)

	require.True(t, result.Success)
	assert.Empty(t, result.BankDetected)
	assert.Contains(t, result.Passwords, "08031992")
	assert.Contains(t, result.Passwords, "priy0803")
}
