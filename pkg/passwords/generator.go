package passwords

import (
	"strings"
	"time"
)

// Identity holds the user attributes password candidates are derived from.
// Every field is optional; empty fields simply produce fewer candidates.
type Identity struct {
	Name          string
	Phone         string
	DateOfBirth   string // YYYY-MM-DD
	AccountNumber string
	CustomerID    string
	PANNumber     string
}

// Result is the outcome of candidate generation.
// Passwords is always populated with whatever could be derived (bank-specific
// candidates first, then generic fallbacks), even when Success is false.
type Result struct {
	Success       bool     `json:"success"`
	Passwords     []string `json:"passwords"`
	BankDetected  string   `json:"bank_detected,omitempty"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// Field names reported in MissingFields.
const (
	FieldName       = "name"
	FieldPhone      = "phone"
	FieldDOB        = "date_of_birth"
	FieldAccount    = "account_number"
	FieldCustomerID = "customer_id"
	FieldPAN        = "pan_number"
)

// canonicalFields is the full set reported when nothing usable is present.
var canonicalFields = []string{FieldName, FieldPhone, FieldDOB, FieldAccount, FieldCustomerID, FieldPAN}

// commonPasswords are weak defaults banks and senders sometimes use.
var commonPasswords = []string{"password", "12345678", "123456", "india123"}

// bankFormat declares one deterministic password scheme for a bank:
// which identity fields it needs and how the password is derived from them.
type bankFormat struct {
	required []string
	derive   func(p parts) string
}

type bankEntry struct {
	name     string
	keywords []string
	formats  []bankFormat
}

// parts holds pre-computed fragments of the identity record.
type parts struct {
	nameFirst4Lower string
	nameFirst4Upper string
	phone           string
	phoneLast4      string
	dobDDMMYYYY     string
	dobDDMM         string
	dobYYYYMMDD     string
	dobYYYY         string
	account         string
	accountLast4    string
	customerID      string
	pan             string
}

// banks is iterated in order, so detection and candidate order are stable.
var banks = []bankEntry{
	{
		name:     "SBI",
		keywords: []string{"sbi", "state bank"},
		formats: []bankFormat{
			{required: []string{FieldAccount}, derive: func(p parts) string { return p.account }},
			{required: []string{FieldDOB}, derive: func(p parts) string { return p.dobDDMMYYYY }},
		},
	},
	{
		name:     "HDFC",
		keywords: []string{"hdfc"},
		formats: []bankFormat{
			{required: []string{FieldName, FieldDOB}, derive: func(p parts) string { return p.nameFirst4Lower + p.dobDDMM }},
			{required: []string{FieldCustomerID}, derive: func(p parts) string { return p.customerID }},
		},
	},
	{
		name:     "ICICI",
		keywords: []string{"icici"},
		formats: []bankFormat{
			{required: []string{FieldName, FieldDOB}, derive: func(p parts) string { return p.nameFirst4Lower + p.dobDDMM }},
		},
	},
	{
		name:     "Axis",
		keywords: []string{"axis"},
		formats: []bankFormat{
			{required: []string{FieldName, FieldDOB}, derive: func(p parts) string { return p.nameFirst4Upper + p.dobDDMM }},
		},
	},
	{
		name:     "Kotak",
		keywords: []string{"kotak"},
		formats: []bankFormat{
			{required: []string{FieldCustomerID}, derive: func(p parts) string { return p.customerID }},
			{required: []string{FieldDOB}, derive: func(p parts) string { return p.dobDDMMYYYY }},
		},
	},
	{
		name:     "PNB",
		keywords: []string{"pnb", "punjab national"},
		formats: []bankFormat{
			{required: []string{FieldAccount}, derive: func(p parts) string { return p.account }},
			{required: []string{FieldDOB}, derive: func(p parts) string { return p.dobDDMMYYYY }},
		},
	},
	{
		name:     "BOB",
		keywords: []string{"bob", "baroda"},
		formats: []bankFormat{
			{required: []string{FieldDOB}, derive: func(p parts) string { return p.dobDDMMYYYY }},
		},
	},
	{
		name:     "IDBI",
		keywords: []string{"idbi"},
		formats: []bankFormat{
			{required: []string{FieldName, FieldDOB}, derive: func(p parts) string { return p.nameFirst4Lower + p.dobDDMM }},
		},
	},
	{
		name:     "Yes Bank",
		keywords: []string{"yes bank", "yesbank", "yesbnk"},
		formats: []bankFormat{
			{required: []string{FieldCustomerID}, derive: func(p parts) string { return p.customerID }},
			{required: []string{FieldDOB}, derive: func(p parts) string { return p.dobDDMMYYYY }},
		},
	},
	{
		name:     "IndusInd",
		keywords: []string{"indusind"},
		formats: []bankFormat{
			{required: []string{FieldDOB}, derive: func(p parts) string { return p.dobDDMMYYYY }},
			{required: []string{FieldPhone}, derive: func(p parts) string { return p.phoneLast4 }},
		},
	},
}

// Generate produces an ordered, deduplicated candidate list for a protected
// attachment. Pure function: no I/O, deterministic for fixed inputs.
func Generate(filename string, id Identity) Result {
	p := computeParts(id)

	bank := detectBank(filename)

	var bankCandidates []string
	var missing []string
	bankUsable := false

	if bank != nil {
		missingSet := map[string]bool{}
		for _, f := range bank.formats {
			absent := missingParts(f.required, p)
			if len(absent) == 0 {
				if pw := f.derive(p); pw != "" {
					bankCandidates = append(bankCandidates, pw)
					bankUsable = true
				}
				continue
			}
			for _, a := range absent {
				missingSet[a] = true
			}
		}
		if !bankUsable {
			for _, f := range canonicalFields {
				if missingSet[f] {
					missing = append(missing, f)
				}
			}
		}
	}

	fallback, identityDerived := fallbackCandidates(p)

	merged := dedup(append(bankCandidates, fallback...))
	// Always end with the empty string so callers also try "no password".
	merged = append(merged, "")

	result := Result{Passwords: merged}
	if bank != nil {
		result.BankDetected = bank.name
	}

	switch {
	case bank != nil && !bankUsable:
		result.MissingFields = missing
	case !identityDerived && !bankUsable:
		// Nothing came from identity attributes; only common passwords remain.
		result.MissingFields = canonicalFields
	default:
		result.Success = true
	}

	return result
}

func detectBank(filename string) *bankEntry {
	lower := strings.ToLower(filename)
	for i := range banks {
		for _, kw := range banks[i].keywords {
			if strings.Contains(lower, kw) {
				return &banks[i]
			}
		}
	}
	return nil
}

func computeParts(id Identity) parts {
	p := parts{
		phone:      digitsOnly(id.Phone),
		account:    digitsOnly(id.AccountNumber),
		customerID: strings.TrimSpace(id.CustomerID),
		pan:        strings.TrimSpace(id.PANNumber),
	}

	name := strings.TrimSpace(id.Name)
	if name != "" {
		first := strings.Fields(name)[0]
		if len(first) > 4 {
			first = first[:4]
		}
		p.nameFirst4Lower = strings.ToLower(first)
		p.nameFirst4Upper = strings.ToUpper(first)
	}

	if len(p.phone) >= 4 {
		p.phoneLast4 = p.phone[len(p.phone)-4:]
	}
	if len(p.account) >= 4 {
		p.accountLast4 = p.account[len(p.account)-4:]
	}

	if dob, err := time.Parse("2006-01-02", strings.TrimSpace(id.DateOfBirth)); err == nil {
		p.dobDDMMYYYY = dob.Format("02012006")
		p.dobDDMM = dob.Format("0201")
		p.dobYYYYMMDD = dob.Format("20060102")
		p.dobYYYY = dob.Format("2006")
	}

	return p
}

func missingParts(required []string, p parts) []string {
	var absent []string
	for _, f := range required {
		ok := false
		switch f {
		case FieldName:
			ok = p.nameFirst4Lower != ""
		case FieldPhone:
			ok = p.phoneLast4 != ""
		case FieldDOB:
			ok = p.dobDDMMYYYY != ""
		case FieldAccount:
			ok = p.account != ""
		case FieldCustomerID:
			ok = p.customerID != ""
		case FieldPAN:
			ok = p.pan != ""
		}
		if !ok {
			absent = append(absent, f)
		}
	}
	return absent
}

// fallbackCandidates derives bank-agnostic guesses from whatever identity
// fields are present, followed by the constant weak-password list. The second
// return value reports whether any candidate came from identity attributes.
func fallbackCandidates(p parts) ([]string, bool) {
	var out []string

	add := func(s string) {
		if s != "" {
			out = append(out, s)
		}
	}

	add(p.dobDDMMYYYY)
	add(p.dobDDMM)
	add(p.dobYYYYMMDD)
	add(p.dobYYYY)
	if len(p.phone) >= 10 {
		add(p.phone[len(p.phone)-10:])
	}
	add(p.phoneLast4)
	add(p.account)
	add(p.accountLast4)
	add(p.customerID)
	add(strings.ToUpper(p.pan))
	add(strings.ToLower(p.pan))
	add(p.nameFirst4Lower)
	if p.nameFirst4Lower != "" && p.dobDDMM != "" {
		add(p.nameFirst4Lower + p.dobDDMM)
	}

	identityDerived := len(out) > 0
	out = append(out, commonPasswords...)
	return out, identityDerived
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
