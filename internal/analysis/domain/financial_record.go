package domain

import "time"

// Financial record categories. A record outside these three is never created.
const (
	CategoryAsset     = "asset"
	CategoryLiability = "liability"
	CategoryInsurance = "insurance"
)

// Record statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
	StatusComplete = "complete"
	StatusMissing  = "missing"
)

// RecordMetadata is the free-form bag of bank/policy fields the structured
// extractor fills in when the source document carries them.
type RecordMetadata struct {
	BankName       string `json:"bank_name,omitempty"`
	AccountNumber  string `json:"account_number,omitempty"`
	PolicyNumber   string `json:"policy_number,omitempty"`
	FolioNumber    string `json:"folio_number,omitempty"`
	EMIAmount      string `json:"emi_amount,omitempty"`
	InterestRate   string `json:"interest_rate,omitempty"`
	CoverageAmount string `json:"coverage_amount,omitempty"`
	Premium        string `json:"premium,omitempty"`
	MaturityDate   string `json:"maturity_date,omitempty"`
	ExtractedVia   string `json:"extracted_via,omitempty"`
}

// FinancialRecord is one normalized asset/liability/insurance fact extracted
// from a message or attachment.
type FinancialRecord struct {
	ID           string `json:"id" gorm:"primaryKey"`
	UserID       string `json:"user_id" gorm:"index:idx_record_user;not null"`
	MessageID    string `json:"message_id" gorm:"index"`
	AttachmentID string `json:"attachment_id" gorm:"index:idx_record_attachment"`

	Category string `json:"category" gorm:"index;not null"`
	Type     string `json:"type"`
	SubType  string `json:"sub_type"`
	Status   string `json:"status"`

	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	Merchant        string     `json:"merchant"`
	TransactionDate *time.Time `json:"transaction_date,omitempty"`

	Confidence  int            `json:"confidence"`
	Metadata    RecordMetadata `json:"metadata" gorm:"serializer:json"`
	KeyPoints   []string       `json:"key_points" gorm:"serializer:json"`
	Summary     string         `json:"summary" gorm:"type:text"`
	Issues      []string       `json:"issues" gorm:"serializer:json"`
	DataQuality int            `json:"data_quality"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (FinancialRecord) TableName() string {
	return "financial_records"
}

// ValidCategory reports whether c is one of the three record categories.
func ValidCategory(c string) bool {
	return c == CategoryAsset || c == CategoryLiability || c == CategoryInsurance
}
