package domain

import "time"

// RawDocument records the attachment as it arrived: provenance only, no
// extracted content. Shares attachment_id with ProcessedDocument and
// FinancialRecord so the triple can be cross-referenced and jointly deleted.
type RawDocument struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"index:idx_raw_user_attachment;not null"`
	MessageID    string    `json:"message_id" gorm:"index"`
	AttachmentID string    `json:"attachment_id" gorm:"index:idx_raw_user_attachment;not null"`
	Filename     string    `json:"filename"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	Subject      string    `json:"subject"`
	Sender       string    `json:"sender"`
	ReceivedAt   time.Time `json:"received_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (RawDocument) TableName() string {
	return "raw_documents"
}

// ProcessedDocument holds the extraction output for one attachment.
type ProcessedDocument struct {
	ID           string `json:"id" gorm:"primaryKey"`
	UserID       string `json:"user_id" gorm:"index:idx_processed_user_attachment;not null"`
	MessageID    string `json:"message_id" gorm:"index"`
	AttachmentID string `json:"attachment_id" gorm:"index:idx_processed_user_attachment;not null"`

	ExtractedText string   `json:"extracted_text" gorm:"type:text"`
	Method        string   `json:"method"`
	QualityScore  int      `json:"quality_score"`
	QualityStatus string   `json:"quality_status"`
	CharCount     int      `json:"char_count"`
	PageCount     int      `json:"page_count"`
	DocumentType  string   `json:"document_type"`
	KeyFigures    []string `json:"key_figures" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ProcessedDocument) TableName() string {
	return "processed_documents"
}
