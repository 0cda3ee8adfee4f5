package dto

// MessageEntry is the per-message outcome inside a batch summary.
type MessageEntry struct {
	MessageID   string   `json:"message_id"`
	Subject     string   `json:"subject"`
	Processed   bool     `json:"processed"`
	Attachments int      `json:"attachments"`
	RecordIDs   []string `json:"record_ids,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// ProcessResponse is the aggregate summary of one batch run.
type ProcessResponse struct {
	Throttled      bool           `json:"throttled"`
	RemainingDays  int            `json:"remaining_days,omitempty"`
	Processed      int            `json:"processed"`
	Failed         int            `json:"failed"`
	Attachments    int            `json:"attachments"`
	RecordsCreated int            `json:"records_created"`
	Messages       []MessageEntry `json:"messages"`
}

// RecordsQuery carries the filter parameters of the records listing.
type RecordsQuery struct {
	Category string `form:"category"`
	Type     string `form:"type"`
	From     string `form:"from"`
	To       string `form:"to"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}
