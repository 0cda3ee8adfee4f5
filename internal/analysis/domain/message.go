package domain

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenUpdateFunc is a callback invoked when the mail provider refreshes
// the user's OAuth token mid-request.
type TokenUpdateFunc = func(token *oauth2.Token) error

// InboundMessage is a message fetched from the mail provider.
// Read-only once fetched; the pipeline never writes it back.
type InboundMessage struct {
	ID          string          `json:"id"`
	Subject     string          `json:"subject"`
	From        string          `json:"from"`
	To          []string        `json:"to"`
	Snippet     string          `json:"snippet"`
	Body        string          `json:"body"`
	ReceivedAt  time.Time       `json:"received_at"`
	Attachments []AttachmentRef `json:"attachments"`
}

// AttachmentRef points at attachment bytes held by the provider.
// Resolved lazily, only for messages that survive classification.
type AttachmentRef struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}
