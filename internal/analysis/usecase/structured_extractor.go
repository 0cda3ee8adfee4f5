package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"
	"github.com/Zer-0ne/secufi-backend/pkg/ai"
	"github.com/Zer-0ne/secufi-backend/pkg/queue"
)

// fallbackMaxConfidence caps the confidence of records produced without the
// reasoning service.
const fallbackMaxConfidence = 75

const (
	maxBodyExcerpt       = 3000
	maxAttachmentExcerpt = 2000
)

// MessageExtraction is the structured output for one message.
type MessageExtraction struct {
	Category        string                        `json:"category"`
	Type            string                        `json:"type"`
	SubType         string                        `json:"sub_type"`
	Status          string                        `json:"status"`
	Amount          float64                       `json:"amount"`
	Currency        string                        `json:"currency"`
	Merchant        string                        `json:"merchant"`
	TransactionDate string                        `json:"transaction_date"`
	Confidence      int                           `json:"confidence"`
	Metadata        analysisdomain.RecordMetadata `json:"metadata"`
	KeyPoints       []string                      `json:"key_points"`
	Summary         string                        `json:"summary"`
}

// DocumentAnalysis is the per-attachment analysis output.
type DocumentAnalysis struct {
	DocumentType string   `json:"document_type"`
	KeyFigures   []string `json:"key_figures"`
}

// StructuredExtractor turns message text plus extracted attachment text into
// normalized financial records, degrading to deterministic heuristics when
// the reasoning service fails.
type StructuredExtractor struct {
	ai        ai.ReasoningService
	callQueue *queue.Queue
	retry     ai.RetryConfig
}

func NewStructuredExtractor(svc ai.ReasoningService, callQueue *queue.Queue) *StructuredExtractor {
	return &StructuredExtractor{
		ai:        svc,
		callQueue: callQueue,
		retry:     ai.DefaultRetryConfig,
	}
}

// ExtractMessage makes one reasoning call for the whole message. The boolean
// reports whether the degraded path produced the result.
func (e *StructuredExtractor) ExtractMessage(ctx context.Context, msg *analysisdomain.InboundMessage, attachmentTexts []string) (*MessageExtraction, bool) {
	prompt := e.buildMessagePrompt(msg, attachmentTexts)

	response, err := e.callQueue.DoText(ctx, func() (string, error) {
		return ai.WithRetry(ctx, e.retry, func(ctx context.Context) (string, error) {
			return e.ai.Complete(ctx, prompt)
		})
	})
	if err != nil {
		log.Printf("[StructuredExtractor] Reasoning call failed for message %s: %v", msg.ID, err)
		return e.fallbackExtract(msg, attachmentTexts), true
	}

	parsed, err := parseExtraction(response)
	if err != nil {
		log.Printf("[StructuredExtractor] Unusable response for message %s: %v", msg.ID, err)
		return e.fallbackExtract(msg, attachmentTexts), true
	}

	normalizeExtraction(parsed)
	return parsed, false
}

// AnalyzeDocument runs the per-attachment document analysis call. The boolean
// reports whether the keyword fallback produced the result.
func (e *StructuredExtractor) AnalyzeDocument(ctx context.Context, text string) (*DocumentAnalysis, bool) {
	excerpt := truncateText(text, maxAttachmentExcerpt)

	prompt := fmt.Sprintf(`Analyze this financial document excerpt. Respond with ONLY a JSON object:
{"document_type": "bank_statement|credit_card_statement|loan_statement|insurance_policy|investment_statement|invoice|receipt|other", "key_figures": ["figure with label", ...]}

Document:
%s`, excerpt)

	response, err := e.callQueue.DoText(ctx, func() (string, error) {
		return ai.WithRetry(ctx, e.retry, func(ctx context.Context) (string, error) {
			return e.ai.Complete(ctx, prompt)
		})
	})
	if err == nil {
		raw := firstJSONObject(response)
		if raw != "" {
			var analysis DocumentAnalysis
			if jsonErr := json.Unmarshal([]byte(raw), &analysis); jsonErr == nil && analysis.DocumentType != "" {
				return &analysis, false
			}
		}
	}

	return fallbackDocumentAnalysis(text), true
}

func (e *StructuredExtractor) buildMessagePrompt(msg *analysisdomain.InboundMessage, attachmentTexts []string) string {
	body := truncateText(msg.Body, maxBodyExcerpt)

	var sb strings.Builder
	sb.WriteString("Extract the financial facts from this email and its attachments. Respond with ONLY a JSON object matching this schema:\n")
	sb.WriteString(`{"category": "asset|liability|insurance", "type": "...", "sub_type": "...", "status": "active|inactive|pending|complete|missing", "amount": 0, "currency": "INR", "merchant": "...", "transaction_date": "YYYY-MM-DD", "confidence": 0, "metadata": {"bank_name": "", "account_number": "", "policy_number": "", "folio_number": "", "emi_amount": "", "interest_rate": "", "coverage_amount": "", "premium": "", "maturity_date": ""}, "key_points": ["..."], "summary": "one paragraph"}`)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Subject: %s\nFrom: %s\nBody: %s\n", msg.Subject, msg.From, body)

	for i, text := range attachmentTexts {
		fmt.Fprintf(&sb, "\nAttachment %d:\n%s\n", i+1, truncateText(text, maxAttachmentExcerpt))
	}

	return sb.String()
}

// truncateText caps s at max bytes without splitting a multibyte rune;
// excerpts feed model prompts and must stay valid UTF-8.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// parseExtraction decodes the first JSON object found in the response.
func parseExtraction(response string) (*MessageExtraction, error) {
	raw := firstJSONObject(response)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var parsed MessageExtraction
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("malformed extraction: %w", err)
	}
	if !analysisdomain.ValidCategory(parsed.Category) {
		return nil, fmt.Errorf("category %q outside enum", parsed.Category)
	}
	return &parsed, nil
}

// firstJSONObject returns the first balanced {...} run in s, ignoring braces
// inside string literals.
func firstJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

func normalizeExtraction(ext *MessageExtraction) {
	if ext.Confidence < 0 {
		ext.Confidence = 0
	}
	if ext.Confidence > 100 {
		ext.Confidence = 100
	}
	if ext.Currency == "" {
		ext.Currency = "INR"
	}
	if ext.Status == "" {
		ext.Status = analysisdomain.StatusActive
	}
}

// Deterministic fallback classification.

var typeBuckets = []struct {
	category string
	docType  string
	keywords []string
}{
	{analysisdomain.CategoryInsurance, "insurance_policy", []string{"policy", "premium", "insurance", "coverage", "sum assured"}},
	{analysisdomain.CategoryLiability, "loan", []string{"loan", "emi", "outstanding", "repayment", "overdue"}},
	{analysisdomain.CategoryLiability, "credit_card", []string{"credit card", "card statement", "minimum due", "total due"}},
	{analysisdomain.CategoryAsset, "mutual_fund", []string{"mutual fund", "folio", "nav", "sip", "redemption"}},
	{analysisdomain.CategoryAsset, "fixed_deposit", []string{"fixed deposit", "fd ", "maturity amount", "recurring deposit"}},
	{analysisdomain.CategoryAsset, "bank_account", []string{"statement", "account balance", "savings account", "transaction"}},
}

var (
	amountRe   = regexp.MustCompile(`(?i)(?:₹|rs\.?|inr|\$)\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	dateRe     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`)
	merchantRe = regexp.MustCompile(`@([a-zA-Z0-9-]+)\.`)
)

// fallbackExtract always succeeds. Confidence never exceeds
// fallbackMaxConfidence on this path.
func (e *StructuredExtractor) fallbackExtract(msg *analysisdomain.InboundMessage, attachmentTexts []string) *MessageExtraction {
	combined := strings.ToLower(msg.Subject + " " + msg.Body + " " + strings.Join(attachmentTexts, " "))

	ext := &MessageExtraction{
		Status:     analysisdomain.StatusPending,
		Currency:   "INR",
		Confidence: 40,
		Metadata: analysisdomain.RecordMetadata{
			ExtractedVia: "keyword-fallback",
		},
	}

	for _, bucket := range typeBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(combined, kw) {
				ext.Category = bucket.category
				ext.Type = bucket.docType
				ext.Confidence = 60
				break
			}
		}
		if ext.Category != "" {
			break
		}
	}

	if m := amountRe.FindStringSubmatch(msg.Subject + " " + msg.Body); m != nil {
		ext.Amount = parseAmount(m[1])
		if ext.Confidence < fallbackMaxConfidence {
			ext.Confidence += 10
		}
	}
	if m := dateRe.FindString(combined); m != "" {
		ext.TransactionDate = m
	}
	if m := merchantRe.FindStringSubmatch(msg.From); m != nil {
		ext.Merchant = m[1]
	}

	if ext.Confidence > fallbackMaxConfidence {
		ext.Confidence = fallbackMaxConfidence
	}
	ext.Summary = fmt.Sprintf("Keyword-derived record from %q", msg.Subject)
	return ext
}

func fallbackDocumentAnalysis(text string) *DocumentAnalysis {
	lower := strings.ToLower(text)

	docType := "other"
	for _, bucket := range typeBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				docType = bucket.docType
				break
			}
		}
		if docType != "other" {
			break
		}
	}

	// Cap key figures at the first few amounts found
	var figures []string
	for _, m := range amountRe.FindAllString(text, 5) {
		figures = append(figures, strings.TrimSpace(m))
	}

	return &DocumentAnalysis{
		DocumentType: docType,
		KeyFigures:   figures,
	}
}

func parseAmount(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	var amount float64
	fmt.Sscanf(s, "%f", &amount)
	return amount
}
