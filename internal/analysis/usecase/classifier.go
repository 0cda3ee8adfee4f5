package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"
	"github.com/Zer-0ne/secufi-backend/pkg/ai"
	"github.com/Zer-0ne/secufi-backend/pkg/queue"
)

// Subjects matching any of these are dropped before and after the reasoning
// call. Promotional mail dominates inbox volume, so this list errs wide.
var excludeKeywords = []string{
	"unsubscribe", "newsletter", "sale", "% off", "discount",
	"offer ends", "webinar", "flash sale", "coupon", "cashback offer",
	"refer and earn", "promo code", "deal of the day", "invitation",
	"free delivery", "shop now", "limited time", "giveaway",
	"last chance", "price drop",
}

// Local shortlist used only when the reasoning service is unavailable.
var includeKeywords = []string{
	"statement", "invoice", "premium", "policy", "loan", "emi",
	"credit card", "account balance", "fixed deposit", "mutual fund",
	"demat", "salary", "tax", "insurance", "payment due", "receipt",
	"folio", "maturity",
}

// Small person-to-person transfer notifications (UPI style). Excluded even
// when the reasoning service flags them.
var casualTransferRe = regexp.MustCompile(`(?i)(?:received|sent|paid)\s+(?:rs\.?|₹|inr)\s*\d{1,3}(?:\.\d+)?\s*(?:from|to)\b`)

// MessageClassifier filters a batch down to major financial messages using
// one batched reasoning call, bracketed by local keyword filters.
type MessageClassifier struct {
	ai        ai.ReasoningService
	callQueue *queue.Queue
	retry     ai.RetryConfig
}

func NewMessageClassifier(svc ai.ReasoningService, callQueue *queue.Queue) *MessageClassifier {
	return &MessageClassifier{
		ai:        svc,
		callQueue: callQueue,
		retry:     ai.DefaultRetryConfig,
	}
}

// ClassifyBatch returns the ids of messages judged major financial.
func (c *MessageClassifier) ClassifyBatch(ctx context.Context, messages []*analysisdomain.InboundMessage) []string {
	candidates := make([]*analysisdomain.InboundMessage, 0, len(messages))
	for _, msg := range messages {
		if isExcluded(msg) {
			continue
		}
		candidates = append(candidates, msg)
	}
	if len(candidates) == 0 {
		return nil
	}

	ids, err := c.classifyWithAI(ctx, candidates)
	if err != nil {
		log.Printf("[Classifier] Reasoning call failed, using keyword filter: %v", err)
		return keywordClassify(candidates)
	}

	// Re-apply local exclusion to the service's output as a safety net
	byID := make(map[string]*analysisdomain.InboundMessage, len(candidates))
	for _, msg := range candidates {
		byID[msg.ID] = msg
	}

	var result []string
	for _, id := range ids {
		msg, ok := byID[id]
		if !ok || isExcluded(msg) {
			continue
		}
		result = append(result, id)
	}
	return result
}

func (c *MessageClassifier) classifyWithAI(ctx context.Context, candidates []*analysisdomain.InboundMessage) ([]string, error) {
	var sb strings.Builder
	sb.WriteString("You review email subjects and snippets and pick the ones that carry major financial documents: bank statements, loan or credit card statements, insurance policies or premium notices, investment statements, invoices or bills.\n")
	sb.WriteString("Exclude marketing, promotions, and small personal money transfers.\n\n")
	sb.WriteString("Messages:\n")
	for _, msg := range candidates {
		snippet := truncateText(msg.Snippet, 150)
		fmt.Fprintf(&sb, "id=%s | subject=%s | snippet=%s\n", msg.ID, msg.Subject, snippet)
	}
	sb.WriteString("\nRespond with ONLY a JSON array of the selected ids, for example [\"id1\",\"id2\"]. Respond [] if none qualify.\n")
	prompt := sb.String()

	response, err := c.callQueue.DoText(ctx, func() (string, error) {
		return ai.WithRetry(ctx, c.retry, func(ctx context.Context) (string, error) {
			return c.ai.Complete(ctx, prompt)
		})
	})
	if err != nil {
		return nil, err
	}

	return parseIDArray(response)
}

// parseIDArray finds the first JSON array in the response and decodes it.
func parseIDArray(response string) ([]string, error) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var ids []string
	if err := json.Unmarshal([]byte(response[start:end+1]), &ids); err != nil {
		return nil, fmt.Errorf("malformed id array: %w", err)
	}
	return ids, nil
}

func isExcluded(msg *analysisdomain.InboundMessage) bool {
	subject := strings.ToLower(msg.Subject)
	snippet := strings.ToLower(msg.Snippet)
	for _, kw := range excludeKeywords {
		if strings.Contains(subject, kw) || strings.Contains(snippet, kw) {
			return true
		}
	}
	if casualTransferRe.MatchString(msg.Subject) || casualTransferRe.MatchString(msg.Snippet) {
		return true
	}
	return false
}

// keywordClassify is the degraded path: subject/snippet must carry a
// financial keyword to pass.
func keywordClassify(candidates []*analysisdomain.InboundMessage) []string {
	var ids []string
	for _, msg := range candidates {
		subject := strings.ToLower(msg.Subject)
		snippet := strings.ToLower(msg.Snippet)
		for _, kw := range includeKeywords {
			if strings.Contains(subject, kw) || strings.Contains(snippet, kw) {
				ids = append(ids, msg.ID)
				break
			}
		}
	}
	return ids
}
