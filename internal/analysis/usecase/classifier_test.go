package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"
	"github.com/Zer-0ne/secufi-backend/pkg/ai"
	"github.com/Zer-0ne/secufi-backend/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAI struct {
	response string
	err      error
	calls    int
}

func (s *stubAI) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testQueue() *queue.Queue {
	return queue.New(2, 10*time.Millisecond, 10)
}

// noRetry keeps failing-path tests fast.
var noRetry = ai.RetryConfig{MaxRetries: 0, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}

func msg(id, subject, snippet string) *analysisdomain.InboundMessage {
	return &analysisdomain.InboundMessage{ID: id, Subject: subject, Snippet: snippet}
}

func TestClassifyBatchDropsMarketingBeforeAndAfter(t *testing.T) {
	// The service flags the marketing message too; local exclusion wins
	stub := &stubAI{response: `["m1","m2"]`}
	c := NewMessageClassifier(stub, testQueue())

	ids := c.ClassifyBatch(context.Background(), []*analysisdomain.InboundMessage{
		msg("m1", "HDFC Bank Statement for March 2025", "your combined statement is attached"),
		msg("m2", "Mega Sale! Flat 70% discount ends tonight", "shop now"),
		msg("m3", "Lunch tomorrow?", "are you free"),
	})

	assert.Equal(t, []string{"m1"}, ids)
	assert.Equal(t, 1, stub.calls)
}

func TestClassifyBatchFallsBackToKeywords(t *testing.T) {
	stub := &stubAI{err: errors.New("quota exceeded")}
	c := NewMessageClassifier(stub, testQueue())
	c.retry = noRetry

	ids := c.ClassifyBatch(context.Background(), []*analysisdomain.InboundMessage{
		msg("m1", "Your loan EMI statement", ""),
		msg("m2", "Weekend plans", "movie?"),
		msg("m3", "Insurance premium due", "pay before 5th"),
	})

	assert.ElementsMatch(t, []string{"m1", "m3"}, ids)
}

func TestClassifyBatchExcludesCasualTransfers(t *testing.T) {
	stub := &stubAI{response: `["m1"]`}
	c := NewMessageClassifier(stub, testQueue())

	ids := c.ClassifyBatch(context.Background(), []*analysisdomain.InboundMessage{
		msg("m1", "You received Rs.150 from Rahul", "UPI transaction"),
	})

	assert.Empty(t, ids)
	// Pre-filter removed the only candidate, so no call was made
	assert.Equal(t, 0, stub.calls)
}

func TestClassifyBatchEmptyInput(t *testing.T) {
	stub := &stubAI{response: `[]`}
	c := NewMessageClassifier(stub, testQueue())

	assert.Empty(t, c.ClassifyBatch(context.Background(), nil))
	assert.Equal(t, 0, stub.calls)
}

func TestParseIDArray(t *testing.T) {
	ids, err := parseIDArray("Sure, here are the financial messages:\n[\"a\", \"b\"]\nLet me know.")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	_, err = parseIDArray("none of these look financial")
	assert.Error(t, err)
}
