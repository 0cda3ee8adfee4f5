package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"
	analysisdto "github.com/Zer-0ne/secufi-backend/internal/analysis/dto"
	"github.com/Zer-0ne/secufi-backend/internal/analysis/repository"
	identitydomain "github.com/Zer-0ne/secufi-backend/internal/identity/domain"
	identityrepo "github.com/Zer-0ne/secufi-backend/internal/identity/repository"
	"github.com/Zer-0ne/secufi-backend/pkg/extractor"
	"github.com/Zer-0ne/secufi-backend/pkg/passwords"

	"golang.org/x/oauth2"
)

const defaultFetchLimit = 20

// analysisUsecase implements AnalysisUsecase interface
type analysisUsecase struct {
	userRepo     identityrepo.UserRepository
	recordRepo   repository.FinancialRecordRepository
	documentRepo repository.DocumentRepository
	throttleRepo repository.ThrottleRepository

	provider   MailProvider
	classifier *MessageClassifier
	structured *StructuredExtractor
	formats    *extractor.Service

	fetchLimit   int64
	messageDelay time.Duration
	now          func() time.Time
}

// NewAnalysisUsecase creates a new instance of analysisUsecase
func NewAnalysisUsecase(
	userRepo identityrepo.UserRepository,
	recordRepo repository.FinancialRecordRepository,
	documentRepo repository.DocumentRepository,
	throttleRepo repository.ThrottleRepository,
	provider MailProvider,
	classifier *MessageClassifier,
	structured *StructuredExtractor,
	formats *extractor.Service,
	messageDelay time.Duration,
) AnalysisUsecase {
	return &analysisUsecase{
		userRepo:     userRepo,
		recordRepo:   recordRepo,
		documentRepo: documentRepo,
		throttleRepo: throttleRepo,
		provider:     provider,
		classifier:   classifier,
		structured:   structured,
		formats:      formats,
		fetchLimit:   defaultFetchLimit,
		messageDelay: messageDelay,
		now:          time.Now,
	}
}

func (u *analysisUsecase) ProcessRecentMessages(ctx context.Context, userID string) (*analysisdto.ProcessResponse, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	throttle, err := u.throttleRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	if throttle.Active(u.now()) {
		remaining := throttle.RemainingDays(u.now())
		log.Printf("[Pipeline] User %s throttled, %d days remaining", userID, remaining)
		return &analysisdto.ProcessResponse{
			Throttled:     true,
			RemainingDays: remaining,
			Messages:      []analysisdto.MessageEntry{},
		}, nil
	}

	creds := u.credentials(user)

	messages, err := u.provider.ListRecentMessages(ctx, creds, u.fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	log.Printf("[Pipeline] Fetched %d messages for user %s", len(messages), userID)

	selected := u.classifier.ClassifyBatch(ctx, messages)
	selectedSet := make(map[string]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}
	log.Printf("[Pipeline] Classified %d of %d messages as financial", len(selected), len(messages))

	summary := &analysisdto.ProcessResponse{
		Messages: []analysisdto.MessageEntry{},
	}

	first := true
	for _, msg := range messages {
		if !selectedSet[msg.ID] {
			continue
		}
		if !first && u.messageDelay > 0 {
			time.Sleep(u.messageDelay)
		}
		first = false

		entry := u.processMessage(ctx, user, creds, msg)
		summary.Messages = append(summary.Messages, entry)
		if entry.Processed {
			summary.Processed++
		} else {
			summary.Failed++
		}
		summary.Attachments += entry.Attachments
		summary.RecordsCreated += len(entry.RecordIDs)
	}

	// The cooldown advances even when individual messages failed
	window := analysisdomain.ThrottleWindowDays * 24 * time.Hour
	if err := u.throttleRepo.Advance(userID, window); err != nil {
		log.Printf("[Pipeline] Failed to advance throttle for user %s: %v", userID, err)
	}

	log.Printf("[Pipeline] Batch done for user %s: %d processed, %d failed, %d records",
		userID, summary.Processed, summary.Failed, summary.RecordsCreated)
	return summary, nil
}

// processMessage handles one classified message. A panic anywhere inside is
// converted into the entry's error string so siblings keep processing.
func (u *analysisUsecase) processMessage(ctx context.Context, user *identitydomain.User, creds MailCredentials, msg *analysisdomain.InboundMessage) (entry analysisdto.MessageEntry) {
	entry = analysisdto.MessageEntry{
		MessageID: msg.ID,
		Subject:   msg.Subject,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Pipeline] Panic while processing message %s: %v", msg.ID, r)
			entry.Processed = false
			entry.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	type attachmentOutcome struct {
		ref    analysisdomain.AttachmentRef
		result *extractor.Result
	}

	var outcomes []attachmentOutcome
	var texts []string

	for _, att := range msg.Attachments {
		candidates := passwords.Generate(att.Filename, user.PasswordIdentity())
		if candidates.BankDetected != "" {
			log.Printf("[Pipeline] Detected bank %s for %s", candidates.BankDetected, att.Filename)
		}

		ref, data, err := u.provider.GetAttachment(ctx, creds, msg.ID, att.ID)
		if err != nil {
			entry.Error = fmt.Sprintf("attachment download failed: %v", err)
			return entry
		}
		if ref.Filename == "" {
			ref.Filename = att.Filename
		}
		if ref.MimeType == "" {
			ref.MimeType = att.MimeType
		}

		result, err := u.formats.Extract(ctx, data, ref.Filename, ref.MimeType, candidates.Passwords)
		if err != nil {
			entry.Error = fmt.Sprintf("extraction failed: %v", err)
			return entry
		}

		outcomes = append(outcomes, attachmentOutcome{ref: *ref, result: result})
		texts = append(texts, result.Text)
		entry.Attachments++
	}

	ext, degraded := u.structured.ExtractMessage(ctx, msg, texts)
	if degraded {
		log.Printf("[Pipeline] Message %s used degraded extraction path", msg.ID)
	}

	if !analysisdomain.ValidCategory(ext.Category) {
		// Nothing recognizably financial; record the attempt without records
		entry.Processed = true
		return entry
	}

	for _, outcome := range outcomes {
		analysis, _ := u.structured.AnalyzeDocument(ctx, outcome.result.Text)

		recordID, err := u.persistDocumentSet(user, msg, outcome.ref, outcome.result, analysis, ext)
		if err != nil {
			entry.Error = fmt.Sprintf("persistence failed: %v", err)
			return entry
		}
		entry.RecordIDs = append(entry.RecordIDs, recordID)
	}

	// One record for the body itself when there were no attachments
	if len(outcomes) == 0 {
		record := u.buildRecord(user, msg, "", ext, "body")
		issues, quality := ValidateRecord(record, u.now())
		record.Issues = issues
		record.DataQuality = quality
		if err := u.recordRepo.Save(record); err != nil {
			entry.Error = fmt.Sprintf("persistence failed: %v", err)
			return entry
		}
		entry.RecordIDs = append(entry.RecordIDs, record.ID)
	}

	entry.Processed = true
	return entry
}

// persistDocumentSet writes the raw document, the processed document and the
// financial record for one attachment under a shared attachment id.
func (u *analysisUsecase) persistDocumentSet(
	user *identitydomain.User,
	msg *analysisdomain.InboundMessage,
	ref analysisdomain.AttachmentRef,
	result *extractor.Result,
	analysis *DocumentAnalysis,
	ext *MessageExtraction,
) (string, error) {
	raw := &analysisdomain.RawDocument{
		UserID:       user.ID,
		MessageID:    msg.ID,
		AttachmentID: ref.ID,
		Filename:     ref.Filename,
		MimeType:     ref.MimeType,
		Size:         ref.Size,
		Subject:      msg.Subject,
		Sender:       msg.From,
		ReceivedAt:   msg.ReceivedAt,
	}
	if err := u.documentRepo.SaveRaw(raw); err != nil {
		return "", err
	}

	processed := &analysisdomain.ProcessedDocument{
		UserID:        user.ID,
		MessageID:     msg.ID,
		AttachmentID:  ref.ID,
		ExtractedText: result.Text,
		Method:        result.Method,
		QualityScore:  result.QualityScore,
		QualityStatus: result.QualityStatus,
		CharCount:     result.CharCount,
		PageCount:     result.PageCount,
		DocumentType:  analysis.DocumentType,
		KeyFigures:    analysis.KeyFigures,
	}
	if err := u.documentRepo.SaveProcessed(processed); err != nil {
		return "", err
	}

	record := u.buildRecord(user, msg, ref.ID, ext, result.Method)
	issues, quality := ValidateRecord(record, u.now())
	record.Issues = issues
	record.DataQuality = quality
	if err := u.recordRepo.Save(record); err != nil {
		return "", err
	}

	return record.ID, nil
}

func (u *analysisUsecase) buildRecord(user *identitydomain.User, msg *analysisdomain.InboundMessage, attachmentID string, ext *MessageExtraction, method string) *analysisdomain.FinancialRecord {
	record := &analysisdomain.FinancialRecord{
		UserID:       user.ID,
		MessageID:    msg.ID,
		AttachmentID: attachmentID,
		Category:     ext.Category,
		Type:         ext.Type,
		SubType:      ext.SubType,
		Status:       ext.Status,
		Amount:       ext.Amount,
		Currency:     ext.Currency,
		Merchant:     ext.Merchant,
		Confidence:   ext.Confidence,
		Metadata:     ext.Metadata,
		KeyPoints:    ext.KeyPoints,
		Summary:      ext.Summary,
	}
	if record.Metadata.ExtractedVia == "" {
		record.Metadata.ExtractedVia = method
	}
	if t := parseRecordDate(ext.TransactionDate); t != nil {
		record.TransactionDate = t
	}
	return record
}

func parseRecordDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "02-01-2006", "2/1/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func (u *analysisUsecase) credentials(user *identitydomain.User) MailCredentials {
	return MailCredentials{
		Email:        user.Email,
		AccessToken:  user.AccessToken,
		RefreshToken: user.RefreshToken,
		OnTokenRefresh: func(token *oauth2.Token) error {
			return u.userRepo.UpdateTokens(user.ID, token.AccessToken, token.RefreshToken)
		},
	}
}

func (u *analysisUsecase) GetRecords(userID string, query analysisdto.RecordsQuery) ([]analysisdomain.FinancialRecord, error) {
	filter := repository.RecordFilter{
		Category: query.Category,
		Type:     query.Type,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if t := parseRecordDate(query.From); t != nil {
		filter.From = *t
	}
	if t := parseRecordDate(query.To); t != nil {
		filter.To = *t
	}
	return u.recordRepo.FindByUser(userID, filter)
}

func (u *analysisUsecase) GetStats(userID string) ([]repository.CategoryStat, error) {
	return u.recordRepo.Stats(userID)
}

func (u *analysisUsecase) DeleteByAttachment(userID, attachmentID string) error {
	if err := u.documentRepo.DeleteByAttachment(userID, attachmentID); err != nil {
		return err
	}
	return u.recordRepo.DeleteByAttachment(userID, attachmentID)
}
