package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc = analysisdomain.TokenUpdateFunc

type Service struct {
	clientID     string
	clientSecret string
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			fmt.Printf("Failed to update token: %v\n", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// GetGmailService creates Gmail service with user's access token
func (s *Service) GetGmailService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	tokenSource := config.TokenSource(ctx, token)

	// Wrap token source to detect refreshes
	wrappedSource := &notifyTokenSource{
		src:      tokenSource,
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}

	return srv, nil
}

// ListRecentMessages retrieves the newest maxResults inbox messages with
// their bodies and attachment references resolved.
func (s *Service) ListRecentMessages(ctx context.Context, accessToken, refreshToken string, maxResults int64, onTokenRefresh TokenUpdateFunc) ([]*analysisdomain.InboundMessage, error) {
	srv, err := s.GetGmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	user := "me"

	if maxResults <= 0 {
		maxResults = 20
	}
	if maxResults > 500 {
		maxResults = 500 // Gmail API maximum
	}

	listResp, err := srv.Users.Messages.List(user).
		LabelIds("INBOX").
		MaxResults(maxResults).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %v", err)
	}

	messages := make([]*analysisdomain.InboundMessage, 0, len(listResp.Messages))

	// Fetch full messages in parallel with a concurrency cap
	type fetchResult struct {
		msg *analysisdomain.InboundMessage
		err error
	}

	resultChan := make(chan fetchResult, len(listResp.Messages))
	semaphore := make(chan struct{}, 10) // Max 10 concurrent requests

	for _, msg := range listResp.Messages {
		go func(msgID string) {
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			fullMsg, err := srv.Users.Messages.Get(user, msgID).Format("full").Do()
			if err != nil {
				resultChan <- fetchResult{nil, err}
				return
			}
			resultChan <- fetchResult{convertGmailMessage(fullMsg), nil}
		}(msg.Id)
	}

	for i := 0; i < len(listResp.Messages); i++ {
		result := <-resultChan
		if result.err == nil && result.msg != nil {
			messages = append(messages, result.msg)
		}
		// Skip messages we cannot fetch
	}

	// Parallel fetching returns messages in random order
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ReceivedAt.After(messages[j].ReceivedAt)
	})

	return messages, nil
}

// GetAttachment retrieves an attachment's bytes from a message
func (s *Service) GetAttachment(ctx context.Context, accessToken, refreshToken, messageID, attachmentID string, onTokenRefresh TokenUpdateFunc) (*analysisdomain.AttachmentRef, []byte, error) {
	srv, err := s.GetGmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, nil, err
	}

	user := "me"

	// Fetch message to get attachment metadata
	msg, err := srv.Users.Messages.Get(user, messageID).Format("full").Do()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to retrieve message details: %v", err)
	}

	// Find attachment metadata
	var filename, mimeType string
	var findMetadata func(parts []*gmail.MessagePart)
	findMetadata = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Body != nil && part.Body.AttachmentId == attachmentID {
				filename = part.Filename
				mimeType = part.MimeType
				return
			}
			if len(part.Parts) > 0 {
				findMetadata(part.Parts)
			}
		}
	}
	findMetadata(msg.Payload.Parts)

	// Fetch attachment data
	attachPart, err := srv.Users.Messages.Attachments.Get(user, messageID, attachmentID).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to retrieve attachment: %v", err)
	}

	data, err := base64.URLEncoding.DecodeString(attachPart.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to decode attachment data: %v", err)
	}

	return &analysisdomain.AttachmentRef{
		ID:       attachmentID,
		Filename: filename,
		MimeType: mimeType,
		Size:     int64(len(data)),
	}, data, nil
}

// Helper functions

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func convertGmailMessage(msg *gmail.Message) *analysisdomain.InboundMessage {
	from := getHeader(msg.Payload.Headers, "From")

	// Convert To header to array
	toHeader := getHeader(msg.Payload.Headers, "To")
	toArray := []string{}
	if toHeader != "" {
		toArray = []string{toHeader}
	}

	body, isHTML := getEmailBody(msg.Payload)
	if isHTML {
		body = stripHTML(body)
	}
	body = strings.Join(strings.Fields(body), " ")

	snippet := msg.Snippet
	if snippet == "" {
		snippet = body
		if len(snippet) > 200 {
			cut := 200
			for cut > 0 && !utf8.RuneStart(snippet[cut]) {
				cut--
			}
			snippet = snippet[:cut] + "..."
		}
	}

	return &analysisdomain.InboundMessage{
		ID:          msg.Id,
		Subject:     getHeader(msg.Payload.Headers, "Subject"),
		From:        from,
		To:          toArray,
		Snippet:     snippet,
		Body:        body,
		ReceivedAt:  time.Unix(msg.InternalDate/1000, 0),
		Attachments: getAttachments(msg.Payload),
	}
}

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	// Unescape HTML entities (basic ones)
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	return s
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

func getEmailBody(payload *gmail.MessagePart) (string, bool) {
	// If the payload itself is the body
	if payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			return string(data), payload.MimeType == "text/html"
		}
	}

	var htmlBody string
	var plainBody string

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.MimeType == "text/html" {
				if part.Body != nil && part.Body.Data != "" {
					data, err := base64.URLEncoding.DecodeString(part.Body.Data)
					if err == nil {
						htmlBody = string(data)
					}
				}
			} else if part.MimeType == "text/plain" {
				if part.Body != nil && part.Body.Data != "" {
					data, err := base64.URLEncoding.DecodeString(part.Body.Data)
					if err == nil {
						plainBody = string(data)
					}
				}
			}

			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}

	findBody(payload.Parts)

	// Plain text is preferred for downstream analysis
	if plainBody != "" {
		return plainBody, false
	}
	return htmlBody, true
}

func getAttachments(payload *gmail.MessagePart) []analysisdomain.AttachmentRef {
	var attachments []analysisdomain.AttachmentRef

	var findAttachments func(parts []*gmail.MessagePart)
	findAttachments = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
				attachments = append(attachments, analysisdomain.AttachmentRef{
					ID:       part.Body.AttachmentId,
					Filename: part.Filename,
					MimeType: part.MimeType,
					Size:     int64(part.Body.Size),
				})
			}

			if len(part.Parts) > 0 {
				findAttachments(part.Parts)
			}
		}
	}

	findAttachments(payload.Parts)
	return attachments
}
