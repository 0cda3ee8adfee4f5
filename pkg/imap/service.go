package imap

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// Service is an IMAP-backed mail provider. It satisfies the same contract
// as the Gmail provider for accounts without Gmail API access.
type Service struct {
	host string
	port string
}

func NewService(host, port string) *Service {
	return &Service{
		host: host,
		port: port,
	}
}

func (s *Service) connect(username, password string) (*client.Client, error) {
	dialer := &net.Dialer{
		Timeout: 5 * time.Second,
	}

	c, err := client.DialWithDialerTLS(dialer, s.host+":"+s.port, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial IMAP server: %w", err)
	}

	if err := c.Login(username, password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	return c, nil
}

// ListRecentMessages fetches the newest maxResults INBOX messages with
// bodies and attachment references resolved.
func (s *Service) ListRecentMessages(ctx context.Context, username, password string, maxResults int64) ([]*analysisdomain.InboundMessage, error) {
	c, err := s.connect(username, password)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	mbox, err := c.Select("INBOX", true)
	if err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}
	if mbox.Messages == 0 {
		return []*analysisdomain.InboundMessage{}, nil
	}

	if maxResults <= 0 {
		maxResults = 20
	}
	from := uint32(1)
	if uint32(maxResults) < mbox.Messages {
		from = mbox.Messages - uint32(maxResults) + 1
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddRange(from, mbox.Messages)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, maxResults)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, items, messages)
	}()

	var result []*analysisdomain.InboundMessage
	for msg := range messages {
		converted, err := convertIMAPMessage(msg, section)
		if err != nil {
			// Skip messages we cannot parse
			continue
		}
		result = append(result, converted)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	// Newest first
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result, nil
}

// GetAttachment fetches the bytes of one attachment. The attachment ID is
// "<uid>:<index>" as produced by ListRecentMessages.
func (s *Service) GetAttachment(ctx context.Context, username, password, messageID, attachmentID string) (*analysisdomain.AttachmentRef, []byte, error) {
	uid, index, err := parseAttachmentID(attachmentID)
	if err != nil {
		return nil, nil, err
	}

	c, err := s.connect(username, password)
	if err != nil {
		return nil, nil, err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", true); err != nil {
		return nil, nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqSet, items, messages)
	}()

	msg := <-messages
	if fetchErr := <-done; fetchErr != nil {
		return nil, nil, fmt.Errorf("failed to fetch message: %w", fetchErr)
	}
	if msg == nil {
		return nil, nil, fmt.Errorf("message %d not found", uid)
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, nil, fmt.Errorf("message %d has no body", uid)
	}

	mr, err := mail.CreateReader(body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse message: %w", err)
	}

	current := 0
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read part: %w", err)
		}

		ah, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		if current != index {
			current++
			continue
		}

		filename, _ := ah.Filename()
		contentType, _, _ := ah.ContentType()
		data, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read attachment: %w", err)
		}

		return &analysisdomain.AttachmentRef{
			ID:       attachmentID,
			Filename: filename,
			MimeType: contentType,
			Size:     int64(len(data)),
		}, data, nil
	}

	return nil, nil, fmt.Errorf("attachment %s not found in message %d", attachmentID, uid)
}

func parseAttachmentID(id string) (uint32, int, error) {
	parts := strings.SplitN(id, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed attachment id %q", id)
	}
	uid, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed attachment id %q", id)
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil || index < 0 {
		return 0, 0, fmt.Errorf("malformed attachment id %q", id)
	}
	return uint32(uid), index, nil
}

func convertIMAPMessage(msg *imap.Message, section *imap.BodySectionName) (*analysisdomain.InboundMessage, error) {
	if msg.Envelope == nil {
		return nil, fmt.Errorf("message has no envelope")
	}

	out := &analysisdomain.InboundMessage{
		ID:         strconv.FormatUint(uint64(msg.Uid), 10),
		Subject:    msg.Envelope.Subject,
		ReceivedAt: msg.Envelope.Date,
	}

	if len(msg.Envelope.From) > 0 {
		out.From = formatAddress(msg.Envelope.From[0])
	}
	for _, to := range msg.Envelope.To {
		out.To = append(out.To, formatAddress(to))
	}

	body := msg.GetBody(section)
	if body == nil {
		return out, nil
	}

	mr, err := mail.CreateReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	attachmentIndex := 0
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if out.Body == "" && strings.HasPrefix(contentType, "text/") {
				data, err := io.ReadAll(part.Body)
				if err == nil {
					out.Body = strings.TrimSpace(string(data))
				}
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			out.Attachments = append(out.Attachments, analysisdomain.AttachmentRef{
				ID:       fmt.Sprintf("%d:%d", msg.Uid, attachmentIndex),
				Filename: filename,
				MimeType: contentType,
			})
			attachmentIndex++
		}
	}

	if len(out.Body) > 200 {
		cut := 200
		for cut > 0 && !utf8.RuneStart(out.Body[cut]) {
			cut--
		}
		out.Snippet = out.Body[:cut] + "..."
	} else {
		out.Snippet = out.Body
	}

	return out, nil
}

func formatAddress(addr *imap.Address) string {
	email := addr.MailboxName + "@" + addr.HostName
	if addr.PersonalName != "" {
		return addr.PersonalName + " <" + email + ">"
	}
	return email
}
