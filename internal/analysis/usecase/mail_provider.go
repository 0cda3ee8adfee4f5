package usecase

import (
	"context"

	analysisdomain "github.com/Zer-0ne/secufi-backend/internal/analysis/domain"
	"github.com/Zer-0ne/secufi-backend/pkg/gmail"
	imapprovider "github.com/Zer-0ne/secufi-backend/pkg/imap"
)

// MailCredentials identifies the mailbox a provider call acts on. For the
// Gmail provider the tokens are OAuth tokens; for IMAP the access token is
// the account's app password.
type MailCredentials struct {
	Email          string
	AccessToken    string
	RefreshToken   string
	OnTokenRefresh analysisdomain.TokenUpdateFunc
}

// MailProvider is the pipeline's view of the mailbox.
type MailProvider interface {
	ListRecentMessages(ctx context.Context, creds MailCredentials, maxResults int64) ([]*analysisdomain.InboundMessage, error)
	GetAttachment(ctx context.Context, creds MailCredentials, messageID, attachmentID string) (*analysisdomain.AttachmentRef, []byte, error)
}

type gmailProvider struct {
	svc *gmail.Service
}

// NewGmailProvider wraps the Gmail service as a MailProvider.
func NewGmailProvider(svc *gmail.Service) MailProvider {
	return &gmailProvider{svc: svc}
}

func (p *gmailProvider) ListRecentMessages(ctx context.Context, creds MailCredentials, maxResults int64) ([]*analysisdomain.InboundMessage, error) {
	return p.svc.ListRecentMessages(ctx, creds.AccessToken, creds.RefreshToken, maxResults, creds.OnTokenRefresh)
}

func (p *gmailProvider) GetAttachment(ctx context.Context, creds MailCredentials, messageID, attachmentID string) (*analysisdomain.AttachmentRef, []byte, error) {
	return p.svc.GetAttachment(ctx, creds.AccessToken, creds.RefreshToken, messageID, attachmentID, creds.OnTokenRefresh)
}

type imapProvider struct {
	svc *imapprovider.Service
}

// NewIMAPProvider wraps the IMAP service as a MailProvider.
func NewIMAPProvider(svc *imapprovider.Service) MailProvider {
	return &imapProvider{svc: svc}
}

func (p *imapProvider) ListRecentMessages(ctx context.Context, creds MailCredentials, maxResults int64) ([]*analysisdomain.InboundMessage, error) {
	return p.svc.ListRecentMessages(ctx, creds.Email, creds.AccessToken, maxResults)
}

func (p *imapProvider) GetAttachment(ctx context.Context, creds MailCredentials, messageID, attachmentID string) (*analysisdomain.AttachmentRef, []byte, error) {
	return p.svc.GetAttachment(ctx, creds.Email, creds.AccessToken, messageID, attachmentID)
}
