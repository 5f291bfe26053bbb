package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// MagicLinkEmailData holds data for the magic-link login email.
type MagicLinkEmailData struct {
	Email            string
	MagicLink        string
	ExpiresInMinutes int
}

// WelcomeMessageEmailData holds data for the email-signup welcome message,
// which carries the first magic link.
type WelcomeMessageEmailData struct {
	Email            string
	FirstName        string
	MagicLink        string
	ExpiresInMinutes int
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendMagicLink(ctx context.Context, data *MagicLinkEmailData) error
	SendWelcomeMessage(ctx context.Context, data *WelcomeMessageEmailData) error
}
