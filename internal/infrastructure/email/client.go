// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"
	"os"

	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/email/templates"
	"github.com/AtRiskMedia/journeytrack-go/pkg/config"
	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendDigestEmail(toEmail string, props templates.DigestEmailProps) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: config.EmailFrom,
		fromName:  config.EmailFromName,
	}, nil
}

// SendDigestEmail composes and sends the periodic project activity digest.
func (c *ResendClient) SendDigestEmail(toEmail string, props templates.DigestEmailProps) error {
	subject := fmt.Sprintf("%s activity digest", props.ProjectName)

	content := templates.GetDigestEmailContent(props)
	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Preheader: fmt.Sprintf("%d events over %s", props.TotalEvents, props.PeriodLabel),
		Content:   content,
	})

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	_, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send digest email via Resend: %w", err)
	}

	return nil
}
