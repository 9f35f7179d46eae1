package mailer

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends the listing confirmation e-mail.
type SMTPMailer struct {
	from   string
	dialer sender
	logger *logger.Logger
}

// NewSMTPMailer creates a mailer for the given SMTP account.
func NewSMTPMailer(host string, port int, username, password, from string, log *logger.Logger) *SMTPMailer {
	if from == "" {
		from = username
	}
	return &SMTPMailer{
		from:   from,
		dialer: gomail.NewDialer(host, port, username, password),
		logger: log.Named("SMTPMailer"),
	}
}

func (m *SMTPMailer) listingCreatedMessage(toEmail, listingTitle string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "New Listing Created")
	msg.SetBody("text/plain", "Your listing '"+listingTitle+"' has been created successfully.")
	return msg
}

// SendListingCreated implements domain.ListingNotifier.
func (m *SMTPMailer) SendListingCreated(ctx context.Context, toEmail, listingTitle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(m.listingCreatedMessage(toEmail, listingTitle)); err != nil {
		m.logger.Error("Failed to send listing created e-mail", zap.String("to", toEmail), zap.Error(err))
		return fmt.Errorf("send listing created e-mail: %w", err)
	}
	m.logger.Info("Listing created e-mail sent", zap.String("to", toEmail))
	return nil
}
