package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/mail"
	"net/url"

	"github.com/dajohi/goemail"
)

// SMTPSender sends through an smtps:// server.
type SMTPSender struct {
	client      *goemail.SMTP
	mailName    string
	mailAddress string
}

// NewSMTPSender connects the goemail client. from may carry a display name,
// e.g. "GophAuth <noreply@example.com>".
func NewSMTPSender(host, user, password, from string, skipVerify bool) (*SMTPSender, error) {
	u := &url.URL{Scheme: "smtps", Host: host}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}

	a, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("parse sender address: %w", err)
	}

	client, err := goemail.NewSMTP(u.String(), &tls.Config{InsecureSkipVerify: skipVerify})
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPSender{
		client:      client,
		mailName:    a.Name,
		mailAddress: a.Address,
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := goemail.NewMessage(s.mailAddress, msg.Subject, msg.Body)
	m.AddTo(msg.To)
	if s.mailName != "" {
		m.SetName(s.mailName)
	}
	return s.client.Send(m)
}
