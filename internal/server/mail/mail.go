// Package mail delivers outbound account email: an SMTP sender, a logging
// sender for development, and an asynchronous dispatcher in front of either.
package mail

import "context"

// Message is a plain-text email to a single recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
