// Package mail sends billing documents to clients and records every
// attempt in the email log.
package mail

import "context"

// Attachment is a file included with an outgoing message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is a fully composed outgoing email.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Sender delivers a message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}
