package provider

import (
	"context"
	"errors"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Attachment is inline binary content sent alongside a prompt, e.g. a photo.
type Attachment struct {
	MIMEType string
	Data     []byte
}

type Message struct {
	Role        Role
	Content     string
	Attachments []Attachment
}

// Provider turns a prompt into the model's free-text reply.
type Provider interface {
	Generate(ctx context.Context, msgs []Message) (string, error)
	Name() string
	ModelName() string
}

// ErrEmptyReply is returned when the model answered without any text.
var ErrEmptyReply = errors.New("model returned no text")
