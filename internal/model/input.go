package model

import (
	"context"
	"strings"
)

// TextAttachmentSuffix is the only attachment suffix whose content is scanned.
const TextAttachmentSuffix = ".txt"

// Message is a single chat message body.
type Message struct {
	// Text is the raw message content.
	Text string

	// Attachments are the files attached to this message.
	Attachments []Attachment
}

// Attachment describes a file attached to a message.
// FetchText is supplied by the host environment (local file, HTTP download).
type Attachment struct {
	// Name is the attachment file name, used to decide whether it is scanned.
	Name string

	// FetchText returns the decoded text content of the attachment.
	FetchText func(ctx context.Context) (string, error)
}

// IsText reports whether the attachment is a plaintext (.txt) file.
func (a Attachment) IsText() bool {
	return strings.HasSuffix(a.Name, TextAttachmentSuffix)
}

// AttachmentResult records what happened to one attachment during extraction.
type AttachmentResult struct {
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
	Links   int     `json:"links"`
}
