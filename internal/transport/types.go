package transport

import "context"

// ChatTarget addresses a chat (numeric id or @username) and optionally a forum topic.
type ChatTarget struct {
	Chat     string
	ThreadID int // telegram forum topic thread id (0 if none)
}

func (t ChatTarget) IsZero() bool { return t.Chat == "" }

type MessageRef struct {
	Chat      string
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
	Silent         bool
}

// Sender delivers plain text to a chat. Success or failure is observable only
// through the returned error; there are no delivery receipts.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}

// Closer is implemented by senders that own background resources.
type Closer interface {
	Close(ctx context.Context) error
}
