package notifier

import (
	"fmt"

	"hwbot/internal/homework"
	kit "hwbot/internal/transport"
)

// FormatError reports a submission that has no message template.
type FormatError struct {
	Submission homework.Submission
	Err        error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format %q (status %q): %v", e.Submission.Name, e.Submission.Status, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// DeliveryError reports a message the transport did not accept.
type DeliveryError struct {
	Target kit.ChatTarget
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Target.ThreadID != 0 {
		return fmt.Sprintf("deliver to chat %s (thread %d): %v", e.Target.Chat, e.Target.ThreadID, e.Err)
	}
	return fmt.Sprintf("deliver to chat %s: %v", e.Target.Chat, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
