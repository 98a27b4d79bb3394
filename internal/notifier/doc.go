// Package notifier turns status transitions into chat messages.
//
// A Notifier owns the message format and delivers through a transport.Sender
// (the Telegram adapter in production). Every send is rate limited and bounded
// by a timeout. Delivery is synchronous: the caller learns from the returned
// error whether the message went out, which is what lets the poll loop commit
// a transition only after the chat accepted it.
//
// Two failure kinds are kept apart. A FormatError means the submission could
// not be rendered and retrying is pointless until the input changes. A
// DeliveryError means the transport refused or timed out; the same transition
// will be offered again on the next cycle.
package notifier
