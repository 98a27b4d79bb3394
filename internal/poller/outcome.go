package poller

import "time"

// Outcome classifies one finished cycle.
type Outcome int

const (
	OutcomePollFailed Outcome = iota
	OutcomeInvalid
	OutcomeEmpty
	OutcomeUnchanged
	OutcomeNotified
	OutcomeDeliveryFailed
	OutcomeFormatFailed
)

var outcomeNames = [...]string{
	OutcomePollFailed:     "poll_failed",
	OutcomeInvalid:        "invalid_response",
	OutcomeEmpty:          "empty",
	OutcomeUnchanged:      "unchanged",
	OutcomeNotified:       "notified",
	OutcomeDeliveryFailed: "delivery_failed",
	OutcomeFormatFailed:   "format_failed",
}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Successful reports whether the cycle got a valid response and, if a
// transition was pending, delivered it.
func (o Outcome) Successful() bool {
	return o == OutcomeEmpty || o == OutcomeUnchanged || o == OutcomeNotified
}

// EventType is the bus event type published for o.
func (o Outcome) EventType() string { return "cycle." + o.String() }

// CycleEvent is the payload of every cycle.* bus event.
type CycleEvent struct {
	CycleID    string        `json:"cycle_id"`
	Outcome    string        `json:"outcome"`
	From       int64         `json:"from"`
	Window     int64         `json:"window"`
	ServerTime int64         `json:"server_time,omitempty"`
	Homework   string        `json:"homework,omitempty"`
	Status     string        `json:"status,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, bool) {
	for i, name := range outcomeNames {
		if name == s {
			return Outcome(i), true
		}
	}
	return 0, false
}
