// Package homework holds the review-status domain: the submission model, the
// response schema contract, and the change tracker that decides when a
// notification is due.
package homework

// Status is a review status reported by the API.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

// verdicts is the fixed status-message table. A status is known iff it is a key here.
var verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Verdict returns the human-readable verdict for s.
func (s Status) Verdict() (string, bool) {
	v, ok := verdicts[s]
	return v, ok
}

func (s Status) Known() bool {
	_, ok := verdicts[s]
	return ok
}

// Submission is one homework item with its review status.
type Submission struct {
	Name   string `json:"homework_name"`
	Status Status `json:"status"`
}

// PollResult is a validated API response.
type PollResult struct {
	// Submissions are ordered most recent first. May be empty.
	Submissions []Submission
	// ServerTime is the API's current_date; the next poll window starts here.
	ServerTime int64
}
