package homework

// DecisionKind is the outcome of comparing a poll result with the tracked state.
type DecisionKind int

const (
	NoChange DecisionKind = iota
	NewTransition
	EmptyBacklog
)

func (k DecisionKind) String() string {
	switch k {
	case NoChange:
		return "no_change"
	case NewTransition:
		return "new_transition"
	case EmptyBacklog:
		return "empty_backlog"
	default:
		return "unknown"
	}
}

// Decision says whether a notification is due. Submission is set only for NewTransition.
type Decision struct {
	Kind       DecisionKind
	Submission Submission
}

// TrackedState is the last successfully notified (name, status) pair.
type TrackedState struct {
	Set    bool
	Name   string
	Status Status
}

func (s TrackedState) matches(sub Submission) bool {
	return s.Set && s.Name == sub.Name && s.Status == sub.Status
}

// Decide compares the head submission (the API lists the most recent first)
// with state. It never mutates anything.
func Decide(result PollResult, state TrackedState) Decision {
	if len(result.Submissions) == 0 {
		return Decision{Kind: EmptyBacklog}
	}
	head := result.Submissions[0]
	if state.matches(head) {
		return Decision{Kind: NoChange}
	}
	return Decision{Kind: NewTransition, Submission: head}
}

// Tracker holds the TrackedState. Commit is the only mutation and must be
// called only after the transition was delivered, so an undelivered
// transition is decided again on the next poll.
//
// A Tracker is owned by a single poll loop and is not safe for concurrent use.
type Tracker struct {
	state TrackedState
}

func NewTracker() *Tracker { return &Tracker{} }

func (t *Tracker) Decide(result PollResult) Decision {
	return Decide(result, t.State())
}

func (t *Tracker) Commit(s Submission) {
	t.state = TrackedState{Set: true, Name: s.Name, Status: s.Status}
}

func (t *Tracker) State() TrackedState {
	return t.state
}
