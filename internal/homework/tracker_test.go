package homework

import "testing"

func result(ts int64, subs ...Submission) PollResult {
	return PollResult{Submissions: subs, ServerTime: ts}
}

func TestDecideEmptyBacklogRegardlessOfState(t *testing.T) {
	t.Parallel()
	states := []TrackedState{
		{},
		{Set: true, Name: "hw1", Status: StatusApproved},
	}
	for _, st := range states {
		if got := Decide(result(10), st); got.Kind != EmptyBacklog {
			t.Fatalf("Decide(empty, %+v) = %s, want empty_backlog", st, got.Kind)
		}
	}
}

func TestDecideNoChangeOnEqualHead(t *testing.T) {
	t.Parallel()
	st := TrackedState{Set: true, Name: "hw1", Status: StatusReviewing}
	r := result(10,
		Submission{Name: "hw1", Status: StatusReviewing},
		Submission{Name: "hw0", Status: StatusApproved},
	)
	if got := Decide(r, st); got.Kind != NoChange {
		t.Fatalf("Kind = %s, want no_change", got.Kind)
	}
}

func TestDecideTransitionOnStatusOrNameChange(t *testing.T) {
	t.Parallel()
	st := TrackedState{Set: true, Name: "hw1", Status: StatusReviewing}
	tests := []Submission{
		{Name: "hw1", Status: StatusApproved},
		{Name: "hw2", Status: StatusReviewing},
	}
	for _, s := range tests {
		got := Decide(result(10, s), st)
		if got.Kind != NewTransition || got.Submission != s {
			t.Fatalf("Decide(%+v) = %+v, want transition", s, got)
		}
	}
}

func TestDecideFirstSightingIsTransition(t *testing.T) {
	t.Parallel()
	s := Submission{Name: "hw1", Status: StatusReviewing}
	if got := Decide(result(10, s), TrackedState{}); got.Kind != NewTransition {
		t.Fatalf("Kind = %s, want new_transition", got.Kind)
	}
}

func TestTrackerCommitGatesRepeatTransitions(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	r := result(10, Submission{Name: "hw1", Status: StatusReviewing})

	// Without a commit the same transition is decided again (retry after failed delivery).
	for i := 0; i < 2; i++ {
		if got := tr.Decide(r); got.Kind != NewTransition {
			t.Fatalf("attempt %d: Kind = %s, want new_transition", i, got.Kind)
		}
	}
	if tr.State().Set {
		t.Fatal("Decide must not mutate state")
	}

	tr.Commit(r.Submissions[0])
	for i := 0; i < 3; i++ {
		if got := tr.Decide(r); got.Kind != NoChange {
			t.Fatalf("after commit %d: Kind = %s, want no_change", i, got.Kind)
		}
	}
	if st := tr.State(); st.Name != "hw1" || st.Status != StatusReviewing {
		t.Fatalf("unexpected state %+v", st)
	}
}
