package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hwbot/internal/eventbus"
	"hwbot/internal/poller"
	"hwbot/internal/storage"
	logx "hwbot/pkg/logx"
)

type memStore struct {
	mu      sync.Mutex
	entries []storage.Entry
	err     error
}

func (s *memStore) Append(_ context.Context, e storage.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) snapshot() []storage.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.Entry(nil), s.entries...)
}

func TestRecordAudit_JournalsOnlyEventfulCycles(t *testing.T) {
	t.Parallel()

	at := time.Unix(1700000000, 0).UTC()
	events := []poller.CycleEvent{
		{CycleID: "a", Outcome: poller.OutcomeEmpty.String(), From: 1000, Window: 1000},
		{CycleID: "b", Outcome: poller.OutcomeNotified.String(), From: 1000, Window: 1600, ServerTime: 1600,
			Homework: "hw1", Status: "approved", Duration: 1500 * time.Millisecond},
		{CycleID: "c", Outcome: poller.OutcomeUnchanged.String()},
		{CycleID: "d", Outcome: poller.OutcomePollFailed.String(), Error: "timeout"},
		{CycleID: "e", Outcome: poller.OutcomeInvalid.String(), Error: "missing key"},
	}

	ch := make(chan eventbus.Event, len(events)+1)
	for _, ev := range events {
		ch <- eventbus.Event{Type: "cycle." + ev.Outcome, Time: at, Data: ev}
	}
	ch <- eventbus.Event{Type: "other", Time: at, Data: "ignored"}
	close(ch)

	st := &memStore{}
	recordAudit(context.Background(), ch, st, logx.Nop())

	got := st.snapshot()
	if len(got) != 3 {
		t.Fatalf("entries=%d, want 3: %+v", len(got), got)
	}
	wantIDs := []string{"b", "d", "e"}
	for i, id := range wantIDs {
		if got[i].CycleID != id {
			t.Fatalf("entry %d cycle_id=%q, want %q", i, got[i].CycleID, id)
		}
	}
	n := got[0]
	if n.Homework != "hw1" || n.Status != "approved" || n.Window != 1600 || n.TookMS != 1500 || !n.At.Equal(at) {
		t.Fatalf("unexpected notified entry: %+v", n)
	}
}

func TestRecordAudit_AppendErrorDoesNotStop(t *testing.T) {
	t.Parallel()

	ch := make(chan eventbus.Event, 2)
	ch <- eventbus.Event{Data: poller.CycleEvent{CycleID: "x", Outcome: poller.OutcomeDeliveryFailed.String()}}
	ch <- eventbus.Event{Data: poller.CycleEvent{CycleID: "y", Outcome: poller.OutcomeFormatFailed.String()}}
	close(ch)

	done := make(chan struct{})
	go func() {
		recordAudit(context.Background(), ch, &memStore{err: errors.New("disk full")}, logx.Nop())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("recordAudit did not return after channel close")
	}
}

func TestRecordAudit_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan eventbus.Event)
	done := make(chan struct{})
	go func() {
		recordAudit(ctx, ch, &memStore{}, logx.Nop())
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("recordAudit ignored cancellation")
	}
}
