package systemd

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "hwbot/pkg/logx"
)

type recorder struct {
	mu     sync.Mutex
	states []string
}

func (r *recorder) notify(_ bool, state string) (bool, error) {
	r.mu.Lock()
	r.states = append(r.states, state)
	r.mu.Unlock()
	return true, nil
}

func (r *recorder) count(state string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.states {
		if s == state {
			n++
		}
	}
	return n
}

func newTestNotifier(rec *recorder, every time.Duration) *Notifier {
	n := New(logx.Nop())
	n.notify = rec.notify
	n.interval = func(bool) (time.Duration, error) { return every, nil }
	return n
}

func TestReadyStoppingStatus(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	n := newTestNotifier(rec, 0)
	n.Ready()
	n.Status("polling")
	n.Stopping()
	want := []string{daemon.SdNotifyReady, "STATUS=polling", daemon.SdNotifyStopping}
	if len(rec.states) != len(want) {
		t.Fatalf("states = %v", rec.states)
	}
	for i := range want {
		if rec.states[i] != want[i] {
			t.Fatalf("states[%d] = %q, want %q", i, rec.states[i], want[i])
		}
	}
}

func TestWatchdogDisabledReturns(t *testing.T) {
	t.Parallel()
	n := newTestNotifier(&recorder{}, 0)
	done := make(chan struct{})
	go func() {
		n.Watchdog(context.Background(), nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watchdog should return when disabled")
	}
}

func TestWatchdogPingsOnlyWhenHealthy(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	n := newTestNotifier(rec, 20*time.Millisecond)
	var healthy atomic.Bool

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.Watchdog(ctx, healthy.Load)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	if got := rec.count(daemon.SdNotifyWatchdog); got != 0 {
		t.Fatalf("pinged %d times while unhealthy", got)
	}
	healthy.Store(true)
	deadline := time.Now().Add(2 * time.Second)
	for rec.count(daemon.SdNotifyWatchdog) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no watchdog ping while healthy")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}
