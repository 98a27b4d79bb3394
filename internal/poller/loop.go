// Package poller runs the poll, diff and notify cycle.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"hwbot/internal/eventbus"
	"hwbot/internal/homework"
	"hwbot/internal/notifier"
	"hwbot/internal/practicum"
	logx "hwbot/pkg/logx"
)

// Fetcher is the status API. *practicum.Client implements it.
type Fetcher interface {
	Poll(ctx context.Context, from int64) (practicum.RawResponse, error)
}

// Messenger delivers transitions and operator alerts. *notifier.Notifier implements it.
type Messenger interface {
	Notify(ctx context.Context, s homework.Submission) error
	Alert(ctx context.Context, cause string) error
}

type Options struct {
	Schedule Schedule
	// InitialWindow is the first from_date. Zero means now minus one period.
	InitialWindow int64
	// SendTimeout bounds a decided delivery after the loop context is cancelled.
	SendTimeout time.Duration
	Bus         eventbus.Bus
	Log         logx.Logger
	// Now is the clock; tests replace it.
	Now func() time.Time
}

// Loop owns the tracker and the poll window. It is not safe for concurrent
// use: exactly one goroutine calls RunCycle or Run.
type Loop struct {
	api     Fetcher
	msg     Messenger
	tracker *homework.Tracker

	sched       Schedule
	sendTimeout time.Duration
	bus         eventbus.Bus
	log         logx.Logger
	now         func() time.Time

	window    int64
	lastAlert string
}

func New(api Fetcher, msg Messenger, opt Options) (*Loop, error) {
	if api == nil || msg == nil {
		return nil, errors.New("poller: fetcher and messenger are required")
	}
	if opt.Schedule.IsZero() {
		return nil, errors.New("poller: schedule is required")
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.SendTimeout <= 0 {
		opt.SendTimeout = 10 * time.Second
	}
	if opt.Log.IsZero() {
		opt.Log = logx.Nop()
	}
	window := opt.InitialWindow
	if window == 0 {
		now := opt.Now()
		window = now.Add(-opt.Schedule.Period(now)).Unix()
	}
	return &Loop{
		api:         api,
		msg:         msg,
		tracker:     homework.NewTracker(),
		sched:       opt.Schedule,
		sendTimeout: opt.SendTimeout,
		bus:         opt.Bus,
		log:         opt.Log.With(logx.String("comp", "poller")),
		now:         opt.Now,
		window:      window,
	}, nil
}

// Window is the from_date of the next poll.
func (l *Loop) Window() int64 { return l.window }

func (l *Loop) State() homework.TrackedState { return l.tracker.State() }

// Run executes cycles until ctx is cancelled. The first cycle starts
// immediately. Cancellation is a clean exit and returns nil.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("poll loop started",
		logx.String("schedule", l.sched.String()),
		logx.Int64("window", l.window),
	)
	for {
		if ctx.Err() != nil {
			l.log.Info("poll loop stopped")
			return nil
		}
		l.RunCycle(ctx)

		wait := l.sched.Next(l.now()).Sub(l.now())
		if wait < 0 {
			wait = 0
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			l.log.Info("poll loop stopped")
			return nil
		case <-t.C:
		}
	}
}

// RunCycle performs one poll. Every failure is logged and mapped to an
// Outcome; nothing escapes.
func (l *Loop) RunCycle(ctx context.Context) Outcome {
	start := l.now()
	ev := CycleEvent{CycleID: uuid.NewString(), From: l.window}
	log := l.log.With(logx.String("cycle_id", ev.CycleID))

	out := l.cycle(ctx, log, &ev)

	ev.Outcome = out.String()
	ev.Window = l.window
	ev.Duration = l.now().Sub(start)
	if out.Successful() {
		l.lastAlert = ""
	}
	if l.bus != nil {
		l.bus.Publish(eventbus.Event{Type: out.EventType(), Time: l.now(), Data: ev})
	}
	return out
}

func (l *Loop) cycle(ctx context.Context, log logx.Logger, ev *CycleEvent) Outcome {
	raw, err := l.api.Poll(ctx, l.window)
	if err != nil {
		ev.Error = err.Error()
		if ctx.Err() != nil {
			log.Debug("poll interrupted", logx.Err(err))
			return OutcomePollFailed
		}
		log.Error("poll failed", logx.Err(err), logx.Int64("from", l.window))
		l.alert(ctx, log, err)
		return OutcomePollFailed
	}

	res, err := homework.Validate(raw)
	if err != nil {
		ev.Error = err.Error()
		log.Error("invalid api response", logx.Err(err))
		l.alert(ctx, log, err)
		return OutcomeInvalid
	}
	ev.ServerTime = res.ServerTime

	d := l.tracker.Decide(res)
	switch d.Kind {
	case homework.EmptyBacklog:
		log.Debug("no homeworks in window", logx.Int64("from", l.window), logx.Int64("server_time", res.ServerTime))
		l.advance(log, res.ServerTime)
		return OutcomeEmpty
	case homework.NoChange:
		head := res.Submissions[0]
		log.Debug("status unchanged",
			logx.String("homework", head.Name),
			logx.String("status", string(head.Status)),
		)
		l.advance(log, res.ServerTime)
		return OutcomeUnchanged
	}

	s := d.Submission
	ev.Homework, ev.Status = s.Name, string(s.Status)
	log.Info("status transition detected",
		logx.String("homework", s.Name),
		logx.String("status", string(s.Status)),
	)

	// A decided transition is delivered even if shutdown starts now.
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.sendTimeout)
	err = l.msg.Notify(nctx, s)
	cancel()
	if err != nil {
		ev.Error = err.Error()
		var fe *notifier.FormatError
		if errors.As(err, &fe) {
			log.Error("cannot format notification", logx.Err(err))
			return OutcomeFormatFailed
		}
		log.Error("notification delivery failed, will retry next cycle", logx.Err(err))
		return OutcomeDeliveryFailed
	}

	l.tracker.Commit(s)
	l.advance(log, res.ServerTime)
	return OutcomeNotified
}

func (l *Loop) advance(log logx.Logger, serverTime int64) {
	if serverTime < l.window {
		log.Warn("server time behind window, keeping window",
			logx.Int64("window", l.window),
			logx.Int64("server_time", serverTime),
		)
		return
	}
	l.window = serverTime
}

// alert sends cause to the operator unless the same text was already
// delivered since the last successful cycle. Failures are only logged.
func (l *Loop) alert(ctx context.Context, log logx.Logger, cause error) {
	text := cause.Error()
	if text == l.lastAlert {
		log.Debug("alert suppressed, already sent")
		return
	}
	actx, cancel := context.WithTimeout(ctx, l.sendTimeout)
	defer cancel()
	if err := l.msg.Alert(actx, text); err != nil {
		log.Warn("operator alert failed", logx.Err(err))
		return
	}
	l.lastAlert = text
}
