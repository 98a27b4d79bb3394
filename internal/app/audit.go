package app

import (
	"context"
	"time"

	"hwbot/internal/eventbus"
	"hwbot/internal/poller"
	"hwbot/internal/storage"
	logx "hwbot/pkg/logx"
)

// journaled lists the outcomes written to the audit journal. Quiet cycles
// (empty, unchanged) are left out.
var journaled = map[string]bool{
	poller.OutcomeNotified.String():       true,
	poller.OutcomeDeliveryFailed.String(): true,
	poller.OutcomeFormatFailed.String():   true,
	poller.OutcomePollFailed.String():     true,
	poller.OutcomeInvalid.String():        true,
}

func auditEntry(at time.Time, ev poller.CycleEvent) storage.Entry {
	return storage.Entry{
		At:         at,
		CycleID:    ev.CycleID,
		Outcome:    ev.Outcome,
		Homework:   ev.Homework,
		Status:     ev.Status,
		From:       ev.From,
		Window:     ev.Window,
		ServerTime: ev.ServerTime,
		Error:      ev.Error,
		TookMS:     ev.Duration.Milliseconds(),
	}
}

// recordAudit appends journaled cycle events to st until ch closes or ctx
// is done. Write failures are logged and dropped.
func recordAudit(ctx context.Context, ch <-chan eventbus.Event, st storage.Store, log logx.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			ev, ok := e.Data.(poller.CycleEvent)
			if !ok || !journaled[ev.Outcome] {
				continue
			}
			wctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err := st.Append(wctx, auditEntry(e.Time, ev))
			cancel()
			if err != nil {
				log.Warn("audit append failed", logx.String("cycle_id", ev.CycleID), logx.Err(err))
			}
		}
	}
}
