package logx

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	kit "hwbot/internal/transport"
)

const (
	telegramQueueSize = 128
	telegramMaxText   = 3500
	telegramSendLimit = 10 * time.Second
)

// telegramSink forwards log records to a chat. It never blocks logging:
// records are rate limited, queued, and dropped when the queue is full.
type telegramSink struct {
	sender kit.Sender
	queue  chan telegramItem

	mu       sync.Mutex
	enabled  bool
	to       kit.ChatTarget
	minLevel zerolog.Level
	limiter  *rate.Limiter

	once   sync.Once
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type telegramItem struct {
	to  kit.ChatTarget
	msg string
}

func newTelegramSink(sender kit.Sender) *telegramSink {
	return &telegramSink{
		sender:   sender,
		queue:    make(chan telegramItem, telegramQueueSize),
		minLevel: zerolog.WarnLevel,
	}
}

func (t *telegramSink) setTarget(to kit.ChatTarget) {
	t.mu.Lock()
	t.to = to
	t.mu.Unlock()
}

func (t *telegramSink) configure(enabled bool, minLevel zerolog.Level, lim *rate.Limiter) {
	t.mu.Lock()
	t.enabled = enabled
	t.minLevel = minLevel
	t.limiter = lim
	t.mu.Unlock()
}

func (t *telegramSink) start() {
	t.once.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		t.mu.Lock()
		t.cancel = cancel
		t.mu.Unlock()
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.worker(ctx)
		}()
	})
}

func (t *telegramSink) stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()
	if cancel != nil {
		cancel()
		t.wg.Wait()
	}
}

func (t *telegramSink) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-t.queue:
			sctx, cancel := context.WithTimeout(ctx, telegramSendLimit)
			_, _ = t.sender.SendText(sctx, it.to, it.msg, &kit.SendOptions{DisablePreview: true})
			cancel()
		}
	}
}

func (t *telegramSink) Write(p []byte) (int, error) {
	return t.WriteLevel(zerolog.InfoLevel, p)
}

func (t *telegramSink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	t.mu.Lock()
	enabled := t.enabled
	to := t.to
	lim := t.limiter
	minLevel := t.minLevel
	t.mu.Unlock()

	if !enabled || to.IsZero() || lim == nil || level < minLevel {
		return len(p), nil
	}
	if !lim.Allow() {
		return len(p), nil
	}
	msg := formatTelegramRecord(p)
	if msg == "" {
		return len(p), nil
	}
	select {
	case t.queue <- telegramItem{to: to, msg: msg}:
	default:
	}
	return len(p), nil
}

// formatTelegramRecord renders a zerolog JSON line as "[LEVEL] message" plus
// one "- key=value" line per field, in stable key order.
func formatTelegramRecord(p []byte) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(p))), &m); err != nil {
		return truncate(strings.TrimSpace(string(p)), telegramMaxText)
	}

	lvl, _ := m["level"].(string)
	msg, _ := m["message"].(string)

	var b strings.Builder
	if lvl != "" {
		b.WriteString("[" + strings.ToUpper(lvl) + "] ")
	}
	b.WriteString(msg)

	keys := make([]string, 0, len(m))
	for k := range m {
		switch k {
		case "time", "level", "message":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n- " + k + "=")
		b.WriteString(truncate(fmt.Sprint(m[k]), 600))
	}
	return truncate(b.String(), telegramMaxText)
}

func truncate(s string, maxN int) string {
	if maxN <= 0 || len(s) <= maxN {
		return s
	}
	if maxN < 10 {
		return s[:runeCut(s, maxN)]
	}
	return s[:runeCut(s, maxN-3)] + "..."
}

// runeCut returns the largest index <= n that starts a rune in s.
func runeCut(s string, n int) int {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}
