package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

// Config configures the send-only Telegram adapter.
type Config struct {
	Token string
	// RequestTimeout bounds every Bot API call made by the underlying client.
	RequestTimeout time.Duration
	// APIURL overrides the Bot API base URL (tests, local bot api servers).
	APIURL string
}

// Adapter is a kit.Sender backed by a single long-lived telebot.Bot.
//
// The bot is created offline: it never calls getMe and never long-polls for
// updates, so construction cannot fail on network errors.
type Adapter struct {
	cfg Config
	log logx.Logger

	mu  sync.Mutex
	bot *tele.Bot
}

var _ kit.Sender = (*Adapter)(nil)

// chatRecipient lets both numeric chat ids and @channel usernames be used as targets.
type chatRecipient string

func (r chatRecipient) Recipient() string { return string(r) }

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimSpace(cfg.APIURL),
		Token:   cfg.Token,
		Offline: true,
		Client:  &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	if to.IsZero() {
		return kit.MessageRef{}, errors.New("telegram: empty chat target")
	}

	a.mu.Lock()
	bot := a.bot
	a.mu.Unlock()
	if bot == nil {
		return kit.MessageRef{}, errors.New("telegram: adapter closed")
	}

	chunks := splitTelegramText(text, telegramTextLimit, opt.ParseMode)
	if len(chunks) == 0 {
		chunks = []string{""}
	}

	chat := chatRecipient(strings.TrimSpace(to.Chat))

	var first kit.MessageRef
	for i, chunk := range chunks {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return first, ctx.Err()
			default:
			}
		}

		sendOpt := &tele.SendOptions{
			ParseMode:             opt.ParseMode,
			DisableWebPagePreview: opt.DisablePreview,
			DisableNotification:   opt.Silent,
			ThreadID:              to.ThreadID,
		}

		msg, err := sendWithContext(ctx, func() (*tele.Message, error) {
			return bot.Send(chat, chunk, sendOpt)
		})
		if err != nil {
			return first, err
		}

		if i == 0 && msg != nil {
			first = kit.MessageRef{Chat: to.Chat, ThreadID: to.ThreadID, MessageID: msg.ID}
		}
	}

	a.log.Debug("message sent", logx.String("chat", to.Chat), logx.Int("chunks", len(chunks)))
	return first, nil
}

// Close releases the bot. Further sends fail.
func (a *Adapter) Close(ctx context.Context) error {
	_ = ctx
	a.mu.Lock()
	a.bot = nil
	a.mu.Unlock()
	return nil
}

// sendWithContext runs a blocking telebot call and gives up when ctx is done.
// telebot has no context-aware API; the call itself is still bounded by the
// http client timeout, so the goroutine cannot outlive it.
func sendWithContext(ctx context.Context, fn func() (*tele.Message, error)) (*tele.Message, error) {
	if ctx == nil {
		return fn()
	}
	type result struct {
		msg *tele.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		m, err := fn()
		done <- result{msg: m, err: err}
	}()
	select {
	case r := <-done:
		return r.msg, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
