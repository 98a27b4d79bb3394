package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hwbot/internal/homework"
	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

const (
	messageTemplate = `Изменился статус проверки работы "%s". %s`
	alertPrefix     = "Сбой в работе программы: "

	defaultSendTimeout = 10 * time.Second
	defaultRatePerSec  = 1
)

var errUnknownStatus = errors.New("no verdict for status")

type Config struct {
	Target kit.ChatTarget
	// SendTimeout bounds one delivery, including the wait for the limiter.
	SendTimeout time.Duration
	// RatePerSec caps outgoing messages. Burst equals the rate.
	RatePerSec int
	// Silent sends without a notification sound.
	Silent bool
}

// Notifier is safe for concurrent use.
type Notifier struct {
	sender  kit.Sender
	target  kit.ChatTarget
	timeout time.Duration
	limiter *rate.Limiter
	opts    kit.SendOptions
	log     logx.Logger
}

func New(cfg Config, sender kit.Sender, log logx.Logger) (*Notifier, error) {
	if sender == nil {
		return nil, errors.New("notifier: nil sender")
	}
	if cfg.Target.IsZero() {
		return nil, errors.New("notifier: empty chat target")
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Notifier{
		sender:  sender,
		target:  cfg.Target,
		timeout: cfg.SendTimeout,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		opts:    kit.SendOptions{DisablePreview: true, Silent: cfg.Silent},
		log:     log.With(logx.String("comp", "notifier")),
	}, nil
}

func (n *Notifier) Target() kit.ChatTarget { return n.target }

// Format renders the status-change message for s.
func Format(s homework.Submission) (string, error) {
	verdict, ok := s.Status.Verdict()
	if !ok {
		return "", &FormatError{Submission: s, Err: errUnknownStatus}
	}
	return fmt.Sprintf(messageTemplate, s.Name, verdict), nil
}

// Notify formats s and delivers it. The returned error is nil, a *FormatError,
// or a *DeliveryError.
func (n *Notifier) Notify(ctx context.Context, s homework.Submission) error {
	text, err := Format(s)
	if err != nil {
		return err
	}
	if err := n.send(ctx, text); err != nil {
		return err
	}
	n.log.Info("notification delivered",
		logx.String("homework", s.Name),
		logx.String("status", string(s.Status)),
	)
	return nil
}

// Alert delivers an operator message about a failed cycle.
func (n *Notifier) Alert(ctx context.Context, cause string) error {
	cause = strings.TrimSpace(cause)
	if cause == "" {
		return nil
	}
	return n.send(ctx, AlertText(cause))
}

// AlertText is the operator message for cause.
func AlertText(cause string) string { return alertPrefix + cause }

func (n *Notifier) send(ctx context.Context, text string) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = &DeliveryError{Target: n.target, Err: fmt.Errorf("transport panic: %v", r)}
		}
	}()

	if err := n.limiter.Wait(ctx); err != nil {
		return &DeliveryError{Target: n.target, Err: fmt.Errorf("rate limit: %w", err)}
	}
	opts := n.opts
	if _, err := n.sender.SendText(ctx, n.target, text, &opts); err != nil {
		n.log.Debug("send failed", logx.Err(err))
		return &DeliveryError{Target: n.target, Err: err}
	}
	return nil
}
