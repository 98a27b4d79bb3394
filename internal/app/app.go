package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hwbot/internal/config"
	"hwbot/internal/eventbus"
	"hwbot/internal/notifier"
	"hwbot/internal/observability/metrics"
	"hwbot/internal/poller"
	"hwbot/internal/practicum"
	"hwbot/internal/runtime/supervisor"
	"hwbot/internal/storage"
	telegram "hwbot/internal/transport/telegram"
	logx "hwbot/pkg/logx"
	"hwbot/pkg/systemd"
)

const pollTask = "poll.loop"

type App struct {
	cfgm *config.ConfigManager
	cfg  *config.Config
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	adapter  *telegram.Adapter
	api      *practicum.Client
	notif    *notifier.Notifier
	loop     *poller.Loop
	metrics  *metrics.Metrics
	server   *metrics.Server
	sd       *systemd.Notifier
	schedule poller.Schedule
}

// New wires every component from a validated config. Nothing runs until Start.
func New(cfgm *config.ConfigManager, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is nil")
	}
	sched, err := cfg.Schedule()
	if err != nil {
		return nil, err
	}
	reqTimeout, err := cfg.RequestTimeout()
	if err != nil {
		return nil, err
	}
	sendTimeout, err := cfg.SendTimeout()
	if err != nil {
		return nil, err
	}

	bootLog := logx.NewConsole(cfg.Logging.Level).With(logx.String("comp", "telegram"))
	ad, err := telegram.New(telegram.Config{
		Token:          cfg.Telegram.Token,
		RequestTimeout: botRequestTimeout(sendTimeout),
		APIURL:         cfg.Telegram.APIURL,
	}, bootLog)
	if err != nil {
		return nil, err
	}

	// Telegram log forwarding starts disabled until its target is set, so
	// Apply does not warn about a missing chat.
	logCfg := mapLogConfig(cfg)
	bootCfg := logCfg
	bootCfg.Telegram.Enabled = false
	logSvc, log := logx.New(bootCfg, ad)
	logSvc.SetTelegramTarget(logTarget(cfg))
	logSvc.Apply(logCfg)

	bus := eventbus.New()

	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("audit journal enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	api, err := practicum.NewClient(practicum.Config{
		Endpoint: cfg.Practicum.Endpoint,
		Token:    cfg.Practicum.Token,
		Timeout:  reqTimeout,
	}, nil, log.With(logx.String("comp", "practicum")))
	if err != nil {
		return nil, err
	}

	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return nil, err
	}
	notif, err := notifier.New(ncfg, ad, log.With(logx.String("comp", "notifier")))
	if err != nil {
		return nil, err
	}

	loop, err := poller.New(api, notif, poller.Options{
		Schedule:      sched,
		InitialWindow: cfg.Poll.InitialWindow,
		SendTimeout:   sendTimeout,
		Bus:           bus,
		Log:           log,
	})
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	var srv *metrics.Server
	if cfg.Metrics.Enabled {
		mc, err := mapMetricsConfig(cfg, sched.Period(time.Now()), reqTimeout)
		if err != nil {
			return nil, err
		}
		srv = metrics.NewServer(mc, m, log)
	}

	return &App{
		cfgm:     cfgm,
		cfg:      cfg,
		log:      log.With(logx.String("comp", "app")),
		logs:     logSvc,
		bus:      bus,
		store:    store,
		adapter:  ad,
		api:      api,
		notif:    notif,
		loop:     loop,
		metrics:  m,
		server:   srv,
		sd:       systemd.New(log),
		schedule: sched,
	}, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	if a.sup != nil {
		return errors.New("app: already started")
	}
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	// Subscribe before the loop starts so the first cycle is observed.
	metricsCh, unsubMetrics := a.bus.Subscribe(64)
	a.sup.Go0("metrics.consume", func(c context.Context) {
		defer unsubMetrics()
		a.metrics.Consume(c, metricsCh)
	})
	if a.store != nil {
		auditCh, unsubAudit := a.bus.Subscribe(64)
		a.sup.Go0("audit.journal", func(c context.Context) {
			defer unsubAudit()
			recordAudit(c, auditCh, a.store, a.log.With(logx.String("comp", "audit")))
		})
	}
	if a.log.Enabled(logx.LevelDebug) {
		debugCh, unsubDebug := a.bus.Subscribe(16)
		a.sup.Go0("eventbus.debug", func(c context.Context) {
			defer unsubDebug()
			logEvents(c, debugCh, a.log.With(logx.String("comp", "eventbus")))
		})
	}

	// The loop owns its window once running.
	from := a.loop.Window()
	a.sup.Go(pollTask, a.loop.Run)

	if a.server != nil {
		a.sup.GoRestart("metrics.http", a.server.Run,
			supervisor.WithRestartBackoff(time.Second, 30*time.Second),
			supervisor.WithMaxRestarts(10),
		)
	}

	if a.cfgm != nil && a.cfgm.Path() != "" {
		a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
		updates := a.cfgm.Subscribe(4)
		a.sup.Go0("config.reload", func(c context.Context) {
			defer a.cfgm.Unsubscribe(updates)
			a.applyConfig(c, updates)
		})
		a.sup.GoRestart("config.watch", a.cfgm.Watch,
			supervisor.WithRestartBackoff(time.Second, time.Minute),
		)
	}

	a.sd.Ready()
	a.sd.Status("polling every " + a.schedule.String())
	a.sup.Go0("systemd.watchdog", func(c context.Context) {
		a.sd.Watchdog(c, a.pollRunning)
	})

	a.log.Info("started",
		logx.String("schedule", a.schedule.String()),
		logx.String("endpoint", a.api.Endpoint()),
		logx.String("practicum_token", config.Mask(a.cfg.Practicum.Token)),
		logx.String("telegram_token", config.Mask(a.cfg.Telegram.Token)),
		logx.String("chat_id", a.notif.Target().Chat),
		logx.Int64("from_date", from),
		logx.Bool("audit", a.store != nil),
		logx.Bool("metrics", a.server != nil),
	)
	return nil
}

func (a *App) pollRunning() bool {
	for _, t := range a.sup.Tasks() {
		if t.Name == pollTask {
			return t.Running
		}
	}
	return false
}

// applyConfig applies live-reloadable sections and warns about the rest.
func (a *App) applyConfig(ctx context.Context, updates <-chan *config.Config) {
	cur := a.cfg
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-updates:
			if !ok {
				return
			}
			changed, attrs, restart := config.SummarizeConfigChange(cur, next)
			if len(changed) == 0 {
				continue
			}
			a.logs.SetTelegramTarget(logTarget(next))
			a.logs.Apply(mapLogConfig(next))
			a.log.Info("config applied", attrs...)
			if len(restart) > 0 {
				a.log.Warn("config change needs restart to take effect", logx.Any("sections", restart))
			}
			cur = next
		}
	}
}

func logEvents(ctx context.Context, ch <-chan eventbus.Event, log logx.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			log.Debug("event", logx.String("type", e.Type), logx.Any("data", e.Data))
		}
	}
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sd.Stopping()

	// Cancel first so the loop and watchers start unwinding immediately.
	a.sup.Cancel()

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		a.log.Debug("stop step begin", logx.String("name", name), logx.Duration("max", max))

		stepCtx := ctx
		if dl, ok := ctx.Deadline(); ok {
			if rem := time.Until(dl); rem < max {
				max = rem
			}
		}
		if max <= 0 {
			a.log.Warn("stop step skipped (deadline reached)", logx.String("name", name))
			return
		}
		stepCtx, cancel := context.WithTimeout(stepCtx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	// The loop finishes a decided delivery on its own bounded context, so
	// waiting here is what lets the last notification go out.
	step("supervisor", 15*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Close(c) })
	step("storage", time.Second, func(context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})

	a.log.Info("stopped", logx.String("reason", string(reason)))
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
