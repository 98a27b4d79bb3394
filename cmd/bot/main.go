package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hwbot/internal/app"
	"hwbot/internal/config"
	logx "hwbot/pkg/logx"
)

const (
	exitFailure = 1
	exitConfig  = 2

	stopTimeout = 20 * time.Second
)

func main() {
	var cfgPath, envPath string
	flag.StringVar(&cfgPath, "config", "", "path to config json/yaml (optional; env vars override it)")
	flag.StringVar(&envPath, "env", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	boot := logx.NewConsole("info").With(logx.String("comp", "main"))

	if envPath != "" {
		loaded, err := config.LoadDotEnv(envPath)
		if err != nil {
			boot.Error("dotenv load failed", logx.String("path", envPath), logx.Err(err))
			os.Exit(exitConfig)
		}
		if loaded != "" {
			boot.Debug("dotenv loaded", logx.String("path", loaded))
		}
	}

	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		boot.Error("invalid configuration", logx.Err(err))
		os.Exit(exitCode(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgm, cfg)
	if err != nil {
		boot.Error("startup failed", logx.Err(err))
		os.Exit(exitCode(err))
	}
	if err := a.Start(ctx); err != nil {
		boot.Error("start failed", logx.Err(err))
		os.Exit(exitFailure)
	}

	reason := app.StopSignal
	select {
	case <-ctx.Done():
	case <-a.Done():
		if a.Err() != nil {
			reason = app.StopFatalError
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	_ = a.Stop(stopCtx, reason)
	stopCancel()

	if err := a.Err(); err != nil {
		boot.Error("exited with error", logx.Err(err))
		cancel()
		os.Exit(exitFailure)
	}
}

func exitCode(err error) int {
	var ce *config.ConfigError
	if errors.As(err, &ce) {
		return exitConfig
	}
	return exitFailure
}
