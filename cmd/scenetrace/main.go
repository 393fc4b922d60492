// Package main is the entry point for the scenetrace renderer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/scenetrace/internal/app"
	"github.com/Faultbox/scenetrace/internal/config"
	"github.com/Faultbox/scenetrace/internal/logger"
)

var flagWatch = flag.Bool("watch", false, "Re-render whenever the scene or its assets change")

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== scenetrace ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, logger.Named("app"))
	if err != nil {
		logger.Error("failed to create app", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	if *flagWatch {
		err := a.Watch(ctx, func(res app.Result, err error) {
			if err != nil {
				logger.Error("render failed", zap.Error(err))
				return
			}
			fmt.Println(res.Path)
		})
		if err != nil {
			logger.Error("watch failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	res, err := a.Render(ctx)
	if err != nil {
		logger.Error("render failed", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println(res.Path)
}
