package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"servermon/backend/config"
	"servermon/backend/global"
	"servermon/backend/initialize"
	"servermon/backend/server"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		global.Logger.Fatal().Err(err).Str("path", *cfgPath).Msg("load config")
	}

	app, err := initialize.Build(cfg)
	if err != nil {
		global.Logger.Fatal().Err(err).Msg("initialize")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go app.Correlator.Run(ctx)
	go app.Scheduler.Run(ctx)

	if err := server.Run(ctx, cfg.HTTP.Host, cfg.HTTP.Port, app.Handler); err != nil {
		global.Logger.Fatal().Err(err).Msg("server exited")
	}
	global.Logger.Info().Msg("shutdown complete")
}
