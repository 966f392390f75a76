package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/cic64/internal/logging"
	"github.com/danmuck/cic64/internal/observability"
	"github.com/danmuck/cic64/internal/server"
	"github.com/danmuck/cic64/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to cicctl config TOML (defaults when empty)")
	selftest := flag.Bool("selftest", false, "run the scripted self-test in both regions and exit")
	flag.Parse()

	if err := run(*configPath, *selftest); err != nil {
		fmt.Fprintf(os.Stderr, "cicctl: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, selftest bool) error {
	logging.ConfigureRuntime()

	cfg := defaultCicctlConfig()
	if configPath != "" {
		loaded, err := loadServiceConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	logger := observability.InitLogger("cicctl", cfg.Region.String(), cfg.Variant.Name)
	cfg.Logger = logger

	if selftest {
		_, err := service.SelfTest(context.Background(), cfg.Variant, logger)
		return err
	}

	svc := service.NewServiceWithConfig(cfg.ServiceConfig)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adminErr := make(chan error, 1)
	if cfg.AdminListenAddr != "" {
		admin := server.New(server.Config{
			ID:          "cicctl",
			Token:       cfg.AdminToken,
			CorsOrigins: cfg.CorsOrigins,
			Logger:      logger,
		}, svc)
		go func() {
			if err := admin.Serve(ctx, cfg.AdminListenAddr); err != nil {
				logger.Error().Err(err).Msg("admin server failed")
				adminErr <- err
			}
		}()
	}

	err := svc.Run(ctx)
	cancel()
	select {
	case aerr := <-adminErr:
		err = errors.Join(err, aerr)
	default:
	}
	return err
}
