// munin-collector is a munin plugin that hands config and values over to an
// external collector binary. Link it under the plugin name and point
// MUNIN_COLLECTOR at the collector in plugin-conf.d:
//
//	[uptime]
//	env.MUNIN_COLLECTOR /usr/lib/munin/collectors/uptime
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"munin.szuro.net/internal/config"
	"munin.szuro.net/internal/logger"
	"munin.szuro.net/pkg/collector"
	"munin.szuro.net/pkg/munin"
)

const COLLECTOR_ENV = "MUNIN_COLLECTOR"

func printVersionInfo() {
	fmt.Printf("munin-collector %s\n", config.Version)
	fmt.Printf("Git commit: %s\n", config.Commit)
	fmt.Printf("Compilation time: %s\n", config.BuildDate)
}

func main() {
	version := flag.Bool("v", false, "Show version info")
	flag.Parse()

	if *version {
		printVersionInfo()
		os.Exit(0)
	}

	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	path := os.Getenv(COLLECTOR_ENV)
	if path == "" {
		logger.Error("No collector configured", slog.String("env", COLLECTOR_ENV))
		return fmt.Errorf("%s is not set", COLLECTOR_ENV)
	}

	cfg := munin.NewConfig(filepath.Base(os.Args[0]))
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}
	config.BuildInfo.Set(1)

	host, err := collector.Launch(path)
	if err != nil {
		logger.Error("Failed to launch collector", slog.String("path", path), slog.Any("error", err))
		return err
	}
	defer host.Kill()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return munin.NewRunner(host, cfg).Run(ctx, flag.Args())
}
