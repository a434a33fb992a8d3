package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"munin.szuro.net/internal/config"
	"munin.szuro.net/internal/logger"
	"munin.szuro.net/pkg/munin"
)

func printVersionInfo() {
	fmt.Printf("munin-load %s\n", config.Version)
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

	cfg := munin.NewConfig("load")
	if err := cfg.LoadFromEnv(); err != nil {
		logger.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	config.BuildInfo.Set(1)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := munin.NewRunner(&LoadPlugin{Path: LOADAVG}, cfg)
	if err := r.Run(ctx, flag.Args()); err != nil {
		logger.Debug("Exiting with error", slog.Any("error", err))
		os.Exit(1)
	}
}
