package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/infradash/internal/app"
	"github.com/iudanet/infradash/internal/client/cli"
	"github.com/iudanet/infradash/internal/client/iocli"
	"github.com/iudanet/infradash/internal/config"
	"github.com/iudanet/infradash/internal/logger"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to YAML config")
	serverURL := flag.String("server", "", "API base URL (overrides api.base_url)")
	dbPath := flag.String("db", "", "Path to session storage (overrides storage.path)")
	passwordFile := flag.String("password-file", "", "Path to file containing the login password")

	flag.Parse()

	stdio := iocli.NewStdio()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		return 0
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage(stdio)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *serverURL != "" {
		cfg.API.BaseURL = *serverURL
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}

	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, cli.Navigator(stdio))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize client: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	c := cli.New(a, stdio, cli.Passwords{FromFile: *passwordFile})
	if err := c.Run(ctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cli.ErrUsage) {
			cli.PrintUsage(stdio)
		}
		return 1
	}
	return 0
}

func printVersion() {
	fmt.Printf("InfraDash Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
