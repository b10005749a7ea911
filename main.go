package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sitemap-feeds/pkg/config"
	"sitemap-feeds/pkg/feedservice"
	"sitemap-feeds/pkg/logger"
)

func main() {
	var (
		configFile  = flag.String("config", "", "HCL config file (default ./feeds.hcl and ./feeds.local.hcl)")
		printConfig = flag.Bool("print-config", false, "Print the effective configuration and exit")
	)
	flag.Parse()

	if err := run(*configFile, *printConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string, printConfig bool) error {
	var files []string
	if configFile != "" {
		files = []string{configFile}
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}

	if printConfig {
		out, err := cfg.Dump()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	log := logger.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, cleanup, err := feedservice.NewFromConfig(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := service.Run(ctx)
	if err != nil {
		return err
	}

	summary.Print(os.Stdout)
	return nil
}
