package main

import (
	"flag"
	"log"

	"sitemap-feeds/pkg/config"
	"sitemap-feeds/pkg/feedserver"
	"sitemap-feeds/pkg/logger"
)

func main() {
	var (
		configFile = flag.String("config", "", "HCL config file (default ./feeds.hcl and ./feeds.local.hcl)")
		addr       = flag.String("addr", "", "Listen address (overrides metrics.listen_addr)")
	)
	flag.Parse()

	var files []string
	if *configFile != "" {
		files = []string{*configFile}
	}

	cfg, err := config.Load(files...)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	listenAddr := cfg.Metrics.ListenAddr
	if *addr != "" {
		listenAddr = *addr
	}

	server := feedserver.New(cfg.OutputDir, logger.NewLogger(cfg.LogLevel))
	if err := server.Run(listenAddr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
