package main

import (
	"flag"
	"log"
	"os"

	"MacroPull/internal/di"
	"MacroPull/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s source=%s series=%d store=%s", cfg.Environment, cfg.Source.Type, len(cfg.Catalog), cfg.Store.Backend)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if cfg.Loader.Archive {
		log.Printf("clickhouse: archive ready - db: %s", cfg.ClickHouse.Database)
	}
	if cfg.Alerts.Kafka.Enabled {
		log.Printf("kafka: alerts brokers=%v topic=%s", cfg.Alerts.Kafka.Brokers, cfg.Alerts.Kafka.Topic)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
