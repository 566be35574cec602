package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/javiersolana/crypto-swarm/internal/di"
	"github.com/javiersolana/crypto-swarm/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	once := flag.Bool("once", false, "run a single scan cycle and exit")
	category := flag.String("category", "", "restrict scanning to one entity category")
	flag.Parse()

	// Local development keeps API keys in .env; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *category != "" {
		cfg.Scan.Category = *category
	}

	log.Printf("env=%s providers=%d interval=%s", cfg.Environment, len(cfg.Providers), cfg.Scan.Interval)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if *once {
		if err := app.RunOnce(context.Background()); err != nil {
			log.Printf("cycle error: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
