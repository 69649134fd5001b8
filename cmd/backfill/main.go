package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/fortuna/courtside/internal/config"
	"github.com/fortuna/courtside/internal/ingest/bbref"
	"github.com/fortuna/courtside/internal/store"
	"github.com/fortuna/courtside/internal/store/repository"
)

func main() {
	var (
		start      = flag.String("start", "", "first date to ingest (YYYY-MM-DD)")
		end        = flag.String("end", "", "last date to ingest (YYYY-MM-DD)")
		configPath = flag.String("config", "", "path to courtside.yaml")
	)
	flag.Parse()

	if *start == "" || *end == "" {
		flag.Usage()
		os.Exit(2)
	}
	startDate, err := store.ParseDate(*start)
	if err != nil {
		log.Fatalf("[backfill] %v", err)
	}
	endDate, err := store.ParseDate(*end)
	if err != nil {
		log.Fatalf("[backfill] %v", err)
	}
	if startDate.After(endDate.Time) {
		log.Fatalf("[backfill] start %s is after end %s", startDate, endDate)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[backfill] loading .env: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[backfill] config: %v", err)
	}

	client := bbref.NewClient(bbref.ClientConfig{
		BaseURL:            cfg.Collector.BaseURL,
		UserAgent:          cfg.Collector.UserAgent,
		PolitenessInterval: cfg.Collector.PolitenessInterval,
		Retries:            cfg.Collector.Retries,
		RetryBackoff:       cfg.Collector.RetryBackoff,
		Timeout:            cfg.Collector.Timeout,
	})
	ing := bbref.NewIngester(
		bbref.NewCollector(client),
		repository.NewGameRepository(cfg.DataDir),
		repository.NewPlayerLogRepository(cfg.DataDir),
	)

	log.Printf("[backfill] ingesting %s through %s", startDate, endDate)
	if err := ing.IngestRange(context.Background(), startDate, endDate); err != nil {
		log.Fatalf("[backfill] %v", err)
	}
	log.Printf("[backfill] done")
}
