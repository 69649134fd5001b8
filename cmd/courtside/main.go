package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/fortuna/courtside/internal/config"
	"github.com/fortuna/courtside/internal/pipeline"
	"github.com/fortuna/courtside/internal/store"
)

func main() {
	var (
		stage      = flag.String("stage", pipeline.StageAll, "stage to run: all|ingest|stats|features|predict|odds|decide|grade")
		configPath = flag.String("config", "", "path to courtside.yaml (defaults to ./courtside.yaml if present)")
		daemon     = flag.Bool("daemon", false, "keep running and execute the full pipeline on the configured cron spec")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[main] loading .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[main] config: %v", err)
	}

	runner := pipeline.New(cfg)

	if !*daemon {
		if err := runner.Run(context.Background(), *stage, today()); err != nil {
			log.Fatalf("[main] %v", err)
		}
		return
	}

	log.Printf("[main] daemon mode, cron spec %q", cfg.Cron.Spec)
	c := cron.New()
	_, err = c.AddFunc(cfg.Cron.Spec, func() {
		if err := runner.Run(context.Background(), pipeline.StageAll, today()); err != nil {
			log.Printf("[main] scheduled run failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("[main] invalid cron spec %q: %v", cfg.Cron.Spec, err)
	}
	c.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Printf("[main] shutting down")
	<-c.Stop().Done()
}

// today is the slate date in US Eastern time; late games tip off past
// midnight UTC.
func today() store.Date {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return store.DateOf(time.Now().In(loc))
}
