package bbref

import (
	"context"
	"fmt"
	"log"

	"github.com/fortuna/courtside/internal/store"
	"github.com/fortuna/courtside/internal/store/repository"
)

// Ingester pulls completed games through the idempotent merge ledger. A
// failed date or link is logged and skipped; only repository errors abort.
type Ingester struct {
	collector  Collector
	gameRepo   *repository.GameRepository
	playerRepo *repository.PlayerLogRepository
}

func NewIngester(collector Collector, games *repository.GameRepository, players *repository.PlayerLogRepository) *Ingester {
	return &Ingester{
		collector:  collector,
		gameRepo:   games,
		playerRepo: players,
	}
}

// IngestSince fetches every date after the last stored game up to and
// including today. An empty ledger ingests today only; backfill covers
// history explicitly.
func (i *Ingester) IngestSince(ctx context.Context, today store.Date) error {
	last, ok, err := i.gameRepo.LastDate()
	if err != nil {
		return fmt.Errorf("reading ledger: %w", err)
	}

	start := today
	if ok {
		start = last.AddDays(1)
	}
	if start.After(today.Time) {
		log.Printf("[ingest] ledger is current through %s, nothing to do", last)
		return nil
	}
	return i.IngestRange(ctx, start, today)
}

// IngestRange fetches every game in [start, end] and merges the results.
func (i *Ingester) IngestRange(ctx context.Context, start, end store.Date) error {
	var games []store.GameRecord
	var players []store.PlayerGameLog
	failedDates, failedLinks := 0, 0

	for d := start; !d.After(end.Time); d = d.AddDays(1) {
		links, err := i.collector.BoxLinksForDate(ctx, d)
		if err != nil {
			log.Printf("[ingest] skipping %s: %v", d, err)
			failedDates++
			continue
		}
		log.Printf("[ingest] %s: %d games", d, len(links))

		for _, link := range links {
			game, logs, err := i.collector.FetchGame(ctx, link)
			if err != nil {
				log.Printf("[ingest] skipping %s: %v", link, err)
				failedLinks++
				continue
			}
			games = append(games, game)
			players = append(players, logs...)
		}
	}

	gameTotal, err := i.gameRepo.Merge(games)
	if err != nil {
		return fmt.Errorf("merging games: %w", err)
	}
	playerTotal, err := i.playerRepo.Merge(players)
	if err != nil {
		return fmt.Errorf("merging player logs: %w", err)
	}

	log.Printf("[ingest] done: fetched=%d games=%d player_logs=%d failed_dates=%d failed_links=%d",
		len(games), gameTotal, playerTotal, failedDates, failedLinks)
	return nil
}

// IngestInjuries snapshots the current injury report into the injury ledger.
func (i *Ingester) IngestInjuries(ctx context.Context, repo *repository.InjuryRepository, today store.Date) error {
	rows, err := i.collector.CurrentInjuries(ctx, today)
	if err != nil {
		return fmt.Errorf("fetching injuries: %w", err)
	}
	n, err := repo.Merge(rows)
	if err != nil {
		return fmt.Errorf("merging injuries: %w", err)
	}
	log.Printf("[ingest] injury report: %d players listed", n)
	return nil
}
