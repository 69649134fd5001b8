// Package pipeline sequences the daily stages: ingest, stats, features,
// predict, odds, decide, grade. A missing upstream artifact is fatal to the
// remaining stages; everything recoverable is logged and skipped.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/fortuna/courtside/internal/config"
	"github.com/fortuna/courtside/internal/decision"
	"github.com/fortuna/courtside/internal/features"
	"github.com/fortuna/courtside/internal/grading"
	"github.com/fortuna/courtside/internal/ingest/bbref"
	"github.com/fortuna/courtside/internal/ingest/odds"
	"github.com/fortuna/courtside/internal/model"
	"github.com/fortuna/courtside/internal/rolling"
	"github.com/fortuna/courtside/internal/store"
	"github.com/fortuna/courtside/internal/store/repository"
)

// Stage names accepted by Run, in execution order.
const (
	StageAll      = "all"
	StageIngest   = "ingest"
	StageStats    = "stats"
	StageFeatures = "features"
	StagePredict  = "predict"
	StageOdds     = "odds"
	StageDecide   = "decide"
	StageGrade    = "grade"
)

var stageOrder = []string{
	StageIngest, StageStats, StageFeatures, StagePredict, StageOdds, StageDecide, StageGrade,
}

// Runner wires the collectors, repositories, and engines together.
type Runner struct {
	cfg *config.Config

	collector  bbref.Collector
	oddsClient *odds.Client
	classifier model.Classifier
	policy     decision.Policy

	gameRepo    *repository.GameRepository
	playerRepo  *repository.PlayerLogRepository
	teamRowRepo *repository.TeamRowRepository
	featureRepo *repository.FeatureRepository
	injuryRepo  *repository.InjuryRepository
	predRepo    *repository.PredictionRepository
	oddsRepo    *repository.OddsRepository
	decRepo     *repository.DecisionRepository
}

// New builds a production runner from config.
func New(cfg *config.Config) *Runner {
	client := bbref.NewClient(bbref.ClientConfig{
		BaseURL:            cfg.Collector.BaseURL,
		UserAgent:          cfg.Collector.UserAgent,
		PolitenessInterval: cfg.Collector.PolitenessInterval,
		Retries:            cfg.Collector.Retries,
		RetryBackoff:       cfg.Collector.RetryBackoff,
		Timeout:            cfg.Collector.Timeout,
	})
	return NewWithCollector(cfg, bbref.NewCollector(client))
}

// NewWithCollector lets tests substitute the site collector.
func NewWithCollector(cfg *config.Config, collector bbref.Collector) *Runner {
	return &Runner{
		cfg:         cfg,
		collector:   collector,
		oddsClient:  odds.NewClient(cfg.Odds.BaseURL, cfg.Odds.UserAgent),
		classifier:  model.NewLogistic(),
		policy:      policyFromConfig(cfg.Policy),
		gameRepo:    repository.NewGameRepository(cfg.DataDir),
		playerRepo:  repository.NewPlayerLogRepository(cfg.DataDir),
		teamRowRepo: repository.NewTeamRowRepository(cfg.DataDir),
		featureRepo: repository.NewFeatureRepository(cfg.DataDir),
		injuryRepo:  repository.NewInjuryRepository(cfg.DataDir),
		predRepo:    repository.NewPredictionRepository(cfg.DataDir),
		oddsRepo:    repository.NewOddsRepository(cfg.DataDir),
		decRepo:     repository.NewDecisionRepository(cfg.DataDir),
	}
}

func policyFromConfig(p config.PolicyConfig) decision.Policy {
	return decision.Policy{
		LockHigh:         p.LockHigh,
		LockLow:          p.LockLow,
		OverconfidentLow: p.OverconfidentLow,
		StrongLow:        p.StrongLow,
		SniperHigh:       p.SniperHigh,
		NoiseLow:         p.NoiseLow,
		NoiseHigh:        p.NoiseHigh,
		LockEdge:         decimal.NewFromFloat(p.LockEdge),
		HighEVEdge:       decimal.NewFromFloat(p.HighEVEdge),
	}
}

// Run executes one stage, or all of them in order. The first hard failure
// stops the sequence.
func (r *Runner) Run(ctx context.Context, stage string, today store.Date) error {
	stages := []string{stage}
	if stage == StageAll {
		stages = stageOrder
	}

	for _, s := range stages {
		log.Printf("[pipeline] stage %s", s)
		var err error
		switch s {
		case StageIngest:
			err = r.runIngest(ctx, today)
		case StageStats:
			err = r.runStats()
		case StageFeatures:
			err = r.runFeatures()
		case StagePredict:
			err = r.runPredict(ctx, today)
		case StageOdds:
			err = r.runOdds(ctx)
		case StageDecide:
			err = r.runDecide()
		case StageGrade:
			err = r.runGrade(ctx, today)
		default:
			err = fmt.Errorf("unknown stage %q", s)
		}
		if err != nil {
			return fmt.Errorf("stage %s: %w", s, err)
		}
	}
	return nil
}

func (r *Runner) runIngest(ctx context.Context, today store.Date) error {
	ing := bbref.NewIngester(r.collector, r.gameRepo, r.playerRepo)
	if err := ing.IngestSince(ctx, today); err != nil {
		return err
	}
	// A failed injury snapshot degrades live features but not the ledger.
	if err := ing.IngestInjuries(ctx, r.injuryRepo, today); err != nil {
		log.Printf("[pipeline] injury snapshot failed: %v", err)
	}
	return nil
}

func (r *Runner) runStats() error {
	if err := r.gameRepo.Require(); err != nil {
		return err
	}
	games, err := r.gameRepo.Load()
	if err != nil {
		return err
	}
	logs, err := r.playerRepo.Load()
	if err != nil {
		return err
	}

	cums := rolling.ComputeCumulative(logs)
	scores := rolling.SeasonNameAverages(cums)

	opts := rolling.Options{
		DefaultRestDays: r.cfg.DefaultRestDays,
		TeamScale:       r.cfg.Injury.TeamScale,
	}
	rows := rolling.ComputeSnapshots(rolling.BuildTeamRows(games), scores, opts)
	if err := r.teamRowRepo.ReplaceAll(rows); err != nil {
		return err
	}
	log.Printf("[pipeline] stats: %d team rows from %d games", len(rows), len(games))
	return nil
}

func (r *Runner) runFeatures() error {
	if err := r.teamRowRepo.Require(); err != nil {
		return err
	}
	rows, err := r.teamRowRepo.Load()
	if err != nil {
		return err
	}
	vecs := features.Assemble(rows)
	if err := r.featureRepo.ReplaceAll(vecs); err != nil {
		return err
	}
	log.Printf("[pipeline] features: %d vectors", len(vecs))
	return nil
}

func (r *Runner) runPredict(ctx context.Context, today store.Date) error {
	if err := r.featureRepo.Require(); err != nil {
		return err
	}
	history, err := r.featureRepo.Load()
	if err != nil {
		return err
	}
	if err := r.classifier.Train(history); err != nil {
		return fmt.Errorf("training classifier: %w", err)
	}

	matchups, err := r.collector.ScheduleForDate(ctx, today)
	if err != nil {
		return fmt.Errorf("fetching schedule: %w", err)
	}
	if len(matchups) == 0 {
		log.Printf("[pipeline] no games scheduled on %s", today)
		return r.predRepo.SaveForDate(today, nil)
	}

	teamRows, err := r.teamRowRepo.Load()
	if err != nil {
		return err
	}
	logs, err := r.playerRepo.Load()
	if err != nil {
		return err
	}
	injuries, err := r.injuryRepo.LoadCurrent()
	if err != nil {
		return err
	}

	live := features.AssembleLive(today, matchups, features.LiveInputs{
		TeamRows:           teamRows,
		Injuries:           injuries,
		AvgByID:            rolling.CurrentAverages(logs, today.SeasonYear()),
		TeamScale:          r.cfg.Injury.TeamScale,
		DefaultAbsentScore: r.cfg.Injury.DefaultAbsentScore,
	})

	preds := make([]store.PredictionRecord, 0, len(live))
	for _, vec := range live {
		p, err := r.classifier.PredictProbability(vec)
		if err != nil {
			return fmt.Errorf("predicting %s: %w", vec.GameID, err)
		}
		preds = append(preds, store.PredictionRecord{
			Date:        today,
			Home:        vec.HomeTeam,
			Away:        vec.AwayTeam,
			HomeWinProb: p,
			Confidence:  store.ConfidenceBand(p),
		})
	}
	if err := r.predRepo.SaveForDate(today, preds); err != nil {
		return err
	}
	log.Printf("[pipeline] predict: %d predictions for %s", len(preds), today)
	return nil
}

func (r *Runner) runOdds(ctx context.Context) error {
	date, preds, err := r.predRepo.LoadLatest()
	if err != nil {
		return err
	}
	if len(preds) == 0 {
		log.Printf("[pipeline] no predictions on %s, skipping odds", date)
		return nil
	}

	records, err := r.oddsClient.FetchForDate(ctx, date)
	if err != nil {
		// Decisions degrade to NO_ODDS, so a dead odds source is soft.
		log.Printf("[pipeline] odds fetch for %s failed: %v", date, err)
		return nil
	}
	if err := r.oddsRepo.SaveForDate(date, records); err != nil {
		return err
	}
	log.Printf("[pipeline] odds: %d matchups for %s", len(records), date)
	return nil
}

func (r *Runner) runDecide() error {
	date, preds, err := r.predRepo.LoadLatest()
	if err != nil {
		return err
	}
	oddsRecords, err := r.oddsRepo.LoadForDate(date)
	if err != nil {
		return err
	}

	decisions := decision.Run(preds, oddsRecords, r.policy)
	n, err := r.decRepo.UpsertPending(decisions)
	if err != nil {
		return err
	}
	log.Printf("[pipeline] decide: %d signals upserted for %s", n, date)
	return nil
}

func (r *Runner) runGrade(ctx context.Context, today store.Date) error {
	rec := grading.NewReconciler(r.decRepo, r.collector)
	if _, err := rec.Run(ctx, today); err != nil {
		return err
	}
	records, err := r.decRepo.Load()
	if err != nil {
		return err
	}
	grading.BuildReport(records).Log()
	return nil
}
