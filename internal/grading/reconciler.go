// Package grading settles pending decisions against final scores and keeps
// the running performance report.
package grading

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/fortuna/courtside/internal/store"
)

// ScoreSource resolves final scores for a slate date, keyed by Matchup.Key.
type ScoreSource interface {
	FinalScores(ctx context.Context, date store.Date) (map[string]store.FinalScore, error)
}

// DecisionLedger is the slice of the decision repository the reconciler needs.
type DecisionLedger interface {
	Load() ([]store.DecisionRecord, error)
	SaveAll([]store.DecisionRecord) error
}

// Metrics counts what one reconciliation pass did.
type Metrics struct {
	Scanned   int
	Graded    int
	NoScore   int
	FetchErrs int
}

// Reconciler drives PENDING decisions to their terminal GRADED state.
type Reconciler struct {
	ledger DecisionLedger
	scores ScoreSource
}

func NewReconciler(ledger DecisionLedger, scores ScoreSource) *Reconciler {
	return &Reconciler{ledger: ledger, scores: scores}
}

// Run grades every pending decision whose date is strictly before today.
// Dates whose scores cannot be fetched are skipped and retried next run; a
// GRADED record is never touched again.
func (r *Reconciler) Run(ctx context.Context, today store.Date) (Metrics, error) {
	records, err := r.ledger.Load()
	if err != nil {
		return Metrics{}, fmt.Errorf("loading decisions: %w", err)
	}

	var m Metrics
	scoresByDate := make(map[string]map[string]store.FinalScore)
	failedDates := make(map[string]bool)

	for i := range records {
		rec := &records[i]
		if rec.Status != store.StatusPending || !rec.Date.Before(today.Time) {
			continue
		}
		m.Scanned++

		key := rec.Date.String()
		if failedDates[key] {
			continue
		}
		scores, ok := scoresByDate[key]
		if !ok {
			scores, err = r.scores.FinalScores(ctx, rec.Date)
			if err != nil {
				log.Printf("[grading] fetching scores for %s: %v", rec.Date, err)
				failedDates[key] = true
				m.FetchErrs++
				continue
			}
			scoresByDate[key] = scores
		}

		final, ok := scores[store.Matchup{Home: rec.Home, Away: rec.Away}.Key()]
		if !ok {
			m.NoScore++
			continue
		}
		Grade(rec, final)
		m.Graded++
	}

	if m.Graded > 0 {
		if err := r.ledger.SaveAll(records); err != nil {
			return m, fmt.Errorf("saving graded decisions: %w", err)
		}
	}
	log.Printf("[grading] scanned=%d graded=%d no_score=%d fetch_errs=%d",
		m.Scanned, m.Graded, m.NoScore, m.FetchErrs)
	return m, nil
}

// Grade settles one decision in place. The outcome depends only on the
// structured side, never on display text, and grading is terminal.
func Grade(rec *store.DecisionRecord, final store.FinalScore) {
	if rec.Status == store.StatusGraded {
		return
	}
	rec.HomeScore = final.Home
	rec.AwayScore = final.Away
	if final.Home > final.Away {
		rec.Winner = rec.Home
	} else {
		rec.Winner = rec.Away
	}

	switch rec.Side {
	case store.SideHome:
		if final.Home > final.Away {
			rec.Outcome = store.OutcomeWin
		} else {
			rec.Outcome = store.OutcomeLoss
		}
	case store.SideAway:
		if final.Away > final.Home {
			rec.Outcome = store.OutcomeWin
		} else {
			rec.Outcome = store.OutcomeLoss
		}
	default:
		// SideNone, and any side value that does not read as HOME or AWAY,
		// settles as no bet. A graded record always carries an outcome.
		rec.Outcome = store.OutcomeNoBet
	}
	rec.Status = store.StatusGraded
}

// Report summarizes every graded bet in the ledger.
type Report struct {
	Graded   int
	Bets     int
	Wins     int
	Losses   int
	WinRate  float64
	NetUnits decimal.Decimal
	ROI      decimal.Decimal
}

// BuildReport folds the ledger into win rate, net units at one unit per bet,
// and return on investment. NO_BET records count toward Graded only.
func BuildReport(records []store.DecisionRecord) Report {
	var rep Report
	one := decimal.NewFromInt(1)

	for _, rec := range records {
		if rec.Status != store.StatusGraded {
			continue
		}
		rep.Graded++

		switch rec.Outcome {
		case store.OutcomeWin:
			rep.Wins++
			odds := rec.OddsHome
			if rec.Side == store.SideAway {
				odds = rec.OddsAway
			}
			if odds.Valid {
				rep.NetUnits = rep.NetUnits.Add(odds.Decimal.Sub(one))
			}
		case store.OutcomeLoss:
			rep.Losses++
			rep.NetUnits = rep.NetUnits.Sub(one)
		}
	}

	rep.Bets = rep.Wins + rep.Losses
	if rep.Bets > 0 {
		rep.WinRate = float64(rep.Wins) / float64(rep.Bets)
		rep.ROI = rep.NetUnits.Div(decimal.NewFromInt(int64(rep.Bets)))
	}
	return rep
}

// Log prints the report in the ledger's banner style.
func (rep Report) Log() {
	log.Printf("[grading] report: graded=%d bets=%d W-L=%d-%d win_rate=%.3f net_units=%s roi=%s",
		rep.Graded, rep.Bets, rep.Wins, rep.Losses, rep.WinRate,
		rep.NetUnits.StringFixed(2), rep.ROI.StringFixed(3))
}
