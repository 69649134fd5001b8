package repository

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fortuna/courtside/internal/store"
)

func nd(t *testing.T, s string) decimal.NullDecimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parsing decimal %s: %v", s, err)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func pendingDecision(t *testing.T, date, home string) store.DecisionRecord {
	t.Helper()
	return store.DecisionRecord{
		Date:        mustDate(t, date),
		Home:        home,
		Away:        "BOS",
		HomeWinProb: 0.75,
		Confidence:  store.ConfidenceHighHome,
		OddsHome:    nd(t, "1.6"),
		EVHome:      nd(t, "0.2"),
		Side:        store.SideHome,
		Reason:      store.ReasonStrongHome,
		Status:      store.StatusPending,
	}
}

func TestDecisionRepositoryRoundTrip(t *testing.T) {
	repo := NewDecisionRepository(t.TempDir())

	if _, err := repo.UpsertPending([]store.DecisionRecord{pendingDecision(t, "2026-01-10", "NYK")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d records, want 1", len(loaded))
	}
	got := loaded[0]
	if got.Side != store.SideHome || got.Reason != store.ReasonStrongHome {
		t.Errorf("signal: %+v", got)
	}
	if !got.OddsHome.Valid || !got.OddsHome.Decimal.Equal(decimal.NewFromFloat(1.6)) {
		t.Errorf("odds: %+v", got.OddsHome)
	}
	if got.OddsAway.Valid {
		t.Errorf("missing odds must round-trip as null, got %+v", got.OddsAway)
	}
	if got.Status != store.StatusPending {
		t.Errorf("status: %s", got.Status)
	}
}

func TestUpsertPendingNeverRegradesGraded(t *testing.T) {
	repo := NewDecisionRepository(t.TempDir())

	rec := pendingDecision(t, "2026-01-10", "NYK")
	if _, err := repo.UpsertPending([]store.DecisionRecord{rec}); err != nil {
		t.Fatal(err)
	}

	records, err := repo.Load()
	if err != nil {
		t.Fatal(err)
	}
	records[0].Status = store.StatusGraded
	records[0].Outcome = store.OutcomeWin
	records[0].HomeScore, records[0].AwayScore = 110, 100
	records[0].Winner = "NYK"
	if err := repo.SaveAll(records); err != nil {
		t.Fatal(err)
	}

	// Re-running the decide stage must not resurrect the settled bet.
	fresh := pendingDecision(t, "2026-01-10", "NYK")
	fresh.HomeWinProb = 0.55
	n, err := repo.UpsertPending([]store.DecisionRecord{fresh})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("upserted %d, want 0", n)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d records, want 1", len(loaded))
	}
	if loaded[0].Status != store.StatusGraded || loaded[0].Outcome != store.OutcomeWin {
		t.Errorf("graded record was regressed: %+v", loaded[0])
	}
	if loaded[0].HomeWinProb != 0.75 {
		t.Errorf("graded fields overwritten: prob %v", loaded[0].HomeWinProb)
	}
}

func TestUpsertPendingOverwritesPending(t *testing.T) {
	repo := NewDecisionRepository(t.TempDir())

	if _, err := repo.UpsertPending([]store.DecisionRecord{pendingDecision(t, "2026-01-10", "NYK")}); err != nil {
		t.Fatal(err)
	}
	fresh := pendingDecision(t, "2026-01-10", "NYK")
	fresh.HomeWinProb = 0.62
	fresh.Side = store.SideNone
	fresh.Reason = store.ReasonWatch
	if _, err := repo.UpsertPending([]store.DecisionRecord{fresh}); err != nil {
		t.Fatal(err)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 || loaded[0].HomeWinProb != 0.62 || loaded[0].Reason != store.ReasonWatch {
		t.Errorf("pending record must take the fresh signal: %+v", loaded)
	}
}

func TestPredictionRepositoryLoadLatest(t *testing.T) {
	repo := NewPredictionRepository(t.TempDir())

	if _, _, err := repo.LoadLatest(); !errors.Is(err, store.ErrMissingArtifact) {
		t.Fatalf("empty dir: got %v, want ErrMissingArtifact", err)
	}

	d1 := mustDate(t, "2026-01-10")
	d2 := mustDate(t, "2026-01-11")
	if err := repo.SaveForDate(d1, []store.PredictionRecord{
		{Date: d1, Home: "NYK", Away: "BOS", HomeWinProb: 0.7, Confidence: store.ConfidenceHighHome},
	}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveForDate(d2, []store.PredictionRecord{
		{Date: d2, Home: "LAL", Away: "DEN", HomeWinProb: 0.4, Confidence: store.ConfidenceTossUp},
	}); err != nil {
		t.Fatal(err)
	}

	latest, preds, err := repo.LoadLatest()
	if err != nil {
		t.Fatal(err)
	}
	if latest.String() != "2026-01-11" {
		t.Errorf("latest: got %s", latest)
	}
	if len(preds) != 1 || preds[0].Home != "LAL" {
		t.Errorf("preds: %+v", preds)
	}
}

func TestOddsRepositoryMissingExportIsEmptySlate(t *testing.T) {
	repo := NewOddsRepository(t.TempDir())
	odds, err := repo.LoadForDate(mustDate(t, "2026-01-10"))
	if err != nil {
		t.Fatalf("missing export must not error: %v", err)
	}
	if len(odds) != 0 {
		t.Errorf("got %d rows, want 0", len(odds))
	}
}
