package repository

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fortuna/courtside/internal/store"
)

func mustDate(t *testing.T, s string) store.Date {
	t.Helper()
	d, err := store.ParseDate(s)
	if err != nil {
		t.Fatalf("parsing date %s: %v", s, err)
	}
	return d
}

func sampleGame(t *testing.T, id, date string, homePts, awayPts int) store.GameRecord {
	t.Helper()
	g := store.GameRecord{
		GameID:   id,
		Date:     mustDate(t, date),
		HomeTeam: "NYK",
		AwayTeam: "BOS",
	}
	g.Home.Points = homePts
	g.Away.Points = awayPts
	return g
}

func TestGameRepositoryRoundTrip(t *testing.T) {
	repo := NewGameRepository(t.TempDir())

	games := []store.GameRecord{
		sampleGame(t, "20260110_BOS_at_NYK", "2026-01-10", 110, 100),
		sampleGame(t, "20260112_BOS_at_NYK", "2026-01-12", 95, 99),
	}
	if _, err := repo.Merge(games); err != nil {
		t.Fatalf("merge: %v", err)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d games, want 2", len(loaded))
	}
	if loaded[0].GameID != "20260110_BOS_at_NYK" || loaded[0].Home.Points != 110 {
		t.Errorf("first game: %+v", loaded[0])
	}
	if !loaded[0].HomeWin() || loaded[1].HomeWin() {
		t.Errorf("win derivation wrong")
	}
}

func TestGameRepositoryMergeIsIdempotent(t *testing.T) {
	repo := NewGameRepository(t.TempDir())
	games := []store.GameRecord{
		sampleGame(t, "g1", "2026-01-10", 110, 100),
		sampleGame(t, "g2", "2026-01-12", 95, 99),
	}

	n1, err := repo.Merge(games)
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}
	n2, err := repo.Merge(games)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if n1 != 2 || n2 != 2 {
		t.Errorf("totals: %d then %d, want 2 both times", n1, n2)
	}

	first, err := os.ReadFile(repo.Path())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Merge(games); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(repo.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("re-merging identical input must be byte-for-byte idempotent")
	}
}

func TestGameRepositoryRefetchWins(t *testing.T) {
	repo := NewGameRepository(t.TempDir())

	if _, err := repo.Merge([]store.GameRecord{sampleGame(t, "g1", "2026-01-10", 110, 100)}); err != nil {
		t.Fatal(err)
	}
	// Same game id, corrected totals.
	if _, err := repo.Merge([]store.GameRecord{sampleGame(t, "g1", "2026-01-10", 112, 100)}); err != nil {
		t.Fatal(err)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d games, want 1", len(loaded))
	}
	if loaded[0].Home.Points != 112 {
		t.Errorf("refetch must overwrite: got %d points", loaded[0].Home.Points)
	}
}

func TestGameRepositoryLastDate(t *testing.T) {
	repo := NewGameRepository(t.TempDir())

	if _, ok, err := repo.LastDate(); err != nil || ok {
		t.Fatalf("empty ledger: ok=%v err=%v", ok, err)
	}

	if _, err := repo.Merge([]store.GameRecord{
		sampleGame(t, "g1", "2026-01-10", 1, 0),
		sampleGame(t, "g2", "2026-01-14", 1, 0),
		sampleGame(t, "g3", "2026-01-12", 1, 0),
	}); err != nil {
		t.Fatal(err)
	}

	last, ok, err := repo.LastDate()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if last.String() != "2026-01-14" {
		t.Errorf("got %s, want 2026-01-14", last)
	}
}

func TestGameRepositoryDropsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	repo := NewGameRepository(dir)
	if _, err := repo.Merge([]store.GameRecord{sampleGame(t, "g1", "2026-01-10", 110, 100)}); err != nil {
		t.Fatal(err)
	}

	// Append a short row and a row with a bad date.
	f, err := os.OpenFile(filepath.Join(dir, GamesFile), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("garbage,row\nbad_id,not-a-date,NYK,BOS,,,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	loaded, err := repo.Load()
	if err != nil {
		t.Fatalf("malformed rows must not be fatal: %v", err)
	}
	if len(loaded) != 1 || loaded[0].GameID != "g1" {
		t.Errorf("got %d rows, want the 1 valid game", len(loaded))
	}
}

func TestGameRepositoryRequire(t *testing.T) {
	repo := NewGameRepository(t.TempDir())
	if err := repo.Require(); !errors.Is(err, store.ErrMissingArtifact) {
		t.Errorf("got %v, want ErrMissingArtifact", err)
	}

	if _, err := repo.Merge(nil); err != nil {
		t.Fatal(err)
	}
	if err := repo.Require(); err != nil {
		t.Errorf("artifact exists, got %v", err)
	}
}
