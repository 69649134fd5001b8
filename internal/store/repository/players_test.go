package repository

import (
	"testing"

	"github.com/fortuna/courtside/internal/store"
)

func sampleLog(t *testing.T, id, date string, score float64) store.PlayerGameLog {
	t.Helper()
	d := mustDate(t, date)
	return store.PlayerGameLog{
		PlayerID:   id,
		PlayerName: "Player " + id,
		SeasonYear: d.SeasonYear(),
		Date:       d,
		Team:       "NYK",
		GameScore:  score,
	}
}

func TestPlayerLogRepositoryRoundTrip(t *testing.T) {
	repo := NewPlayerLogRepository(t.TempDir())

	logs := []store.PlayerGameLog{
		sampleLog(t, "doej01", "2026-01-10", 18.4),
		sampleLog(t, "poej01", "2026-01-09", 7.1),
	}
	if _, err := repo.Merge(logs); err != nil {
		t.Fatalf("merge: %v", err)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d logs, want 2", len(loaded))
	}
	// Sorted by date then player_id.
	if loaded[0].PlayerID != "poej01" || loaded[1].PlayerID != "doej01" {
		t.Errorf("order: %+v", loaded)
	}
	if loaded[1].GameScore != 18.4 || loaded[1].SeasonYear != 2026 {
		t.Errorf("fields: %+v", loaded[1])
	}
}

func TestPlayerLogRepositoryRefetchWins(t *testing.T) {
	repo := NewPlayerLogRepository(t.TempDir())

	stale := sampleLog(t, "doej01", "2026-01-10", 3.0)
	if _, err := repo.Merge([]store.PlayerGameLog{stale}); err != nil {
		t.Fatal(err)
	}

	// A refetch of the same appearance carries a corrected score.
	fresh := stale
	fresh.GameScore = 21.5
	n, err := repo.Merge([]store.PlayerGameLog{fresh})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("got %d rows after merge, want 1", n)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Fatalf("duplicate (player_id, date) rows survived: %+v", loaded)
	}
	if loaded[0].GameScore != 21.5 {
		t.Errorf("got score %v, want the refetched 21.5", loaded[0].GameScore)
	}
}

func TestMergePlayerLogsKeySpace(t *testing.T) {
	// Same player on different dates, and different players on one date,
	// are all distinct keys.
	logs := []store.PlayerGameLog{
		sampleLog(t, "doej01", "2026-01-10", 10),
		sampleLog(t, "doej01", "2026-01-12", 12),
		sampleLog(t, "poej01", "2026-01-10", 8),
	}
	merged := MergePlayerLogs(nil, logs)
	if len(merged) != 3 {
		t.Fatalf("got %d rows, want 3", len(merged))
	}
}
