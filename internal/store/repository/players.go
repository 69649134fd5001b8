package repository

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/fortuna/courtside/internal/store"
)

// PlayerGamesFile stores one row per player appearance.
const PlayerGamesFile = "player_games.csv"

// PlayerLogRepository owns the PlayerGameLog key space
// (primary key: player_id + date).
type PlayerLogRepository struct {
	path string
}

func NewPlayerLogRepository(dataDir string) *PlayerLogRepository {
	return &PlayerLogRepository{path: filepath.Join(dataDir, PlayerGamesFile)}
}

func (r *PlayerLogRepository) Path() string { return r.path }

func playerHeader() []string {
	return []string{"player_id", "player_name", "season_year", "date", "team", "game_score"}
}

func playerFields(p store.PlayerGameLog) []string {
	return []string{
		p.PlayerID,
		p.PlayerName,
		fmt.Sprintf("%d", p.SeasonYear),
		p.Date.String(),
		p.Team,
		store.FormatFloat(p.GameScore),
	}
}

func scanPlayerLog(fields []string) (store.PlayerGameLog, error) {
	if len(fields) != 6 {
		return store.PlayerGameLog{}, fmt.Errorf("expected 6 fields, got %d", len(fields))
	}
	if fields[0] == "" {
		return store.PlayerGameLog{}, fmt.Errorf("missing player_id")
	}
	season, err := store.ParseInt(fields[2])
	if err != nil {
		return store.PlayerGameLog{}, err
	}
	date, err := store.ParseDate(fields[3])
	if err != nil {
		return store.PlayerGameLog{}, err
	}
	score, err := store.ParseFloat(fields[5])
	if err != nil {
		return store.PlayerGameLog{}, err
	}
	return store.PlayerGameLog{
		PlayerID:   fields[0],
		PlayerName: fields[1],
		SeasonYear: season,
		Date:       date,
		Team:       fields[4],
		GameScore:  score,
	}, nil
}

// Load reads every stored appearance, dropping and counting malformed rows.
func (r *PlayerLogRepository) Load() ([]store.PlayerGameLog, error) {
	rows, err := store.ReadRows(r.path)
	if err != nil {
		return nil, err
	}
	logs := make([]store.PlayerGameLog, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		p, err := scanPlayerLog(row)
		if err != nil {
			dropped++
			continue
		}
		logs = append(logs, p)
	}
	if dropped > 0 {
		log.Printf("[store] dropped %d malformed rows from %s", dropped, PlayerGamesFile)
	}
	return logs, nil
}

func (r *PlayerLogRepository) Require() error { return store.RequireArtifact(r.path) }

// Merge folds fetched appearances into the stored dataset, keep-last by
// (player_id, date), sorted by date then player_id.
func (r *PlayerLogRepository) Merge(fetched []store.PlayerGameLog) (int, error) {
	existing, err := r.Load()
	if err != nil {
		return 0, err
	}

	merged := MergePlayerLogs(existing, fetched)

	rows := make([][]string, len(merged))
	for i, p := range merged {
		rows[i] = playerFields(p)
	}
	if err := store.WriteRows(r.path, playerHeader(), rows); err != nil {
		return 0, err
	}
	return len(merged), nil
}

// MergePlayerLogs applies the deterministic keep-last merge on (player_id, date).
func MergePlayerLogs(existing, fetched []store.PlayerGameLog) []store.PlayerGameLog {
	type key struct {
		id   string
		date string
	}
	byKey := make(map[key]store.PlayerGameLog, len(existing)+len(fetched))
	for _, p := range existing {
		byKey[key{p.PlayerID, p.Date.String()}] = p
	}
	for _, p := range fetched {
		byKey[key{p.PlayerID, p.Date.String()}] = p
	}

	merged := make([]store.PlayerGameLog, 0, len(byKey))
	for _, p := range byKey {
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].Date.Equal(merged[j].Date.Time) {
			return merged[i].Date.Before(merged[j].Date.Time)
		}
		return merged[i].PlayerID < merged[j].PlayerID
	})
	return merged
}
