package repository

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/fortuna/courtside/internal/store"
)

// GamesFile is the raw team-game dataset name under the data directory.
const GamesFile = "games_raw.csv"

var statColumns = []string{
	"pts", "fg", "fga", "fg3", "fg3a", "ft", "fta",
	"orb", "drb", "trb", "ast", "stl", "blk", "tov", "pf",
}

// GameRepository owns the GameRecord key space (primary key: game_id).
// Every mutation is load-all, merge-by-key, persist-all.
type GameRepository struct {
	path string
}

// NewGameRepository creates a repository rooted at the data directory.
func NewGameRepository(dataDir string) *GameRepository {
	return &GameRepository{path: filepath.Join(dataDir, GamesFile)}
}

// Path returns the backing artifact path.
func (r *GameRepository) Path() string { return r.path }

func gamesHeader() []string {
	header := []string{"game_id", "date", "home_team", "away_team", "home_inactive", "away_inactive"}
	for _, side := range []string{"home", "away"} {
		for _, c := range statColumns {
			header = append(header, side+"_"+c)
		}
	}
	return header
}

func boxFields(b store.BoxTotals) []string {
	vals := []int{
		b.Points, b.FieldGoals, b.FieldGoalAttempts, b.ThreePointers, b.ThreePointAttempts,
		b.FreeThrows, b.FreeThrowAttempts, b.OffensiveRebounds, b.DefensiveRebounds,
		b.TotalRebounds, b.Assists, b.Steals, b.Blocks, b.Turnovers, b.PersonalFouls,
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%d", v)
	}
	return out
}

func scanBox(fields []string) (store.BoxTotals, error) {
	if len(fields) != len(statColumns) {
		return store.BoxTotals{}, fmt.Errorf("expected %d stat fields, got %d", len(statColumns), len(fields))
	}
	vals := make([]int, len(fields))
	for i, f := range fields {
		v, err := store.ParseInt(f)
		if err != nil {
			return store.BoxTotals{}, err
		}
		vals[i] = v
	}
	return store.BoxTotals{
		Points: vals[0], FieldGoals: vals[1], FieldGoalAttempts: vals[2],
		ThreePointers: vals[3], ThreePointAttempts: vals[4],
		FreeThrows: vals[5], FreeThrowAttempts: vals[6],
		OffensiveRebounds: vals[7], DefensiveRebounds: vals[8], TotalRebounds: vals[9],
		Assists: vals[10], Steals: vals[11], Blocks: vals[12],
		Turnovers: vals[13], PersonalFouls: vals[14],
	}, nil
}

func gameFields(g store.GameRecord) []string {
	row := []string{g.GameID, g.Date.String(), g.HomeTeam, g.AwayTeam, g.HomeInactive, g.AwayInactive}
	row = append(row, boxFields(g.Home)...)
	row = append(row, boxFields(g.Away)...)
	return row
}

func scanGame(fields []string) (store.GameRecord, error) {
	want := 6 + 2*len(statColumns)
	if len(fields) != want {
		return store.GameRecord{}, fmt.Errorf("expected %d fields, got %d", want, len(fields))
	}
	if fields[0] == "" {
		return store.GameRecord{}, fmt.Errorf("missing game_id")
	}
	date, err := store.ParseDate(fields[1])
	if err != nil {
		return store.GameRecord{}, err
	}
	home, err := scanBox(fields[6 : 6+len(statColumns)])
	if err != nil {
		return store.GameRecord{}, err
	}
	away, err := scanBox(fields[6+len(statColumns):])
	if err != nil {
		return store.GameRecord{}, err
	}
	return store.GameRecord{
		GameID:       fields[0],
		Date:         date,
		HomeTeam:     fields[2],
		AwayTeam:     fields[3],
		HomeInactive: fields[4],
		AwayInactive: fields[5],
		Home:         home,
		Away:         away,
	}, nil
}

// Load reads every stored GameRecord. Malformed rows are dropped and counted,
// never fatal.
func (r *GameRepository) Load() ([]store.GameRecord, error) {
	rows, err := store.ReadRows(r.path)
	if err != nil {
		return nil, err
	}

	games := make([]store.GameRecord, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		g, err := scanGame(row)
		if err != nil {
			dropped++
			continue
		}
		games = append(games, g)
	}
	if dropped > 0 {
		log.Printf("[store] dropped %d malformed rows from %s", dropped, GamesFile)
	}
	return games, nil
}

// Require reports ErrMissingArtifact when the dataset has never been written.
func (r *GameRepository) Require() error { return store.RequireArtifact(r.path) }

// LastDate returns the maximum stored game date, or false when the dataset
// is empty.
func (r *GameRepository) LastDate() (store.Date, bool, error) {
	games, err := r.Load()
	if err != nil {
		return store.Date{}, false, err
	}
	var max store.Date
	for _, g := range games {
		if g.Date.After(max.Time) {
			max = g.Date
		}
	}
	return max, !max.IsZero(), nil
}

// Merge folds newly fetched records into the stored dataset and persists the
// result. Dedup is keep-last by game_id over date-sorted input, so the most
// recent refetch wins and re-runs are byte-for-byte idempotent.
func (r *GameRepository) Merge(fetched []store.GameRecord) (int, error) {
	existing, err := r.Load()
	if err != nil {
		return 0, err
	}

	merged := MergeGames(existing, fetched)

	rows := make([][]string, len(merged))
	for i, g := range merged {
		rows[i] = gameFields(g)
	}
	if err := store.WriteRows(r.path, gamesHeader(), rows); err != nil {
		return 0, err
	}
	return len(merged), nil
}

// MergeGames applies the deterministic keep-last-by-key merge rule.
func MergeGames(existing, fetched []store.GameRecord) []store.GameRecord {
	byID := make(map[string]store.GameRecord, len(existing)+len(fetched))
	for _, g := range existing {
		byID[g.GameID] = g
	}
	for _, g := range fetched {
		byID[g.GameID] = g
	}

	merged := make([]store.GameRecord, 0, len(byID))
	for _, g := range byID {
		merged = append(merged, g)
	}
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].Date.Equal(merged[j].Date.Time) {
			return merged[i].Date.Before(merged[j].Date.Time)
		}
		return merged[i].GameID < merged[j].GameID
	})
	return merged
}
