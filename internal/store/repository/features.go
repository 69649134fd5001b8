package repository

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/fortuna/courtside/internal/store"
)

// Derived artifact names. Team rows and features are recomputed from
// games_raw.csv on every stats/features run, so both repositories replace
// their dataset wholesale instead of merging.
const (
	TeamRowsFile = "team_rows.csv"
	FeaturesFile = "features.csv"
	InjuriesFile = "injuries.csv"
)

// TeamRowRepository owns the per-team-per-game dataset with rolling snapshots.
type TeamRowRepository struct {
	path string
}

func NewTeamRowRepository(dataDir string) *TeamRowRepository {
	return &TeamRowRepository{path: filepath.Join(dataDir, TeamRowsFile)}
}

func (r *TeamRowRepository) Path() string   { return r.path }
func (r *TeamRowRepository) Require() error { return store.RequireArtifact(r.path) }

func teamRowHeader() []string {
	return []string{
		"game_id", "date", "season_year", "team", "opponent", "location",
		"points", "opp_points", "win", "margin", "inactive",
		"pace", "off_rtg", "def_rtg", "net_rtg", "tov_rate", "orb_pct",
		"games_played", "win_pct", "avg_margin", "home_win_pct", "away_win_pct",
		"win_pct_last_5", "win_pct_last_10", "avg_margin_last_5",
		"streak", "days_since_last_game",
		"h2h_win_pct_last_5", "h2h_avg_margin_last_5",
		"avg_pace", "avg_off_rtg", "avg_def_rtg", "avg_net_rtg",
		"avg_tov_rate", "avg_orb_pct", "injury_impact",
	}
}

func teamRowFields(t store.TeamGameRow) []string {
	s := t.Snapshot
	return []string{
		t.GameID, t.Date.String(), fmt.Sprintf("%d", t.SeasonYear),
		t.Team, t.Opponent, t.Location,
		fmt.Sprintf("%d", t.Points), fmt.Sprintf("%d", t.OppPoints),
		store.FormatBool(t.Win), fmt.Sprintf("%d", t.Margin), t.Inactive,
		store.FormatFloat(t.Pace), store.FormatFloat(t.OffRtg),
		store.FormatFloat(t.DefRtg), store.FormatFloat(t.NetRtg),
		store.FormatFloat(t.TOVRate), store.FormatFloat(t.ORBPct),
		fmt.Sprintf("%d", s.GamesPlayed),
		store.FormatFloat(s.WinPct), store.FormatFloat(s.AvgMargin),
		store.FormatFloat(s.HomeWinPct), store.FormatFloat(s.AwayWinPct),
		store.FormatFloat(s.WinPctLast5), store.FormatFloat(s.WinPctLast10),
		store.FormatFloat(s.AvgMarginLast5),
		fmt.Sprintf("%d", s.Streak), fmt.Sprintf("%d", s.DaysSinceLastGame),
		store.FormatFloat(s.H2HWinPctLast5), store.FormatFloat(s.H2HAvgMarginLast5),
		store.FormatFloat(s.AvgPace), store.FormatFloat(s.AvgOffRtg),
		store.FormatFloat(s.AvgDefRtg), store.FormatFloat(s.AvgNetRtg),
		store.FormatFloat(s.AvgTOVRate), store.FormatFloat(s.AvgORBPct),
		store.FormatFloat(s.InjuryImpact),
	}
}

func scanTeamRow(fields []string) (store.TeamGameRow, error) {
	if len(fields) != len(teamRowHeader()) {
		return store.TeamGameRow{}, fmt.Errorf("expected %d fields, got %d", len(teamRowHeader()), len(fields))
	}
	date, err := store.ParseDate(fields[1])
	if err != nil {
		return store.TeamGameRow{}, err
	}

	ints := make(map[int]int)
	for _, idx := range []int{2, 6, 7, 9, 17, 25, 26} {
		v, err := store.ParseInt(fields[idx])
		if err != nil {
			return store.TeamGameRow{}, err
		}
		ints[idx] = v
	}
	win, err := store.ParseBool(fields[8])
	if err != nil {
		return store.TeamGameRow{}, err
	}
	floats := make(map[int]float64)
	for _, idx := range []int{11, 12, 13, 14, 15, 16, 18, 19, 20, 21, 22, 23, 24, 27, 28, 29, 30, 31, 32, 33, 34, 35} {
		v, err := store.ParseFloat(fields[idx])
		if err != nil {
			return store.TeamGameRow{}, err
		}
		floats[idx] = v
	}

	return store.TeamGameRow{
		GameID:     fields[0],
		Date:       date,
		SeasonYear: ints[2],
		Team:       fields[3],
		Opponent:   fields[4],
		Location:   fields[5],
		Points:     ints[6],
		OppPoints:  ints[7],
		Win:        win,
		Margin:     ints[9],
		Inactive:   fields[10],
		Pace:       floats[11],
		OffRtg:     floats[12],
		DefRtg:     floats[13],
		NetRtg:     floats[14],
		TOVRate:    floats[15],
		ORBPct:     floats[16],
		Snapshot: store.TeamRollingSnapshot{
			GamesPlayed:       ints[17],
			WinPct:            floats[18],
			AvgMargin:         floats[19],
			HomeWinPct:        floats[20],
			AwayWinPct:        floats[21],
			WinPctLast5:       floats[22],
			WinPctLast10:      floats[23],
			AvgMarginLast5:    floats[24],
			Streak:            ints[25],
			DaysSinceLastGame: ints[26],
			H2HWinPctLast5:    floats[27],
			H2HAvgMarginLast5: floats[28],
			AvgPace:           floats[29],
			AvgOffRtg:         floats[30],
			AvgDefRtg:         floats[31],
			AvgNetRtg:         floats[32],
			AvgTOVRate:        floats[33],
			AvgORBPct:         floats[34],
			InjuryImpact:      floats[35],
		},
	}, nil
}

func (r *TeamRowRepository) Load() ([]store.TeamGameRow, error) {
	rows, err := store.ReadRows(r.path)
	if err != nil {
		return nil, err
	}
	out := make([]store.TeamGameRow, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		t, err := scanTeamRow(row)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, t)
	}
	if dropped > 0 {
		log.Printf("[store] dropped %d malformed rows from %s", dropped, TeamRowsFile)
	}
	return out, nil
}

// ReplaceAll persists the full recomputed dataset, sorted by date, game, team.
func (r *TeamRowRepository) ReplaceAll(teamRows []store.TeamGameRow) error {
	sorted := make([]store.TeamGameRow, len(teamRows))
	copy(sorted, teamRows)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date.Time) {
			return sorted[i].Date.Before(sorted[j].Date.Time)
		}
		if sorted[i].GameID != sorted[j].GameID {
			return sorted[i].GameID < sorted[j].GameID
		}
		return sorted[i].Team < sorted[j].Team
	})

	rows := make([][]string, len(sorted))
	for i, t := range sorted {
		rows[i] = teamRowFields(t)
	}
	return store.WriteRows(r.path, teamRowHeader(), rows)
}

// FeatureRepository owns the model-input dataset (one row per game).
type FeatureRepository struct {
	path string
}

func NewFeatureRepository(dataDir string) *FeatureRepository {
	return &FeatureRepository{path: filepath.Join(dataDir, FeaturesFile)}
}

func (r *FeatureRepository) Path() string   { return r.path }
func (r *FeatureRepository) Require() error { return store.RequireArtifact(r.path) }

func featureHeader() []string {
	header := []string{"game_id", "date", "season_year", "home_team", "away_team", "home_win"}
	return append(header, store.FeatureNames...)
}

func featureFields(f store.FeatureVector) []string {
	row := []string{
		f.GameID, f.Date.String(), fmt.Sprintf("%d", f.SeasonYear),
		f.HomeTeam, f.AwayTeam, store.FormatBool(f.HomeWin),
	}
	for _, v := range f.Vector() {
		row = append(row, store.FormatFloat(v))
	}
	return row
}

func scanFeature(fields []string) (store.FeatureVector, error) {
	want := 6 + len(store.FeatureNames)
	if len(fields) != want {
		return store.FeatureVector{}, fmt.Errorf("expected %d fields, got %d", want, len(fields))
	}
	date, err := store.ParseDate(fields[1])
	if err != nil {
		return store.FeatureVector{}, err
	}
	season, err := store.ParseInt(fields[2])
	if err != nil {
		return store.FeatureVector{}, err
	}
	homeWin, err := store.ParseBool(fields[5])
	if err != nil {
		return store.FeatureVector{}, err
	}
	vals := make([]float64, len(store.FeatureNames))
	for i := range vals {
		v, err := store.ParseFloat(fields[6+i])
		if err != nil {
			return store.FeatureVector{}, err
		}
		vals[i] = v
	}
	return store.FeatureVector{
		GameID:             fields[0],
		Date:               date,
		SeasonYear:         season,
		HomeTeam:           fields[3],
		AwayTeam:           fields[4],
		HomeWin:            homeWin,
		DiffDaysRest:       vals[0],
		DiffStreak:         vals[1],
		DiffWinPctLast5:    vals[2],
		DiffAvgMarginLast5: vals[3],
		DiffWinPctLast10:   vals[4],
		DiffHomeWinPct:     vals[5],
		DiffAwayWinPct:     vals[6],
		DiffH2HWinPct:      vals[7],
		DiffH2HMargin:      vals[8],
		DiffInjuryImpact:   vals[9],
		DiffNetRtg:         vals[10],
		DiffTOVRate:        vals[11],
		DiffORBPct:         vals[12],
	}, nil
}

func (r *FeatureRepository) Load() ([]store.FeatureVector, error) {
	rows, err := store.ReadRows(r.path)
	if err != nil {
		return nil, err
	}
	out := make([]store.FeatureVector, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		f, err := scanFeature(row)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, f)
	}
	if dropped > 0 {
		log.Printf("[store] dropped %d malformed rows from %s", dropped, FeaturesFile)
	}
	return out, nil
}

func (r *FeatureRepository) ReplaceAll(features []store.FeatureVector) error {
	sorted := make([]store.FeatureVector, len(features))
	copy(sorted, features)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date.Time) {
			return sorted[i].Date.Before(sorted[j].Date.Time)
		}
		return sorted[i].GameID < sorted[j].GameID
	})

	rows := make([][]string, len(sorted))
	for i, f := range sorted {
		rows[i] = featureFields(f)
	}
	return store.WriteRows(r.path, featureHeader(), rows)
}

// InjuryRepository owns the current-injury snapshots, keyed by
// (player_id, date_fetched).
type InjuryRepository struct {
	path string
}

func NewInjuryRepository(dataDir string) *InjuryRepository {
	return &InjuryRepository{path: filepath.Join(dataDir, InjuriesFile)}
}

func (r *InjuryRepository) Path() string { return r.path }

func injuryHeader() []string {
	return []string{"player_id", "player_name", "team", "note", "date_fetched"}
}

func scanInjury(fields []string) (store.InjuryListRow, error) {
	if len(fields) != 5 {
		return store.InjuryListRow{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}
	if fields[0] == "" {
		return store.InjuryListRow{}, fmt.Errorf("missing player_id")
	}
	date, err := store.ParseDate(fields[4])
	if err != nil {
		return store.InjuryListRow{}, err
	}
	return store.InjuryListRow{
		PlayerID:    fields[0],
		PlayerName:  fields[1],
		Team:        fields[2],
		Note:        fields[3],
		DateFetched: date,
	}, nil
}

func (r *InjuryRepository) Load() ([]store.InjuryListRow, error) {
	rows, err := store.ReadRows(r.path)
	if err != nil {
		return nil, err
	}
	out := make([]store.InjuryListRow, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		inj, err := scanInjury(row)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, inj)
	}
	if dropped > 0 {
		log.Printf("[store] dropped %d malformed rows from %s", dropped, InjuriesFile)
	}
	return out, nil
}

// LoadCurrent returns the rows from the most recent fetch only.
func (r *InjuryRepository) LoadCurrent() ([]store.InjuryListRow, error) {
	all, err := r.Load()
	if err != nil {
		return nil, err
	}
	var latest store.Date
	for _, row := range all {
		if row.DateFetched.After(latest.Time) {
			latest = row.DateFetched
		}
	}
	current := make([]store.InjuryListRow, 0, len(all))
	for _, row := range all {
		if row.DateFetched.Equal(latest.Time) {
			current = append(current, row)
		}
	}
	return current, nil
}

// Merge folds a fresh snapshot into the history, keep-last by
// (player_id, date_fetched).
func (r *InjuryRepository) Merge(fetched []store.InjuryListRow) (int, error) {
	existing, err := r.Load()
	if err != nil {
		return 0, err
	}

	type key struct {
		id   string
		date string
	}
	byKey := make(map[key]store.InjuryListRow, len(existing)+len(fetched))
	for _, row := range existing {
		byKey[key{row.PlayerID, row.DateFetched.String()}] = row
	}
	for _, row := range fetched {
		byKey[key{row.PlayerID, row.DateFetched.String()}] = row
	}

	merged := make([]store.InjuryListRow, 0, len(byKey))
	for _, row := range byKey {
		merged = append(merged, row)
	}
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].DateFetched.Equal(merged[j].DateFetched.Time) {
			return merged[i].DateFetched.Before(merged[j].DateFetched.Time)
		}
		return merged[i].PlayerID < merged[j].PlayerID
	})

	rows := make([][]string, len(merged))
	for i, row := range merged {
		rows[i] = []string{row.PlayerID, row.PlayerName, row.Team, row.Note, row.DateFetched.String()}
	}
	if err := store.WriteRows(r.path, injuryHeader(), rows); err != nil {
		return 0, err
	}
	return len(fetched), nil
}
