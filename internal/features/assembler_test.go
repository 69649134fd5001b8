package features

import (
	"math"
	"strings"
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

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func teamRow(t *testing.T, gameID, date, team, location string, win bool) store.TeamGameRow {
	t.Helper()
	return store.TeamGameRow{
		GameID:     gameID,
		Date:       mustDate(t, date),
		SeasonYear: mustDate(t, date).SeasonYear(),
		Team:       team,
		Location:   location,
		Win:        win,
	}
}

func TestAssembleDiffsAreHomeMinusAway(t *testing.T) {
	home := teamRow(t, "g1", "2026-01-10", "NYK", "Home", true)
	home.Snapshot = store.TeamRollingSnapshot{
		DaysSinceLastGame: 3, Streak: 2, WinPctLast5: 0.8, WinPctLast10: 0.7,
		AvgMarginLast5: 4, HomeWinPct: 0.9, AwayWinPct: 0.5,
		H2HWinPctLast5: 0.6, H2HAvgMarginLast5: 2, InjuryImpact: 0.25,
		AvgNetRtg: 5, AvgTOVRate: 13, AvgORBPct: 0.3,
	}
	away := teamRow(t, "g1", "2026-01-10", "BOS", "Away", false)
	away.Snapshot = store.TeamRollingSnapshot{
		DaysSinceLastGame: 1, Streak: -1, WinPctLast5: 0.4, WinPctLast10: 0.5,
		AvgMarginLast5: -2, HomeWinPct: 0.6, AwayWinPct: 0.4,
		H2HWinPctLast5: 0.4, H2HAvgMarginLast5: -2, InjuryImpact: 0.10,
		AvgNetRtg: -1, AvgTOVRate: 15, AvgORBPct: 0.26,
	}

	vecs := Assemble([]store.TeamGameRow{home, away})
	if len(vecs) != 1 {
		t.Fatalf("got %d vectors, want 1", len(vecs))
	}
	v := vecs[0]

	if v.HomeTeam != "NYK" || v.AwayTeam != "BOS" || !v.HomeWin {
		t.Errorf("identity fields: %+v", v)
	}
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"days rest", v.DiffDaysRest, 2},
		{"streak", v.DiffStreak, 3},
		{"win pct last 5", v.DiffWinPctLast5, 0.4},
		{"avg margin last 5", v.DiffAvgMarginLast5, 6},
		{"win pct last 10", v.DiffWinPctLast10, 0.2},
		{"home win pct", v.DiffHomeWinPct, 0.3},
		{"away win pct", v.DiffAwayWinPct, 0.1},
		{"h2h win pct", v.DiffH2HWinPct, 0.2},
		{"h2h margin", v.DiffH2HMargin, 4},
		{"injury impact", v.DiffInjuryImpact, 0.15},
		{"net rtg", v.DiffNetRtg, 6},
		{"tov rate", v.DiffTOVRate, -2},
		{"orb pct", v.DiffORBPct, 0.04},
	}
	for _, c := range checks {
		if !almostEqual(c.got, c.want) {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}

	if len(v.Vector()) != len(store.FeatureNames) {
		t.Errorf("vector length %d, names %d", len(v.Vector()), len(store.FeatureNames))
	}
}

func TestAssembleDropsUnmatchedRows(t *testing.T) {
	rows := []store.TeamGameRow{
		teamRow(t, "g1", "2026-01-10", "NYK", "Home", true),
		teamRow(t, "g1", "2026-01-10", "BOS", "Away", false),
		// Orphan home row without its away counterpart.
		teamRow(t, "g2", "2026-01-11", "LAL", "Home", true),
	}
	vecs := Assemble(rows)
	if len(vecs) != 1 || vecs[0].GameID != "g1" {
		t.Errorf("got %+v, want only g1", vecs)
	}
}

func TestAssembleLive(t *testing.T) {
	date := mustDate(t, "2026-01-15")

	nyk := teamRow(t, "g1", "2026-01-12", "NYK", "Home", true)
	nyk.Margin = 8
	nyk.Snapshot = store.TeamRollingSnapshot{GamesPlayed: 4, WinPct: 0.5, Streak: 1}
	// An older row that must lose to the newer one.
	nykOld := teamRow(t, "g0", "2026-01-02", "NYK", "Home", false)

	bos := teamRow(t, "g2", "2026-01-13", "BOS", "Away", false)
	bos.Margin = -5
	bos.Snapshot = store.TeamRollingSnapshot{GamesPlayed: 4, WinPct: 0.75, Streak: -2}

	in := LiveInputs{
		TeamRows:           []store.TeamGameRow{nykOld, nyk, bos},
		Injuries:           []store.InjuryListRow{{PlayerID: "star01", Team: "BOS"}},
		AvgByID:            map[string]float64{"star01": 16},
		TeamScale:          80.0,
		DefaultAbsentScore: 5.0,
	}
	vecs := AssembleLive(date, []store.Matchup{
		{Home: "NYK", Away: "BOS"},
		{Home: "MIA", Away: "CHI"}, // no history, dropped
	}, in)

	if len(vecs) != 1 {
		t.Fatalf("got %d vectors, want 1", len(vecs))
	}
	v := vecs[0]

	if !strings.Contains(v.GameID, "BOS_at_NYK") {
		t.Errorf("game id: %s", v.GameID)
	}
	// NYK won its last game (streak 1 -> 2), BOS lost (streak -2 -> -3).
	if !almostEqual(v.DiffStreak, 2-(-3)) {
		t.Errorf("streak diff: got %v, want 5", v.DiffStreak)
	}
	// Rest: NYK played Jan 12 (3 days), BOS Jan 13 (2 days).
	if !almostEqual(v.DiffDaysRest, 1) {
		t.Errorf("rest diff: got %v, want 1", v.DiffDaysRest)
	}
	// Injury impact: NYK healthy, BOS missing star01 at 16/80.
	if !almostEqual(v.DiffInjuryImpact, 0-16.0/80.0) {
		t.Errorf("injury diff: got %v, want %v", v.DiffInjuryImpact, -0.2)
	}
}
