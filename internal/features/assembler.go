// Package features joins per-team rolling rows into model-ready vectors,
// one per game from the home side's perspective.
package features

import (
	"log"
	"sort"

	"github.com/fortuna/courtside/internal/rolling"
	"github.com/fortuna/courtside/internal/store"
)

// Assemble pairs the two perspectives of each game by game id and reduces
// every snapshot attribute to a signed home-minus-away difference. Rows
// without a matching counterpart are dropped and counted.
func Assemble(teamRows []store.TeamGameRow) []store.FeatureVector {
	homes := make(map[string]store.TeamGameRow, len(teamRows)/2)
	aways := make(map[string]store.TeamGameRow, len(teamRows)/2)
	for _, r := range teamRows {
		if r.Location == "Home" {
			homes[r.GameID] = r
		} else {
			aways[r.GameID] = r
		}
	}

	out := make([]store.FeatureVector, 0, len(homes))
	unmatched := 0
	for id, home := range homes {
		away, ok := aways[id]
		if !ok {
			unmatched++
			continue
		}
		out = append(out, diff(home, away))
	}
	unmatched += len(aways) - len(out)
	if unmatched > 0 {
		log.Printf("[features] dropped %d team rows without a matching counterpart", unmatched)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].GameID < out[j].GameID
	})
	return out
}

func diff(home, away store.TeamGameRow) store.FeatureVector {
	hs, as := home.Snapshot, away.Snapshot
	return store.FeatureVector{
		GameID:     home.GameID,
		Date:       home.Date,
		SeasonYear: home.SeasonYear,
		HomeTeam:   home.Team,
		AwayTeam:   away.Team,
		HomeWin:    home.Win,

		DiffDaysRest:       float64(hs.DaysSinceLastGame - as.DaysSinceLastGame),
		DiffStreak:         float64(hs.Streak - as.Streak),
		DiffWinPctLast5:    hs.WinPctLast5 - as.WinPctLast5,
		DiffAvgMarginLast5: hs.AvgMarginLast5 - as.AvgMarginLast5,
		DiffWinPctLast10:   hs.WinPctLast10 - as.WinPctLast10,
		DiffHomeWinPct:     hs.HomeWinPct - as.HomeWinPct,
		DiffAwayWinPct:     hs.AwayWinPct - as.AwayWinPct,
		DiffH2HWinPct:      hs.H2HWinPctLast5 - as.H2HWinPctLast5,
		DiffH2HMargin:      hs.H2HAvgMarginLast5 - as.H2HAvgMarginLast5,
		DiffInjuryImpact:   hs.InjuryImpact - as.InjuryImpact,
		DiffNetRtg:         hs.AvgNetRtg - as.AvgNetRtg,
		DiffTOVRate:        hs.AvgTOVRate - as.AvgTOVRate,
		DiffORBPct:         hs.AvgORBPct - as.AvgORBPct,
	}
}

// LiveInputs bundles everything live assembly needs beyond the matchups.
type LiveInputs struct {
	TeamRows  []store.TeamGameRow
	Injuries  []store.InjuryListRow
	AvgByID   map[string]float64
	TeamScale float64

	// Score assumed for a listed player with no recorded history.
	DefaultAbsentScore float64
}

// AssembleLive builds a vector for a game that has not been played: each
// side's state is its most recent played row's snapshot advanced one step
// (streak extended by that game's result, rest measured to the target date)
// with injury impact taken from the current report instead of the box score.
// Matchups where either side has no played games this season are dropped.
func AssembleLive(date store.Date, matchups []store.Matchup, in LiveInputs) []store.FeatureVector {
	latest := latestRowByTeam(in.TeamRows, date)

	out := make([]store.FeatureVector, 0, len(matchups))
	for _, m := range matchups {
		homeRow, okH := latest[m.Home]
		awayRow, okA := latest[m.Away]
		if !okH || !okA {
			log.Printf("[features] skipping %s at %s on %s: missing team history", m.Away, m.Home, date)
			continue
		}

		hs := advance(homeRow, date)
		as := advance(awayRow, date)
		hs.InjuryImpact = rolling.LiveInjuryImpact(m.Home, in.Injuries, in.AvgByID, in.DefaultAbsentScore, in.TeamScale)
		as.InjuryImpact = rolling.LiveInjuryImpact(m.Away, in.Injuries, in.AvgByID, in.DefaultAbsentScore, in.TeamScale)

		out = append(out, diff(
			store.TeamGameRow{
				GameID:     date.String() + "_" + m.Away + "_at_" + m.Home,
				Date:       date,
				SeasonYear: date.SeasonYear(),
				Team:       m.Home,
				Location:   "Home",
				Snapshot:   hs,
			},
			store.TeamGameRow{
				Date:     date,
				Team:     m.Away,
				Location: "Away",
				Snapshot: as,
			},
		))
	}
	return out
}

// latestRowByTeam picks each team's most recent played row strictly before
// the target date, current season only.
func latestRowByTeam(rows []store.TeamGameRow, date store.Date) map[string]store.TeamGameRow {
	season := date.SeasonYear()
	latest := make(map[string]store.TeamGameRow)
	for _, r := range rows {
		if r.SeasonYear != season || !r.Date.Before(date.Time) {
			continue
		}
		if prev, ok := latest[r.Team]; !ok || r.Date.After(prev.Date.Time) {
			latest[r.Team] = r
		}
	}
	return latest
}

// advance rolls a played row's before-game snapshot forward through that
// game's own result, producing the state entering the next game.
func advance(last store.TeamGameRow, target store.Date) store.TeamRollingSnapshot {
	s := last.Snapshot
	n := float64(s.GamesPlayed)

	win := 0.0
	if last.Win {
		win = 1
	}
	s.WinPct = (s.WinPct*n + win) / (n + 1)
	s.AvgMargin = (s.AvgMargin*n + float64(last.Margin)) / (n + 1)
	s.AvgPace = (s.AvgPace*n + last.Pace) / (n + 1)
	s.AvgOffRtg = (s.AvgOffRtg*n + last.OffRtg) / (n + 1)
	s.AvgDefRtg = (s.AvgDefRtg*n + last.DefRtg) / (n + 1)
	s.AvgNetRtg = (s.AvgNetRtg*n + last.NetRtg) / (n + 1)
	s.AvgTOVRate = (s.AvgTOVRate*n + last.TOVRate) / (n + 1)
	s.AvgORBPct = (s.AvgORBPct*n + last.ORBPct) / (n + 1)
	s.GamesPlayed++

	// Short windows approximate by folding the newest result in; exact
	// recomputation would need the full window of rows.
	if last.Win {
		if s.Streak > 0 {
			s.Streak++
		} else {
			s.Streak = 1
		}
		s.WinPctLast5 = (s.WinPctLast5*4 + 1) / 5
		s.WinPctLast10 = (s.WinPctLast10*9 + 1) / 10
	} else {
		if s.Streak < 0 {
			s.Streak--
		} else {
			s.Streak = -1
		}
		s.WinPctLast5 = (s.WinPctLast5 * 4) / 5
		s.WinPctLast10 = (s.WinPctLast10 * 9) / 10
	}
	s.AvgMarginLast5 = (s.AvgMarginLast5*4 + float64(last.Margin)) / 5

	s.DaysSinceLastGame = target.DaysSince(last.Date)
	return s
}
