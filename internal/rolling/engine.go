package rolling

import (
	"sort"

	"github.com/fortuna/courtside/internal/store"
)

// Options carries the fallback constants used when a rolling field has no
// history to draw on.
type Options struct {
	// Rest days assigned to a team's season opener.
	DefaultRestDays int

	// Denominator normalizing summed absent-player scores into an impact.
	TeamScale float64
}

// DefaultOptions mirrors the production constants.
func DefaultOptions() Options {
	return Options{DefaultRestDays: 7, TeamScale: 80.0}
}

const (
	shortWindow = 5
	longWindow  = 10
)

// BuildTeamRows splits each game into its two team perspectives and computes
// the per-game derived metrics. Possessions use the standard estimate
// fga + 0.44*fta - orb + tov; pace is the mean of both teams' estimates, and
// ratings are per 100 possessions.
func BuildTeamRows(games []store.GameRecord) []store.TeamGameRow {
	rows := make([]store.TeamGameRow, 0, 2*len(games))
	for _, g := range games {
		homePoss := possessions(g.Home)
		awayPoss := possessions(g.Away)
		pace := (homePoss + awayPoss) / 2

		homeOff := safeDiv(float64(g.Home.Points), pace) * 100
		awayOff := safeDiv(float64(g.Away.Points), pace) * 100

		rows = append(rows, store.TeamGameRow{
			GameID:     g.GameID,
			Date:       g.Date,
			SeasonYear: g.SeasonYear(),
			Team:       g.HomeTeam,
			Opponent:   g.AwayTeam,
			Location:   "Home",
			Points:     g.Home.Points,
			OppPoints:  g.Away.Points,
			Win:        g.HomeWin(),
			Margin:     g.Home.Points - g.Away.Points,
			Inactive:   g.HomeInactive,
			Pace:       pace,
			OffRtg:     homeOff,
			DefRtg:     awayOff,
			NetRtg:     homeOff - awayOff,
			TOVRate:    safeDiv(float64(g.Home.Turnovers), pace) * 100,
			ORBPct:     safeDiv(float64(g.Home.OffensiveRebounds), float64(g.Home.OffensiveRebounds+g.Away.DefensiveRebounds)),
		}, store.TeamGameRow{
			GameID:     g.GameID,
			Date:       g.Date,
			SeasonYear: g.SeasonYear(),
			Team:       g.AwayTeam,
			Opponent:   g.HomeTeam,
			Location:   "Away",
			Points:     g.Away.Points,
			OppPoints:  g.Home.Points,
			Win:        !g.HomeWin(),
			Margin:     g.Away.Points - g.Home.Points,
			Inactive:   g.AwayInactive,
			Pace:       pace,
			OffRtg:     awayOff,
			DefRtg:     homeOff,
			NetRtg:     awayOff - homeOff,
			TOVRate:    safeDiv(float64(g.Away.Turnovers), pace) * 100,
			ORBPct:     safeDiv(float64(g.Away.OffensiveRebounds), float64(g.Away.OffensiveRebounds+g.Home.DefensiveRebounds)),
		})
	}
	return rows
}

func possessions(b store.BoxTotals) float64 {
	return float64(b.FieldGoalAttempts) + 0.44*float64(b.FreeThrowAttempts) -
		float64(b.OffensiveRebounds) + float64(b.Turnovers)
}

// ComputeSnapshots fills every row's rolling snapshot. Season-scoped fields
// group on (season, team); head-to-head fields group on (team, opponent)
// across seasons. scores maps (season, player name) to the player's average
// before-game score and feeds the injury impact.
func ComputeSnapshots(rows []store.TeamGameRow, scores map[SeasonName]float64, opts Options) []store.TeamGameRow {
	out := make([]store.TeamGameRow, len(rows))
	copy(out, rows)

	fillSeasonFields(out, opts)
	fillHeadToHead(out)

	for i := range out {
		out[i].Snapshot.InjuryImpact = injuryImpact(out[i], scores, opts.TeamScale)
	}
	return out
}

type seasonTeam struct {
	season int
	team   string
}

// SeasonName keys a player's season-average score by display name; historical
// inactive lists only carry names.
type SeasonName struct {
	Season int
	Name   string
}

func groupIndexes[K comparable](rows []store.TeamGameRow, key func(store.TeamGameRow) K) map[K][]int {
	groups := make(map[K][]int)
	for i, r := range rows {
		k := key(r)
		groups[k] = append(groups[k], i)
	}
	for _, idx := range groups {
		sort.Slice(idx, func(a, b int) bool {
			ra, rb := rows[idx[a]], rows[idx[b]]
			if !ra.Date.Equal(rb.Date.Time) {
				return ra.Date.Before(rb.Date.Time)
			}
			return ra.GameID < rb.GameID
		})
	}
	return groups
}

func fillSeasonFields(rows []store.TeamGameRow, opts Options) {
	groups := groupIndexes(rows, func(r store.TeamGameRow) seasonTeam {
		return seasonTeam{r.SeasonYear, r.Team}
	})

	for _, idx := range groups {
		n := len(idx)
		wins := make([]float64, n)
		winBools := make([]bool, n)
		margins := make([]float64, n)
		pace := make([]float64, n)
		offRtg := make([]float64, n)
		defRtg := make([]float64, n)
		netRtg := make([]float64, n)
		tovRate := make([]float64, n)
		orbPct := make([]float64, n)
		for j, i := range idx {
			if rows[i].Win {
				wins[j] = 1
			}
			winBools[j] = rows[i].Win
			margins[j] = float64(rows[i].Margin)
			pace[j] = rows[i].Pace
			offRtg[j] = rows[i].OffRtg
			defRtg[j] = rows[i].DefRtg
			netRtg[j] = rows[i].NetRtg
			tovRate[j] = rows[i].TOVRate
			orbPct[j] = rows[i].ORBPct
		}

		winPct := BeforeGame(wins, 0, 0, Mean)
		avgMargin := BeforeGame(margins, 0, 0, Mean)
		winL5 := BeforeGame(wins, shortWindow, 0, Mean)
		winL10 := BeforeGame(wins, longWindow, 0, Mean)
		marginL5 := BeforeGame(margins, shortWindow, 0, Mean)
		avgPace := BeforeGame(pace, 0, 0, Mean)
		avgOff := BeforeGame(offRtg, 0, 0, Mean)
		avgDef := BeforeGame(defRtg, 0, 0, Mean)
		avgNet := BeforeGame(netRtg, 0, 0, Mean)
		avgTOV := BeforeGame(tovRate, 0, 0, Mean)
		avgORB := BeforeGame(orbPct, 0, 0, Mean)
		streaks := StreakBefore(winBools)

		var homeWins, homeGames, awayWins, awayGames float64
		for j, i := range idx {
			s := &rows[i].Snapshot
			s.GamesPlayed = j
			s.WinPct = winPct[j]
			s.AvgMargin = avgMargin[j]
			s.WinPctLast5 = winL5[j]
			s.WinPctLast10 = winL10[j]
			s.AvgMarginLast5 = marginL5[j]
			s.AvgPace = avgPace[j]
			s.AvgOffRtg = avgOff[j]
			s.AvgDefRtg = avgDef[j]
			s.AvgNetRtg = avgNet[j]
			s.AvgTOVRate = avgTOV[j]
			s.AvgORBPct = avgORB[j]
			s.Streak = streaks[j]

			// Location splits accumulate before-game counts only.
			s.HomeWinPct = safeDiv(homeWins, homeGames)
			s.AwayWinPct = safeDiv(awayWins, awayGames)
			if rows[i].Location == "Home" {
				homeGames++
				if rows[i].Win {
					homeWins++
				}
			} else {
				awayGames++
				if rows[i].Win {
					awayWins++
				}
			}

			if j == 0 {
				s.DaysSinceLastGame = opts.DefaultRestDays
			} else {
				s.DaysSinceLastGame = rows[i].Date.DaysSince(rows[idx[j-1]].Date)
			}
		}
	}
}

type teamOpponent struct {
	team     string
	opponent string
}

// fillHeadToHead computes last-5 win rate and margin against the specific
// opponent, spanning seasons. Defaults are 0.5 and 0 so an unseen matchup
// reads as a coin flip.
func fillHeadToHead(rows []store.TeamGameRow) {
	groups := groupIndexes(rows, func(r store.TeamGameRow) teamOpponent {
		return teamOpponent{r.Team, r.Opponent}
	})

	for _, idx := range groups {
		wins := make([]float64, len(idx))
		margins := make([]float64, len(idx))
		for j, i := range idx {
			if rows[i].Win {
				wins[j] = 1
			}
			margins[j] = float64(rows[i].Margin)
		}
		h2hWin := BeforeGame(wins, shortWindow, 0.5, Mean)
		h2hMargin := BeforeGame(margins, shortWindow, 0, Mean)
		for j, i := range idx {
			rows[i].Snapshot.H2HWinPctLast5 = h2hWin[j]
			rows[i].Snapshot.H2HAvgMarginLast5 = h2hMargin[j]
		}
	}
}

// injuryImpact sums the season-average score of each listed absent player and
// normalizes by the team scale. Names with no recorded history contribute
// nothing.
func injuryImpact(row store.TeamGameRow, scores map[SeasonName]float64, teamScale float64) float64 {
	names := store.InactiveList(row.Inactive)
	if len(names) == 0 {
		return 0
	}
	total := 0.0
	for _, name := range names {
		total += scores[SeasonName{row.SeasonYear, name}]
	}
	return safeDiv(total, teamScale)
}
