package rolling

import (
	"sort"

	"github.com/fortuna/courtside/internal/store"
)

type playerSeason struct {
	playerID string
	season   int
}

// ComputeCumulative turns raw appearances into leak-free before-game scores:
// for each player-season sorted by date, the running score total and per-game
// average over strictly earlier appearances. A season debut carries zeros.
func ComputeCumulative(logs []store.PlayerGameLog) []store.PlayerCumulativeScore {
	groups := make(map[playerSeason][]store.PlayerGameLog)
	for _, l := range logs {
		k := playerSeason{l.PlayerID, l.SeasonYear}
		groups[k] = append(groups[k], l)
	}

	out := make([]store.PlayerCumulativeScore, 0, len(logs))
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			return group[i].Date.Before(group[j].Date.Time)
		})
		total := 0.0
		for i, l := range group {
			avg := safeDiv(total, float64(i))
			out = append(out, store.PlayerCumulativeScore{
				PlayerID:          l.PlayerID,
				PlayerName:        l.PlayerName,
				SeasonYear:        l.SeasonYear,
				Date:              l.Date,
				Team:              l.Team,
				BeforeGameTotal:   total,
				BeforeGameAverage: avg,
			})
			total += l.GameScore
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// SeasonNameAverages reduces cumulative scores to one number per
// (season, player name): the mean of the player's before-game averages across
// the season. Historical inactive lists are name-keyed, so this map is too.
func SeasonNameAverages(cums []store.PlayerCumulativeScore) map[SeasonName]float64 {
	sums := make(map[SeasonName]float64)
	counts := make(map[SeasonName]int)
	for _, c := range cums {
		k := SeasonName{c.SeasonYear, c.PlayerName}
		sums[k] += c.BeforeGameAverage
		counts[k]++
	}
	out := make(map[SeasonName]float64, len(sums))
	for k, sum := range sums {
		out[k] = sum / float64(counts[k])
	}
	return out
}

// CurrentAverages computes each player's mean score for one season, keyed by
// player id. The live injury report carries ids, so the live path matches on
// id instead of name. Falls back to the previous season when the requested
// one has no appearances yet.
func CurrentAverages(logs []store.PlayerGameLog, season int) map[string]float64 {
	avgFor := func(year int) map[string]float64 {
		sums := make(map[string]float64)
		counts := make(map[string]int)
		for _, l := range logs {
			if l.SeasonYear != year {
				continue
			}
			sums[l.PlayerID] += l.GameScore
			counts[l.PlayerID]++
		}
		out := make(map[string]float64, len(sums))
		for id, sum := range sums {
			out[id] = sum / float64(counts[id])
		}
		return out
	}

	avgs := avgFor(season)
	if len(avgs) == 0 {
		avgs = avgFor(season - 1)
	}
	return avgs
}

// LiveInjuryImpact scores a team's current injury report: each listed
// player's season-average score, or defaultScore when the player has no
// history, summed and normalized by teamScale.
func LiveInjuryImpact(team string, injuries []store.InjuryListRow, avgByID map[string]float64, defaultScore, teamScale float64) float64 {
	total := 0.0
	for _, row := range injuries {
		if row.Team != team {
			continue
		}
		score := avgByID[row.PlayerID]
		if score == 0 {
			score = defaultScore
		}
		total += score
	}
	return safeDiv(total, teamScale)
}
