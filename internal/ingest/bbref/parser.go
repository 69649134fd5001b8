package bbref

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/courtside/internal/store"
)

var (
	boxURLRe    = regexp.MustCompile(`/boxscores/(\d{8})0(\w{3})\.html`)
	teamHrefRe  = regexp.MustCompile(`/teams/(\w{3})/`)
	playerIDRe  = regexp.MustCompile(`/players/\w/(\w+)\.html`)
	homeFromBox = regexp.MustCompile(`0(\w{3})\.html`)
)

var boxStats = []string{
	"pts", "fg", "fga", "fg3", "fg3a", "ft", "fta",
	"orb", "drb", "trb", "ast", "stl", "blk", "tov", "pf",
}

// parseBoxLinks extracts every "Box Score" link from a daily index page.
func parseBoxLinks(doc *goquery.Document, baseURL string) []string {
	var links []string
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) != "Box Score" {
			return
		}
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		links = append(links, baseURL+href)
	})
	return links
}

// parseBoxScore extracts the game record and per-player scores from a box
// score page. The final URL carries the date and home team; the away team
// comes from the scorebox header.
func parseBoxScore(doc *goquery.Document, finalURL string) (store.GameRecord, []store.PlayerGameLog, error) {
	m := boxURLRe.FindStringSubmatch(finalURL)
	if m == nil {
		return store.GameRecord{}, nil, fmt.Errorf("unrecognized box score url %q", finalURL)
	}
	rawDate, home := m[1], m[2]
	date, err := store.ParseDate(rawDate[:4] + "-" + rawDate[4:6] + "-" + rawDate[6:])
	if err != nil {
		return store.GameRecord{}, nil, err
	}

	away := ""
	doc.Find(`div.scorebox strong a[href*="/teams/"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if href, ok := s.Attr("href"); ok {
			if tm := teamHrefRe.FindStringSubmatch(href); tm != nil {
				away = tm[1]
				return false
			}
		}
		return true
	})
	if away == "" {
		return store.GameRecord{}, nil, fmt.Errorf("away team not found in %q", finalURL)
	}

	game := store.GameRecord{
		GameID:   fmt.Sprintf("%s_%s_at_%s", rawDate, away, home),
		Date:     date,
		HomeTeam: home,
		AwayTeam: away,
	}

	game.Home, err = parseTeamTotals(doc, home)
	if err != nil {
		return store.GameRecord{}, nil, fmt.Errorf("home totals: %w", err)
	}
	game.Away, err = parseTeamTotals(doc, away)
	if err != nil {
		return store.GameRecord{}, nil, fmt.Errorf("away totals: %w", err)
	}

	homeOut, awayOut := parseInactive(doc, home, away)
	game.HomeInactive = strings.Join(homeOut, ", ")
	game.AwayInactive = strings.Join(awayOut, ", ")

	players := parsePlayers(doc, home, date)
	players = append(players, parsePlayers(doc, away, date)...)
	for i := range players {
		players[i].SeasonYear = date.SeasonYear()
	}
	return game, players, nil
}

// parseTeamTotals reads the Team Totals row from the basic box table footer.
func parseTeamTotals(doc *goquery.Document, team string) (store.BoxTotals, error) {
	row := doc.Find(fmt.Sprintf("table#box-%s-game-basic tfoot tr", team)).First()
	if row.Length() == 0 {
		return store.BoxTotals{}, fmt.Errorf("totals row for %s not found", team)
	}

	vals := make(map[string]int, len(boxStats))
	var parseErr error
	for _, stat := range boxStats {
		cell := row.Find(fmt.Sprintf("td[data-stat=%q]", stat)).First()
		if cell.Length() == 0 {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(cell.Text()))
		if err != nil {
			parseErr = fmt.Errorf("stat %s: %w", stat, err)
			continue
		}
		vals[stat] = v
	}
	if parseErr != nil {
		return store.BoxTotals{}, parseErr
	}
	return store.BoxTotals{
		Points: vals["pts"], FieldGoals: vals["fg"], FieldGoalAttempts: vals["fga"],
		ThreePointers: vals["fg3"], ThreePointAttempts: vals["fg3a"],
		FreeThrows: vals["ft"], FreeThrowAttempts: vals["fta"],
		OffensiveRebounds: vals["orb"], DefensiveRebounds: vals["drb"], TotalRebounds: vals["trb"],
		Assists: vals["ast"], Steals: vals["stl"], Blocks: vals["blk"],
		Turnovers: vals["tov"], PersonalFouls: vals["pf"],
	}, nil
}

// parseInactive walks the "Inactive:" strip: a span names the side, the
// anchors after it list that side's players until the next span.
func parseInactive(doc *goquery.Document, home, away string) (homeOut, awayOut []string) {
	var strip *goquery.Selection
	doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		if strings.Contains(s.Text(), "Inactive:") && s.ChildrenFiltered("span").Length() > 0 {
			strip = s
		}
	})
	if strip == nil {
		return nil, nil
	}

	current := ""
	strip.Children().Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "span":
			text := s.Text()
			switch {
			case strings.Contains(text, home):
				current = home
			case strings.Contains(text, away):
				current = away
			default:
				current = ""
			}
		case "a":
			name := strings.TrimSpace(s.Text())
			if name == "" {
				return
			}
			switch current {
			case home:
				homeOut = append(homeOut, name)
			case away:
				awayOut = append(awayOut, name)
			}
		}
	})
	return homeOut, awayOut
}

// parsePlayers reads one side's basic box table body. Rows without minutes
// played did not appear and are skipped; the player id hides in the
// data-append-csv attribute.
func parsePlayers(doc *goquery.Document, team string, date store.Date) []store.PlayerGameLog {
	var out []store.PlayerGameLog
	doc.Find(fmt.Sprintf("table#box-%s-game-basic tbody tr", team)).Each(func(_ int, row *goquery.Selection) {
		if row.HasClass("thead") {
			return
		}
		mp := strings.TrimSpace(row.Find(`td[data-stat="mp"]`).First().Text())
		if mp == "" {
			return
		}

		th := row.Find(`th[data-stat="player"]`).First()
		id, ok := th.Attr("data-append-csv")
		if !ok || id == "" {
			return
		}
		name := strings.TrimSpace(th.Find("a").First().Text())
		if name == "" {
			name = strings.TrimSpace(th.Text())
		}

		score := 0.0
		if raw := strings.TrimSpace(row.Find(`td[data-stat="game_score"]`).First().Text()); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				score = v
			}
		}

		out = append(out, store.PlayerGameLog{
			PlayerID:   id,
			PlayerName: name,
			Date:       date,
			Team:       team,
			GameScore:  score,
		})
	})
	return out
}

// parseInjuries reads the league-wide injury table.
func parseInjuries(doc *goquery.Document, fetched store.Date) []store.InjuryListRow {
	var out []store.InjuryListRow
	doc.Find("table#injuries tbody tr").Each(func(_ int, row *goquery.Selection) {
		th := row.Find(`th[data-stat="player"]`).First()
		if th.Length() == 0 {
			return
		}
		name := strings.TrimSpace(th.Text())

		id := ""
		if href, ok := th.Find("a").First().Attr("href"); ok {
			if m := playerIDRe.FindStringSubmatch(href); m != nil {
				id = m[1]
			}
		}
		if id == "" {
			return
		}

		team := ""
		if href, ok := row.Find(`td[data-stat="team_name"] a`).First().Attr("href"); ok {
			if m := teamHrefRe.FindStringSubmatch(href); m != nil {
				team = m[1]
			}
		}

		out = append(out, store.InjuryListRow{
			PlayerID:    id,
			PlayerName:  name,
			Team:        team,
			Note:        strings.TrimSpace(row.Find(`td[data-stat="note"]`).First().Text()),
			DateFetched: fetched,
		})
	})
	return out
}

// parseSchedule extracts the matchups listed for one date from a monthly
// schedule page. The site prints dates both zero-padded and not.
func parseSchedule(doc *goquery.Document, target store.Date) []store.Matchup {
	padded := target.Format("Mon, Jan 02, 2006")
	unpadded := target.Format("Mon, Jan ") + strconv.Itoa(target.Day()) + target.Format(", 2006")

	var out []store.Matchup
	doc.Find("table#schedule tbody tr").Each(func(_ int, row *goquery.Selection) {
		dateText := strings.TrimSpace(row.Find(`th[data-stat="date_game"]`).First().Text())
		if dateText != padded && dateText != unpadded {
			return
		}
		visitor := teamAbbrFromCell(row.Find(`td[data-stat="visitor_team_name"] a`).First())
		home := teamAbbrFromCell(row.Find(`td[data-stat="home_team_name"] a`).First())
		if visitor == "" || home == "" {
			return
		}
		out = append(out, store.Matchup{Home: home, Away: visitor})
	})
	return out
}

func teamAbbrFromCell(a *goquery.Selection) string {
	href, ok := a.Attr("href")
	if !ok {
		return ""
	}
	if m := teamHrefRe.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

// parseFinalScores reads the daily scoreboard summaries, keyed by matchup.
// The home side is identified from the box score link, not row order.
func parseFinalScores(doc *goquery.Document) map[string]store.FinalScore {
	out := make(map[string]store.FinalScore)
	doc.Find("div.game_summary").Each(func(_ int, summary *goquery.Selection) {
		homeAbbr := ""
		summary.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, ok := a.Attr("href")
			if !ok || !strings.Contains(href, "boxscores") || !strings.HasSuffix(href, ".html") {
				return true
			}
			if m := homeFromBox.FindStringSubmatch(href); m != nil {
				homeAbbr = m[1]
				return false
			}
			return true
		})
		if homeAbbr == "" {
			return
		}

		type teamScore struct {
			abbr  string
			score int
			ok    bool
		}
		var teams []teamScore
		summary.Find("tr").Each(func(_ int, row *goquery.Selection) {
			abbr := teamAbbrFromCell(row.Find("a[href]").First())
			if abbr == "" {
				return
			}
			raw := strings.TrimSpace(row.Find("td.right").First().Text())
			score, err := strconv.Atoi(raw)
			teams = append(teams, teamScore{abbr: abbr, score: score, ok: err == nil})
		})
		if len(teams) < 2 || !teams[0].ok || !teams[1].ok {
			return
		}

		if teams[0].abbr == homeAbbr {
			key := store.Matchup{Home: homeAbbr, Away: teams[1].abbr}.Key()
			out[key] = store.FinalScore{Home: teams[0].score, Away: teams[1].score}
		} else {
			key := store.Matchup{Home: homeAbbr, Away: teams[0].abbr}.Key()
			out[key] = store.FinalScore{Home: teams[1].score, Away: teams[0].score}
		}
	})
	return out
}
