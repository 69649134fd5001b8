// Package odds collects decimal moneyline odds from the playsport results
// page. The site lists teams under localized display names; teamNames maps
// them back to the standard abbreviations.
package odds

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/fortuna/courtside/internal/store"
)

const DefaultBaseURL = "https://www.playsport.cc"

var teamNames = map[string]string{
	"老鷹": "ATL", "塞爾提克": "BOS", "塞爾提": "BOS",
	"籃網": "BRK", "黃蜂": "CHO",
	"公牛": "CHI", "騎士": "CLE", "獨行俠": "DAL", "金塊": "DEN",
	"活塞": "DET", "勇士": "GSW", "火箭": "HOU", "溜馬": "IND",
	"快艇": "LAC", "湖人": "LAL", "灰熊": "MEM", "熱火": "MIA",
	"公鹿": "MIL", "灰狼": "MIN", "鵜鶘": "NOP", "尼克": "NYK",
	"雷霆": "OKC", "魔術": "ORL", "76人": "PHI", "七六人": "PHI",
	"太陽": "PHO", "拓荒者": "POR", "拓荒": "POR",
	"國王": "SAC", "馬刺": "SAS", "暴龍": "TOR",
	"爵士": "UTA", "巫師": "WAS",
}

var numberRe = regexp.MustCompile(`[-+]?\d*\.\d+|\d+`)

// Client fetches one day's odds table.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func NewClient(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchForDate returns the odds for every recognized matchup on one date.
// Rows whose teams cannot be mapped are skipped; a missing odds cell yields
// a null decimal, not a dropped row.
func (c *Client) FetchForDate(ctx context.Context, date store.Date) ([]store.OddsRecord, error) {
	url := fmt.Sprintf("%s/gamesData/result?allianceid=3&gametime=%s", c.baseURL, date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching odds: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing odds page: %w", err)
	}
	return parseOdds(doc, date), nil
}

// parseOdds groups table rows by their gameid attribute: the first row is
// the away side, the second the home side. Some layouts list both teams in
// the first row instead.
func parseOdds(doc *goquery.Document, date store.Date) []store.OddsRecord {
	groups := make(map[string][]*goquery.Selection)
	var order []string
	doc.Find("tr[gameid]").Each(func(_ int, row *goquery.Selection) {
		id, _ := row.Attr("gameid")
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], row)
	})

	var out []store.OddsRecord
	skipped := 0
	for _, id := range order {
		rows := groups[id]
		if len(rows) < 2 {
			skipped++
			continue
		}
		awayRow, homeRow := rows[0], rows[1]

		awayAbbr, homeAbbr := "", ""
		if both := teamsInRow(awayRow); len(both) >= 2 {
			awayAbbr, homeAbbr = both[0], both[1]
		} else {
			awayAbbr = firstTeamInRow(awayRow)
			homeAbbr = firstTeamInRow(homeRow)
		}
		if awayAbbr == "" || homeAbbr == "" {
			skipped++
			continue
		}

		out = append(out, store.OddsRecord{
			Date:     date,
			Home:     homeAbbr,
			Away:     awayAbbr,
			OddsHome: oddsInRow(homeRow),
			OddsAway: oddsInRow(awayRow),
		})
	}
	if skipped > 0 {
		log.Printf("[odds] skipped %d unrecognized rows for %s", skipped, date)
	}
	return out
}

func teamsInRow(row *goquery.Selection) []string {
	var abbrs []string
	row.Find("td.td-teaminfo a").Each(func(_ int, a *goquery.Selection) {
		if abbr, ok := teamNames[strings.TrimSpace(a.Text())]; ok {
			abbrs = append(abbrs, abbr)
		}
	})
	return abbrs
}

func firstTeamInRow(row *goquery.Selection) string {
	if abbrs := teamsInRow(row); len(abbrs) > 0 {
		return abbrs[0]
	}
	return ""
}

// oddsInRow pulls the last number out of the moneyline cell.
func oddsInRow(row *goquery.Selection) decimal.NullDecimal {
	text := strings.TrimSpace(row.Find("td.td-bank-bet03").First().Text())
	nums := numberRe.FindAllString(text, -1)
	if len(nums) == 0 {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(nums[len(nums)-1])
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
