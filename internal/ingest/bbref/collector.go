package bbref

import (
	"context"
	"fmt"
	"strings"

	"github.com/fortuna/courtside/internal/store"
)

// Collector is the read side of the box score source. The ingester and the
// grading reconciler both depend on this surface, not on Client directly.
type Collector interface {
	BoxLinksForDate(ctx context.Context, date store.Date) ([]string, error)
	FetchGame(ctx context.Context, url string) (store.GameRecord, []store.PlayerGameLog, error)
	CurrentInjuries(ctx context.Context, today store.Date) ([]store.InjuryListRow, error)
	ScheduleForDate(ctx context.Context, date store.Date) ([]store.Matchup, error)
	FinalScores(ctx context.Context, date store.Date) (map[string]store.FinalScore, error)
}

// SiteCollector implements Collector against the live site.
type SiteCollector struct {
	client *Client
}

func NewCollector(client *Client) *SiteCollector {
	return &SiteCollector{client: client}
}

// BoxLinksForDate lists every box score URL for one calendar day.
func (c *SiteCollector) BoxLinksForDate(ctx context.Context, date store.Date) ([]string, error) {
	url := fmt.Sprintf("%s/boxscores/?month=%d&day=%d&year=%d",
		c.client.BaseURL(), date.Month(), date.Day(), date.Year())
	p, err := c.client.getPage(ctx, url)
	if err != nil {
		return nil, err
	}
	return parseBoxLinks(p.doc, c.client.BaseURL()), nil
}

// FetchGame retrieves and parses one box score page.
func (c *SiteCollector) FetchGame(ctx context.Context, url string) (store.GameRecord, []store.PlayerGameLog, error) {
	p, err := c.client.getPage(ctx, url)
	if err != nil {
		return store.GameRecord{}, nil, err
	}
	return parseBoxScore(p.doc, p.finalURL)
}

// CurrentInjuries fetches the league-wide injury report.
func (c *SiteCollector) CurrentInjuries(ctx context.Context, today store.Date) ([]store.InjuryListRow, error) {
	url := c.client.BaseURL() + "/friv/injuries.fcgi"
	p, err := c.client.getPage(ctx, url)
	if err != nil {
		return nil, err
	}
	return parseInjuries(p.doc, today), nil
}

// ScheduleForDate reads the month's schedule page and filters to one date.
func (c *SiteCollector) ScheduleForDate(ctx context.Context, date store.Date) ([]store.Matchup, error) {
	month := strings.ToLower(date.Format("January"))
	url := fmt.Sprintf("%s/leagues/NBA_%d_games-%s.html", c.client.BaseURL(), date.SeasonYear(), month)
	p, err := c.client.getPage(ctx, url)
	if err != nil {
		return nil, err
	}
	return parseSchedule(p.doc, date), nil
}

// FinalScores reads the daily scoreboard, keyed by Matchup.Key.
func (c *SiteCollector) FinalScores(ctx context.Context, date store.Date) (map[string]store.FinalScore, error) {
	url := fmt.Sprintf("%s/boxscores/?month=%d&day=%d&year=%d",
		c.client.BaseURL(), date.Month(), date.Day(), date.Year())
	p, err := c.client.getPage(ctx, url)
	if err != nil {
		return nil, err
	}
	return parseFinalScores(p.doc), nil
}
