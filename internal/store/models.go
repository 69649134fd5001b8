package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for every date column in the CSV artifacts.
const DateLayout = "2006-01-02"

// Date is a calendar day (no time-of-day component).
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return Date{t}, nil
}

// DateOf truncates a time.Time to its calendar day.
func DateOf(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// DaysSince returns the number of calendar days from prev to d.
func (d Date) DaysSince(prev Date) int {
	return int(d.Time.Sub(prev.Time).Hours() / 24)
}

// SeasonYear maps a game date to its NBA season: October through December
// belong to the season ending the following calendar year.
func (d Date) SeasonYear() int {
	if d.Month() >= time.October {
		return d.Year() + 1
	}
	return d.Year()
}

// BoxTotals holds one team's box-score totals for a single game.
type BoxTotals struct {
	Points             int
	FieldGoals         int
	FieldGoalAttempts  int
	ThreePointers      int
	ThreePointAttempts int
	FreeThrows         int
	FreeThrowAttempts  int
	OffensiveRebounds  int
	DefensiveRebounds  int
	TotalRebounds      int
	Assists            int
	Steals             int
	Blocks             int
	Turnovers          int
	PersonalFouls      int
}

// GameRecord is one completed game as fetched from the box score source.
// Immutable after creation; a re-fetch overwrites the whole record by GameID.
type GameRecord struct {
	GameID   string
	Date     Date
	HomeTeam string
	AwayTeam string

	// Comma-separated inactive-player names per side, as listed on the
	// box score page. Empty when no absences were recorded.
	HomeInactive string
	AwayInactive string

	Home BoxTotals
	Away BoxTotals
}

// SeasonYear derives the season a game belongs to from its date.
func (g GameRecord) SeasonYear() int { return g.Date.SeasonYear() }

// HomeWin reports whether the home side won.
func (g GameRecord) HomeWin() bool { return g.Home.Points > g.Away.Points }

// InactiveList splits a side's inactive string into trimmed names.
func InactiveList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// PlayerGameLog is one player's appearance in one game.
// Unique on (PlayerID, Date); re-ingestion overwrites, never duplicates.
type PlayerGameLog struct {
	PlayerID   string
	PlayerName string
	SeasonYear int
	Date       Date
	Team       string
	GameScore  float64
}

// PlayerCumulativeScore is a player's "before this game" skill score,
// computed with the same shift-by-one rule as the team snapshots.
type PlayerCumulativeScore struct {
	PlayerID   string
	PlayerName string
	SeasonYear int
	Date       Date
	Team       string

	// Sum and per-game average of GameScore over strictly earlier
	// appearances in the same season. Both zero for a season debut.
	BeforeGameTotal   float64
	BeforeGameAverage float64
}

// TeamRollingSnapshot holds every "before this game" aggregate attached to a
// TeamGameRow. Each field is a function only of rows dated strictly earlier
// (head-to-head fields look across seasons, everything else within the
// team's season).
type TeamRollingSnapshot struct {
	GamesPlayed    int
	WinPct         float64
	AvgMargin      float64
	HomeWinPct     float64
	AwayWinPct     float64
	WinPctLast5    float64
	WinPctLast10   float64
	AvgMarginLast5 float64

	// Signed run of consecutive same-result games entering this one.
	Streak int

	// Calendar days since the team's previous game this season.
	DaysSinceLastGame int

	H2HWinPctLast5    float64
	H2HAvgMarginLast5 float64

	AvgPace    float64
	AvgOffRtg  float64
	AvgDefRtg  float64
	AvgNetRtg  float64
	AvgTOVRate float64
	AvgORBPct  float64

	// Summed before-game average score of players absent for this game,
	// normalized by the configured team scale. Zero when nobody sat out.
	InjuryImpact float64
}

// TeamGameRow is one team's side of one game: the game's own derived metrics
// plus the leak-free rolling snapshot entering it. Two rows per GameRecord.
type TeamGameRow struct {
	GameID     string
	Date       Date
	SeasonYear int
	Team       string
	Opponent   string
	Location   string // "Home" or "Away"

	Points    int
	OppPoints int
	Win       bool
	Margin    int
	Inactive  string

	Pace    float64
	OffRtg  float64
	DefRtg  float64
	NetRtg  float64
	TOVRate float64
	ORBPct  float64

	Snapshot TeamRollingSnapshot
}

// FeatureVector is one game from the home team's perspective: every paired
// snapshot attribute reduced to a signed home-minus-away difference.
type FeatureVector struct {
	GameID     string
	Date       Date
	SeasonYear int
	HomeTeam   string
	AwayTeam   string
	HomeWin    bool

	DiffDaysRest       float64
	DiffStreak         float64
	DiffWinPctLast5    float64
	DiffAvgMarginLast5 float64
	DiffWinPctLast10   float64
	DiffHomeWinPct     float64
	DiffAwayWinPct     float64
	DiffH2HWinPct      float64
	DiffH2HMargin      float64
	DiffInjuryImpact   float64
	DiffNetRtg         float64
	DiffTOVRate        float64
	DiffORBPct         float64
}

// FeatureNames lists the model inputs in the order Vector emits them.
var FeatureNames = []string{
	"diff_days_rest",
	"diff_streak",
	"diff_win_pct_last_5",
	"diff_avg_margin_last_5",
	"diff_win_pct_last_10",
	"diff_home_win_pct",
	"diff_away_win_pct",
	"diff_h2h_win_pct_last_5",
	"diff_h2h_avg_margin_last_5",
	"diff_injury_impact",
	"diff_net_rtg",
	"diff_tov_rate",
	"diff_orb_pct",
}

// Vector returns the feature values in FeatureNames order.
func (f FeatureVector) Vector() []float64 {
	return []float64{
		f.DiffDaysRest,
		f.DiffStreak,
		f.DiffWinPctLast5,
		f.DiffAvgMarginLast5,
		f.DiffWinPctLast10,
		f.DiffHomeWinPct,
		f.DiffAwayWinPct,
		f.DiffH2HWinPct,
		f.DiffH2HMargin,
		f.DiffInjuryImpact,
		f.DiffNetRtg,
		f.DiffTOVRate,
		f.DiffORBPct,
	}
}

// InjuryListRow is one entry on the current league injury report.
type InjuryListRow struct {
	PlayerID    string
	PlayerName  string
	Team        string
	Note        string
	DateFetched Date
}

// PredictionRecord is the model's estimate for an upcoming game.
// Keyed by (Date, Home).
type PredictionRecord struct {
	Date        Date
	Home        string
	Away        string
	HomeWinProb float64
	Confidence  string
}

// Confidence band labels.
const (
	ConfidenceHighHome = "High (Home)"
	ConfidenceHighAway = "High (Away)"
	ConfidenceTossUp   = "Toss-up"
)

// ConfidenceBand maps a home win probability to its display band.
func ConfidenceBand(p float64) string {
	switch {
	case p >= 0.65:
		return ConfidenceHighHome
	case p <= 0.35:
		return ConfidenceHighAway
	default:
		return ConfidenceTossUp
	}
}

// OddsRecord carries decimal odds for both sides of a game.
type OddsRecord struct {
	Date     Date
	Home     string
	Away     string
	OddsHome decimal.NullDecimal
	OddsAway decimal.NullDecimal
}

// BetSide identifies which side a decision backs, if any.
type BetSide string

const (
	SideNone BetSide = "NONE"
	SideHome BetSide = "HOME"
	SideAway BetSide = "AWAY"
)

// SignalReason explains why the policy produced its side.
type SignalReason string

const (
	ReasonNoOdds        SignalReason = "NO_ODDS"
	ReasonOverconfident SignalReason = "PASS_OVERCONFIDENT"
	ReasonNoiseZone     SignalReason = "PASS_NOISE_ZONE"
	ReasonLowEdge       SignalReason = "PASS_LOW_EDGE"
	ReasonStrongHome    SignalReason = "BET_HOME_STRONG"
	ReasonSniperAway    SignalReason = "BET_AWAY_SNIPER"
	ReasonLockHome      SignalReason = "BET_HOME_LOCK"
	ReasonLockAway      SignalReason = "BET_AWAY_LOCK"
	ReasonHighEVHome    SignalReason = "BET_HOME_HIGH_EV"
	ReasonHighEVAway    SignalReason = "BET_AWAY_HIGH_EV"
	ReasonWatch         SignalReason = "WATCH"
)

// DecisionStatus is the lifecycle state of a DecisionRecord.
type DecisionStatus string

const (
	StatusPending DecisionStatus = "PENDING"
	StatusGraded  DecisionStatus = "GRADED"
)

// Outcome is the terminal result of a graded decision.
type Outcome string

const (
	OutcomeWin   Outcome = "WIN"
	OutcomeLoss  Outcome = "LOSS"
	OutcomeNoBet Outcome = "NO_BET"
)

// DecisionRecord joins a prediction with its odds and the policy's verdict.
// Keyed by (Date, Home). Re-running the decision stage overwrites pending
// fields; a GRADED record is never regressed to PENDING.
type DecisionRecord struct {
	Date        Date
	Home        string
	Away        string
	HomeWinProb float64
	Confidence  string

	OddsHome decimal.NullDecimal
	OddsAway decimal.NullDecimal
	EVHome   decimal.NullDecimal
	EVAway   decimal.NullDecimal

	Side   BetSide
	Reason SignalReason

	Status DecisionStatus

	// Populated only once graded.
	HomeScore int
	AwayScore int
	Winner    string
	Outcome   Outcome
}

// Key returns the record's primary key.
func (d DecisionRecord) Key() string {
	return d.Date.String() + "_" + d.Home
}

// Matchup identifies a game by its two sides.
type Matchup struct {
	Home string
	Away string
}

// Key returns the pairing key used for score lookups. Keying on both sides
// means a score fetched for a different pairing never grades a decision.
func (m Matchup) Key() string {
	return m.Home + "_" + m.Away
}

// FinalScore is a completed game's score as reported by the score source.
type FinalScore struct {
	Home int
	Away int
}
