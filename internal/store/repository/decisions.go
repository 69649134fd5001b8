package repository

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/fortuna/courtside/internal/store"
)

// DecisionsFile is the cross-run signal ledger. Predictions and odds are
// written per slate date so historical exports stay inspectable side by side.
const DecisionsFile = "decisions.csv"

func predictionsFile(date store.Date) string {
	return fmt.Sprintf("predictions_%s.csv", date)
}

func oddsFile(date store.Date) string {
	return fmt.Sprintf("odds_for_%s.csv", date)
}

// PredictionRepository owns the per-date prediction exports.
type PredictionRepository struct {
	dataDir string
}

func NewPredictionRepository(dataDir string) *PredictionRepository {
	return &PredictionRepository{dataDir: dataDir}
}

func (r *PredictionRepository) pathFor(date store.Date) string {
	return filepath.Join(r.dataDir, predictionsFile(date))
}

func predictionHeader() []string {
	return []string{"date", "home_team", "away_team", "home_win_prob", "confidence"}
}

func scanPrediction(fields []string) (store.PredictionRecord, error) {
	if len(fields) != 5 {
		return store.PredictionRecord{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}
	date, err := store.ParseDate(fields[0])
	if err != nil {
		return store.PredictionRecord{}, err
	}
	prob, err := store.ParseFloat(fields[3])
	if err != nil {
		return store.PredictionRecord{}, err
	}
	return store.PredictionRecord{
		Date:        date,
		Home:        fields[1],
		Away:        fields[2],
		HomeWinProb: prob,
		Confidence:  fields[4],
	}, nil
}

// SaveForDate writes the full slate for one date, replacing any earlier export.
func (r *PredictionRepository) SaveForDate(date store.Date, preds []store.PredictionRecord) error {
	sorted := make([]store.PredictionRecord, len(preds))
	copy(sorted, preds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Home < sorted[j].Home })

	rows := make([][]string, len(sorted))
	for i, p := range sorted {
		rows[i] = []string{
			p.Date.String(), p.Home, p.Away,
			store.FormatFloat(p.HomeWinProb), p.Confidence,
		}
	}
	return store.WriteRows(r.pathFor(date), predictionHeader(), rows)
}

// LoadForDate reads one slate's export. Reports ErrMissingArtifact when the
// predict stage has not produced it.
func (r *PredictionRepository) LoadForDate(date store.Date) ([]store.PredictionRecord, error) {
	path := r.pathFor(date)
	if err := store.RequireArtifact(path); err != nil {
		return nil, err
	}
	rows, err := store.ReadRows(path)
	if err != nil {
		return nil, err
	}
	out := make([]store.PredictionRecord, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		p, err := scanPrediction(row)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, p)
	}
	if dropped > 0 {
		log.Printf("[store] dropped %d malformed rows from %s", dropped, predictionsFile(date))
	}
	return out, nil
}

// LoadLatest scans the data directory for the newest prediction export.
func (r *PredictionRepository) LoadLatest() (store.Date, []store.PredictionRecord, error) {
	matches, err := filepath.Glob(filepath.Join(r.dataDir, "predictions_*.csv"))
	if err != nil {
		return store.Date{}, nil, fmt.Errorf("scanning prediction exports: %w", err)
	}

	var latest store.Date
	for _, m := range matches {
		base := filepath.Base(m)
		raw := base[len("predictions_") : len(base)-len(".csv")]
		d, err := store.ParseDate(raw)
		if err != nil {
			continue
		}
		if d.After(latest.Time) {
			latest = d
		}
	}
	if latest.IsZero() {
		return store.Date{}, nil, fmt.Errorf("%w: predictions_*.csv", store.ErrMissingArtifact)
	}
	preds, err := r.LoadForDate(latest)
	if err != nil {
		return store.Date{}, nil, err
	}
	return latest, preds, nil
}

// OddsRepository owns the per-date odds exports.
type OddsRepository struct {
	dataDir string
}

func NewOddsRepository(dataDir string) *OddsRepository {
	return &OddsRepository{dataDir: dataDir}
}

func (r *OddsRepository) pathFor(date store.Date) string {
	return filepath.Join(r.dataDir, oddsFile(date))
}

func oddsHeader() []string {
	return []string{"date", "home_team", "away_team", "odds_home", "odds_away"}
}

func scanOdds(fields []string) (store.OddsRecord, error) {
	if len(fields) != 5 {
		return store.OddsRecord{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}
	date, err := store.ParseDate(fields[0])
	if err != nil {
		return store.OddsRecord{}, err
	}
	home, err := store.ParseNullDecimal(fields[3])
	if err != nil {
		return store.OddsRecord{}, err
	}
	away, err := store.ParseNullDecimal(fields[4])
	if err != nil {
		return store.OddsRecord{}, err
	}
	return store.OddsRecord{
		Date:     date,
		Home:     fields[1],
		Away:     fields[2],
		OddsHome: home,
		OddsAway: away,
	}, nil
}

// SaveForDate writes one slate's odds, replacing any earlier export.
func (r *OddsRepository) SaveForDate(date store.Date, odds []store.OddsRecord) error {
	sorted := make([]store.OddsRecord, len(odds))
	copy(sorted, odds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Home < sorted[j].Home })

	rows := make([][]string, len(sorted))
	for i, o := range sorted {
		rows[i] = []string{
			o.Date.String(), o.Home, o.Away,
			store.FormatNullDecimal(o.OddsHome), store.FormatNullDecimal(o.OddsAway),
		}
	}
	return store.WriteRows(r.pathFor(date), oddsHeader(), rows)
}

// LoadForDate reads one slate's odds. A missing export is an empty slate, not
// an error: the decision stage emits NO_ODDS rows for it.
func (r *OddsRepository) LoadForDate(date store.Date) ([]store.OddsRecord, error) {
	rows, err := store.ReadRows(r.pathFor(date))
	if err != nil {
		return nil, err
	}
	out := make([]store.OddsRecord, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		o, err := scanOdds(row)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, o)
	}
	if dropped > 0 {
		log.Printf("[store] dropped %d malformed rows from %s", dropped, oddsFile(date))
	}
	return out, nil
}

// DecisionRepository owns the signal ledger, keyed by (date, home_team).
type DecisionRepository struct {
	path string
}

func NewDecisionRepository(dataDir string) *DecisionRepository {
	return &DecisionRepository{path: filepath.Join(dataDir, DecisionsFile)}
}

func (r *DecisionRepository) Path() string { return r.path }

func decisionHeader() []string {
	return []string{
		"date", "home_team", "away_team", "home_win_prob", "confidence",
		"odds_home", "odds_away", "ev_home", "ev_away",
		"side", "reason", "status",
		"home_score", "away_score", "winner", "outcome",
	}
}

func decisionFields(d store.DecisionRecord) []string {
	homeScore, awayScore := "", ""
	if d.Status == store.StatusGraded {
		homeScore = fmt.Sprintf("%d", d.HomeScore)
		awayScore = fmt.Sprintf("%d", d.AwayScore)
	}
	return []string{
		d.Date.String(), d.Home, d.Away,
		store.FormatFloat(d.HomeWinProb), d.Confidence,
		store.FormatNullDecimal(d.OddsHome), store.FormatNullDecimal(d.OddsAway),
		store.FormatNullDecimal(d.EVHome), store.FormatNullDecimal(d.EVAway),
		string(d.Side), string(d.Reason), string(d.Status),
		homeScore, awayScore, d.Winner, string(d.Outcome),
	}
}

func scanDecision(fields []string) (store.DecisionRecord, error) {
	if len(fields) != len(decisionHeader()) {
		return store.DecisionRecord{}, fmt.Errorf("expected %d fields, got %d", len(decisionHeader()), len(fields))
	}
	date, err := store.ParseDate(fields[0])
	if err != nil {
		return store.DecisionRecord{}, err
	}
	prob, err := store.ParseFloat(fields[3])
	if err != nil {
		return store.DecisionRecord{}, err
	}
	oddsHome, err := store.ParseNullDecimal(fields[5])
	if err != nil {
		return store.DecisionRecord{}, err
	}
	oddsAway, err := store.ParseNullDecimal(fields[6])
	if err != nil {
		return store.DecisionRecord{}, err
	}
	evHome, err := store.ParseNullDecimal(fields[7])
	if err != nil {
		return store.DecisionRecord{}, err
	}
	evAway, err := store.ParseNullDecimal(fields[8])
	if err != nil {
		return store.DecisionRecord{}, err
	}
	status := store.DecisionStatus(fields[11])
	if status != store.StatusPending && status != store.StatusGraded {
		return store.DecisionRecord{}, fmt.Errorf("unknown status %q", fields[11])
	}
	homeScore, err := store.ParseInt(fields[12])
	if err != nil {
		return store.DecisionRecord{}, err
	}
	awayScore, err := store.ParseInt(fields[13])
	if err != nil {
		return store.DecisionRecord{}, err
	}

	return store.DecisionRecord{
		Date:        date,
		Home:        fields[1],
		Away:        fields[2],
		HomeWinProb: prob,
		Confidence:  fields[4],
		OddsHome:    oddsHome,
		OddsAway:    oddsAway,
		EVHome:      evHome,
		EVAway:      evAway,
		Side:        store.BetSide(fields[9]),
		Reason:      store.SignalReason(fields[10]),
		Status:      status,
		HomeScore:   homeScore,
		AwayScore:   awayScore,
		Winner:      fields[14],
		Outcome:     store.Outcome(fields[15]),
	}, nil
}

func (r *DecisionRepository) Load() ([]store.DecisionRecord, error) {
	rows, err := store.ReadRows(r.path)
	if err != nil {
		return nil, err
	}
	out := make([]store.DecisionRecord, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		d, err := scanDecision(row)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, d)
	}
	if dropped > 0 {
		log.Printf("[store] dropped %d malformed rows from %s", dropped, DecisionsFile)
	}
	return out, nil
}

func (r *DecisionRepository) save(records []store.DecisionRecord) error {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date.Time) {
			return records[i].Date.Before(records[j].Date.Time)
		}
		return records[i].Home < records[j].Home
	})
	rows := make([][]string, len(records))
	for i, d := range records {
		rows[i] = decisionFields(d)
	}
	return store.WriteRows(r.path, decisionHeader(), rows)
}

// UpsertPending merges fresh decisions into the ledger. An existing GRADED
// record wins over any incoming record with the same key; re-running the
// decide stage must never resurrect a settled bet.
func (r *DecisionRepository) UpsertPending(fresh []store.DecisionRecord) (int, error) {
	existing, err := r.Load()
	if err != nil {
		return 0, err
	}

	byKey := make(map[string]store.DecisionRecord, len(existing)+len(fresh))
	for _, d := range existing {
		byKey[d.Key()] = d
	}
	upserted := 0
	for _, d := range fresh {
		if prev, ok := byKey[d.Key()]; ok && prev.Status == store.StatusGraded {
			continue
		}
		d.Status = store.StatusPending
		byKey[d.Key()] = d
		upserted++
	}

	merged := make([]store.DecisionRecord, 0, len(byKey))
	for _, d := range byKey {
		merged = append(merged, d)
	}
	if err := r.save(merged); err != nil {
		return 0, err
	}
	return upserted, nil
}

// SaveAll persists the full ledger; used by the grading reconciler after it
// has settled outcomes in memory.
func (r *DecisionRepository) SaveAll(records []store.DecisionRecord) error {
	all := make([]store.DecisionRecord, len(records))
	copy(all, records)
	return r.save(all)
}
