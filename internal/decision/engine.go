package decision

import (
	"github.com/shopspring/decimal"

	"github.com/fortuna/courtside/internal/store"
)

// ExpectedValue returns p*odds - 1 per unit staked, null when the odds are.
func ExpectedValue(prob float64, odds decimal.NullDecimal) decimal.NullDecimal {
	if !odds.Valid {
		return decimal.NullDecimal{}
	}
	p := decimal.NewFromFloat(prob)
	return decimal.NullDecimal{
		Decimal: p.Mul(odds.Decimal).Sub(decimal.NewFromInt(1)),
		Valid:   true,
	}
}

// exceeds reports whether a (possibly null) EV clears the gate. Null never
// clears anything.
func exceeds(ev decimal.NullDecimal, gate decimal.Decimal) bool {
	return ev.Valid && ev.Decimal.GreaterThan(gate)
}

// Decide applies the band policy to one matchup. The returned record is
// always PENDING; grading is the reconciler's job.
func Decide(pred store.PredictionRecord, odds store.OddsRecord, policy Policy) store.DecisionRecord {
	rec := store.DecisionRecord{
		Date:        pred.Date,
		Home:        pred.Home,
		Away:        pred.Away,
		HomeWinProb: pred.HomeWinProb,
		Confidence:  pred.Confidence,
		OddsHome:    odds.OddsHome,
		OddsAway:    odds.OddsAway,
		Status:      store.StatusPending,
	}
	rec.EVHome = ExpectedValue(pred.HomeWinProb, odds.OddsHome)
	rec.EVAway = ExpectedValue(1-pred.HomeWinProb, odds.OddsAway)

	rec.Side, rec.Reason = classify(pred.HomeWinProb, rec.EVHome, rec.EVAway, odds, policy)
	return rec
}

func classify(p float64, evHome, evAway decimal.NullDecimal, odds store.OddsRecord, policy Policy) (store.BetSide, store.SignalReason) {
	if !odds.OddsHome.Valid && !odds.OddsAway.Valid {
		return store.SideNone, store.ReasonNoOdds
	}

	zero := decimal.Zero

	switch {
	case p >= policy.LockHigh:
		if exceeds(evHome, policy.LockEdge) {
			return store.SideHome, store.ReasonLockHome
		}
		return store.SideNone, store.ReasonLowEdge

	case p < policy.LockLow:
		if exceeds(evAway, policy.LockEdge) {
			return store.SideAway, store.ReasonLockAway
		}
		return store.SideNone, store.ReasonLowEdge

	case p >= policy.OverconfidentLow:
		return store.SideNone, store.ReasonOverconfident

	case p >= policy.StrongLow:
		if exceeds(evHome, zero) {
			return store.SideHome, store.ReasonStrongHome
		}
		return store.SideNone, store.ReasonWatch

	case p < policy.SniperHigh:
		if exceeds(evAway, zero) {
			return store.SideAway, store.ReasonSniperAway
		}
		return store.SideNone, store.ReasonWatch

	case p >= policy.NoiseLow && p < policy.NoiseHigh:
		// Coin-flip band: only an outsized edge justifies a position.
		if exceeds(evHome, policy.HighEVEdge) {
			return store.SideHome, store.ReasonHighEVHome
		}
		if exceeds(evAway, policy.HighEVEdge) {
			return store.SideAway, store.ReasonHighEVAway
		}
		return store.SideNone, store.ReasonNoiseZone

	default:
		if exceeds(evHome, policy.HighEVEdge) {
			return store.SideHome, store.ReasonHighEVHome
		}
		if exceeds(evAway, policy.HighEVEdge) {
			return store.SideAway, store.ReasonHighEVAway
		}
		return store.SideNone, store.ReasonWatch
	}
}

// Run decides a full slate, pairing predictions with odds by home team.
// Predictions without an odds row decide as NO_ODDS.
func Run(preds []store.PredictionRecord, odds []store.OddsRecord, policy Policy) []store.DecisionRecord {
	oddsByHome := make(map[string]store.OddsRecord, len(odds))
	for _, o := range odds {
		oddsByHome[o.Date.String()+"_"+o.Home] = o
	}

	out := make([]store.DecisionRecord, 0, len(preds))
	for _, pred := range preds {
		o := oddsByHome[pred.Date.String()+"_"+pred.Home]
		o.Date, o.Home, o.Away = pred.Date, pred.Home, pred.Away
		out = append(out, Decide(pred, o, policy))
	}
	return out
}
