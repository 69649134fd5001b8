// Package decision turns predictions plus odds into betting signals through
// a probability-band policy with expected-value gates.
package decision

import "github.com/shopspring/decimal"

// Policy holds the band boundaries and EV gates. Bands are half-open
// [low, high) on the home win probability.
type Policy struct {
	// Probabilities at or beyond these are lock territory.
	LockHigh float64 // p >= LockHigh
	LockLow  float64 // p < LockLow

	// [OverconfidentLow, LockHigh) is forced to pass: historically the
	// band where the model's confidence outruns its calibration.
	OverconfidentLow float64

	// [StrongLow, OverconfidentLow) home, (LockLow, SniperHigh] away:
	// bet on any positive EV.
	StrongLow  float64
	SniperHigh float64

	// [NoiseLow, NoiseHigh) passes unless the EV exception fires.
	NoiseLow  float64
	NoiseHigh float64

	// EV gates. Locks need LockEdge; everything outside the strong and
	// sniper bands needs HighEVEdge.
	LockEdge   decimal.Decimal
	HighEVEdge decimal.Decimal
}

// DefaultPolicy mirrors the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		LockHigh:         0.90,
		LockLow:          0.20,
		OverconfidentLow: 0.80,
		StrongLow:        0.70,
		SniperHigh:       0.30,
		NoiseLow:         0.40,
		NoiseHigh:        0.60,
		LockEdge:         decimal.NewFromFloat(0.05),
		HighEVEdge:       decimal.NewFromFloat(0.15),
	}
}
