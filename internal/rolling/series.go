// Package rolling computes leak-free "before this game" aggregates over
// chronologically ordered game rows. Every rolling field in the system goes
// through BeforeGame so the shift-by-one rule lives in exactly one place.
package rolling

// BeforeGame returns, for each position i, the aggregate of the window of
// values strictly before i. Position 0 always gets def. A window of 0 or less
// means expanding (all prior values). The input is never mutated.
func BeforeGame(series []float64, window int, def float64, agg func([]float64) float64) []float64 {
	out := make([]float64, len(series))
	for i := range series {
		lo := 0
		if window > 0 && i-window > 0 {
			lo = i - window
		}
		if i == 0 {
			out[i] = def
			continue
		}
		out[i] = agg(series[lo:i])
	}
	return out
}

// Mean is the aggregate used by every averaged rolling field.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// StreakBefore returns the signed win/loss run entering each game: positive
// for consecutive wins, negative for consecutive losses, 0 before the first
// game. The value at i reflects results strictly before i.
func StreakBefore(wins []bool) []int {
	out := make([]int, len(wins))
	streak := 0
	for i, won := range wins {
		out[i] = streak
		if won {
			if streak > 0 {
				streak++
			} else {
				streak = 1
			}
		} else {
			if streak < 0 {
				streak--
			} else {
				streak = -1
			}
		}
	}
	return out
}

// safeDiv guards every ratio in the engine; a zero denominator yields 0.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
