package valuation

// MaxTotalWeight is the ceiling for the summed comp weights within one
// approach.
const MaxTotalWeight = 100.0

// Rebalance returns equal percentage shares for n comps, each rounded to 2
// decimals, with the final share absorbing the rounding remainder so the
// column always sums to exactly 100. Three comps yields 33.33, 33.33,
// 33.34. n < 1 returns nil.
func Rebalance(n int) []float64 {
	if n < 1 {
		return nil
	}
	each := Round2(100.0 / float64(n))
	out := make([]float64, n)
	for i := range out {
		out[i] = each
	}
	out[n-1] = Round2(100 - float64(n-1)*each)
	return out
}

// Sum totals a weight column.
func Sum(weights []float64) float64 {
	var t float64
	for _, w := range weights {
		t += w
	}
	return t
}

// ExceedsLimit reports whether a weight column is over the 100% ceiling.
// A small epsilon absorbs float drift from repeated 2-decimal edits.
func ExceedsLimit(weights []float64) bool {
	return Sum(weights) > MaxTotalWeight+1e-9
}
