package simulation

// DefaultPriorWeight is the pseudo-sample size given to the prior rate.
const DefaultPriorWeight = 5.0

// ShrinkRate blends an observed conversion rate with a prior, weighted by sample size n:
// (n*observed + priorWeight*prior) / (n + priorWeight).
// With n = 0 the prior is returned exactly; as n grows the result approaches observed.
func ShrinkRate(observed, prior float64, n int, priorWeight float64) float64 {
	if n <= 0 {
		return prior
	}
	if priorWeight < 0 {
		priorWeight = 0
	}
	fn := float64(n)
	return (fn*observed + priorWeight*prior) / (fn + priorWeight)
}
