package stats

import "slices"

// PercentileIndex returns the truncating index floor(n*p) into a sorted sample of length n,
// clamped to the last element.
func PercentileIndex(n int, p float64) int {
	if n <= 0 {
		return 0
	}
	idx := int(float64(n) * p)
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// PercentileDiscrete reads the p-th percentile from an already sorted slice of integers.
func PercentileDiscrete(sorted []int, p float64) int {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[PercentileIndex(len(sorted), p)]
}

// CalculateMedianDiscrete finds the median value in a slice of integers.
func CalculateMedianDiscrete(values []int) float64 {
	if len(values) == 0 {
		return 0
	}

	// Work on a copy to avoid mutating the original
	temp := make([]int, len(values))
	copy(temp, values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return float64(temp[n/2])
	}
	return float64(temp[n/2-1]+temp[n/2]) / 2.0
}

// Mean returns the arithmetic mean of values, or 0 when empty.
func Mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
