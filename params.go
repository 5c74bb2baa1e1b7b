package cgloom

import "math"

const (
	// ln2 is the natural logarithm of 2.
	ln2 = 0.6931471805599453
	// ln2Squared is ln(2)^2.
	ln2Squared = 0.4804530139182014

	// MinK and MaxK bound the number of probes OptimalParams will suggest.
	MinK = 1
	MaxK = 32
)

// OptimalParams calculates the counter count and probe count for a filter
// expected to hold expectedItems distinct keys at the given false positive
// rate.
func OptimalParams(expectedItems uint64, fpRate float64) (size uint64, k uint64) {
	if expectedItems == 0 {
		expectedItems = 1
	}
	if fpRate <= 0 {
		fpRate = 0.0001 // default to 0.01%
	}
	if fpRate >= 1 {
		fpRate = 0.99
	}

	// Optimal slots per item: -ln(fpRate) / ln(2)^2
	slotsPerItem := -math.Log(fpRate) / ln2Squared
	size = uint64(math.Ceil(float64(expectedItems) * slotsPerItem))

	// Optimal k: (m/n) * ln(2)
	k = uint64(math.Round(float64(size) / float64(expectedItems) * ln2))
	k = max(k, MinK)
	k = min(k, MaxK)

	return size, k
}

// EstimateFalsePositiveRate estimates the false positive rate of a counting
// filter with size counters, k probes and the given sum over all counters.
//
// The effective number of distinct keys is taken to be sum/k, and the result
// is the classic bloom filter approximation (1 - e^(-k*n/m))^k. This treats
// the fill level of the counters as a stand-in for the fill ratio of a bit
// array, so it is only an estimate: it assumes no counter has saturated and
// that no key was removed more often than it was inserted.
//
// A filter with no counters or no probes matches every key, so its rate is 1.
func EstimateFalsePositiveRate(size, k, sum uint64) float64 {
	if size == 0 || k == 0 {
		return 1
	}

	m := float64(size)
	kf := float64(k)
	n := float64(sum) / kf

	// (1 - e^(-kn/m))^k
	return math.Pow(1-math.Exp(-kf*n/m), kf)
}
