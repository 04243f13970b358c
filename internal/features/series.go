package features

import "math"

// Rolling and smoothing helpers over float64 series. Undefined values are NaN;
// every function propagates NaN the way a windowed computation must: a window
// that touches any NaN, or that extends past the start of the series, is NaN.

func rollingMean(x []float64, window int) []float64 {
	out := nanSlice(len(x))
	for i := window - 1; i < len(x); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(x[j]) {
				ok = false
				break
			}
			sum += x[j]
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingStd is the sample standard deviation (n-1 denominator).
func rollingStd(x []float64, window int) []float64 {
	out := nanSlice(len(x))
	for i := window - 1; i < len(x); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(x[j]) {
				ok = false
				break
			}
			sum += x[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := x[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// pctChange is the n-period relative change x[i]/x[i-n] - 1.
func pctChange(x []float64, n int) []float64 {
	out := nanSlice(len(x))
	for i := n; i < len(x); i++ {
		out[i] = (x[i] - x[i-n]) / x[i-n]
	}
	return out
}

// ewmMean is the span-based exponentially weighted mean with the weighting the
// training pipeline used: each point i is the weighted average of all samples
// up to i with weights (1-alpha)^k, alpha = 2/(span+1). The live and training
// paths must agree bit for bit, so this is not the plain recursive EMA.
func ewmMean(x []float64, span int) []float64 {
	out := nanSlice(len(x))
	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1.0 - alpha
	num, den := 0.0, 0.0
	for i, v := range x {
		num = num*decay + v
		den = den*decay + 1
		out[i] = num / den
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
