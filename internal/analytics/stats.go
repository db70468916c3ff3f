package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MinRows is the smallest window any analyzer accepts
const MinRows = 30

// present returns the non-NaN values of xs
func present(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// pairwiseComplete keeps positions where both xs[i] and ys[i] are present
func pairwiseComplete(xs, ys []float64) ([]float64, []float64) {
	a := make([]float64, 0, len(xs))
	b := make([]float64, 0, len(ys))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		a = append(a, xs[i])
		b = append(b, ys[i])
	}
	return a, b
}

// meanStd returns the mean and sample standard deviation (n-1) of values.
// The deviation is 0 for fewer than two values.
func meanStd(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return math.NaN(), 0
	case 1:
		return values[0], 0
	}
	mean, std = stat.MeanStdDev(values, nil)
	return mean, std
}

// populationStd is the ddof=0 deviation used for feature standardization
func populationStd(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(values, nil)
	return std
}

func isConstant(values []float64) bool {
	if len(values) == 0 {
		return true
	}
	return floats.Max(values) == floats.Min(values)
}

// pearson computes r and its two-tailed p-value for equal-length samples.
// ok is false when either side has zero variance.
func pearson(xs, ys []float64) (r, pValue float64, ok bool) {
	n := len(xs)
	if n < 2 || isConstant(xs) || isConstant(ys) {
		return 0, 1, false
	}

	r = stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0, 1, false
	}
	// rounding can push |r| past 1 for perfectly linear data
	r = math.Max(-1, math.Min(1, r))

	return r, correlationPValue(r, n), true
}

// correlationPValue tests H0: rho = 0 with Student's t on n-2 degrees of freedom
func correlationPValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	return twoTailedT(t, df)
}

func twoTailedT(t, df float64) float64 {
	if math.IsNaN(t) {
		return 1
	}
	if math.IsInf(t, 0) {
		return 0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	return math.Max(0, math.Min(1, p))
}

// studentTTest runs the pooled-variance two-sample t-test.
// ok is false when either group has fewer than two values or both groups
// have zero variance.
func studentTTest(a, b []float64) (t, pValue float64, ok bool) {
	na, nb := len(a), len(b)
	if na < 2 || nb < 2 {
		return 0, 1, false
	}

	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)

	df := float64(na + nb - 2)
	pooled := (float64(na-1)*varA + float64(nb-1)*varB) / df
	if pooled == 0 {
		if meanA == meanB {
			return 0, 1, false
		}
		return math.Copysign(math.Inf(1), meanA-meanB), 0, true
	}

	se := math.Sqrt(pooled * (1/float64(na) + 1/float64(nb)))
	t = (meanA - meanB) / se
	return t, twoTailedT(t, df), true
}

// quantile returns the linearly interpolated q-quantile (0..1) of values
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
