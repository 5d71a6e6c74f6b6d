package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DecayRate fits ln|peak| = a - rate*t through the local extrema of the
// mean-removed series and returns rate in 1/s. A ringing chain gives a
// positive rate; fewer than two peaks gives 0.
func DecayRate(series []float64, dt float64) float64 {
	if len(series) < 3 || dt <= 0 {
		return 0
	}
	mean := stat.Mean(series, nil)

	var ts, logs []float64
	for i := 1; i < len(series)-1; i++ {
		prev, cur, next := series[i-1]-mean, series[i]-mean, series[i+1]-mean
		peak := (cur > prev && cur >= next) || (cur < prev && cur <= next)
		if !peak || cur == 0 {
			continue
		}
		ts = append(ts, float64(i)*dt)
		logs = append(logs, math.Log(math.Abs(cur)))
	}
	if len(ts) < 2 {
		return 0
	}

	_, beta := stat.LinearRegression(ts, logs, nil, false)
	return -beta
}

// Divergence estimates how fast two runs of the same rig separate, as the
// mean of ln(d(t)/d0)/t over the frames. The series are compared
// pointwise; d0 is their first separation. Negative values mean the runs
// converge, which is what damping should do.
func Divergence(a, b []float64, dt float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 || dt <= 0 {
		return 0
	}

	d0 := math.Abs(a[0] - b[0])
	if d0 == 0 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := 1; i < n; i++ {
		sep := math.Abs(a[i] - b[i])
		if sep == 0 {
			continue
		}
		sum += math.Log(sep/d0) / (float64(i) * dt)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
