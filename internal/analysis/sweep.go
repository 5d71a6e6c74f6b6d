package analysis

import (
	"fmt"
)

// SweepPoint holds the distinct late-run values seen for one parameter
// value.
type SweepPoint struct {
	Param  float64
	Values []float64
}

// Sweep evaluates run for each parameter value and keeps the distinct
// values of the returned series after the first skip samples, quantized
// to 1e-3. A chain that settles contributes one value; one that keeps
// swinging contributes a band.
func Sweep(params []float64, skip int, run func(p float64) ([]float64, error)) ([]SweepPoint, error) {
	results := make([]SweepPoint, 0, len(params))
	for _, p := range params {
		series, err := run(p)
		if err != nil {
			return results, fmt.Errorf("sweep at %g: %w", p, err)
		}

		values := make([]float64, 0)
		seen := make(map[int]bool)
		for i := skip; i < len(series); i++ {
			key := int(series[i] * 1000)
			if !seen[key] {
				seen[key] = true
				values = append(values, series[i])
			}
		}

		results = append(results, SweepPoint{Param: p, Values: values})
	}
	return results, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// SweepToASCII plots every value of every point, parameter along x.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	var minVal, maxVal float64
	foundFirst := false
	for _, p := range data {
		for _, v := range p.Values {
			if !foundFirst {
				minVal, maxVal = v, v
				foundFirst = true
				continue
			}
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	if !foundFirst {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := newRuneGrid(width, height)
	for i, p := range data {
		col := i * width / len(data)
		if col >= width {
			col = width - 1
		}
		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}
	return gridString(canvas)
}
