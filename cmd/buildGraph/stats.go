package main

import (
	"fmt"
	"sort"
)

// summary is the spread of one metric at one concurrency level.
type summary struct {
	x      float64 // category position on the X axis
	orig   float64 // producers + consumers
	low    float64 // average of the bottom 5%
	median float64
	high   float64 // average of the top 5%
}

// summaries implements plotter.XYer and plotter.YErrorer.
type summaries []summary

func (s summaries) Len() int                { return len(s) }
func (s summaries) XY(i int) (x, y float64) { return s[i].x, s[i].median }
func (s summaries) YError(i int) (low, high float64) {
	return s[i].median - s[i].low, s[i].high - s[i].median
}

// summarize turns the samples collected per concurrency level into sorted
// summaries. The input slices are sorted in place.
func summarize(samples map[float64][]float64) summaries {
	var out summaries
	for x, vals := range samples {
		if len(vals) == 0 {
			continue
		}
		sort.Float64s(vals)
		out = append(out, summary{
			x:      x,
			orig:   x,
			low:    averageOfRange(vals, 0.0, 0.05),
			median: median(vals),
			high:   averageOfRange(vals, 0.95, 1.0),
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].orig < out[b].orig })
	return out
}

// averageOfRange returns the average of sortedVals in [startFrac, endFrac) of
// its length, falling back to the median when that window is empty. The
// window size depends only on endFrac-startFrac, so the bottom and top 5%
// cover the same number of samples.
func averageOfRange(sortedVals []float64, startFrac, endFrac float64) float64 {
	n := len(sortedVals)
	if n == 0 {
		return 0
	}
	size := int(float64(n)*(endFrac-startFrac) + 1e-9)
	if size <= 0 {
		return median(sortedVals)
	}
	start := min(max(n-int(float64(n)*(1-startFrac)+1e-9), 0), n-size)
	sum := 0.0
	for _, v := range sortedVals[start : start+size] {
		sum += v
	}
	return sum / float64(size)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return 0.5 * (sorted[mid-1] + sorted[mid])
}

// formatNs nicely formats a nanoseconds value in ns, µs, ms, or s.
func formatNs(ns float64) string {
	switch {
	case ns < 1e3:
		return fmt.Sprintf("%.0fns", ns)
	case ns < 1e6:
		return fmt.Sprintf("%.1fµs", ns/1e3)
	case ns < 1e9:
		return fmt.Sprintf("%.1fms", ns/1e6)
	default:
		return fmt.Sprintf("%.2fs", ns/1e9)
	}
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
