package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/nbodybench/internal/bench"
)

// ErrTooFewPoints is returned when fewer than two distinct body counts
// have successful timings.
var ErrTooFewPoints = errors.New("need at least two successful body counts")

// Fit is a power law t = Coefficient * N^Exponent fitted in log-log space.
type Fit struct {
	Exponent    float64
	Coefficient float64
	RSquared    float64
	Points      int
}

// Predict returns the fitted time in milliseconds for n bodies.
func (f Fit) Predict(n int) float64 {
	return f.Coefficient * math.Pow(float64(n), f.Exponent)
}

// Stats summarizes the successful runs for one body count.
type Stats struct {
	Bodies   int
	Runs     int
	Failed   int
	MeanMs   float64
	StdDevMs float64
	MinMs    int64
	MaxMs    int64
}

// ByBodies groups records by body count in ascending order. Failed runs are
// counted but excluded from the timing figures.
func ByBodies(records []bench.Record) []Stats {
	groups := make(map[int][]bench.Record)
	for _, r := range records {
		groups[r.Bodies] = append(groups[r.Bodies], r)
	}

	out := make([]Stats, 0, len(groups))
	for bodies, recs := range groups {
		s := Stats{Bodies: bodies}
		var times []float64
		for _, r := range recs {
			if r.Failed() {
				s.Failed++
				continue
			}
			if len(times) == 0 || r.ExecutionTimeMs < s.MinMs {
				s.MinMs = r.ExecutionTimeMs
			}
			if r.ExecutionTimeMs > s.MaxMs {
				s.MaxMs = r.ExecutionTimeMs
			}
			times = append(times, float64(r.ExecutionTimeMs))
		}
		s.Runs = len(times)
		switch len(times) {
		case 0:
		case 1:
			s.MeanMs = times[0]
		default:
			s.MeanMs, s.StdDevMs = stat.MeanStdDev(times, nil)
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Bodies < out[j].Bodies })
	return out
}

// FitScaling regresses log(mean time) on log(bodies). Groups without a
// positive mean time are skipped since they have no logarithm.
func FitScaling(records []bench.Record) (Fit, error) {
	var xs, ys []float64
	for _, s := range ByBodies(records) {
		if s.Runs == 0 || s.MeanMs <= 0 {
			continue
		}
		xs = append(xs, math.Log(float64(s.Bodies)))
		ys = append(ys, math.Log(s.MeanMs))
	}
	if len(xs) < 2 {
		return Fit{}, ErrTooFewPoints
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return Fit{
		Exponent:    beta,
		Coefficient: math.Exp(alpha),
		RSquared:    stat.RSquared(xs, ys, nil, alpha, beta),
		Points:      len(xs),
	}, nil
}
