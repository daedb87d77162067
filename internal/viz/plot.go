package viz

import (
	"sort"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/nbodybench/internal/bench"
)

// TimingSeries returns execution times of successful runs ordered by body
// count, with the matching body counts.
func TimingSeries(records []bench.Record) (bodies []int, ms []float64) {
	ok := make([]bench.Record, 0, len(records))
	for _, r := range records {
		if !r.Failed() {
			ok = append(ok, r)
		}
	}
	sort.SliceStable(ok, func(i, j int) bool { return ok[i].Bodies < ok[j].Bodies })

	for _, r := range ok {
		bodies = append(bodies, r.Bodies)
		ms = append(ms, float64(r.ExecutionTimeMs))
	}
	return bodies, ms
}

// PlotTimings charts execution time by body count. An empty string
// means there was nothing to plot.
func PlotTimings(records []bench.Record, width, height int, caption string) string {
	_, ms := TimingSeries(records)
	if len(ms) == 0 {
		return ""
	}
	if len(ms) == 1 {
		ms = append(ms, ms[0])
	}
	return asciigraph.Plot(ms,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption))
}
