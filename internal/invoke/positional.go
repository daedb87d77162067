package invoke

import (
	"strconv"

	"github.com/san-kum/nbodybench/internal/bench"
)

// PositionalArgs returns the five-argument form of p.
func PositionalArgs(p bench.Params) []string {
	return []string{
		strconv.Itoa(p.Bodies),
		strconv.Itoa(p.Iterations),
		strconv.Itoa(p.SaveInterval),
		FormatFloat(p.Dt),
		p.OutputFilename,
	}
}

// FormatFloat renders v in its shortest round-trippable form: 0.8 is "0.8".
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
