package sweep

import (
	"fmt"
	"iter"

	"github.com/san-kum/nbodybench/internal/bench"
)

// Plan describes every configuration of one sweep. Body count is the swept
// variable; when more than one iteration count or timestep is listed the
// plan is their cartesian product, with body count varying fastest.
type Plan struct {
	Bodies         Range
	Iterations     []int
	SaveInterval   int
	Dts            []float64
	OutputFilename string
}

func (p Plan) Validate() error {
	if err := p.Bodies.Validate(); err != nil {
		return fmt.Errorf("bodies: %w", err)
	}
	if len(p.Iterations) == 0 {
		return fmt.Errorf("at least one iteration count is required")
	}
	if len(p.Dts) == 0 {
		return fmt.Errorf("at least one timestep is required")
	}
	// checking one representative per axis value covers every generated set
	probe := bench.Params{Bodies: p.Bodies.Start, SaveInterval: p.SaveInterval, OutputFilename: p.OutputFilename}
	for _, it := range p.Iterations {
		for _, dt := range p.Dts {
			probe.Iterations, probe.Dt = it, dt
			if err := probe.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p Plan) Len() int {
	return p.Bodies.Len() * len(p.Iterations) * len(p.Dts)
}

// All yields the plan's parameter sets in sweep order. Each call starts over.
func (p Plan) All() iter.Seq[bench.Params] {
	return func(yield func(bench.Params) bool) {
		for _, it := range p.Iterations {
			for _, dt := range p.Dts {
				for n := range p.Bodies.Values() {
					params := bench.Params{
						Bodies:         n,
						Iterations:     it,
						SaveInterval:   p.SaveInterval,
						Dt:             dt,
						OutputFilename: p.OutputFilename,
					}
					if !yield(params) {
						return
					}
				}
			}
		}
	}
}
