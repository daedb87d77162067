package sweep_test

import (
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbodybench/internal/bench"
	"github.com/san-kum/nbodybench/internal/sweep"
)

var _ = Describe("Range", func() {
	DescribeTable("yields floor((stop-start)/step)+1 increasing values",
		func(r sweep.Range, want int) {
			values := slices.Collect(r.Values())

			Expect(r.Len()).To(Equal(want))
			Expect(values).To(HaveLen(want))
			Expect(values[0]).To(Equal(r.Start))
			for i := 1; i < len(values); i++ {
				Expect(values[i] - values[i-1]).To(Equal(r.Step))
			}
			Expect(values[len(values)-1]).To(BeNumerically("<=", r.Stop))
		},
		Entry("gpu pair sweep", sweep.Range{Start: 10, Stop: 4120, Step: 10}, 412),
		Entry("gpu barnes-hut sweep", sweep.Range{Start: 10, Stop: 90, Step: 10}, 9),
		Entry("stop off the grid", sweep.Range{Start: 10, Stop: 95, Step: 10}, 9),
		Entry("single value", sweep.Range{Start: 7, Stop: 7, Step: 3}, 1),
		Entry("unit step", sweep.Range{Start: 1, Stop: 5, Step: 1}, 5),
	)

	It("is restartable", func() {
		r := sweep.Range{Start: 10, Stop: 50, Step: 10}
		Expect(slices.Collect(r.Values())).To(Equal(slices.Collect(r.Values())))
	})

	DescribeTable("rejects invalid bounds",
		func(r sweep.Range) {
			Expect(r.Validate()).To(HaveOccurred())
			Expect(r.Len()).To(BeZero())
		},
		Entry("zero start", sweep.Range{Start: 0, Stop: 10, Step: 1}),
		Entry("zero step", sweep.Range{Start: 1, Stop: 10, Step: 0}),
		Entry("negative step", sweep.Range{Start: 1, Stop: 10, Step: -1}),
		Entry("stop below start", sweep.Range{Start: 20, Stop: 10, Step: 1}),
	)
})

var _ = Describe("Plan", func() {
	base := sweep.Plan{
		Bodies:         sweep.Range{Start: 10, Stop: 30, Step: 10},
		Iterations:     []int{1},
		SaveInterval:   10,
		Dts:            []float64{0.1},
		OutputFilename: "output.json",
	}

	It("holds every field but body count constant", func() {
		params := slices.Collect(base.All())

		Expect(params).To(Equal([]bench.Params{
			{Bodies: 10, Iterations: 1, SaveInterval: 10, Dt: 0.1, OutputFilename: "output.json"},
			{Bodies: 20, Iterations: 1, SaveInterval: 10, Dt: 0.1, OutputFilename: "output.json"},
			{Bodies: 30, Iterations: 1, SaveInterval: 10, Dt: 0.1, OutputFilename: "output.json"},
		}))
		Expect(base.Len()).To(Equal(3))
	})

	It("varies body count fastest across a grid", func() {
		grid := base
		grid.Iterations = []int{1, 5}
		grid.Dts = []float64{0.1, 0.8}

		params := slices.Collect(grid.All())
		Expect(params).To(HaveLen(grid.Len()))
		Expect(params).To(HaveLen(12))

		Expect(params[0].Bodies).To(Equal(10))
		Expect(params[2].Bodies).To(Equal(30))
		Expect(params[3]).To(Equal(bench.Params{Bodies: 10, Iterations: 1, SaveInterval: 10, Dt: 0.8, OutputFilename: "output.json"}))
		Expect(params[11]).To(Equal(bench.Params{Bodies: 30, Iterations: 5, SaveInterval: 10, Dt: 0.8, OutputFilename: "output.json"}))
	})

	It("validates held-constant fields", func() {
		bad := base
		bad.Dts = []float64{0.1, 0}
		Expect(bad.Validate()).To(MatchError(bench.ErrInvalidParams))

		bad = base
		bad.Iterations = nil
		Expect(bad.Validate()).To(HaveOccurred())

		bad = base
		bad.OutputFilename = ""
		Expect(bad.Validate()).To(MatchError(bench.ErrInvalidParams))

		Expect(base.Validate()).To(Succeed())
	})
})
