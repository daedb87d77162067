package sweep

import (
	"fmt"
	"iter"
)

// Range is an inclusive integer range walked in fixed steps.
// Range{10, 4120, 10} yields 10, 20, ..., 4120.
type Range struct {
	Start int `yaml:"start"`
	Stop  int `yaml:"stop"`
	Step  int `yaml:"step"`
}

func (r Range) Validate() error {
	if r.Start <= 0 {
		return fmt.Errorf("range start must be positive, got %d", r.Start)
	}
	if r.Step <= 0 {
		return fmt.Errorf("range step must be positive, got %d", r.Step)
	}
	if r.Stop < r.Start {
		return fmt.Errorf("range stop %d is below start %d", r.Stop, r.Start)
	}
	return nil
}

// Len is floor((Stop-Start)/Step)+1 for a valid range and 0 otherwise.
func (r Range) Len() int {
	if r.Validate() != nil {
		return 0
	}
	return (r.Stop-r.Start)/r.Step + 1
}

// Values yields the range in increasing order. Each call starts over.
func (r Range) Values() iter.Seq[int] {
	return func(yield func(int) bool) {
		n := r.Len()
		for i := 0; i < n; i++ {
			if !yield(r.Start + i*r.Step) {
				return
			}
		}
	}
}

func (r Range) String() string {
	return fmt.Sprintf("%d..%d step %d", r.Start, r.Stop, r.Step)
}
