package distribution

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/flow"
)

// checkNaN reports ErrNumericalDegeneracy if any computed log density
// is NaN. -Inf is a legal log density for out-of-support inputs and
// passes.
func checkNaN(logProbs []float64) error {
	for i, lp := range logProbs {
		if math.IsNaN(lp) {
			return fmt.Errorf("%w: log density of sample %d is NaN",
				flow.ErrNumericalDegeneracy, i)
		}
	}

	return nil
}
