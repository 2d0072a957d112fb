package distribution

import (
	"fmt"

	"github.com/samuelfneumann/flow"
	"github.com/samuelfneumann/flow/rng"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/tensor"
)

// Normal returns an initializer for a distribution whose coordinates
// are independent univariate normals, each with the given location and
// scale. The location and scale are fixed configuration, not learnable
// parameters, so the distribution's parameter value is empty.
//
// The log density of a sample is the sum of its per-coordinate log
// densities. A non-positive scale surfaces as ErrInvalidParameter at
// the first LogProb or Sample call.
func Normal(loc, scale float64) DistributionInit {
	return func(key rng.Key, inputDim int) (flow.Params, Distribution,
		error) {
		if inputDim <= 0 {
			return nil, nil, fmt.Errorf("normal: %w: input dimension "+
				"must be positive but got %d", flow.ErrInvalidParameter,
				inputDim)
		}

		return nil, &normal{
			loc:      loc,
			scale:    scale,
			inputDim: inputDim,
		}, nil
	}
}

type normal struct {
	loc, scale float64
	inputDim   int
}

func (n *normal) InputDim() int { return n.inputDim }

func (n *normal) LogProb(params flow.Params, x *tensor.Dense) ([]float64,
	error) {
	if err := flow.CheckBatch(x, n.inputDim); err != nil {
		return nil, fmt.Errorf("logProb: %w", err)
	}
	if n.scale <= 0 {
		return nil, fmt.Errorf("logProb: %w: scale must be positive "+
			"but got %v", flow.ErrInvalidParameter, n.scale)
	}

	dist := distuv.Normal{Mu: n.loc, Sigma: n.scale}

	data := x.Data().([]float64)
	logProbs := make([]float64, x.Shape()[0])
	for i, v := range data {
		logProbs[i/n.inputDim] += dist.LogProb(v)
	}

	if err := checkNaN(logProbs); err != nil {
		return nil, fmt.Errorf("logProb: %w", err)
	}

	return logProbs, nil
}

func (n *normal) Sample(key rng.Key, params flow.Params,
	numSamples int) (*tensor.Dense, error) {
	if numSamples <= 0 {
		return nil, fmt.Errorf("sample: %w: number of samples must be "+
			"positive but got %d", flow.ErrInvalidParameter, numSamples)
	}
	if n.scale <= 0 {
		return nil, fmt.Errorf("sample: %w: scale must be positive "+
			"but got %v", flow.ErrInvalidParameter, n.scale)
	}

	dist := distuv.Normal{Mu: n.loc, Sigma: n.scale, Src: key.Source()}

	backing := make([]float64, numSamples*n.inputDim)
	for i := range backing {
		backing[i] = dist.Rand()
	}

	return tensor.NewDense(
		tensor.Float64,
		[]int{numSamples, n.inputDim},
		tensor.WithBacking(backing),
	), nil
}
