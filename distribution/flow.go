package distribution

import (
	"fmt"

	"github.com/samuelfneumann/flow"
	"github.com/samuelfneumann/flow/rng"
	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

// Flow returns an initializer for the distribution obtained by
// composing a transformation with a prior distribution. Initialization
// splits the key into one stream for the transformation and one for
// the prior, so the two are seeded independently.
//
// The returned parameter value holds the transformation's parameters
// only: those stay external and learnable. The prior's parameters are
// captured at initialization and are fixed for the flow's lifetime.
//
// The flow's log density follows the change of variables formula
//
//	log p(x) = priorLogProb(forward(x)) + logDet(x)
//
// summed elementwise per sample, and sampling pushes prior samples
// through the transformation's inverse, never touching the forward
// map. Since a Flow is itself a Distribution, flows may serve as
// priors of other flows.
func Flow(transformation flow.TransformationInit,
	prior DistributionInit) DistributionInit {
	return func(key rng.Key, inputDim int) (flow.Params, Distribution,
		error) {
		transKey, priorKey := key.Split()

		transParams, trans, err := transformation(transKey, inputDim)
		if err != nil {
			return nil, nil, fmt.Errorf("flow: %w", err)
		}

		priorParams, priorDist, err := prior(priorKey, inputDim)
		if err != nil {
			return nil, nil, fmt.Errorf("flow: %w", err)
		}

		return transParams, &flowDistribution{
			inputDim:       inputDim,
			transformation: trans,
			prior:          priorDist,
			priorParams:    priorParams,
		}, nil
	}
}

type flowDistribution struct {
	inputDim       int
	transformation flow.Transformation

	prior       Distribution
	priorParams flow.Params
}

func (f *flowDistribution) InputDim() int { return f.inputDim }

func (f *flowDistribution) LogProb(params flow.Params,
	x *tensor.Dense) ([]float64, error) {
	u, logDet, err := f.transformation.Forward(params, x)
	if err != nil {
		return nil, fmt.Errorf("logProb: %w", err)
	}

	logProbs, err := f.prior.LogProb(f.priorParams, u)
	if err != nil {
		return nil, fmt.Errorf("logProb: %w", err)
	}

	floats.Add(logProbs, logDet)

	return logProbs, nil
}

func (f *flowDistribution) Sample(key rng.Key, params flow.Params,
	numSamples int) (*tensor.Dense, error) {
	u, err := f.prior.Sample(key, f.priorParams, numSamples)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}

	x, _, err := f.transformation.Inverse(params, u)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}

	return x, nil
}
