package distribution

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/flow"
	"github.com/samuelfneumann/flow/rng"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gorgonia.org/tensor"
)

// GMM returns an initializer for a finite mixture of multivariate
// Gaussians, specified by one (mean, covariance, weight) triple per
// component. The mixture specification is fixed configuration, so the
// distribution's parameter value is empty.
//
// Weights must be non-negative and are used exactly as given, never
// renormalized. Sampling treats them as relative weights, so it stays
// well-defined when they do not sum to 1; LogProb adds log(weight)
// verbatim, so in that case the reported values are no longer a
// calibrated density. Normalization is the caller's obligation.
//
// Mismatched component counts or dimensions surface as
// ErrShapeMismatch at initialization. A covariance that is not
// positive definite surfaces as ErrInvalidParameter at the first
// LogProb or Sample call.
func GMM(means [][]float64, covariances []*mat.SymDense,
	weights []float64) DistributionInit {
	return func(key rng.Key, inputDim int) (flow.Params, Distribution,
		error) {
		if inputDim <= 0 {
			return nil, nil, fmt.Errorf("gmm: %w: input dimension must "+
				"be positive but got %d", flow.ErrInvalidParameter,
				inputDim)
		}

		if len(means) != len(covariances) ||
			len(means) != len(weights) {
			return nil, nil, fmt.Errorf("gmm: %w: got %d means, %d "+
				"covariances, and %d weights", flow.ErrShapeMismatch,
				len(means), len(covariances), len(weights))
		}
		if len(means) == 0 {
			return nil, nil, fmt.Errorf("gmm: %w: expected at least "+
				"one component", flow.ErrInvalidParameter)
		}

		for k := range means {
			if len(means[k]) != inputDim {
				return nil, nil, fmt.Errorf("gmm: %w: expected mean %d "+
					"to have %d elements but got %d",
					flow.ErrShapeMismatch, k, inputDim, len(means[k]))
			}
			if covariances[k] == nil ||
				covariances[k].Symmetric() != inputDim {
				return nil, nil, fmt.Errorf("gmm: %w: expected "+
					"covariance %d to be %d×%d", flow.ErrShapeMismatch,
					k, inputDim, inputDim)
			}
		}

		return nil, &gmm{
			means:       means,
			covariances: covariances,
			weights:     weights,
			inputDim:    inputDim,
		}, nil
	}
}

type gmm struct {
	means       [][]float64
	covariances []*mat.SymDense
	weights     []float64
	inputDim    int
}

func (g *gmm) InputDim() int { return g.inputDim }

// component returns the multivariate normal of component k, with src
// driving its sampling. A nil src is legal for density evaluation.
func (g *gmm) component(k int, src *rng.Key) (*distmv.Normal, error) {
	if g.weights[k] < 0 {
		return nil, fmt.Errorf("%w: weight %d is negative (%v)",
			flow.ErrInvalidParameter, k, g.weights[k])
	}

	var dist *distmv.Normal
	var ok bool
	if src == nil {
		dist, ok = distmv.NewNormal(g.means[k], g.covariances[k], nil)
	} else {
		dist, ok = distmv.NewNormal(g.means[k], g.covariances[k],
			src.Source())
	}
	if !ok {
		return nil, fmt.Errorf("%w: covariance %d is not positive "+
			"definite", flow.ErrInvalidParameter, k)
	}

	return dist, nil
}

// LogProb computes, per component, log(weight) plus the component's
// multivariate normal log density, then reduces across components with
// a stable log-sum-exp per sample.
func (g *gmm) LogProb(params flow.Params, x *tensor.Dense) ([]float64,
	error) {
	if err := flow.CheckBatch(x, g.inputDim); err != nil {
		return nil, fmt.Errorf("logProb: %w", err)
	}

	numSamples := x.Shape()[0]
	numComponents := len(g.means)
	data := x.Data().([]float64)

	// clusterLLs[k*numSamples+i] holds the weighted log density of
	// sample i under component k
	clusterLLs := make([]float64, numComponents*numSamples)
	for k := 0; k < numComponents; k++ {
		dist, err := g.component(k, nil)
		if err != nil {
			return nil, fmt.Errorf("logProb: %w", err)
		}

		logWeight := math.Log(g.weights[k])
		for i := 0; i < numSamples; i++ {
			row := data[i*g.inputDim : (i+1)*g.inputDim]
			clusterLLs[k*numSamples+i] = logWeight + dist.LogProb(row)
		}
	}

	logProbs := make([]float64, numSamples)
	scratch := make([]float64, numComponents)
	for i := range logProbs {
		for k := range scratch {
			scratch[k] = clusterLLs[k*numSamples+i]
		}
		logProbs[i] = floats.LogSumExp(scratch)
	}

	if err := checkNaN(logProbs); err != nil {
		return nil, fmt.Errorf("logProb: %w", err)
	}

	return logProbs, nil
}

// Sample draws a full candidate batch from every component, each from
// its own split of key, then draws one categorical component index per
// requested sample from a further split and selects that sample's
// candidate. Keeping whole candidate batches per component keeps each
// component's draw on a single stream.
func (g *gmm) Sample(key rng.Key, params flow.Params, numSamples int) (
	*tensor.Dense, error) {
	if numSamples <= 0 {
		return nil, fmt.Errorf("sample: %w: number of samples must be "+
			"positive but got %d", flow.ErrInvalidParameter, numSamples)
	}

	numComponents := len(g.means)
	keys := key.SplitN(numComponents + 1)

	candidates := make([][]float64, numComponents)
	for k := 0; k < numComponents; k++ {
		dist, err := g.component(k, &keys[k])
		if err != nil {
			return nil, fmt.Errorf("sample: %w", err)
		}

		buf := make([]float64, numSamples*g.inputDim)
		for i := 0; i < numSamples; i++ {
			dist.Rand(buf[i*g.inputDim : (i+1)*g.inputDim])
		}
		candidates[k] = buf
	}

	idx, err := keys[numComponents].Categorical(g.weights, numSamples)
	if err != nil {
		return nil, fmt.Errorf("sample: %w: %v",
			flow.ErrInvalidParameter, err)
	}

	backing := make([]float64, numSamples*g.inputDim)
	for i, k := range idx {
		copy(backing[i*g.inputDim:(i+1)*g.inputDim],
			candidates[k][i*g.inputDim:(i+1)*g.inputDim])
	}

	return tensor.NewDense(
		tensor.Float64,
		[]int{numSamples, g.inputDim},
		tensor.WithBacking(backing),
	), nil
}
