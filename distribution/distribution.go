// Package distribution provides probability distributions over batches
// of fixed-dimension vectors.
//
// A Distribution evaluates per-sample log densities and draws batches
// of samples. Learnable parameters are supplied explicitly on every
// call; fixed configuration such as a base distribution's location and
// scale is closed over at construction and never exposed. Randomness is
// threaded through explicit rng.Key tokens, never through ambient
// state, so every sampling computation is deterministic given its key.
//
// A Flow composes a flow.Transformation with a prior Distribution and
// is itself a Distribution, so flows nest as priors of other flows
// without changing the caller-facing contract.
package distribution

import (
	"github.com/samuelfneumann/flow"
	"github.com/samuelfneumann/flow/rng"
	"gorgonia.org/tensor"
)

// Distribution is a probability distribution over real vectors of a
// fixed dimension.
type Distribution interface {
	// InputDim returns the fixed number of features per sample.
	InputDim() int

	// LogProb returns the log probability density of each sample in
	// an (N, D) batch as a length-N vector. Densities of independent
	// coordinates are summed across the feature axis. The result is
	// finite or -Inf for any real-valued batch; NaN is reported as an
	// error, never returned in the vector.
	LogProb(params flow.Params, x *tensor.Dense) ([]float64, error)

	// Sample draws numSamples vectors as an (N, D) batch, consuming
	// key deterministically: the same key and params always produce
	// the same batch.
	Sample(key rng.Key, params flow.Params, numSamples int) (
		*tensor.Dense, error)
}

// DistributionInit constructs a Distribution bound to inputDim, drawing
// any initialization randomness from key. It returns the distribution's
// initial parameters alongside the distribution itself.
type DistributionInit func(key rng.Key, inputDim int) (flow.Params,
	Distribution, error)
