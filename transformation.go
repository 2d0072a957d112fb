// Package flow provides composable bijective transformations over
// batches of vectors, the building blocks of normalizing flows.
//
// A Transformation is a parametric bijection on a fixed-dimension
// vector space. Its Forward and Inverse methods map whole batches and
// report the per-sample log absolute determinant of the Jacobian, so a
// prior density can be pulled back through the map by the change of
// variables formula. Transformations are built through
// TransformationInit factories, which bind an input dimension and draw
// any initialization randomness from an explicit rng.Key.
//
// Batches are dense float64 tensors of shape (N, D): N samples, each
// with exactly D features.
package flow

import (
	"fmt"

	"github.com/samuelfneumann/flow/rng"
	"gorgonia.org/tensor"
)

// Params is an opaque, immutable set of learnable parameters. It may be
// empty. Parameters are owned by the caller and supplied explicitly on
// every Forward and Inverse call, so they can be updated externally
// between calls.
type Params []*tensor.Dense

// Transformation is a parametric bijection on a fixed-dimension vector
// space with a tractable Jacobian determinant.
//
// For any parameter value, Forward and Inverse must be exact functional
// inverses of each other: composing one after the other is the identity
// on the batch, and the two log determinants are negatives of each
// other to floating point tolerance. Nothing at runtime checks this;
// it is the correctness contract each implementation must test.
type Transformation interface {
	// InputDim returns the fixed number of features per sample.
	InputDim() int

	// Forward maps a batch from data space to latent space. It
	// returns the transformed (N, D) batch and a length-N vector
	// holding, per sample, the log absolute determinant of the
	// Jacobian of the forward map at that sample.
	Forward(params Params, x *tensor.Dense) (*tensor.Dense, []float64,
		error)

	// Inverse maps a batch from latent space back to data space. It
	// is the exact inverse of Forward for the same params, and its
	// log determinants are the negatives of Forward's.
	Inverse(params Params, x *tensor.Dense) (*tensor.Dense, []float64,
		error)
}

// TransformationInit constructs a Transformation bound to inputDim,
// drawing any initialization randomness from key. It returns the
// transformation's initial parameters alongside the transformation
// itself.
type TransformationInit func(key rng.Key, inputDim int) (Params,
	Transformation, error)

// Identity returns an initializer for the identity transformation:
// forward and inverse both return their input unchanged with a log
// determinant of zero. It has no parameters.
func Identity() TransformationInit {
	return func(key rng.Key, inputDim int) (Params, Transformation,
		error) {
		if inputDim <= 0 {
			return nil, nil, fmt.Errorf("identity: %w: input dimension "+
				"must be positive but got %d", ErrInvalidParameter,
				inputDim)
		}

		return nil, &identity{inputDim: inputDim}, nil
	}
}

type identity struct {
	inputDim int
}

func (id *identity) InputDim() int { return id.inputDim }

func (id *identity) Forward(params Params, x *tensor.Dense) (*tensor.Dense,
	[]float64, error) {
	if err := CheckBatch(x, id.inputDim); err != nil {
		return nil, nil, fmt.Errorf("forward: %w", err)
	}

	return x, make([]float64, x.Shape()[0]), nil
}

func (id *identity) Inverse(params Params, x *tensor.Dense) (*tensor.Dense,
	[]float64, error) {
	if err := CheckBatch(x, id.inputDim); err != nil {
		return nil, nil, fmt.Errorf("inverse: %w", err)
	}

	return x, make([]float64, x.Shape()[0]), nil
}
