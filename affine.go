package flow

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/flow/rng"
	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

// Affine returns an initializer for an elementwise affine
// transformation with learnable parameters. Its parameter value is two
// length-D vectors [logScale, shift], both zero-initialized so the
// transformation starts as the identity map. The forward map is
//
//	u_j = x_j * exp(logScale_j) + shift_j
//
// with a per-sample log determinant of sum(logScale), constant across
// the batch. The inverse map is the exact algebraic inverse with the
// negated log determinant.
func Affine() TransformationInit {
	return func(key rng.Key, inputDim int) (Params, Transformation,
		error) {
		if inputDim <= 0 {
			return nil, nil, fmt.Errorf("affine: %w: input dimension "+
				"must be positive but got %d", ErrInvalidParameter,
				inputDim)
		}

		logScale := tensor.NewDense(
			tensor.Float64,
			[]int{inputDim},
			tensor.WithBacking(make([]float64, inputDim)),
		)
		shift := tensor.NewDense(
			tensor.Float64,
			[]int{inputDim},
			tensor.WithBacking(make([]float64, inputDim)),
		)

		return Params{logScale, shift}, &affine{inputDim: inputDim}, nil
	}
}

type affine struct {
	inputDim int
}

func (a *affine) InputDim() int { return a.inputDim }

func (a *affine) Forward(params Params, x *tensor.Dense) (*tensor.Dense,
	[]float64, error) {
	logScale, shift, err := a.unpack(params, x)
	if err != nil {
		return nil, nil, fmt.Errorf("forward: %w", err)
	}

	numSamples := x.Shape()[0]
	in := x.Data().([]float64)
	out := make([]float64, numSamples*a.inputDim)

	scale := make([]float64, a.inputDim)
	for j, ls := range logScale {
		scale[j] = math.Exp(ls)
	}

	for i := 0; i < numSamples; i++ {
		for j := 0; j < a.inputDim; j++ {
			out[i*a.inputDim+j] = in[i*a.inputDim+j]*scale[j] + shift[j]
		}
	}

	batch := tensor.NewDense(
		tensor.Float64,
		[]int{numSamples, a.inputDim},
		tensor.WithBacking(out),
	)

	return batch, constants(floats.Sum(logScale), numSamples), nil
}

func (a *affine) Inverse(params Params, x *tensor.Dense) (*tensor.Dense,
	[]float64, error) {
	logScale, shift, err := a.unpack(params, x)
	if err != nil {
		return nil, nil, fmt.Errorf("inverse: %w", err)
	}

	numSamples := x.Shape()[0]
	in := x.Data().([]float64)
	out := make([]float64, numSamples*a.inputDim)

	invScale := make([]float64, a.inputDim)
	for j, ls := range logScale {
		invScale[j] = math.Exp(-ls)
	}

	for i := 0; i < numSamples; i++ {
		for j := 0; j < a.inputDim; j++ {
			out[i*a.inputDim+j] = (in[i*a.inputDim+j] - shift[j]) *
				invScale[j]
		}
	}

	batch := tensor.NewDense(
		tensor.Float64,
		[]int{numSamples, a.inputDim},
		tensor.WithBacking(out),
	)

	return batch, constants(-floats.Sum(logScale), numSamples), nil
}

func (a *affine) unpack(params Params, x *tensor.Dense) ([]float64,
	[]float64, error) {
	if err := CheckBatch(x, a.inputDim); err != nil {
		return nil, nil, err
	}
	if err := checkVectorParams(params, 2, a.inputDim); err != nil {
		return nil, nil, err
	}

	return params[0].Data().([]float64), params[1].Data().([]float64), nil
}

// constants returns a length-n vector with every element set to v.
func constants(v float64, n int) []float64 {
	vec := make([]float64, n)
	for i := range vec {
		vec[i] = v
	}

	return vec
}
