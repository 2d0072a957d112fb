package flow

import (
	"fmt"

	"github.com/samuelfneumann/flow/rng"
	"gorgonia.org/tensor"
)

// Reverse returns an initializer for the transformation that reverses
// the feature order of each sample. It has no parameters, is its own
// inverse, and has a log determinant of zero everywhere. On a
// two-dimensional space it swaps the two coordinates.
func Reverse() TransformationInit {
	return func(key rng.Key, inputDim int) (Params, Transformation,
		error) {
		if inputDim <= 0 {
			return nil, nil, fmt.Errorf("reverse: %w: input dimension "+
				"must be positive but got %d", ErrInvalidParameter,
				inputDim)
		}

		perm := make([]int, inputDim)
		for i := range perm {
			perm[i] = inputDim - 1 - i
		}

		// A reversal is its own inverse
		return nil, &permutation{
			inputDim: inputDim,
			perm:     perm,
			inv:      perm,
		}, nil
	}
}

// Shuffle returns an initializer for the transformation that permutes
// the feature order of each sample by a fixed random permutation drawn
// from the initialization key. It has no parameters and a log
// determinant of zero everywhere.
func Shuffle() TransformationInit {
	return func(key rng.Key, inputDim int) (Params, Transformation,
		error) {
		if inputDim <= 0 {
			return nil, nil, fmt.Errorf("shuffle: %w: input dimension "+
				"must be positive but got %d", ErrInvalidParameter,
				inputDim)
		}

		perm := key.Perm(inputDim)
		inv := make([]int, inputDim)
		for i, p := range perm {
			inv[p] = i
		}

		return nil, &permutation{
			inputDim: inputDim,
			perm:     perm,
			inv:      inv,
		}, nil
	}
}

// permutation transforms batches by reordering features. Feature j of
// the forward output is feature perm[j] of the input; inv is the
// inverse permutation.
type permutation struct {
	inputDim  int
	perm, inv []int
}

func (p *permutation) InputDim() int { return p.inputDim }

func (p *permutation) Forward(params Params, x *tensor.Dense) (*tensor.Dense,
	[]float64, error) {
	out, logDet, err := p.apply(p.perm, x)
	if err != nil {
		return nil, nil, fmt.Errorf("forward: %w", err)
	}

	return out, logDet, nil
}

func (p *permutation) Inverse(params Params, x *tensor.Dense) (*tensor.Dense,
	[]float64, error) {
	out, logDet, err := p.apply(p.inv, x)
	if err != nil {
		return nil, nil, fmt.Errorf("inverse: %w", err)
	}

	return out, logDet, nil
}

func (p *permutation) apply(perm []int, x *tensor.Dense) (*tensor.Dense,
	[]float64, error) {
	if err := CheckBatch(x, p.inputDim); err != nil {
		return nil, nil, err
	}

	numSamples := x.Shape()[0]
	in := x.Data().([]float64)
	out := make([]float64, numSamples*p.inputDim)

	for i := 0; i < numSamples; i++ {
		row := in[i*p.inputDim : (i+1)*p.inputDim]
		for j, src := range perm {
			out[i*p.inputDim+j] = row[src]
		}
	}

	batch := tensor.NewDense(
		tensor.Float64,
		[]int{numSamples, p.inputDim},
		tensor.WithBacking(out),
	)

	return batch, make([]float64, numSamples), nil
}
