package flow

import (
	"fmt"

	"gorgonia.org/tensor"
)

// TODO: make work with float32

// CheckBatch verifies that x is a batch of shape (N, inputDim) holding
// float64 data. Every batch operation validates its input with this
// check before doing any work.
func CheckBatch(x *tensor.Dense, inputDim int) error {
	if x == nil {
		return fmt.Errorf("%w: expected batch of shape (N, %d) but got "+
			"a nil batch", ErrShapeMismatch, inputDim)
	}

	if x.Dims() != 2 {
		return fmt.Errorf("%w: expected batch of shape (N, %d) but got "+
			"shape %v", ErrShapeMismatch, inputDim, x.Shape())
	}

	if x.Shape()[1] != inputDim {
		return fmt.Errorf("%w: expected %d features per sample but got "+
			"%d", ErrShapeMismatch, inputDim, x.Shape()[1])
	}

	if x.Dtype() != tensor.Float64 {
		return fmt.Errorf("%w: data type %v unsupported",
			ErrInvalidParameter, x.Dtype())
	}

	return nil
}

// checkVectorParams verifies that params holds exactly want length-dim
// float64 vectors.
func checkVectorParams(params Params, want, dim int) error {
	if len(params) != want {
		return fmt.Errorf("%w: expected %d parameter tensors but got %d",
			ErrInvalidParameter, want, len(params))
	}

	for i, p := range params {
		if p == nil || p.Dims() != 1 || p.Shape()[0] != dim {
			return fmt.Errorf("%w: expected parameter %d to be a "+
				"vector of %d elements", ErrInvalidParameter, i, dim)
		}
		if p.Dtype() != tensor.Float64 {
			return fmt.Errorf("%w: parameter %d has unsupported data "+
				"type %v", ErrInvalidParameter, i, p.Dtype())
		}
	}

	return nil
}
