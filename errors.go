package flow

import "errors"

// Error kinds reported by transformations and distributions. Errors are
// wrapped with call context; match them with errors.Is.
var (
	// ErrShapeMismatch indicates a batch whose feature dimension does
	// not match the component's fixed input dimension, or component
	// specifications of inconsistent sizes.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidParameter indicates a parameter outside its valid
	// domain, such as a non-positive scale or a covariance matrix
	// that is not positive definite.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNumericalDegeneracy indicates that a computation produced
	// NaN. Log densities of -Inf are legal values for out-of-support
	// inputs and are never reported as degenerate.
	ErrNumericalDegeneracy = errors.New("numerical degeneracy")
)
