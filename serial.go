package flow

import (
	"fmt"

	"github.com/samuelfneumann/flow/rng"
	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

// Serial returns an initializer that chains transformations into one.
// Initialization splits the key once per stage so each stage draws from
// its own stream. The forward map applies stages in the given order,
// the inverse map applies their inverses in reverse order, and the
// per-sample log determinants accumulate by summation.
//
// The chain's parameter value is the flat concatenation of the stage
// parameter values, so external parameter updates see a single opaque
// sequence.
func Serial(inits ...TransformationInit) TransformationInit {
	return func(key rng.Key, inputDim int) (Params, Transformation,
		error) {
		if inputDim <= 0 {
			return nil, nil, fmt.Errorf("serial: %w: input dimension "+
				"must be positive but got %d", ErrInvalidParameter,
				inputDim)
		}

		keys := key.SplitN(len(inits))
		stages := make([]Transformation, len(inits))
		arity := make([]int, len(inits))

		var params Params
		for i, init := range inits {
			stageParams, stage, err := init(keys[i], inputDim)
			if err != nil {
				return nil, nil, fmt.Errorf("serial: stage %d: %w", i,
					err)
			}

			params = append(params, stageParams...)
			arity[i] = len(stageParams)
			stages[i] = stage
		}

		return params, &serial{
			inputDim: inputDim,
			stages:   stages,
			arity:    arity,
		}, nil
	}
}

type serial struct {
	inputDim int
	stages   []Transformation

	// arity holds the number of parameter tensors owned by each stage,
	// used to re-slice the flat parameter list per stage.
	arity []int
}

func (s *serial) InputDim() int { return s.inputDim }

func (s *serial) Forward(params Params, x *tensor.Dense) (*tensor.Dense,
	[]float64, error) {
	stageParams, err := s.splitParams(params)
	if err != nil {
		return nil, nil, fmt.Errorf("forward: %w", err)
	}
	if err := CheckBatch(x, s.inputDim); err != nil {
		return nil, nil, fmt.Errorf("forward: %w", err)
	}

	logDet := make([]float64, x.Shape()[0])
	for i, stage := range s.stages {
		var stageDet []float64
		x, stageDet, err = stage.Forward(stageParams[i], x)
		if err != nil {
			return nil, nil, fmt.Errorf("forward: stage %d: %w", i, err)
		}

		floats.Add(logDet, stageDet)
	}

	return x, logDet, nil
}

func (s *serial) Inverse(params Params, x *tensor.Dense) (*tensor.Dense,
	[]float64, error) {
	stageParams, err := s.splitParams(params)
	if err != nil {
		return nil, nil, fmt.Errorf("inverse: %w", err)
	}
	if err := CheckBatch(x, s.inputDim); err != nil {
		return nil, nil, fmt.Errorf("inverse: %w", err)
	}

	logDet := make([]float64, x.Shape()[0])
	for i := len(s.stages) - 1; i >= 0; i-- {
		var stageDet []float64
		x, stageDet, err = s.stages[i].Inverse(stageParams[i], x)
		if err != nil {
			return nil, nil, fmt.Errorf("inverse: stage %d: %w", i, err)
		}

		floats.Add(logDet, stageDet)
	}

	return x, logDet, nil
}

// splitParams re-slices the flat parameter list into per-stage
// parameter values.
func (s *serial) splitParams(params Params) ([]Params, error) {
	var total int
	for _, n := range s.arity {
		total += n
	}
	if len(params) != total {
		return nil, fmt.Errorf("%w: expected %d parameter tensors but "+
			"got %d", ErrInvalidParameter, total, len(params))
	}

	stageParams := make([]Params, len(s.stages))
	var at int
	for i, n := range s.arity {
		stageParams[i] = params[at : at+n]
		at += n
	}

	return stageParams, nil
}
