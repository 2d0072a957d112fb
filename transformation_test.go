package flow

import (
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/flow/rng"
	"gorgonia.org/tensor"
)

const tol = 1e-12

// randBatch returns an (n, dim) batch of standard normal draws.
func randBatch(key rng.Key, n, dim int) *tensor.Dense {
	return tensor.NewDense(
		tensor.Float64,
		[]int{n, dim},
		tensor.WithBacking(key.Normal(n*dim)),
	)
}

// checkInverseConsistency verifies that Inverse undoes Forward and that
// the two log determinants are negatives of each other.
func checkInverseConsistency(t *testing.T, init TransformationInit,
	dim int) {
	t.Helper()

	initKey, batchKey := rng.New(17).Split()
	params, trans, err := init(initKey, dim)
	if err != nil {
		t.Fatal(err)
	}

	x := randBatch(batchKey, 8, dim)

	u, fwdDet, err := trans.Forward(params, x)
	if err != nil {
		t.Fatal(err)
	}

	x2, invDet, err := trans.Inverse(params, u)
	if err != nil {
		t.Fatal(err)
	}

	xData := x.Data().([]float64)
	x2Data := x2.Data().([]float64)
	for i := range xData {
		if math.Abs(xData[i]-x2Data[i]) > tol {
			t.Fatalf("inverse(forward(x)) != x at index %d: %v != %v",
				i, x2Data[i], xData[i])
		}
	}

	if len(fwdDet) != 8 || len(invDet) != 8 {
		t.Fatalf("expected 8 log determinants but got %d and %d",
			len(fwdDet), len(invDet))
	}
	for i := range fwdDet {
		if math.Abs(fwdDet[i]+invDet[i]) > tol {
			t.Fatalf("log determinants are not negatives at sample "+
				"%d: %v and %v", i, fwdDet[i], invDet[i])
		}
	}
}

func TestIdentityInverseConsistency(t *testing.T) {
	checkInverseConsistency(t, Identity(), 3)
}

func TestReverseInverseConsistency(t *testing.T) {
	checkInverseConsistency(t, Reverse(), 5)
}

func TestShuffleInverseConsistency(t *testing.T) {
	checkInverseConsistency(t, Shuffle(), 7)
}

func TestAffineInverseConsistency(t *testing.T) {
	initKey, batchKey := rng.New(19).Split()
	params, trans, err := Affine()(initKey, 4)
	if err != nil {
		t.Fatal(err)
	}

	// Move the parameters off the identity initialization
	copy(params[0].Data().([]float64), []float64{0.3, -1.2, 0.0, 2.1})
	copy(params[1].Data().([]float64), []float64{1.0, 0.0, -3.5, 0.25})

	x := randBatch(batchKey, 8, 4)

	u, fwdDet, err := trans.Forward(params, x)
	if err != nil {
		t.Fatal(err)
	}
	x2, invDet, err := trans.Inverse(params, u)
	if err != nil {
		t.Fatal(err)
	}

	xData := x.Data().([]float64)
	x2Data := x2.Data().([]float64)
	for i := range xData {
		if math.Abs(xData[i]-x2Data[i]) > tol {
			t.Fatalf("inverse(forward(x)) != x at index %d: %v != %v",
				i, x2Data[i], xData[i])
		}
	}

	wantDet := 0.3 - 1.2 + 0.0 + 2.1
	for i := range fwdDet {
		if math.Abs(fwdDet[i]-wantDet) > tol {
			t.Errorf("expected forward log determinant %v but got %v",
				wantDet, fwdDet[i])
		}
		if math.Abs(fwdDet[i]+invDet[i]) > tol {
			t.Errorf("log determinants are not negatives at sample "+
				"%d: %v and %v", i, fwdDet[i], invDet[i])
		}
	}
}

func TestSerialInverseConsistency(t *testing.T) {
	checkInverseConsistency(t, Serial(Affine(), Shuffle(), Reverse(),
		Affine()), 6)
}

func TestSerialDoubleReverseIsIdentity(t *testing.T) {
	params, trans, err := Serial(Reverse(), Reverse())(rng.New(0), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != 0 {
		t.Fatalf("expected no parameters but got %d", len(params))
	}

	x := tensor.NewDense(
		tensor.Float64,
		[]int{2, 3},
		tensor.WithBacking([]float64{1, 2, 3, 4, 5, 6}),
	)

	u, logDet, err := trans.Forward(params, x)
	if err != nil {
		t.Fatal(err)
	}

	uData := u.Data().([]float64)
	for i, want := range []float64{1, 2, 3, 4, 5, 6} {
		if uData[i] != want {
			t.Errorf("expected element %d to be %v but got %v", i,
				want, uData[i])
		}
	}
	for i, det := range logDet {
		if det != 0 {
			t.Errorf("expected zero log determinant at sample %d but "+
				"got %v", i, det)
		}
	}
}

func TestSerialParamPacking(t *testing.T) {
	params, trans, err := Serial(Affine(), Reverse(), Affine())(
		rng.New(1), 2)
	if err != nil {
		t.Fatal(err)
	}

	// Two affine stages at two tensors each
	if len(params) != 4 {
		t.Fatalf("expected 4 parameter tensors but got %d", len(params))
	}

	if _, _, err := trans.Forward(params[:3], randBatch(rng.New(2), 1,
		2)); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for a short parameter "+
			"list but got %v", err)
	}
}

func TestReverseSwapsCoordinates(t *testing.T) {
	params, trans, err := Reverse()(rng.New(0), 2)
	if err != nil {
		t.Fatal(err)
	}

	x := tensor.NewDense(
		tensor.Float64,
		[]int{1, 2},
		tensor.WithBacking([]float64{1.0, -2.0}),
	)

	u, logDet, err := trans.Forward(params, x)
	if err != nil {
		t.Fatal(err)
	}

	uData := u.Data().([]float64)
	if uData[0] != -2.0 || uData[1] != 1.0 {
		t.Errorf("expected [-2, 1] but got %v", uData)
	}
	if logDet[0] != 0 {
		t.Errorf("expected zero log determinant but got %v", logDet[0])
	}
}

func TestShuffleDeterminism(t *testing.T) {
	_, trans1, err := Shuffle()(rng.New(23), 9)
	if err != nil {
		t.Fatal(err)
	}
	_, trans2, err := Shuffle()(rng.New(23), 9)
	if err != nil {
		t.Fatal(err)
	}

	x := randBatch(rng.New(24), 4, 9)

	u1, _, err := trans1.Forward(nil, x)
	if err != nil {
		t.Fatal(err)
	}
	u2, _, err := trans2.Forward(nil, x)
	if err != nil {
		t.Fatal(err)
	}

	u1Data := u1.Data().([]float64)
	u2Data := u2.Data().([]float64)
	for i := range u1Data {
		if u1Data[i] != u2Data[i] {
			t.Fatal("identical keys produced different permutations")
		}
	}
}

func TestTransformationShapeMismatch(t *testing.T) {
	inits := map[string]TransformationInit{
		"identity": Identity(),
		"reverse":  Reverse(),
		"shuffle":  Shuffle(),
		"affine":   Affine(),
		"serial":   Serial(Reverse(), Affine()),
	}

	for name, init := range inits {
		params, trans, err := init(rng.New(3), 4)
		if err != nil {
			t.Fatal(err)
		}

		x := randBatch(rng.New(4), 2, 5)
		if _, _, err := trans.Forward(params, x); !errors.Is(err,
			ErrShapeMismatch) {
			t.Errorf("%v: expected ErrShapeMismatch but got %v", name,
				err)
		}
		if _, _, err := trans.Inverse(params, x); !errors.Is(err,
			ErrShapeMismatch) {
			t.Errorf("%v: expected ErrShapeMismatch but got %v", name,
				err)
		}
	}
}

func TestInitInvalidDimension(t *testing.T) {
	for _, init := range []TransformationInit{Identity(), Reverse(),
		Shuffle(), Affine(), Serial(Reverse())} {
		if _, _, err := init(rng.New(0), 0); !errors.Is(err,
			ErrInvalidParameter) {
			t.Errorf("expected ErrInvalidParameter for dimension 0 "+
				"but got %v", err)
		}
	}
}
