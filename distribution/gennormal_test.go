package distribution

import (
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/flow"
	"github.com/samuelfneumann/flow/rng"
	"gonum.org/v1/gonum/stat/distuv"
)

// A generalized normal with power 2 is a normal distribution with
// standard deviation scale/√2.
func TestGenNormalPowerTwoMatchesNormal(t *testing.T) {
	const (
		loc   = 0.5
		scale = 1.4
	)

	_, dist, err := GenNormal(loc, scale, 2)(rng.New(0), 1)
	if err != nil {
		t.Fatal(err)
	}

	target := distuv.Normal{Mu: loc, Sigma: scale / math.Sqrt2}

	points := []float64{-3.0, -0.5, 0.0, 0.5, 1.7, 4.2}
	logProbs, err := dist.LogProb(nil, newBatch(points, len(points), 1))
	if err != nil {
		t.Fatal(err)
	}

	for i, x := range points {
		want := target.LogProb(x)
		if math.Abs(logProbs[i]-want) > tol {
			t.Errorf("expected log density %v at %v but got %v", want,
				x, logProbs[i])
		}
	}
}

// A generalized normal with power 1 is a Laplace distribution.
func TestGenNormalPowerOneMatchesLaplace(t *testing.T) {
	const (
		loc   = -1.0
		scale = 0.8
	)

	_, dist, err := GenNormal(loc, scale, 1)(rng.New(0), 1)
	if err != nil {
		t.Fatal(err)
	}

	target := distuv.Laplace{Mu: loc, Scale: scale}

	points := []float64{-4.0, -1.5, -1.0, 0.0, 2.5}
	logProbs, err := dist.LogProb(nil, newBatch(points, len(points), 1))
	if err != nil {
		t.Fatal(err)
	}

	for i, x := range points {
		want := target.LogProb(x)
		if math.Abs(logProbs[i]-want) > tol {
			t.Errorf("expected log density %v at %v but got %v", want,
				x, logProbs[i])
		}
	}
}

func TestGenNormalLogProbSumsOverFeatures(t *testing.T) {
	_, dist, err := GenNormal(0, 1, 1.5)(rng.New(0), 2)
	if err != nil {
		t.Fatal(err)
	}

	_, scalar, err := GenNormal(0, 1, 1.5)(rng.New(0), 1)
	if err != nil {
		t.Fatal(err)
	}

	logProbs, err := dist.LogProb(nil, newBatch([]float64{0.3, -1.2},
		1, 2))
	if err != nil {
		t.Fatal(err)
	}

	first, err := scalar.LogProb(nil, newBatch([]float64{0.3}, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	second, err := scalar.LogProb(nil, newBatch([]float64{-1.2}, 1, 1))
	if err != nil {
		t.Fatal(err)
	}

	want := first[0] + second[0]
	if math.Abs(logProbs[0]-want) > tol {
		t.Errorf("expected log density %v but got %v", want,
			logProbs[0])
	}
}

func TestGenNormalSample(t *testing.T) {
	const (
		loc        = 2.0
		numSamples = 20000
	)

	_, dist, err := GenNormal(loc, 1, 3)(rng.New(0), 1)
	if err != nil {
		t.Fatal(err)
	}

	key := rng.New(41)
	samples, err := dist.Sample(key, nil, numSamples)
	if err != nil {
		t.Fatal(err)
	}
	if s := samples.Shape(); s[0] != numSamples || s[1] != 1 {
		t.Fatalf("expected shape (%d, 1) but got %v", numSamples, s)
	}

	// The distribution is symmetric around loc
	var mean float64
	for _, v := range samples.Data().([]float64) {
		mean += v
	}
	mean /= numSamples

	if math.Abs(mean-loc) > 0.05 {
		t.Errorf("expected sample mean near %v but got %v", loc, mean)
	}

	again, err := dist.Sample(key, nil, numSamples)
	if err != nil {
		t.Fatal(err)
	}

	samplesData := samples.Data().([]float64)
	againData := again.Data().([]float64)
	for i := range samplesData {
		if samplesData[i] != againData[i] {
			t.Fatal("identical keys produced different samples")
		}
	}
}

func TestGenNormalInvalidConfig(t *testing.T) {
	_, badScale, err := GenNormal(0, 0, 2)(rng.New(0), 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := badScale.LogProb(nil, newBatch([]float64{0}, 1,
		1)); !errors.Is(err, flow.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter but got %v", err)
	}

	_, badPower, err := GenNormal(0, 1, -2)(rng.New(0), 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := badPower.Sample(rng.New(0), nil, 1); !errors.Is(err,
		flow.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter but got %v", err)
	}
}
