// Package rng provides deterministic, splittable sources of randomness.
//
// A Key is an immutable token of random state. Splitting a Key derives
// independent descendant Keys without consuming the parent, so separate
// stochastic computations can each be handed their own stream. Drawing
// from a Key is pure: the same Key and the same call always produce the
// same output, and output drawn from one Key reveals nothing about its
// siblings.
//
// Keys are meant to be threaded explicitly: split at every branch point
// that needs independent draws, and never reuse one descendant for two
// different draws.
package rng

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Key is an immutable token of random state. The zero value is a valid
// Key, equivalent to New(0).
type Key struct {
	state uint64
}

// New returns a Key seeded with seed.
func New(seed uint64) Key {
	return Key{state: seed}
}

// mix is the splitmix64 finalizer. It decorrelates descendant key
// states so siblings derived from one parent share no usable structure.
func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// SplitN derives n independent descendant Keys from k. The derivation
// is pure: k remains usable only if it is never itself consumed for a
// draw afterwards.
func (k Key) SplitN(n int) []Key {
	keys := make([]Key, n)
	for i := range keys {
		keys[i] = Key{state: mix(k.state + uint64(i+1)*0x9e3779b97f4a7c15)}
	}
	return keys
}

// Split derives two independent descendant Keys from k.
func (k Key) Split() (Key, Key) {
	keys := k.SplitN(2)
	return keys[0], keys[1]
}

// Source returns a pseudo-random source seeded by k, suitable for the
// Src field of gonum distributions. Each call returns a fresh source at
// the same starting state, so two sources taken from the same Key
// generate identical streams.
func (k Key) Source() rand.Source {
	return rand.NewSource(mix(k.state))
}

// Uniform draws n values uniformly from [0, 1), consuming k.
func (k Key) Uniform(n int) []float64 {
	dist := distuv.Uniform{Min: 0, Max: 1, Src: k.Source()}

	draws := make([]float64, n)
	for i := range draws {
		draws[i] = dist.Rand()
	}

	return draws
}

// Normal draws n values from the standard normal distribution,
// consuming k.
func (k Key) Normal(n int) []float64 {
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: k.Source()}

	draws := make([]float64, n)
	for i := range draws {
		draws[i] = dist.Rand()
	}

	return draws
}

// Perm draws a random permutation of [0, n), consuming k.
func (k Key) Perm(n int) []int {
	return rand.New(k.Source()).Perm(n)
}

// Categorical draws n indices from the categorical distribution with
// the given relative weights, consuming k. Weights need not sum to 1;
// each index is drawn with probability proportional to its weight. An
// error is returned if any weight is negative or no weight is positive.
func (k Key) Categorical(weights []float64, n int) ([]int, error) {
	var total float64
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("categorical: weight %d is negative "+
				"(%v)", i, w)
		}
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("categorical: expected at least one " +
			"positive weight")
	}

	dist := distuv.NewCategorical(weights, k.Source())

	draws := make([]int, n)
	for i := range draws {
		draws[i] = int(dist.Rand())
	}

	return draws, nil
}
