package util

import "math/rand"

// NewSeededRandFunc возвращает детерминированный источник f(bound) в [0, bound).
// При bound <= 0 возвращает 0.
func NewSeededRandFunc(seed int64) func(bound int) int {
	rng := rand.New(rand.NewSource(seed))
	return func(bound int) int {
		if bound <= 0 {
			return 0
		}
		return rng.Intn(bound)
	}
}
