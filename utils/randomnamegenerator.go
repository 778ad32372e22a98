package utils

import (
	"math/rand"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator hands out unique, seed-stable names for synthetic
// rigs: bone labels, IK chain names, event names.
type RandomNameGenerator struct {
	used map[string]struct{}
}

func NewRandomNameGenerator(seed int64) *RandomNameGenerator {
	randomdata.CustomRand(rand.New(rand.NewSource(seed)))
	return &RandomNameGenerator{used: make(map[string]struct{})}
}

func (rng *RandomNameGenerator) RandomName() string {
	for {
		name := randomdata.SillyName()
		// avoid duplicate names
		if _, exists := rng.used[name]; !exists {
			rng.used[name] = struct{}{}
			return name
		}
	}
}

func (rng *RandomNameGenerator) RandomNames(n int) []string {
	r := make([]string, n)
	for i := range r {
		r[i] = rng.RandomName()
	}
	return r
}
