/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package mathx

import (
	"math/rand/v2"

	"github.com/ojrac/opensimplex-go"
)

// Rand is the randomness strategy handed to renderers. A seeded Rand makes a
// render reproducible; the ambient one does not.
type Rand interface {
	Float64() float64
}

// Seeded returns a deterministic generator for seed.
func Seeded(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, Mix64(seed, 0x5eed)))
}

type ambient struct{}

func (ambient) Float64() float64 { return rand.Float64() }

// Ambient returns the process-wide non-deterministic source.
func Ambient() Rand { return ambient{} }

// Range returns a uniform value in [lo, hi).
func Range(r Rand, lo, hi float64) float64 { return lo + (hi-lo)*r.Float64() }

// Signed returns a uniform value in [-amp, amp).
func Signed(r Rand, amp float64) float64 { return (r.Float64()*2 - 1) * amp }

// Chance reports true with probability p.
func Chance(r Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	return r.Float64() < p
}

// Noise is seeded 2D simplex noise in [-1, 1].
type Noise struct{ n opensimplex.Noise }

// NewNoise creates a noise field for seed.
func NewNoise(seed int64) Noise { return Noise{n: opensimplex.New(seed)} }

// Eval2 samples the field at (x, y).
func (n Noise) Eval2(x, y float64) float64 { return n.n.Eval2(x, y) }

// Fractal sums octaves of the field with halving amplitude, normalised to [-1, 1].
func (n Noise) Fractal(x, y float64, octaves int) float64 {
	var total, amp, norm float64 = 0, 1, 0
	freq := 1.0
	for i := 0; i < octaves; i++ {
		total += n.n.Eval2(x*freq, y*freq) * amp
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	if norm == 0 {
		return 0
	}
	return total / norm
}
