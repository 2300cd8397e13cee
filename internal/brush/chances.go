/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package brush

import "inkwash/internal/mathx"

// Odds is the per-sub-step probability of one texture layer, a linear mix of
// the stroke's derived scalars clamped to [0,1].
type Odds struct {
	Base   float64 `yaml:"base"`
	Water  float64 `yaml:"water"`
	Dry    float64 `yaml:"dry"`
	Grain  float64 `yaml:"grain"`
	Energy float64 `yaml:"energy"`
	Peak   float64 `yaml:"peak"`
}

func (o Odds) at(s *stroke) float64 {
	return mathx.Clamp01(o.Base + o.Water*s.water + o.Dry*s.dry + o.Grain*s.pre.Grain + o.Energy*s.d.Energy + o.Peak*s.d.Peak)
}

// Chances is the table of secondary layer odds. The defaults are
// art-direction values; tune freely.
type Chances struct {
	Halo        Odds `yaml:"halo"`
	Stain       Odds `yaml:"stain"`
	DryEdge     Odds `yaml:"dry_edge"`
	Granulation Odds `yaml:"granulation"`
	Splatter    Odds `yaml:"splatter"`
	WetTrace    Odds `yaml:"wet_trace"`
}

// DefaultChances returns the tuned layer odds.
func DefaultChances() Chances {
	return Chances{
		Halo:        Odds{Base: 0.01, Water: 0.05},
		Stain:       Odds{Base: 0.008, Water: 0.03},
		DryEdge:     Odds{Base: 0.004, Dry: 0.04},
		Granulation: Odds{Grain: 0.05, Dry: 0.04},
		Splatter:    Odds{Base: 0.002, Energy: 0.012, Peak: 0.04},
		WetTrace:    Odds{Water: 0.05},
	}
}
