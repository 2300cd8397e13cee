/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package brush

import (
	"math"

	"inkwash/internal/geom"
	"inkwash/internal/ink"
	"inkwash/internal/mathx"
	"inkwash/internal/raster"
)

// layers rolls each secondary texture against its odds at point c. All of
// them multiply into the surface so the paper only ever darkens.
func (s *stroke) layers(c geom.Pt) {
	if mathx.Chance(s.r, s.ch.Halo.at(s)) {
		s.halo(c)
		s.stats.Halos++
	}
	if mathx.Chance(s.r, s.ch.Stain.at(s)) {
		s.stain(c)
		s.stats.Stains++
	}
	if mathx.Chance(s.r, s.ch.DryEdge.at(s)) {
		s.dryEdge(c)
		s.stats.DryEdges++
	}
	if mathx.Chance(s.r, s.ch.Granulation.at(s)) {
		s.granulate(c)
		s.stats.Granulation++
	}
	if mathx.Chance(s.r, s.ch.Splatter.at(s)) {
		s.splatter(c)
		s.stats.Splatters++
	}
	if mathx.Chance(s.r, s.ch.WetTrace.at(s)) {
		s.wetTrace(c)
		s.stats.WetTraces++
	}
}

// halo spreads 2-4 faint concentric rings of diluted ink.
func (s *stroke) halo(c geom.Pt) {
	rings := 2 + int(s.r.Float64()*3)
	col := s.ink.TowardPaper(0.35)
	base := s.size * (1.2 + s.water*1.6)
	for i := 0; i < rings; i++ {
		r := base * (1 + float64(i)*mathx.Range(s.r, 0.35, 0.6))
		a := (0.05 + s.water*0.07) / float64(i+1)
		off := geom.Polar(s.r.Float64()*2*math.Pi, s.size*0.2*s.r.Float64())
		s.p.Radial(c.Add(off), r, col, []raster.Stop{
			{At: 0, Alpha: a * 0.4},
			{At: 0.7, Alpha: a},
			{At: 0.92, Alpha: a * 0.6},
			{At: 1, Alpha: 0},
		}, raster.Multiply)
	}
}

// stain is one soft pool of pigment, darkest in the centre.
func (s *stroke) stain(c geom.Pt) {
	r := s.size * mathx.Range(s.r, 0.8, 1.8) * (0.8 + s.water*0.6)
	a := 0.08 + s.water*0.12
	s.p.Radial(c, r, s.depth, []raster.Stop{
		{At: 0, Alpha: a},
		{At: 0.6, Alpha: a * 0.55},
		{At: 1, Alpha: 0},
	}, raster.Multiply)
}

// dryEdge darkens a thin rim where a drying pool stops spreading.
func (s *stroke) dryEdge(c geom.Pt) {
	r := s.size * mathx.Range(s.r, 0.9, 1.5)
	s.p.Radial(c, r, s.depth, []raster.Stop{
		{At: 0, Alpha: 0},
		{At: 0.65, Alpha: 0},
		{At: 0.88, Alpha: 0.22 * s.dry},
		{At: 1, Alpha: 0},
	}, raster.Multiply)
}

// granulate scatters pale pigment specks around c.
func (s *stroke) granulate(c geom.Pt) {
	n := 5 + int(s.pre.Grain*12)
	col := s.depth.TowardPaper(0.25)
	spread := s.size * (0.6 + s.dry*0.5)
	for i := 0; i < n; i++ {
		q := c.Add(geom.P(mathx.Signed(s.r, spread), mathx.Signed(s.r, spread)))
		s.p.Disc(q, mathx.Range(s.r, 0.4, 1.1), col, mathx.Range(s.r, 0.15, 0.45), raster.Multiply)
	}
}

// splatter flicks droplets outward, biased along the stroke direction.
func (s *stroke) splatter(c geom.Pt) {
	n := 3 + int(s.r.Float64()*(4+s.d.Peak*6))
	for i := 0; i < n; i++ {
		a := s.angle + mathx.Signed(s.r, math.Pi*0.6)
		dist := s.size * mathx.Range(s.r, 0.8, 2.6) * (1 + s.d.Energy)
		q := c.Add(geom.Polar(a, dist))
		r := math.Max(0.5, s.size*mathx.Range(s.r, 0.03, 0.12))
		s.p.Disc(q, r, s.depth, mathx.Range(s.r, 0.35, 0.8), raster.Multiply)
	}
}

// wetTrace drags a fading bleed behind the brush, opposite to its motion.
func (s *stroke) wetTrace(c geom.Pt) {
	length := s.size * (1.2 + s.water*1.5) * s.tempo
	col := ink.Lerp(s.ink, s.depth, 0.3)
	back := s.dir.Mul(-1)
	for i := 0; i < 4; i++ {
		t := float64(i+1) / 4
		q := c.Add(back.Mul(length * t))
		r := s.size * (0.5 + 0.25*t)
		a := (0.12 + s.water*0.1) * (1 - t*0.8)
		s.p.Radial(q, r, col, []raster.Stop{
			{At: 0, Alpha: a},
			{At: 1, Alpha: 0},
		}, raster.Multiply)
	}
}
