/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package brush renders one ink stroke segment. Render is a pure function of
// its inputs and the random source it is given: with a seeded source the
// result is reproducible pixel for pixel. Every call deposits more ink, so
// rendering the same segment twice darkens it further.
package brush

import (
	"image"
	"math"

	"inkwash/internal/drive"
	"inkwash/internal/geom"
	"inkwash/internal/ink"
	"inkwash/internal/mathx"
	"inkwash/internal/raster"
)

// MaxSteps caps the sub-steps of one segment regardless of its length.
const MaxSteps = 120

// MaxReach is how far, in pixels, an endpoint may lie outside the
// destination before the segment is dropped.
const MaxReach = 1e6

// Options carries everything a stroke depends on besides its endpoints.
type Options struct {
	Ink     ink.Color
	Preset  Preset
	Drive   drive.Signal
	DeltaMs float64
	// Rand supplies all randomness; nil selects the ambient source.
	Rand mathx.Rand
	// Chances overrides the layer odds; nil selects DefaultChances.
	Chances *Chances
}

// Seeded returns the deterministic random strategy for seed.
func Seeded(seed uint64) mathx.Rand { return mathx.Seeded(seed) }

// Stats counts what a Render call composited.
type Stats struct {
	Steps       int
	Filaments   int
	Halos       int
	Stains      int
	DryEdges    int
	Granulation int
	Splatters   int
	WetTraces   int
}

// Layers is the number of secondary layers composited.
func (s Stats) Layers() int {
	return s.Halos + s.Stains + s.DryEdges + s.Granulation + s.Splatters + s.WetTraces
}

// stroke holds the values derived once per Render call.
type stroke struct {
	p   *raster.Painter
	r   mathx.Rand
	pre Preset
	d   drive.Signal
	ch  Chances

	ink, depth ink.Color

	dir, perp geom.Pt
	angle     float64
	length    float64
	stepLen   float64

	water, dry float64
	size       float64
	jitter     float64
	coreAlpha  float64
	tempo      float64

	stats Stats
}

// Render composites the segment a→b onto dst. Non-finite or identical
// endpoints, and endpoints beyond MaxReach, draw nothing.
func Render(dst *image.RGBA, a, b geom.Pt, opts Options) Stats {
	if dst == nil || !a.Finite() || !b.Finite() {
		return Stats{}
	}
	r := dst.Bounds()
	reach := geom.R(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy())).Inset(-MaxReach, -MaxReach)
	if !reach.Contains(a) || !reach.Contains(b) {
		return Stats{}
	}
	seg := b.Sub(a)
	length := seg.Len()
	if length < 1e-6 || math.IsInf(length, 0) {
		return Stats{}
	}
	s := newStroke(dst, seg, length, opts)

	steps := int(math.Ceil(length / math.Max(0.75, s.size*0.25)))
	steps = max(1, min(MaxSteps, steps))
	s.stepLen = length / float64(steps)
	s.stats.Steps = steps

	for i := 0; i < steps; i++ {
		t0 := float64(i) / float64(steps)
		t1 := float64(i+1) / float64(steps)
		jit := s.perp.Mul(mathx.Signed(s.r, s.jitter)).Add(s.dir.Mul(mathx.Signed(s.r, s.jitter*0.4)))
		p0 := a.Lerp(b, t0).Add(jit)
		p1 := a.Lerp(b, t1).Add(jit)

		s.core(p0, p1)
		if s.pre.Bristles > 0 {
			s.rake(p0.Lerp(p1, 0.5))
		}
		s.layers(p1)
	}
	return s.stats
}

func newStroke(dst *image.RGBA, seg geom.Pt, length float64, opts Options) *stroke {
	pre := opts.Preset.Clamped()
	d := opts.Drive
	r := opts.Rand
	if r == nil {
		r = mathx.Ambient()
	}
	ch := DefaultChances()
	if opts.Chances != nil {
		ch = *opts.Chances
	}
	dir := seg.Mul(1 / length)
	water := mathx.Clamp01(pre.Wetness + d.Low*0.8 + d.Energy*0.6)
	size := pre.BaseSize * (0.6 + d.Energy*1.2) * (0.6 + d.Mid*0.6)
	tempo := 1.0
	if opts.DeltaMs > 0 {
		tempo = mathx.Clamp(opts.DeltaMs/16, 0.5, 2)
	}
	return &stroke{
		p:         raster.NewPainter(dst),
		r:         r,
		pre:       pre,
		d:         d,
		ch:        ch,
		ink:       opts.Ink,
		depth:     opts.Ink.Depth(pre.Flow),
		dir:       dir,
		perp:      dir.Perp(),
		angle:     math.Atan2(dir.Y, dir.X),
		length:    length,
		water:     water,
		dry:       mathx.Clamp01(1.1 - water + d.High*0.5),
		size:      size,
		jitter:    pre.Jitter * (1 + d.High*4 + d.Energy*3) * size * 0.05,
		coreAlpha: mathx.Clamp01((0.05 + d.Mid*0.25 + d.Energy*0.2) * pre.Flow),
		tempo:     tempo,
	}
}

// core strokes the body of the mark between p0 and p1.
func (s *stroke) core(p0, p1 geom.Pt) {
	w := s.size * mathx.Range(s.r, 0.42, 0.64)
	col := ink.Lerp(s.depth, s.ink, s.water*0.5)
	switch s.pre.TipPattern {
	case TipFlat:
		w *= 0.3 + 0.7*math.Abs(math.Sin(s.angle-math.Pi/4))
		s.p.Line(p0, p1, w, col, s.coreAlpha, raster.Over)
	case TipSplit:
		off := s.perp.Mul(s.size * 0.22)
		s.p.Line(p0.Add(off), p1.Add(off), w*0.45, col, s.coreAlpha, raster.Over)
		s.p.Line(p0.Sub(off), p1.Sub(off), w*0.45, col, s.coreAlpha, raster.Over)
	case TipStipple:
		if mathx.Chance(s.r, 0.7) {
			s.p.Disc(p1, w*0.5, col, math.Min(1, s.coreAlpha*1.4), raster.Over)
		}
	default:
		s.p.Line(p0, p1, w, col, s.coreAlpha, raster.Over)
	}
}

// rake draws short offset filaments around c to imitate a dry, split brush.
// More strands appear with treble; each is culled with a grain-weighted odds.
func (s *stroke) rake(c geom.Pt) {
	n := int(math.Round(float64(s.pre.Bristles) * (0.35 + s.d.High*0.65 + s.dry*0.25)))
	n = max(1, min(2*s.pre.Bristles, n))
	cull := s.pre.Grain * (0.35 + s.dry*0.4)
	half := s.dir.Mul(s.stepLen*0.5 + s.size*0.15)
	for k := 0; k < n; k++ {
		if mathx.Chance(s.r, cull) {
			continue
		}
		off := s.perp.Mul(mathx.Signed(s.r, 0.5) * s.pre.Spread * s.size).
			Add(s.dir.Mul(mathx.Signed(s.r, s.stepLen*0.3)))
		w := math.Max(0.5, s.size*0.05*mathx.Range(s.r, 0.6, 1.6))
		alpha := s.coreAlpha * (0.55 + s.dry*0.6) * mathx.Range(s.r, 0.5, 1)
		m := c.Add(off)
		s.p.Line(m.Sub(half), m.Add(half), w, s.depth, alpha, raster.Over)
		s.stats.Filaments++
	}
}
