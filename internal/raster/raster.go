/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package raster composites ink primitives onto an RGBA buffer. Shapes are
// turned into anti-aliased coverage masks with golang.org/x/image/vector and
// blended per pixel, either source-over or multiply. Multiply never lightens
// the destination.
package raster

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"inkwash/internal/geom"
	"inkwash/internal/ink"
)

// Mode selects how a primitive is blended into the destination.
type Mode uint8

const (
	// Over is normal source-over alpha compositing.
	Over Mode = iota
	// Multiply darkens the destination by the source colour.
	Multiply
)

func (m Mode) String() string {
	if m == Multiply {
		return "multiply"
	}
	return "over"
}

// Stop is one point of a radial alpha ramp; At runs from 0 (centre) to 1 (rim).
type Stop struct {
	At    float64
	Alpha float64
}

// Painter draws onto one destination. It reuses its rasterizer and mask
// buffer between calls and is not safe for concurrent use.
type Painter struct {
	dst  *image.RGBA
	z    *vector.Rasterizer
	mask []byte
}

// NewPainter returns a painter targeting dst.
func NewPainter(dst *image.RGBA) *Painter {
	return &Painter{dst: dst, z: vector.NewRasterizer(1, 1)}
}

// Bounds returns the destination bounds.
func (p *Painter) Bounds() image.Rectangle { return p.dst.Bounds() }

// Line strokes the segment a→b with round caps. Widths below one pixel are
// drawn one pixel wide with proportionally less opacity.
func (p *Painter) Line(a, b geom.Pt, width float64, c ink.Color, alpha float64, mode Mode) {
	if alpha <= 0 || !a.Finite() || !b.Finite() || !(width > 0) {
		return
	}
	if width < 1 {
		alpha *= width
		width = 1
	}
	hw := width / 2
	box := boundsOf(math.Min(a.X, b.X)-hw, math.Min(a.Y, b.Y)-hw, math.Max(a.X, b.X)+hw, math.Max(a.Y, b.Y)+hw)
	if !box.Overlaps(p.dst.Bounds()) || tooLarge(box) {
		return
	}
	o := geom.P(float64(box.Min.X), float64(box.Min.Y))
	p.begin(box)

	dir := b.Sub(a).Unit()
	if dir == (geom.Pt{}) {
		dir = geom.P(1, 0)
	}
	n := dir.Perp().Mul(hw)
	start := math.Atan2(n.Y, n.X)
	const capSegs = 6
	p.moveTo(a.Add(n).Sub(o))
	p.lineTo(b.Add(n).Sub(o))
	for i := 1; i <= capSegs; i++ {
		ang := start - math.Pi*float64(i)/capSegs
		p.lineTo(b.Add(geom.Polar(ang, hw)).Sub(o))
	}
	p.lineTo(a.Sub(n).Sub(o))
	for i := 1; i <= capSegs; i++ {
		ang := start + math.Pi - math.Pi*float64(i)/capSegs
		p.lineTo(a.Add(geom.Polar(ang, hw)).Sub(o))
	}
	p.z.ClosePath()
	p.fill(box, c, alpha, mode)
}

// Disc fills a circle of radius r around c.
func (p *Painter) Disc(c geom.Pt, r float64, col ink.Color, alpha float64, mode Mode) {
	if alpha <= 0 || !c.Finite() || !(r > 0) {
		return
	}
	if r < 0.5 {
		alpha *= r * 2
		r = 0.5
	}
	box := boundsOf(c.X-r, c.Y-r, c.X+r, c.Y+r)
	if !box.Overlaps(p.dst.Bounds()) || tooLarge(box) {
		return
	}
	o := geom.P(float64(box.Min.X), float64(box.Min.Y))
	p.begin(box)
	segs := int(math.Max(8, math.Min(48, r*3)))
	p.moveTo(c.Add(geom.P(r, 0)).Sub(o))
	for i := 1; i < segs; i++ {
		p.lineTo(c.Add(geom.Polar(2*math.Pi*float64(i)/float64(segs), r)).Sub(o))
	}
	p.z.ClosePath()
	p.fill(box, col, alpha, mode)
}

// Radial composites a soft circle whose opacity follows stops from centre to
// rim. Stops must be sorted by At.
func (p *Painter) Radial(c geom.Pt, r float64, col ink.Color, stops []Stop, mode Mode) {
	if len(stops) == 0 || !c.Finite() || !(r > 0.5) {
		return
	}
	box := boundsOf(c.X-r, c.Y-r, c.X+r, c.Y+r).Intersect(p.dst.Bounds())
	if box.Empty() {
		return
	}
	inv := 1 / r
	for y := box.Min.Y; y < box.Max.Y; y++ {
		dy := (float64(y) + 0.5 - c.Y) * inv
		for x := box.Min.X; x < box.Max.X; x++ {
			dx := (float64(x) + 0.5 - c.X) * inv
			d := math.Sqrt(dx*dx + dy*dy)
			if d >= 1 {
				continue
			}
			if a := rampAt(stops, d); a > 0 {
				p.blend(x, y, col, a, mode)
			}
		}
	}
}

// Dot composites a single pixel.
func (p *Painter) Dot(x, y int, col ink.Color, alpha float64, mode Mode) {
	if alpha <= 0 || !(image.Point{x, y}.In(p.dst.Bounds())) {
		return
	}
	p.blend(x, y, col, alpha, mode)
}

func (p *Painter) begin(box image.Rectangle) {
	w, h := box.Dx(), box.Dy()
	p.z.Reset(w, h)
	p.z.DrawOp = draw.Src
	if cap(p.mask) < w*h {
		p.mask = make([]byte, w*h)
	}
	p.mask = p.mask[:w*h]
}

func (p *Painter) moveTo(q geom.Pt) { p.z.MoveTo(float32(q.X), float32(q.Y)) }
func (p *Painter) lineTo(q geom.Pt) { p.z.LineTo(float32(q.X), float32(q.Y)) }

// fill rasterizes the current path over the whole of box, which may extend
// past the destination, and blends only the visible part.
func (p *Painter) fill(box image.Rectangle, col ink.Color, alpha float64, mode Mode) {
	w, h := box.Dx(), box.Dy()
	m := &image.Alpha{Pix: p.mask, Stride: w, Rect: image.Rect(0, 0, w, h)}
	p.z.Draw(m, m.Rect, image.Opaque, image.Point{})
	if alpha > 1 {
		alpha = 1
	}
	vis := box.Intersect(p.dst.Bounds())
	for y := vis.Min.Y; y < vis.Max.Y; y++ {
		row := p.mask[(y-box.Min.Y)*w : (y-box.Min.Y+1)*w]
		for x := vis.Min.X; x < vis.Max.X; x++ {
			if cov := row[x-box.Min.X]; cov != 0 {
				p.blend(x, y, col, alpha*float64(cov)/255, mode)
			}
		}
	}
}

// blend composites one pixel. a is the effective source opacity in [0, 1].
func (p *Painter) blend(x, y int, col ink.Color, a float64, mode Mode) {
	if a > 1 {
		a = 1
	}
	i := p.dst.PixOffset(x, y)
	px := p.dst.Pix[i : i+4 : i+4]
	switch mode {
	case Multiply:
		px[0] = mulChan(px[0], col.R, a)
		px[1] = mulChan(px[1], col.G, a)
		px[2] = mulChan(px[2], col.B, a)
	default:
		px[0] = overChan(px[0], col.R, a)
		px[1] = overChan(px[1], col.G, a)
		px[2] = overChan(px[2], col.B, a)
	}
	px[3] = overChan(px[3], 255, a)
}

func overChan(d, s uint8, a float64) uint8 {
	return uint8(float64(d)*(1-a) + float64(s)*a + 0.5)
}

// mulChan computes d·(1 − a·(1 − s)), which is ≤ d for every input.
func mulChan(d, s uint8, a float64) uint8 {
	v := float64(d) * (1 - a*(1-float64(s)/255))
	return uint8(math.Floor(v + 0.5))
}

func rampAt(stops []Stop, d float64) float64 {
	if d <= stops[0].At {
		return stops[0].Alpha
	}
	for i := 1; i < len(stops); i++ {
		if d <= stops[i].At {
			s0, s1 := stops[i-1], stops[i]
			span := s1.At - s0.At
			if span <= 0 {
				return s1.Alpha
			}
			return s0.Alpha + (s1.Alpha-s0.Alpha)*(d-s0.At)/span
		}
	}
	return stops[len(stops)-1].Alpha
}

// maxMaskArea bounds the scratch mask; primitives larger than this are dropped.
const maxMaskArea = 1 << 24

func tooLarge(r image.Rectangle) bool { return r.Dx()*r.Dy() > maxMaskArea }

// maxCoord keeps pixel boxes well inside int range; anything that far out is
// rejected by tooLarge or the overlap test.
const maxCoord = 1 << 30

func boundsOf(x0, y0, x1, y1 float64) image.Rectangle {
	px := func(v float64) int { return int(math.Max(-maxCoord, math.Min(maxCoord, v))) }
	return image.Rect(px(math.Floor(x0))-1, px(math.Floor(y0))-1, px(math.Ceil(x1))+1, px(math.Ceil(y1))+1)
}
