/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

// Basic 2D geometry in surface pixel space. Origin top-left, y grows down.

import "math"

// Pt is a 2D point or vector.
type Pt struct{ X, Y float64 }

func P(x, y float64) Pt { return Pt{X: x, Y: y} }

func (p Pt) Add(q Pt) Pt       { return Pt{p.X + q.X, p.Y + q.Y} }
func (p Pt) Sub(q Pt) Pt       { return Pt{p.X - q.X, p.Y - q.Y} }
func (p Pt) Mul(k float64) Pt  { return Pt{p.X * k, p.Y * k} }
func (p Pt) Len() float64      { return math.Hypot(p.X, p.Y) }
func (p Pt) Dist(q Pt) float64 { return q.Sub(p).Len() }

// Lerp interpolates between p and q.
func (p Pt) Lerp(q Pt, t float64) Pt { return Pt{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t} }

// Perp returns p rotated by +90°.
func (p Pt) Perp() Pt { return Pt{-p.Y, p.X} }

// Unit returns p scaled to length 1, or the zero vector.
func (p Pt) Unit() Pt {
	l := p.Len()
	if l == 0 {
		return Pt{}
	}
	return Pt{p.X / l, p.Y / l}
}

// Polar returns the vector of length r at angle a.
func Polar(a, r float64) Pt { return Pt{math.Cos(a) * r, math.Sin(a) * r} }

// Finite reports whether both coordinates are finite.
func (p Pt) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt { return Pt{r.X + r.W, r.Y + r.H} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
// Insets larger than half the size collapse onto the centre line.
func (r Rect) Inset(dx, dy float64) Rect {
	if 2*dx > r.W {
		dx = r.W / 2
	}
	if 2*dy > r.H {
		dy = r.H / 2
	}
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Clamp returns the point of r closest to p.
func (r Rect) Clamp(p Pt) Pt {
	return Pt{
		X: math.Min(math.Max(p.X, r.X), r.X+r.W),
		Y: math.Min(math.Max(p.Y, r.Y), r.Y+r.H),
	}
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
