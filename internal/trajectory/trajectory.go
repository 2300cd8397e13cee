/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package trajectory moves the single agent whose path becomes the stroke.
// Motion is continuous: audio drive speeds up and bends the heading, touch
// input steers it, and the surface margin reflects it.
package trajectory

import (
	"math"

	"inkwash/internal/drive"
	"inkwash/internal/geom"
	"inkwash/internal/mathx"
	"inkwash/internal/steer"
)

// Voice is the agent state.
type Voice struct {
	X, Y     float64
	Angle    float64 // heading, radians
	Velocity float64 // px per 16ms at scale 1
	Phase    float64
}

// Pos returns the agent position.
func (v Voice) Pos() geom.Pt { return geom.P(v.X, v.Y) }

// Painter receives the segment travelled in one tick.
type Painter interface {
	Paint(a, b geom.Pt, d drive.Signal)
}

// PainterFunc adapts a function to Painter.
type PainterFunc func(a, b geom.Pt, d drive.Signal)

// Paint calls f(a, b, d).
func (f PainterFunc) Paint(a, b geom.Pt, d drive.Signal) { f(a, b, d) }

// Config holds the engine tunables.
type Config struct {
	// Margin is the reflection inset at scale 1.
	Margin float64 `yaml:"margin"`
	// SilenceThreshold gates painting: below this total drive, with no
	// touch, ticks move the agent without depositing ink.
	SilenceThreshold float64 `yaml:"silence_threshold"`
	ForcePaint       bool    `yaml:"force_paint"`
	// MaxDeltaMs bounds a single tick so a stalled loop does not leap.
	MaxDeltaMs float64 `yaml:"max_delta_ms"`
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{Margin: 24, SilenceThreshold: 0.01, MaxDeltaMs: 100}
}

const (
	velocityRelax = 0.18
	minSpeed      = 0.6
	maxSpeed      = 6.5
	steerFalloff  = 0.7
)

// Step reports one tick.
type Step struct {
	From, To geom.Pt
	Velocity float64
	Force    float64
	Painted  bool
	Bounced  bool
}

// Engine advances a Voice. It is driven from a single render timeline and
// is not safe for concurrent use.
type Engine struct {
	cfg   Config
	w, h  float64
	scale float64
	v     Voice
	paint Painter
}

// New returns an engine over a w×h surface; call Reset before the first tick.
func New(cfg Config, w, h, scale float64, p Painter) *Engine {
	e := &Engine{cfg: cfg, paint: p}
	if e.cfg.MaxDeltaMs <= 0 {
		e.cfg.MaxDeltaMs = DefaultConfig().MaxDeltaMs
	}
	e.SetBounds(w, h, scale)
	e.v = Voice{X: e.w / 2, Y: e.h / 2, Velocity: minSpeed}
	return e
}

// SetPainter replaces the stroke sink; nil disables painting.
func (e *Engine) SetPainter(p Painter) { e.paint = p }

// Config returns the active tunables.
func (e *Engine) Config() Config { return e.cfg }

// Voice returns a copy of the agent state.
func (e *Engine) Voice() Voice { return e.v }

// Margin returns the effective reflection inset.
func (e *Engine) Margin() float64 {
	m := math.Max(0, e.cfg.Margin*e.scale)
	return math.Min(m, math.Min(e.w, e.h)/2)
}

// Reset places the agent somewhere in the inner part of the surface with a
// random heading and phase.
func (e *Engine) Reset(r mathx.Rand) {
	if r == nil {
		r = mathx.Ambient()
	}
	e.v = Voice{
		X:        e.w * mathx.Range(r, 0.25, 0.75),
		Y:        e.h * mathx.Range(r, 0.25, 0.75),
		Angle:    r.Float64() * 2 * math.Pi,
		Velocity: mathx.Range(r, 0.9, 1.4),
		Phase:    r.Float64() * 2 * math.Pi,
	}
}

// SetBounds updates the surface size; the agent keeps its relative position.
func (e *Engine) SetBounds(w, h, scale float64) {
	w, h = math.Max(1, w), math.Max(1, h)
	if !(scale > 0) || math.IsInf(scale, 0) {
		scale = 1
	}
	if e.w > 0 && e.h > 0 {
		e.v.X *= w / e.w
		e.v.Y *= h / e.h
	}
	e.w, e.h, e.scale = w, h, scale
	m := e.Margin()
	e.v.X = mathx.Clamp(e.v.X, m, e.w-m)
	e.v.Y = mathx.Clamp(e.v.Y, m, e.h-m)
}

// Tick advances the agent by deltaMs under drive d and touch t, paints the
// travelled segment, and reflects off the margin.
func (e *Engine) Tick(deltaMs float64, d drive.Signal, t steer.State) Step {
	from := e.v.Pos()
	if !(deltaMs > 0) || math.IsInf(deltaMs, 0) {
		return Step{From: from, To: from, Velocity: e.v.Velocity}
	}
	deltaMs = math.Min(deltaMs, e.cfg.MaxDeltaMs)
	dt := deltaMs / 16
	v := &e.v

	loud := d.Loudness()
	force := mathx.Clamp(0.35+d.Low*1.8+d.Mid*0.6+loud*0.9+t.TapBoost*1.4, 0, 3)
	rate := 0.0025 + d.Low*0.012 + d.High*0.006 + loud*0.01 + t.TapBoost*0.015
	// Both oscillator terms repeat every 40π.
	v.Phase = math.Mod(v.Phase+deltaMs*rate, 40*math.Pi)

	wave := 0.6*math.Sin(v.Phase) + 0.4*math.Sin(0.65*v.Phase+1.4)
	v.Angle += wave * force * 0.04 * dt

	target := mathx.Clamp(0.9+force*(0.75+0.55*(wave+1)/2), minSpeed, maxSpeed)
	v.Velocity += (target - v.Velocity) * (1 - math.Pow(1-velocityRelax, dt))

	if t.Strength > 0 {
		e.steer(t, dt)
	}
	v.Angle = math.Remainder(v.Angle, 2*math.Pi)

	step := dt * e.scale * v.Velocity
	x := v.X + math.Cos(v.Angle)*step
	y := v.Y + math.Sin(v.Angle)*step
	x, y, bounced := e.reflect(x, y)
	v.X, v.Y = x, y

	out := Step{From: from, To: v.Pos(), Velocity: v.Velocity, Force: force, Bounced: bounced}
	silent := d.Total() < e.cfg.SilenceThreshold && t.Strength == 0
	if e.paint != nil && (!silent || e.cfg.ForcePaint) {
		e.paint.Paint(out.From, out.To, d)
		out.Painted = true
	}
	return out
}

// steer turns the heading toward the touch point and along any swipe.
func (e *Engine) steer(t steer.State, dt float64) {
	v := &e.v
	dx, dy := t.X-v.X, t.Y-v.Y
	if dist := math.Hypot(dx, dy); dist > 1e-6 {
		pull := mathx.Clamp01(1-dist/(e.w*steerFalloff)) * t.Strength
		k := mathx.Clamp01((0.06 + pull*0.2) * dt)
		v.Angle += mathx.AngleDiff(v.Angle, math.Atan2(dy, dx)) * k
	}
	if t.SwipePower > 0 {
		k := mathx.Clamp01(t.SwipePower * t.Strength * 0.25 * dt)
		v.Angle += mathx.AngleDiff(v.Angle, t.SwipeAngle) * k
	}
}

// reflect clamps (x, y) into the margin box. For each edge crossed the
// heading is mirrored so that it points back inside.
func (e *Engine) reflect(x, y float64) (float64, float64, bool) {
	if !mathx.Finite(x, y) {
		return e.w / 2, e.h / 2, true
	}
	m := e.Margin()
	bounced := false
	if x < m || x > e.w-m {
		c := math.Cos(e.v.Angle)
		if (x < m && c < 0) || (x > e.w-m && c > 0) {
			e.v.Angle = math.Pi - e.v.Angle
		}
		x = mathx.Clamp(x, m, e.w-m)
		bounced = true
	}
	if y < m || y > e.h-m {
		s := math.Sin(e.v.Angle)
		if (y < m && s < 0) || (y > e.h-m && s > 0) {
			e.v.Angle = -e.v.Angle
		}
		y = mathx.Clamp(y, m, e.h-m)
		bounced = true
	}
	return x, y, bounced
}
