/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package steer owns the pointer/touch state that nudges the trajectory.
// Input handlers push events into an Adapter; the render loop reads
// snapshots and never writes back.
package steer

import (
	"math"
	"sync"
	"time"

	"inkwash/internal/geom"
	"inkwash/internal/mathx"
)

// State is a read-only snapshot of the steering input.
type State struct {
	X, Y       float64
	Strength   float64 // [0,1], decays to 0 when not held
	Active     bool
	SwipeAngle float64 // radians
	SwipePower float64 // [0,1], decaying
	TapBoost   float64 // decaying impulse, up to MaxTapBoost
}

// Pos returns the touch position as a point.
func (s State) Pos() geom.Pt { return geom.P(s.X, s.Y) }

// Tunables for the adapter. Decay factors apply per 16ms.
const (
	StrengthDecay = 0.92
	SwipeDecay    = 0.9
	TapDecay      = 0.88
	MaxTapBoost   = 1.5
	tapImpulse    = 0.85
	tapMaxPress   = 250 * time.Millisecond
	tapMaxTravel  = 12.0
	swipeMinMove  = 2.0
	// swipeGain maps pointer speed in px/ms onto swipe power.
	swipeGain = 0.5
)

// Adapter is the single owner of a State.
type Adapter struct {
	mu     sync.Mutex
	st     State
	bounds geom.Rect

	pressAt   time.Time
	pressPos  geom.Pt
	travel    float64
	lastMove  time.Time
	lastPoint geom.Pt
}

// NewAdapter returns an idle adapter clamping positions to w×h.
func NewAdapter(w, h float64) *Adapter {
	return &Adapter{bounds: geom.R(0, 0, math.Max(1, w), math.Max(1, h))}
}

// SetBounds updates the clamping rectangle, e.g. after a surface resize.
// The current position is rescaled proportionally.
func (a *Adapter) SetBounds(w, h float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	nb := geom.R(0, 0, math.Max(1, w), math.Max(1, h))
	if a.bounds.W > 0 && a.bounds.H > 0 {
		a.st.X *= nb.W / a.bounds.W
		a.st.Y *= nb.H / a.bounds.H
	}
	a.bounds = nb
	a.st.X, a.st.Y = a.clamp(a.st.X, a.st.Y)
}

// Press starts an active touch at (x, y).
func (a *Adapter) Press(x, y float64, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	x, y = a.clamp(x, y)
	a.st.X, a.st.Y = x, y
	a.st.Active = true
	a.st.Strength = 1
	a.pressAt, a.lastMove = now, now
	a.pressPos, a.lastPoint = geom.P(x, y), geom.P(x, y)
	a.travel = 0
}

// Move updates the touch position and derives swipe heading and power from
// pointer velocity. Moves without a press only update the position.
func (a *Adapter) Move(x, y float64, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	x, y = a.clamp(x, y)
	p := geom.P(x, y)
	a.st.X, a.st.Y = x, y
	if !a.st.Active {
		return
	}
	d := p.Sub(a.lastPoint)
	dist := d.Len()
	a.travel += dist
	if dt := now.Sub(a.lastMove); dist >= swipeMinMove && dt > 0 {
		speed := dist / (float64(dt) / float64(time.Millisecond))
		a.st.SwipeAngle = math.Atan2(d.Y, d.X)
		a.st.SwipePower = math.Max(a.st.SwipePower, mathx.Clamp01(speed*swipeGain))
	}
	a.lastMove, a.lastPoint = now, p
}

// Release ends the touch. A short press that barely moved counts as a tap.
func (a *Adapter) Release(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.st.Active {
		return
	}
	a.st.Active = false
	if now.Sub(a.pressAt) <= tapMaxPress && a.travel <= tapMaxTravel {
		a.tapLocked()
	}
}

// Tap registers a tap at (x, y) without a press/release pair.
func (a *Adapter) Tap(x, y float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.st.X, a.st.Y = a.clamp(x, y)
	a.st.Strength = math.Max(a.st.Strength, 0.6)
	a.tapLocked()
}

func (a *Adapter) tapLocked() {
	a.st.TapBoost = math.Min(MaxTapBoost, a.st.TapBoost+tapImpulse)
}

// Decay advances the passive decay by deltaMs. Strength decays only while
// the touch is not held; swipe power and tap boost always decay.
func (a *Adapter) Decay(deltaMs float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.st.Active {
		a.st.Strength = mathx.Decay(a.st.Strength, StrengthDecay, deltaMs)
	}
	a.st.SwipePower = mathx.Decay(a.st.SwipePower, SwipeDecay, deltaMs)
	a.st.TapBoost = mathx.Decay(a.st.TapBoost, TapDecay, deltaMs)
}

// Snapshot returns a copy of the current state.
func (a *Adapter) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.st
}

// Reset clears all steering input, e.g. at the start of an episode.
func (a *Adapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.st = State{}
	a.travel = 0
	a.pressAt, a.lastMove = time.Time{}, time.Time{}
}

func (a *Adapter) clamp(x, y float64) (float64, float64) {
	if !mathx.Finite(x, y) {
		return a.st.X, a.st.Y
	}
	p := a.bounds.Clamp(geom.P(x, y))
	return p.X, p.Y
}
