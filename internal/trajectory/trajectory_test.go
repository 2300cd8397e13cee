/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package trajectory

import (
	"math"
	"testing"

	"inkwash/internal/drive"
	"inkwash/internal/geom"
	"inkwash/internal/mathx"
	"inkwash/internal/steer"
)

type countingPainter struct{ calls int }

func (c *countingPainter) Paint(a, b geom.Pt, d drive.Signal) { c.calls++ }

var loud = drive.Signal{Low: 0.9, Mid: 0.1, High: 0.05, Energy: 0.8, Peak: 1}

func TestReflectionKeepsVoiceInsideMargin(t *testing.T) {
	const w, h = 300.0, 200.0
	e := New(DefaultConfig(), w, h, 1.5, nil)
	m := e.Margin()
	if m != 36 {
		t.Fatalf("margin = %v, want 36", m)
	}
	r := mathx.Seeded(99)
	for i := 0; i < 2000; i++ {
		// Start within one margin of some edge, moving fast in any direction.
		x := mathx.Range(r, m, w-m)
		y := mathx.Range(r, m, h-m)
		switch i % 4 {
		case 0:
			x = m + r.Float64()*m
		case 1:
			x = w - m - r.Float64()*m
		case 2:
			y = m + r.Float64()*m
		case 3:
			y = h - m - r.Float64()*m
		}
		e.v = Voice{X: x, Y: y, Angle: r.Float64() * 2 * math.Pi, Velocity: mathx.Range(r, 0.1, 6.5), Phase: r.Float64() * 10}
		d := drive.Signal{Energy: r.Float64(), Low: r.Float64(), Mid: r.Float64(), High: r.Float64(), Peak: r.Float64()}
		st := e.Tick(mathx.Range(r, 1, 100), d, steer.State{TapBoost: r.Float64() * steer.MaxTapBoost})
		if st.To.X < m || st.To.X > w-m || st.To.Y < m || st.To.Y > h-m {
			t.Fatalf("iteration %d escaped: %+v (margin %v)", i, st.To, m)
		}
	}
}

func TestReflectionMirrorsHeading(t *testing.T) {
	e := New(DefaultConfig(), 200, 200, 1, nil)
	e.v = Voice{X: 24.5, Y: 100, Angle: math.Pi, Velocity: 3}
	st := e.Tick(16, drive.Signal{}, steer.State{})
	if !st.Bounced {
		t.Fatalf("expected a bounce off the left margin")
	}
	if math.Cos(e.Voice().Angle) <= 0 {
		t.Fatalf("heading still points left after bounce: %v", e.Voice().Angle)
	}

	e.v = Voice{X: 100, Y: 175.5, Angle: math.Pi / 2, Velocity: 3}
	e.Tick(16, drive.Signal{}, steer.State{})
	if math.Sin(e.Voice().Angle) >= 0 {
		t.Fatalf("heading still points down after bounce: %v", e.Voice().Angle)
	}
}

func TestSilenceGateSkipsPainting(t *testing.T) {
	p := &countingPainter{}
	e := New(DefaultConfig(), 400, 300, 1, p)
	e.Reset(mathx.Seeded(1))
	start := e.Voice().Pos()
	for i := 0; i < 60; i++ {
		e.Tick(16, drive.Signal{}, steer.State{})
	}
	if p.calls != 0 {
		t.Fatalf("silent ticks painted %d segments", p.calls)
	}
	if e.Voice().Pos() == start {
		t.Fatalf("voice should keep moving while silent")
	}

	e.Tick(16, drive.Signal{}, steer.State{Strength: 0.5, X: 10, Y: 10})
	if p.calls != 1 {
		t.Fatalf("touch should lift the gate, calls = %d", p.calls)
	}

	cfg := DefaultConfig()
	cfg.ForcePaint = true
	forced := New(cfg, 400, 300, 1, p)
	forced.Tick(16, drive.Signal{}, steer.State{})
	if p.calls != 2 {
		t.Fatalf("ForcePaint should paint, calls = %d", p.calls)
	}
}

func TestPaintsOncePerTick(t *testing.T) {
	var segs [][2]geom.Pt
	e := New(DefaultConfig(), 400, 300, 1, PainterFunc(func(a, b geom.Pt, d drive.Signal) {
		segs = append(segs, [2]geom.Pt{a, b})
	}))
	e.Reset(mathx.Seeded(4))
	for i := 0; i < 10; i++ {
		st := e.Tick(33, loud, steer.State{})
		if !st.Painted || len(segs) != i+1 {
			t.Fatalf("tick %d: painted=%v segments=%d", i, st.Painted, len(segs))
		}
		if segs[i][0] != st.From || segs[i][1] != st.To {
			t.Fatalf("tick %d painted %v, stepped %v→%v", i, segs[i], st.From, st.To)
		}
		if i > 0 && segs[i][0] != segs[i-1][1] {
			t.Fatalf("path is not continuous at tick %d", i)
		}
	}
}

func TestLoudDriveSpeedsUpVoice(t *testing.T) {
	avg := func(d drive.Signal) float64 {
		e := New(DefaultConfig(), 800, 600, 1, nil)
		e.Reset(mathx.Seeded(8))
		sum := 0.0
		n := 0
		for ms := 0.0; ms < 500; ms += 1000.0 / 30 {
			sum += e.Tick(1000.0/30, d, steer.State{}).Velocity
			n++
		}
		return sum / float64(n)
	}
	if l, s := avg(loud), avg(drive.Signal{}); l <= s {
		t.Fatalf("loud avg speed %.3f not above silent %.3f", l, s)
	}
}

func TestTouchSteersHeading(t *testing.T) {
	run := func(touch steer.State) float64 {
		e := New(DefaultConfig(), 400, 400, 1, nil)
		e.v = Voice{X: 200, Y: 200, Angle: 0, Velocity: 1}
		for i := 0; i < 30; i++ {
			e.Tick(16, drive.Signal{}, touch)
		}
		v := e.Voice()
		return math.Abs(mathx.AngleDiff(v.Angle, math.Atan2(touch.Y-v.Y, touch.X-v.X)))
	}
	target := steer.State{X: 40, Y: 200}
	free := run(target)
	target.Strength = 1
	target.Active = true
	steered := run(target)
	if steered >= free {
		t.Fatalf("heading error with touch %.3f, without %.3f", steered, free)
	}
}

func TestSetBoundsKeepsRelativePosition(t *testing.T) {
	e := New(DefaultConfig(), 200, 100, 1, nil)
	e.v.X, e.v.Y = 50, 50
	e.SetBounds(400, 200, 2)
	if v := e.Voice(); v.X != 100 || v.Y != 100 {
		t.Fatalf("voice at %v,%v after resize, want 100,100", v.X, v.Y)
	}
	e.SetBounds(10, 10, 1)
	if m := e.Margin(); m != 5 {
		t.Fatalf("margin on a tiny surface = %v, want 5", m)
	}
}

func TestNonPositiveDeltaDoesNothing(t *testing.T) {
	p := &countingPainter{}
	e := New(DefaultConfig(), 200, 200, 1, p)
	before := e.Voice()
	for _, d := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		e.Tick(d, loud, steer.State{})
	}
	if e.Voice() != before || p.calls != 0 {
		t.Fatalf("degenerate deltas changed state: %+v calls=%d", e.Voice(), p.calls)
	}
}
