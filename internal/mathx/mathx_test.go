/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package mathx

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	cases := []struct{ v, lo, hi, want float64 }{
		{0.5, 0, 1, 0.5},
		{-2, 0, 1, 0},
		{3, 0, 1, 1},
		{math.NaN(), 0.05, 2, 0.05},
		{math.Inf(1), 0, 2.5, 2.5},
	}
	for _, c := range cases {
		if got := Clamp(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("Clamp(%v,%v,%v) = %v, want %v", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

func TestSmoothNeverOvershoots(t *testing.T) {
	cur := 0.2
	for i := 0; i < 50; i++ {
		next := Smooth(cur, 1, 0.35)
		if next <= cur || next >= 1 {
			t.Fatalf("step %d: %v not strictly between %v and 1", i, next, cur)
		}
		cur = next
	}
}

func TestAngleDiffWraps(t *testing.T) {
	if d := AngleDiff(0.1, 2*math.Pi-0.1); math.Abs(d+0.2) > 1e-9 {
		t.Fatalf("expected -0.2, got %v", d)
	}
	if d := AngleDiff(-3, 3); d <= 0 && math.Abs(d) > math.Pi {
		t.Fatalf("diff out of range: %v", d)
	}
	if d := AngleDiff(0, math.Pi); d != math.Pi {
		t.Fatalf("expected π, got %v", d)
	}
}

func TestDecaySnapsToZero(t *testing.T) {
	v := 1.0
	for i := 0; i < 400; i++ {
		v = Decay(v, 0.9, 16)
	}
	if v != 0 {
		t.Fatalf("expected decay to reach 0, got %v", v)
	}
	if got := Decay(0.5, 0.9, 0); got != 0.5 {
		t.Fatalf("zero delta should not decay: %v", got)
	}
	// two 8ms steps equal one 16ms step
	a := Decay(Decay(0.8, 0.9, 8), 0.9, 8)
	b := Decay(0.8, 0.9, 16)
	if math.Abs(a-b) > 1e-12 {
		t.Fatalf("decay not frame-rate independent: %v vs %v", a, b)
	}
}

func TestSeededIsReproducible(t *testing.T) {
	a, b := Seeded(42), Seeded(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
	c := Seeded(43)
	same := true
	a = Seeded(42)
	for i := 0; i < 10; i++ {
		if a.Float64() != c.Float64() {
			same = false
		}
	}
	if same {
		t.Fatalf("different seeds produced identical streams")
	}
}

func TestNoiseRangeAndDeterminism(t *testing.T) {
	n1, n2 := NewNoise(7), NewNoise(7)
	for i := 0; i < 200; i++ {
		x, y := float64(i)*0.37, float64(i)*0.11
		v := n1.Fractal(x, y, 3)
		if v < -1 || v > 1 {
			t.Fatalf("fractal out of range: %v", v)
		}
		if v != n2.Fractal(x, y, 3) {
			t.Fatalf("noise not deterministic at %d", i)
		}
	}
}

func TestFinite(t *testing.T) {
	if !Finite(1, 2, -3) {
		t.Fatalf("expected finite")
	}
	if Finite(1, math.NaN()) || Finite(math.Inf(-1)) {
		t.Fatalf("expected non-finite detection")
	}
}
