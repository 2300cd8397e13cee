/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"math"
	"testing"
)

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 25 || in.W != 90 || in.H != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
	c := R(0, 0, 10, 10).Inset(20, 2)
	if c.W != 0 || c.X != 5 || c.H != 6 {
		t.Fatalf("oversized inset should collapse: %+v", c)
	}
}

func TestRectClamp(t *testing.T) {
	r := R(24, 24, 52, 52)
	got := r.Clamp(Pt{-5, 200})
	if got != (Pt{24, 76}) {
		t.Fatalf("Clamp = %+v", got)
	}
}

func TestVectorOps(t *testing.T) {
	d := P(3, 4)
	if d.Len() != 5 {
		t.Fatalf("Len = %v", d.Len())
	}
	u := d.Unit()
	if math.Abs(u.Len()-1) > 1e-12 {
		t.Fatalf("Unit length = %v", u.Len())
	}
	if p := u.Perp(); math.Abs(p.X*u.X+p.Y*u.Y) > 1e-12 {
		t.Fatalf("Perp not orthogonal: %+v", p)
	}
	if (Pt{}).Unit() != (Pt{}) {
		t.Fatalf("zero vector should stay zero")
	}
	if P(0, 0).Lerp(P(10, -10), 0.25) != P(2.5, -2.5) {
		t.Fatalf("Lerp mismatch")
	}
	if P(math.NaN(), 0).Finite() || !P(1, 2).Finite() {
		t.Fatalf("Finite mismatch")
	}
}
