/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ink

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Color
		ok   bool
	}{
		{"#1b1a2e", Color{0x1b, 0x1a, 0x2e}, true},
		{"#FFF", Color{255, 255, 255}, true},
		{" indigo ", Indigo, true},
		{"#12345", Color{}, false},
		{"#zzzzzz", Color{}, false},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if (err == nil) != c.ok {
			t.Fatalf("Parse(%q) err = %v, want ok=%v", c.in, err, c.ok)
		}
		if c.ok && got != c.want {
			t.Fatalf("Parse(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
	if Sumi.Hex() != "#1b1a2e" {
		t.Fatalf("Hex = %s", Sumi.Hex())
	}
}

func TestLerpEndpoints(t *testing.T) {
	a, b := Color{0, 100, 200}, Color{200, 100, 0}
	if Lerp(a, b, 0) != a || Lerp(a, b, 1) != b {
		t.Fatalf("endpoints not preserved")
	}
	if m := Lerp(a, b, 0.5); m != (Color{100, 100, 100}) {
		t.Fatalf("midpoint = %+v", m)
	}
}

func TestDepthDarkens(t *testing.T) {
	for _, c := range []Color{Sumi, Vermilion, Sepia, Paper} {
		lo, hi := c.Depth(0.2), c.Depth(1.8)
		if hi.Luminance() > lo.Luminance() {
			t.Fatalf("%s: higher flow should be darker: %v vs %v", c.Hex(), hi.Luminance(), lo.Luminance())
		}
		if lo.Luminance() > c.Luminance() {
			t.Fatalf("%s: depth should never lighten", c.Hex())
		}
	}
}

func TestTowardPaperLightens(t *testing.T) {
	if Sumi.TowardPaper(0.5).Luminance() <= Sumi.Luminance() {
		t.Fatalf("TowardPaper should lighten a dark ink")
	}
	if Sumi.TowardPaper(1) != Paper {
		t.Fatalf("TowardPaper(1) should equal paper")
	}
}

func TestNRGBAClampsAlpha(t *testing.T) {
	if Sumi.NRGBA(2).A != 255 || Sumi.NRGBA(-1).A != 0 {
		t.Fatalf("alpha not clamped")
	}
}
