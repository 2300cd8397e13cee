/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package raster

import (
	"image"
	"image/draw"
	"testing"

	"inkwash/internal/geom"
	"inkwash/internal/ink"
)

func paperImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(ink.Paper.RGBA()), image.Point{}, draw.Src)
	return img
}

func TestLineCoversSegment(t *testing.T) {
	img := paperImage(40, 20)
	p := NewPainter(img)
	p.Line(geom.P(5, 10), geom.P(35, 10), 4, ink.Sumi, 1, Over)

	mid := img.RGBAAt(20, 10)
	if mid.R != ink.Sumi.R || mid.G != ink.Sumi.G || mid.B != ink.Sumi.B {
		t.Fatalf("centre pixel not inked: %+v", mid)
	}
	if far := img.RGBAAt(20, 2); far != ink.Paper.RGBA() {
		t.Fatalf("pixel away from the line changed: %+v", far)
	}
}

func TestMultiplyNeverLightens(t *testing.T) {
	img := paperImage(32, 32)
	p := NewPainter(img)
	p.Disc(geom.P(16, 16), 10, ink.Sumi, 0.8, Over)
	before := append([]byte(nil), img.Pix...)

	// A colour lighter than the existing ink must not brighten it under multiply.
	p.Radial(geom.P(16, 16), 14, ink.Color{R: 255, G: 250, B: 240}, []Stop{{0, 0.9}, {1, 0}}, Multiply)
	p.Disc(geom.P(12, 12), 6, ink.Paper, 1, Multiply)
	for i := range img.Pix {
		if i%4 == 3 {
			continue
		}
		if img.Pix[i] > before[i] {
			t.Fatalf("multiply lightened byte %d: %d -> %d", i, before[i], img.Pix[i])
		}
	}
}

func TestRadialFollowsStops(t *testing.T) {
	img := paperImage(41, 41)
	p := NewPainter(img)
	// Transparent centre, opaque near the rim: a dry-edge ring.
	p.Radial(geom.P(20.5, 20.5), 20, ink.Sumi, []Stop{{0, 0}, {0.6, 0}, {0.85, 0.8}, {1, 0}}, Multiply)
	if c := img.RGBAAt(20, 20); c != ink.Paper.RGBA() {
		t.Fatalf("centre should be untouched: %+v", c)
	}
	ring := img.RGBAAt(20+17, 20)
	if ring.R >= ink.Paper.R {
		t.Fatalf("ring pixel not darkened: %+v", ring)
	}
}

func TestClipsOutsideBounds(t *testing.T) {
	img := paperImage(10, 10)
	p := NewPainter(img)
	p.Line(geom.P(-50, -50), geom.P(-20, -20), 6, ink.Sumi, 1, Over)
	p.Disc(geom.P(100, 100), 5, ink.Sumi, 1, Over)
	p.Dot(-1, 3, ink.Sumi, 1, Over)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if img.RGBAAt(x, y) != ink.Paper.RGBA() {
				t.Fatalf("pixel (%d,%d) changed by off-canvas primitives", x, y)
			}
		}
	}
	// partially visible disc is clipped, not dropped
	p.Disc(geom.P(0, 0), 4, ink.Sumi, 1, Over)
	if img.RGBAAt(0, 0) == ink.Paper.RGBA() {
		t.Fatalf("clipped disc should still paint the visible corner")
	}
}

func TestRampAt(t *testing.T) {
	stops := []Stop{{0, 0.2}, {0.5, 1}, {1, 0}}
	cases := map[float64]float64{0: 0.2, 0.25: 0.6, 0.5: 1, 0.75: 0.5, 1: 0}
	for d, want := range cases {
		if got := rampAt(stops, d); got < want-1e-9 || got > want+1e-9 {
			t.Errorf("rampAt(%v) = %v, want %v", d, got, want)
		}
	}
}

func TestDegenerateInputsAreNoOps(t *testing.T) {
	img := paperImage(8, 8)
	p := NewPainter(img)
	before := append([]byte(nil), img.Pix...)
	p.Line(geom.P(1, 1), geom.P(6, 6), 0, ink.Sumi, 1, Over)
	p.Disc(geom.P(4, 4), -2, ink.Sumi, 1, Over)
	p.Radial(geom.P(4, 4), 3, ink.Sumi, nil, Over)
	p.Line(geom.P(1, 1), geom.P(6, 6), 2, ink.Sumi, 0, Over)
	p.Line(geom.P(-1e300, 4), geom.P(1e300, 4), 2, ink.Sumi, 1, Over)
	p.Disc(geom.P(1e300, -1e300), 3, ink.Sumi, 1, Over)
	p.Disc(geom.P(4, 4), 1e300, ink.Sumi, 1, Over)
	for i := range before {
		if before[i] != img.Pix[i] {
			t.Fatalf("degenerate primitive modified pixels")
		}
	}
}
