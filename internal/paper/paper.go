/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package paper owns the drawing buffers. The baked buffer is the durable,
// reproducible record; the live buffer is what gets displayed and always
// equals the baked buffer plus the most recent transient overlay.
package paper

import (
	"image"
	"image/draw"
	"log/slog"
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"

	"inkwash/internal/ink"
	applog "inkwash/internal/log"
	"inkwash/internal/mathx"
	"inkwash/internal/raster"
)

// MaxOversample caps the ratio between buffer pixels and viewport units.
const MaxOversample = 2.0

// DefaultGrainSpecks is the number of 1×1 specks scattered on fresh paper.
const DefaultGrainSpecks = 60000

// Options configures a surface.
type Options struct {
	// Width and Height are the viewport size; buffers are Oversample times larger.
	Width, Height int
	Oversample    float64
	GrainSpecks   int
	GrainSeed     int64
	Background    ink.Color
}

// Surface holds the live and baked buffers. All methods are safe for
// concurrent use; mutations are serialised by one lock so a stroke never
// interleaves with a resize.
type Surface struct {
	mu         sync.Mutex
	live       *image.RGBA
	baked      *image.RGBA
	oversample float64
	specks     int
	seed       int64
	noise      mathx.Noise
	bg         ink.Color
	log        *slog.Logger
}

// New allocates a surface dressed with background and grain.
func New(opts Options) *Surface {
	ov := opts.Oversample
	if !(ov > 0) {
		ov = 1
	}
	if ov > MaxOversample {
		ov = MaxOversample
	}
	specks := opts.GrainSpecks
	if specks < 0 {
		specks = 0
	}
	bg := opts.Background
	if bg == (ink.Color{}) {
		bg = ink.Paper
	}
	s := &Surface{
		oversample: ov,
		specks:     specks,
		seed:       opts.GrainSeed,
		noise:      mathx.NewNoise(opts.GrainSeed),
		bg:         bg,
		log:        applog.WithComponent("paper"),
	}
	w, h := s.pixelSize(opts.Width, opts.Height)
	s.baked = image.NewRGBA(image.Rect(0, 0, w, h))
	s.dress(s.baked)
	s.live = cloneRGBA(s.baked)
	return s
}

// Oversample returns the buffer-to-viewport scale.
func (s *Surface) Oversample() float64 { return s.oversample }

// Size returns the buffer size in pixels.
func (s *Surface) Size() (w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.baked.Bounds()
	return b.Dx(), b.Dy()
}

// Resize reallocates both buffers for a new viewport size, preserving the
// painted content by scaling the old baked buffer onto the new one. Aspect
// changes stretch the content. It reports whether anything changed.
func (s *Surface) Resize(viewW, viewH int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, h := s.pixelSize(viewW, viewH)
	old := s.baked
	if ob := old.Bounds(); ob.Dx() == w && ob.Dy() == h {
		return false
	}
	snapshot := cloneRGBA(old)
	nb := image.NewRGBA(image.Rect(0, 0, w, h))
	s.dress(nb)
	xdraw.BiLinear.Scale(nb, nb.Bounds(), snapshot, snapshot.Bounds(), draw.Over, nil)
	s.baked = nb
	s.live = cloneRGBA(nb)
	s.log.Info("surface resized",
		slog.Int("from_w", old.Bounds().Dx()), slog.Int("from_h", old.Bounds().Dy()),
		slog.Int("w", w), slog.Int("h", h))
	return true
}

// Clear resets the baked buffer to fresh paper and presents it.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dress(s.baked)
	copy(s.live.Pix, s.baked.Pix)
	s.log.Info("surface cleared")
}

// Stroke runs one compositing step: bake paints the reproducible pass onto
// the baked buffer, the baked buffer is then copied to the live buffer, and
// overlay paints the transient pass on top of it. Either func may be nil.
func (s *Surface) Stroke(bake, overlay func(dst *image.RGBA)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bake != nil {
		bake(s.baked)
	}
	copy(s.live.Pix, s.baked.Pix)
	if overlay != nil {
		overlay(s.live)
	}
}

// Restore replaces the baked content with img, scaled to the current size,
// and presents it.
func (s *Surface) Restore(img image.Image) {
	if img == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if src, ok := img.(*image.RGBA); ok && src.Rect == s.baked.Rect && src.Stride == s.baked.Stride {
		copy(s.baked.Pix, src.Pix)
	} else {
		s.dress(s.baked)
		xdraw.BiLinear.Scale(s.baked, s.baked.Bounds(), img, img.Bounds(), draw.Over, nil)
	}
	copy(s.live.Pix, s.baked.Pix)
}

// Baked returns a copy of the archival buffer for export.
func (s *Surface) Baked() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRGBA(s.baked)
}

// Live returns a copy of the display buffer.
func (s *Surface) Live() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRGBA(s.live)
}

// ViewBaked calls fn with the baked buffer under the surface lock. fn must
// not modify or retain the image.
func (s *Surface) ViewBaked(fn func(img *image.RGBA)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.baked)
}

func (s *Surface) pixelSize(viewW, viewH int) (int, int) {
	w := int(math.Round(float64(viewW) * s.oversample))
	h := int(math.Round(float64(viewH) * s.oversample))
	return max(1, w), max(1, h)
}

// dress paints background and grain. The grain is seeded, so a cleared sheet
// of a given size always looks the same.
func (s *Surface) dress(img *image.RGBA) {
	draw.Draw(img, img.Bounds(), image.NewUniform(s.bg.RGBA()), image.Point{}, draw.Src)
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	r := mathx.Seeded(uint64(s.seed))
	p := raster.NewPainter(img)
	dark := ink.Lerp(s.bg, ink.Color{R: 96, G: 84, B: 66}, 0.6)
	light := ink.Color{R: 255, G: 253, B: 247}
	for i := 0; i < s.specks; i++ {
		x := b.Min.X + int(r.Float64()*w)
		y := b.Min.Y + int(r.Float64()*h)
		fibre := s.noise.Fractal(float64(x)*0.015, float64(y)*0.06, 2)
		a := mathx.Range(r, 0.03, 0.09)
		if r.Float64() < 0.55+fibre*0.25 {
			p.Dot(x, y, dark, a, raster.Over)
		} else {
			p.Dot(x, y, light, a*1.2, raster.Over)
		}
	}
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
