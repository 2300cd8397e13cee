/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ink defines ink colours and the paper they are laid on.
package ink

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Color is an opaque RGB ink. Variants such as Depth or TowardPaper are
// derived on demand.
type Color struct{ R, G, B uint8 }

// Paper is the background colour of a fresh sheet.
var Paper = Color{244, 239, 226}

// Named inks offered by the CLI and the default config.
var (
	Sumi      = Color{27, 26, 46}
	Indigo    = Color{38, 52, 96}
	Vermilion = Color{196, 58, 36}
	Sepia     = Color{94, 62, 38}
	Moss      = Color{58, 84, 52}
)

// Lerp interpolates each channel between a and b.
func Lerp(a, b Color, t float64) Color {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return Color{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B)}
}

// Luminance returns relative luminance in [0, 1] (Rec. 709 weights, linearised sRGB).
func (c Color) Luminance() float64 {
	lin := func(v uint8) float64 {
		s := float64(v) / 255
		if s <= 0.04045 {
			return s / 12.92
		}
		return math.Pow((s+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(c.R) + 0.7152*lin(c.G) + 0.0722*lin(c.B)
}

// Depth returns the darkened "ink depth" variant used for the stroke core:
// higher flow and darker inks pull further toward a near-black of the same hue.
func (c Color) Depth(flow float64) Color {
	amt := 0.2 + math.Min(flow, 2)*0.2 + (1-c.Luminance())*0.25
	if amt > 0.85 {
		amt = 0.85
	}
	shadow := Color{uint8(float64(c.R) * 0.3), uint8(float64(c.G) * 0.3), uint8(float64(c.B) * 0.32)}
	return Lerp(c, shadow, amt)
}

// TowardPaper lightens c toward the paper colour by t.
func (c Color) TowardPaper(t float64) Color { return Lerp(c, Paper, t) }

// NRGBA returns c with the given opacity in [0, 1].
func (c Color) NRGBA(alpha float64) color.NRGBA {
	a := math.Max(0, math.Min(1, alpha))
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(a * 255))}
}

// RGBA returns the opaque colour.
func (c Color) RGBA() color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255} }

// Hex formats c as #rrggbb.
func (c Color) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// Parse accepts #rrggbb, #rgb or one of the named inks.
func Parse(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "sumi", "black":
		return Sumi, nil
	case "indigo":
		return Indigo, nil
	case "vermilion", "red":
		return Vermilion, nil
	case "sepia":
		return Sepia, nil
	case "moss", "green":
		return Moss, nil
	}
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("ink: invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("ink: invalid colour %q: %w", s, err)
	}
	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}
