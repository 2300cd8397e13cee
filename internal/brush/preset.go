/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package brush

import (
	"sort"
	"strings"

	"inkwash/internal/mathx"
)

// Tip patterns select a stylistic variant of the stroke core.
const (
	TipRound   = "round"
	TipFlat    = "flat"    // calligraphic nib: width follows heading
	TipSplit   = "split"   // two parallel cores
	TipStipple = "stipple" // dotted core
)

// Preset is a named, ink-agnostic brush parameter bundle.
//
// Ranges enforced by Clamped:
//
//	base_size 0.5..256 px at unit drive
//	flow      0.05..2   opacity gain
//	jitter    0..3      positional noise gain
//	grain     0..1      dry texture probability
//	wetness   0.05..2.5 bloom/halo gain
//	bristles  0..64     rake strands, 0 disables the rake
//	spread    0..4      lateral bristle scatter, in stroke sizes
type Preset struct {
	Name       string  `yaml:"name" json:"name"`
	BaseSize   float64 `yaml:"base_size" json:"base_size"`
	Flow       float64 `yaml:"flow" json:"flow"`
	Jitter     float64 `yaml:"jitter" json:"jitter"`
	Grain      float64 `yaml:"grain" json:"grain"`
	Wetness    float64 `yaml:"wetness" json:"wetness"`
	Bristles   int     `yaml:"bristles" json:"bristles"`
	Spread     float64 `yaml:"spread" json:"spread"`
	TipPattern string  `yaml:"tip_pattern,omitempty" json:"tip_pattern,omitempty"`
}

// Clamped returns p with every gain inside its documented range and an
// unknown tip pattern mapped to round.
func (p Preset) Clamped() Preset {
	p.BaseSize = mathx.Clamp(p.BaseSize, 0.5, 256)
	p.Flow = mathx.Clamp(p.Flow, 0.05, 2)
	p.Jitter = mathx.Clamp(p.Jitter, 0, 3)
	p.Grain = mathx.Clamp(p.Grain, 0, 1)
	p.Wetness = mathx.Clamp(p.Wetness, 0.05, 2.5)
	p.Spread = mathx.Clamp(p.Spread, 0, 4)
	p.Bristles = max(0, min(64, p.Bristles))
	switch t := strings.ToLower(strings.TrimSpace(p.TipPattern)); t {
	case TipFlat, TipSplit, TipStipple:
		p.TipPattern = t
	default:
		p.TipPattern = TipRound
	}
	return p
}

var builtins = map[string]Preset{
	"sumi":        {Name: "sumi", BaseSize: 14, Flow: 1.0, Jitter: 0.35, Grain: 0.25, Wetness: 0.6, Spread: 0.6},
	"hake":        {Name: "hake", BaseSize: 22, Flow: 0.7, Jitter: 0.5, Grain: 0.35, Wetness: 1.2, Bristles: 10, Spread: 1.4},
	"dry-rake":    {Name: "dry-rake", BaseSize: 16, Flow: 0.9, Jitter: 0.6, Grain: 0.85, Wetness: 0.15, Bristles: 14, Spread: 1.1, TipPattern: TipSplit},
	"wash":        {Name: "wash", BaseSize: 26, Flow: 0.45, Jitter: 0.25, Grain: 0.1, Wetness: 2.0, Spread: 0.8},
	"splatter":    {Name: "splatter", BaseSize: 12, Flow: 1.2, Jitter: 1.1, Grain: 0.4, Wetness: 0.8, Bristles: 4, Spread: 1.8, TipPattern: TipStipple},
	"calligraphy": {Name: "calligraphy", BaseSize: 12, Flow: 1.3, Jitter: 0.15, Grain: 0.2, Wetness: 0.5, Spread: 0.5, TipPattern: TipFlat},
}

// Default returns the sumi preset.
func Default() Preset { return builtins["sumi"].Clamped() }

// Lookup returns a built-in preset by name.
func Lookup(name string) (Preset, bool) {
	p, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Preset{}, false
	}
	return p.Clamped(), true
}

// Names lists the built-in presets in alphabetical order.
func Names() []string {
	out := make([]string, 0, len(builtins))
	for n := range builtins {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
