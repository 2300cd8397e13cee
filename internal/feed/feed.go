/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package feed supplies analysis frames to a session: synthetic drive
// profiles for demos and tests, decoded WAV files for offline renders, and a
// channel source for live capture collaborators.
package feed

import (
	"math"
	"sort"
	"strings"

	"inkwash/internal/drive"
	"inkwash/internal/mathx"
)

// Frame is one analysis push: normalized magnitudes per bin and
// time-domain samples in [-1, 1].
type Frame struct {
	Freq []float64
	Time []float64
}

// Source yields frames without blocking. ok is false when no frame is
// ready or the source is exhausted; Done tells the two apart.
type Source interface {
	Next() (f Frame, ok bool)
	Done() bool
}

// Chan adapts a channel pushed by a capture collaborator.
type Chan chan Frame

// Next returns a pending frame, if any.
func (c Chan) Next() (Frame, bool) {
	select {
	case f, ok := <-c:
		return f, ok
	default:
		return Frame{}, false
	}
}

// Done never reports true; live capture ends when the session stops.
func (c Chan) Done() bool { return false }

// Profile describes a synthetic drive. Band and Energy are the values the
// extractor should settle at; a pulse profile lifts them to Beat* levels
// for BeatLen at every beat.
type Profile struct {
	Name   string
	Low    float64
	Mid    float64
	High   float64
	Energy float64

	BeatHz     float64
	BeatLen    float64 // seconds
	BeatLow    float64
	BeatEnergy float64
}

var profiles = map[string]Profile{
	"silent": {Name: "silent"},
	"loud":   {Name: "loud", Low: 0.9, Mid: 0.1, High: 0.05, Energy: 0.8},
	"pulse":  {Name: "pulse", Low: 0.15, Mid: 0.2, High: 0.1, Energy: 0.12, BeatHz: 2, BeatLen: 0.09, BeatLow: 0.95, BeatEnergy: 0.9},
	"airy":   {Name: "airy", Low: 0.05, Mid: 0.35, High: 0.7, Energy: 0.3},
}

// ProfileByName returns a built-in profile.
func ProfileByName(name string) (Profile, bool) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// ProfileNames lists the built-in profiles.
func ProfileNames() []string {
	out := make([]string, 0, len(profiles))
	for n := range profiles {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Synthetic generates frames for a profile at a fixed cadence. It never
// runs dry.
type Synthetic struct {
	p       Profile
	cfg     drive.Config
	bins    int
	samples int
	step    float64
	t       float64
	r       mathx.Rand
}

// NewSynthetic returns a generator of bins-wide spectra and samples-long
// blocks, advancing 1/cadenceHz per frame.
func NewSynthetic(p Profile, bins, samples int, cadenceHz float64, seed uint64) *Synthetic {
	if cadenceHz <= 0 {
		cadenceHz = 30
	}
	return &Synthetic{
		p:       p,
		cfg:     drive.DefaultConfig(),
		bins:    max(8, bins),
		samples: max(16, samples),
		step:    1 / cadenceHz,
		r:       mathx.Seeded(seed),
	}
}

// Done is always false.
func (s *Synthetic) Done() bool { return false }

// Next builds the next frame.
func (s *Synthetic) Next() (Frame, bool) {
	low, energy := s.p.Low, s.p.Energy
	if s.p.BeatHz > 0 && math.Mod(s.t*s.p.BeatHz, 1) < s.p.BeatLen*s.p.BeatHz {
		low, energy = s.p.BeatLow, s.p.BeatEnergy
	}
	t0 := s.t
	s.t += s.step

	f := Frame{Freq: make([]float64, s.bins), Time: make([]float64, s.samples)}
	lowEnd := max(1, int(math.Round(float64(s.bins)*s.cfg.LowCut)))
	midEnd := max(lowEnd+1, int(math.Round(float64(s.bins)*s.cfg.MidCut)))
	levels := [3]float64{
		unshape(low, s.cfg.Low),
		unshape(s.p.Mid, s.cfg.Mid),
		unshape(s.p.High, s.cfg.High),
	}
	for i := range f.Freq {
		band := 2
		if i < lowEnd {
			band = 0
		} else if i < midEnd {
			band = 1
		}
		if v := levels[band]; v > 0 {
			// Zero-mean wobble keeps the band average on target.
			f.Freq[i] = mathx.Clamp01(v * (1 + mathx.Signed(s.r, 0.05)))
		}
	}
	if energy > 0 {
		amp := (s.cfg.NoiseFloor + energy*s.cfg.RMSRange) * math.Sqrt2
		// 110 Hz carrier at an assumed 44.1 kHz sample rate.
		w := 2 * math.Pi * 110 / 44100
		for i := range f.Time {
			f.Time[i] = amp * math.Sin(w*(t0*44100+float64(i)))
		}
	}
	return f, true
}

// unshape inverts the extractor's band shaping so that a band average of
// the result maps back onto target.
func unshape(target float64, b drive.Band) float64 {
	if target <= 0 || b.Gain <= 0 || b.Power <= 0 {
		return 0
	}
	return mathx.Clamp01(math.Pow(mathx.Clamp01(target), 1/b.Power) / b.Gain)
}
