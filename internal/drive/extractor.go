/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package drive turns audio analysis buffers into the smoothed control signal
// that steers and shapes the brush.
package drive

import (
	"math"
	"sync"
	"time"

	"inkwash/internal/mathx"
)

// Signal is the five-scalar drive: short-term loudness, three smoothed band
// energies and a decaying transient flag.
type Signal struct {
	Energy float64 `json:"energy" yaml:"energy"` // [0,1]
	Low    float64 `json:"low" yaml:"low"`       // [0,~1.2]
	Mid    float64 `json:"mid" yaml:"mid"`
	High   float64 `json:"high" yaml:"high"`
	Peak   float64 `json:"peak" yaml:"peak"` // [0,1]
}

// Total is the sum of all five scalars; the renderer treats a total below
// its silence threshold as silence.
func (s Signal) Total() float64 { return s.Energy + s.Low + s.Mid + s.High + s.Peak }

// Loudness combines energy and transient: clamp(energy + peak·0.6, 0, 1.2).
func (s Signal) Loudness() float64 { return mathx.Clamp(s.Energy+s.Peak*0.6, 0, 1.2) }

// Band describes how one partition of the spectrum is shaped and smoothed.
type Band struct {
	Gain   float64 `yaml:"gain"`
	Power  float64 `yaml:"power"`
	Smooth float64 `yaml:"smooth"`
}

// Config holds the analysis constants.
type Config struct {
	// LowCut and MidCut are fractional bin boundaries: low = [0,LowCut),
	// mid = [LowCut,MidCut), high = [MidCut,1).
	LowCut float64 `yaml:"low_cut"`
	MidCut float64 `yaml:"mid_cut"`
	Low    Band    `yaml:"low"`
	Mid    Band    `yaml:"mid"`
	High   Band    `yaml:"high"`

	NoiseFloor   float64 `yaml:"noise_floor"`
	RMSRange     float64 `yaml:"rms_range"`
	EnergySmooth float64 `yaml:"energy_smooth"`

	PeakThreshold  float64       `yaml:"peak_threshold"`
	PeakRefractory time.Duration `yaml:"peak_refractory"`
	PeakDecay      float64       `yaml:"peak_decay"`

	// FrameInterval is the minimum spacing between analysed frames; calls
	// arriving sooner are skipped.
	FrameInterval time.Duration `yaml:"frame_interval"`
}

// DefaultConfig returns the tuned analysis constants (≈30 Hz cadence).
func DefaultConfig() Config {
	return Config{
		LowCut:         0.08,
		MidCut:         0.45,
		Low:            Band{Gain: 3.0, Power: 0.8, Smooth: 0.35},
		Mid:            Band{Gain: 3.6, Power: 0.85, Smooth: 0.35},
		High:           Band{Gain: 6.6, Power: 0.7, Smooth: 0.28},
		NoiseFloor:     0.012,
		RMSRange:       0.2,
		EnergySmooth:   0.36,
		PeakThreshold:  0.22,
		PeakRefractory: 110 * time.Millisecond,
		PeakDecay:      0.14,
		FrameInterval:  30 * time.Millisecond,
	}
}

// Extractor holds the smoothed state for one session. Analyze and Snapshot
// may be called from different goroutines.
type Extractor struct {
	cfg Config

	mu          sync.RWMutex
	sig         Signal
	lastFrame   time.Time
	lastTrigger time.Time
	frames      uint64
	skipped     uint64
}

// NewExtractor returns an extractor at silence.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Analyze folds one analysis frame into the smoothed state and returns the
// new snapshot. freq holds normalized magnitudes in [0,1] per bin; td holds
// time-domain samples in [-1,1]. Malformed frames leave the state unchanged.
func (e *Extractor) Analyze(now time.Time, freq, td []float64) Signal {
	e.mu.Lock()
	defer e.mu.Unlock()

	back := !e.lastFrame.IsZero() && now.Before(e.lastFrame)
	if !back && !e.lastFrame.IsZero() && now.Sub(e.lastFrame) < e.cfg.FrameInterval {
		e.skipped++
		return e.sig
	}
	if !wellFormed(freq, td) {
		return e.sig
	}
	if back && !e.lastTrigger.IsZero() {
		// The clock stepped back: move the peak timer onto the new timeline.
		e.lastTrigger = e.lastTrigger.Add(now.Sub(e.lastFrame))
	}
	e.lastFrame = now
	e.frames++

	n := len(freq)
	lowEnd := max(1, int(math.Round(float64(n)*e.cfg.LowCut)))
	midEnd := max(lowEnd+1, int(math.Round(float64(n)*e.cfg.MidCut)))
	if midEnd >= n {
		midEnd = n - 1
	}
	e.sig.Low = mathx.Smooth(e.sig.Low, shape(mean(freq[:lowEnd]), e.cfg.Low), e.cfg.Low.Smooth)
	e.sig.Mid = mathx.Smooth(e.sig.Mid, shape(mean(freq[lowEnd:midEnd]), e.cfg.Mid), e.cfg.Mid.Smooth)
	e.sig.High = mathx.Smooth(e.sig.High, shape(mean(freq[midEnd:]), e.cfg.High), e.cfg.High.Smooth)

	level := mathx.Clamp01((rms(td) - e.cfg.NoiseFloor) / e.cfg.RMSRange)
	e.sig.Energy = mathx.Smooth(e.sig.Energy, level, e.cfg.EnergySmooth)

	if level > e.cfg.PeakThreshold && (e.lastTrigger.IsZero() || now.Sub(e.lastTrigger) >= e.cfg.PeakRefractory) {
		e.sig.Peak = 1
		e.lastTrigger = now
	} else {
		e.sig.Peak = math.Max(0, e.sig.Peak-e.cfg.PeakDecay)
	}
	return e.sig
}

// Snapshot returns a consistent copy of the current drive.
func (e *Extractor) Snapshot() Signal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sig
}

// Stats reports analysed and skipped frame counts.
func (e *Extractor) Stats() (frames, skipped uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.frames, e.skipped
}

// Reset returns the extractor to silence.
func (e *Extractor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sig = Signal{}
	e.lastFrame = time.Time{}
	e.lastTrigger = time.Time{}
}

// shape applies gain and a compressive power, clamped to [0,1].
func shape(avg float64, b Band) float64 {
	return mathx.Clamp01(math.Pow(mathx.Clamp01(avg*b.Gain), b.Power))
}

func wellFormed(freq, td []float64) bool {
	if len(freq) < 3 || len(td) == 0 {
		return false
	}
	return mathx.Finite(freq...) && mathx.Finite(td...)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += math.Max(0, x)
	}
	return s / float64(len(xs))
}

func rms(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x * x
	}
	return math.Sqrt(s / float64(len(xs)))
}
