/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drive

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Spectrum converts blocks of time-domain samples into normalized magnitude
// bins the way a browser analyser node does: Hann window, FFT, magnitude in
// dB mapped linearly from [MinDB, MaxDB] onto [0, 1].
type Spectrum struct {
	size  int
	fft   *fourier.FFT
	win   []float64
	buf   []float64
	MinDB float64
	MaxDB float64
}

// NewSpectrum prepares an analyser for blocks of size samples (rounded up to even).
func NewSpectrum(size int) *Spectrum {
	if size < 8 {
		size = 8
	}
	if size%2 != 0 {
		size++
	}
	win := make([]float64, size)
	for i := range win {
		win[i] = 1
	}
	return &Spectrum{
		size:  size,
		fft:   fourier.NewFFT(size),
		win:   window.Hann(win),
		buf:   make([]float64, size),
		MinDB: -100,
		MaxDB: -30,
	}
}

// Size is the block length in samples.
func (s *Spectrum) Size() int { return s.size }

// Bins is the number of magnitude bins produced per block.
func (s *Spectrum) Bins() int { return s.size / 2 }

// Magnitudes fills dst (allocated when too short) with size/2 normalized
// bins for samples. Short input is zero-padded; long input is truncated.
func (s *Spectrum) Magnitudes(dst, samples []float64) []float64 {
	for i := range s.buf {
		v := 0.0
		if i < len(samples) {
			v = samples[i]
		}
		s.buf[i] = v * s.win[i]
	}
	coeffs := s.fft.Coefficients(nil, s.buf)
	n := s.Bins()
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	span := s.MaxDB - s.MinDB
	for i := 0; i < n; i++ {
		mag := cmplx.Abs(coeffs[i]) / float64(s.size)
		db := s.MinDB
		if mag > 0 {
			db = 20 * math.Log10(mag)
		}
		v := (db - s.MinDB) / span
		dst[i] = math.Max(0, math.Min(1, v))
	}
	return dst
}
