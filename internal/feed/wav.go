/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-audio/wav"

	"inkwash/internal/drive"
	applog "inkwash/internal/log"
)

// ErrUnsupportedWAV marks files the decoder cannot turn into PCM frames.
var ErrUnsupportedWAV = errors.New("unsupported wav")

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// WAV replays a decoded file as analysis frames, one hop per cadence tick.
type WAV struct {
	mono       []float64
	sampleRate int
	hop        int
	pos        int
	spectrum   *drive.Spectrum
	block      []float64
}

// OpenWAV decodes path fully, mixes it to mono and prepares frames of
// fftSize samples every 1/cadenceHz seconds.
func OpenWAV(path string, cadenceHz float64, fftSize int) (*WAV, error) {
	l := applog.WithOperation(applog.WithComponent("feed"), "open_wav").With(slog.String("path", path))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer func() { _ = f.Close() }()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a RIFF/WAVE file", ErrUnsupportedWAV, path)
	}
	if d.WavAudioFormat != formatPCM && d.WavAudioFormat != formatExtensible {
		return nil, fmt.Errorf("%w: audio format %d", ErrUnsupportedWAV, d.WavAudioFormat)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing format", ErrUnsupportedWAV)
	}
	depth := int(d.BitDepth)
	switch depth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedWAV, depth)
	}

	w := newWAV(mixDown(buf.Data, buf.Format.NumChannels, depth), buf.Format.SampleRate, cadenceHz, fftSize)
	l.Info("wav opened",
		slog.Int("rate", w.sampleRate), slog.Int("channels", buf.Format.NumChannels),
		slog.Int("bits", depth), slog.Duration("length", w.Duration()))
	return w, nil
}

func newWAV(mono []float64, rate int, cadenceHz float64, fftSize int) *WAV {
	if cadenceHz <= 0 {
		cadenceHz = 30
	}
	spectrum := drive.NewSpectrum(fftSize)
	return &WAV{
		mono:       mono,
		sampleRate: rate,
		hop:        max(1, int(float64(rate)/cadenceHz)),
		spectrum:   spectrum,
		block:      make([]float64, spectrum.Size()),
	}
}

// mixDown averages interleaved integer samples into mono floats in [-1, 1].
func mixDown(data []int, channels, depth int) []float64 {
	full := float64(int(1) << (depth - 1))
	n := len(data) / channels
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			v := data[i*channels+c]
			if depth == 8 {
				v -= 128
			}
			sum += float64(v) / full
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// SampleRate is the file's sample rate in Hz.
func (w *WAV) SampleRate() int { return w.sampleRate }

// Duration is the decoded length.
func (w *WAV) Duration() time.Duration {
	if w.sampleRate == 0 {
		return 0
	}
	return time.Duration(float64(len(w.mono)) / float64(w.sampleRate) * float64(time.Second))
}

// Frames is the total number of frames the file yields.
func (w *WAV) Frames() int { return (len(w.mono) + w.hop - 1) / w.hop }

// Done reports whether every frame has been read.
func (w *WAV) Done() bool { return w.pos >= len(w.mono) }

// Next returns the frame at the current hop and advances. The final block
// is zero-padded.
func (w *WAV) Next() (Frame, bool) {
	if w.Done() {
		return Frame{}, false
	}
	for i := range w.block {
		j := w.pos + i
		if j < len(w.mono) {
			w.block[i] = w.mono[j]
		} else {
			w.block[i] = 0
		}
	}
	w.pos += w.hop
	td := append([]float64(nil), w.block...)
	return Frame{Freq: w.spectrum.Magnitudes(nil, td), Time: td}, true
}

// Rewind restarts playback from the first frame.
func (w *WAV) Rewind() { w.pos = 0 }
