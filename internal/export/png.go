/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export encodes canvas pixel buffers. It is the only place that
// touches file formats; the renderer hands it finished images.
package export

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
)

// PNGOptions controls PNG export behaviour.
//
//   - Width/Height: when > 0 the image is resampled to that size; a zero
//     side keeps the aspect ratio of the other.
//   - Fast selects speed over size when compressing.
type PNGOptions struct {
	Width  int
	Height int
	Fast   bool
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image, opt PNGOptions) error {
	if img == nil {
		return fmt.Errorf("encode png: nil image")
	}
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if opt.Fast {
		enc.CompressionLevel = png.BestSpeed
	}
	if err := enc.Encode(w, fit(img, opt.Width, opt.Height)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// WritePNG encodes img into path, creating parent directories.
func WritePNG(path string, img image.Image, opt PNGOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := EncodePNG(bw, img, opt); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// fit resamples img to w×h, filling a zero side from the aspect ratio.
func fit(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if (w <= 0 && h <= 0) || b.Empty() {
		return img
	}
	if w <= 0 {
		w = int(math.Round(float64(h) * float64(b.Dx()) / float64(b.Dy())))
	}
	if h <= 0 {
		h = int(math.Round(float64(w) * float64(b.Dy()) / float64(b.Dx())))
	}
	w, h = max(1, w), max(1, h)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Sequence writes numbered frames (frame-00000.png, ...) into a directory
// for an external video encoder.
type Sequence struct {
	dir  string
	opt  PNGOptions
	next int
}

// NewSequence prepares dir for frame output.
func NewSequence(dir string, opt PNGOptions) (*Sequence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure frame dir: %w", err)
	}
	return &Sequence{dir: dir, opt: opt}, nil
}

// Write stores img as the next frame and returns its path.
func (s *Sequence) Write(img image.Image) (string, error) {
	p := filepath.Join(s.dir, fmt.Sprintf("frame-%05d.png", s.next))
	if err := WritePNG(p, img, s.opt); err != nil {
		return "", err
	}
	s.next++
	return p, nil
}

// Count is the number of frames written.
func (s *Sequence) Count() int { return s.next }
