/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"inkwash/internal/brush"
	"inkwash/internal/config"
	"inkwash/internal/ink"
	"inkwash/internal/presetpack"
)

func TestSessionOptionsFlagsOverrideConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Brush.PresetDir = t.TempDir()
	f := renderFlags{width: 320, ink: "#112233", preset: "hake", seed: 9, force: true}

	o, err := sessionOptions(cfg, f)
	if err != nil {
		t.Fatalf("sessionOptions: %v", err)
	}
	if o.Width != 320 || o.Height != cfg.Surface.Height {
		t.Fatalf("size = %dx%d", o.Width, o.Height)
	}
	if o.Seed != 9 || !o.Trajectory.ForcePaint {
		t.Fatalf("seed/force not applied: %d %v", o.Seed, o.Trajectory.ForcePaint)
	}
	want, _ := ink.Parse("#112233")
	if o.Ink != want {
		t.Fatalf("ink = %v, want %v", o.Ink, want)
	}
	if o.Preset.Name != "hake" {
		t.Fatalf("preset = %q", o.Preset.Name)
	}
	if o.History.MaxBytes != cfg.History.MaxMB<<20 || o.History.MinInterval <= 0 {
		t.Fatalf("history = %+v", o.History)
	}
}

func TestSessionOptionsRejectsUnknownPresetAndInk(t *testing.T) {
	cfg := config.Defaults()
	cfg.Brush.PresetDir = t.TempDir()
	if _, err := sessionOptions(cfg, renderFlags{preset: "no-such-brush"}); err == nil {
		t.Fatalf("expected unknown preset error")
	}
	if _, err := sessionOptions(cfg, renderFlags{ink: "#zz"}); err == nil {
		t.Fatalf("expected bad ink error")
	}
}

func TestRenderWritesCanvasAndFrames(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.png")
	frames := filepath.Join(dir, "frames")
	args := []string{
		"-config", filepath.Join(dir, "missing.yaml"),
		"-profile", "loud", "-duration", "500ms",
		"-w", "120", "-h", "80", "-oversample", "1",
		"-out", out, "-frames", frames, "-frame-every", "5", "-seed", "3",
	}
	if err := runRender(args); err != nil {
		t.Fatalf("render: %v", err)
	}
	fh, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer fh.Close()
	img, err := png.Decode(fh)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Fatalf("size = %v", b)
	}
	entries, err := os.ReadDir(frames)
	if err != nil || len(entries) == 0 {
		t.Fatalf("no frames written: %v", err)
	}
}

func TestRenderRejectsUnknownProfile(t *testing.T) {
	dir := t.TempDir()
	args := []string{"-config", filepath.Join(dir, "missing.yaml"), "-profile", "thunder", "-out", filepath.Join(dir, "x.png")}
	if err := runRender(args); err == nil {
		t.Fatalf("expected error for unknown profile")
	}
}

func TestInstallPackFromExportedPresets(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	p := brush.Default()
	p.Name = "wet_wash"
	p.Wetness = 1.8
	data, err := presetpack.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "wet_wash.yaml"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	zipPath := filepath.Join(dir, "pack.zip")
	if n, err := presetpack.ExportPack(src, zipPath); err != nil || n != 1 {
		t.Fatalf("export: n=%d err=%v", n, err)
	}

	dst := filepath.Join(dir, "dst")
	missing := filepath.Join(dir, "missing.yaml")
	if err := runInstallPack([]string{zipPath, "-dir", dst, "-config", missing}); err != nil {
		t.Fatalf("install: %v", err)
	}
	got, err := presetpack.Resolve("wet_wash", dst)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Wetness != 1.8 {
		t.Fatalf("wetness = %v", got.Wetness)
	}
	if err := runInstallPack([]string{"-dir", dst, "-config", missing}); err == nil {
		t.Fatalf("expected error without a zip")
	}
}
