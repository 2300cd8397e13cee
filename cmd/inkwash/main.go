/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inkwash/internal/brush"
	"inkwash/internal/config"
	"inkwash/internal/crash"
	"inkwash/internal/export"
	"inkwash/internal/feed"
	"inkwash/internal/ink"
	applog "inkwash/internal/log"
	"inkwash/internal/presetpack"
	"inkwash/internal/session"
	"inkwash/internal/version"
)

func usage() {
	fmt.Println("inkwash: audio-driven ink brush renderer")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  inkwash version|-v|--version            Show version")
	fmt.Println("  inkwash render [flags]                   Render a drive source offline to PNG (render -h for flags)")
	fmt.Println("  inkwash presets [-dir d] [-export zip]   List brush presets, optionally zip the user presets")
	fmt.Println("  inkwash install-pack <zip> [-dir d]      Install a zipped preset pack")
}

// crashTarget is filled in as the CLI learns what it is working on.
var crashTarget = &crash.Target{}

func main() {
	applog.Init(applog.FromEnv())
	defer crash.Recover(crashTarget)

	args := os.Args
	if len(args) < 2 {
		usage()
		return
	}
	var err error
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("inkwash")
		fmt.Println(version.String())
		return
	case "render":
		err = runRender(args[2:])
	case "presets":
		err = runPresets(args[2:])
	case "install-pack":
		err = runInstallPack(args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Printf("unknown command %q\n\n", args[1])
		usage()
		os.Exit(2)
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		applog.WithComponent("cli").Error("command failed", slog.String("cmd", args[1]), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads path, or the user config when path is empty, and
// re-initialises logging from it.
func loadConfig(path string) (config.AppConfig, error) {
	var (
		cfg config.AppConfig
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxMB,
	})
	return cfg, err
}

type renderFlags struct {
	config     string
	wav        string
	profile    string
	duration   time.Duration
	out        string
	frames     string
	frameEvery int
	episode    time.Duration
	preset     string
	ink        string
	seed       uint64
	width      int
	height     int
	oversample float64
	outWidth   int
	force      bool
}

func runRender(args []string) error {
	var f renderFlags
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "config file (default: user config)")
	fs.StringVar(&f.wav, "wav", "", "WAV file to analyse")
	fs.StringVar(&f.profile, "profile", "pulse", "synthetic drive profile when no -wav: "+strings.Join(feed.ProfileNames(), "|"))
	fs.DurationVar(&f.duration, "duration", 0, "render length (default: WAV length or 5s)")
	fs.StringVar(&f.out, "out", "inkwash.png", "output PNG of the baked canvas")
	fs.StringVar(&f.frames, "frames", "", "directory for a numbered PNG frame sequence")
	fs.IntVar(&f.frameEvery, "frame-every", 2, "write a frame every n render ticks")
	fs.DurationVar(&f.episode, "episode", 0, "start a new episode at this interval")
	fs.StringVar(&f.preset, "preset", "", "brush preset name or file")
	fs.StringVar(&f.ink, "ink", "", "ink colour: name or #rrggbb")
	fs.Uint64Var(&f.seed, "seed", 0, "session seed (0: config or random)")
	fs.IntVar(&f.width, "w", 0, "viewport width")
	fs.IntVar(&f.height, "h", 0, "viewport height")
	fs.Float64Var(&f.oversample, "oversample", 0, "buffer pixels per viewport unit (max 2)")
	fs.IntVar(&f.outWidth, "out-width", 0, "resample the PNG to this width")
	fs.BoolVar(&f.force, "force", false, "paint even when the drive is silent")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(f.config)
	if err != nil {
		return err
	}
	l := applog.WithOperation(applog.WithComponent("cli"), "render")

	opts, err := sessionOptions(cfg, f)
	if err != nil {
		return err
	}

	sess := session.New(opts)
	defer sess.Stop()
	crashTarget.Dir = filepath.Dir(f.out)
	crashTarget.Session = sess.ID()
	crashTarget.Canvas = func() image.Image { return sess.Baked() }

	var src feed.Source
	length := f.duration
	if f.wav != "" {
		w, err := feed.OpenWAV(f.wav, cfg.Audio.CadenceHz, cfg.Audio.FFTSize)
		if err != nil {
			return err
		}
		if length <= 0 {
			length = w.Duration()
		}
		src = w
	} else {
		p, ok := feed.ProfileByName(f.profile)
		if !ok {
			return fmt.Errorf("unknown profile %q (have %s)", f.profile, strings.Join(feed.ProfileNames(), ", "))
		}
		src = feed.NewSynthetic(p, cfg.Audio.FFTSize/2, cfg.Audio.FFTSize, cfg.Audio.CadenceHz, sess.Seed())
	}
	if length <= 0 {
		length = 5 * time.Second
	}

	var seq *export.Sequence
	if f.frames != "" {
		if seq, err = export.NewSequence(f.frames, export.PNGOptions{Fast: true, Width: f.outWidth}); err != nil {
			return err
		}
	}

	start := time.Now()
	if err := drive(sess, src, length, cfg, f, seq); err != nil {
		return err
	}
	if err := export.WritePNG(f.out, sess.Baked(), export.PNGOptions{Width: f.outWidth}); err != nil {
		return err
	}
	st := sess.Stats()
	l.Info("render finished",
		slog.String("out", f.out), slog.Duration("length", length), slog.Duration("took", time.Since(start)),
		slog.Uint64("strokes", st.Strokes), slog.Uint64("gated", st.Gated))
	fmt.Printf("Rendered %s of drive into %s (%d strokes, seed %d)\n", length, f.out, st.Strokes, sess.Seed())
	if seq != nil {
		fmt.Printf("Wrote %d frames to %s\n", seq.Count(), f.frames)
	}
	return nil
}

// drive runs the session on a simulated clock: frames arrive at the audio
// cadence and render ticks at the configured fps.
func drive(sess *session.Session, src feed.Source, length time.Duration, cfg config.AppConfig, f renderFlags, seq *export.Sequence) error {
	t0 := time.Unix(0, 0)
	audioStep := time.Duration(float64(time.Second) / cfg.Audio.CadenceHz)
	renderStep := time.Duration(float64(time.Second) / cfg.Render.FPS)
	deltaMs := float64(renderStep) / float64(time.Millisecond)

	nextAudio, nextEpisode := time.Duration(0), f.episode
	ticks := 0
	for now := time.Duration(0); now < length; now += renderStep {
		for nextAudio <= now {
			if fr, ok := src.Next(); ok {
				sess.Feed(fr, t0.Add(nextAudio))
			}
			nextAudio += audioStep
		}
		if f.episode > 0 && now >= nextEpisode {
			sess.NewEpisode()
			nextEpisode += f.episode
		}
		sess.Step(deltaMs)
		ticks++
		if seq != nil && f.frameEvery > 0 && ticks%f.frameEvery == 0 {
			if _, err := seq.Write(sess.Live()); err != nil {
				return err
			}
		}
	}
	return nil
}

func sessionOptions(cfg config.AppConfig, f renderFlags) (session.Options, error) {
	o := session.DefaultOptions()
	o.Width, o.Height = cfg.Surface.Width, cfg.Surface.Height
	o.Oversample = cfg.Surface.Oversample
	o.GrainSpecks = cfg.Surface.GrainSpecks
	o.GrainSeed = cfg.Surface.GrainSeed
	o.Seed = cfg.Render.Seed
	o.Preview = cfg.Render.Preview
	o.CadenceHz = cfg.Audio.CadenceHz
	o.FPS = cfg.Render.FPS
	o.Trajectory.Margin = cfg.Render.Margin
	o.Trajectory.SilenceThreshold = cfg.Render.SilenceThreshold
	o.Trajectory.ForcePaint = cfg.Render.ForcePaint || f.force
	o.History.MaxBytes = cfg.History.MaxMB << 20
	o.History.MaxDepth = cfg.History.MaxDepth

	if f.width > 0 {
		o.Width = f.width
	}
	if f.height > 0 {
		o.Height = f.height
	}
	if f.oversample > 0 {
		o.Oversample = f.oversample
	}
	if f.seed != 0 {
		o.Seed = f.seed
	}
	if bg, err := ink.Parse(cfg.Surface.Background); err == nil {
		o.Background = bg
	}

	inkName := cfg.Brush.Ink
	if f.ink != "" {
		inkName = f.ink
	}
	c, err := ink.Parse(inkName)
	if err != nil {
		return o, err
	}
	o.Ink = c

	presetName := cfg.Brush.Preset
	if f.preset != "" {
		presetName = f.preset
	}
	p, err := presetpack.Resolve(presetName, cfg.PresetDir())
	if err != nil {
		return o, err
	}
	o.Preset = p
	return o, nil
}

func runPresets(args []string) error {
	fs := flag.NewFlagSet("presets", flag.ContinueOnError)
	dir := fs.String("dir", "", "user preset directory (default: from config)")
	zipOut := fs.String("export", "", "zip the user presets into this file")
	cfgPath := fs.String("config", "", "config file (default: user config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *dir == "" {
		*dir = cfg.PresetDir()
	}

	fmt.Println("Built-in presets:")
	for _, n := range brush.Names() {
		p, _ := brush.Lookup(n)
		printPreset(p)
	}
	user, loadErr := presetpack.LoadDir(*dir)
	fmt.Printf("\nUser presets (%s):\n", *dir)
	if len(user) == 0 {
		fmt.Println("  (none)")
	}
	for _, p := range user {
		printPreset(p)
	}
	if loadErr != nil {
		fmt.Println("\nSkipped invalid files:", loadErr)
	}
	if *zipOut != "" {
		n, err := presetpack.ExportPack(*dir, *zipOut)
		if err != nil {
			return err
		}
		fmt.Printf("\nExported %d presets to %s\n", n, *zipOut)
	}
	return nil
}

func printPreset(p brush.Preset) {
	fmt.Printf("  %-12s size=%-5g flow=%-4g wet=%-4g grain=%-4g bristles=%-2d tip=%s\n",
		p.Name, p.BaseSize, p.Flow, p.Wetness, p.Grain, p.Bristles, p.TipPattern)
}

func runInstallPack(args []string) error {
	var zipPath string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		zipPath, args = args[0], args[1:]
	}
	fs := flag.NewFlagSet("install-pack", flag.ContinueOnError)
	dir := fs.String("dir", "", "user preset directory (default: from config)")
	cfgPath := fs.String("config", "", "config file (default: user config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if zipPath == "" {
		zipPath = fs.Arg(0)
	}
	if zipPath == "" {
		return errors.New("install-pack requires <zip>")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *dir == "" {
		*dir = cfg.PresetDir()
	}
	n, err := presetpack.InstallPack(*dir, zipPath)
	if err != nil {
		return err
	}
	fmt.Printf("Installed %d presets into %s\n", n, *dir)
	return nil
}
