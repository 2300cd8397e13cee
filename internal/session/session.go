/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session owns one running canvas: the paper surface, the audio
// feature extractor, the steering adapter, the trajectory engine and the
// episode history. Callers create it with New, drive it either with Start
// (two periodic loops) or manually with Feed and Step, and tear it down with
// Stop.
package session

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"inkwash/internal/brush"
	"inkwash/internal/drive"
	"inkwash/internal/feed"
	"inkwash/internal/geom"
	"inkwash/internal/history"
	"inkwash/internal/ink"
	applog "inkwash/internal/log"
	"inkwash/internal/mathx"
	"inkwash/internal/paper"
	"inkwash/internal/steer"
	"inkwash/internal/trajectory"
)

// ErrStopped is returned by Start once the session has been stopped.
var ErrStopped = errors.New("session stopped")

// ErrRunning is returned by Start while the loops are already running.
var ErrRunning = errors.New("session already running")

// Options configures a session.
type Options struct {
	Width, Height int
	Oversample    float64
	GrainSpecks   int
	GrainSeed     int64
	Background    ink.Color

	Preset  brush.Preset
	Ink     ink.Color
	Chances *brush.Chances

	// Seed makes the baked record reproducible; 0 picks one at random.
	Seed uint64
	// Preview draws an unseeded copy of each stroke on the live buffer only.
	Preview bool

	Drive      drive.Config
	Trajectory trajectory.Config
	History    history.Config

	CadenceHz float64
	FPS       float64

	// Clock is used by the loops and history timestamps; defaults to time.Now.
	Clock func() time.Time
}

// DefaultOptions returns a 960×640 sumi session at 30 Hz analysis and 60 fps.
func DefaultOptions() Options {
	return Options{
		Width:       960,
		Height:      640,
		Oversample:  1,
		GrainSpecks: paper.DefaultGrainSpecks,
		Preset:      brush.Default(),
		Ink:         ink.Sumi,
		Drive:       drive.DefaultConfig(),
		Trajectory:  trajectory.DefaultConfig(),
		CadenceHz:   30,
		FPS:         60,
	}
}

// Stats counts render activity.
type Stats struct {
	Ticks   uint64
	Strokes uint64
	Gated   uint64
	Layers  uint64
	Bounces uint64
}

// Session is the single owner of all per-canvas state.
type Session struct {
	id   string
	seed uint64
	opts Options
	now  func() time.Time
	log  *slog.Logger

	surface *paper.Surface
	drive   *drive.Extractor
	touch   *steer.Adapter
	hist    *history.Manager

	// mu serialises render ticks with every operation that touches the
	// engine or the brush context.
	mu       sync.Mutex
	engine   *trajectory.Engine
	preset   brush.Preset
	ink      ink.Color
	episode  string
	episodes uint64
	delta    float64
	stats    Stats

	runMu    sync.Mutex
	running  bool
	stopped  bool
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// New builds a session and starts its first episode.
func New(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64() | 1
	}
	if opts.Ink == (ink.Color{}) {
		opts.Ink = ink.Sumi
	}
	if opts.Preset.Name == "" {
		opts.Preset = brush.Default()
	}
	if opts.Drive == (drive.Config{}) {
		opts.Drive = drive.DefaultConfig()
	}
	if opts.Trajectory == (trajectory.Config{}) {
		opts.Trajectory = trajectory.DefaultConfig()
	}
	if !(opts.CadenceHz > 0) {
		opts.CadenceHz = 30
	}
	if !(opts.FPS > 0) {
		opts.FPS = 60
	}

	s := &Session{
		id:     uuid.NewString(),
		seed:   opts.Seed,
		opts:   opts,
		now:    opts.Clock,
		preset: opts.Preset.Clamped(),
		ink:    opts.Ink,
		drive:  drive.NewExtractor(opts.Drive),
		hist:   history.NewManager(opts.History),
	}
	s.log = applog.WithSession(applog.WithComponent("session"), s.id)
	s.surface = paper.New(paper.Options{
		Width:       opts.Width,
		Height:      opts.Height,
		Oversample:  opts.Oversample,
		GrainSpecks: opts.GrainSpecks,
		GrainSeed:   opts.GrainSeed,
		Background:  opts.Background,
	})
	w, h := s.surface.Size()
	s.touch = steer.NewAdapter(float64(w), float64(h))
	s.engine = trajectory.New(opts.Trajectory, float64(w), float64(h), s.surface.Oversample(), trajectory.PainterFunc(s.paint))
	s.resetEpisodeLocked()
	s.log.Info("session created",
		slog.Int("w", w), slog.Int("h", h), slog.Uint64("seed", s.seed),
		slog.String("preset", s.preset.Name), slog.String("ink", s.ink.Hex()))
	return s
}

// ID is the session's unique id.
func (s *Session) ID() string { return s.id }

// Seed is the session seed that makes the baked record reproducible.
func (s *Session) Seed() uint64 { return s.seed }

// Episode returns the current episode id.
func (s *Session) Episode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.episode
}

// Start runs the audio and render loops until ctx is cancelled or Stop is
// called. src may be nil when drive is pushed through Feed. It returns nil
// on a normal stop.
func (s *Session) Start(ctx context.Context, src feed.Source) error {
	s.runMu.Lock()
	switch {
	case s.stopped:
		s.runMu.Unlock()
		return ErrStopped
	case s.running:
		s.runMu.Unlock()
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.runMu.Unlock()
	defer func() {
		cancel()
		s.runMu.Lock()
		s.running = false
		s.runMu.Unlock()
	}()

	l := applog.WithOperation(s.log, "run")
	l.Info("loops started", slog.Float64("cadence_hz", s.opts.CadenceHz), slog.Float64("fps", s.opts.FPS))
	g, ctx := errgroup.WithContext(ctx)
	if src != nil {
		g.Go(func() error { return s.audioLoop(ctx, src) })
	}
	g.Go(func() error { return s.renderLoop(ctx) })
	err := g.Wait()
	l.Info("loops finished", slog.Any("err", err))
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Stop ends the loops. It is idempotent and safe to call from teardown; a
// stroke in flight always completes first.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.runMu.Lock()
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
		s.runMu.Unlock()
		// Wait out any in-flight tick.
		s.mu.Lock()
		st := s.stats
		s.mu.Unlock()
		s.log.Info("session stopped", slog.Uint64("ticks", st.Ticks), slog.Uint64("strokes", st.Strokes))
	})
}

// Stopped reports whether Stop has been called.
func (s *Session) Stopped() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.stopped
}

func (s *Session) audioLoop(ctx context.Context, src feed.Source) error {
	tk := time.NewTicker(interval(s.opts.CadenceHz))
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C:
			if f, ok := src.Next(); ok {
				s.Feed(f, s.now())
			} else if src.Done() {
				s.log.Debug("audio source exhausted")
				return nil
			}
		}
	}
}

func (s *Session) renderLoop(ctx context.Context) error {
	tk := time.NewTicker(interval(s.opts.FPS))
	defer tk.Stop()
	last := s.now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C:
			now := s.now()
			s.Step(float64(now.Sub(last)) / float64(time.Millisecond))
			last = now
		}
	}
}

func interval(hz float64) time.Duration {
	return time.Duration(float64(time.Second) / hz)
}

// Feed folds one analysis frame into the drive and returns the new drive.
func (s *Session) Feed(f feed.Frame, now time.Time) drive.Signal {
	if s.Stopped() {
		return s.drive.Snapshot()
	}
	return s.drive.Analyze(now, f.Freq, f.Time)
}

// Step runs one render tick of deltaMs: the agent advances under the
// current drive and touch snapshots and paints at most one stroke.
func (s *Session) Step(deltaMs float64) trajectory.Step {
	if s.Stopped() {
		return trajectory.Step{}
	}
	d := s.drive.Snapshot()
	t := s.touch.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.delta = deltaMs
	st := s.engine.Tick(deltaMs, d, t)
	s.touch.Decay(deltaMs)
	s.stats.Ticks++
	if st.Bounced {
		s.stats.Bounces++
	}
	if !st.Painted && deltaMs > 0 {
		s.stats.Gated++
	}
	return st
}

// paint is the engine's stroke sink; it runs under s.mu inside Step.
func (s *Session) paint(a, b geom.Pt, d drive.Signal) {
	opts := brush.Options{
		Ink:     s.ink,
		Preset:  s.preset,
		Drive:   d,
		DeltaMs: s.delta,
		Rand:    brush.Seeded(mathx.Mix64(s.seed, s.stats.Strokes)),
		Chances: s.opts.Chances,
	}
	var bs brush.Stats
	bake := func(dst *image.RGBA) { bs = brush.Render(dst, a, b, opts) }
	var overlay func(*image.RGBA)
	if s.opts.Preview {
		overlay = func(dst *image.RGBA) {
			live := opts
			live.Rand = nil
			brush.Render(dst, a, b, live)
		}
	}
	s.surface.Stroke(bake, overlay)
	s.stats.Strokes++
	s.stats.Layers += uint64(bs.Layers())
	if bs.Steps > 0 {
		s.log.Debug("stroke", slog.Uint64("n", s.stats.Strokes), slog.Int("steps", bs.Steps), slog.Int("layers", bs.Layers()))
	}
}

// NewEpisode checkpoints the canvas, then restarts the agent and clears
// touch input. The painting itself is kept.
func (s *Session) NewEpisode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpointLocked()
	s.resetEpisodeLocked()
	s.log.Info("episode started", slog.String("episode", s.episode))
	return s.episode
}

func (s *Session) resetEpisodeLocked() {
	s.episode = uuid.NewString()
	s.episodes++
	s.engine.Reset(mathx.Seeded(mathx.Mix64(s.seed, 1<<63|s.episodes)))
	s.touch.Reset()
}

func (s *Session) checkpointLocked() {
	s.hist.Mark(history.Checkpoint{Episode: s.episode, Image: s.surface.Baked(), TS: s.now()})
}

// SetPreset swaps the brush without touching the agent or touch state.
func (s *Session) SetPreset(p brush.Preset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preset = p.Clamped()
	s.log.Info("preset changed", slog.String("preset", s.preset.Name))
}

// Preset returns the active brush preset.
func (s *Session) Preset() brush.Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preset
}

// SetInk swaps the ink without touching the agent or touch state.
func (s *Session) SetInk(c ink.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ink = c
	s.log.Info("ink changed", slog.String("ink", c.Hex()))
}

// Ink returns the active ink.
func (s *Session) Ink() ink.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ink
}

// Resize resizes the surface to a new viewport, keeping the painting and
// the agent's relative position.
func (s *Session) Resize(viewW, viewH int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.surface.Resize(viewW, viewH) {
		return false
	}
	w, h := s.surface.Size()
	s.engine.SetBounds(float64(w), float64(h), s.surface.Oversample())
	s.touch.SetBounds(float64(w), float64(h))
	return true
}

// Clear checkpoints the canvas and resets it to fresh paper.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpointLocked()
	s.surface.Clear()
}

// Undo restores the previous checkpoint. It reports false when there is none.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := history.Checkpoint{Episode: s.episode, Image: s.surface.Baked(), TS: s.now()}
	c, ok := s.hist.Undo(cur)
	if !ok {
		return false
	}
	s.surface.Restore(c.Image)
	s.log.Info("undo", slog.String("to_episode", c.Episode))
	return true
}

// Redo reverses the last Undo.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := history.Checkpoint{Episode: s.episode, Image: s.surface.Baked(), TS: s.now()}
	c, ok := s.hist.Redo(cur)
	if !ok {
		return false
	}
	s.surface.Restore(c.Image)
	s.log.Info("redo", slog.String("to_episode", c.Episode))
	return true
}

// Baked returns a copy of the archival buffer for export.
func (s *Session) Baked() *image.RGBA { return s.surface.Baked() }

// Live returns a copy of the display buffer.
func (s *Session) Live() *image.RGBA { return s.surface.Live() }

// Size returns the surface size in pixels.
func (s *Session) Size() (w, h int) { return s.surface.Size() }

// Touch returns the steering adapter. Coordinates are surface pixels.
func (s *Session) Touch() *steer.Adapter { return s.touch }

// Drive returns the current drive snapshot.
func (s *Session) Drive() drive.Signal { return s.drive.Snapshot() }

// Voice returns the agent state.
func (s *Session) Voice() trajectory.Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Voice()
}

// Stats returns render counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
