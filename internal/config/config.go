/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration from a YAML file in the user
// scope. Environment variables are read-only overrides applied at runtime.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type SurfaceConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Oversample  float64 `yaml:"oversample"`
	GrainSpecks int     `yaml:"grain_specks"`
	GrainSeed   int64   `yaml:"grain_seed"`
	Background  string  `yaml:"background"` // hex or named colour
}

type AudioConfig struct {
	CadenceHz float64 `yaml:"cadence_hz"`
	FFTSize   int     `yaml:"fft_size"`
}

type RenderConfig struct {
	FPS              float64 `yaml:"fps"`
	SilenceThreshold float64 `yaml:"silence_threshold"`
	Margin           float64 `yaml:"margin"`
	ForcePaint       bool    `yaml:"force_paint"`
	// Seed fixes the session seed; 0 picks one at random.
	Seed uint64 `yaml:"seed"`
	// Preview draws the unseeded transient pass on the live buffer.
	Preview bool `yaml:"preview"`
}

type BrushConfig struct {
	Preset    string `yaml:"preset"`
	Ink       string `yaml:"ink"`
	PresetDir string `yaml:"preset_dir"`
}

type HistoryConfig struct {
	MaxMB    int `yaml:"max_mb"`
	MaxDepth int `yaml:"max_depth"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
	// MaxMB is the rotation size of the log file.
	MaxMB int `yaml:"max_mb"`
}

// AppConfig is the user-editable configuration.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Surface       SurfaceConfig `yaml:"surface"`
	Audio         AudioConfig   `yaml:"audio"`
	Render        RenderConfig  `yaml:"render"`
	Brush         BrushConfig   `yaml:"brush"`
	History       HistoryConfig `yaml:"history"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Surface:       SurfaceConfig{Width: 960, Height: 640, Oversample: 1, GrainSpecks: 60000, GrainSeed: 7, Background: "#f4efe2"},
		Audio:         AudioConfig{CadenceHz: 30, FFTSize: 2048},
		Render:        RenderConfig{FPS: 60, SilenceThreshold: 0.01, Margin: 24},
		Brush:         BrushConfig{Preset: "sumi", Ink: "sumi"},
		History:       HistoryConfig{MaxMB: 256, MaxDepth: 16},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfig     = "INK_CONFIG"
	EnvWidth      = "INK_WIDTH"
	EnvHeight     = "INK_HEIGHT"
	EnvOversample = "INK_OVERSAMPLE"
	EnvFPS        = "INK_FPS"
	EnvSeed       = "INK_SEED"
	EnvForcePaint = "INK_FORCE_PAINT"
	EnvPreset     = "INK_PRESET"
	EnvInk        = "INK_INK"
	EnvPresetDir  = "INK_PRESET_DIR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "INK_LOG_LEVEL"
	EnvLogFormat = "INK_LOG_FORMAT"
	EnvLogSource = "INK_LOG_SOURCE"
	EnvLogFile   = "INK_LOG_FILE"
	EnvLogMaxMB  = "INK_LOG_MAX_MB"
)

// ConfigPath returns the per-user config file path. INK_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfig)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "inkwash")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "inkwash")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "inkwash")
		} else if h := os.Getenv("HOME"); h != "" {
			base = filepath.Join(h, ".config", "inkwash")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// PresetDir returns the configured preset directory, defaulting to a
// presets folder next to the config file.
func (c AppConfig) PresetDir() string {
	if c.Brush.PresetDir != "" {
		return c.Brush.PresetDir
	}
	p, err := ConfigPath()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(p), "presets")
}

// Load reads the user config file (if present), applies defaults, and
// merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path. A missing file yields defaults; a
// malformed one is an error.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		applyEnvOverrides(&cfg)
		return cfg, fmt.Errorf("read config: %w", err)
	}
	applyEnvOverrides(&cfg)
	cfg.normalize()
	return cfg, nil
}

// Save writes cfg to the user config path.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes cfg as YAML to path.
func SaveFile(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// surface
	if src.Surface.Width != 0 {
		dst.Surface.Width = src.Surface.Width
	}
	if src.Surface.Height != 0 {
		dst.Surface.Height = src.Surface.Height
	}
	if src.Surface.Oversample != 0 {
		dst.Surface.Oversample = src.Surface.Oversample
	}
	if src.Surface.GrainSpecks != 0 {
		dst.Surface.GrainSpecks = src.Surface.GrainSpecks
	}
	if src.Surface.GrainSeed != 0 {
		dst.Surface.GrainSeed = src.Surface.GrainSeed
	}
	if strings.TrimSpace(src.Surface.Background) != "" {
		dst.Surface.Background = strings.TrimSpace(src.Surface.Background)
	}
	// audio
	if src.Audio.CadenceHz != 0 {
		dst.Audio.CadenceHz = src.Audio.CadenceHz
	}
	if src.Audio.FFTSize != 0 {
		dst.Audio.FFTSize = src.Audio.FFTSize
	}
	// render; booleans copy directly so user preferences persist
	if src.Render.FPS != 0 {
		dst.Render.FPS = src.Render.FPS
	}
	if src.Render.SilenceThreshold != 0 {
		dst.Render.SilenceThreshold = src.Render.SilenceThreshold
	}
	if src.Render.Margin != 0 {
		dst.Render.Margin = src.Render.Margin
	}
	if src.Render.Seed != 0 {
		dst.Render.Seed = src.Render.Seed
	}
	dst.Render.ForcePaint = src.Render.ForcePaint
	dst.Render.Preview = src.Render.Preview
	// brush
	if strings.TrimSpace(src.Brush.Preset) != "" {
		dst.Brush.Preset = strings.ToLower(strings.TrimSpace(src.Brush.Preset))
	}
	if strings.TrimSpace(src.Brush.Ink) != "" {
		dst.Brush.Ink = strings.TrimSpace(src.Brush.Ink)
	}
	if strings.TrimSpace(src.Brush.PresetDir) != "" {
		dst.Brush.PresetDir = strings.TrimSpace(src.Brush.PresetDir)
	}
	// history
	if src.History.MaxMB != 0 {
		dst.History.MaxMB = src.History.MaxMB
	}
	if src.History.MaxDepth != 0 {
		dst.History.MaxDepth = src.History.MaxDepth
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	if src.Logging.MaxMB > 0 {
		dst.Logging.MaxMB = src.Logging.MaxMB
	}
}

// normalize pulls out-of-range values back to something renderable.
func (c *AppConfig) normalize() {
	d := Defaults()
	c.Surface.Width = max(1, c.Surface.Width)
	c.Surface.Height = max(1, c.Surface.Height)
	if !(c.Surface.Oversample > 0) {
		c.Surface.Oversample = d.Surface.Oversample
	}
	c.Surface.Oversample = min(c.Surface.Oversample, 2)
	c.Surface.GrainSpecks = max(0, c.Surface.GrainSpecks)
	if !(c.Audio.CadenceHz > 0) {
		c.Audio.CadenceHz = d.Audio.CadenceHz
	}
	if c.Audio.FFTSize < 32 {
		c.Audio.FFTSize = d.Audio.FFTSize
	}
	if !(c.Render.FPS > 0) {
		c.Render.FPS = d.Render.FPS
	}
	if c.Render.SilenceThreshold < 0 {
		c.Render.SilenceThreshold = 0
	}
	if c.Render.Margin < 0 {
		c.Render.Margin = 0
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvWidth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Surface.Width = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHeight)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Surface.Height = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvOversample)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Surface.Oversample = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvFPS)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Render.FPS = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSeed)); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Render.Seed = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvForcePaint)); v != "" {
		cfg.Render.ForcePaint = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvPreset)); v != "" {
		cfg.Brush.Preset = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvInk)); v != "" {
		cfg.Brush.Ink = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPresetDir)); v != "" {
		cfg.Brush.PresetDir = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogMaxMB)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Logging.MaxMB = n
		}
	}
}

var envKeys = map[string]string{
	"surface.width":      EnvWidth,
	"surface.height":     EnvHeight,
	"surface.oversample": EnvOversample,
	"render.fps":         EnvFPS,
	"render.seed":        EnvSeed,
	"render.force_paint": EnvForcePaint,
	"brush.preset":       EnvPreset,
	"brush.ink":          EnvInk,
	"brush.preset_dir":   EnvPresetDir,
	"logging.level":      EnvLogLevel,
	"logging.format":     EnvLogFormat,
	"logging.source":     EnvLogSource,
	"logging.file":       EnvLogFile,
	"logging.max_mb":     EnvLogMaxMB,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	if env, ok := envKeys[key]; ok && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}
