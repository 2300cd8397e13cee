/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"inkwash/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization.
// Values can be provided directly or via environment variables:
//   - INK_LOG_LEVEL=debug|info|warn|error
//   - INK_LOG_FORMAT=console|json
//   - INK_LOG_FILE=<path> (enables rotated JSON file logging)
//   - INK_LOG_MAX_MB=<n> (rotation size, default 10)
//   - INK_LOG_SOURCE=true|false
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string
	MaxSizeMB int
	// Writer replaces stderr for the console handler when set.
	Writer io.Writer
}

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
	defaultMaxAgeDays = 14
)

var (
	current atomic.Pointer[slog.Logger]
	level   = new(slog.LevelVar)
)

// L returns the application logger, initializing it from env on first use.
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return current.Load()
}

// Init configures the global logger and installs it as slog.Default.
// Calling it again replaces the handlers; loggers derived earlier keep
// writing to the old ones.
func Init(opts Options) {
	level.Set(parseLevel(opts.Level))
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: level, AddSource: opts.AddSource}

	var hs []slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		hs = append(hs, slog.NewJSONHandler(out, ho))
	default:
		hs = append(hs, newConsoleHandler(out, ho))
	}
	if f := strings.TrimSpace(opts.File); f != "" {
		size := opts.MaxSizeMB
		if size <= 0 {
			size = defaultMaxSizeMB
		}
		rot := &lj.Logger{Filename: f, MaxSize: size, MaxBackups: defaultMaxBackups, MaxAge: defaultMaxAgeDays, Compress: true}
		hs = append(hs, slog.NewJSONHandler(rot, ho))
	}

	h := hs[0]
	if len(hs) > 1 {
		h = tee(hs)
	}
	l := slog.New(h).With(slog.String("app", "inkwash"), slog.String("ver", version.Version))
	current.Store(l)
	slog.SetDefault(l)
}

// SetLevel changes the minimum level of the installed handlers at runtime.
func SetLevel(s string) { level.Set(parseLevel(s)) }

// FromEnv builds Options from environment variables.
func FromEnv() Options {
	o := Options{
		Level:     getenv("INK_LOG_LEVEL", "info"),
		Format:    getenv("INK_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(getenv("INK_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("INK_LOG_FILE"),
	}
	if n, err := strconv.Atoi(os.Getenv("INK_LOG_MAX_MB")); err == nil && n > 0 {
		o.MaxSizeMB = n
	}
	return o
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

// WithSession annotates the logger with a session id.
func WithSession(l *slog.Logger, id string) *slog.Logger { return l.With(slog.String("session", id)) }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
