/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic in the CLI into a report file plus a PNG dump
// of whatever the canvas held, then exits non-zero.
package crash

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"inkwash/internal/export"
	applog "inkwash/internal/log"
	"inkwash/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Target names what a crash can salvage. Any field may be empty.
type Target struct {
	// Dir receives the report and canvas dump; os.TempDir when empty.
	Dir     string
	Session string
	// Canvas returns the baked buffer to dump.
	Canvas func() image.Image
}

// Recover captures a panic, logs it with its stack, writes a report file
// and a canvas dump, and exits with code 2.
//
// Usage: defer crash.Recover(target)
func Recover(t *Target) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, err := writeReport(t, r, stack)
		if err != nil {
			l.Error("crash report failed", slog.Any("err", err))
		}
		if path, err := dumpCanvas(t); err != nil {
			l.Error("canvas dump failed", slog.Any("err", err))
		} else if path != "" {
			l.Info("canvas dump written", slog.String("path", path))
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

func reportDir(t *Target) string {
	if t != nil && t.Dir != "" {
		_ = os.MkdirAll(t.Dir, 0o755)
		return t.Dir
	}
	return os.TempDir()
}

func stamp() string { return time.Now().Format("20060102-150405") }

func writeReport(t *Target, panicVal any, stack []byte) (string, error) {
	path := filepath.Join(reportDir(t), fmt.Sprintf("inkwash-crash-%s.log", stamp()))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "inkwash Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if t != nil && t.Session != "" {
		_, _ = fmt.Fprintf(&buf, "Session: %s\n", t.Session)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", strings.TrimSpace(string(stack)))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	return path, nil
}

// dumpCanvas writes the target canvas next to the report. The canvas
// callback itself may panic on a broken session, so it is guarded.
func dumpCanvas(t *Target) (path string, err error) {
	if t == nil || t.Canvas == nil {
		return "", nil
	}
	defer func() {
		if r := recover(); r != nil {
			path, err = "", fmt.Errorf("canvas unavailable: %v", r)
		}
	}()
	img := t.Canvas()
	if img == nil {
		return "", nil
	}
	path = filepath.Join(reportDir(t), fmt.Sprintf("inkwash-crash-%s.png", stamp()))
	if err := export.WritePNG(path, img, export.PNGOptions{Fast: true}); err != nil {
		return "", err
	}
	return path, nil
}
