/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestInitJSONFileSink verifies that a file sink receives JSON records carrying
// the static and contextual attributes.
func TestInitJSONFileSink(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "ink.json")
	var console bytes.Buffer
	Init(Options{Level: "debug", Format: "json", File: fpath, Writer: &console})
	t.Cleanup(func() { Init(Options{Writer: &bytes.Buffer{}}) })

	l := WithSession(WithOperation(WithComponent("brush"), "render"), "s-1")
	l.Info("stroke", slog.Int("steps", 12))

	time.Sleep(20 * time.Millisecond)
	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var last string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines in file")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for k, want := range map[string]any{"app": "inkwash", "component": "brush", "op": "render", "session": "s-1", "msg": "stroke"} {
		if m[k] != want {
			t.Fatalf("%s = %v, want %v", k, m[k], want)
		}
	}
	if m["steps"] != float64(12) {
		t.Fatalf("steps = %v", m["steps"])
	}
	if !strings.Contains(console.String(), `"msg":"stroke"`) {
		t.Fatalf("console json sink missing record: %q", console.String())
	}
}

func TestSetLevelFiltersAtRuntime(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Writer: &buf})
	t.Cleanup(func() { Init(Options{Writer: &bytes.Buffer{}}) })

	L().Debug("hidden")
	SetLevel("debug")
	L().Debug("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record leaked at info level: %q", out)
	}
	if !strings.Contains(out, "DBG shown") {
		t.Fatalf("debug record missing after SetLevel: %q", out)
	}
}
