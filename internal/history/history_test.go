/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package history

import (
	"image"
	"testing"
	"time"
)

func canvas(tag byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = tag
	}
	return img
}

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1 << 20, MaxDepth: 10, MinInterval: 10 * time.Millisecond})
	t0 := time.Now()
	m.Push(Checkpoint{Episode: "a", Image: canvas('a'), TS: t0})
	m.Push(Checkpoint{Episode: "b", Image: canvas('b'), TS: t0.Add(20 * time.Millisecond)})
	if _, depth, _ := m.Stats(); depth != 2 {
		t.Fatalf("expected 2 checkpoints, got %d", depth)
	}

	c, ok := m.Undo(Checkpoint{Episode: "c", Image: canvas('c'), TS: t0.Add(time.Second)})
	if !ok || c.Episode != "b" || c.Image.Pix[0] != 'b' {
		t.Fatalf("undo expected 'b', got ok=%v episode=%q", ok, c.Episode)
	}
	c, ok = m.Redo(c)
	if !ok || c.Episode != "c" {
		t.Fatalf("redo expected 'c', got ok=%v episode=%q", ok, c.Episode)
	}
	if _, undo, redo := m.Stats(); undo != 2 || redo != 0 {
		t.Fatalf("after redo undo=%d redo=%d, want 2/0", undo, redo)
	}
}

func TestCoalesce(t *testing.T) {
	m := NewManager(Config{MinInterval: 50 * time.Millisecond})
	t0 := time.Now()
	m.Push(Checkpoint{Episode: "1", Image: canvas('1'), TS: t0})
	m.Push(Checkpoint{Episode: "2", Image: canvas('2'), TS: t0.Add(10 * time.Millisecond)})
	bytes, depth, _ := m.Stats()
	if depth != 1 || bytes != 64 {
		t.Fatalf("expected 1 coalesced checkpoint of 64 bytes, got depth=%d bytes=%d", depth, bytes)
	}
	c, ok := m.Undo(Checkpoint{})
	if !ok || c.Episode != "2" {
		t.Fatalf("expected coalesced checkpoint '2', got ok=%v episode=%q", ok, c.Episode)
	}
}

func TestMarkNeverCoalesces(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Second})
	t0 := time.Now()
	m.Mark(Checkpoint{Episode: "1", Image: canvas('1'), TS: t0})
	m.Mark(Checkpoint{Episode: "2", Image: canvas('2'), TS: t0})
	m.Push(Checkpoint{Episode: "3", Image: canvas('3'), TS: t0})
	if _, depth, _ := m.Stats(); depth != 2 {
		t.Fatalf("depth = %d, want 2 (marks kept, push merged into the last)", depth)
	}
	for _, want := range []string{"3", "1"} {
		c, ok := m.Undo(Checkpoint{})
		if !ok || c.Episode != want {
			t.Fatalf("undo expected %q, got ok=%v episode=%q", want, ok, c.Episode)
		}
	}
}

func TestPushInvalidatesRedo(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	t0 := time.Now()
	m.Push(Checkpoint{Image: canvas(1), TS: t0})
	m.Undo(Checkpoint{Image: canvas(2), TS: t0.Add(time.Second)})
	m.Push(Checkpoint{Image: canvas(3), TS: t0.Add(2 * time.Second)})
	if _, ok := m.Redo(Checkpoint{}); ok {
		t.Fatalf("redo survived a new push")
	}
	if bytes, _, _ := m.Stats(); bytes != 64 {
		t.Fatalf("accounting drifted: %d bytes", bytes)
	}
}

func TestCaps(t *testing.T) {
	m := NewManager(Config{MaxBytes: 200, MaxDepth: 5, MinInterval: time.Millisecond})
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		m.Push(Checkpoint{Image: canvas(byte(i)), TS: t0.Add(time.Duration(i) * time.Second)})
	}
	bytes, depth, _ := m.Stats()
	if depth != 3 || bytes != 192 {
		t.Fatalf("expected byte cap to keep 3 checkpoints (192 bytes), got depth=%d bytes=%d", depth, bytes)
	}
	c, _ := m.Undo(Checkpoint{})
	if c.Image.Pix[0] != 9 {
		t.Fatalf("newest checkpoint was pruned")
	}

	m.Clear()
	if bytes, depth, redo := m.Stats(); bytes != 0 || depth != 0 || redo != 0 {
		t.Fatalf("Clear left %d bytes, %d undo, %d redo", bytes, depth, redo)
	}
}
