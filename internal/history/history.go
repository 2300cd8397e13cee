/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history keeps in-memory checkpoints of the baked canvas so whole
// episodes can be undone and redone within a session.
package history

import (
	"image"
	"sync"
	"time"
)

// Checkpoint is a copy of the baked buffer at an episode boundary.
// Its size is estimated as len(Image.Pix).
type Checkpoint struct {
	Episode string
	Image   *image.RGBA
	TS      time.Time
}

func (c Checkpoint) size() int {
	if c.Image == nil {
		return 0
	}
	return len(c.Image.Pix)
}

// Config controls memory and depth caps and coalescing behaviour.
type Config struct {
	// MaxBytes is a soft cap over undo and redo; the oldest checkpoints are
	// pruned when exceeded.
	MaxBytes int `yaml:"max_bytes"`
	// MaxDepth limits the undo stack (0 means unlimited).
	MaxDepth int `yaml:"max_depth"`
	// MinInterval coalesces checkpoints pushed within the interval,
	// replacing the previous one instead of pushing a new entry.
	MinInterval time.Duration `yaml:"min_interval"`
}

// Manager is an undo/redo stack of canvas checkpoints. It is safe for
// concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo []Checkpoint
	redo []Checkpoint
	// accounting
	totalBytes int
}

// NewManager returns an empty manager, filling unset caps with defaults.
func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 256 << 20
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg}
}

// Push records c. A checkpoint within MinInterval of the previous one
// replaces it. Any push invalidates redo.
func (m *Manager) Push(c Checkpoint) { m.push(c, true) }

// Mark records c as its own undo step regardless of MinInterval. Episode
// boundaries and clears use it.
func (m *Manager) Mark(c Checkpoint) { m.push(c, false) }

func (m *Manager) push(c Checkpoint, coalesce bool) {
	if c.Image == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropRedoLocked()
	if n := len(m.undo); coalesce && n > 0 && c.TS.Sub(m.undo[n-1].TS) < m.cfg.MinInterval {
		m.totalBytes += c.size() - m.undo[n-1].size()
		m.undo[n-1] = c
	} else {
		m.undo = append(m.undo, c)
		m.totalBytes += c.size()
	}
	m.enforceCapsLocked()
}

// Undo pops the latest checkpoint. current, the canvas being replaced, is
// kept for Redo.
func (m *Manager) Undo(current Checkpoint) (Checkpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.undo)
	if n == 0 {
		return Checkpoint{}, false
	}
	c := m.undo[n-1]
	m.undo = m.undo[:n-1]
	m.totalBytes -= c.size()
	if current.Image != nil {
		m.redo = append(m.redo, current)
		m.totalBytes += current.size()
	}
	m.enforceCapsLocked()
	return c, true
}

// Redo reverses the last Undo. current is pushed back onto the undo stack.
func (m *Manager) Redo(current Checkpoint) (Checkpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.redo)
	if n == 0 {
		return Checkpoint{}, false
	}
	c := m.redo[n-1]
	m.redo = m.redo[:n-1]
	m.totalBytes -= c.size()
	if current.Image != nil {
		m.undo = append(m.undo, current)
		m.totalBytes += current.size()
	}
	m.enforceCapsLocked()
	return c, true
}

// Clear drops every checkpoint.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo, m.redo = nil, nil
	m.totalBytes = 0
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes, undoDepth, redoDepth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalBytes, len(m.undo), len(m.redo)
}

func (m *Manager) dropRedoLocked() {
	for _, c := range m.redo {
		m.totalBytes -= c.size()
	}
	m.redo = nil
}

func (m *Manager) enforceCapsLocked() {
	if m.cfg.MaxDepth > 0 && len(m.undo) > m.cfg.MaxDepth {
		drop := len(m.undo) - m.cfg.MaxDepth
		for _, c := range m.undo[:drop] {
			m.totalBytes -= c.size()
		}
		m.undo = append([]Checkpoint(nil), m.undo[drop:]...)
	}
	// Memory cap: prune the oldest redo entries first, then the oldest undo.
	for m.totalBytes > m.cfg.MaxBytes {
		switch {
		case len(m.redo) > 0:
			m.totalBytes -= m.redo[0].size()
			m.redo = m.redo[1:]
		case len(m.undo) > 0:
			m.totalBytes -= m.undo[0].size()
			m.undo = m.undo[1:]
		default:
			m.totalBytes = 0
			return
		}
	}
}
