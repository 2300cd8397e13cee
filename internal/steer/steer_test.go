/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package steer

import (
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPressClampsToBounds(t *testing.T) {
	a := NewAdapter(200, 100)
	a.Press(-20, 500, t0)
	s := a.Snapshot()
	if s.X != 0 || s.Y != 100 {
		t.Fatalf("position not clamped: %+v", s)
	}
	if !s.Active || s.Strength != 1 {
		t.Fatalf("press should activate at full strength: %+v", s)
	}
	a.Move(math.NaN(), 10, t0.Add(time.Millisecond))
	if got := a.Snapshot(); got.X != 0 || got.Y != 100 {
		t.Fatalf("non-finite move should keep last position: %+v", got)
	}
}

func TestSwipeFromFastMove(t *testing.T) {
	a := NewAdapter(1000, 1000)
	a.Press(100, 500, t0)
	a.Move(160, 500, t0.Add(20*time.Millisecond)) // 3 px/ms to the right
	s := a.Snapshot()
	if math.Abs(s.SwipeAngle) > 1e-9 {
		t.Fatalf("swipe angle = %v, want 0", s.SwipeAngle)
	}
	if s.SwipePower != 1 {
		t.Fatalf("fast swipe should saturate power: %v", s.SwipePower)
	}
}

func TestStrengthDecaysOnlyWhenReleased(t *testing.T) {
	a := NewAdapter(100, 100)
	a.Press(50, 50, t0)
	for i := 0; i < 20; i++ {
		a.Decay(16)
	}
	if s := a.Snapshot(); s.Strength != 1 {
		t.Fatalf("held touch lost strength: %v", s.Strength)
	}
	a.Release(t0.Add(time.Second))
	prev := 1.0
	for i := 0; i < 200; i++ {
		a.Decay(16)
		s := a.Snapshot()
		if s.Strength > prev {
			t.Fatalf("strength grew while released")
		}
		prev = s.Strength
	}
	if prev != 0 {
		t.Fatalf("strength should reach 0, got %v", prev)
	}
}

func TestShortStillPressIsTap(t *testing.T) {
	a := NewAdapter(100, 100)
	a.Press(40, 40, t0)
	a.Move(42, 41, t0.Add(40*time.Millisecond))
	a.Release(t0.Add(90 * time.Millisecond))
	if s := a.Snapshot(); s.TapBoost <= 0 {
		t.Fatalf("expected tap boost, got %+v", s)
	}

	b := NewAdapter(100, 100)
	b.Press(40, 40, t0)
	b.Release(t0.Add(800 * time.Millisecond))
	if s := b.Snapshot(); s.TapBoost != 0 {
		t.Fatalf("long press should not tap: %+v", s)
	}
}

func TestTapBoostCappedAndDecays(t *testing.T) {
	a := NewAdapter(100, 100)
	for i := 0; i < 5; i++ {
		a.Tap(10, 10)
	}
	if s := a.Snapshot(); s.TapBoost != MaxTapBoost {
		t.Fatalf("tap boost = %v, want cap %v", s.TapBoost, MaxTapBoost)
	}
	a.Decay(16)
	if s := a.Snapshot(); s.TapBoost >= MaxTapBoost {
		t.Fatalf("tap boost did not decay")
	}
}

func TestResetAndBounds(t *testing.T) {
	a := NewAdapter(100, 50)
	a.Press(100, 50, t0)
	a.SetBounds(200, 100)
	if s := a.Snapshot(); s.X != 200 || s.Y != 100 {
		t.Fatalf("position not rescaled: %+v", s)
	}
	a.Reset()
	if s := a.Snapshot(); s != (State{}) {
		t.Fatalf("reset left state behind: %+v", s)
	}
}
