/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package mathx holds the small numeric helpers shared by the renderer:
// clamping, interpolation, one-pole smoothing, angle arithmetic, the random
// source strategy and seeded noise.
package mathx

import "math"

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if v < lo || v != v {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 { return Clamp(v, 0, 1) }

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Smooth moves cur toward target by fraction k (one-pole low-pass step).
func Smooth(cur, target, k float64) float64 { return cur + (target-cur)*k }

// Decay scales v by perTick for every 16ms of deltaMs and snaps tiny values to 0.
func Decay(v, perTick, deltaMs float64) float64 {
	if deltaMs <= 0 {
		return v
	}
	v *= math.Pow(perTick, deltaMs/16)
	if math.Abs(v) < 1e-3 {
		return 0
	}
	return v
}

// AngleDiff returns the signed shortest rotation from a to b, in (-π, π].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(b-a, 2*math.Pi)
	if d <= -math.Pi {
		d += 2 * math.Pi
	} else if d > math.Pi {
		d -= 2 * math.Pi
	}
	return d
}

// Finite reports whether every value is neither NaN nor infinite.
func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Mix64 combines two words into a well-distributed seed (splitmix64 finaliser).
func Mix64(a, b uint64) uint64 {
	z := a ^ (b + 0x9e3779b97f4a7c15 + (a << 6) + (a >> 2))
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
