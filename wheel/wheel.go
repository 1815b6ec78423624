/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package wheel owns the rotation of a spinning wheel and maps the angle it
// comes to rest at onto one of an ordered list of candidates.
//
// Angles are in radians, counter-clockwise positive, in the wheel's local
// (unrotated) frame. Candidate i occupies [i*step, (i+1)*step) with
// step = 2*pi/N. A wheel rotated by r shows local angle a at world angle a+r,
// and the pointer sits at world angle PointerAngle.
package wheel

import "math"

const (
	// FullTurn is one complete rotation.
	FullTurn = 2 * math.Pi

	// PointerAngle is the world angle of the selection pointer (top of the
	// wheel). Renderers place the pointer here and resolution reads the slice
	// found here.
	PointerAngle = math.Pi / 2
)

// Candidate is one selectable entry on the wheel.
type Candidate struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Normalize wraps an angle into [0, 2*pi).
func Normalize(angle float64) float64 {
	a := math.Mod(angle, FullTurn)
	if a < 0 {
		a += FullTurn
	}
	if a >= FullTurn {
		a = 0
	}
	return a
}

// Step is the angular width of one slice on a wheel of n candidates.
func Step(n int) float64 {
	if n < 1 {
		return 0
	}
	return FullTurn / float64(n)
}

// SliceBounds returns the local start and end angle of slice i.
func SliceBounds(i, n int) (start, end float64) {
	step := Step(n)
	return float64(i) * step, float64(i+1) * step
}

// SliceAt returns the index of the slice containing the local angle.
// The result is always in [0, n-1]; it is -1 only when n < 1.
func SliceAt(local float64, n int) int {
	if n < 1 {
		return -1
	}

	index := int(math.Floor(Normalize(local) / Step(n)))

	return min(max(index, 0), n-1)
}

// LocalAngle converts a world angle into the wheel's frame at rotation.
func LocalAngle(world, rotation float64) float64 {
	return Normalize(world - Normalize(rotation))
}

// Resolve returns the index of the slice under the pointer when the wheel
// rests at rotation.
func Resolve(rotation float64, n int) int {
	return SliceAt(LocalAngle(PointerAngle, rotation), n)
}
