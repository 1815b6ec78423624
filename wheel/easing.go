/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package wheel

import "math"

// Easing maps linear progress in [0, 1] onto eased progress in [0, 1].
type Easing func(progress float64) float64

// EaseOutQuart starts fast and settles slowly.
func EaseOutQuart(progress float64) float64 {
	return 1 - math.Pow(1-progress, 4)
}

// EaseOutCubic is a softer deceleration than EaseOutQuart.
func EaseOutCubic(progress float64) float64 {
	return 1 - math.Pow(1-progress, 3)
}

// Linear applies no easing.
func Linear(progress float64) float64 {
	return progress
}

var easings = map[string]Easing{
	"quart":  EaseOutQuart,
	"cubic":  EaseOutCubic,
	"linear": Linear,
}

// EasingByName looks up one of the named curves ("quart", "cubic", "linear").
func EasingByName(name string) (Easing, bool) {
	e, ok := easings[name]
	return e, ok
}
