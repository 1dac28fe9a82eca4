// Package cert implements the certainty-factor algebra.
//
// A certainty is a float64 in [-1, 1]: 1 is definitely true, -1 definitely
// false and 0 unknown. Cutoff partitions the range into true (> Cutoff),
// false (< Cutoff-1) and indeterminate.
package cert

import "math"

const (
	True    = 1.0
	False   = -1.0
	Unknown = 0.0
	Cutoff  = 0.2
)

// Or combines two independent pieces of evidence for the same conclusion.
//
// Combining +1 with -1 is undefined in the algebra; the contradiction
// cancels out and Or returns Unknown.
func Or(a, b float64) float64 {
	switch {
	case a > 0 && b > 0:
		return clamp(a + b - a*b)
	case a < 0 && b < 0:
		return clamp(a + b + a*b)
	}
	denom := 1 - math.Min(math.Abs(a), math.Abs(b))
	if denom == 0 {
		return Unknown
	}
	return clamp((a + b) / denom)
}

// And conjoins two simultaneous requirements.
func And(a, b float64) float64 {
	return math.Min(a, b)
}

// Valid reports whether x is a certainty.
func Valid(x float64) bool {
	return False <= x && x <= True
}

// IsTrue reports whether x is strong enough to count as true.
func IsTrue(x float64) bool {
	return Valid(x) && x > Cutoff
}

// IsFalse reports whether x is strong enough to count as false.
func IsFalse(x float64) bool {
	return Valid(x) && x < Cutoff-1
}

// Clamp forces x into [-1, 1]. NaN becomes Unknown.
func Clamp(x float64) float64 {
	return clamp(x)
}

func clamp(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return Unknown
	case x > True:
		return True
	case x < False:
		return False
	}
	return x
}
