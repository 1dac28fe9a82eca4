package cert

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func samples() []float64 {
	var out []float64
	for x := -1.0; x <= 1.0001; x += 0.1 {
		out = append(out, math.Round(x*10)/10)
	}
	return out
}

func TestOr_BothPositive(t *testing.T) {
	assert.InDelta(t, 0.65, Or(0.5, 0.3), 1e-9)
	assert.InDelta(t, 0.65, Or(0.3, 0.5), 1e-9)
}

func TestOr_BothNegative(t *testing.T) {
	assert.InDelta(t, -0.65, Or(-0.5, -0.3), 1e-9)
}

func TestOr_MixedSign(t *testing.T) {
	// (0.6 - 0.3) / (1 - 0.3)
	assert.InDelta(t, 0.3/0.7, Or(0.6, -0.3), 1e-9)
	assert.InDelta(t, 0.4, Or(0.4, 0), 1e-9)
	assert.InDelta(t, -0.4, Or(0, -0.4), 1e-9)
}

func TestOr_TotalContradiction(t *testing.T) {
	assert.Equal(t, Unknown, Or(1, -1))
	assert.Equal(t, Unknown, Or(-1, 1))
}

func TestOr_CommutativeAndBounded(t *testing.T) {
	for _, a := range samples() {
		for _, b := range samples() {
			if math.Abs(a) == 1 && math.Abs(b) == 1 && a != b {
				continue
			}
			ab, ba := Or(a, b), Or(b, a)
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("Or(%v,%v)=%v but Or(%v,%v)=%v", a, b, ab, b, a, ba)
			}
			if !Valid(ab) {
				t.Errorf("Or(%v,%v)=%v out of range", a, b, ab)
			}
		}
	}
}

func TestOr_OrderIndependentSameSign(t *testing.T) {
	xs := []float64{0.2, 0.5, 0.7, 0.1}
	fwd := Unknown
	for _, x := range xs {
		fwd = Or(fwd, x)
	}
	rev := Unknown
	for i := len(xs) - 1; i >= 0; i-- {
		rev = Or(rev, xs[i])
	}
	assert.InDelta(t, fwd, rev, 1e-9)
}

func TestAnd(t *testing.T) {
	for _, a := range samples() {
		for _, b := range samples() {
			assert.Equal(t, math.Min(a, b), And(a, b))
		}
	}
}

func TestClassification(t *testing.T) {
	assert.True(t, IsTrue(0.21))
	assert.False(t, IsTrue(0.2))
	assert.True(t, IsFalse(-0.81))
	assert.False(t, IsFalse(-0.8))
	assert.False(t, IsTrue(1.5), "invalid certainty is never true")
	assert.False(t, IsFalse(-1.5), "invalid certainty is never false")

	for _, x := range samples() {
		if IsTrue(x) && IsFalse(x) {
			t.Errorf("%v classified both true and false", x)
		}
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(-1))
	assert.True(t, Valid(1))
	assert.False(t, Valid(1.0001))
	assert.False(t, Valid(math.NaN()))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, True, Clamp(1.2))
	assert.Equal(t, False, Clamp(-3))
	assert.Equal(t, Unknown, Clamp(math.NaN()))
	assert.Equal(t, 0.4, Clamp(0.4))
}
