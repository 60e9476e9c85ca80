package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloatEquals(t *testing.T) {
	assert.True(t, FloatEquals(265, 265))
	assert.True(t, FloatEquals(0.1+0.2, 0.3))
	assert.True(t, FloatEquals(-4, -4+Epsilon/2))
	assert.False(t, FloatEquals(75, 75+Epsilon*2))
	assert.False(t, FloatEquals(105, 75))
}

func TestIsZero(t *testing.T) {
	for _, v := range []float64{0, Epsilon / 2, -Epsilon / 2, 10 - 10} {
		assert.True(t, IsZero(v), "IsZero(%v)", v)
	}
	for _, v := range []float64{Epsilon * 2, 1, -0.5} {
		assert.False(t, IsZero(v), "IsZero(%v)", v)
	}
}

func TestIsFinite(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want bool
	}{
		{"Zero", 0, true},
		{"NegativePrice", -12.5, true},
		{"MaxFloat", math.MaxFloat64, true},
		{"NaN", math.NaN(), false},
		{"PositiveInf", math.Inf(1), false},
		{"NegativeInf", math.Inf(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFinite(tt.v))
		})
	}
}
