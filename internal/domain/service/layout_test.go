package service

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"crypto-bubble-map-explorer/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutEngine_RandomPositionWithinCube(t *testing.T) {
	layout := NewLayoutEngine(DefaultLayoutConfig(), rand.New(rand.NewSource(42)))

	for i := 0; i < 1000; i++ {
		p := layout.RandomPosition()
		for _, c := range []float64{p.X, p.Y, p.Z} {
			assert.GreaterOrEqual(t, c, -7.5)
			assert.LessOrEqual(t, c, 7.5)
		}
	}
}

func TestLayoutEngine_RandomPositionSeeded(t *testing.T) {
	a := NewLayoutEngine(DefaultLayoutConfig(), rand.New(rand.NewSource(7)))
	b := NewLayoutEngine(DefaultLayoutConfig(), rand.New(rand.NewSource(7)))

	assert.Equal(t, a.RandomPosition(), b.RandomPosition())
}

func TestLayoutEngine_Arrange(t *testing.T) {
	layout := NewLayoutEngine(DefaultLayoutConfig(), nil)

	assert.Nil(t, layout.Arrange(0))

	one := layout.Arrange(1)
	require.Len(t, one, 1)
	assert.Equal(t, entity.V3(10, 0, 0), one[0])

	four := layout.Arrange(4)
	require.Len(t, four, 4)
	assert.InDelta(t, 0, four[1].X, 1e-9)
	assert.InDelta(t, 10, four[1].Z, 1e-9)
	assert.InDelta(t, 5*math.Sin(math.Pi/4), four[1].Y, 1e-9)
	assert.InDelta(t, -10, four[2].X, 1e-9)
	assert.InDelta(t, 5, four[2].Y, 1e-9)
}

func TestLayoutEngine_ArrangeFinite(t *testing.T) {
	layout := NewLayoutEngine(DefaultLayoutConfig(), nil)
	for n := 1; n <= 64; n++ {
		for _, p := range layout.Arrange(n) {
			assert.True(t, p.IsFinite())
			assert.InDelta(t, 10, math.Hypot(p.X, p.Z), 1e-9)
		}
	}
}

func TestLayoutEngine_ConnectionPositions(t *testing.T) {
	layout := NewLayoutEngine(DefaultLayoutConfig(), nil)
	parent := entity.V3(1, 1, 1)

	positions := layout.ConnectionPositions(parent, 3)

	require.Len(t, positions, 3)
	for _, p := range positions {
		assert.InDelta(t, 2, p.Y, 1e-9)
		assert.InDelta(t, 3, math.Hypot(p.X-1, p.Z-1), 1e-9)
	}
	assert.Nil(t, layout.ConnectionPositions(parent, 0))
}

func TestBaseScale_NeverNaN(t *testing.T) {
	for _, b := range []float64{-5, 0, math.NaN(), math.Inf(-1), math.Inf(1), 1e-12, 1, 1e300} {
		s := BaseScale(b)
		assert.False(t, math.IsNaN(s), "balance %v", b)
		assert.GreaterOrEqual(t, s, 0.5)
		assert.LessOrEqual(t, s, 3.0)
	}
	assert.Greater(t, BaseScale(10), BaseScale(1))
}

func TestPulseScale(t *testing.T) {
	assert.Equal(t, 1.0, PulseScale(1, 0))
	assert.InDelta(t, 1.08, PulseScale(1, quarterPiSeconds()), 1e-6)
}

// quarterPiSeconds is the elapsed time at which sin(2t) peaks
func quarterPiSeconds() time.Duration {
	t := math.Pi / 4
	return time.Duration(t * float64(time.Second))
}
