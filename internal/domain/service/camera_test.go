package service

import (
	"encoding/json"
	"math"
	"testing"

	"crypto-bubble-map-explorer/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareCamera() *OrbitCamera {
	cfg := DefaultCameraConfig()
	cfg.Aspect = 1
	return NewOrbitCamera(cfg)
}

func TestOrbitCamera_DefaultPose(t *testing.T) {
	cam := squareCamera()

	pos := cam.Position()
	assert.InDelta(t, 0, pos.X, 1e-9)
	assert.InDelta(t, 0, pos.Y, 1e-9)
	assert.InDelta(t, 20, pos.Z, 1e-9)

	fwd := cam.Forward()
	assert.InDelta(t, -1, fwd.Z, 1e-9)
}

func TestOrbitCamera_ZoomBounded(t *testing.T) {
	cam := squareCamera()

	assert.True(t, cam.Zoom(-100))
	assert.Equal(t, 5.0, cam.State().Distance)
	assert.False(t, cam.Zoom(-1))

	assert.True(t, cam.Zoom(1000))
	assert.Equal(t, 80.0, cam.State().Distance)
}

func TestOrbitCamera_DampedRotation(t *testing.T) {
	cam := squareCamera()
	start := cam.Position()

	cam.Rotate(1, 0)
	assert.Equal(t, start, cam.Position(), "rotation is applied on update")

	require.True(t, cam.Update())
	assert.NotEqual(t, start, cam.Position())

	steps := 0
	for cam.Update() {
		steps++
		require.Less(t, steps, 10000)
	}
	assert.False(t, cam.Update())
	assert.InDelta(t, 20, cam.Position().Len(), 1e-9)
}

func TestOrbitCamera_UndampedRotation(t *testing.T) {
	cfg := DefaultCameraConfig()
	cfg.DampingFactor = 0
	cam := NewOrbitCamera(cfg)

	cam.Rotate(math.Pi/2, 0)

	pos := cam.Position()
	assert.InDelta(t, 20, pos.X, 1e-9)
	assert.InDelta(t, 0, pos.Z, 1e-9)
	assert.False(t, cam.Update())
}

func TestOrbitCamera_PolarClamped(t *testing.T) {
	cfg := DefaultCameraConfig()
	cfg.DampingFactor = 0
	cam := NewOrbitCamera(cfg)

	cam.Rotate(0, -10)

	pos := cam.Position()
	assert.True(t, pos.IsFinite())
	assert.Greater(t, pos.Y, 19.9)
}

func TestOrbitCamera_PointerRay(t *testing.T) {
	cam := squareCamera()

	center := cam.PointerRay(0, 0)
	assert.InDelta(t, -1, center.Direction.Z, 1e-9)

	hit, ok := cam.PointerRay(1, 0).IntersectPlane(entity.V3(0, 0, 0), cam.Forward())
	require.True(t, ok)
	assert.InDelta(t, 20*math.Tan(25*math.Pi/180), hit.X, 1e-9)
	assert.InDelta(t, 0, hit.Y, 1e-9)
	assert.InDelta(t, 0, hit.Z, 1e-9)
}

func TestRay_IntersectPlane_Parallel(t *testing.T) {
	ray := Ray{Origin: entity.V3(0, 0, 0), Direction: entity.V3(1, 0, 0)}

	_, ok := ray.IntersectPlane(entity.V3(0, 0, -5), entity.V3(0, 0, 1))
	assert.False(t, ok)

	behind := Ray{Origin: entity.V3(0, 0, 0), Direction: entity.V3(0, 0, 1)}
	_, ok = behind.IntersectPlane(entity.V3(0, 0, -5), entity.V3(0, 0, 1))
	assert.False(t, ok)
}

func TestOrbitCamera_HugeRotationStaysFinite(t *testing.T) {
	cam := squareCamera()

	assert.True(t, cam.Rotate(1e308, 0))
	assert.True(t, cam.Rotate(1e308, 0))

	steps := 0
	for cam.Update() {
		steps++
		require.Less(t, steps, 10000, "damping must settle")
	}
	pos := cam.Position()
	assert.True(t, pos.IsFinite())
	assert.InDelta(t, 20, pos.Len(), 1e-9)
	assert.InDelta(t, 1, cam.Forward().Len(), 1e-9)

	_, err := json.Marshal(cam.State())
	assert.NoError(t, err)
}

func TestOrbitCamera_RejectsNonFiniteInput(t *testing.T) {
	cam := squareCamera()
	start := cam.Position()

	assert.False(t, cam.Rotate(math.Inf(1), 0))
	assert.False(t, cam.Rotate(0, math.NaN()))
	assert.False(t, cam.Zoom(math.Inf(-1)))
	assert.False(t, cam.Update())
	assert.Equal(t, start, cam.Position())
}

func TestOrbitCamera_UndampedAzimuthWraps(t *testing.T) {
	cfg := DefaultCameraConfig()
	cfg.DampingFactor = 0
	cam := NewOrbitCamera(cfg)

	cam.Rotate(1e308, 0)
	cam.Rotate(1e308, 0)

	assert.True(t, cam.Position().IsFinite())
	assert.False(t, cam.Update())
}
