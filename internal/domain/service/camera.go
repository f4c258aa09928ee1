package service

import (
	"math"
	"sync"

	"crypto-bubble-map-explorer/internal/domain/entity"
)

// CameraConfig holds the perspective camera and orbit control settings
type CameraConfig struct {
	FOV             float64 // vertical field of view, degrees
	Aspect          float64
	InitialDistance float64
	MinDistance     float64
	MaxDistance     float64
	DampingFactor   float64 // 0 disables damping
	Target          entity.Vec3
}

// DefaultCameraConfig returns the standard camera: 20 units back on +z
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		FOV:             50,
		Aspect:          16.0 / 9.0,
		InitialDistance: 20,
		MinDistance:     5,
		MaxDistance:     80,
		DampingFactor:   0.05,
	}
}

const (
	minPolar        = 0.01
	maxPolar        = math.Pi - 0.01
	velocityEpsilon = 1e-5
	// maxVelocity bounds the pending rotation per axis to one full turn
	maxVelocity = 2 * math.Pi
)

// Ray is a half line in scene space
type Ray struct {
	Origin    entity.Vec3
	Direction entity.Vec3
}

// IntersectPlane returns where r meets the plane through point with the given
// normal. It reports false for parallel planes and planes behind the origin.
func (r Ray) IntersectPlane(point, normal entity.Vec3) (entity.Vec3, bool) {
	denom := r.Direction.Dot(normal)
	if math.Abs(denom) < 1e-9 {
		return entity.Vec3{}, false
	}
	t := point.Sub(r.Origin).Dot(normal) / denom
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return entity.Vec3{}, false
	}
	return r.Origin.Add(r.Direction.Scale(t)), true
}

// Projector turns pointer coordinates into scene rays
type Projector interface {
	PointerRay(ndcX, ndcY float64) Ray
	Forward() entity.Vec3
}

// OrbitCamera is a perspective camera orbiting a target with bounded zoom and
// damped rotation.
type OrbitCamera struct {
	mu       sync.RWMutex
	cfg      CameraConfig
	azimuth  float64
	polar    float64
	distance float64
	velAz    float64
	velPolar float64
}

// NewOrbitCamera creates a camera at the configured distance on the +z axis
func NewOrbitCamera(cfg CameraConfig) *OrbitCamera {
	if cfg.Aspect <= 0 {
		cfg.Aspect = 1
	}
	c := &OrbitCamera{cfg: cfg, polar: math.Pi / 2}
	c.distance = c.clampDistance(cfg.InitialDistance)
	return c
}

// Rotate orbits the camera. With damping the input is accumulated as velocity
// and applied over subsequent Update calls. It reports false and ignores the
// input when either delta is not finite.
func (c *OrbitCamera) Rotate(dAzimuth, dPolar float64) bool {
	if !finite(dAzimuth) || !finite(dPolar) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.DampingFactor > 0 {
		c.velAz = clampVelocity(c.velAz + dAzimuth)
		c.velPolar = clampVelocity(c.velPolar + dPolar)
		return true
	}
	c.azimuth = wrapAngle(c.azimuth + math.Mod(dAzimuth, 2*math.Pi))
	c.polar = clampPolar(c.polar + dPolar)
	return true
}

// Zoom moves the camera towards (negative delta) or away from the target.
// It reports whether the distance changed.
func (c *OrbitCamera) Zoom(delta float64) bool {
	if !finite(delta) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.clampDistance(c.distance + delta)
	if next == c.distance {
		return false
	}
	c.distance = next
	return true
}

// SetAspect updates the viewport aspect ratio
func (c *OrbitCamera) SetAspect(aspect float64) {
	if aspect <= 0 || !finite(aspect) {
		return
	}
	c.mu.Lock()
	c.cfg.Aspect = aspect
	c.mu.Unlock()
}

// Update applies one damping step and reports whether the camera moved
func (c *OrbitCamera) Update() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.velAz == 0 && c.velPolar == 0 {
		return false
	}
	f := c.cfg.DampingFactor
	c.azimuth = wrapAngle(c.azimuth + c.velAz*f)
	c.polar = clampPolar(c.polar + c.velPolar*f)
	c.velAz *= 1 - f
	c.velPolar *= 1 - f
	if math.Abs(c.velAz) < velocityEpsilon {
		c.velAz = 0
	}
	if math.Abs(c.velPolar) < velocityEpsilon {
		c.velPolar = 0
	}
	return true
}

// Position returns the camera's location
func (c *OrbitCamera) Position() entity.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position()
}

// Forward returns the unit view direction
func (c *OrbitCamera) Forward() entity.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Target.Sub(c.position()).Normalize()
}

// PointerRay casts a ray from the camera through the pointer at normalized
// device coordinates.
func (c *OrbitCamera) PointerRay(ndcX, ndcY float64) Ray {
	c.mu.RLock()
	defer c.mu.RUnlock()

	origin := c.position()
	forward := c.cfg.Target.Sub(origin).Normalize()
	right := forward.Cross(entity.Vec3{Y: 1}).Normalize()
	up := right.Cross(forward)
	tanHalf := math.Tan(c.cfg.FOV * math.Pi / 360)

	dir := forward.
		Add(right.Scale(ndcX * tanHalf * c.cfg.Aspect)).
		Add(up.Scale(ndcY * tanHalf))
	return Ray{Origin: origin, Direction: dir.Normalize()}
}

// State returns the camera pose for a frame
func (c *OrbitCamera) State() entity.CameraState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return entity.CameraState{
		Position: c.position(),
		Target:   c.cfg.Target,
		Up:       entity.Vec3{Y: 1},
		FOV:      c.cfg.FOV,
		Aspect:   c.cfg.Aspect,
		Distance: c.distance,
	}
}

// Controls describes the orbit constraints for a frame
func (c *OrbitCamera) Controls() entity.OrbitControls {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return entity.OrbitControls{
		MinDistance:   c.cfg.MinDistance,
		MaxDistance:   c.cfg.MaxDistance,
		EnableDamping: c.cfg.DampingFactor > 0,
		DampingFactor: c.cfg.DampingFactor,
	}
}

func (c *OrbitCamera) position() entity.Vec3 {
	sinPolar := math.Sin(c.polar)
	offset := entity.Vec3{
		X: c.distance * sinPolar * math.Sin(c.azimuth),
		Y: c.distance * math.Cos(c.polar),
		Z: c.distance * sinPolar * math.Cos(c.azimuth),
	}
	return c.cfg.Target.Add(offset)
}

func (c *OrbitCamera) clampDistance(d float64) float64 {
	if math.IsNaN(d) {
		return c.cfg.MinDistance
	}
	return math.Min(c.cfg.MaxDistance, math.Max(c.cfg.MinDistance, d))
}

func clampPolar(p float64) float64 {
	return math.Min(maxPolar, math.Max(minPolar, p))
}

func clampVelocity(v float64) float64 {
	return math.Min(maxVelocity, math.Max(-maxVelocity, v))
}

// wrapAngle maps a to [0, 2π)
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
