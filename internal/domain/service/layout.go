package service

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"crypto-bubble-map-explorer/internal/domain/entity"
)

// LayoutConfig holds the layout constants
type LayoutConfig struct {
	// SpawnExtent is the half width of the cube new nodes are placed in
	SpawnExtent float64
	// Radius of the horizontal circle used by Arrange
	Radius float64
	// VerticalAmplitude of the sinusoidal y offset used by Arrange
	VerticalAmplitude float64
	// ConnectionRadius is the distance of expanded connections from their parent
	ConnectionRadius float64
	// ConnectionLift is the y offset of expanded connections
	ConnectionLift float64
}

// DefaultLayoutConfig returns the standard layout constants
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		SpawnExtent:       7.5,
		Radius:            10,
		VerticalAmplitude: 5,
		ConnectionRadius:  3,
		ConnectionLift:    1,
	}
}

// LayoutEngine computes node positions
type LayoutEngine struct {
	cfg LayoutConfig
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLayoutEngine creates a layout engine. A nil rng is seeded from the clock.
func NewLayoutEngine(cfg LayoutConfig, rng *rand.Rand) *LayoutEngine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &LayoutEngine{cfg: cfg, rng: rng}
}

// RandomPosition returns an independent uniform position per axis in
// [-SpawnExtent, SpawnExtent].
func (l *LayoutEngine) RandomPosition() entity.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.cfg.SpawnExtent
	return entity.Vec3{
		X: (l.rng.Float64()*2 - 1) * e,
		Y: (l.rng.Float64()*2 - 1) * e,
		Z: (l.rng.Float64()*2 - 1) * e,
	}
}

// Arrange returns the reorganize layout for n nodes: a horizontal circle with
// a sinusoidal vertical offset. Node i of n sits at
// (R·cos(2πi/n), A·sin(iπ/4), R·sin(2πi/n)).
func (l *LayoutEngine) Arrange(n int) []entity.Vec3 {
	if n <= 0 {
		return nil
	}
	out := make([]entity.Vec3, n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		out[i] = entity.Vec3{
			X: l.cfg.Radius * math.Cos(angle),
			Y: l.cfg.VerticalAmplitude * math.Sin(float64(i)*math.Pi/4),
			Z: l.cfg.Radius * math.Sin(angle),
		}
	}
	return out
}

// ConnectionPositions places m expanded connections on a ring around parent
func (l *LayoutEngine) ConnectionPositions(parent entity.Vec3, m int) []entity.Vec3 {
	if m <= 0 {
		return nil
	}
	if !parent.IsFinite() {
		parent = entity.Vec3{}
	}
	out := make([]entity.Vec3, m)
	for k := 0; k < m; k++ {
		angle := 2 * math.Pi * float64(k) / float64(m)
		out[k] = parent.Add(entity.Vec3{
			X: l.cfg.ConnectionRadius * math.Cos(angle),
			Y: l.cfg.ConnectionLift,
			Z: l.cfg.ConnectionRadius * math.Sin(angle),
		})
	}
	return out
}

const (
	minNodeScale = 0.5
	maxNodeScale = 3.0
)

// BaseScale derives a node's visual size from its balance. Non-positive and
// non-finite balances map to the minimum size.
func BaseScale(balance float64) float64 {
	if math.IsNaN(balance) || balance <= 0 {
		return minNodeScale
	}
	if math.IsInf(balance, 1) {
		return maxNodeScale
	}
	scale := minNodeScale + 0.2*math.Log1p(balance)
	return math.Min(maxNodeScale, math.Max(minNodeScale, scale))
}

// PulseScale applies the idle pulse to base at elapsed time t
func PulseScale(base float64, t time.Duration) float64 {
	return base * (1 + 0.08*math.Sin(2*t.Seconds()))
}
