package service

import (
	"fmt"
	"sync/atomic"
	"time"

	"crypto-bubble-map-explorer/internal/domain/entity"
)

// SceneConfig holds the static scene parameters
type SceneConfig struct {
	// ParticleThreshold is the node count from which the particle field is dropped
	ParticleThreshold int
	ParticleCount     int
	ParticleRadius    float64
}

// DefaultSceneConfig returns the standard scene
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		ParticleThreshold: 5,
		ParticleCount:     5000,
		ParticleRadius:    100,
	}
}

// SceneInput is everything one frame is composed from
type SceneInput struct {
	ViewID    string
	Snapshot  *Snapshot
	Camera    entity.CameraState
	Controls  entity.OrbitControls
	HoveredID string
	// Dragging maps nodes in an active gesture to their presentation position
	Dragging map[string]entity.Vec3
	// Elapsed drives the idle pulse
	Elapsed time.Duration
	Now     time.Time
}

// SceneComposer assembles frames
type SceneComposer struct {
	cfg      SceneConfig
	sequence atomic.Uint64
}

// NewSceneComposer creates a composer
func NewSceneComposer(cfg SceneConfig) *SceneComposer {
	return &SceneComposer{cfg: cfg}
}

// Compose builds one frame. Nodes without an id or with a non-finite position
// are left out of the frame; the snapshot itself is not touched.
func (c *SceneComposer) Compose(in SceneInput) *entity.Frame {
	snap := in.Snapshot
	if snap == nil {
		snap = &Snapshot{}
	}

	frame := &entity.Frame{
		ViewID:       in.ViewID,
		Sequence:     c.sequence.Add(1),
		StoreVersion: snap.Version,
		RenderedAt:   in.Now,
		Camera:       in.Camera,
		Controls:     in.Controls,
		Lights:       sceneLights(),
		Grid:         referenceGrid(),
		Nodes:        make([]entity.RenderedNode, 0, len(snap.Nodes)),
	}

	if len(snap.Nodes) < c.cfg.ParticleThreshold {
		frame.Particles = &entity.ParticleField{
			Count:  c.cfg.ParticleCount,
			Radius: c.cfg.ParticleRadius,
			Depth:  50,
			Speed:  1,
		}
	}

	for i := range snap.Nodes {
		node := &snap.Nodes[i]
		if !node.IsRenderable() {
			continue
		}
		frame.Nodes = append(frame.Nodes, c.renderNode(node, snap, in))
	}

	if _, ok := snap.Selected(); ok {
		frame.SelectedID = snap.SelectedID
	}
	if _, ok := snap.Node(in.HoveredID); ok {
		frame.HoveredID = in.HoveredID
	}
	return frame
}

func (c *SceneComposer) renderNode(node *entity.WalletNode, snap *Snapshot, in SceneInput) entity.RenderedNode {
	pos, dragging := in.Dragging[node.ID]
	if !dragging || !pos.IsFinite() {
		pos = node.Position
	}

	scale := BaseScale(node.Balance)
	if !dragging && !node.IsLocked {
		scale = PulseScale(scale, in.Elapsed)
	}

	out := entity.RenderedNode{
		ID:       node.ID,
		Address:  node.Address,
		Type:     node.Type,
		Position: pos,
		Scale:    scale,
		Color:    nodeColor(node.Type),
		Locked:   node.IsLocked,
		Selected: snap.SelectedID == node.ID,
		Dragging: dragging,
	}
	if node.HasConnections() {
		out.Ring = &entity.Ring{
			InnerRadius: scale * 1.2,
			OuterRadius: scale * 1.35,
			Color:       ringColor(node.Type),
		}
	}
	if in.HoveredID == node.ID {
		out.Label = &entity.NodeLabel{
			Title:            labelTitle(node.Type),
			Address:          TruncateAddress(node.Address),
			Balance:          fmt.Sprintf("%.4f", node.Balance),
			TransactionCount: node.TransactionCount,
			Locked:           node.IsLocked,
		}
	}
	return out
}

// TruncateAddress shortens an address to its first six and last four characters
func TruncateAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

func nodeColor(t entity.NodeType) string {
	switch t {
	case entity.NodeTypeMain:
		return "#3b82f6"
	case entity.NodeTypeTransaction:
		return "#f59e0b"
	case entity.NodeTypeConnected:
		return "#10b981"
	}
	return "#9ca3af"
}

func ringColor(t entity.NodeType) string {
	switch t {
	case entity.NodeTypeMain:
		return "#93c5fd"
	case entity.NodeTypeTransaction:
		return "#fcd34d"
	case entity.NodeTypeConnected:
		return "#6ee7b7"
	}
	return "#d1d5db"
}

func labelTitle(t entity.NodeType) string {
	switch t {
	case entity.NodeTypeMain:
		return "Wallet"
	case entity.NodeTypeTransaction:
		return "Transaction"
	case entity.NodeTypeConnected:
		return "Connected Wallet"
	}
	return "Node"
}

func sceneLights() []entity.Light {
	return []entity.Light{
		{Kind: entity.LightAmbient, Intensity: 0.5, Color: "#ffffff"},
		{Kind: entity.LightPoint, Position: &entity.Vec3{X: 10, Y: 10, Z: 10}, Intensity: 1, Color: "#ffffff"},
		{Kind: entity.LightPoint, Position: &entity.Vec3{X: -10, Y: -10, Z: -10}, Intensity: 0.5, Color: "#60a5fa"},
	}
}

func referenceGrid() entity.Grid {
	return entity.Grid{
		Infinite:     true,
		CellSize:     1,
		SectionSize:  5,
		FadeDistance: 50,
		CellColor:    "#1f2937",
		SectionColor: "#374151",
	}
}
