package entity

import (
	"time"
)

// Frame is one fully composed scene ready for a renderer
type Frame struct {
	ViewID       string         `json:"view_id"`
	Sequence     uint64         `json:"sequence"`
	StoreVersion uint64         `json:"store_version"`
	RenderedAt   time.Time      `json:"rendered_at"`
	Camera       CameraState    `json:"camera"`
	Controls     OrbitControls  `json:"controls"`
	Lights       []Light        `json:"lights"`
	Grid         Grid           `json:"grid"`
	Particles    *ParticleField `json:"particles,omitempty"`
	Nodes        []RenderedNode `json:"nodes"`
	SelectedID   string         `json:"selected_id,omitempty"`
	HoveredID    string         `json:"hovered_id,omitempty"`
}

// CameraState is the camera pose used for a frame
type CameraState struct {
	Position Vec3    `json:"position"`
	Target   Vec3    `json:"target"`
	Up       Vec3    `json:"up"`
	FOV      float64 `json:"fov"`
	Aspect   float64 `json:"aspect"`
	Distance float64 `json:"distance"`
}

// OrbitControls describes the interactive camera constraints
type OrbitControls struct {
	MinDistance   float64 `json:"min_distance"`
	MaxDistance   float64 `json:"max_distance"`
	EnableDamping bool    `json:"enable_damping"`
	DampingFactor float64 `json:"damping_factor"`
}

// LightKind distinguishes scene lights
type LightKind string

// Light kinds composed into every frame
const (
	LightAmbient LightKind = "ambient"
	LightPoint   LightKind = "point"
)

// Light is one scene light
type Light struct {
	Kind      LightKind `json:"kind"`
	Position  *Vec3     `json:"position,omitempty"`
	Intensity float64   `json:"intensity"`
	Color     string    `json:"color"`
}

// Grid is the infinite reference grid
type Grid struct {
	Infinite     bool    `json:"infinite"`
	CellSize     float64 `json:"cell_size"`
	SectionSize  float64 `json:"section_size"`
	FadeDistance float64 `json:"fade_distance"`
	CellColor    string  `json:"cell_color"`
	SectionColor string  `json:"section_color"`
}

// ParticleField is the decorative ambient background
type ParticleField struct {
	Count  int     `json:"count"`
	Radius float64 `json:"radius"`
	Depth  float64 `json:"depth"`
	Speed  float64 `json:"speed"`
}

// RenderedNode is the presentation of one WalletNode
type RenderedNode struct {
	ID       string     `json:"id"`
	Address  string     `json:"address"`
	Type     NodeType   `json:"type"`
	Position Vec3       `json:"position"`
	Scale    float64    `json:"scale"`
	Color    string     `json:"color"`
	Ring     *Ring      `json:"ring,omitempty"`
	Locked   bool       `json:"locked"`
	Selected bool       `json:"selected"`
	Dragging bool       `json:"dragging"`
	Label    *NodeLabel `json:"label,omitempty"`
}

// Ring marks a node that has connections
type Ring struct {
	InnerRadius float64 `json:"inner_radius"`
	OuterRadius float64 `json:"outer_radius"`
	Color       string  `json:"color"`
}

// NodeLabel is the floating hover label
type NodeLabel struct {
	Title            string `json:"title"`
	Address          string `json:"address"`
	Balance          string `json:"balance"`
	TransactionCount int64  `json:"transaction_count"`
	Locked           bool   `json:"locked"`
}
