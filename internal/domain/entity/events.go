package entity

import (
	"fmt"
	"time"
)

// PointerKind is the phase of a pointer gesture
type PointerKind int

// Pointer phases of a drag gesture
const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// String returns the wire name of the pointer kind
func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	}
	return fmt.Sprintf("PointerKind(%d)", int(k))
}

// ParsePointerKind parses a wire name
func ParsePointerKind(s string) (PointerKind, error) {
	switch s {
	case "down":
		return PointerDown, nil
	case "move":
		return PointerMove, nil
	case "up":
		return PointerUp, nil
	}
	return PointerDown, fmt.Errorf("unknown pointer kind %q", s)
}

// PointerEvent is one pointer input addressed to a node. X and Y are
// normalized device coordinates in [-1, 1], Y pointing up.
type PointerEvent struct {
	Kind   PointerKind
	NodeID string
	X      float64
	Y      float64
}

// NodeEventKind names an outbound notification
type NodeEventKind string

// Node notifications sent to listeners
const (
	NodeEventClick    NodeEventKind = "click"
	NodeEventPosition NodeEventKind = "position"
	NodeEventLock     NodeEventKind = "lock"
	NodeEventRemove   NodeEventKind = "remove"
)

// NodeEvent notifies parent chrome about a node interaction or mutation
type NodeEvent struct {
	Kind     NodeEventKind `json:"kind"`
	ViewID   string        `json:"view_id"`
	NodeID   string        `json:"node_id"`
	Address  string        `json:"address"`
	Position Vec3          `json:"position"`
	Locked   bool          `json:"locked"`
	At       time.Time     `json:"at"`
}
