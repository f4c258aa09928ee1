package service

import (
	"sync"

	"crypto-bubble-map-explorer/internal/domain/entity"
)

// DragState is the per-node gesture state
type DragState int

const (
	// DragIdle means no gesture holds the node
	DragIdle DragState = iota
	// DragDragging means a pointer-down captured the node
	DragDragging
)

// String returns a readable state name
func (s DragState) String() string {
	switch s {
	case DragIdle:
		return "idle"
	case DragDragging:
		return "dragging"
	}
	return "unknown"
}

// DragResult describes what a pointer event did
type DragResult struct {
	NodeID string
	State  DragState
	// Captured is set when the event started a drag and must not reach other handlers
	Captured bool
	// Moved is set when the node's position was updated
	Moved    bool
	Position entity.Vec3
}

type dragSession struct {
	start entity.Vec3
}

// DragController turns pointer events into node position updates. Dragging is
// confined to the plane facing the camera through the node's position at the
// start of the gesture, and the node's z never leaves its starting value.
type DragController struct {
	store     *NodeStore
	projector Projector

	mu         sync.Mutex
	sessions   map[string]*dragSession
	transforms map[string]entity.Vec3
}

// NewDragController creates a drag controller for store seen through projector
func NewDragController(store *NodeStore, projector Projector) *DragController {
	return &DragController{
		store:      store,
		projector:  projector,
		sessions:   make(map[string]*dragSession),
		transforms: make(map[string]entity.Vec3),
	}
}

// Handle consumes one pointer event
func (d *DragController) Handle(ev entity.PointerEvent) DragResult {
	switch ev.Kind {
	case entity.PointerDown:
		return d.pointerDown(ev)
	case entity.PointerMove:
		return d.pointerMove(ev)
	case entity.PointerUp:
		return d.pointerUp(ev)
	}
	return DragResult{NodeID: ev.NodeID, State: d.State(ev.NodeID)}
}

// State returns the gesture state of a node
func (d *DragController) State(nodeID string) DragState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[nodeID]; ok {
		return DragDragging
	}
	return DragIdle
}

// IsDragging reports whether a node is being dragged
func (d *DragController) IsDragging(nodeID string) bool {
	return d.State(nodeID) == DragDragging
}

// Transform returns the presentation position recorded by the last move of
// an active gesture.
func (d *DragController) Transform(nodeID string) (entity.Vec3, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pos, ok := d.transforms[nodeID]
	return pos, ok
}

// Dragging returns the presentation position of every node in an active gesture
func (d *DragController) Dragging() map[string]entity.Vec3 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]entity.Vec3, len(d.sessions))
	for id, s := range d.sessions {
		if pos, ok := d.transforms[id]; ok {
			out[id] = pos
		} else {
			out[id] = s.start
		}
	}
	return out
}

// Forget drops any gesture state for a removed node
func (d *DragController) Forget(nodeID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sessions, nodeID)
	delete(d.transforms, nodeID)
}

func (d *DragController) pointerDown(ev entity.PointerEvent) DragResult {
	node, ok := d.store.Snapshot().Node(ev.NodeID)
	if !ok || node.IsLocked {
		return DragResult{NodeID: ev.NodeID, State: d.State(ev.NodeID)}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if s, active := d.sessions[ev.NodeID]; active {
		return DragResult{NodeID: ev.NodeID, State: DragDragging, Captured: true, Position: s.start}
	}
	d.sessions[ev.NodeID] = &dragSession{start: node.Position}
	return DragResult{NodeID: ev.NodeID, State: DragDragging, Captured: true, Position: node.Position}
}

func (d *DragController) pointerMove(ev entity.PointerEvent) DragResult {
	d.mu.Lock()
	session, active := d.sessions[ev.NodeID]
	d.mu.Unlock()
	if !active {
		return DragResult{NodeID: ev.NodeID, State: DragIdle}
	}

	ignored := DragResult{NodeID: ev.NodeID, State: DragDragging}
	node, ok := d.store.Snapshot().Node(ev.NodeID)
	if !ok || node.IsLocked {
		// locked mid-gesture: keep dragging state until pointer up, move nothing
		return ignored
	}

	ray := d.projector.PointerRay(ev.X, ev.Y)
	hit, ok := ray.IntersectPlane(session.start, d.projector.Forward())
	if !ok {
		return ignored
	}
	pos := entity.Vec3{X: hit.X, Y: hit.Y, Z: session.start.Z}
	if !pos.IsFinite() {
		return ignored
	}

	if !d.store.MoveIfUnlocked(ev.NodeID, pos) {
		return ignored
	}

	d.mu.Lock()
	if _, still := d.sessions[ev.NodeID]; still {
		d.transforms[ev.NodeID] = pos
	}
	d.mu.Unlock()
	return DragResult{NodeID: ev.NodeID, State: DragDragging, Moved: true, Position: pos}
}

func (d *DragController) pointerUp(ev entity.PointerEvent) DragResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sessions, ev.NodeID)
	delete(d.transforms, ev.NodeID)
	return DragResult{NodeID: ev.NodeID, State: DragIdle}
}
