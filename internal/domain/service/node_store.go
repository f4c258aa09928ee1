package service

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"crypto-bubble-map-explorer/internal/domain/entity"

	"github.com/google/uuid"
)

// Snapshot is an immutable state of a NodeStore. Every mutation replaces the
// snapshot as a whole, so a Snapshot held by a reader never changes.
type Snapshot struct {
	Version    uint64
	Nodes      []entity.WalletNode
	SelectedID string
}

// Len returns the number of nodes
func (s *Snapshot) Len() int {
	return len(s.Nodes)
}

// Node finds a node by id
func (s *Snapshot) Node(id string) (entity.WalletNode, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.Nodes[i], true
	}
	return entity.WalletNode{}, false
}

// NodeByAddress finds a node by its deduplication key
func (s *Snapshot) NodeByAddress(address string) (entity.WalletNode, bool) {
	if i := s.indexOfAddress(address); i >= 0 {
		return s.Nodes[i], true
	}
	return entity.WalletNode{}, false
}

// Selected returns the selected node, if any
func (s *Snapshot) Selected() (entity.WalletNode, bool) {
	if s.SelectedID == "" {
		return entity.WalletNode{}, false
	}
	return s.Node(s.SelectedID)
}

func (s *Snapshot) indexOf(id string) int {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) indexOfAddress(address string) int {
	for i := range s.Nodes {
		if s.Nodes[i].Address == address {
			return i
		}
	}
	return -1
}

// AddOptions controls how AddNode places a new node
type AddOptions struct {
	// Position overrides random placement when set
	Position *entity.Vec3
	// Type of a newly created node; merges keep the existing type unless this is main
	Type entity.NodeType
}

// Arranger computes positions for a whole graph in order
type Arranger interface {
	Arrange(n int) []entity.Vec3
}

// NodeStoreOption configures a NodeStore
type NodeStoreOption func(*NodeStore)

// WithIDGenerator replaces the uuid based id generator
func WithIDGenerator(fn func() string) NodeStoreOption {
	return func(s *NodeStore) { s.newID = fn }
}

// WithPlacement replaces the initial placement function
func WithPlacement(fn func() entity.Vec3) NodeStoreOption {
	return func(s *NodeStore) { s.place = fn }
}

// NodeStore owns the visualized nodes of one graph view and the selection
type NodeStore struct {
	mu        sync.Mutex
	current   atomic.Pointer[Snapshot]
	inFlight  map[string]struct{}
	newID     func() string
	place     func() entity.Vec3
	listeners []func(*Snapshot)

	notifyMu sync.Mutex
	notified uint64
}

// NewNodeStore creates an empty store
func NewNodeStore(opts ...NodeStoreOption) *NodeStore {
	s := &NodeStore{
		inFlight: make(map[string]struct{}),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.place == nil {
		s.place = NewLayoutEngine(DefaultLayoutConfig(), nil).RandomPosition
	}
	s.current.Store(&Snapshot{})
	return s
}

// Snapshot returns the current immutable state
func (s *NodeStore) Snapshot() *Snapshot {
	return s.current.Load()
}

// OnChange registers fn to be called with the new snapshot after every
// mutation. Listeners see versions in increasing order; a snapshot already
// superseded by a delivered one is skipped. Listeners must not mutate the store.
func (s *NodeStore) OnChange(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// BeginAdd marks an add for address as in flight. It returns false when an
// add for the same address is already outstanding, in which case the caller
// must drop its add.
func (s *NodeStore) BeginAdd(address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[address]; busy {
		return false
	}
	s.inFlight[address] = struct{}{}
	return true
}

// EndAdd clears the in-flight mark set by BeginAdd
func (s *NodeStore) EndAdd(address string) {
	address = strings.TrimSpace(address)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, address)
}

// InFlight reports whether an add for address is outstanding
func (s *NodeStore) InFlight(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[strings.TrimSpace(address)]
	return busy
}

// AddNode merges meta into the node with the same address or appends a new
// node. The returned bool is true when a node was created.
func (s *NodeStore) AddNode(meta *entity.WalletMetadata, address string, opts AddOptions) (entity.WalletNode, bool) {
	address = strings.TrimSpace(address)
	if address == "" {
		return entity.WalletNode{}, false
	}

	var (
		result  entity.WalletNode
		created bool
	)
	s.mutate(func(next *Snapshot) bool {
		if i := next.indexOfAddress(address); i >= 0 {
			node := next.Nodes[i].Clone()
			node.ApplyMetadata(meta)
			if opts.Type == entity.NodeTypeMain {
				node.Type = entity.NodeTypeMain
			}
			next.Nodes[i] = node
			result = node
			return true
		}

		pos := s.place()
		if opts.Position != nil && opts.Position.IsFinite() {
			pos = *opts.Position
		}
		node := entity.WalletNode{
			ID:          s.newID(),
			Address:     address,
			Position:    pos,
			Connections: []string{},
			Type:        opts.Type,
		}
		node.ApplyMetadata(meta)
		next.Nodes = append(next.Nodes, node)
		result = node
		created = true
		return true
	})
	return result, created
}

// RemoveNode deletes a node and clears the selection if it referenced it
func (s *NodeStore) RemoveNode(id string) bool {
	return s.mutate(func(next *Snapshot) bool {
		i := next.indexOf(id)
		if i < 0 {
			return false
		}
		next.Nodes = append(next.Nodes[:i], next.Nodes[i+1:]...)
		if next.SelectedID == id {
			next.SelectedID = ""
		}
		return true
	})
}

// ToggleLock flips the lock flag and returns the new value
func (s *NodeStore) ToggleLock(id string) (locked bool, ok bool) {
	ok = s.mutate(func(next *Snapshot) bool {
		i := next.indexOf(id)
		if i < 0 {
			return false
		}
		node := next.Nodes[i].Clone()
		node.IsLocked = !node.IsLocked
		locked = node.IsLocked
		next.Nodes[i] = node
		return true
	})
	return locked, ok
}

// UpdateNodePosition replaces a node's position regardless of its lock.
// Non-finite positions are ignored.
func (s *NodeStore) UpdateNodePosition(id string, pos entity.Vec3) bool {
	if !pos.IsFinite() {
		return false
	}
	return s.mutate(func(next *Snapshot) bool {
		i := next.indexOf(id)
		if i < 0 {
			return false
		}
		node := next.Nodes[i].Clone()
		node.Position = pos
		next.Nodes[i] = node
		return true
	})
}

// MoveIfUnlocked replaces a node's position only when the node is unlocked,
// checking the lock inside the same mutation. It reports whether the node moved.
func (s *NodeStore) MoveIfUnlocked(id string, pos entity.Vec3) bool {
	if !pos.IsFinite() {
		return false
	}
	return s.mutate(func(next *Snapshot) bool {
		i := next.indexOf(id)
		if i < 0 || next.Nodes[i].IsLocked {
			return false
		}
		node := next.Nodes[i].Clone()
		node.Position = pos
		next.Nodes[i] = node
		return true
	})
}

// AppendConnections adds related addresses to a node
func (s *NodeStore) AppendConnections(id string, addresses ...string) bool {
	return s.mutate(func(next *Snapshot) bool {
		i := next.indexOf(id)
		if i < 0 {
			return false
		}
		node := next.Nodes[i].Clone()
		merged := entity.MergeConnections(node.Connections, addresses)
		if len(merged) == len(node.Connections) {
			return false
		}
		node.Connections = merged
		next.Nodes[i] = node
		return true
	})
}

// Select sets the single selection. Unknown ids leave the selection unchanged.
func (s *NodeStore) Select(id string) bool {
	if id == "" {
		s.ClearSelection()
		return true
	}
	return s.mutate(func(next *Snapshot) bool {
		if next.indexOf(id) < 0 || next.SelectedID == id {
			return false
		}
		next.SelectedID = id
		return true
	})
}

// ClearSelection clears the selection
func (s *NodeStore) ClearSelection() {
	s.mutate(func(next *Snapshot) bool {
		if next.SelectedID == "" {
			return false
		}
		next.SelectedID = ""
		return true
	})
}

// Reorganize moves every node to the arranger's positions and unlocks all nodes
func (s *NodeStore) Reorganize(arranger Arranger) bool {
	return s.mutate(func(next *Snapshot) bool {
		if len(next.Nodes) == 0 {
			return false
		}
		positions := arranger.Arrange(len(next.Nodes))
		for i := range next.Nodes {
			node := next.Nodes[i].Clone()
			if i < len(positions) && positions[i].IsFinite() {
				node.Position = positions[i]
			}
			node.IsLocked = false
			next.Nodes[i] = node
		}
		return true
	})
}

// mutate applies fn to a copy of the current snapshot and publishes the copy
// when fn reports a change.
func (s *NodeStore) mutate(fn func(next *Snapshot) bool) bool {
	s.mu.Lock()
	prev := s.current.Load()
	next := &Snapshot{
		Version:    prev.Version,
		Nodes:      append(make([]entity.WalletNode, 0, len(prev.Nodes)+1), prev.Nodes...),
		SelectedID: prev.SelectedID,
	}
	if !fn(next) {
		s.mu.Unlock()
		return false
	}
	next.Version++
	s.current.Store(next)
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	s.notify(next, listeners)
	return true
}

func (s *NodeStore) notify(snap *Snapshot, listeners []func(*Snapshot)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Version <= s.notified {
		return
	}
	s.notified = snap.Version
	for _, fn := range listeners {
		fn(snap)
	}
}
