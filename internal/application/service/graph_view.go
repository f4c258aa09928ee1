package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"crypto-bubble-map-explorer/internal/domain/entity"
	"crypto-bubble-map-explorer/internal/domain/service"
	"crypto-bubble-map-explorer/internal/infrastructure/blockchain"
	"crypto-bubble-map-explorer/internal/infrastructure/config"
	"crypto-bubble-map-explorer/internal/infrastructure/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GraphViewConfig holds the settings shared by every view
type GraphViewConfig struct {
	Render RenderSettings
	Scene  service.SceneConfig
	Layout service.LayoutConfig
	Camera service.CameraConfig

	ResolveTimeout time.Duration
	ExpandLimit    int
	ExpandWorkers  int

	// Seed for placement randomness; 0 picks a time based seed
	Seed int64
	// IDGenerator overrides uuid node ids
	IDGenerator func() string
	// Now overrides the wall clock
	Now func() time.Time
}

// RenderSettings wraps the loop config with the subscriber buffer size
type RenderSettings struct {
	Loop             service.RenderLoopConfig
	SubscriberBuffer int
}

// NewGraphViewConfig maps the application configuration onto view settings
func NewGraphViewConfig(cfg *config.Config) GraphViewConfig {
	scene := service.DefaultSceneConfig()
	if cfg.Render.ParticleThreshold > 0 {
		scene.ParticleThreshold = cfg.Render.ParticleThreshold
	}
	if cfg.Render.ParticleCount > 0 {
		scene.ParticleCount = cfg.Render.ParticleCount
	}

	camera := service.DefaultCameraConfig()
	camera.FOV = cfg.Camera.FOV
	camera.Aspect = cfg.Camera.Aspect
	camera.InitialDistance = cfg.Camera.InitialDistance
	camera.MinDistance = cfg.Camera.MinDistance
	camera.MaxDistance = cfg.Camera.MaxDistance
	camera.DampingFactor = cfg.Camera.DampingFactor

	return GraphViewConfig{
		Render: RenderSettings{
			Loop: service.RenderLoopConfig{
				MaxFPS:        cfg.Render.MaxFPS,
				PulseInterval: cfg.Render.PulseInterval,
			},
			SubscriberBuffer: cfg.Render.SubscriberBuffer,
		},
		Scene: scene,
		Layout: service.LayoutConfig{
			SpawnExtent:       cfg.Layout.SpawnExtent,
			Radius:            cfg.Layout.Radius,
			VerticalAmplitude: cfg.Layout.VerticalAmplitude,
			ConnectionRadius:  cfg.Layout.ConnectionRadius,
			ConnectionLift:    cfg.Layout.ConnectionLift,
		},
		Camera:         camera,
		ResolveTimeout: cfg.Resolver.Timeout,
		ExpandLimit:    cfg.Resolver.ExpandLimit,
		ExpandWorkers:  cfg.Resolver.ExpandWorkers,
	}
}

// DefaultGraphViewConfig returns the engine defaults
func DefaultGraphViewConfig() GraphViewConfig {
	return GraphViewConfig{
		Render:        RenderSettings{Loop: service.DefaultRenderLoopConfig(), SubscriberBuffer: 4},
		Scene:         service.DefaultSceneConfig(),
		Layout:        service.DefaultLayoutConfig(),
		Camera:        service.DefaultCameraConfig(),
		ExpandLimit:   8,
		ExpandWorkers: 4,
	}
}

// GraphView is one independent wallet graph: its node store, camera, hover
// state, drag controller and render loop.
type GraphView struct {
	id       string
	cfg      GraphViewConfig
	store    *service.NodeStore
	layout   *service.LayoutEngine
	camera   *service.OrbitCamera
	drag     *service.DragController
	composer *service.SceneComposer
	loop     *service.RenderLoop
	resolver service.WalletResolver
	observer ViewObserver
	logger   *logger.Logger
	now      func() time.Time
	started  time.Time

	mu          sync.RWMutex
	hoveredID   string
	listeners   map[int]NodeEventListener
	subscribers map[int]chan *entity.Frame
	nextID      int

	last atomic.Pointer[entity.Frame]
}

// NewGraphView creates an empty view. observer may be nil.
func NewGraphView(id string, cfg GraphViewConfig, resolver service.WalletResolver, observer ViewObserver, log *logger.Logger) *GraphView {
	if observer == nil {
		observer = NopObserver{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}

	v := &GraphView{
		id:          id,
		cfg:         cfg,
		layout:      service.NewLayoutEngine(cfg.Layout, rng),
		camera:      service.NewOrbitCamera(cfg.Camera),
		composer:    service.NewSceneComposer(cfg.Scene),
		resolver:    resolver,
		observer:    observer,
		logger:      log.WithComponent("graph-view").WithView(id),
		now:         now,
		started:     now(),
		listeners:   make(map[int]NodeEventListener),
		subscribers: make(map[int]chan *entity.Frame),
	}

	opts := []service.NodeStoreOption{service.WithPlacement(v.layout.RandomPosition)}
	if cfg.IDGenerator != nil {
		opts = append(opts, service.WithIDGenerator(cfg.IDGenerator))
	}
	v.store = service.NewNodeStore(opts...)
	v.drag = service.NewDragController(v.store, v.camera)
	v.loop = service.NewRenderLoop(cfg.Render.Loop, v.render, v.animating)

	v.store.OnChange(func(snap *service.Snapshot) {
		v.observer.NodeCount(v.id, snap.Len())
		v.loop.Invalidate()
	})

	return v
}

// ID returns the view id
func (v *GraphView) ID() string {
	return v.id
}

// Snapshot returns the current node state
func (v *GraphView) Snapshot() *service.Snapshot {
	return v.store.Snapshot()
}

// InFlight reports whether an add for address is outstanding
func (v *GraphView) InFlight(address string) bool {
	return v.store.InFlight(blockchain.NormalizeAddress(address))
}

// AddWallet resolves address and adds or merges it as a main node.
// A second add for an address whose first add is still resolving fails with
// ErrAddInFlight and leaves the store untouched.
func (v *GraphView) AddWallet(ctx context.Context, address string, position *entity.Vec3) (entity.WalletNode, error) {
	return v.addWallet(ctx, address, position, entity.NodeTypeMain)
}

func (v *GraphView) addWallet(ctx context.Context, address string, position *entity.Vec3, nodeType entity.NodeType) (entity.WalletNode, error) {
	address = blockchain.NormalizeAddress(address)
	if address == "" {
		return entity.WalletNode{}, ErrEmptyAddress
	}
	if position != nil && !position.IsFinite() {
		return entity.WalletNode{}, ErrInvalidPosition
	}

	if !v.store.BeginAdd(address) {
		v.observer.AddDropped(v.id)
		v.logger.Debug("Dropping add, another add is in flight", zap.String("address", address))
		return entity.WalletNode{}, ErrAddInFlight
	}
	defer v.store.EndAdd(address)

	meta, err := v.resolve(ctx, address)
	if err != nil {
		return entity.WalletNode{}, err
	}

	node, created := v.store.AddNode(meta, address, service.AddOptions{Position: position, Type: nodeType})
	v.observer.NodeAdded(v.id, created)

	v.logger.Info("Added wallet node",
		zap.String("address", address),
		zap.String("node_id", node.ID),
		zap.String("type", node.Type.String()),
		zap.Bool("created", created))

	return node, nil
}

func (v *GraphView) resolve(ctx context.Context, address string) (*entity.WalletMetadata, error) {
	if v.cfg.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.cfg.ResolveTimeout)
		defer cancel()
	}

	start := time.Now()
	meta, err := v.resolver.ResolveWallet(ctx, address)
	v.observer.ResolveDuration(time.Since(start))

	if err != nil {
		v.observer.ResolveFailed(v.id)
		v.logger.Warn("Failed to resolve wallet", zap.String("address", address), zap.Error(err))
		return nil, fmt.Errorf("%w %s: %w", ErrResolveFailed, address, err)
	}
	if meta == nil {
		meta = &entity.WalletMetadata{}
	}
	return meta, nil
}

// ExpandConnections adds the node's related addresses as connected nodes on a
// ring around it. An empty nodeID expands the selected node. Addresses that
// already have a node are skipped.
func (v *GraphView) ExpandConnections(ctx context.Context, nodeID string) ([]entity.WalletNode, error) {
	snap := v.store.Snapshot()
	if nodeID == "" {
		nodeID = snap.SelectedID
	}
	parent, ok := snap.Node(nodeID)
	if !ok {
		return nil, ErrNodeNotFound
	}

	var pending []string
	for _, addr := range parent.Connections {
		addr = blockchain.NormalizeAddress(addr)
		if addr == "" {
			continue
		}
		if _, exists := snap.NodeByAddress(addr); exists {
			continue
		}
		pending = append(pending, addr)
		if v.cfg.ExpandLimit > 0 && len(pending) == v.cfg.ExpandLimit {
			break
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	positions := v.layout.ConnectionPositions(parent.Position, len(pending))
	results := make([]*entity.WalletNode, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	if v.cfg.ExpandWorkers > 0 {
		g.SetLimit(v.cfg.ExpandWorkers)
	}
	for i, addr := range pending {
		pos := positions[i]
		g.Go(func() error {
			node, err := v.addWallet(gctx, addr, &pos, entity.NodeTypeConnected)
			if errors.Is(err, ErrAddInFlight) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = &node
			return nil
		})
	}
	err := g.Wait()

	added := make([]entity.WalletNode, 0, len(results))
	for _, node := range results {
		if node != nil {
			added = append(added, *node)
		}
	}

	v.logger.Info("Expanded connections",
		zap.String("node_id", nodeID),
		zap.Int("requested", len(pending)),
		zap.Int("added", len(added)))

	return added, err
}

// RemoveNode deletes a node and clears selection and hover pointing at it
func (v *GraphView) RemoveNode(nodeID string) error {
	node, ok := v.store.Snapshot().Node(nodeID)
	if !ok || !v.store.RemoveNode(nodeID) {
		return ErrNodeNotFound
	}
	v.drag.Forget(nodeID)

	v.mu.Lock()
	if v.hoveredID == nodeID {
		v.hoveredID = ""
	}
	v.mu.Unlock()

	v.observer.NodeRemoved(v.id)
	v.emit(entity.NodeEventRemove, node)
	return nil
}

// ToggleLock flips a node's lock and returns the new value
func (v *GraphView) ToggleLock(nodeID string) (bool, error) {
	locked, ok := v.store.ToggleLock(nodeID)
	if !ok {
		return false, ErrNodeNotFound
	}
	if node, found := v.store.Snapshot().Node(nodeID); found {
		v.emit(entity.NodeEventLock, node)
	}
	return locked, nil
}

// UpdateNodePosition moves a node regardless of its lock
func (v *GraphView) UpdateNodePosition(nodeID string, pos entity.Vec3) error {
	if !pos.IsFinite() {
		return ErrInvalidPosition
	}
	if !v.store.UpdateNodePosition(nodeID, pos) {
		return ErrNodeNotFound
	}
	if node, found := v.store.Snapshot().Node(nodeID); found {
		v.emit(entity.NodeEventPosition, node)
	}
	return nil
}

// Select sets the selection; an empty id clears it
func (v *GraphView) Select(nodeID string) error {
	if nodeID == "" {
		v.store.ClearSelection()
		return nil
	}
	if _, ok := v.store.Snapshot().Node(nodeID); !ok {
		return ErrNodeNotFound
	}
	v.store.Select(nodeID)
	return nil
}

// Click selects a node and notifies listeners
func (v *GraphView) Click(nodeID string) error {
	if err := v.Select(nodeID); err != nil {
		return err
	}
	if node, ok := v.store.Snapshot().Node(nodeID); ok {
		v.emit(entity.NodeEventClick, node)
	}
	return nil
}

// Hover sets the hovered node; an empty id clears it
func (v *GraphView) Hover(nodeID string) error {
	if nodeID != "" {
		if _, ok := v.store.Snapshot().Node(nodeID); !ok {
			return ErrNodeNotFound
		}
	}

	v.mu.Lock()
	changed := v.hoveredID != nodeID
	v.hoveredID = nodeID
	v.mu.Unlock()

	if changed {
		v.loop.Invalidate()
	}
	return nil
}

// HoveredID returns the hovered node id
func (v *GraphView) HoveredID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.hoveredID
}

// Reorganize arranges every node on the circular layout and unlocks them all
func (v *GraphView) Reorganize() {
	if v.store.Reorganize(v.layout) {
		v.logger.Info("Reorganized graph", zap.Int("nodes", v.store.Snapshot().Len()))
	}
}

// HandlePointer feeds a pointer event to the drag controller
func (v *GraphView) HandlePointer(ev entity.PointerEvent) service.DragResult {
	res := v.drag.Handle(ev)
	if res.Captured || ev.Kind == entity.PointerUp {
		v.loop.Invalidate()
	}
	if res.Moved {
		if node, ok := v.store.Snapshot().Node(ev.NodeID); ok {
			v.emit(entity.NodeEventPosition, node)
		}
	}
	return res
}

// OrbitCamera rotates the camera around its target
func (v *GraphView) OrbitCamera(dAzimuth, dPolar float64) {
	if dAzimuth == 0 && dPolar == 0 {
		return
	}
	if v.camera.Rotate(dAzimuth, dPolar) {
		v.loop.Invalidate()
	}
}

// ZoomCamera moves the camera towards or away from its target
func (v *GraphView) ZoomCamera(delta float64) {
	if v.camera.Zoom(delta) {
		v.loop.Invalidate()
	}
}

// SetAspect updates the viewport aspect ratio
func (v *GraphView) SetAspect(aspect float64) {
	v.camera.SetAspect(aspect)
	v.loop.Invalidate()
}

// Camera returns the current camera pose
func (v *GraphView) Camera() entity.CameraState {
	return v.camera.State()
}

// OnNodeEvent registers a listener and returns a function removing it
func (v *GraphView) OnNodeEvent(fn NodeEventListener) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

// Subscribe returns a channel receiving every rendered frame. Frames are
// dropped for subscribers that fall behind. The returned function
// unsubscribes and closes the channel.
func (v *GraphView) Subscribe(buffer int) (<-chan *entity.Frame, func()) {
	if buffer <= 0 {
		buffer = v.cfg.Render.SubscriberBuffer
	}
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan *entity.Frame, buffer)

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subscribers[id] = ch
	v.mu.Unlock()

	v.loop.Invalidate()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if sub, ok := v.subscribers[id]; ok {
				delete(v.subscribers, id)
				close(sub)
			}
		})
	}
}

// Frame composes a frame from the current state without going through the loop
func (v *GraphView) Frame() *entity.Frame {
	return v.compose()
}

// LastFrame returns the most recently rendered frame, nil before the first
func (v *GraphView) LastFrame() *entity.Frame {
	return v.last.Load()
}

// Frames returns the number of frames the loop has rendered
func (v *GraphView) Frames() uint64 {
	return v.loop.Frames()
}

// Invalidate requests a frame
func (v *GraphView) Invalidate() {
	v.loop.Invalidate()
}

// Run drives the render loop until ctx is done
func (v *GraphView) Run(ctx context.Context) error {
	v.loop.Invalidate()
	err := v.loop.Run(ctx)
	v.closeSubscribers()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (v *GraphView) render(ctx context.Context) {
	if v.camera.Update() {
		v.loop.Invalidate()
	}

	frame := v.compose()
	v.last.Store(frame)
	v.observer.FrameRendered(v.id)

	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, ch := range v.subscribers {
		select {
		case ch <- frame:
		default:
		}
	}
}

func (v *GraphView) compose() *entity.Frame {
	now := v.now()
	return v.composer.Compose(service.SceneInput{
		ViewID:    v.id,
		Snapshot:  v.store.Snapshot(),
		Camera:    v.camera.State(),
		Controls:  v.camera.Controls(),
		HoveredID: v.HoveredID(),
		Dragging:  v.drag.Dragging(),
		Elapsed:   now.Sub(v.started),
		Now:       now,
	})
}

// animating reports whether any node pulses: not locked and not dragged
func (v *GraphView) animating() bool {
	for _, node := range v.store.Snapshot().Nodes {
		if !node.IsLocked && !v.drag.IsDragging(node.ID) {
			return true
		}
	}
	return false
}

func (v *GraphView) emit(kind entity.NodeEventKind, node entity.WalletNode) {
	ev := entity.NodeEvent{
		Kind:     kind,
		ViewID:   v.id,
		NodeID:   node.ID,
		Address:  node.Address,
		Position: node.Position,
		Locked:   node.IsLocked,
		At:       v.now(),
	}

	v.mu.RLock()
	listeners := make([]NodeEventListener, 0, len(v.listeners))
	for _, fn := range v.listeners {
		listeners = append(listeners, fn)
	}
	v.mu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func (v *GraphView) closeSubscribers() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, ch := range v.subscribers {
		delete(v.subscribers, id)
		close(ch)
	}
}
