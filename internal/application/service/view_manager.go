package service

import (
	"context"
	"sort"
	"sync"

	"crypto-bubble-map-explorer/internal/domain/service"
	"crypto-bubble-map-explorer/internal/infrastructure/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type managedView struct {
	view   *GraphView
	cancel context.CancelFunc
	done   chan struct{}
}

// ViewManager owns the open graph views and runs their render loops
type ViewManager struct {
	cfg      GraphViewConfig
	resolver service.WalletResolver
	observer ViewObserver
	base     *logger.Logger
	logger   *logger.Logger
	maxViews int
	newID    func() string

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	views     map[string]*managedView
	listeners []NodeEventListener
}

// NewViewManager creates a view manager. maxViews <= 0 means unlimited.
func NewViewManager(cfg GraphViewConfig, resolver service.WalletResolver, observer ViewObserver, maxViews int, log *logger.Logger) *ViewManager {
	if observer == nil {
		observer = NopObserver{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ViewManager{
		cfg:      cfg,
		resolver: resolver,
		observer: observer,
		base:     log,
		logger:   log.WithComponent("view-manager"),
		maxViews: maxViews,
		newID:    uuid.NewString,
		ctx:      ctx,
		cancel:   cancel,
		views:    make(map[string]*managedView),
	}
}

// AddListener registers a node event listener on every current and future view
func (m *ViewManager) AddListener(fn NodeEventListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
	for _, mv := range m.views {
		mv.view.OnNodeEvent(fn)
	}
}

// Create opens a new view with a generated id
func (m *ViewManager) Create() (*GraphView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(m.newID())
}

// GetOrCreate returns the view with id, opening it when absent
func (m *ViewManager) GetOrCreate(id string) (*GraphView, error) {
	if id == "" {
		return m.Create()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if mv, ok := m.views[id]; ok {
		return mv.view, nil
	}
	return m.createLocked(id)
}

func (m *ViewManager) createLocked(id string) (*GraphView, error) {
	if m.maxViews > 0 && len(m.views) >= m.maxViews {
		return nil, ErrTooManyViews
	}

	view := NewGraphView(id, m.cfg, m.resolver, m.observer, m.base)
	for _, fn := range m.listeners {
		view.OnNodeEvent(fn)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	mv := &managedView{view: view, cancel: cancel, done: make(chan struct{})}
	m.views[id] = mv

	go func() {
		defer close(mv.done)
		if err := view.Run(ctx); err != nil {
			m.logger.Error("Render loop stopped", zap.String("view_id", id), zap.Error(err))
		}
	}()

	m.observer.ViewOpened(id)
	m.logger.Info("Opened view", zap.String("view_id", id), zap.Int("open_views", len(m.views)))
	return view, nil
}

// Get returns the view with id
func (m *ViewManager) Get(id string) (*GraphView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mv, ok := m.views[id]
	if !ok {
		return nil, ErrViewNotFound
	}
	return mv.view, nil
}

// Close stops a view's render loop and forgets it
func (m *ViewManager) Close(id string) error {
	m.mu.Lock()
	mv, ok := m.views[id]
	if ok {
		delete(m.views, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrViewNotFound
	}

	mv.cancel()
	<-mv.done

	m.observer.ViewClosed(id)
	m.logger.Info("Closed view", zap.String("view_id", id))
	return nil
}

// List returns the ids of the open views in sorted order
func (m *ViewManager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.views))
	for id := range m.views {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of open views
func (m *ViewManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.views)
}

// CloseAll stops every view
func (m *ViewManager) CloseAll() {
	for _, id := range m.List() {
		_ = m.Close(id)
	}
	m.cancel()
}
