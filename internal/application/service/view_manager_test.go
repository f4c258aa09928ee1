package service

import (
	"context"
	"testing"
	"time"

	"crypto-bubble-map-explorer/internal/domain/entity"
	"crypto-bubble-map-explorer/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(maxViews int) *ViewManager {
	return NewViewManager(testViewConfig(), newFakeResolver(), nil, maxViews, logger.NewNopLogger())
}

func TestViewManager_CreateGetClose(t *testing.T) {
	m := newTestManager(0)
	defer m.CloseAll()

	view, err := m.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, view.ID())

	got, err := m.Get(view.ID())
	require.NoError(t, err)
	assert.Same(t, view, got)

	require.NoError(t, m.Close(view.ID()))
	_, err = m.Get(view.ID())
	assert.ErrorIs(t, err, ErrViewNotFound)
	assert.ErrorIs(t, m.Close(view.ID()), ErrViewNotFound)
}

func TestViewManager_ViewsAreIndependent(t *testing.T) {
	m := newTestManager(0)
	defer m.CloseAll()

	a, err := m.Create()
	require.NoError(t, err)
	b, err := m.Create()
	require.NoError(t, err)

	release := a.resolver.(*fakeResolver).block("X")
	done := make(chan error, 1)
	go func() {
		_, err := a.AddWallet(context.Background(), "X", nil)
		done <- err
	}()
	require.Eventually(t, func() bool { return a.InFlight("X") }, time.Second, time.Millisecond)

	assert.False(t, b.InFlight("X"))
	release()
	require.NoError(t, <-done)

	assert.Equal(t, 1, a.Snapshot().Len())
	assert.Equal(t, 0, b.Snapshot().Len())
}

func TestViewManager_GetOrCreate(t *testing.T) {
	m := newTestManager(0)
	defer m.CloseAll()

	first, err := m.GetOrCreate("search-view")
	require.NoError(t, err)
	second, err := m.GetOrCreate("search-view")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, []string{"search-view"}, m.List())
}

func TestViewManager_MaxViews(t *testing.T) {
	m := newTestManager(2)
	defer m.CloseAll()

	_, err := m.GetOrCreate("b")
	require.NoError(t, err)
	_, err = m.GetOrCreate("a")
	require.NoError(t, err)

	_, err = m.Create()
	assert.ErrorIs(t, err, ErrTooManyViews)
	assert.Equal(t, []string{"a", "b"}, m.List())

	require.NoError(t, m.Close("a"))
	_, err = m.Create()
	assert.NoError(t, err)
}

func TestViewManager_ListenersReachEveryView(t *testing.T) {
	m := newTestManager(0)
	defer m.CloseAll()

	early, err := m.Create()
	require.NoError(t, err)

	log := &eventLog{}
	m.AddListener(log.listen)

	late, err := m.Create()
	require.NoError(t, err)

	for _, view := range []*GraphView{early, late} {
		node, err := view.AddWallet(context.Background(), "A", nil)
		require.NoError(t, err)
		require.NoError(t, view.Click(node.ID))
	}

	assert.Equal(t, []entity.NodeEventKind{entity.NodeEventClick, entity.NodeEventClick}, log.kinds())
}

func TestViewManager_CloseAll(t *testing.T) {
	m := newTestManager(0)

	for i := 0; i < 3; i++ {
		_, err := m.Create()
		require.NoError(t, err)
	}
	require.Equal(t, 3, m.Len())

	m.CloseAll()
	assert.Zero(t, m.Len())
}
