package service

import (
	"time"

	"crypto-bubble-map-explorer/internal/domain/entity"
)

// NodeEventListener receives node interaction and mutation notifications
type NodeEventListener func(entity.NodeEvent)

// ViewObserver receives engine activity for instrumentation
type ViewObserver interface {
	ViewOpened(viewID string)
	ViewClosed(viewID string)
	FrameRendered(viewID string)
	NodeAdded(viewID string, created bool)
	NodeRemoved(viewID string)
	NodeCount(viewID string, n int)
	AddDropped(viewID string)
	ResolveFailed(viewID string)
	ResolveDuration(d time.Duration)
}

// NopObserver ignores everything
type NopObserver struct{}

// ViewOpened does nothing
func (NopObserver) ViewOpened(string) {}

// ViewClosed does nothing
func (NopObserver) ViewClosed(string) {}

// FrameRendered does nothing
func (NopObserver) FrameRendered(string) {}

// NodeAdded does nothing
func (NopObserver) NodeAdded(string, bool) {}

// NodeRemoved does nothing
func (NopObserver) NodeRemoved(string) {}

// NodeCount does nothing
func (NopObserver) NodeCount(string, int) {}

// AddDropped does nothing
func (NopObserver) AddDropped(string) {}

// ResolveFailed does nothing
func (NopObserver) ResolveFailed(string) {}

// ResolveDuration does nothing
func (NopObserver) ResolveDuration(time.Duration) {}
