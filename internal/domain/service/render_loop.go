package service

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RenderLoopConfig controls frame scheduling
type RenderLoopConfig struct {
	// MaxFPS caps the frame rate; 0 disables the cap
	MaxFPS float64
	// PulseInterval is how often idle animation requests a frame; 0 disables it
	PulseInterval time.Duration
}

// DefaultRenderLoopConfig returns a 60 fps cap with a 30 Hz pulse
func DefaultRenderLoopConfig() RenderLoopConfig {
	return RenderLoopConfig{
		MaxFPS:        60,
		PulseInterval: time.Second / 30,
	}
}

// RenderFunc draws one frame
type RenderFunc func(ctx context.Context)

// RenderLoop schedules frames on demand. Invalidate requests a frame; any
// number of requests made before the frame is drawn produce a single frame.
type RenderLoop struct {
	cfg       RenderLoopConfig
	render    RenderFunc
	animating func() bool
	requests  chan struct{}
	limiter   *rate.Limiter
	frames    atomic.Uint64
	running   atomic.Bool
}

// NewRenderLoop creates a loop around render. animating reports whether any
// idle animation is active; it may be nil.
func NewRenderLoop(cfg RenderLoopConfig, render RenderFunc, animating func() bool) *RenderLoop {
	l := &RenderLoop{
		cfg:       cfg,
		render:    render,
		animating: animating,
		requests:  make(chan struct{}, 1),
	}
	if cfg.MaxFPS > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(cfg.MaxFPS), 1)
	}
	return l
}

// Invalidate requests a frame without blocking
func (l *RenderLoop) Invalidate() {
	select {
	case l.requests <- struct{}{}:
	default:
	}
}

// Frames returns the number of frames drawn so far
func (l *RenderLoop) Frames() uint64 {
	return l.frames.Load()
}

// Running reports whether Run is active
func (l *RenderLoop) Running() bool {
	return l.running.Load()
}

// Run draws requested frames until ctx is done
func (l *RenderLoop) Run(ctx context.Context) error {
	l.running.Store(true)
	defer l.running.Store(false)

	var pulse <-chan time.Time
	if l.cfg.PulseInterval > 0 && l.animating != nil {
		ticker := time.NewTicker(l.cfg.PulseInterval)
		defer ticker.Stop()
		pulse = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pulse:
			if l.animating() {
				l.Invalidate()
			}
		case <-l.requests:
			if l.limiter != nil {
				if err := l.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			l.render(ctx)
			l.frames.Add(1)
		}
	}
}
