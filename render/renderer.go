// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/molrep"
	"github.com/gogpu/molrep/buffer"
)

// ErrClosed is returned when drawing with a closed backend.
var ErrClosed = errors.New("render: backend closed")

// Frame is one draw submission.
type Frame struct {
	Matrices buffer.Matrices
	// Buffers are the visible buffers in draw order. Their uniforms have
	// been refreshed for Matrices.
	Buffers []*buffer.Buffer
}

// Backend executes frames.
//
// Thread Safety: Backends are NOT thread-safe. A backend must be used from
// the goroutine that owns the buffers it draws.
type Backend interface {
	// Draw uploads the dirty channels of every buffer in the frame and
	// draws them.
	Draw(f Frame) error

	// Release frees resources held for a buffer. It is called for buffers
	// that were disposed or dropped from the scene.
	Release(b *buffer.Buffer)

	// Close releases all resources.
	Close() error
}

// MatrixSource provides the draw matrices. camera.Controller implements it.
type MatrixSource interface {
	Matrices() buffer.Matrices
}

// Loop drives frames from a scheduler.
type Loop struct {
	sched   *Scheduler
	backend Backend
	camera  MatrixSource
	buffers func() []*buffer.Buffer

	drawn map[*buffer.Buffer]struct{}
}

// NewLoop creates a frame loop. buffers is called once per frame and
// returns every live buffer of the scene.
func NewLoop(sched *Scheduler, backend Backend, camera MatrixSource, buffers func() []*buffer.Buffer) *Loop {
	return &Loop{
		sched:   sched,
		backend: backend,
		camera:  camera,
		buffers: buffers,
		drawn:   make(map[*buffer.Buffer]struct{}),
	}
}

// Frame draws one frame if a render was requested and reports whether it
// drew. Buffers that disappeared since the previous frame are released.
func (l *Loop) Frame() (bool, error) {
	if !l.sched.Consume() {
		return false, nil
	}
	return true, l.draw()
}

// Redraw draws one frame unconditionally.
func (l *Loop) Redraw() error {
	l.sched.Consume()
	return l.draw()
}

func (l *Loop) draw() error {
	m := l.camera.Matrices()
	all := l.buffers()
	live := make(map[*buffer.Buffer]struct{}, len(all))
	f := Frame{Matrices: m}
	for _, b := range all {
		if b.Disposed() {
			continue
		}
		live[b] = struct{}{}
		if !b.Visible() {
			continue
		}
		b.PrepareDraw(m)
		f.Buffers = append(f.Buffers, b)
	}
	for b := range l.drawn {
		if _, ok := live[b]; !ok {
			l.backend.Release(b)
		}
	}
	l.drawn = live

	if err := l.backend.Draw(f); err != nil {
		return fmt.Errorf("render: draw: %w", err)
	}
	molrep.Logger().Debug("render: frame", "buffers", len(f.Buffers))
	return nil
}

// Run draws requested frames at the given interval until ctx is done.
// Draw errors are logged and do not stop the loop.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if _, err := l.Frame(); err != nil {
				molrep.Logger().Warn("render: frame failed", "err", err)
			}
		}
	}
}

// Close releases every buffer drawn so far and closes the backend.
func (l *Loop) Close() error {
	for b := range l.drawn {
		l.backend.Release(b)
	}
	l.drawn = nil
	return l.backend.Close()
}
