// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "sync/atomic"

// Requester receives render requests.
type Requester interface {
	RequestRender()
}

// Scheduler coalesces render requests into a single dirty flag.
//
// Thread Safety: all methods are safe for concurrent use.
type Scheduler struct {
	dirty    atomic.Bool
	requests atomic.Uint64
	frames   atomic.Uint64
}

// NewScheduler creates a scheduler with a pending first frame.
func NewScheduler() *Scheduler {
	s := &Scheduler{}
	s.dirty.Store(true)
	return s
}

// RequestRender marks the scene dirty. It never blocks.
func (s *Scheduler) RequestRender() {
	s.requests.Add(1)
	s.dirty.Store(true)
}

// Pending reports whether a frame is requested.
func (s *Scheduler) Pending() bool { return s.dirty.Load() }

// Consume clears the flag and reports whether it was set.
func (s *Scheduler) Consume() bool {
	if s.dirty.CompareAndSwap(true, false) {
		s.frames.Add(1)
		return true
	}
	return false
}

// Stats returns the number of requests received and frames consumed.
func (s *Scheduler) Stats() (requests, frames uint64) {
	return s.requests.Load(), s.frames.Load()
}
