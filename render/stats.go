// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/molrep/buffer"
)

// BufferStats records what a backend did with one buffer.
type BufferStats struct {
	// Writes counts uploads per vertex channel, including the index.
	Writes map[buffer.Channel]int
	// Bytes is the total number of bytes uploaded.
	Bytes int
	// Draws counts the frames the buffer was drawn in.
	Draws int
}

// String returns a one-line summary.
func (s BufferStats) String() string {
	return fmt.Sprintf("%d draws, %d bytes, %d channel writes", s.Draws, s.Bytes, len(s.Writes))
}

// StatsBackend is a Backend that draws nothing and records uploads. It
// consumes dirty channels exactly like a GPU backend, which makes it
// suitable for tests and headless runs.
type StatsBackend struct {
	Frames   int
	Released int

	stats  map[*buffer.Buffer]*BufferStats
	closed bool
}

// NewStatsBackend creates a recording backend.
func NewStatsBackend() *StatsBackend {
	return &StatsBackend{stats: make(map[*buffer.Buffer]*BufferStats)}
}

// Draw implements Backend.
func (s *StatsBackend) Draw(f Frame) error {
	if s.closed {
		return ErrClosed
	}
	s.Frames++
	for _, b := range f.Buffers {
		st, ok := s.stats[b]
		if !ok {
			st = &BufferStats{Writes: make(map[buffer.Channel]int)}
			s.stats[b] = st
		}
		b.TakeDirty().Each(func(ch buffer.Channel) {
			st.Writes[ch]++
			if ch == buffer.ChannelIndex {
				st.Bytes += 4 * len(b.Index())
			} else {
				st.Bytes += 4 * len(b.Vertex(ch))
			}
		})
		st.Draws++
	}
	return nil
}

// Release implements Backend.
func (s *StatsBackend) Release(b *buffer.Buffer) {
	if _, ok := s.stats[b]; ok {
		delete(s.stats, b)
		s.Released++
	}
}

// Close implements Backend.
func (s *StatsBackend) Close() error {
	s.closed = true
	return nil
}

// Stats returns the record for a buffer, or nil if it was never drawn.
func (s *StatsBackend) Stats(b *buffer.Buffer) *BufferStats { return s.stats[b] }
