// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render connects representation buffers to a drawing backend.
//
// # Key Principle
//
// Mutations never draw. Every mutator in the pipeline (parameter changes,
// camera moves, visibility toggles) only calls RequestRender on a
// Scheduler. The scheduler coalesces any number of requests into one
// level-triggered dirty flag that a frame loop consumes, possibly from
// another goroutine.
//
// # Core Types
//
//   - Scheduler: the dirty flag, implements Requester
//   - Backend: uploads buffer channels and issues draws (internal/gpu
//     provides the wgpu implementation, StatsBackend a recording one)
//   - Loop: consumes the flag, refreshes per-draw uniforms and hands the
//     visible buffers to the backend
//
// # Usage
//
//	sched := render.NewScheduler()
//	cam := camera.NewController(camera.WithRequester(sched))
//	loop := render.NewLoop(sched, backend, cam, stage.Buffers)
//
//	// On every display refresh:
//	drew, err := loop.Frame()
//
// # Thread Safety
//
// Scheduler is safe for concurrent use. Loop and backends are not; they
// must be driven from the goroutine that owns the buffers.
//
// GPU device access follows the host-provided device pattern: the
// application passes a DeviceHandle and the backend never creates its own
// device.
package render
