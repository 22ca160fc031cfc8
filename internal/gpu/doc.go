//go:build !nogpu

// Package gpu implements render.Backend on a wgpu/hal device.
//
// The host application owns the device. The backend only allocates what it
// draws with:
//
//   - one vertex buffer per buffer channel, written when the channel is dirty
//   - one index buffer and one uniform block per buffer
//   - one render pipeline per primitive family and strategy, built from
//     the WGSL sources under shaders/
//   - an offscreen color, depth and picking target sized by SetSize
//
// Every buffer is uploaded in full the first time it is drawn. After that
// only the channels reported by buffer.Buffer.TakeDirty are written, so a
// color change never touches positions or indices.
//
// GPU memory is tracked by MemoryManager. When the budget is exceeded the
// least recently drawn buffers are evicted and uploaded again on their next
// draw.
//
// # Picking
//
// Pick renders pickable buffers with their picking colors substituted for
// the color channels and reads back one pixel. The returned RGB triple is
// resolved by picking.Pool.Resolve.
package gpu
