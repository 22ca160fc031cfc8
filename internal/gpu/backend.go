//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/molrep"
	"github.com/gogpu/molrep/buffer"
	"github.com/gogpu/molrep/render"
)

// Backend errors.
var (
	// ErrNoDevice is returned when the device provider does not expose a
	// wgpu/hal device and queue.
	ErrNoDevice = errors.New("gpu: provider has no hal device")

	// ErrNoTarget is returned by Pick before SetSize.
	ErrNoTarget = errors.New("gpu: no render target")
)

// BackendOption configures a Backend.
type BackendOption func(*backendOptions)

type backendOptions struct {
	memory MemoryManagerConfig
	spirv  bool
	width  uint32
	height uint32
	clear  gputypes.Color
}

// WithMemoryBudget sets the GPU buffer budget in megabytes.
func WithMemoryBudget(mb int) BackendOption {
	return func(o *backendOptions) { o.memory.MaxMemoryMB = mb }
}

// WithSPIRV compiles shaders to SPIR-V with naga instead of handing WGSL
// to the device.
func WithSPIRV() BackendOption {
	return func(o *backendOptions) { o.spirv = true }
}

// WithSize sets the initial render target size.
func WithSize(width, height uint32) BackendOption {
	return func(o *backendOptions) { o.width, o.height = width, height }
}

// WithClearColor sets the background color.
func WithClearColor(c molrep.Color) BackendOption {
	return func(o *backendOptions) {
		o.clear = gputypes.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: 1}
	}
}

// Backend draws buffers on a hal device into an offscreen target.
//
// Thread Safety: Backend is NOT thread-safe, like render.Backend.
type Backend struct {
	device hal.Device
	queue  hal.Queue

	pipelines *pipelineCache
	target    renderTarget
	memory    *MemoryManager

	resources map[*buffer.Buffer]*bufferResources
	stats     map[*buffer.Buffer]*render.BufferStats
	staging   []byte

	clear  gputypes.Color
	frames uint64
	closed bool
}

var _ render.Backend = (*Backend)(nil)

// NewBackend creates a backend on a device and queue owned by the caller.
func NewBackend(device hal.Device, queue hal.Queue, opts ...BackendOption) (*Backend, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	o := backendOptions{clear: gputypes.Color{A: 1}}
	for _, opt := range opts {
		opt(&o)
	}
	b := &Backend{
		device:    device,
		queue:     queue,
		pipelines: newPipelineCache(device, o.spirv),
		target:    renderTarget{device: device},
		resources: make(map[*buffer.Buffer]*bufferResources),
		stats:     make(map[*buffer.Buffer]*render.BufferStats),
		clear:     o.clear,
	}
	b.memory = newMemoryManager(o.memory, b.evicted)
	if err := b.target.ensure(o.width, o.height); err != nil {
		return nil, err
	}
	slogger().Info("gpu: backend created", "width", o.width, "height", o.height, "spirv", o.spirv)
	return b, nil
}

// NewBackendFromProvider creates a backend on the device of a host
// application. The provider must expose HalDevice and HalQueue.
func NewBackendFromProvider(p render.DeviceHandle, opts ...BackendOption) (*Backend, error) {
	hp, ok := p.(interface {
		HalDevice() any
		HalQueue() any
	})
	if !ok {
		return nil, ErrNoDevice
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, ErrNoDevice
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, ErrNoDevice
	}
	return NewBackend(device, queue, opts...)
}

// SetSize resizes the render target. A zero size disables drawing; buffers
// are still uploaded.
func (b *Backend) SetSize(width, height uint32) error {
	if b.closed {
		return render.ErrClosed
	}
	return b.target.ensure(width, height)
}

// Size returns the render target size.
func (b *Backend) Size() (width, height uint32) { return b.target.width, b.target.height }

// Draw implements render.Backend.
func (b *Backend) Draw(f render.Frame) error {
	if b.closed {
		return render.ErrClosed
	}
	b.frames++
	b.memory.beginFrame()

	drawn := make([]*bufferResources, 0, len(f.Buffers))
	for _, buf := range f.Buffers {
		res, err := b.prepare(buf)
		if err != nil {
			return err
		}
		if res == nil {
			continue
		}
		res.writeUniforms(b.queue, &b.staging)
		b.stats[buf].Draws++
		drawn = append(drawn, res)
	}

	if !b.target.ready() {
		return nil
	}
	return b.encode(drawn)
}

// prepare makes sure buf has GPU resources and uploads what changed. It
// returns nil resources for empty buffers.
func (b *Backend) prepare(buf *buffer.Buffer) (*bufferResources, error) {
	st, ok := b.stats[buf]
	if !ok {
		st = &render.BufferStats{Writes: make(map[buffer.Channel]int)}
		b.stats[buf] = st
	}
	if buf.VertexCount() == 0 || len(buf.Index()) == 0 {
		buf.TakeDirty()
		return nil, nil //nolint:nilnil // empty buffers draw nothing
	}

	res, ok := b.resources[buf]
	dirty := buf.TakeDirty()
	if !ok {
		var err error
		res, err = createResources(b.device, b.uniformLayout(), buf)
		if err != nil {
			return nil, fmt.Errorf("gpu: %s: %w", buf.Label(), err)
		}
		if err := b.memory.register(res, res.bytes); err != nil {
			res.destroy(b.device)
			return nil, fmt.Errorf("gpu: %s: %w", buf.Label(), err)
		}
		b.resources[buf] = res
		// New or evicted resources are uploaded in full.
		dirty = res.allChannels()
		slogger().Debug("gpu: buffer allocated", "label", res.label, "bytes", res.bytes)
	}
	b.memory.touch(res)

	for ch, n := range res.upload(b.queue, dirty, &b.staging) {
		st.Writes[ch]++
		st.Bytes += n
	}
	return res, nil
}

func (b *Backend) uniformLayout() hal.BindGroupLayout {
	if err := b.pipelines.ensureLayouts(); err != nil {
		slogger().Warn("gpu: layouts unavailable", "err", err)
	}
	return b.pipelines.uniformLayout
}

func (b *Backend) encode(drawn []*bufferResources) error {
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "molrep_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("molrep_frame"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(b.target.passDescriptor("molrep_pass", b.target.colorView, b.clear))
	for _, res := range drawn {
		pipeline, p, err := b.pipelines.get(res.owner.Family(), res.owner.Strategy(), false)
		if err != nil {
			rp.End()
			encoder.DiscardEncoding()
			return fmt.Errorf("gpu: %w", err)
		}
		if !res.bindable(p.inputs, false) {
			slogger().Warn("gpu: buffer missing shader inputs", "label", res.label)
			continue
		}
		res.record(rp, pipeline, p.inputs, false)
	}
	rp.End()

	if err := submit(b.device, b.queue, encoder); err != nil {
		return fmt.Errorf("gpu: %w", err)
	}
	return nil
}

// Pick draws the pickable buffers of f with their picking colors and
// returns the color at pixel (x, y). A pixel with no geometry reads as
// (0, 0, 0), which resolves to no hit.
func (b *Backend) Pick(f render.Frame, x, y uint32) (r, g, bl uint8, err error) {
	if b.closed {
		return 0, 0, 0, render.ErrClosed
	}
	if !b.target.ready() {
		return 0, 0, 0, ErrNoTarget
	}
	if x >= b.target.width || y >= b.target.height {
		return 0, 0, 0, nil
	}

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "molrep_pick_encoder"})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("molrep_pick"); err != nil {
		return 0, 0, 0, fmt.Errorf("gpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(b.target.passDescriptor("molrep_pick_pass", b.target.pickView, gputypes.Color{}))
	for _, buf := range f.Buffers {
		if !buf.Pickable() {
			continue
		}
		res, err := b.prepare(buf)
		if err != nil || res == nil {
			if err != nil {
				slogger().Warn("gpu: pick upload failed", "err", err)
			}
			continue
		}
		res.writeUniforms(b.queue, &b.staging)
		pipeline, p, err := b.pipelines.get(buf.Family(), buf.Strategy(), true)
		if err != nil || !res.bindable(p.inputs, true) {
			continue
		}
		res.record(rp, pipeline, p.inputs, true)
	}
	rp.End()

	staging, pitch, err := b.target.copyToStaging(encoder, b.target.pickTex)
	if err != nil {
		encoder.DiscardEncoding()
		return 0, 0, 0, fmt.Errorf("gpu: %w", err)
	}
	defer b.device.DestroyBuffer(staging)

	if err := submit(b.device, b.queue, encoder); err != nil {
		return 0, 0, 0, fmt.Errorf("gpu: %w", err)
	}

	// Only the row holding the pixel is read.
	row := make([]byte, pitch)
	if err := b.queue.ReadBuffer(staging, uint64(y)*uint64(pitch), row); err != nil {
		return 0, 0, 0, fmt.Errorf("gpu: readback: %w", err)
	}
	px := row[4*x : 4*x+4]
	// BGRA
	return px[2], px[1], px[0], nil
}

// Release implements render.Backend.
func (b *Backend) Release(buf *buffer.Buffer) {
	delete(b.stats, buf)
	res, ok := b.resources[buf]
	if !ok {
		return
	}
	b.memory.unregister(res)
	res.destroy(b.device)
	delete(b.resources, buf)
}

// evicted is called by the memory manager for resources it dropped.
func (b *Backend) evicted(res *bufferResources) {
	res.destroy(b.device)
	delete(b.resources, res.owner)
}

// Stats returns the upload record of a buffer, or nil.
func (b *Backend) Stats(buf *buffer.Buffer) *render.BufferStats { return b.stats[buf] }

// Memory returns GPU buffer memory statistics.
func (b *Backend) Memory() MemoryStats { return b.memory.Stats() }

// Frames returns the number of frames drawn.
func (b *Backend) Frames() uint64 { return b.frames }

// Close implements render.Backend. The device is not destroyed.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	for buf, res := range b.resources {
		res.destroy(b.device)
		delete(b.resources, buf)
	}
	b.memory.close()
	b.target.destroy()
	b.pipelines.destroy()
	b.closed = true
	slogger().Info("gpu: backend closed", "frames", b.frames)
	return nil
}
