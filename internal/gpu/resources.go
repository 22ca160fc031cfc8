//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/molrep/buffer"
)

// bufferResources holds the GPU objects of one buffer.Buffer.
type bufferResources struct {
	owner *buffer.Buffer
	label string

	vertex     map[buffer.Channel]hal.Buffer
	index      hal.Buffer
	indexCount uint32
	uniform    hal.Buffer
	bindGroup  hal.BindGroup

	// bytes is the total allocation size.
	bytes uint64
}

// createResources allocates vertex, index and uniform buffers sized for b.
// Nothing is uploaded.
func createResources(device hal.Device, layout hal.BindGroupLayout, b *buffer.Buffer) (*bufferResources, error) {
	res := &bufferResources{
		owner:  b,
		label:  b.Label(),
		vertex: make(map[buffer.Channel]hal.Buffer, len(b.Layout())),
	}
	if res.label == "" {
		res.label = b.Family().String()
	}

	for _, a := range b.Layout() {
		size := uint64(4 * len(b.Vertex(a.Channel)))
		vb, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: res.label + "_" + a.Channel.String(),
			Size:  size,
			Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			res.destroy(device)
			return nil, fmt.Errorf("create %s vertex buffer: %w", a.Channel, err)
		}
		res.vertex[a.Channel] = vb
		res.bytes += size
	}

	indexSize := uint64(4 * len(b.Index()))
	ib, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: res.label + "_index",
		Size:  indexSize,
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		res.destroy(device)
		return nil, fmt.Errorf("create index buffer: %w", err)
	}
	res.index = ib
	res.indexCount = uint32(len(b.Index())) //nolint:gosec // index count fits uint32
	res.bytes += indexSize

	ub, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: res.label + "_uniform",
		Size:  buffer.UniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		res.destroy(device)
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}
	res.uniform = ub
	res.bytes += buffer.UniformSize

	bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  res.label + "_bind",
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: ub.NativeHandle(), Offset: 0, Size: buffer.UniformSize,
			}},
		},
	})
	if err != nil {
		res.destroy(device)
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	res.bindGroup = bg
	return res, nil
}

// upload writes the given channels and returns the number of bytes
// written per channel. staging is reused across calls.
func (r *bufferResources) upload(queue hal.Queue, chs buffer.Channels, staging *[]byte) map[buffer.Channel]int {
	written := make(map[buffer.Channel]int, chs.Len())
	chs.Each(func(ch buffer.Channel) {
		if ch == buffer.ChannelIndex {
			data := appendUint32s((*staging)[:0], r.owner.Index())
			queue.WriteBuffer(r.index, 0, data)
			written[ch] = len(data)
			*staging = data
			return
		}
		vb, ok := r.vertex[ch]
		if !ok {
			return
		}
		data := appendFloat32s((*staging)[:0], r.owner.Vertex(ch))
		queue.WriteBuffer(vb, 0, data)
		written[ch] = len(data)
		*staging = data
	})
	return written
}

// allChannels returns every channel the resources hold, plus the index.
func (r *bufferResources) allChannels() buffer.Channels {
	s := buffer.ChannelSet(buffer.ChannelIndex)
	for ch := range r.vertex {
		s |= buffer.ChannelSet(ch)
	}
	return s
}

func (r *bufferResources) writeUniforms(queue hal.Queue, staging *[]byte) {
	data := r.owner.Uniforms().AppendBytes((*staging)[:0])
	queue.WriteBuffer(r.uniform, 0, data)
	*staging = data
}

// record issues the draw for this buffer. inputs select which vertex
// buffers are bound, in shader location order.
func (r *bufferResources) record(rp hal.RenderPassEncoder, pipeline hal.RenderPipeline, inputs []buffer.VertexAttribute, pick bool) {
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, r.bindGroup, nil)
	for i, in := range inputs {
		ch := in.Channel
		if pick {
			ch = pickSubstitute(ch)
		}
		rp.SetVertexBuffer(uint32(i), r.vertex[ch], 0) //nolint:gosec // input count is small
	}
	rp.SetIndexBuffer(r.index, gputypes.IndexFormatUint32, 0)
	rp.DrawIndexed(r.indexCount, 1, 0, 0, 0)
}

// bindable reports whether every input has a vertex buffer.
func (r *bufferResources) bindable(inputs []buffer.VertexAttribute, pick bool) bool {
	for _, in := range inputs {
		ch := in.Channel
		if pick {
			ch = pickSubstitute(ch)
		}
		if _, ok := r.vertex[ch]; !ok {
			return false
		}
	}
	return true
}

func (r *bufferResources) destroy(device hal.Device) {
	if r.bindGroup != nil {
		device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	if r.uniform != nil {
		device.DestroyBuffer(r.uniform)
		r.uniform = nil
	}
	if r.index != nil {
		device.DestroyBuffer(r.index)
		r.index = nil
	}
	for ch, vb := range r.vertex {
		device.DestroyBuffer(vb)
		delete(r.vertex, ch)
	}
}

func appendFloat32s(dst []byte, src []float32) []byte {
	for _, f := range src {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

func appendUint32s(dst []byte, src []uint32) []byte {
	for _, v := range src {
		dst = binary.LittleEndian.AppendUint32(dst, v)
	}
	return dst
}
