//go:build !nogpu

package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the required BytesPerRow alignment for texture to
// buffer copies.
const copyPitchAlignment = 256

// renderTarget owns the offscreen textures frames are drawn into.
type renderTarget struct {
	device hal.Device

	colorTex  hal.Texture
	colorView hal.TextureView
	pickTex   hal.Texture
	pickView  hal.TextureView
	depthTex  hal.Texture
	depthView hal.TextureView

	width, height uint32
}

// ensure (re)creates the textures for the given size. A zero size releases
// them.
func (t *renderTarget) ensure(width, height uint32) error {
	if t.width == width && t.height == height && (t.colorTex != nil || width == 0 || height == 0) {
		return nil
	}
	t.destroy()
	if width == 0 || height == 0 {
		return nil
	}

	size := hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}
	var err error
	t.colorTex, t.colorView, err = t.create("molrep_color", size, colorFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
	if err != nil {
		t.destroy()
		return err
	}
	t.pickTex, t.pickView, err = t.create("molrep_pick", size, colorFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
	if err != nil {
		t.destroy()
		return err
	}
	t.depthTex, t.depthView, err = t.create("molrep_depth", size, depthFormat,
		gputypes.TextureUsageRenderAttachment)
	if err != nil {
		t.destroy()
		return err
	}
	t.width, t.height = width, height
	return nil
}

func (t *renderTarget) create(label string, size hal.Extent3D, format gputypes.TextureFormat, usage gputypes.TextureUsage) (hal.Texture, hal.TextureView, error) {
	tex, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := t.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: label + "_view"})
	if err != nil {
		t.device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create %s texture view: %w", label, err)
	}
	return tex, view, nil
}

func (t *renderTarget) ready() bool { return t.colorTex != nil }

func (t *renderTarget) passDescriptor(label string, view hal.TextureView, clear gputypes.Color) *hal.RenderPassDescriptor {
	return &hal.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clear,
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              t.depthView,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	}
}

// copyToStaging records a copy of tex into a new mappable buffer. The
// caller destroys the returned buffer.
func (t *renderTarget) copyToStaging(encoder hal.CommandEncoder, tex hal.Texture) (hal.Buffer, uint32, error) {
	bytesPerRow := t.width * 4
	aligned := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	staging, err := t.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "molrep_staging",
		Size:  uint64(aligned) * uint64(t.height),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("create staging buffer: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: aligned, RowsPerImage: t.height},
		TextureBase:  hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	return staging, aligned, nil
}

func (t *renderTarget) destroy() {
	for _, v := range []*hal.TextureView{&t.colorView, &t.pickView, &t.depthView} {
		if *v != nil {
			t.device.DestroyTextureView(*v)
			*v = nil
		}
	}
	for _, tex := range []*hal.Texture{&t.colorTex, &t.pickTex, &t.depthTex} {
		if *tex != nil {
			t.device.DestroyTexture(*tex)
			*tex = nil
		}
	}
	t.width, t.height = 0, 0
}

// submit ends encoding, submits and waits for completion.
func submit(device hal.Device, queue hal.Queue, encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer device.DestroyFence(fence)

	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := device.Wait(fence, 1, 5*time.Second)
	if err != nil || !ok {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}
