//go:build !nogpu

package main

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/molrep/render"
	"github.com/gogpu/molrep/stage"
)

// noopHost exposes a noop HAL device the way a host window exposes a
// real one.
type noopHost struct {
	device hal.Device
	queue  hal.Queue
}

func (h *noopHost) Device() gpucontext.Device             { return nil }
func (h *noopHost) Queue() gpucontext.Queue               { return nil }
func (h *noopHost) Adapter() gpucontext.Adapter           { return nil }
func (h *noopHost) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (h *noopHost) HalDevice() any                        { return h.device }
func (h *noopHost) HalQueue() any                         { return h.queue }

func newBackend(name string) (render.Backend, error) {
	switch name {
	case "stats":
		return render.NewStatsBackend(), nil
	case "noop":
		api := noop.API{}
		instance, err := api.CreateInstance(nil)
		if err != nil {
			return nil, err
		}
		adapters := instance.EnumerateAdapters(nil)
		if len(adapters) == 0 {
			return nil, fmt.Errorf("no noop adapter")
		}
		dev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
		if err != nil {
			return nil, err
		}
		return stage.NewGPUBackend(&noopHost{device: dev.Device, queue: dev.Queue}, 640, 480)
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}
