//go:build !nogpu

package stage

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// halProvider exposes a noop HAL device the way a host window does.
type halProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p *halProvider) Device() gpucontext.Device             { return nil }
func (p *halProvider) Queue() gpucontext.Queue               { return nil }
func (p *halProvider) Adapter() gpucontext.Adapter           { return nil }
func (p *halProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (p *halProvider) HalDevice() any                        { return p.device }
func (p *halProvider) HalQueue() any                         { return p.queue }

func noopProvider(t *testing.T) *halProvider {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	require.NoError(t, err)
	adapters := instance.EnumerateAdapters(nil)
	require.NotEmpty(t, adapters)
	dev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		dev.Device.Destroy()
		instance.Destroy()
	})
	return &halProvider{device: dev.Device, queue: dev.Queue}
}

func TestGPUBackend(t *testing.T) {
	backend, err := NewGPUBackend(noopProvider(t), 32, 32)
	require.NoError(t, err)
	s, err := New(WithBackend(backend), WithLayouter(fixedLayouter{}))
	require.NoError(t, err)
	defer s.Close()

	c := s.AddComponent(helix(t, 1, 3))
	for _, name := range []string{"ball+stick", "label", "rocket"} {
		_, err := c.AddRepresentation(name, "", nil)
		require.NoError(t, err, name)
	}
	drew, err := s.Frame()
	require.NoError(t, err)
	assert.True(t, drew)

	_, _, err = s.Pick(16, 16)
	require.NoError(t, err)

	_, ok, err := s.Pick(100, 100)
	require.NoError(t, err)
	assert.False(t, ok, "outside the target")
}

func TestGPUBackendNoDevice(t *testing.T) {
	_, err := NewGPUBackend(nil, 1, 1)
	assert.Error(t, err)
}
