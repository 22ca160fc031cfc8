//go:build !nogpu

package stage

import (
	"log/slog"

	"github.com/gogpu/molrep/internal/gpu"
	"github.com/gogpu/molrep/render"
)

func propagateLogger(l *slog.Logger) { gpu.SetLogger(l) }

// NewGPUBackend creates a backend drawing to an offscreen target of the
// given size on the device of a host application. The backend also
// implements Picker.
func NewGPUBackend(p render.DeviceHandle, width, height uint32) (render.Backend, error) {
	b, err := gpu.NewBackendFromProvider(p, gpu.WithSize(width, height))
	if err != nil {
		return nil, err
	}
	return b, nil
}
