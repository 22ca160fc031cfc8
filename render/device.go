// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "github.com/gogpu/gpucontext"

// DeviceHandle provides GPU device access from the host application.
//
// The host application (e.g. a gogpu.App window) owns the device and
// passes it to the GPU backend, which never creates one itself:
//
//	backend, err := gpu.NewBackendFromProvider(app.DeviceHandle())
//
// DeviceHandle is an alias for gpucontext.DeviceProvider.
type DeviceHandle = gpucontext.DeviceProvider
