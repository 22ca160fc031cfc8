// Package molrep turns molecular structures into GPU attribute buffers.
//
// # Overview
//
// A structure exposes filtered views (package structure). A representation
// (package representation) extracts per-entity arrays from a view and hands
// them to buffers (package buffer), each of which renders one primitive
// family either as a tessellated mesh or as a ray-cast impostor. Parameter
// changes flow back through the representation, which patches existing
// buffers in place when only cosmetic channels change and rebuilds them
// otherwise.
//
// # Packages
//
//   - structure: columnar atom storage, views, selections, data extraction
//   - buffer: attribute channels, mesh and impostor strategies, uniforms
//   - representation: parameter protocol and concrete representations
//   - label: label text shaping
//   - picking: picking colors and hit resolution
//   - camera: scene orientation controller
//   - render: render-request scheduling and the draw loop
//   - config: TOML and YAML settings
//   - stage: orchestration of all of the above
//
// # Logging
//
// molrep is silent by default. Call SetLogger to enable structured logging
// for the root package and every sub-package. stage.SetLogger also
// reaches the GPU backend.
package molrep

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"
)
