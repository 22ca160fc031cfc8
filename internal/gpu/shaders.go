//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/molrep/buffer"
)

// Embedded WGSL shader sources. Every program is prefixed with the shared
// uniform block declaration.

//go:embed shaders/uniforms.wgsl
var uniformsShaderSource string

//go:embed shaders/sphere_impostor.wgsl
var sphereImpostorShaderSource string

//go:embed shaders/cylinder_impostor.wgsl
var cylinderImpostorShaderSource string

//go:embed shaders/mesh.wgsl
var meshShaderSource string

//go:embed shaders/text.wgsl
var textShaderSource string

// ErrNoProgram is returned for a family and strategy pair without a shader.
var ErrNoProgram = errors.New("gpu: no shader program")

// program describes one shader and the buffer channels it reads, in
// shader location order.
type program struct {
	label  string
	source string
	inputs []buffer.VertexAttribute
	// pickable programs have an fs_pick entry point.
	pickable bool
}

type programKey struct {
	family   buffer.Family
	strategy buffer.Strategy
}

var meshInputs = []buffer.VertexAttribute{
	{Channel: buffer.ChannelPosition, Stride: 3},
	{Channel: buffer.ChannelNormal, Stride: 3},
	{Channel: buffer.ChannelColor, Stride: 3},
}

var programs = map[programKey]program{
	{buffer.FamilySphere, buffer.StrategyImpostor}: {
		label:  "sphere_impostor",
		source: sphereImpostorShaderSource,
		inputs: []buffer.VertexAttribute{
			{Channel: buffer.ChannelMapping, Stride: 2},
			{Channel: buffer.ChannelPosition, Stride: 3},
			{Channel: buffer.ChannelColor, Stride: 3},
			{Channel: buffer.ChannelRadius, Stride: 1},
		},
		pickable: true,
	},
	{buffer.FamilyCylinder, buffer.StrategyImpostor}: {
		label:  "cylinder_impostor",
		source: cylinderImpostorShaderSource,
		inputs: []buffer.VertexAttribute{
			{Channel: buffer.ChannelMapping, Stride: 3},
			{Channel: buffer.ChannelPosition1, Stride: 3},
			{Channel: buffer.ChannelPosition2, Stride: 3},
			{Channel: buffer.ChannelColor, Stride: 3},
			{Channel: buffer.ChannelColor2, Stride: 3},
			{Channel: buffer.ChannelRadius, Stride: 1},
		},
		pickable: true,
	},
	{buffer.FamilySphere, buffer.StrategyMesh}: {
		label:    "sphere_mesh",
		source:   meshShaderSource,
		inputs:   meshInputs,
		pickable: true,
	},
	{buffer.FamilyCylinder, buffer.StrategyMesh}: {
		label:    "cylinder_mesh",
		source:   meshShaderSource,
		inputs:   meshInputs,
		pickable: true,
	},
	{buffer.FamilyText, buffer.StrategyImpostor}: {
		label:  "text",
		source: textShaderSource,
		inputs: []buffer.VertexAttribute{
			{Channel: buffer.ChannelPosition, Stride: 3},
			{Channel: buffer.ChannelOffset, Stride: 2},
			{Channel: buffer.ChannelColor, Stride: 3},
			{Channel: buffer.ChannelSize, Stride: 1},
		},
	},
}

func programFor(f buffer.Family, s buffer.Strategy) (program, error) {
	p, ok := programs[programKey{f, s}]
	if !ok {
		return program{}, fmt.Errorf("%w: %s %s", ErrNoProgram, f, s)
	}
	return p, nil
}

// pickSubstitute maps a color input to the channel bound in its place
// during the picking pass.
func pickSubstitute(ch buffer.Channel) buffer.Channel {
	switch ch {
	case buffer.ChannelColor:
		return buffer.ChannelPickingColor
	case buffer.ChannelColor2:
		return buffer.ChannelPickingColor2
	default:
		return ch
	}
}

// fullSource returns the program source with the uniform block prepended.
func (p program) fullSource() string {
	return uniformsShaderSource + "\n" + p.source
}

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
