//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/molrep/buffer"
)

const (
	colorFormat = gputypes.TextureFormatBGRA8Unorm
	depthFormat = gputypes.TextureFormatDepth24PlusStencil8
)

type pipelineKey struct {
	programKey
	pick bool
}

// pipelineCache creates render pipelines on first use. All pipelines share
// one bind group layout: a single uniform block at binding 0.
type pipelineCache struct {
	device hal.Device
	spirv  bool

	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout

	shaders   map[string]hal.ShaderModule
	pipelines map[pipelineKey]hal.RenderPipeline
}

func newPipelineCache(device hal.Device, spirv bool) *pipelineCache {
	return &pipelineCache{
		device:    device,
		spirv:     spirv,
		shaders:   make(map[string]hal.ShaderModule),
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
	}
}

func (c *pipelineCache) ensureLayouts() error {
	if c.pipeLayout != nil {
		return nil
	}
	uniformLayout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "molrep_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create uniform layout: %w", err)
	}
	c.uniformLayout = uniformLayout

	pipeLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "molrep_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{c.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	c.pipeLayout = pipeLayout
	return nil
}

func (c *pipelineCache) shader(p program) (hal.ShaderModule, error) {
	if m, ok := c.shaders[p.label]; ok {
		return m, nil
	}
	desc := &hal.ShaderModuleDescriptor{Label: p.label + "_shader"}
	if c.spirv {
		words, err := compileSPIRV(p.fullSource())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.label, err)
		}
		desc.Source = hal.ShaderSource{SPIRV: words}
	} else {
		desc.Source = hal.ShaderSource{WGSL: p.fullSource()}
	}
	m, err := c.device.CreateShaderModule(desc)
	if err != nil {
		return nil, fmt.Errorf("create %s shader: %w", p.label, err)
	}
	c.shaders[p.label] = m
	return m, nil
}

// get returns the pipeline for a buffer family and strategy. Pick
// pipelines write unlit colors without blending.
func (c *pipelineCache) get(f buffer.Family, s buffer.Strategy, pick bool) (hal.RenderPipeline, program, error) {
	key := pipelineKey{programKey{f, s}, pick}
	p, err := programFor(f, s)
	if err != nil {
		return nil, p, err
	}
	if pl, ok := c.pipelines[key]; ok {
		return pl, p, nil
	}
	if pick && !p.pickable {
		return nil, p, fmt.Errorf("%w: %s has no picking pass", ErrNoProgram, p.label)
	}
	if err := c.ensureLayouts(); err != nil {
		return nil, p, err
	}
	module, err := c.shader(p)
	if err != nil {
		return nil, p, err
	}

	target := gputypes.ColorTargetState{Format: colorFormat, WriteMask: gputypes.ColorWriteMaskAll}
	entry := "fs_main"
	label := p.label + "_pipeline"
	if pick {
		entry = "fs_pick"
		label = p.label + "_pick_pipeline"
	} else {
		blend := gputypes.BlendStatePremultiplied()
		target.Blend = &blend
	}

	pipeline, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: c.pipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    vertexLayouts(p.inputs),
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: entry,
			Targets:    []gputypes.ColorTargetState{target},
		},
		DepthStencil: &hal.DepthStencilState{
			Format: depthFormat,
			// Labels are drawn over geometry without occluding each other.
			DepthWriteEnabled: f != buffer.FamilyText,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, p, fmt.Errorf("create %s: %w", label, err)
	}
	c.pipelines[key] = pipeline
	slogger().Debug("gpu: pipeline created", "label", label)
	return pipeline, p, nil
}

// vertexLayouts returns one vertex buffer layout per input. Each buffer
// holds a single tightly packed attribute at the input's location.
func vertexLayouts(inputs []buffer.VertexAttribute) []gputypes.VertexBufferLayout {
	layouts := make([]gputypes.VertexBufferLayout, len(inputs))
	for i, in := range inputs {
		layouts[i] = gputypes.VertexBufferLayout{
			ArrayStride: uint64(4 * in.Stride), //nolint:gosec // strides are 1..4
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: vertexFormat(in.Stride), Offset: 0, ShaderLocation: uint32(i)}, //nolint:gosec // input count is small
			},
		}
	}
	return layouts
}

func vertexFormat(stride int) gputypes.VertexFormat {
	switch stride {
	case 1:
		return gputypes.VertexFormatFloat32
	case 2:
		return gputypes.VertexFormatFloat32x2
	case 3:
		return gputypes.VertexFormatFloat32x3
	default:
		return gputypes.VertexFormatFloat32x4
	}
}

func (c *pipelineCache) destroy() {
	if c.device == nil {
		return
	}
	for k, p := range c.pipelines {
		c.device.DestroyRenderPipeline(p)
		delete(c.pipelines, k)
	}
	if c.pipeLayout != nil {
		c.device.DestroyPipelineLayout(c.pipeLayout)
		c.pipeLayout = nil
	}
	if c.uniformLayout != nil {
		c.device.DestroyBindGroupLayout(c.uniformLayout)
		c.uniformLayout = nil
	}
	for k, m := range c.shaders {
		c.device.DestroyShaderModule(m)
		delete(c.shaders, k)
	}
}
