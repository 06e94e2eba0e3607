package pass

import (
	"fmt"

	"github.com/Swiiz/voxel-renderer/voxelrt/rt/gpu"
	"github.com/Swiiz/voxel-renderer/voxelrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
)

// IntermediateFormat is the voxel pass output, sampled by the composite.
const IntermediateFormat = wgpu.TextureFormatRGBA8Unorm

func intermediateDescriptor(width, height uint32) *wgpu.TextureDescriptor {
	return &wgpu.TextureDescriptor{
		Label:         "Voxel Output",
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        IntermediateFormat,
		Usage:         wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
		SampleCount:   1,
	}
}

// PostProcessingPass owns the intermediate texture and composites it onto
// the frame with a fullscreen triangle.
type PostProcessingPass struct {
	Width, Height uint32

	texture   *wgpu.Texture
	view      *wgpu.TextureView
	sampler   *wgpu.Sampler
	pipeline  *wgpu.RenderPipeline
	bindGroup *wgpu.BindGroup
}

// NewPostProcessingPass allocates a width x height intermediate texture and
// returns the view the voxel pass should write into.
func NewPostProcessingPass(ctx *gpu.GraphicsContext, width, height uint32, src ShaderSource) (*PostProcessingPass, *wgpu.TextureView, error) {
	p := &PostProcessingPass{Width: width, Height: height}
	if err := p.build(ctx, src); err != nil {
		p.Release()
		return nil, nil, err
	}
	return p, p.view, nil
}

func (p *PostProcessingPass) build(ctx *gpu.GraphicsContext, src ShaderSource) error {
	device := ctx.Device

	code, err := src.Load(shaders.PostProcMain)
	if err != nil {
		return fmt.Errorf("load composite shader: %w", err)
	}
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Composite VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return fmt.Errorf("compile composite shader: %w", err)
	}
	defer module.Release()

	p.texture, err = device.CreateTexture(intermediateDescriptor(p.Width, p.Height))
	if err != nil {
		return fmt.Errorf("create intermediate texture: %w", err)
	}
	p.view, err = p.texture.CreateView(nil)
	if err != nil {
		return err
	}
	p.sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return err
	}

	// Layout auto
	p.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Composite Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    ctx.Format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create composite pipeline: %w", err)
	}

	layout := p.pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	p.bindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Composite BG",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: p.view},
			{Binding: 1, Sampler: p.sampler},
		},
	})
	return err
}

// Run records the composite into the frame's surface view.
func (p *PostProcessingPass) Run(frame *gpu.Frame) error {
	pass := frame.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Composite Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       frame.View,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{0, 0, 0, 1},
		}},
	})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, p.bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	if err := pass.End(); err != nil {
		return fmt.Errorf("composite pass: %w", err)
	}
	return nil
}

func (p *PostProcessingPass) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.sampler != nil {
		p.sampler.Release()
		p.sampler = nil
	}
	if p.view != nil {
		p.view.Release()
		p.view = nil
	}
	if p.texture != nil {
		p.texture.Release()
		p.texture = nil
	}
}
