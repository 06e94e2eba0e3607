package pass

import (
	"fmt"

	voxel "github.com/Swiiz/voxel-renderer"
	"github.com/Swiiz/voxel-renderer/voxelrt/rt/core"
	"github.com/Swiiz/voxel-renderer/voxelrt/rt/gpu"
	"github.com/Swiiz/voxel-renderer/voxelrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// WorkgroupSize matches @workgroup_size in voxel/main.wgsl.
	WorkgroupSize = 16

	ParamsSize       = core.VoxelPassParamsSize
	CameraParamsSize = core.CameraRenderParamsSize

	// StagingCapacity holds exactly one frame of uniforms.
	StagingCapacity = ParamsSize + CameraParamsSize
)

// ShaderSource resolves a shader entry point to compilable WGSL.
type ShaderSource interface {
	Load(name string) (string, error)
}

// DispatchSize is the workgroup grid for a width x height target. Sizes that
// are not multiples of WorkgroupSize leave the right and bottom edges
// unwritten.
func DispatchSize(width, height uint32) (x, y, z uint32) {
	return width / WorkgroupSize, height / WorkgroupSize, 1
}

func voxelLayoutEntries() []wgpu.BindGroupLayoutEntry {
	return []wgpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: wgpu.ShaderStageCompute,
			StorageTexture: wgpu.StorageTextureBindingLayout{
				Access:        wgpu.StorageTextureAccessWriteOnly,
				Format:        IntermediateFormat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		},
		{
			Binding:    1,
			Visibility: wgpu.ShaderStageCompute,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: ParamsSize,
			},
		},
		{
			Binding:    2,
			Visibility: wgpu.ShaderStageCompute,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: CameraParamsSize,
			},
		},
	}
}

// VoxelPass ray-marches the scene into the intermediate texture.
type VoxelPass struct {
	device *wgpu.Device

	layout         *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	pipeline       *wgpu.ComputePipeline
	bindGroup      *wgpu.BindGroup

	ParamsBuffer *wgpu.Buffer
	CameraBuffer *wgpu.Buffer
	staging      *gpu.StagingBelt

	logger voxel.Logger
}

// NewVoxelPass builds the compute pipeline writing into output, which must
// be an IntermediateFormat view usable as a storage binding.
func NewVoxelPass(ctx *gpu.GraphicsContext, output *wgpu.TextureView, src ShaderSource, logger voxel.Logger) (*VoxelPass, error) {
	p := &VoxelPass{device: ctx.Device, logger: voxel.OrNop(logger)}
	if err := p.build(output, src); err != nil {
		p.Release()
		return nil, err
	}
	p.logger.Debugf("Voxel pass ready (staging %d bytes)", p.staging.Capacity())
	return p, nil
}

func (p *VoxelPass) build(output *wgpu.TextureView, src ShaderSource) error {
	code, err := src.Load(shaders.VoxelMain)
	if err != nil {
		return fmt.Errorf("load voxel shader: %w", err)
	}
	module, err := p.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Voxel CS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return fmt.Errorf("compile voxel shader: %w", err)
	}
	defer module.Release()

	p.layout, err = p.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Voxel BGL",
		Entries: voxelLayoutEntries(),
	})
	if err != nil {
		return err
	}
	p.pipelineLayout, err = p.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Voxel Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.layout},
	})
	if err != nil {
		return err
	}
	p.pipeline, err = p.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "Voxel Pipeline",
		Layout: p.pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("create voxel pipeline: %w", err)
	}

	p.ParamsBuffer, err = p.createUniform("Voxel Params", ParamsSize)
	if err != nil {
		return err
	}
	p.CameraBuffer, err = p.createUniform("Camera Params", CameraParamsSize)
	if err != nil {
		return err
	}

	p.bindGroup, err = p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Voxel BG",
		Layout: p.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: output},
			{Binding: 1, Buffer: p.ParamsBuffer, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: p.CameraBuffer, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return err
	}

	p.staging, err = gpu.NewStagingBelt(p.device, StagingCapacity)
	if err != nil {
		return err
	}
	return nil
}

func (p *VoxelPass) createUniform(label string, size uint64) (*wgpu.Buffer, error) {
	buf, err := p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", label, err)
	}
	return buf, nil
}

// Run stages this frame's uniforms and records the dispatch into the
// frame's encoder. PostRender must follow once the frame is submitted.
func (p *VoxelPass) Run(frame *gpu.Frame, camera *core.Camera, params core.VoxelPassParams) error {
	if err := p.stage(frame.Encoder, params, camera.RenderParams(params.Width, params.Height)); err != nil {
		return err
	}

	pass := frame.Encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: "Voxel Pass"})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, p.bindGroup, nil)
	pass.DispatchWorkgroups(DispatchSize(params.Width, params.Height))
	if err := pass.End(); err != nil {
		return fmt.Errorf("voxel pass: %w", err)
	}
	return nil
}

func (p *VoxelPass) stage(enc gpu.CopyEncoder, params core.VoxelPassParams, cam core.CameraRenderParams) error {
	region, err := p.staging.WriteRegion(enc, p.ParamsBuffer, 0, ParamsSize)
	if err != nil {
		return fmt.Errorf("stage voxel params: %w", err)
	}
	copy(region, params.Bytes())

	region, err = p.staging.WriteRegion(enc, p.CameraBuffer, 0, CameraParamsSize)
	if err != nil {
		return fmt.Errorf("stage camera params: %w", err)
	}
	copy(region, cam.Bytes())

	return p.staging.Finish()
}

// PostRender recycles the staging belt. Call exactly once per Run, after
// the frame carrying it was submitted or abandoned.
func (p *VoxelPass) PostRender() error {
	// Seals a belt left open by a Run that failed midway.
	if err := p.staging.Finish(); err != nil {
		return err
	}
	return p.staging.Recall()
}

func (p *VoxelPass) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
		p.pipelineLayout = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	if p.ParamsBuffer != nil {
		p.ParamsBuffer.Release()
		p.ParamsBuffer = nil
	}
	if p.CameraBuffer != nil {
		p.CameraBuffer.Release()
		p.CameraBuffer = nil
	}
	if p.staging != nil {
		p.staging.Release()
		p.staging = nil
	}
}
