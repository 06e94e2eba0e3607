package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Frame is the per-frame render target: the acquired surface image, a view
// into it and the encoder recording this frame's commands. It lives from
// NextFrame until Present or Abandon and must not be kept after that.
type Frame struct {
	View    *wgpu.TextureView
	Encoder *wgpu.CommandEncoder

	// Device is borrowed from the owning context.
	Device *wgpu.Device

	Width  uint32
	Height uint32

	texture *wgpu.Texture
	owner   *GraphicsContext
}

func (f *Frame) release() {
	if f.Encoder != nil {
		f.Encoder.Release()
		f.Encoder = nil
	}
	if f.View != nil {
		f.View.Release()
		f.View = nil
	}
	if f.texture != nil {
		f.texture.Release()
		f.texture = nil
	}
}
