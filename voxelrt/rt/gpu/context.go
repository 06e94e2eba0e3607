package gpu

import (
	"errors"
	"fmt"

	voxel "github.com/Swiiz/voxel-renderer"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	ErrFrameInFlight = errors.New("a frame is already in flight")
	ErrFrameConsumed = errors.New("frame already presented or abandoned")
)

// GraphicsContext owns the device, queue and presentation surface. Passes
// hold a non-owning pointer to it.
type GraphicsContext struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface

	Format       wgpu.TextureFormat
	Capabilities wgpu.SurfaceCapabilities
	Config       *wgpu.SurfaceConfiguration

	width, height uint32
	inFlight      *Frame

	logger voxel.Logger

	// Hooks over the surface so the frame protocol can be exercised
	// without a driver.
	configure func(cfg *wgpu.SurfaceConfiguration)
	acquire   func() (*wgpu.Texture, error)
	record    func(tex *wgpu.Texture) (*wgpu.TextureView, *wgpu.CommandEncoder, error)
}

// NewGraphicsContext selects a high-performance adapter compatible with the
// surface described by target and configures it for width x height.
// Adapter and device requests are the only blocking driver calls.
func NewGraphicsContext(width, height uint32, target *wgpu.SurfaceDescriptor, logger voxel.Logger) (*GraphicsContext, error) {
	logger = voxel.OrNop(logger)

	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(target)
	if surface == nil {
		instance.Release()
		return nil, errors.New("could not create graphics surface")
	}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		surface.Release()
		instance.Release()
		return nil, fmt.Errorf("no compatible graphics adapter: %w", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Voxel Device",
	})
	if err != nil {
		adapter.Release()
		surface.Release()
		instance.Release()
		return nil, fmt.Errorf("could not acquire graphics device: %w", err)
	}

	caps := surface.GetCapabilities(adapter)
	format, err := SelectSurfaceFormat(caps.Formats)
	if err == nil && (len(caps.PresentModes) == 0 || len(caps.AlphaModes) == 0) {
		err = errors.New("surface reports no present or alpha mode")
	}
	if err != nil {
		device.Release()
		adapter.Release()
		surface.Release()
		instance.Release()
		return nil, err
	}

	c := &GraphicsContext{
		Instance:     instance,
		Adapter:      adapter,
		Device:       device,
		Queue:        device.GetQueue(),
		Surface:      surface,
		Format:       format,
		Capabilities: caps,
		logger:       logger,
	}
	c.configure = func(cfg *wgpu.SurfaceConfiguration) {
		c.Surface.Configure(c.Adapter, c.Device, cfg)
	}
	c.acquire = c.Surface.GetCurrentTexture
	c.record = c.recordTarget

	logger.Infof("Graphics context ready (format %v, srgb=%v)", format, IsSRGB(format))
	c.Resize(width, height)
	return c, nil
}

// Resize reconfigures the surface synchronously. Returns false and leaves
// the surface untouched when either dimension is zero.
func (c *GraphicsContext) Resize(width, height uint32) bool {
	if width == 0 || height == 0 {
		return false
	}
	c.Config = SurfaceConfiguration(c.Format, c.Capabilities, width, height)
	c.configure(c.Config)
	c.width, c.height = width, height
	return true
}

func (c *GraphicsContext) WindowSize() (uint32, uint32) {
	return c.width, c.height
}

// FrameInFlight reports whether a frame was acquired and not yet presented
// or abandoned.
func (c *GraphicsContext) FrameInFlight() bool {
	return c.inFlight != nil
}

// NextFrame acquires the next presentable image. It returns false when the
// image cannot be acquired right now (outdated or lost surface, timeout);
// callers skip the frame. Out of memory panics.
func (c *GraphicsContext) NextFrame() (*Frame, bool) {
	if c.inFlight != nil {
		c.logger.Warnf("NextFrame: %v", ErrFrameInFlight)
		return nil, false
	}

	tex, err := c.acquire()
	if err != nil {
		if isOutOfMemory(err) {
			c.logger.Errorf("The system is out of memory for rendering: %v", err)
			panic(fmt.Sprintf("surface texture acquisition: %v", err))
		}
		c.logger.Debugf("Skipping frame, surface texture acquisition failed: %v", err)
		return nil, false
	}

	view, encoder, err := c.record(tex)
	if err != nil {
		if tex != nil {
			tex.Release()
		}
		c.logger.Warnf("Skipping frame: %v", err)
		return nil, false
	}

	frame := &Frame{
		View:    view,
		Encoder: encoder,
		Device:  c.Device,
		Width:   c.width,
		Height:  c.height,
		texture: tex,
		owner:   c,
	}
	c.inFlight = frame
	return frame, true
}

func (c *GraphicsContext) recordTarget(tex *wgpu.Texture) (*wgpu.TextureView, *wgpu.CommandEncoder, error) {
	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create surface view: %w", err)
	}
	encoder, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		return nil, nil, fmt.Errorf("create command encoder: %w", err)
	}
	return view, encoder, nil
}

// Present submits the frame's commands and presents its image. The frame
// is invalid afterwards.
func (c *GraphicsContext) Present(frame *Frame) error {
	if err := c.claim(frame); err != nil {
		return err
	}
	defer frame.release()

	cmd, err := frame.Encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish frame commands: %w", err)
	}
	defer cmd.Release()

	c.Queue.Submit(cmd)
	c.Surface.Present()
	return nil
}

// Abandon drops a frame without submitting anything.
func (c *GraphicsContext) Abandon(frame *Frame) error {
	if err := c.claim(frame); err != nil {
		return err
	}
	frame.release()
	return nil
}

func (c *GraphicsContext) claim(frame *Frame) error {
	if frame == nil || frame.owner != c || c.inFlight != frame {
		return ErrFrameConsumed
	}
	c.inFlight = nil
	frame.owner = nil
	return nil
}

func (c *GraphicsContext) Release() {
	if c.Device != nil {
		c.Device.Release()
		c.Device = nil
	}
	if c.Adapter != nil {
		c.Adapter.Release()
		c.Adapter = nil
	}
	if c.Surface != nil {
		c.Surface.Release()
		c.Surface = nil
	}
	if c.Instance != nil {
		c.Instance.Release()
		c.Instance = nil
	}
}
