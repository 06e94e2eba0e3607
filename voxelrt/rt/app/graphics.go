package app

import (
	"fmt"
	"io/fs"
	"time"

	voxel "github.com/Swiiz/voxel-renderer"
	"github.com/Swiiz/voxel-renderer/voxelrt/rt/core"
	"github.com/Swiiz/voxel-renderer/voxelrt/rt/gpu"
	"github.com/Swiiz/voxel-renderer/voxelrt/rt/pass"
	"github.com/Swiiz/voxel-renderer/voxelrt/rt/shaders"

	"github.com/google/uuid"
)

// StatsInterval is how often frame statistics are logged in debug mode.
const StatsInterval = time.Second

type frameContext interface {
	NextFrame() (*gpu.Frame, bool)
	Present(frame *gpu.Frame) error
	Abandon(frame *gpu.Frame) error
	Resize(width, height uint32) bool
	WindowSize() (uint32, uint32)
	FrameInFlight() bool
}

type voxelStage interface {
	Run(frame *gpu.Frame, camera *core.Camera, params core.VoxelPassParams) error
	PostRender() error
	Release()
}

type compositeStage interface {
	Run(frame *gpu.Frame) error
	Release()
}

// passBundle is everything sized to the surface. It is never modified
// after construction; resize and refresh replace it.
type passBundle struct {
	id            uuid.UUID
	width, height uint32

	voxel voxelStage
	post  compositeStage
}

func (b *passBundle) release() {
	b.voxel.Release()
	b.post.Release()
}

type bundleFactory func(width, height uint32) (*passBundle, error)

type Options struct {
	// Shaders is the tree entry points are loaded from, read again on
	// every rebuild. Defaults to the embedded tree.
	Shaders         fs.FS
	ValidateShaders bool
	Logger          voxel.Logger
}

// Graphics sequences one frame: acquire, voxel pass, composite, present,
// staging recall.
type Graphics struct {
	ctx      frameContext
	build    bundleFactory
	bundle   *passBundle
	profiler *Profiler
	logger   voxel.Logger
}

func NewGraphics(ctx *gpu.GraphicsContext, opts Options) (*Graphics, error) {
	logger := voxel.OrNop(opts.Logger)
	if opts.Shaders == nil {
		opts.Shaders = shaders.Embedded()
	}
	loader := shaders.NewLoader(opts.Shaders, opts.ValidateShaders)
	loader.Warnf = logger.Warnf

	build := func(width, height uint32) (*passBundle, error) {
		post, output, err := pass.NewPostProcessingPass(ctx, width, height, loader)
		if err != nil {
			return nil, fmt.Errorf("post-processing pass: %w", err)
		}
		vp, err := pass.NewVoxelPass(ctx, output, loader, logger)
		if err != nil {
			post.Release()
			return nil, fmt.Errorf("voxel pass: %w", err)
		}
		return &passBundle{id: uuid.New(), width: width, height: height, voxel: vp, post: post}, nil
	}
	return newGraphics(ctx, build, logger)
}

func newGraphics(ctx frameContext, build bundleFactory, logger voxel.Logger) (*Graphics, error) {
	g := &Graphics{
		ctx:      ctx,
		build:    build,
		profiler: NewProfiler(),
		logger:   voxel.OrNop(logger),
	}
	if err := g.rebuild(); err != nil {
		return nil, err
	}
	return g, nil
}

// Render draws one frame, or nothing when no surface image is available.
func (g *Graphics) Render(camera *core.Camera, seconds float32) error {
	g.profiler.BeginScope("Acquire")
	frame, ok := g.ctx.NextFrame()
	g.profiler.EndScope("Acquire")
	if !ok {
		return nil
	}

	b := g.bundle
	params := core.VoxelPassParams{Width: frame.Width, Height: frame.Height, Time: seconds}

	g.profiler.BeginScope("Voxel")
	err := b.voxel.Run(frame, camera, params)
	g.profiler.EndScope("Voxel")
	if err == nil {
		g.profiler.BeginScope("PostProcess")
		err = b.post.Run(frame)
		g.profiler.EndScope("PostProcess")
	}
	if err != nil {
		g.abandon(b, frame)
		return fmt.Errorf("pipelines %s: %w", b.id, err)
	}

	g.profiler.BeginScope("Present")
	err = g.ctx.Present(frame)
	g.profiler.EndScope("Present")
	if recallErr := b.voxel.PostRender(); recallErr != nil && err == nil {
		err = recallErr
	}
	if err != nil {
		return err
	}

	g.report()
	return nil
}

func (g *Graphics) abandon(b *passBundle, frame *gpu.Frame) {
	if err := g.ctx.Abandon(frame); err != nil {
		g.logger.Warnf("Abandon frame: %v", err)
	}
	if err := b.voxel.PostRender(); err != nil {
		g.logger.Warnf("Recall staging after abandoned frame: %v", err)
	}
}

func (g *Graphics) report() {
	fps, ok := g.profiler.FrameDone(StatsInterval)
	if !ok || !g.logger.DebugEnabled() {
		return
	}
	g.profiler.SetCount("Width", int(g.bundle.width))
	g.profiler.SetCount("Height", int(g.bundle.height))
	g.logger.Debugf("%.1f FPS, bundle %s\n%s", fps, g.bundle.id, g.profiler.GetStatsString())
}

// Resize reconfigures the surface and rebuilds the passes for the new
// size. Zero dimensions are ignored. If the rebuild fails the surface is
// configured back to the size of the bundle still in use.
func (g *Graphics) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	if err := g.checkIdle(); err != nil {
		return err
	}
	oldWidth, oldHeight := g.ctx.WindowSize()
	g.ctx.Resize(width, height)
	if err := g.rebuild(); err != nil {
		g.ctx.Resize(oldWidth, oldHeight)
		return err
	}
	return nil
}

// Refresh rebuilds the passes at the current size, reloading shaders.
func (g *Graphics) Refresh() error {
	return g.rebuild()
}

// BundleID identifies the pipelines currently in use.
func (g *Graphics) BundleID() uuid.UUID {
	if g.bundle == nil {
		return uuid.Nil
	}
	return g.bundle.id
}

func (g *Graphics) checkIdle() error {
	if g.ctx.FrameInFlight() {
		return fmt.Errorf("pipelines %s still referenced: %w", g.BundleID(), gpu.ErrFrameInFlight)
	}
	return nil
}

// rebuild swaps in a complete new bundle. On failure the current one stays.
func (g *Graphics) rebuild() error {
	if err := g.checkIdle(); err != nil {
		return err
	}
	width, height := g.ctx.WindowSize()
	next, err := g.build(width, height)
	if err != nil {
		if g.bundle != nil {
			return fmt.Errorf("rebuild %dx%d, keeping pipelines %s: %w", width, height, g.bundle.id, err)
		}
		return err
	}

	old := g.bundle
	g.bundle = next
	if old != nil {
		old.release()
		g.logger.Infof("Rebuilt pipelines %s -> %s (%dx%d)", old.id, next.id, width, height)
	} else {
		g.logger.Infof("Built pipelines %s (%dx%d)", next.id, width, height)
	}
	return nil
}

func (g *Graphics) Release() {
	if g.bundle != nil {
		g.bundle.release()
		g.bundle = nil
	}
}
