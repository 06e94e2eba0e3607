package app

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Swiiz/voxel-renderer/voxelrt/rt/core"
	"github.com/Swiiz/voxel-renderer/voxelrt/rt/gpu"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

type fakeContext struct {
	log           *callLog
	width, height uint32
	inFlight      *gpu.Frame
	unavailable   bool
	presentErr    error
}

func (c *fakeContext) NextFrame() (*gpu.Frame, bool) {
	c.log.add("acquire")
	if c.unavailable || c.inFlight != nil {
		return nil, false
	}
	c.inFlight = &gpu.Frame{Width: c.width, Height: c.height}
	return c.inFlight, true
}

func (c *fakeContext) Present(frame *gpu.Frame) error {
	c.log.add("present")
	c.inFlight = nil
	return c.presentErr
}

func (c *fakeContext) Abandon(frame *gpu.Frame) error {
	c.log.add("abandon")
	c.inFlight = nil
	return nil
}

func (c *fakeContext) Resize(width, height uint32) bool {
	c.log.add("configure %dx%d", width, height)
	c.width, c.height = width, height
	return true
}

func (c *fakeContext) WindowSize() (uint32, uint32) { return c.width, c.height }
func (c *fakeContext) FrameInFlight() bool          { return c.inFlight != nil }

type fakeVoxel struct {
	name     string
	log      *callLog
	runErr   error
	params   []core.VoxelPassParams
	released bool
}

func (v *fakeVoxel) Run(frame *gpu.Frame, camera *core.Camera, params core.VoxelPassParams) error {
	v.log.add("%s voxel", v.name)
	v.params = append(v.params, params)
	return v.runErr
}

func (v *fakeVoxel) PostRender() error {
	v.log.add("%s recall", v.name)
	return nil
}

func (v *fakeVoxel) Release() { v.released = true }

type fakePost struct {
	name     string
	log      *callLog
	released bool
}

func (p *fakePost) Run(frame *gpu.Frame) error {
	p.log.add("%s post", p.name)
	return nil
}

func (p *fakePost) Release() { p.released = true }

type testGraphics struct {
	*Graphics
	log     *callLog
	ctx     *fakeContext
	bundles []*passBundle
	voxels  []*fakeVoxel
	posts   []*fakePost
	fail    error
}

func newTestGraphics(t *testing.T) *testGraphics {
	t.Helper()
	log := &callLog{}
	tg := &testGraphics{log: log, ctx: &fakeContext{log: log, width: 800, height: 600}}

	build := func(width, height uint32) (*passBundle, error) {
		if tg.fail != nil {
			return nil, tg.fail
		}
		name := fmt.Sprintf("b%d", len(tg.bundles))
		log.add("build %s %dx%d", name, width, height)
		v := &fakeVoxel{name: name, log: log}
		p := &fakePost{name: name, log: log}
		b := &passBundle{id: uuid.New(), width: width, height: height, voxel: v, post: p}
		tg.bundles = append(tg.bundles, b)
		tg.voxels = append(tg.voxels, v)
		tg.posts = append(tg.posts, p)
		return b, nil
	}

	g, err := newGraphics(tg.ctx, build, nil)
	require.NoError(t, err)
	tg.Graphics = g
	log.calls = nil
	return tg
}

func TestNewGraphicsBuildsAtWindowSize(t *testing.T) {
	tg := newTestGraphics(t)
	require.Len(t, tg.bundles, 1)
	assert.Equal(t, uint32(800), tg.bundle.width)
	assert.Equal(t, uint32(600), tg.bundle.height)
}

func TestNewGraphicsFailsWhenBuildFails(t *testing.T) {
	ctx := &fakeContext{log: &callLog{}, width: 8, height: 8}
	_, err := newGraphics(ctx, func(uint32, uint32) (*passBundle, error) {
		return nil, errors.New("shader compile failed")
	}, nil)
	assert.Error(t, err)
}

func TestRenderSequence(t *testing.T) {
	tg := newTestGraphics(t)
	cam := core.NewCamera()

	require.NoError(t, tg.Render(cam, 0.5))

	assert.Equal(t, []string{"acquire", "b0 voxel", "b0 post", "present", "b0 recall"}, tg.log.calls)
	require.Len(t, tg.voxels[0].params, 1)
	assert.Equal(t, core.VoxelPassParams{Width: 800, Height: 600, Time: 0.5}, tg.voxels[0].params[0])
	assert.False(t, tg.ctx.FrameInFlight())
}

func TestRenderSkipsUnavailableFrame(t *testing.T) {
	tg := newTestGraphics(t)
	tg.ctx.unavailable = true

	require.NoError(t, tg.Render(core.NewCamera(), 1))
	assert.Equal(t, []string{"acquire"}, tg.log.calls)
	assert.Empty(t, tg.voxels[0].params)
}

func TestRenderAbandonsFrameOnPassError(t *testing.T) {
	tg := newTestGraphics(t)
	tg.voxels[0].runErr = errors.New("staging overflow")

	err := tg.Render(core.NewCamera(), 1)
	assert.Error(t, err)
	assert.Equal(t, []string{"acquire", "b0 voxel", "abandon", "b0 recall"}, tg.log.calls)
	assert.False(t, tg.ctx.FrameInFlight())
}

func TestRenderStillRecallsWhenPresentFails(t *testing.T) {
	tg := newTestGraphics(t)
	tg.ctx.presentErr = errors.New("finish failed")

	assert.Error(t, tg.Render(core.NewCamera(), 1))
	assert.Equal(t, "b0 recall", tg.log.calls[len(tg.log.calls)-1])
}

func TestResizeReconfiguresThenRebuilds(t *testing.T) {
	tg := newTestGraphics(t)

	require.NoError(t, tg.Resize(1024, 768))

	assert.Equal(t, []string{"configure 1024x768", "build b1 1024x768"}, tg.log.calls)
	assert.Same(t, tg.bundles[1], tg.bundle)
	assert.True(t, tg.voxels[0].released)
	assert.True(t, tg.posts[0].released)
	assert.False(t, tg.voxels[1].released)
}

func TestResizeIgnoresZeroDimension(t *testing.T) {
	tg := newTestGraphics(t)

	require.NoError(t, tg.Resize(0, 768))
	require.NoError(t, tg.Resize(1024, 0))

	assert.Empty(t, tg.log.calls)
	assert.Len(t, tg.bundles, 1)
}

func TestRefreshRebuildsAtCurrentSize(t *testing.T) {
	tg := newTestGraphics(t)

	require.NoError(t, tg.Refresh())

	assert.Equal(t, []string{"build b1 800x600"}, tg.log.calls)
	assert.Same(t, tg.bundles[1], tg.bundle)
	assert.True(t, tg.voxels[0].released)
	assert.NotEqual(t, tg.bundles[0].id, tg.bundles[1].id)
}

func TestRebuildRefusedWhileFrameInFlight(t *testing.T) {
	tg := newTestGraphics(t)
	_, ok := tg.ctx.NextFrame()
	require.True(t, ok)
	tg.log.calls = nil

	assert.ErrorIs(t, tg.Refresh(), gpu.ErrFrameInFlight)
	assert.ErrorIs(t, tg.Resize(640, 480), gpu.ErrFrameInFlight)

	assert.Empty(t, tg.log.calls)
	assert.Same(t, tg.bundles[0], tg.bundle)
	assert.False(t, tg.voxels[0].released)
}

func TestFailedRebuildKeepsCurrentBundle(t *testing.T) {
	tg := newTestGraphics(t)
	tg.fail = errors.New("voxel/main.wgsl:3: unknown directive")

	assert.Error(t, tg.Refresh())
	assert.Same(t, tg.bundles[0], tg.bundle)
	assert.False(t, tg.voxels[0].released)

	tg.fail = nil
	require.NoError(t, tg.Render(core.NewCamera(), 1))
}

func TestRenderAfterResizeUsesNewBundle(t *testing.T) {
	tg := newTestGraphics(t)
	require.NoError(t, tg.Resize(320, 240))
	tg.log.calls = nil

	require.NoError(t, tg.Render(core.NewCamera(), 2))

	assert.Equal(t, []string{"acquire", "b1 voxel", "b1 post", "present", "b1 recall"}, tg.log.calls)
	assert.Equal(t, core.VoxelPassParams{Width: 320, Height: 240, Time: 2}, tg.voxels[1].params[0])
}

func TestReleaseReleasesBundle(t *testing.T) {
	tg := newTestGraphics(t)
	tg.Release()
	tg.Release()
	assert.True(t, tg.voxels[0].released)
	assert.True(t, tg.posts[0].released)
}

func TestResizeRestoresSurfaceWhenRebuildFails(t *testing.T) {
	tg := newTestGraphics(t)
	tg.fail = errors.New("out of device memory")

	err := tg.Resize(1024, 768)
	require.Error(t, err)
	assert.Contains(t, err.Error(), tg.bundles[0].id.String())

	assert.Equal(t, []string{"configure 1024x768", "configure 800x600"}, tg.log.calls)
	w, h := tg.ctx.WindowSize()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)
	assert.Same(t, tg.bundles[0], tg.bundle)

	tg.log.calls = nil
	require.NoError(t, tg.Render(core.NewCamera(), 1))
	assert.Equal(t, core.VoxelPassParams{Width: 800, Height: 600, Time: 1}, tg.voxels[0].params[0])
}

func TestBundleIDTracksSwaps(t *testing.T) {
	tg := newTestGraphics(t)
	assert.Equal(t, tg.bundles[0].id, tg.BundleID())

	require.NoError(t, tg.Refresh())
	assert.Equal(t, tg.bundles[1].id, tg.BundleID())

	tg.Release()
	assert.Equal(t, uuid.Nil, tg.BundleID())
}

func TestErrorsNameTheBundleInUse(t *testing.T) {
	tg := newTestGraphics(t)
	id := tg.bundles[0].id.String()

	_, ok := tg.ctx.NextFrame()
	require.True(t, ok)
	err := tg.Refresh()
	assert.ErrorIs(t, err, gpu.ErrFrameInFlight)
	assert.Contains(t, err.Error(), id)
	require.NoError(t, tg.ctx.Abandon(nil))

	tg.voxels[0].runErr = errors.New("record failed")
	err = tg.Render(core.NewCamera(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), id)
}
