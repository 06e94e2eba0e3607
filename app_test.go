package voxel

import (
	"errors"
	"testing"
	"time"

	"github.com/Swiiz/voxel-renderer/voxelrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	w, h int
}

func (f *fakeWindow) GetFramebufferSize() (int, int) { return f.w, f.h }

type renderCall struct {
	camera  *core.Camera
	seconds float32
}

type fakeRenderer struct {
	renders   []renderCall
	resizes   [][2]uint32
	refreshes int
	err       error
}

func (r *fakeRenderer) Render(camera *core.Camera, seconds float32) error {
	r.renders = append(r.renders, renderCall{camera, seconds})
	return r.err
}

func (r *fakeRenderer) Resize(width, height uint32) error {
	r.resizes = append(r.resizes, [2]uint32{width, height})
	return r.err
}

func (r *fakeRenderer) Refresh() error {
	r.refreshes++
	return r.err
}

type manualClock struct {
	t time.Time
}

func (m *manualClock) now() time.Time { return m.t }

func newTestApp() (*App, *manualClock) {
	mc := &manualClock{t: time.Unix(100, 0)}
	a := NewApp(nil)
	a.newClock = func() *Clock { return newClock(mc.now) }
	return a, mc
}

func TestAppHandlersAreInertBeforeResumed(t *testing.T) {
	a, _ := newTestApp()

	assert.Equal(t, AppInit, a.State())
	assert.Nil(t, a.Camera())
	assert.NoError(t, a.RedrawRequested())
	assert.NoError(t, a.Resized())
	assert.NoError(t, a.KeyEvent(KeyF5, true))
	a.MouseWheel(3)
	a.AboutToWait()
	assert.Equal(t, AppInit, a.State())
}

func TestAppResumedTransitionsOnce(t *testing.T) {
	a, _ := newTestApp()
	first := &fakeRenderer{}
	second := &fakeRenderer{}

	a.Resumed(&fakeWindow{800, 600}, first)
	cam := a.Camera()
	a.Resumed(&fakeWindow{1, 1}, second)

	assert.Equal(t, AppRunning, a.State())
	assert.Same(t, cam, a.Camera())

	require.NoError(t, a.RedrawRequested())
	assert.Len(t, first.renders, 1)
	assert.Empty(t, second.renders)
}

func TestAppRedrawPassesBiasedElapsedTime(t *testing.T) {
	a, mc := newTestApp()
	r := &fakeRenderer{}
	a.Resumed(&fakeWindow{800, 600}, r)

	require.NoError(t, a.RedrawRequested())
	mc.t = mc.t.Add(1500 * time.Millisecond)
	require.NoError(t, a.RedrawRequested())

	require.Len(t, r.renders, 2)
	assert.InDelta(t, 0.5, r.renders[0].seconds, 1e-6)
	assert.InDelta(t, 2.0, r.renders[1].seconds, 1e-6)
	assert.Same(t, a.Camera(), r.renders[0].camera)
}

func TestAppRedrawReturnsRenderError(t *testing.T) {
	a, _ := newTestApp()
	r := &fakeRenderer{err: errors.New("pass failed")}
	a.Resumed(&fakeWindow{800, 600}, r)

	assert.Error(t, a.RedrawRequested())
}

func TestAppResizedUsesFramebufferSize(t *testing.T) {
	a, _ := newTestApp()
	win := &fakeWindow{800, 600}
	r := &fakeRenderer{}
	a.Resumed(win, r)

	win.w, win.h = 1600, 1200
	require.NoError(t, a.Resized())
	win.w, win.h = 0, 0
	require.NoError(t, a.Resized())

	assert.Equal(t, [][2]uint32{{1600, 1200}, {0, 0}}, r.resizes)
}

func TestAppKeyEventsDriveController(t *testing.T) {
	a, _ := newTestApp()
	a.Resumed(&fakeWindow{800, 600}, &fakeRenderer{})
	c := &a.Camera().Controller

	for _, k := range []Key{KeyW, KeyS, KeyA, KeyD, KeySpace, KeyLeftShift} {
		require.NoError(t, a.KeyEvent(k, true))
	}
	assert.Equal(t, core.CameraController{
		Forward: true, Backward: true, Left: true, Right: true, Up: true, Down: true, Speed: 2,
	}, *c)

	require.NoError(t, a.KeyEvent(KeyW, false))
	require.NoError(t, a.KeyEvent(KeyLeftShift, false))
	assert.False(t, c.Forward)
	assert.False(t, c.Down)
	assert.True(t, c.Backward)
}

func TestAppF5RefreshesOnPressOnly(t *testing.T) {
	a, _ := newTestApp()
	r := &fakeRenderer{}
	a.Resumed(&fakeWindow{800, 600}, r)

	require.NoError(t, a.KeyEvent(KeyF5, true))
	require.NoError(t, a.KeyEvent(KeyF5, false))
	assert.Equal(t, 1, r.refreshes)
}

func TestAppUnknownKeyIsIgnored(t *testing.T) {
	a, _ := newTestApp()
	a.Resumed(&fakeWindow{800, 600}, &fakeRenderer{})
	before := a.Camera().Controller

	require.NoError(t, a.KeyEvent(KeyUnknown, true))
	assert.Equal(t, before, a.Camera().Controller)
}

func TestAppMouseWheelAdjustsSpeed(t *testing.T) {
	a, _ := newTestApp()
	a.Resumed(&fakeWindow{800, 600}, &fakeRenderer{})

	a.MouseWheel(5)
	assert.InDelta(t, 2.5, a.Camera().Controller.Speed, 1e-6)
	a.MouseWheel(-10)
	assert.InDelta(t, 1.5, a.Camera().Controller.Speed, 1e-6)
}

func TestAppAboutToWaitIntegratesMovement(t *testing.T) {
	a, mc := newTestApp()
	a.Resumed(&fakeWindow{800, 600}, &fakeRenderer{})
	cam := a.Camera()
	require.NoError(t, a.KeyEvent(KeyW, true))

	mc.t = mc.t.Add(500 * time.Millisecond)
	a.AboutToWait()

	assert.True(t, cam.Position.ApproxEqual(mgl32.Vec3{0, 0, -1}), "got %v", cam.Position)

	a.AboutToWait()
	assert.True(t, cam.Position.ApproxEqual(mgl32.Vec3{0, 0, -1}), "no time passed, got %v", cam.Position)
}
