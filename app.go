package voxel

import (
	"github.com/Swiiz/voxel-renderer/voxelrt/rt/core"
)

const (
	// TimeBias is added to the elapsed time handed to the renderer.
	TimeBias float32 = 0.5

	// ScrollSpeedStep is the camera speed change per wheel notch.
	ScrollSpeedStep float32 = 0.1
)

// Window is the part of the host window the app reads.
type Window interface {
	GetFramebufferSize() (width, height int)
}

// Renderer draws frames and rebuilds itself on size or shader changes.
type Renderer interface {
	Render(camera *core.Camera, seconds float32) error
	Resize(width, height uint32) error
	Refresh() error
}

type AppState int

const (
	AppInit AppState = iota
	AppRunning
)

func (s AppState) String() string {
	switch s {
	case AppInit:
		return "init"
	case AppRunning:
		return "running"
	default:
		return "unknown"
	}
}

// running holds everything that only exists once the window is up.
type running struct {
	window   Window
	renderer Renderer
	camera   *core.Camera
	clock    *Clock
}

// App receives window events. Before Resumed every handler is a no-op.
type App struct {
	run      *running
	logger   Logger
	newClock func() *Clock
}

func NewApp(logger Logger) *App {
	return &App{logger: OrNop(logger), newClock: NewClock}
}

func (a *App) State() AppState {
	if a.run == nil {
		return AppInit
	}
	return AppRunning
}

// Resumed moves the app to the running state. Later calls are ignored.
func (a *App) Resumed(window Window, renderer Renderer) {
	if a.run != nil {
		a.logger.Debugf("Resumed while running, ignoring")
		return
	}
	a.run = &running{
		window:   window,
		renderer: renderer,
		camera:   core.NewCamera(),
		clock:    a.newClock(),
	}
	a.logger.Infof("App running")
}

// Camera returns nil before Resumed.
func (a *App) Camera() *core.Camera {
	if a.run == nil {
		return nil
	}
	return a.run.camera
}

func (a *App) RedrawRequested() error {
	if a.run == nil {
		return nil
	}
	seconds := TimeBias + float32(a.run.clock.Elapsed().Seconds())
	return a.run.renderer.Render(a.run.camera, seconds)
}

// Resized resizes the renderer to the window's current framebuffer, which
// also covers scale factor changes.
func (a *App) Resized() error {
	if a.run == nil {
		return nil
	}
	w, h := a.run.window.GetFramebufferSize()
	if w < 0 || h < 0 {
		return nil
	}
	return a.run.renderer.Resize(uint32(w), uint32(h))
}

func (a *App) KeyEvent(key Key, pressed bool) error {
	if a.run == nil {
		return nil
	}
	c := &a.run.camera.Controller
	switch key {
	case KeyF5:
		if pressed {
			a.logger.Infof("Refreshing pipelines")
			return a.run.renderer.Refresh()
		}
	case KeyW:
		c.Forward = pressed
	case KeyS:
		c.Backward = pressed
	case KeyA:
		c.Left = pressed
	case KeyD:
		c.Right = pressed
	case KeySpace:
		c.Up = pressed
	case KeyLeftShift:
		c.Down = pressed
	}
	return nil
}

func (a *App) MouseWheel(dy float32) {
	if a.run == nil {
		return
	}
	a.run.camera.Controller.Speed += ScrollSpeedStep * dy
}

// AboutToWait integrates camera movement since the previous call.
func (a *App) AboutToWait() {
	if a.run == nil {
		return
	}
	dt := a.run.clock.Tick()
	a.run.camera.UpdateMovement(float32(dt.Seconds()))
}
