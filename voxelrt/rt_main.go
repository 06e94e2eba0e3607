package main

import (
	"flag"
	"os"
	"runtime"

	voxel "github.com/Swiiz/voxel-renderer"
	"github.com/Swiiz/voxel-renderer/voxelrt/rt/app"
	"github.com/Swiiz/voxel-renderer/voxelrt/rt/gpu"

	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	cfg := voxel.DefaultConfig()
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	cfg.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	logger := voxel.NewDefaultLogger(cfg.LogPrefix, cfg.Debug)
	fatal := func(what string, err error) {
		if err != nil {
			logger.Errorf("%s: %v", what, err)
			panic(err)
		}
	}
	fatal("config", cfg.Validate())

	fatal("glfw init", glfw.Init())
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	fatal("create window", err)
	defer window.Destroy()

	width, height := window.GetFramebufferSize()
	ctx, err := gpu.NewGraphicsContext(uint32(width), uint32(height), wgpuglfw.GetSurfaceDescriptor(window), logger)
	fatal("graphics context", err)
	defer ctx.Release()

	graphics, err := app.NewGraphics(ctx, app.Options{
		Shaders:         cfg.ShaderFS(),
		ValidateShaders: cfg.ValidateShaders,
		Logger:          logger,
	})
	fatal("pipelines", err)
	defer graphics.Release()

	application := voxel.NewApp(logger)
	application.Resumed(window, graphics)

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		fatal("resize", application.Resized())
	})
	window.SetContentScaleCallback(func(w *glfw.Window, x, y float32) {
		fatal("resize", application.Resized())
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
			return
		}
		fatal("refresh", application.KeyEvent(voxel.KeyFromGLFW(key), voxel.IsPressed(action)))
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		application.MouseWheel(float32(yoff))
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.AboutToWait()
		if err := application.RedrawRequested(); err != nil {
			logger.Errorf("Render: %v", err)
		}
	}
}
