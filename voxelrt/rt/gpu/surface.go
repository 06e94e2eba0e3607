package gpu

import (
	"errors"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var ErrNoSurfaceFormat = errors.New("surface reports no usable format")

// SelectSurfaceFormat prefers an sRGB format and falls back to the first one.
func SelectSurfaceFormat(formats []wgpu.TextureFormat) (wgpu.TextureFormat, error) {
	if len(formats) == 0 {
		return wgpu.TextureFormatUndefined, ErrNoSurfaceFormat
	}
	for _, f := range formats {
		if IsSRGB(f) {
			return f, nil
		}
	}
	return formats[0], nil
}

func IsSRGB(format wgpu.TextureFormat) bool {
	switch format {
	case wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatBGRA8UnormSrgb:
		return true
	default:
		return false
	}
}

// SurfaceConfiguration builds the configuration for a width x height surface.
// Present and alpha modes are the first ones the surface advertises.
func SurfaceConfiguration(format wgpu.TextureFormat, caps wgpu.SurfaceCapabilities, width, height uint32) *wgpu.SurfaceConfiguration {
	return &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       width,
		Height:      height,
		PresentMode: caps.PresentModes[0],
		AlphaMode:   caps.AlphaModes[0],
	}
}

// isOutOfMemory reports whether a surface acquisition error is the
// out-of-memory status. GetCurrentTexture reports a non-success surface
// status as an error whose text ends in the status name, for example
// "surface status out-of-memory", so this matches on the message.
func isOutOfMemory(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	msg = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(msg)
	return strings.Contains(msg, "outofmemory")
}
