package voxel

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeySpace
	KeyLeftShift
	KeyF5
	KeyEscape
)

var glfwToKey = map[glfw.Key]Key{
	glfw.KeyW:         KeyW,
	glfw.KeyA:         KeyA,
	glfw.KeyS:         KeyS,
	glfw.KeyD:         KeyD,
	glfw.KeySpace:     KeySpace,
	glfw.KeyLeftShift: KeyLeftShift,
	glfw.KeyF5:        KeyF5,
	glfw.KeyEscape:    KeyEscape,
}

// KeyFromGLFW maps a glfw key code, returning KeyUnknown for keys the
// renderer does not handle.
func KeyFromGLFW(k glfw.Key) Key {
	if key, ok := glfwToKey[k]; ok {
		return key
	}
	return KeyUnknown
}

// IsPressed treats key repeat as held.
func IsPressed(action glfw.Action) bool {
	return action != glfw.Release
}
