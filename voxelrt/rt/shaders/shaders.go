package shaders

import (
	"embed"
	"io/fs"
)

// Entry points of the two render passes, relative to the shader tree root.
const (
	VoxelMain    = "voxel/main.wgsl"
	PostProcMain = "postproc/main.wgsl"
)

//go:embed wgsl
var embedded embed.FS

// Embedded returns the built-in shader tree rooted at the wgsl directory.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "wgsl")
	if err != nil {
		panic(err)
	}
	return sub
}
