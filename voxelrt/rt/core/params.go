package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Byte sizes of the uniform structs declared in voxel/bindings.wgsl.
const (
	VoxelPassParamsSize    = 12
	CameraRenderParamsSize = 64
)

// VoxelPassParams mirrors
//
//	struct VoxelPassParams { width: u32, height: u32, time: f32 }
type VoxelPassParams struct {
	Width  uint32
	Height uint32
	Time   float32
}

func (p VoxelPassParams) Bytes() []byte {
	buf := make([]byte, VoxelPassParamsSize)
	binary.LittleEndian.PutUint32(buf[0:], p.Width)
	binary.LittleEndian.PutUint32(buf[4:], p.Height)
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(p.Time))
	return buf
}

// CameraRenderParams mirrors
//
//	struct CameraRenderParams {
//	  position: vec3<f32>,      -- 0
//	  upper_left: vec3<f32>,    -- 16
//	  pixel_delta_u: vec3<f32>, -- 32
//	  pixel_delta_v: vec3<f32>, -- 48
//	} -> 64 bytes
//
// Every vec3 is padded to 16 bytes.
type CameraRenderParams struct {
	Position    mgl32.Vec3
	UpperLeft   mgl32.Vec3
	PixelDeltaU mgl32.Vec3
	PixelDeltaV mgl32.Vec3
}

func (p CameraRenderParams) Bytes() []byte {
	buf := make([]byte, CameraRenderParamsSize)

	writeVec3 := func(offset int, v mgl32.Vec3) {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v[0]))
		binary.LittleEndian.PutUint32(buf[offset+4:], math.Float32bits(v[1]))
		binary.LittleEndian.PutUint32(buf[offset+8:], math.Float32bits(v[2]))
		binary.LittleEndian.PutUint32(buf[offset+12:], 0)
	}

	writeVec3(0, p.Position)
	writeVec3(16, p.UpperLeft)
	writeVec3(32, p.PixelDeltaU)
	writeVec3(48, p.PixelDeltaV)

	return buf
}
